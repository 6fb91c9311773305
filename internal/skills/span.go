package skills

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoJSON means the model response contains no JSON object at all.
	ErrNoJSON = errors.New("no JSON object found in model response")
	// ErrMalformedJSON means a JSON object was located but could not be used.
	ErrMalformedJSON = errors.New("malformed JSON in model response")
)

// ParseError reports why a model response could not be turned into an
// Analysis. Kind is ErrNoJSON or ErrMalformedJSON.
type ParseError struct {
	Kind error
	Raw  string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Err == nil {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%v: %v", e.Kind, e.Err)
}

func (e *ParseError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// ExtractJSONSpan returns the first balanced {...} span of text. Braces inside
// JSON string literals do not count towards the balance.
func ExtractJSONSpan(text string) (string, error) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", &ParseError{Kind: ErrNoJSON, Raw: text}
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		c := text[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], nil
			}
		}
	}

	end := strings.LastIndexByte(text, '}')
	if end < start {
		return "", &ParseError{Kind: ErrNoJSON, Raw: text}
	}

	return "", &ParseError{
		Kind: ErrMalformedJSON,
		Raw:  text[start : end+1],
		Err:  errors.New("unbalanced braces"),
	}
}
