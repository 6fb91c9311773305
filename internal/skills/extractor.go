// Package skills turns resume text into a short, ranked list of interview
// topics by asking the language model for a JSON analysis.
package skills

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/mitchellh/mapstructure"
	"github.com/spigell/hh-interviewer/internal/ai"
	"github.com/spigell/hh-interviewer/internal/logger"
	"github.com/spigell/hh-interviewer/internal/utils"
	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"
)

const (
	// MaxSkills caps the number of skills kept from one analysis.
	MaxSkills = 5

	Operation = "analyze_resume"

	DefaultAcknowledgment = "Thank you for uploading your resume."
	DefaultPrompt         = `Please type "start" to begin the interview.`
)

var (
	//go:embed prompt.md
	promptRaw      string
	promptTemplate = template.Must(template.New("analyze_resume").Parse(promptRaw))

	//go:embed schema.json
	schemaRaw    string
	schemaLoader = gojsonschema.NewStringLoader(schemaRaw)
)

// Analysis is the decoded model answer. Empty fields are replaced by defaults
// when the message is composed.
type Analysis struct {
	Acknowledgment string   `mapstructure:"acknowledgment"`
	Skills         []string `mapstructure:"key_skills"`
	Prompt         string   `mapstructure:"prompt"`
}

// Message composes the reply shown to the candidate after an upload.
func (a *Analysis) Message() string {
	ack := strings.TrimSpace(a.Acknowledgment)
	if ack == "" {
		ack = DefaultAcknowledgment
	}

	prompt := strings.TrimSpace(a.Prompt)
	if prompt == "" {
		prompt = DefaultPrompt
	}

	lines := make([]string, 0, len(a.Skills))
	for _, skill := range a.Skills {
		lines = append(lines, "- "+skill)
	}

	return fmt.Sprintf("%s\n\n**Key Skills**:\n%s\n\n%s", ack, strings.Join(lines, "\n"), prompt)
}

type Extractor struct {
	gateway     ai.Gateway
	instruction string
	logger      *zap.Logger
}

func NewExtractor(gateway ai.Gateway, log *zap.Logger) (*Extractor, error) {
	var buf bytes.Buffer
	if err := promptTemplate.Execute(&buf, struct{ MaxSkills int }{MaxSkills}); err != nil {
		return nil, fmt.Errorf("render analysis prompt: %w", err)
	}

	return &Extractor{
		gateway:     gateway,
		instruction: buf.String(),
		logger:      logger.WithFields(log, zap.String(logger.FieldOperation, Operation)),
	}, nil
}

// Extract analyses resume text. Blank text yields an empty Analysis without a
// model call.
func (e *Extractor) Extract(ctx context.Context, resume string) (*Analysis, error) {
	resume = strings.TrimSpace(resume)
	if resume == "" {
		e.logger.Info("resume is empty, skipping analysis")
		return &Analysis{}, nil
	}

	raw, err := e.gateway.Generate(ctx, ai.Prompt{
		Operation:   Operation,
		Instruction: e.instruction,
		Input:       "Analyze this resume:\n\n" + resume,
	})
	if err != nil {
		return nil, fmt.Errorf("analyze resume: %w", err)
	}

	analysis, err := Parse(raw)
	if err != nil {
		e.logger.Warn("failed to parse resume analysis",
			zap.String("response_preview", utils.TruncateForLog(raw, utils.PreviewLength)),
			zap.Error(err),
		)
		return nil, err
	}

	e.logger.Info("resume analysed", zap.Strings("skills", analysis.Skills))

	return analysis, nil
}

// Parse locates the JSON object in a model response and decodes it.
func Parse(raw string) (*Analysis, error) {
	span, err := ExtractJSONSpan(raw)
	if err != nil {
		return nil, err
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(span), &doc); err != nil {
		return nil, &ParseError{Kind: ErrMalformedJSON, Raw: span, Err: err}
	}

	if err := validate(doc); err != nil {
		return nil, &ParseError{Kind: ErrMalformedJSON, Raw: span, Err: err}
	}

	var analysis Analysis
	if err := mapstructure.Decode(doc, &analysis); err != nil {
		return nil, &ParseError{Kind: ErrMalformedJSON, Raw: span, Err: err}
	}

	analysis.Skills = normalize(analysis.Skills)

	return &analysis, nil
}

func validate(doc map[string]any) error {
	res, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewGoLoader(doc))
	if err != nil {
		return err
	}
	if res.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("schema validation failed: %s", strings.Join(msgs, "; "))
}

// normalize trims entries, drops blank ones and keeps at most MaxSkills in
// their original order. Duplicates are preserved.
func normalize(skills []string) []string {
	out := make([]string, 0, min(len(skills), MaxSkills))
	for _, skill := range skills {
		skill = strings.TrimSpace(skill)
		if skill == "" {
			continue
		}
		out = append(out, skill)
		if len(out) == MaxSkills {
			break
		}
	}
	return out
}
