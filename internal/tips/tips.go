// Package tips derives coaching tips from a simulated metrics snapshot.
package tips

import (
	_ "embed"
	"fmt"

	"github.com/spigell/hh-interviewer/internal/interview"
	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var rulesRaw []byte

type threshold struct {
	Below int    `yaml:"below"`
	Above int    `yaml:"above"`
	Tip   string `yaml:"tip"`
}

type categoryRule struct {
	Metric string `yaml:"metric"`
	Value  string `yaml:"value"`
	Tip    string `yaml:"tip"`
}

// Rules is the rule table. Each metric dimension is evaluated on its own.
type Rules struct {
	Minimum    int `yaml:"minimum"`
	Engagement struct {
		Low  threshold `yaml:"low"`
		High threshold `yaml:"high"`
	} `yaml:"engagement"`
	Categories []categoryRule `yaml:"categories"`
	General    []string       `yaml:"general"`
}

var defaultRules = mustLoad(rulesRaw)

// Load decodes a rule table from YAML.
func Load(data []byte) (*Rules, error) {
	var r Rules
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode tip rules: %w", err)
	}

	if r.Engagement.Low.Below > r.Engagement.High.Above {
		return nil, fmt.Errorf("decode tip rules: low engagement threshold %d above high threshold %d",
			r.Engagement.Low.Below, r.Engagement.High.Above)
	}

	for _, rule := range r.Categories {
		if category(interview.Metrics{}, rule.Metric) == nil {
			return nil, fmt.Errorf("decode tip rules: unknown metric %q", rule.Metric)
		}
	}

	return &r, nil
}

func mustLoad(data []byte) *Rules {
	r, err := Load(data)
	if err != nil {
		panic(err)
	}
	return r
}

// Advise applies the built-in rule table.
func Advise(m interview.Metrics, rng interview.RandSource) []string {
	return defaultRules.Advise(m, rng)
}

// Advise returns the rule-derived tips for m, padded from the general pool
// until Minimum tips exist or the pool runs out. Padding is drawn without
// replacement from rng, so a fixed source gives a fixed result.
func (r *Rules) Advise(m interview.Metrics, rng interview.RandSource) []string {
	var tips []string

	switch {
	case m.Engagement < r.Engagement.Low.Below:
		tips = append(tips, r.Engagement.Low.Tip)
	case m.Engagement > r.Engagement.High.Above:
		tips = append(tips, r.Engagement.High.Tip)
	}

	for _, rule := range r.Categories {
		if value := category(m, rule.Metric); value != nil && *value == rule.Value {
			tips = append(tips, rule.Tip)
		}
	}

	pool := append([]string(nil), r.General...)
	for len(tips) < r.Minimum && len(pool) > 0 {
		i := rng.Intn(len(pool))
		tips = append(tips, pool[i])
		pool = append(pool[:i], pool[i+1:]...)
	}

	return tips
}

func category(m interview.Metrics, metric string) *string {
	switch metric {
	case "sentiment":
		return &m.Sentiment
	case "expression":
		return &m.Expression
	case "clarity":
		return &m.Clarity
	case "confidence":
		return &m.Confidence
	default:
		return nil
	}
}
