package anthropic

import "testing"

func TestNewGeneratorDefaults(t *testing.T) {
	if _, err := NewGenerator("", "", 0, ""); err == nil {
		t.Fatal("expected error for missing api key")
	}

	g, err := NewGenerator("key", " ", 0, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.Model() != defaultModel {
		t.Fatalf("expected default model, got %q", g.Model())
	}
	if g.maxTokens != defaultMaxTokens {
		t.Fatalf("expected default max tokens, got %d", g.maxTokens)
	}
}
