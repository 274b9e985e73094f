package openai

import "testing"

func TestNewClientRequiresModel(t *testing.T) {
	if _, err := NewClient("key", "  "); err == nil {
		t.Fatalf("expected error for empty model")
	}
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	if _, err := NewClient("", "gpt-4o"); err == nil {
		t.Fatalf("expected error for empty api key")
	}
}
