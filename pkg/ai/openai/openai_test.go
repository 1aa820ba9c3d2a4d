package openai

import "testing"

func TestStructuredModelDefaults(t *testing.T) {
	client := NewGraphOpenAIClient(NewGraphOpenAIClientParams{
		CompletionModel: "chat-large",
		ExtractionModel: "extract-small",
	})
	if got := client.structuredModel(); got != "extract-small" {
		t.Errorf("structuredModel() = %q, want extract-small", got)
	}

	client = NewGraphOpenAIClient(NewGraphOpenAIClientParams{
		CompletionModel: "chat-large",
	})
	if got := client.structuredModel(); got != "chat-large" {
		t.Errorf("structuredModel() = %q, want chat-large fallback", got)
	}
}
