package ai

import (
	"encoding/json"
	"strings"
	"testing"
)

type decision struct {
	Destination string `json:"destination"`
	Score       int    `json:"score,omitempty"`
}

func TestUnmarshalFlexible(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  decision
	}{
		{
			name:  "plain json",
			input: `{"destination": "GLOBAL"}`,
			want:  decision{Destination: "GLOBAL"},
		},
		{
			name:  "markdown fenced",
			input: "```json\n{\"destination\": \"LOCAL\"}\n```",
			want:  decision{Destination: "LOCAL"},
		},
		{
			name:  "fence without language tag",
			input: "```\n{\"destination\": \"LOCAL\"}\n```",
			want:  decision{Destination: "LOCAL"},
		},
		{
			name:  "double encoded",
			input: `"{\"destination\": \"GLOBAL\"}"`,
			want:  decision{Destination: "GLOBAL"},
		},
		{
			name:  "trailing comma repaired",
			input: `{"destination": "LOCAL", "score": 42,}`,
			want:  decision{Destination: "LOCAL", Score: 42},
		},
		{
			name:  "single quotes repaired",
			input: `{'destination': 'GLOBAL'}`,
			want:  decision{Destination: "GLOBAL"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got decision
			if err := UnmarshalFlexible(tt.input, &got); err != nil {
				t.Fatalf("UnmarshalFlexible() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("UnmarshalFlexible() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestUnmarshalFlexibleUnrecoverable(t *testing.T) {
	var got decision
	if err := UnmarshalFlexible(`"still not an object`, &got); err == nil {
		t.Fatal("UnmarshalFlexible() expected error, got nil")
	}
}

func TestGenerateSchema(t *testing.T) {
	schema := GenerateSchema(decision{})

	raw, err := json.Marshal(schema)
	if err != nil {
		t.Fatalf("marshal schema: %v", err)
	}
	s := string(raw)

	if !strings.Contains(s, `"destination"`) {
		t.Errorf("schema missing destination property: %s", s)
	}
	if !strings.Contains(s, `"additionalProperties":false`) {
		t.Errorf("schema should forbid additional properties: %s", s)
	}
}
