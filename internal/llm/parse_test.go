package llm

import (
	"testing"
)

type testPayload struct {
	Headline string `json:"headline"`
	Score    int    `json:"score"`
}

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no fence", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounding whitespace", "  ```json\n{\"a\":1}\n```  ", `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripCodeFences(tt.in); got != tt.want {
				t.Errorf("StripCodeFences(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestUnmarshalResponseClean(t *testing.T) {
	var p testPayload
	if err := UnmarshalResponse(`{"headline":"Go further","score":9}`, &p); err != nil {
		t.Fatalf("UnmarshalResponse failed: %v", err)
	}
	if p.Headline != "Go further" || p.Score != 9 {
		t.Errorf("Unexpected payload: %+v", p)
	}
}

func TestUnmarshalResponseFenced(t *testing.T) {
	var p testPayload
	raw := "```json\n{\"headline\":\"Stay warm\",\"score\":7}\n```"
	if err := UnmarshalResponse(raw, &p); err != nil {
		t.Fatalf("UnmarshalResponse failed: %v", err)
	}
	if p.Headline != "Stay warm" {
		t.Errorf("Unexpected headline: %q", p.Headline)
	}
}

func TestUnmarshalResponseRepairs(t *testing.T) {
	var p testPayload
	// Trailing comma and unquoted key, typical model slop.
	raw := `{"headline": "Launch day", score: 5,}`
	if err := UnmarshalResponse(raw, &p); err != nil {
		t.Fatalf("UnmarshalResponse failed to repair: %v", err)
	}
	if p.Headline != "Launch day" || p.Score != 5 {
		t.Errorf("Unexpected payload after repair: %+v", p)
	}
}

func TestUnmarshalResponseHopeless(t *testing.T) {
	var p testPayload
	if err := UnmarshalResponse("I could not produce JSON today, sorry!", &p); err == nil {
		t.Error("Expected error for unrepairable response")
	}
}
