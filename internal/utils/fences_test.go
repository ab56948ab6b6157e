package utils

import "testing"

func TestStripCodeFences(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input  string
		expect string
	}{
		{input: "```json\n{\"a\":1}\n```", expect: `{"a":1}`},
		{input: "```\n{\"a\":1}```", expect: `{"a":1}`},
		{input: "  {\"a\":1}  ", expect: `{"a":1}`},
		{input: "plain text", expect: "plain text"},
	}

	for _, tt := range tests {
		if got := StripCodeFences(tt.input); got != tt.expect {
			t.Fatalf("expected %q, got %q", tt.expect, got)
		}
	}
}
