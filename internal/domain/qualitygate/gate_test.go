package qualitygate

import (
	"strings"
	"testing"
)

func TestEvaluate_Table(t *testing.T) {
	t.Parallel()

	gate := New(DefaultPolicy(), nil)

	tests := []struct {
		name     string
		text     string
		duration float64
		keep     bool
	}{
		{"genuine speech", "ಸೊಲ್ಪ ನೋಡ್ತಾ ಇರಿ", 2.4, true},
		{"sub-threshold duration rejects any text", "ಇದು ನಿಜವಾದ ಮಾತು ಹೌದು", 0.3, false},
		{"duration exactly at threshold passes", "ಇದು ನಿಜವಾದ ಮಾತು", 0.5, true},
		{"empty text", "", 2.0, false},
		{"whitespace only", "   \t ", 2.0, false},
		{"near-empty after trim", " ಹಾ ", 2.0, false},
		{"repeated character output", "ಹಹಹಹಹಹಹಹ", 2.0, false},
		{"two-character alternation", "abababababab", 2.0, false},
		{"hallucination exact match", "ಧನ್ಯವಾದಗಳು", 3.0, false},
		{"hallucination with surrounding whitespace", "  [music]  ", 3.0, false},
		{"hallucination case-insensitive", "[MUSIC]", 3.0, false},
		{"hallucination as substring is kept", "ಸಂಗೀತ ಕೇಳುತ್ತಾ ಇದ್ದೇವೆ", 3.0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := gate.Evaluate(tt.text, tt.duration); got != tt.keep {
				t.Fatalf("Evaluate(%q, %v) = %v, want %v", tt.text, tt.duration, got, tt.keep)
			}
		})
	}
}

func TestEvaluate_DurationCheckedFirst(t *testing.T) {
	t.Parallel()

	// The 0.3s ellipsis segment from a real run: it fails several rules,
	// but the attribution must be the duration check.
	gate := New(DefaultPolicy(), nil)
	if gate.Evaluate("...", 0.3) {
		t.Fatalf("expected rejection")
	}
	if reason := gate.rejectReason("...", 0.3); reason != "too short" {
		t.Fatalf("expected duration attribution, got %q", reason)
	}
}

func TestEvaluate_HallucinationBeatsOtherPasses(t *testing.T) {
	t.Parallel()

	// Long enough and varied enough to clear rules 1-3; still rejected.
	gate := New(Policy{
		MinDuration:    0.5,
		MinLength:      3,
		MinUniqueness:  5,
		Hallucinations: []string{"thank you for watching"},
	}, nil)
	if gate.Evaluate("Thank You For Watching", 5.0) {
		t.Fatalf("hallucination must be rejected even when other rules pass")
	}
}

func TestEvaluate_CustomPolicy(t *testing.T) {
	t.Parallel()

	gate := New(Policy{MinDuration: 1.0, MinLength: 1, MinUniqueness: 1}, nil)
	if gate.Evaluate("ok", 0.9) {
		t.Fatalf("custom MinDuration not applied")
	}
	if !gate.Evaluate("k", 1.0) {
		t.Fatalf("relaxed length/uniqueness should keep single-rune text")
	}
}

func TestDistinctRunes(t *testing.T) {
	t.Parallel()

	tests := map[string]int{
		"":       0,
		"aaaa":   1,
		"abc":    3,
		"ಧನ್ಯವಾದ": 7,
	}
	for in, want := range tests {
		if got := distinctRunes(in); got != want {
			t.Fatalf("distinctRunes(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestNewNormalizesHallucinationSet(t *testing.T) {
	t.Parallel()

	gate := New(Policy{
		MinDuration:    0,
		MinLength:      0,
		MinUniqueness:  0,
		Hallucinations: []string{"  [Applause]  "},
	}, nil)
	if gate.Evaluate("[applause]", 1.0) {
		t.Fatalf("set entries must be trimmed and lowercased at construction")
	}
	if !gate.Evaluate(strings.ToUpper("genuine words here"), 1.0) {
		t.Fatalf("non-hallucination text should pass")
	}
}
