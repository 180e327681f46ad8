// Package qualitygate classifies raw recognition segments as genuine
// speech or recognition noise before they enter the transcript.
//
// The gate protects translation and synthesis from silence artifacts,
// near-empty output, and the verbatim strings speech models hallucinate on
// non-speech audio. It only accepts or drops; segment text is never
// rewritten here.
package qualitygate

import (
	"log/slog"
	"strings"
	"unicode/utf8"
)

// Policy holds the gate thresholds and the hallucination string set for
// one source-language/model combination. The set varies per model and is
// supplied as versioned configuration; DefaultPolicy covers the Kannada
// Whisper deployment the pipeline started with.
type Policy struct {
	// MinDuration rejects sub-threshold spans, which are almost always
	// transient noise rather than speech. Seconds.
	MinDuration float64
	// MinLength rejects empty and near-empty recognizer output. Runes,
	// counted after trimming.
	MinLength int
	// MinUniqueness rejects degenerate repeated-character output typical
	// of hallucinated silence transcriptions. Distinct runes.
	MinUniqueness int
	// Hallucinations are known model artifacts, matched case-insensitively
	// against the fully trimmed segment text (never as substrings).
	Hallucinations []string
}

// DefaultPolicy returns the thresholds and hallucination set observed for
// Whisper large on Kannada speech.
func DefaultPolicy() Policy {
	return Policy{
		MinDuration:   0.5,
		MinLength:     3,
		MinUniqueness: 5,
		Hallucinations: []string{
			"...",
			"ಧನ್ಯವಾದ", // "thank you", repeated on silence
			"ಧನ್ಯವಾದಗಳು",
			"ಸಂಗೀತ", // "[music]"
			"[music]",
			"[silence]",
			"[applause]",
		},
	}
}

// Gate evaluates raw segments against a fixed policy.
type Gate struct {
	policy         Policy
	hallucinations map[string]struct{}
	logger         *slog.Logger
}

// New builds a gate for the given policy. A nil logger disables the
// per-rejection diagnostics.
func New(policy Policy, logger *slog.Logger) Gate {
	set := make(map[string]struct{}, len(policy.Hallucinations))
	for _, h := range policy.Hallucinations {
		set[strings.ToLower(strings.TrimSpace(h))] = struct{}{}
	}
	return Gate{policy: policy, hallucinations: set, logger: logger}
}

// Evaluate reports whether a raw segment should be kept. All rules are
// independent AND conditions; the fixed evaluation order only decides
// which rule a rejection is attributed to in diagnostics.
func (g Gate) Evaluate(text string, duration float64) bool {
	reason := g.rejectReason(text, duration)
	if reason == "" {
		return true
	}
	if g.logger != nil {
		g.logger.Debug("segment rejected",
			slog.String("reason", reason),
			slog.Float64("duration", duration),
			slog.String("text", strings.TrimSpace(text)),
		)
	}
	return false
}

func (g Gate) rejectReason(text string, duration float64) string {
	trimmed := strings.TrimSpace(text)

	if duration < g.policy.MinDuration {
		return "too short"
	}
	if utf8.RuneCountInString(trimmed) < g.policy.MinLength {
		return "text too short"
	}
	if distinctRunes(trimmed) < g.policy.MinUniqueness {
		return "low uniqueness"
	}
	if _, ok := g.hallucinations[strings.ToLower(trimmed)]; ok {
		return "known hallucination"
	}
	return ""
}

func distinctRunes(s string) int {
	seen := make(map[rune]struct{}, len(s))
	for _, r := range s {
		seen[r] = struct{}{}
	}
	return len(seen)
}
