// Package transcript defines the timestamped records exchanged between
// pipeline stages and the JSON artifact encoding they are persisted in.
//
// Records flow strictly forward: RawSegment (recognizer output, transient)
// → Segment/Transcript (gated) → TranslatedSegment/Translation. Every
// record carries a Span anchoring it to the source media timeline; spans
// are copied verbatim between stages and are the synchronization key used
// by speech synthesis.
package transcript

import (
	"fmt"
	"strings"
)

// Span is a time interval in seconds on the source media timeline.
// A valid span has End > Start.
type Span struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Duration returns the span length in seconds.
func (s Span) Duration() float64 { return s.End - s.Start }

// Valid reports whether the span is well-formed.
func (s Span) Valid() bool { return s.End > s.Start }

func (s Span) String() string {
	return fmt.Sprintf("%.3f-%.3f", s.Start, s.End)
}

// RawSegment is a single recognizer result before quality gating.
// Raw segments are never persisted; they become Segments only after
// passing the gate.
type RawSegment struct {
	Span
	Text string
}

// Segment is a quality-gated piece of recognized speech.
type Segment struct {
	Span
	Text string `json:"text"`
}

// Transcript is the ordered output of the transcription stage for one
// audio input. Segments are chronological by span start; gate rejections
// may leave gaps but never reorder. A transcript is immutable once
// produced.
type Transcript struct {
	Language string    `json:"language"`
	Segments []Segment `json:"segments"`
}

// Validate checks the transcript ordering and span invariants.
func (t Transcript) Validate() error {
	if strings.TrimSpace(t.Language) == "" {
		return fmt.Errorf("transcript: language tag is empty")
	}
	prev := -1.0
	for i, seg := range t.Segments {
		if !seg.Valid() {
			return fmt.Errorf("transcript: segment %d has invalid span %s", i, seg.Span)
		}
		if seg.Start < prev {
			return fmt.Errorf("transcript: segment %d starts at %.3f before previous %.3f", i, seg.Start, prev)
		}
		prev = seg.Start
	}
	return nil
}

// TranslatedSegment carries one segment through translation. All three
// text forms are retained so reviewers can audit what normalization and
// translation each changed.
type TranslatedSegment struct {
	Span
	SourceText     string `json:"source_text"`
	NormalizedText string `json:"normalized_text"`
	TargetText     string `json:"target_text"`
}

// Translation is the ordered output of the translation stage, one-to-one
// with the source transcript's segments: same count, same order, same
// spans.
type Translation struct {
	SourceLanguage string              `json:"source_language"`
	TargetLanguage string              `json:"target_language"`
	Segments       []TranslatedSegment `json:"segments"`
}

// Parallel reports whether the translation is span-parallel to the given
// transcript.
func (tl Translation) Parallel(t Transcript) bool {
	if len(tl.Segments) != len(t.Segments) {
		return false
	}
	for i := range tl.Segments {
		if tl.Segments[i].Span != t.Segments[i].Span {
			return false
		}
	}
	return true
}
