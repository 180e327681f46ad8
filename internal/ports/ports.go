package ports

import (
	"context"

	"github.com/supernan/redub/internal/transcript"
)

// MediaTool cuts time-bounded clips and extracts recognition-ready audio.
type MediaTool interface {
	// CutClip re-encodes the span of input into a standalone clip.
	CutClip(ctx context.Context, input string, span transcript.Span, outPath string) error
	// ExtractAudioMono16k writes the audio track as 16 kHz mono s16le PCM WAV.
	ExtractAudioMono16k(ctx context.Context, input, outWav string) error
	// ProbeDuration returns the container duration in seconds.
	ProbeDuration(ctx context.Context, input string) (float64, error)
}

// Recognizer runs speech recognition once over one audio file with the
// language forced to the hint. Results are raw: they have not passed the
// quality gate.
type Recognizer interface {
	Recognize(ctx context.Context, wavPath, language string) ([]transcript.RawSegment, error)
}

// Translator performs a single-hop translation between two languages.
// Pivot strategies compose two calls; an implementation never chains
// hops itself.
type Translator interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}

// Refiner rewrites translated text to sound natural while preserving
// meaning and approximate length. Best-effort: callers fall back to the
// input on error.
type Refiner interface {
	Refine(ctx context.Context, text string) (string, error)
}

// Synthesizer renders target-language speech cloned from a reference
// speaker recording.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, language, speakerWav, outPath string) error
}
