// Package transcribe runs speech recognition over extracted audio and
// gates the raw output into a transcript worth translating.
package transcribe

import (
	"context"
	"log/slog"
	"math"
	"strings"

	"github.com/supernan/redub/internal/domain/qualitygate"
	"github.com/supernan/redub/internal/faults"
	"github.com/supernan/redub/internal/lang"
	"github.com/supernan/redub/internal/logging"
	"github.com/supernan/redub/internal/ports"
	"github.com/supernan/redub/internal/transcript"
)

type Stage struct {
	recognizer ports.Recognizer
	gate       qualitygate.Gate
	logger     *slog.Logger
}

// Stats counts the gate's verdicts for one run.
type Stats struct {
	Kept     int
	Rejected int
}

func New(recognizer ports.Recognizer, gate qualitygate.Gate, logger *slog.Logger) *Stage {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Stage{recognizer: recognizer, gate: gate, logger: logger}
}

// Run recognizes wavPath in one pass with the language forced to the
// hint, drops segments the gate rejects, and returns the surviving
// transcript. Recognizer failures are fatal; a transcript with zero
// segments is not.
func (s *Stage) Run(ctx context.Context, wavPath, language string) (transcript.Transcript, Stats, error) {
	raw, err := s.recognizer.Recognize(ctx, wavPath, language)
	if err != nil {
		return transcript.Transcript{}, Stats{}, faults.Wrap(faults.ErrExternalTool, "transcribe", "recognize", err)
	}

	tr := transcript.Transcript{
		Language: lang.ISO2(language),
		Segments: make([]transcript.Segment, 0, len(raw)),
	}
	var stats Stats
	for _, seg := range raw {
		text := strings.TrimSpace(seg.Text)
		if !s.gate.Evaluate(text, seg.Duration()) {
			stats.Rejected++
			continue
		}
		stats.Kept++
		tr.Segments = append(tr.Segments, transcript.Segment{
			Span: transcript.Span{Start: round3(seg.Start), End: round3(seg.End)},
			Text: text,
		})
	}

	s.logger.Info("transcription gated",
		slog.String(logging.FieldStage, "transcribe"),
		slog.Int("kept", stats.Kept),
		slog.Int("rejected", stats.Rejected),
		slog.String("language", tr.Language),
	)
	return tr, stats, nil
}

// round3 keeps artifact timestamps stable across runs and readable in
// diffs; millisecond precision is finer than any downstream consumer
// needs.
func round3(sec float64) float64 {
	return math.Round(sec*1000) / 1000
}
