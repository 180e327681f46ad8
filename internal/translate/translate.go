// Package translate converts a gated transcript into a translation,
// normalizing source text first and preserving every span unchanged.
package translate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/supernan/redub/internal/domain/normalize"
	"github.com/supernan/redub/internal/faults"
	"github.com/supernan/redub/internal/lang"
	"github.com/supernan/redub/internal/logging"
	"github.com/supernan/redub/internal/ports"
	"github.com/supernan/redub/internal/transcript"
)

// Strategy selects how a segment reaches the target language.
type Strategy string

const (
	// StrategyDirect is a single hop, source to target.
	StrategyDirect Strategy = "direct"
	// StrategyPivot routes through an intermediate language in two
	// single-hop calls. Used when the direct pair is low-resource for
	// the available model.
	StrategyPivot Strategy = "pivot"
)

// ParseStrategy maps a config string onto a Strategy. The empty string
// means direct.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "direct":
		return StrategyDirect, nil
	case "pivot":
		return StrategyPivot, nil
	default:
		return "", fmt.Errorf("unknown translation strategy %q (want direct or pivot)", s)
	}
}

// Options fix the language route for one stage instance.
type Options struct {
	Strategy Strategy
	Source   string
	Target   string
	// Pivot is the intermediate language, required by StrategyPivot.
	Pivot string
}

// Stats counts refinement outcomes for one run.
type Stats struct {
	Refined  int
	FellBack int
}

type Stage struct {
	translator ports.Translator
	refiner    ports.Refiner
	table      normalize.Table
	opts       Options
	logger     *slog.Logger
}

// New builds a translation stage. The translator is constructed once by
// the caller and reused for every segment; a nil refiner disables the
// refinement pass.
func New(translator ports.Translator, refiner ports.Refiner, table normalize.Table, opts Options, logger *slog.Logger) *Stage {
	if opts.Strategy == "" {
		opts.Strategy = StrategyDirect
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Stage{translator: translator, refiner: refiner, table: table, opts: opts, logger: logger}
}

// Run translates every transcript segment in order. The output is
// one-to-one with the input: same count, same order, same spans, even
// when a translated text comes back empty. Translator failures abort
// the stage; refiner failures downgrade to the unrefined text for that
// segment only.
func (s *Stage) Run(ctx context.Context, tr transcript.Transcript) (transcript.Translation, Stats, error) {
	var stats Stats
	if s.opts.Strategy == StrategyPivot && strings.TrimSpace(s.opts.Pivot) == "" {
		return transcript.Translation{}, stats, faults.New(faults.ErrConfiguration, "translate", "", "pivot strategy needs an intermediate language")
	}

	out := transcript.Translation{
		SourceLanguage: lang.ISO2(s.opts.Source),
		TargetLanguage: lang.ISO2(s.opts.Target),
		Segments:       make([]transcript.TranslatedSegment, 0, len(tr.Segments)),
	}

	total := len(tr.Segments)
	for i, seg := range tr.Segments {
		raw := strings.TrimSpace(seg.Text)
		clean := s.table.Apply(raw)

		s.logger.Info("translating segment",
			slog.String(logging.FieldStage, "translate"),
			slog.Int("index", i+1),
			slog.Int("total", total),
			slog.Float64("start", seg.Start),
			slog.Float64("end", seg.End),
		)

		target, err := s.route(ctx, clean)
		if err != nil {
			return transcript.Translation{}, stats, faults.Wrap(faults.ErrExternalTool, "translate", fmt.Sprintf("segment %d/%d", i+1, total), err)
		}

		if s.refiner != nil && target != "" {
			refined, err := s.refiner.Refine(ctx, target)
			if err != nil {
				stats.FellBack++
				s.logger.Warn("refinement failed, keeping unrefined text",
					slog.Int("index", i+1),
					logging.Error(err),
				)
			} else {
				stats.Refined++
				target = refined
			}
		}

		s.logger.Debug("segment translated",
			slog.String("source", raw),
			slog.String("normalized", clean),
			slog.String("target", target),
		)

		out.Segments = append(out.Segments, transcript.TranslatedSegment{
			Span:           seg.Span,
			SourceText:     raw,
			NormalizedText: clean,
			TargetText:     target,
		})
	}

	s.logger.Info("translation complete",
		slog.String(logging.FieldStage, "translate"),
		slog.Int("segments", total),
		slog.Int("refined", stats.Refined),
		slog.Int("fallbacks", stats.FellBack),
	)
	return out, stats, nil
}

// route performs the configured hops. Empty normalized text
// short-circuits to an empty translation without touching the engine,
// and an empty first hop skips the second.
func (s *Stage) route(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	if s.opts.Strategy != StrategyPivot {
		return s.translator.Translate(ctx, text, s.opts.Source, s.opts.Target)
	}

	mid, err := s.translator.Translate(ctx, text, s.opts.Source, s.opts.Pivot)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(mid) == "" {
		return "", nil
	}
	s.logger.Debug("pivot hop",
		slog.String("intermediate_language", lang.ISO2(s.opts.Pivot)),
		slog.String("intermediate_text", mid),
	)
	return s.translator.Translate(ctx, mid, s.opts.Pivot, s.opts.Target)
}
