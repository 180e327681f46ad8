// Package pipeline wires configuration, adapters, and stages into a
// runnable dubbing workflow. It owns adapter construction and run
// directory layout; stage semantics live in internal/workflow.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/supernan/redub/internal/config"
	"github.com/supernan/redub/internal/domain/normalize"
	"github.com/supernan/redub/internal/domain/qualitygate"
	"github.com/supernan/redub/internal/faults"
	"github.com/supernan/redub/internal/logging"
	"github.com/supernan/redub/internal/ports"
	"github.com/supernan/redub/internal/ports/adapters/ffmpeg"
	"github.com/supernan/redub/internal/ports/adapters/indictrans"
	"github.com/supernan/redub/internal/ports/adapters/openrouter"
	"github.com/supernan/redub/internal/ports/adapters/ttsserver"
	"github.com/supernan/redub/internal/ports/adapters/whispercli"
	"github.com/supernan/redub/internal/runlog"
	"github.com/supernan/redub/internal/transcribe"
	"github.com/supernan/redub/internal/transcript"
	"github.com/supernan/redub/internal/translate"
	"github.com/supernan/redub/internal/workflow"
)

// Config carries one invocation: the loaded application config plus the
// per-run arguments the CLI collected.
type Config struct {
	App *config.Config

	Input string
	Start float64
	End   float64

	// OutDir overrides the derived run directory when non-empty. The
	// derived directory is stable for a given input and range so a rerun
	// resumes from existing artifacts.
	OutDir string

	Force      bool
	Synthesize bool

	Logger *slog.Logger
}

func (c Config) Validate() error {
	if c.App == nil {
		return faults.New(faults.ErrConfiguration, "", "", "application config is not loaded")
	}
	if strings.TrimSpace(c.Input) == "" {
		return faults.New(faults.ErrInput, "", "", "input video path is empty")
	}
	if c.End <= c.Start || c.Start < 0 {
		return faults.New(faults.ErrInput, "", "",
			fmt.Sprintf("clip range %.3f-%.3f is invalid (want 0 <= start < end)", c.Start, c.End))
	}
	return nil
}

// Run builds the adapter set from cfg and executes the workflow. The
// returned Result is populated even when every stage was skipped.
func Run(ctx context.Context, cfg Config) (workflow.Result, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return workflow.Result{}, err
	}
	app := cfg.App

	span := transcript.Span{Start: cfg.Start, End: cfg.End}
	outDir := cfg.OutDir
	if outDir == "" {
		outDir = filepath.Join(app.Paths.OutDir, runDirName(cfg.Input, span))
	}

	strategy, err := translate.ParseStrategy(app.Translation.Strategy)
	if err != nil {
		return workflow.Result{}, faults.Wrap(faults.ErrConfiguration, "", "translation strategy", err)
	}

	table, err := loadRules(app, logger)
	if err != nil {
		return workflow.Result{}, err
	}

	media := ffmpeg.New(app.Media.FFmpeg, app.Media.FFprobe)
	recognizer := whispercli.New(app.Recognition.Binary, app.Recognition.Model)
	translator := indictrans.New(app.Translation.Endpoint)

	var refiner ports.Refiner
	if app.Refine.Enabled {
		refiner = openrouter.New(app.Refine.APIKey, app.Refine.Model, app.Refine.BaseURL, app.Languages.Target)
	}

	synthesize := cfg.Synthesize || app.Synthesis.Enabled
	var synthesizer ports.Synthesizer
	if synthesize {
		synthesizer = ttsserver.New(app.Synthesis.Endpoint)
	}

	ledger, err := runlog.Open(app.Paths.LedgerPath)
	if err != nil {
		// The ledger is observability, not pipeline state. Run without it.
		logger.Warn("run ledger unavailable", logging.Error(err))
		ledger = nil
	}
	defer func() {
		if cerr := ledger.Close(); cerr != nil {
			logger.Warn("close run ledger", logging.Error(cerr))
		}
	}()

	wf := workflow.New(workflow.Deps{
		Media:       media,
		Transcriber: transcribe.New(recognizer, qualitygate.New(app.GatePolicy(), logger), logger),
		Translator: translate.New(translator, refiner, table, translate.Options{
			Strategy: strategy,
			Source:   app.Languages.Source,
			Target:   app.Languages.Target,
			Pivot:    app.Languages.Pivot,
		}, logger),
		Synthesizer: synthesizer,
		Ledger:      ledger,
		Logger:      logger,
	})

	return wf.Run(ctx, workflow.Input{
		Video:      cfg.Input,
		Span:       span,
		OutDir:     outDir,
		SourceLang: app.Languages.Source,
		TargetLang: app.Languages.Target,
		Strategy:   string(strategy),
		Force:      cfg.Force,
		Synthesize: synthesize,
		SpeakerWav: app.Synthesis.SpeakerWav,
	})
}

func loadRules(app *config.Config, logger *slog.Logger) (normalize.Table, error) {
	table := normalize.Default()
	if app.Normalize.RulesFile != "" {
		loaded, err := normalize.Load(app.Normalize.RulesFile)
		if err != nil {
			return normalize.Table{}, faults.Wrap(faults.ErrConfiguration, "", "normalization rules", err)
		}
		table = loaded
	}
	if app.Normalize.Validate {
		for _, conflict := range table.Validate() {
			logger.Warn("normalization rule conflict", slog.String("conflict", conflict.String()))
		}
	}
	return table, nil
}

// runDirName derives a directory name that is a pure function of the
// input and range, so repeating a command lands on the same artifacts.
func runDirName(input string, span transcript.Span) string {
	name := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	name = normalizePathSegment(name)
	if name == "" {
		name = "input"
	}
	// Dots would read as extensions in a directory name.
	slug := strings.ReplaceAll(span.String(), ".", "_")
	return fmt.Sprintf("%s-%s", name, slug)
}

func normalizePathSegment(s string) string {
	var b strings.Builder
	prevDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

// ensure adapters implement ports
var _ ports.MediaTool = (*ffmpeg.Adapter)(nil)
var _ ports.Recognizer = (*whispercli.Adapter)(nil)
var _ ports.Translator = (*indictrans.Adapter)(nil)
var _ ports.Refiner = (*openrouter.Adapter)(nil)
var _ ports.Synthesizer = (*ttsserver.Adapter)(nil)
