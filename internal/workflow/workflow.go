// Package workflow drives a dubbing run through its stages: clip
// extraction, audio extraction, transcription, translation, and optional
// speech synthesis.
//
// Each stage persists its output to a well-known artifact in the run
// directory and runs only when that artifact is missing (or under force
// recompute), so an interrupted run resumes from the last completed
// stage. A failed stage aborts the run; earlier artifacts stay on disk.
package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/supernan/redub/internal/faults"
	"github.com/supernan/redub/internal/logging"
	"github.com/supernan/redub/internal/ports"
	"github.com/supernan/redub/internal/runlog"
	"github.com/supernan/redub/internal/transcribe"
	"github.com/supernan/redub/internal/transcript"
	"github.com/supernan/redub/internal/translate"
)

// Stage names, in execution order.
const (
	StageExtractClip  = "extract_clip"
	StageExtractAudio = "extract_audio"
	StageTranscribe   = "transcribe"
	StageTranslate    = "translate"
	StageSynthesize   = "synthesize"
)

// Artifact filenames inside a run directory. Their existence is the
// resume authority: a present, non-empty artifact means its stage is
// done.
const (
	AudioFileName       = "audio.wav"
	TranscriptFileName  = "transcript.json"
	TranslationFileName = "translated.json"
	DubFileName         = "dub.wav"
	LockFileName        = ".redub.lock"
)

// ClipFileName returns the clip artifact name, keeping the input's
// container extension.
func ClipFileName(input string) string {
	ext := filepath.Ext(input)
	if ext == "" {
		ext = ".mp4"
	}
	return "clip" + ext
}

// Deps lists the collaborators a run needs. Synthesizer and Ledger may
// be nil; a nil ledger simply records nothing.
type Deps struct {
	Media       ports.MediaTool
	Transcriber *transcribe.Stage
	Translator  *translate.Stage
	Synthesizer ports.Synthesizer
	Ledger      *runlog.Store
	Logger      *slog.Logger
}

// Workflow orchestrates one dubbing run at a time.
type Workflow struct{ d Deps }

// New builds a workflow. A nil logger disables diagnostics.
func New(d Deps) Workflow {
	if d.Logger == nil {
		d.Logger = logging.NewNop()
	}
	return Workflow{d: d}
}

// Input describes a single run.
type Input struct {
	// Video is the source media file.
	Video string
	// Span is the clip range to dub, in source-timeline seconds.
	Span transcript.Span
	// OutDir receives all artifacts of this run.
	OutDir string

	SourceLang string
	TargetLang string
	// Strategy is recorded in the run ledger for later inspection; the
	// translator itself was configured with it.
	Strategy string

	// Force reruns every stage even when its artifact exists.
	Force bool
	// Synthesize enables the final text-to-speech stage.
	Synthesize bool
	// SpeakerWav is the optional reference voice for synthesis.
	SpeakerWav string

	// RunID correlates ledger rows and log lines; one is generated when
	// empty.
	RunID string
}

// Result reports where the artifacts live and what the stages produced.
type Result struct {
	RunID           string
	OutDir          string
	ClipPath        string
	AudioPath       string
	TranscriptPath  string
	TranslationPath string
	// DubPath is empty when synthesis was not requested.
	DubPath string

	Transcript  transcript.Transcript
	Translation transcript.Translation

	// GateStats is zero when the transcription stage was resumed from its
	// artifact rather than run.
	GateStats      transcribe.Stats
	TranslateStats translate.Stats

	// Skipped lists the stages satisfied by existing artifacts.
	Skipped []string
}

// Run executes the stage sequence for one input.
func (w Workflow) Run(ctx context.Context, in Input) (res Result, err error) {
	if in.RunID == "" {
		in.RunID = uuid.NewString()
	}
	logger := w.d.Logger.With(slog.String(logging.FieldRunID, in.RunID))

	res = Result{
		RunID:           in.RunID,
		OutDir:          in.OutDir,
		ClipPath:        filepath.Join(in.OutDir, ClipFileName(in.Video)),
		AudioPath:       filepath.Join(in.OutDir, AudioFileName),
		TranscriptPath:  filepath.Join(in.OutDir, TranscriptFileName),
		TranslationPath: filepath.Join(in.OutDir, TranslationFileName),
	}
	if in.Synthesize {
		res.DubPath = filepath.Join(in.OutDir, DubFileName)
	}

	if err := os.MkdirAll(in.OutDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("create artifact directory: %w", err)
	}

	lock := flock.New(filepath.Join(in.OutDir, LockFileName))
	locked, lockErr := lock.TryLock()
	if lockErr != nil {
		return Result{}, fmt.Errorf("acquire run lock: %w", lockErr)
	}
	if !locked {
		return Result{}, faults.New(faults.ErrLocked, "", in.OutDir, "another run owns this artifact directory")
	}
	defer func() {
		if unlockErr := lock.Unlock(); unlockErr != nil {
			logger.Warn("failed to release run lock", logging.Error(unlockErr))
		}
	}()

	if lerr := w.d.Ledger.BeginRun(ctx, runlog.Run{
		ID:         in.RunID,
		Input:      in.Video,
		OutDir:     in.OutDir,
		SourceLang: in.SourceLang,
		TargetLang: in.TargetLang,
		Strategy:   in.Strategy,
	}); lerr != nil {
		logger.Warn("run ledger write failed", logging.Error(lerr))
	}
	defer func() {
		if lerr := w.d.Ledger.FinishRun(context.WithoutCancel(ctx), in.RunID, err); lerr != nil {
			logger.Warn("run ledger write failed", logging.Error(lerr))
		}
	}()

	if err := w.validateInput(ctx, in); err != nil {
		return Result{}, err
	}

	logger.Info("run starting",
		slog.String("input", in.Video),
		slog.String("range", in.Span.String()),
		slog.String("out_dir", in.OutDir),
		slog.Bool("force", in.Force),
	)

	// EXTRACT_CLIP
	ran, err := w.runStage(ctx, logger, in, StageExtractClip, res.ClipPath, func(ctx context.Context) (stageOutcome, error) {
		if err := w.d.Media.CutClip(ctx, in.Video, in.Span, res.ClipPath); err != nil {
			return stageOutcome{}, faults.Wrap(faults.ErrExternalTool, StageExtractClip, "cut clip", err)
		}
		return stageOutcome{}, nil
	})
	if err != nil {
		return Result{}, err
	}
	if !ran {
		res.Skipped = append(res.Skipped, StageExtractClip)
	}

	// EXTRACT_AUDIO reads from the clip, not the source, so its timeline
	// starts at zero like the transcript spans.
	ran, err = w.runStage(ctx, logger, in, StageExtractAudio, res.AudioPath, func(ctx context.Context) (stageOutcome, error) {
		if err := w.d.Media.ExtractAudioMono16k(ctx, res.ClipPath, res.AudioPath); err != nil {
			return stageOutcome{}, faults.Wrap(faults.ErrExternalTool, StageExtractAudio, "extract audio", err)
		}
		return stageOutcome{}, nil
	})
	if err != nil {
		return Result{}, err
	}
	if !ran {
		res.Skipped = append(res.Skipped, StageExtractAudio)
	}

	// TRANSCRIBE
	ran, err = w.runStage(ctx, logger, in, StageTranscribe, res.TranscriptPath, func(ctx context.Context) (stageOutcome, error) {
		tr, stats, err := w.d.Transcriber.Run(ctx, res.AudioPath, in.SourceLang)
		if err != nil {
			return stageOutcome{}, err
		}
		if err := transcript.WriteArtifact(res.TranscriptPath, tr); err != nil {
			return stageOutcome{}, fmt.Errorf("write transcript artifact: %w", err)
		}
		res.Transcript = tr
		res.GateStats = stats
		return stageOutcome{kept: stats.Kept, rejected: stats.Rejected}, nil
	})
	if err != nil {
		return Result{}, err
	}
	if !ran {
		res.Skipped = append(res.Skipped, StageTranscribe)
		tr, rerr := transcript.ReadTranscript(res.TranscriptPath)
		if rerr != nil {
			return Result{}, faults.Wrap(faults.ErrInput, StageTranscribe, "read existing artifact (delete it to recompute)", rerr)
		}
		res.Transcript = tr
	}

	// TRANSLATE
	ran, err = w.runStage(ctx, logger, in, StageTranslate, res.TranslationPath, func(ctx context.Context) (stageOutcome, error) {
		tl, stats, err := w.d.Translator.Run(ctx, res.Transcript)
		if err != nil {
			return stageOutcome{}, err
		}
		if err := transcript.WriteArtifact(res.TranslationPath, tl); err != nil {
			return stageOutcome{}, fmt.Errorf("write translation artifact: %w", err)
		}
		res.Translation = tl
		res.TranslateStats = stats
		return stageOutcome{}, nil
	})
	if err != nil {
		return Result{}, err
	}
	if !ran {
		res.Skipped = append(res.Skipped, StageTranslate)
		tl, rerr := transcript.ReadTranslation(res.TranslationPath)
		if rerr != nil {
			return Result{}, faults.Wrap(faults.ErrInput, StageTranslate, "read existing artifact (delete it to recompute)", rerr)
		}
		res.Translation = tl
	}

	// SYNTHESIZE
	if in.Synthesize {
		if w.d.Synthesizer == nil {
			err = faults.New(faults.ErrConfiguration, StageSynthesize, "", "synthesis requested but no synthesizer is configured")
			return Result{}, err
		}
		ran, err = w.runStage(ctx, logger, in, StageSynthesize, res.DubPath, func(ctx context.Context) (stageOutcome, error) {
			text := joinTargetText(res.Translation)
			if text == "" {
				logger.Info("nothing to synthesize", slog.String(logging.FieldStage, StageSynthesize))
				return stageOutcome{detail: "no target text"}, nil
			}
			if err := w.d.Synthesizer.Synthesize(ctx, text, in.TargetLang, in.SpeakerWav, res.DubPath); err != nil {
				return stageOutcome{}, faults.Wrap(faults.ErrExternalTool, StageSynthesize, "synthesize speech", err)
			}
			return stageOutcome{}, nil
		})
		if err != nil {
			return Result{}, err
		}
		if !ran {
			res.Skipped = append(res.Skipped, StageSynthesize)
		}
	}

	logger.Info("run complete",
		slog.Int("segments", len(res.Translation.Segments)),
		slog.Int("skipped_stages", len(res.Skipped)),
	)
	return res, nil
}

// durationSlack absorbs container-level rounding when comparing the clip
// range against the probed input duration.
const durationSlack = 0.1

func (w Workflow) validateInput(ctx context.Context, in Input) error {
	if strings.TrimSpace(in.Video) == "" {
		return faults.New(faults.ErrInput, "validate", "", "input video path is empty")
	}
	if _, err := os.Stat(in.Video); err != nil {
		return faults.Wrap(faults.ErrInput, "validate", "input video", err)
	}
	if !in.Span.Valid() {
		return faults.New(faults.ErrInput, "validate", "", fmt.Sprintf("clip range %s is invalid (end must be after start)", in.Span))
	}
	duration, err := w.d.Media.ProbeDuration(ctx, in.Video)
	if err != nil {
		return faults.Wrap(faults.ErrExternalTool, "validate", "probe input duration", err)
	}
	if in.Span.End > duration+durationSlack {
		return faults.New(faults.ErrInput, "validate", "", fmt.Sprintf("clip range %s exceeds input duration %.3fs", in.Span, duration))
	}
	return nil
}

type stageOutcome struct {
	detail   string
	kept     int
	rejected int
}

type stageFunc func(context.Context) (stageOutcome, error)

// runStage applies the artifact contract around fn: skip when the
// artifact exists (unless forced), record the outcome in the ledger, and
// stop the run on failure. It reports whether fn ran.
func (w Workflow) runStage(ctx context.Context, logger *slog.Logger, in Input, name, artifact string, fn stageFunc) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	exists := artifactExists(artifact)
	start := time.Now().UTC()

	if exists && !in.Force {
		logger.Info("stage skipped",
			slog.String(logging.FieldStage, name),
			slog.String(logging.FieldArtifact, artifact),
		)
		w.record(ctx, logger, runlog.StageRecord{
			RunID:      in.RunID,
			Name:       name,
			Status:     runlog.StageSkipped,
			Detail:     "artifact exists",
			StartedAt:  start,
			FinishedAt: start,
		})
		return false, nil
	}

	logger.Info("stage starting", slog.String(logging.FieldStage, name))
	outcome, err := fn(ctx)

	rec := runlog.StageRecord{
		RunID:      in.RunID,
		Name:       name,
		Detail:     outcome.detail,
		Kept:       outcome.kept,
		Rejected:   outcome.rejected,
		StartedAt:  start,
		FinishedAt: time.Now().UTC(),
	}
	if err != nil {
		rec.Status = runlog.StageFailed
		rec.Detail = err.Error()
		w.record(ctx, logger, rec)
		logger.Error("stage failed",
			slog.String(logging.FieldStage, name),
			logging.Error(err),
		)
		return true, err
	}

	rec.Status = runlog.StageCompleted
	if rec.Detail == "" && exists {
		rec.Detail = "forced recompute"
	}
	w.record(ctx, logger, rec)
	logger.Info("stage completed",
		slog.String(logging.FieldStage, name),
		slog.Duration("duration", time.Since(start)),
	)
	return true, nil
}

func (w Workflow) record(ctx context.Context, logger *slog.Logger, rec runlog.StageRecord) {
	if err := w.d.Ledger.RecordStage(ctx, rec); err != nil {
		logger.Warn("run ledger write failed", logging.Error(err))
	}
}

// artifactExists treats zero-byte files as missing; interrupted runs can
// leave them behind.
func artifactExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir() && info.Size() > 0
}

// joinTargetText flattens a translation into the one utterance the
// synthesis engine speaks, skipping segments with no target text.
func joinTargetText(tl transcript.Translation) string {
	parts := make([]string, 0, len(tl.Segments))
	for _, seg := range tl.Segments {
		if text := strings.TrimSpace(seg.TargetText); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}
