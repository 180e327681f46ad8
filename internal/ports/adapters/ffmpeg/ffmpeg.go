// Package ffmpeg shells out to ffmpeg/ffprobe for clip cutting, audio
// extraction and duration probing.
package ffmpeg

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/supernan/redub/internal/transcript"
)

type Adapter struct {
	ffmpeg  string
	ffprobe string
	run     func(ctx context.Context, name string, args ...string) ([]byte, error)
}

func New(ffmpegPath, ffprobePath string) *Adapter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Adapter{ffmpeg: ffmpegPath, ffprobe: ffprobePath}
}

// WithRunner sets a custom command runner (for testing).
func (a *Adapter) WithRunner(runner func(ctx context.Context, name string, args ...string) ([]byte, error)) {
	a.run = runner
}

func (a *Adapter) exec(ctx context.Context, name string, args ...string) ([]byte, error) {
	if a.run != nil {
		return a.run(ctx, name, args...)
	}
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// CutClip re-encodes the span of input into outPath. Seeking happens
// before the input is opened, so long sources cut quickly; libx264/aac
// re-encoding keeps the clip keyframe-aligned at the requested start.
func (a *Adapter) CutClip(ctx context.Context, input string, span transcript.Span, outPath string) error {
	if !span.Valid() {
		return fmt.Errorf("cut clip: invalid span %s", span)
	}
	args := []string{
		"-y",
		"-ss", fmtSeconds(span.Start),
		"-i", input,
		"-t", fmtSeconds(span.Duration()),
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "18",
		"-c:a", "aac",
		"-b:a", "192k",
		outPath,
	}
	b, err := a.exec(ctx, a.ffmpeg, args...)
	if err != nil {
		return fmt.Errorf("ffmpeg cut clip: %w\n%s", err, string(b))
	}
	return nil
}

// ExtractAudioMono16k writes the audio track of input as 16 kHz mono
// s16le PCM WAV, the format the recognizer expects.
func (a *Adapter) ExtractAudioMono16k(ctx context.Context, input, outWav string) error {
	b, err := a.exec(ctx, a.ffmpeg,
		"-y",
		"-i", input,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		outWav,
	)
	if err != nil {
		return fmt.Errorf("ffmpeg extract audio: %w\n%s", err, string(b))
	}
	return nil
}

func (a *Adapter) ProbeDuration(ctx context.Context, input string) (float64, error) {
	b, err := a.exec(ctx, a.ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		input,
	)
	if err != nil {
		return 0, fmt.Errorf("ffprobe duration: %w\n%s", err, string(b))
	}
	s := strings.TrimSpace(string(b))
	sec, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}
	return sec, nil
}

func fmtSeconds(sec float64) string {
	return strconv.FormatFloat(sec, 'f', 3, 64)
}
