// Package whispercli drives a whisper.cpp style speech recognizer
// through its command line interface.
package whispercli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/supernan/redub/internal/lang"
	"github.com/supernan/redub/internal/transcript"
)

type Adapter struct {
	bin   string
	model string
	run   func(ctx context.Context, name string, args ...string) ([]byte, error)
}

func New(binPath, modelPath string) *Adapter {
	return &Adapter{bin: binPath, model: modelPath}
}

// WithRunner sets a custom command runner (for testing).
func (a *Adapter) WithRunner(runner func(ctx context.Context, name string, args ...string) ([]byte, error)) {
	a.run = runner
}

// payload mirrors the recognizer's -oj output file.
type payload struct {
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

// Recognize runs the recognizer once over wavPath with the language
// forced to the hint and parses the JSON it writes next to the audio.
func (a *Adapter) Recognize(ctx context.Context, wavPath, language string) ([]transcript.RawSegment, error) {
	outPrefix := strings.TrimSuffix(wavPath, filepath.Ext(wavPath)) + ".whisper"
	args := []string{
		"-m", a.model,
		"-f", wavPath,
		"-l", lang.ISO2(language),
		"-bs", "5",
		"-oj",
		"-of", outPrefix,
	}
	b, err := a.exec(ctx, a.bin, args...)
	if err != nil {
		return nil, fmt.Errorf("whisper failed: %w\n%s", err, string(b))
	}

	jb, err := os.ReadFile(outPrefix + ".json")
	if err != nil {
		return nil, fmt.Errorf("read whisper output: %w", err)
	}
	var p payload
	if err := json.Unmarshal(jb, &p); err != nil {
		return nil, fmt.Errorf("parse whisper output: %w", err)
	}

	segs := make([]transcript.RawSegment, 0, len(p.Segments))
	for _, s := range p.Segments {
		segs = append(segs, transcript.RawSegment{
			Span: transcript.Span{Start: s.Start, End: s.End},
			Text: strings.TrimSpace(s.Text),
		})
	}
	return segs, nil
}

func (a *Adapter) exec(ctx context.Context, name string, args ...string) ([]byte, error) {
	if a.run != nil {
		return a.run(ctx, name, args...)
	}
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}
