//go:build integration

package itest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestMediaStagesAndResume drives a run through the real ffmpeg stages.
// Recognition fails by construction (the configured binary does not
// exist), which exercises the artifact contract: clip and audio survive
// the failed run, a rerun reuses them untouched, and the ledger records
// the failure.
func TestMediaStagesAndResume(t *testing.T) {
	requireTool(t, "ffmpeg")
	requireTool(t, "ffprobe")

	repoRoot := mustRepoRoot(t)
	tmp := t.TempDir()
	input := makeFixtureVideo(t, tmp, 10)
	configPath := writeTestConfig(t, tmp, "[recognition]\nbinary = \"/nonexistent/whisper-cli\"\n")
	outDir := filepath.Join(tmp, "run")

	args := []string{
		"--config", configPath,
		"run", input,
		"--start", "1", "--end", "6",
		"--outdir", outDir,
	}

	res := runCLI(t, repoRoot, args, nil)
	if res.exitCode == 0 {
		t.Fatalf("expected failure without a recognizer, output:\n%s", res.output)
	}
	if !strings.Contains(res.output, "transcribe") {
		t.Fatalf("expected a transcribe-stage error, output:\n%s", res.output)
	}

	clip := filepath.Join(outDir, "clip.mp4")
	audio := filepath.Join(outDir, "audio.wav")
	for _, artifact := range []string{clip, audio} {
		info, err := os.Stat(artifact)
		if err != nil {
			t.Fatalf("artifact missing after failed run: %v", err)
		}
		if info.Size() == 0 {
			t.Fatalf("artifact %s is empty", artifact)
		}
	}

	dur, err := probeDurationSeconds(clip)
	if err != nil {
		t.Fatalf("probe clip: %v", err)
	}
	if dur < 4.5 || dur > 5.5 {
		t.Fatalf("clip duration %.3fs, want about 5s", dur)
	}

	clipBefore, err := os.Stat(clip)
	if err != nil {
		t.Fatalf("stat clip: %v", err)
	}
	audioBefore, err := os.Stat(audio)
	if err != nil {
		t.Fatalf("stat audio: %v", err)
	}

	res = runCLI(t, repoRoot, args, nil)
	if res.exitCode == 0 {
		t.Fatalf("second run should still fail at transcription, output:\n%s", res.output)
	}
	clipAfter, err := os.Stat(clip)
	if err != nil {
		t.Fatalf("stat clip after rerun: %v", err)
	}
	audioAfter, err := os.Stat(audio)
	if err != nil {
		t.Fatalf("stat audio after rerun: %v", err)
	}
	if !clipAfter.ModTime().Equal(clipBefore.ModTime()) || !audioAfter.ModTime().Equal(audioBefore.ModTime()) {
		t.Fatal("rerun re-extracted artifacts that were already present")
	}

	status := runCLI(t, repoRoot, []string{"--config", configPath, "status"}, nil)
	if status.exitCode != 0 {
		t.Fatalf("status failed:\n%s", status.output)
	}
	if !strings.Contains(status.output, "failed") {
		t.Fatalf("expected a failed run in the ledger, output:\n%s", status.output)
	}
}
