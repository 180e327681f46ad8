package whispercli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRecognize(t *testing.T) {
	dir := t.TempDir()
	wav := filepath.Join(dir, "audio.wav")

	a := New("/opt/whisper", "/models/ggml-large.bin")
	var gotArgs []string
	a.WithRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		if name != "/opt/whisper" {
			t.Fatalf("command = %q", name)
		}
		gotArgs = args
		out := `{"segments":[
			{"start":0.0,"end":4.2,"text":" ನಮಸ್ಕಾರ ಎಲ್ಲರಿಗೂ "},
			{"start":4.2,"end":6.0,"text":"ಹೇಗಿದ್ದೀರಾ"}
		]}`
		return nil, os.WriteFile(filepath.Join(dir, "audio.whisper.json"), []byte(out), 0o644)
	})

	segs, err := a.Recognize(context.Background(), wav, "kan_Knda")
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}

	joined := strings.Join(gotArgs, " ")
	for _, want := range []string{"-m /models/ggml-large.bin", "-f " + wav, "-l kn", "-oj"} {
		if !strings.Contains(joined, want) {
			t.Errorf("args missing %q: %q", want, joined)
		}
	}

	if len(segs) != 2 {
		t.Fatalf("got %d segments, want 2", len(segs))
	}
	if segs[0].Text != "ನಮಸ್ಕಾರ ಎಲ್ಲರಿಗೂ" {
		t.Errorf("text not trimmed: %q", segs[0].Text)
	}
	if segs[0].Start != 0 || segs[0].End != 4.2 {
		t.Errorf("span = %v..%v", segs[0].Start, segs[0].End)
	}
}

func TestRecognize_ToolFailure(t *testing.T) {
	a := New("whisper", "model.bin")
	a.WithRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return []byte("failed to load model"), os.ErrNotExist
	})

	_, err := a.Recognize(context.Background(), "audio.wav", "kn")
	if err == nil {
		t.Fatal("want error")
	}
	if !strings.Contains(err.Error(), "failed to load model") {
		t.Errorf("error should carry tool output, got %v", err)
	}
}

func TestRecognize_MissingOutput(t *testing.T) {
	a := New("whisper", "model.bin")
	a.WithRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return nil, nil // tool "succeeds" but writes nothing
	})

	_, err := a.Recognize(context.Background(), filepath.Join(t.TempDir(), "audio.wav"), "kn")
	if err == nil {
		t.Fatal("want error when the recognizer writes no JSON")
	}
}
