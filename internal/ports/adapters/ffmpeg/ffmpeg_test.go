package ffmpeg

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/supernan/redub/internal/transcript"
)

func TestCutClip_Args(t *testing.T) {
	a := New("", "")
	var gotName string
	var gotArgs []string
	a.WithRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		gotName = name
		gotArgs = args
		return nil, nil
	})

	span := transcript.Span{Start: 30, End: 45.5}
	if err := a.CutClip(context.Background(), "in.mp4", span, "out/clip.mp4"); err != nil {
		t.Fatalf("CutClip: %v", err)
	}
	if gotName != "ffmpeg" {
		t.Fatalf("command = %q, want ffmpeg", gotName)
	}

	joined := strings.Join(gotArgs, " ")
	// Seek must precede the input for fast input-side seeking.
	ss := strings.Index(joined, "-ss 30.000")
	in := strings.Index(joined, "-i in.mp4")
	if ss == -1 || in == -1 || ss > in {
		t.Fatalf("want -ss before -i, got %q", joined)
	}
	for _, want := range []string{"-t 15.500", "-c:v libx264", "-preset fast", "-crf 18", "-c:a aac", "-b:a 192k"} {
		if !strings.Contains(joined, want) {
			t.Errorf("args missing %q: %q", want, joined)
		}
	}
	if gotArgs[len(gotArgs)-1] != "out/clip.mp4" {
		t.Errorf("last arg = %q, want output path", gotArgs[len(gotArgs)-1])
	}
}

func TestCutClip_InvalidSpan(t *testing.T) {
	a := New("", "")
	called := false
	a.WithRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		called = true
		return nil, nil
	})

	err := a.CutClip(context.Background(), "in.mp4", transcript.Span{Start: 10, End: 10}, "out.mp4")
	if err == nil {
		t.Fatal("want error for empty span")
	}
	if called {
		t.Error("ffmpeg must not run for an invalid span")
	}
}

func TestExtractAudioMono16k_Args(t *testing.T) {
	a := New("/opt/ffmpeg", "")
	var gotName string
	var gotArgs []string
	a.WithRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		gotName = name
		gotArgs = args
		return nil, nil
	})

	if err := a.ExtractAudioMono16k(context.Background(), "clip.mp4", "audio.wav"); err != nil {
		t.Fatalf("ExtractAudioMono16k: %v", err)
	}
	if gotName != "/opt/ffmpeg" {
		t.Fatalf("command = %q, want configured binary", gotName)
	}
	joined := strings.Join(gotArgs, " ")
	for _, want := range []string{"-vn", "-ac 1", "-ar 16000", "-c:a pcm_s16le"} {
		if !strings.Contains(joined, want) {
			t.Errorf("args missing %q: %q", want, joined)
		}
	}
}

func TestProbeDuration(t *testing.T) {
	a := New("", "")
	a.WithRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		if name != "ffprobe" {
			t.Fatalf("command = %q, want ffprobe", name)
		}
		return []byte("123.456\n"), nil
	})

	got, err := a.ProbeDuration(context.Background(), "in.mp4")
	if err != nil {
		t.Fatalf("ProbeDuration: %v", err)
	}
	if got != 123.456 {
		t.Fatalf("duration = %v, want 123.456", got)
	}
}

func TestProbeDuration_ToolFailure(t *testing.T) {
	a := New("", "")
	a.WithRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return []byte("in.mp4: No such file or directory"), errors.New("exit status 1")
	})

	_, err := a.ProbeDuration(context.Background(), "in.mp4")
	if err == nil {
		t.Fatal("want error")
	}
	if !strings.Contains(err.Error(), "No such file or directory") {
		t.Errorf("error should carry tool stderr, got %v", err)
	}
}
