package faults

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestWrapClassification(t *testing.T) {
	t.Parallel()

	cause := errors.New("ffmpeg exited with status 1")
	err := Wrap(ErrExternalTool, "extract-clip", "cut segment", cause)

	if !errors.Is(err, ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool classification, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause to survive, got %v", err)
	}
	if errors.Is(err, ErrInput) {
		t.Fatalf("unexpected ErrInput classification")
	}
	for _, want := range []string{"extract-clip", "cut segment", "status 1"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error message missing %q: %v", want, err)
		}
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	t.Parallel()

	err := Wrap(nil, "transcribe", "", errors.New("boom"))
	if !errors.Is(err, ErrExternalTool) {
		t.Fatalf("nil marker should default to ErrExternalTool, got %v", err)
	}
}

func TestNewMessageOnly(t *testing.T) {
	t.Parallel()

	err := New(ErrInput, "run", "validate range", fmt.Sprintf("end %.1f <= start %.1f", 3.0, 5.0))
	if !errors.Is(err, ErrInput) {
		t.Fatalf("expected ErrInput, got %v", err)
	}
	if !strings.Contains(err.Error(), "end 3.0 <= start 5.0") {
		t.Fatalf("missing detail: %v", err)
	}
}

func TestNewWithoutStageSkipsFiller(t *testing.T) {
	t.Parallel()

	err := New(ErrConfiguration, "", "", "configuration is not loaded")
	if got, want := err.Error(), "configuration error: configuration is not loaded"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
