// Package faults defines the pipeline error taxonomy and stage-tagged
// wrapping used across stages and adapters.
//
// Classification drives behavior: ErrInput aborts before the offending
// stage starts, ErrExternalTool aborts the current stage while preserving
// earlier artifacts, ErrConfiguration is reported before any stage runs.
// Quality-gate rejections are not errors and never appear here.
package faults

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInput marks missing files, invalid time ranges, and other caller
	// mistakes detected before a stage is invoked.
	ErrInput = errors.New("input error")

	// ErrExternalTool marks a nonzero exit or protocol failure from a
	// collaborator (media tool, recognition or translation runtime).
	ErrExternalTool = errors.New("external tool error")

	// ErrConfiguration marks invalid or incomplete configuration.
	ErrConfiguration = errors.New("configuration error")

	// ErrLocked marks an artifact directory already claimed by another
	// pipeline run.
	ErrLocked = errors.New("artifact directory locked")
)

// Wrap tags err with marker and a stage-qualified detail so callers can
// classify with errors.Is while users see which stage failed. The marker
// should be one of the exported sentinels.
func Wrap(marker error, stage, operation string, err error) error {
	detail := detail(stage, operation)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// New builds a tagged error from a message instead of a wrapped cause.
func New(marker error, stage, operation, message string) error {
	if marker == nil {
		marker = ErrExternalTool
	}
	message = strings.TrimSpace(message)
	if stage == "" && operation == "" && message != "" {
		return fmt.Errorf("%w: %s", marker, message)
	}
	detail := detail(stage, operation)
	if message != "" {
		return fmt.Errorf("%w: %s: %s", marker, detail, message)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func detail(stage, operation string) string {
	parts := make([]string, 0, 2)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if len(parts) == 0 {
		return "pipeline failure"
	}
	return strings.Join(parts, ": ")
}
