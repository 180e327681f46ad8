package transcript

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// WriteArtifact persists v as an indented UTF-8 JSON artifact. Non-ASCII
// text is written unescaped so Indic-script segments stay readable in the
// artifact directory.
func WriteArtifact(path string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// ReadTranscript loads a transcript artifact and validates its invariants.
func ReadTranscript(path string) (Transcript, error) {
	var t Transcript
	b, err := os.ReadFile(path)
	if err != nil {
		return Transcript{}, err
	}
	if err := json.Unmarshal(b, &t); err != nil {
		return Transcript{}, fmt.Errorf("parse transcript %s: %w", path, err)
	}
	if err := t.Validate(); err != nil {
		return Transcript{}, err
	}
	return t, nil
}

// ReadTranslation loads a translation artifact.
func ReadTranslation(path string) (Translation, error) {
	var tl Translation
	b, err := os.ReadFile(path)
	if err != nil {
		return Translation{}, err
	}
	if err := json.Unmarshal(b, &tl); err != nil {
		return Translation{}, fmt.Errorf("parse translation %s: %w", path, err)
	}
	return tl, nil
}
