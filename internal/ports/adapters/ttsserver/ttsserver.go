// Package ttsserver is an HTTP client for an XTTS-style speech
// synthesis endpoint. The endpoint owns the model; the client uploads
// the reference speaker audio with every request and stores the WAV it
// gets back.
package ttsserver

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/supernan/redub/internal/lang"
)

const (
	defaultBaseURL = "http://127.0.0.1:8020"

	requestTimeout = 5 * time.Minute
)

type Adapter struct {
	baseURL string
	client  *http.Client
}

func New(baseURL string) *Adapter {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	return &Adapter{baseURL: baseURL, client: &http.Client{Timeout: 10 * time.Minute}}
}

// Synthesize renders text as speech cloned from speakerWav and writes
// the result to outPath. speakerWav may be empty when the endpoint has
// a default voice configured.
func (a *Adapter) Synthesize(ctx context.Context, text, language, speakerWav, outPath string) error {
	if strings.TrimSpace(text) == "" {
		return errors.New("synthesize: empty text")
	}

	req := map[string]string{
		"text":     text,
		"language": lang.ISO2(language),
	}
	if speakerWav != "" {
		ref, err := os.ReadFile(speakerWav)
		if err != nil {
			return fmt.Errorf("read speaker reference: %w", err)
		}
		req["speaker_wav_b64"] = base64.StdEncoding.EncodeToString(ref)
	}
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(reqCtx, "POST", a.baseURL+"/synthesize", bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(httpReq)
	if err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("tts timeout after %s", requestTimeout)
		}
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rb, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("tts status %d and read body failed: %v", resp.StatusCode, readErr)
		}
		return fmt.Errorf("tts status %d: %s", resp.StatusCode, truncate(string(rb), 400))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read audio: %w", err)
	}
	if len(audio) == 0 {
		return errors.New("tts returned empty audio")
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(outPath, audio, 0o644); err != nil {
		return fmt.Errorf("write audio: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
