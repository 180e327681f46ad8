// Package indictrans is an HTTP client for an IndicTrans2 serving
// endpoint. The endpoint owns the model lifetime; this client sends one
// request per segment and never batches hops.
package indictrans

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/supernan/redub/internal/lang"
)

const (
	defaultBaseURL = "http://127.0.0.1:8000"

	requestTimeout = 120 * time.Second
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
	return &Adapter{baseURL: baseURL, client: &http.Client{Timeout: 5 * time.Minute}}
}

// Translate performs one single-hop translation. Languages are sent as
// Flores-200 tags, which is what IndicTrans2 expects.
func (a *Adapter) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}

	body, err := json.Marshal(map[string]string{
		"text":     text,
		"src_lang": lang.Flores(sourceLang),
		"tgt_lang": lang.Flores(targetLang),
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, "POST", a.baseURL+"/translate", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("indictrans timeout after %s", requestTimeout)
		}
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rb, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return "", fmt.Errorf("indictrans status %d and read body failed: %v", resp.StatusCode, readErr)
		}
		return "", fmt.Errorf("indictrans status %d: %s", resp.StatusCode, truncate(string(rb), 400))
	}

	var out struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return strings.TrimSpace(out.Text), nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
