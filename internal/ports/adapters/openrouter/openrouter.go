// Package openrouter refines translated segments through an OpenRouter
// chat completions endpoint.
package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/supernan/redub/internal/lang"
)

type Adapter struct {
	key      string
	model    string
	baseURL  string
	language string
	client   *http.Client
}

const (
	requestTimeout = 90 * time.Second
)

// New builds a refiner for the given target language. targetLang may be
// an ISO 639-1 code or a Flores-200 tag; the prompt uses its display
// name.
func New(apiKey, model, baseURL, targetLang string) *Adapter {
	if model == "" {
		model = "openai/gpt-4o-mini"
	}
	baseURL = normalizeBaseURL(baseURL)
	return &Adapter{
		key:      apiKey,
		model:    model,
		baseURL:  baseURL,
		language: lang.Display(targetLang),
		client:   &http.Client{Timeout: 5 * time.Minute},
	}
}

// Refine rewrites one translated sentence to sound natural without
// changing its meaning. Callers treat any error as recoverable and keep
// the unrefined text.
func (a *Adapter) Refine(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}

	payload := map[string]any{
		"model":       a.model,
		"stream":      false,
		"temperature": 0.3,
		"messages": []map[string]any{
			{"role": "system", "content": fmt.Sprintf("You improve %s translation quality.", a.language)},
			{"role": "user", "content": buildPrompt(a.language, text)},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}
	url := a.baseURL + "/api/v1/chat/completions"

	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+a.key)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("openrouter timeout after %s (model=%s)", requestTimeout, a.model)
		}
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rb, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return "", fmt.Errorf("openrouter status %d and read body failed: %v", resp.StatusCode, readErr)
		}
		return "", fmt.Errorf("openrouter status %d: %s", resp.StatusCode, truncate(redactSecrets(string(rb), a.key), 400))
	}

	var raw struct {
		Choices []struct {
			Message struct {
				Content any `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return "", err
	}
	if len(raw.Choices) == 0 {
		return "", errors.New("openrouter: no choices in response")
	}

	content, err := messageContentToString(raw.Choices[0].Message.Content)
	if err != nil {
		return "", err
	}
	refined := strings.TrimSpace(stripCodeFence(content))
	if refined == "" {
		return "", errors.New("openrouter: empty refinement")
	}
	return refined, nil
}

func buildPrompt(language, text string) string {
	return fmt.Sprintf(
		"You are a professional %[1]s editor.\n\n"+
			"Rewrite the following %[1]s sentence to sound natural, conversational, "+
			"and instructional. Do NOT change meaning. "+
			"Keep length roughly similar to the original. "+
			"Reply with the rewritten sentence only, no commentary.\n\n"+
			"Original %[1]s:\n%[2]s\n\nImproved %[1]s:",
		language, text,
	)
}

func messageContentToString(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case []any:
		// Some providers return an array of {type,text} parts.
		var b strings.Builder
		for _, it := range x {
			m, ok := it.(map[string]any)
			if !ok {
				continue
			}
			if t, ok := m["text"].(string); ok {
				b.WriteString(t)
			}
		}
		s := b.String()
		if strings.TrimSpace(s) == "" {
			return "", errors.New("openrouter: empty content")
		}
		return s, nil
	default:
		return "", fmt.Errorf("openrouter: unexpected content type %T", v)
	}
}

func stripCodeFence(s string) string {
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, "```") {
		return t
	}
	if i := strings.Index(t, "\n"); i >= 0 {
		t = t[i+1:]
	}
	if j := strings.LastIndex(t, "```"); j >= 0 {
		t = t[:j]
	}
	return strings.TrimSpace(t)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

var (
	bearerTokenRE = regexp.MustCompile(`(?i)\bBearer\s+[A-Za-z0-9._-]+\b`)
	authHeaderRE  = regexp.MustCompile(`(?i)(authorization\s*[:=]\s*)([^\n\r,;]+)`)
	apiKeyFieldRE = regexp.MustCompile(`(?i)(api[_-]?key\s*[:=]\s*)([^\n\r,;]+)`)
)

func redactSecrets(s, apiKey string) string {
	if s == "" {
		return s
	}
	out := s
	if apiKey != "" {
		out = strings.ReplaceAll(out, apiKey, "[REDACTED]")
	}
	out = bearerTokenRE.ReplaceAllString(out, "Bearer [REDACTED]")
	out = authHeaderRE.ReplaceAllString(out, "${1}[REDACTED]")
	out = apiKeyFieldRE.ReplaceAllString(out, "${1}[REDACTED]")
	return out
}
