package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	neutralizeEnv(t)

	path := filepath.Join(t.TempDir(), "config.toml")
	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false for missing file")
	}
	if resolved != path {
		t.Fatalf("resolved path = %q, want %q", resolved, path)
	}

	if cfg.Languages.Source != "kn" || cfg.Languages.Target != "hi" {
		t.Fatalf("default languages = %q -> %q", cfg.Languages.Source, cfg.Languages.Target)
	}
	if cfg.Translation.Strategy != StrategyDirect {
		t.Fatalf("default strategy = %q", cfg.Translation.Strategy)
	}
	if cfg.Gate.MinDuration != 0.5 || cfg.Gate.MinLength != 3 || cfg.Gate.MinUniqueness != 5 {
		t.Fatalf("default gate = %+v", cfg.Gate)
	}
	if cfg.Refine.Enabled || cfg.Synthesis.Enabled {
		t.Fatal("optional stages should default to disabled")
	}
	if strings.Contains(cfg.Paths.LedgerPath, "~") {
		t.Fatalf("ledger path not expanded: %q", cfg.Paths.LedgerPath)
	}
	if !filepath.IsAbs(cfg.Recognition.Model) {
		t.Fatalf("model path not absolute: %q", cfg.Recognition.Model)
	}
}

func TestLoadFileOverridesKeepUntouchedDefaults(t *testing.T) {
	neutralizeEnv(t)

	path := filepath.Join(t.TempDir(), "config.toml")
	writeConfig(t, path, `
[languages]
source = "kn"
target = "hi"
pivot = "en"

[translation]
strategy = "pivot"

[gate]
min_duration = 0.75

[refine]
enabled = true
api_key = "sk-test"
`)

	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Fatal("expected exists=true")
	}
	if cfg.Translation.Strategy != StrategyPivot {
		t.Fatalf("strategy = %q, want pivot", cfg.Translation.Strategy)
	}
	if cfg.Gate.MinDuration != 0.75 {
		t.Fatalf("min_duration = %v, want 0.75", cfg.Gate.MinDuration)
	}
	if cfg.Gate.MinLength != 3 {
		t.Fatalf("min_length = %d, want default 3", cfg.Gate.MinLength)
	}
	if len(cfg.Gate.Hallucinations) == 0 {
		t.Fatal("default hallucination set should survive a partial [gate] section")
	}
	if !cfg.Refine.Enabled || cfg.Refine.APIKey != "sk-test" {
		t.Fatalf("refine = %+v", cfg.Refine)
	}
	if cfg.Refine.Model != defaultRefineModel {
		t.Fatalf("refine model = %q, want default", cfg.Refine.Model)
	}
}

func TestLoadEnvFallbacks(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "sk-from-env")
	t.Setenv("OPENROUTER_BASE_URL", "https://proxy.internal")
	t.Setenv("OPENROUTER_ALLOWED_HOSTS", "proxy.internal, other.internal")
	t.Setenv("REDUB_TRANSLATE_ENDPOINT", "http://gpu-box:8000")
	t.Setenv("REDUB_TTS_ENDPOINT", "http://gpu-box:8020")

	path := filepath.Join(t.TempDir(), "config.toml")
	writeConfig(t, path, `
[refine]
enabled = true
`)

	cfg, _, _, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Refine.APIKey != "sk-from-env" {
		t.Fatalf("api key = %q, want env fallback", cfg.Refine.APIKey)
	}
	if cfg.Refine.BaseURL != "https://proxy.internal" {
		t.Fatalf("base url = %q, want env fallback", cfg.Refine.BaseURL)
	}
	if len(cfg.Refine.AllowedHosts) != 2 || cfg.Refine.AllowedHosts[0] != "proxy.internal" {
		t.Fatalf("allowed hosts = %v", cfg.Refine.AllowedHosts)
	}
	if cfg.Translation.Endpoint != "http://gpu-box:8000" {
		t.Fatalf("translation endpoint = %q", cfg.Translation.Endpoint)
	}
	if cfg.Synthesis.Endpoint != "http://gpu-box:8020" {
		t.Fatalf("synthesis endpoint = %q", cfg.Synthesis.Endpoint)
	}
}

func TestLoadExplicitValueBeatsEnv(t *testing.T) {
	t.Setenv("REDUB_TRANSLATE_ENDPOINT", "http://from-env:8000")

	path := filepath.Join(t.TempDir(), "config.toml")
	writeConfig(t, path, `
[translation]
endpoint = "http://from-file:8000"
`)

	cfg, _, _, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Translation.Endpoint != "http://from-file:8000" {
		t.Fatalf("endpoint = %q, want file value", cfg.Translation.Endpoint)
	}
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr string
	}{
		{
			name:    "pivot strategy without pivot language",
			mutate:  func(cfg *Config) { cfg.Translation.Strategy = StrategyPivot; cfg.Languages.Pivot = "" },
			wantErr: "languages.pivot",
		},
		{
			name:    "pivot equal to target",
			mutate:  func(cfg *Config) { cfg.Translation.Strategy = StrategyPivot; cfg.Languages.Pivot = "hi" },
			wantErr: "must differ",
		},
		{
			name:    "unknown language",
			mutate:  func(cfg *Config) { cfg.Languages.Source = "xx" },
			wantErr: "unknown language",
		},
		{
			name:    "source equals target",
			mutate:  func(cfg *Config) { cfg.Languages.Source = "hi" },
			wantErr: "must differ",
		},
		{
			name:    "unknown strategy",
			mutate:  func(cfg *Config) { cfg.Translation.Strategy = "triangulate" },
			wantErr: "strategy",
		},
		{
			name:    "refine enabled without key",
			mutate:  func(cfg *Config) { cfg.Refine.Enabled = true },
			wantErr: "api_key",
		},
		{
			name: "refine base url must be https",
			mutate: func(cfg *Config) {
				cfg.Refine.Enabled = true
				cfg.Refine.APIKey = "sk-test"
				cfg.Refine.BaseURL = "http://openrouter.ai"
			},
			wantErr: "https is required",
		},
		{
			name: "refine host outside allow list",
			mutate: func(cfg *Config) {
				cfg.Refine.Enabled = true
				cfg.Refine.APIKey = "sk-test"
				cfg.Refine.BaseURL = "https://evil.example"
			},
			wantErr: "allowed host list",
		},
		{
			name:    "non-positive gate duration",
			mutate:  func(cfg *Config) { cfg.Gate.MinDuration = 0 },
			wantErr: "min_duration",
		},
		{
			name:    "bad log format",
			mutate:  func(cfg *Config) { cfg.Logging.Format = "xml" },
			wantErr: "format",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("error %q does not mention %q", err, tc.wantErr)
			}
		})
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	neutralizeEnv(t)

	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}

	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("sample should exist")
	}
	if cfg.Languages.Source != "kn" || cfg.Translation.Strategy != StrategyDirect {
		t.Fatalf("sample config drifted from defaults: %+v", cfg)
	}
}

func TestExpandPathHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}
	got, err := expandPath("~/redub/models")
	if err != nil {
		t.Fatalf("expandPath: %v", err)
	}
	want := filepath.Join(home, "redub", "models")
	if got != want {
		t.Fatalf("expandPath = %q, want %q", got, want)
	}
}

func writeConfig(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

// neutralizeEnv blanks the environment overrides so host settings do not
// leak into assertions.
func neutralizeEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"OPENROUTER_API_KEY",
		"OPENROUTER_BASE_URL",
		"OPENROUTER_ALLOWED_HOSTS",
		"REDUB_TRANSLATE_ENDPOINT",
		"REDUB_TTS_ENDPOINT",
	} {
		t.Setenv(name, "")
	}
}
