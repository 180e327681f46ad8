package config

import (
	"fmt"

	"github.com/supernan/redub/internal/lang"
	"github.com/supernan/redub/internal/ports/adapters/openrouter"
)

// StrategyDirect and StrategyPivot are the accepted translation
// strategy names.
const (
	StrategyDirect = "direct"
	StrategyPivot  = "pivot"
)

// Validate checks the configuration for structural problems. It runs
// after normalization, so values are already trimmed and expanded.
func (cfg *Config) Validate() error {
	for _, check := range []struct {
		section string
		fn      func() error
	}{
		{"paths", cfg.validatePaths},
		{"languages", cfg.validateLanguages},
		{"media", cfg.validateMedia},
		{"recognition", cfg.validateRecognition},
		{"gate", cfg.validateGate},
		{"translation", cfg.validateTranslation},
		{"refine", cfg.validateRefine},
		{"synthesis", cfg.validateSynthesis},
		{"logging", cfg.validateLogging},
	} {
		if err := check.fn(); err != nil {
			return fmt.Errorf("config %s: %w", check.section, err)
		}
	}
	return nil
}

func (cfg *Config) validatePaths() error {
	if cfg.Paths.OutDir == "" {
		return fmt.Errorf("out_dir is required")
	}
	if cfg.Paths.LedgerPath == "" {
		return fmt.Errorf("ledger_path is required")
	}
	return nil
}

func (cfg *Config) validateLanguages() error {
	if cfg.Languages.Source == "" {
		return fmt.Errorf("source language is required")
	}
	if cfg.Languages.Target == "" {
		return fmt.Errorf("target language is required")
	}
	for _, l := range []string{cfg.Languages.Source, cfg.Languages.Target} {
		if !lang.Known(l) {
			return fmt.Errorf("unknown language %q", l)
		}
	}
	if cfg.Languages.Pivot != "" && !lang.Known(cfg.Languages.Pivot) {
		return fmt.Errorf("unknown pivot language %q", cfg.Languages.Pivot)
	}
	if cfg.Languages.Source == cfg.Languages.Target {
		return fmt.Errorf("source and target language must differ")
	}
	return nil
}

func (cfg *Config) validateMedia() error {
	if cfg.Media.FFmpeg == "" {
		return fmt.Errorf("ffmpeg binary is required")
	}
	if cfg.Media.FFprobe == "" {
		return fmt.Errorf("ffprobe binary is required")
	}
	return nil
}

func (cfg *Config) validateRecognition() error {
	if cfg.Recognition.Binary == "" {
		return fmt.Errorf("recognizer binary is required")
	}
	if cfg.Recognition.Model == "" {
		return fmt.Errorf("recognizer model path is required")
	}
	return nil
}

func (cfg *Config) validateGate() error {
	if cfg.Gate.MinDuration <= 0 {
		return fmt.Errorf("min_duration must be positive, got %v", cfg.Gate.MinDuration)
	}
	if cfg.Gate.MinLength < 1 {
		return fmt.Errorf("min_length must be at least 1, got %d", cfg.Gate.MinLength)
	}
	if cfg.Gate.MinUniqueness < 1 {
		return fmt.Errorf("min_uniqueness must be at least 1, got %d", cfg.Gate.MinUniqueness)
	}
	return nil
}

func (cfg *Config) validateTranslation() error {
	if cfg.Translation.Endpoint == "" {
		return fmt.Errorf("endpoint is required")
	}
	switch cfg.Translation.Strategy {
	case StrategyDirect, StrategyPivot:
	default:
		return fmt.Errorf("strategy must be %q or %q, got %q", StrategyDirect, StrategyPivot, cfg.Translation.Strategy)
	}
	if cfg.Translation.Strategy == StrategyPivot {
		if cfg.Languages.Pivot == "" {
			return fmt.Errorf("pivot strategy needs languages.pivot")
		}
		if cfg.Languages.Pivot == cfg.Languages.Source || cfg.Languages.Pivot == cfg.Languages.Target {
			return fmt.Errorf("pivot language must differ from source and target")
		}
	}
	return nil
}

func (cfg *Config) validateRefine() error {
	if !cfg.Refine.Enabled {
		return nil
	}
	if cfg.Refine.APIKey == "" {
		return fmt.Errorf("api_key is required when refinement is enabled (or set OPENROUTER_API_KEY)")
	}
	if cfg.Refine.BaseURL == "" {
		return fmt.Errorf("base_url is required when refinement is enabled")
	}
	if cfg.Refine.Model == "" {
		return fmt.Errorf("model is required when refinement is enabled")
	}
	return openrouter.ValidateBaseURL(cfg.Refine.BaseURL, cfg.Refine.AllowedHosts)
}

func (cfg *Config) validateSynthesis() error {
	if !cfg.Synthesis.Enabled {
		return nil
	}
	if cfg.Synthesis.Endpoint == "" {
		return fmt.Errorf("endpoint is required when synthesis is enabled")
	}
	return nil
}

func (cfg *Config) validateLogging() error {
	switch cfg.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("format must be console or json, got %q", cfg.Logging.Format)
	}
	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("level must be debug, info, warn, or error, got %q", cfg.Logging.Level)
	}
	return nil
}
