// Package config loads, defaults, and validates the TOML configuration
// shared by every redub command.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and data-file locations.
type Paths struct {
	// OutDir is the default artifact directory root; the run command's
	// --outdir flag overrides it per run.
	OutDir     string `toml:"out_dir"`
	LedgerPath string `toml:"ledger_path"`
}

// Languages fixes the translation route for a deployment.
type Languages struct {
	Source string `toml:"source"`
	Target string `toml:"target"`
	// Pivot is the intermediate language used by the pivot strategy.
	Pivot string `toml:"pivot"`
}

// Media contains the media tool binaries.
type Media struct {
	FFmpeg  string `toml:"ffmpeg"`
	FFprobe string `toml:"ffprobe"`
}

// Recognition contains the speech recognizer CLI settings.
type Recognition struct {
	Binary string `toml:"binary"`
	Model  string `toml:"model"`
}

// Gate contains the segment quality gate policy. The hallucination set
// is model/language specific and ships as editable configuration, not
// code.
type Gate struct {
	MinDuration    float64  `toml:"min_duration"`
	MinLength      int      `toml:"min_length"`
	MinUniqueness  int      `toml:"min_uniqueness"`
	Hallucinations []string `toml:"hallucinations"`
}

// Normalize contains the source-text normalization settings.
type Normalize struct {
	// RulesFile points at a TOML rule table; empty selects the built-in
	// table for the configured source language.
	RulesFile string `toml:"rules_file"`
	// Validate runs the rewrite-table idempotence self-check at startup.
	Validate bool `toml:"validate"`
}

// Translation contains the translation engine settings.
type Translation struct {
	Endpoint string `toml:"endpoint"`
	Strategy string `toml:"strategy"`
}

// Refine contains the optional refinement pass settings.
type Refine struct {
	Enabled      bool     `toml:"enabled"`
	APIKey       string   `toml:"api_key"`
	Model        string   `toml:"model"`
	BaseURL      string   `toml:"base_url"`
	AllowedHosts []string `toml:"allowed_hosts"`
}

// Synthesis contains the optional speech synthesis settings.
type Synthesis struct {
	Enabled    bool   `toml:"enabled"`
	Endpoint   string `toml:"endpoint"`
	SpeakerWav string `toml:"speaker_wav"`
}

// Logging contains log output settings.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for redub.
type Config struct {
	Paths       Paths       `toml:"paths"`
	Languages   Languages   `toml:"languages"`
	Media       Media       `toml:"media"`
	Recognition Recognition `toml:"recognition"`
	Gate        Gate        `toml:"gate"`
	Normalize   Normalize   `toml:"normalize"`
	Translation Translation `toml:"translation"`
	Refine      Refine      `toml:"refine"`
	Synthesis   Synthesis   `toml:"synthesis"`
	Logging     Logging     `toml:"logging"`
}

// DefaultConfigPath returns the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/redub/config.toml")
}

// Load locates, parses, normalizes, and validates a configuration file.
// A missing file is not an error: defaults plus environment overrides
// apply. The resolved path and whether it existed are returned for
// diagnostics.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("redub.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// CreateSample writes a sample configuration file to the specified
// location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other
// packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}
