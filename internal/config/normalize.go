package config

import (
	"os"
	"strings"
)

// normalize trims user-supplied values, applies environment fallbacks,
// and expands filesystem paths. Environment variables fill in values the
// file left empty or at their default; explicit file values win.
func (cfg *Config) normalize() error {
	cfg.Languages.Source = strings.ToLower(strings.TrimSpace(cfg.Languages.Source))
	cfg.Languages.Target = strings.ToLower(strings.TrimSpace(cfg.Languages.Target))
	cfg.Languages.Pivot = strings.ToLower(strings.TrimSpace(cfg.Languages.Pivot))

	cfg.Media.FFmpeg = strings.TrimSpace(cfg.Media.FFmpeg)
	cfg.Media.FFprobe = strings.TrimSpace(cfg.Media.FFprobe)
	cfg.Recognition.Binary = strings.TrimSpace(cfg.Recognition.Binary)
	cfg.Recognition.Model = strings.TrimSpace(cfg.Recognition.Model)

	cfg.Translation.Strategy = strings.ToLower(strings.TrimSpace(cfg.Translation.Strategy))
	cfg.Translation.Endpoint = envDefault(strings.TrimSpace(cfg.Translation.Endpoint), defaultTranslationEndpoint, "REDUB_TRANSLATE_ENDPOINT")

	cfg.Refine.APIKey = strings.TrimSpace(cfg.Refine.APIKey)
	if cfg.Refine.APIKey == "" {
		if v, ok := os.LookupEnv("OPENROUTER_API_KEY"); ok {
			cfg.Refine.APIKey = strings.TrimSpace(v)
		}
	}
	cfg.Refine.Model = strings.TrimSpace(cfg.Refine.Model)
	cfg.Refine.BaseURL = envDefault(strings.TrimSpace(cfg.Refine.BaseURL), defaultRefineBaseURL, "OPENROUTER_BASE_URL")
	if len(cfg.Refine.AllowedHosts) == 0 {
		if v, ok := os.LookupEnv("OPENROUTER_ALLOWED_HOSTS"); ok {
			cfg.Refine.AllowedHosts = splitHosts(v)
		}
	}
	for i, host := range cfg.Refine.AllowedHosts {
		cfg.Refine.AllowedHosts[i] = strings.TrimSpace(host)
	}

	cfg.Synthesis.Endpoint = envDefault(strings.TrimSpace(cfg.Synthesis.Endpoint), defaultSynthesisEndpoint, "REDUB_TTS_ENDPOINT")

	cfg.Logging.Format = strings.ToLower(strings.TrimSpace(cfg.Logging.Format))
	cfg.Logging.Level = strings.ToLower(strings.TrimSpace(cfg.Logging.Level))

	for _, p := range []*string{
		&cfg.Paths.OutDir,
		&cfg.Paths.LedgerPath,
		&cfg.Recognition.Model,
		&cfg.Normalize.RulesFile,
		&cfg.Synthesis.SpeakerWav,
	} {
		if strings.TrimSpace(*p) == "" {
			*p = ""
			continue
		}
		expanded, err := expandPath(strings.TrimSpace(*p))
		if err != nil {
			return err
		}
		*p = expanded
	}

	return nil
}

// envDefault returns the environment value when the config still holds
// its built-in default and the variable is set to something non-empty.
func envDefault(current, fallback, envName string) string {
	if current != fallback && current != "" {
		return current
	}
	if v, ok := os.LookupEnv(envName); ok {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return current
}

func splitHosts(raw string) []string {
	parts := strings.Split(raw, ",")
	hosts := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			hosts = append(hosts, trimmed)
		}
	}
	return hosts
}
