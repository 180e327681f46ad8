package config

import "github.com/supernan/redub/internal/domain/qualitygate"

const (
	defaultOutDir     = "outputs"
	defaultLedgerPath = "~/.local/share/redub/runs.db"

	defaultSourceLanguage = "kn"
	defaultTargetLanguage = "hi"
	defaultPivotLanguage  = "en"

	defaultFFmpegBinary  = "ffmpeg"
	defaultFFprobeBinary = "ffprobe"

	defaultWhisperBinary = "whisper-cli"
	defaultWhisperModel  = "~/.local/share/redub/models/ggml-large-v3.bin"

	defaultTranslationEndpoint = "http://127.0.0.1:8000"
	defaultTranslationStrategy = "direct"

	defaultRefineModel   = "openai/gpt-4o-mini"
	defaultRefineBaseURL = "https://openrouter.ai"

	defaultSynthesisEndpoint = "http://127.0.0.1:8020"

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Default returns a Config with sensible defaults for a local
// Kannada-to-Hindi deployment.
func Default() Config {
	gate := qualitygate.DefaultPolicy()

	return Config{
		Paths: Paths{
			OutDir:     defaultOutDir,
			LedgerPath: defaultLedgerPath,
		},
		Languages: Languages{
			Source: defaultSourceLanguage,
			Target: defaultTargetLanguage,
			Pivot:  defaultPivotLanguage,
		},
		Media: Media{
			FFmpeg:  defaultFFmpegBinary,
			FFprobe: defaultFFprobeBinary,
		},
		Recognition: Recognition{
			Binary: defaultWhisperBinary,
			Model:  defaultWhisperModel,
		},
		Gate: Gate{
			MinDuration:    gate.MinDuration,
			MinLength:      gate.MinLength,
			MinUniqueness:  gate.MinUniqueness,
			Hallucinations: gate.Hallucinations,
		},
		Normalize: Normalize{
			Validate: true,
		},
		Translation: Translation{
			Endpoint: defaultTranslationEndpoint,
			Strategy: defaultTranslationStrategy,
		},
		Refine: Refine{
			Model:   defaultRefineModel,
			BaseURL: defaultRefineBaseURL,
		},
		Synthesis: Synthesis{
			Endpoint: defaultSynthesisEndpoint,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

// GatePolicy converts the gate section into a quality gate policy.
func (c *Config) GatePolicy() qualitygate.Policy {
	return qualitygate.Policy{
		MinDuration:    c.Gate.MinDuration,
		MinLength:      c.Gate.MinLength,
		MinUniqueness:  c.Gate.MinUniqueness,
		Hallucinations: c.Gate.Hallucinations,
	}
}
