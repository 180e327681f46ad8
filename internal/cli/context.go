package cli

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/supernan/redub/internal/config"
	"github.com/supernan/redub/internal/logging"
)

// commandContext shares the loaded configuration and logger across
// subcommands. Loading is lazy so commands annotated skipConfigLoad
// (config init) work without a valid config file.
type commandContext struct {
	configFlag *string
	levelFlag  *string

	once       sync.Once
	cfg        *config.Config
	configPath string
	fromFile   bool
	logger     *slog.Logger
	loadErr    error
}

func newCommandContext(configFlag, levelFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag, levelFlag: levelFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.once.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.loadErr = err
			return
		}
		if c.levelFlag != nil && strings.TrimSpace(*c.levelFlag) != "" {
			cfg.Logging.Level = strings.TrimSpace(*c.levelFlag)
		}
		logger, err := logging.New(logging.Options{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
		})
		if err != nil {
			c.loadErr = err
			return
		}
		c.cfg = cfg
		c.configPath = resolved
		c.fromFile = exists
		c.logger = logger
	})
	return c.cfg, c.loadErr
}

// log returns the configured logger, or a nop logger before ensureConfig
// has succeeded.
func (c *commandContext) log() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return logging.NewNop()
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for p := cmd; p != nil; p = p.Parent() {
		if p.Annotations != nil && p.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
