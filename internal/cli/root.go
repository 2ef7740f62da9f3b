package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/offhours/internal/config"
	"github.com/ppiankov/offhours/internal/logger"
	"github.com/ppiankov/offhours/internal/settings"
)

var (
	configPath  string
	settingsDSN string
)

var rootCmd = &cobra.Command{
	Use:   "offhours",
	Short: "Business-hours call and message screening",
	Long: "Rejects calls, answers messages and silences the phone outside the\n" +
		"configured business hours. Decisions fail open: when settings cannot\n" +
		"be read, calls are let through.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config YAML (default ~/.offhours/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&settingsDSN, "settings", "", "Settings store: file path, sqlite://path or memory:// (overrides config)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config file, applies flag overrides and initializes
// the root logger.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}
	if settingsDSN != "" {
		cfg.Settings = settingsDSN
	}

	opts := logger.FromEnv()
	if cfg.Log.Level != "" {
		opts.Level = cfg.Log.Level
	}
	if cfg.Log.Format != "" {
		opts.Format = cfg.Log.Format
	}
	logger.Init(opts)
	return cfg, nil
}

// openStore opens the settings store named by cfg.
func openStore(cfg config.Config) (settings.Store, func(), error) {
	store, err := settings.Open(cfg.Settings)
	if err != nil {
		return nil, nil, err
	}
	closer := func() {}
	if c, ok := store.(interface{ Close() error }); ok {
		closer = func() { _ = c.Close() }
	}
	return store, closer, nil
}
