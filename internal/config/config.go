// Package config loads the daemon configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/offhours/internal/blocker"
	"github.com/ppiankov/offhours/internal/notify"
	"github.com/ppiankov/offhours/internal/ratelimit"
	"github.com/ppiankov/offhours/internal/screening"
)

// Default listen addresses.
const (
	DefaultGRPCAddr = "127.0.0.1:7421"
	DefaultHTTPAddr = "127.0.0.1:7420"
)

// Config is the daemon configuration.
type Config struct {
	// Settings is a settings store DSN; see settings.Open.
	Settings   string   `yaml:"settings"`
	Heuristics string   `yaml:"heuristics"`
	Profiles   []string `yaml:"profiles"`

	Blocker   blocker.Config `yaml:"blocker"`
	Screening Screening      `yaml:"screening"`
	AutoReply AutoReply      `yaml:"auto_reply"`
	DND       DND            `yaml:"dnd"`

	Listen   Listen                 `yaml:"listen"`
	Webhooks []notify.WebhookConfig `yaml:"webhooks" validate:"dive"`
	Log      Log                    `yaml:"log"`

	// AuditLog is the hash-chained decision journal. Empty disables it.
	AuditLog string `yaml:"audit_log"`
}

// Screening tunes the call-screening path.
type Screening struct {
	Budget time.Duration `yaml:"budget" validate:"min=0"`
}

// AutoReply tunes the SMS auto-reply. A zero dedup window replies to every message.
type AutoReply struct {
	Dedup ratelimit.Limit `yaml:"dedup"`
}

// DND tunes the do-not-disturb reconciler. Zero disables the loop.
type DND struct {
	Interval time.Duration `yaml:"interval" validate:"min=0"`
}

// Listen holds bridge addresses. Empty disables a bridge.
type Listen struct {
	GRPC string `yaml:"grpc" validate:"omitempty,hostname_port"`
	HTTP string `yaml:"http" validate:"omitempty,hostname_port"`
}

// Log overrides the LOG_LEVEL and LOG_FORMAT environment.
type Log struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=trace debug info warn error disabled off"`
	Format string `yaml:"format" validate:"omitempty,oneof=console json"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Blocker:   blocker.DefaultConfig(),
		Screening: Screening{Budget: screening.DefaultBudget},
		DND:       DND{Interval: time.Minute},
		Listen:    Listen{GRPC: DefaultGRPCAddr, HTTP: DefaultHTTPAddr},
	}
}

// DefaultPath returns ~/.offhours/config.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".offhours", "config.yaml")
}

// Load reads the file at path on top of Default. Empty path falls back to
// DefaultPath. A missing file returns the defaults; invalid YAML or values
// return an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath()
		if path == "" {
			return cfg, nil
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var (
	vOnce sync.Once
	vInst *validator.Validate
)

// Validate checks value ranges and formats.
func (c Config) Validate() error {
	vOnce.Do(func() {
		vInst = validator.New(validator.WithRequiredStructEnabled())
	})
	if err := vInst.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
