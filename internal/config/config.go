// Package config loads parley settings from a YAML file, a .env file and PARLEY_* variables.
//
// Precedence, lowest first: struct defaults, YAML file, environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/aretw0/parley/pkg/delay"
	"github.com/aretw0/parley/pkg/session"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "PARLEY_"

// Config is the full application configuration.
type Config struct {
	Sequences SequencesConfig `yaml:"sequences"`
	Store     StoreConfig     `yaml:"store"`
	Delay     DelayConfig     `yaml:"delay"`
	Session   SessionConfig   `yaml:"session"`
	Log       LogConfig       `yaml:"log"`
	HTTP      HTTPConfig      `yaml:"http"`

	MaxTransitions int `yaml:"maxTransitions" default:"8" validate:"gte=0,lte=64"`
	MaxInputSize   int `yaml:"maxInputSize" default:"4096" validate:"gte=1"`
}

type SequencesConfig struct {
	Dir   string `yaml:"dir" default:"./sequences" validate:"required"`
	Watch bool   `yaml:"watch"`
}

type StoreConfig struct {
	Backend string `yaml:"backend" default:"memory" validate:"oneof=memory file redis sqlite"`
	// Path is the JSON file for the file backend and the database file for sqlite.
	Path  string      `yaml:"path" default:"parley-store.json"`
	Redis RedisConfig `yaml:"redis"`

	// EncryptionKey is a base64 AES-256 key; when set every value is encrypted at rest.
	EncryptionKey string   `yaml:"encryptionKey" validate:"omitempty,base64"`
	FallbackKeys  []string `yaml:"fallbackKeys" validate:"dive,base64"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr" default:"localhost:6379" validate:"required,hostname_port"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db" default:"0" validate:"gte=0,lte=15"`
	Prefix   string        `yaml:"prefix" default:"parley:"`
	TTL      time.Duration `yaml:"ttl"`
}

type DelayConfig struct {
	Instant bool          `yaml:"instant"`
	Choice  time.Duration `yaml:"choice" default:"1200ms" validate:"gte=0"`
	Base    time.Duration `yaml:"base" default:"800ms" validate:"gte=0"`
	PerWord time.Duration `yaml:"perWord" default:"120ms" validate:"gte=0"`
	Min     time.Duration `yaml:"min" default:"1s" validate:"gte=0"`
	Max     time.Duration `yaml:"max" default:"5s" validate:"gtefield=Min"`
}

type SessionConfig struct {
	DayStart     string `yaml:"dayStart" default:"09:00" validate:"clock"`
	Deadline     string `yaml:"deadline" default:"21:00" validate:"clock"`
	AssumeActive bool   `yaml:"assumeActiveWhenUnconfigured" default:"true"`
}

type LogConfig struct {
	Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn warning error"`
	Format string `yaml:"format" default:"text" validate:"oneof=text json"`
}

type HTTPConfig struct {
	Addr    string `yaml:"addr" default:":8080" validate:"required"`
	Metrics bool   `yaml:"metrics" default:"true"`

	// Redact lists path patterns whose values are masked in HTTP responses and events.
	Redact []string `yaml:"redact"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// hostname_port is a built-in tag; clock validates "HH:MM".
	_ = v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		t, err := time.Parse("15:04", fl.Field().String())
		return err == nil && t.Format("15:04") == fl.Field().String()
	})
	return v
}

// Default returns the configuration with only struct defaults applied.
func Default() (*Config, error) {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply default values: %w", err)
	}
	return cfg, nil
}

// Load builds the configuration from path (optional) and the environment. Env files are
// loaded first without overriding variables already set; a missing ".env" is ignored.
func Load(path string, envFiles ...string) (*Config, error) {
	if err := loadEnvFiles(envFiles); err != nil {
		return nil, err
	}

	cfg, err := Default()
	if err != nil {
		return nil, err
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadEnvFiles(files []string) error {
	if len(files) == 0 {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load .env: %w", err)
		}
		return nil
	}
	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("failed to load env files: %w", err)
	}
	return nil
}

// Validate checks every field constraint.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			msgs := make([]string, 0, len(validationErrors))
			for _, fieldErr := range validationErrors {
				msgs = append(msgs, fmt.Sprintf("field '%s' failed validation (rule: %s, value: %v)",
					fieldErr.Namespace(), fieldErr.Tag(), fieldErr.Value()))
			}
			return fmt.Errorf("config validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
		}
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// DelayPolicy builds the message delay policy.
func (c *Config) DelayPolicy() *delay.Policy {
	return delay.New(
		delay.WithInstant(c.Delay.Instant),
		delay.WithChoiceDelay(c.Delay.Choice),
		delay.WithTyping(c.Delay.Base, c.Delay.PerWord, c.Delay.Min, c.Delay.Max),
	)
}

// SessionOptions builds the session service options.
func (c *Config) SessionOptions() []session.Option {
	return []session.Option{
		session.WithDefaultWindow(c.Session.DayStart, c.Session.Deadline),
		session.WithAssumeActiveWhenUnconfigured(c.Session.AssumeActive),
	}
}
