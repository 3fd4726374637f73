package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cast"
)

// envBinding maps one PARLEY_* variable onto a config field.
type envBinding struct {
	name  string
	apply func(c *Config, raw string) error
}

func str(field func(*Config) *string) func(*Config, string) error {
	return func(c *Config, raw string) error {
		*field(c) = raw
		return nil
	}
}

func integer(field func(*Config) *int) func(*Config, string) error {
	return func(c *Config, raw string) error {
		v, err := cast.ToIntE(raw)
		if err != nil {
			return err
		}
		*field(c) = v
		return nil
	}
}

func boolean(field func(*Config) *bool) func(*Config, string) error {
	return func(c *Config, raw string) error {
		v, err := cast.ToBoolE(raw)
		if err != nil {
			return err
		}
		*field(c) = v
		return nil
	}
}

func duration(field func(*Config) *time.Duration) func(*Config, string) error {
	return func(c *Config, raw string) error {
		v, err := cast.ToDurationE(raw)
		if err != nil {
			return err
		}
		*field(c) = v
		return nil
	}
}

var envBindings = []envBinding{
	{"SEQUENCES_DIR", str(func(c *Config) *string { return &c.Sequences.Dir })},
	{"SEQUENCES_WATCH", boolean(func(c *Config) *bool { return &c.Sequences.Watch })},
	{"STORE_BACKEND", str(func(c *Config) *string { return &c.Store.Backend })},
	{"STORE_ENCRYPTION_KEY", str(func(c *Config) *string { return &c.Store.EncryptionKey })},
	{"STORE_PATH", str(func(c *Config) *string { return &c.Store.Path })},
	{"REDIS_ADDR", str(func(c *Config) *string { return &c.Store.Redis.Addr })},
	{"REDIS_PASSWORD", str(func(c *Config) *string { return &c.Store.Redis.Password })},
	{"REDIS_DB", integer(func(c *Config) *int { return &c.Store.Redis.DB })},
	{"REDIS_PREFIX", str(func(c *Config) *string { return &c.Store.Redis.Prefix })},
	{"REDIS_TTL", duration(func(c *Config) *time.Duration { return &c.Store.Redis.TTL })},
	{"INSTANT", boolean(func(c *Config) *bool { return &c.Delay.Instant })},
	{"DAY_START", str(func(c *Config) *string { return &c.Session.DayStart })},
	{"DEADLINE", str(func(c *Config) *string { return &c.Session.Deadline })},
	{"ASSUME_ACTIVE", boolean(func(c *Config) *bool { return &c.Session.AssumeActive })},
	{"LOG_LEVEL", str(func(c *Config) *string { return &c.Log.Level })},
	{"LOG_FORMAT", str(func(c *Config) *string { return &c.Log.Format })},
	{"HTTP_ADDR", str(func(c *Config) *string { return &c.HTTP.Addr })},
	{"HTTP_METRICS", boolean(func(c *Config) *bool { return &c.HTTP.Metrics })},
	{"MAX_TRANSITIONS", integer(func(c *Config) *int { return &c.MaxTransitions })},
	{"MAX_INPUT_SIZE", integer(func(c *Config) *int { return &c.MaxInputSize })},
}

func applyEnv(c *Config) error {
	for _, b := range envBindings {
		raw, ok := os.LookupEnv(EnvPrefix + b.name)
		if !ok {
			continue
		}
		if err := b.apply(c, raw); err != nil {
			return fmt.Errorf("invalid %s%s=%q: %w", EnvPrefix, b.name, raw, err)
		}
	}
	return nil
}
