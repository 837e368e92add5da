package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-tether/binding"
)

type EventsConfig struct {
	BufferSize       int `koanf:"buffer_size" mapstructure:"buffer_size"`
	RetentionSeconds int `koanf:"retention_seconds" mapstructure:"retention_seconds"`
	RowCap           int `koanf:"row_cap" mapstructure:"row_cap"`
}

func (c EventsConfig) RetentionPolicy() EventRetentionPolicy {
	return EventRetentionPolicy{
		TTL:    time.Duration(c.RetentionSeconds) * time.Second,
		RowCap: c.RowCap,
	}
}

type Config struct {
	ServiceName   string       `koanf:"service_name" mapstructure:"service_name"`
	DefaultPolicy string       `koanf:"default_policy" mapstructure:"default_policy"`
	Events        EventsConfig `koanf:"events" mapstructure:"events"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName:   "tether",
		DefaultPolicy: binding.PolicyCrossThread,
		Events: EventsConfig{
			BufferSize: 128,
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	switch strings.TrimSpace(c.DefaultPolicy) {
	case binding.PolicyManual, binding.PolicySingleThread, binding.PolicyCrossThread:
	default:
		return fmt.Errorf("core: default_policy %q is invalid", c.DefaultPolicy)
	}
	if c.Events.BufferSize < 0 {
		return fmt.Errorf("core: events.buffer_size must not be negative")
	}
	if c.Events.RetentionSeconds < 0 {
		return fmt.Errorf("core: events.retention_seconds must not be negative")
	}
	if c.Events.RowCap < 0 {
		return fmt.Errorf("core: events.row_cap must not be negative")
	}
	return nil
}
