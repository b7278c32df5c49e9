package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Addr         string
	QueueSize    int
	PingInterval time.Duration
}

func Load() (*Config, error) {
	queueSize, err := strconv.Atoi(getEnv("GHOSTWIRE_QUEUE", "256"))
	if err != nil {
		return nil, fmt.Errorf("GHOSTWIRE_QUEUE: %w", err)
	}

	pingInterval, err := time.ParseDuration(getEnv("GHOSTWIRE_PING", "30s"))
	if err != nil {
		return nil, fmt.Errorf("GHOSTWIRE_PING: %w", err)
	}

	cfg := &Config{
		Addr:         getEnv("GHOSTWIRE_ADDR", ":8080"),
		QueueSize:    queueSize,
		PingInterval: pingInterval,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.QueueSize <= 0 {
		return fmt.Errorf("GHOSTWIRE_QUEUE must be greater than 0")
	}

	if c.PingInterval <= 0 {
		return fmt.Errorf("GHOSTWIRE_PING must be greater than 0")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
