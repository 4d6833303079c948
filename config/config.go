// Package config loads server configuration from RESEARCH_-prefixed
// environment variables, with sane defaults for local development.
package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Model   ModelConfig   `koanf:"model"`
	Store   StoreConfig   `koanf:"store"`
	Session SessionConfig `koanf:"session"`
	Log     LogConfig     `koanf:"log"`
}

type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`
}

// Addr returns the listen address in host:port form.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type ModelConfig struct {
	Name string `koanf:"name"`
}

type StoreConfig struct {
	// Backend selects run persistence: memory, redis, sqlite or postgres.
	Backend string `koanf:"backend"`
	// DSN is the backend connection string: a redis address, a sqlite
	// file path, or a postgres connection URL. Unused for memory.
	DSN string `koanf:"dsn"`
}

type SessionConfig struct {
	// History caps per-session message history; zero keeps everything.
	History int `koanf:"history"`
}

type LogConfig struct {
	Level string `koanf:"level"`
}

// Load reads configuration from the environment. RESEARCH_SERVER_PORT
// becomes server.port, RESEARCH_STORE_BACKEND becomes store.backend,
// and so on.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(env.Provider("RESEARCH_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "RESEARCH_")), "_", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	// Default values
	if !k.Exists("server.port") {
		k.Set("server.port", 8080)
	}
	if !k.Exists("model.name") {
		k.Set("model.name", "gpt-4o-mini")
	}
	if !k.Exists("store.backend") {
		k.Set("store.backend", "memory")
	}
	if !k.Exists("log.level") {
		k.Set("log.level", "info")
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	switch cfg.Store.Backend {
	case "memory", "redis", "sqlite", "postgres":
	default:
		return nil, fmt.Errorf("unknown store backend: %s", cfg.Store.Backend)
	}

	return &cfg, nil
}
