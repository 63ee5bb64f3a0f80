package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix      = "SMARTFARM_"
	envConfigFile  = "SMARTFARM_CONFIG"
	envDotEnvFile  = "SMARTFARM_ENV_FILE"
	defaultEnvFile = ".env"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New)
//  2. file (YAML) if SMARTFARM_CONFIG is set
//  3. env (prefix SMARTFARM_), including values read from a .env file
//
// The .env file never overrides variables already present in the process.
func Load(_ context.Context) (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	base := New()
	k := koanf.New(".")

	if path := os.Getenv(envConfigFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrLoadConfig, path, err)
		}
	}

	// SMARTFARM_UPSTREAM_TIMEOUT_MS -> upstream_timeout_ms (flat keys).
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, strings.ToLower(envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %v", ErrLoadConfig, err)
	}

	cfg := *base
	// Slices are decoded element-wise into existing backing arrays; start empty.
	cfg.Tables = nil
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}
	if len(cfg.Tables) == 0 {
		cfg.Tables = base.Tables
	}
	for i, t := range cfg.Tables {
		cfg.Tables[i] = strings.TrimSpace(t)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadDotEnv reads SMARTFARM_ENV_FILE (or ./.env when unset). A missing
// default file is not an error; a missing explicit one is.
func loadDotEnv() error {
	path, explicit := os.LookupEnv(envDotEnvFile)
	if !explicit || path == "" {
		path = defaultEnvFile
		explicit = false
	}
	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("%w: %s: %v", ErrLoadConfig, path, err)
	}
	return nil
}
