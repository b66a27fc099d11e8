/*
Copyright 2026, Aleksei Sviridkin.

SPDX-License-Identifier: BSD-3-Clause
*/

// Package config loads modsyncer.yaml.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/lexfrei/modsyncer/pkg/mods"
	"github.com/lexfrei/modsyncer/pkg/registry"
	"github.com/lexfrei/modsyncer/pkg/resolver"
)

// Environment variables that override file settings.
const (
	EnvCurseForgeAPIKey = "MODSYNCER_CURSEFORGE_API_KEY"
	EnvGameVersion      = "MODSYNCER_GAME_VERSION"
)

// DefaultPath is the config file looked for when none is given.
const DefaultPath = "modsyncer.yaml"

// Defaults.
const (
	DefaultModsDir  = "plugins"
	DefaultTimeout  = 5 * time.Minute
	DefaultCacheTTL = 10 * time.Minute
)

// ErrInvalidConfig marks validation failures.
var ErrInvalidConfig = errors.New("invalid config")

// FieldError reports an invalid setting.
type FieldError struct {
	Path  string
	Field string
	Msg   string
}

func (e *FieldError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("field %s: %s", e.Field, e.Msg)
	}

	return fmt.Sprintf("%s: field %s: %s", e.Path, e.Field, e.Msg)
}

// Is makes errors.Is(err, ErrInvalidConfig) hold for field errors.
func (e *FieldError) Is(target error) bool {
	return target == ErrInvalidConfig
}

// Endpoint configures an HTTP registry.
type Endpoint struct {
	Enabled bool
	BaseURL string
}

// HangarRegistry configures the Hangar backend.
type HangarRegistry struct {
	Endpoint

	// Platform selects downloads and game versions (PAPER, VELOCITY, WATERFALL).
	Platform string
}

// CurseForgeRegistry configures the CurseForge backend.
type CurseForgeRegistry struct {
	Endpoint

	APIKey string
	// disabled is set when the file turns the backend off explicitly.
	disabled bool
}

// Registries configures the registry backends.
type Registries struct {
	// Order lists registry tags in lookup order.
	Order      []string
	Hangar     HangarRegistry
	Modrinth   Endpoint
	CurseForge CurseForgeRegistry
	// StaticIndex is the path of a YAML index; empty disables the backend.
	StaticIndex string
}

// Config is the validated configuration.
type Config struct {
	// Path is the file the configuration was read from, empty for defaults.
	Path           string
	ModsDir        string
	GameVersion    string
	ServerType     string
	Channel        registry.Channel
	Loaders        []string
	UpdateDelay    time.Duration
	AllowDowngrade bool
	Concurrency    int
	Timeout        time.Duration
	CacheTTL       time.Duration
	Registries     Registries
	Pins           map[string]string
	// Sources assigns a registry tag to scanned mods by identifier.
	Sources map[string]string
	// Manual lists mods that cannot be discovered from jars.
	Manual []mods.Entry
	URLs   map[string]registry.URLTarget
}

// Default returns the configuration used without a file.
func Default() *Config {
	cfg, err := Map("", yamlConfig{})
	if err != nil {
		panic(err)
	}

	return cfg
}

// Load reads path and applies environment overrides from the process environment.
func Load(path string) (*Config, error) {
	return LoadWithEnv(path, os.LookupEnv)
}

// LoadWithEnv reads path and applies overrides from lookupEnv.
func LoadWithEnv(path string, lookupEnv func(string) (string, bool)) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config %s", path)
	}

	var dto yamlConfig

	if err := yaml.Unmarshal(data, &dto); err != nil {
		return nil, errors.Wrapf(err, "failed to parse config %s", path)
	}

	cfg, err := Map(path, dto)
	if err != nil {
		return nil, err
	}

	cfg.ApplyEnv(lookupEnv)

	return cfg, nil
}

// ApplyEnv overrides settings from environment variables.
func (c *Config) ApplyEnv(lookupEnv func(string) (string, bool)) {
	if key, ok := lookupEnv(EnvCurseForgeAPIKey); ok && key != "" {
		c.Registries.CurseForge.APIKey = key
		c.Registries.CurseForge.Enabled = !c.Registries.CurseForge.disabled
	}

	if gv, ok := lookupEnv(EnvGameVersion); ok && gv != "" {
		c.GameVersion = gv
	}
}

// ResolverOptions builds resolver options for a concrete game version.
func (c *Config) ResolverOptions(gameVersion string) resolver.Options {
	return resolver.Options{
		GameVersion:    gameVersion,
		Channel:        c.Channel,
		Loaders:        c.Loaders,
		UpdateDelay:    c.UpdateDelay,
		Pins:           c.Pins,
		AllowDowngrade: c.AllowDowngrade,
		Concurrency:    c.Concurrency,
	}
}
