/*
Copyright 2026, Aleksei Sviridkin.

SPDX-License-Identifier: BSD-3-Clause
*/

package config

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/lexfrei/modsyncer/pkg/cron"
	"github.com/lexfrei/modsyncer/pkg/gameversion"
	"github.com/lexfrei/modsyncer/pkg/mods"
	"github.com/lexfrei/modsyncer/pkg/registry"
	"github.com/lexfrei/modsyncer/pkg/version"
)

// knownRegistries is the default lookup order.
var knownRegistries = []string{
	registry.SourceHangar,
	registry.SourceModrinth,
	registry.SourceCurseForge,
	registry.SourceStatic,
	registry.SourceURL,
}

// Map validates the file shape and fills in defaults.
func Map(path string, yc yamlConfig) (*Config, error) {
	cfg := &Config{
		Path:           path,
		ModsDir:        strings.TrimSpace(yc.ModsDir),
		GameVersion:    strings.TrimSpace(yc.GameVersion),
		ServerType:     strings.ToLower(strings.TrimSpace(yc.ServerType)),
		Loaders:        yc.Loaders,
		AllowDowngrade: yc.AllowDowngrade,
		Concurrency:    yc.Concurrency,
		Pins:           yc.Pins,
		Sources:        yc.Sources,
	}

	if cfg.Pins == nil {
		cfg.Pins = map[string]string{}
	}

	if cfg.Sources == nil {
		cfg.Sources = map[string]string{}
	}

	if cfg.ModsDir == "" {
		cfg.ModsDir = DefaultModsDir
	}

	if cfg.GameVersion == "" {
		cfg.GameVersion = version.Latest
	}

	switch cfg.ServerType {
	case "":
		cfg.ServerType = gameversion.ServerPaper
	case gameversion.ServerPaper, gameversion.ServerVanilla:
	default:
		return nil, invalidField(path, "serverType", fmt.Sprintf("unknown server type %q", yc.ServerType))
	}

	channel, err := registry.ParseChannel(yc.Channel)
	if err != nil {
		return nil, invalidField(path, "channel", err.Error())
	}

	cfg.Channel = channel

	if cfg.Concurrency < 0 {
		return nil, invalidField(path, "concurrency", "must not be negative")
	}

	if cfg.UpdateDelay, err = parseDuration(yc.UpdateDelay, 0); err != nil {
		return nil, invalidField(path, "updateDelay", err.Error())
	}

	if cfg.Timeout, err = parseDuration(yc.Timeout, DefaultTimeout); err != nil {
		return nil, invalidField(path, "timeout", err.Error())
	}

	if cfg.CacheTTL, err = parseDuration(yc.CacheTTL, DefaultCacheTTL); err != nil {
		return nil, invalidField(path, "cacheTTL", err.Error())
	}

	for id, pinned := range cfg.Pins {
		if strings.TrimSpace(pinned) == "" {
			return nil, invalidField(path, "pins."+id, "version is required")
		}
	}

	if cfg.Registries, err = mapRegistries(path, yc.Registries); err != nil {
		return nil, err
	}

	if cfg.Manual, err = mapManual(path, yc.Manual); err != nil {
		return nil, err
	}

	cfg.URLs = make(map[string]registry.URLTarget, len(yc.URLs))

	for id, u := range yc.URLs {
		if err := registry.ValidateDownloadURL(u.URL); err != nil {
			return nil, invalidField(path, "urls."+id, err.Error())
		}

		cfg.URLs[id] = registry.URLTarget{URL: u.URL, Version: u.Version, Checksum: u.Checksum}
	}

	return cfg, nil
}

// ValidateSchedule checks a watch schedule expression.
func ValidateSchedule(spec string) error {
	if err := cron.ValidateSpec(spec); err != nil {
		return invalidField("", "schedule", err.Error())
	}

	return nil
}

func mapRegistries(path string, yr yamlRegistries) (Registries, error) {
	regs := Registries{
		Hangar: HangarRegistry{
			Endpoint: mapEndpoint(yr.Hangar.yamlEndpoint, true),
			Platform: strings.ToUpper(strings.TrimSpace(yr.Hangar.Platform)),
		},
		Modrinth: mapEndpoint(yr.Modrinth, true),
		CurseForge: CurseForgeRegistry{
			Endpoint: mapEndpoint(yr.CurseForge.yamlEndpoint, yr.CurseForge.APIKey != ""),
			APIKey:   yr.CurseForge.APIKey,
			disabled: yr.CurseForge.Enabled != nil && !*yr.CurseForge.Enabled,
		},
		StaticIndex: strings.TrimSpace(yr.Static.Path),
	}

	if regs.Hangar.Platform == "" {
		regs.Hangar.Platform = "PAPER"
	}

	if len(yr.Order) == 0 {
		regs.Order = append([]string(nil), knownRegistries...)

		return regs, nil
	}

	seen := make(map[string]bool, len(yr.Order))

	for i, tag := range yr.Order {
		tag = strings.ToLower(strings.TrimSpace(tag))

		if !isKnownRegistry(tag) {
			return Registries{}, invalidField(path, fmt.Sprintf("registries.order[%d]", i),
				fmt.Sprintf("unknown registry %q", tag))
		}

		if seen[tag] {
			return Registries{}, invalidField(path, fmt.Sprintf("registries.order[%d]", i),
				fmt.Sprintf("duplicate registry %q", tag))
		}

		seen[tag] = true
		regs.Order = append(regs.Order, tag)
	}

	return regs, nil
}

func mapEndpoint(ye yamlEndpoint, enabledByDefault bool) Endpoint {
	enabled := enabledByDefault
	if ye.Enabled != nil {
		enabled = *ye.Enabled
	}

	return Endpoint{Enabled: enabled, BaseURL: strings.TrimSpace(ye.BaseURL)}
}

func isKnownRegistry(tag string) bool {
	for _, known := range knownRegistries {
		if tag == known {
			return true
		}
	}

	return false
}

func mapManual(path string, entries []yamlManualEntry) ([]mods.Entry, error) {
	out := make([]mods.Entry, 0, len(entries))

	for i, m := range entries {
		field := fmt.Sprintf("manual[%d]", i)

		if strings.TrimSpace(m.ID) == "" {
			return nil, invalidField(path, field+".id", "id is required")
		}

		if strings.TrimSpace(m.Version) == "" {
			return nil, invalidField(path, field+".version", "version is required")
		}

		deps, err := mapDependencies(m.Depends, false)
		if err != nil {
			return nil, invalidField(path, field+".depends", err.Error())
		}

		optional, err := mapDependencies(m.Recommends, true)
		if err != nil {
			return nil, invalidField(path, field+".recommends", err.Error())
		}

		breaks, err := mapDependencies(m.Breaks, false)
		if err != nil {
			return nil, invalidField(path, field+".breaks", err.Error())
		}

		out = append(out, mods.Entry{
			ID:                m.ID,
			Name:              m.Name,
			Version:           m.Version,
			Source:            m.Source,
			Dependencies:      append(deps, optional...),
			Incompatibilities: breaks,
		})
	}

	return out, nil
}

func mapDependencies(raw map[string]string, optional bool) ([]mods.Dependency, error) {
	ids := make([]string, 0, len(raw))
	for id := range raw {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	deps := make([]mods.Dependency, 0, len(ids))

	for _, id := range ids {
		rng, err := version.ParseRange(raw[id])
		if err != nil {
			return nil, errors.Wrapf(err, "range for %s", id)
		}

		deps = append(deps, mods.Dependency{ID: id, Range: rng, Optional: optional})
	}

	return deps, nil
}

func parseDuration(raw string, fallback time.Duration) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err //nolint:wrapcheck // reported through invalidField
	}

	if d < 0 {
		return 0, errors.Newf("must not be negative, got %s", raw)
	}

	return d, nil
}

func invalidField(path, field, msg string) error {
	return &FieldError{Path: path, Field: field, Msg: msg}
}
