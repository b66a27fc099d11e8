/*
Copyright 2026, Aleksei Sviridkin.

SPDX-License-Identifier: BSD-3-Clause
*/

package main

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/lexfrei/modsyncer/internal/config"
	"github.com/lexfrei/modsyncer/pkg/download"
	"github.com/lexfrei/modsyncer/pkg/gameversion"
	"github.com/lexfrei/modsyncer/pkg/metrics"
	"github.com/lexfrei/modsyncer/pkg/mods"
	"github.com/lexfrei/modsyncer/pkg/registry"
	"github.com/lexfrei/modsyncer/pkg/resolver"
)

// pipeline wires scan, registries and resolver for one configuration.
// The registry cache lives as long as the pipeline, so repeated watch runs
// reuse lookups until the cache TTL expires.
type pipeline struct {
	cfg         *config.Config
	fetcher     download.Fetcher
	cache       *registry.Cache
	gameSource  gameversion.Source
	recorder    metrics.Recorder
	gatherer    prometheus.Gatherer
	metricsFile string
}

func newPipeline(cfg *config.Config, metricsFile string) (*pipeline, error) {
	p := &pipeline{
		cfg:         cfg,
		fetcher:     download.NewClient(),
		recorder:    &metrics.NoopRecorder{},
		metricsFile: metricsFile,
	}

	if metricsFile != "" {
		reg := prometheus.NewRegistry()
		p.recorder = metrics.NewPrometheusRecorder(reg)
		p.gatherer = reg
	}

	router, err := p.buildRouter()
	if err != nil {
		return nil, err
	}

	p.cache = registry.NewCache(router, cfg.CacheTTL)

	p.gameSource, err = gameversion.NewSource(cfg.ServerType, p.fetcher)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create game version source")
	}

	return p, nil
}

func (p *pipeline) buildRouter() (*registry.Router, error) {
	router := registry.NewRouter(p.recorder)
	regs := p.cfg.Registries

	for _, tag := range regs.Order {
		switch tag {
		case registry.SourceHangar:
			if regs.Hangar.Enabled {
				router.Register(tag, registry.NewHangarClient(registry.HangarConfig{
					BaseURL:  regs.Hangar.BaseURL,
					Platform: regs.Hangar.Platform,
				}))
			}
		case registry.SourceModrinth:
			if regs.Modrinth.Enabled {
				router.Register(tag, registry.NewModrinthClient(p.fetcher, regs.Modrinth.BaseURL))
			}
		case registry.SourceCurseForge:
			if !regs.CurseForge.Enabled {
				continue
			}

			if regs.CurseForge.APIKey == "" {
				slog.Warn("CurseForge enabled without an API key, skipping",
					"env", config.EnvCurseForgeAPIKey)

				continue
			}

			fetcher := download.NewClient(download.WithHeader(registry.CurseForgeAPIKeyHeader, regs.CurseForge.APIKey))
			router.Register(tag, registry.NewCurseForgeClient(fetcher, regs.CurseForge.BaseURL))
		case registry.SourceStatic:
			if regs.StaticIndex == "" {
				continue
			}

			index, err := registry.LoadStaticIndex(p.resolvePath(regs.StaticIndex))
			if err != nil {
				return nil, err
			}

			router.Register(tag, index)
		case registry.SourceURL:
			if len(p.cfg.URLs) == 0 {
				continue
			}

			urls, err := registry.NewURLSource(p.fetcher, p.cfg.URLs)
			if err != nil {
				return nil, err
			}

			router.Register(tag, urls)
		}
	}

	if len(router.Sources()) == 0 {
		return nil, errors.New("no registries enabled")
	}

	slog.Debug("Registries configured", "order", router.Sources())

	return router, nil
}

// resolvePath makes path relative to the config file directory.
func (p *pipeline) resolvePath(path string) string {
	if filepath.IsAbs(path) || p.cfg.Path == "" {
		return path
	}

	return filepath.Join(filepath.Dir(p.cfg.Path), path)
}

// scan returns the installed set: jars from the mods folder plus manual entries.
func (p *pipeline) scan(ctx context.Context) ([]mods.Entry, []mods.ScanIssue, error) {
	sources := make(map[string]string, len(p.cfg.Sources)+len(p.cfg.URLs))
	for id := range p.cfg.URLs {
		sources[id] = registry.SourceURL
	}

	for id, src := range p.cfg.Sources {
		sources[id] = src
	}

	scanner := &mods.Scanner{Sources: sources}

	result, err := scanner.Scan(ctx, p.resolvePath(p.cfg.ModsDir))
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to scan mods")
	}

	entries := result.Entries
	seen := make(map[string]bool, len(entries))

	for _, e := range entries {
		seen[mods.NormalizeID(e.ID)] = true
	}

	for _, m := range p.cfg.Manual {
		if seen[mods.NormalizeID(m.ID)] {
			slog.WarnContext(ctx, "Manual entry shadows a scanned jar, keeping the jar", "id", m.ID)

			continue
		}

		seen[mods.NormalizeID(m.ID)] = true
		entries = append(entries, m)
	}

	mods.SortEntries(entries)

	return entries, result.Issues, nil
}

// run performs one full resolution bounded by the configured timeout.
func (p *pipeline) run(ctx context.Context) (*resolver.Plan, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	entries, _, err := p.scan(ctx)
	if err != nil {
		return nil, err
	}

	gameVersion, err := gameversion.Resolve(ctx, p.cfg.GameVersion, p.gameSource)
	if err != nil {
		return nil, err
	}

	opts := p.cfg.ResolverOptions(gameVersion)
	opts.Metrics = p.recorder

	res, err := resolver.New(opts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create resolver")
	}

	plan, err := res.Resolve(ctx, entries, p.cache)
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve")
	}

	if err := p.writeMetrics(); err != nil {
		slog.WarnContext(ctx, "Failed to write metrics", "file", p.metricsFile, "error", err)
	}

	return plan, nil
}

func (p *pipeline) writeMetrics() error {
	if p.gatherer == nil {
		return nil
	}

	return metrics.WriteTextfile(p.metricsFile, p.gatherer)
}
