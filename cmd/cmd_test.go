/*
Copyright 2026, Aleksei Sviridkin.

SPDX-License-Identifier: BSD-3-Clause
*/

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/lexfrei/modsyncer/internal/config"
	"github.com/lexfrei/modsyncer/pkg/cron"
	"github.com/lexfrei/modsyncer/pkg/registry"
	"github.com/lexfrei/modsyncer/pkg/resolver"
	"github.com/lexfrei/modsyncer/pkg/testutil"
)

const upgradeIndex = `mods:
  - id: Alpha
    releases:
      - version: 1.0.0
        gameVersions: ["1.21.4"]
      - version: 2.0.0
        gameVersions: ["1.21.4"]
  - id: Beta
    releases:
      - version: 1.0.0
        gameVersions: ["1.21.4"]
      - version: 1.1.0
        gameVersions: ["1.21.4"]
        depends:
          Alpha: ">=2.0.0"
`

const conflictIndex = `mods:
  - id: Alpha
    releases:
      - version: 1.0.0
  - id: Beta
    releases:
      - version: 1.0.0
        breaks:
          Alpha: "<2.0.0"
`

func noEnv(string) (string, bool) { return "", false }

// writeServer lays out a server directory with a mods folder, a config file
// and optionally a static index, and returns the config path.
func writeServer(t *testing.T, cfgYAML, index string) string {
	t.Helper()

	dir := t.TempDir()
	modsDir := filepath.Join(dir, "mods")
	require.NoError(t, os.Mkdir(modsDir, 0o700))

	jars := map[string][]byte{
		"alpha.jar": testutil.BuildPluginJAR("Alpha", "1.0.0"),
		"beta.jar":  testutil.BuildPluginJAR("Beta", "1.0.0", "Alpha"),
	}

	for name, data := range jars {
		require.NoError(t, os.WriteFile(filepath.Join(modsDir, name), data, 0o600))
	}

	if index != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "index.yaml"), []byte(index), 0o600))
	}

	path := filepath.Join(dir, "modsyncer.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfgYAML), 0o600))

	return path
}

const staticConfig = `modsDir: mods
gameVersion: "1.21.4"
registries:
  order: [static]
  static:
    path: index.yaml
manual:
  - id: worldedit
    version: "7.3.0"
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	return executeWithEnv(t, noEnv, args...)
}

func executeWithEnv(t *testing.T, lookupEnv func(string) (string, bool), args ...string) (string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer

	root := newRootCmd(&stdout, &stderr, lookupEnv)
	root.SetArgs(append([]string{"--log-level", "error"}, args...))

	err := root.ExecuteContext(context.Background())

	return stdout.String(), err
}

func TestResolve_Text(t *testing.T) {
	t.Parallel()

	path := writeServer(t, staticConfig, upgradeIndex)

	out, err := execute(t, "resolve", "--config", path)

	require.NoError(t, err)
	assert.Contains(t, out, "game version: 1.21.4")
	assert.Contains(t, out, "2 updated")
	assert.Contains(t, out, "0 conflicts")
	assert.Contains(t, out, "Alpha")
	assert.Contains(t, out, "1.0.0 -> 2.0.0")
	assert.Contains(t, out, "1.0.0 -> 1.1.0")
	assert.Contains(t, out, "worldedit")
	assert.Contains(t, out, "[not found]", "manual entry is unknown to the static index")
}

func TestResolve_ConflictsExitCode(t *testing.T) {
	t.Parallel()

	path := writeServer(t, staticConfig, conflictIndex)

	out, err := execute(t, "resolve", "--config", path, "--output", "json")

	require.ErrorIs(t, err, errConflicts)
	assert.Equal(t, exitConflicts, exitCode(err))

	var report map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.EqualValues(t, 1, report["conflicts"])
	assert.EqualValues(t, 0, report["updated"])

	list, ok := report["conflictList"].([]any)
	require.True(t, ok)
	require.Len(t, list, 1)
	assert.Equal(t, string(resolver.ConflictIncompatible), list[0].(map[string]any)["kind"])
}

func TestResolve_ModrinthAndMetrics(t *testing.T) {
	t.Parallel()

	server := testutil.NewMockHTTPServer()
	t.Cleanup(server.Close)

	server.AddJSON("/v2/project/sodium", map[string]any{"id": "AANobbMI", "slug": "sodium", "title": "Sodium"})
	server.AddJSON("/v2/project/sodium/version", []map[string]any{{
		"version_number": "0.6.0",
		"version_type":   "release",
		"game_versions":  []string{"1.21.4"},
		"loaders":        []string{"fabric"},
		"date_published": time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
		"files": []map[string]any{{
			"url":     "https://cdn.modrinth.com/sodium-0.6.0.jar",
			"primary": true,
			"hashes":  map[string]string{"sha512": "cafe"},
		}},
	}})

	dir := t.TempDir()
	modsDir := filepath.Join(dir, "mods")
	require.NoError(t, os.Mkdir(modsDir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(modsDir, "sodium.jar"),
		testutil.BuildFabricJAR("sodium", "0.5.0", map[string]string{"minecraft": "1.21.x"}, nil), 0o600))

	cfgPath := filepath.Join(dir, "modsyncer.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`modsDir: mods
gameVersion: "1.21.4"
loaders: [fabric]
registries:
  order: [modrinth]
  modrinth:
    baseURL: `+server.URL()+"\n"), 0o600))

	metricsPath := filepath.Join(dir, "modsyncer.prom")

	out, err := execute(t, "resolve", "--config", cfgPath, "--output", "yaml", "--metrics-file", metricsPath)

	require.NoError(t, err)

	var report resolver.Report
	require.NoError(t, yaml.Unmarshal([]byte(out), &report))
	require.Len(t, report.Updates, 1)
	assert.Equal(t, resolver.Update{
		ID:          "sodium",
		Source:      "modrinth",
		From:        "0.5.0",
		To:          "0.6.0",
		DownloadURL: "https://cdn.modrinth.com/sodium-0.6.0.jar",
		Hash:        "cafe",
	}, report.Updates[0])

	data, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `modsyncer_registry_requests_total{source="modrinth"} 1`)
	assert.Contains(t, string(data), "modsyncer_plan_updates 1")
}

func TestResolve_CurseForgeFromEnv(t *testing.T) {
	t.Parallel()

	server := testutil.NewMockHTTPServer()
	t.Cleanup(server.Close)

	server.AddJSON("/v1/mods/search?gameId=432&slug=jei", map[string]any{
		"data": []map[string]any{{"id": 238222, "name": "Just Enough Items", "slug": "jei"}},
	})
	server.AddJSON("/v1/mods/238222/files?index=0&pageSize=50", map[string]any{
		"data": []map[string]any{{
			"displayName":  "jei-1.21.4-fabric-19.21.0.247.jar",
			"fileName":     "jei-1.21.4-fabric-19.21.0.247.jar",
			"releaseType":  1,
			"fileDate":     time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
			"downloadUrl":  "https://edge.forgecdn.net/files/jei.jar",
			"gameVersions": []string{"1.21.4", "Fabric"},
			"hashes":       []map[string]any{{"value": "beef", "algo": 1}},
		}},
		"pagination": map[string]int{"index": 0, "pageSize": 50, "resultCount": 1, "totalCount": 1},
	})

	dir := t.TempDir()
	modsDir := filepath.Join(dir, "mods")
	require.NoError(t, os.Mkdir(modsDir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(modsDir, "jei.jar"),
		testutil.BuildFabricJAR("jei", "19.20.0.240", nil, nil), 0o600))

	cfgPath := filepath.Join(dir, "modsyncer.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`modsDir: mods
gameVersion: "1.21.4"
sources:
  jei: curseforge
registries:
  order: [curseforge]
  curseforge:
    baseURL: `+server.URL()+"\n"), 0o600))

	env := func(key string) (string, bool) {
		if key == config.EnvCurseForgeAPIKey {
			return "secret", true
		}

		return "", false
	}

	out, err := executeWithEnv(t, env, "resolve", "--config", cfgPath, "-o", "json")

	require.NoError(t, err)

	var report resolver.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Len(t, report.Updates, 1)
	assert.Equal(t, "19.21.0.247", report.Updates[0].To)
	assert.Equal(t, "curseforge", report.Updates[0].Source)
	assert.Equal(t, "beef", report.Updates[0].Hash)

	assert.Equal(t, []string{
		"/v1/mods/search?gameId=432&slug=jei",
		"/v1/mods/238222/files?index=0&pageSize=50",
	}, server.GetRequests())
	assert.Equal(t, "secret", server.HeaderFor("/v1/mods/search?gameId=432&slug=jei").Get(registry.CurseForgeAPIKeyHeader))
}

func TestScan_YAML(t *testing.T) {
	t.Parallel()

	path := writeServer(t, staticConfig, upgradeIndex)

	out, err := execute(t, "scan", "--config", path, "-o", "yaml")

	require.NoError(t, err)

	var report scanReport
	require.NoError(t, yaml.Unmarshal([]byte(out), &report))
	require.Len(t, report.Entries, 3)
	assert.Equal(t, "Alpha", report.Entries[0].ID)
	assert.Equal(t, "Beta", report.Entries[1].ID)
	assert.Equal(t, []string{"Alpha@*"}, report.Entries[1].Dependencies)
	assert.NotEmpty(t, report.Entries[1].SHA256)
	assert.Equal(t, "worldedit", report.Entries[2].ID)
	assert.Empty(t, report.Entries[2].File)
}

func TestVersion_JSON(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "version", "-o", "json")

	require.NoError(t, err)

	var info versionInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, version, info.Version)
	assert.NotEmpty(t, info.GoVersion)
}

func TestRoot_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "bad output", args: []string{"version", "-o", "xml"}, want: "unknown output format"},
		{name: "missing config", args: []string{"resolve", "--config", "/nonexistent/modsyncer.yaml"}, want: "failed to load config"},
		{name: "bad schedule", args: []string{"watch", "--schedule", "sometimes"}, want: "schedule"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := execute(t, tt.args...)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.Equal(t, exitError, exitCode(err))
		})
	}
}

func TestWatcher_ReportsOnlyChanges(t *testing.T) {
	t.Parallel()

	path := writeServer(t, staticConfig, upgradeIndex)

	cfg, err := config.LoadWithEnv(path, noEnv)
	require.NoError(t, err)

	p, err := newPipeline(cfg, "")
	require.NoError(t, err)

	var rendered []resolver.Report

	w := &watcher{pipeline: p, render: func(report resolver.Report) error {
		rendered = append(rendered, report)

		return nil
	}}

	ctx := context.Background()

	assert.True(t, w.tick(ctx))
	assert.False(t, w.tick(ctx))
	require.Len(t, rendered, 1)
	assert.Equal(t, 2, rendered[0].Updated)
}

func TestWatch_RunsUntilCancelled(t *testing.T) {
	t.Parallel()

	path := writeServer(t, staticConfig, upgradeIndex)

	cfg, err := config.LoadWithEnv(path, noEnv)
	require.NoError(t, err)

	p, err := newPipeline(cfg, "")
	require.NoError(t, err)

	ticks := 0
	w := &watcher{pipeline: p, render: func(resolver.Report) error { return nil }}

	scheduler := testutil.NewMockCronScheduler()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)

	go func() {
		done <- cron.Run(ctx, scheduler, defaultSchedule, true, func(ctx context.Context) {
			ticks++
			w.tick(ctx)
		})
	}()

	require.Eventually(t, scheduler.IsStarted, time.Second, 10*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	assert.True(t, scheduler.IsStopped())
	assert.Equal(t, 1, ticks, "job runs once immediately")
}

func TestPipeline_NoRegistries(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Registries.Order = []string{"static"}

	_, err := newPipeline(cfg, "")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no registries enabled")
}
