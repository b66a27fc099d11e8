/*
Copyright 2026, Aleksei Sviridkin.

SPDX-License-Identifier: BSD-3-Clause
*/

package registry

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lexfrei/go-hangar/pkg/hangar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHangarClient(server *httptest.Server) *HangarClient {
	return NewHangarClient(HangarConfig{
		BaseURL:    server.URL,
		HTTPClient: server.Client(),
		Timeout:    5 * time.Second,
	})
}

func makeTestProject(slug string) hangar.Project {
	return hangar.Project{
		ID:   1,
		Name: "Test Plugin",
		Namespace: hangar.Namespace{
			Owner: "TestOwner",
			Slug:  slug,
		},
		Category:    "gameplay",
		Description: "A test plugin",
	}
}

func makeTestVersion(name string, created time.Time, gameVersions, paperVersions []string, downloadURL, hash string) hangar.Version {
	downloads := map[string]hangar.DownloadInfo{}
	if downloadURL != "" || hash != "" {
		fileInfo := &hangar.FileInfo{}
		if hash != "" {
			fileInfo.SHA256Hash = hash
		}

		downloads["PAPER"] = hangar.DownloadInfo{
			DownloadURL: downloadURL,
			FileInfo:    fileInfo,
		}
	}

	platformDeps := map[string][]string{}
	if len(paperVersions) > 0 {
		platformDeps["PAPER"] = paperVersions
	}

	return hangar.Version{
		ID:                   1,
		Name:                 name,
		GameVersions:         gameVersions,
		PlatformDependencies: platformDeps,
		Downloads:            downloads,
		CreatedAt:            created,
	}
}

func makeVersionsList(versions ...hangar.Version) hangar.VersionsList {
	return hangar.VersionsList{
		Pagination: hangar.Pagination{
			Limit:  maxHangarVersions,
			Offset: 0,
			Count:  int64(len(versions)),
		},
		Result: versions,
	}
}

func hangarHandler(project hangar.Project, versions hangar.VersionsList) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/projects/" + project.Namespace.Slug:
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(project)
		case "/projects/" + project.Namespace.Owner + "/" + project.Namespace.Slug + "/versions":
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(versions)
		default:
			http.NotFound(w, r)
		}
	}
}

func TestHangarClient_Lookup_Success(t *testing.T) {
	t.Parallel()

	older := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	server := httptest.NewServer(hangarHandler(makeTestProject("test-plugin"), makeVersionsList(
		makeTestVersion("1.0.0", older, []string{"1.21.1"}, []string{"1.21.1"}, "https://example.com/v1.jar", "abc123"),
		makeTestVersion("1.1.0-beta", newer, []string{"1.21.1", "1.21.2"}, []string{"1.21.1", "1.21.2"},
			"https://example.com/v2.jar", "def456"),
	)))
	defer server.Close()

	record, err := newTestHangarClient(server).Lookup(context.Background(), "test-plugin")

	require.NoError(t, err)
	assert.Equal(t, SourceHangar, record.Source)
	assert.Equal(t, []string{"test-plugin", "Test Plugin", "TestOwner/test-plugin"}, record.Aliases)
	require.Len(t, record.Releases, 2)

	assert.Equal(t, "1.1.0-beta", record.Releases[0].Version, "newest first")
	assert.Equal(t, ChannelBeta, record.Releases[0].Channel)
	assert.Equal(t, []string{"paper"}, record.Releases[0].Loaders)

	assert.Equal(t, "1.0.0", record.Releases[1].Version)
	assert.Equal(t, ChannelRelease, record.Releases[1].Channel)
	assert.Equal(t, []string{"1.21.1"}, record.Releases[1].GameVersions)
	assert.Equal(t, "https://example.com/v1.jar", record.Releases[1].DownloadURL)
	assert.Equal(t, "abc123", record.Releases[1].Hash)
	assert.Equal(t, older, record.Releases[1].ReleaseDate)
}

func TestHangarClient_Lookup_GameVersionsFallback(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(hangarHandler(makeTestProject("fallback"), makeVersionsList(
		makeTestVersion("2.0.0", time.Now(), nil, []string{"1.20.6", "1.21"}, "https://example.com/a.jar", ""),
	)))
	defer server.Close()

	record, err := newTestHangarClient(server).Lookup(context.Background(), "fallback")

	require.NoError(t, err)
	require.Len(t, record.Releases, 1)
	assert.Equal(t, []string{"1.20.6", "1.21"}, record.Releases[0].GameVersions)
}

func TestHangarClient_Lookup_ExternalURLFallback(t *testing.T) {
	t.Parallel()

	external := makeTestVersion("3.0.0", time.Now(), []string{"1.21"}, nil, "", "")
	external.Downloads = map[string]hangar.DownloadInfo{
		"PAPER": {ExternalURL: "https://github.com/owner/repo/releases/tag/v3"},
	}

	direct := makeTestVersion("3.0.1", time.Now(), []string{"1.21"}, nil, "", "")
	direct.Downloads = map[string]hangar.DownloadInfo{
		"PAPER": {ExternalURL: "https://cdn.example.com/plugin-3.0.1.jar"},
	}

	server := httptest.NewServer(hangarHandler(makeTestProject("ext"), makeVersionsList(external, direct)))
	defer server.Close()

	record, err := newTestHangarClient(server).Lookup(context.Background(), "ext")

	require.NoError(t, err)

	rel, ok := record.Release("3.0.0")
	require.True(t, ok)
	assert.Equal(t, server.URL+"/projects/TestOwner/ext/versions/3.0.0/PAPER/download", rel.DownloadURL)

	rel, ok = record.Release("3.0.1")
	require.True(t, ok)
	assert.Equal(t, "https://cdn.example.com/plugin-3.0.1.jar", rel.DownloadURL)
}

func TestHangarClient_Lookup_NoPlatformDownload(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(hangarHandler(makeTestProject("velocity-only"), makeVersionsList(
		makeTestVersion("1.0.0", time.Now(), []string{"1.21"}, nil, "", ""),
	)))
	defer server.Close()

	record, err := newTestHangarClient(server).Lookup(context.Background(), "velocity-only")

	require.NoError(t, err)
	require.Len(t, record.Releases, 1)
	assert.Empty(t, record.Releases[0].DownloadURL)
	assert.Empty(t, record.Releases[0].Hash)
}

func TestHangarClient_Lookup_ProjectNotFound(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(http.NotFound))
	defer server.Close()

	_, err := newTestHangarClient(server).Lookup(context.Background(), "missing")

	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestHangarClient_Lookup_APIError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/projects/broken" {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(makeTestProject("broken"))

			return
		}

		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := newTestHangarClient(server).Lookup(context.Background(), "broken")

	require.Error(t, err)
	assert.False(t, IsNotFound(err))
	assert.Contains(t, err.Error(), "failed to list versions")
}

func TestIsDirectDownloadURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		url  string
		want bool
	}{
		{url: "https://example.com/plugin.jar", want: true},
		{url: "https://example.com/PLUGIN.JAR", want: true},
		{url: "https://example.com/archive.tar.gz", want: true},
		{url: "https://example.com/files/123/download", want: true},
		{url: "https://example.com/download/latest", want: true},
		{url: "https://github.com/owner/repo/releases", want: false},
		{url: "://bad", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, isDirectDownloadURL(tt.url))
		})
	}
}
