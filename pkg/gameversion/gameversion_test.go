/*
Copyright 2026, Aleksei Sviridkin.

SPDX-License-Identifier: BSD-3-Clause
*/

package gameversion_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/util/wait"

	"github.com/lexfrei/modsyncer/pkg/download"
	"github.com/lexfrei/modsyncer/pkg/gameversion"
	"github.com/lexfrei/modsyncer/pkg/testutil"
)

func TestPaperSource_Latest(t *testing.T) {
	t.Parallel()

	api := &testutil.MockPaperAPI{Versions: []string{"1.20.6", "1.21.1", "1.21.2-pre1"}}

	latest, err := (&gameversion.PaperSource{API: api}).Latest(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "1.21.1", latest)
	assert.Equal(t, 1, api.GetVersionsCalls)
}

func TestPaperSource_Latest_Error(t *testing.T) {
	t.Parallel()

	api := &testutil.MockPaperAPI{VersionsErr: errors.New("api down")}

	_, err := (&gameversion.PaperSource{API: api}).Latest(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list Paper versions")
}

func TestVanillaSource_Latest(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"latest": {"release": "1.21.4", "snapshot": "25w02a"}, "versions": []}`))
	}))
	defer server.Close()

	source := &gameversion.VanillaSource{
		Fetcher:     download.NewClient(download.WithHTTPClient(server.Client())),
		ManifestURL: server.URL,
	}

	latest, err := source.Latest(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "1.21.4", latest)
}

func TestVanillaSource_Latest_BadManifest(t *testing.T) {
	t.Parallel()

	for _, body := range []string{"not json", `{"latest": {}}`} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(body))
		}))

		source := &gameversion.VanillaSource{
			Fetcher: download.NewClient(
				download.WithHTTPClient(server.Client()),
				download.WithBackoff(wait.Backoff{Duration: time.Millisecond, Steps: 1}),
			),
			ManifestURL: server.URL,
		}

		_, err := source.Latest(context.Background())
		require.Error(t, err)

		server.Close()
	}
}

func TestResolve(t *testing.T) {
	t.Parallel()

	api := &testutil.MockPaperAPI{Versions: []string{"1.21.1"}}
	source := &gameversion.PaperSource{API: api}

	got, err := gameversion.Resolve(context.Background(), "1.20.4", source)
	require.NoError(t, err)
	assert.Equal(t, "1.20.4", got)
	assert.Equal(t, 0, api.GetVersionsCalls)

	got, err = gameversion.Resolve(context.Background(), "latest", source)
	require.NoError(t, err)
	assert.Equal(t, "1.21.1", got)
}

func TestNewSource(t *testing.T) {
	t.Parallel()

	src, err := gameversion.NewSource("vanilla", download.NewClient())
	require.NoError(t, err)
	assert.IsType(t, &gameversion.VanillaSource{}, src)

	src, err = gameversion.NewSource("Paper", nil)
	require.NoError(t, err)
	assert.IsType(t, &gameversion.PaperSource{}, src)

	_, err = gameversion.NewSource("forge", nil)
	require.Error(t, err)
}
