/*
Copyright 2026, Aleksei Sviridkin.

SPDX-License-Identifier: BSD-3-Clause
*/

package registry

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChannel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw     string
		want    Channel
		wantErr bool
	}{
		{raw: "", want: ChannelRelease},
		{raw: "release", want: ChannelRelease},
		{raw: " Beta ", want: ChannelBeta},
		{raw: "ALPHA", want: ChannelAlpha},
		{raw: "nightly", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			t.Parallel()

			got, err := ParseChannel(tt.raw)
			if tt.wantErr {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestChannel_Allows(t *testing.T) {
	t.Parallel()

	assert.True(t, ChannelRelease.Allows(ChannelRelease))
	assert.False(t, ChannelRelease.Allows(ChannelBeta))
	assert.True(t, ChannelBeta.Allows(ChannelRelease))
	assert.True(t, ChannelBeta.Allows(ChannelBeta))
	assert.False(t, ChannelBeta.Allows(ChannelAlpha))
	assert.True(t, ChannelAlpha.Allows(ChannelAlpha))
}

func TestInferChannel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ChannelRelease, InferChannel("2.20.1"))
	assert.Equal(t, ChannelBeta, InferChannel("1.0.0-beta.2"))
	assert.Equal(t, ChannelBeta, InferChannel("3.0.0-RC1"))
	assert.Equal(t, ChannelAlpha, InferChannel("5.4-SNAPSHOT"))
	assert.Equal(t, ChannelAlpha, InferChannel("1.2.0-dev+42"))
}

func TestRecord_Release(t *testing.T) {
	t.Parallel()

	record := &Record{Releases: []Release{{Version: "2.0.0"}, {Version: "1.0.0"}}}

	rel, ok := record.Release("1.0.0")
	assert.True(t, ok)
	assert.Equal(t, "1.0.0", rel.Version)

	_, ok = record.Release("3.0.0")
	assert.False(t, ok)
}

func TestIsNotFound(t *testing.T) {
	t.Parallel()

	err := errors.Wrap(&NotFoundError{ID: "vault", Source: "hangar"}, "lookup")

	assert.True(t, IsNotFound(err))
	assert.False(t, IsNotFound(errors.New("boom")))
	assert.Equal(t, `mod "vault" not found in hangar`, (&NotFoundError{ID: "vault", Source: "hangar"}).Error())
	assert.Equal(t, `mod "vault" not found in any registry`, (&NotFoundError{ID: "vault"}).Error())
}

func TestUniqueStrings(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"sodium", "AANobbMI", "Sodium"},
		uniqueStrings("sodium", "", "AANobbMI", "sodium", "Sodium"))
	assert.Empty(t, uniqueStrings("", ""))
}
