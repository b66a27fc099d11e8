/*
Copyright 2026, Aleksei Sviridkin.

SPDX-License-Identifier: BSD-3-Clause
*/

package mods_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexfrei/modsyncer/pkg/mods"
	"github.com/lexfrei/modsyncer/pkg/testutil"
)

const fabricJSON = `{
  "schemaVersion": 1,
  "id": "lithium",
  "name": "Lithium",
  "version": "0.12.1",
  "depends": {
    "fabricloader": ">=0.15.0",
    "minecraft": "1.20.x",
    "fabric-api": "*",
    "cloth-config": [">=11.0", "<10"]
  },
  "recommends": {"modmenu": ">=7.0"},
  "breaks": {"optifabric": "*"},
  "conflicts": {"phosphor": "<0.9"}
}`

func TestReadJAR_Fabric(t *testing.T) {
	t.Parallel()

	data := testutil.BuildTestJAR("fabric.mod.json", fabricJSON)

	entry, err := mods.ReadJAR(data)

	require.NoError(t, err)
	assert.Equal(t, "lithium", entry.ID)
	assert.Equal(t, "Lithium", entry.Name)
	assert.Equal(t, "0.12.1", entry.Version)
	assert.Equal(t, testutil.ComputeSHA256(data), entry.SHA256)

	require.Len(t, entry.Dependencies, 3, "platform ids must be skipped")
	assert.Equal(t, "cloth-config", entry.Dependencies[0].ID)
	assert.True(t, entry.Dependencies[0].Range.Contains("11.2.0"))
	assert.True(t, entry.Dependencies[0].Range.Contains("9.0.0"))
	assert.False(t, entry.Dependencies[0].Range.Contains("10.5.0"))
	assert.Equal(t, "fabric-api", entry.Dependencies[1].ID)
	assert.True(t, entry.Dependencies[1].Range.IsAny())
	assert.Equal(t, "modmenu", entry.Dependencies[2].ID)
	assert.True(t, entry.Dependencies[2].Optional)

	require.Len(t, entry.Incompatibilities, 2)
	assert.Equal(t, "optifabric", entry.Incompatibilities[0].ID)
	assert.Equal(t, "phosphor", entry.Incompatibilities[1].ID)
	assert.True(t, entry.Incompatibilities[1].Range.Contains("0.8.0"))
}

func TestReadJAR_PluginYML(t *testing.T) {
	t.Parallel()

	data := testutil.BuildTestJAR("plugin.yml", `name: EssentialsX
version: 2.20.1
api-version: "1.20"
depend: [Vault]
softdepend: [LuckPerms]
`)

	entry, err := mods.ReadJAR(data)

	require.NoError(t, err)
	assert.Equal(t, "EssentialsX", entry.ID)
	assert.Equal(t, "2.20.1", entry.Version)
	require.Len(t, entry.Dependencies, 2)
	assert.Equal(t, "Vault", entry.Dependencies[0].ID)
	assert.False(t, entry.Dependencies[0].Optional)
	assert.Equal(t, "LuckPerms", entry.Dependencies[1].ID)
	assert.True(t, entry.Dependencies[1].Optional)
	assert.Empty(t, entry.Incompatibilities)
}

func TestReadJAR_PrefersPaperPluginYML(t *testing.T) {
	t.Parallel()

	data := testutil.BuildTestJARMulti(map[string]string{
		"plugin.yml": "name: Legacy\nversion: 1.0.0\n",
		"paper-plugin.yml": `name: Modern
version: 2.0.0
dependencies:
  server:
    Vault:
      load: BEFORE
    ProtocolLib:
      required: false
`,
	})

	entry, err := mods.ReadJAR(data)

	require.NoError(t, err)
	assert.Equal(t, "Modern", entry.ID)
	assert.Equal(t, "2.0.0", entry.Version)
	require.Len(t, entry.Dependencies, 2)
	assert.Equal(t, "ProtocolLib", entry.Dependencies[0].ID)
	assert.True(t, entry.Dependencies[0].Optional)
	assert.Equal(t, "Vault", entry.Dependencies[1].ID)
	assert.False(t, entry.Dependencies[1].Optional)
}

func TestReadJAR_NoMetadata(t *testing.T) {
	t.Parallel()

	_, err := mods.ReadJAR(testutil.BuildTestJAR("META-INF/MANIFEST.MF", "Manifest-Version: 1.0\n"))

	require.ErrorIs(t, err, mods.ErrNoMetadata)
}

func TestReadJAR_NotAZip(t *testing.T) {
	t.Parallel()

	_, err := mods.ReadJAR([]byte("definitely not a jar"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "zip")
}

func TestReadJAR_MissingIdentifier(t *testing.T) {
	t.Parallel()

	_, err := mods.ReadJAR(testutil.BuildTestJAR("plugin.yml", "version: 1.0.0\n"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no identifier")
}

func TestReadJAR_InvalidRange(t *testing.T) {
	t.Parallel()

	_, err := mods.ReadJAR(testutil.BuildTestJAR("fabric.mod.json",
		`{"id": "broken", "version": "1.0.0", "depends": {"other": "foo"}}`))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid range for other")
}
