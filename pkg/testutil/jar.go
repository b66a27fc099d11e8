/*
Copyright 2026, Aleksei Sviridkin.

SPDX-License-Identifier: BSD-3-Clause
*/

package testutil

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// BuildTestJAR creates an in-memory JAR (ZIP) file with a single entry.
// Panics on error since this is a test utility.
func BuildTestJAR(filename, content string) []byte {
	return BuildTestJARMulti(map[string]string{filename: content})
}

// BuildTestJARMulti creates an in-memory JAR (ZIP) file with multiple entries.
// Entries are written in name order so equal input gives equal bytes.
// Panics on error since this is a test utility.
func BuildTestJARMulti(files map[string]string) []byte {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}

	sort.Strings(names)

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	for _, name := range names {
		f, err := w.Create(name)
		if err != nil {
			panic("BuildTestJARMulti: " + err.Error())
		}

		if _, err := f.Write([]byte(files[name])); err != nil {
			panic("BuildTestJARMulti: " + err.Error())
		}
	}

	if err := w.Close(); err != nil {
		panic("BuildTestJARMulti: " + err.Error())
	}

	return buf.Bytes()
}

// BuildPluginJAR creates a Bukkit-style plugin jar whose plugin.yml declares
// name, version and hard dependencies.
func BuildPluginJAR(name, version string, depend ...string) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "name: %s\nversion: %q\nmain: test.%s\n", name, version, name)

	if len(depend) > 0 {
		fmt.Fprintf(&b, "depend: [%s]\n", strings.Join(depend, ", "))
	}

	return BuildTestJAR("plugin.yml", b.String())
}

// BuildFabricJAR creates a Fabric mod jar with the given depends and breaks maps.
func BuildFabricJAR(id, version string, depends, breaks map[string]string) []byte {
	meta := map[string]any{
		"schemaVersion": 1,
		"id":            id,
		"version":       version,
	}

	if len(depends) > 0 {
		meta["depends"] = depends
	}

	if len(breaks) > 0 {
		meta["breaks"] = breaks
	}

	data, err := json.Marshal(meta)
	if err != nil {
		panic("BuildFabricJAR: " + err.Error())
	}

	return BuildTestJAR("fabric.mod.json", string(data))
}
