/*
Copyright 2026, Aleksei Sviridkin.

SPDX-License-Identifier: BSD-3-Clause
*/

package config

// yamlConfig is the on-disk shape of modsyncer.yaml.
type yamlConfig struct {
	ModsDir        string             `yaml:"modsDir"`
	GameVersion    string             `yaml:"gameVersion"`
	ServerType     string             `yaml:"serverType"`
	Channel        string             `yaml:"channel"`
	Loaders        []string           `yaml:"loaders"`
	UpdateDelay    string             `yaml:"updateDelay"`
	AllowDowngrade bool               `yaml:"allowDowngrade"`
	Concurrency    int                `yaml:"concurrency"`
	Timeout        string             `yaml:"timeout"`
	CacheTTL       string             `yaml:"cacheTTL"`
	Registries     yamlRegistries     `yaml:"registries"`
	Pins           map[string]string  `yaml:"pins"`
	Sources        map[string]string  `yaml:"sources"`
	Manual         []yamlManualEntry  `yaml:"manual"`
	URLs           map[string]yamlURL `yaml:"urls"`
}

type yamlRegistries struct {
	Order      []string       `yaml:"order"`
	Hangar     yamlHangar     `yaml:"hangar"`
	Modrinth   yamlEndpoint   `yaml:"modrinth"`
	CurseForge yamlCurseForge `yaml:"curseforge"`
	Static     yamlStatic     `yaml:"static"`
}

type yamlEndpoint struct {
	Enabled *bool  `yaml:"enabled"`
	BaseURL string `yaml:"baseURL"`
}

type yamlHangar struct {
	yamlEndpoint `yaml:",inline"`
	Platform     string `yaml:"platform"`
}

type yamlCurseForge struct {
	yamlEndpoint `yaml:",inline"`
	APIKey       string `yaml:"apiKey"`
}

type yamlStatic struct {
	Path string `yaml:"path"`
}

type yamlManualEntry struct {
	ID         string            `yaml:"id"`
	Name       string            `yaml:"name"`
	Version    string            `yaml:"version"`
	Source     string            `yaml:"source"`
	Depends    map[string]string `yaml:"depends"`
	Recommends map[string]string `yaml:"recommends"`
	Breaks     map[string]string `yaml:"breaks"`
}

type yamlURL struct {
	URL      string `yaml:"url"`
	Version  string `yaml:"version"`
	Checksum string `yaml:"checksum"`
}
