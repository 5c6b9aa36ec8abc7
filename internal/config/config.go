// trafficInsight - live traffic chokepoint detection core
// SPDX-License-Identifier: Apache-2.0

// Package config loads trafficInsight's layered configuration: built-in
// defaults, an optional YAML file, then environment variables, highest
// priority last.
package config

import (
	"strings"
	"time"
)

// TomTomConfig holds the upstream provider's credentials. A single key may
// cover all roles, or it may be split into role-specific keys; each is
// trimmed of surrounding whitespace and quotes on load.
type TomTomConfig struct {
	MapsAPIKey    string `koanf:"maps_api_key"`
	TrafficAPIKey string `koanf:"traffic_api_key"`
	SearchAPIKey  string `koanf:"search_api_key"`
	StatsAPIKey   string `koanf:"stats_api_key"`
}

// credentialFor returns the role-specific key if set, falling back to the
// general maps key (the original backend's behavior: `tomtom_maps_api_key`
// is the baseline credential, with the other three roles optional
// overrides).
func (t TomTomConfig) credentialFor(roleKey string) string {
	if roleKey != "" {
		return roleKey
	}
	return t.MapsAPIKey
}

// TrafficKey returns the credential for the vector-flow-tile and
// flow-segment-data endpoints.
func (t TomTomConfig) TrafficKey() string { return t.credentialFor(t.TrafficAPIKey) }

// SearchKey returns the credential for the reverse-geocode endpoint.
func (t TomTomConfig) SearchKey() string { return t.credentialFor(t.SearchAPIKey) }

// StatsKey returns the credential for the incident-details endpoint.
func (t TomTomConfig) StatsKey() string { return t.credentialFor(t.StatsAPIKey) }

// BboxConfig is the deployment-pinned geographic extent. The live
// chokepoint endpoint always uses this, ignoring any inbound bbox; the
// probe endpoint uses its own caller-supplied bbox instead.
type BboxConfig struct {
	MinLon float64 `koanf:"min_lon"`
	MinLat float64 `koanf:"min_lat"`
	MaxLon float64 `koanf:"max_lon"`
	MaxLat float64 `koanf:"max_lat"`
}

// PipelineConfig holds the tuning defaults for every chokepoint pipeline
// stage.
type PipelineConfig struct {
	Zoom                int           `koanf:"zoom"`
	MinZoom             int           `koanf:"min_zoom"`
	MaxTilesLive        int           `koanf:"max_tiles_live"`
	MaxTilesProbe       int           `koanf:"max_tiles_probe"`
	EpsM                float64       `koanf:"eps_m"`
	MinSamples          float64       `koanf:"min_samples"`
	JFMin               float64       `koanf:"jf_min"`
	IncidentRadiusM     float64       `koanf:"incident_radius_m"`
	IncludeGeocode      bool          `koanf:"include_geocode"`
	IncidentSplitKm2    float64       `koanf:"incident_split_km2"`
	TileConcurrency     int           `koanf:"tile_concurrency"`
	IncidentConcurrency int           `koanf:"incident_concurrency"`
	ProbeConcurrency    int           `koanf:"probe_concurrency"`
	TileCacheTTL        time.Duration `koanf:"tile_cache_ttl"`
	ResultCacheTTL      time.Duration `koanf:"result_cache_ttl"`
	GeocodeCacheTTL     time.Duration `koanf:"geocode_cache_ttl"`
	RequestTimeout      time.Duration `koanf:"request_timeout"`
}

// ServerConfig holds the thin HTTP surface's listen settings.
type ServerConfig struct {
	Port int    `koanf:"port"`
	Host string `koanf:"host"`
}

// LoggingConfig mirrors internal/logging.Config for koanf unmarshaling.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Config is the root configuration struct, assembled defaults → file → env.
type Config struct {
	Server   ServerConfig    `koanf:"server"`
	TomTom   TomTomConfig    `koanf:"tomtom"`
	Bbox     BboxConfig      `koanf:"bbox"`
	Pipeline PipelineConfig  `koanf:"pipeline"`
	Logging  LoggingConfig   `koanf:"logging"`
}

// DefaultConfigPaths lists the paths where a config file is searched for,
// in priority order. The first file found is used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/trafficinsight/config.yaml",
	"/etc/trafficinsight/config.yml",
}

// ConfigPathEnvVar overrides the config file search path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns the built-in defaults, matching the live
// chokepoint endpoint's documented defaults and the deployment's pinned
// Bangalore extent.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8080,
			Host: "0.0.0.0",
		},
		Bbox: BboxConfig{
			MinLon: 77.6234,
			MinLat: 12.9037,
			MaxLon: 77.6625,
			MaxLat: 12.9247,
		},
		Pipeline: PipelineConfig{
			Zoom:                13,
			MinZoom:             12,
			MaxTilesLive:        16,
			MaxTilesProbe:       32,
			EpsM:                150,
			MinSamples:          4,
			JFMin:               4.0,
			IncidentRadiusM:     100,
			IncludeGeocode:      false,
			IncidentSplitKm2:    8000,
			TileConcurrency:     8,
			IncidentConcurrency: 8,
			ProbeConcurrency:    8,
			TileCacheTTL:        60 * time.Second,
			ResultCacheTTL:      60 * time.Second,
			GeocodeCacheTTL:     5 * time.Minute,
			RequestTimeout:      8 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// trimCredential strips surrounding whitespace and a single layer of
// matching quotes, the original backend's treatment of API keys pasted
// with stray shell quoting.
func trimCredential(v string) string {
	v = strings.TrimSpace(v)
	if len(v) >= 2 {
		first, last := v[0], v[len(v)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			v = v[1 : len(v)-1]
		}
	}
	return strings.TrimSpace(v)
}
