// trafficInsight - live traffic chokepoint detection core
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// envMappings maps legacy-shaped environment variable names onto koanf
// dotted paths; unmapped variables are ignored so stray env vars never
// pollute the config.
var envMappings = map[string]string{
	"tomtom_maps_api_key":    "tomtom.maps_api_key",
	"tomtom_traffic_api_key": "tomtom.traffic_api_key",
	"tomtom_search_api_key":  "tomtom.search_api_key",
	"tomtom_stats_api_key":   "tomtom.stats_api_key",

	"http_port": "server.port",
	"http_host": "server.host",

	"pipeline_zoom":                 "pipeline.zoom",
	"pipeline_min_zoom":             "pipeline.min_zoom",
	"pipeline_max_tiles_live":       "pipeline.max_tiles_live",
	"pipeline_max_tiles_probe":      "pipeline.max_tiles_probe",
	"pipeline_eps_m":                "pipeline.eps_m",
	"pipeline_min_samples":          "pipeline.min_samples",
	"pipeline_jf_min":               "pipeline.jf_min",
	"pipeline_incident_radius_m":    "pipeline.incident_radius_m",
	"pipeline_include_geocode":      "pipeline.include_geocode",
	"pipeline_incident_split_km2":   "pipeline.incident_split_km2",
	"pipeline_tile_concurrency":     "pipeline.tile_concurrency",
	"pipeline_incident_concurrency": "pipeline.incident_concurrency",
	"pipeline_probe_concurrency":    "pipeline.probe_concurrency",
	"pipeline_tile_cache_ttl":       "pipeline.tile_cache_ttl",
	"pipeline_result_cache_ttl":     "pipeline.result_cache_ttl",
	"pipeline_geocode_cache_ttl":    "pipeline.geocode_cache_ttl",
	"pipeline_request_timeout":      "pipeline.request_timeout",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

func envTransformFunc(key string) string {
	key = strings.ToLower(key)
	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	return ""
}

// findConfigFile searches CONFIG_PATH then DefaultConfigPaths, returning
// the first file that exists.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// Load assembles configuration from defaults, an optional YAML file, and
// environment variables (ENV > File > Defaults), then validates it.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load config defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}

	cfg.TomTom.MapsAPIKey = trimCredential(cfg.TomTom.MapsAPIKey)
	cfg.TomTom.TrafficAPIKey = trimCredential(cfg.TomTom.TrafficAPIKey)
	cfg.TomTom.SearchAPIKey = trimCredential(cfg.TomTom.SearchAPIKey)
	cfg.TomTom.StatsAPIKey = trimCredential(cfg.TomTom.StatsAPIKey)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports a configuration error when the core cannot possibly
// authenticate to the upstream provider — the one fatal failure class per
// the pipeline's error-handling design.
func (c *Config) Validate() error {
	if c.TomTom.MapsAPIKey == "" && c.TomTom.TrafficAPIKey == "" {
		return fmt.Errorf("tomtom credential missing: set TOMTOM_MAPS_API_KEY or TOMTOM_TRAFFIC_API_KEY")
	}
	return nil
}
