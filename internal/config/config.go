// Package config loads the analyzer's runtime configuration: where to write
// persisted artifacts, which archive search roots to probe, and which
// detectors are enabled.
package config

import (
	"os"
	"path/filepath"
)

// Config holds the settings that govern one or more analysis runs.
type Config struct {
	Version int

	// DownloadRoot is the directory under which <DownloadRoot>/LastAnalysis
	// is written on every analysis. Defaults to a per-user application-data
	// directory.
	DownloadRoot string

	// SearchRoots lists additional directories to probe, in order, for an
	// archive when the caller supplies a relative path that does not exist
	// as given.
	SearchRoots []string

	Detectors Detectors
}

// Detectors toggles individual evidence-fusion rules on or off. All default
// to enabled. A disabled detector reports "no" ("Unknown" for engine version
// and render pipeline, an empty list for major scripts); the container scan
// and metadata extraction run regardless of these toggles.
type Detectors struct {
	EngineVersion    bool
	RenderPipeline   bool
	EntityRuntime    bool
	EntityPhysics    bool
	ThirdPartyPhysics bool
	LegacyUI         bool
	UIToolkit        bool
	ContentPipeline  bool
	MajorScripts     bool
}

// DefaultDetectors returns every detector enabled, the configuration used
// when a caller builds a Config without loading one from disk.
func DefaultDetectors() Detectors {
	return defaultDetectors()
}

func defaultDetectors() Detectors {
	return Detectors{
		EngineVersion:     true,
		RenderPipeline:    true,
		EntityRuntime:     true,
		EntityPhysics:     true,
		ThirdPartyPhysics: true,
		LegacyUI:          true,
		UIToolkit:         true,
		ContentPipeline:   true,
		MajorScripts:      true,
	}
}

// DefaultDownloadRoot returns the per-user application-data directory used
// when no DownloadRoot is configured.
func DefaultDownloadRoot() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return filepath.Join(".", ".buildinspect")
	}
	return filepath.Join(dir, "buildinspect")
}

func defaultConfig() *Config {
	return &Config{
		Version:      1,
		DownloadRoot: DefaultDownloadRoot(),
		SearchRoots:  []string{},
		Detectors:    defaultDetectors(),
	}
}

// Load reads configuration from path (a .buildinspect.kdl file). A missing
// file is not an error; Load falls back to defaults. path may be empty, in
// which case ".buildinspect.kdl" in the current directory is tried.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ".buildinspect.kdl"
	}

	cfg, err := LoadKDL(path)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return defaultConfig(), nil
	}
	return cfg, nil
}
