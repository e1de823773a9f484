package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

// Config holds application configuration.
type Config struct {
	// APIKey authenticates against the upstream completion provider.
	APIKey string `json:"api_key,omitempty"`

	// BaseURL overrides the upstream completion endpoint.
	BaseURL string `json:"base_url,omitempty"`

	// Model is the default model identifier for completion calls.
	Model string `json:"model,omitempty"`

	// UpstreamTimeoutSecs bounds each upstream request. Zero or missing
	// keeps the 120s default.
	UpstreamTimeoutSecs int `json:"upstream_timeout_secs,omitempty"`

	// AutoAnalyzeThreshold is the number of chat messages in a session at
	// which an inspiration analysis is triggered automatically. 0 disables
	// auto-analysis.
	AutoAnalyzeThreshold int `json:"auto_analyze_threshold,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// 0 means use sql.DB default. Only set if you experience contention.
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	DisabledTools []string `json:"disabled_tools,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		UpstreamTimeoutSecs:  120,
		AutoAnalyzeThreshold: 6,
	}
}

// Load loads configuration from baseDir/config.json, applies defaults, and
// then environment overrides. Returns defaults (plus env) if the file does
// not exist. The baseDir parameter allows tests to use t.TempDir() instead
// of ~/.buling.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFileRaw(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}
	merged := Merge(DefaultConfig(), cfg)
	applyEnv(merged)
	return merged, nil
}

// applyEnv overlays environment variables on top of file configuration.
// Env wins: deploys commonly inject the key and endpoint this way.
func applyEnv(cfg *Config) {
	if v := os.Getenv("SILICON_FLOW_API_KEY"); v != "" {
		cfg.APIKey = v
	}
	if v := os.Getenv("SILICON_FLOW_API_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("BULING_MODEL"); v != "" {
		cfg.Model = v
	}
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are concatenated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	result.APIKey = overlay.APIKey
	if result.APIKey == "" {
		result.APIKey = base.APIKey
	}

	result.BaseURL = overlay.BaseURL
	if result.BaseURL == "" {
		result.BaseURL = base.BaseURL
	}

	result.Model = overlay.Model
	if result.Model == "" {
		result.Model = base.Model
	}

	result.UpstreamTimeoutSecs = overlay.UpstreamTimeoutSecs
	if result.UpstreamTimeoutSecs == 0 {
		result.UpstreamTimeoutSecs = base.UpstreamTimeoutSecs
	}

	result.AutoAnalyzeThreshold = overlay.AutoAnalyzeThreshold
	if result.AutoAnalyzeThreshold == 0 {
		result.AutoAnalyzeThreshold = base.AutoAnalyzeThreshold
	}

	result.DBMaxOpenConns = overlay.DBMaxOpenConns
	if result.DBMaxOpenConns == 0 {
		result.DBMaxOpenConns = base.DBMaxOpenConns
	}

	result.DBMaxIdleConns = overlay.DBMaxIdleConns
	if result.DBMaxIdleConns == 0 {
		result.DBMaxIdleConns = base.DBMaxIdleConns
	}

	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)

	return result
}

// mergeStringSlice combines two slices and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range append(append([]string{}, a...), b...) {
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
