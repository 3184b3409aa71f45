package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	// StoreTimeoutMS bounds every store call. On timeout, query operations
	// degrade to empty results.
	StoreTimeoutMS int `json:"store_timeout_ms"`

	// BreakerMaxFailures is the number of consecutive store failures that
	// opens the circuit breaker.
	BreakerMaxFailures int `json:"breaker_max_failures"`

	// BreakerOpenSeconds is how long the breaker stays open before letting a
	// trial request through.
	BreakerOpenSeconds int `json:"breaker_open_seconds"`

	// AllowedPaths is an allowlist of directories for fixture imports.
	// Paths outside ~/.suhba/imports require either being in this list or AllowUnsafePaths=true.
	// Paths should be absolute (relative paths are ignored).
	AllowedPaths []string `json:"allowed_paths,omitempty"`

	// AllowUnsafePaths disables directory restrictions for imports.
	// Symlink and extension checks still apply.
	AllowUnsafePaths bool `json:"allow_unsafe_paths,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// 0 means use sql.DB default (unlimited).
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	DisabledTools []string `json:"disabled_tools,omitempty"`

	// DisabledTypes is a list of tool type prefixes to disable entirely.
	// Known types: "companion", "feed", "connection", "fixture".
	DisabledTypes []string `json:"disabled_types,omitempty"`

	// LogLevel is the minimum log level (debug, info, warn, error).
	LogLevel string `json:"log_level,omitempty"`

	// LogFormat is json or console.
	LogFormat string `json:"log_format,omitempty"`

	Matching MatchingConfig `json:"matching"`
	Feed     FeedConfig     `json:"feed"`
}

// MatchingConfig tunes companion matching.
type MatchingConfig struct {
	ActiveWindowDays  int `json:"active_window_days"`
	CandidatePoolSize int `json:"candidate_pool_size"`
	DefaultLimit      int `json:"default_limit"`
	DefaultMinScore   int `json:"default_min_score"`
	ContentSampleSize int `json:"content_sample_size"`
	MentorBonus       int `json:"mentor_bonus"`
}

// FeedConfig tunes feed ranking.
type FeedConfig struct {
	DefaultLimit          int `json:"default_limit"`
	DecayWindowHours      int `json:"decay_window_hours"`
	MaxCandidates         int `json:"max_candidates"`
	SecondDegreeFanout    int `json:"second_degree_fanout"`
	SecondDegreeEdgesPer  int `json:"second_degree_edges_per_companion"`
	TrendingWindowHours   int `json:"trending_window_hours"`
	TrendingMinBeneficial int `json:"trending_min_beneficial"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		StoreTimeoutMS:     2000,
		BreakerMaxFailures: 5,
		BreakerOpenSeconds: 30,
		LogLevel:           "info",
		LogFormat:          "json",
		Matching: MatchingConfig{
			ActiveWindowDays:  30,
			CandidatePoolSize: 100,
			DefaultLimit:      10,
			DefaultMinScore:   30,
			ContentSampleSize: 50,
			MentorBonus:       10,
		},
		Feed: FeedConfig{
			DefaultLimit:          50,
			DecayWindowHours:      168,
			MaxCandidates:         200,
			SecondDegreeFanout:    10,
			SecondDegreeEdgesPer:  20,
			TrendingWindowHours:   48,
			TrendingMinBeneficial: 5,
		},
	}
}

// StoreTimeout returns the per-call store timeout.
func (c *Config) StoreTimeout() time.Duration {
	return time.Duration(c.StoreTimeoutMS) * time.Millisecond
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// SUHBA_LOG_LEVEL and SUHBA_LOG_FORMAT override the file.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFile(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}
	applyEnv(cfg)
	return cfg, nil
}

// LoadWithRepo loads configuration from both global (~/.suhba) and repo (.suhba) directories.
// Repo config is found by walking upward from startDir to find the nearest .suhba/config.json.
// Repo config takes precedence for scalar values; arrays are merged (deduplicated).
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(filepath.Join(globalDir, "config.json"))
	if err != nil {
		return nil, err
	}

	repo, err := loadFileRaw(FindRepoConfig(startDir))
	if err != nil {
		return nil, err
	}

	cfg := Merge(Merge(DefaultConfig(), global), repo)
	applyEnv(cfg)
	return cfg, nil
}

// FindRepoConfig walks upward from startDir to find the nearest .suhba/config.json.
// Returns the path if found, or empty string if not found.
func FindRepoConfig(startDir string) string {
	dir := startDir
	for {
		configPath := filepath.Join(dir, ".suhba", "config.json")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	if configPath == "" {
		return &Config{}, nil
	}
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

// loadFile loads configuration from a specific file path.
// Returns default config if the file doesn't exist.
func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("SUHBA_LOG_LEVEL")); v != "" {
		cfg.LogLevel = v
	}
	if v := strings.TrimSpace(os.Getenv("SUHBA_LOG_FORMAT")); v != "" {
		cfg.LogFormat = v
	}
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	// Scalars: overlay wins if non-zero, else base
	result.StoreTimeoutMS = pickInt(overlay.StoreTimeoutMS, base.StoreTimeoutMS)
	result.BreakerMaxFailures = pickInt(overlay.BreakerMaxFailures, base.BreakerMaxFailures)
	result.BreakerOpenSeconds = pickInt(overlay.BreakerOpenSeconds, base.BreakerOpenSeconds)
	result.DBMaxOpenConns = pickInt(overlay.DBMaxOpenConns, base.DBMaxOpenConns)
	result.DBMaxIdleConns = pickInt(overlay.DBMaxIdleConns, base.DBMaxIdleConns)
	result.LogLevel = pickString(overlay.LogLevel, base.LogLevel)
	result.LogFormat = pickString(overlay.LogFormat, base.LogFormat)

	result.Matching = MatchingConfig{
		ActiveWindowDays:  pickInt(overlay.Matching.ActiveWindowDays, base.Matching.ActiveWindowDays),
		CandidatePoolSize: pickInt(overlay.Matching.CandidatePoolSize, base.Matching.CandidatePoolSize),
		DefaultLimit:      pickInt(overlay.Matching.DefaultLimit, base.Matching.DefaultLimit),
		DefaultMinScore:   pickInt(overlay.Matching.DefaultMinScore, base.Matching.DefaultMinScore),
		ContentSampleSize: pickInt(overlay.Matching.ContentSampleSize, base.Matching.ContentSampleSize),
		MentorBonus:       pickInt(overlay.Matching.MentorBonus, base.Matching.MentorBonus),
	}
	result.Feed = FeedConfig{
		DefaultLimit:          pickInt(overlay.Feed.DefaultLimit, base.Feed.DefaultLimit),
		DecayWindowHours:      pickInt(overlay.Feed.DecayWindowHours, base.Feed.DecayWindowHours),
		MaxCandidates:         pickInt(overlay.Feed.MaxCandidates, base.Feed.MaxCandidates),
		SecondDegreeFanout:    pickInt(overlay.Feed.SecondDegreeFanout, base.Feed.SecondDegreeFanout),
		SecondDegreeEdgesPer:  pickInt(overlay.Feed.SecondDegreeEdgesPer, base.Feed.SecondDegreeEdgesPer),
		TrendingWindowHours:   pickInt(overlay.Feed.TrendingWindowHours, base.Feed.TrendingWindowHours),
		TrendingMinBeneficial: pickInt(overlay.Feed.TrendingMinBeneficial, base.Feed.TrendingMinBeneficial),
	}

	// Booleans: overlay wins if true, else base
	result.AllowUnsafePaths = base.AllowUnsafePaths || overlay.AllowUnsafePaths

	// Arrays: merge and deduplicate
	result.AllowedPaths = mergeStringSlice(base.AllowedPaths, overlay.AllowedPaths)
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)
	result.DisabledTypes = mergeStringSlice(base.DisabledTypes, overlay.DisabledTypes)

	return result
}

func pickInt(overlay, base int) int {
	if overlay != 0 {
		return overlay
	}
	return base
}

func pickString(overlay, base string) string {
	if strings.TrimSpace(overlay) != "" {
		return overlay
	}
	return base
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range append(append([]string{}, a...), b...) {
		s = strings.TrimSpace(s)
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
