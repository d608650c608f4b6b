// Package config provides layered YAML + environment configuration for
// the indexing core: hardcoded defaults, a user-global config file, a
// per-project config file, then environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/amanmcp/codeindex/internal/errcodes"
)

// Config is the complete application configuration.
type Config struct {
	Version     int               `yaml:"version" json:"version"`
	Paths       PathsConfig       `yaml:"paths" json:"paths"`
	Store       StoreConfig       `yaml:"store" json:"store"`
	Embeddings  EmbeddingsConfig  `yaml:"embeddings" json:"embeddings"`
	Watcher     WatcherConfig     `yaml:"watcher" json:"watcher"`
	Performance PerformanceConfig `yaml:"performance" json:"performance"`
	Server      ServerConfig      `yaml:"server" json:"server"`
	Maintenance MaintenanceConfig `yaml:"maintenance" json:"maintenance"`
}

// PathsConfig configures which paths to include and exclude beyond
// .gitignore.
type PathsConfig struct {
	Include []string `yaml:"include" json:"include"`
	Exclude []string `yaml:"exclude" json:"exclude"`
}

// StoreConfig configures the persistent store (C1) pragma tuning.
type StoreConfig struct {
	CacheSizeMB      int  `yaml:"cache_size_mb" json:"cache_size_mb"`
	MmapSizeMB       int  `yaml:"mmap_size_mb" json:"mmap_size_mb"`
	BusyTimeoutMS    int  `yaml:"busy_timeout_ms" json:"busy_timeout_ms"`
	WALAutoCheckpoint int `yaml:"wal_auto_checkpoint" json:"wal_auto_checkpoint"`
	RetentionDays    int  `yaml:"retention_days" json:"retention_days"`
}

// EmbeddingsConfig configures the dense embedder (C3, external capability).
type EmbeddingsConfig struct {
	Provider   string `yaml:"provider" json:"provider"`
	Model      string `yaml:"model" json:"model"`
	Dimensions int    `yaml:"dimensions" json:"dimensions"`
	BatchSize  int    `yaml:"batch_size" json:"batch_size"`
}

// WatcherConfig configures the filesystem watcher pipeline (C7).
type WatcherConfig struct {
	DebounceMS          int      `yaml:"debounce_ms" json:"debounce_ms"`
	BatchSize           int      `yaml:"batch_size" json:"batch_size"`
	MaxQueueSize        int      `yaml:"max_queue_size" json:"max_queue_size"`
	MemoryCheckInterval int      `yaml:"memory_check_interval_s" json:"memory_check_interval_s"`
	MemoryThresholdMB   int      `yaml:"memory_threshold_mb" json:"memory_threshold_mb"`
	IgnoreCacheSize     int      `yaml:"ignore_cache_size" json:"ignore_cache_size"`
	ExtraIgnorePatterns []string `yaml:"ignore" json:"ignore"`
}

// PerformanceConfig configures indexer and query-side tuning.
type PerformanceConfig struct {
	IndexWorkers      int `yaml:"index_workers" json:"index_workers"`
	MaxFileSizeBytes  int `yaml:"max_file_size_bytes" json:"max_file_size_bytes"`
	RebuildEveryNBatch int `yaml:"rebuild_every_n_batch" json:"rebuild_every_n_batch"`
}

// ServerConfig configures the MCP server driver (C15).
type ServerConfig struct {
	Transport string `yaml:"transport" json:"transport"`
	LogLevel  string `yaml:"log_level" json:"log_level"`
}

// MaintenanceConfig configures the maintenance scheduler (C9).
type MaintenanceConfig struct {
	IntervalHours   int `yaml:"interval_hours" json:"interval_hours"`
	VacuumThreshold int `yaml:"vacuum_threshold" json:"vacuum_threshold"`
}

// Default returns the hardcoded default configuration.
func Default() *Config {
	return &Config{
		Version: 1,
		Paths: PathsConfig{
			Exclude: []string{".git", "node_modules", "vendor", "dist", "build"},
		},
		Store: StoreConfig{
			CacheSizeMB:       64,
			MmapSizeMB:        256,
			BusyTimeoutMS:     5000,
			WALAutoCheckpoint: 1000,
			RetentionDays:     30,
		},
		Embeddings: EmbeddingsConfig{
			Provider:   "static",
			Model:      "static-hash-v1",
			Dimensions: 384,
			BatchSize:  32,
		},
		Watcher: WatcherConfig{
			DebounceMS:          200,
			BatchSize:           200,
			MaxQueueSize:        10000,
			MemoryCheckInterval: 30,
			MemoryThresholdMB:   1024,
			IgnoreCacheSize:     10000,
		},
		Performance: PerformanceConfig{
			IndexWorkers:       4,
			MaxFileSizeBytes:   5 * 1024 * 1024,
			RebuildEveryNBatch: 10,
		},
		Server: ServerConfig{
			Transport: "stdio",
			LogLevel:  "info",
		},
		Maintenance: MaintenanceConfig{
			IntervalHours:   24,
			VacuumThreshold: 1000,
		},
	}
}

// MetaDirName is the project-relative metadata directory name.
const MetaDirName = ".codeindex"

// GetUserConfigPath returns the path to the user-global config file,
// honoring XDG_CONFIG_HOME.
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "codeindex", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "codeindex", "config.yaml")
	}
	return filepath.Join(home, ".config", "codeindex", "config.yaml")
}

// GetUserConfigDir returns the directory containing the user-global
// config file, honoring XDG_CONFIG_HOME.
func GetUserConfigDir() string {
	return filepath.Dir(GetUserConfigPath())
}

// UserConfigExists reports whether the user-global config file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// Load builds the layered configuration for a project root: hardcoded
// defaults, then the user-global file, then the project file
// (.codeindex.yaml), then CODEINDEX_* environment overrides.
func Load(projectRoot string) (*Config, error) {
	cfg := Default()

	if userPath := GetUserConfigPath(); fileExists(userPath) {
		if err := cfg.mergeYAMLFile(userPath); err != nil {
			return nil, fmt.Errorf("failed to load user config: %w", err)
		}
	}

	projectPath := filepath.Join(projectRoot, ".codeindex.yaml")
	if fileExists(projectPath) {
		if err := cfg.mergeYAMLFile(projectPath); err != nil {
			return nil, fmt.Errorf("failed to load project config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) mergeYAMLFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	c.mergeWith(&parsed)
	return nil
}

// mergeWith overlays non-zero fields of other onto c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}
	if len(other.Paths.Include) > 0 {
		c.Paths.Include = other.Paths.Include
	}
	if len(other.Paths.Exclude) > 0 {
		c.Paths.Exclude = other.Paths.Exclude
	}
	if other.Store.CacheSizeMB != 0 {
		c.Store.CacheSizeMB = other.Store.CacheSizeMB
	}
	if other.Store.MmapSizeMB != 0 {
		c.Store.MmapSizeMB = other.Store.MmapSizeMB
	}
	if other.Store.BusyTimeoutMS != 0 {
		c.Store.BusyTimeoutMS = other.Store.BusyTimeoutMS
	}
	if other.Store.WALAutoCheckpoint != 0 {
		c.Store.WALAutoCheckpoint = other.Store.WALAutoCheckpoint
	}
	if other.Store.RetentionDays != 0 {
		c.Store.RetentionDays = other.Store.RetentionDays
	}
	if other.Embeddings.Provider != "" {
		c.Embeddings.Provider = other.Embeddings.Provider
	}
	if other.Embeddings.Model != "" {
		c.Embeddings.Model = other.Embeddings.Model
	}
	if other.Embeddings.Dimensions != 0 {
		c.Embeddings.Dimensions = other.Embeddings.Dimensions
	}
	if other.Embeddings.BatchSize != 0 {
		c.Embeddings.BatchSize = other.Embeddings.BatchSize
	}
	if other.Watcher.DebounceMS != 0 {
		c.Watcher.DebounceMS = other.Watcher.DebounceMS
	}
	if other.Watcher.BatchSize != 0 {
		c.Watcher.BatchSize = other.Watcher.BatchSize
	}
	if other.Watcher.MaxQueueSize != 0 {
		c.Watcher.MaxQueueSize = other.Watcher.MaxQueueSize
	}
	if other.Watcher.MemoryCheckInterval != 0 {
		c.Watcher.MemoryCheckInterval = other.Watcher.MemoryCheckInterval
	}
	if other.Watcher.MemoryThresholdMB != 0 {
		c.Watcher.MemoryThresholdMB = other.Watcher.MemoryThresholdMB
	}
	if other.Watcher.IgnoreCacheSize != 0 {
		c.Watcher.IgnoreCacheSize = other.Watcher.IgnoreCacheSize
	}
	if len(other.Watcher.ExtraIgnorePatterns) > 0 {
		c.Watcher.ExtraIgnorePatterns = other.Watcher.ExtraIgnorePatterns
	}
	if other.Performance.IndexWorkers != 0 {
		c.Performance.IndexWorkers = other.Performance.IndexWorkers
	}
	if other.Performance.MaxFileSizeBytes != 0 {
		c.Performance.MaxFileSizeBytes = other.Performance.MaxFileSizeBytes
	}
	if other.Performance.RebuildEveryNBatch != 0 {
		c.Performance.RebuildEveryNBatch = other.Performance.RebuildEveryNBatch
	}
	if other.Server.Transport != "" {
		c.Server.Transport = other.Server.Transport
	}
	if other.Server.LogLevel != "" {
		c.Server.LogLevel = other.Server.LogLevel
	}
	if other.Maintenance.IntervalHours != 0 {
		c.Maintenance.IntervalHours = other.Maintenance.IntervalHours
	}
	if other.Maintenance.VacuumThreshold != 0 {
		c.Maintenance.VacuumThreshold = other.Maintenance.VacuumThreshold
	}
}

// applyEnvOverrides applies CODEINDEX_* environment variables, which
// take precedence over both config files.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("CODEINDEX_EMBEDDINGS_PROVIDER"); v != "" {
		c.Embeddings.Provider = v
	}
	if v := os.Getenv("CODEINDEX_EMBEDDINGS_MODEL"); v != "" {
		c.Embeddings.Model = v
	}
	if v := os.Getenv("CODEINDEX_LOG_LEVEL"); v != "" {
		c.Server.LogLevel = v
	}
	if v := os.Getenv("CODEINDEX_WATCHER_DEBOUNCE_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Watcher.DebounceMS = n
		}
	}
	if v := os.Getenv("CODEINDEX_RETENTION_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Store.RetentionDays = n
		}
	}
}

// Validate checks invariants on the assembled configuration and
// returns a *errcodes.IndexError-compatible error for the first
// violation found.
func (c *Config) Validate() error {
	if c.Embeddings.Dimensions <= 0 {
		return errcodes.ConfigError(fmt.Sprintf("embeddings.dimensions must be positive, got %d", c.Embeddings.Dimensions), nil)
	}
	if c.Watcher.DebounceMS < 100 || c.Watcher.DebounceMS > 10000 {
		return errcodes.ConfigError(fmt.Sprintf("watcher.debounce_ms must be in [100,10000], got %d", c.Watcher.DebounceMS), nil)
	}
	if c.Watcher.BatchSize < 1 || c.Watcher.BatchSize > 1000 {
		return errcodes.ConfigError(fmt.Sprintf("watcher.batch_size must be in [1,1000], got %d", c.Watcher.BatchSize), nil)
	}
	if c.Store.RetentionDays < 0 {
		return errcodes.ConfigError(fmt.Sprintf("store.retention_days must be non-negative, got %d", c.Store.RetentionDays), nil)
	}
	if c.Maintenance.IntervalHours <= 0 {
		return errcodes.ConfigError(fmt.Sprintf("maintenance.interval_hours must be positive, got %d", c.Maintenance.IntervalHours), nil)
	}
	return nil
}

// WriteYAML serializes the config to path, used by `init`.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// WatcherDebounce returns the configured debounce window as a duration.
func (c *Config) WatcherDebounce() time.Duration {
	return time.Duration(c.Watcher.DebounceMS) * time.Millisecond
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// FindProjectRoot walks upward from startDir looking for a `.git`
// directory or a `.codeindex.yaml` file, returning the first directory
// that carries either marker. If neither is found before reaching the
// filesystem root, it returns the absolute form of startDir unchanged.
func FindProjectRoot(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	currentDir := absDir
	for {
		if dirExists(filepath.Join(currentDir, ".git")) {
			return currentDir, nil
		}
		if fileExists(filepath.Join(currentDir, ".codeindex.yaml")) {
			return currentDir, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return absDir, nil
		}
		currentDir = parentDir
	}
}

// MetaDir returns the absolute metadata directory path for a project root.
func MetaDir(projectRoot string) string {
	return filepath.Join(projectRoot, MetaDirName)
}

// NormalizePath converts an absolute path under root into the
// project-relative, forward-slash canonical form used as File.Path.
func NormalizePath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	return filepath.ToSlash(rel)
}

// IsIgnoredDefault reports whether a path segment matches one of the
// built-in exclusion defaults, independent of gitignore.
func (c *Config) IsIgnoredDefault(relPath string) bool {
	parts := strings.Split(filepath.ToSlash(relPath), "/")
	for _, part := range parts {
		for _, ex := range c.Paths.Exclude {
			if part == ex {
				return true
			}
		}
	}
	return false
}
