/*
Package config manages TOML config for the lexidx engine, CLI, and IPC
server.
*/
package config

import (
	"os"
	"path/filepath"

	"github.com/bastiangx/lexidx/internal/utils"
	"github.com/charmbracelet/log"
)

// Config holds the entire config structure.
type Config struct {
	Engine  EngineConfig  `toml:"engine"`
	TextLog TextLogConfig `toml:"textlog"`
	CLI     CliConfig     `toml:"cli"`
	Server  ServerConfig  `toml:"server"`
}

// EngineConfig has index-engine tuning options.
type EngineConfig struct {
	MaxDistanceCap int `toml:"max_distance_cap"`
	// DefaultSimMaxD is loaded and clamped to MaxDistanceCap but is not
	// passed to the engine: a similarity query without an explicit max_d
	// uses query.DefaultSimMaxD.
	DefaultSimMaxD int `toml:"default_sim_max_d"`
	// InsertDepthGuard bounds how deep a single BK-tree insert may walk
	// before it aborts and warns, per engine.Options.InsertDepthGuard.
	InsertDepthGuard  int  `toml:"insert_depth_guard"`
	OptimizeOnStartup bool `toml:"optimize_on_startup"`
}

// TextLogConfig has text-log persistence options.
type TextLogConfig struct {
	Path          string `toml:"path"`
	FsyncOnAppend bool   `toml:"fsync_on_append"`
}

// CliConfig has REPL options.
type CliConfig struct {
	DefaultLimit int    `toml:"default_limit"`
	Prompt       string `toml:"prompt"`
}

// ServerConfig has msgpack IPC server options.
type ServerConfig struct {
	MaxLimit   int `toml:"max_limit"`
	TimeoutSec int `toml:"timeout_sec"`
}

// maxAllowedDistanceCap is the ceiling spec.md §9 resolves the
// "cap of 3 vs 10" open question to: 10, configurable downward only.
const maxAllowedDistanceCap = 10

// GetConfigDir returns the config directory with fallback priority:
// 1. ~/.config/
// 2. ~/Library/Application Support/ (macOS)
// 3. Current executable dir
// 4. builtin defaults
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Errorf("Failed to get home directory: %v", err)
		execDir, execErr := utils.GetExecutableDir()
		if execErr != nil {
			return "", execErr
		}
		return execDir, nil
	}
	primaryPath := filepath.Join(homeDir, ".config", "lexidx")
	if result := utils.CheckDirStatus(primaryPath); result.Writable {
		return primaryPath, nil
	}
	macOSPath := filepath.Join(homeDir, "Library", "Application Support", "lexidx")
	if result := utils.CheckDirStatus(macOSPath); result.Writable {
		return macOSPath, nil
	}
	execDir, err := utils.GetExecutableDir()
	if err != nil {
		log.Errorf("Failed to get executable directory: %v", err)
		return "", err
	}
	return execDir, nil
}

// GetDefaultConfigPath returns the default path for config.toml.
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from --config flag
// 2. Default path: [UserConfigDir]/lexidx/config.toml
// 3. Builtin defaults
func LoadConfigWithPriority(customConfigPath string) (*Config, string, error) {
	var config *Config
	var err error

	if customConfigPath != "" {
		if _, statErr := os.Stat(customConfigPath); statErr == nil {
			config, err = LoadConfig(customConfigPath)
			if err != nil {
				log.Warnf("Failed to load custom config from %s: %v. Trying default path...", customConfigPath, err)
			} else {
				log.Debugf("Loaded config from custom path: %s", customConfigPath)
				return config, customConfigPath, nil
			}
		} else {
			log.Warnf("Custom config file not found at %s: %v. Trying default path...", customConfigPath, statErr)
		}
	}
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		log.Warnf("Failed to determine default config path: %v. Using built-in defaults...", err)
		return DefaultConfig(), "", nil
	}

	config, err = InitConfig(defaultPath)
	if err != nil {
		log.Warnf("Failed to load/create config at default path %s: %v. Using builtin defaults...", defaultPath, err)
		return DefaultConfig(), "", nil
	}
	log.Debugf("Loaded config from default path: %s", defaultPath)
	return config, defaultPath, nil
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			MaxDistanceCap:    maxAllowedDistanceCap,
			DefaultSimMaxD:    2,
			InsertDepthGuard:  4096,
			OptimizeOnStartup: false,
		},
		TextLog: TextLogConfig{
			Path:          "words.txt",
			FsyncOnAppend: true,
		},
		CLI: CliConfig{
			DefaultLimit: 24,
			Prompt:       "lexidx> ",
		},
		Server: ServerConfig{
			MaxLimit:   64,
			TimeoutSec: 30,
		},
	}
}

// clampEngineConfig enforces the documented ceiling: max_distance_cap may
// be configured downward from the default but never upward past it.
func clampEngineConfig(e *EngineConfig) {
	if e.MaxDistanceCap <= 0 || e.MaxDistanceCap > maxAllowedDistanceCap {
		e.MaxDistanceCap = maxAllowedDistanceCap
	}
	if e.DefaultSimMaxD > e.MaxDistanceCap {
		e.DefaultSimMaxD = e.MaxDistanceCap
	}
}

// InitConfig loads config from file or creates default if missing.
func InitConfig(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)

	if err := utils.EnsureDir(configDir); err != nil {
		log.Warnf("Failed to create config directory %s: %v. Using built-in defaults...", configDir, err)
		return DefaultConfig(), nil
	}

	if !utils.FileExists(configPath) {
		config := DefaultConfig()
		if err := SaveConfig(config, configPath); err != nil {
			log.Warnf("Failed to create default config file at %s: %v. Using built-in defaults...", configPath, err)
			return DefaultConfig(), nil
		}
		log.Debugf("Created default config file at: %s", configPath)
		return config, nil
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		log.Warnf("Failed to load config from %s: %v. Using built-in defaults...", configPath, err)
		return DefaultConfig(), nil
	}
	return config, nil
}

// LoadConfig loads from a TOML file.
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	if err := utils.LoadTOMLFile(configPath, config); err != nil {
		return tryPartialParse(configPath)
	}
	clampEngineConfig(&config.Engine)
	return config, nil
}

// tryPartialParse attempts to salvage whatever sections of a malformed
// TOML file still parse, falling back to defaults section-by-section
// rather than discarding the whole file on one bad line.
func tryPartialParse(configPath string) (*Config, error) {
	config := DefaultConfig()

	tempConfig, err := utils.ParseTOMLWithRecovery(configPath)
	if err != nil {
		log.Warnf("Could not parse any valid configuration from %s: %v. Using all defaults.", configPath, err)
		return config, nil
	}

	if engineSection, ok := utils.ExtractSection(tempConfig, "engine"); ok {
		extractEngineConfig(engineSection, &config.Engine)
	}
	if textlogSection, ok := utils.ExtractSection(tempConfig, "textlog"); ok {
		extractTextLogConfig(textlogSection, &config.TextLog)
	}
	if cliSection, ok := utils.ExtractSection(tempConfig, "cli"); ok {
		extractCliConfig(cliSection, &config.CLI)
	}
	if serverSection, ok := utils.ExtractSection(tempConfig, "server"); ok {
		extractServerConfig(serverSection, &config.Server)
	}
	clampEngineConfig(&config.Engine)
	return config, nil
}

func extractEngineConfig(data map[string]any, engine *EngineConfig) {
	if val, ok := utils.ExtractInt64(data, "max_distance_cap"); ok {
		engine.MaxDistanceCap = val
	}
	if val, ok := utils.ExtractInt64(data, "default_sim_max_d"); ok {
		engine.DefaultSimMaxD = val
	}
	if val, ok := utils.ExtractInt64(data, "insert_depth_guard"); ok {
		engine.InsertDepthGuard = val
	}
	if val, ok := utils.ExtractBool(data, "optimize_on_startup"); ok {
		engine.OptimizeOnStartup = val
	}
}

func extractTextLogConfig(data map[string]any, tl *TextLogConfig) {
	if val, ok := data["path"].(string); ok {
		tl.Path = val
	}
	if val, ok := utils.ExtractBool(data, "fsync_on_append"); ok {
		tl.FsyncOnAppend = val
	}
}

func extractCliConfig(data map[string]any, cli *CliConfig) {
	if val, ok := utils.ExtractInt64(data, "default_limit"); ok {
		cli.DefaultLimit = val
	}
	if val, ok := data["prompt"].(string); ok {
		cli.Prompt = val
	}
}

func extractServerConfig(data map[string]any, server *ServerConfig) {
	if val, ok := utils.ExtractInt64(data, "max_limit"); ok {
		server.MaxLimit = val
	}
	if val, ok := utils.ExtractInt64(data, "timeout_sec"); ok {
		server.TimeoutSec = val
	}
}

// RebuildConfigFile force creates a new config.toml at the default path.
func RebuildConfigFile() error {
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		return err
	}
	configDir := filepath.Dir(defaultPath)
	if err := utils.EnsureDir(configDir); err != nil {
		return err
	}
	config := DefaultConfig()
	return utils.SaveTOMLFile(config, defaultPath)
}

// GetActiveConfigPath returns the absolute path of the loaded config
// file.
func GetActiveConfigPath(configPath string) string {
	if configPath == "" {
		if defaultPath, err := GetDefaultConfigPath(); err == nil {
			return defaultPath
		}
		return "unknown"
	}
	return utils.GetAbsolutePath(configPath)
}

// SaveConfig saves into a TOML file.
func SaveConfig(config *Config, configPath string) error {
	return utils.SaveTOMLFile(config, configPath)
}

// Update changes engine config values and saves to file.
func (c *Config) Update(configPath string, maxDistanceCap, defaultSimMaxD *int, optimizeOnStartup *bool) error {
	if maxDistanceCap != nil {
		c.Engine.MaxDistanceCap = *maxDistanceCap
	}
	if defaultSimMaxD != nil {
		c.Engine.DefaultSimMaxD = *defaultSimMaxD
	}
	if optimizeOnStartup != nil {
		c.Engine.OptimizeOnStartup = *optimizeOnStartup
	}
	clampEngineConfig(&c.Engine)
	return SaveConfig(c, configPath)
}
