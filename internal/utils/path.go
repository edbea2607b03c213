package utils

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/charmbracelet/log"
)

// PathResolver locates the executable, home, and config directories so
// the config file and text log can be found the same way regardless of
// whether the binary runs from a dev checkout or an installed location.
type PathResolver struct {
	executablePath string
	executableDir  string
	homeDir        string
	configDir      string
}

// NewPathResolver resolves the running executable's location and derives
// the platform config directory from it.
func NewPathResolver() (*PathResolver, error) {
	execPath, err := os.Executable()
	if err != nil {
		return nil, err
	}
	execPath, err = filepath.EvalSymlinks(execPath)
	if err != nil {
		return nil, err
	}
	execDir := filepath.Dir(execPath)

	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Warnf("Could not determine home directory: %v", err)
		homeDir = "/tmp"
	}

	configDir := getConfigDir(homeDir)

	pr := &PathResolver{
		executablePath: execPath,
		executableDir:  execDir,
		homeDir:        homeDir,
		configDir:      configDir,
	}
	log.Debugf("PathResolver initialized: exec=%s, execDir=%s, configDir=%s",
		execPath, execDir, configDir)
	return pr, nil
}

// getConfigDir returns the platform config directory for lexidx.
func getConfigDir(homeDir string) string {
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(homeDir, ".config", "lexidx")
	case "linux":
		if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
			return filepath.Join(configHome, "lexidx")
		}
		return filepath.Join(homeDir, ".config", "lexidx")
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "lexidx")
		}
		return filepath.Join(homeDir, "AppData", "Roaming", "lexidx")
	default:
		return filepath.Join(homeDir, ".lexidx")
	}
}

// GetConfigPath returns the full path for a config file, preferring the
// platform config directory and falling back to ~/.lexidx, /tmp/lexidx,
// or the executable's own directory if none of those are writable.
func (pr *PathResolver) GetConfigPath(filename string) (string, error) {
	configPath := filepath.Join(pr.configDir, filename)
	if pr.ensureConfigDir(pr.configDir) {
		return configPath, nil
	}

	fallbackDirs := []string{
		filepath.Join(pr.homeDir, ".lexidx"),
		filepath.Join(os.TempDir(), "lexidx"),
		pr.executableDir,
	}
	for _, dir := range fallbackDirs {
		if pr.ensureConfigDir(dir) {
			path := filepath.Join(dir, filename)
			log.Warnf("Using fallback config location: %s", path)
			return path, nil
		}
	}

	tempPath := filepath.Join(os.TempDir(), filename)
	log.Warnf("Using temporary config file: %s", tempPath)
	return tempPath, nil
}

// ResolveTextLogPath resolves userSpecifiedPath (from config or flag)
// against the config directory: absolute paths pass through unchanged,
// relative paths resolve under the platform config directory (the first
// one GetConfigPath tries), even when the config file itself was placed
// in a fallback directory or given by path.
func (pr *PathResolver) ResolveTextLogPath(userSpecifiedPath string) string {
	if filepath.IsAbs(userSpecifiedPath) {
		return userSpecifiedPath
	}
	return filepath.Join(pr.configDir, userSpecifiedPath)
}

func (pr *PathResolver) ensureConfigDir(dir string) bool {
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Debugf("Cannot create config directory %s: %v", dir, err)
		return false
	}
	testFile := filepath.Join(dir, ".write_test")
	if err := os.WriteFile(testFile, []byte("test"), 0644); err != nil {
		log.Debugf("Config directory %s is not writable: %v", dir, err)
		return false
	}
	os.Remove(testFile)
	return true
}

// GetExecutableDir returns the directory containing the executable.
func (pr *PathResolver) GetExecutableDir() string {
	return pr.executableDir
}

// GetExecutablePath returns the full path to the executable.
func (pr *PathResolver) GetExecutablePath() string {
	return pr.executablePath
}

// GetConfigDir returns the resolved config directory.
func (pr *PathResolver) GetConfigDir() string {
	return pr.configDir
}

// ResolveRelativePath resolves a path relative to the executable
// directory, for assets distributed alongside the binary.
func (pr *PathResolver) ResolveRelativePath(relativePath string) string {
	if filepath.IsAbs(relativePath) {
		return relativePath
	}
	return filepath.Join(pr.executableDir, relativePath)
}
