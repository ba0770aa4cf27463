package log

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

var dir string

// ResolveDir picks the log directory: the --logpath flag, then
// SORI_LOG_PATH, then the platform default. Relative paths are taken from
// the working directory.
func ResolveDir(flagPath string) (string, error) {
	for _, p := range []string{flagPath, os.Getenv("SORI_LOG_PATH")} {
		if p != "" {
			return filepath.Abs(p)
		}
	}
	return defaultDir()
}

// defaultDir is ~/Library/Logs/sori on darwin, %LOCALAPPDATA%\sori\logs on
// windows and $XDG_CONFIG_HOME/sori/logs elsewhere.
func defaultDir() (string, error) {
	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Logs", "sori"), nil
	case "windows":
		local, err := os.UserCacheDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(local, "sori", "logs"), nil
	}
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "sori", "logs"), nil
}

func SetDir(d string) { dir = d }

func Dir() string { return dir }

func EnsureDir() error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}
	return nil
}
