package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// DataDir returns the directory holding config.toml and the SQLite file.
// OCTAGRAM_HOME overrides it; otherwise %APPDATA%\octagram on Windows and
// ~/.octagram elsewhere.
func DataDir() string {
	if dir := os.Getenv("OCTAGRAM_HOME"); dir != "" {
		return dir
	}
	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "octagram")
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ".octagram"
	}
	return filepath.Join(home, ".octagram")
}

// DBPath returns the default SQLite database path.
func DBPath() string {
	return filepath.Join(DataDir(), "octagram.db")
}

// EnsureDataDir creates the data directory if it doesn't exist.
func EnsureDataDir() error {
	return os.MkdirAll(DataDir(), 0700)
}
