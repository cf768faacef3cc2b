package store

import (
	"os"
	"path/filepath"
	"runtime"
)

const appDirName = "analog"

// DefaultDataDir returns the OS-appropriate default data directory for the board.
//
//   - macOS:   ~/Library/Application Support/analog
//   - Linux:   $XDG_DATA_HOME/analog (fallback ~/.local/share/analog)
//   - Windows: %LOCALAPPDATA%\analog (fallback %APPDATA%\analog)
func DefaultDataDir() string {
	return defaultDataDirForOS(runtime.GOOS)
}

func defaultDataDirForOS(goos string) string {
	home, _ := os.UserHomeDir()

	switch goos {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", appDirName)
	case "windows":
		if dir := os.Getenv("LOCALAPPDATA"); dir != "" {
			return filepath.Join(dir, appDirName)
		}
		if dir := os.Getenv("APPDATA"); dir != "" {
			return filepath.Join(dir, appDirName)
		}
		return filepath.Join(home, appDirName)
	default: // linux, freebsd, etc.
		if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
			return filepath.Join(dir, appDirName)
		}
		if home == "" {
			return filepath.Join(os.TempDir(), appDirName)
		}
		return filepath.Join(home, ".local", "share", appDirName)
	}
}
