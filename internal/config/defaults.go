package config

import (
	"os"
	"path/filepath"
	"strconv"

	"golang.org/x/sys/unix"
)

// PlatformConfigDir returns $XDG_CONFIG_HOME/hanim or ~/.config/hanim.
func PlatformConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "hanim")
	}
	return filepath.Join(homeDir(), ".config", "hanim")
}

// PlatformStateDir returns $XDG_STATE_HOME/hanim or ~/.local/state/hanim.
func PlatformStateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "hanim")
	}
	return filepath.Join(homeDir(), ".local", "state", "hanim")
}

// PlatformDataDir returns $XDG_DATA_HOME or ~/.local/share.
func PlatformDataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return dir
	}
	return filepath.Join(homeDir(), ".local", "share")
}

// RuntimeDir returns $XDG_RUNTIME_DIR/hanim, or /tmp/hanim-$UID when
// no runtime directory is set.
func RuntimeDir() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "hanim")
	}
	return filepath.Join(os.TempDir(), "hanim-"+strconv.Itoa(unix.Getuid()))
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(os.TempDir(), "hanim-"+strconv.Itoa(unix.Getuid()))
	}
	return home
}
