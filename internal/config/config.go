// Package config handles configuration loading, validation, and the
// read-only snapshot shared by every component of the input method server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Version is the current configuration schema version.
const Version = 1

// DefaultFontName is an XLFD pattern that matches any ISO 10646 core font.
const DefaultFontName = "-*-*-medium-r-normal--20-*-*-*-*-*-iso10646-1"

// DefaultToggleKeycode is the X11 hardware keycode of the Hangul key.
const DefaultToggleKeycode = 130

// Config holds the complete daemon configuration as decoded from disk.
type Config struct {
	// Version is the configuration schema version.
	Version int `toml:"version" json:"version" yaml:"version"`

	// Preedit configures the overlay preedit window.
	Preedit PreeditConfig `toml:"preedit" json:"preedit" yaml:"preedit"`

	// Engine configures the composition engine.
	Engine EngineConfig `toml:"engine" json:"engine" yaml:"engine"`

	// Server configures the display and bus connections.
	Server ServerConfig `toml:"server" json:"server" yaml:"server"`

	// Logging configuration.
	Logging LoggingConfig `toml:"logging" json:"logging" yaml:"logging"`
}

// PreeditConfig holds overlay window settings.
type PreeditConfig struct {
	// FontName is the X core font used to draw the preedit glyph.
	FontName string `toml:"font_name" json:"font_name" yaml:"font_name"`

	// Padding is the gap in pixels between the glyph and the window edge.
	Padding int `toml:"padding" json:"padding" yaml:"padding"`

	// Foreground and Background are 0xRRGGBB pixel values.
	Foreground uint32 `toml:"foreground" json:"foreground" yaml:"foreground"`
	Background uint32 `toml:"background" json:"background" yaml:"background"`
}

// EngineConfig holds composition settings.
type EngineConfig struct {
	// CommitEnglish commits plain characters directly instead of
	// forwarding the key to the application.
	CommitEnglish bool `toml:"commit_english" json:"commit_english" yaml:"commit_english"`

	// ToggleKeycode switches between Hangul and English input.
	ToggleKeycode int `toml:"toggle_keycode" json:"toggle_keycode" yaml:"toggle_keycode"`
}

// ServerConfig holds connection settings.
type ServerConfig struct {
	// Display is the X display name. Empty means $DISPLAY.
	Display string `toml:"display" json:"display" yaml:"display"`

	// Screen is the X screen for overlay windows. -1 uses the default screen.
	Screen int `toml:"screen" json:"screen" yaml:"screen"`

	// IBusAddress is the IBus bus address. Empty means $IBUS_ADDRESS,
	// falling back to the session bus.
	IBusAddress string `toml:"ibus_address" json:"ibus_address" yaml:"ibus_address"`

	// MetricsAddr enables the metrics HTTP endpoint when non-empty.
	MetricsAddr string `toml:"metrics_addr" json:"metrics_addr" yaml:"metrics_addr"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error.
	Level string `toml:"level" json:"level" yaml:"level"`

	// Format is text or json.
	Format string `toml:"format" json:"format" yaml:"format"`

	// Output is stderr, stdout, file or both.
	Output string `toml:"output" json:"output" yaml:"output"`

	// FilePath is used when Output includes a file.
	FilePath string `toml:"file_path" json:"file_path" yaml:"file_path"`

	MaxSizeMB  int  `toml:"max_size_mb" json:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int  `toml:"max_backups" json:"max_backups" yaml:"max_backups"`
	MaxAgeDays int  `toml:"max_age_days" json:"max_age_days" yaml:"max_age_days"`
	Compress   bool `toml:"compress" json:"compress" yaml:"compress"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Version: Version,
		Preedit: PreeditConfig{
			FontName:   DefaultFontName,
			Padding:    2,
			Foreground: 0x000000,
			Background: 0xffffff,
		},
		Engine: EngineConfig{
			CommitEnglish: false,
			ToggleKeycode: DefaultToggleKeycode,
		},
		Server: ServerConfig{
			Screen: -1,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     "stderr",
			FilePath:   filepath.Join(PlatformStateDir(), "hanim.log"),
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 14,
			Compress:   true,
		},
	}
}

// ConfigPath returns the default configuration file path.
func ConfigPath() string {
	return filepath.Join(PlatformConfigDir(), "config.toml")
}

// Load reads, overrides from the environment, and validates the
// configuration at path. A missing file yields the defaults. An empty
// path uses ConfigPath.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg, err := loadConfigFromFile(path)
	if err != nil {
		return nil, err
	}

	cfg.ApplyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration for semantic errors.
func (c *Config) Validate() error {
	return ValidateConfig(c)
}

// ApplyEnvOverrides applies HANIM_* and well-known environment variables.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("HANIM_PREEDIT_FONT"); v != "" {
		c.Preedit.FontName = v
	}
	if v := os.Getenv("HANIM_COMMIT_ENGLISH"); v != "" {
		c.Engine.CommitEnglish = v == "1" || v == "true" || v == "yes"
	}
	if v := os.Getenv("HANIM_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if c.Server.Display == "" {
		c.Server.Display = os.Getenv("DISPLAY")
	}
	if c.Server.IBusAddress == "" {
		c.Server.IBusAddress = os.Getenv("IBUS_ADDRESS")
	}
}

// Snapshot freezes the configuration. Later changes to c do not affect
// the returned value.
func (c *Config) Snapshot() *Snapshot {
	return &Snapshot{
		fontName:      c.Preedit.FontName,
		padding:       c.Preedit.Padding,
		foreground:    c.Preedit.Foreground,
		background:    c.Preedit.Background,
		commitEnglish: c.Engine.CommitEnglish,
		toggleKeycode: uint16(c.Engine.ToggleKeycode),
	}
}

// Snapshot is the process-wide read-only view of the settings consulted
// while handling events. It is built once at startup and shared by
// reference.
type Snapshot struct {
	fontName      string
	padding       int
	foreground    uint32
	background    uint32
	commitEnglish bool
	toggleKeycode uint16
}

// FontName returns the preedit font name.
func (s *Snapshot) FontName() string { return s.fontName }

// Padding returns the preedit window padding in pixels.
func (s *Snapshot) Padding() int { return s.padding }

// Foreground returns the glyph pixel value.
func (s *Snapshot) Foreground() uint32 { return s.foreground }

// Background returns the window pixel value.
func (s *Snapshot) Background() uint32 { return s.background }

// CommitEnglish reports whether plain characters are committed directly.
func (s *Snapshot) CommitEnglish() bool { return s.commitEnglish }

// ToggleKeycode returns the Hangul/English toggle keycode.
func (s *Snapshot) ToggleKeycode() uint16 { return s.toggleKeycode }
