// Package config handles the XDG configuration directory and the files
// persisted there: backend project credentials, the session token, and
// the display preference.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	// AppName is the application directory name.
	AppName = "taskmaster"

	// ProjectFile holds the backend project URL and publishable API key.
	ProjectFile = "project.json"

	// TokenFile is the stored session token filename.
	TokenFile = "token.json"

	// PrefsFile is the persisted display-preference filename.
	PrefsFile = "prefs.json"

	// LogFile is where the client logs while the terminal UI owns stdout.
	LogFile = "debug.log"
)

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output on non-UI commands.
	Quiet bool
}

// Project identifies the backend project the client talks to.
type Project struct {
	// URL is the base URL of the backend, e.g. https://abc.example.co.
	URL string `json:"url"`

	// APIKey is the publishable (anon) API key sent with every request.
	APIKey string `json:"api_key"`
}

// Prefs is the persisted display preference. Orthogonal to session state.
type Prefs struct {
	DarkMode bool `json:"dark_mode"`
}

// New creates a new Config with the default or specified config directory.
// If configDir is empty, uses XDG_CONFIG_HOME/taskmaster or
// $HOME/.config/taskmaster.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	return &Config{Dir: dir}, nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// ProjectPath returns the path to the project credentials file.
func (c *Config) ProjectPath() string {
	return filepath.Join(c.Dir, ProjectFile)
}

// TokenPath returns the path to the stored session token file.
func (c *Config) TokenPath() string {
	return filepath.Join(c.Dir, TokenFile)
}

// PrefsPath returns the path to the display preference file.
func (c *Config) PrefsPath() string {
	return filepath.Join(c.Dir, PrefsFile)
}

// LogPath returns the path to the log file.
func (c *Config) LogPath() string {
	return filepath.Join(c.Dir, LogFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// HasProject checks if the project credentials file exists.
func (c *Config) HasProject() bool {
	_, err := os.Stat(c.ProjectPath())
	return err == nil
}

// HasToken checks if the token file exists.
func (c *Config) HasToken() bool {
	_, err := os.Stat(c.TokenPath())
	return err == nil
}

// RemoveToken deletes the token file.
func (c *Config) RemoveToken() error {
	return os.Remove(c.TokenPath())
}

// LoadProject reads and validates the project credentials file.
func (c *Config) LoadProject() (Project, error) {
	data, err := os.ReadFile(c.ProjectPath())
	if err != nil {
		return Project{}, fmt.Errorf("failed to read %s: %w", ProjectFile, err)
	}
	var p Project
	if err := json.Unmarshal(data, &p); err != nil {
		return Project{}, fmt.Errorf("invalid %s: %w", ProjectFile, err)
	}
	if p.URL == "" || p.APIKey == "" {
		return Project{}, fmt.Errorf("%s must set both url and api_key", ProjectFile)
	}
	return p, nil
}

// LoadPrefs reads the persisted display preference. A missing or
// unreadable file yields the zero preference rather than an error; the
// preference is restored best-effort at startup.
func (c *Config) LoadPrefs() Prefs {
	data, err := os.ReadFile(c.PrefsPath())
	if err != nil {
		return Prefs{}
	}
	var p Prefs
	if err := json.Unmarshal(data, &p); err != nil {
		return Prefs{}
	}
	return p
}

// SavePrefs persists the display preference.
func (c *Config) SavePrefs(p Prefs) error {
	if err := c.EnsureDir(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.PrefsPath(), data, 0644)
}
