package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
)

const (
	// ConfigDir is the directory name under ~/.config
	ConfigDir = "minarai"
	// ConfigFile is the config file name
	ConfigFile = "config.json"
)

// FileSystem abstracts file operations for testability
type FileSystem interface {
	UserHomeDir() (string, error)
	ReadFile(path string) ([]byte, error)
}

// ConfigFileReader implements FileSystem using the real OS for config loading
type ConfigFileReader struct{}

func (ConfigFileReader) UserHomeDir() (string, error) {
	return os.UserHomeDir()
}

func (ConfigFileReader) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Loader handles configuration loading with injected dependencies
type Loader struct {
	fs  FileSystem
	env func(string) string
}

// NewLoader creates a production Loader using the real filesystem
func NewLoader() *Loader {
	return &Loader{fs: ConfigFileReader{}, env: os.Getenv}
}

// NewLoaderWithFS creates a Loader with a custom filesystem and environment
// lookup (for testing). A nil env behaves like an empty environment.
func NewLoaderWithFS(fs FileSystem, env func(string) string) *Loader {
	if env == nil {
		env = func(string) string { return "" }
	}
	return &Loader{fs: fs, env: env}
}

// Load reads configuration from ~/.config/minarai/config.json and merges
// it with defaults, then applies environment overrides on top. Dotfile
// values override defaults; environment variables override both.
// Returns default config if dotfile doesn't exist.
// Returns error only for parse errors, permission issues, or validation failures.
//
// NOTE: This implementation unmarshals JSON keys directly over the default
// configuration. This allows explicit zero values (e.g., 0, false, "") in the
// config file to override defaults.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	homeDir, err := l.fs.UserHomeDir()
	if err != nil {
		l.applyEnv(cfg)
		return cfg, cfg.Validate()
	}

	configPath := filepath.Join(homeDir, ".config", ConfigDir, ConfigFile)

	data, err := l.fs.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			l.applyEnv(cfg)
			return cfg, cfg.Validate()
		}
		return nil, err // Return error for permission issues
	}

	// Parse JSON directly into the default config struct.
	// This ensures that present keys overwrite defaults (even if zero),
	// while missing keys leave the defaults untouched.
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err // Return error for malformed JSON
	}

	l.applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnv layers environment variables over the merged config. These win
// over both defaults and dotfile values so a shell export always sticks.
func (l *Loader) applyEnv(cfg *Config) {
	if v := l.env("OLLAMA_BASE_URL"); v != "" {
		cfg.Model.OllamaURL = v
	}
	if v := l.env("MINARAI_PROVIDER"); v != "" {
		cfg.Model.Provider = v
	}
	if v := l.env("MINARAI_MODEL"); v != "" {
		cfg.Model.OllamaModel = v
	}
	if v := l.env("GEMINI_API_KEY"); v != "" {
		cfg.Model.GeminiAPIKey = v
	}
	if v := l.env("MINARAI_MODE"); v != "" {
		cfg.Agent.Mode = v
	}
	if v := l.env("MINARAI_SESSION_DIR"); v != "" {
		cfg.Session.Dir = v
	}
	if v := l.env("MINARAI_MAX_ITERATIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Agent.MaxIterations = n
		}
	}
}

// SessionDir resolves the session log directory, falling back to
// ~/.local/share/minarai/sessions when unset.
func (c *Config) SessionDir() (string, error) {
	if c.Session.Dir != "" {
		return c.Session.Dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", "minarai", "sessions"), nil
}

// Load is a convenience function using the default loader
func Load() (*Config, error) {
	return NewLoader().Load()
}
