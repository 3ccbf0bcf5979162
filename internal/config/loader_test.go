package config

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockFileSystem implements FileSystem for testing.
type MockFileSystem struct {
	HomeDir     string
	HomeDirErr  error
	Files       map[string][]byte
	ReadFileErr error
}

func (m *MockFileSystem) UserHomeDir() (string, error) {
	return m.HomeDir, m.HomeDirErr
}

func (m *MockFileSystem) ReadFile(path string) ([]byte, error) {
	if m.ReadFileErr != nil {
		return nil, m.ReadFileErr
	}
	data, ok := m.Files[path]
	if !ok {
		return nil, os.ErrNotExist
	}
	return data, nil
}

func envFrom(vars map[string]string) func(string) string {
	return func(key string) string { return vars[key] }
}

// --- HAPPY PATH TESTS ---

func TestLoad_NoConfigFile_ReturnsDefaults(t *testing.T) {
	// Config file doesn't exist - should return all defaults
	fs := &MockFileSystem{
		HomeDir: "/home/user",
		Files:   map[string][]byte{}, // Empty - no config file
	}
	loader := NewLoaderWithFS(fs, nil)

	cfg, err := loader.Load()

	require.NoError(t, err)
	assert.Equal(t, "ollama", cfg.Model.Provider)
	assert.Equal(t, "http://localhost:11434", cfg.Model.OllamaURL)
	assert.Equal(t, 50, cfg.Agent.MaxIterations)
	assert.Equal(t, 50, cfg.Rules.MaxLines)
}

func TestLoad_FullOverride_AllValuesReplaced(t *testing.T) {
	configJSON := `{
		"model": {"provider": "gemini", "ollama_url": "http://box:11434", "ollama_model": "llama3", "max_retries": 5},
		"agent": {"mode": "py5", "max_iterations": 10, "research": true},
		"rules": {"max_lines": 80, "max_files": 2},
		"session": {"dir": "/tmp/sessions"}
	}`
	fs := &MockFileSystem{
		HomeDir: "/home/user",
		Files: map[string][]byte{
			"/home/user/.config/minarai/config.json": []byte(configJSON),
		},
	}
	loader := NewLoaderWithFS(fs, nil)

	cfg, err := loader.Load()

	require.NoError(t, err)
	assert.Equal(t, "gemini", cfg.Model.Provider)
	assert.Equal(t, "http://box:11434", cfg.Model.OllamaURL)
	assert.Equal(t, "llama3", cfg.Model.OllamaModel)
	assert.Equal(t, 5, cfg.Model.MaxRetries)
	assert.Equal(t, "py5", cfg.Agent.Mode)
	assert.True(t, cfg.Agent.Research)
	assert.Equal(t, 80, cfg.Rules.MaxLines)
	assert.Equal(t, "/tmp/sessions", cfg.Session.Dir)
}

func TestLoad_PartialOverride_MergesWithDefaults(t *testing.T) {
	// Config file only overrides max_iterations - rest should be defaults
	configJSON := `{"agent": {"max_iterations": 20}}`
	fs := &MockFileSystem{
		HomeDir: "/home/user",
		Files: map[string][]byte{
			"/home/user/.config/minarai/config.json": []byte(configJSON),
		},
	}
	loader := NewLoaderWithFS(fs, nil)

	cfg, err := loader.Load()

	require.NoError(t, err)
	assert.Equal(t, 20, cfg.Agent.MaxIterations)              // Overridden
	assert.Equal(t, "python_basic", cfg.Agent.Mode)           // Default
	assert.Equal(t, "qwen2.5-coder:7b", cfg.Model.OllamaModel) // Default
}

func TestLoad_EmptyConfigFile_ReturnsDefaults(t *testing.T) {
	fs := &MockFileSystem{
		HomeDir: "/home/user",
		Files: map[string][]byte{
			"/home/user/.config/minarai/config.json": []byte(`{}`),
		},
	}
	loader := NewLoaderWithFS(fs, nil)

	cfg, err := loader.Load()

	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Agent.MaxIterations)
}

// --- ENVIRONMENT OVERRIDES ---

func TestLoad_EnvOverridesDotfile(t *testing.T) {
	configJSON := `{"model": {"ollama_url": "http://dotfile:11434"}, "agent": {"mode": "pandas"}}`
	fs := &MockFileSystem{
		HomeDir: "/home/user",
		Files: map[string][]byte{
			"/home/user/.config/minarai/config.json": []byte(configJSON),
		},
	}
	loader := NewLoaderWithFS(fs, envFrom(map[string]string{
		"OLLAMA_BASE_URL": "http://env:11434",
		"MINARAI_MODE":    "sklearn",
		"GEMINI_API_KEY":  "sk-test",
	}))

	cfg, err := loader.Load()

	require.NoError(t, err)
	assert.Equal(t, "http://env:11434", cfg.Model.OllamaURL)
	assert.Equal(t, "sklearn", cfg.Agent.Mode)
	assert.Equal(t, "sk-test", cfg.Model.GeminiAPIKey)
}

func TestLoad_EnvOnNoDotfile(t *testing.T) {
	fs := &MockFileSystem{HomeDir: "/home/user", Files: map[string][]byte{}}
	loader := NewLoaderWithFS(fs, envFrom(map[string]string{
		"MINARAI_MODEL":          "codellama",
		"MINARAI_MAX_ITERATIONS": "7",
	}))

	cfg, err := loader.Load()

	require.NoError(t, err)
	assert.Equal(t, "codellama", cfg.Model.OllamaModel)
	assert.Equal(t, 7, cfg.Agent.MaxIterations)
}

func TestLoad_EnvBadInteger_Ignored(t *testing.T) {
	fs := &MockFileSystem{HomeDir: "/home/user", Files: map[string][]byte{}}
	loader := NewLoaderWithFS(fs, envFrom(map[string]string{
		"MINARAI_MAX_ITERATIONS": "lots",
	}))

	cfg, err := loader.Load()

	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Agent.MaxIterations)
}

// --- UNHAPPY PATH TESTS ---

func TestLoad_MalformedJSON_ReturnsError(t *testing.T) {
	fs := &MockFileSystem{
		HomeDir: "/home/user",
		Files: map[string][]byte{
			"/home/user/.config/minarai/config.json": []byte(`{invalid json`),
		},
	}
	loader := NewLoaderWithFS(fs, nil)

	cfg, err := loader.Load()

	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "invalid")
}

func TestLoad_PermissionDenied_ReturnsError(t *testing.T) {
	fs := &MockFileSystem{
		HomeDir:     "/home/user",
		ReadFileErr: os.ErrPermission,
	}
	loader := NewLoaderWithFS(fs, nil)

	cfg, err := loader.Load()

	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.True(t, errors.Is(err, os.ErrPermission))
}

func TestLoad_HomeDirError_ReturnsDefaults(t *testing.T) {
	// Can't determine home dir - gracefully fall back to defaults
	fs := &MockFileSystem{
		HomeDirErr: errors.New("homeless"),
	}
	loader := NewLoaderWithFS(fs, nil)

	cfg, err := loader.Load()

	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Agent.MaxIterations) // Default
}

func TestLoad_InvalidMergedConfig_ReturnsError(t *testing.T) {
	configJSON := `{"agent": {"max_iterations": 0}}`
	fs := &MockFileSystem{
		HomeDir: "/home/user",
		Files: map[string][]byte{
			"/home/user/.config/minarai/config.json": []byte(configJSON),
		},
	}
	loader := NewLoaderWithFS(fs, nil)

	cfg, err := loader.Load()

	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "max_iterations")
}

func TestSessionDir_ExplicitValueWins(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Session.Dir = "/var/log/minarai"

	dir, err := cfg.SessionDir()

	require.NoError(t, err)
	assert.Equal(t, "/var/log/minarai", dir)
}
