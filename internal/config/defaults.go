package config

// Config holds all application configuration values.
// Defaults are set in DefaultConfig() and can be overridden via dotfile.
// NOTE: Values in config files override defaults, including explicit zero values.
// Missing keys are left at their default values.
type Config struct {
	Model   ModelConfig   `json:"model"`
	Agent   AgentConfig   `json:"agent"`
	Rules   RulesConfig   `json:"rules"`
	Session SessionConfig `json:"session"`
}

type ModelConfig struct {
	// Provider selects the completion backend: "ollama" or "gemini".
	Provider string `json:"provider"` // Default: "ollama"

	// Ollama
	OllamaURL   string `json:"ollama_url"`   // Default: "http://localhost:11434"
	OllamaModel string `json:"ollama_model"` // Default: "qwen2.5-coder:7b"

	// Gemini
	GeminiModel string `json:"gemini_model"` // Default: "gemini-2.0-flash"
	// GeminiAPIKey is normally supplied via GEMINI_API_KEY instead of the dotfile.
	GeminiAPIKey string `json:"gemini_api_key"`

	// Transport
	MaxRetries    int `json:"max_retries"`     // Default: 3
	RetryDelayMs  int `json:"retry_delay_ms"`  // Default: 1000
	ChunkTimeoutS int `json:"chunk_timeout_s"` // Default: 120
	StreamPollMs  int `json:"stream_poll_ms"`  // Default: 100
	HTTPTimeoutS  int `json:"http_timeout_s"`  // Default: 300
}

type AgentConfig struct {
	Mode          string `json:"mode"`           // Default: "python_basic"
	MaxIterations int    `json:"max_iterations"` // Default: 50
	Research      bool   `json:"research"`       // Default: false
	// OverlayPath points at an optional YAML policy overlay.
	OverlayPath string `json:"overlay_path"`
}

type RulesConfig struct {
	MaxLines int `json:"max_lines"` // Default: 50
	MaxFiles int `json:"max_files"` // Default: 1
}

type SessionConfig struct {
	// Dir is where session logs are written. Empty means
	// ~/.local/share/minarai/sessions resolved at startup.
	Dir string `json:"dir"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Model: ModelConfig{
			Provider:      "ollama",
			OllamaURL:     "http://localhost:11434",
			OllamaModel:   "qwen2.5-coder:7b",
			GeminiModel:   "gemini-2.0-flash",
			MaxRetries:    3,
			RetryDelayMs:  1000,
			ChunkTimeoutS: 120,
			StreamPollMs:  100,
			HTTPTimeoutS:  300,
		},
		Agent: AgentConfig{
			Mode:          "python_basic",
			MaxIterations: 50,
		},
		Rules: RulesConfig{
			MaxLines: 50,
			MaxFiles: 1,
		},
	}
}
