package config

import (
	"fmt"
	"strings"
)

// Validate checks config values for correctness.
// Returns an error if any values are invalid.
func (c *Config) Validate() error {
	var errs []string

	switch c.Model.Provider {
	case "ollama", "gemini":
	default:
		errs = append(errs, fmt.Sprintf("model.provider must be \"ollama\" or \"gemini\", got %q", c.Model.Provider))
	}
	if c.Model.OllamaURL == "" {
		errs = append(errs, "model.ollama_url must not be empty")
	}
	if c.Model.OllamaModel == "" {
		errs = append(errs, "model.ollama_model must not be empty")
	}
	if c.Model.MaxRetries < 0 {
		errs = append(errs, "model.max_retries must be >= 0")
	}
	if c.Model.RetryDelayMs < 0 {
		errs = append(errs, "model.retry_delay_ms must be >= 0")
	}
	if c.Model.ChunkTimeoutS < 1 {
		errs = append(errs, "model.chunk_timeout_s must be >= 1")
	}
	if c.Model.StreamPollMs < 1 {
		errs = append(errs, "model.stream_poll_ms must be >= 1")
	}
	if c.Model.HTTPTimeoutS < 0 {
		errs = append(errs, "model.http_timeout_s must be >= 0")
	}

	if c.Agent.Mode == "" {
		errs = append(errs, "agent.mode must not be empty")
	}
	if c.Agent.MaxIterations < 1 {
		errs = append(errs, "agent.max_iterations must be >= 1")
	}

	if c.Rules.MaxLines < 1 {
		errs = append(errs, "rules.max_lines must be >= 1")
	}
	if c.Rules.MaxFiles < 1 {
		errs = append(errs, "rules.max_files must be >= 1")
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}
