package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"minarai/internal/agent"
	"minarai/internal/config"
	"minarai/internal/gemini"
	"minarai/internal/llm"
	"minarai/internal/metrics"
	"minarai/internal/policy"
	"minarai/internal/security"
	"minarai/internal/session"
	"minarai/internal/tool"
	"minarai/internal/validate"
)

// app bundles one fully wired tutoring session.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	agent   *agent.Agent
	metrics *metrics.Metrics
	session *session.Session
	ollama  *llm.Client // nil when the provider is gemini
	model   string
}

func buildApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	workdir := flagWorkdir
	if workdir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("determining working directory: %w", err)
		}
		workdir = wd
	}

	profile, err := policy.NewProfile(policy.Mode(cfg.Agent.Mode))
	if err != nil {
		return nil, err
	}
	if cfg.Agent.OverlayPath != "" {
		if err := policy.LoadOverlay(cfg.Agent.OverlayPath, profile); err != nil {
			return nil, fmt.Errorf("loading policy overlay: %w", err)
		}
	}
	engine := policy.NewEngine(profile)

	gate, err := security.NewGate(workdir)
	if err != nil {
		return nil, fmt.Errorf("resolving workspace root: %w", err)
	}

	registry := tool.NewRegistry(gate, engine, logger)
	validator := validate.New(profile).WithLimits(cfg.Rules.MaxLines, cfg.Rules.MaxFiles)

	sessDir, err := cfg.SessionDir()
	if err != nil {
		return nil, fmt.Errorf("resolving session directory: %w", err)
	}
	sess, err := session.New(sessDir, logger)
	if err != nil {
		return nil, fmt.Errorf("opening session log: %w", err)
	}

	mets := metrics.New()

	var completer llm.Completer
	var ollamaClient *llm.Client
	modelName := cfg.Model.OllamaModel

	switch cfg.Model.Provider {
	case "gemini":
		if cfg.Model.GeminiAPIKey == "" {
			return nil, fmt.Errorf("gemini provider requires GEMINI_API_KEY (or model.gemini_api_key in the config file)")
		}
		gc, err := gemini.NewClient(ctx, cfg.Model.GeminiAPIKey, cfg.Model.GeminiModel)
		if err != nil {
			return nil, fmt.Errorf("creating gemini client: %w", err)
		}
		completer = gc
		modelName = cfg.Model.GeminiModel
	default:
		ollamaClient = llm.NewClient(cfg.Model.OllamaURL, cfg.Model.OllamaModel, llm.Options{
			MaxRetries:   cfg.Model.MaxRetries,
			RetryDelay:   time.Duration(cfg.Model.RetryDelayMs) * time.Millisecond,
			ChunkTimeout: time.Duration(cfg.Model.ChunkTimeoutS) * time.Second,
			PollInterval: time.Duration(cfg.Model.StreamPollMs) * time.Millisecond,
			HTTPTimeout:  time.Duration(cfg.Model.HTTPTimeoutS) * time.Second,
			Logger:       logger,
		})
		completer = ollamaClient
	}

	ag := agent.New(completer, engine, registry, validator, sess, mets, agent.Options{
		MaxIterations: cfg.Agent.MaxIterations,
		Research:      cfg.Agent.Research,
		Logger:        logger,
	})

	return &app{
		cfg:     cfg,
		logger:  logger,
		agent:   ag,
		metrics: mets,
		session: sess,
		ollama:  ollamaClient,
		model:   modelName,
	}, nil
}

func (a *app) Close() {
	if a.session != nil {
		_ = a.session.Close()
	}
	_ = a.logger.Sync()
}

// listModelNames adapts the tags endpoint for the model popup.
func (a *app) listModelNames(ctx context.Context) ([]string, error) {
	models, err := a.ollama.ListModels(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(models))
	for _, m := range models {
		names = append(names, m.Name)
	}
	return names, nil
}
