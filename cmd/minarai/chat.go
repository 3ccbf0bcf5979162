package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"minarai/internal/ui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start the interactive chat interface (default)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd.Context())
	},
}

func runChat(ctx context.Context) error {
	cfg := loadConfig()

	// Chat owns the terminal, keep logging quiet.
	app, err := buildApp(ctx, cfg, zap.NewNop())
	if err != nil {
		return err
	}
	defer app.Close()

	if app.ollama != nil && !app.ollama.Ping(ctx) {
		fmt.Fprintf(os.Stderr, "Warning: %s is unreachable or model %q is not installed.\n",
			cfg.Model.OllamaURL, app.model)
		fmt.Fprintf(os.Stderr, "Start it with: ollama serve, then: ollama pull %s\n", app.model)
	}

	renderer, err := ui.NewMarkdownRenderer(100)
	if err != nil {
		renderer = ui.PlainRenderer{}
	}

	params := ui.Params{
		Runner:         app.agent,
		Renderer:       renderer,
		MetricsSummary: app.metrics.Display,
		ModelName:      app.model,
		ModeName:       cfg.Agent.Mode,
	}
	if app.ollama != nil {
		params.ListModels = app.listModelNames
		params.SwitchModel = app.ollama.SetModel
	}

	if err := ui.Run(params); err != nil {
		return fmt.Errorf("running chat interface: %w", err)
	}

	fmt.Println("Session summary:")
	fmt.Println(app.metrics.Display())
	return nil
}
