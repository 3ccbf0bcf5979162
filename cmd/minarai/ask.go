package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a single question and print the answer",
	Long: `Ask runs one tutoring turn without the interactive interface. The
tutor can still write example files into the working directory.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAsk(cmd.Context(), strings.Join(args, " "))
	},
}

func runAsk(ctx context.Context, question string) error {
	cfg := loadConfig()

	logger, err := buildLogger()
	if err != nil {
		return err
	}

	app, err := buildApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	fmt.Println(app.agent.RunTurn(ctx, question))

	if cfg.Agent.Research {
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, app.metrics.Display())
	}
	return nil
}
