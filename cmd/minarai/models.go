package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"minarai/internal/llm"
	"minarai/internal/policy"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List models installed on the Ollama endpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runModels(cmd.Context())
	},
}

func runModels(ctx context.Context) error {
	cfg := loadConfig()

	client := llm.NewClient(cfg.Model.OllamaURL, cfg.Model.OllamaModel, llm.Options{})
	models, err := client.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("listing models from %s: %w", cfg.Model.OllamaURL, err)
	}
	if len(models) == 0 {
		fmt.Println("No models installed. Pull one with: ollama pull " + cfg.Model.OllamaModel)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSIZE\tMODIFIED")
	for _, m := range models {
		name := m.Name
		if m.Name == cfg.Model.OllamaModel {
			name = "* " + name
		}
		fmt.Fprintf(w, "%s\t%.1f GB\t%s\n", name, float64(m.Size)/1e9, m.ModifiedAt)
	}
	return w.Flush()
}

var modesCmd = &cobra.Command{
	Use:   "modes",
	Short: "List available tutoring modes",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
		fmt.Fprintln(w, "MODE\tLANGUAGE\tTOOLS")
		for _, mode := range policy.Modes() {
			profile, err := policy.NewProfile(mode)
			if err != nil {
				return err
			}
			tools := make([]string, 0, len(profile.AllowedTools))
			for name := range profile.AllowedTools {
				tools = append(tools, name)
			}
			sort.Strings(tools)
			fmt.Fprintf(w, "%s\t%s\t%s\n", mode, profile.Language, strings.Join(tools, " "))
		}
		return w.Flush()
	},
}
