// Package main provides the minarai command-line interface, an interactive
// coding tutor backed by a local Ollama endpoint or the Gemini API.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"minarai/internal/config"
)

var (
	// Global flags
	flagMode     string
	flagModel    string
	flagProvider string
	flagWorkdir  string
	flagResearch bool
	flagVerbose  bool
)

var rootCmd = &cobra.Command{
	Use:   "minarai",
	Short: "minarai - an interactive coding tutor for beginners",
	Long: `minarai is an interactive coding tutor. It answers questions, writes
small example programs into your working directory, and explains the
rules it enforces (short programs, a fixed import allow-list, one
language at a time).

Run without arguments to start the interactive chat interface.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagMode, "mode", "", "tutoring mode (python_basic, py5, sklearn, pandas, web_basic, aframe, threejs)")
	rootCmd.PersistentFlags().StringVar(&flagModel, "model", "", "model name on the Ollama endpoint")
	rootCmd.PersistentFlags().StringVar(&flagProvider, "provider", "", "completion backend (ollama or gemini)")
	rootCmd.PersistentFlags().StringVar(&flagWorkdir, "workdir", "", "workspace directory the tutor may touch (default: current directory)")
	rootCmd.PersistentFlags().BoolVar(&flagResearch, "research", false, "log full turn traces to the session file")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(modesCmd)
}

// loadConfig loads the dotfile config, falling back to defaults on failure
// so a broken dotfile never blocks a tutoring session.
func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load config: %v\n", err)
		fmt.Fprintf(os.Stderr, "Using default configuration.\n")
		cfg = config.DefaultConfig()
	}
	applyFlags(cfg)
	return cfg
}

// applyFlags layers command line flags over the loaded config. Flags win
// over both the dotfile and the environment.
func applyFlags(cfg *config.Config) {
	if flagMode != "" {
		cfg.Agent.Mode = flagMode
	}
	if flagProvider != "" {
		cfg.Model.Provider = flagProvider
	}
	if flagModel != "" {
		cfg.Model.OllamaModel = flagModel
	}
	if flagResearch {
		cfg.Agent.Research = true
	}
}

// buildLogger creates the logger for non-interactive commands. Chat mode
// owns the terminal and uses a no-op logger instead.
func buildLogger() (*zap.Logger, error) {
	if !flagVerbose {
		return zap.NewNop(), nil
	}
	zcfg := zap.NewDevelopmentConfig()
	return zcfg.Build()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
