package main

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/phrazzld/scry-batch/internal/config"
	"github.com/phrazzld/scry-batch/internal/generation"
	"github.com/phrazzld/scry-batch/internal/platform/clock"
	"github.com/phrazzld/scry-batch/internal/platform/gemini"
	"github.com/spf13/cobra"
)

// generatorFactory builds the generator for a run.
type generatorFactory func(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (generation.Generator, error)

// deps are the collaborators a command needs beyond its flags.
type deps struct {
	newGenerator generatorFactory
	clock        clock.Clock
	stderr       io.Writer
}

func defaultDeps() deps {
	return deps{
		newGenerator: func(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (generation.Generator, error) {
			return gemini.NewGenerator(ctx, logger, cfg)
		},
		clock:  clock.Real{},
		stderr: os.Stderr,
	}
}

func newRootCmd(d deps) *cobra.Command {
	root := &cobra.Command{
		Use:           "batchctl",
		Short:         "Run document batches through the throttled generation pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("config", "", "Config file (default: ./config.yaml if present)")
	root.PersistentFlags().String("log-level", "warn", "Log level: debug, info, warn, error")

	root.AddCommand(newRunCmd(d))
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.Printf("batchctl %s (commit %s, built %s)\n", version, commit, buildDate)
			return nil
		},
	}
}
