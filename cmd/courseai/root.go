package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/garyellow/courseai-go/internal/app"
	"github.com/garyellow/courseai-go/internal/buildinfo"
)

type rootOptions struct {
	open     openFunc
	useLLM   bool
	logLevel string
}

func newRootCommand(open openFunc) *cobra.Command {
	opts := &rootOptions{open: open}

	cmd := &cobra.Command{
		Use:   "courseai",
		Short: "Ask which courses and instructors grade easy or hard",
		Long: `courseai answers questions about historical course grades.

Ask in plain words, e.g. "easy cs 580 recent" or "details cs 580 yu".
Without arguments "courseai ask" starts an interactive session.`,
		Version:      buildinfo.String(),
		SilenceUsage: true,
	}

	cmd.PersistentFlags().BoolVar(&opts.useLLM, "llm", false,
		"Parse questions with the configured LLM (default from COURSEAI_USE_LLM)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn",
		"Log level written to stderr (debug, info, warn, error)")

	cmd.AddCommand(newAskCommand(opts))
	cmd.AddCommand(newParseCommand(opts))
	cmd.AddCommand(newDetailsCommand(opts))
	cmd.AddCommand(newSnapshotCommand(opts))

	return cmd
}

// openBackend opens the application with logs on the command's stderr.
func (o *rootOptions) openBackend(cmd *cobra.Command, skipSnapshot bool) (backend, error) {
	b, err := o.open(cmd.Context(), app.Options{
		LogWriter:    cmd.ErrOrStderr(),
		LogLevel:     o.logLevel,
		SkipSnapshot: skipSnapshot,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize: %w", err)
	}
	return b, nil
}

// llmEnabled prefers the --llm flag and falls back to configuration.
func (o *rootOptions) llmEnabled(cmd *cobra.Command, b backend) bool {
	if cmd.Flags().Changed("llm") {
		return o.useLLM
	}
	return b.Config().UseLLM
}

func closeBackend(cmd *cobra.Command, b backend) {
	if err := b.Close(context.WithoutCancel(cmd.Context())); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
	}
}

func contextWithTimeout(cmd *cobra.Command, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), d)
}
