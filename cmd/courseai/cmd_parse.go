package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/garyellow/courseai-go/internal/query"
	"github.com/garyellow/courseai-go/internal/render"
)

func newParseCommand(root *rootOptions) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "parse <question...>",
		Short: "Print the canonical intent for a question without querying",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := root.openBackend(cmd, true)
			if err != nil {
				return err
			}
			defer closeBackend(cmd, b)

			res, err := b.Service().Resolve(cmd.Context(), query.Request{
				Message:  strings.Join(args, " "),
				UseLLM:   root.llmEnabled(cmd, b),
				Strict:   strict,
				ClientID: "cli",
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "parser: %s", res.Parser)
			if res.FallbackReason != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), " (fallback: %s)", res.FallbackReason)
			}
			fmt.Fprintln(cmd.ErrOrStderr())
			return render.NewPlain(cmd.OutOrStdout()).Intent(res.Intent)
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "With --llm, fail instead of falling back to the rule parser")
	return cmd
}
