package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	apperrors "github.com/garyellow/courseai-go/internal/errors"
	"github.com/garyellow/courseai-go/internal/intent"
	"github.com/garyellow/courseai-go/internal/query"
	"github.com/garyellow/courseai-go/internal/render"
)

var helpText = `Examples:
  - easy cs 580
  - hard cs electives 500-level recent
  - show easy ml courses
  - details cs 580 yu
Topics:
  - ` + strings.Join(intent.KnownKeywordTags(), ", ") + `
Flags:
  - --explain  (prints why a result ranked)

LLM mode:
  - Start with --llm or set COURSEAI_USE_LLM=true to use the AI intent parser.`

type askOptions struct {
	*rootOptions
	strict bool
	topN   int
	json   bool
}

func newAskCommand(root *rootOptions) *cobra.Command {
	opts := &askOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "ask [question...]",
		Short: "Answer a question, or start an interactive session",
		Long: `Answer one question given as arguments, or read questions line by line.

In the interactive session type 'help' for tips and 'exit' to quit.`,
		RunE: opts.run,
	}

	cmd.Flags().BoolVar(&opts.strict, "strict", false, "With --llm, fail instead of falling back to the rule parser")
	cmd.Flags().IntVar(&opts.topN, "top-n", 0, "Number of ranked results (0 uses the configured default)")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Print the response as JSON")

	return cmd
}

func (o *askOptions) run(cmd *cobra.Command, args []string) error {
	b, err := o.openBackend(cmd, false)
	if err != nil {
		return err
	}
	defer closeBackend(cmd, b)

	s := &session{
		svc:    b.Service(),
		out:    cmd.OutOrStdout(),
		r:      render.New(cmd.OutOrStdout()),
		useLLM: o.llmEnabled(cmd, b),
		strict: o.strict,
		topN:   o.topN,
		json:   o.json,
	}

	if len(args) > 0 {
		return s.answer(cmd.Context(), strings.Join(args, " "))
	}
	return s.repl(cmd.Context(), cmd.InOrStdin())
}

type session struct {
	svc    *query.Service
	out    io.Writer
	r      *render.Renderer
	useLLM bool
	strict bool
	topN   int
	json   bool
}

func (s *session) answer(ctx context.Context, text string) error {
	resp, err := s.svc.Ask(ctx, query.Request{
		Message:  text,
		UseLLM:   s.useLLM,
		Strict:   s.strict,
		TopN:     s.topN,
		ClientID: "cli",
	})
	if err != nil {
		return err
	}
	if s.json {
		enc := json.NewEncoder(s.out)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}
	s.r.Response(resp)
	return nil
}

// repl answers one question per line until EOF, exit or quit. Failed
// questions print a message and the loop continues.
func (s *session) repl(ctx context.Context, in io.Reader) error {
	s.r.Title("UICourseAI Chatbot")
	s.r.Note("Type queries like: 'easy cs 580', 'hard cs 580', 'show easy ml courses', 'easy data cs', 'easy cs 580 recent'")
	s.r.Note("Type 'help' for tips. Type 'exit' to quit.")
	if s.useLLM {
		s.r.Note("Using the LLM intent parser.")
	}
	fmt.Fprintln(s.out)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(s.out, "You: ")
		if !scanner.Scan() {
			fmt.Fprintln(s.out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "exit", "quit":
			return nil
		case "help":
			fmt.Fprintln(s.out, helpText)
			continue
		}

		if err := s.answer(ctx, line); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.r.Warn(apperrors.GetUserMessage(err))
		}
	}
}
