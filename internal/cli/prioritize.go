package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"pomofocus/backend/internal/config"
	"pomofocus/backend/internal/prioritize"
)

// newCompleterFunc builds the model client. Tests replace it.
var newCompleterFunc = func(cfg config.AIConfig) prioritize.Completer {
	return prioritize.NewAnthropicClient(cfg.APIKey, cfg.BaseURL, cfg.Model)
}

type prioritizeOptions struct {
	File    string
	Timeout time.Duration
}

func newPrioritizeCommand() *cobra.Command {
	var opts prioritizeOptions

	cmd := &cobra.Command{
		Use:   "prioritize",
		Short: "Rank tasks with an AI model",
		Long: `Rank tasks by deadline and estimated effort.

The file lists the tasks as YAML:

  tasks:
    - name: Write report
      deadline: 2025-03-01
      estimatedEffort: 3h

Requires ANTHROPIC_API_KEY.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			req, err := readTaskFile(opts.File)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.Timeout)
			defer cancel()

			result, err := prioritize.New(newCompleterFunc(cfg.AI)).Prioritize(ctx, req)
			if err != nil {
				if errors.Is(err, prioritize.ErrUnavailable) {
					return errors.New("ANTHROPIC_API_KEY is not set")
				}
				return err
			}
			return printRanking(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "YAML file with the tasks to rank")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 2*time.Minute, "Give up waiting for the model after this long")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func readTaskFile(path string) (prioritize.Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return prioritize.Request{}, fmt.Errorf("read tasks: %w", err)
	}
	var req prioritize.Request
	if err := yaml.Unmarshal(data, &req); err != nil {
		return prioritize.Request{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return req, nil
}

func printRanking(w io.Writer, result *prioritize.Result) error {
	for i, task := range result.PrioritizedTasks {
		if _, err := fmt.Fprintf(w, "%d. %s (priority %d)\n   %s\n", i+1, task.Name, task.Priority, task.Reason); err != nil {
			return err
		}
	}
	return nil
}
