package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Veraticus/spicecat/internal/classify"
	"github.com/Veraticus/spicecat/internal/cli"
	"github.com/Veraticus/spicecat/internal/model"
)

type bulkOptions struct {
	format   string
	stream   bool
	progress io.Writer
}

func bulkCmd() *cobra.Command {
	var (
		opts     bulkOptions
		output   string
		progress bool
		stored   bool
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "bulk [file|-]",
		Short: "Classify many transactions at once",
		Long: `Classify a batch of requests read from a file or stdin.

Input is either a JSON array of requests or one request per line. Each output
item carries the request index and either a result or an error.

Examples:
  spicecat bulk requests.jsonl > results.jsonl
  cat requests.json | spicecat bulk --format array
  spicecat bulk --stored --limit 200 --stream --progress`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := store.Close(); cerr != nil {
					slog.Error("failed to close database", "error", cerr)
				}
			}()

			engine, err := newEngine(store)
			if err != nil {
				return err
			}

			var reqs []model.ClassificationRequest
			if stored {
				if len(args) > 0 {
					return errors.New("--stored does not take an input file")
				}
				if limit <= 0 {
					limit = engine.MaxBulkSize()
				}
				txns, err := store.ListTransactions(ctx, limit)
				if err != nil {
					return err
				}
				for _, txn := range txns {
					reqs = append(reqs, model.ClassificationRequest{ID: txn.ID})
				}
			} else {
				path := "-"
				if len(args) == 1 {
					path = args[0]
				}
				reqs, err = readRequests(path, cmd.InOrStdin())
				if err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", output, err)
				}
				defer func() { _ = f.Close() }()
				out = f
			}
			if progress {
				opts.progress = cmd.ErrOrStderr()
			}

			items, err := runBulk(ctx, engine, reqs, out, opts)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), cli.RenderSummary(cli.Summarize(items)))
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.format, "format", cli.FormatJSONL, "output format (jsonl, array)")
	cmd.Flags().BoolVar(&opts.stream, "stream", false, "write items as they complete instead of in input order")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write results to a file instead of stdout")
	cmd.Flags().BoolVar(&progress, "progress", false, "show a progress bar on stderr")
	cmd.Flags().BoolVar(&stored, "stored", false, "classify the most recent stored transactions")
	cmd.Flags().IntVar(&limit, "limit", 0, "with --stored, how many transactions to classify (default: classification.max_bulk)")

	return cmd
}

func readRequests(path string, stdin io.Reader) ([]model.ClassificationRequest, error) {
	in, err := openInput(path, stdin)
	if err != nil {
		return nil, err
	}
	defer func() { _ = in.Close() }()

	reqs, err := cli.ReadRequests(in)
	if err != nil {
		return nil, fmt.Errorf("failed to read requests: %w", err)
	}
	return reqs, nil
}

// runBulk classifies reqs and writes every item to out. Items are written in
// completion order when streaming, otherwise in input order. The returned
// slice is always in input order.
func runBulk(ctx context.Context, engine *classify.Engine, reqs []model.ClassificationRequest, out io.Writer, opts bulkOptions) ([]model.BulkItem, error) {
	writer, err := cli.NewItemWriter(out, opts.format)
	if err != nil {
		return nil, err
	}

	var bar *cli.Progress
	if opts.progress != nil {
		bar = cli.NewProgress(opts.progress, len(reqs))
		defer bar.Finish()
	}

	items := make([]model.BulkItem, len(reqs))
	err = engine.StreamBulk(ctx, reqs, func(item model.BulkItem) error {
		items[item.Index] = item
		if bar != nil {
			bar.Observe(item)
		}
		if opts.stream {
			return writer.Write(item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !opts.stream {
		for _, item := range items {
			if err := writer.Write(item); err != nil {
				return nil, err
			}
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}
	return items, nil
}
