package main

import (
	"github.com/spf13/cobra"

	"github.com/Veraticus/spicecat/internal/tui"
)

func reviewCmd() *cobra.Command {
	var lowConfidence float64

	cmd := &cobra.Command{
		Use:   "review <results.jsonl>",
		Short: "Browse bulk results interactively",
		Long: `Open an interactive table of bulk results with the reasons behind each
category. Press f to cycle filters (failed, low confidence, uncategorized) and
? for help.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := readItems(args[0], cmd)
			if err != nil {
				return err
			}
			return tui.Run(cmd.Context(), items, tui.WithLowConfidence(lowConfidence))
		},
	}

	cmd.Flags().Float64Var(&lowConfidence, "low-confidence", 0.4, "confidence below which a result counts as low")
	return cmd
}
