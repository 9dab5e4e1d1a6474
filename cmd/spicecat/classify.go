package main

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/Veraticus/spicecat/internal/cli"
	"github.com/Veraticus/spicecat/internal/model"
)

func classifyCmd() *cobra.Command {
	var (
		req    model.ClassificationRequest
		amount string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify a single transaction",
		Long: `Classify one transaction and explain the decision.

Fields left empty are filled from the stored transaction with the same id.

Examples:
  spicecat classify --id t3
  spicecat classify --id t99 --description "UBER *TRIP 1234" --merchant m_uber --mcc 4121`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			if amount != "" {
				value, err := decimal.NewFromString(amount)
				if err != nil {
					return fmt.Errorf("invalid amount %q: %w", amount, err)
				}
				req.Amount = decimal.NewNullDecimal(value)
			}

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

			result, err := engine.Classify(ctx, req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
			enc.SetEscapeHTML(false)
				return enc.Encode(result)
			}
			fmt.Fprintln(out, cli.RenderResult(result))
			return nil
		},
	}

	cmd.Flags().StringVar(&req.ID, "id", "", "transaction id (required)")
	cmd.Flags().StringVar(&req.RawDescription, "description", "", "raw transaction description")
	cmd.Flags().StringVar(&req.MerchantID, "merchant", "", "merchant id")
	cmd.Flags().StringVar(&req.MCC, "mcc", "", "merchant category code")
	cmd.Flags().StringVar(&req.Currency, "currency", "", "ISO currency code")
	cmd.Flags().StringVar(&req.Channel, "channel", "", "payment channel (pos, ecom, atm, ...)")
	cmd.Flags().StringVar(&req.UserID, "user", "", "user id")
	cmd.Flags().StringVar(&amount, "amount", "", "transaction amount")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	_ = cmd.MarkFlagRequired("id")

	return cmd
}
