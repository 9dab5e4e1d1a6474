package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Veraticus/spicecat/internal/cli"
	"github.com/Veraticus/spicecat/internal/common"
	"github.com/Veraticus/spicecat/internal/config"
	"github.com/Veraticus/spicecat/internal/model"
	"github.com/Veraticus/spicecat/internal/sheets"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export classification results",
	}
	cmd.AddCommand(exportSheetsCmd())
	return cmd
}

func exportSheetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sheets <results.jsonl|->",
		Short: "Write bulk results to a Google Sheets spreadsheet",
		Long: `Write the output of 'spicecat bulk' to Google Sheets.

Authentication uses either OAuth2 (sheets.client_id, sheets.client_secret,
sheets.refresh_token) or a service account (sheets.service_account_path).
The GOOGLE_SHEETS_* environment variables are used when the keys are unset.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			items, err := readItems(args[0], cmd)
			if err != nil {
				return err
			}

			cfg, err := config.LoadSheetsConfig()
			if err != nil {
				return common.NewUserError("Google Sheets is not configured", "set sheets.service_account_path, or the sheets.client_id/client_secret/refresh_token trio", err)
			}
			writer, err := sheets.NewWriter(ctx, *cfg, slog.Default())
			if err != nil {
				return err
			}

			spreadsheetID, err := writer.Write(ctx, items)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf(
				"Exported %d results to https://docs.google.com/spreadsheets/d/%s", len(items), spreadsheetID)))
			return nil
		},
	}
}

func readItems(path string, cmd *cobra.Command) ([]model.BulkItem, error) {
	in, err := openInput(path, cmd.InOrStdin())
	if err != nil {
		return nil, err
	}
	defer func() { _ = in.Close() }()

	items, err := cli.ReadItems(in)
	if err != nil {
		return nil, fmt.Errorf("failed to read results: %w", err)
	}
	return items, nil
}
