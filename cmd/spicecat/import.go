package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/spicecat/internal/cli"
	"github.com/Veraticus/spicecat/internal/common"
	"github.com/Veraticus/spicecat/internal/config"
	"github.com/Veraticus/spicecat/internal/model"
	"github.com/Veraticus/spicecat/internal/ofx"
	"github.com/Veraticus/spicecat/internal/plaid"
	"github.com/Veraticus/spicecat/internal/seed"
)

const importDateLayout = "2006-01-02"

// importStore is what an import needs from storage.
type importStore interface {
	ListMerchants(ctx context.Context) ([]model.Merchant, error)
	SaveTransactions(ctx context.Context, transactions []model.Transaction) error
}

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import transactions for later classification",
		Long: `Import transactions into the local database. Stored transactions let
classification requests name only an id and have the rest filled in.`,
	}
	cmd.PersistentFlags().BoolP("dry-run", "d", false, "Preview import without saving")
	cmd.PersistentFlags().String("user", "", "user id stamped on imported transactions")
	cmd.AddCommand(importOFXCmd(), importPlaidCmd())
	return cmd
}

func importOFXCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ofx [files...]",
		Short: "Import transactions from OFX/QFX files",
		Long: `Import transactions from OFX or QFX files exported from your bank.

Examples:
  spicecat import ofx ~/Downloads/chase_jan.qfx
  spicecat import ofx ~/Downloads/Chase/*.qfx ~/Downloads/Ally/*.qfx`,
		Args: cobra.MinimumNArgs(1),
		RunE: runImportOFX,
	}
}

func runImportOFX(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	user, _ := cmd.Flags().GetString("user")

	files, err := expandFiles(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return errors.New("no files found to import")
	}

	slog.Info("🌶️  Importing OFX files...", "file_count", len(files), "dry_run", dryRun)

	parser := ofx.NewParser(user)
	var all []model.Transaction
	for _, file := range files {
		txns, err := parseOFXFile(ctx, parser, file)
		if err != nil {
			slog.Error("Failed to parse file", "file", file, "error", err)
			continue
		}
		slog.Info("Parsed file", "file", file, "transactions", len(txns))
		all = append(all, txns...)
	}
	if len(all) == 0 {
		return errors.New("no transactions found in the given files")
	}

	return importTransactions(ctx, cmd.OutOrStdout(), all, dryRun)
}

func parseOFXFile(ctx context.Context, parser *ofx.Parser, path string) ([]model.Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return parser.ParseFile(ctx, f)
}

func importPlaidCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plaid",
		Short: "Import transactions from a linked Plaid account",
		Long: `Fetch transactions from Plaid for a date range.

Credentials come from plaid.client_id, plaid.secret, plaid.access_token and
plaid.environment, or the PLAID_CLIENT_ID, PLAID_SECRET, PLAID_ACCESS_TOKEN
and PLAID_ENV environment variables.`,
		Args: cobra.NoArgs,
		RunE: runImportPlaid,
	}
	cmd.Flags().String("start", "", "first posting date (YYYY-MM-DD, default: 30 days ago)")
	cmd.Flags().String("end", "", "last posting date (YYYY-MM-DD, default: today)")
	return cmd
}

func runImportPlaid(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	startFlag, _ := cmd.Flags().GetString("start")
	endFlag, _ := cmd.Flags().GetString("end")

	start, end, err := parseDateRange(startFlag, endFlag, time.Now())
	if err != nil {
		return err
	}

	if user, _ := cmd.Flags().GetString("user"); user != "" {
		viper.Set("plaid.user_id", user)
	}
	cfg, err := config.LoadPlaidConfig()
	if err != nil {
		return common.NewUserError("Plaid is not configured", "set PLAID_CLIENT_ID, PLAID_SECRET and PLAID_ACCESS_TOKEN, or the plaid.* config keys", err)
	}
	client, err := plaid.NewClient(*cfg)
	if err != nil {
		return err
	}

	txns, err := fetchPlaid(ctx, client, start, end)
	if err != nil {
		return err
	}
	if len(txns) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("No transactions in range"))
		return nil
	}
	return importTransactions(ctx, cmd.OutOrStdout(), txns, dryRun)
}

func fetchPlaid(ctx context.Context, fetcher plaid.TransactionFetcher, start, end time.Time) ([]model.Transaction, error) {
	accounts, err := fetcher.GetAccounts(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("Connected to Plaid", "accounts", len(accounts))
	return fetcher.GetTransactions(ctx, start, end)
}

func parseDateRange(startFlag, endFlag string, now time.Time) (time.Time, time.Time, error) {
	end := now.UTC().Truncate(24 * time.Hour)
	start := end.AddDate(0, 0, -30)

	var err error
	if startFlag != "" {
		if start, err = time.Parse(importDateLayout, startFlag); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --start %q: %w", startFlag, err)
		}
	}
	if endFlag != "" {
		if end, err = time.Parse(importDateLayout, endFlag); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --end %q: %w", endFlag, err)
		}
	}
	if start.After(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("--start %s is after --end %s", start.Format(importDateLayout), end.Format(importDateLayout))
	}
	return start, end, nil
}

func importTransactions(ctx context.Context, out io.Writer, txns []model.Transaction, dryRun bool) error {
	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	saved, err := storeImported(ctx, store, txns, dryRun)
	if err != nil {
		return err
	}
	if dryRun {
		fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("Dry run: %d transactions would be imported", saved)))
		return nil
	}
	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Imported %d transactions", saved)))
	return nil
}

// storeImported drops duplicate ids, assigns a merchant to every transaction
// that has none, and saves the result unless dryRun is set. It returns the
// number of distinct transactions.
func storeImported(ctx context.Context, store importStore, txns []model.Transaction, dryRun bool) (int, error) {
	merchants, err := store.ListMerchants(ctx)
	if err != nil {
		return 0, err
	}

	seen := make(map[string]bool, len(txns))
	unique := make([]model.Transaction, 0, len(txns))
	for _, txn := range txns {
		if seen[txn.ID] {
			slog.Debug("Skipping duplicate transaction", "id", txn.ID)
			continue
		}
		seen[txn.ID] = true
		if txn.MerchantID == "" {
			txn.MerchantID = seed.AssignMerchant(merchants, txn.RawDescription, txn.MCC)
		}
		unique = append(unique, txn)
	}

	if dryRun || len(unique) == 0 {
		return len(unique), nil
	}
	if err := store.SaveTransactions(ctx, unique); err != nil {
		return 0, fmt.Errorf("failed to save transactions: %w", err)
	}
	return len(unique), nil
}
