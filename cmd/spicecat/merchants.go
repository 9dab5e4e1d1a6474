package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/Veraticus/spicecat/internal/cli"
	"github.com/Veraticus/spicecat/internal/model"
	"github.com/Veraticus/spicecat/internal/seed"
)

func merchantsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merchants",
		Short: "Manage known merchants",
	}
	cmd.AddCommand(merchantsSeedCmd(), merchantsListCmd(), merchantsImportCmd())
	return cmd
}

func merchantsSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the demo merchants and transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := seed.Apply(ctx, store, time.Now().UTC()); err != nil {
				return err
			}
			slog.Info("✅ Seeded demo data",
				"merchants", len(seed.Merchants()),
				"database", store.Path())
			return nil
		},
	}
}

func merchantsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List known merchants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			merchants, err := store.ListMerchants(ctx)
			if err != nil {
				return err
			}
			if len(merchants) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("No merchants yet. Run 'spicecat merchants seed' or 'spicecat merchants import'."))
				return nil
			}
			return writeMerchantTable(cmd.OutOrStdout(), merchants)
		},
	}
}

func writeMerchantTable(w io.Writer, merchants []model.Merchant) error {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(cli.SubtleStyle).
		Headers("ID", "NAME", "CATEGORY", "ALIASES", "MCCS").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return cli.BoldStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
	for _, m := range merchants {
		category := m.DefaultCategory
		if category == "" {
			category = "-"
		}
		t.Row(m.ID, m.DisplayName, category,
			strings.Join(m.Aliases, ", "),
			strings.Join(m.TypicalMCCs, ", "))
	}
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

func merchantsImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Import merchants from a YAML file",
		Long: `Import merchants from YAML. Existing merchants with the same id are replaced.

Format:
  merchants:
    - merchant_id: m_uber
      display_name: Uber
      default_category: Transport > Rideshare
      aliases: [UBER, UBER TRIP]
      typical_mccs: ["4121"]`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			in, err := openInput(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			defer func() { _ = in.Close() }()

			merchants, err := seed.LoadMerchants(in)
			if err != nil {
				return err
			}

			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.SaveMerchants(ctx, merchants); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Imported %d merchants", len(merchants))))
			return nil
		},
	}
}
