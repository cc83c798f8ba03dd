package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/oauth2"

	"github.com/hmoraga/recepciones/internal/cli"
	"github.com/hmoraga/recepciones/internal/common"
	"github.com/hmoraga/recepciones/internal/gauth"
	"github.com/hmoraga/recepciones/internal/ledger"
)

func rowsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rows",
		Short: "Print the most recent ledger rows",
		RunE:  runRows,
	}

	cmd.Flags().IntP("limit", "n", 20, "Number of rows to show")

	return cmd
}

func runRows(cmd *cobra.Command, _ []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	ctx := cmd.Context()
	logger := slog.Default()

	var tokenSource oauth2.TokenSource
	if viper.GetString("ledger.backend") == "sheets" {
		jsonKey, err := gauth.Load(viper.GetString("google.token_file"))
		if err != nil {
			return common.NewUserError("Google credentials not found. Set GOOGLE_TOKEN or google.token_file", err)
		}
		tokenSource, err = gauth.TokenSource(ctx, jsonKey, gauth.Scopes...)
		if err != nil {
			return err
		}
	}

	store, err := openLedger(ctx, tokenSource, logger)
	if err != nil {
		return err
	}
	defer func() {
		_ = store.Close()
	}()

	records, err := store.Rows(ctx)
	if err != nil {
		return err
	}

	if len(records) == 0 {
		fmt.Println(cli.FormatWarning("ledger is empty"))
		return nil
	}

	start := len(records) - limit
	if start < 0 {
		start = 0
	}

	fmt.Println(cli.FormatTitle(fmt.Sprintf("Last %d ledger rows", len(records)-start)))
	fmt.Println(cli.SubtleStyle.Render(strings.Join(ledger.Columns, "\t")))
	for _, r := range records[start:] {
		fmt.Printf("%s\t%s\t%s\t%s\t%s\t%s\n",
			r.MailDate, r.SKU, r.Quantity, r.MessageID, shorten(r.ImageHash), r.Origin)
	}
	return nil
}

// shorten truncates an image hash for terminal display.
func shorten(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}
