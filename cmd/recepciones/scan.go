package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/oauth2"

	"github.com/hmoraga/recepciones/internal/cli"
	"github.com/hmoraga/recepciones/internal/common"
	"github.com/hmoraga/recepciones/internal/engine"
	"github.com/hmoraga/recepciones/internal/gauth"
	"github.com/hmoraga/recepciones/internal/ledger"
	"github.com/hmoraga/recepciones/internal/mail"
	"github.com/hmoraga/recepciones/internal/ocr"
	"github.com/hmoraga/recepciones/internal/service"
)

func scanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan the mailbox and append new slip rows to the ledger",
		Long: `Scan lists messages matching the configured Gmail query, runs OCR over
every image in them, and appends the rows not already present in the
ledger. Running it twice over the same mailbox appends nothing the
second time.`,
		RunE: runScan,
	}

	cmd.Flags().BoolP("dry-run", "d", false, "Extract and report rows without appending")
	cmd.Flags().Bool("no-progress", false, "Disable the progress bar")

	return cmd
}

func runScan(cmd *cobra.Command, _ []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	noProgress, _ := cmd.Flags().GetBool("no-progress")

	ctx := cmd.Context()
	logger := slog.Default()

	loc, err := time.LoadLocation(viper.GetString("timezone"))
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", viper.GetString("timezone"), err)
	}

	jsonKey, err := gauth.Load(viper.GetString("google.token_file"))
	if err != nil {
		return common.NewUserError("Google credentials not found. Set GOOGLE_TOKEN or google.token_file", err)
	}
	tokenSource, err := gauth.TokenSource(ctx, jsonKey, gauth.Scopes...)
	if err != nil {
		return err
	}

	source, err := mail.NewGmailSource(ctx, mail.GmailConfig{
		Query:      viper.GetString("gmail.query"),
		MaxResults: viper.GetInt64("gmail.max_results"),
	}, tokenSource, loc, logger)
	if err != nil {
		return err
	}

	store, err := openLedger(ctx, tokenSource, logger)
	if err != nil {
		return err
	}
	defer func() {
		_ = store.Close()
	}()

	recognizer := ocr.NewClient(viper.GetString("ocr.lang"), logger)

	eng := engine.New(source, store, recognizer, engine.Config{
		DryRun:       dryRun,
		ShowProgress: !noProgress,
	}, logger)

	stats, err := eng.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Println(cli.FormatTitle("Recepciones scan"))
	fmt.Println(cli.SubtleStyle.Render(fmt.Sprintf(
		"messages: %d  images: %d  candidate rows: %d",
		stats.Messages, stats.Images, stats.Candidates)))

	switch {
	case stats.Appended == 0:
		fmt.Println(cli.FormatSuccess("nothing new to append"))
	case dryRun:
		fmt.Println(cli.FormatWarning(fmt.Sprintf("dry run: %d new rows not appended", stats.Appended)))
		for _, r := range stats.NewRows {
			fmt.Println(cli.SubtleStyle.Render(fmt.Sprintf(
				"  %s  sku=%s  qty=%s  %s", r.MailDate, r.SKU, r.Quantity, r.Origin)))
		}
	default:
		fmt.Println(cli.FormatSuccess(fmt.Sprintf("appended %d new rows", stats.Appended)))
	}

	return nil
}

// openLedger picks the configured ledger backend. The local SQLite
// mirror exists for offline runs; the spreadsheet is the shared copy.
func openLedger(ctx context.Context, tokenSource oauth2.TokenSource, logger *slog.Logger) (service.LedgerStore, error) {
	switch backend := viper.GetString("ledger.backend"); backend {
	case "sheets":
		cfg := ledger.DefaultSheetsConfig()
		cfg.SpreadsheetID = viper.GetString("sheets.spreadsheet_id")
		cfg.Worksheet = viper.GetString("sheets.worksheet")
		return ledger.NewSheetsStore(ctx, cfg, tokenSource, logger)
	case "sqlite":
		dbPath := viper.GetString("ledger.db_path")
		if dbPath == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("failed to get home directory: %w", err)
			}
			dbPath = filepath.Join(home, ".local", "share", "recepciones", "ledger.db")
		}
		return ledger.NewSQLiteStore(dbPath)
	default:
		return nil, fmt.Errorf("unknown ledger backend %q", backend)
	}
}
