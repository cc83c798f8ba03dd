// Package gauth loads the Google credentials shared by the Gmail and
// Sheets clients.
package gauth

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmail "google.golang.org/api/gmail/v1"
	sheets "google.golang.org/api/sheets/v4"

	"github.com/hmoraga/recepciones/internal/common"
)

// Scopes covers everything a full run touches: reading mail and
// writing the ledger spreadsheet.
var Scopes = []string{
	gmail.GmailReadonlyScope,
	sheets.SpreadsheetsScope,
}

// Load reads the token JSON from the GOOGLE_TOKEN environment variable
// or, when that is unset, from tokenFile. The env var wins so CI runs
// stay file-free.
func Load(tokenFile string) ([]byte, error) {
	if raw := os.Getenv("GOOGLE_TOKEN"); raw != "" {
		return []byte(raw), nil
	}
	if tokenFile == "" {
		return nil, fmt.Errorf("%w: set GOOGLE_TOKEN or google.token_file", common.ErrMissingConfig)
	}
	data, err := os.ReadFile(tokenFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read token file: %w", err)
	}
	return data, nil
}

// TokenSource builds a token source from a credentials JSON blob:
// either an authorized-user token or a service account key, both of
// which google.CredentialsFromJSON understands.
func TokenSource(ctx context.Context, jsonKey []byte, scopes ...string) (oauth2.TokenSource, error) {
	creds, err := google.CredentialsFromJSON(ctx, jsonKey, scopes...)
	if err != nil {
		return nil, fmt.Errorf("unable to parse Google credentials: %w", err)
	}
	return creds.TokenSource, nil
}
