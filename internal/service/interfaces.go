// Package service defines the contracts between the pipeline engine
// and its collaborators.
package service

import (
	"context"
	"image"
	"time"

	"github.com/hmoraga/recepciones/internal/model"
	"github.com/hmoraga/recepciones/internal/ocr"
)

// MessageSource lists and fetches the mail messages a run processes.
// A failure from either method aborts the run before anything is
// written.
type MessageSource interface {
	// List returns the IDs of messages matching the configured query.
	List(ctx context.Context) ([]string, error)
	// Fetch downloads a message's headers and image parts.
	Fetch(ctx context.Context, id string) (*model.Message, error)
}

// LedgerStore is the append-only persistence for extracted records.
type LedgerStore interface {
	// Rows loads every persisted row. Called once per run, before any
	// extraction starts.
	Rows(ctx context.Context) ([]model.Record, error)
	// Append adds new rows after the existing ones in a single batch.
	// It never rewrites or reorders prior rows.
	Append(ctx context.Context, rows []model.Record) error
	Close() error
}

// Recognizer produces positioned text tokens for a normalized image.
type Recognizer interface {
	Tokens(img image.Image) ([]ocr.Token, error)
	// PlainText is the diagnostic fallback dump used when Tokens comes
	// back empty.
	PlainText(img image.Image) (string, error)
}

// RetryOptions configures retry behavior for remote calls.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
