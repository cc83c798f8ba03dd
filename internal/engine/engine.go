// Package engine orchestrates a full ingestion run: messages in,
// deduplicated ledger rows out.
package engine

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"strconv"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"

	"github.com/hmoraga/recepciones/internal/extract"
	"github.com/hmoraga/recepciones/internal/ledger"
	"github.com/hmoraga/recepciones/internal/model"
	"github.com/hmoraga/recepciones/internal/ocr"
	"github.com/hmoraga/recepciones/internal/service"
	"github.com/hmoraga/recepciones/internal/vision"
)

// ocrSampleLen bounds the diagnostic dump logged when an image yields
// no structured tokens.
const ocrSampleLen = 400

// Config holds the engine's run settings.
type Config struct {
	DryRun       bool
	ShowProgress bool
}

// Stats summarizes one run.
type Stats struct {
	NewRows    []model.Record
	Messages   int
	Images     int
	Candidates int
	Appended   int
}

// Engine wires the pipeline stages together behind the collaborator
// interfaces, so a run is testable without Gmail, Sheets or Tesseract.
type Engine struct {
	source     service.MessageSource
	store      service.LedgerStore
	recognizer service.Recognizer
	logger     *slog.Logger
	config     Config
}

// New creates an engine.
func New(source service.MessageSource, store service.LedgerStore, recognizer service.Recognizer, config Config, logger *slog.Logger) *Engine {
	return &Engine{
		source:     source,
		store:      store,
		recognizer: recognizer,
		logger:     logger,
		config:     config,
	}
}

// Run executes one full pass. Ledger snapshot and message listing
// failures abort before anything is written; everything that goes
// wrong with a single image is skipped.
func (e *Engine) Run(ctx context.Context) (*Stats, error) {
	logger := e.logger.With("run_id", uuid.NewString())
	stats := &Stats{}

	existing, err := e.store.Rows(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger snapshot: %w", err)
	}
	logger.Info("ledger snapshot loaded", "rows", len(existing))
	reconciler := ledger.NewReconciler(existing)

	ids, err := e.source.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	if len(ids) == 0 {
		logger.Info("no messages matched the query")
		return stats, nil
	}

	var bar *progressbar.ProgressBar
	if e.config.ShowProgress {
		bar = progressbar.Default(int64(len(ids)), "processing messages")
	}

	for _, id := range ids {
		msg, err := e.source.Fetch(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch message %s: %w", id, err)
		}
		stats.Messages++

		for _, part := range msg.Images {
			e.processImage(ctx, logger, msg, part, reconciler, stats)
		}

		if bar != nil {
			_ = bar.Add(1)
		}
	}

	stats.Appended = len(stats.NewRows)
	if stats.Appended == 0 {
		logger.Info("nothing new to append")
		return stats, nil
	}

	for _, r := range stats.NewRows {
		logger.Debug("new row",
			"sku", r.SKU,
			"quantity", r.Quantity,
			"message_id", r.MessageID,
			"origin", r.Origin)
	}

	if e.config.DryRun {
		logger.Info("dry run, skipping append", "rows", stats.Appended)
		return stats, nil
	}

	if err := e.store.Append(ctx, stats.NewRows); err != nil {
		return nil, fmt.Errorf("failed to append new rows: %w", err)
	}
	logger.Info("appended new rows", "rows", stats.Appended)
	return stats, nil
}

// processImage runs one image through normalize, OCR, extraction and
// reconciliation. All failures are per-image: log and move on.
func (e *Engine) processImage(ctx context.Context, logger *slog.Logger, msg *model.Message, part model.ImagePart, reconciler *ledger.Reconciler, stats *Stats) {
	if ctx.Err() != nil {
		return
	}

	img, err := vision.Decode(part.Data)
	if err != nil {
		logger.Warn("skipping image", "message_id", msg.ID, "error", err)
		return
	}
	stats.Images++

	normalized := vision.Normalize(img)

	hash, err := vision.Fingerprint(normalized)
	if err != nil {
		logger.Warn("skipping image, could not fingerprint", "message_id", msg.ID, "error", err)
		return
	}

	tokens, err := e.recognizer.Tokens(normalized)
	if err != nil {
		logger.Warn("skipping image, OCR failed", "message_id", msg.ID, "error", err)
		return
	}

	clusters := ocr.Cluster(tokens)
	headers := extract.LocateHeaders(tokens)

	found := 0
	for _, cluster := range clusters {
		cand, ok := extract.ExtractLine(cluster, headers)
		if !ok {
			continue
		}
		sku := extract.CanonicalSKU(cand.RawSKU)
		if sku == "" {
			continue
		}
		found++
		stats.Candidates++

		record := model.Record{
			MailDate:  msg.Date,
			SKU:       sku,
			Quantity:  strconv.Itoa(cand.Quantity),
			MessageID: msg.ID,
			ImageHash: hash,
			Origin:    part.Origin,
		}
		if reconciler.Admit(record) {
			stats.NewRows = append(stats.NewRows, record)
		}
	}

	logger.Info("image processed",
		"message_id", msg.ID,
		"origin", part.Origin,
		"lines", found)

	if found == 0 {
		e.logOCRSample(normalized, logger, msg.ID)
	}
}

// logOCRSample dumps the start of the unstructured recognition so
// field failures can be diagnosed from the logs alone.
func (e *Engine) logOCRSample(img image.Image, logger *slog.Logger, msgID string) {
	text, err := e.recognizer.PlainText(img)
	if err != nil {
		logger.Debug("no OCR sample available", "message_id", msgID, "error", err)
		return
	}
	if len(text) > ocrSampleLen {
		text = text[:ocrSampleLen]
	}
	logger.Debug("OCR sample", "message_id", msgID, "sample", text)
}
