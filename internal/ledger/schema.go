// Package ledger persists extracted records and reconciles new
// extractions against the rows already stored.
package ledger

import (
	"fmt"
	"log/slog"

	"github.com/hmoraga/recepciones/internal/common"
	"github.com/hmoraga/recepciones/internal/model"
)

// Columns is the persisted six-column contract. Existing spreadsheets
// depend on both the names and the order; never change them.
var Columns = []string{
	"fecha_correo",
	"sku",
	"un_recibidas",
	"message_id",
	"img_hash",
	"origen",
}

// columnIndex maps a column name to its position in the header row.
type columnIndex map[string]int

// indexColumns validates a header row once, when the snapshot loads.
// Every contract column must be present; extra columns are ignored.
func indexColumns(header []string) (columnIndex, error) {
	idx := make(columnIndex, len(header))
	for i, name := range header {
		idx[name] = i
	}
	for _, name := range Columns {
		if _, ok := idx[name]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", common.ErrSchemaMismatch, name)
		}
	}
	return idx, nil
}

// recordFromRow maps one raw row through the validated index. Rows too
// short to cover every contract column are quarantined (skipped with a
// warning) rather than indexed out of range.
func recordFromRow(row []string, idx columnIndex, rowNum int) (model.Record, bool) {
	for _, name := range Columns {
		if idx[name] >= len(row) {
			slog.Warn("quarantined short ledger row", "row", rowNum, "cells", len(row))
			return model.Record{}, false
		}
	}
	return model.Record{
		MailDate:  row[idx["fecha_correo"]],
		SKU:       row[idx["sku"]],
		Quantity:  row[idx["un_recibidas"]],
		MessageID: row[idx["message_id"]],
		ImageHash: row[idx["img_hash"]],
		Origin:    model.Origin(row[idx["origen"]]),
	}, true
}

// rowFromRecord renders a record in contract column order.
func rowFromRecord(r model.Record) []any {
	return []any{
		r.MailDate,
		r.SKU,
		r.Quantity,
		r.MessageID,
		r.ImageHash,
		string(r.Origin),
	}
}
