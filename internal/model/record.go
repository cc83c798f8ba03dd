// Package model defines the core data types shared across the pipeline.
package model

import (
	"strconv"
	"strings"
)

// Origin says where an image came from inside a mail message.
type Origin string

// Image origins as persisted in the ledger's origen column.
const (
	OriginAttachment Origin = "attachment"
	OriginInline     Origin = "inline"
)

// CandidateRecord is one (sku, quantity) pair extracted from a single
// OCR line, before the SKU has been canonicalized.
type CandidateRecord struct {
	RawSKU   string
	Quantity int
}

// Record is a fully resolved ledger row. Quantity is kept as the
// normalized decimal string that gets persisted.
type Record struct {
	MailDate  string
	SKU       string
	Quantity  string
	MessageID string
	ImageHash string
	Origin    Origin
}

// Key identifies a record for deduplication. The ledger never holds
// two rows with the same key.
type Key struct {
	MessageID string
	SKU       string
	Quantity  string
}

// Key returns the record's deduplication key.
func (r Record) Key() Key {
	return Key{
		MessageID: r.MessageID,
		SKU:       r.SKU,
		Quantity:  r.Quantity,
	}
}

// NormalizeQuantity collapses different string spellings of the same
// number ("00", " 0") to one canonical form so they dedup together.
// Strings that are not plain integers are only trimmed, so historical
// garbage still round-trips unchanged.
func NormalizeQuantity(s string) string {
	s = strings.TrimSpace(s)
	n, err := strconv.Atoi(s)
	if err != nil {
		return s
	}
	return strconv.Itoa(n)
}
