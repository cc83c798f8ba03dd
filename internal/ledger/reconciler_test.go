package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hmoraga/recepciones/internal/model"
)

func TestReconcilerAdmit(t *testing.T) {
	existing := []model.Record{
		// Historical row still carrying the anti-autoformat apostrophe
		// and a zero-padded quantity.
		{MessageID: "m1", SKU: "'1780234567890", Quantity: "00"},
		{MessageID: "m1", SKU: "1780234567891", Quantity: "5"},
	}

	tests := []struct {
		name   string
		record model.Record
		want   bool
	}{
		{
			name:   "clean sku matches apostrophed historical row",
			record: model.Record{MessageID: "m1", SKU: "1780234567890", Quantity: "0"},
			want:   false,
		},
		{
			name:   "existing key rejected",
			record: model.Record{MessageID: "m1", SKU: "1780234567891", Quantity: "5"},
			want:   false,
		},
		{
			name:   "same sku different quantity is new",
			record: model.Record{MessageID: "m1", SKU: "1780234567891", Quantity: "6"},
			want:   true,
		},
		{
			name:   "same sku different message is new",
			record: model.Record{MessageID: "m2", SKU: "1780234567891", Quantity: "5"},
			want:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReconciler(existing)
			assert.Equal(t, tt.want, r.Admit(tt.record))
		})
	}
}

func TestReconcilerIntraRunDuplicates(t *testing.T) {
	r := NewReconciler(nil)

	rec := model.Record{MessageID: "m1", SKU: "1780234567890", Quantity: "3"}

	// The same physical line re-detected from overlapping OCR groupings
	// must be admitted exactly once.
	assert.True(t, r.Admit(rec))
	assert.False(t, r.Admit(rec))
}

func TestReconcilerIdempotentAcrossRuns(t *testing.T) {
	batch := []model.Record{
		{MessageID: "m1", SKU: "1780234567890", Quantity: "12"},
		{MessageID: "m1", SKU: "1780234567891", Quantity: "0"},
	}

	first := NewReconciler(nil)
	for _, rec := range batch {
		assert.True(t, first.Admit(rec))
	}

	// Second run sees the first run's output as persisted state.
	second := NewReconciler(batch)
	for _, rec := range batch {
		assert.False(t, second.Admit(rec))
	}
}
