package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hmoraga/recepciones/internal/ocr"
)

func TestLocateHeaders(t *testing.T) {
	tests := []struct {
		name         string
		tokens       []ocr.Token
		wantSent     *Span
		wantReceived *Span
	}{
		{
			name: "both headers found",
			tokens: []ocr.Token{
				{Text: "ENVIADAS", Left: 100, Width: 60, Confidence: 90},
				{Text: "RECIBIDAS", Left: 200, Width: 60, Confidence: 88},
			},
			wantSent:     &Span{StartX: 100, EndX: 160},
			wantReceived: &Span{StartX: 200, EndX: 260},
		},
		{
			name: "case insensitive fragment match",
			tokens: []ocr.Token{
				{Text: "Recibidas:", Left: 310, Width: 80, Confidence: 70},
			},
			wantReceived: &Span{StartX: 310, EndX: 390},
		},
		{
			name: "highest confidence wins",
			tokens: []ocr.Token{
				{Text: "RECIB", Left: 50, Width: 40, Confidence: 60},
				{Text: "RECIBIDAS", Left: 200, Width: 60, Confidence: 95},
			},
			wantReceived: &Span{StartX: 200, EndX: 260},
		},
		{
			name: "width breaks confidence ties",
			tokens: []ocr.Token{
				{Text: "RECIB", Left: 50, Width: 40, Confidence: 80},
				{Text: "RECIBIDAS", Left: 200, Width: 70, Confidence: 80},
			},
			wantReceived: &Span{StartX: 200, EndX: 270},
		},
		{
			name: "no headers at all",
			tokens: []ocr.Token{
				{Text: "1780234567890", Left: 10, Width: 120, Confidence: 85},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LocateHeaders(tt.tokens)

			if tt.wantSent == nil {
				assert.Nil(t, got.Sent)
			} else {
				require.NotNil(t, got.Sent)
				assert.Equal(t, *tt.wantSent, *got.Sent)
			}
			if tt.wantReceived == nil {
				assert.Nil(t, got.Received)
			} else {
				require.NotNil(t, got.Received)
				assert.Equal(t, *tt.wantReceived, *got.Received)
			}
		})
	}
}
