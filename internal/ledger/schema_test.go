package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hmoraga/recepciones/internal/common"
	"github.com/hmoraga/recepciones/internal/model"
)

func TestIndexColumns(t *testing.T) {
	t.Run("contract header accepted", func(t *testing.T) {
		idx, err := indexColumns(Columns)
		require.NoError(t, err)
		assert.Equal(t, 1, idx["sku"])
		assert.Equal(t, 5, idx["origen"])
	})

	t.Run("reordered header accepted", func(t *testing.T) {
		idx, err := indexColumns([]string{
			"sku", "fecha_correo", "un_recibidas", "message_id", "img_hash", "origen",
		})
		require.NoError(t, err)
		assert.Equal(t, 0, idx["sku"])
	})

	t.Run("missing column rejected", func(t *testing.T) {
		_, err := indexColumns([]string{"fecha_correo", "sku", "un_recibidas"})
		assert.ErrorIs(t, err, common.ErrSchemaMismatch)
	})
}

func TestRecordFromRow(t *testing.T) {
	idx, err := indexColumns(Columns)
	require.NoError(t, err)

	t.Run("full row maps", func(t *testing.T) {
		rec, ok := recordFromRow([]string{
			"2024-05-03 14:22:01", "1780234567890", "12", "18f2ab", "cafe01", "attachment",
		}, idx, 2)
		require.True(t, ok)
		assert.Equal(t, model.Record{
			MailDate:  "2024-05-03 14:22:01",
			SKU:       "1780234567890",
			Quantity:  "12",
			MessageID: "18f2ab",
			ImageHash: "cafe01",
			Origin:    model.OriginAttachment,
		}, rec)
	})

	t.Run("short row quarantined", func(t *testing.T) {
		_, ok := recordFromRow([]string{"2024-05-03 14:22:01", "1780234567890"}, idx, 3)
		assert.False(t, ok)
	})
}

func TestNormalizeSpreadsheetID(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "bare id passes through",
			in:   "1AbC_dEf-123",
			want: "1AbC_dEf-123",
		},
		{
			name: "full url reduced to id",
			in:   "https://docs.google.com/spreadsheets/d/1AbC_dEf-123/edit#gid=0",
			want: "1AbC_dEf-123",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeSpreadsheetID(tt.in))
		})
	}
}
