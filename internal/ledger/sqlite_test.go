package ledger

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hmoraga/recepciones/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func TestSQLiteStoreAppendAndRows(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	rows, err := store.Rows(ctx)
	require.NoError(t, err)
	assert.Empty(t, rows)

	batch := []model.Record{
		{
			MailDate:  "2024-05-03 14:22:01",
			SKU:       "1780234567890",
			Quantity:  "12",
			MessageID: "m1",
			ImageHash: "cafe01",
			Origin:    model.OriginAttachment,
		},
		{
			MailDate:  "2024-05-03 14:22:01",
			SKU:       "1780234567891",
			Quantity:  "0",
			MessageID: "m1",
			ImageHash: "cafe01",
			Origin:    model.OriginInline,
		},
	}
	require.NoError(t, store.Append(ctx, batch))

	rows, err = store.Rows(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	// Insertion order preserved.
	assert.Equal(t, batch[0], rows[0])
	assert.Equal(t, batch[1], rows[1])
}

func TestSQLiteStoreIgnoresDuplicateKey(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	rec := model.Record{
		MailDate:  "2024-05-03 14:22:01",
		SKU:       "1780234567890",
		Quantity:  "12",
		MessageID: "m1",
		ImageHash: "cafe01",
		Origin:    model.OriginAttachment,
	}

	require.NoError(t, store.Append(ctx, []model.Record{rec}))
	// The reconciler should prevent this, but the unique index is the
	// backstop: appending the same key again must not add a row.
	require.NoError(t, store.Append(ctx, []model.Record{rec}))

	rows, err := store.Rows(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
