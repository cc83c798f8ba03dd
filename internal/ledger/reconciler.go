package ledger

import (
	"sync"

	"github.com/hmoraga/recepciones/internal/extract"
	"github.com/hmoraga/recepciones/internal/model"
)

// Reconciler filters newly extracted records against the persisted
// ledger and against records already admitted in the current run. The
// ledger index is built once per run and is read-only afterwards; the
// in-run set is mutex-guarded so independent messages could be
// processed concurrently.
type Reconciler struct {
	existing map[model.Key]struct{}
	seen     map[model.Key]struct{}
	mu       sync.Mutex
}

// NewReconciler builds the key index from the persisted rows.
// Historical SKUs and quantities are normalized again here: rows
// written by older versions may still carry the anti-autoformat
// apostrophe or a differently spelled quantity.
func NewReconciler(rows []model.Record) *Reconciler {
	existing := make(map[model.Key]struct{}, len(rows))
	for _, r := range rows {
		existing[model.Key{
			MessageID: r.MessageID,
			SKU:       extract.CanonicalSKU(r.SKU),
			Quantity:  model.NormalizeQuantity(r.Quantity),
		}] = struct{}{}
	}
	return &Reconciler{
		existing: existing,
		seen:     make(map[model.Key]struct{}),
	}
}

// Admit reports whether rec is new to both the ledger and this run,
// and marks its key as seen. The same physical slip line re-detected
// from overlapping OCR groupings is admitted only once.
func (r *Reconciler) Admit(rec model.Record) bool {
	key := rec.Key()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.existing[key]; ok {
		return false
	}
	if _, ok := r.seen[key]; ok {
		return false
	}
	r.seen[key] = struct{}{}
	return true
}
