package pipeline

import (
	"context"
	"log/slog"

	"github.com/receipto/receipto/pkg/models"
)

// runPersistence writes the validated receipt and its line items in one
// transaction. Jobs that did not validate clean are marked for manual
// review instead; a failed save also falls back to manual review so the
// receipt is never left looking unprocessed.
func (p *Pipeline) runPersistence(ctx context.Context, state *State) {
	slog.Info("persistence stage", "receipt_id", state.ReceiptID)

	if state.Status != StatusComplete || state.Extraction == nil {
		if err := p.store.UpdateReceiptStatus(ctx, state.ReceiptID, models.ReceiptStatusManualReview); err != nil {
			slog.Error("marking receipt for manual review failed",
				"receipt_id", state.ReceiptID, "error", err)
		}
		slog.Info("receipt marked for manual review", "receipt_id", state.ReceiptID)
		return
	}

	if err := p.store.SaveReceiptData(ctx, state.ReceiptID, state.Extraction); err != nil {
		state.fail("Database Error: %v", err)
		slog.Error("persistence stage failed", "receipt_id", state.ReceiptID, "error", err)

		if updateErr := p.store.UpdateReceiptStatus(ctx, state.ReceiptID, models.ReceiptStatusManualReview); updateErr != nil {
			slog.Error("marking receipt for manual review failed",
				"receipt_id", state.ReceiptID, "error", updateErr)
		}
		return
	}

	slog.Info("persistence stage complete", "receipt_id", state.ReceiptID)
}
