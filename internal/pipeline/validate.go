package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
)

// runValidation checks the extracted receipt for completeness and arithmetic
// consistency. All failures are collected before deciding the outcome; this
// is the only stage that promotes a job to complete.
func (p *Pipeline) runValidation(state *State) {
	slog.Info("validation stage", "receipt_id", state.ReceiptID)

	if state.Extraction == nil {
		state.fail("No extracted data to validate")
		return
	}

	extraction := state.Extraction
	var errs []string

	if extraction.MerchantName == "" {
		errs = append(errs, "Missing merchant name")
	}
	if extraction.PurchaseDate == "" {
		errs = append(errs, "Missing purchase date")
	}
	if len(extraction.LineItems) == 0 {
		errs = append(errs, "No line items found")
	}

	lineSum := decimal.Zero
	for _, item := range extraction.LineItems {
		lineSum = lineSum.Add(item.TotalPrice)
	}
	expectedTotal := lineSum.Add(extraction.TaxAmount)
	tolerance := extraction.TotalAmount.Mul(decimal.NewFromFloat(p.procCfg.ValidationTolerance))

	if expectedTotal.Sub(extraction.TotalAmount).Abs().GreaterThan(tolerance) {
		errs = append(errs, fmt.Sprintf(
			"Sum validation failed: Line items (%s) + Tax (%s) = %s, but total is %s",
			lineSum, extraction.TaxAmount, expectedTotal, extraction.TotalAmount))
	}

	if len(errs) > 0 {
		state.Errors = append(state.Errors, errs...)
		state.Status = StatusReviewRequired
		slog.Warn("validation stage failed", "receipt_id", state.ReceiptID, "errors", errs)
		return
	}

	state.Status = StatusComplete
	slog.Info("validation stage complete", "receipt_id", state.ReceiptID)
}
