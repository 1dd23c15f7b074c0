package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/receipto/receipto/internal/api/response"
	"github.com/receipto/receipto/internal/store"
	"github.com/receipto/receipto/pkg/models"
	"github.com/shopspring/decimal"
)

// ReceiptStore is the store surface the receipt read handlers need.
type ReceiptStore interface {
	GetReceipt(ctx context.Context, id uuid.UUID) (*models.Receipt, error)
	ListLineItems(ctx context.Context, receiptID uuid.UUID) ([]*models.LineItem, error)
}

// StatusCache reads the in-flight pipeline status for a receipt.
type StatusCache interface {
	GetReceiptStatus(ctx context.Context, receiptID uuid.UUID) (string, bool, error)
}

// NewGetReceiptHandler returns an http.HandlerFunc for GET /receipts/{receiptID}.
// While the pipeline runs, the cached in-flight status shadows the persisted
// one, so clients can watch a receipt move through processing.
func NewGetReceiptHandler(st ReceiptStore, ca StatusCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		receiptID, err := uuid.Parse(chi.URLParam(r, "receiptID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"receiptID must be a valid UUID", nil)
			return
		}

		receipt, err := st.GetReceipt(r.Context(), receiptID)
		if errors.Is(err, store.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "RESOURCE_NOT_FOUND", "Receipt not found", nil)
			return
		}
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"An unexpected error occurred", nil)
			return
		}

		status := receipt.Status
		if cached, found, err := ca.GetReceiptStatus(r.Context(), receiptID); err == nil && found {
			status = cached
		}

		items, err := st.ListLineItems(r.Context(), receiptID)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"An unexpected error occurred", nil)
			return
		}

		response.JSON(w, receiptResponse{
			ID:           receipt.ID.String(),
			ImageURL:     receipt.ImageURL,
			MerchantName: receipt.MerchantName,
			PurchaseDate: formatDate(receipt.PurchaseDate),
			TotalAmount:  receipt.TotalAmount,
			TaxAmount:    receipt.TaxAmount,
			Status:       status,
			LineItems:    items,
			CreatedAt:    receipt.CreatedAt,
			UpdatedAt:    receipt.UpdatedAt,
		})
	}
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format("2006-01-02")
	return &s
}

type receiptResponse struct {
	ID           string             `json:"id"`
	ImageURL     string             `json:"image_url"`
	MerchantName *string            `json:"merchant_name"`
	PurchaseDate *string            `json:"purchase_date"`
	TotalAmount  *decimal.Decimal   `json:"total_amount"`
	TaxAmount    *decimal.Decimal   `json:"tax_amount"`
	Status       string             `json:"status"`
	LineItems    []*models.LineItem `json:"line_items"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}
