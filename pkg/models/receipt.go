// Package models contains shared data models used across the Receipto codebase.
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Persisted receipt statuses. A receipt is created as pending and ends in
// exactly one of complete or manual_review.
const (
	ReceiptStatusPending      = "pending"
	ReceiptStatusComplete     = "complete"
	ReceiptStatusManualReview = "manual_review"
)

// Receipt is the persisted receipt record. Extracted fields are nil until the
// pipeline commits a complete extraction.
type Receipt struct {
	ID           uuid.UUID        `db:"id"            json:"id"`
	ImageURL     string           `db:"image_url"     json:"image_url"`
	MerchantName *string          `db:"merchant_name" json:"merchant_name,omitempty"`
	PurchaseDate *time.Time       `db:"purchase_date" json:"purchase_date,omitempty"`
	TotalAmount  *decimal.Decimal `db:"total_amount"  json:"total_amount,omitempty"`
	TaxAmount    *decimal.Decimal `db:"tax_amount"    json:"tax_amount,omitempty"`
	Status       string           `db:"status"        json:"status"`
	CreatedAt    time.Time        `db:"created_at"    json:"created_at"`
	UpdatedAt    time.Time        `db:"updated_at"    json:"updated_at"`
}

// LineItem is one persisted line of a completed receipt.
type LineItem struct {
	ID          uuid.UUID       `db:"id"          json:"id"`
	ReceiptID   uuid.UUID       `db:"receipt_id"  json:"receipt_id"`
	Description string          `db:"description" json:"description"`
	Category    string          `db:"category"    json:"category"`
	Quantity    int             `db:"quantity"    json:"quantity"`
	UnitPrice   decimal.Decimal `db:"unit_price"  json:"unit_price"`
	TotalPrice  decimal.Decimal `db:"total_price" json:"total_price"`
	CreatedAt   time.Time       `db:"created_at"  json:"created_at"`
}
