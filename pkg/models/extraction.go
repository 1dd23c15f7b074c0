package models

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Categories is the closed set of line-item categories the extraction
// providers are instructed to classify into.
var Categories = []string{
	"Groceries",
	"Dining",
	"Transportation",
	"Utilities",
	"Entertainment",
	"Healthcare",
	"Clothing",
	"Home & Garden",
	"Personal Care",
	"Shopping",
	"Other",
}

// ReceiptExtractor is the single capability every LLM provider variant
// implements. Callers always go through this interface rather than a
// concrete provider.
type ReceiptExtractor interface {
	// Extract converts the canonical OCR text block into a structured receipt.
	Extract(ctx context.Context, ocrText string) (*ReceiptExtraction, error)
	// Name returns the provider identifier (e.g., "gemini", "openai").
	Name() string
}

// LineItemExtraction is one purchased item as returned by a provider.
type LineItemExtraction struct {
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

// ReceiptExtraction is the normalized structured receipt all provider
// variants converge on.
type ReceiptExtraction struct {
	MerchantName string               `json:"merchant_name"`
	PurchaseDate string               `json:"purchase_date"` // YYYY-MM-DD
	TotalAmount  decimal.Decimal      `json:"total_amount"`
	TaxAmount    decimal.Decimal      `json:"tax_amount"`
	LineItems    []LineItemExtraction `json:"line_items"`
}

var titleCaser = cases.Title(language.English)

// Normalize applies the post-parse rules shared by all providers: merchant
// name trimmed and title-cased, missing quantities defaulted to 1.
func (r *ReceiptExtraction) Normalize() {
	r.MerchantName = titleCaser.String(strings.TrimSpace(r.MerchantName))
	for i := range r.LineItems {
		if r.LineItems[i].Quantity < 1 {
			r.LineItems[i].Quantity = 1
		}
	}
}

// DecodeExtraction parses a provider JSON response into a normalized
// ReceiptExtraction.
func DecodeExtraction(data []byte) (*ReceiptExtraction, error) {
	var extraction ReceiptExtraction
	if err := json.Unmarshal(data, &extraction); err != nil {
		return nil, fmt.Errorf("decode extraction: %w", err)
	}
	extraction.Normalize()
	return &extraction, nil
}
