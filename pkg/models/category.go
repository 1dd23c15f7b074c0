package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Category is a user-managed spending category with an optional monthly
// budget limit.
type Category struct {
	ID                 uuid.UUID        `db:"id"                   json:"id"`
	Name               string           `db:"name"                 json:"name"`
	MonthlyBudgetLimit *decimal.Decimal `db:"monthly_budget_limit" json:"monthly_budget_limit,omitempty"`
	CreatedAt          time.Time        `db:"created_at"           json:"created_at"`
	UpdatedAt          time.Time        `db:"updated_at"           json:"updated_at"`
}
