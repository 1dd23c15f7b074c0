package ocr

import (
	"context"

	"github.com/receipto/receipto/pkg/models"
)

// Credentials holds the AWS credentials resolved for a single analysis call.
// An empty AccessKeyID means the default credential chain is used.
type Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
}

// Analyzer extracts structured expense data from a receipt image.
// Implementations must be safe for concurrent use.
type Analyzer interface {
	AnalyzeExpense(ctx context.Context, imageBytes []byte, creds Credentials) ([]models.ExpenseDocument, error)
}
