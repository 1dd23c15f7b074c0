// Package pipeline runs the four-stage receipt processing job: OCR,
// extraction, validation, persistence. Stages always run in that order;
// each one checks its preconditions and records an error instead of
// aborting the run, so a single job reports everything that went wrong.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/receipto/receipto/internal/cache"
	"github.com/receipto/receipto/internal/config"
	"github.com/receipto/receipto/internal/llm"
	"github.com/receipto/receipto/internal/ocr"
	"github.com/receipto/receipto/internal/retry"
	"github.com/receipto/receipto/internal/store"
	"github.com/receipto/receipto/pkg/models"
)

// In-flight job statuses. These live on the job state and in the status
// cache; the receipt row itself only ever holds pending, complete, or
// manual_review.
const (
	StatusProcessing     = "processing"
	StatusReviewRequired = "review_required"
	StatusComplete       = "complete"
)

// State is the job state threaded through all four stages.
type State struct {
	ReceiptID  uuid.UUID
	ImagePath  string
	RawOCR     []models.ExpenseDocument
	Extraction *models.ReceiptExtraction
	Errors     []string
	Status     string
}

func (s *State) fail(format string, args ...any) {
	s.Errors = append(s.Errors, fmt.Sprintf(format, args...))
	s.Status = StatusReviewRequired
}

// ProviderFactory resolves the extractor for one extraction attempt.
// Resolved per attempt so settings changes take effect mid-retry.
type ProviderFactory func(ctx context.Context, provider, model string) (models.ReceiptExtractor, error)

// Pipeline orchestrates receipt processing jobs.
type Pipeline struct {
	store       store.Store
	cache       cache.Cache
	analyzer    ocr.Analyzer
	newProvider ProviderFactory
	awsCfg      config.AWSConfig
	llmCfg      config.LLMConfig
	procCfg     config.ProcessingConfig
}

func New(st store.Store, ca cache.Cache, analyzer ocr.Analyzer, factory ProviderFactory,
	awsCfg config.AWSConfig, llmCfg config.LLMConfig, procCfg config.ProcessingConfig) *Pipeline {
	return &Pipeline{
		store:       st,
		cache:       ca,
		analyzer:    analyzer,
		newProvider: factory,
		awsCfg:      awsCfg,
		llmCfg:      llmCfg,
		procCfg:     procCfg,
	}
}

// Schedule dispatches processing in a background goroutine and returns
// immediately. A panic in any stage marks the receipt for manual review.
func (p *Pipeline) Schedule(receiptID uuid.UUID, imagePath string) {
	_ = p.cache.SetReceiptStatus(context.Background(), receiptID, models.ReceiptStatusPending, cache.StatusTTL)
	go p.run(receiptID, imagePath)
}

func (p *Pipeline) run(receiptID uuid.UUID, imagePath string) {
	ctx := context.Background()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic in receipt pipeline", "error", r, "receipt_id", receiptID)
			_ = p.store.UpdateReceiptStatus(ctx, receiptID, models.ReceiptStatusManualReview)
			_ = p.cache.SetReceiptStatus(ctx, receiptID, models.ReceiptStatusManualReview, cache.StatusTTL)
		}
	}()

	p.Process(ctx, receiptID, imagePath)
}

// Process runs the full stage sequence for one receipt and returns the final
// job state.
func (p *Pipeline) Process(ctx context.Context, receiptID uuid.UUID, imagePath string) *State {
	slog.Info("starting receipt pipeline", "receipt_id", receiptID)

	state := &State{
		ReceiptID: receiptID,
		ImagePath: imagePath,
		Status:    StatusProcessing,
	}
	_ = p.cache.SetReceiptStatus(ctx, receiptID, StatusProcessing, cache.StatusTTL)

	p.runOCR(ctx, state)
	p.runExtraction(ctx, state)
	p.runValidation(state)
	p.runPersistence(ctx, state)

	_ = p.cache.SetReceiptStatus(ctx, receiptID, state.Status, cache.StatusTTL)

	slog.Info("receipt pipeline finished",
		"receipt_id", receiptID, "status", state.Status, "errors", len(state.Errors))
	return state
}

func (p *Pipeline) ocrRetryPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts:     p.procCfg.OCRMaxAttempts,
		InitialInterval: p.procCfg.RetryInitialBackoff,
		MaxInterval:     p.procCfg.RetryMaxBackoff,
	}
}

func (p *Pipeline) extractionRetryPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts:     p.procCfg.ExtractionMaxAttempts,
		InitialInterval: p.procCfg.RetryInitialBackoff,
		MaxInterval:     p.procCfg.RetryMaxBackoff,
	}
}

// permanentIfConfig wraps provider configuration errors so the retry loop
// stops immediately; a missing API key will not fix itself between attempts.
func permanentIfConfig(err error) error {
	if err == nil {
		return nil
	}
	var cfgErr *llm.ConfigError
	if errors.As(err, &cfgErr) {
		return retry.Permanent(err)
	}
	return err
}
