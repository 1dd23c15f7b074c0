package pipeline

import (
	"context"
	"log/slog"
	"os"

	"github.com/receipto/receipto/internal/ocr"
	"github.com/receipto/receipto/internal/retry"
	"github.com/receipto/receipto/pkg/models"
)

// runOCR reads the stored image and analyzes it with the document analysis
// service. Credentials come from settings, falling back to the environment.
func (p *Pipeline) runOCR(ctx context.Context, state *State) {
	slog.Info("ocr stage", "receipt_id", state.ReceiptID)

	imageBytes, err := os.ReadFile(state.ImagePath)
	if err != nil {
		state.fail("OCR Error: %v", err)
		slog.Error("ocr stage failed", "receipt_id", state.ReceiptID, "error", err)
		return
	}

	creds, err := p.resolveAWSCredentials(ctx)
	if err != nil {
		state.fail("OCR Error: %v", err)
		slog.Error("ocr stage failed", "receipt_id", state.ReceiptID, "error", err)
		return
	}

	var docs []models.ExpenseDocument
	err = retry.Do(ctx, p.ocrRetryPolicy(), func() error {
		var analyzeErr error
		docs, analyzeErr = p.analyzer.AnalyzeExpense(ctx, imageBytes, creds)
		return analyzeErr
	})
	if err != nil {
		state.fail("OCR Error: %v", err)
		slog.Error("ocr stage failed", "receipt_id", state.ReceiptID, "error", err)
		return
	}

	state.RawOCR = docs
	slog.Info("ocr stage complete", "receipt_id", state.ReceiptID, "documents", len(docs))
}

func (p *Pipeline) resolveAWSCredentials(ctx context.Context) (ocr.Credentials, error) {
	accessKey, err := p.store.GetSetting(ctx, models.SettingAWSAccessKeyID)
	if err != nil {
		return ocr.Credentials{}, err
	}
	secretKey, err := p.store.GetSetting(ctx, models.SettingAWSSecretAccessKey)
	if err != nil {
		return ocr.Credentials{}, err
	}
	region, err := p.store.GetSetting(ctx, models.SettingAWSRegion)
	if err != nil {
		return ocr.Credentials{}, err
	}

	creds := ocr.Credentials{
		AccessKeyID:     accessKey,
		SecretAccessKey: secretKey,
		Region:          region,
	}
	if creds.AccessKeyID == "" {
		creds.AccessKeyID = p.awsCfg.AccessKeyID
		creds.SecretAccessKey = p.awsCfg.SecretAccessKey
	}
	if creds.Region == "" {
		creds.Region = p.awsCfg.Region
	}
	return creds, nil
}
