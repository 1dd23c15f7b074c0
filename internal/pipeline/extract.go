package pipeline

import (
	"context"
	"log/slog"

	"github.com/receipto/receipto/internal/ocr"
	"github.com/receipto/receipto/internal/retry"
	"github.com/receipto/receipto/pkg/models"
)

// runExtraction turns the raw OCR documents into a structured receipt using
// the configured LLM provider. The provider and model are re-read from
// settings on every attempt.
func (p *Pipeline) runExtraction(ctx context.Context, state *State) {
	slog.Info("extraction stage", "receipt_id", state.ReceiptID)

	if state.RawOCR == nil {
		state.fail("No OCR data available")
		return
	}

	ocrText := ocr.FormatForLLM(state.RawOCR)

	var extraction *models.ReceiptExtraction
	err := retry.Do(ctx, p.extractionRetryPolicy(), func() error {
		providerName, modelName, err := p.resolveLLMSelection(ctx)
		if err != nil {
			return err
		}

		extractor, err := p.newProvider(ctx, providerName, modelName)
		if err != nil {
			return permanentIfConfig(err)
		}

		slog.Info("extraction attempt",
			"receipt_id", state.ReceiptID, "provider", providerName, "model", modelName)

		extraction, err = extractor.Extract(ctx, ocrText)
		return err
	})
	if err != nil {
		state.fail("Extraction Error: %v", err)
		slog.Error("extraction stage failed", "receipt_id", state.ReceiptID, "error", err)
		return
	}

	state.Extraction = extraction
	slog.Info("extraction stage complete",
		"receipt_id", state.ReceiptID, "line_items", len(extraction.LineItems))
}

func (p *Pipeline) resolveLLMSelection(ctx context.Context) (provider, model string, err error) {
	provider, err = p.store.GetSetting(ctx, models.SettingLLMProvider)
	if err != nil {
		return "", "", err
	}
	model, err = p.store.GetSetting(ctx, models.SettingLLMModel)
	if err != nil {
		return "", "", err
	}
	if provider == "" {
		provider = p.llmCfg.DefaultProvider
	}
	if model == "" {
		model = p.llmCfg.DefaultModel
	}
	return provider, model, nil
}
