package llm

import (
	"context"

	"github.com/receipto/receipto/internal/config"
	"github.com/receipto/receipto/internal/llm/anthropic"
	"github.com/receipto/receipto/internal/llm/gemini"
	"github.com/receipto/receipto/internal/llm/openai"
	"github.com/receipto/receipto/pkg/models"
)

// SettingsReader fetches a single setting value. An empty string means the
// setting is not configured.
type SettingsReader interface {
	GetSetting(ctx context.Context, key string) (string, error)
}

// NewProvider resolves the configured extractor for one extraction attempt.
// API keys come from settings; only the Gemini key falls back to the
// environment. A missing key or unknown provider name is a ConfigError.
func NewProvider(ctx context.Context, provider, model string, settings SettingsReader, cfg config.LLMConfig) (models.ReceiptExtractor, error) {
	switch provider {
	case "gemini":
		apiKey, err := settings.GetSetting(ctx, models.SettingGoogleAPIKey)
		if err != nil {
			return nil, err
		}
		if apiKey == "" {
			apiKey = cfg.GoogleAPIKey
		}
		if apiKey == "" {
			return nil, NewConfigError("google api key not configured")
		}
		return gemini.NewProvider(apiKey, model), nil

	case "openai":
		apiKey, err := settings.GetSetting(ctx, models.SettingOpenAIAPIKey)
		if err != nil {
			return nil, err
		}
		if apiKey == "" {
			return nil, NewConfigError("openai api key not configured")
		}
		return openai.NewProvider(apiKey, model), nil

	case "anthropic":
		apiKey, err := settings.GetSetting(ctx, models.SettingAnthropicAPIKey)
		if err != nil {
			return nil, err
		}
		if apiKey == "" {
			return nil, NewConfigError("anthropic api key not configured")
		}
		return anthropic.NewProvider(apiKey, model), nil

	default:
		return nil, NewConfigError("unknown llm provider: %s", provider)
	}
}
