package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/receipto/receipto/internal/api/response"
	"github.com/receipto/receipto/pkg/models"
)

// SettingsStore is the store surface the settings handlers need.
type SettingsStore interface {
	GetAllSettings(ctx context.Context) (*models.Settings, error)
	UpdateSettings(ctx context.Context, values map[string]string) error
}

// settingsUpdate carries a partial settings update; nil fields are left
// untouched.
type settingsUpdate struct {
	LLMProvider        *string `json:"llm_provider"`
	LLMModel           *string `json:"llm_model"`
	Theme              *string `json:"theme"`
	AWSRegion          *string `json:"aws_region"`
	AWSAccessKeyID     *string `json:"aws_access_key_id"`
	AWSSecretAccessKey *string `json:"aws_secret_access_key"`
	GoogleAPIKey       *string `json:"google_api_key"`
	OpenAIAPIKey       *string `json:"openai_api_key"`
	AnthropicAPIKey    *string `json:"anthropic_api_key"`
}

func (u *settingsUpdate) validate() (string, bool) {
	if u.LLMProvider != nil && !models.LLMProviders[*u.LLMProvider] {
		return "llm_provider must be one of gemini, openai, anthropic", false
	}
	if u.Theme != nil && !models.Themes[*u.Theme] {
		return "theme must be one of light, dark, system", false
	}
	return "", true
}

func (u *settingsUpdate) values() map[string]string {
	values := make(map[string]string)
	set := func(key string, v *string) {
		if v != nil {
			values[key] = *v
		}
	}
	set(models.SettingLLMProvider, u.LLMProvider)
	set(models.SettingLLMModel, u.LLMModel)
	set(models.SettingTheme, u.Theme)
	set(models.SettingAWSRegion, u.AWSRegion)
	set(models.SettingAWSAccessKeyID, u.AWSAccessKeyID)
	set(models.SettingAWSSecretAccessKey, u.AWSSecretAccessKey)
	set(models.SettingGoogleAPIKey, u.GoogleAPIKey)
	set(models.SettingOpenAIAPIKey, u.OpenAIAPIKey)
	set(models.SettingAnthropicAPIKey, u.AnthropicAPIKey)
	return values
}

// NewGetSettingsHandler returns an http.HandlerFunc for GET /settings.
// Sensitive values are masked to configured/not-configured booleans.
func NewGetSettingsHandler(st SettingsStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		settings, err := st.GetAllSettings(r.Context())
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"An unexpected error occurred", nil)
			return
		}
		response.JSON(w, settings)
	}
}

// NewUpdateSettingsHandler returns an http.HandlerFunc for PATCH /settings.
func NewUpdateSettingsHandler(st SettingsStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var update settingsUpdate
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		if msg, ok := update.validate(); !ok {
			response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", msg, nil)
			return
		}

		applySettings(w, r, st, update.values())
	}
}

// NewUpdateAPIKeysHandler returns an http.HandlerFunc for PATCH
// /settings/api-keys. Only credential fields are accepted.
func NewUpdateAPIKeysHandler(st SettingsStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			AWSAccessKeyID     *string `json:"aws_access_key_id"`
			AWSSecretAccessKey *string `json:"aws_secret_access_key"`
			AWSRegion          *string `json:"aws_region"`
			GoogleAPIKey       *string `json:"google_api_key"`
			OpenAIAPIKey       *string `json:"openai_api_key"`
			AnthropicAPIKey    *string `json:"anthropic_api_key"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		update := settingsUpdate{
			AWSAccessKeyID:     req.AWSAccessKeyID,
			AWSSecretAccessKey: req.AWSSecretAccessKey,
			AWSRegion:          req.AWSRegion,
			GoogleAPIKey:       req.GoogleAPIKey,
			OpenAIAPIKey:       req.OpenAIAPIKey,
			AnthropicAPIKey:    req.AnthropicAPIKey,
		}
		applySettings(w, r, st, update.values())
	}
}

// NewUpdateLLMConfigHandler returns an http.HandlerFunc for PATCH
// /settings/llm. The model must belong to the provider's catalog.
func NewUpdateLLMConfigHandler(st SettingsStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Provider string `json:"provider"`
			Model    string `json:"model"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		if !models.LLMProviders[req.Provider] {
			response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR",
				"provider must be one of gemini, openai, anthropic", nil)
			return
		}
		if !models.ValidModel(req.Provider, req.Model) {
			response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR",
				"Invalid model '"+req.Model+"' for provider '"+req.Provider+"'", nil)
			return
		}

		applySettings(w, r, st, map[string]string{
			models.SettingLLMProvider: req.Provider,
			models.SettingLLMModel:    req.Model,
		})
	}
}

// NewLLMModelsHandler returns an http.HandlerFunc for GET /llm/models.
func NewLLMModelsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, map[string]any{"providers": models.LLMModels})
	}
}

func applySettings(w http.ResponseWriter, r *http.Request, st SettingsStore, values map[string]string) {
	if len(values) > 0 {
		if err := st.UpdateSettings(r.Context(), values); err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"An unexpected error occurred", nil)
			return
		}
	}

	settings, err := st.GetAllSettings(r.Context())
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
			"An unexpected error occurred", nil)
		return
	}
	response.JSON(w, settings)
}
