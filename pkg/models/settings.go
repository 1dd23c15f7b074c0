package models

// Settings keys. The pipeline reads provider credentials and the configured
// provider/model pair through these.
const (
	SettingLLMProvider        = "llm_provider"
	SettingLLMModel           = "llm_model"
	SettingTheme              = "theme"
	SettingAWSRegion          = "aws_region"
	SettingAWSAccessKeyID     = "aws_access_key_id"
	SettingAWSSecretAccessKey = "aws_secret_access_key"
	SettingGoogleAPIKey       = "google_api_key"
	SettingOpenAIAPIKey       = "openai_api_key"
	SettingAnthropicAPIKey    = "anthropic_api_key"
)

// SensitiveSettings marks keys whose values are encrypted at rest and never
// returned by the settings API.
var SensitiveSettings = map[string]bool{
	SettingAWSAccessKeyID:     true,
	SettingAWSSecretAccessKey: true,
	SettingGoogleAPIKey:       true,
	SettingOpenAIAPIKey:       true,
	SettingAnthropicAPIKey:    true,
}

// LLMProviders is the closed set of recognized provider names.
var LLMProviders = map[string]bool{
	"gemini":    true,
	"openai":    true,
	"anthropic": true,
}

// Themes accepted by the settings API.
var Themes = map[string]bool{
	"light":  true,
	"dark":   true,
	"system": true,
}

// Settings is the masked view of all application settings. Sensitive values
// are reported only as configured/not-configured.
type Settings struct {
	LLMProvider             string `json:"llm_provider"`
	LLMModel                string `json:"llm_model"`
	Theme                   string `json:"theme"`
	AWSRegion               string `json:"aws_region"`
	AWSAccessKeyConfigured  bool   `json:"aws_access_key_configured"`
	AWSSecretKeyConfigured  bool   `json:"aws_secret_key_configured"`
	GoogleAPIKeyConfigured  bool   `json:"google_api_key_configured"`
	OpenAIAPIKeyConfigured  bool   `json:"openai_api_key_configured"`
	AnthropicKeyConfigured  bool   `json:"anthropic_api_key_configured"`
}

// LLMModel describes one selectable model of a provider.
type LLMModel struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// LLMModels is the per-provider model catalog exposed by the API and used to
// validate llm configuration updates.
var LLMModels = map[string][]LLMModel{
	"gemini": {
		{ID: "gemini-2.0-flash", Name: "Gemini 2.0 Flash"},
		{ID: "gemini-1.5-pro", Name: "Gemini 1.5 Pro"},
		{ID: "gemini-1.5-flash", Name: "Gemini 1.5 Flash"},
	},
	"openai": {
		{ID: "gpt-4o", Name: "GPT-4o"},
		{ID: "gpt-4o-mini", Name: "GPT-4o Mini"},
		{ID: "gpt-4-turbo", Name: "GPT-4 Turbo"},
	},
	"anthropic": {
		{ID: "claude-sonnet-4-20250514", Name: "Claude Sonnet 4"},
		{ID: "claude-3-5-haiku-20241022", Name: "Claude 3.5 Haiku"},
		{ID: "claude-3-5-sonnet-20241022", Name: "Claude 3.5 Sonnet"},
	},
}

// ValidModel reports whether model is in the catalog for provider.
func ValidModel(provider, model string) bool {
	for _, m := range LLMModels[provider] {
		if m.ID == model {
			return true
		}
	}
	return false
}
