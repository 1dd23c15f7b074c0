package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/receipto/receipto/pkg/models"
)

const (
	defaultBaseURL = "https://api.anthropic.com"
	apiVersion     = "2023-06-01"
	maxTokens      = 4096
)

// Provider implements models.ReceiptExtractor against the Anthropic messages
// API. Claude has no enforced JSON output mode, so the response text is
// scanned for the outermost JSON object.
type Provider struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

func NewProvider(apiKey, model string) *Provider {
	return &Provider{
		apiKey:     apiKey,
		model:      model,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// WithBaseURL overrides the API endpoint. Used in tests.
func (p *Provider) WithBaseURL(baseURL string) *Provider {
	p.baseURL = baseURL
	return p
}

func (p *Provider) Name() string { return "anthropic" }

func (p *Provider) Extract(ctx context.Context, ocrText string) (*models.ReceiptExtraction, error) {
	body := map[string]any{
		"model":      p.model,
		"max_tokens": maxTokens,
		"messages": []map[string]string{
			{"role": "user", "content": buildPrompt(ocrText)},
		},
	}

	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := strings.TrimRight(p.baseURL, "/") + "/v1/messages"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-api-key", p.apiKey)
	req.Header.Set("anthropic-version", apiVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("anthropic http error: %w", err)
	}
	defer resp.Body.Close()

	buf := new(bytes.Buffer)
	_, _ = buf.ReadFrom(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("anthropic status %d: %s", resp.StatusCode, buf.String())
	}

	var message struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(buf.Bytes(), &message); err != nil {
		return nil, fmt.Errorf("decode anthropic response: %w", err)
	}
	if len(message.Content) == 0 {
		return nil, fmt.Errorf("no content in anthropic response")
	}

	jsonStr, err := extractJSON(message.Content[0].Text)
	if err != nil {
		return nil, err
	}
	return models.DecodeExtraction([]byte(jsonStr))
}

// extractJSON locates the outermost JSON object in text. Claude sometimes
// wraps the object in prose or markdown fences despite instructions.
func extractJSON(text string) (string, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return "", fmt.Errorf("could not extract JSON from response")
	}
	return text[start : end+1], nil
}

func buildPrompt(ocrText string) string {
	return fmt.Sprintf(`Extract structured information from this receipt OCR data.

IMPORTANT INSTRUCTIONS:
1. Normalize merchant names (e.g., "Wal-Mrt Super" -> "Walmart")
2. Convert dates to ISO 8601 format (YYYY-MM-DD)
3. Extract all line items with descriptions, categories, quantities, and prices
4. Categorize items: Groceries, Dining, Transportation, Utilities, Entertainment, Healthcare, Clothing, Home & Garden, Personal Care, Shopping, Other
5. Ensure decimal precision for all monetary values
6. If quantities are not specified, assume 1

Return ONLY a valid JSON object (no markdown, no explanation) with this structure:
{
  "merchant_name": "string",
  "purchase_date": "YYYY-MM-DD",
  "total_amount": number,
  "tax_amount": number,
  "line_items": [
    {
      "description": "string",
      "category": "string",
      "quantity": number,
      "unit_price": number,
      "total_price": number
    }
  ]
}

RECEIPT DATA:
%s
`, ocrText)
}

var _ models.ReceiptExtractor = (*Provider)(nil)
