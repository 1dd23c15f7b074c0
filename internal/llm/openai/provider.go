package openai

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

const defaultBaseURL = "https://api.openai.com/v1"

// Provider implements models.ReceiptExtractor against the OpenAI
// chat/completions API with response_format json_object.
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

func (p *Provider) Name() string { return "openai" }

func (p *Provider) Extract(ctx context.Context, ocrText string) (*models.ReceiptExtraction, error) {
	body := map[string]any{
		"model": p.model,
		"messages": []map[string]string{
			{"role": "system", "content": "You are a receipt data extraction expert."},
			{"role": "user", "content": buildPrompt(ocrText)},
		},
		"response_format": map[string]string{"type": "json_object"},
	}

	endpoint := strings.TrimRight(p.baseURL, "/") + "/chat/completions"
	raw, err := p.post(ctx, endpoint, body)
	if err != nil {
		return nil, err
	}

	var completion struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &completion); err != nil {
		return nil, fmt.Errorf("decode openai response: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("no choices in openai response")
	}

	content := strings.TrimSpace(completion.Choices[0].Message.Content)
	return models.DecodeExtraction([]byte(content))
}

func (p *Provider) post(ctx context.Context, url string, body map[string]any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai http error: %w", err)
	}
	defer resp.Body.Close()

	buf := new(bytes.Buffer)
	_, _ = buf.ReadFrom(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("openai status %d: %s", resp.StatusCode, buf.String())
	}
	return buf.Bytes(), nil
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

Return a JSON object with this structure:
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
