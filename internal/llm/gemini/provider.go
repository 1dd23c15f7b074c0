package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/receipto/receipto/pkg/models"
	"google.golang.org/api/option"
)

// Provider implements models.ReceiptExtractor using Google Gemini with a
// typed response schema, so the model is constrained to emit valid JSON.
type Provider struct {
	apiKey string
	model  string
}

func NewProvider(apiKey, model string) *Provider {
	return &Provider{apiKey: apiKey, model: model}
}

func (p *Provider) Name() string { return "gemini" }

func (p *Provider) Extract(ctx context.Context, ocrText string) (*models.ReceiptExtraction, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(p.apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(p.model)
	model.GenerationConfig = genai.GenerationConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   receiptSchema(),
	}

	resp, err := model.GenerateContent(ctx, genai.Text(buildPrompt(ocrText)))
	if err != nil {
		return nil, fmt.Errorf("generating content: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("no response from gemini")
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			responseText.WriteString(string(text))
		}
	}

	return models.DecodeExtraction([]byte(responseText.String()))
}

func receiptSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"merchant_name": {Type: genai.TypeString},
			"purchase_date": {Type: genai.TypeString},
			"total_amount":  {Type: genai.TypeNumber},
			"tax_amount":    {Type: genai.TypeNumber},
			"line_items": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"description": {Type: genai.TypeString},
						"category":    {Type: genai.TypeString},
						"quantity":    {Type: genai.TypeInteger},
						"unit_price":  {Type: genai.TypeNumber},
						"total_price": {Type: genai.TypeNumber},
					},
					Required: []string{"description", "category", "quantity", "unit_price", "total_price"},
				},
			},
		},
		Required: []string{"merchant_name", "purchase_date", "total_amount", "tax_amount", "line_items"},
	}
}

func buildPrompt(ocrText string) string {
	return fmt.Sprintf(`
You are a receipt data extraction expert. Extract structured information from this receipt OCR data.

IMPORTANT INSTRUCTIONS:
1. Normalize merchant names (e.g., "Wal-Mrt Super" -> "Walmart")
2. Convert dates to ISO 8601 format (YYYY-MM-DD)
3. Extract all line items with descriptions, categories, quantities, and prices
4. Categorize items appropriately: Groceries, Dining, Transportation, Utilities, Entertainment, Healthcare, Clothing, Home & Garden, Personal Care, Shopping, Other
5. Ensure decimal precision for all monetary values
6. If quantities are not specified, assume 1

RECEIPT DATA:
%s

Extract the complete structured data.
`, ocrText)
}

var _ models.ReceiptExtractor = (*Provider)(nil)
