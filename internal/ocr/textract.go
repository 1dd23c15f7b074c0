package ocr

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"
	"github.com/receipto/receipto/pkg/models"
)

// TextractAnalyzer implements Analyzer using AWS Textract's AnalyzeExpense
// API, which is receipt-aware, unlike plain text detection. The client is
// built per call because credentials can change between runs via settings.
type TextractAnalyzer struct{}

func NewTextractAnalyzer() *TextractAnalyzer {
	return &TextractAnalyzer{}
}

func (a *TextractAnalyzer) AnalyzeExpense(ctx context.Context, imageBytes []byte, creds Credentials) ([]models.ExpenseDocument, error) {
	client, err := a.newClient(ctx, creds)
	if err != nil {
		return nil, err
	}

	out, err := client.AnalyzeExpense(ctx, &textract.AnalyzeExpenseInput{
		Document: &types.Document{Bytes: imageBytes},
	})
	if err != nil {
		return nil, fmt.Errorf("textract analyze expense: %w", err)
	}

	docs := make([]models.ExpenseDocument, 0, len(out.ExpenseDocuments))
	for _, doc := range out.ExpenseDocuments {
		docs = append(docs, convertExpenseDocument(doc))
	}
	return docs, nil
}

func (a *TextractAnalyzer) newClient(ctx context.Context, creds Credentials) (*textract.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(creds.Region),
	}
	if creds.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(creds.AccessKeyID, creds.SecretAccessKey, "")))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return textract.NewFromConfig(cfg), nil
}

func convertExpenseDocument(doc types.ExpenseDocument) models.ExpenseDocument {
	out := models.ExpenseDocument{}
	for _, field := range doc.SummaryFields {
		out.SummaryFields = append(out.SummaryFields, convertExpenseField(field))
	}
	for _, group := range doc.LineItemGroups {
		g := models.LineItemGroup{}
		for _, item := range group.LineItems {
			li := models.ExpenseLineItem{}
			for _, field := range item.LineItemExpenseFields {
				li.Fields = append(li.Fields, convertExpenseField(field))
			}
			g.LineItems = append(g.LineItems, li)
		}
		out.LineItemGroups = append(out.LineItemGroups, g)
	}
	return out
}

func convertExpenseField(field types.ExpenseField) models.ExpenseField {
	out := models.ExpenseField{Type: "Unknown"}
	if field.Type != nil && field.Type.Text != nil {
		out.Type = *field.Type.Text
	}
	if field.ValueDetection != nil && field.ValueDetection.Text != nil {
		out.Value = *field.ValueDetection.Text
	}
	return out
}
