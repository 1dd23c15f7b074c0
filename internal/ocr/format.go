package ocr

import (
	"fmt"
	"strings"

	"github.com/receipto/receipto/pkg/models"
)

// FormatForLLM renders analyzed expense documents as plain text for the
// extraction prompt. Field types keep whatever labels the analysis service
// detected; missing types render as "Unknown".
func FormatForLLM(docs []models.ExpenseDocument) string {
	var b strings.Builder
	b.WriteString("=== RECEIPT DATA ===\n\n")

	for _, doc := range docs {
		b.WriteString("SUMMARY FIELDS:\n")
		for _, field := range doc.SummaryFields {
			fmt.Fprintf(&b, "- %s: %s\n", orUnknown(field.Type), field.Value)
		}

		b.WriteString("\nLINE ITEMS:\n")
		for _, group := range doc.LineItemGroups {
			for i, item := range group.LineItems {
				fmt.Fprintf(&b, "\nItem %d:\n", i+1)
				for _, field := range item.Fields {
					fmt.Fprintf(&b, "  - %s: %s\n", orUnknown(field.Type), field.Value)
				}
			}
		}
	}
	return b.String()
}

func orUnknown(fieldType string) string {
	if fieldType == "" {
		return "Unknown"
	}
	return fieldType
}
