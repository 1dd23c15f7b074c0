package models

// ExpenseField is a single typed key/value pair detected by the document
// analysis service (e.g., Type "TOTAL", Value "45.67").
type ExpenseField struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// ExpenseLineItem is one detected receipt line with its field set.
type ExpenseLineItem struct {
	Fields []ExpenseField `json:"fields"`
}

// LineItemGroup groups detected line items as the analysis service reports
// them.
type LineItemGroup struct {
	LineItems []ExpenseLineItem `json:"line_items"`
}

// ExpenseDocument is the raw structured output of document analysis for one
// detected expense document: summary fields (merchant, date, total, tax)
// plus grouped line items. This is the payload the OCR stage stores on the
// job state.
type ExpenseDocument struct {
	SummaryFields  []ExpenseField  `json:"summary_fields"`
	LineItemGroups []LineItemGroup `json:"line_item_groups"`
}
