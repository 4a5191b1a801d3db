package domain

// FieldID identifies a semantic field from the field taxonomy.
type FieldID string

const (
	FieldState        FieldID = "state"
	FieldRevenue      FieldID = "revenue"
	FieldDate         FieldID = "date"
	FieldCustomer     FieldID = "customer"
	FieldProduct      FieldID = "product"
	FieldActivityType FieldID = "activity_type"
	FieldEmployee     FieldID = "employee"
	FieldWages        FieldID = "wages"

	// FieldIgnore marks a column with no confident field assignment.
	FieldIgnore FieldID = "ignore"
)

// MappingSource records which tier produced a mapping's confidence.
type MappingSource string

const (
	SourceExact        MappingSource = "exact"
	SourcePartial      MappingSource = "partial"
	SourceFuzzy        MappingSource = "fuzzy"
	SourceDataAnalysis MappingSource = "data_analysis"
	SourceLearned      MappingSource = "learned"
	SourceNone         MappingSource = "none"
)

// DataType is the majority cell shape of a column's samples.
type DataType string

const (
	DataTypeNumber  DataType = "number"
	DataTypeDate    DataType = "date"
	DataTypeString  DataType = "string"
	DataTypeNull    DataType = "null"
	DataTypeUnknown DataType = "unknown"
)

// FieldScore is one ranked candidate for a column.
type FieldScore struct {
	Field      FieldID       `json:"field"`
	Confidence int           `json:"confidence"`
	Source     MappingSource `json:"source"`
}

// ColumnMapping is the header-analysis verdict for one source column.
// SuggestedField is FieldIgnore whenever Confidence is below the mapping threshold.
type ColumnMapping struct {
	File           string        `json:"file"`
	ColumnIndex    int           `json:"column_index"`
	SourceColumn   string        `json:"source_column"`
	SuggestedField FieldID       `json:"suggested_field"`
	Confidence     int           `json:"confidence"`
	Source         MappingSource `json:"source"`
	Alternatives   []FieldScore  `json:"alternatives"`
	DataType       DataType      `json:"data_type"`
	SampleValues   []string      `json:"sample_values"`
}

// IsMapped reports whether the column was assigned a field.
func (m ColumnMapping) IsMapped() bool {
	return m.SuggestedField != "" && m.SuggestedField != FieldIgnore
}

// Normalization is the resolution of one distinct raw state value.
type Normalization struct {
	File       string  `json:"file"`
	Original   string  `json:"original"`
	Normalized *string `json:"normalized"`
	Confidence int     `json:"confidence"`
	Count      int     `json:"count"`
	Flagged    bool    `json:"flagged"`
	Method     string  `json:"method,omitempty"`
}

// Resolved reports whether the value was mapped to a canonical code.
func (n Normalization) Resolved() bool {
	return n.Normalized != nil
}

// Code returns the canonical code or "" when unresolved.
func (n Normalization) Code() string {
	if n.Normalized == nil {
		return ""
	}
	return *n.Normalized
}
