package extraction

// Field is a single extracted field/value pair.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// FieldTable is an ordered table of extracted fields. Order matters: it maps
// directly to the rows rendered for each voucher.
type FieldTable []Field

// FieldNames lists the fields every extractor returns, in render order.
var FieldNames = []string{"brand_name", "payment_type", "category", "tax_code"}

// Extractor defines the interface for voucher field extraction
type Extractor interface {
	// ExtractFields analyzes a voucher image/PDF and returns its field table
	ExtractFields(imageData []byte, contentType string) (FieldTable, error)
	// Close closes the extractor and releases resources
	Close() error
}

// Get returns the value for name, or "" when the table has no such field.
func (t FieldTable) Get(name string) string {
	for _, f := range t {
		if f.Name == name {
			return f.Value
		}
	}
	return ""
}
