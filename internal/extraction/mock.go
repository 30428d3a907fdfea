package extraction

import "fmt"

// Mock implements the Extractor interface with fixed placeholder values. It
// stands in for the real document-understanding processor in demos and tests.
type Mock struct{}

// NewMock creates a new Mock Extractor instance
func NewMock() *Mock {
	return &Mock{}
}

// ExtractFields returns the same field table for every non-empty image
func (m *Mock) ExtractFields(imageData []byte, contentType string) (FieldTable, error) {
	if len(imageData) == 0 {
		return nil, fmt.Errorf("empty image data")
	}

	return FieldTable{
		{Name: "brand_name", Value: "MockBrand"},
		{Name: "payment_type", Value: "Credit Card"},
		{Name: "category", Value: "Meals"},
		{Name: "tax_code", Value: "TX123"},
	}, nil
}

// Close is a no-op for the mock
func (m *Mock) Close() error {
	return nil
}
