package extraction

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Mock", func() {
	var (
		mock      *Mock
		imageData []byte
		table     FieldTable
		err       error
	)

	BeforeEach(func() {
		mock = NewMock()
		imageData = []byte("fake image data")
	})

	JustBeforeEach(func() {
		table, err = mock.ExtractFields(imageData, "image/jpeg")
	})

	When("extracting from a non-empty image", func() {
		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should return the fixed field set in order", func() {
			Expect(table).To(Equal(FieldTable{
				{Name: "brand_name", Value: "MockBrand"},
				{Name: "payment_type", Value: "Credit Card"},
				{Name: "category", Value: "Meals"},
				{Name: "tax_code", Value: "TX123"},
			}))
		})

		It("should return the same table on every call", func() {
			again, againErr := mock.ExtractFields([]byte("different bytes"), "image/png")
			Expect(againErr).NotTo(HaveOccurred())
			Expect(again).To(Equal(table))
		})
	})

	When("extracting from an empty image", func() {
		BeforeEach(func() {
			imageData = nil
		})

		It("returns the error", func() {
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Close", func() {
		It("should not return an error", func() {
			Expect(mock.Close()).NotTo(HaveOccurred())
		})
	})
})
