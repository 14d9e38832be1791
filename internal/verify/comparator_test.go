package verify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trustcart/trustcart/internal/domain"
)

func samplePromise() domain.PromiseRecord {
	return domain.PromiseRecord{
		Price:              1500,
		DeliveryCharges:    50,
		DeliveryTime:       "2-3 days",
		ReturnPolicy:       "7 days return policy",
		ProductDescription: "Wireless Bluetooth Headphones with noise cancellation",
	}
}

func sampleInvoice() domain.InvoiceRecord {
	p := samplePromise()
	return domain.InvoiceRecord{
		Price:              p.Price,
		DeliveryCharges:    p.DeliveryCharges,
		DeliveryTime:       p.DeliveryTime,
		ReturnPolicy:       p.ReturnPolicy,
		ProductDescription: p.ProductDescription,
	}
}

func TestCompareFields_IdenticalPair(t *testing.T) {
	mismatches := CompareFields(samplePromise(), sampleInvoice())
	assert.Empty(t, mismatches)
}

func TestCompareFields_PriceTolerance(t *testing.T) {
	invoice := sampleInvoice()
	invoice.Price = 1500.01
	assert.Empty(t, CompareFields(samplePromise(), invoice), "one paisa is rounding noise")

	invoice.Price = 1500.02
	mismatches := CompareFields(samplePromise(), invoice)
	require.Len(t, mismatches, 1)
	assert.Equal(t, domain.FieldPrice, mismatches[0].Field)
	assert.Equal(t, domain.SeverityHigh, mismatches[0].Severity)
	assert.Contains(t, mismatches[0].Explanation, "1500")
	assert.Contains(t, mismatches[0].Explanation, "1500.02")
}

func TestCompareFields_DeliveryCharges(t *testing.T) {
	invoice := sampleInvoice()
	invoice.DeliveryCharges = 100
	mismatches := CompareFields(samplePromise(), invoice)
	require.Len(t, mismatches, 1)
	assert.Equal(t, domain.FieldDeliveryCharges, mismatches[0].Field)
	assert.Equal(t, domain.SeverityMedium, mismatches[0].Severity)
}

func TestCompareFields_DeliveryTimeCaseInsensitive(t *testing.T) {
	invoice := sampleInvoice()
	invoice.DeliveryTime = "2-3 DAYS"
	assert.Empty(t, CompareFields(samplePromise(), invoice))

	invoice.DeliveryTime = "5-7 days"
	mismatches := CompareFields(samplePromise(), invoice)
	require.Len(t, mismatches, 1)
	assert.Equal(t, domain.FieldDeliveryTime, mismatches[0].Field)
	assert.Equal(t, domain.SeverityMedium, mismatches[0].Severity)
}

func TestCompareFields_FixedFieldOrder(t *testing.T) {
	promise := samplePromise()
	invoice := sampleInvoice()
	invoice.Price = 999
	invoice.DeliveryCharges = 150
	invoice.DeliveryTime = "10 days"
	invoice.ReturnPolicy = "no returns"
	invoice.ProductDescription = "Completely unrelated wired earphones"

	mismatches := CompareFields(promise, invoice)
	require.Len(t, mismatches, 5)
	for i, field := range domain.ComparedFields {
		assert.Equal(t, field, mismatches[i].Field)
	}
}

func TestPoliciesSimilar(t *testing.T) {
	tests := []struct {
		name    string
		a, b    string
		similar bool
	}{
		{"exact match", "7 days return policy", "7 days return policy", true},
		{"case and spacing", "  7 Days Return Policy ", "7 days return policy", true},
		{"numeric disagreement", "7 days return policy", "5 days return policy", false},
		{"five vs zero", "5", "0", false},
		{"one-sided zero policy", "7 days return", "no returns accepted", false},
		{"both zero policy", "no returns", "no returns at all", true},
		{"both zero but unrelated wording", "no returns", "none", false},
		{"warranty vs return", "1 year warranty coverage", "1 year return window", false},
		{"token overlap passes", "7 days return policy", "7 days return policy offered", true},
		{"token overlap fails", "7 days return policy", "1 week returns", false},
		{"empty vs text", "", "7 days return", false},
		{"both empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.similar, PoliciesSimilar(tt.a, tt.b))
			assert.Equal(t, tt.similar, PoliciesSimilar(tt.b, tt.a), "similarity must be symmetric")
		})
	}
}

func TestDescriptionsSimilar(t *testing.T) {
	tests := []struct {
		name    string
		a, b    string
		similar bool
	}{
		{"exact match", "Wireless headphones", "wireless headphones", true},
		{
			"antonym replacement vs repair",
			"Premium headphones with free replacement",
			"Premium headphones with free repair",
			false,
		},
		{
			"antonym new vs used",
			"Brand new phone sealed box",
			"Phone in used condition sealed box",
			false,
		},
		{
			"embedded integer count differs",
			"Headphones with 2 year warranty",
			"Headphones with warranty",
			false,
		},
		{
			"embedded integer max differs",
			"Headphones with 2 year warranty",
			"Headphones with 1 year warranty",
			false,
		},
		{
			"fuzzy token overlap passes",
			"Wireless Bluetooth Headphones with noise cancellation",
			"Wireless Bluetooth Headphone with noise cancelling feature",
			true,
		},
		{
			"fuzzy token overlap fails",
			"Wireless Bluetooth Headphones",
			"Cotton kitchen towels pack",
			false,
		},
		{"empty vs text", "", "Wireless headphones", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.similar, DescriptionsSimilar(tt.a, tt.b))
		})
	}
}

func TestCompareFields_DescriptionMismatchIsLowSeverity(t *testing.T) {
	invoice := sampleInvoice()
	invoice.ProductDescription = "Wired earbuds basic model"
	mismatches := CompareFields(samplePromise(), invoice)
	require.Len(t, mismatches, 1)
	assert.Equal(t, domain.FieldProductDescription, mismatches[0].Field)
	assert.Equal(t, domain.SeverityLow, mismatches[0].Severity)
}

func TestCompareFields_EmptyStringsDoNotPanic(t *testing.T) {
	promise := domain.PromiseRecord{}
	invoice := domain.InvoiceRecord{}
	assert.NotPanics(t, func() {
		mismatches := CompareFields(promise, invoice)
		// Empty text on both sides is an exact match everywhere.
		assert.Empty(t, mismatches)
	})
}
