package extract

import (
	"testing"

	"github.com/medstack/pharmacy-doc-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractBillBasic(t *testing.T) {
	lines := SplitLines(
		"ABC PHARMACEUTICALS\n" +
			"Phone: 9876543210\n" +
			"Bill No: INV-2024-001\n" +
			"Paracetamol 500mg 10 12.50\n" +
			"Total: 125.00\n")

	record := ExtractBill(lines)

	assert.Equal(t, "ABC PHARMACEUTICALS", record.Supplier.Name)
	assert.Equal(t, "9876543210", record.Supplier.Phone)
	assert.Equal(t, "INV-2024-001", record.BillNumber)

	require.Len(t, record.LineItems, 1)
	item := record.LineItems[0]
	assert.Equal(t, "Paracetamol 500", item.Name)
	assert.Equal(t, 10, item.Quantity)
	assert.InDelta(t, 12.50, item.UnitPrice, 0.001)
	assert.InDelta(t, 125.00, item.TotalPrice, 0.001)
	assert.Equal(t, domain.UnitStrip, item.UnitKind)

	assert.InDelta(t, 125.00, record.Totals.TotalAmount, 0.001)
	assert.Empty(t, record.Warnings)
}

func TestExtractBillTabularColumns(t *testing.T) {
	lines := SplitLines(
		"Mehta Medical Agencies\n" +
			"12 Station Road, Pune\n" +
			"GSTIN: 27ABCDE1234F1Z5\n" +
			"Invoice No: 4471 Date: 15/01/2024\n" +
			"Item Batch Exp Qty Rate Amount\n" +
			"Amoxicillin 500mg B123 12/25 10 15.00 150.00\n" +
			"Benadryl Syrup 100ml C45X 06/26 2 98.00 196.00\n" +
			"Sub Total: 346.00\n" +
			"GST @ 12%: 41.52\n" +
			"Grand Total: 387.52\n")

	record := ExtractBill(lines)

	assert.Equal(t, "Mehta Medical Agencies", record.Supplier.Name)
	assert.Equal(t, "12 Station Road, Pune", record.Supplier.Address)
	assert.Equal(t, "27ABCDE1234F1Z5", record.Supplier.TaxID)
	assert.Equal(t, "4471", record.BillNumber)
	assert.Equal(t, "2024-01-15", record.BillDate.Format("2006-01-02"))

	require.Len(t, record.LineItems, 2)

	first := record.LineItems[0]
	assert.Equal(t, "Amoxicillin 500", first.Name)
	assert.Equal(t, "B123", first.BatchNumber)
	assert.Equal(t, "12/25", first.ExpiryDate)
	assert.Equal(t, 10, first.Quantity)
	assert.InDelta(t, 15.00, first.UnitPrice, 0.001)
	assert.InDelta(t, 150.00, first.TotalPrice, 0.001)

	second := record.LineItems[1]
	assert.Equal(t, "Benadryl Syrup 100", second.Name)
	assert.Equal(t, domain.UnitBottle, second.UnitKind)

	assert.InDelta(t, 346.00, record.Totals.Subtotal, 0.001)
	assert.InDelta(t, 41.52, record.Totals.TaxAmount, 0.001)
	assert.InDelta(t, 387.52, record.Totals.TotalAmount, 0.001)
	assert.InDelta(t, 12.0, record.TaxInfo.Rate, 0.001)
}

func TestExtractBillRecomputesInconsistentTotal(t *testing.T) {
	lines := SplitLines(
		"Sharma Drug Distributors\n" +
			"Bill No: 88\n" +
			"Ibuprofen 400mg 5 10.00 60.00\n" +
			"Cetirizine 10mg 3 4.50 13.50\n" +
			"Total: 63.50\n")

	record := ExtractBill(lines)

	require.Len(t, record.LineItems, 2)
	// 5 x 10.00 disagrees with the stated 60.00, so quantity times rate wins
	assert.InDelta(t, 50.00, record.LineItems[0].TotalPrice, 0.001)
	assert.InDelta(t, 13.50, record.LineItems[1].TotalPrice, 0.001)
}

func TestExtractBillLargestTotalWins(t *testing.T) {
	lines := SplitLines(
		"Gupta Pharma\n" +
			"Bill No: 12\n" +
			"Paracetamol 500mg 10 12.50\n" +
			"Total: 125.00\n" +
			"Grand Total: 140.00\n")

	record := ExtractBill(lines)
	assert.InDelta(t, 140.00, record.Totals.TotalAmount, 0.001)
}

func TestExtractBillDerivesSubtotal(t *testing.T) {
	lines := SplitLines(
		"Gupta Pharma\n" +
			"Bill No: 13\n" +
			"Paracetamol 500mg 10 12.50\n" +
			"GST: 15.00\n" +
			"Total: 140.00\n")

	record := ExtractBill(lines)
	assert.InDelta(t, 15.00, record.Totals.TaxAmount, 0.001)
	assert.InDelta(t, 140.00, record.Totals.TotalAmount, 0.001)
	assert.InDelta(t, 125.00, record.Totals.Subtotal, 0.001)
}

func TestExtractBillWarnings(t *testing.T) {
	// No company indicator, no medicine-shaped lines, no totals: the
	// extractor still returns a record carrying all three warnings.
	lines := SplitLines(
		"lorem ipsum dolor\n" +
			"sit amet consectetur\n" +
			"adipiscing elit sed\n" +
			"do eiusmod tempor\n" +
			"incididunt ut labore\n")

	record := ExtractBill(lines)

	assert.Empty(t, record.LineItems)
	assert.Contains(t, record.Warnings, "no line items could be extracted")
	assert.Contains(t, record.Warnings, "total amount could not be determined")
}

func TestExtractBillIsDeterministic(t *testing.T) {
	lines := SplitLines(
		"ABC PHARMACEUTICALS\n" +
			"Bill No: INV-2024-001\n" +
			"Paracetamol 500mg 10 12.50\n" +
			"Total: 125.00\n")

	first := ExtractBill(lines)
	second := ExtractBill(lines)
	assert.Equal(t, first, second)
}

func TestMatchLineItemSkipsSummaryLines(t *testing.T) {
	tests := []string{
		"Sub Total: 346.00",
		"GST @ 12%: 41.52",
		"Grand Total: 387.52",
		"Discount: 10.00",
		"Item Batch Exp Qty Rate Amount",
	}
	for _, line := range tests {
		t.Run(line, func(t *testing.T) {
			_, ok := matchLineItem(line)
			assert.False(t, ok)
		})
	}
}

func TestCleanMedicineName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Paracetamol 500mg", "Paracetamol 500"},
		{"Paracetamol 500 mg", "Paracetamol 500"},
		{"Azithral 250 MG", "Azithral 250"},
		{"Crocin-", "Crocin"},
		{"  Dolo 650mg : ", "Dolo 650"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanMedicineName(tt.in))
		})
	}
}
