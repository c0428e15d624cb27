package domain

import (
	"encoding/json"
	"math"
	"regexp"
	"strings"
	"time"
)

// DateOnly is a custom type for handling date-only strings from JSON
type DateOnly struct {
	time.Time
}

// UnmarshalJSON implements custom unmarshaling for date-only strings
func (d *DateOnly) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}

	// Handle null/empty dates
	if s == "" || s == "null" {
		d.Time = time.Time{}
		return nil
	}

	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// MarshalJSON implements custom marshaling for date-only strings
func (d DateOnly) MarshalJSON() ([]byte, error) {
	if d.Time.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Time.Format("2006-01-02"))
}

// UnitKind classifies how a medicine is packaged and sold
type UnitKind string

// Unit kinds inferred from the medicine name
const (
	UnitStrip  UnitKind = "strip"
	UnitBottle UnitKind = "bottle"
	UnitVial   UnitKind = "vial"
	UnitTube   UnitKind = "tube"
)

// Supplier holds the distributor details extracted from a purchase bill header
type Supplier struct {
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	Phone   string `json:"phone,omitempty"`
	TaxID   string `json:"tax_id,omitempty"`
}

// MedicineLine is a single extracted product entry on a purchase bill
type MedicineLine struct {
	Name        string   `json:"name"`
	Quantity    int      `json:"quantity"`
	UnitPrice   float64  `json:"unit_price"`
	TotalPrice  float64  `json:"total_price"`
	UnitKind    UnitKind `json:"unit_kind"`
	BatchNumber string   `json:"batch_number,omitempty"`
	ExpiryDate  string   `json:"expiry_date,omitempty"`
	SourceLine  string   `json:"source_line"`
}

// Totals holds the monetary summary extracted from a bill
type Totals struct {
	Subtotal    float64 `json:"subtotal"`
	TaxAmount   float64 `json:"tax_amount"`
	TotalAmount float64 `json:"total_amount"`
}

// TaxInfo holds the tax rate stated on a bill, when present
type TaxInfo struct {
	Rate float64 `json:"rate"`
}

// BillRecord represents the structured data extracted from a purchase bill
type BillRecord struct {
	Supplier   Supplier       `json:"supplier"`
	BillNumber string         `json:"bill_number"`
	BillDate   DateOnly       `json:"bill_date"`
	LineItems  []MedicineLine `json:"line_items"`
	Totals     Totals         `json:"totals"`
	TaxInfo    TaxInfo        `json:"tax_info"`
	Warnings   []string       `json:"warnings"`
}

// NewBillRecord creates an empty bill record with initialized slices
func NewBillRecord() *BillRecord {
	return &BillRecord{
		LineItems: make([]MedicineLine, 0),
		Warnings:  make([]string, 0),
	}
}

// AddLineItem appends a line item, recomputing its total when quantity and
// unit price are both known and the stated amount disagrees with them.
// OCR frequently misreads one of the three numbers; quantity times rate is
// the trusted value.
func (b *BillRecord) AddLineItem(item MedicineLine) {
	if item.Quantity > 0 && item.UnitPrice > 0 {
		computed := Round2(float64(item.Quantity) * item.UnitPrice)
		if math.Abs(item.TotalPrice-computed) > 0.01 {
			item.TotalPrice = computed
		}
	}
	b.LineItems = append(b.LineItems, item)
}

// AddWarning records a non-fatal extraction warning on the bill
func (b *BillRecord) AddWarning(msg string) {
	b.Warnings = append(b.Warnings, msg)
}

// SumLineItems returns the sum of all line item totals
func (b *BillRecord) SumLineItems() float64 {
	var sum float64
	for _, item := range b.LineItems {
		sum += item.TotalPrice
	}
	return Round2(sum)
}

// Round2 rounds a monetary amount to two decimal places
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// mlVolumePattern matches "ml" only as a volume token ("100ml", "5 ml",
// bare "ml"), not as a fragment of a name like Amlodipine
var mlVolumePattern = regexp.MustCompile(`\d\s*ml\b|\bml\b`)

// InferUnitKind derives the unit packaging from keywords in the medicine name
func InferUnitKind(name string) UnitKind {
	lower := strings.ToLower(name)
	switch {
	case containsAny(lower, "syrup", "syp", "suspension", "solution", "drops"),
		mlVolumePattern.MatchString(lower):
		return UnitBottle
	case containsAny(lower, "injection", "inj", "vial", "ampoule"):
		return UnitVial
	case containsAny(lower, "ointment", "cream", "gel", "lotion"):
		return UnitTube
	default:
		return UnitStrip
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
