package extract

import (
	"regexp"
	"strings"
	"time"

	"github.com/medstack/pharmacy-doc-service/internal/domain"
)

// supplierScanWindow bounds how deep into the document the supplier header
// is searched for. Real bills put the distributor in the first block, but
// rarely on the very first line.
const supplierScanWindow = 15

// maxAddressLines caps how many lines after the supplier name are treated
// as its address
const maxAddressLines = 3

// companyIndicators mark a line as a likely supplier/distributor name
var companyIndicators = []string{
	"pharma", "distributor", "distributors", "enterprises", "agencies",
	"medical", "medicos", "drug", "drugs", "traders", "pvt", "ltd",
	"llp", "corporation", "company", "& co", "and co",
}

// headerNoisePattern matches header or footer lines that never carry the
// supplier name: dates, invoice numbers, separators, greetings
var headerNoisePattern = regexp.MustCompile(`(?i)^(date|dt)\b|^(bill|invoice|inv|cash memo|receipt)\b|^[-=*_#.\s]+$|^(tax invoice|original|duplicate|page)\b|^gstin\b|^dl\s*no`)

// itemTableStartPattern detects the beginning of the line-item table, which
// terminates address capture
var itemTableStartPattern = regexp.MustCompile(`(?i)^(sn|sr|s\.no|no|item|particulars|description|product|qty|hsn)\b|\d+\s+\d+(?:\.\d+)?\s+\d+(?:\.\d+)?\s*$`)

// phonePattern matches 10-12 digit phone numbers, optionally labelled
var phonePattern = regexp.MustCompile(`(?i)(?:phone|ph|mobile|mob|tel|contact)?\s*[:.]?\s*(\+?91[-\s]?)?(\d{10,12})\b`)

// taxIDPattern matches the 15-character alphanumeric GST identifier
var taxIDPattern = regexp.MustCompile(`\b(\d{2}[A-Z]{5}\d{4}[A-Z]\d[A-Z0-9]{2})\b`)

// billNumberPattern captures the bill/invoice number after its label. The
// no/number label is mandatory so "Bill Date" lines never match.
var billNumberPattern = regexp.MustCompile(`(?i)(?:bill|invoice|inv)\.?\s*(?:no|number|num|#)\.?\s*[:.]?\s*([A-Z0-9][A-Z0-9/_-]+)`)

// datePattern matches common printed date shapes
var datePattern = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2}|\d{1,2}[/-]\d{1,2}[/-]\d{2,4})\b`)

// expiryPattern matches the MM/YY or MM/YYYY expiry column on item lines
var expiryPattern = regexp.MustCompile(`^\d{1,2}[/-]\d{2,4}$`)

// batchPattern matches a batch number column: alphanumeric with at least
// one digit
var batchPattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9-]*\d[A-Z0-9-]*$`)

// emailPattern disqualifies contact lines from being a supplier name
var emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)

// billLineRule is one entry in the ordered item-pattern table. Rules are
// tried strictly in order; the first whose pattern matches and whose build
// accepts the captures wins.
type billLineRule struct {
	name    string
	pattern *regexp.Regexp
	build   func(line string, m []string) (domain.MedicineLine, bool)
}

// billLineRules is evaluated in priority order. Looser shapes come later so
// a fully tabular line is never parsed as a bare name.
var billLineRules = []billLineRule{
	{
		// name qty rate amount
		name:    "qty_rate_amount",
		pattern: regexp.MustCompile(`^(.+?)\s+(\d+)\s+(\d+(?:\.\d+)?)\s+(\d+(?:,\d{3})*(?:\.\d+)?)$`),
		build: func(line string, m []string) (domain.MedicineLine, bool) {
			name := strings.TrimSpace(m[1])
			// A name ending in batch + expiry columns belongs to the
			// six-column rule below.
			if hasBatchExpiryTail(name) {
				return domain.MedicineLine{}, false
			}
			qty, ok := parseInt(m[2])
			if !ok || qty < 1 {
				return domain.MedicineLine{}, false
			}
			rate, _ := parseFloat(m[3])
			amount, _ := parseFloat(m[4])
			return domain.MedicineLine{
				Name:       cleanMedicineName(name),
				Quantity:   qty,
				UnitPrice:  rate,
				TotalPrice: amount,
				SourceLine: line,
			}, true
		},
	},
	{
		// name batch expiry qty rate amount
		name:    "batch_expiry_qty_rate_amount",
		pattern: regexp.MustCompile(`^(.+?)\s+([A-Z0-9][A-Z0-9-]*)\s+(\d{1,2}[/-]\d{2,4})\s+(\d+)\s+(\d+(?:\.\d+)?)\s+(\d+(?:,\d{3})*(?:\.\d+)?)$`),
		build: func(line string, m []string) (domain.MedicineLine, bool) {
			qty, ok := parseInt(m[4])
			if !ok || qty < 1 {
				return domain.MedicineLine{}, false
			}
			rate, _ := parseFloat(m[5])
			amount, _ := parseFloat(m[6])
			return domain.MedicineLine{
				Name:        cleanMedicineName(m[1]),
				BatchNumber: m[2],
				ExpiryDate:  m[3],
				Quantity:    qty,
				UnitPrice:   rate,
				TotalPrice:  amount,
				SourceLine:  line,
			}, true
		},
	},
	{
		// name qty rate, amount computed
		name:    "qty_rate",
		pattern: regexp.MustCompile(`^(.+?)\s+(\d+)\s+(\d+(?:\.\d+)?)$`),
		build: func(line string, m []string) (domain.MedicineLine, bool) {
			qty, ok := parseInt(m[2])
			if !ok || qty < 1 {
				return domain.MedicineLine{}, false
			}
			rate, _ := parseFloat(m[3])
			return domain.MedicineLine{
				Name:       cleanMedicineName(m[1]),
				Quantity:   qty,
				UnitPrice:  rate,
				TotalPrice: domain.Round2(float64(qty) * rate),
				SourceLine: line,
			}, true
		},
	},
	{
		// bare medicine name with dosage, no numeric columns
		name:    "bare_name",
		pattern: regexp.MustCompile(`^(\D.*?)$`),
		build: func(line string, m []string) (domain.MedicineLine, bool) {
			name := strings.TrimSpace(m[1])
			if name == "" {
				return domain.MedicineLine{}, false
			}
			return domain.MedicineLine{
				Name:       cleanMedicineName(name),
				Quantity:   1,
				UnitPrice:  0,
				TotalPrice: 0,
				SourceLine: line,
			}, true
		},
	},
}

// hasBatchExpiryTail reports whether the last two tokens of a candidate
// name look like a batch number followed by an expiry date
func hasBatchExpiryTail(name string) bool {
	toks := strings.Fields(name)
	if len(toks) < 3 {
		return false
	}
	return batchPattern.MatchString(toks[len(toks)-2]) &&
		expiryPattern.MatchString(toks[len(toks)-1])
}

// dosageSuffixPattern strips the unit suffix off a trailing dosage token so
// "Paracetamol 500mg" and "Paracetamol 500 mg" normalize identically
var dosageSuffixPattern = regexp.MustCompile(`(?i)(\d+)\s*(mg|mcg|ml|gm|g|iu)\b`)

// cleanMedicineName normalizes an extracted medicine name
func cleanMedicineName(name string) string {
	name = strings.TrimSpace(name)
	name = dosageSuffixPattern.ReplaceAllString(name, "$1")
	return strings.TrimSpace(strings.Trim(name, "-:|,."))
}

// ExtractBill parses ordered bill lines into a structured record. The
// bill-specific text sufficiency check must already have passed. It never
// fails: anything it cannot read becomes a warning on the returned record.
func ExtractBill(lines []LineToken) *domain.BillRecord {
	record := domain.NewBillRecord()

	supplierIdx := findSupplierLine(lines)
	if supplierIdx >= 0 {
		record.Supplier.Name = strings.TrimSpace(string(lines[supplierIdx]))
		record.Supplier.Address = collectAddress(lines, supplierIdx+1)
	}

	record.Supplier.Phone = findPhone(lines)
	record.Supplier.TaxID = findTaxID(lines)
	record.BillNumber = findBillNumber(lines)
	if t, ok := findBillDate(lines); ok {
		record.BillDate = domain.DateOnly{Time: t}
	}

	for i, line := range lines {
		if i == supplierIdx {
			continue
		}
		if item, ok := matchLineItem(string(line)); ok {
			item.UnitKind = domain.InferUnitKind(item.Name)
			record.AddLineItem(item)
		}
	}

	extractTotals(lines, record)

	if record.Supplier.Name == "" {
		record.AddWarning("supplier name could not be identified")
	}
	if len(record.LineItems) == 0 {
		record.AddWarning("no line items could be extracted")
	}
	if record.Totals.TotalAmount == 0 {
		record.AddWarning("total amount could not be determined")
	}

	return record
}

// findSupplierLine locates the supplier name in the header block. It first
// looks for a company-indicator keyword, then falls back to the first
// substantial non-numeric, non-contact line. Supplier names are not
// consistently the first line on real scans, and a pure first-line rule
// misfires too often.
func findSupplierLine(lines []LineToken) int {
	window := len(lines)
	if window > supplierScanWindow {
		window = supplierScanWindow
	}

	fallback := -1
	for i := 0; i < window; i++ {
		line := string(lines[i])
		if headerNoisePattern.MatchString(line) {
			continue
		}
		lower := strings.ToLower(line)
		for _, kw := range companyIndicators {
			if strings.Contains(lower, kw) {
				return i
			}
		}
		if fallback < 0 && isSubstantialNameLine(line) {
			fallback = i
		}
	}
	return fallback
}

// isSubstantialNameLine filters fallback supplier candidates: long enough,
// not mostly digits, not a contact line
func isSubstantialNameLine(line string) bool {
	if len(line) <= 5 {
		return false
	}
	if emailPattern.MatchString(line) || phonePattern.MatchString(line) {
		return false
	}
	digits := 0
	for _, r := range line {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits*2 < len(line)
}

// collectAddress gathers up to maxAddressLines after the supplier name,
// stopping at the first line that starts the item table or looks like a
// medicine entry
func collectAddress(lines []LineToken, start int) string {
	var parts []string
	for i := start; i < len(lines) && i < start+maxAddressLines; i++ {
		line := string(lines[i])
		if itemTableStartPattern.MatchString(line) || LooksLikeMedicine(line) {
			break
		}
		if headerNoisePattern.MatchString(line) || phonePattern.MatchString(line) {
			break
		}
		parts = append(parts, line)
	}
	return strings.Join(parts, ", ")
}

// findPhone searches all lines for the first 10-12 digit phone sequence
func findPhone(lines []LineToken) string {
	for _, line := range lines {
		if m := phonePattern.FindStringSubmatch(string(line)); m != nil {
			return m[2]
		}
	}
	return ""
}

// findTaxID searches all lines for the first GST-shaped tax identifier
func findTaxID(lines []LineToken) string {
	for _, line := range lines {
		if m := taxIDPattern.FindStringSubmatch(string(line)); m != nil {
			return m[1]
		}
	}
	return ""
}

// findBillNumber searches for a labelled bill or invoice number
func findBillNumber(lines []LineToken) string {
	for _, line := range lines {
		if m := billNumberPattern.FindStringSubmatch(string(line)); m != nil {
			return m[1]
		}
	}
	return ""
}

// billDateFormats are tried in order when parsing a matched date token
var billDateFormats = []string{
	"2006-01-02", "02/01/2006", "02-01-2006", "02/01/06", "02-01-06",
}

// findBillDate searches for the first parseable date on the bill
func findBillDate(lines []LineToken) (time.Time, bool) {
	for _, line := range lines {
		m := datePattern.FindString(string(line))
		if m == "" {
			continue
		}
		for _, format := range billDateFormats {
			if t, err := time.Parse(format, m); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// totalsKeywordPattern marks a line as part of the monetary summary rather
// than the item table
var totalsKeywordPattern = regexp.MustCompile(`(?i)\b(sub\s*-?\s*total|total|grand\s*total|net\s*amount|amount\s*payable|gst|cgst|sgst|igst|tax|discount|round\s*off)\b`)

// matchLineItem runs a line through the ordered rule table. Lines in the
// header, the totals block, or failing the medicine-likelihood check are
// never items.
func matchLineItem(line string) (domain.MedicineLine, bool) {
	if headerNoisePattern.MatchString(line) || totalsKeywordPattern.MatchString(line) {
		return domain.MedicineLine{}, false
	}
	if itemTableStartPattern.MatchString(line) && !LooksLikeMedicine(line) {
		return domain.MedicineLine{}, false
	}
	if !LooksLikeMedicine(line) {
		return domain.MedicineLine{}, false
	}
	for _, rule := range billLineRules {
		m := rule.pattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if item, ok := rule.build(line, m); ok {
			return item, true
		}
	}
	return domain.MedicineLine{}, false
}

var (
	subtotalPattern = regexp.MustCompile(`(?i)\bsub\s*-?\s*total\b`)
	taxLinePattern  = regexp.MustCompile(`(?i)\b(gst|cgst|sgst|igst|tax)\b`)
	taxRatePattern  = regexp.MustCompile(`(?i)\b(?:gst|tax)\s*@?\s*(\d+(?:\.\d+)?)\s*%`)
	totalPattern    = regexp.MustCompile(`(?i)\b(grand\s*total|net\s*amount|amount\s*payable|total)\b`)
)

// extractTotals scans for subtotal, tax and total lines. Among several
// "total"-labelled lines the largest value wins, guarding against a
// subtotal line being read as the grand total. When no explicit subtotal
// appears but total and tax are known, the subtotal is derived.
func extractTotals(lines []LineToken, record *domain.BillRecord) {
	for _, token := range lines {
		line := string(token)

		if m := taxRatePattern.FindStringSubmatch(line); m != nil {
			if rate, ok := parseFloat(m[1]); ok {
				record.TaxInfo.Rate = rate
			}
		}

		switch {
		case subtotalPattern.MatchString(line):
			if v, ok := lastNumber(line); ok {
				record.Totals.Subtotal = v
			}
		case taxLinePattern.MatchString(line) && !totalPattern.MatchString(line):
			if v, ok := lastNumber(line); ok {
				record.Totals.TaxAmount = v
			}
		case totalPattern.MatchString(line):
			if v, ok := largestNumber(line); ok && v > record.Totals.TotalAmount {
				record.Totals.TotalAmount = v
			}
		}
	}

	if record.Totals.Subtotal == 0 && record.Totals.TotalAmount > 0 && record.Totals.TaxAmount > 0 {
		record.Totals.Subtotal = domain.Round2(record.Totals.TotalAmount - record.Totals.TaxAmount)
	}
}
