package extract

import (
	"regexp"
	"strings"

	"github.com/medstack/pharmacy-doc-service/internal/domain"
)

// prescriptionIndicators are keywords expected somewhere in any genuine
// prescription. When none appear the uploaded document is probably not a
// prescription at all, which is worth telling the user.
var prescriptionIndicators = []string{
	"rx", "tab", "tablet", "cap", "capsule", "mg", "ml", "syrup",
	"dose", "dosage", "daily", "morning", "night", "before food",
	"after food", "prescription", "dr.", "dr ",
}

// doctorPattern locates the prescribing doctor by label proximity
var doctorPattern = regexp.MustCompile(`(?i)\b(?:dr\.?|doctor)\s*[:.]?\s+([A-Za-z][A-Za-z .]+)`)

// patientPattern locates the patient by label proximity
var patientPattern = regexp.MustCompile(`(?i)\b(?:patient|pt)\s*(?:name)?\s*[:.-]?\s*([A-Za-z][A-Za-z .]+)`)

// namePattern is the looser "Name:" label used when no patient label exists
var namePattern = regexp.MustCompile(`(?i)^name\s*[:.-]\s*([A-Za-z][A-Za-z .]+)`)

// dosageToken matches a dosage column: strength plus unit, e.g. "500mg"
var dosageToken = `\d+(?:\.\d+)?\s*(?:mg|mcg|ml|gm|g|iu)\b`

// prescriptionLineRule mirrors the bill extractor's ordered rule table,
// tuned for prose-like prescription entries
type prescriptionLineRule struct {
	name    string
	pattern *regexp.Regexp
	build   func(line string, m []string) (domain.PrescriptionLine, bool)
}

var prescriptionLineRules = []prescriptionLineRule{
	{
		// [seq.] name dosage - instructions
		name:    "name_dosage_instructions",
		pattern: regexp.MustCompile(`(?i)^(?:\d+\s*[.)]\s*)?(.+?)\s+(` + dosageToken + `)\s*[-–:]\s*(.+)$`),
		build: func(line string, m []string) (domain.PrescriptionLine, bool) {
			return domain.PrescriptionLine{
				Name:         cleanMedicineName(m[1]),
				Dosage:       strings.TrimSpace(m[2]),
				Instructions: strings.TrimSpace(m[3]),
				SourceLine:   line,
			}, true
		},
	},
	{
		// [seq.] name dosage
		name:    "name_dosage",
		pattern: regexp.MustCompile(`(?i)^(?:\d+\s*[.)]\s*)?(.+?)\s+(` + dosageToken + `)\s*$`),
		build: func(line string, m []string) (domain.PrescriptionLine, bool) {
			return domain.PrescriptionLine{
				Name:       cleanMedicineName(m[1]),
				Dosage:     strings.TrimSpace(m[2]),
				SourceLine: line,
			}, true
		},
	},
	{
		// bare name passing the medicine-likelihood check
		name:    "bare_name",
		pattern: regexp.MustCompile(`^(?:\d+\s*[.)]\s*)?(\D.+)$`),
		build: func(line string, m []string) (domain.PrescriptionLine, bool) {
			name := strings.TrimSpace(m[1])
			if !LooksLikeMedicine(name) {
				return domain.PrescriptionLine{}, false
			}
			return domain.PrescriptionLine{
				Name:       cleanMedicineName(name),
				SourceLine: line,
			}, true
		},
	},
}

// frequencyQuantities maps dosage-frequency words in the instructions to a
// per-day quantity
var frequencyQuantities = []struct {
	pattern  *regexp.Regexp
	quantity int
}{
	{regexp.MustCompile(`(?i)\bfour\s+times\b|\bqid\b|\b1-1-1-1\b`), 4},
	{regexp.MustCompile(`(?i)\bthrice\s+(?:a\s+day|daily)\b|\bthree\s+times\b|\btds\b|\btid\b|\b1-1-1\b`), 3},
	{regexp.MustCompile(`(?i)\btwice\s+(?:a\s+day|daily)\b|\btwo\s+times\b|\bbd\b|\bbid\b|\b1-0-1\b`), 2},
	{regexp.MustCompile(`(?i)\bonce\s+(?:a\s+day|daily)\b|\bod\b|\b1-0-0\b|\b0-0-1\b`), 1},
}

// explicitCountPattern matches an explicit count like "2 tablets"
var explicitCountPattern = regexp.MustCompile(`(?i)\b(\d+)\s+(?:tab|tabs|tablet|tablets|cap|caps|capsule|capsules)\b`)

// ExtractPrescription parses ordered prescription lines into a structured
// record. Like the bill extractor it never fails; missing pieces are
// surfaced as warnings.
func ExtractPrescription(lines []LineToken) *domain.PrescriptionRecord {
	record := domain.NewPrescriptionRecord()

	fullText := joinLines(lines)

	record.Doctor = findByLabel(lines, doctorPattern)
	record.Patient = findPatient(lines)
	if t, ok := findBillDate(lines); ok {
		record.Date = domain.DateOnly{Time: t}
	}

	for _, token := range lines {
		line := string(token)
		if isPrescriptionHeaderLine(line) {
			continue
		}
		if med, ok := matchPrescriptionLine(line); ok {
			med.InferredQuantity = inferQuantity(med.Instructions, line)
			record.AddMedicine(med)
		}
	}

	if len(record.Medicines) == 0 {
		record.AddWarning("no medicines could be extracted")
	}
	if !hasPrescriptionIndicators(fullText) {
		record.AddWarning("document does not look like a prescription")
	}

	return record
}

func joinLines(lines []LineToken) string {
	parts := make([]string, len(lines))
	for i, l := range lines {
		parts[i] = string(l)
	}
	return strings.Join(parts, "\n")
}

// isPrescriptionHeaderLine filters doctor, patient, date and clinic lines
// out of the medicine scan
func isPrescriptionHeaderLine(line string) bool {
	if doctorPattern.MatchString(line) || patientPattern.MatchString(line) || namePattern.MatchString(line) {
		return true
	}
	lower := strings.ToLower(line)
	if strings.Contains(lower, "clinic") || strings.Contains(lower, "hospital") {
		return true
	}
	return headerNoisePattern.MatchString(line)
}

// matchPrescriptionLine runs a line through the three-rule table in order
func matchPrescriptionLine(line string) (domain.PrescriptionLine, bool) {
	for _, rule := range prescriptionLineRules {
		m := rule.pattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if med, ok := rule.build(line, m); ok {
			return med, true
		}
	}
	return domain.PrescriptionLine{}, false
}

// inferQuantity derives a per-day quantity from frequency words in the
// instructions or an explicit count, defaulting to 1
func inferQuantity(instructions, line string) int {
	text := instructions
	if text == "" {
		text = line
	}
	if m := explicitCountPattern.FindStringSubmatch(text); m != nil {
		if n, ok := parseInt(m[1]); ok && n >= 1 {
			return n
		}
	}
	for _, fq := range frequencyQuantities {
		if fq.pattern.MatchString(text) {
			return fq.quantity
		}
	}
	return 1
}

// findByLabel returns the first capture of the pattern across all lines
func findByLabel(lines []LineToken, pattern *regexp.Regexp) string {
	for _, line := range lines {
		if m := pattern.FindStringSubmatch(string(line)); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

// findPatient tries the explicit patient label first, then a bare "Name:"
// line that is not the doctor's
func findPatient(lines []LineToken) string {
	if v := findByLabel(lines, patientPattern); v != "" {
		return v
	}
	for _, line := range lines {
		if doctorPattern.MatchString(string(line)) {
			continue
		}
		if m := namePattern.FindStringSubmatch(string(line)); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

// hasPrescriptionIndicators reports whether any prescription keyword
// appears in the source text
func hasPrescriptionIndicators(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range prescriptionIndicators {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
