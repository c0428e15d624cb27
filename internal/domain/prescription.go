package domain

// PrescriptionLine is a single medicine entry extracted from a prescription
type PrescriptionLine struct {
	Name             string `json:"name"`
	Dosage           string `json:"dosage,omitempty"`
	Instructions     string `json:"instructions,omitempty"`
	InferredQuantity int    `json:"inferred_quantity"`
	SourceLine       string `json:"source_line"`
}

// PrescriptionRecord represents the structured data extracted from a prescription
type PrescriptionRecord struct {
	Doctor    string             `json:"doctor,omitempty"`
	Patient   string             `json:"patient,omitempty"`
	Date      DateOnly           `json:"date,omitempty"`
	Medicines []PrescriptionLine `json:"medicines"`
	Warnings  []string           `json:"warnings"`
}

// NewPrescriptionRecord creates an empty prescription record with initialized slices
func NewPrescriptionRecord() *PrescriptionRecord {
	return &PrescriptionRecord{
		Medicines: make([]PrescriptionLine, 0),
		Warnings:  make([]string, 0),
	}
}

// AddMedicine appends an extracted medicine line, defaulting the inferred
// quantity to 1 when nothing could be read from the instructions
func (p *PrescriptionRecord) AddMedicine(line PrescriptionLine) {
	if line.InferredQuantity < 1 {
		line.InferredQuantity = 1
	}
	p.Medicines = append(p.Medicines, line)
}

// AddWarning records a non-fatal extraction warning on the prescription
func (p *PrescriptionRecord) AddWarning(msg string) {
	p.Warnings = append(p.Warnings, msg)
}
