package domain

// CatalogEntityType distinguishes what kind of catalog record a match refers to
type CatalogEntityType string

// Catalog entity types returned by the collaborator lookup
const (
	CatalogMedicine CatalogEntityType = "medicine"
	CatalogSupplier CatalogEntityType = "supplier"
)

// CatalogEntity is a read-only row from the collaborator's inventory or
// supplier store. The pipeline never mutates catalog state; it only ranks
// what the lookup interface returns.
type CatalogEntity struct {
	ID           string            `json:"id"`
	Type         CatalogEntityType `json:"type"`
	Name         string            `json:"name"`
	GenericName  string            `json:"generic_name,omitempty"`
	Manufacturer string            `json:"manufacturer,omitempty"`
	Phone        string            `json:"phone,omitempty"`
	UnitPrice    float64           `json:"unit_price,omitempty"`
}

// MatchRank orders candidates by how the extracted name matched the catalog
type MatchRank int

// Ranks in descending match confidence; lower value sorts first
const (
	MatchExact MatchRank = iota
	MatchSubstring
	MatchGeneric
	MatchManufacturer
	MatchPhone
)

// MatchCandidate pairs a catalog entity with the rank of its match against
// an extracted name
type MatchCandidate struct {
	Entity CatalogEntity `json:"entity"`
	Rank   MatchRank     `json:"rank"`
}
