package reconcile

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/medstack/pharmacy-doc-service/internal/domain"
)

// maxCandidates bounds how many ranked matches are returned per extracted
// name
const maxCandidates = 5

// CatalogLookup is the collaborator interface for approximate-name search
// over the store's catalog. Implementations are read-only: the reconciler
// never mutates catalog state.
type CatalogLookup interface {
	// FindMedicinesByName returns medicines whose name, generic name or
	// manufacturer approximately matches the query within a store
	FindMedicinesByName(ctx context.Context, storeID, query string) ([]domain.CatalogEntity, error)

	// FindSuppliersByName returns suppliers whose name or phone
	// approximately matches the query within a store
	FindSuppliersByName(ctx context.Context, storeID, query string) ([]domain.CatalogEntity, error)
}

// ReconcilerError represents an error during catalog reconciliation
type ReconcilerError struct {
	Op  string
	Err error
}

func (e *ReconcilerError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Op
}

// Unwrap returns the underlying error
func (e *ReconcilerError) Unwrap() error {
	return e.Err
}

// Reconciler ranks catalog candidates against names the extractors pulled
// out of a document
type Reconciler struct {
	lookup CatalogLookup
}

// NewReconciler creates a reconciler over the given catalog lookup
func NewReconciler(lookup CatalogLookup) *Reconciler {
	return &Reconciler{lookup: lookup}
}

// ReconcileMedicine ranks catalog medicines against an extracted medicine
// name: exact case-insensitive name match first, then substring or generic
// name match, then manufacturer match. At most maxCandidates are returned.
func (r *Reconciler) ReconcileMedicine(ctx context.Context, storeID, extractedName string) ([]domain.MatchCandidate, error) {
	query := strings.TrimSpace(extractedName)
	if query == "" {
		return nil, nil
	}

	entities, err := r.lookup.FindMedicinesByName(ctx, storeID, query)
	if err != nil {
		return nil, &ReconcilerError{Op: "find_medicines", Err: err}
	}

	return rankCandidates(query, entities, rankMedicine), nil
}

// ReconcileSupplier ranks catalog suppliers against an extracted supplier
// name or phone, with the same ordering rule as medicines
func (r *Reconciler) ReconcileSupplier(ctx context.Context, storeID, extractedName string) ([]domain.MatchCandidate, error) {
	query := strings.TrimSpace(extractedName)
	if query == "" {
		return nil, nil
	}

	entities, err := r.lookup.FindSuppliersByName(ctx, storeID, query)
	if err != nil {
		return nil, &ReconcilerError{Op: "find_suppliers", Err: err}
	}

	return rankCandidates(query, entities, rankSupplier), nil
}

// rankFunc assigns a rank to one catalog entity against the query, or
// reports that the entity does not match at all
type rankFunc func(query string, entity domain.CatalogEntity) (domain.MatchRank, bool)

// rankCandidates scores, sorts and bounds candidates. The sort is stable so
// the lookup's own ordering breaks ties deterministically.
func rankCandidates(query string, entities []domain.CatalogEntity, rank rankFunc) []domain.MatchCandidate {
	candidates := make([]domain.MatchCandidate, 0, len(entities))
	for _, entity := range entities {
		if r, ok := rank(query, entity); ok {
			candidates = append(candidates, domain.MatchCandidate{Entity: entity, Rank: r})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Rank < candidates[j].Rank
	})

	if len(candidates) > maxCandidates {
		candidates = candidates[:maxCandidates]
	}
	return candidates
}

// rankMedicine orders medicine matches: exact name, then name substring,
// then generic name, then manufacturer
func rankMedicine(query string, entity domain.CatalogEntity) (domain.MatchRank, bool) {
	q := strings.ToLower(query)
	name := strings.ToLower(entity.Name)

	switch {
	case name == q:
		return domain.MatchExact, true
	case strings.Contains(name, q) || strings.Contains(q, name):
		return domain.MatchSubstring, true
	case entity.GenericName != "" && strings.Contains(strings.ToLower(entity.GenericName), q):
		return domain.MatchGeneric, true
	case entity.Manufacturer != "" && strings.Contains(strings.ToLower(entity.Manufacturer), q):
		return domain.MatchManufacturer, true
	default:
		return 0, false
	}
}

// rankSupplier orders supplier matches: exact name, then name substring,
// then phone match
func rankSupplier(query string, entity domain.CatalogEntity) (domain.MatchRank, bool) {
	q := strings.ToLower(query)
	name := strings.ToLower(entity.Name)

	switch {
	case name == q:
		return domain.MatchExact, true
	case strings.Contains(name, q) || strings.Contains(q, name):
		return domain.MatchSubstring, true
	case entity.Phone != "" && strings.Contains(entity.Phone, strings.TrimSpace(query)):
		return domain.MatchPhone, true
	default:
		return 0, false
	}
}
