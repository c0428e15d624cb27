package catalog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/medstack/pharmacy-doc-service/internal/domain"
)

// lookupLimit bounds how many rows an approximate-name query returns. The
// reconciler caps ranked candidates at five; fetching a few more gives it
// room to reorder.
const lookupLimit = 20

// PostgresCatalog implements reconcile.CatalogLookup against the store
// management service's medicines and suppliers tables. Read-only: the
// pipeline never writes catalog state.
type PostgresCatalog struct {
	db *pgxpool.Pool
}

// NewPostgresCatalog creates a catalog lookup over the given pool
func NewPostgresCatalog(db *pgxpool.Pool) *PostgresCatalog {
	return &PostgresCatalog{db: db}
}

// FindMedicinesByName returns medicines whose name, generic name or
// manufacturer contains the query, case-insensitively, scoped to a store
func (c *PostgresCatalog) FindMedicinesByName(ctx context.Context, storeID, query string) ([]domain.CatalogEntity, error) {
	rows, err := c.db.Query(ctx, `
		SELECT id, name, COALESCE(generic_name, ''), COALESCE(manufacturer, ''), COALESCE(unit_price, 0)
		FROM medicines
		WHERE store_id = $1
		  AND (name ILIKE '%' || $2 || '%'
		       OR generic_name ILIKE '%' || $2 || '%'
		       OR manufacturer ILIKE '%' || $2 || '%')
		ORDER BY name
		LIMIT $3
	`, storeID, query, lookupLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to query medicines: %w", err)
	}
	defer rows.Close()

	var entities []domain.CatalogEntity
	for rows.Next() {
		entity := domain.CatalogEntity{Type: domain.CatalogMedicine}
		if err := rows.Scan(&entity.ID, &entity.Name, &entity.GenericName, &entity.Manufacturer, &entity.UnitPrice); err != nil {
			return nil, fmt.Errorf("failed to scan medicine row: %w", err)
		}
		entities = append(entities, entity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read medicine rows: %w", err)
	}

	return entities, nil
}

// FindSuppliersByName returns suppliers whose name or phone contains the
// query, case-insensitively, scoped to a store
func (c *PostgresCatalog) FindSuppliersByName(ctx context.Context, storeID, query string) ([]domain.CatalogEntity, error) {
	rows, err := c.db.Query(ctx, `
		SELECT id, name, COALESCE(phone, '')
		FROM suppliers
		WHERE store_id = $1
		  AND (name ILIKE '%' || $2 || '%' OR phone LIKE '%' || $2 || '%')
		ORDER BY name
		LIMIT $3
	`, storeID, query, lookupLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to query suppliers: %w", err)
	}
	defer rows.Close()

	var entities []domain.CatalogEntity
	for rows.Next() {
		entity := domain.CatalogEntity{Type: domain.CatalogSupplier}
		if err := rows.Scan(&entity.ID, &entity.Name, &entity.Phone); err != nil {
			return nil, fmt.Errorf("failed to scan supplier row: %w", err)
		}
		entities = append(entities, entity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read supplier rows: %w", err)
	}

	return entities, nil
}
