package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/andresuchdata/quotemanager/internal/catalog"
	"github.com/andresuchdata/quotemanager/internal/domain"
	"github.com/jmoiron/sqlx"
)

const schema = `
CREATE TABLE IF NOT EXISTS materials (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	mat_price     NUMERIC(12,4) NOT NULL DEFAULT 0,
	unit_type     TEXT NOT NULL DEFAULT '',
	unit_qty      NUMERIC(12,4) NOT NULL DEFAULT 0,
	supplier      TEXT NOT NULL DEFAULT '',
	supplier_url  TEXT NOT NULL DEFAULT '',
	unit_price    NUMERIC(12,4) NOT NULL DEFAULT 0,
	on_hand       NUMERIC(12,4) NOT NULL DEFAULT 0,
	incoming      NUMERIC(12,4) NOT NULL DEFAULT 0,
	outgoing      NUMERIC(12,4) NOT NULL DEFAULT 0,
	reorder_level NUMERIC(12,4) NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS products (
	id           TEXT PRIMARY KEY,
	name         TEXT NOT NULL,
	product_type TEXT NOT NULL DEFAULT '',
	parts        TEXT NOT NULL DEFAULT '[]',
	description  TEXT NOT NULL DEFAULT '',
	cost         NUMERIC(12,4) NOT NULL DEFAULT 0,
	retail       NUMERIC(12,4) NOT NULL DEFAULT 0,
	last_updated TIMESTAMPTZ
);
`

type materialRecord struct {
	ID           string  `db:"id"`
	Name         string  `db:"name"`
	MatPrice     float64 `db:"mat_price"`
	UnitType     string  `db:"unit_type"`
	UnitQty      float64 `db:"unit_qty"`
	Supplier     string  `db:"supplier"`
	SupplierURL  string  `db:"supplier_url"`
	UnitPrice    float64 `db:"unit_price"`
	OnHand       float64 `db:"on_hand"`
	Incoming     float64 `db:"incoming"`
	Outgoing     float64 `db:"outgoing"`
	ReorderLevel float64 `db:"reorder_level"`
}

// row lays the record out in the backend's positional material contract.
func (r materialRecord) row() []any {
	return []any{
		r.ID, r.Name, r.MatPrice, r.UnitType, r.UnitQty, r.Supplier, r.SupplierURL,
		r.UnitPrice, r.OnHand, r.Incoming, r.Outgoing, r.ReorderLevel,
	}
}

type productRecord struct {
	ID          string       `db:"id"`
	Name        string       `db:"name"`
	Type        string       `db:"product_type"`
	Parts       string       `db:"parts"`
	Description string       `db:"description"`
	Cost        float64      `db:"cost"`
	Retail      float64      `db:"retail"`
	LastUpdated sql.NullTime `db:"last_updated"`
}

// row lays the record out in the backend's positional product contract.
func (r productRecord) row() []any {
	var updated any
	if r.LastUpdated.Valid {
		updated = r.LastUpdated.Time
	}
	return []any{r.ID, r.Name, r.Type, "", r.Parts, r.Description, r.Cost, r.Retail, updated}
}

type partRecord struct {
	MatName string  `json:"matName"`
	Qty     float64 `json:"qty"`
}

// CatalogRepository reads and writes the catalog tables.
type CatalogRepository struct {
	db *DB
}

func NewCatalogRepository(db *DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// EnsureSchema creates the catalog tables when they are missing.
func (r *CatalogRepository) EnsureSchema(ctx context.Context) error {
	return r.db.withSlot(ctx, func() error {
		if _, err := r.db.ExecContext(ctx, schema); err != nil {
			return fmt.Errorf("failed to create catalog schema: %w", err)
		}
		return nil
	})
}

func (r *CatalogRepository) Name() string {
	return "postgres"
}

func (r *CatalogRepository) MaterialRows(ctx context.Context) ([][]any, error) {
	var records []materialRecord
	query := `
		SELECT id, name, mat_price, unit_type, unit_qty, supplier, supplier_url,
		       unit_price, on_hand, incoming, outgoing, reorder_level
		FROM materials
		ORDER BY name, id
	`
	err := r.db.withSlot(ctx, func() error {
		return r.db.SelectContext(ctx, &records, query)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to select materials: %w", err)
	}

	rows := make([][]any, 0, len(records))
	for _, rec := range records {
		rows = append(rows, rec.row())
	}
	return rows, nil
}

func (r *CatalogRepository) ProductRows(ctx context.Context) ([][]any, error) {
	var records []productRecord
	query := `
		SELECT id, name, product_type, parts, description, cost, retail, last_updated
		FROM products
		ORDER BY name, id
	`
	err := r.db.withSlot(ctx, func() error {
		return r.db.SelectContext(ctx, &records, query)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to select products: %w", err)
	}

	rows := make([][]any, 0, len(records))
	for _, rec := range records {
		rows = append(rows, rec.row())
	}
	return rows, nil
}

// ImportCatalog upserts every material and product of a loaded catalog in one
// transaction.
func (r *CatalogRepository) ImportCatalog(ctx context.Context, c *catalog.Catalog) error {
	materials := make([]materialRecord, 0, len(c.Materials()))
	for _, m := range c.Materials() {
		materials = append(materials, toMaterialRecord(m))
	}
	products := make([]productRecord, 0, len(c.Products()))
	for _, p := range c.Products() {
		rec, err := toProductRecord(p)
		if err != nil {
			return err
		}
		products = append(products, rec)
	}

	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		materialQuery := `
			INSERT INTO materials (
				id, name, mat_price, unit_type, unit_qty, supplier, supplier_url,
				unit_price, on_hand, incoming, outgoing, reorder_level
			) VALUES (
				:id, :name, :mat_price, :unit_type, :unit_qty, :supplier, :supplier_url,
				:unit_price, :on_hand, :incoming, :outgoing, :reorder_level
			)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				mat_price = EXCLUDED.mat_price,
				unit_type = EXCLUDED.unit_type,
				unit_qty = EXCLUDED.unit_qty,
				supplier = EXCLUDED.supplier,
				supplier_url = EXCLUDED.supplier_url,
				unit_price = EXCLUDED.unit_price,
				on_hand = EXCLUDED.on_hand,
				incoming = EXCLUDED.incoming,
				outgoing = EXCLUDED.outgoing,
				reorder_level = EXCLUDED.reorder_level
		`
		for _, rec := range materials {
			if _, err := tx.NamedExecContext(ctx, materialQuery, rec); err != nil {
				return fmt.Errorf("failed to upsert material %s: %w", rec.ID, err)
			}
		}

		productQuery := `
			INSERT INTO products (
				id, name, product_type, parts, description, cost, retail, last_updated
			) VALUES (
				:id, :name, :product_type, :parts, :description, :cost, :retail, :last_updated
			)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				product_type = EXCLUDED.product_type,
				parts = EXCLUDED.parts,
				description = EXCLUDED.description,
				cost = EXCLUDED.cost,
				retail = EXCLUDED.retail,
				last_updated = EXCLUDED.last_updated
		`
		for _, rec := range products {
			if _, err := tx.NamedExecContext(ctx, productQuery, rec); err != nil {
				return fmt.Errorf("failed to upsert product %s: %w", rec.ID, err)
			}
		}
		return nil
	})
}

func toMaterialRecord(m domain.Material) materialRecord {
	return materialRecord{
		ID:           m.ID,
		Name:         m.Name,
		MatPrice:     m.MatPrice,
		UnitType:     m.UnitType,
		UnitQty:      m.UnitQty,
		Supplier:     m.Supplier,
		SupplierURL:  m.SupplierURL,
		UnitPrice:    m.UnitPrice,
		OnHand:       m.OnHand,
		Incoming:     m.Incoming,
		Outgoing:     m.Outgoing,
		ReorderLevel: m.ReorderLevel,
	}
}

func toProductRecord(p domain.Product) (productRecord, error) {
	parts := make([]partRecord, 0, len(p.Parts))
	for _, part := range p.Parts {
		parts = append(parts, partRecord{MatName: part.MaterialName, Qty: part.Quantity})
	}
	encoded, err := json.Marshal(parts)
	if err != nil {
		return productRecord{}, fmt.Errorf("encode parts of product %s: %w", p.ID, err)
	}

	rec := productRecord{
		ID:          p.ID,
		Name:        p.Name,
		Type:        p.Type,
		Parts:       string(encoded),
		Description: p.Description,
		Cost:        p.Cost,
		Retail:      p.Retail,
	}
	if !p.LastUpdated.IsZero() {
		rec.LastUpdated = sql.NullTime{Time: p.LastUpdated.UTC().Truncate(time.Microsecond), Valid: true}
	}
	return rec, nil
}

var _ catalog.Source = (*CatalogRepository)(nil)
