package catalog

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/andresuchdata/quotemanager/internal/domain"
)

// Catalog is an immutable, per-load view of materials and products.
// A new Catalog replaces the old one wholesale after every reload.
type Catalog struct {
	materials    []domain.Material
	byID         map[string]*domain.Material
	byName       domain.NameIndex
	byFoldedName map[string]*domain.Material

	products     []domain.Product
	productsByID map[string]*domain.Product

	warnings []string
	loadedAt time.Time
}

// New builds a catalog from raw backend rows. It never fails: unreadable rows are
// skipped and recorded in Warnings.
func New(materialRows, productRows [][]any) *Catalog {
	c := &Catalog{
		materials:    make([]domain.Material, 0, len(materialRows)),
		byID:         make(map[string]*domain.Material, len(materialRows)),
		byName:       make(domain.NameIndex, len(materialRows)),
		byFoldedName: make(map[string]*domain.Material, len(materialRows)),
		products:     make([]domain.Product, 0, len(productRows)),
		productsByID: make(map[string]*domain.Product, len(productRows)),
		loadedAt:     time.Now(),
	}

	seen := make(map[string]struct{}, len(materialRows))
	for i, row := range materialRows {
		m, ok := ParseMaterialRow(row)
		if !ok {
			c.warnf("material row %d: no id or name, skipped", i+1)
			continue
		}
		if _, dup := seen[m.ID]; dup {
			c.warnf("material row %d: duplicate id %q, skipped", i+1, m.ID)
			continue
		}
		seen[m.ID] = struct{}{}
		c.materials = append(c.materials, m)
	}
	// index after the slice stops growing so the pointers stay valid
	for i := range c.materials {
		m := &c.materials[i]
		c.byID[m.ID] = m
		if m.Name == "" {
			continue
		}
		if _, dup := c.byName[m.Name]; dup {
			c.warnf("material %q: duplicate name %q, name lookups use the first", m.ID, m.Name)
			continue
		}
		c.byName[m.Name] = m
		folded := strings.ToLower(m.Name)
		if _, dup := c.byFoldedName[folded]; !dup {
			c.byFoldedName[folded] = m
		}
	}

	for i, row := range productRows {
		p, warnings, ok := parseProductRow(row)
		c.warnings = append(c.warnings, warnings...)
		if !ok {
			c.warnf("product row %d: no id or name, skipped", i+1)
			continue
		}
		if _, dup := c.productsByID[p.ID]; dup {
			c.warnf("product row %d: duplicate id %q, skipped", i+1, p.ID)
			continue
		}
		c.products = append(c.products, p)
		c.productsByID[p.ID] = nil
	}
	for i := range c.products {
		c.productsByID[c.products[i].ID] = &c.products[i]
	}

	return c
}

// Empty returns the well-defined catalog used after a failed load.
func Empty() *Catalog {
	return New(nil, nil)
}

func (c *Catalog) warnf(format string, args ...any) {
	c.warnings = append(c.warnings, fmt.Sprintf(format, args...))
}

// MaterialByID returns the material with the given ID.
func (c *Catalog) MaterialByID(id string) (*domain.Material, bool) {
	m, ok := c.byID[strings.TrimSpace(id)]
	return m, ok
}

// MaterialByName resolves a parts-list name. Exact matches win; otherwise the
// lookup falls back to a case-insensitive match.
func (c *Catalog) MaterialByName(name string) (*domain.Material, bool) {
	name = strings.TrimSpace(name)
	if m, ok := c.byName[name]; ok {
		return m, true
	}
	m, ok := c.byFoldedName[strings.ToLower(name)]
	return m, ok
}

// MaterialsByID exposes the ID index for the shopping-list engine.
func (c *Catalog) MaterialsByID() map[string]*domain.Material {
	return c.byID
}

// Materials returns materials in backend order.
func (c *Catalog) Materials() []domain.Material {
	return c.materials
}

// Product returns the product with the given ID.
func (c *Catalog) Product(id string) (*domain.Product, bool) {
	p, ok := c.productsByID[strings.TrimSpace(id)]
	return p, ok
}

// Products returns products in backend order.
func (c *Catalog) Products() []domain.Product {
	return c.products
}

// ProductTypes lists the distinct product categories, sorted.
func (c *Catalog) ProductTypes() []string {
	seen := make(map[string]struct{})
	types := make([]string, 0)
	for _, p := range c.products {
		if p.Type == "" {
			continue
		}
		if _, ok := seen[p.Type]; ok {
			continue
		}
		seen[p.Type] = struct{}{}
		types = append(types, p.Type)
	}
	sort.Strings(types)
	return types
}

// Warnings lists every row-level problem found while loading.
func (c *Catalog) Warnings() []string {
	return c.warnings
}

// LoadedAt is when the catalog was built.
func (c *Catalog) LoadedAt() time.Time {
	return c.loadedAt
}

// IsEmpty reports whether the catalog holds no materials and no products.
func (c *Catalog) IsEmpty() bool {
	return len(c.materials) == 0 && len(c.products) == 0
}
