package catalog

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/andresuchdata/quotemanager/internal/domain"
)

// Material row columns as returned by the catalog backend.
const (
	colMatID = iota
	colMatName
	colMatPrice
	colMatUnitType
	colMatUnitQty
	colMatSupplier
	colMatSupplierURL
	colMatUnitPrice
	colMatOnHand
	colMatIncoming
	colMatOutgoing
	colMatReorderLevel
)

// Product row columns as returned by the catalog backend. Column 3 is unused.
const (
	colProdID = iota
	colProdName
	colProdType
	_
	colProdParts
	colProdDescription
	colProdCost
	colProdRetail
	colProdLastUpdated
)

// ParseMaterialRow converts one positional material row into a Material.
// It reports false when the row carries neither an ID nor a name.
func ParseMaterialRow(row []any) (domain.Material, bool) {
	m := domain.Material{
		ID:           asString(cell(row, colMatID)),
		Name:         asString(cell(row, colMatName)),
		MatPrice:     nonNegative(asFloat(cell(row, colMatPrice))),
		UnitType:     asString(cell(row, colMatUnitType)),
		UnitQty:      nonNegative(asFloat(cell(row, colMatUnitQty))),
		Supplier:     asString(cell(row, colMatSupplier)),
		SupplierURL:  asString(cell(row, colMatSupplierURL)),
		UnitPrice:    nonNegative(asFloat(cell(row, colMatUnitPrice))),
		OnHand:       nonNegative(asFloat(cell(row, colMatOnHand))),
		Incoming:     nonNegative(asFloat(cell(row, colMatIncoming))),
		Outgoing:     nonNegative(asFloat(cell(row, colMatOutgoing))),
		ReorderLevel: asFloat(cell(row, colMatReorderLevel)),
	}
	if m.ID == "" && m.Name == "" {
		return domain.Material{}, false
	}
	if m.ID == "" {
		m.ID = m.Name
	}
	if m.UnitPrice == 0 {
		m.UnitPrice = derivedUnitPrice(m.MatPrice, m.UnitQty)
	}
	return m, true
}

// derivedUnitPrice is the pack price spread over the pack quantity.
// An empty pack yields 0 rather than Inf.
func derivedUnitPrice(price, qty float64) float64 {
	if qty <= 0 {
		return 0
	}
	return price / qty
}

// ParseProductRow converts one positional product row into a Product.
// Broken parts JSON is tolerated and leaves the parts list empty.
func ParseProductRow(row []any) (domain.Product, bool) {
	p, _, ok := parseProductRow(row)
	return p, ok
}

func parseProductRow(row []any) (domain.Product, []string, bool) {
	p := domain.Product{
		ID:          asString(cell(row, colProdID)),
		Name:        asString(cell(row, colProdName)),
		Type:        asString(cell(row, colProdType)),
		Description: asString(cell(row, colProdDescription)),
		Cost:        asFloat(cell(row, colProdCost)),
		Retail:      asFloat(cell(row, colProdRetail)),
		LastUpdated: asTime(cell(row, colProdLastUpdated)),
	}
	if p.ID == "" && p.Name == "" {
		return domain.Product{}, nil, false
	}
	if p.ID == "" {
		p.ID = p.Name
	}

	var warnings []string
	parts, err := parseParts(cell(row, colProdParts))
	if err != nil {
		warnings = append(warnings, fmt.Sprintf("product %s: unreadable parts list: %v", p.ID, err))
		parts = nil
	}
	if len(parts) > domain.MaxParts {
		warnings = append(warnings, fmt.Sprintf("product %s: %d parts, keeping the first %d", p.ID, len(parts), domain.MaxParts))
		parts = parts[:domain.MaxParts]
	}
	p.Parts = parts
	if p.Parts == nil {
		p.Parts = []domain.Part{}
	}
	return p, warnings, true
}

type rawPart struct {
	MatName any `json:"matName"`
	Qty     any `json:"qty"`
}

// parseParts decodes the parts column. The column is normally a JSON string, but
// it may be encoded twice (a JSON string holding JSON) or arrive already decoded.
func parseParts(v any) ([]domain.Part, error) {
	var raw []rawPart
	switch t := v.(type) {
	case nil:
		return nil, nil
	case []any:
		b, err := json.Marshal(t)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(b, &raw); err != nil {
			return nil, err
		}
	default:
		s := asString(t)
		if s == "" {
			return nil, nil
		}
		decoded, err := decodeParts(s)
		if err != nil {
			return nil, err
		}
		raw = decoded
	}

	parts := make([]domain.Part, 0, len(raw))
	for _, rp := range raw {
		name := asString(rp.MatName)
		if name == "" {
			continue
		}
		parts = append(parts, domain.Part{
			MaterialName: name,
			Quantity:     nonNegative(asFloat(rp.Qty)),
		})
	}
	return parts, nil
}

func decodeParts(s string) ([]rawPart, error) {
	var raw []rawPart
	err := json.Unmarshal([]byte(s), &raw)
	if err == nil {
		return raw, nil
	}

	// one extra level of encoding: "\"[{...}]\""
	var inner string
	if innerErr := json.Unmarshal([]byte(s), &inner); innerErr != nil {
		return nil, err
	}
	inner = strings.TrimSpace(inner)
	if inner == "" {
		return nil, nil
	}
	if err := json.Unmarshal([]byte(inner), &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// LoadMaterials indexes material rows by ID and by name. Rows that cannot be read
// are skipped; the first row wins when IDs or names repeat.
func LoadMaterials(rows [][]any) (map[string]*domain.Material, domain.NameIndex) {
	c := New(rows, nil)
	return c.byID, c.byName
}

// LoadProducts parses product rows, skipping unreadable ones.
func LoadProducts(rows [][]any) []domain.Product {
	return New(nil, rows).Products()
}
