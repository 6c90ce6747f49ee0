// internal/domain/models.go
package domain

import (
	"strings"
	"time"
)

// MaxParts is the largest bill of materials a product may carry.
const MaxParts = 20

// Material represents a raw inventory item with stock levels and a unit price
type Material struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	MatPrice     float64 `json:"mat_price"`
	UnitType     string  `json:"unit_type"`
	UnitQty      float64 `json:"unit_qty"`
	Supplier     string  `json:"supplier"`
	SupplierURL  string  `json:"supplier_url,omitempty"`
	UnitPrice    float64 `json:"unit_price"`
	OnHand       float64 `json:"on_hand"`
	Incoming     float64 `json:"incoming"`
	Outgoing     float64 `json:"outgoing"`
	ReorderLevel float64 `json:"reorder_level"`
}

// NetAvailable is on-hand plus incoming minus outgoing stock.
// A negative value means the material is over-committed.
func (m Material) NetAvailable() float64 {
	return m.OnHand + m.Incoming - m.Outgoing
}

// Part is a single bill-of-materials line
type Part struct {
	MaterialName string  `json:"mat_name"`
	Quantity     float64 `json:"qty"`
}

// Product represents a finished good defined by its parts list
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Parts       []Part    `json:"parts"`
	Cost        float64   `json:"cost"`
	Retail      float64   `json:"retail"`
	LastUpdated time.Time `json:"last_updated"`
}

// Selection is one product line of a quote
type Selection struct {
	ProductID string  `json:"product_id"`
	Quantity  float64 `json:"quantity"`
}

// ShoppingListEntry is the stock position of one material against a demand
type ShoppingListEntry struct {
	Material     Material `json:"material"`
	TotalNeeded  float64  `json:"total_needed"`
	NetAvailable float64  `json:"net_available"`
	Shortfall    bool     `json:"shortfall"`
	Reorder      bool     `json:"reorder"`
	ToOrder      float64  `json:"to_order"`
}

// MaterialLookup resolves bill-of-materials names to catalog materials
type MaterialLookup interface {
	MaterialByName(name string) (*Material, bool)
}

// NameIndex is a plain name-keyed material map
type NameIndex map[string]*Material

// MaterialByName implements MaterialLookup with an exact, trimmed match.
func (idx NameIndex) MaterialByName(name string) (*Material, bool) {
	m, ok := idx[strings.TrimSpace(name)]
	return m, ok && m != nil
}

// ProductLookup resolves product IDs
type ProductLookup interface {
	Product(id string) (*Product, bool)
}
