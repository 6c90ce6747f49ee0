package stock

import (
	"math"
	"sort"
	"strings"

	"github.com/andresuchdata/quotemanager/internal/domain"
)

// NetAvailable is on-hand plus incoming minus outgoing. It may be negative.
func NetAvailable(m domain.Material) float64 {
	return m.NetAvailable()
}

// Demand is the total material requirement of a selection, keyed by material ID
type Demand struct {
	ByMaterial map[string]float64
	// Unresolved lists product IDs and material names that could not be found.
	Unresolved []string
}

// AggregateDemand sums quantity * qty-per-unit over the selected products and merges
// the result by material ID.
func AggregateDemand(items []domain.Selection, products domain.ProductLookup, materials domain.MaterialLookup) Demand {
	d := Demand{ByMaterial: make(map[string]float64)}
	seen := make(map[string]struct{})
	unresolved := func(key string) {
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		d.Unresolved = append(d.Unresolved, key)
	}

	for _, item := range items {
		if item.Quantity <= 0 {
			continue
		}
		p, ok := findProduct(products, item.ProductID)
		if !ok {
			unresolved("product:" + item.ProductID)
			continue
		}
		for _, part := range p.Parts {
			m, ok := findMaterial(materials, part.MaterialName)
			if !ok {
				unresolved("material:" + part.MaterialName)
				continue
			}
			if part.Quantity <= 0 {
				continue
			}
			d.ByMaterial[m.ID] += item.Quantity * part.Quantity
		}
	}
	return d
}

// A nil lookup resolves nothing.
func findProduct(products domain.ProductLookup, id string) (*domain.Product, bool) {
	if products == nil {
		return nil, false
	}
	return products.Product(id)
}

func findMaterial(materials domain.MaterialLookup, name string) (*domain.Material, bool) {
	if materials == nil {
		return nil, false
	}
	return materials.MaterialByName(name)
}

// ShoppingList compares demand with each material's net availability. Material IDs
// missing from the catalog are skipped. The result is sorted by material name.
func ShoppingList(demand map[string]float64, materialsByID map[string]*domain.Material) []domain.ShoppingListEntry {
	entries := make([]domain.ShoppingListEntry, 0, len(demand))
	for id, needed := range demand {
		m, ok := materialsByID[id]
		if !ok || m == nil {
			continue
		}
		entries = append(entries, Entry(*m, needed))
	}
	sort.Slice(entries, func(i, j int) bool {
		return lessByName(entries[i], entries[j])
	})
	return entries
}

// Entry evaluates one material against a required quantity.
func Entry(m domain.Material, needed float64) domain.ShoppingListEntry {
	net := m.NetAvailable()
	e := domain.ShoppingListEntry{
		Material:     m,
		TotalNeeded:  needed,
		NetAvailable: net,
		Shortfall:    needed > net,
		Reorder:      net < m.ReorderLevel,
	}
	if e.Shortfall {
		e.ToOrder = needed - net
	}
	return e
}

// ReorderAlerts lists every material whose net availability has fallen below its
// reorder level, independent of any demand.
func ReorderAlerts(materials []domain.Material) []domain.ShoppingListEntry {
	alerts := make([]domain.ShoppingListEntry, 0)
	for _, m := range materials {
		e := Entry(m, 0)
		if !e.Reorder {
			continue
		}
		alerts = append(alerts, e)
	}
	SortActionable(alerts)
	return alerts
}

// SortActionable puts shortfall entries first, then reorder-only entries, then the
// rest; ties are broken by material name.
func SortActionable(entries []domain.ShoppingListEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		ri, rj := rank(entries[i]), rank(entries[j])
		if ri != rj {
			return ri < rj
		}
		return lessByName(entries[i], entries[j])
	})
}

func rank(e domain.ShoppingListEntry) int {
	switch {
	case e.Shortfall:
		return 0
	case e.Reorder:
		return 1
	default:
		return 2
	}
}

func lessByName(a, b domain.ShoppingListEntry) bool {
	an, bn := strings.ToLower(a.Material.Name), strings.ToLower(b.Material.Name)
	if an != bn {
		return an < bn
	}
	return a.Material.ID < b.Material.ID
}

// MaxProducibleUnits is the number of whole units makeable from on-hand stock,
// limited by the scarcest part. Products without parts, parts with a non-positive
// quantity and unresolved parts all yield 0.
func MaxProducibleUnits(p domain.Product, materials domain.MaterialLookup) int {
	return Producible(p, materials).Units
}

// PartLimit is the per-part view of a producibility check
type PartLimit struct {
	Part       domain.Part `json:"part"`
	MaterialID string      `json:"material_id,omitempty"`
	OnHand     float64     `json:"on_hand"`
	Limit      int         `json:"limit"`
	Resolved   bool        `json:"resolved"`
	Bottleneck bool        `json:"bottleneck"`
}

// ProducibleReport explains MaxProducibleUnits part by part
type ProducibleReport struct {
	ProductID string      `json:"product_id"`
	Units     int         `json:"units"`
	Parts     []PartLimit `json:"parts"`
}

// Producible computes the producible units and marks the bottleneck parts.
func Producible(p domain.Product, materials domain.MaterialLookup) ProducibleReport {
	r := ProducibleReport{
		ProductID: p.ID,
		Parts:     make([]PartLimit, 0, len(p.Parts)),
	}
	if len(p.Parts) == 0 {
		return r
	}

	units := math.MaxInt
	for _, part := range p.Parts {
		pl := PartLimit{Part: part}
		if m, ok := findMaterial(materials, part.MaterialName); ok {
			pl.Resolved = true
			pl.MaterialID = m.ID
			pl.OnHand = m.OnHand
			pl.Limit = partLimit(m.OnHand, part.Quantity)
		}
		if pl.Limit < units {
			units = pl.Limit
		}
		r.Parts = append(r.Parts, pl)
	}
	if units == math.MaxInt || units < 0 {
		units = 0
	}
	r.Units = units

	for i := range r.Parts {
		r.Parts[i].Bottleneck = r.Parts[i].Limit == units
	}
	return r
}

// partLimit is floor(onHand / qty), with 0 for any input that would divide by
// zero or leave a non-finite result.
func partLimit(onHand, qty float64) int {
	if qty <= 0 || onHand <= 0 {
		return 0
	}
	n := math.Floor(onHand / qty)
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0
	}
	if n >= float64(math.MaxInt32) {
		return math.MaxInt32
	}
	return int(n)
}
