package costing

import (
	"github.com/andresuchdata/quotemanager/internal/domain"
	"github.com/shopspring/decimal"
)

// Config holds the single system-wide pricing convention.
type Config struct {
	// RoundingStep rounds unit prices up to the next multiple. Zero disables rounding.
	RoundingStep decimal.Decimal
	// RetailMultiplier turns a cost into a retail price.
	RetailMultiplier decimal.Decimal
}

// DefaultConfig rounds unit prices up to $0.05 and marks retail up 2x.
func DefaultConfig() Config {
	return Config{
		RoundingStep:     decimal.RequireFromString("0.05"),
		RetailMultiplier: decimal.NewFromInt(2),
	}
}

// NewConfig builds a Config from plain floats, as read from configuration.
func NewConfig(step, multiplier float64) Config {
	cfg := Config{
		RoundingStep:     decimal.NewFromFloat(step),
		RetailMultiplier: decimal.NewFromFloat(multiplier),
	}
	if cfg.RoundingStep.IsNegative() {
		cfg.RoundingStep = decimal.Zero
	}
	if !cfg.RetailMultiplier.IsPositive() {
		cfg.RetailMultiplier = DefaultConfig().RetailMultiplier
	}
	return cfg
}

// Engine prices parts and products against a material catalog.
type Engine struct {
	cfg Config
}

// NewEngine creates a costing engine.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Config returns the engine's pricing convention.
func (e *Engine) Config() Config {
	return e.cfg
}

// PriceUnit is the material's unit price rounded up to the configured step.
// Every displayed cost goes through here.
func (e *Engine) PriceUnit(m domain.Material) decimal.Decimal {
	price := decimal.NewFromFloat(m.UnitPrice)
	if !price.IsPositive() {
		return decimal.Zero
	}
	return RoundUp(price, e.cfg.RoundingStep)
}

// CostOfPart is PriceUnit(m) * qty. Non-positive quantities cost nothing.
func (e *Engine) CostOfPart(m domain.Material, qty float64) decimal.Decimal {
	if qty <= 0 {
		return decimal.Zero
	}
	return e.PriceUnit(m).Mul(decimal.NewFromFloat(qty))
}

// RetailOfPart applies the retail multiplier to a cost.
func (e *Engine) RetailOfPart(cost decimal.Decimal) decimal.Decimal {
	return cost.Mul(e.cfg.RetailMultiplier)
}

// AggregateProduct sums part costs over a parts list. Parts whose material
// cannot be found contribute zero and are listed in Unresolved.
func (e *Engine) AggregateProduct(parts []domain.Part, materials domain.MaterialLookup) ProductCost {
	pc := ProductCost{
		Lines:       make([]PartCost, 0, len(parts)),
		TotalCost:   decimal.Zero,
		TotalRetail: decimal.Zero,
	}
	for _, part := range parts {
		line := PartCost{
			Part:      part,
			UnitPrice: decimal.Zero,
			Cost:      decimal.Zero,
			Retail:    decimal.Zero,
		}
		m, ok := lookup(materials, part.MaterialName)
		if !ok {
			pc.Unresolved = append(pc.Unresolved, part.MaterialName)
			pc.Lines = append(pc.Lines, line)
			continue
		}
		line.Resolved = true
		line.MaterialID = m.ID
		line.UnitPrice = e.PriceUnit(*m)
		line.Cost = e.CostOfPart(*m, part.Quantity)
		line.Retail = e.RetailOfPart(line.Cost)

		pc.TotalCost = pc.TotalCost.Add(line.Cost)
		pc.TotalRetail = pc.TotalRetail.Add(line.Retail)
		pc.Lines = append(pc.Lines, line)
	}
	return pc
}

// CostProduct prices a product's bill of materials.
func (e *Engine) CostProduct(p domain.Product, materials domain.MaterialLookup) ProductCost {
	pc := e.AggregateProduct(p.Parts, materials)
	pc.ProductID = p.ID
	pc.ProductName = p.Name
	return pc
}

// CostSelection prices a multi-product quote. Unknown product IDs are reported
// and contribute nothing.
func (e *Engine) CostSelection(items []domain.Selection, products domain.ProductLookup, materials domain.MaterialLookup) QuoteCost {
	qc := QuoteCost{
		Lines:       make([]QuoteLine, 0, len(items)),
		TotalCost:   decimal.Zero,
		TotalRetail: decimal.Zero,
	}
	seenMissing := make(map[string]struct{})
	for _, item := range items {
		line := QuoteLine{
			ProductID:  item.ProductID,
			Quantity:   item.Quantity,
			UnitCost:   decimal.Zero,
			UnitRetail: decimal.Zero,
			LineCost:   decimal.Zero,
			LineRetail: decimal.Zero,
		}
		p, ok := products.Product(item.ProductID)
		if !ok {
			qc.UnknownProducts = append(qc.UnknownProducts, item.ProductID)
			qc.Lines = append(qc.Lines, line)
			continue
		}
		pc := e.CostProduct(*p, materials)
		line.Found = true
		line.ProductName = p.Name
		line.UnitCost = pc.TotalCost
		line.UnitRetail = pc.TotalRetail
		line.Unresolved = pc.Unresolved
		if item.Quantity > 0 {
			qty := decimal.NewFromFloat(item.Quantity)
			line.LineCost = pc.TotalCost.Mul(qty)
			line.LineRetail = pc.TotalRetail.Mul(qty)
		}
		for _, name := range pc.Unresolved {
			if _, dup := seenMissing[name]; dup {
				continue
			}
			seenMissing[name] = struct{}{}
			qc.UnresolvedMaterials = append(qc.UnresolvedMaterials, name)
		}

		qc.TotalCost = qc.TotalCost.Add(line.LineCost)
		qc.TotalRetail = qc.TotalRetail.Add(line.LineRetail)
		qc.Lines = append(qc.Lines, line)
	}
	return qc
}

func lookup(materials domain.MaterialLookup, name string) (*domain.Material, bool) {
	if materials == nil {
		return nil, false
	}
	return materials.MaterialByName(name)
}
