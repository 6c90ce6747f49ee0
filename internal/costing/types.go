package costing

import (
	"github.com/andresuchdata/quotemanager/internal/domain"
	"github.com/shopspring/decimal"
)

// PartCost is the priced form of one bill-of-materials line
type PartCost struct {
	Part       domain.Part
	MaterialID string
	UnitPrice  decimal.Decimal
	Cost       decimal.Decimal
	Retail     decimal.Decimal
	Resolved   bool // false when no material matches Part.MaterialName
}

// ProductCost holds per-part and aggregate figures for one product
type ProductCost struct {
	ProductID   string
	ProductName string
	Lines       []PartCost
	TotalCost   decimal.Decimal
	TotalRetail decimal.Decimal
	Unresolved  []string // material names that did not resolve
}

// Complete reports whether every part resolved to a material.
func (pc ProductCost) Complete() bool {
	return len(pc.Unresolved) == 0
}

// QuoteLine is one product line of a priced quote
type QuoteLine struct {
	ProductID   string
	ProductName string
	Quantity    float64
	Found       bool
	UnitCost    decimal.Decimal
	UnitRetail  decimal.Decimal
	LineCost    decimal.Decimal
	LineRetail  decimal.Decimal
	Unresolved  []string
}

// QuoteCost sums a multi-product selection
type QuoteCost struct {
	Lines               []QuoteLine
	TotalCost           decimal.Decimal
	TotalRetail         decimal.Decimal
	UnknownProducts     []string
	UnresolvedMaterials []string
}
