package handlers

import (
	"github.com/andresuchdata/quotemanager/internal/costing"
	"github.com/andresuchdata/quotemanager/internal/domain"
	"github.com/andresuchdata/quotemanager/internal/service"
	"github.com/andresuchdata/quotemanager/internal/stock"
)

// Currency figures are rounded to cents here and nowhere earlier.

type SelectionItem struct {
	ProductID string  `json:"product_id"`
	Quantity  float64 `json:"quantity"`
}

type SelectionRequest struct {
	Items []SelectionItem `json:"items"`
}

func (r SelectionRequest) selection() []domain.Selection {
	out := make([]domain.Selection, 0, len(r.Items))
	for _, item := range r.Items {
		out = append(out, domain.Selection{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return out
}

type MaterialResponse struct {
	domain.Material
	NetAvailable     float64 `json:"net_available"`
	RoundedUnitPrice float64 `json:"rounded_unit_price"`
	Reorder          bool    `json:"reorder"`
}

func newMaterialResponse(m domain.Material, engine *costing.Engine) MaterialResponse {
	return MaterialResponse{
		Material:         m,
		NetAvailable:     m.NetAvailable(),
		RoundedUnitPrice: costing.Display(engine.PriceUnit(m)),
		Reorder:          m.NetAvailable() < m.ReorderLevel,
	}
}

type PartCostResponse struct {
	MaterialName string  `json:"material_name"`
	MaterialID   string  `json:"material_id,omitempty"`
	Quantity     float64 `json:"quantity"`
	UnitPrice    float64 `json:"unit_price"`
	Cost         float64 `json:"cost"`
	Retail       float64 `json:"retail"`
	Resolved     bool    `json:"resolved"`
}

type ProductCostResponse struct {
	ProductID   string             `json:"product_id"`
	ProductName string             `json:"product_name"`
	Lines       []PartCostResponse `json:"lines"`
	TotalCost   float64            `json:"total_cost"`
	TotalRetail float64            `json:"total_retail"`
	Unresolved  []string           `json:"unresolved"`
	Complete    bool               `json:"complete"`
}

func newProductCostResponse(pc costing.ProductCost) ProductCostResponse {
	resp := ProductCostResponse{
		ProductID:   pc.ProductID,
		ProductName: pc.ProductName,
		Lines:       make([]PartCostResponse, 0, len(pc.Lines)),
		TotalCost:   costing.Display(pc.TotalCost),
		TotalRetail: costing.Display(pc.TotalRetail),
		Unresolved:  nonNil(pc.Unresolved),
		Complete:    pc.Complete(),
	}
	for _, l := range pc.Lines {
		resp.Lines = append(resp.Lines, PartCostResponse{
			MaterialName: l.Part.MaterialName,
			MaterialID:   l.MaterialID,
			Quantity:     l.Part.Quantity,
			UnitPrice:    costing.Display(l.UnitPrice),
			Cost:         costing.Display(l.Cost),
			Retail:       costing.Display(l.Retail),
			Resolved:     l.Resolved,
		})
	}
	return resp
}

type QuoteLineResponse struct {
	ProductID   string   `json:"product_id"`
	ProductName string   `json:"product_name,omitempty"`
	Quantity    float64  `json:"quantity"`
	Found       bool     `json:"found"`
	UnitCost    float64  `json:"unit_cost"`
	UnitRetail  float64  `json:"unit_retail"`
	LineCost    float64  `json:"line_cost"`
	LineRetail  float64  `json:"line_retail"`
	Unresolved  []string `json:"unresolved"`
}

type QuoteResponse struct {
	Lines               []QuoteLineResponse `json:"lines"`
	TotalCost           float64             `json:"total_cost"`
	TotalRetail         float64             `json:"total_retail"`
	UnknownProducts     []string            `json:"unknown_products"`
	UnresolvedMaterials []string            `json:"unresolved_materials"`
}

func newQuoteResponse(qc costing.QuoteCost) QuoteResponse {
	resp := QuoteResponse{
		Lines:               make([]QuoteLineResponse, 0, len(qc.Lines)),
		TotalCost:           costing.Display(qc.TotalCost),
		TotalRetail:         costing.Display(qc.TotalRetail),
		UnknownProducts:     nonNil(qc.UnknownProducts),
		UnresolvedMaterials: nonNil(qc.UnresolvedMaterials),
	}
	for _, l := range qc.Lines {
		resp.Lines = append(resp.Lines, QuoteLineResponse{
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			Quantity:    l.Quantity,
			Found:       l.Found,
			UnitCost:    costing.Display(l.UnitCost),
			UnitRetail:  costing.Display(l.UnitRetail),
			LineCost:    costing.Display(l.LineCost),
			LineRetail:  costing.Display(l.LineRetail),
			Unresolved:  nonNil(l.Unresolved),
		})
	}
	return resp
}

type ShoppingLineResponse struct {
	MaterialID   string  `json:"material_id"`
	MaterialName string  `json:"material_name"`
	Supplier     string  `json:"supplier"`
	SupplierURL  string  `json:"supplier_url,omitempty"`
	UnitType     string  `json:"unit_type"`
	TotalNeeded  float64 `json:"total_needed"`
	NetAvailable float64 `json:"net_available"`
	Shortfall    bool    `json:"shortfall"`
	Reorder      bool    `json:"reorder"`
	ToOrder      float64 `json:"to_order"`
	UnitPrice    float64 `json:"unit_price"`
	OrderCost    float64 `json:"order_cost"`
}

type ShoppingListResponse struct {
	Lines          []ShoppingLineResponse `json:"lines"`
	TotalOrderCost float64                `json:"total_order_cost"`
	Shortfalls     int                    `json:"shortfalls"`
	Unresolved     []string               `json:"unresolved"`
}

func newShoppingLineResponse(e domain.ShoppingListEntry) ShoppingLineResponse {
	return ShoppingLineResponse{
		MaterialID:   e.Material.ID,
		MaterialName: e.Material.Name,
		Supplier:     e.Material.Supplier,
		SupplierURL:  e.Material.SupplierURL,
		UnitType:     e.Material.UnitType,
		TotalNeeded:  e.TotalNeeded,
		NetAvailable: e.NetAvailable,
		Shortfall:    e.Shortfall,
		Reorder:      e.Reorder,
		ToOrder:      e.ToOrder,
	}
}

func newShoppingListResponse(list service.ShoppingList) ShoppingListResponse {
	resp := ShoppingListResponse{
		Lines:          make([]ShoppingLineResponse, 0, len(list.Lines)),
		TotalOrderCost: costing.Display(list.TotalOrderCost),
		Shortfalls:     list.Shortfalls(),
		Unresolved:     nonNil(list.Unresolved),
	}
	for _, l := range list.Lines {
		line := newShoppingLineResponse(l.ShoppingListEntry)
		line.UnitPrice = costing.Display(l.UnitPrice)
		line.OrderCost = costing.Display(l.OrderCost)
		resp.Lines = append(resp.Lines, line)
	}
	return resp
}

type ProducibleResponse = stock.ProducibleReport

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
