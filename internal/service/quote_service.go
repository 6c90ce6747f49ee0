package service

import (
	"fmt"
	"math"
	"strings"

	"github.com/andresuchdata/quotemanager/internal/catalog"
	"github.com/andresuchdata/quotemanager/internal/costing"
	"github.com/andresuchdata/quotemanager/internal/domain"
	"github.com/andresuchdata/quotemanager/internal/stock"
	"github.com/shopspring/decimal"
)

// CatalogProvider hands out the active catalog.
type CatalogProvider interface {
	Current() *catalog.Catalog
}

// ShoppingListObserver is told about every computed shopping list.
type ShoppingListObserver interface {
	ObserveShoppingList(entries []domain.ShoppingListEntry)
}

// ShoppingLine is a shopping-list entry priced with the costing convention.
type ShoppingLine struct {
	domain.ShoppingListEntry
	UnitPrice decimal.Decimal
	OrderCost decimal.Decimal
}

// ShoppingList is the result of checking a selection against stock.
type ShoppingList struct {
	Lines          []ShoppingLine
	TotalOrderCost decimal.Decimal
	Unresolved     []string
}

// Shortfalls counts lines that cannot be covered by net availability.
func (l ShoppingList) Shortfalls() int {
	n := 0
	for _, line := range l.Lines {
		if line.Shortfall {
			n++
		}
	}
	return n
}

type QuoteService struct {
	catalogs CatalogProvider
	engine   *costing.Engine
	observer ShoppingListObserver
}

func NewQuoteService(catalogs CatalogProvider, engine *costing.Engine, observer ShoppingListObserver) *QuoteService {
	if engine == nil {
		engine = costing.NewEngine(costing.DefaultConfig())
	}
	return &QuoteService{catalogs: catalogs, engine: engine, observer: observer}
}

func (s *QuoteService) Engine() *costing.Engine {
	return s.engine
}

func (s *QuoteService) product(c *catalog.Catalog, id string) (*domain.Product, error) {
	p, ok := c.Product(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProductNotFound, strings.TrimSpace(id))
	}
	return p, nil
}

// ProductCost prices one product's bill of materials.
func (s *QuoteService) ProductCost(productID string) (costing.ProductCost, error) {
	c := s.catalogs.Current()
	p, err := s.product(c, productID)
	if err != nil {
		return costing.ProductCost{}, err
	}
	return s.engine.CostProduct(*p, c), nil
}

// Producible reports how many units of a product current stock can make.
func (s *QuoteService) Producible(productID string) (stock.ProducibleReport, error) {
	c := s.catalogs.Current()
	p, err := s.product(c, productID)
	if err != nil {
		return stock.ProducibleReport{}, err
	}
	return stock.Producible(*p, c), nil
}

// QuoteCost prices a multi-product selection.
func (s *QuoteService) QuoteCost(items []domain.Selection) (costing.QuoteCost, error) {
	items, err := normalizeSelection(items)
	if err != nil {
		return costing.QuoteCost{}, err
	}
	c := s.catalogs.Current()
	return s.engine.CostSelection(items, c, c), nil
}

// ShoppingList aggregates demand for a selection, compares it with net
// availability and prices what has to be ordered. Lines needing action sort first.
func (s *QuoteService) ShoppingList(items []domain.Selection) (ShoppingList, error) {
	items, err := normalizeSelection(items)
	if err != nil {
		return ShoppingList{}, err
	}
	c := s.catalogs.Current()

	demand := stock.AggregateDemand(items, c, c)
	entries := stock.ShoppingList(demand.ByMaterial, c.MaterialsByID())
	stock.SortActionable(entries)
	if s.observer != nil {
		s.observer.ObserveShoppingList(entries)
	}

	list := ShoppingList{
		Lines:          make([]ShoppingLine, 0, len(entries)),
		TotalOrderCost: decimal.Zero,
		Unresolved:     demand.Unresolved,
	}
	for _, e := range entries {
		line := ShoppingLine{
			ShoppingListEntry: e,
			UnitPrice:         s.engine.PriceUnit(e.Material),
			OrderCost:         s.engine.CostOfPart(e.Material, e.ToOrder),
		}
		list.TotalOrderCost = list.TotalOrderCost.Add(line.OrderCost)
		list.Lines = append(list.Lines, line)
	}
	return list, nil
}

// normalizeSelection trims IDs and rejects unusable quantities. Zero-quantity
// items are kept; they contribute nothing.
func normalizeSelection(items []domain.Selection) ([]domain.Selection, error) {
	if len(items) == 0 {
		return nil, ErrEmptySelection
	}
	out := make([]domain.Selection, 0, len(items))
	for _, item := range items {
		if math.IsNaN(item.Quantity) || math.IsInf(item.Quantity, 0) || item.Quantity < 0 {
			return nil, fmt.Errorf("%w: %s", ErrInvalidQuantity, item.ProductID)
		}
		id := strings.TrimSpace(item.ProductID)
		if id == "" {
			continue
		}
		out = append(out, domain.Selection{ProductID: id, Quantity: item.Quantity})
	}
	if len(out) == 0 {
		return nil, ErrEmptySelection
	}
	return out, nil
}
