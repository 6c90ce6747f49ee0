package service

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/andresuchdata/quotemanager/internal/catalog"
	"github.com/andresuchdata/quotemanager/internal/costing"
	"github.com/andresuchdata/quotemanager/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSource() *catalog.StaticSource {
	return &catalog.StaticSource{
		Label: "test",
		Materials: [][]any{
			{"M1", "Walnut", 22.0, "board", 100.0, "Acme", "", 0.22, 20.0, 10.0, 5.0, 30.0},
			{"M2", "Oil", 10.0, "bottle", 1.0, "Oilco", "", 1.01, 100.0, 0.0, 0.0, 5.0},
			{"M3", "Felt", 1.0, "sheet", 1.0, "Acme", "", 0.5, 1.0, 0.0, 0.0, 2.0},
		},
		Products: [][]any{
			{"P1", "Board", "Kitchen", "", `[{"matName":"Walnut","qty":10},{"matName":"Oil","qty":1}]`},
			{"P2", "Coaster", "Home", "", `[{"matName":"Felt","qty":1},{"matName":"Ghost","qty":1}]`},
		},
	}
}

type invalidatorFunc func(ctx context.Context) error

func (f invalidatorFunc) Invalidate(ctx context.Context) error { return f(ctx) }

type recordingObserver struct {
	entries []domain.ShoppingListEntry
}

func (r *recordingObserver) ObserveShoppingList(entries []domain.ShoppingListEntry) {
	r.entries = append(r.entries, entries...)
}

func newServices(t *testing.T) (*CatalogService, *QuoteService, *recordingObserver) {
	t.Helper()
	store := catalog.NewStore(testSource())
	catalogs := NewCatalogService(store, nil)
	_, err := catalogs.Refresh(context.Background(), false)
	require.NoError(t, err)

	obs := &recordingObserver{}
	return catalogs, NewQuoteService(catalogs, costing.NewEngine(costing.DefaultConfig()), obs), obs
}

func TestCatalogServiceQueries(t *testing.T) {
	catalogs, _, _ := newServices(t)

	status := catalogs.Status()
	assert.Equal(t, "test", status.Source)
	assert.Equal(t, 3, status.Materials)
	assert.False(t, status.Empty)

	materials := catalogs.Materials("acme")
	require.Len(t, materials, 2)
	assert.Equal(t, "Felt", materials[0].Name)

	assert.Len(t, catalogs.Products("kitchen"), 1)
	assert.Len(t, catalogs.Products(""), 2)
	assert.Equal(t, []string{"Home", "Kitchen"}, catalogs.ProductTypes())

	alerts := catalogs.ReorderAlerts()
	require.Len(t, alerts, 2)
	assert.Equal(t, "Felt", alerts[0].Material.Name)
}

func TestRefreshForceInvalidates(t *testing.T) {
	var invalidated int
	store := catalog.NewStore(testSource())
	catalogs := NewCatalogService(store, invalidatorFunc(func(context.Context) error {
		invalidated++
		return errors.New("redis down")
	}))

	_, err := catalogs.Refresh(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 0, invalidated)

	_, err = catalogs.Refresh(context.Background(), true)
	require.NoError(t, err, "cache errors never fail a refresh")
	assert.Equal(t, 1, invalidated)
}

func TestProductCost(t *testing.T) {
	_, quotes, _ := newServices(t)

	pc, err := quotes.ProductCost("P1")
	require.NoError(t, err)
	// walnut 0.22 -> 0.25 x 10, oil 1.01 -> 1.05
	assert.True(t, pc.TotalCost.Equal(decimal.RequireFromString("3.55")), "got %s", pc.TotalCost)
	assert.True(t, pc.TotalRetail.Equal(decimal.RequireFromString("7.1")))

	_, err = quotes.ProductCost("nope")
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestProducible(t *testing.T) {
	_, quotes, _ := newServices(t)

	r, err := quotes.Producible("P1")
	require.NoError(t, err)
	assert.Equal(t, 2, r.Units)

	r, err = quotes.Producible("P2")
	require.NoError(t, err)
	assert.Equal(t, 0, r.Units, "unresolved part blocks production")
}

func TestQuoteCostValidation(t *testing.T) {
	_, quotes, _ := newServices(t)

	_, err := quotes.QuoteCost(nil)
	assert.ErrorIs(t, err, ErrEmptySelection)

	_, err = quotes.QuoteCost([]domain.Selection{{ProductID: "  "}})
	assert.ErrorIs(t, err, ErrEmptySelection)

	_, err = quotes.QuoteCost([]domain.Selection{{ProductID: "P1", Quantity: -1}})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = quotes.QuoteCost([]domain.Selection{{ProductID: "P1", Quantity: math.NaN()}})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	qc, err := quotes.QuoteCost([]domain.Selection{{ProductID: " P1 ", Quantity: 2}})
	require.NoError(t, err)
	assert.True(t, qc.TotalCost.Equal(decimal.RequireFromString("7.1")))
}

func TestShoppingList(t *testing.T) {
	_, quotes, obs := newServices(t)

	list, err := quotes.ShoppingList([]domain.Selection{
		{ProductID: "P1", Quantity: 5},
		{ProductID: "P2", Quantity: 1},
	})
	require.NoError(t, err)
	require.Len(t, list.Lines, 3)

	walnut := list.Lines[0]
	assert.Equal(t, "Walnut", walnut.Material.Name)
	assert.True(t, walnut.Shortfall)
	assert.Equal(t, 50.0, walnut.TotalNeeded)
	assert.Equal(t, 25.0, walnut.ToOrder)
	assert.True(t, walnut.OrderCost.Equal(decimal.RequireFromString("6.25")))

	assert.Equal(t, "Felt", list.Lines[1].Material.Name, "reorder-only lines follow shortfalls")
	assert.Equal(t, "Oil", list.Lines[2].Material.Name)

	assert.Equal(t, 1, list.Shortfalls())
	assert.True(t, list.TotalOrderCost.Equal(decimal.RequireFromString("6.25")))
	assert.Equal(t, []string{"material:Ghost"}, list.Unresolved)
	assert.Len(t, obs.entries, 3)
}

func TestEmptyCatalogComputesZero(t *testing.T) {
	store := catalog.NewStore(&catalog.StaticSource{Err: errors.New("offline")})
	catalogs := NewCatalogService(store, nil)
	_, err := catalogs.Refresh(context.Background(), false)
	require.Error(t, err)

	quotes := NewQuoteService(catalogs, nil, nil)
	list, err := quotes.ShoppingList([]domain.Selection{{ProductID: "P1", Quantity: 1}})
	require.NoError(t, err)
	assert.Empty(t, list.Lines)
	assert.True(t, list.TotalOrderCost.IsZero())
	assert.Equal(t, []string{"product:P1"}, list.Unresolved)
}

func TestParseItems(t *testing.T) {
	items, err := ParseItems([]string{"P1=2", "P2, P3=0.5", ""})
	require.NoError(t, err)
	assert.Equal(t, []domain.Selection{
		{ProductID: "P1", Quantity: 2},
		{ProductID: "P2", Quantity: 1},
		{ProductID: "P3", Quantity: 0.5},
	}, items)

	_, err = ParseItems([]string{"P1=lots"})
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}
