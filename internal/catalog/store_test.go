package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/andresuchdata/quotemanager/internal/domain"
	"github.com/andresuchdata/quotemanager/internal/stock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogLookups(t *testing.T) {
	c := New(
		[][]any{
			materialRow("M1", "Walnut", 1.0, 10.0, 0.0, 0.0, 0.0),
			materialRow("M2", "Walnut", 2.0, 10.0, 0.0, 0.0, 0.0),
			materialRow("M1", "Oak", 2.0, 10.0, 0.0, 0.0, 0.0),
		},
		[][]any{
			{"P1", "Board", "Kitchen", "", `[{"matName":"walnut","qty":1}]`},
			{"P2", "Tray", "Home"},
			{"P1", "Again"},
		},
	)

	require.Len(t, c.Materials(), 2)
	require.Len(t, c.Products(), 2)
	assert.Len(t, c.Warnings(), 3)

	m, ok := c.MaterialByName("Walnut")
	require.True(t, ok)
	assert.Equal(t, "M1", m.ID, "first duplicate name wins")

	m, ok = c.MaterialByName("WALNUT")
	require.True(t, ok, "case-insensitive fallback")
	assert.Equal(t, "M1", m.ID)

	_, ok = c.MaterialByID("M2")
	assert.True(t, ok)

	p, ok := c.Product("P1")
	require.True(t, ok)
	assert.Equal(t, "Board", p.Name)

	assert.Equal(t, []string{"Home", "Kitchen"}, c.ProductTypes())
}

func TestDuplicateMaterialIDKeepsFirstRow(t *testing.T) {
	c := New(
		[][]any{
			materialRow("M1", "Walnut", 1.0, 10.0, 0.0, 0.0, 5.0),
			materialRow("M1", "Oak", 2.0, 0.0, 0.0, 0.0, 50.0),
		},
		[][]any{{"P1", "Board", "", "", `[{"matName":"Walnut","qty":4}]`}},
	)

	require.Len(t, c.Materials(), 1)
	require.Len(t, c.Warnings(), 1)
	assert.Contains(t, c.Warnings()[0], `duplicate id "M1"`)

	byID, ok := c.MaterialByID("M1")
	require.True(t, ok)
	assert.Equal(t, "Walnut", byID.Name)
	byName, ok := c.MaterialByName("Walnut")
	require.True(t, ok)
	assert.Same(t, byID, byName)
	_, ok = c.MaterialByName("Oak")
	assert.False(t, ok)

	demand := stock.AggregateDemand([]domain.Selection{{ProductID: "P1", Quantity: 2}}, c, c)
	entries := stock.ShoppingList(demand.ByMaterial, c.MaterialsByID())
	require.Len(t, entries, 1)
	assert.Equal(t, "Walnut", entries[0].Material.Name)
	assert.Equal(t, 10.0, entries[0].NetAvailable)
	assert.False(t, entries[0].Shortfall)
	assert.False(t, entries[0].Reorder)
}

func TestEmptyCatalog(t *testing.T) {
	c := Empty()
	assert.True(t, c.IsEmpty())
	assert.Empty(t, c.Materials())
	_, ok := c.MaterialByName("anything")
	assert.False(t, ok)
}

type flakySource struct {
	StaticSource
	failProducts bool
}

func (f *flakySource) ProductRows(ctx context.Context) ([][]any, error) {
	if f.failProducts {
		return nil, errors.New("backend unavailable")
	}
	return f.StaticSource.ProductRows(ctx)
}

func TestStoreRefresh(t *testing.T) {
	src := &flakySource{StaticSource: StaticSource{
		Materials: [][]any{materialRow("M1", "Walnut", 1.0, 10.0, 0.0, 0.0, 0.0)},
		Products:  [][]any{{"P1", "Board", "", "", `[{"matName":"Walnut","qty":2}]`}},
	}}
	store := NewStore(src)
	assert.True(t, store.Current().IsEmpty(), "store starts empty")

	var calls int
	store.OnLoad(func(c *Catalog, took time.Duration, err error) { calls++ })

	c, err := store.Refresh(context.Background())
	require.NoError(t, err)
	assert.Len(t, c.Materials(), 1)
	assert.Same(t, c, store.Current())

	src.failProducts = true
	c, err = store.Refresh(context.Background())
	require.Error(t, err)

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, FeedProducts, loadErr.Feed)
	assert.Equal(t, "static", loadErr.Source)

	assert.True(t, c.IsEmpty())
	assert.True(t, store.Current().IsEmpty(), "failed load must not leave a partial catalog")
	assert.Equal(t, 2, calls)
}
