package costing

import (
	"testing"

	"github.com/andresuchdata/quotemanager/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type products map[string]*domain.Product

func (p products) Product(id string) (*domain.Product, bool) {
	v, ok := p[id]
	return v, ok
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestRoundUp(t *testing.T) {
	testCases := []struct {
		in, step, want string
	}{
		{"0.22", "0.05", "0.25"},
		{"0.25", "0.05", "0.25"},
		{"0.01", "0.05", "0.05"},
		{"1.26", "0.05", "1.3"},
		{"0.22", "0", "0.22"},
	}
	for _, tc := range testCases {
		t.Run(tc.in+"/"+tc.step, func(t *testing.T) {
			got := RoundUp(d(tc.in), d(tc.step))
			assert.True(t, got.Equal(d(tc.want)), "got %s", got)
		})
	}
}

func TestCostOfPart(t *testing.T) {
	e := NewEngine(DefaultConfig())
	m := domain.Material{ID: "M1", Name: "Walnut", UnitPrice: 0.22}

	assert.True(t, e.PriceUnit(m).Equal(d("0.25")))

	cost := e.CostOfPart(m, 3)
	assert.True(t, cost.Equal(d("0.75")), "got %s", cost)
	assert.True(t, e.RetailOfPart(cost).Equal(d("1.5")))

	assert.True(t, e.CostOfPart(m, 0).IsZero())
	assert.True(t, e.CostOfPart(m, -2).IsZero())
	assert.True(t, e.PriceUnit(domain.Material{UnitPrice: -1}).IsZero())
}

func TestAggregateProduct(t *testing.T) {
	e := NewEngine(DefaultConfig())
	index := domain.NameIndex{
		"Walnut": {ID: "M1", Name: "Walnut", UnitPrice: 0.22},
		"Oil":    {ID: "M2", Name: "Oil", UnitPrice: 1.01},
	}
	parts := []domain.Part{
		{MaterialName: "Walnut", Quantity: 3},
		{MaterialName: "Oil", Quantity: 1},
		{MaterialName: "Ghost", Quantity: 4},
	}

	pc := e.AggregateProduct(parts, index)
	require.Len(t, pc.Lines, 3)
	assert.True(t, pc.TotalCost.Equal(d("1.8")), "got %s", pc.TotalCost)
	assert.True(t, pc.TotalRetail.Equal(d("3.6")))
	assert.Equal(t, []string{"Ghost"}, pc.Unresolved)
	assert.False(t, pc.Complete())
	assert.False(t, pc.Lines[2].Resolved)
	assert.True(t, pc.Lines[2].Cost.IsZero())
	assert.Equal(t, 1.8, Display(pc.TotalCost))

	reversed := []domain.Part{parts[2], parts[1], parts[0]}
	assert.True(t, e.AggregateProduct(reversed, index).TotalCost.Equal(pc.TotalCost), "order must not matter")

	empty := e.AggregateProduct(nil, index)
	assert.True(t, empty.TotalCost.IsZero())
	assert.True(t, empty.Complete())
}

func TestAggregateProductNilLookup(t *testing.T) {
	e := NewEngine(DefaultConfig())
	pc := e.AggregateProduct([]domain.Part{{MaterialName: "Walnut", Quantity: 1}}, nil)
	assert.Equal(t, []string{"Walnut"}, pc.Unresolved)
}

func TestCostSelection(t *testing.T) {
	e := NewEngine(NewConfig(0.05, 2.5))
	index := domain.NameIndex{
		"Walnut": {ID: "M1", Name: "Walnut", UnitPrice: 0.22},
	}
	catalog := products{
		"P1": {ID: "P1", Name: "Board", Parts: []domain.Part{{MaterialName: "Walnut", Quantity: 4}}},
		"P2": {ID: "P2", Name: "Spoon", Parts: []domain.Part{{MaterialName: "Ghost", Quantity: 1}}},
		"P3": {ID: "P3", Name: "Coaster", Parts: []domain.Part{{MaterialName: "Ghost", Quantity: 2}}},
	}

	qc := e.CostSelection([]domain.Selection{
		{ProductID: "P1", Quantity: 2},
		{ProductID: "P2", Quantity: 1},
		{ProductID: "P3", Quantity: 1},
		{ProductID: "nope", Quantity: 5},
	}, catalog, index)

	require.Len(t, qc.Lines, 4)
	assert.True(t, qc.Lines[0].UnitCost.Equal(d("1")))
	assert.True(t, qc.Lines[0].LineCost.Equal(d("2")))
	assert.True(t, qc.TotalCost.Equal(d("2")))
	assert.True(t, qc.TotalRetail.Equal(d("5")))
	assert.Equal(t, []string{"nope"}, qc.UnknownProducts)
	assert.Equal(t, []string{"Ghost"}, qc.UnresolvedMaterials)
	assert.False(t, qc.Lines[3].Found)
}

func TestNewConfigGuards(t *testing.T) {
	cfg := NewConfig(-1, 0)
	assert.True(t, cfg.RoundingStep.IsZero())
	assert.True(t, cfg.RetailMultiplier.Equal(d("2")))
}
