package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/andresuchdata/quotemanager/internal/catalog"
	"github.com/andresuchdata/quotemanager/internal/domain"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveLoad(t *testing.T) {
	m := New()
	c := catalog.New([][]any{{"M1", "Walnut"}, {"M2", "Oil"}}, [][]any{{"P1", "Board"}})

	m.ObserveLoad(c, 20*time.Millisecond, nil)
	m.ObserveLoad(catalog.Empty(), time.Millisecond, errors.New("down"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.catalogLoads.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.catalogLoads.WithLabelValues("error")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.catalogMaterials), "a failed load leaves an empty catalog")
	assert.Greater(t, testutil.ToFloat64(m.catalogLoadedAt), 0.0)
}

func TestObserveShoppingList(t *testing.T) {
	m := New()
	m.ObserveShoppingList([]domain.ShoppingListEntry{
		{Shortfall: true, Reorder: true},
		{Reorder: true},
		{},
		{},
	})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.shoppingListEntries.WithLabelValues("shortfall")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.shoppingListEntries.WithLabelValues("reorder")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.shoppingListEntries.WithLabelValues("ok")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.ObserveRequest(http.MethodGet, "/api/v1/products", http.StatusOK, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `quotemanager_http_requests_total{method="GET",route="/api/v1/products",status="200"} 1`)
}
