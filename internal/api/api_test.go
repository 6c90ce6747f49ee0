package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/andresuchdata/quotemanager/internal/api/handlers"
	"github.com/andresuchdata/quotemanager/internal/catalog"
	"github.com/andresuchdata/quotemanager/internal/costing"
	"github.com/andresuchdata/quotemanager/internal/metrics"
	"github.com/andresuchdata/quotemanager/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T, src *catalog.StaticSource) *gin.Engine {
	t.Helper()
	store := catalog.NewStore(src)
	m := metrics.New()
	store.OnLoad(m.ObserveLoad)

	catalogs := service.NewCatalogService(store, nil)
	_, _ = catalogs.Refresh(context.Background(), false)

	quotes := service.NewQuoteService(catalogs, costing.NewEngine(costing.DefaultConfig()), m)
	return NewRouter(&Services{CatalogService: catalogs, QuoteService: quotes, Metrics: m}, []string{"*"})
}

func fixtureSource() *catalog.StaticSource {
	return &catalog.StaticSource{
		Label: "fixture",
		Materials: [][]any{
			{"M1", "Walnut", 22.0, "board", 100.0, "Acme", "", 0.22, 20.0, 10.0, 5.0, 30.0},
			{"M2", "Oil", 10.0, "bottle", 1.0, "Oilco", "", 1.01, 100.0, 0.0, 0.0, 5.0},
		},
		Products: [][]any{
			{"P1", "Board", "Kitchen", "", `[{"matName":"Walnut","qty":3}]`},
			{"P2", "Tray", "Kitchen", "", `"[{\"matName\":\"Walnut\",\"qty\":10},{\"matName\":\"Ghost\",\"qty\":1}]"`},
		},
	}
}

func do(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t, fixtureSource())
	rec := do(r, http.MethodGet, "/api/v1/health", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var body struct {
		Status  string                `json:"status"`
		Catalog service.CatalogStatus `json:"catalog"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, 2, body.Catalog.Materials)
}

func TestProductCostEndpoint(t *testing.T) {
	r := newTestRouter(t, fixtureSource())

	rec := do(r, http.MethodGet, "/api/v1/products/P1/cost", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var pc handlers.ProductCostResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pc))
	assert.Equal(t, 0.75, pc.TotalCost)
	assert.Equal(t, 1.5, pc.TotalRetail)
	assert.True(t, pc.Complete)
	require.Len(t, pc.Lines, 1)
	assert.Equal(t, 0.25, pc.Lines[0].UnitPrice)

	rec = do(r, http.MethodGet, "/api/v1/products/P2/cost", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pc))
	assert.Equal(t, []string{"Ghost"}, pc.Unresolved)
	assert.False(t, pc.Lines[1].Resolved)

	rec = do(r, http.MethodGet, "/api/v1/products/nope/cost", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProducibleEndpoint(t *testing.T) {
	r := newTestRouter(t, fixtureSource())

	rec := do(r, http.MethodGet, "/api/v1/products/P1/producible", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var report handlers.ProducibleResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, 6, report.Units)
}

func TestShoppingListEndpoint(t *testing.T) {
	r := newTestRouter(t, fixtureSource())

	rec := do(r, http.MethodPost, "/api/v1/quotes/shopping-list", `{"items":[{"product_id":"P2","quantity":5}]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var list handlers.ShoppingListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Lines, 1)
	assert.Equal(t, 50.0, list.Lines[0].TotalNeeded)
	assert.Equal(t, 25.0, list.Lines[0].NetAvailable)
	assert.True(t, list.Lines[0].Shortfall)
	assert.True(t, list.Lines[0].Reorder)
	assert.Equal(t, 6.25, list.TotalOrderCost)
	assert.Equal(t, 1, list.Shortfalls)
	assert.Equal(t, []string{"material:Ghost"}, list.Unresolved)
}

func TestQuoteCostEndpointValidation(t *testing.T) {
	r := newTestRouter(t, fixtureSource())

	testCases := []struct {
		name string
		body string
		want int
	}{
		{"ok", `{"items":[{"product_id":"P1","quantity":2},{"product_id":"zzz","quantity":1}]}`, http.StatusOK},
		{"empty", `{"items":[]}`, http.StatusBadRequest},
		{"negative", `{"items":[{"product_id":"P1","quantity":-1}]}`, http.StatusBadRequest},
		{"malformed", `{"items":`, http.StatusBadRequest},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(r, http.MethodPost, "/api/v1/quotes/cost", tc.body)
			assert.Equal(t, tc.want, rec.Code)
		})
	}

	rec := do(r, http.MethodPost, "/api/v1/quotes/cost", testCases[0].body)
	var quote handlers.QuoteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &quote))
	assert.Equal(t, 1.5, quote.TotalCost)
	assert.Equal(t, []string{"zzz"}, quote.UnknownProducts)
}

func TestReorderEndpoint(t *testing.T) {
	r := newTestRouter(t, fixtureSource())

	rec := do(r, http.MethodGet, "/api/v1/materials/reorder", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var alerts []handlers.ShoppingLineResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &alerts))
	require.Len(t, alerts, 1)
	assert.Equal(t, "M1", alerts[0].MaterialID)
}

func TestRefreshFailureReturnsBadGateway(t *testing.T) {
	src := fixtureSource()
	r := newTestRouter(t, src)
	src.Err = assert.AnError

	rec := do(r, http.MethodPost, "/api/v1/catalog/refresh", "")
	require.Equal(t, http.StatusBadGateway, rec.Code)

	rec = do(r, http.MethodGet, "/api/v1/materials", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestExportEndpoint(t *testing.T) {
	r := newTestRouter(t, fixtureSource())

	rec := do(r, http.MethodGet, "/api/v1/shopping-list/export?format=csv&item=P1=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rec.Body.String(), "Walnut")

	rec = do(r, http.MethodPost, "/api/v1/shopping-list/export", `{"items":[{"product_id":"P1","quantity":1}]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	f, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer f.Close()
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".xlsx")

	rec = do(r, http.MethodGet, "/api/v1/shopping-list/export?format=pdf&item=P1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	r := newTestRouter(t, fixtureSource())
	do(r, http.MethodGet, "/api/v1/materials", "")

	rec := do(r, http.MethodGet, "/api/v1/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "quotemanager_catalog_materials 2")
	assert.Contains(t, rec.Body.String(), `route="/api/v1/materials"`)
}

func TestNormalizeAllowedOrigins(t *testing.T) {
	origins, all := normalizeAllowedOrigins([]string{"https://a.test, https://b.test", " "})
	assert.False(t, all)
	assert.Equal(t, []string{"https://a.test", "https://b.test"}, origins)

	_, all = normalizeAllowedOrigins([]string{"*"})
	assert.True(t, all)
}
