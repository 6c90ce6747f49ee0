package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		h(w, r)
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{BaseURL: srv.URL + "/exec", Timeout: time.Second, RetryBackoff: time.Millisecond})
	require.NoError(t, err)
	return c, &calls
}

func TestFetchMaterials(t *testing.T) {
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/exec", r.URL.Path)
		assert.Equal(t, ActionMaterials, r.URL.Query().Get("action"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[["M1","Walnut",12.5],["M2","Oil",3]]`))
	})

	rows, err := c.MaterialRows(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "M1", rows[0][0])
	assert.Equal(t, json.Number("12.5"), rows[0][2])
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestFetchEnvelope(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[["P1","Board"],{"note":"skip me"}]}`))
	})

	rows, err := c.ProductRows(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "P1", rows[0][0])
}

func TestFetchRetriesOnceOn5xx(t *testing.T) {
	var n int32
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&n, 1) == 1 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`[["M1"]]`))
	})

	rows, err := c.MaterialRows(context.Background())
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, int32(2), atomic.LoadInt32(calls))
}

func TestFetchGivesUpAfterOneRetry(t *testing.T) {
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	})

	_, err := c.MaterialRows(context.Background())
	require.Error(t, err)

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadGateway, se.Code)
	assert.Equal(t, int32(2), atomic.LoadInt32(calls))
}

func TestFetchDoesNotRetry4xx(t *testing.T) {
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	})

	_, err := c.ProductRows(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestFetchBackendErrorBody(t *testing.T) {
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"sheet locked"}`))
	})

	_, err := c.ProductRows(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sheet locked")
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient(Config{})
	assert.Error(t, err)

	_, err = NewClient(Config{BaseURL: "ftp://example.com"})
	assert.Error(t, err)

	c, err := NewClient(Config{BaseURL: "https://script.example.com/macros/s/abc/exec"})
	require.NoError(t, err)
	assert.Equal(t, "backend:script.example.com", c.Name())
	assert.Equal(t, defaultTimeout, c.timeout)
}

func TestDecodeRows(t *testing.T) {
	testCases := []struct {
		name    string
		body    string
		want    int
		wantErr bool
	}{
		{"array", `[[1,2],[3]]`, 2, false},
		{"empty array", `[]`, 0, false},
		{"envelope", `{"data":[[1]]}`, 1, false},
		{"whitespace", "  \n[[1]]\n", 1, false},
		{"html", `<html>login</html>`, 0, true},
		{"empty", ``, 0, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rows, err := DecodeRows([]byte(tc.body))
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, rows, tc.want)
		})
	}
}
