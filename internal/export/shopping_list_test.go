package export

import (
	"bytes"
	"encoding/csv"
	"path/filepath"
	"testing"

	"github.com/andresuchdata/quotemanager/internal/domain"
	"github.com/andresuchdata/quotemanager/internal/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleList() service.ShoppingList {
	return service.ShoppingList{
		Lines: []service.ShoppingLine{
			{
				ShoppingListEntry: domain.ShoppingListEntry{
					Material:     domain.Material{ID: "M1", Name: "Walnut", Supplier: "Acme", UnitType: "board"},
					TotalNeeded:  50,
					NetAvailable: 25,
					Shortfall:    true,
					Reorder:      true,
					ToOrder:      25,
				},
				UnitPrice: decimal.RequireFromString("0.25"),
				OrderCost: decimal.RequireFromString("6.25"),
			},
			{
				ShoppingListEntry: domain.ShoppingListEntry{
					Material:     domain.Material{ID: "M2", Name: "Oil"},
					TotalNeeded:  2.5,
					NetAvailable: 100,
				},
				UnitPrice: decimal.RequireFromString("1.05"),
				OrderCost: decimal.Zero,
			},
		},
		TotalOrderCost: decimal.RequireFromString("6.25"),
	}
}

func TestParseFormat(t *testing.T) {
	testCases := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"xlsx", FormatXLSX, false},
		{".CSV", FormatCSV, false},
		{"", FormatXLSX, false},
		{"pdf", "", true},
	}
	for _, tc := range testCases {
		got, err := ParseFormat(tc.in)
		if tc.wantErr {
			assert.Error(t, err, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got)
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteShoppingList(&buf, FormatCSV, sampleList()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, shoppingListHeader, rows[0])
	assert.Equal(t, []string{"M1", "Walnut", "Acme", "", "board", "50", "25", "25", "0.25", "6.25", "yes", "yes"}, rows[1])
	assert.Equal(t, "2.5", rows[2][5])
	assert.Equal(t, "TOTAL", rows[3][0])
	assert.Equal(t, "6.25", rows[3][9])
}

func TestWriteXLSXFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "list.xlsx")
	require.NoError(t, WriteShoppingListFile(path, sampleList()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(shoppingListSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "Material", rows[0][1])
	assert.Equal(t, "Walnut", rows[1][1])
	assert.Equal(t, "6.25", rows[1][9])
	assert.Equal(t, "TOTAL", rows[3][0])
}

func TestWriteShoppingListFileRejectsUnknownExtension(t *testing.T) {
	err := WriteShoppingListFile(filepath.Join(t.TempDir(), "list.pdf"), sampleList())
	assert.Error(t, err)
}
