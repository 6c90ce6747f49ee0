package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/andresuchdata/quotemanager/internal/costing"
	"github.com/andresuchdata/quotemanager/internal/service"
	"github.com/xuri/excelize/v2"
)

type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"

	shoppingListSheet = "Shopping List"
)

var shoppingListHeader = []string{
	"Material ID", "Material", "Supplier", "Supplier URL", "Unit Type",
	"Needed", "Net Available", "To Order", "Unit Price", "Order Cost",
	"Shortfall", "Reorder",
}

// ParseFormat accepts a format name or a file extension, with or without the dot.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "", "xlsx":
		return FormatXLSX, nil
	case "csv":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (f Format) Extension() string {
	return "." + string(f)
}

// WriteShoppingList renders the list in the given format.
func WriteShoppingList(w io.Writer, format Format, list service.ShoppingList) error {
	switch format {
	case FormatCSV:
		return writeCSV(w, list)
	case FormatXLSX:
		return writeXLSX(w, list)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}

// WriteShoppingListFile writes the list to path, picking the format from the extension.
func WriteShoppingListFile(path string, list service.ShoppingList) error {
	format, err := ParseFormat(filepath.Ext(path))
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file %s: %w", path, err)
	}
	if err := WriteShoppingList(f, format, list); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close export file %s: %w", path, err)
	}
	return nil
}

func records(list service.ShoppingList) [][]string {
	out := make([][]string, 0, len(list.Lines)+2)
	out = append(out, shoppingListHeader)
	for _, line := range list.Lines {
		m := line.Material
		out = append(out, []string{
			m.ID,
			m.Name,
			m.Supplier,
			m.SupplierURL,
			m.UnitType,
			formatQty(line.TotalNeeded),
			formatQty(line.NetAvailable),
			formatQty(line.ToOrder),
			line.UnitPrice.StringFixed(2),
			line.OrderCost.StringFixed(2),
			yesNo(line.Shortfall),
			yesNo(line.Reorder),
		})
	}
	total := make([]string, len(shoppingListHeader))
	total[0] = "TOTAL"
	total[9] = list.TotalOrderCost.StringFixed(2)
	out = append(out, total)
	return out
}

func writeCSV(w io.Writer, list service.ShoppingList) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(records(list)); err != nil {
		return fmt.Errorf("failed to write csv export: %w", err)
	}
	return nil
}

func writeXLSX(w io.Writer, list service.ShoppingList) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", shoppingListSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#E0E0E0"}},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	shortfallStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Color: "#B00020"},
	})
	if err != nil {
		return fmt.Errorf("failed to create shortfall style: %w", err)
	}

	if err := setRow(f, 1, toCells(shoppingListHeader)); err != nil {
		return err
	}
	lastCol, _ := excelize.ColumnNumberToName(len(shoppingListHeader))
	if err := f.SetCellStyle(shoppingListSheet, "A1", lastCol+"1", headerStyle); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, line := range list.Lines {
		row := i + 2
		m := line.Material
		cells := []any{
			m.ID, m.Name, m.Supplier, m.SupplierURL, m.UnitType,
			line.TotalNeeded, line.NetAvailable, line.ToOrder,
			costing.Display(line.UnitPrice), costing.Display(line.OrderCost),
			yesNo(line.Shortfall), yesNo(line.Reorder),
		}
		if err := setRow(f, row, cells); err != nil {
			return err
		}
		if line.Shortfall {
			if err := f.SetCellStyle(shoppingListSheet, fmt.Sprintf("A%d", row), fmt.Sprintf("%s%d", lastCol, row), shortfallStyle); err != nil {
				return fmt.Errorf("failed to style row %d: %w", row, err)
			}
		}
	}

	totalRow := len(list.Lines) + 2
	total := make([]any, len(shoppingListHeader))
	total[0] = "TOTAL"
	total[9] = costing.Display(list.TotalOrderCost)
	if err := setRow(f, totalRow, total); err != nil {
		return err
	}

	if err := f.SetColWidth(shoppingListSheet, "A", lastCol, 14); err != nil {
		return fmt.Errorf("failed to size columns: %w", err)
	}
	if err := f.SetColWidth(shoppingListSheet, "B", "B", 28); err != nil {
		return fmt.Errorf("failed to size columns: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write xlsx export: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, row int, cells []any) error {
	if err := f.SetSheetRow(shoppingListSheet, fmt.Sprintf("A%d", row), &cells); err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}
	return nil
}

func toCells(values []string) []any {
	cells := make([]any, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}

func formatQty(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
