package sheet

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/andresuchdata/quotemanager/internal/catalog"
	"github.com/xuri/excelize/v2"
)

// Sheet names holding the two catalog feeds. CSV workbooks use the same names as
// file names (materials.csv, products.csv).
const (
	MaterialsSheet = "materials"
	ProductsSheet  = "products"
)

// ErrSheetMissing is returned when a workbook lacks one of the catalog sheets.
var ErrSheetMissing = errors.New("sheet not found")

// headerKeys are first-cell values that mark a header row rather than data.
var headerKeys = map[string]struct{}{
	"id":         {},
	"matid":      {},
	"materialid": {},
	"prodid":     {},
	"productid":  {},
	"name":       {},
}

// Workbook is a catalog read from a spreadsheet. It serves rows in the
// positional layout the catalog loader expects.
type Workbook struct {
	label     string
	materials [][]any
	products  [][]any
}

// Open reads an .xlsx workbook, or a directory holding materials.csv and products.csv.
func Open(path string) (*Workbook, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat workbook %s: %w", path, err)
	}
	if info.IsDir() {
		return openCSVDir(path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		f, err := excelize.OpenFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open xlsx file %s: %w", path, err)
		}
		defer f.Close()
		return fromExcel(f, path)
	default:
		return nil, fmt.Errorf("unsupported workbook %s: want .xlsx or a directory of csv files", path)
	}
}

// ReadXLSX reads a workbook from a stream, as downloaded from Drive or object storage.
func ReadXLSX(r io.Reader, label string) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read xlsx %s: %w", label, err)
	}
	defer f.Close()
	return fromExcel(f, label)
}

func fromExcel(f *excelize.File, label string) (*Workbook, error) {
	wb := &Workbook{label: label}
	var err error
	if wb.materials, err = excelRows(f, MaterialsSheet); err != nil {
		return nil, fmt.Errorf("%s: %w", label, err)
	}
	if wb.products, err = excelRows(f, ProductsSheet); err != nil {
		return nil, fmt.Errorf("%s: %w", label, err)
	}
	return wb, nil
}

func excelRows(f *excelize.File, want string) ([][]any, error) {
	name := ""
	for _, s := range f.GetSheetList() {
		if strings.EqualFold(strings.TrimSpace(s), want) {
			name = s
			break
		}
	}
	if name == "" {
		return nil, fmt.Errorf("%w: %s", ErrSheetMissing, want)
	}

	rows, err := f.Rows(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from sheet %s: %w", name, err)
	}
	defer rows.Close()

	var records [][]string
	for rows.Next() {
		record, err := rows.Columns()
		if err != nil {
			return nil, fmt.Errorf("failed to read row from sheet %s: %w", name, err)
		}
		records = append(records, record)
	}
	if err := rows.Error(); err != nil {
		return nil, fmt.Errorf("error iterating rows in sheet %s: %w", name, err)
	}
	return toRows(records), nil
}

func openCSVDir(dir string) (*Workbook, error) {
	wb := &Workbook{label: dir}
	var err error
	if wb.materials, err = csvRows(filepath.Join(dir, MaterialsSheet+".csv")); err != nil {
		return nil, err
	}
	if wb.products, err = csvRows(filepath.Join(dir, ProductsSheet+".csv")); err != nil {
		return nil, err
	}
	return wb, nil
}

func csvRows(path string) ([][]any, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSheetMissing, path)
		}
		return nil, fmt.Errorf("failed to open csv file %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv file %s: %w", path, err)
	}
	return toRows(records), nil
}

// toRows drops a leading header row and blank rows.
func toRows(records [][]string) [][]any {
	if len(records) > 0 && isHeader(records[0]) {
		records = records[1:]
	}
	rows := make([][]any, 0, len(records))
	for _, record := range records {
		if blank(record) {
			continue
		}
		row := make([]any, len(record))
		for i, v := range record {
			row[i] = v
		}
		rows = append(rows, row)
	}
	return rows
}

func isHeader(record []string) bool {
	if len(record) == 0 {
		return false
	}
	key := strings.ToLower(strings.TrimSpace(record[0]))
	key = strings.NewReplacer(" ", "", "_", "", "-", "").Replace(key)
	_, ok := headerKeys[key]
	return ok
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Name identifies the workbook in logs and load errors.
func (w *Workbook) Name() string {
	return "workbook:" + w.label
}

// MaterialRows returns the materials sheet.
func (w *Workbook) MaterialRows(ctx context.Context) ([][]any, error) {
	return w.materials, nil
}

// ProductRows returns the products sheet.
func (w *Workbook) ProductRows(ctx context.Context) ([][]any, error) {
	return w.products, nil
}

// FileSource re-reads a workbook file on every fetch, so edits show up on the next refresh.
type FileSource struct {
	Path string
}

func (s *FileSource) Name() string {
	return "workbook:" + s.Path
}

func (s *FileSource) MaterialRows(ctx context.Context) ([][]any, error) {
	wb, err := Open(s.Path)
	if err != nil {
		return nil, err
	}
	return wb.MaterialRows(ctx)
}

func (s *FileSource) ProductRows(ctx context.Context) ([][]any, error) {
	wb, err := Open(s.Path)
	if err != nil {
		return nil, err
	}
	return wb.ProductRows(ctx)
}

var (
	_ catalog.Source = (*Workbook)(nil)
	_ catalog.Source = (*FileSource)(nil)
)
