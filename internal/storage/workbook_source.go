package storage

import (
	"context"
	"fmt"

	"github.com/andresuchdata/quotemanager/internal/catalog"
	"github.com/andresuchdata/quotemanager/internal/sheet"
)

// WorkbookSource reads the catalog from an .xlsx object in a bucket.
type WorkbookSource struct {
	store ObjectStorage
	key   string
}

func NewWorkbookSource(store ObjectStorage, key string) *WorkbookSource {
	return &WorkbookSource{store: store, key: key}
}

func (s *WorkbookSource) Name() string {
	return "s3:" + s.key
}

func (s *WorkbookSource) MaterialRows(ctx context.Context) ([][]any, error) {
	wb, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	return wb.MaterialRows(ctx)
}

func (s *WorkbookSource) ProductRows(ctx context.Context) ([][]any, error) {
	wb, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	return wb.ProductRows(ctx)
}

func (s *WorkbookSource) open(ctx context.Context) (*sheet.Workbook, error) {
	r, _, err := s.store.OpenObject(ctx, s.key)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	wb, err := sheet.ReadXLSX(r, s.key)
	if err != nil {
		return nil, fmt.Errorf("s3 workbook: %w", err)
	}
	return wb, nil
}

var _ catalog.Source = (*WorkbookSource)(nil)
