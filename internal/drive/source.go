package drive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/andresuchdata/quotemanager/internal/catalog"
	"github.com/andresuchdata/quotemanager/internal/sheet"
)

// Downloader is the part of the Drive service a SheetSource needs. *Service implements it.
type Downloader interface {
	FileMeta(ctx context.Context, fileID string) (*File, error)
	DownloadWorkbook(ctx context.Context, file *File, w io.Writer) error
}

// SheetSource reads the catalog from a Google Sheet. The exported workbook is
// reused until the file's version changes, so both feeds of one refresh share a
// single download.
type SheetSource struct {
	api    Downloader
	fileID string

	mu       sync.Mutex
	version  string
	workbook *sheet.Workbook
}

func NewSheetSource(api Downloader, fileID string) *SheetSource {
	return &SheetSource{api: api, fileID: fileID}
}

func (s *SheetSource) Name() string {
	return "drive:" + s.fileID
}

func (s *SheetSource) MaterialRows(ctx context.Context) ([][]any, error) {
	wb, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return wb.MaterialRows(ctx)
}

func (s *SheetSource) ProductRows(ctx context.Context) ([][]any, error) {
	wb, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return wb.ProductRows(ctx)
}

func (s *SheetSource) load(ctx context.Context) (*sheet.Workbook, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	meta, err := s.api.FileMeta(ctx, s.fileID)
	if err != nil {
		return nil, err
	}
	version := fileVersion(meta)
	if s.workbook != nil && version == s.version {
		return s.workbook, nil
	}

	var buf bytes.Buffer
	if err := s.api.DownloadWorkbook(ctx, meta, &buf); err != nil {
		return nil, err
	}
	wb, err := sheet.ReadXLSX(&buf, meta.Name)
	if err != nil {
		return nil, fmt.Errorf("drive workbook: %w", err)
	}

	s.workbook = wb
	s.version = version
	return wb, nil
}

func fileVersion(f *File) string {
	return fmt.Sprintf("%d@%s", f.Version, f.ModifiedTime)
}

var _ catalog.Source = (*SheetSource)(nil)
