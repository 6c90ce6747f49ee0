package catalog

import "context"

// StaticSource serves fixed rows. It backs tests and offline runs.
type StaticSource struct {
	Label     string
	Materials [][]any
	Products  [][]any
	Err       error
}

func (s *StaticSource) Name() string {
	if s.Label == "" {
		return "static"
	}
	return s.Label
}

func (s *StaticSource) MaterialRows(ctx context.Context) ([][]any, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Materials, nil
}

func (s *StaticSource) ProductRows(ctx context.Context) ([][]any, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Products, nil
}

var _ Source = (*StaticSource)(nil)
