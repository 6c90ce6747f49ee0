package catalog

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Source captures the two feeds the catalog backend provides. Rows keep the
// backend's positional layout; parsing happens in this package only.
type Source interface {
	Name() string
	MaterialRows(ctx context.Context) ([][]any, error)
	ProductRows(ctx context.Context) ([][]any, error)
}

// Feed names a catalog feed for error reporting.
type Feed string

const (
	FeedMaterials Feed = "materials"
	FeedProducts  Feed = "products"
)

// LoadError reports a failed catalog fetch. The store is left empty when it is returned.
type LoadError struct {
	Source string
	Feed   Feed
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("catalog %s: fetch %s: %v", e.Source, e.Feed, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Store holds the session catalog. Readers never block; Refresh swaps the whole
// catalog in one step.
type Store struct {
	source  Source
	current atomic.Pointer[Catalog]
	mu      sync.Mutex

	onLoad func(c *Catalog, took time.Duration, err error)
}

// NewStore creates a store that starts out empty.
func NewStore(source Source) *Store {
	s := &Store{source: source}
	s.current.Store(Empty())
	return s
}

// OnLoad registers a callback invoked after every refresh attempt.
func (s *Store) OnLoad(fn func(c *Catalog, took time.Duration, err error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onLoad = fn
}

// Current returns the active catalog. It is never nil.
func (s *Store) Current() *Catalog {
	return s.current.Load()
}

// Source returns the backing source.
func (s *Store) Source() Source {
	return s.source
}

// Refresh reloads both feeds and replaces the catalog. Any fetch failure leaves
// the store holding an empty catalog and is reported once; it is not retried here.
func (s *Store) Refresh(ctx context.Context) (*Catalog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	var materialRows, productRows [][]any

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.source.MaterialRows(gctx)
		if err != nil {
			return &LoadError{Source: s.source.Name(), Feed: FeedMaterials, Err: err}
		}
		materialRows = rows
		return nil
	})
	g.Go(func() error {
		rows, err := s.source.ProductRows(gctx)
		if err != nil {
			return &LoadError{Source: s.source.Name(), Feed: FeedProducts, Err: err}
		}
		productRows = rows
		return nil
	})

	if err := g.Wait(); err != nil {
		empty := Empty()
		s.current.Store(empty)
		log.Warn().Err(err).Str("source", s.source.Name()).Msg("catalog: load failed, using empty catalog")
		s.notify(empty, time.Since(start), err)
		return empty, err
	}

	c := New(materialRows, productRows)
	s.current.Store(c)

	for _, w := range c.Warnings() {
		log.Debug().Str("source", s.source.Name()).Msg("catalog: " + w)
	}
	log.Info().
		Str("source", s.source.Name()).
		Int("materials", len(c.Materials())).
		Int("products", len(c.Products())).
		Int("warnings", len(c.Warnings())).
		Dur("took", time.Since(start)).
		Msg("catalog: loaded")

	s.notify(c, time.Since(start), nil)
	return c, nil
}

func (s *Store) notify(c *Catalog, took time.Duration, err error) {
	if s.onLoad != nil {
		s.onLoad(c, took, err)
	}
}
