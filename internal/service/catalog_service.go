package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/andresuchdata/quotemanager/internal/catalog"
	"github.com/andresuchdata/quotemanager/internal/domain"
	"github.com/andresuchdata/quotemanager/internal/stock"
	"github.com/rs/zerolog/log"
)

// Invalidator drops cached catalog rows. cache.CachedSource implements it.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// CatalogStatus summarises the active catalog.
type CatalogStatus struct {
	Source    string    `json:"source"`
	Materials int       `json:"materials"`
	Products  int       `json:"products"`
	Warnings  []string  `json:"warnings"`
	LoadedAt  time.Time `json:"loaded_at"`
	Empty     bool      `json:"empty"`
}

type CatalogService struct {
	store *catalog.Store
	cache Invalidator
}

func NewCatalogService(store *catalog.Store, cache Invalidator) *CatalogService {
	return &CatalogService{store: store, cache: cache}
}

// Current returns the active catalog; it is never nil.
func (s *CatalogService) Current() *catalog.Catalog {
	return s.store.Current()
}

// Refresh reloads the catalog. With force set, cached rows are dropped first so
// the reload reaches the source.
func (s *CatalogService) Refresh(ctx context.Context, force bool) (*catalog.Catalog, error) {
	if force && s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			log.Warn().Err(err).Msg("catalog: cache invalidate failed")
		}
	}
	return s.store.Refresh(ctx)
}

func (s *CatalogService) Status() CatalogStatus {
	c := s.store.Current()
	warnings := c.Warnings()
	if warnings == nil {
		warnings = []string{}
	}
	return CatalogStatus{
		Source:    s.store.Source().Name(),
		Materials: len(c.Materials()),
		Products:  len(c.Products()),
		Warnings:  warnings,
		LoadedAt:  c.LoadedAt(),
		Empty:     c.IsEmpty(),
	}
}

// Materials lists materials sorted by name. A non-empty query keeps names or
// suppliers containing it, case-insensitively.
func (s *CatalogService) Materials(query string) []domain.Material {
	query = strings.ToLower(strings.TrimSpace(query))
	all := s.store.Current().Materials()

	out := make([]domain.Material, 0, len(all))
	for _, m := range all {
		if query != "" &&
			!strings.Contains(strings.ToLower(m.Name), query) &&
			!strings.Contains(strings.ToLower(m.Supplier), query) {
			continue
		}
		out = append(out, m)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

// Products lists products, optionally restricted to one product type.
func (s *CatalogService) Products(productType string) []domain.Product {
	productType = strings.TrimSpace(productType)
	all := s.store.Current().Products()
	if productType == "" {
		return all
	}

	out := make([]domain.Product, 0)
	for _, p := range all {
		if strings.EqualFold(p.Type, productType) {
			out = append(out, p)
		}
	}
	return out
}

func (s *CatalogService) ProductTypes() []string {
	return s.store.Current().ProductTypes()
}

// ReorderAlerts lists materials below their reorder level, most urgent first.
func (s *CatalogService) ReorderAlerts() []domain.ShoppingListEntry {
	return stock.ReorderAlerts(s.store.Current().Materials())
}
