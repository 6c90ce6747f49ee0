package catalogsource

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/andresuchdata/quotemanager/internal/backend"
	"github.com/andresuchdata/quotemanager/internal/cache"
	"github.com/andresuchdata/quotemanager/internal/catalog"
	"github.com/andresuchdata/quotemanager/internal/config"
	"github.com/andresuchdata/quotemanager/internal/drive"
	"github.com/andresuchdata/quotemanager/internal/repository/postgres"
	"github.com/andresuchdata/quotemanager/internal/sheet"
	"github.com/andresuchdata/quotemanager/internal/storage"
	"github.com/rs/zerolog/log"
)

// Opened is a configured catalog source plus whatever it holds open.
type Opened struct {
	Source catalog.Source
	// Cached is set when rows go through the Redis cache.
	Cached *cache.CachedSource

	watch   func(ctx context.Context, interval time.Duration, onChange func(ctx context.Context))
	closers []func() error
}

// Invalidate drops cached rows; it is a no-op without a cache.
func (o *Opened) Invalidate(ctx context.Context) error {
	if o.Cached == nil {
		return nil
	}
	return o.Cached.Invalidate(ctx)
}

// Watch polls the source for edits and calls onChange when one is seen. Only
// Drive sources support it; for the rest it returns immediately.
func (o *Opened) Watch(ctx context.Context, interval time.Duration, onChange func(ctx context.Context)) {
	if o.watch == nil {
		return
	}
	o.watch(ctx, interval, onChange)
}

func (o *Opened) Close() error {
	var errs []error
	for i := len(o.closers) - 1; i >= 0; i-- {
		if err := o.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Open builds the source named by kind. An empty kind uses cfg.Source.Kind.
// With withCache set and caching enabled, rows are served through Redis.
func Open(ctx context.Context, cfg *config.Config, kind string, withCache bool) (*Opened, error) {
	if kind == "" {
		kind = cfg.Source.Kind
	}
	o := &Opened{}

	switch kind {
	case config.SourceBackend:
		client, err := backend.NewClient(backend.Config{
			BaseURL:      cfg.Backend.URL,
			Timeout:      time.Duration(cfg.Backend.TimeoutSeconds) * time.Second,
			RetryBackoff: time.Duration(cfg.Backend.RetryBackoffMillis) * time.Millisecond,
		})
		if err != nil {
			return nil, err
		}
		o.Source = client

	case config.SourceWorkbook:
		o.Source = &sheet.FileSource{Path: cfg.Source.WorkbookPath}

	case config.SourceDrive:
		if cfg.Source.Drive.FileID == "" {
			return nil, errors.New("drive source needs DRIVE_FILE_ID")
		}
		svc, err := drive.NewServiceFromConfig(ctx, cfg.Source.Drive.CredentialsJSON, cfg.Source.Drive.CredentialsFile)
		if err != nil {
			return nil, err
		}
		fileID := cfg.Source.Drive.FileID
		o.Source = drive.NewSheetSource(svc, fileID)
		o.watch = func(ctx context.Context, interval time.Duration, onChange func(ctx context.Context)) {
			drive.Watch(ctx, svc, fileID, interval, onChange)
		}

	case config.SourceS3:
		client, err := storage.NewMinioClient(cfg.Source.S3)
		if err != nil {
			return nil, err
		}
		o.Source = storage.NewWorkbookSource(client, cfg.Source.S3.Key)

	case config.SourcePostgres:
		db, err := postgres.NewDB(ctx, &cfg.Database)
		if err != nil {
			return nil, err
		}
		o.closers = append(o.closers, db.Close)
		o.Source = postgres.NewCatalogRepository(db)

	default:
		return nil, fmt.Errorf("unknown catalog source %q", kind)
	}

	if withCache && cfg.Cache.Enabled {
		rowCache, err := cache.NewCatalogCache(cfg.Cache)
		if err != nil {
			log.Warn().Err(err).Msg("catalog cache unavailable, reading the source directly")
		} else {
			o.closers = append(o.closers, rowCache.Close)
			o.Cached = cache.NewCachedSource(o.Source, rowCache)
			o.Source = o.Cached
		}
	}

	log.Debug().Str("kind", kind).Str("source", o.Source.Name()).Msg("catalog source opened")
	return o, nil
}
