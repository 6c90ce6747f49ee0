package drive

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Watch polls the file's metadata and calls onChange whenever its version moves.
// The first observation only records the version. Watch returns when ctx ends.
func Watch(ctx context.Context, api Downloader, fileID string, interval time.Duration, onChange func(ctx context.Context)) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := ""
	for {
		meta, err := api.FileMeta(ctx, fileID)
		switch {
		case err != nil:
			log.Warn().Err(err).Str("file_id", fileID).Msg("drive: stat failed")
		case last == "":
			last = fileVersion(meta)
		case fileVersion(meta) != last:
			last = fileVersion(meta)
			log.Info().Str("file_id", fileID).Str("modified", meta.ModifiedTime).Msg("drive: catalog sheet changed")
			onChange(ctx)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
