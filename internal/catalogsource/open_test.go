package catalogsource

import (
	"context"
	"testing"

	"github.com/andresuchdata/quotemanager/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenKinds(t *testing.T) {
	cfg := &config.Config{
		Backend: config.BackendConfig{URL: "http://localhost:8081/exec", TimeoutSeconds: 1},
		Source: config.SourceConfig{
			Kind:         config.SourceWorkbook,
			WorkbookPath: "/tmp/catalog.xlsx",
			S3:           config.S3Config{Endpoint: "minio:9000", AccessKey: "a", SecretKey: "s", Bucket: "b", Key: "catalog.xlsx"},
		},
	}
	ctx := context.Background()

	testCases := []struct {
		kind     string
		wantName string
	}{
		{"", "workbook:/tmp/catalog.xlsx"},
		{config.SourceBackend, "backend:localhost:8081"},
		{config.SourceS3, "s3:catalog.xlsx"},
	}
	for _, tc := range testCases {
		t.Run(tc.kind, func(t *testing.T) {
			o, err := Open(ctx, cfg, tc.kind, true)
			require.NoError(t, err)
			defer o.Close()
			assert.Equal(t, tc.wantName, o.Source.Name())
			assert.Nil(t, o.Cached, "cache disabled")
			assert.NoError(t, o.Invalidate(ctx))
		})
	}
}

func TestOpenErrors(t *testing.T) {
	ctx := context.Background()

	_, err := Open(ctx, &config.Config{}, "ftp", false)
	assert.Error(t, err)

	_, err = Open(ctx, &config.Config{}, config.SourceDrive, false)
	assert.Error(t, err)

	_, err = Open(ctx, &config.Config{}, config.SourceS3, false)
	assert.Error(t, err)
}
