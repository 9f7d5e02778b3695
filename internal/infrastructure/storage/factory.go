package storage

import (
	"context"
	"fmt"

	"github.com/erp/receivables/internal/application/reconciliation"
	infraconfig "github.com/erp/receivables/internal/infrastructure/config"
	"go.uber.org/zap"
)

// NewAttachmentStore picks the implementation named by cfg.Provider.
// The S3 bucket is created on first use when missing.
func NewAttachmentStore(ctx context.Context, cfg *infraconfig.StorageConfig, logger *zap.Logger) (reconciliation.AttachmentStore, error) {
	switch cfg.Provider {
	case "", "stub":
		logger.Warn("Using in-memory attachment store; vouchers are not persisted")
		return NewStubAttachmentStore(cfg.BaseURL), nil
	case "s3":
		store, err := NewS3AttachmentStore(cfg, WithLogger(logger))
		if err != nil {
			return nil, err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		logger.Info("S3 attachment store ready", zap.String("bucket", store.Bucket()))
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage provider %q", cfg.Provider)
	}
}
