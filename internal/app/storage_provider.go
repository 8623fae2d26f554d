package app

import (
	"errors"
	"fmt"

	"github.com/codezs3/edusight-ai-new-sub001/internal/platform/gcp"
	"github.com/codezs3/edusight-ai-new-sub001/internal/platform/logger"
)

type StorageProviderBootstrapErrorCode string

const (
	StorageProviderBootstrapErrorInvalidConfig StorageProviderBootstrapErrorCode = "invalid_config"
	StorageProviderBootstrapErrorConnectFailed StorageProviderBootstrapErrorCode = "connect_failed"
)

type StorageProviderBootstrapError struct {
	Code  StorageProviderBootstrapErrorCode
	Cause error
}

func (e *StorageProviderBootstrapError) Error() string {
	if e == nil {
		return "object storage bootstrap failed"
	}
	return fmt.Sprintf("object storage bootstrap failed (code=%s): %v", e.Code, e.Cause)
}

func (e *StorageProviderBootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func resolveBucketService(log *logger.Logger, cfg Config) (gcp.BucketService, error) {
	if !cfg.StorageEnabled {
		return nil, errStorageNotConfigured
	}
	bucket, err := newBucketService(log)
	if err != nil {
		classified := classifyStorageBootstrapError(err)
		log.Error("Object storage provider bootstrap failed", "error_code", classified.Code, "error", err)
		return nil, classified
	}
	return bucket, nil
}

func classifyStorageBootstrapError(err error) *StorageProviderBootstrapError {
	var cfgErr *gcp.ObjectStorageConfigError
	if errors.As(err, &cfgErr) {
		return &StorageProviderBootstrapError{Code: StorageProviderBootstrapErrorInvalidConfig, Cause: err}
	}
	return &StorageProviderBootstrapError{Code: StorageProviderBootstrapErrorConnectFailed, Cause: err}
}
