package app

import (
	"errors"
	"fmt"
	"testing"

	"github.com/codezs3/edusight-ai-new-sub001/internal/platform/gcp"
	"github.com/codezs3/edusight-ai-new-sub001/internal/platform/logger"
)

func TestResolveBucketServiceDisabled(t *testing.T) {
	_, err := resolveBucketService(logger.Nop(), Config{})
	if !errors.Is(err, errStorageNotConfigured) {
		t.Fatalf("want errStorageNotConfigured got=%v", err)
	}
}

func TestResolveBucketServiceClassifiesErrors(t *testing.T) {
	orig := newBucketService
	t.Cleanup(func() { newBucketService = orig })

	cases := []struct {
		err  error
		want StorageProviderBootstrapErrorCode
	}{
		{fmt.Errorf("resolve: %w", &gcp.ObjectStorageConfigError{Mode: "s3", Reason: "bad mode"}), StorageProviderBootstrapErrorInvalidConfig},
		{errors.New("dial tcp: connection refused"), StorageProviderBootstrapErrorConnectFailed},
	}
	for _, tc := range cases {
		newBucketService = func(*logger.Logger) (gcp.BucketService, error) { return nil, tc.err }
		_, err := resolveBucketService(logger.Nop(), Config{StorageEnabled: true})
		var be *StorageProviderBootstrapError
		if !errors.As(err, &be) || be.Code != tc.want {
			t.Fatalf("code: want=%s got=%v", tc.want, err)
		}
		if !errors.Is(err, tc.err) {
			t.Fatalf("cause lost: %v", err)
		}
	}
}
