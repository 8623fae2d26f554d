package gcp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/codezs3/edusight-ai-new-sub001/internal/platform/logger"
)

type BucketCategory string

const (
	// BucketCategoryArtifact holds uploaded report cards and score sheets.
	BucketCategoryArtifact BucketCategory = "artifact"
	// BucketCategoryReport holds rendered charts and payload exports.
	BucketCategoryReport BucketCategory = "report"
)

type BucketService interface {
	UploadFile(ctx context.Context, category BucketCategory, key string, file io.Reader) error
	DownloadFile(ctx context.Context, category BucketCategory, key string) (io.ReadCloser, error)
	ReadFile(ctx context.Context, category BucketCategory, key string, limit int64) ([]byte, string, error)
	DeleteFile(ctx context.Context, category BucketCategory, key string) error
	ListKeys(ctx context.Context, category BucketCategory, prefix string) ([]string, error)
	GetPublicURL(category BucketCategory, key string) string
	Close() error
}

type bucketService struct {
	log           *logger.Logger
	client        *storage.Client
	mode          ObjectStorageMode
	emulatorHost  string
	publicBaseURL string
	buckets       map[BucketCategory]string
}

// NewBucketService reads ARTIFACT_BUCKET_NAME and REPORT_BUCKET_NAME; at least one must be set.
func NewBucketService(log *logger.Logger) (BucketService, error) {
	cfg, err := ResolveObjectStorageConfigFromEnv()
	if err != nil {
		return nil, fmt.Errorf("resolve object storage config: %w", err)
	}
	buckets := map[BucketCategory]string{}
	if v := strings.TrimSpace(os.Getenv("ARTIFACT_BUCKET_NAME")); v != "" {
		buckets[BucketCategoryArtifact] = v
	}
	if v := strings.TrimSpace(os.Getenv("REPORT_BUCKET_NAME")); v != "" {
		buckets[BucketCategoryReport] = v
	}
	if len(buckets) == 0 {
		return nil, fmt.Errorf("missing env var ARTIFACT_BUCKET_NAME or REPORT_BUCKET_NAME")
	}
	return NewBucketServiceWithConfig(log, cfg, buckets, strings.TrimSpace(os.Getenv("OBJECT_STORAGE_PUBLIC_BASE_URL")))
}

func NewBucketServiceWithConfig(log *logger.Logger, cfg ObjectStorageConfig, buckets map[BucketCategory]string, publicBaseURL string) (BucketService, error) {
	if err := ValidateObjectStorageConfig(cfg); err != nil {
		return nil, fmt.Errorf("validate object storage config: %w", err)
	}
	if publicBaseURL != "" {
		if u, err := url.Parse(publicBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("invalid OBJECT_STORAGE_PUBLIC_BASE_URL=%q", publicBaseURL)
		}
	}
	client, err := newStorageClient(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	bs := &bucketService{
		log:           log.With("service", "BucketService"),
		client:        client,
		mode:          cfg.Mode,
		emulatorHost:  strings.TrimRight(cfg.EmulatorHost, "/"),
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		buckets:       buckets,
	}
	if bs.publicBaseURL == "" && cfg.IsEmulatorMode() {
		bs.publicBaseURL = bs.emulatorHost
	}
	bs.log.Info("Object storage initialized", "mode", cfg.Mode, "implied", cfg.Implied, "artifact_bucket", buckets[BucketCategoryArtifact], "report_bucket", buckets[BucketCategoryReport])
	return bs, nil
}

func newStorageClient(ctx context.Context, cfg ObjectStorageConfig) (*storage.Client, error) {
	if cfg.IsEmulatorMode() {
		_ = os.Setenv("STORAGE_EMULATOR_HOST", strings.TrimRight(cfg.EmulatorHost, "/"))
		return storage.NewClient(ctx, option.WithoutAuthentication())
	}
	opts := append(ClientOptionsFromEnv(), option.WithScopes(storage.ScopeReadWrite))
	return storage.NewClient(ctx, opts...)
}

func (bs *bucketService) bucket(category BucketCategory) (string, error) {
	name, ok := bs.buckets[category]
	if !ok {
		return "", fmt.Errorf("bucket category %s is not configured", category)
	}
	return name, nil
}

func (bs *bucketService) Close() error {
	if bs == nil || bs.client == nil {
		return nil
	}
	return bs.client.Close()
}

func (bs *bucketService) UploadFile(ctx context.Context, category BucketCategory, key string, file io.Reader) error {
	name, err := bs.bucket(category)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := bs.client.Bucket(name).Object(key).NewWriter(ctx)
	if ct := contentTypeForKey(key); ct != "" {
		w.ContentType = ct
	}
	if _, err := io.Copy(w, file); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return classify("close GCS writer", err)
	}
	return nil
}

// readCloserWithCancel ties the request context to the reader's lifetime.
type readCloserWithCancel struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (r *readCloserWithCancel) Close() error {
	err := r.ReadCloser.Close()
	if r.cancel != nil {
		r.cancel()
	}
	return err
}

func (bs *bucketService) DownloadFile(ctx context.Context, category BucketCategory, key string) (io.ReadCloser, error) {
	name, err := bs.bucket(category)
	if err != nil {
		return nil, err
	}
	ctx2, cancel := context.WithTimeout(ctx, 2*time.Minute)
	if bs.mode == ObjectStorageModeGCSEmulator && bs.emulatorHost != "" {
		req, err := http.NewRequestWithContext(ctx2, http.MethodGet, bs.emulatorMediaURL(bs.emulatorHost, name, key), nil)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("failed creating emulator download request: %w", err)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("failed emulator download request: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
			_ = resp.Body.Close()
			cancel()
			if resp.StatusCode == http.StatusNotFound {
				return nil, fmt.Errorf("emulator download %s: %w", key, ErrNotFound)
			}
			return nil, fmt.Errorf("emulator download failed: status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(body)))
		}
		return &readCloserWithCancel{ReadCloser: resp.Body, cancel: cancel}, nil
	}
	r, err := bs.client.Bucket(name).Object(key).NewReader(ctx2)
	if err != nil {
		cancel()
		return nil, classify("open GCS reader", err)
	}
	return &readCloserWithCancel{ReadCloser: r, cancel: cancel}, nil
}

// ReadFile downloads a whole object, refusing anything larger than limit bytes when limit > 0.
// The returned content type falls back to the key's extension.
func (bs *bucketService) ReadFile(ctx context.Context, category BucketCategory, key string, limit int64) ([]byte, string, error) {
	rc, err := bs.DownloadFile(ctx, category, key)
	if err != nil {
		return nil, "", err
	}
	defer rc.Close()
	src := io.Reader(rc)
	if limit > 0 {
		src = io.LimitReader(rc, limit+1)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, src); err != nil {
		return nil, "", fmt.Errorf("read %s: %w", key, err)
	}
	if limit > 0 && int64(buf.Len()) > limit {
		return nil, "", fmt.Errorf("object %s exceeds %d bytes: %w", key, limit, ErrInvalidArgument)
	}
	ct := contentTypeForKey(key)
	if r, ok := rc.(*readCloserWithCancel); ok {
		if sr, ok := r.ReadCloser.(*storage.Reader); ok && sr.Attrs.ContentType != "" {
			ct = sr.Attrs.ContentType
		}
	}
	return buf.Bytes(), ct, nil
}

func (bs *bucketService) DeleteFile(ctx context.Context, category BucketCategory, key string) error {
	name, err := bs.bucket(category)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := bs.client.Bucket(name).Object(key).Delete(ctx); err != nil {
		return classify(fmt.Sprintf("delete GCS object %q in bucket %q", key, name), err)
	}
	return nil
}

func (bs *bucketService) ListKeys(ctx context.Context, category BucketCategory, prefix string) ([]string, error) {
	name, err := bs.bucket(category)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	it := bs.client.Bucket(name).Objects(ctx, &storage.Query{Prefix: prefix})
	out := []string{}
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, classify("list GCS objects", err)
		}
		out = append(out, attrs.Name)
	}
	return out, nil
}

func (bs *bucketService) GetPublicURL(category BucketCategory, key string) string {
	name, err := bs.bucket(category)
	if err != nil {
		return key
	}
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	return publicURL(bs.mode, bs.publicBaseURL, name, key)
}

func publicURL(mode ObjectStorageMode, base, bucket, key string) string {
	switch {
	case mode == ObjectStorageModeGCSEmulator && base != "":
		return fmt.Sprintf("%s/storage/v1/b/%s/o/%s?alt=media", base, url.PathEscape(bucket), url.PathEscape(key))
	case base != "":
		return fmt.Sprintf("%s/%s/%s", base, bucket, key)
	default:
		return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, key)
	}
}

func (bs *bucketService) emulatorMediaURL(base, bucket, key string) string {
	return publicURL(ObjectStorageModeGCSEmulator, base, bucket, key)
}

func contentTypeForKey(key string) string {
	switch strings.ToLower(path.Ext(strings.TrimSpace(key))) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".pdf":
		return "application/pdf"
	case ".json":
		return "application/json"
	case ".csv":
		return "text/csv"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".xls":
		return "application/vnd.ms-excel"
	default:
		return ""
	}
}
