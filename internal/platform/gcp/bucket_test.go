package gcp

import (
	"errors"
	"testing"

	"cloud.google.com/go/storage"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestPublicURL(t *testing.T) {
	cases := []struct {
		name string
		mode ObjectStorageMode
		base string
		want string
	}{
		{"gcs default", ObjectStorageModeGCS, "", "https://storage.googleapis.com/reports/reports/u1/radar.png"},
		{"gcs with base", ObjectStorageModeGCS, "https://cdn.example.com", "https://cdn.example.com/reports/reports/u1/radar.png"},
		{"emulator", ObjectStorageModeGCSEmulator, "http://localhost:4443", "http://localhost:4443/storage/v1/b/reports/o/reports%2Fu1%2Fradar.png?alt=media"},
	}
	for _, tc := range cases {
		if got := publicURL(tc.mode, tc.base, "reports", "reports/u1/radar.png"); got != tc.want {
			t.Fatalf("%s: want=%s got=%s", tc.name, tc.want, got)
		}
	}
}

func TestContentTypeForKey(t *testing.T) {
	cases := map[string]string{
		"a/b/chart.PNG": "image/png",
		"scan.jpeg":     "image/jpeg",
		"marks.xlsx":    "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"marks.csv":     "text/csv",
		"payload.json":  "application/json",
		"notes.txt":     "",
		"no-extension":  "",
	}
	for key, want := range cases {
		if got := contentTypeForKey(key); got != want {
			t.Fatalf("%s: want=%q got=%q", key, want, got)
		}
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		err  error
		want error
	}{
		{storage.ErrObjectNotExist, ErrNotFound},
		{status.Error(codes.NotFound, "processor missing"), ErrNotFound},
		{status.Error(codes.InvalidArgument, "bad image"), ErrInvalidArgument},
		{status.Error(codes.Unavailable, "try later"), ErrUnavailable},
	}
	for _, tc := range cases {
		if got := classify("op", tc.err); !errors.Is(got, tc.want) {
			t.Fatalf("%v: want=%v got=%v", tc.err, tc.want, got)
		}
	}
	if classify("op", nil) != nil {
		t.Fatalf("nil error should stay nil")
	}
}
