package gcp

import (
	"errors"
	"fmt"

	"cloud.google.com/go/storage"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	ErrNotFound        = errors.New("gcp: not found")
	ErrInvalidArgument = errors.New("gcp: invalid argument")
	ErrUnavailable     = errors.New("gcp: unavailable")
)

// classify maps storage and gRPC failures onto the package sentinels, keeping the cause.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
		return fmt.Errorf("%s: %w: %v", op, ErrNotFound, err)
	}
	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.NotFound:
			return fmt.Errorf("%s: %w: %s", op, ErrNotFound, st.Message())
		case codes.InvalidArgument, codes.FailedPrecondition:
			return fmt.Errorf("%s: %w: %s", op, ErrInvalidArgument, st.Message())
		case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted:
			return fmt.Errorf("%s: %w: %s", op, ErrUnavailable, st.Message())
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
