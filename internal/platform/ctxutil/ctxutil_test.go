package ctxutil

import (
	"context"
	"testing"
)

func TestTraceDataRoundTrip(t *testing.T) {
	ctx := WithTraceData(context.Background(), &TraceData{TraceID: "t1", RequestID: "r1", UploadID: "u1"})
	td := GetTraceData(ctx)
	if td == nil || td.TraceID != "t1" || td.UploadID != "u1" {
		t.Fatalf("trace data: got=%+v", td)
	}
	fields := LogFields(ctx)
	if len(fields) != 6 {
		t.Fatalf("log fields: want=6 got=%d (%v)", len(fields), fields)
	}
}

func TestLogFieldsWithoutTraceData(t *testing.T) {
	if got := LogFields(context.Background()); got != nil {
		t.Fatalf("want nil fields, got=%v", got)
	}
	//lint:ignore SA1012 nil context is part of the contract
	if Default(nil) == nil {
		t.Fatalf("Default(nil) returned nil")
	}
}
