package assessment

import (
	"context"
	"errors"
	"fmt"
)

// Kind is the error taxonomy surfaced at the engine boundary.
type Kind string

const (
	KindIngest     Kind = "IngestError"
	KindCatalog    Kind = "CatalogError"
	KindAnalysis   Kind = "AnalysisError"
	KindPrediction Kind = "PredictionError"
	KindAssembly   Kind = "AssemblyError"
)

const (
	ReasonNoUsableScores     = "no usable scores"
	ReasonUnreadable         = "unreadable file"
	ReasonUnsupportedFormat  = "unsupported format"
	ReasonOCRFailed          = "ocr_failed"
	ReasonInvalidArtifact    = "invalid artifact"
	ReasonCancelled          = "cancelled"
	ReasonEmptyInput         = "empty input"
	ReasonInconsistentResult = "inconsistent result"
)

// PartialCounts reports how much of an artifact survived ingestion.
type PartialCounts struct {
	RowsSeen          int `json:"rows_seen"`
	RowsDropped       int `json:"rows_dropped"`
	ValuesDropped     int `json:"values_dropped"`
	DuplicatesRemoved int `json:"duplicates_removed"`
}

type Error struct {
	Kind     Kind
	Reason   string
	Message  string
	Counts   *PartialCounts
	UploadID string
	Err      error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if msg == "" {
		msg = e.Reason
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Kind and Reason so callers can compare against a template error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	if t.Kind != "" && t.Kind != e.Kind {
		return false
	}
	return t.Reason == "" || t.Reason == e.Reason
}

// WithUploadID returns a copy tagged with the upload it belongs to.
func (e *Error) WithUploadID(id string) *Error {
	if e == nil {
		return nil
	}
	cp := *e
	cp.UploadID = id
	return &cp
}

func IngestErr(reason string, err error) *Error {
	return &Error{Kind: KindIngest, Reason: reason, Message: reason, Err: err}
}

// IngestErrCounts is an ingest failure carrying the partial extraction counts.
func IngestErrCounts(reason string, counts PartialCounts, err error) *Error {
	e := IngestErr(reason, err)
	e.Counts = &counts
	return e
}

func CatalogErr(msg string, err error) *Error {
	return &Error{Kind: KindCatalog, Reason: "catalog invalid", Message: msg, Err: err}
}

func AnalysisErr(reason string, err error) *Error {
	return &Error{Kind: KindAnalysis, Reason: reason, Message: reason, Err: err}
}

func PredictionErr(msg string, err error) *Error {
	return &Error{Kind: KindPrediction, Reason: "model unavailable", Message: msg, Err: err}
}

func AssemblyErr(msg string, err error) *Error {
	return &Error{Kind: KindAssembly, Reason: ReasonInconsistentResult, Message: msg, Err: err}
}

// AsError normalizes any error into the engine taxonomy.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return AnalysisErr(ReasonCancelled, err)
	}
	return AnalysisErr("unexpected failure", err)
}

// Envelope is the single error record emitted for a failed run.
type Envelope struct {
	Kind          Kind           `json:"kind"`
	Message       string         `json:"message"`
	PartialCounts *PartialCounts `json:"partial_counts,omitempty"`
	UploadID      string         `json:"upload_id"`
}

func (e *Error) Envelope() Envelope {
	if e == nil {
		return Envelope{}
	}
	msg := e.Message
	if msg == "" {
		msg = e.Reason
	}
	return Envelope{
		Kind:          e.Kind,
		Message:       msg,
		PartialCounts: e.Counts,
		UploadID:      e.UploadID,
	}
}
