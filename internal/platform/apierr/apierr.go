package apierr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/codezs3/edusight-ai-new-sub001/internal/domain/assessment"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// FromAssessment maps an engine error kind onto an HTTP status.
func FromAssessment(err error) *Error {
	if err == nil {
		return nil
	}
	var api *Error
	if errors.As(err, &api) {
		return api
	}
	ae := assessment.AsError(err)
	status := http.StatusInternalServerError
	switch ae.Kind {
	case assessment.KindIngest:
		status = http.StatusUnprocessableEntity
	case assessment.KindCatalog:
		status = http.StatusServiceUnavailable
	}
	return &Error{Status: status, Code: string(ae.Kind), Err: ae}
}
