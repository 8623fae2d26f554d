package apierr

import (
	"errors"
	"net/http"
	"testing"

	"github.com/codezs3/edusight-ai-new-sub001/internal/domain/assessment"
)

func TestFromAssessmentStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{assessment.IngestErr(assessment.ReasonNoUsableScores, nil), http.StatusUnprocessableEntity},
		{assessment.CatalogErr("missing catalog", nil), http.StatusServiceUnavailable},
		{assessment.AssemblyErr("strength not scored", nil), http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		got := FromAssessment(tc.err)
		if got.Status != tc.want {
			t.Fatalf("%v: want=%d got=%d", tc.err, tc.want, got.Status)
		}
	}
}

func TestFromAssessmentKeepsAPIError(t *testing.T) {
	in := New(http.StatusBadRequest, "bad_request", errors.New("missing student_id"))
	if got := FromAssessment(in); got != in {
		t.Fatalf("want passthrough, got=%+v", got)
	}
}
