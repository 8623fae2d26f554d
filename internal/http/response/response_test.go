package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/codezs3/edusight-ai-new-sub001/internal/domain/assessment"
)

func TestRespondAssessmentError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		err    error
		status int
		kind   assessment.Kind
	}{
		{assessment.IngestErrCounts(assessment.ReasonNoUsableScores, assessment.PartialCounts{RowsSeen: 3, RowsDropped: 3}, nil).WithUploadID("up-1"), http.StatusUnprocessableEntity, assessment.KindIngest},
		{assessment.CatalogErr("missing catalog", nil), http.StatusServiceUnavailable, assessment.KindCatalog},
		{errors.New("boom"), http.StatusInternalServerError, assessment.KindAnalysis},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		RespondAssessmentError(c, tc.err)
		if rec.Code != tc.status {
			t.Fatalf("status: want=%d got=%d", tc.status, rec.Code)
		}
		var env assessment.Envelope
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if env.Kind != tc.kind {
			t.Fatalf("kind: want=%s got=%s", tc.kind, env.Kind)
		}
	}
}
