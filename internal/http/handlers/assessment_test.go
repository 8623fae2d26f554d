package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/codezs3/edusight-ai-new-sub001/internal/catalog"
	"github.com/codezs3/edusight-ai-new-sub001/internal/data/repos"
	"github.com/codezs3/edusight-ai-new-sub001/internal/domain/assessment"
	"github.com/codezs3/edusight-ai-new-sub001/internal/platform/logger"
	"github.com/codezs3/edusight-ai-new-sub001/internal/services"
)

type fakeService struct {
	got     *assessment.UploadArtifact
	storage *services.StorageArtifact
	err     error
	stored  map[string]assessment.ReportPayload
}

func (f *fakeService) Assess(_ context.Context, a *assessment.UploadArtifact) (assessment.ReportPayload, error) {
	f.got = a
	if f.err != nil {
		return assessment.ReportPayload{}, f.err
	}
	return assessment.ReportPayload{UploadID: "up-fake", Student: a.Student}, nil
}

func (f *fakeService) AssessFromStorage(_ context.Context, req services.StorageArtifact) (assessment.ReportPayload, error) {
	f.storage = &req
	if f.err != nil {
		return assessment.ReportPayload{}, f.err
	}
	return assessment.ReportPayload{UploadID: "up-storage", Student: req.Artifact.Student}, nil
}

func (f *fakeService) GetPayload(_ context.Context, id string) (assessment.ReportPayload, error) {
	p, ok := f.stored[id]
	if !ok {
		return assessment.ReportPayload{}, repos.ErrNotFound
	}
	return p, nil
}

func (f *fakeService) RenderChart(_ context.Context, id, chart string, width int) ([]byte, error) {
	if _, ok := f.stored[id]; !ok {
		return nil, repos.ErrNotFound
	}
	if chart != assessment.ChartRadar {
		return nil, services.ErrUnknownChart
	}
	return []byte("\x89PNG"), nil
}

func newTestRouter(t *testing.T, svc services.AssessmentService) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	h := NewAssessmentHandler(logger.Nop(), svc)
	ch := NewCatalogHandler(cat, "test")
	r := gin.New()
	r.GET("/healthcheck", NewHealthHandler().HealthCheck)
	r.GET("/api/catalog", ch.GetCatalog)
	r.POST("/api/assessments", h.Upload)
	r.POST("/api/assessments/manual", h.Manual)
	r.POST("/api/assessments/from-storage", h.FromStorage)
	r.GET("/api/assessments/:upload_id", h.Get)
	r.GET("/api/assessments/:upload_id/charts/:chart", h.Chart)
	return r
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func multipartUpload(t *testing.T, fields map[string]string, fileName, mimeType, body string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("field %s: %v", k, err)
		}
	}
	if fileName != "" {
		hdr := textproto.MIMEHeader{}
		hdr.Set("Content-Disposition", `form-data; name="file"; filename="`+fileName+`"`)
		hdr.Set("Content-Type", mimeType)
		part, err := w.CreatePart(hdr)
		if err != nil {
			t.Fatalf("file part: %v", err)
		}
		_, _ = part.Write([]byte(body))
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/assessments", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestHealthAndCatalog(t *testing.T) {
	r := newTestRouter(t, &fakeService{})
	rec := serve(r, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("healthcheck: got=%d %q", rec.Code, rec.Body.String())
	}

	rec = serve(r, httptest.NewRequest(http.MethodGet, "/api/catalog", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("catalog status: want=200 got=%d", rec.Code)
	}
	var out catalogSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Version == "" || len(out.Curricula) == 0 || len(out.Frameworks) == 0 {
		t.Fatalf("catalog summary: got=%+v", out)
	}
}

func TestUploadBuildsArtifact(t *testing.T) {
	svc := &fakeService{}
	r := newTestRouter(t, svc)
	req := multipartUpload(t, map[string]string{
		"student_id": "stu-1",
		"age":        "13",
		"grade":      "8",
		"curriculum": "CBSE",
		"forms":      `[{"kind":"psychological","responses":{"Emotional Regulation":4}}]`,
	}, "scores.csv", "text/csv", "Subject,Score\nMaths,90\n")

	rec := serve(r, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: want=200 got=%d body=%s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("X-Upload-Id"); got != "up-fake" {
		t.Fatalf("upload id header: want=up-fake got=%q", got)
	}
	a := svc.got
	if a == nil || a.Student.ID != "stu-1" || a.Student.Age != 13 || a.Student.Grade != 8 {
		t.Fatalf("artifact student: got=%+v", a)
	}
	if a.FileName != "scores.csv" || a.MimeType != "text/csv" || !strings.Contains(string(a.Data), "Maths,90") {
		t.Fatalf("artifact file: got=%s %s", a.FileName, a.MimeType)
	}
	if a.Declared.Curriculum != "CBSE" || len(a.Forms) != 1 || a.Forms[0].Kind != assessment.FormPsychological {
		t.Fatalf("artifact metadata: declared=%+v forms=%+v", a.Declared, a.Forms)
	}
}

func TestUploadRejectsBadRequests(t *testing.T) {
	r := newTestRouter(t, &fakeService{})
	cases := []struct {
		name   string
		fields map[string]string
		file   string
	}{
		{"missing student", map[string]string{}, "scores.csv"},
		{"missing file", map[string]string{"student_id": "stu-1"}, ""},
		{"bad forms", map[string]string{"student_id": "stu-1", "forms": `[{"kind":"hobby","responses":{"x":1}}]`}, "scores.csv"},
		{"grade out of range", map[string]string{"student_id": "stu-1", "grade": "14"}, "scores.csv"},
	}
	for _, tc := range cases {
		rec := serve(r, multipartUpload(t, tc.fields, tc.file, "text/csv", "Maths\n90\n"))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: want=400 got=%d", tc.name, rec.Code)
		}
	}
}

func TestUploadIngestErrorEnvelope(t *testing.T) {
	svc := &fakeService{err: assessment.IngestErr(assessment.ReasonNoUsableScores, nil).WithUploadID("up-bad")}
	r := newTestRouter(t, svc)
	rec := serve(r, multipartUpload(t, map[string]string{"student_id": "stu-1"}, "scores.csv", "text/csv", "x"))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status: want=422 got=%d", rec.Code)
	}
	var env assessment.Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Kind != assessment.KindIngest || env.UploadID != "up-bad" {
		t.Fatalf("envelope: got=%+v", env)
	}
}

func TestManualTakesStudentFromDocument(t *testing.T) {
	svc := &fakeService{}
	r := newTestRouter(t, svc)
	body := `{"student":{"id":"stu-doc","age":12,"grade":7},"curriculum":"ICSE","scores":{"Mathematics":[70,75]}}`
	rec := serve(r, httptest.NewRequest(http.MethodPost, "/api/assessments/manual?upload_id=up-m", strings.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: want=200 got=%d body=%s", rec.Code, rec.Body.String())
	}
	a := svc.got
	if a.Student.ID != "stu-doc" || a.Student.Age != 12 || a.UploadID != "up-m" {
		t.Fatalf("artifact: got=%+v", a)
	}
	if a.MimeType != "application/json" || string(a.Data) != body {
		t.Fatalf("artifact data: mime=%s", a.MimeType)
	}

	rec = serve(r, httptest.NewRequest(http.MethodPost, "/api/assessments/manual", strings.NewReader(`{"scores":{"Mathematics":70}}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("no student id: want=400 got=%d", rec.Code)
	}
	rec = serve(r, httptest.NewRequest(http.MethodPost, "/api/assessments/manual?student_id=s", strings.NewReader(`{"scores":`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("malformed document: want=400 got=%d", rec.Code)
	}
}

func TestFromStorage(t *testing.T) {
	svc := &fakeService{}
	r := newTestRouter(t, svc)
	body := `{"key":"uploads/a.xlsx","student_id":"stu-9","mime_type":"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"}`
	req := httptest.NewRequest(http.MethodPost, "/api/assessments/from-storage", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := serve(r, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: want=200 got=%d body=%s", rec.Code, rec.Body.String())
	}
	if svc.storage == nil || svc.storage.Key != "uploads/a.xlsx" || svc.storage.Artifact.Student.ID != "stu-9" {
		t.Fatalf("storage request: got=%+v", svc.storage)
	}

	svc.err = services.ErrStorageUnavailable
	req = httptest.NewRequest(http.MethodPost, "/api/assessments/from-storage", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if rec := serve(r, req); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("no storage: want=503 got=%d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/assessments/from-storage", strings.NewReader(`{"student_id":"stu-9"}`))
	req.Header.Set("Content-Type", "application/json")
	if rec := serve(r, req); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing key: want=400 got=%d", rec.Code)
	}
}

func TestGetAndChart(t *testing.T) {
	svc := &fakeService{stored: map[string]assessment.ReportPayload{"up-1": {UploadID: "up-1"}}}
	r := newTestRouter(t, svc)

	if rec := serve(r, httptest.NewRequest(http.MethodGet, "/api/assessments/up-1", nil)); rec.Code != http.StatusOK {
		t.Fatalf("get: want=200 got=%d", rec.Code)
	}
	if rec := serve(r, httptest.NewRequest(http.MethodGet, "/api/assessments/missing", nil)); rec.Code != http.StatusNotFound {
		t.Fatalf("missing: want=404 got=%d", rec.Code)
	}

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/api/assessments/up-1/charts/radar?width=200", nil))
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("chart: got=%d %s", rec.Code, rec.Header().Get("Content-Type"))
	}
	if rec := serve(r, httptest.NewRequest(http.MethodGet, "/api/assessments/up-1/charts/pie", nil)); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown chart: want=404 got=%d", rec.Code)
	}
	if rec := serve(r, httptest.NewRequest(http.MethodGet, "/api/assessments/up-1/charts/radar?width=-1", nil)); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad width: want=400 got=%d", rec.Code)
	}
}
