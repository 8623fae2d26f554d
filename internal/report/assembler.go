package report

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/codezs3/edusight-ai-new-sub001/internal/domain/assessment"
)

// overallTolerance absorbs float rounding when re-deriving the overall score.
const overallTolerance = 1e-6

// Parts are the stage outputs of one run, gathered for assembly.
type Parts struct {
	UploadID        string
	Fingerprint     string
	Student         assessment.Student
	Artifact        assessment.ArtifactMetadata
	Scores          assessment.SubjectScoreSet
	Result          assessment.AssessmentResult
	Prediction      assessment.PredictionResult
	Recommendations []assessment.Recommendation
	Career          assessment.CareerMatch
	Warnings        []string
	Timestamp       time.Time
}

type Assembler struct {
	catalogVersion string
	engineVersion  string

	// AllowMultipleUrgent mirrors the synthesizer setting of the same name.
	AllowMultipleUrgent bool
}

func NewAssembler(catalogVersion, engineVersion string) *Assembler {
	return &Assembler{catalogVersion: catalogVersion, engineVersion: engineVersion}
}

// Assemble checks the parts agree with each other and produces the payload and its charts.
func (a *Assembler) Assemble(p Parts) (assessment.ReportPayload, error) {
	if err := a.checkConsistency(p); err != nil {
		return assessment.ReportPayload{}, err
	}
	fp := p.Fingerprint
	if fp == "" {
		fp = Fingerprint(p.Scores, p.Student.ID, a.catalogVersion)
	}
	id := p.UploadID
	if id == "" {
		id = UploadID(fp)
	}
	recs := p.Recommendations
	if recs == nil {
		recs = []assessment.Recommendation{}
	}
	warnings := p.Warnings
	if warnings == nil {
		warnings = []string{}
	}

	out := assessment.ReportPayload{
		UploadID:          id,
		UploadFingerprint: fp,
		CatalogVersion:    a.catalogVersion,
		EngineVersion:     a.engineVersion,
		Timestamp:         p.Timestamp.UTC(),
		PredictorMode:     p.Prediction.Mode,
		Curriculum:        p.Artifact.Curriculum.Curriculum,
		Student:           p.Student,
		Artifact:          p.Artifact,
		Scores:            p.Scores,
		Assessment:        p.Result,
		Prediction:        p.Prediction,
		Recommendations:   recs,
		Career:            p.Career,
		Graphs:            Graphs(p.Scores, p.Result, p.Prediction),
		Warnings:          warnings,
	}
	out.Artifact.ReceivedAt = out.Artifact.ReceivedAt.UTC()

	// Non-finite values cannot be encoded, so a failed encode means a stage leaked one.
	if _, err := json.Marshal(out); err != nil {
		return assessment.ReportPayload{}, assessment.AssemblyErr("payload is not serializable", err).WithUploadID(id)
	}
	return out, nil
}

func (a *Assembler) checkConsistency(p Parts) error {
	fail := func(format string, args ...any) error {
		return assessment.AssemblyErr(fmt.Sprintf(format, args...), nil).WithUploadID(p.UploadID)
	}
	if p.Scores.Len() == 0 {
		return fail("score set is empty")
	}
	if len(p.Result.SubjectPerformance) != p.Scores.Len() {
		return fail("subject performance covers %d subjects, score set has %d", len(p.Result.SubjectPerformance), p.Scores.Len())
	}
	for _, name := range p.Scores.Names() {
		if _, ok := p.Result.SubjectPerformance[name]; !ok {
			return fail("subject %s has no performance entry", name)
		}
	}
	for _, area := range append(append([]string{}, p.Result.StrengthAreas...), p.Result.ImprovementAreas...) {
		if _, ok := p.Scores.Get(area); !ok {
			return fail("area %s is not a scored subject", area)
		}
	}
	r := p.Result
	for name, v := range map[string]float64{"academic": r.AcademicScore, "psychological": r.PsychologicalScore, "physical": r.PhysicalScore, "overall": r.OverallScore} {
		if math.IsNaN(v) || v < 0 || v > 100 {
			return fail("%s score %v is outside [0, 100]", name, v)
		}
	}
	if want := assessment.OverallScore(r.AcademicScore, r.PsychologicalScore, r.PhysicalScore); math.Abs(want-r.OverallScore) > overallTolerance {
		return fail("overall score %v does not match dimension blend %v", r.OverallScore, want)
	}
	if c := p.Career.HollandCode; len(c) != 3 || strings.Trim(c, "RIASEC") != "" {
		return fail("holland code %q is malformed", c)
	}
	if p.Prediction.Mode == "" {
		return fail("prediction has no predictor mode")
	}
	urgent := 0
	for _, rec := range p.Recommendations {
		if rec.Priority == assessment.PriorityUrgent {
			urgent++
		}
	}
	if urgent > 1 && !a.AllowMultipleUrgent {
		return fail("%d urgent recommendations", urgent)
	}
	return nil
}
