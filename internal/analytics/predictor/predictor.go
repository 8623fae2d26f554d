package predictor

import (
	"crypto/sha256"
	"encoding/binary"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/codezs3/edusight-ai-new-sub001/internal/analytics/stats"
	"github.com/codezs3/edusight-ai-new-sub001/internal/catalog"
	"github.com/codezs3/edusight-ai-new-sub001/internal/domain/assessment"
)

// Fixed confidences reported in fallback mode.
const (
	FallbackAcademicConfidence = 0.78
	FallbackRiskConfidence     = 0.82
)

const (
	// ProjectionConfidence covers the rule-based psychological and physical projections in both modes.
	ProjectionConfidence = 0.75
	// OneYearDecay scales every next-period confidence for the one-year horizon.
	OneYearDecay = 0.85

	maxPerturbation = 1.0
	maxProjection   = 5.0
	styleMargin     = 5.0
)

// Input is one scored run handed to the predictor.
type Input struct {
	Result      assessment.AssessmentResult
	Set         assessment.SubjectScoreSet
	Student     assessment.Student
	Fingerprint string
}

// Predictor forecasts scores and risk. It never fails; without a snapshot it runs in fallback mode.
// A Predictor is immutable and safe for concurrent use.
type Predictor struct {
	cat  *catalog.Catalog
	snap *Snapshot
}

func NewFallback(cat *catalog.Catalog) *Predictor {
	return &Predictor{cat: cat}
}

// New wraps a trained snapshot. A nil snapshot yields a fallback predictor.
func New(cat *catalog.Catalog, snap *Snapshot) (*Predictor, error) {
	if snap == nil {
		return NewFallback(cat), nil
	}
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	return &Predictor{cat: cat, snap: snap}, nil
}

func (p *Predictor) Mode() assessment.PredictorMode {
	if p == nil || p.snap == nil {
		return assessment.ModeFallback
	}
	return assessment.ModeTrained
}

func (p *Predictor) Snapshot() *Snapshot { return p.snap }

func (p *Predictor) Predict(in Input) assessment.PredictionResult {
	cur := in.Result
	rng := seeded(in.Fingerprint)
	perturb := (rng.Float64()*2 - 1) * maxPerturbation

	step := assessment.Clamp(0.5*cur.PerformanceTrend.AverageSlope, -maxProjection, maxProjection)
	psych := [2]float64{
		assessment.Clamp(cur.PsychologicalScore+step, 0, 100),
		assessment.Clamp(cur.PsychologicalScore+assessment.Clamp(2*step, -maxProjection, maxProjection), 0, 100),
	}
	phys := [2]float64{
		assessment.Clamp(cur.PhysicalScore+step, 0, 100),
		assessment.Clamp(cur.PhysicalScore+assessment.Clamp(2*step, -maxProjection, maxProjection), 0, 100),
	}

	out := assessment.PredictionResult{Mode: p.Mode()}
	var academic [2]float64
	var bucket [2]string
	var acadConf, riskConf float64

	features := FeaturesFrom(cur, in.Set, in.Student)
	if p.Mode() == assessment.ModeTrained {
		v := features.Vector()
		academic[0] = assessment.Clamp(p.snap.blend(v, -1)+perturb, 0, 100)
		probs := p.snap.Risk.Probabilities(v)
		best := argmax(probs)
		bucket[0] = assessment.RiskBuckets[best]
		riskConf = probs[best]
		out.RiskProbabilities = riskMap(probs)
		acadConf = assessment.Clamp(1-(p.snap.Metrics.RMSE+math.Sqrt(features.SubjectVariance))/100, 0.4, 0.95)

		academic[1] = assessment.Clamp(cur.AcademicScore+2*(academic[0]-cur.AcademicScore), 0, 100)
		ahead := features
		ahead.Academic, ahead.Psychological, ahead.Physical = academic[1], psych[1], phys[1]
		bucket[1] = assessment.RiskBuckets[argmax(p.snap.Risk.Probabilities(ahead.Vector()))]
	} else {
		academic[0] = assessment.Clamp(0.6*cur.AcademicScore+0.3*cur.PsychologicalScore+0.1*cur.PhysicalScore+perturb, 0, 100)
		bucket[0] = RuleRisk(cur.AcademicScore, cur.PsychologicalScore)
		acadConf, riskConf = FallbackAcademicConfidence, FallbackRiskConfidence
		out.RiskProbabilities = fallbackRiskMap(bucket[0])

		academic[1] = assessment.Clamp(cur.AcademicScore+2*(academic[0]-cur.AcademicScore), 0, 100)
		bucket[1] = RuleRisk(academic[1], psych[1])
	}

	next := assessment.Confidence{Academic: acadConf, Risk: riskConf, Psychological: ProjectionConfidence, Physical: ProjectionConfidence}
	next.Overall = (next.Academic + next.Risk + next.Psychological + next.Physical) / 4
	year := assessment.Confidence{
		Academic:      next.Academic * OneYearDecay,
		Risk:          next.Risk * OneYearDecay,
		Psychological: next.Psychological * OneYearDecay,
		Physical:      next.Physical * OneYearDecay,
		Overall:       next.Overall * OneYearDecay,
	}
	out.NextPeriod = assessment.HorizonPrediction{
		Horizon:    assessment.HorizonNextPeriod,
		Scores:     assessment.PredictedScores{Academic: academic[0], Psychological: psych[0], Physical: phys[0]},
		RiskBucket: bucket[0],
		Confidence: next,
	}
	out.OneYear = assessment.HorizonPrediction{
		Horizon:    assessment.HorizonOneYear,
		Scores:     assessment.PredictedScores{Academic: academic[1], Psychological: psych[1], Physical: phys[1]},
		RiskBucket: bucket[1],
		Confidence: year,
	}

	out.LearningStyle, out.LearningStyleScores = LearningStyle(p.cat, in.Set, cur)
	out.RiskFactors, out.SuccessIndicators = indicators(in.Set, cur, bucket[0])
	return out
}

// seeded derives a generator from the upload fingerprint so repeated runs draw the same values.
func seeded(fingerprint string) *rand.Rand {
	sum := sha256.Sum256([]byte(fingerprint))
	return rand.New(rand.NewPCG(binary.BigEndian.Uint64(sum[:8]), binary.BigEndian.Uint64(sum[8:16])))
}

func riskMap(probs []float64) map[string]float64 {
	out := make(map[string]float64, len(assessment.RiskBuckets))
	for i, b := range assessment.RiskBuckets {
		out[b] = probs[i]
	}
	return out
}

func fallbackRiskMap(bucket string) map[string]float64 {
	rest := (1 - FallbackRiskConfidence) / float64(len(assessment.RiskBuckets)-1)
	out := make(map[string]float64, len(assessment.RiskBuckets))
	for _, b := range assessment.RiskBuckets {
		out[b] = rest
	}
	out[bucket] = FallbackRiskConfidence
	return out
}

// LearningStyle maps the dominant strength to a style: spatial subjects to visual, language subjects
// to auditory, a measured physical score to kinesthetic. Close calls and missing evidence are multimodal.
func LearningStyle(cat *catalog.Catalog, set assessment.SubjectScoreSet, res assessment.AssessmentResult) (string, map[string]float64) {
	spatial, spatialOK := keywordMean(set, cat.Subjects.Spatial)
	language, languageOK := keywordMean(set, cat.Subjects.Language)
	scores := map[string]float64{
		assessment.StyleVisual:      spatial,
		assessment.StyleAuditory:    language,
		assessment.StyleKinesthetic: res.PhysicalScore,
	}

	type candidate struct {
		style string
		score float64
	}
	var cands []candidate
	if spatialOK {
		cands = append(cands, candidate{assessment.StyleVisual, spatial})
	}
	if languageOK {
		cands = append(cands, candidate{assessment.StyleAuditory, language})
	}
	if res.PhysicalSource == assessment.ScoreFromForm {
		cands = append(cands, candidate{assessment.StyleKinesthetic, res.PhysicalScore})
	}

	sum := 0.0
	for _, c := range cands {
		sum += c.score
	}
	if len(cands) > 0 {
		scores[assessment.StyleMultimodal] = sum / float64(len(cands))
	} else {
		scores[assessment.StyleMultimodal] = res.AcademicScore
	}
	if len(cands) == 0 {
		return assessment.StyleMultimodal, scores
	}

	sort.SliceStable(cands, func(i, j int) bool { return cands[i].score > cands[j].score })
	if len(cands) > 1 && cands[0].score-cands[1].score < styleMargin {
		return assessment.StyleMultimodal, scores
	}
	return cands[0].style, scores
}

func keywordMean(set assessment.SubjectScoreSet, keywords []string) (float64, bool) {
	sum, n := 0.0, 0
	for _, s := range set.Subjects {
		if catalog.MatchKeywords(s.Subject, keywords) {
			sum += s.Mean
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

func indicators(set assessment.SubjectScoreSet, res assessment.AssessmentResult, bucket string) (risks, successes []string) {
	risks, successes = []string{}, []string{}
	if res.AcademicScore < 60 {
		risks = append(risks, "Academic score below 60")
	}
	if res.PsychologicalScore < 60 {
		risks = append(risks, "Psychological wellbeing score below 60")
	}
	if res.PhysicalScore < 60 {
		risks = append(risks, "Physical fitness score below 60")
	}
	if bucket == assessment.RiskHigh {
		risks = append(risks, "High predicted academic risk")
	}
	for _, name := range set.Names() {
		perf := res.SubjectPerformance[name]
		switch perf.Trend.Direction {
		case assessment.TrendDeclining:
			risks = append(risks, "Declining trend in "+name)
		case assessment.TrendImproving:
			successes = append(successes, "Improving trend in "+name)
		}
		switch perf.Benchmark.Level {
		case stats.LevelBelow:
			risks = append(risks, "Below curriculum benchmark in "+name)
		case stats.LevelAbove:
			successes = append(successes, "Above curriculum benchmark in "+name)
		}
	}
	for _, s := range res.StrengthAreas {
		successes = append(successes, "Consistent strength in "+s)
	}
	if res.OverallScore >= 75 {
		successes = append(successes, "Strong overall performance")
	}
	return risks, successes
}
