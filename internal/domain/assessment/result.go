package assessment

type TrendDirection string

const (
	TrendImproving    TrendDirection = "improving"
	TrendDeclining    TrendDirection = "declining"
	TrendStable       TrendDirection = "stable"
	TrendInsufficient TrendDirection = "insufficient_data"
)

type Trend struct {
	Slope       float64        `json:"slope"`
	Intercept   float64        `json:"intercept"`
	RSquared    float64        `json:"r_squared"`
	Direction   TrendDirection `json:"direction"`
	Consistency float64        `json:"consistency"`
	Points      int            `json:"points"`
}

// Classification buckets, ordered best first.
const (
	ClassExcellent    = "excellent"
	ClassGood         = "good"
	ClassAverage      = "average"
	ClassBelowAverage = "below_average"
)

var ClassBuckets = []string{ClassExcellent, ClassGood, ClassAverage, ClassBelowAverage}

type BenchmarkComparison struct {
	Benchmark      float64 `json:"benchmark"`
	MatchedSubject string  `json:"matched_subject"`
	Difference     float64 `json:"difference"`
	Percentile     float64 `json:"percentile"`
	Level          string  `json:"performance_level"`
}

type DescriptiveStats struct {
	Count    int     `json:"count"`
	Mean     float64 `json:"mean"`
	Median   float64 `json:"median"`
	StdDev   float64 `json:"stdev"`
	Variance float64 `json:"variance"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Range    float64 `json:"range"`
	Skewness float64 `json:"skewness"`
	Kurtosis float64 `json:"kurtosis"`
	Q1       float64 `json:"q1"`
	Q2       float64 `json:"q2"`
	Q3       float64 `json:"q3"`
	P10      float64 `json:"p10"`
	P90      float64 `json:"p90"`
	P95      float64 `json:"p95"`
}

type SubjectPerformance struct {
	Stats          DescriptiveStats    `json:"stats"`
	Classification string              `json:"classification"`
	Trend          Trend               `json:"trend"`
	Benchmark      BenchmarkComparison `json:"benchmark"`
}

type Correlation struct {
	SubjectA string  `json:"subject_a"`
	SubjectB string  `json:"subject_b"`
	R        float64 `json:"r"`
	Strength string  `json:"strength"`
	Points   int     `json:"points"`
}

type PerformanceTrend struct {
	Direction    TrendDirection `json:"direction"`
	AverageSlope float64        `json:"average_slope"`
	Improving    []string       `json:"improving"`
	Declining    []string       `json:"declining"`
	Stable       []string       `json:"stable"`
}

// Analysis is the Statistical Analyzer's full output for one score set.
type Analysis struct {
	Overall      DescriptiveStats              `json:"overall"`
	Subjects     map[string]SubjectPerformance `json:"subjects"`
	Correlations []Correlation                 `json:"correlations"`
	Distribution map[string]float64            `json:"distribution"`
	Trend        PerformanceTrend              `json:"trend"`
}

// Dimension score provenance.
const (
	ScoreFromSubjects = "subjects"
	ScoreFromForm     = "form"
	ScoreEstimated    = "estimated"
)

type AssessmentResult struct {
	AcademicScore       float64                       `json:"academic_score"`
	PsychologicalScore  float64                       `json:"psychological_score"`
	PhysicalScore       float64                       `json:"physical_score"`
	OverallScore        float64                       `json:"overall_score"`
	AcademicSource      string                        `json:"academic_source"`
	PsychologicalSource string                        `json:"psychological_source"`
	PhysicalSource      string                        `json:"physical_source"`
	StrengthAreas       []string                      `json:"strength_areas"`
	ImprovementAreas    []string                      `json:"improvement_areas"`
	SubjectPerformance  map[string]SubjectPerformance `json:"subject_performance"`
	PerformanceTrend    PerformanceTrend              `json:"performance_trend"`
	Overall             DescriptiveStats              `json:"overall_statistics"`
	Distribution        map[string]float64            `json:"distribution"`
	Correlations        []Correlation                 `json:"correlations"`
	GapAreas            []string                      `json:"gap_areas"`
	FormScores          []FormScore                   `json:"form_scores"`
}

// OverallScore is the fixed dimension blend, clamped to [0, 100].
func OverallScore(academic, psychological, physical float64) float64 {
	return Clamp(0.5*academic+0.3*psychological+0.2*physical, 0, 100)
}
