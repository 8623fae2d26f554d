package assessment

import "time"

const (
	ChartRadar          = "radar"
	ChartTrendLine      = "trend_line"
	ChartDistribution   = "distribution_bar"
	ChartHeatmap        = "correlation_heatmap"
	ChartPredictionArea = "prediction_area"
)

var ChartKinds = []string{ChartRadar, ChartTrendLine, ChartDistribution, ChartHeatmap, ChartPredictionArea}

type Dataset struct {
	Label string    `json:"label"`
	Data  []float64 `json:"data"`
	Color string    `json:"color"`
}

// GraphDescriptor carries chart data and color hints only; rendering belongs to the renderer.
type GraphDescriptor struct {
	Kind     string      `json:"kind"`
	Title    string      `json:"title"`
	Labels   []string    `json:"labels"`
	Datasets []Dataset   `json:"datasets"`
	Matrix   [][]float64 `json:"matrix"`
	Colors   []string    `json:"color_hints"`
}

type GraphDescriptorSet struct {
	Radar          GraphDescriptor `json:"radar"`
	TrendLine      GraphDescriptor `json:"trend_line"`
	Distribution   GraphDescriptor `json:"distribution_bar"`
	Heatmap        GraphDescriptor `json:"correlation_heatmap"`
	PredictionArea GraphDescriptor `json:"prediction_area"`
}

// ByKind looks a descriptor up by chart kind.
func (g GraphDescriptorSet) ByKind(kind string) (GraphDescriptor, bool) {
	switch kind {
	case ChartRadar:
		return g.Radar, true
	case ChartTrendLine:
		return g.TrendLine, true
	case ChartDistribution:
		return g.Distribution, true
	case ChartHeatmap:
		return g.Heatmap, true
	case ChartPredictionArea:
		return g.PredictionArea, true
	default:
		return GraphDescriptor{}, false
	}
}

type ArtifactMetadata struct {
	FileName   string             `json:"file_name"`
	MimeType   string             `json:"mime_type"`
	Format     Format             `json:"format"`
	Source     SourceType         `json:"source"`
	Layout     string             `json:"layout"`
	Curriculum CurriculumMetadata `json:"curriculum"`
	Counts     PartialCounts      `json:"ingest_counts"`
	ReceivedAt time.Time          `json:"received_at"`
}

// ReportPayload is the immutable, self-contained output of one run.
type ReportPayload struct {
	UploadID          string             `json:"upload_id"`
	UploadFingerprint string             `json:"upload_fingerprint"`
	CatalogVersion    string             `json:"catalog_version"`
	EngineVersion     string             `json:"engine_version"`
	Timestamp         time.Time          `json:"timestamp"`
	PredictorMode     PredictorMode      `json:"predictor_mode"`
	Curriculum        string             `json:"curriculum"`
	Student           Student            `json:"student"`
	Artifact          ArtifactMetadata   `json:"artifact"`
	Scores            SubjectScoreSet    `json:"scores"`
	Assessment        AssessmentResult   `json:"assessment"`
	Prediction        PredictionResult   `json:"prediction"`
	Recommendations   []Recommendation   `json:"recommendations"`
	Career            CareerMatch        `json:"career"`
	Graphs            GraphDescriptorSet `json:"graphs"`
	Warnings          []string           `json:"warnings"`
}
