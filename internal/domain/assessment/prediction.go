package assessment

type PredictorMode string

const (
	ModeTrained  PredictorMode = "trained"
	ModeFallback PredictorMode = "fallback"
)

const (
	HorizonNextPeriod = "next_period"
	HorizonOneYear    = "one_year"
)

const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

var RiskBuckets = []string{RiskLow, RiskMedium, RiskHigh}

const (
	StyleVisual      = "visual"
	StyleAuditory    = "auditory"
	StyleKinesthetic = "kinesthetic"
	StyleMultimodal  = "multimodal"
)

type PredictedScores struct {
	Academic      float64 `json:"academic"`
	Psychological float64 `json:"psychological"`
	Physical      float64 `json:"physical"`
}

type Confidence struct {
	Academic      float64 `json:"academic"`
	Risk          float64 `json:"risk"`
	Psychological float64 `json:"psychological"`
	Physical      float64 `json:"physical"`
	Overall       float64 `json:"overall"`
}

type HorizonPrediction struct {
	Horizon    string          `json:"horizon"`
	Scores     PredictedScores `json:"predicted_scores"`
	RiskBucket string          `json:"risk_bucket"`
	Confidence Confidence      `json:"confidence"`
}

type PredictionResult struct {
	Mode                PredictorMode      `json:"mode"`
	NextPeriod          HorizonPrediction  `json:"next_period"`
	OneYear             HorizonPrediction  `json:"one_year"`
	RiskProbabilities   map[string]float64 `json:"risk_probabilities"`
	RiskFactors         []string           `json:"risk_factors"`
	SuccessIndicators   []string           `json:"success_indicators"`
	LearningStyle       string             `json:"predicted_learning_style"`
	LearningStyleScores map[string]float64 `json:"learning_style_scores"`
}
