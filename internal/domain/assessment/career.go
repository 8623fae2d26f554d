package assessment

import "sort"

// RIASECLetters is the canonical letter order, also used to break ties.
var RIASECLetters = []string{"R", "I", "A", "S", "E", "C"}

type RIASECScores struct {
	R float64 `json:"R"`
	I float64 `json:"I"`
	A float64 `json:"A"`
	S float64 `json:"S"`
	E float64 `json:"E"`
	C float64 `json:"C"`
}

func (r RIASECScores) Get(letter string) float64 {
	switch letter {
	case "R":
		return r.R
	case "I":
		return r.I
	case "A":
		return r.A
	case "S":
		return r.S
	case "E":
		return r.E
	case "C":
		return r.C
	default:
		return 0
	}
}

func (r *RIASECScores) Set(letter string, v float64) {
	switch letter {
	case "R":
		r.R = v
	case "I":
		r.I = v
	case "A":
		r.A = v
	case "S":
		r.S = v
	case "E":
		r.E = v
	case "C":
		r.C = v
	}
}

func (r RIASECScores) Vector() []float64 {
	return []float64{r.R, r.I, r.A, r.S, r.E, r.C}
}

// Ranked returns the letters sorted by score descending, ties in RIASEC order.
func (r RIASECScores) Ranked() []string {
	out := append([]string{}, RIASECLetters...)
	sort.SliceStable(out, func(i, j int) bool {
		return r.Get(out[i]) > r.Get(out[j])
	})
	return out
}

// HollandCode concatenates the top three letters.
func (r RIASECScores) HollandCode() string {
	ranked := r.Ranked()
	return ranked[0] + ranked[1] + ranked[2]
}

type CareerCandidate struct {
	CareerName     string   `json:"career_name"`
	MatchScore     float64  `json:"match_score"`
	Cluster        string   `json:"cluster"`
	RequiredSkills []string `json:"required_skills"`
}

type DevelopmentPath struct {
	Short  []string `json:"short_term"`
	Medium []string `json:"medium_term"`
	Long   []string `json:"long_term"`
}

type CareerMatch struct {
	Matches         []CareerCandidate `json:"matches"`
	HollandCode     string            `json:"holland_code"`
	RIASEC          RIASECScores      `json:"riasec_scores"`
	RIASECSource    string            `json:"riasec_source"`
	SkillGaps       []string          `json:"skill_gaps"`
	DevelopmentPath DevelopmentPath   `json:"development_path"`
}
