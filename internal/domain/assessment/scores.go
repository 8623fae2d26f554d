package assessment

import (
	"fmt"
	"math"
)

// SubjectScores holds one subject's ordered raw scores and their derived summary.
type SubjectScores struct {
	Subject string    `json:"subject"`
	Scores  []float64 `json:"scores"`
	Mean    float64   `json:"mean"`
	Min     float64   `json:"min"`
	Max     float64   `json:"max"`
	Count   int       `json:"count"`
}

func NewSubjectScores(subject string, scores []float64) SubjectScores {
	out := SubjectScores{Subject: subject, Scores: append([]float64{}, scores...), Count: len(scores)}
	if len(scores) == 0 {
		return out
	}
	out.Min, out.Max = scores[0], scores[0]
	sum := 0.0
	for _, v := range scores {
		sum += v
		out.Min = math.Min(out.Min, v)
		out.Max = math.Max(out.Max, v)
	}
	out.Mean = sum / float64(len(scores))
	return out
}

// SubjectScoreSet is the canonical per-subject score mapping, kept in first-seen order.
type SubjectScoreSet struct {
	Subjects []SubjectScores `json:"subjects"`
}

func (s SubjectScoreSet) Len() int { return len(s.Subjects) }

func (s SubjectScoreSet) Get(subject string) (SubjectScores, bool) {
	for _, ss := range s.Subjects {
		if ss.Subject == subject {
			return ss, true
		}
	}
	return SubjectScores{}, false
}

func (s SubjectScoreSet) Names() []string {
	out := make([]string, 0, len(s.Subjects))
	for _, ss := range s.Subjects {
		out = append(out, ss.Subject)
	}
	return out
}

func (s SubjectScoreSet) Means() []float64 {
	out := make([]float64, 0, len(s.Subjects))
	for _, ss := range s.Subjects {
		out = append(out, ss.Mean)
	}
	return out
}

// AllScores flattens every raw score in subject order.
func (s SubjectScoreSet) AllScores() []float64 {
	out := []float64{}
	for _, ss := range s.Subjects {
		out = append(out, ss.Scores...)
	}
	return out
}

// MaxAttempts is the longest score sequence across subjects.
func (s SubjectScoreSet) MaxAttempts() int {
	n := 0
	for _, ss := range s.Subjects {
		if len(ss.Scores) > n {
			n = len(ss.Scores)
		}
	}
	return n
}

// Without returns a copy with one subject removed.
func (s SubjectScoreSet) Without(subject string) SubjectScoreSet {
	out := SubjectScoreSet{Subjects: make([]SubjectScores, 0, len(s.Subjects))}
	for _, ss := range s.Subjects {
		if ss.Subject != subject {
			out.Subjects = append(out.Subjects, ss)
		}
	}
	return out
}

// Validate checks the set invariants: non-empty, unique subjects, finite in-range scores.
func (s SubjectScoreSet) Validate() error {
	if len(s.Subjects) == 0 {
		return fmt.Errorf("score set has no subjects")
	}
	seen := map[string]bool{}
	for _, ss := range s.Subjects {
		if ss.Subject == "" {
			return fmt.Errorf("score set has an unnamed subject")
		}
		if seen[ss.Subject] {
			return fmt.Errorf("subject %q appears twice", ss.Subject)
		}
		seen[ss.Subject] = true
		if len(ss.Scores) == 0 {
			return fmt.Errorf("subject %q has no scores", ss.Subject)
		}
		for _, v := range ss.Scores {
			if !ValidScore(v) {
				return fmt.Errorf("subject %q has out-of-range score %v", ss.Subject, v)
			}
		}
	}
	return nil
}

// ValidScore reports whether v is a finite score in [0, 100].
func ValidScore(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0 && v <= 100
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

// IngestMetadata describes how an artifact was parsed.
type IngestMetadata struct {
	Format   Format        `json:"format"`
	Source   SourceType    `json:"source"`
	Layout   string        `json:"layout"`
	Counts   PartialCounts `json:"counts"`
	Warnings []string      `json:"warnings"`
	// Text is the stringified artifact handed to the curriculum detector.
	Text string `json:"-"`
	// Declared and Forms carry values embedded in a manual document.
	Declared DeclaredMetadata `json:"-"`
	Forms    []AssessmentForm `json:"-"`
}

// CurriculumMetadata is the detector's output, merged with declared values.
type CurriculumMetadata struct {
	Curriculum          string `json:"curriculum"`
	Semester            string `json:"semester"`
	Year                string `json:"year"`
	CurriculumSource    string `json:"curriculum_source"`
	BenchmarkCurriculum string `json:"benchmark_curriculum"`
	CurriculumFallback  bool   `json:"curriculum_fallback"`
}

const Unknown = "Unknown"
