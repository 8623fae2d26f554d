package recommend

import (
	"fmt"
	"sort"
	"strings"

	"github.com/codezs3/edusight-ai-new-sub001/internal/analytics/career"
	"github.com/codezs3/edusight-ai-new-sub001/internal/catalog"
	"github.com/codezs3/edusight-ai-new-sub001/internal/domain/assessment"
)

const DefaultMax = 10

// Score thresholds that trigger a recommendation.
const (
	academicConcern      = 70
	academicCrisis       = 40
	psychologicalConcern = 60
	psychologicalCrisis  = 40
	physicalConcern      = 60
)

type Config struct {
	Max                 int
	AllowMultipleUrgent bool
}

// Input is everything the synthesizer reads. Interests come from career.Interests so the
// synthesizer does not wait on the career mapper.
type Input struct {
	Result     assessment.AssessmentResult
	Prediction assessment.PredictionResult
	Interests  assessment.RIASECScores
}

type Synthesizer struct {
	cat *catalog.Catalog
	cfg Config
}

func New(cat *catalog.Catalog, cfg Config) *Synthesizer {
	if cfg.Max <= 0 {
		cfg.Max = DefaultMax
	}
	return &Synthesizer{cat: cat, cfg: cfg}
}

// Synthesize applies the rules in order, drops repeated titles, sorts by priority and caps the list.
func (s *Synthesizer) Synthesize(in Input) []assessment.Recommendation {
	res, pred := in.Result, in.Prediction
	var recs []assessment.Recommendation
	seen := map[string]bool{}
	add := func(r assessment.Recommendation) {
		if seen[r.Title] {
			return
		}
		seen[r.Title] = true
		if r.ActionableSteps == nil {
			r.ActionableSteps = []string{}
		}
		recs = append(recs, r)
	}

	if res.AcademicScore < academicConcern {
		add(academicSupport(res))
	}
	if declining := res.PerformanceTrend.Declining; len(declining) > 0 {
		add(assessment.Recommendation{
			Category:    assessment.CategoryAcademic,
			Priority:    assessment.PriorityHigh,
			Title:       "Reverse declining subject trends",
			Description: "Scores are falling across attempts in " + strings.Join(declining, ", ") + ".",
			ActionableSteps: []string{
				"Review the most recent assessments in " + strings.Join(declining, ", ") + " with a teacher",
				"Identify the topics where marks were lost and re-learn them first",
				"Track weekly practice scores until the trend turns",
			},
			ExpectedOutcome: "A stable or improving trend by the next assessment period",
			Timeline:        "4-6 weeks",
		})
	}
	if pred.NextPeriod.RiskBucket == assessment.RiskHigh && res.AcademicScore < academicCrisis {
		add(assessment.Recommendation{
			Category:    assessment.CategoryAcademic,
			Priority:    assessment.PriorityUrgent,
			Title:       "Immediate academic intervention",
			Description: fmt.Sprintf("The academic score of %.1f and a high predicted risk call for a structured intervention.", res.AcademicScore),
			ActionableSteps: []string{
				"Meet with the class teacher and parents within a week",
				"Set up daily supervised study sessions",
				"Arrange remedial classes for the weakest subjects",
			},
			ExpectedOutcome: "Academic score back above 40 within one term",
			Timeline:        "Immediate, reviewed every 2 weeks",
		})
	}
	if res.PsychologicalScore < psychologicalConcern {
		add(assessment.Recommendation{
			Category:    assessment.CategoryPsychological,
			Priority:    assessment.PriorityHigh,
			Title:       "Stress management and emotional support",
			Description: fmt.Sprintf("The psychological wellbeing score of %.1f suggests the student is under strain.", res.PsychologicalScore),
			ActionableSteps: []string{
				"Introduce a short daily relaxation or breathing routine",
				"Keep a regular sleep schedule during exam periods",
				"Schedule a check-in with the school counsellor",
				"Break revision into short sessions with planned breaks",
			},
			ExpectedOutcome: "Lower reported stress and steadier engagement in class",
			Timeline:        "6-8 weeks",
		})
	}
	if res.PsychologicalScore < psychologicalCrisis {
		add(assessment.Recommendation{
			Category:    assessment.CategoryPsychological,
			Priority:    assessment.PriorityUrgent,
			Title:       "Counsellor referral",
			Description: "The psychological wellbeing score is low enough to warrant a professional referral.",
			ActionableSteps: []string{
				"Refer the student to the school counsellor this week",
				"Inform parents and agree on a support plan",
			},
			ExpectedOutcome: "A professional assessment and a support plan in place",
			Timeline:        "Within 1 week",
		})
	}
	if res.PhysicalScore < physicalConcern {
		add(assessment.Recommendation{
			Category:    assessment.CategoryPhysical,
			Priority:    assessment.PriorityMedium,
			Title:       "Build a regular physical activity routine",
			Description: fmt.Sprintf("The physical fitness score of %.1f is below the expected range.", res.PhysicalScore),
			ActionableSteps: []string{
				"Do at least 60 minutes of moderate activity daily",
				"Join a school sport or fitness club",
				"Limit continuous screen time to one hour at a stretch",
			},
			ExpectedOutcome: "Improved stamina and fitness test results",
			Timeline:        "8-12 weeks",
		})
	}
	if style := pred.LearningStyle; style != "" {
		add(assessment.Recommendation{
			Category:        assessment.CategoryStudyMethod,
			Priority:        assessment.PriorityMedium,
			Title:           "Adopt " + style + " study methods",
			Description:     "Study techniques matched to the student's " + style + " learning style.",
			ActionableSteps: s.studySteps(style),
			ExpectedOutcome: "Better retention with the same study time",
			Timeline:        "Ongoing",
		})
	}
	if len(res.GapAreas) > 0 {
		add(assessment.Recommendation{
			Category:        assessment.CategoryAcademic,
			Priority:        assessment.PriorityMedium,
			Title:           "Close identified skill gaps",
			Description:     "Targeted work on: " + strings.Join(res.GapAreas, "; ") + ".",
			ActionableSteps: gapSteps(res.GapAreas),
			ExpectedOutcome: "Gap areas brought up to the curriculum benchmark",
			Timeline:        "1 term",
		})
	}
	add(s.careerExploration(in.Interests))
	if len(res.StrengthAreas) > 0 {
		add(assessment.Recommendation{
			Category:        assessment.CategoryExtracurricular,
			Priority:        assessment.PriorityLow,
			Title:           "Build on strengths in " + strings.Join(res.StrengthAreas, ", "),
			Description:     "Enrichment activities that stretch the student's strongest subjects.",
			ActionableSteps: s.enrichment(res.StrengthAreas),
			ExpectedOutcome: "Deeper mastery and a record of achievement in strength areas",
			Timeline:        "Ongoing",
		})
	}

	if !s.cfg.AllowMultipleUrgent {
		urgent := false
		for i := range recs {
			if recs[i].Priority != assessment.PriorityUrgent {
				continue
			}
			if urgent {
				recs[i].Priority = assessment.PriorityHigh
			}
			urgent = true
		}
	}
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Priority.Rank() > recs[j].Priority.Rank() })
	if len(recs) > s.cfg.Max {
		recs = recs[:s.cfg.Max]
	}
	if recs == nil {
		recs = []assessment.Recommendation{}
	}
	return recs
}

func academicSupport(res assessment.AssessmentResult) assessment.Recommendation {
	steps := []string{}
	for _, subject := range res.ImprovementAreas {
		steps = append(steps, "Schedule three focused practice sessions a week for "+subject)
	}
	if len(steps) == 0 {
		steps = append(steps, "Set a weekly revision timetable covering every subject")
	}
	steps = append(steps, "Review corrected tests to find recurring mistakes", "Ask for teacher feedback after each unit test")
	return assessment.Recommendation{
		Category:        assessment.CategoryAcademic,
		Priority:        assessment.PriorityHigh,
		Title:           "Strengthen core academic performance",
		Description:     fmt.Sprintf("The academic score of %.1f is below the 70 point target.", res.AcademicScore),
		ActionableSteps: steps,
		ExpectedOutcome: "Academic score above 70 by the next assessment period",
		Timeline:        "8-10 weeks",
	}
}

func (s *Synthesizer) studySteps(style string) []string {
	steps := s.cat.Playbooks.StudyMethods[style]
	if len(steps) == 0 {
		steps = s.cat.Playbooks.StudyMethods[assessment.StyleMultimodal]
	}
	return append([]string{}, steps...)
}

func gapSteps(gaps []string) []string {
	out := make([]string, 0, len(gaps))
	for _, g := range gaps {
		if g == "" {
			continue
		}
		out = append(out, "Practise "+strings.ToLower(g[:1])+g[1:]+" with graded worksheets")
	}
	return out
}

func (s *Synthesizer) careerExploration(interests assessment.RIASECScores) assessment.Recommendation {
	top := interests.Ranked()[0]
	name := career.LetterNames[top]
	steps := []string{}
	if pb, ok := s.cat.Playbooks.Development[top]; ok {
		steps = append(steps, pb.Short...)
	}
	steps = append(steps, "Talk to a professional working in a "+strings.ToLower(name)+" field")
	return assessment.Recommendation{
		Category:        assessment.CategoryCareer,
		Priority:        assessment.PriorityMedium,
		Title:           "Explore " + strings.ToLower(name) + " career paths",
		Description:     fmt.Sprintf("The strongest career interest is %s (%s).", name, top),
		ActionableSteps: steps,
		ExpectedOutcome: "A shortlist of careers to research further",
		Timeline:        "3 months",
	}
}

func (s *Synthesizer) enrichment(strengths []string) []string {
	out := []string{}
	seen := map[string]bool{}
	for _, subject := range strengths {
		for _, a := range s.cat.ExtracurricularFor(subject) {
			if !seen[a] {
				seen[a] = true
				out = append(out, a)
			}
		}
	}
	return out
}
