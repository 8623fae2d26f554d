package career

import (
	"math"
	"sort"
	"strings"

	"github.com/codezs3/edusight-ai-new-sub001/internal/analytics/stats"
	"github.com/codezs3/edusight-ai-new-sub001/internal/catalog"
	"github.com/codezs3/edusight-ai-new-sub001/internal/domain/assessment"
)

// TopMatches is how many careers a CareerMatch lists.
const TopMatches = 5

type Mapper struct {
	cat *catalog.Catalog
}

func NewMapper(cat *catalog.Catalog) *Mapper {
	return &Mapper{cat: cat}
}

// Map ranks catalog careers for the student. The output depends only on its inputs and the catalog.
func (m *Mapper) Map(set assessment.SubjectScoreSet, res assessment.AssessmentResult, scores assessment.RIASECScores, source string) assessment.CareerMatch {
	type scored struct {
		c     catalog.Career
		match float64
	}
	ranked := make([]scored, 0, len(m.cat.Careers))
	for _, c := range m.cat.Careers {
		ranked = append(ranked, scored{c: c, match: m.match(c, set, res, scores)})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].match > ranked[j].match })

	out := assessment.CareerMatch{
		Matches:      []assessment.CareerCandidate{},
		HollandCode:  scores.HollandCode(),
		RIASEC:       scores,
		RIASECSource: source,
		SkillGaps:    []string{},
		DevelopmentPath: assessment.DevelopmentPath{
			Short: []string{}, Medium: []string{}, Long: []string{},
		},
	}
	for i := 0; i < len(ranked) && i < TopMatches; i++ {
		out.Matches = append(out.Matches, assessment.CareerCandidate{
			CareerName:     ranked[i].c.Name,
			MatchScore:     ranked[i].match,
			Cluster:        ranked[i].c.Cluster,
			RequiredSkills: append([]string{}, ranked[i].c.Skills...),
		})
	}
	if len(ranked) > 0 {
		out.SkillGaps = m.skillGaps(ranked[0].c, set, res)
	}
	if pb, ok := m.cat.Playbooks.Development[scores.Ranked()[0]]; ok {
		out.DevelopmentPath = assessment.DevelopmentPath{
			Short:  append([]string{}, pb.Short...),
			Medium: append([]string{}, pb.Medium...),
			Long:   append([]string{}, pb.Long...),
		}
	}
	return out
}

// match blends interest proximity, academic fit and psychological fit with the cluster's weights.
func (m *Mapper) match(c catalog.Career, set assessment.SubjectScoreSet, res assessment.AssessmentResult, scores assessment.RIASECScores) float64 {
	cl, ok := m.cat.Cluster(c.Cluster)
	if !ok {
		return 0
	}
	profile := c.RIASEC()
	diff := 0.0
	for _, l := range assessment.RIASECLetters {
		diff += math.Abs(scores.Get(l) - profile.Get(l))
	}
	proximity := 100 - diff/float64(len(assessment.RIASECLetters))

	fit := academicFit(c, set, res.AcademicScore)
	return assessment.Clamp(cl.Interest*proximity+cl.Academic*fit+cl.Psychological*res.PsychologicalScore, 0, 100)
}

// academicFit is the mean over the career's subjects the student took, else the academic score.
func academicFit(c catalog.Career, set assessment.SubjectScoreSet, academic float64) float64 {
	sum, n := 0.0, 0
	for _, s := range set.Subjects {
		for _, want := range c.Subjects {
			if strings.EqualFold(s.Subject, want) || catalog.MatchKeywords(s.Subject, []string{want}) {
				sum += s.Mean
				n++
				break
			}
		}
	}
	if n == 0 {
		return academic
	}
	return sum / float64(n)
}

// skillGaps lists the career's skills not shown by the student's strength or above-benchmark subjects.
func (m *Mapper) skillGaps(c catalog.Career, set assessment.SubjectScoreSet, res assessment.AssessmentResult) []string {
	shown := map[string]bool{}
	for _, s := range res.StrengthAreas {
		for _, sk := range m.cat.SkillsFor(s) {
			shown[sk] = true
		}
	}
	for _, name := range set.Names() {
		if res.SubjectPerformance[name].Benchmark.Level != stats.LevelAbove {
			continue
		}
		for _, sk := range m.cat.SkillsFor(name) {
			shown[sk] = true
		}
	}
	out := []string{}
	for _, sk := range c.Skills {
		if !shown[sk] {
			out = append(out, sk)
		}
	}
	return out
}
