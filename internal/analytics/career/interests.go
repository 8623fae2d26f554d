package career

import (
	"github.com/codezs3/edusight-ai-new-sub001/internal/catalog"
	"github.com/codezs3/edusight-ai-new-sub001/internal/domain/assessment"
)

// Where the RIASEC scores came from.
const (
	SourceForm     = "form"
	SourceSubjects = "subjects"
)

// noEvidenceShare scales the academic score for a letter with no matching subject.
const noEvidenceShare = 0.6

var LetterNames = map[string]string{
	"R": "Realistic",
	"I": "Investigative",
	"A": "Artistic",
	"S": "Social",
	"E": "Enterprising",
	"C": "Conventional",
}

// Interests returns the six RIASEC scores. Letters answered on a career form use the form;
// the rest are the mean of the student's matching subject means.
func Interests(cat *catalog.Catalog, set assessment.SubjectScoreSet, res assessment.AssessmentResult) (assessment.RIASECScores, string) {
	var form *assessment.FormScore
	for i := range res.FormScores {
		if res.FormScores[i].Kind == assessment.FormCareer {
			form = &res.FormScores[i]
			break
		}
	}
	var out assessment.RIASECScores
	source := SourceSubjects
	for _, letter := range assessment.RIASECLetters {
		if form != nil {
			if d, ok := form.Domain(letter); ok {
				out.Set(letter, d.Score)
				source = SourceForm
				continue
			}
		}
		out.Set(letter, subjectInterest(cat, set, letter, res.AcademicScore))
	}
	return out, source
}

func subjectInterest(cat *catalog.Catalog, set assessment.SubjectScoreSet, letter string, academic float64) float64 {
	keywords := cat.Subjects.RIASEC[letter]
	sum, n := 0.0, 0
	for _, s := range set.Subjects {
		if catalog.MatchKeywords(s.Subject, keywords) {
			sum += s.Mean
			n++
		}
	}
	if n == 0 {
		return noEvidenceShare * academic
	}
	return sum / float64(n)
}
