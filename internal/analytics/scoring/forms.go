package scoring

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/codezs3/edusight-ai-new-sub001/internal/catalog"
	"github.com/codezs3/edusight-ai-new-sub001/internal/domain/assessment"
)

var (
	ErrNoFramework = errors.New("no framework for form kind")
	ErrNoResponses = errors.New("form has no usable responses")
)

// ScoreForm scores a form against the framework of its kind, using the default curriculum for academic forms.
func ScoreForm(cat *catalog.Catalog, form assessment.AssessmentForm, age int) (assessment.FormScore, []string, error) {
	return ScoreFormFor(cat, form, age, cat.DefaultCurriculum)
}

// ScoreFormFor is ScoreForm with an explicit curriculum for the academic framework.
// Out-of-range responses are dropped with a warning; age-ineligible domains are excluded.
func ScoreFormFor(cat *catalog.Catalog, form assessment.AssessmentForm, age int, curriculum string) (assessment.FormScore, []string, error) {
	var fw catalog.Framework
	switch form.Kind {
	case assessment.FormAcademic:
		fw = cat.GetFramework(curriculum)
	default:
		var ok bool
		if fw, ok = cat.FrameworkFor(form.Kind, curriculum); !ok {
			return assessment.FormScore{}, nil, fmt.Errorf("%w: %s", ErrNoFramework, form.Kind)
		}
	}

	responses := make(map[string]float64, len(form.Responses))
	labels := make(map[string]string, len(form.Responses))
	for _, k := range sortedKeys(form.Responses) {
		key := strings.ToLower(strings.TrimSpace(k))
		if _, dup := responses[key]; dup {
			continue
		}
		responses[key] = form.Responses[k]
		labels[key] = k
	}

	eligible, excluded := fw.EligibleDomains(age)
	out := assessment.FormScore{
		Kind:      form.Kind,
		Framework: fw.Key,
		Domains:   []assessment.DomainScore{},
		Excluded:  append([]string{}, excluded...),
	}
	warnings := []string{}
	used := map[string]bool{}
	total, totalW := 0.0, 0.0

	for _, d := range eligible {
		ds := assessment.DomainScore{Domain: d.Name, Weight: d.Weight, Criteria: []assessment.CriterionScore{}}
		sum, sumW := 0.0, 0.0
		for _, crit := range d.Criteria {
			key := strings.ToLower(crit.Name)
			raw, ok := responses[key]
			if !ok {
				continue
			}
			used[key] = true
			norm, ok := crit.Normalize(raw)
			if !ok {
				warnings = append(warnings, fmt.Sprintf("%s response %v for %s is outside [%v, %v]", form.Kind, raw, crit.Name, crit.MinScore, crit.MaxScore))
				continue
			}
			level, desc := cat.CompetencyFor(crit, norm)
			ds.Criteria = append(ds.Criteria, assessment.CriterionScore{
				Criterion:  crit.Name,
				Raw:        raw,
				Normalized: norm,
				Level:      level,
				Descriptor: desc,
			})
			sum += crit.Weight * norm
			sumW += crit.Weight
		}
		if sumW == 0 {
			continue
		}
		ds.Score = sum / sumW
		out.Domains = append(out.Domains, ds)
		total += d.Weight * ds.Score
		totalW += d.Weight
	}

	var ignored []string
	for _, key := range sortedKeys(responses) {
		if !used[key] {
			ignored = append(ignored, labels[key])
		}
	}
	if len(ignored) > 0 {
		warnings = append(warnings, fmt.Sprintf("%s form responses ignored: %s", form.Kind, strings.Join(ignored, ", ")))
	}
	if totalW == 0 {
		return out, warnings, fmt.Errorf("%w: %s", ErrNoResponses, form.Kind)
	}
	out.Score = assessment.Clamp(total/totalW, 0, 100)
	return out, warnings, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
