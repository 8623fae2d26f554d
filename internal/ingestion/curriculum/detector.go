package curriculum

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/codezs3/edusight-ai-new-sub001/internal/catalog"
	"github.com/codezs3/edusight-ai-new-sub001/internal/domain/assessment"
)

const (
	SourceDeclared = "declared"
	SourceDetected = "detected"
	SourceNone     = "none"
)

type curriculumPattern struct {
	name string
	re   *regexp.Regexp
}

type semesterPattern struct {
	re     *regexp.Regexp
	prefix string
}

// Checked in order; the first pattern that matches anywhere in the text wins.
var semesterPatterns = []semesterPattern{
	{markerPattern("semester"), "Semester"},
	{markerPattern("sem"), "Semester"},
	{markerPattern("term"), "Term"},
	{markerPattern("class"), "Class"},
}

// markerPattern matches "<keyword> N". A Roman numeral needs a separator so "Semi-Annual" is not "sem I".
func markerPattern(keyword string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b` + keyword + `(?:\s*[-:#.]?\s*(\d{1,2})|(?:\s+|\s*[-:#.]\s*)([ivx]{1,4}))\b`)
}

var yearPattern = regexp.MustCompile(`\b(20\d{2})\b`)

// Detector finds curriculum, semester and year markers in free text.
type Detector struct {
	cat      *catalog.Catalog
	patterns []curriculumPattern
}

func NewDetector(cat *catalog.Catalog) *Detector {
	d := &Detector{cat: cat}
	for _, cur := range cat.Curricula {
		kws := make([]string, 0, len(cur.Keywords))
		for _, kw := range cur.Keywords {
			kw = strings.TrimSpace(kw)
			if kw == "" {
				continue
			}
			kws = append(kws, regexp.QuoteMeta(strings.ToLower(kw)))
		}
		if len(kws) == 0 {
			continue
		}
		re := regexp.MustCompile(`(?i)\b(?:` + strings.Join(kws, "|") + `)\b`)
		d.patterns = append(d.patterns, curriculumPattern{name: cur.Name, re: re})
	}
	return d
}

// Detect scans text for markers. Anything not found is reported as Unknown.
func (d *Detector) Detect(text string) assessment.CurriculumMetadata {
	out := assessment.CurriculumMetadata{
		Curriculum:       assessment.Unknown,
		Semester:         assessment.Unknown,
		Year:             assessment.Unknown,
		CurriculumSource: SourceNone,
	}
	for _, p := range d.patterns {
		if p.re.MatchString(text) {
			out.Curriculum = p.name
			out.CurriculumSource = SourceDetected
			break
		}
	}
	for _, p := range semesterPatterns {
		if m := p.re.FindStringSubmatch(text); m != nil {
			n := m[1]
			if n == "" {
				n = m[2]
			}
			out.Semester = p.prefix + " " + strings.ToUpper(n)
			break
		}
	}
	if m := yearPattern.FindStringSubmatch(text); m != nil {
		out.Year = m[1]
	}
	return out
}

// Resolve merges declared metadata over detected values and picks the benchmark table.
func (d *Detector) Resolve(detected assessment.CurriculumMetadata, declared assessment.DeclaredMetadata) (assessment.CurriculumMetadata, []string) {
	out := detected
	var warnings []string

	if v := strings.TrimSpace(declared.Curriculum); v != "" {
		canon, ok := d.cat.KnownCurriculum(v)
		switch {
		case !ok:
			// Keep whatever the text itself revealed.
			warnings = append(warnings, fmt.Sprintf("declared curriculum %s is not recognised", v))
		default:
			if detected.CurriculumSource == SourceDetected && detected.Curriculum != canon {
				warnings = append(warnings, fmt.Sprintf("declared curriculum %s differs from detected %s", canon, detected.Curriculum))
			}
			out.Curriculum = canon
			out.CurriculumSource = SourceDeclared
		}
	}
	if v := strings.TrimSpace(declared.Semester); v != "" {
		out.Semester = v
	}
	if v := strings.TrimSpace(declared.Year); v != "" {
		out.Year = v
	}

	_, resolved, fallback := d.cat.BenchmarksFor(out.Curriculum)
	out.BenchmarkCurriculum = resolved
	out.CurriculumFallback = fallback
	if fallback {
		warnings = append(warnings, fmt.Sprintf("curriculum %s has no benchmark table; using %s benchmarks", out.Curriculum, resolved))
	}
	return out, warnings
}
