package catalog

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/codezs3/edusight-ai-new-sub001/internal/domain/assessment"
)

// AgeRange is an inclusive [Min, Max] age window in years.
type AgeRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Contains reports whether age falls in the window. An unknown age (0) is always eligible.
func (a AgeRange) Contains(age int) bool {
	if age <= 0 {
		return true
	}
	return age >= a.Min && age <= a.Max
}

type CompetencyBand struct {
	Label      string  `yaml:"label" json:"label"`
	Min        float64 `yaml:"min" json:"min"`
	Descriptor string  `yaml:"descriptor" json:"descriptor"`
}

type AssessmentCriterion struct {
	Name              string            `yaml:"name" json:"name"`
	Weight            float64           `yaml:"weight" json:"weight"`
	MinScore          float64           `yaml:"min_score" json:"min_score"`
	MaxScore          float64           `yaml:"max_score" json:"max_score"`
	CompetencyLevels  map[string]string `yaml:"competency_levels" json:"competency_levels,omitempty"`
	AssessmentMethods []string          `yaml:"assessment_methods" json:"assessment_methods"`
}

// Normalize maps a raw response onto [0, 100]. ok is false when raw is outside [MinScore, MaxScore].
func (c AssessmentCriterion) Normalize(raw float64) (float64, bool) {
	if math.IsNaN(raw) || raw < c.MinScore || raw > c.MaxScore {
		return 0, false
	}
	span := c.MaxScore - c.MinScore
	if span <= 0 {
		return 0, false
	}
	return (raw - c.MinScore) / span * 100, true
}

type FrameworkDomain struct {
	Name        string                `yaml:"name" json:"name"`
	Description string                `yaml:"description" json:"description"`
	Weight      float64               `yaml:"weight" json:"weight"`
	AgeRange    AgeRange              `yaml:"age_range" json:"age_range"`
	Criteria    []AssessmentCriterion `yaml:"criteria" json:"criteria"`
	Framework   string                `yaml:"-" json:"framework"`
}

type Framework struct {
	Key        string              `yaml:"key" json:"key"`
	Name       string              `yaml:"name" json:"name"`
	Kind       assessment.FormKind `yaml:"kind" json:"kind"`
	Curriculum string              `yaml:"curriculum" json:"curriculum,omitempty"`
	Domains    []FrameworkDomain   `yaml:"domains" json:"domains"`
}

// EligibleDomains returns the domains whose age range admits age.
func (f Framework) EligibleDomains(age int) (eligible []FrameworkDomain, excluded []string) {
	for _, d := range f.Domains {
		if d.AgeRange.Contains(age) {
			eligible = append(eligible, d)
			continue
		}
		excluded = append(excluded, d.Name)
	}
	return eligible, excluded
}

type Curriculum struct {
	Name       string             `yaml:"name" json:"name"`
	Keywords   []string           `yaml:"keywords" json:"keywords"`
	Benchmarks map[string]float64 `yaml:"benchmarks" json:"benchmarks"`
}

type Subjects struct {
	Keywords        []string            `yaml:"keywords"`
	Aliases         map[string]string   `yaml:"aliases"`
	BenchmarkGroups map[string]string   `yaml:"benchmark_groups"`
	Spatial         []string            `yaml:"spatial"`
	Language        []string            `yaml:"language"`
	RIASEC          map[string][]string `yaml:"riasec"`
	Skills          map[string][]string `yaml:"skills"`
	GapAreas        map[string]string   `yaml:"gap_areas"`
}

type Cluster struct {
	Name          string  `yaml:"name" json:"name"`
	Interest      float64 `yaml:"interest" json:"interest"`
	Academic      float64 `yaml:"academic" json:"academic"`
	Psychological float64 `yaml:"psychological" json:"psychological"`
}

type Career struct {
	Name     string             `yaml:"name" json:"name"`
	Cluster  string             `yaml:"cluster" json:"cluster"`
	Profile  map[string]float64 `yaml:"profile" json:"profile"`
	Subjects []string           `yaml:"subjects" json:"subjects"`
	Skills   []string           `yaml:"skills" json:"skills"`
}

// RIASEC returns the career's interest profile.
func (c Career) RIASEC() assessment.RIASECScores {
	var out assessment.RIASECScores
	for _, l := range assessment.RIASECLetters {
		out.Set(l, c.Profile[l])
	}
	return out
}

type DevelopmentPlaybook struct {
	Short  []string `yaml:"short"`
	Medium []string `yaml:"medium"`
	Long   []string `yaml:"long"`
}

type Playbooks struct {
	StudyMethods    map[string][]string            `yaml:"study_methods"`
	Development     map[string]DevelopmentPlaybook `yaml:"development"`
	Extracurricular map[string][]string            `yaml:"extracurricular"`
}

type Scoring struct {
	PsychologicalBaseline float64 `yaml:"psychological_baseline"`
	PhysicalBaseline      float64 `yaml:"physical_baseline"`
	AcademicFormWeight    float64 `yaml:"academic_form_weight"`
	StrengthMargin        float64 `yaml:"strength_margin"`
}

// Catalog is the read-only framework registry. It is never mutated after Load returns.
type Catalog struct {
	Version           string           `yaml:"version"`
	DefaultCurriculum string           `yaml:"default_curriculum"`
	CompetencyBands   []CompetencyBand `yaml:"competency_bands"`
	Scoring           Scoring          `yaml:"scoring"`
	Curricula         []Curriculum     `yaml:"curricula"`
	Subjects          Subjects         `yaml:"subjects"`
	Frameworks        []Framework      `yaml:"frameworks"`
	Clusters          []Cluster        `yaml:"clusters"`
	Careers           []Career         `yaml:"careers"`
	Playbooks         Playbooks        `yaml:"playbooks"`

	curricula       map[string]*Curriculum
	clusters        map[string]Cluster
	keywordPatterns []*regexp.Regexp
	benchmarkMeans  map[string]float64
}

// index builds the lookup tables. Called once by Load after validation.
func (c *Catalog) index() {
	c.curricula = make(map[string]*Curriculum, len(c.Curricula))
	c.benchmarkMeans = make(map[string]float64, len(c.Curricula))
	for i := range c.Curricula {
		cur := &c.Curricula[i]
		c.curricula[strings.ToLower(cur.Name)] = cur
		c.benchmarkMeans[cur.Name] = meanOf(cur.Benchmarks)
	}
	c.clusters = make(map[string]Cluster, len(c.Clusters))
	for _, cl := range c.Clusters {
		c.clusters[cl.Name] = cl
	}
	for fi := range c.Frameworks {
		for di := range c.Frameworks[fi].Domains {
			c.Frameworks[fi].Domains[di].Framework = c.Frameworks[fi].Key
		}
	}

	c.keywordPatterns = make([]*regexp.Regexp, 0, len(c.Subjects.Keywords))
	for _, kw := range c.Subjects.Keywords {
		c.keywordPatterns = append(c.keywordPatterns, wordPattern(kw))
	}
}

// GetFramework returns the academic framework for a curriculum, falling back to the default curriculum's.
func (c *Catalog) GetFramework(curriculum string) Framework {
	if f, ok := c.FrameworkFor(assessment.FormAcademic, curriculum); ok {
		return f
	}
	f, _ := c.FrameworkFor(assessment.FormAcademic, c.DefaultCurriculum)
	return f
}

// FrameworkFor finds the framework of a given kind. Curriculum only narrows academic frameworks.
func (c *Catalog) FrameworkFor(kind assessment.FormKind, curriculum string) (Framework, bool) {
	for _, f := range c.Frameworks {
		if f.Kind != kind {
			continue
		}
		if kind == assessment.FormAcademic && !strings.EqualFold(f.Curriculum, curriculum) {
			continue
		}
		return f, true
	}
	return Framework{}, false
}

// BenchmarksFor returns a copy of the curriculum's benchmark table and the curriculum it came from.
// Curricula outside the table resolve to the default curriculum with fallback set.
func (c *Catalog) BenchmarksFor(curriculum string) (table map[string]float64, resolved string, fallback bool) {
	cur, ok := c.curricula[strings.ToLower(strings.TrimSpace(curriculum))]
	if !ok {
		cur = c.curricula[strings.ToLower(c.DefaultCurriculum)]
		fallback = true
	}
	table = make(map[string]float64, len(cur.Benchmarks))
	for k, v := range cur.Benchmarks {
		table[k] = v
	}
	return table, cur.Name, fallback
}

// BenchmarkMean is the mean of every benchmark subject for a resolved curriculum.
func (c *Catalog) BenchmarkMean(curriculum string) float64 {
	if m, ok := c.benchmarkMeans[curriculum]; ok {
		return m
	}
	return c.benchmarkMeans[c.DefaultCurriculum]
}

// AllDomains lists every domain across frameworks, in catalog order.
func (c *Catalog) AllDomains() []FrameworkDomain {
	out := []FrameworkDomain{}
	for _, f := range c.Frameworks {
		out = append(out, f.Domains...)
	}
	return out
}

// CurriculumNames returns curriculum names in detection priority order.
func (c *Catalog) CurriculumNames() []string {
	out := make([]string, 0, len(c.Curricula))
	for _, cur := range c.Curricula {
		out = append(out, cur.Name)
	}
	return out
}

// KnownCurriculum resolves a declared curriculum name or keyword to its canonical name.
func (c *Catalog) KnownCurriculum(name string) (string, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return "", false
	}
	if cur, ok := c.curricula[n]; ok {
		return cur.Name, true
	}
	for _, cur := range c.Curricula {
		for _, kw := range cur.Keywords {
			if strings.EqualFold(kw, n) {
				return cur.Name, true
			}
		}
	}
	return "", false
}

// Alias looks a lowercased subject name up in the alias table.
func (c *Catalog) Alias(name string) (string, bool) {
	v, ok := c.Subjects.Aliases[strings.ToLower(strings.TrimSpace(name))]
	return v, ok
}

// IsSubjectLike reports whether a column header or phrase names a subject.
func (c *Catalog) IsSubjectLike(header string) bool {
	h := strings.ToLower(strings.TrimSpace(header))
	if h == "" {
		return false
	}
	if _, ok := c.Subjects.Aliases[h]; ok {
		return true
	}
	for _, re := range c.keywordPatterns {
		if re.MatchString(h) {
			return true
		}
	}
	return false
}

// BenchmarkGroup returns the benchmark subject a canonical subject rolls up to.
func (c *Catalog) BenchmarkGroup(subject string) (string, bool) {
	v, ok := c.Subjects.BenchmarkGroups[subject]
	return v, ok
}

// Cluster returns the weighting for a career cluster.
func (c *Catalog) Cluster(name string) (Cluster, bool) {
	cl, ok := c.clusters[name]
	return cl, ok
}

// CompetencyFor returns the band label and descriptor for a normalized score.
// Criterion-specific descriptors override the catalog-wide ones.
func (c *Catalog) CompetencyFor(crit AssessmentCriterion, normalized float64) (string, string) {
	label, desc := "", ""
	for _, b := range c.CompetencyBands {
		if normalized >= b.Min {
			label, desc = b.Label, b.Descriptor
		}
	}
	if d, ok := crit.CompetencyLevels[label]; ok && d != "" {
		desc = d
	}
	return label, desc
}

// MatchKeywords reports which of keywords occur as whole words in subject.
func MatchKeywords(subject string, keywords []string) bool {
	s := strings.ToLower(subject)
	for _, kw := range keywords {
		if wordPattern(kw).MatchString(s) {
			return true
		}
	}
	return false
}

// SkillsFor returns the demonstrated skills implied by a subject, deduplicated in catalog order.
func (c *Catalog) SkillsFor(subject string) []string {
	out := []string{}
	seen := map[string]bool{}
	for _, kw := range sortedKeys(c.Subjects.Skills) {
		if !MatchKeywords(subject, []string{kw}) {
			continue
		}
		for _, s := range c.Subjects.Skills[kw] {
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	return out
}

// GapAreaFor names the skill area to work on for a weak subject.
func (c *Catalog) GapAreaFor(subject string) string {
	for _, kw := range sortedKeys(c.Subjects.GapAreas) {
		if MatchKeywords(subject, []string{kw}) {
			return c.Subjects.GapAreas[kw]
		}
	}
	return "Foundational concepts in " + subject
}

// ExtracurricularFor returns enrichment activities for a strength subject.
func (c *Catalog) ExtracurricularFor(subject string) []string {
	for _, kw := range sortedKeys(c.Playbooks.Extracurricular) {
		if kw == "default" {
			continue
		}
		if MatchKeywords(subject, []string{kw}) {
			return c.Playbooks.Extracurricular[kw]
		}
	}
	return c.Playbooks.Extracurricular["default"]
}

// wordPatterns caches compiled keyword matchers; the keyword vocabulary is fixed per process.
var wordPatterns sync.Map // lowercase keyword -> *regexp.Regexp

func wordPattern(kw string) *regexp.Regexp {
	kw = strings.ToLower(kw)
	if re, ok := wordPatterns.Load(kw); ok {
		return re.(*regexp.Regexp)
	}
	re, _ := wordPatterns.LoadOrStore(kw, regexp.MustCompile(`\b`+regexp.QuoteMeta(kw)+`\b`))
	return re.(*regexp.Regexp)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func meanOf(m map[string]float64) float64 {
	if len(m) == 0 {
		return 0
	}
	sum := 0.0
	for _, k := range sortedKeys(m) {
		sum += m[k]
	}
	return sum / float64(len(m))
}
