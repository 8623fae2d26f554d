package catalog

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/codezs3/edusight-ai-new-sub001/internal/domain/assessment"
)

//go:embed default_catalog.yaml
var defaultCatalogFS embed.FS

const defaultCatalogFile = "default_catalog.yaml"

const weightTolerance = 0.011

var (
	defaultOnce sync.Once
	defaultCat  *Catalog
	defaultErr  error
)

// Default returns the embedded catalog. It is parsed once per process.
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		data, err := defaultCatalogFS.ReadFile(defaultCatalogFile)
		if err != nil {
			defaultErr = assessment.CatalogErr("embedded catalog missing", err)
			return
		}
		defaultCat, defaultErr = Parse(data)
	})
	return defaultCat, defaultErr
}

// Load reads the catalog at path, or the embedded default when path is empty.
func Load(path string) (*Catalog, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, assessment.CatalogErr(fmt.Sprintf("read catalog %s", path), err)
	}
	return Parse(data)
}

// Parse decodes and validates a catalog document. Unknown fields are rejected.
func Parse(data []byte) (*Catalog, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var c Catalog
	if err := dec.Decode(&c); err != nil {
		return nil, assessment.CatalogErr("decode catalog", err)
	}
	if err := c.validate(); err != nil {
		return nil, assessment.CatalogErr(err.Error(), err)
	}
	c.index()
	return &c, nil
}

// UnmarshalYAML accepts the two-element form [min, max].
func (a *AgeRange) UnmarshalYAML(node *yaml.Node) error {
	var pair []int
	if err := node.Decode(&pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("age_range: want [min, max], got %d values", len(pair))
	}
	a.Min, a.Max = pair[0], pair[1]
	return nil
}

func (c *Catalog) validate() error {
	var errs []error
	add := func(format string, args ...any) { errs = append(errs, fmt.Errorf(format, args...)) }

	if strings.TrimSpace(c.Version) == "" {
		add("version is required")
	}
	if len(c.Curricula) == 0 {
		add("at least one curriculum is required")
	}
	hasDefault := false
	seenCur := map[string]bool{}
	for _, cur := range c.Curricula {
		key := strings.ToLower(cur.Name)
		if key == "" {
			add("curriculum without a name")
			continue
		}
		if seenCur[key] {
			add("curriculum %s defined twice", cur.Name)
		}
		seenCur[key] = true
		if strings.EqualFold(cur.Name, c.DefaultCurriculum) {
			hasDefault = true
		}
		if len(cur.Benchmarks) == 0 {
			add("curriculum %s has no benchmarks", cur.Name)
		}
		for subj, v := range cur.Benchmarks {
			if !assessment.ValidScore(v) {
				add("curriculum %s benchmark %s out of range: %v", cur.Name, subj, v)
			}
		}
	}
	if !hasDefault {
		add("default curriculum %q is not defined", c.DefaultCurriculum)
	}

	if len(c.CompetencyBands) == 0 {
		add("competency_bands are required")
	}
	for i := 1; i < len(c.CompetencyBands); i++ {
		if c.CompetencyBands[i].Min <= c.CompetencyBands[i-1].Min {
			add("competency_bands must ascend by min")
		}
	}

	kinds := map[assessment.FormKind]int{}
	for _, f := range c.Frameworks {
		if !f.Kind.Valid() {
			add("framework %s has unknown kind %q", f.Key, f.Kind)
			continue
		}
		kinds[f.Kind]++
		if f.Kind == assessment.FormAcademic && !seenCur[strings.ToLower(f.Curriculum)] {
			add("framework %s references unknown curriculum %q", f.Key, f.Curriculum)
		}
		errs = append(errs, validateFramework(f)...)
	}
	for _, k := range []assessment.FormKind{assessment.FormPsychological, assessment.FormPhysical, assessment.FormCareer} {
		if kinds[k] != 1 {
			add("exactly one %s framework is required, got %d", k, kinds[k])
		}
	}
	if _, ok := c.FrameworkFor(assessment.FormAcademic, c.DefaultCurriculum); !ok {
		add("default curriculum %s has no academic framework", c.DefaultCurriculum)
	}
	if career, ok := c.FrameworkFor(assessment.FormCareer, ""); ok {
		for _, l := range assessment.RIASECLetters {
			found := false
			for _, d := range career.Domains {
				found = found || d.Name == l
			}
			if !found {
				add("career framework is missing RIASEC domain %s", l)
			}
		}
	}

	clusters := map[string]bool{}
	for _, cl := range c.Clusters {
		clusters[cl.Name] = true
		if math.Abs(cl.Interest+cl.Academic+cl.Psychological-1) > weightTolerance {
			add("cluster %s weights must sum to 1", cl.Name)
		}
	}
	if len(c.Careers) == 0 {
		add("at least one career is required")
	}
	for _, cr := range c.Careers {
		if !clusters[cr.Cluster] {
			add("career %s references unknown cluster %q", cr.Name, cr.Cluster)
		}
		for _, l := range assessment.RIASECLetters {
			if v, ok := cr.Profile[l]; !ok || !assessment.ValidScore(v) {
				add("career %s profile %s missing or out of range", cr.Name, l)
			}
		}
	}

	for _, style := range []string{assessment.StyleVisual, assessment.StyleAuditory, assessment.StyleKinesthetic, assessment.StyleMultimodal} {
		steps := c.Playbooks.StudyMethods[style]
		if len(steps) == 0 || len(steps) > 6 {
			add("study method playbook %s must have 1 to 6 steps, got %d", style, len(steps))
		}
	}
	for _, l := range assessment.RIASECLetters {
		p, ok := c.Playbooks.Development[l]
		if !ok {
			add("development playbook %s is missing", l)
			continue
		}
		for term, items := range map[string][]string{"short": p.Short, "medium": p.Medium, "long": p.Long} {
			if len(items) < 2 || len(items) > 3 {
				add("development playbook %s.%s must have 2 to 3 items, got %d", l, term, len(items))
			}
		}
	}
	if len(c.Playbooks.Extracurricular["default"]) == 0 {
		add("extracurricular playbook needs a default entry")
	}

	s := c.Scoring
	if !assessment.ValidScore(s.PsychologicalBaseline) || !assessment.ValidScore(s.PhysicalBaseline) {
		add("scoring baselines must be within [0, 100]")
	}
	if s.AcademicFormWeight < 0 || s.AcademicFormWeight > 1 {
		add("academic_form_weight must be within [0, 1]")
	}
	if s.StrengthMargin < 0 {
		add("strength_margin must not be negative")
	}
	return errors.Join(errs...)
}

func validateFramework(f Framework) []error {
	var errs []error
	if len(f.Domains) == 0 {
		return []error{fmt.Errorf("framework %s has no domains", f.Key)}
	}
	total := 0.0
	for _, d := range f.Domains {
		total += d.Weight
		if d.Weight < 0 || d.Weight > 1 {
			errs = append(errs, fmt.Errorf("framework %s domain %s weight out of [0, 1]", f.Key, d.Name))
		}
		if d.AgeRange.Min > d.AgeRange.Max || d.AgeRange.Min < 0 {
			errs = append(errs, fmt.Errorf("framework %s domain %s has an invalid age range", f.Key, d.Name))
		}
		if len(d.Criteria) == 0 {
			errs = append(errs, fmt.Errorf("framework %s domain %s has no criteria", f.Key, d.Name))
		}
		ct := 0.0
		for _, cr := range d.Criteria {
			ct += cr.Weight
			if cr.Weight < 0 || cr.Weight > 1 {
				errs = append(errs, fmt.Errorf("criterion %s weight out of [0, 1]", cr.Name))
			}
			if cr.MaxScore <= cr.MinScore {
				errs = append(errs, fmt.Errorf("criterion %s: max_score must exceed min_score", cr.Name))
			}
		}
		if len(d.Criteria) > 0 && math.Abs(ct-1) > weightTolerance {
			errs = append(errs, fmt.Errorf("framework %s domain %s criterion weights sum to %.3f", f.Key, d.Name, ct))
		}
	}
	if math.Abs(total-1) > weightTolerance {
		errs = append(errs, fmt.Errorf("framework %s domain weights sum to %.3f", f.Key, total))
	}
	return errs
}
