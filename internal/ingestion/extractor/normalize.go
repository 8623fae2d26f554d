package extractor

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/codezs3/edusight-ai-new-sub001/internal/catalog"
	"github.com/codezs3/edusight-ai-new-sub001/internal/domain/assessment"
)

// Header words that describe a score column rather than a subject.
var scoreSuffixes = []string{"score", "scores", "marks", "mark", "percentage", "percent", "result", "(%)", "%", "out of 100", "/100"}

const trimPunct = " \t:-_.|*#"

func collapseWhitespace(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.Join(strings.Fields(s), " ")
}

func sanitizeUTF8(s string) string {
	if s == "" || utf8.ValidString(s) {
		return s
	}
	return strings.ToValidUTF8(s, " ")
}

// canonicalizer turns raw subject labels into catalog-canonical names.
type canonicalizer struct {
	cat *catalog.Catalog
}

func newCanonicalizer(cat *catalog.Catalog) *canonicalizer {
	return &canonicalizer{cat: cat}
}

// Subject trims, strips score suffixes, applies the alias table and Title-Cases the rest.
func (c *canonicalizer) Subject(raw string) string {
	s := collapseWhitespace(sanitizeUTF8(raw))
	s = strings.Trim(s, trimPunct)
	lower := stripScoreSuffix(strings.ToLower(s))
	if lower == "" {
		return ""
	}
	if v, ok := c.cat.Alias(lower); ok {
		return v
	}
	// Casers are stateful, so one per call.
	return cases.Title(language.English).String(lower)
}

func stripScoreSuffix(lower string) string {
	for {
		trimmed := false
		for _, suf := range scoreSuffixes {
			if lower == suf || !strings.HasSuffix(lower, suf) {
				continue
			}
			head := lower[:len(lower)-len(suf)]
			if !strings.HasSuffix(head, " ") && !strings.ContainsAny(suf[:1], "(%/") {
				continue
			}
			lower = strings.Trim(head, trimPunct)
			trimmed = true
			break
		}
		if !trimmed {
			return lower
		}
	}
}

var fractionPattern = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*/\s*(\d+(?:\.\d+)?)$`)

// parseScore reads a cell as a score in [0, 100]. Accepts "88", "88.5", "88%" and "44/50".
// Empty cells report present=false.
func parseScore(raw string) (v float64, present, ok bool) {
	s := strings.TrimSpace(raw)
	if s == "" || s == "-" {
		return 0, false, false
	}
	if m := fractionPattern.FindStringSubmatch(s); m != nil {
		num, _ := strconv.ParseFloat(m[1], 64)
		den, _ := strconv.ParseFloat(m[2], 64)
		if den <= 0 {
			return 0, true, false
		}
		v = num / den * 100
		return v, true, assessment.ValidScore(v)
	}
	s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, true, false
	}
	return f, true, assessment.ValidScore(f)
}
