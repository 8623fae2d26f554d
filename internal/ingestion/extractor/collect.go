package extractor

import (
	"fmt"
	"strconv"

	"github.com/codezs3/edusight-ai-new-sub001/internal/domain/assessment"
)

// collector accumulates canonical (subject, score) observations in first-seen order.
type collector struct {
	canon  *canonicalizer
	order  []string
	scores map[string][]float64
	seen   map[string]bool
	counts assessment.PartialCounts
}

func newCollector(canon *canonicalizer) *collector {
	return &collector{canon: canon, scores: map[string][]float64{}, seen: map[string]bool{}}
}

// add records one score. seq identifies the attempt; repeating the same subject, seq and value is a duplicate.
func (c *collector) add(rawSubject, seq string, v float64) bool {
	subject := c.canon.Subject(rawSubject)
	if subject == "" {
		c.counts.ValuesDropped++
		return false
	}
	v = assessment.Clamp(v, 0, 100)
	key := subject + "\x00" + seq + "\x00" + strconv.FormatFloat(v, 'g', -1, 64)
	if c.seen[key] {
		c.counts.DuplicatesRemoved++
		return false
	}
	c.seen[key] = true
	if _, ok := c.scores[subject]; !ok {
		c.order = append(c.order, subject)
	}
	c.scores[subject] = append(c.scores[subject], v)
	return true
}

func (c *collector) empty() bool { return len(c.order) == 0 }

func (c *collector) set() assessment.SubjectScoreSet {
	out := assessment.SubjectScoreSet{Subjects: make([]assessment.SubjectScores, 0, len(c.order))}
	for _, s := range c.order {
		out.Subjects = append(out.Subjects, assessment.NewSubjectScores(s, c.scores[s]))
	}
	return out
}

func (c *collector) warnings() []string {
	w := []string{}
	if c.counts.RowsDropped > 0 {
		w = append(w, fmt.Sprintf("dropped %d of %d rows with no usable scores", c.counts.RowsDropped, c.counts.RowsSeen))
	}
	if c.counts.ValuesDropped > 0 {
		w = append(w, fmt.Sprintf("dropped %d non-numeric or out-of-range values", c.counts.ValuesDropped))
	}
	if c.counts.DuplicatesRemoved > 0 {
		w = append(w, fmt.Sprintf("removed %d duplicate entries", c.counts.DuplicatesRemoved))
	}
	return w
}
