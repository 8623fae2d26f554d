package extractor

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/codezs3/edusight-ai-new-sub001/internal/catalog"
)

// minSubjectLen rejects OCR noise like "A: 1".
const minSubjectLen = 3

var scoreLinePattern = regexp.MustCompile(`([A-Za-z][A-Za-z .&/()'-]*?)\s*[:=-]\s*(\d{1,3}(?:\.\d+)?)\b`)

// parseTextLines scans each line for "<subject>: <score>" pairs.
func parseTextLines(text string, col *collector) {
	for i, line := range strings.Split(text, "\n") {
		line = collapseWhitespace(sanitizeUTF8(line))
		if line == "" {
			continue
		}
		for j, m := range scoreLinePattern.FindAllStringSubmatch(line, -1) {
			subject := strings.Trim(m[1], trimPunct)
			if catalog.MatchKeywords(subject, ignoreColumnKeywords) {
				continue
			}
			col.counts.RowsSeen++
			if len(subject) < minSubjectLen {
				col.counts.RowsDropped++
				continue
			}
			v, err := strconv.ParseFloat(m[2], 64)
			if err != nil || v < 0 || v > 100 {
				col.counts.RowsDropped++
				continue
			}
			// Every match is its own attempt, keyed by line and position.
			col.add(subject, strconv.Itoa(i)+"."+strconv.Itoa(j), v)
		}
	}
}
