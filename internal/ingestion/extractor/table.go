package extractor

import (
	"strconv"
	"strings"

	"github.com/codezs3/edusight-ai-new-sub001/internal/catalog"
)

const (
	LayoutWide   = "wide"
	LayoutLong   = "long"
	LayoutPairs  = "pairs"
	LayoutText   = "text"
	LayoutManual = "manual"
)

// headerScanRows bounds how far down a sheet the header row is searched for.
const headerScanRows = 10

var subjectColumnNames = map[string]bool{
	"subject":      true,
	"subjects":     true,
	"subject name": true,
	"course":       true,
	"paper":        true,
}

var ignoreColumnKeywords = []string{
	"student", "name", "id", "roll", "admission", "date", "class", "grade", "section", "remark", "remarks",
	"teacher", "term", "semester", "sem", "year", "curriculum", "board", "rank", "attendance", "total", "division",
}

var scoreColumnKeywords = []string{"score", "scores", "marks", "mark", "percentage", "percent", "result", "obtained"}

// cleanRows trims cells and drops rows with no content.
func cleanRows(rows [][]string) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		row := make([]string, len(r))
		blank := true
		for i, c := range r {
			row[i] = collapseWhitespace(sanitizeUTF8(c))
			if row[i] != "" {
				blank = false
			}
		}
		if !blank {
			out = append(out, row)
		}
	}
	return out
}

// rowsText stringifies a table for the curriculum detector.
func rowsText(rows [][]string) string {
	var b strings.Builder
	for _, r := range rows {
		b.WriteString(strings.Join(r, " "))
		b.WriteString("\n")
	}
	return b.String()
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// findHeader locates the header row and its layout. ok is false when no row qualifies.
func findHeader(cat *catalog.Catalog, rows [][]string) (idx int, layout string, ok bool) {
	for i := 0; i < len(rows) && i < headerScanRows; i++ {
		subjects, filled := 0, 0
		for _, c := range rows[i] {
			if c == "" {
				continue
			}
			filled++
			if subjectColumnNames[strings.ToLower(c)] {
				return i, LayoutLong, true
			}
			if _, _, numeric := parseScore(c); !numeric && cat.IsSubjectLike(c) {
				subjects++
			}
		}
		// A lone subject-like cell is usually a title line.
		if subjects >= 2 || (subjects == 1 && filled >= 2) {
			return i, LayoutWide, true
		}
	}
	return 0, "", false
}

// parseTable reads one table into col and reports the layout it recognised.
func parseTable(cat *catalog.Catalog, rows [][]string, col *collector) string {
	rows = cleanRows(rows)
	if len(rows) == 0 {
		return ""
	}
	idx, layout, ok := findHeader(cat, rows)
	if !ok {
		parsePairs(cat, rows, col)
		return LayoutPairs
	}
	header, data := rows[idx], dedupeRows(rows[idx+1:], col)
	switch layout {
	case LayoutLong:
		parseLong(header, data, col)
	default:
		parseWide(cat, header, data, col)
	}
	return layout
}

func dedupeRows(rows [][]string, col *collector) [][]string {
	seen := map[string]bool{}
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		key := strings.Join(r, "\x1f")
		if seen[key] {
			col.counts.RowsSeen++
			col.counts.DuplicatesRemoved++
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out
}

// parseWide handles one row per attempt with a column per subject.
func parseWide(cat *catalog.Catalog, header []string, rows [][]string, col *collector) {
	subjectCols := []int{}
	for i, h := range header {
		if h != "" && cat.IsSubjectLike(h) {
			subjectCols = append(subjectCols, i)
		}
	}
	for ri, row := range rows {
		col.counts.RowsSeen++
		kept, bad := 0, 0
		for _, ci := range subjectCols {
			v, present, ok := parseScore(cell(row, ci))
			if !present {
				continue
			}
			if !ok {
				bad++
				continue
			}
			if col.add(header[ci], strconv.Itoa(ri), v) {
				kept++
			}
		}
		if kept == 0 {
			col.counts.RowsDropped++
			continue
		}
		col.counts.ValuesDropped += bad
	}
}

// parseLong handles one row per (subject, attempt) with a subject column.
func parseLong(header []string, rows [][]string, col *collector) {
	subjectCol := -1
	for i, h := range header {
		if subjectColumnNames[strings.ToLower(h)] {
			subjectCol = i
			break
		}
	}
	scoreCols := []int{}
	for i, h := range header {
		if i != subjectCol && catalog.MatchKeywords(h, scoreColumnKeywords) {
			scoreCols = append(scoreCols, i)
		}
	}
	if len(scoreCols) == 0 {
		for i, h := range header {
			if i != subjectCol && h != "" && !catalog.MatchKeywords(h, ignoreColumnKeywords) {
				scoreCols = append(scoreCols, i)
			}
		}
	}
	for ri, row := range rows {
		col.counts.RowsSeen++
		subject := cell(row, subjectCol)
		if subject == "" {
			col.counts.RowsDropped++
			continue
		}
		kept, bad := 0, 0
		for _, ci := range scoreCols {
			v, present, ok := parseScore(cell(row, ci))
			if !present {
				continue
			}
			if !ok {
				bad++
				continue
			}
			if col.add(subject, strconv.Itoa(ri)+":"+strconv.Itoa(ci), v) {
				kept++
			}
		}
		if kept == 0 {
			col.counts.RowsDropped++
			continue
		}
		col.counts.ValuesDropped += bad
	}
}

// parsePairs handles header-less sheets where a subject cell is followed by its score.
func parsePairs(cat *catalog.Catalog, rows [][]string, col *collector) {
	for ri, row := range rows {
		col.counts.RowsSeen++
		kept := 0
		for i := 0; i+1 < len(row); i++ {
			if !cat.IsSubjectLike(row[i]) {
				continue
			}
			v, present, ok := parseScore(row[i+1])
			if !present {
				continue
			}
			if !ok {
				col.counts.ValuesDropped++
				continue
			}
			if col.add(row[i], strconv.Itoa(ri)+":"+strconv.Itoa(i), v) {
				kept++
			}
		}
		if kept == 0 {
			col.counts.RowsDropped++
		}
	}
}
