package extractor

import (
	"context"
	"strconv"
	"strings"

	"github.com/codezs3/edusight-ai-new-sub001/internal/catalog"
	"github.com/codezs3/edusight-ai-new-sub001/internal/domain/assessment"
	"github.com/codezs3/edusight-ai-new-sub001/internal/platform/ctxutil"
	"github.com/codezs3/edusight-ai-new-sub001/internal/platform/logger"
)

// DefaultMaxBytes caps the artifact size accepted for parsing.
const DefaultMaxBytes = 32 << 20

// OCR extracts plain text from an image or scanned document.
type OCR interface {
	ExtractText(ctx context.Context, data []byte, mimeType string) (string, error)
}

// TableExtractor pulls tables (rows of cells) out of a scanned document.
type TableExtractor interface {
	ExtractTables(ctx context.Context, data []byte, mimeType string) ([][][]string, error)
}

// Ingestor turns one upload into a canonical SubjectScoreSet. It keeps no state between calls.
type Ingestor struct {
	log    *logger.Logger
	cat    *catalog.Catalog
	canon  *canonicalizer
	ocr    OCR
	tables TableExtractor

	MaxBytes int
}

// New builds an Ingestor. ocr and tables may be nil; image artifacts then fail with ocr_failed.
func New(log *logger.Logger, cat *catalog.Catalog, ocr OCR, tables TableExtractor) *Ingestor {
	return &Ingestor{
		log:      log.With("component", "Ingestor"),
		cat:      cat,
		canon:    newCanonicalizer(cat),
		ocr:      ocr,
		tables:   tables,
		MaxBytes: DefaultMaxBytes,
	}
}

// Ingest parses the artifact. Partial extraction is reported in the metadata, not as an error.
func (in *Ingestor) Ingest(ctx context.Context, a *assessment.UploadArtifact) (assessment.SubjectScoreSet, assessment.IngestMetadata, error) {
	ctx = ctxutil.Default(ctx)
	meta := assessment.IngestMetadata{Warnings: []string{}}
	if err := a.Validate(); err != nil {
		return assessment.SubjectScoreSet{}, meta, err
	}
	format, _ := a.Format()
	meta.Format = format
	meta.Source = format.Source()
	if in.MaxBytes > 0 && len(a.Data) > in.MaxBytes {
		e := assessment.IngestErr(assessment.ReasonUnreadable, nil)
		e.Message = "artifact exceeds the size limit"
		return assessment.SubjectScoreSet{}, meta, e
	}

	col := newCollector(in.canon)
	var err error
	switch format {
	case assessment.FormatCSV:
		err = in.ingestCSV(a.Data, col, &meta)
	case assessment.FormatXLSX:
		err = in.ingestSheets(readXLSX, a.Data, col, &meta)
	case assessment.FormatXLS:
		err = in.ingestSheets(readXLS, a.Data, col, &meta)
	case assessment.FormatPNG, assessment.FormatJPEG:
		err = in.ingestImage(ctx, a, col, &meta)
	case assessment.FormatPDF:
		err = in.ingestPDF(ctx, a, col, &meta)
	case assessment.FormatJSON:
		err = in.ingestManual(a.Data, col, &meta)
	default:
		err = assessment.IngestErr(assessment.ReasonUnsupportedFormat, nil)
	}
	if err != nil {
		return assessment.SubjectScoreSet{}, meta, err
	}
	if err := ctx.Err(); err != nil {
		return assessment.SubjectScoreSet{}, meta, assessment.AnalysisErr(assessment.ReasonCancelled, err)
	}

	meta.Counts = col.counts
	meta.Warnings = append(meta.Warnings, col.warnings()...)
	if col.empty() {
		return assessment.SubjectScoreSet{}, meta, assessment.IngestErrCounts(assessment.ReasonNoUsableScores, col.counts, nil)
	}
	set := col.set()
	if err := set.Validate(); err != nil {
		return assessment.SubjectScoreSet{}, meta, assessment.IngestErrCounts(assessment.ReasonNoUsableScores, col.counts, err)
	}
	if len(meta.Warnings) > 0 {
		in.log.Warn("ingest completed with warnings", "format", format, "layout", meta.Layout, "warnings", meta.Warnings)
	}
	return set, meta, nil
}

func unreadable(err error) *assessment.Error {
	return assessment.IngestErr(assessment.ReasonUnreadable, err)
}

func (in *Ingestor) ingestCSV(data []byte, col *collector, meta *assessment.IngestMetadata) error {
	rows, err := readCSV(data)
	if err != nil {
		return unreadable(err)
	}
	meta.Text = rowsText(rows)
	meta.Layout = parseTable(in.cat, rows, col)
	return nil
}

// ingestSheets uses the first sheet that yields scores; every sheet feeds the detector text.
func (in *Ingestor) ingestSheets(read func([]byte) ([][][]string, error), data []byte, col *collector, meta *assessment.IngestMetadata) error {
	sheets, err := read(data)
	if err != nil {
		return unreadable(err)
	}
	var text strings.Builder
	var seen assessment.PartialCounts
	for _, rows := range sheets {
		text.WriteString(rowsText(rows))
		if !col.empty() {
			continue
		}
		trial := newCollector(in.canon)
		layout := parseTable(in.cat, rows, trial)
		if trial.empty() {
			if trial.counts.RowsSeen > seen.RowsSeen {
				seen = trial.counts
			}
			continue
		}
		*col = *trial
		meta.Layout = layout
	}
	if col.empty() {
		col.counts = seen
	}
	meta.Text = text.String()
	return nil
}

func (in *Ingestor) ingestImage(ctx context.Context, a *assessment.UploadArtifact, col *collector, meta *assessment.IngestMetadata) error {
	if in.ocr == nil {
		e := assessment.IngestErr(assessment.ReasonOCRFailed, nil)
		e.Message = "ocr_failed: no OCR provider configured"
		return e
	}
	text, err := in.ocr.ExtractText(ctx, a.Data, a.MimeType)
	if err != nil {
		if ctx.Err() != nil {
			return assessment.AnalysisErr(assessment.ReasonCancelled, ctx.Err())
		}
		return assessment.IngestErr(assessment.ReasonOCRFailed, err)
	}
	if strings.TrimSpace(text) == "" {
		meta.Warnings = append(meta.Warnings, "ocr returned no text")
	}
	meta.Text = text
	meta.Layout = LayoutText
	parseTextLines(text, col)
	return nil
}

// ingestPDF tries the text layer, then document tables, then OCR.
func (in *Ingestor) ingestPDF(ctx context.Context, a *assessment.UploadArtifact, col *collector, meta *assessment.IngestMetadata) error {
	text, textErr := readPDFText(a.Data)
	if textErr == nil && strings.TrimSpace(text) != "" {
		meta.Text = text
		meta.Layout = LayoutText
		parseTextLines(text, col)
		if !col.empty() {
			return nil
		}
	}
	if textErr != nil {
		meta.Warnings = append(meta.Warnings, "pdf text layer unreadable: "+textErr.Error())
	}

	if in.tables != nil {
		tables, err := in.tables.ExtractTables(ctx, a.Data, a.MimeType)
		switch {
		case err != nil:
			meta.Warnings = append(meta.Warnings, "document table extraction failed: "+err.Error())
		default:
			for _, rows := range tables {
				meta.Text += rowsText(rows)
				if !col.empty() {
					continue
				}
				trial := newCollector(in.canon)
				layout := parseTable(in.cat, rows, trial)
				if !trial.empty() {
					*col = *trial
					meta.Layout = layout
				}
			}
			if !col.empty() {
				return nil
			}
		}
	}

	if in.ocr != nil {
		*col = *newCollector(in.canon)
		return in.ingestImage(ctx, a, col, meta)
	}
	if textErr != nil {
		return unreadable(textErr)
	}
	return nil
}

func (in *Ingestor) ingestManual(data []byte, col *collector, meta *assessment.IngestMetadata) error {
	doc, err := DecodeManual(data)
	if err != nil {
		return unreadable(err)
	}
	meta.Layout = LayoutManual
	meta.Declared = doc.Declared()
	meta.Forms = doc.Forms
	var text strings.Builder
	text.WriteString(doc.Curriculum + " " + doc.Semester + " " + doc.Year + "\n" + doc.Notes + "\n")
	for i, e := range doc.Entries() {
		col.counts.RowsSeen++
		kept := 0
		for j, v := range e.Scores {
			if !assessment.ValidScore(v) {
				col.counts.ValuesDropped++
				continue
			}
			// Position keys keep repeated hand-entered values as separate attempts.
			if col.add(e.Subject, strconv.Itoa(i)+":"+strconv.Itoa(j), v) {
				kept++
			}
		}
		if kept == 0 {
			col.counts.RowsDropped++
		}
		text.WriteString(e.Subject + "\n")
	}
	meta.Text = text.String()
	return nil
}
