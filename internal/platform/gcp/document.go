package gcp

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"google.golang.org/api/option"

	"github.com/codezs3/edusight-ai-new-sub001/internal/platform/ctxutil"
	"github.com/codezs3/edusight-ai-new-sub001/internal/platform/logger"
)

type DocumentConfig struct {
	ProjectID        string
	Location         string
	ProcessorID      string
	ProcessorVersion string
}

// DocumentConfigFromEnv reads DOCUMENTAI_PROJECT_ID, DOCUMENTAI_LOCATION (default "us") and DOCUMENTAI_PROCESSOR_ID.
func DocumentConfigFromEnv() DocumentConfig {
	cfg := DocumentConfig{
		ProjectID:        strings.TrimSpace(os.Getenv("DOCUMENTAI_PROJECT_ID")),
		Location:         strings.TrimSpace(os.Getenv("DOCUMENTAI_LOCATION")),
		ProcessorID:      strings.TrimSpace(os.Getenv("DOCUMENTAI_PROCESSOR_ID")),
		ProcessorVersion: strings.TrimSpace(os.Getenv("DOCUMENTAI_PROCESSOR_VERSION")),
	}
	if cfg.Location == "" {
		cfg.Location = "us"
	}
	return cfg
}

func (c DocumentConfig) Enabled() bool {
	return c.ProjectID != "" && c.ProcessorID != ""
}

func (c DocumentConfig) processorName() string {
	if !c.Enabled() || c.Location == "" {
		return ""
	}
	base := fmt.Sprintf("projects/%s/locations/%s/processors/%s", c.ProjectID, c.Location, c.ProcessorID)
	if c.ProcessorVersion != "" {
		return base + "/processorVersions/" + c.ProcessorVersion
	}
	return base
}

// Document pulls tables out of scanned PDFs with a Document AI processor.
type Document struct {
	log    *logger.Logger
	client *documentai.DocumentProcessorClient
	name   string

	Timeout time.Duration
}

func NewDocument(ctx context.Context, log *logger.Logger, cfg DocumentConfig) (*Document, error) {
	name := cfg.processorName()
	if name == "" {
		return nil, fmt.Errorf("documentai processor is not configured")
	}
	endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", cfg.Location)
	opts := append([]option.ClientOption{option.WithEndpoint(endpoint)}, ClientOptionsFromEnv()...)
	c, err := documentai.NewDocumentProcessorClient(ctxutil.Default(ctx), opts...)
	if err != nil {
		return nil, fmt.Errorf("documentai client: %w", err)
	}
	l := log.With("service", "gcp.Document")
	l.Info("Document AI initialized", "endpoint", endpoint)
	return &Document{log: l, client: c, name: name, Timeout: 3 * time.Minute}, nil
}

func (d *Document) Close() error {
	if d == nil || d.client == nil {
		return nil
	}
	return d.client.Close()
}

// ExtractTables returns every table in the document as rows of cell text, header row first.
func (d *Document) ExtractTables(ctx context.Context, data []byte, mimeType string) ([][][]string, error) {
	if len(data) == 0 {
		return nil, nil
	}
	if mimeType == "" {
		mimeType = "application/pdf"
	}
	ctx, cancel := context.WithTimeout(ctxutil.Default(ctx), d.Timeout)
	defer cancel()

	resp, err := d.client.ProcessDocument(ctx, &documentaipb.ProcessRequest{
		Name: d.name,
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{Content: data, MimeType: mimeType},
		},
	})
	if err != nil {
		return nil, classify("documentai ProcessDocument", err)
	}
	tables := documentTables(resp.GetDocument())
	d.log.Debug("document tables extracted", "tables", len(tables))
	return tables, nil
}

func documentTables(doc *documentaipb.Document) [][][]string {
	if doc == nil {
		return nil
	}
	var out [][][]string
	for _, p := range doc.GetPages() {
		for _, t := range p.GetTables() {
			var rows [][]string
			for _, r := range t.GetHeaderRows() {
				rows = append(rows, rowCells(doc.Text, r))
			}
			for _, r := range t.GetBodyRows() {
				rows = append(rows, rowCells(doc.Text, r))
			}
			if len(rows) > 0 {
				out = append(out, rows)
			}
		}
	}
	return out
}

func rowCells(full string, r *documentaipb.Document_Page_Table_TableRow) []string {
	out := make([]string, 0, len(r.GetCells()))
	for _, c := range r.GetCells() {
		out = append(out, strings.TrimSpace(textFromAnchor(full, c.GetLayout().GetTextAnchor())))
	}
	return out
}

func textFromAnchor(full string, anchor *documentaipb.Document_TextAnchor) string {
	if anchor == nil || full == "" {
		return ""
	}
	var b strings.Builder
	for _, seg := range anchor.GetTextSegments() {
		start, end := int(seg.GetStartIndex()), int(seg.GetEndIndex())
		if start < 0 {
			start = 0
		}
		if end > len(full) {
			end = len(full)
		}
		if start < end {
			b.WriteString(full[start:end])
		}
	}
	return b.String()
}
