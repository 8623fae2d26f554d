package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"

	"github.com/codezs3/edusight-ai-new-sub001/internal/analytics/predictor"
	"github.com/codezs3/edusight-ai-new-sub001/internal/app"
	"github.com/codezs3/edusight-ai-new-sub001/internal/domain/assessment"
	"github.com/codezs3/edusight-ai-new-sub001/internal/engine"
	"github.com/codezs3/edusight-ai-new-sub001/internal/platform/envutil"
	"github.com/codezs3/edusight-ai-new-sub001/internal/platform/gcp"
	"github.com/codezs3/edusight-ai-new-sub001/internal/platform/logger"
	"github.com/codezs3/edusight-ai-new-sub001/internal/report/render"
)

// Exit codes.
const (
	exitOK       = 0
	exitFailure  = 1
	exitUsage    = 2
	exitEnvelope = 3
)

type options struct {
	student      assessment.Student
	declared     assessment.DeclaredMetadata
	uploadID     string
	mimeType     string
	formsPath    string
	catalogPath  string
	snapshotPath string
	chartsDir    string
	fontPath     string
	ocr          string
	receivedAt   string
	pretty       bool
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
	}
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg := engine.ConfigFromEnv()
	var o options

	flags := flag.NewFlagSet("assess", flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.StringVarP(&o.student.ID, "student-id", "s", "", "Student identifier (required)")
	flags.StringVar(&o.student.Name, "name", "", "Student name")
	flags.IntVar(&o.student.Age, "age", 0, "Student age in years")
	flags.StringVar(&o.student.Gender, "gender", "", "Student gender")
	flags.IntVar(&o.student.Grade, "grade", 0, "Student grade")
	flags.StringVar(&o.declared.Curriculum, "curriculum", "", "Declared curriculum")
	flags.StringVar(&o.declared.Semester, "semester", "", "Declared semester")
	flags.StringVar(&o.declared.Year, "year", "", "Declared academic year")
	flags.StringVar(&o.uploadID, "upload-id", "", "Upload id (derived from the fingerprint when empty)")
	flags.StringVar(&o.mimeType, "mime", "", "Mime type (resolved from the file extension when empty)")
	flags.StringVar(&o.formsPath, "forms", "", "JSON file with an array of assessment forms")
	flags.StringVar(&o.catalogPath, "catalog", cfg.CatalogPath, "Catalog YAML (embedded default when empty)")
	flags.StringVar(&o.snapshotPath, "snapshot", "", "Predictor snapshot JSON (fallback predictor when empty)")
	flags.StringVar(&o.chartsDir, "charts-dir", "", "Write one PNG per chart into this directory")
	flags.StringVar(&o.fontPath, "font", "", "TTF font for chart labels")
	flags.StringVar(&o.ocr, "ocr", envutil.String("OCR_PROVIDER", app.OCRProviderNone), "OCR provider: gcp_vision or none")
	flags.StringVar(&o.receivedAt, "received-at", "", "RFC 3339 receipt time stamped on the payload (now when empty); fix it to reproduce a payload exactly")
	flags.BoolVar(&o.pretty, "pretty", false, "Indent JSON output")
	flags.Usage = func() {
		fmt.Fprintf(stderr, "Usage: assess [flags] <artifact>\n\n"+
			"Run one artifact through the assessment engine and print the report payload,\n"+
			"or the error envelope when the run fails.\n\n"+
			"Flags:\n")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		return exitUsage
	}
	if flags.NArg() != 1 || strings.TrimSpace(o.student.ID) == "" {
		flags.Usage()
		return exitUsage
	}
	cfg.CatalogPath = o.catalogPath
	receivedAt := time.Now().UTC()
	if o.receivedAt != "" {
		t, err := time.Parse(time.RFC3339, o.receivedAt)
		if err != nil {
			fmt.Fprintf(stderr, "invalid --received-at: %v\n", err)
			return exitUsage
		}
		receivedAt = t.UTC()
	}

	log, err := logger.New(envutil.String("LOG_MODE", "development"))
	if err != nil {
		fmt.Fprintf(stderr, "init logger: %v\n", err)
		return exitFailure
	}
	defer log.Sync()

	a, err := buildArtifact(flags.Arg(0), o, receivedAt)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return exitFailure
	}

	eng, closeFn, err := buildEngine(ctx, log, cfg, o)
	if err != nil {
		return writeEnvelope(stdout, stderr, assessment.AsError(err), o.pretty)
	}
	defer closeFn()

	payload, err := eng.Run(ctx, a)
	if err != nil {
		return writeEnvelope(stdout, stderr, assessment.AsError(err), o.pretty)
	}
	if o.chartsDir != "" {
		if err := writeCharts(o.chartsDir, o.fontPath, payload.Graphs); err != nil {
			fmt.Fprintf(stderr, "write charts: %v\n", err)
			return exitFailure
		}
	}
	if err := writeJSON(stdout, payload, o.pretty); err != nil {
		fmt.Fprintf(stderr, "write payload: %v\n", err)
		return exitFailure
	}
	return exitOK
}

func buildArtifact(path string, o options, receivedAt time.Time) (*assessment.UploadArtifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	a := &assessment.UploadArtifact{
		UploadID:   o.uploadID,
		Student:    o.student,
		FileName:   filepath.Base(path),
		MimeType:   o.mimeType,
		Data:       data,
		Declared:   o.declared,
		ReceivedAt: receivedAt,
	}
	if o.formsPath != "" {
		raw, err := os.ReadFile(o.formsPath)
		if err != nil {
			return nil, fmt.Errorf("read forms: %w", err)
		}
		if err := json.Unmarshal(raw, &a.Forms); err != nil {
			return nil, fmt.Errorf("decode forms: %w", err)
		}
	}
	return a, nil
}

func buildEngine(ctx context.Context, log *logger.Logger, cfg engine.Config, o options) (*engine.Engine, func(), error) {
	cat, err := app.LoadCatalog(log, cfg.CatalogPath)
	if err != nil {
		return nil, nil, assessment.CatalogErr("load catalog", err)
	}

	var opts engine.Options
	closeFn := func() {}
	switch o.ocr {
	case app.OCRProviderVision:
		v, err := gcp.NewVision(ctx, log)
		if err != nil {
			return nil, nil, fmt.Errorf("init vision client: %w", err)
		}
		opts.OCR = v
		closeFn = func() { _ = v.Close() }
	case app.OCRProviderNone, "":
	default:
		return nil, nil, fmt.Errorf("unsupported OCR provider %q", o.ocr)
	}

	eng, err := engine.New(log, cat, cfg, opts)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	if o.snapshotPath != "" {
		raw, err := os.ReadFile(o.snapshotPath)
		if err != nil {
			closeFn()
			return nil, nil, assessment.PredictionErr("read snapshot", err)
		}
		snap, err := predictor.DecodeSnapshot(raw)
		if err != nil {
			closeFn()
			return nil, nil, assessment.PredictionErr("decode snapshot", err)
		}
		if err := eng.InstallSnapshot(snap); err != nil {
			closeFn()
			return nil, nil, err
		}
	}
	return eng, closeFn, nil
}

func writeCharts(dir, fontPath string, set assessment.GraphDescriptorSet) error {
	r, err := render.New(fontPath)
	if err != nil {
		return err
	}
	images, err := r.RenderAll(set)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for kind, png := range images {
		if err := os.WriteFile(filepath.Join(dir, kind+".png"), png, 0o644); err != nil {
			return err
		}
	}
	return nil
}

func writeEnvelope(stdout, stderr io.Writer, e *assessment.Error, pretty bool) int {
	if err := writeJSON(stdout, e.Envelope(), pretty); err != nil {
		fmt.Fprintf(stderr, "write envelope: %v\n", err)
		return exitFailure
	}
	return exitEnvelope
}

func writeJSON(w io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
