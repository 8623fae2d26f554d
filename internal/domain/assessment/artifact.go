package assessment

import (
	"path/filepath"
	"strings"
	"time"
)

// SourceType is the single source class of an upload.
type SourceType string

const (
	SourceTabular SourceType = "tabular"
	SourceImage   SourceType = "image"
	SourceManual  SourceType = "manual"
)

// Format is the concrete artifact encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatXLS  Format = "xls"
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatPDF  Format = "pdf"
	FormatJSON Format = "json"
)

var mimeFormats = map[string]Format{
	"text/csv":                    FormatCSV,
	"application/csv":             FormatCSV,
	"text/comma-separated-values": FormatCSV,

	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": FormatXLSX,

	"application/vnd.ms-excel": FormatXLS,
	"image/png":                FormatPNG,
	"image/jpeg":               FormatJPEG,
	"image/jpg":                FormatJPEG,
	"application/pdf":          FormatPDF,
	"application/json":         FormatJSON,
}

var extFormats = map[string]Format{
	".csv":  FormatCSV,
	".xlsx": FormatXLSX,
	".xls":  FormatXLS,
	".png":  FormatPNG,
	".jpg":  FormatJPEG,
	".jpeg": FormatJPEG,
	".pdf":  FormatPDF,
	".json": FormatJSON,
}

// ResolveFormat picks the artifact format from the mime type, then the file extension.
func ResolveFormat(mimeType, fileName string) (Format, bool) {
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.Index(mt, ";"); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	if f, ok := mimeFormats[mt]; ok {
		return f, true
	}
	if f, ok := extFormats[strings.ToLower(filepath.Ext(strings.TrimSpace(fileName)))]; ok {
		return f, true
	}
	return "", false
}

// Source maps a format to its source class. PDF report cards go through the text path with images.
func (f Format) Source() SourceType {
	switch f {
	case FormatCSV, FormatXLSX, FormatXLS:
		return SourceTabular
	case FormatPNG, FormatJPEG, FormatPDF:
		return SourceImage
	default:
		return SourceManual
	}
}

type Student struct {
	ID     string `json:"id" validate:"required"`
	Name   string `json:"name"`
	Age    int    `json:"age" validate:"gte=0,lte=25"`
	Gender string `json:"gender"`
	Grade  int    `json:"grade" validate:"gte=0,lte=12"`
}

// GenderCode is the integer encoding used as a predictor feature.
func (s Student) GenderCode() int {
	switch strings.ToLower(strings.TrimSpace(s.Gender)) {
	case "m", "male", "boy":
		return 1
	case "f", "female", "girl":
		return 2
	case "":
		return 0
	default:
		return 3
	}
}

// DeclaredMetadata is what the uploader claims about the artifact.
type DeclaredMetadata struct {
	Curriculum string `json:"curriculum"`
	Semester   string `json:"semester"`
	Year       string `json:"year"`
}

// UploadArtifact is one raw upload. It is mutable only while the ingestor parses it.
type UploadArtifact struct {
	UploadID   string
	Student    Student
	FileName   string
	MimeType   string
	Data       []byte
	Declared   DeclaredMetadata
	Forms      []AssessmentForm
	ReceivedAt time.Time
}

// Format resolves the artifact's format or fails with an unsupported-format ingest error.
func (a *UploadArtifact) Format() (Format, error) {
	f, ok := ResolveFormat(a.MimeType, a.FileName)
	if !ok {
		return "", IngestErr(ReasonUnsupportedFormat, nil)
	}
	return f, nil
}

// Validate checks the acceptance invariants: a student id and a readable source type.
func (a *UploadArtifact) Validate() error {
	if a == nil {
		return IngestErr(ReasonInvalidArtifact, nil)
	}
	if strings.TrimSpace(a.Student.ID) == "" {
		e := IngestErr(ReasonInvalidArtifact, nil)
		e.Message = "student_id is required"
		return e
	}
	if _, err := a.Format(); err != nil {
		return err
	}
	if len(a.Data) == 0 {
		e := IngestErr(ReasonUnreadable, nil)
		e.Message = "artifact is empty"
		return e
	}
	return nil
}
