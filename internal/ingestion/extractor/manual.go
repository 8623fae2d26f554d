package extractor

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/codezs3/edusight-ai-new-sub001/internal/domain/assessment"
)

var validate = validator.New()

// ManualEntry is one subject's scores as entered by hand, in document order.
type ManualEntry struct {
	Subject string    `json:"subject" validate:"required"`
	Scores  []float64 `json:"scores" validate:"required,min=1"`
}

// ManualDocument is the JSON shape accepted for manual artifacts.
// Scores may be an object keyed by subject (number or array values) or an array of ManualEntry.
type ManualDocument struct {
	Student    *assessment.Student         `json:"student,omitempty" validate:"-"`
	Curriculum string                      `json:"curriculum,omitempty"`
	Semester   string                      `json:"semester,omitempty"`
	Year       string                      `json:"year,omitempty"`
	Scores     json.RawMessage             `json:"scores" validate:"required"`
	Forms      []assessment.AssessmentForm `json:"forms,omitempty" validate:"omitempty,dive"`
	Notes      string                      `json:"notes,omitempty"`

	entries []ManualEntry
}

// DecodeManual parses and validates a manual artifact document.
func DecodeManual(data []byte) (*ManualDocument, error) {
	var doc ManualDocument
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode manual artifact: %w", err)
	}
	if err := validate.Struct(&doc); err != nil {
		return nil, fmt.Errorf("validate manual artifact: %w", err)
	}
	if doc.Student != nil {
		// The id may come from the request instead of the document.
		if err := validate.StructExcept(doc.Student, "ID"); err != nil {
			return nil, fmt.Errorf("validate student: %w", err)
		}
	}
	entries, err := decodeManualScores(doc.Scores)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if err := validate.Struct(&entries[i]); err != nil {
			return nil, fmt.Errorf("validate scores[%d]: %w", i, err)
		}
	}
	doc.entries = entries
	return &doc, nil
}

// Entries returns the subject scores in document order.
func (d *ManualDocument) Entries() []ManualEntry { return d.entries }

func (d *ManualDocument) Declared() assessment.DeclaredMetadata {
	return assessment.DeclaredMetadata{Curriculum: d.Curriculum, Semester: d.Semester, Year: d.Year}
}

func decodeManualScores(raw json.RawMessage) ([]ManualEntry, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, errors.New("scores are required")
	}
	if trimmed[0] == '[' {
		var entries []ManualEntry
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return nil, fmt.Errorf("decode scores: %w", err)
		}
		return entries, nil
	}

	// Objects are walked token by token to keep key order.
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil, errors.New("scores must be an object or an array")
	}
	var entries []ManualEntry
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("decode scores: %w", err)
		}
		subject, _ := tok.(string)
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("decode scores[%s]: %w", subject, err)
		}
		scores, err := manualValues(value)
		if err != nil {
			return nil, fmt.Errorf("decode scores[%s]: %w", subject, err)
		}
		entries = append(entries, ManualEntry{Subject: subject, Scores: scores})
	}
	if _, err := dec.Token(); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode scores: %w", err)
	}
	return entries, nil
}

// manualValues accepts a number, a numeric string, or an array of either.
func manualValues(raw json.RawMessage) ([]float64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, err
		}
		out := make([]float64, 0, len(items))
		for _, it := range items {
			v, err := manualNumber(it)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	}
	v, err := manualNumber(raw)
	if err != nil {
		return nil, err
	}
	return []float64{v}, nil
}

func manualNumber(raw json.RawMessage) (float64, error) {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("score %s is not a number", string(raw))
	}
	return strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(s), "%"), 64)
}
