package report

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/codezs3/edusight-ai-new-sub001/internal/domain/assessment"
)

// uploadNamespace scopes derived upload ids.
var uploadNamespace = uuid.MustParse("5b1f6f0e-4a53-4d3c-9a55-0d1e2b7c9f41")

type fingerprintInput struct {
	StudentID      string            `json:"student_id"`
	CatalogVersion string            `json:"catalog_version"`
	Subjects       []fingerprintLine `json:"subjects"`
}

type fingerprintLine struct {
	Subject string    `json:"subject"`
	Scores  []float64 `json:"scores"`
}

// Fingerprint hashes the canonical score set, student id and catalog version.
// Subject order is part of the input, since it is part of the payload.
func Fingerprint(set assessment.SubjectScoreSet, studentID, catalogVersion string) string {
	in := fingerprintInput{StudentID: studentID, CatalogVersion: catalogVersion, Subjects: make([]fingerprintLine, 0, set.Len())}
	for _, s := range set.Subjects {
		in.Subjects = append(in.Subjects, fingerprintLine{Subject: s.Subject, Scores: s.Scores})
	}
	raw, _ := json.Marshal(in)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// UploadID derives a stable upload id from a fingerprint, for callers that do not supply one.
func UploadID(fingerprint string) string {
	return uuid.NewSHA1(uploadNamespace, []byte(fingerprint)).String()
}

// ArtifactUploadID identifies a run that failed before a fingerprint existed.
// It hashes the raw artifact bytes with the student id, so retrying the same file reports the same id.
func ArtifactUploadID(studentID string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(studentID))
	h.Write([]byte{0})
	h.Write(data)
	return uuid.NewSHA1(uploadNamespace, h.Sum(nil)).String()
}
