package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"

	dErrors "servicebook/pkg/domain-errors"
)

// DocumentNumber ties a profile submission to its signed PDF artifacts across
// resubmission and approval. A fresh number is generated for the original
// submit; resubmit and approve reuse the original number so all artifacts of
// one submission share it.
type DocumentNumber string

const documentNumberPrefix = "SB"

// NewDocumentNumber generates a fresh transaction id for an original submit.
// Format: SB-<yyyymmdd>-<12 hex chars>, e.g. SB-20250114-9f2c4ab1d803.
func NewDocumentNumber(now time.Time) DocumentNumber {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return DocumentNumber(documentNumberPrefix + "-" + now.UTC().Format("20060102") + "-" + suffix)
}

// ParseDocumentNumber validates an externally supplied document number.
//
// Errors: returns CodeValidation when the value is empty or malformed.
func ParseDocumentNumber(s string) (DocumentNumber, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeValidation, "document number cannot be empty")
	}
	parts := strings.SplitN(s, "-", 3)
	if len(parts) != 3 || parts[0] != documentNumberPrefix || len(parts[1]) != 8 || parts[2] == "" {
		return "", dErrors.New(dErrors.CodeValidation, "invalid document number: "+s)
	}
	return DocumentNumber(s), nil
}

// String returns the string representation of the document number.
func (d DocumentNumber) String() string {
	return string(d)
}

// IsNil returns true when no document number is set.
func (d DocumentNumber) IsNil() bool {
	return d == ""
}
