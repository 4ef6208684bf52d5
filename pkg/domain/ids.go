package domain

import (
	"github.com/google/uuid"

	dErrors "servicebook/pkg/domain-errors"
)

// Typed UUID identifiers. Distinct types prevent cross-assignment between an
// officer and, say, a session at compile time.
//
// Usage: construct via the ParseX functions at trust boundaries; direct
// casting bypasses validation.
type (
	// OfficerID identifies the officer whose service book is administered.
	OfficerID uuid.UUID

	// SessionID identifies an actor's working session.
	SessionID uuid.UUID
)

// ParseOfficerID validates and converts an external officer id.
//
// Errors: CodeValidation when the value is empty, malformed or the nil UUID.
func ParseOfficerID(s string) (OfficerID, error) {
	u, err := parseUUID(s, "officer id")
	return OfficerID(u), err
}

// ParseSessionID validates and converts an external session id.
func ParseSessionID(s string) (SessionID, error) {
	u, err := parseUUID(s, "session id")
	return SessionID(u), err
}

func (id OfficerID) String() string { return uuid.UUID(id).String() }
func (id OfficerID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id SessionID) String() string { return uuid.UUID(id).String() }
func (id SessionID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func parseUUID(s, what string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.Newf(dErrors.CodeValidation, "%s cannot be empty", what)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeValidation, "invalid %s", what)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeValidation, "%s cannot be the nil UUID", what)
	}
	return u, nil
}
