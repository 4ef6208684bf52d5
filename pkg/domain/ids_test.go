package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "servicebook/pkg/domain-errors"
)

// TestParseUUID_Invariants validates the parsing invariant:
// "IDs must be valid, non-empty, non-nil UUIDs".
func TestParseUUID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseOfficerID("")
		require.Error(t, err)
		assert.True(t, dErrors.Is(err, dErrors.CodeValidation))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseOfficerID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.Is(err, dErrors.CodeValidation))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseOfficerID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.Is(err, dErrors.CodeValidation))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		validUUID := uuid.New()
		id, err := ParseOfficerID(validUUID.String())
		require.NoError(t, err)
		assert.Equal(t, OfficerID(validUUID), id)
	})
}

// TestTypeDistinction verifies the compiler enforces type safety.
// This is a compile-time check - if this compiles, the invariant holds.
func TestTypeDistinction(t *testing.T) {
	officerID := OfficerID(uuid.New())
	sessionID := SessionID(uuid.New())

	// These would fail to compile if types were interchangeable:
	// var _ OfficerID = sessionID   // compile error
	// var _ SessionID = officerID   // compile error

	// Verify they're distinct at runtime too
	assert.NotEqual(t, uuid.UUID(officerID), uuid.UUID(sessionID))
}

// TestParseID_SecurityInvariants validates trust boundary parsing rules:
// parsing must reject attack vectors at API entry points.
func TestParseID_SecurityInvariants(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		// Attack vectors
		{"SQL injection attempt", "'; DROP TABLE officers;--", true},
		{"Path traversal", "../../../etc/passwd", true},
		{"Null byte injection", "550e8400\x00-e29b-41d4-a716-446655440000", true},
		{"Oversized input", strings.Repeat("a", 1000), true},
		{"Unicode zero-width space", "550e8400​-e29b-41d4-a716-446655440000", true},

		// Edge cases
		{"Empty string", "", true},
		{"Nil UUID", uuid.Nil.String(), true},
		{"Whitespace only", "   ", true},
		{"Uppercase valid UUID", "550E8400-E29B-41D4-A716-446655440000", false},

		// Valid
		{"Valid UUID lowercase", "550e8400-e29b-41d4-a716-446655440000", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseOfficerID(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.Is(err, dErrors.CodeValidation))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

// TestAllIDTypes_ConsistentBehavior ensures both ID types share identical
// parsing behavior: inconsistent validation could create security holes.
func TestAllIDTypes_ConsistentBehavior(t *testing.T) {
	validUUID := uuid.New().String()
	invalidInputs := []string{"", "invalid", uuid.Nil.String()}

	t.Run("all accept valid UUID", func(t *testing.T) {
		_, errOfficer := ParseOfficerID(validUUID)
		_, errSession := ParseSessionID(validUUID)

		require.NoError(t, errOfficer)
		require.NoError(t, errSession)
	})

	for _, input := range invalidInputs {
		t.Run("all reject: "+input, func(t *testing.T) {
			_, errOfficer := ParseOfficerID(input)
			_, errSession := ParseSessionID(input)

			require.Error(t, errOfficer)
			require.Error(t, errSession)
		})
	}
}

// TestParseActorRole_Allowlist validates that role parsing admits exactly the
// two roles the transition table knows about.
func TestParseActorRole_Allowlist(t *testing.T) {
	t.Run("accepts officer", func(t *testing.T) {
		role, err := ParseActorRole("officer")
		require.NoError(t, err)
		assert.Equal(t, RoleOfficer, role)
	})

	t.Run("accepts approver", func(t *testing.T) {
		role, err := ParseActorRole("approver")
		require.NoError(t, err)
		assert.Equal(t, RoleApprover, role)
	})

	invalid := []string{"", "admin", "OFFICER", "officer ", "reviewer"}
	for _, input := range invalid {
		t.Run("rejects: "+input, func(t *testing.T) {
			_, err := ParseActorRole(input)
			require.Error(t, err)
			assert.True(t, dErrors.Is(err, dErrors.CodeValidation))
		})
	}
}

// TestParseCategory_Allowlist validates category parsing against the six
// record sections of a service book.
func TestParseCategory_Allowlist(t *testing.T) {
	valid := []string{"award", "disability", "education", "service", "dependent", "training"}
	for _, input := range valid {
		t.Run("accepts: "+input, func(t *testing.T) {
			c, err := ParseCategory(input)
			require.NoError(t, err)
			assert.Equal(t, input, c.String())
		})
	}

	invalid := []string{"", "awards", "Award", "medal", " award"}
	for _, input := range invalid {
		t.Run("rejects: "+input, func(t *testing.T) {
			_, err := ParseCategory(input)
			require.Error(t, err)
			assert.True(t, dErrors.Is(err, dErrors.CodeValidation))
		})
	}
}

// TestParseDocumentNumber_Format validates document number parsing at the
// trust boundary. Generated numbers must always round-trip.
func TestParseDocumentNumber_Format(t *testing.T) {
	t.Run("generated number round-trips", func(t *testing.T) {
		n := NewDocumentNumber(time.Date(2025, 1, 14, 10, 0, 0, 0, time.UTC))
		assert.True(t, strings.HasPrefix(n.String(), "SB-20250114-"))

		parsed, err := ParseDocumentNumber(n.String())
		require.NoError(t, err)
		assert.Equal(t, n, parsed)
	})

	t.Run("accepts well-formed number", func(t *testing.T) {
		parsed, err := ParseDocumentNumber("SB-20250114-9f2c4ab1d803")
		require.NoError(t, err)
		assert.Equal(t, DocumentNumber("SB-20250114-9f2c4ab1d803"), parsed)
	})

	invalid := []struct {
		name  string
		input string
	}{
		{"empty string", ""},
		{"wrong prefix", "XX-20250114-9f2c4ab1d803"},
		{"missing date segment", "SB--9f2c4ab1d803"},
		{"short date segment", "SB-2025-9f2c4ab1d803"},
		{"missing suffix", "SB-20250114-"},
		{"no separators", "SB20250114abc"},
	}
	for _, tt := range invalid {
		t.Run("rejects "+tt.name, func(t *testing.T) {
			_, err := ParseDocumentNumber(tt.input)
			require.Error(t, err)
			assert.True(t, dErrors.Is(err, dErrors.CodeValidation))
		})
	}
}
