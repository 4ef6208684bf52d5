package domain

import dErrors "servicebook/pkg/domain-errors"

// ActorRole identifies who is acting on a profile. The submission state
// machine keys its transition table on it.
//
// Usage: construct via ParseActorRole at trust boundaries to enforce the
// allowlist; direct casting bypasses validation.
type ActorRole string

const (
	// RoleOfficer is the subject of the service book; may submit and resubmit.
	RoleOfficer ActorRole = "officer"
	// RoleApprover reviews submissions; may approve and return for correction.
	RoleApprover ActorRole = "approver"
)

var validActorRoles = map[ActorRole]bool{
	RoleOfficer:  true,
	RoleApprover: true,
}

// ParseActorRole constructs an ActorRole from external input.
//
// Errors: returns CodeValidation when the value is empty or unsupported.
func ParseActorRole(s string) (ActorRole, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeValidation, "actor role cannot be empty")
	}
	r := ActorRole(s)
	if !r.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "invalid actor role: "+s)
	}
	return r, nil
}

// IsValid checks if the role is one of the supported enum values.
func (r ActorRole) IsValid() bool {
	return validActorRoles[r]
}

// String returns the string representation of the role.
func (r ActorRole) String() string {
	return string(r)
}
