package audit

import (
	"time"

	"github.com/google/uuid"

	id "servicebook/pkg/domain"
)

// Event is emitted from domain logic to capture key actions on a service
// book. Keep it transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID             uuid.UUID
	Timestamp      time.Time
	OfficerID      id.OfficerID
	ActorRole      id.ActorRole
	ActorName      string
	Action         Action
	Category       id.Category
	RecordIdentity string
	DocumentNumber id.DocumentNumber
	Reason         string
	RequestID      string
}

// Action names an auditable occurrence.
type Action string

const (
	// Record mutations.
	ActionRecordCreated     Action = "record_created"
	ActionRecordUpdated     Action = "record_updated"
	ActionRecordDeleted     Action = "record_deleted"
	ActionDuplicateRejected Action = "duplicate_rejected"

	// Workflow transitions, one per appended status event.
	ActionProfileSubmitted   Action = "profile_submitted"
	ActionProfileResubmitted Action = "profile_resubmitted"
	ActionProfileApproved    Action = "profile_approved"
	ActionProfileReturned    Action = "profile_returned"

	// Signing protocol aborts leave a trail even though no status event was
	// created; a failure after upload or sign means an orphaned artifact.
	ActionSigningAborted Action = "signing_aborted"
)
