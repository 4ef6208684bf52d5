// Package workflow implements the submission and approval state machine: the
// append-only status timeline, the transition guards, and local validation of
// remarks and consent.
package workflow

import (
	"time"

	id "servicebook/pkg/domain"
	dErrors "servicebook/pkg/domain-errors"
)

// Action is a workflow transition requested by an officer or an approver.
type Action string

const (
	ActionSubmit   Action = "submit"
	ActionResubmit Action = "resubmit"
	ActionApprove  Action = "approve"
	ActionReturn   Action = "return_for_correction"
)

var validActions = map[Action]bool{
	ActionSubmit:   true,
	ActionResubmit: true,
	ActionApprove:  true,
	ActionReturn:   true,
}

func ParseAction(s string) (Action, error) {
	a := Action(s)
	if !validActions[a] {
		return "", dErrors.New(dErrors.CodeValidation, "invalid workflow action: "+s)
	}
	return a, nil
}

func (a Action) String() string { return string(a) }

// Role returns the only actor role permitted to perform the action.
func (a Action) Role() id.ActorRole {
	switch a {
	case ActionApprove, ActionReturn:
		return id.RoleApprover
	default:
		return id.RoleOfficer
	}
}

// Status is the officer-visible workflow state, derived from the latest
// timeline event.
type Status string

const (
	StatusNone        Status = "NONE"
	StatusSubmitted   Status = "SUBMITTED"
	StatusReturned    Status = "RETURNED_FOR_CORRECTION"
	StatusResubmitted Status = "RESUBMITTED"
	StatusApproved    Status = "APPROVED"
)

// StatusEvent is one append-only entry in an officer's status timeline. The
// latest event carries Current and defines the authoritative state.
type StatusEvent struct {
	Action         Action
	ActorRole      id.ActorRole
	ActorName      string
	Remarks        string
	DocumentNumber id.DocumentNumber
	EventTime      time.Time
	Current        bool
}

// Timeline is an officer's ordered status history, oldest first.
type Timeline []StatusEvent

// Latest returns the most recent event, or false for an empty timeline.
func (t Timeline) Latest() (StatusEvent, bool) {
	if len(t) == 0 {
		return StatusEvent{}, false
	}
	return t[len(t)-1], true
}

// Status derives the officer-visible state from the latest event.
func (t Timeline) Status() Status {
	latest, ok := t.Latest()
	if !ok {
		return StatusNone
	}
	switch latest.Action {
	case ActionSubmit:
		return StatusSubmitted
	case ActionResubmit:
		return StatusResubmitted
	case ActionApprove:
		return StatusApproved
	case ActionReturn:
		return StatusReturned
	}
	return StatusNone
}

const (
	remarksMinLen = 5
	remarksMaxLen = 150
)

// ValidateRemarks enforces the remark rules for approver actions: 5 to 150
// characters drawn from letters, digits, spaces and ().,-/ only.
func ValidateRemarks(remarks string) error {
	if len(remarks) < remarksMinLen || len(remarks) > remarksMaxLen {
		return dErrors.New(dErrors.CodeValidation, "remarks must be between 5 and 150 characters")
	}
	for _, r := range remarks {
		if !isRemarkRune(r) {
			return dErrors.Newf(dErrors.CodeValidation, "remarks contain a disallowed character: %q", r)
		}
	}
	return nil
}

func isRemarkRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == ' ':
		return true
	}
	switch r {
	case '(', ')', '.', ',', '-', '/':
		return true
	}
	return false
}
