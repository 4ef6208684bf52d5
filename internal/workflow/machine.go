package workflow

import (
	id "servicebook/pkg/domain"
	dErrors "servicebook/pkg/domain-errors"
)

// Guard is the local precondition check for one transition attempt. Every
// rule here is resolved before any network call is made.
type Guard struct {
	// Timeline is the officer's full status history.
	Timeline Timeline
	// Completion is the profile completion percentage, 0 to 100.
	Completion int
	// Consent reports the declaration-of-consent acknowledgment for this
	// attempt. Once the timeline is non-empty the flag is permanently locked
	// and the submitted value is ignored.
	Consent bool
	// HasDocumentNumber reports whether an original document number is
	// resolvable for the officer.
	HasDocumentNumber bool
}

// Check validates one transition attempt against the state machine. The
// returned error carries the code the caller surfaces: CodeForbidden for role
// mismatches, CodeValidation for consent, CodeDataIntegrity for a missing
// document number, CodeConflict for a state the action is not allowed in.
func Check(action Action, role id.ActorRole, g Guard) error {
	if !validActions[action] {
		return dErrors.New(dErrors.CodeValidation, "invalid workflow action: "+action.String())
	}
	if action.Role() != role {
		return dErrors.Newf(dErrors.CodeForbidden, "role %s may not perform %s", role, action)
	}

	latest, hasEvents := g.Timeline.Latest()

	if role == id.RoleOfficer && !hasEvents && !g.Consent {
		return dErrors.New(dErrors.CodeValidation, "declaration of consent must be acknowledged")
	}

	switch action {
	case ActionSubmit:
		if hasEvents {
			return dErrors.New(dErrors.CodeConflict, "profile has already been submitted")
		}
		if g.Completion < 100 {
			return dErrors.Newf(dErrors.CodeValidation, "profile is %d%% complete; submission requires 100%%", g.Completion)
		}
	case ActionResubmit:
		if !hasEvents || latest.Action != ActionReturn {
			return dErrors.New(dErrors.CodeConflict, "resubmission is only allowed after a return for correction")
		}
		if g.Completion < 100 {
			return dErrors.Newf(dErrors.CodeValidation, "profile is %d%% complete; resubmission requires 100%%", g.Completion)
		}
		if !g.HasDocumentNumber {
			return dErrors.New(dErrors.CodeDataIntegrity, "no original document number is resolvable for this officer")
		}
	case ActionApprove:
		if !hasEvents || (latest.Action != ActionSubmit && latest.Action != ActionResubmit) {
			return dErrors.New(dErrors.CodeConflict, "approval requires a pending submission")
		}
		if !g.HasDocumentNumber {
			return dErrors.New(dErrors.CodeDataIntegrity, "no original document number is resolvable for this officer")
		}
	case ActionReturn:
		if !hasEvents || (latest.Action != ActionSubmit && latest.Action != ActionResubmit) {
			return dErrors.New(dErrors.CodeConflict, "return for correction requires a pending submission")
		}
	}
	return nil
}
