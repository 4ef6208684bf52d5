package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	id "servicebook/pkg/domain"
	dErrors "servicebook/pkg/domain-errors"
)

type MachineSuite struct {
	suite.Suite
}

func TestMachineSuite(t *testing.T) {
	suite.Run(t, new(MachineSuite))
}

func event(action Action) StatusEvent {
	return StatusEvent{
		Action:    action,
		EventTime: time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC),
	}
}

func (s *MachineSuite) TestSubmitRequiresEmptyTimelineAndFullCompletion() {
	s.Run("allowed on empty timeline at 100%", func() {
		err := Check(ActionSubmit, id.RoleOfficer, Guard{Completion: 100, Consent: true})
		s.NoError(err)
	})
	s.Run("rejected below 100%", func() {
		err := Check(ActionSubmit, id.RoleOfficer, Guard{Completion: 85, Consent: true})
		s.True(dErrors.Is(err, dErrors.CodeValidation))
	})
	s.Run("rejected once timeline is non-empty", func() {
		err := Check(ActionSubmit, id.RoleOfficer, Guard{
			Timeline:   Timeline{event(ActionSubmit)},
			Completion: 100,
			Consent:    true,
		})
		s.True(dErrors.Is(err, dErrors.CodeConflict))
	})
}

func (s *MachineSuite) TestResubmitOnlyAfterReturnForCorrection() {
	guard := Guard{Completion: 100, Consent: true, HasDocumentNumber: true}

	s.Run("rejected on empty timeline", func() {
		s.True(dErrors.Is(Check(ActionResubmit, id.RoleOfficer, guard), dErrors.CodeConflict))
	})
	s.Run("rejected while submitted", func() {
		g := guard
		g.Timeline = Timeline{event(ActionSubmit)}
		s.True(dErrors.Is(Check(ActionResubmit, id.RoleOfficer, g), dErrors.CodeConflict))
	})
	s.Run("allowed after return for correction", func() {
		g := guard
		g.Timeline = Timeline{event(ActionSubmit), event(ActionReturn)}
		s.NoError(Check(ActionResubmit, id.RoleOfficer, g))
	})
	s.Run("blocked without an original document number", func() {
		g := guard
		g.Timeline = Timeline{event(ActionSubmit), event(ActionReturn)}
		g.HasDocumentNumber = false
		s.True(dErrors.Is(Check(ActionResubmit, id.RoleOfficer, g), dErrors.CodeDataIntegrity))
	})
}

func (s *MachineSuite) TestApproveRequiresPendingSubmissionAndDocumentNumber() {
	s.Run("allowed after submit", func() {
		err := Check(ActionApprove, id.RoleApprover, Guard{
			Timeline:          Timeline{event(ActionSubmit)},
			HasDocumentNumber: true,
		})
		s.NoError(err)
	})
	s.Run("allowed after resubmit", func() {
		err := Check(ActionApprove, id.RoleApprover, Guard{
			Timeline:          Timeline{event(ActionSubmit), event(ActionReturn), event(ActionResubmit)},
			HasDocumentNumber: true,
		})
		s.NoError(err)
	})
	s.Run("rejected after approval", func() {
		err := Check(ActionApprove, id.RoleApprover, Guard{
			Timeline:          Timeline{event(ActionSubmit), event(ActionApprove)},
			HasDocumentNumber: true,
		})
		s.True(dErrors.Is(err, dErrors.CodeConflict))
	})
	s.Run("blocked without an original document number", func() {
		err := Check(ActionApprove, id.RoleApprover, Guard{
			Timeline: Timeline{event(ActionSubmit)},
		})
		s.True(dErrors.Is(err, dErrors.CodeDataIntegrity))
	})
}

func (s *MachineSuite) TestRoleGuards() {
	s.Run("officer may not approve", func() {
		err := Check(ActionApprove, id.RoleOfficer, Guard{
			Timeline:          Timeline{event(ActionSubmit)},
			HasDocumentNumber: true,
		})
		s.True(dErrors.Is(err, dErrors.CodeForbidden))
	})
	s.Run("approver may not submit", func() {
		err := Check(ActionSubmit, id.RoleApprover, Guard{Completion: 100, Consent: true})
		s.True(dErrors.Is(err, dErrors.CodeForbidden))
	})
}

func (s *MachineSuite) TestConsentRules() {
	s.Run("first officer action requires consent", func() {
		err := Check(ActionSubmit, id.RoleOfficer, Guard{Completion: 100})
		s.True(dErrors.Is(err, dErrors.CodeValidation))
	})
	s.Run("consent is locked once the timeline is non-empty", func() {
		err := Check(ActionResubmit, id.RoleOfficer, Guard{
			Timeline:          Timeline{event(ActionSubmit), event(ActionReturn)},
			Completion:        100,
			HasDocumentNumber: true,
		})
		s.NoError(err)
	})
	s.Run("approver actions need no consent", func() {
		err := Check(ActionReturn, id.RoleApprover, Guard{
			Timeline: Timeline{event(ActionSubmit)},
		})
		s.NoError(err)
	})
}

func (s *MachineSuite) TestTimelineStatusDerivation() {
	s.Equal(StatusNone, Timeline{}.Status())
	s.Equal(StatusSubmitted, Timeline{event(ActionSubmit)}.Status())
	s.Equal(StatusReturned, Timeline{event(ActionSubmit), event(ActionReturn)}.Status())
	s.Equal(StatusResubmitted, Timeline{event(ActionSubmit), event(ActionReturn), event(ActionResubmit)}.Status())
	s.Equal(StatusApproved, Timeline{event(ActionSubmit), event(ActionApprove)}.Status())
}

func (s *MachineSuite) TestRemarkRules() {
	s.NoError(ValidateRemarks("Verified against service record (file 12/2026)."))
	s.True(dErrors.Is(ValidateRemarks("ok"), dErrors.CodeValidation), "too short")
	s.True(dErrors.Is(ValidateRemarks(string(make([]byte, 151))), dErrors.CodeValidation), "too long")
	s.True(dErrors.Is(ValidateRemarks("looks fine; approving"), dErrors.CodeValidation), "semicolon is outside the charset")
	s.True(dErrors.Is(ValidateRemarks("approved <script>"), dErrors.CodeValidation), "angle brackets rejected")
}
