package session

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	id "servicebook/pkg/domain"
	dErrors "servicebook/pkg/domain-errors"
	"servicebook/pkg/requestcontext"
)

type SessionSuite struct {
	suite.Suite

	service *Service
}

func TestSessionSuite(t *testing.T) {
	suite.Run(t, new(SessionSuite))
}

func (s *SessionSuite) SetupTest() {
	svc, err := NewService(NewInMemoryStore())
	s.Require().NoError(err)
	s.service = svc
}

func (s *SessionSuite) TestStartGetEndLifecycle() {
	officerID := id.OfficerID(uuid.New())
	ctx := context.Background()

	started, err := s.service.Start(ctx, officerID, id.RoleOfficer, "A Sharma", "9876543210")
	s.Require().NoError(err)
	s.False(started.ID.IsNil())
	s.Equal(officerID, started.OfficerID)

	loaded, err := s.service.Get(ctx, started.ID)
	s.Require().NoError(err)
	s.Equal(started, loaded)

	s.Require().NoError(s.service.End(ctx, started.ID))

	_, err = s.service.Get(ctx, started.ID)
	s.True(dErrors.Is(err, dErrors.CodeUnauthorized))
}

func (s *SessionSuite) TestExpiredSessionIsCleared() {
	ctx := context.Background()
	started, err := s.service.Start(ctx, id.OfficerID(uuid.New()), id.RoleApprover, "R Verma", "")
	s.Require().NoError(err)

	later := requestcontext.WithTime(ctx, time.Now().Add(TTL+time.Minute))
	_, err = s.service.Get(later, started.ID)
	s.True(dErrors.Is(err, dErrors.CodeUnauthorized))

	// Cleared on first expired read, not just rejected.
	_, err = s.service.Get(ctx, started.ID)
	s.True(dErrors.Is(err, dErrors.CodeUnauthorized))
}

func (s *SessionSuite) TestStartRejectsInvalidInput() {
	ctx := context.Background()

	_, err := s.service.Start(ctx, id.OfficerID(uuid.New()), "auditor", "A Sharma", "")
	s.True(dErrors.Is(err, dErrors.CodeValidation))

	_, err = s.service.Start(ctx, id.OfficerID(uuid.New()), id.RoleOfficer, "", "")
	s.True(dErrors.Is(err, dErrors.CodeValidation))
}

func (s *SessionSuite) TestEndIsIdempotent() {
	ctx := context.Background()
	started, err := s.service.Start(ctx, id.OfficerID(uuid.New()), id.RoleOfficer, "A Sharma", "")
	s.Require().NoError(err)

	s.Require().NoError(s.service.End(ctx, started.ID))
	s.Require().NoError(s.service.End(ctx, started.ID))
}
