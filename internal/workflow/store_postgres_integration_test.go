//go:build integration

package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	id "servicebook/pkg/domain"
	"servicebook/pkg/platform/sentinel"
	"servicebook/pkg/testutil/containers"
)

type PostgresWorkflowSuite struct {
	suite.Suite

	pg        *containers.PostgresContainer
	store     *PostgresStore
	officerID id.OfficerID
}

func TestPostgresWorkflowSuite(t *testing.T) {
	suite.Run(t, new(PostgresWorkflowSuite))
}

func (s *PostgresWorkflowSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	s.store = NewPostgres(s.pg.DB)
}

func (s *PostgresWorkflowSuite) SetupTest() {
	s.officerID = id.OfficerID(uuid.New())
	s.Require().NoError(s.pg.Truncate(context.Background(), "status_events", "officers"))
}

func (s *PostgresWorkflowSuite) event(action Action, docNumber id.DocumentNumber) StatusEvent {
	return StatusEvent{
		Action:         action,
		ActorRole:      action.Role(),
		ActorName:      "A Sharma",
		DocumentNumber: docNumber,
		EventTime:      time.Now().UTC().Truncate(time.Microsecond),
	}
}

func (s *PostgresWorkflowSuite) TestAppendLocksConsentAndSetsCurrent() {
	ctx := context.Background()
	docNumber := id.NewDocumentNumber(time.Now())

	s.Require().NoError(s.store.Append(ctx, s.officerID, s.event(ActionSubmit, docNumber)))

	timeline, err := s.store.Timeline(ctx, s.officerID)
	s.Require().NoError(err)
	s.Require().Len(timeline, 1)
	s.True(timeline[0].Current)
	s.Equal(docNumber, timeline[0].DocumentNumber)
	s.Equal(StatusSubmitted, timeline.Status())

	locked, err := s.store.ConsentLocked(ctx, s.officerID)
	s.Require().NoError(err)
	s.True(locked)
}

func (s *PostgresWorkflowSuite) TestOnlyLatestEventIsCurrent() {
	ctx := context.Background()
	docNumber := id.NewDocumentNumber(time.Now())

	s.Require().NoError(s.store.Append(ctx, s.officerID, s.event(ActionSubmit, docNumber)))
	s.Require().NoError(s.store.Append(ctx, s.officerID, s.event(ActionReturn, docNumber)))

	timeline, err := s.store.Timeline(ctx, s.officerID)
	s.Require().NoError(err)
	s.Require().Len(timeline, 2)
	s.False(timeline[0].Current)
	s.True(timeline[1].Current)
	s.Equal(StatusReturned, timeline.Status())
}

func (s *PostgresWorkflowSuite) TestOriginalDocumentNumberIsFirstSubmission() {
	ctx := context.Background()
	original := id.NewDocumentNumber(time.Now())

	s.Require().NoError(s.store.Append(ctx, s.officerID, s.event(ActionSubmit, original)))
	s.Require().NoError(s.store.Append(ctx, s.officerID, s.event(ActionReturn, original)))
	s.Require().NoError(s.store.Append(ctx, s.officerID, s.event(ActionResubmit, original)))

	got, err := s.store.OriginalDocumentNumber(ctx, s.officerID)
	s.Require().NoError(err)
	s.Equal(original, got)
}

func (s *PostgresWorkflowSuite) TestOriginalDocumentNumberMissing() {
	_, err := s.store.OriginalDocumentNumber(context.Background(), s.officerID)
	s.True(errors.Is(err, sentinel.ErrNotFound))
}

func (s *PostgresWorkflowSuite) TestConsentUnlockedForUnknownOfficer() {
	locked, err := s.store.ConsentLocked(context.Background(), s.officerID)
	s.Require().NoError(err)
	s.False(locked)
}
