package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"servicebook/internal/audit"
	"servicebook/internal/record"
	"servicebook/internal/record/store"
	id "servicebook/pkg/domain"
	dErrors "servicebook/pkg/domain-errors"
	"servicebook/pkg/platform/sentinel"
)

type fakeRegistry struct {
	entries map[id.Category][]record.RawExternal
	err     error
	calls   int
}

func (f *fakeRegistry) Snapshot(_ context.Context, _ id.OfficerID, category id.Category) ([]record.RawExternal, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.entries[category], nil
}

// countingStore tracks write calls so tests can assert a rejected duplicate
// never reaches Create.
type countingStore struct {
	store.Store
	creates int
}

func (c *countingStore) Create(ctx context.Context, row store.Persisted) (int64, error) {
	c.creates++
	return c.Store.Create(ctx, row)
}

type fakeAuditor struct {
	events []audit.Event
}

func (f *fakeAuditor) Emit(_ context.Context, event audit.Event) error {
	f.events = append(f.events, event)
	return nil
}

type ServiceSuite struct {
	suite.Suite

	officerID id.OfficerID
	store     *countingStore
	registry  *fakeRegistry
	auditor   *fakeAuditor
	service   *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.officerID = id.OfficerID(uuid.New())
	s.store = &countingStore{Store: store.NewInMemoryStore()}
	s.registry = &fakeRegistry{entries: map[id.Category][]record.RawExternal{}}
	s.auditor = &fakeAuditor{}

	svc, err := New(s.store, s.registry, s.auditor, nil, nil)
	s.Require().NoError(err)
	s.service = svc
}

func (s *ServiceSuite) awardFields(name string) map[string]string {
	return map[string]string{
		"rew_name":   name,
		"rew_office": "District Office",
		"rew_date":   "2020-01-15",
	}
}

func (s *ServiceSuite) TestCreatePersistsWithActorProvenance() {
	rec, err := s.service.Create(context.Background(), s.officerID, id.CategoryAward, s.awardFields("Gallantry Medal"), record.SourceUser)
	s.Require().NoError(err)

	s.True(rec.Persisted)
	s.False(rec.Identity.IsSynthetic())
	for name := range rec.Fields {
		s.Equal(record.SourceUser, rec.Sources[name], name)
	}
	s.Require().Len(s.auditor.events, 1)
	s.Equal(audit.ActionRecordCreated, s.auditor.events[0].Action)
}

func (s *ServiceSuite) TestCreateRejectsMissingRequiredField() {
	fields := s.awardFields("Gallantry Medal")
	fields["rew_office"] = "   "

	_, err := s.service.Create(context.Background(), s.officerID, id.CategoryAward, fields, record.SourceUser)
	s.True(dErrors.Is(err, dErrors.CodeValidation))
	s.Zero(s.store.creates)
}

func (s *ServiceSuite) TestCreateDuplicateRejectedBeforeAnyWrite() {
	_, err := s.service.Create(context.Background(), s.officerID, id.CategoryAward, s.awardFields("Gallantry Medal"), record.SourceUser)
	s.Require().NoError(err)
	s.Equal(1, s.store.creates)

	// Normalization-equivalent tuple: differs only in case and spacing.
	dup := s.awardFields("  gallantry   MEDAL ")
	_, err = s.service.Create(context.Background(), s.officerID, id.CategoryAward, dup, record.SourceUser)
	s.True(dErrors.Is(err, dErrors.CodeDuplicateRecord))

	s.Equal(1, s.store.creates, "rejected duplicate must not reach the store create")

	s.Require().Len(s.auditor.events, 2)
	s.Equal(audit.ActionDuplicateRejected, s.auditor.events[1].Action)
}

func (s *ServiceSuite) TestApproverCreateTaggedApprover() {
	rec, err := s.service.Create(context.Background(), s.officerID, id.CategoryAward, s.awardFields("Service Medal"), record.SourceApprover)
	s.Require().NoError(err)
	s.Equal(record.SourceApprover, rec.Sources["rew_name"])
}

func (s *ServiceSuite) TestUpdateEditedFieldBecomesUserSourced() {
	s.registry.entries[id.CategoryAward] = []record.RawExternal{
		{Fields: map[string]string{
			"nature": "Gallantry Medal",
			"office": "District Office",
			"date":   "2020-01-15",
		}},
	}
	listed, err := s.service.List(context.Background(), s.officerID, id.CategoryAward)
	s.Require().NoError(err)
	s.Require().Len(listed, 1)
	s.Equal(record.SourceRegistry, listed[0].Sources["rew_name"])

	// Persist the registry entry untouched, then edit one field.
	created, err := s.service.Create(context.Background(), s.officerID, id.CategoryAward, listed[0].Fields, record.SourceUser)
	s.Require().NoError(err)
	storeID, ok := created.Identity.StoreID()
	s.Require().True(ok)

	saved := copyFields(created.Fields)
	saved["rew_name"] = "Gallantry Medal First Class"
	updated, err := s.service.Update(context.Background(), s.officerID, id.CategoryAward, storeID, saved, []string{"rew_name"}, record.SourceUser)
	s.Require().NoError(err)

	s.Equal(record.SourceUser, updated.Sources["rew_name"])
	s.Equal(record.SourceRegistry, updated.Sources["rew_office"], "untouched registry-equal field keeps registry provenance")
}

func (s *ServiceSuite) TestUpdateSurvivesRegistryOutage() {
	created, err := s.service.Create(context.Background(), s.officerID, id.CategoryAward, s.awardFields("Gallantry Medal"), record.SourceUser)
	s.Require().NoError(err)
	storeID, _ := created.Identity.StoreID()

	s.registry.err = sentinel.ErrUnavailable

	saved := copyFields(created.Fields)
	saved["rew_office"] = "State Office"
	updated, err := s.service.Update(context.Background(), s.officerID, id.CategoryAward, storeID, saved, []string{"rew_office"}, record.SourceUser)
	s.Require().NoError(err)
	s.Equal("State Office", updated.Fields["rew_office"])
}

func (s *ServiceSuite) TestUpdateUnknownRecord() {
	_, err := s.service.Update(context.Background(), s.officerID, id.CategoryAward, 999, s.awardFields("X Medal"), nil, record.SourceUser)
	s.True(dErrors.Is(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestDeleteGuardsRegistrySourcedRecords() {
	row := store.Persisted{
		OfficerID: s.officerID,
		Category:  id.CategoryAward,
		FieldsBySource: map[record.Source]map[string]string{
			record.SourceRegistry: {"rew_name": "Gallantry Medal", "rew_office": "District Office"},
		},
		DedupKey: "gallantry medal|district office|",
	}
	recordID, err := s.store.Create(context.Background(), row)
	s.Require().NoError(err)

	err = s.service.Delete(context.Background(), s.officerID, id.CategoryAward, recordID)
	s.True(dErrors.Is(err, dErrors.CodeValidation))

	_, err = s.store.Get(context.Background(), s.officerID, id.CategoryAward, recordID)
	s.NoError(err, "guarded record must still exist")
}

func (s *ServiceSuite) TestDeleteUserSourcedRecord() {
	created, err := s.service.Create(context.Background(), s.officerID, id.CategoryAward, s.awardFields("Gallantry Medal"), record.SourceUser)
	s.Require().NoError(err)
	storeID, _ := created.Identity.StoreID()

	s.Require().NoError(s.service.Delete(context.Background(), s.officerID, id.CategoryAward, storeID))

	_, err = s.store.Get(context.Background(), s.officerID, id.CategoryAward, storeID)
	s.True(errors.Is(err, sentinel.ErrNotFound))
}

func (s *ServiceSuite) TestListMergesSnapshotAndPersisted() {
	s.registry.entries[id.CategoryAward] = []record.RawExternal{
		{Fields: map[string]string{"nature": "Gallantry Medal", "office": "District Office", "date": "2020-01-15"}},
	}
	_, err := s.service.Create(context.Background(), s.officerID, id.CategoryAward, s.awardFields("Local Medal"), record.SourceUser)
	s.Require().NoError(err)

	listed, err := s.service.List(context.Background(), s.officerID, id.CategoryAward)
	s.Require().NoError(err)
	s.Len(listed, 2)
}

func (s *ServiceSuite) TestListOfficerUnknownToRegistry() {
	s.registry.err = sentinel.ErrNotFound

	_, err := s.service.Create(context.Background(), s.officerID, id.CategoryAward, s.awardFields("Local Medal"), record.SourceUser)
	s.Require().NoError(err)
	s.registry.err = sentinel.ErrNotFound

	listed, err := s.service.List(context.Background(), s.officerID, id.CategoryAward)
	s.Require().NoError(err)
	s.Len(listed, 1)
}

func (s *ServiceSuite) TestListRegistryOutageIsExternalServiceError() {
	s.registry.err = errors.New("dial tcp: connection refused")

	_, err := s.service.List(context.Background(), s.officerID, id.CategoryAward)
	s.True(dErrors.Is(err, dErrors.CodeExternalService))
}
