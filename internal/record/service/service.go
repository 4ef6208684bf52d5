// Package service owns record mutations: create with the save-time duplicate
// check, update through the field source resolver, the deletion guard, and
// canonical listing via the reconciliation engine.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"servicebook/internal/audit"
	"servicebook/internal/platform/metrics"
	"servicebook/internal/record"
	"servicebook/internal/record/store"
	id "servicebook/pkg/domain"
	dErrors "servicebook/pkg/domain-errors"
	"servicebook/pkg/platform/sentinel"
)

// Registry is the read-only snapshot source.
type Registry interface {
	Snapshot(ctx context.Context, officerID id.OfficerID, category id.Category) ([]record.RawExternal, error)
}

// Auditor records what happened. Append failures must not fail the save.
type Auditor interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	store    store.Store
	registry Registry
	auditor  Auditor
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func New(st store.Store, registry Registry, auditor Auditor, m *metrics.Metrics, logger *slog.Logger) (*Service, error) {
	if st == nil {
		return nil, errors.New("record store is required")
	}
	if registry == nil {
		return nil, errors.New("registry client is required")
	}
	return &Service{store: st, registry: registry, auditor: auditor, metrics: m, logger: logger}, nil
}

// List returns the canonical, deduplicated record list for one category:
// registry snapshot merged with persisted records.
func (s *Service) List(ctx context.Context, officerID id.OfficerID, category id.Category) ([]record.Record, error) {
	start := time.Now()

	snapshot, err := s.registry.Snapshot(ctx, officerID, category)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			// Officer unknown to the registry: purely local profile.
			snapshot = nil
		} else {
			return nil, dErrors.Wrap(err, dErrors.CodeExternalService, "registry snapshot unavailable")
		}
	}

	rows, err := s.store.ListByOfficer(ctx, officerID, category)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load persisted records")
	}
	persisted := make([]record.RawPersisted, 0, len(rows))
	for _, row := range rows {
		persisted = append(persisted, row.Raw())
	}

	canonical := record.Reconcile(category, snapshot, persisted)
	if s.metrics != nil {
		s.metrics.ReconcileRuns.WithLabelValues(category.String()).Inc()
		s.metrics.ReconcileDuration.WithLabelValues(category.String()).Observe(time.Since(start).Seconds())
	}
	return canonical, nil
}

// Create persists a brand-new record. The duplicate check runs before any
// store write and before any network call: a colliding identifying tuple is
// rejected with CodeDuplicateRecord and produces no create call.
func (s *Service) Create(ctx context.Context, officerID id.OfficerID, category id.Category, fields map[string]string, actor record.Source) (record.Record, error) {
	if err := validateFields(category, fields); err != nil {
		return record.Record{}, err
	}

	rec := record.Record{
		Category: category,
		Fields:   copyFields(fields),
		Sources:  make(map[string]record.Source, len(fields)),
	}
	for name := range rec.Fields {
		rec.Sources[name] = actorSource(actor)
	}

	exists, err := s.store.DedupKeyExists(ctx, officerID, category, rec.DedupKey(), 0)
	if err != nil {
		return record.Record{}, dErrors.Wrap(err, dErrors.CodeInternal, "duplicate check")
	}
	if exists {
		if s.metrics != nil {
			s.metrics.DuplicateRejected.WithLabelValues(category.String()).Inc()
		}
		s.emit(ctx, officerID, category, "", audit.ActionDuplicateRejected)
		return record.Record{}, dErrors.New(dErrors.CodeDuplicateRecord, "a record with the same identifying details already exists")
	}

	row := store.Persisted{
		OfficerID:      officerID,
		Category:       category,
		FieldsBySource: rec.AsPersisted().FieldsBySource,
		DedupKey:       rec.DedupKey(),
	}
	recordID, err := s.store.Create(ctx, row)
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return record.Record{}, dErrors.New(dErrors.CodeDuplicateRecord, "a record with the same identifying details already exists")
		}
		return record.Record{}, dErrors.Wrap(err, dErrors.CodeInternal, "create record")
	}

	rec.Identity = record.PersistedIdentity(recordID)
	rec.Persisted = true
	if s.metrics != nil {
		s.metrics.RecordsSaved.WithLabelValues(category.String()).Inc()
	}
	s.emit(ctx, officerID, category, rec.Identity.String(), audit.ActionRecordCreated)
	return rec, nil
}

// Update saves an edit of an existing record. Provenance is recomputed by the
// field source resolver so an explicit edit is never shown as registry data.
func (s *Service) Update(ctx context.Context, officerID id.OfficerID, category id.Category, recordID int64, saved map[string]string, edited []string, actor record.Source) (record.Record, error) {
	if err := validateFields(category, saved); err != nil {
		return record.Record{}, err
	}

	row, err := s.store.Get(ctx, officerID, category, recordID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return record.Record{}, dErrors.New(dErrors.CodeNotFound, "record not found")
		}
		return record.Record{}, dErrors.Wrap(err, dErrors.CodeInternal, "load record")
	}
	prior := priorView(category, row)

	editedSet := make(map[string]bool, len(edited))
	for _, name := range edited {
		editedSet[name] = true
	}

	rec := record.Record{
		Identity: record.PersistedIdentity(recordID),
		Category: category,
		Fields:   copyFields(saved),
		Sources: record.ResolveSources(record.Edit{
			Saved:        saved,
			Edited:       editedSet,
			PriorValues:  prior.Fields,
			PriorSources: prior.Sources,
			Registry:     s.registryPayload(ctx, officerID, category, prior),
			Actor:        actorSource(actor),
		}),
		Persisted: true,
	}

	row.FieldsBySource = rec.AsPersisted().FieldsBySource
	row.DedupKey = rec.DedupKey()
	if err := s.store.Update(ctx, row); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return record.Record{}, dErrors.New(dErrors.CodeDuplicateRecord, "a record with the same identifying details already exists")
		}
		return record.Record{}, dErrors.Wrap(err, dErrors.CodeInternal, "update record")
	}

	if s.metrics != nil {
		s.metrics.RecordsSaved.WithLabelValues(category.String()).Inc()
	}
	s.emit(ctx, officerID, category, rec.Identity.String(), audit.ActionRecordUpdated)
	return rec, nil
}

// Delete removes a record. Records carrying any REGISTRY-sourced field are
// never hard-deleted.
func (s *Service) Delete(ctx context.Context, officerID id.OfficerID, category id.Category, recordID int64) error {
	row, err := s.store.Get(ctx, officerID, category, recordID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "record not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "load record")
	}
	if priorView(category, row).HasRegistryField() {
		return dErrors.New(dErrors.CodeValidation, "records with registry-sourced fields cannot be deleted")
	}
	if err := s.store.Delete(ctx, officerID, category, recordID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "delete record")
	}
	s.emit(ctx, officerID, category, record.PersistedIdentity(recordID).String(), audit.ActionRecordDeleted)
	return nil
}

// registryPayload finds the snapshot entry matching the record being saved so
// the resolver can re-tag untouched registry-equal fields. A registry outage
// degrades to "no payload": the save still succeeds, rule 2 just cannot fire.
func (s *Service) registryPayload(ctx context.Context, officerID id.OfficerID, category id.Category, prior record.Record) map[string]string {
	snapshot, err := s.registry.Snapshot(ctx, officerID, category)
	if err != nil {
		if s.logger != nil && !errors.Is(err, sentinel.ErrNotFound) {
			s.logger.WarnContext(ctx, "registry unavailable during save; keeping prior provenance",
				"category", category.String(), "error", err.Error())
		}
		return nil
	}
	spec := record.Spec(category)
	key := prior.DedupKey()
	for _, raw := range snapshot {
		candidate := record.Record{Category: category, Fields: spec.CanonicalFields(raw.Fields)}
		if candidate.DedupKey() == key {
			return candidate.Fields
		}
	}
	return nil
}

func priorView(category id.Category, row store.Persisted) record.Record {
	recs := record.Reconcile(category, nil, []record.RawPersisted{row.Raw()})
	if len(recs) == 0 {
		return record.Record{Category: category, Fields: map[string]string{}, Sources: map[string]record.Source{}}
	}
	return recs[0]
}

func validateFields(category id.Category, fields map[string]string) error {
	if !category.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "invalid category: "+category.String())
	}
	if len(fields) == 0 {
		return dErrors.New(dErrors.CodeValidation, "no fields supplied")
	}
	for _, required := range record.Spec(category).RequiredFields {
		if record.Normalize(fields[required]) == "" {
			return dErrors.New(dErrors.CodeValidation, "missing required field: "+required)
		}
	}
	return nil
}

func actorSource(actor record.Source) record.Source {
	if actor == record.SourceApprover {
		return record.SourceApprover
	}
	return record.SourceUser
}

func copyFields(fields map[string]string) map[string]string {
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}

func (s *Service) emit(ctx context.Context, officerID id.OfficerID, category id.Category, identity string, action audit.Action) {
	if s.auditor == nil {
		return
	}
	event := audit.Event{
		OfficerID:      officerID,
		Action:         action,
		Category:       category,
		RecordIdentity: identity,
	}
	if err := s.auditor.Emit(ctx, event); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", string(action), "error", err.Error())
	}
}
