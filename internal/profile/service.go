package profile

import (
	"context"
	"errors"
	"log/slog"

	"servicebook/internal/record"
	"servicebook/internal/workflow"
	id "servicebook/pkg/domain"
	dErrors "servicebook/pkg/domain-errors"
	"servicebook/pkg/platform/sentinel"
)

// Registry supplies the personal-data section.
type Registry interface {
	Personal(ctx context.Context, officerID id.OfficerID) (map[string]string, error)
}

// Records supplies the canonical record list per category.
type Records interface {
	List(ctx context.Context, officerID id.OfficerID, category id.Category) ([]record.Record, error)
}

// Timelines supplies the workflow history and consent state.
type Timelines interface {
	Timeline(ctx context.Context, officerID id.OfficerID) (workflow.Timeline, error)
	ConsentLocked(ctx context.Context, officerID id.OfficerID) (bool, error)
}

type Service struct {
	registry  Registry
	records   Records
	timelines Timelines
	logger    *slog.Logger
}

func New(registry Registry, records Records, timelines Timelines, logger *slog.Logger) (*Service, error) {
	if registry == nil || records == nil || timelines == nil {
		return nil, errors.New("registry, record and timeline sources are required")
	}
	return &Service{registry: registry, records: records, timelines: timelines, logger: logger}, nil
}

// Fetch assembles the composite profile for one officer.
func (s *Service) Fetch(ctx context.Context, officerID id.OfficerID) (Profile, error) {
	personal, err := s.registry.Personal(ctx, officerID)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			return Profile{}, dErrors.Wrap(err, dErrors.CodeExternalService, "registry personal data unavailable")
		}
		personal = map[string]string{}
	}

	records := make(map[id.Category][]record.Record, len(id.Categories()))
	for _, category := range id.Categories() {
		listed, err := s.records.List(ctx, officerID, category)
		if err != nil {
			return Profile{}, err
		}
		records[category] = listed
	}

	timeline, err := s.timelines.Timeline(ctx, officerID)
	if err != nil {
		return Profile{}, dErrors.Wrap(err, dErrors.CodeInternal, "load status timeline")
	}
	locked, err := s.timelines.ConsentLocked(ctx, officerID)
	if err != nil {
		return Profile{}, dErrors.Wrap(err, dErrors.CodeInternal, "load consent state")
	}

	return Profile{
		OfficerID:     officerID,
		Personal:      personal,
		Records:       records,
		Timeline:      timeline,
		Status:        timeline.Status(),
		ConsentLocked: locked,
		Completion:    Completeness(personal, records),
	}, nil
}

// Completion returns only the completion percentage. Used by the workflow
// gates, which do not need the full composite view.
func (s *Service) Completion(ctx context.Context, officerID id.OfficerID) (int, error) {
	p, err := s.Fetch(ctx, officerID)
	if err != nil {
		return 0, err
	}
	return p.Completion, nil
}
