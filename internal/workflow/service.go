package workflow

import (
	"context"
	"errors"
	"log/slog"

	"servicebook/internal/audit"
	"servicebook/internal/platform/metrics"
	"servicebook/internal/signing"
	id "servicebook/pkg/domain"
	dErrors "servicebook/pkg/domain-errors"
	"servicebook/pkg/platform/sentinel"
	"servicebook/pkg/requestcontext"
)

// Profiles supplies the completion percentage the submit/resubmit gates need.
type Profiles interface {
	Completion(ctx context.Context, officerID id.OfficerID) (int, error)
}

// Auditor records workflow outcomes.
type Auditor interface {
	Emit(ctx context.Context, event audit.Event) error
}

// TransitionRequest carries one transition attempt. The actor's role and name
// come from the request context, not the payload.
type TransitionRequest struct {
	OfficerID id.OfficerID
	Action    Action
	Remarks   string
	Consent   bool
	Phone     string
}

// CompleteRequest finishes a transition started by Initiate: the actor has
// received the one-time code bound by the otp id.
type CompleteRequest struct {
	TransitionRequest

	OTPID string
	Code  string
}

// Service drives the submission state machine. Every transition is validated
// locally first and then gated by the full signing protocol; the timeline
// changes only when the protocol's final step succeeds.
type Service struct {
	store    Store
	profiles Profiles
	saga     *signing.Saga
	auditor  Auditor
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func New(store Store, profiles Profiles, saga *signing.Saga, auditor Auditor, m *metrics.Metrics, logger *slog.Logger) (*Service, error) {
	if store == nil {
		return nil, errors.New("workflow store is required")
	}
	if profiles == nil {
		return nil, errors.New("profile source is required")
	}
	if saga == nil {
		return nil, errors.New("signing saga is required")
	}
	return &Service{store: store, profiles: profiles, saga: saga, auditor: auditor, metrics: m, logger: logger}, nil
}

// Timeline returns the officer's status history.
func (s *Service) Timeline(ctx context.Context, officerID id.OfficerID) (Timeline, error) {
	return s.store.Timeline(ctx, officerID)
}

// Initiate validates a transition attempt and, when the attempt is allowed,
// binds a one-time code to the actor. Returns the otp id the actor echoes
// back to Complete. Nothing here touches the timeline.
func (s *Service) Initiate(ctx context.Context, req TransitionRequest) (string, error) {
	if _, err := s.validate(ctx, req); err != nil {
		s.countTransition(req.Action, "rejected")
		return "", err
	}

	otpID, err := s.saga.RequestOTP(ctx, s.actor(ctx, req))
	if err != nil {
		s.countTransition(req.Action, "failed")
		return "", err
	}
	return otpID, nil
}

// Complete re-validates the attempt and runs the remainder of the signing
// protocol. The status event is appended only as the protocol's final step.
func (s *Service) Complete(ctx context.Context, req CompleteRequest) (signing.Result, error) {
	docNumber, err := s.validate(ctx, req.TransitionRequest)
	if err != nil {
		s.countTransition(req.Action, "rejected")
		return signing.Result{}, err
	}

	actor := s.actor(ctx, req.TransitionRequest)
	result, err := s.saga.Complete(ctx, signing.Input{
		OfficerID:      req.OfficerID,
		Actor:          actor,
		Action:         req.Action.String(),
		DocumentNumber: docNumber,
		Reason:         reason(req.Action),
		OTPID:          req.OTPID,
		Code:           req.Code,
		Transition: func(ctx context.Context) error {
			return s.store.Append(ctx, req.OfficerID, StatusEvent{
				Action:         req.Action,
				ActorRole:      actor.Role,
				ActorName:      actor.Name,
				Remarks:        req.Remarks,
				DocumentNumber: docNumber,
				EventTime:      requestcontext.Now(ctx),
			})
		},
	})
	if err != nil {
		s.countTransition(req.Action, "failed")
		s.emit(ctx, req.OfficerID, audit.ActionSigningAborted, string(result.FailedStep))
		return result, err
	}

	s.countTransition(req.Action, "success")
	s.emit(ctx, req.OfficerID, auditAction(req.Action), req.Remarks)
	return result, nil
}

// validate runs every local precondition and resolves the document number
// the rendered artifact is issued under: fresh for a first submission, the
// original submission's number for everything after.
func (s *Service) validate(ctx context.Context, req TransitionRequest) (id.DocumentNumber, error) {
	role := requestcontext.ActorRole(ctx)
	if !role.IsValid() {
		return "", dErrors.New(dErrors.CodeUnauthorized, "request carries no actor role")
	}

	if req.Action.Role() == id.RoleApprover {
		if err := ValidateRemarks(req.Remarks); err != nil {
			return "", err
		}
	} else if req.Remarks != "" {
		if err := ValidateRemarks(req.Remarks); err != nil {
			return "", err
		}
	}

	timeline, err := s.store.Timeline(ctx, req.OfficerID)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "load status timeline")
	}

	completion := 100
	if req.Action == ActionSubmit || req.Action == ActionResubmit {
		completion, err = s.profiles.Completion(ctx, req.OfficerID)
		if err != nil {
			return "", err
		}
	}

	consent := req.Consent
	if !consent {
		locked, err := s.store.ConsentLocked(ctx, req.OfficerID)
		if err != nil {
			return "", dErrors.Wrap(err, dErrors.CodeInternal, "load consent state")
		}
		consent = locked
	}

	docNumber, err := s.store.OriginalDocumentNumber(ctx, req.OfficerID)
	hasDocNumber := err == nil
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "resolve original document number")
	}

	if err := Check(req.Action, role, Guard{
		Timeline:          timeline,
		Completion:        completion,
		Consent:           consent,
		HasDocumentNumber: hasDocNumber,
	}); err != nil {
		return "", err
	}

	if req.Action == ActionSubmit {
		return id.NewDocumentNumber(requestcontext.Now(ctx)), nil
	}
	return docNumber, nil
}

func (s *Service) actor(ctx context.Context, req TransitionRequest) signing.Actor {
	return signing.Actor{
		Phone: req.Phone,
		Name:  requestcontext.ActorName(ctx),
		Role:  requestcontext.ActorRole(ctx),
	}
}

func (s *Service) countTransition(action Action, outcome string) {
	if s.metrics != nil {
		s.metrics.WorkflowTransitions.WithLabelValues(action.String(), outcome).Inc()
	}
}

func (s *Service) emit(ctx context.Context, officerID id.OfficerID, action audit.Action, reason string) {
	if s.auditor == nil {
		return
	}
	event := audit.Event{OfficerID: officerID, Action: action, Reason: reason}
	if err := s.auditor.Emit(ctx, event); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", string(action), "error", err.Error())
	}
}

func reason(action Action) string {
	switch action {
	case ActionSubmit:
		return "Service book submission"
	case ActionResubmit:
		return "Service book resubmission"
	case ActionApprove:
		return "Service book approval"
	case ActionReturn:
		return "Service book returned for correction"
	}
	return "Service book transition"
}

func auditAction(action Action) audit.Action {
	switch action {
	case ActionSubmit:
		return audit.ActionProfileSubmitted
	case ActionResubmit:
		return audit.ActionProfileResubmitted
	case ActionApprove:
		return audit.ActionProfileApproved
	default:
		return audit.ActionProfileReturned
	}
}
