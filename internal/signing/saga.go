// Package signing runs the eight-step signing protocol that gates every
// workflow transition: OTP issue, OTP verify, render, upload, sign, fetch the
// signed binary, persist it, and finally the status transition. The sequence
// is strict and non-resumable; any failure before the final step leaves the
// status timeline untouched.
package signing

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"servicebook/internal/platform/metrics"
	id "servicebook/pkg/domain"
	dErrors "servicebook/pkg/domain-errors"
	"servicebook/pkg/platform/sentinel"
)

// Step identifies one protocol step.
type Step string

const (
	StepRequestOTP Step = "request_otp"
	StepVerifyOTP  Step = "verify_otp"
	StepRender     Step = "render"
	StepUpload     Step = "upload"
	StepSign       Step = "sign"
	StepFetch      Step = "fetch_signed"
	StepPersist    Step = "persist_signed"
	StepTransition Step = "status_transition"
)

// StepEvent is delivered to the observer after every step attempt. It is the
// single integration point for transports that surface step progress.
type StepEvent struct {
	Step     Step
	Err      error
	Duration time.Duration
}

// Observer receives step transitions. A nil observer is allowed.
type Observer func(event StepEvent)

// Actor identifies who is signing.
type Actor struct {
	Phone string
	Name  string
	Role  id.ActorRole
}

// OTPClient binds and verifies one-time codes.
type OTPClient interface {
	Request(ctx context.Context, actor Actor) (string, error)
	Verify(ctx context.Context, otpID, code, actorName string) error
}

// Renderer builds the unsigned PDF for an officer under a document number.
type Renderer interface {
	Render(ctx context.Context, officerID id.OfficerID, docNumber id.DocumentNumber) ([]byte, error)
}

// Documents is the external document store boundary.
type Documents interface {
	Upload(ctx context.Context, content []byte) (string, error)
	Fetch(ctx context.Context, docID string) ([]byte, error)
	PersistSigned(ctx context.Context, ref SignedRef, content []byte) error
}

// SignedRef keys a persisted signed artifact.
type SignedRef struct {
	Action         string
	DocumentNumber id.DocumentNumber
	OfficerID      id.OfficerID
}

// Signer is the external signing authority boundary. Sign must return nil
// only on an explicit signed confirmation; a timeout surfaces as
// sentinel.ErrSignTimeout.
type Signer interface {
	Sign(ctx context.Context, docID, otpID, actorName, reason string) error
}

// Input drives one completion run (steps 2 through 8). The OTP id comes from
// a prior RequestOTP call; the code is supplied by the actor out of band.
type Input struct {
	OfficerID      id.OfficerID
	Actor          Actor
	Action         string
	DocumentNumber id.DocumentNumber
	Reason         string

	OTPID string
	Code  string

	// Transition appends the status event. It is the only step with a
	// side effect on the timeline and runs last.
	Transition func(ctx context.Context) error
}

// Result reports how far a run got. On failure after the upload step the
// produced artifacts are orphaned; there is no compensating cleanup.
type Result struct {
	DocID      string
	Uploaded   bool
	Signed     bool
	FailedStep Step
}

// Orphaned reports whether a failed run left artifacts behind in the
// document store or at the signing authority.
func (r Result) Orphaned() bool {
	return r.FailedStep != "" && r.Uploaded
}

type Saga struct {
	otp      OTPClient
	renderer Renderer
	docs     Documents
	signer   Signer
	observer Observer
	metrics  *metrics.Metrics
	logger   *slog.Logger
	tracer   trace.Tracer
}

func New(otp OTPClient, renderer Renderer, docs Documents, signer Signer, observer Observer, m *metrics.Metrics, logger *slog.Logger) (*Saga, error) {
	if otp == nil || renderer == nil || docs == nil || signer == nil {
		return nil, errors.New("otp, renderer, document and signer clients are required")
	}
	return &Saga{
		otp:      otp,
		renderer: renderer,
		docs:     docs,
		signer:   signer,
		observer: observer,
		metrics:  m,
		logger:   logger,
		tracer:   otel.Tracer("servicebook/signing"),
	}, nil
}

// RequestOTP runs the first protocol step: bind a one-time code to the actor.
// The returned otp id must be echoed back to Complete together with the code.
func (s *Saga) RequestOTP(ctx context.Context, actor Actor) (string, error) {
	var otpID string
	err := s.step(ctx, StepRequestOTP, func(ctx context.Context) error {
		requested, err := s.otp.Request(ctx, actor)
		if err != nil {
			return err
		}
		otpID = requested
		return nil
	})
	if err != nil {
		return "", err
	}
	return otpID, nil
}

// Complete runs steps 2 through 8 in order. Any failure aborts the remainder
// of the sequence; the returned Result records the failed step and whether
// artifacts were orphaned.
func (s *Saga) Complete(ctx context.Context, in Input) (Result, error) {
	var result Result

	if in.Transition == nil {
		return result, dErrors.New(dErrors.CodeInternal, "signing run is missing a transition callback")
	}

	ctx, span := s.tracer.Start(ctx, "signing.complete", trace.WithAttributes(
		attribute.String("workflow.action", in.Action),
		attribute.String("document.number", in.DocumentNumber.String()),
	))
	defer span.End()

	if err := s.step(ctx, StepVerifyOTP, func(ctx context.Context) error {
		return s.otp.Verify(ctx, in.OTPID, in.Code, in.Actor.Name)
	}); err != nil {
		result.FailedStep = StepVerifyOTP
		return result, err
	}

	var unsigned []byte
	if err := s.step(ctx, StepRender, func(ctx context.Context) error {
		rendered, err := s.renderer.Render(ctx, in.OfficerID, in.DocumentNumber)
		if err != nil {
			return err
		}
		unsigned = rendered
		return nil
	}); err != nil {
		result.FailedStep = StepRender
		return result, err
	}

	if err := s.step(ctx, StepUpload, func(ctx context.Context) error {
		docID, err := s.docs.Upload(ctx, unsigned)
		if err != nil {
			return err
		}
		result.DocID = docID
		result.Uploaded = true
		return nil
	}); err != nil {
		result.FailedStep = StepUpload
		return result, err
	}

	if err := s.step(ctx, StepSign, func(ctx context.Context) error {
		return s.signer.Sign(ctx, result.DocID, in.OTPID, in.Actor.Name, in.Reason)
	}); err != nil {
		result.FailedStep = StepSign
		s.logOrphan(ctx, in, result)
		return result, err
	}
	result.Signed = true

	var signed []byte
	if err := s.step(ctx, StepFetch, func(ctx context.Context) error {
		content, err := s.docs.Fetch(ctx, result.DocID)
		if err != nil {
			return err
		}
		signed = content
		return nil
	}); err != nil {
		result.FailedStep = StepFetch
		s.logOrphan(ctx, in, result)
		return result, err
	}

	if err := s.step(ctx, StepPersist, func(ctx context.Context) error {
		return s.docs.PersistSigned(ctx, SignedRef{
			Action:         in.Action,
			DocumentNumber: in.DocumentNumber,
			OfficerID:      in.OfficerID,
		}, signed)
	}); err != nil {
		result.FailedStep = StepPersist
		s.logOrphan(ctx, in, result)
		return result, err
	}

	if err := s.step(ctx, StepTransition, in.Transition); err != nil {
		result.FailedStep = StepTransition
		s.logOrphan(ctx, in, result)
		return result, err
	}
	return result, nil
}

func (s *Saga) step(ctx context.Context, step Step, fn func(ctx context.Context) error) error {
	ctx, span := s.tracer.Start(ctx, "signing."+string(step))
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)

	if s.metrics != nil {
		s.metrics.SigningStepDuration.WithLabelValues(string(step)).Observe(elapsed.Seconds())
		if err != nil {
			s.metrics.SigningStepFailures.WithLabelValues(string(step), failureClass(err)).Inc()
		}
	}
	if s.observer != nil {
		s.observer(StepEvent{Step: step, Err: err, Duration: elapsed})
	}
	if err != nil {
		span.RecordError(err)
	}
	return err
}

// logOrphan records that artifacts were produced by a run that then failed.
// The document cannot be un-uploaded or un-signed.
func (s *Saga) logOrphan(ctx context.Context, in Input, result Result) {
	if s.logger == nil || !result.Uploaded {
		return
	}
	s.logger.WarnContext(ctx, "signing run failed after producing artifacts",
		"failed_step", string(result.FailedStep),
		"doc_id", result.DocID,
		"signed", result.Signed,
		"document_number", in.DocumentNumber.String(),
	)
}

// failureClass buckets step failures for metrics: a signing timeout is a
// distinct class because the authority's own state is unknown after one.
func failureClass(err error) string {
	if errors.Is(err, sentinel.ErrSignTimeout) || dErrors.Is(err, dErrors.CodeTimeout) {
		return "timeout"
	}
	if dErrors.Is(err, dErrors.CodeExternalService) || errors.Is(err, sentinel.ErrUnavailable) {
		return "unavailable"
	}
	return "rejected"
}
