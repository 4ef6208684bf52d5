package handler

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"servicebook/internal/platform/middleware"
	"servicebook/internal/signing"
	"servicebook/internal/workflow"
	id "servicebook/pkg/domain"
	dErrors "servicebook/pkg/domain-errors"
	"servicebook/pkg/testutil"
)

const (
	officerToken  = "officer-token"
	approverToken = "approver-token"
)

type stubOTP struct {
	verifyErr error
}

func (f *stubOTP) Request(_ context.Context, _ signing.Actor) (string, error) {
	return "otp-1", nil
}

func (f *stubOTP) Verify(_ context.Context, _, _, _ string) error {
	return f.verifyErr
}

type stubRenderer struct{}

func (stubRenderer) Render(_ context.Context, _ id.OfficerID, _ id.DocumentNumber) ([]byte, error) {
	return []byte("%PDF-1.4"), nil
}

type stubDocs struct{}

func (stubDocs) Upload(_ context.Context, _ []byte) (string, error) { return "doc-1", nil }

func (stubDocs) Fetch(_ context.Context, _ string) ([]byte, error) { return []byte("%PDF-1.4"), nil }

func (stubDocs) PersistSigned(_ context.Context, _ signing.SignedRef, _ []byte) error { return nil }

type stubSigner struct{}

func (stubSigner) Sign(_ context.Context, _, _, _, _ string) error { return nil }

type stubProfiles struct {
	completion int
}

func (f *stubProfiles) Completion(_ context.Context, _ id.OfficerID) (int, error) {
	return f.completion, nil
}

type tokenValidator struct {
	claims map[string]*middleware.Claims
}

func (v *tokenValidator) ValidateToken(token string) (*middleware.Claims, error) {
	claims, ok := v.claims[token]
	if !ok {
		return nil, errors.New("unknown token")
	}
	return claims, nil
}

type WorkflowHandlerSuite struct {
	suite.Suite

	officerID id.OfficerID
	otp       *stubOTP
	profiles  *stubProfiles
	router    http.Handler
}

func TestWorkflowHandlerSuite(t *testing.T) {
	suite.Run(t, new(WorkflowHandlerSuite))
}

func (s *WorkflowHandlerSuite) SetupTest() {
	s.officerID = id.OfficerID(uuid.New())
	s.otp = &stubOTP{}
	s.profiles = &stubProfiles{completion: 100}

	saga, err := signing.New(s.otp, stubRenderer{}, stubDocs{}, stubSigner{}, nil, nil, nil)
	s.Require().NoError(err)

	svc, err := workflow.New(workflow.NewInMemoryStore(), s.profiles, saga, nil, nil, nil)
	s.Require().NoError(err)

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	validator := &tokenValidator{claims: map[string]*middleware.Claims{
		officerToken:  {OfficerID: s.officerID, Role: id.RoleOfficer, ActorName: "A. Verma"},
		approverToken: {OfficerID: s.officerID, Role: id.RoleApprover, ActorName: "S. Rao"},
	}}

	r := chi.NewRouter()
	New(svc, logger, validator).Register(r)
	s.router = r
}

func (s *WorkflowHandlerSuite) path(suffix string) string {
	return "/officers/" + s.officerID.String() + suffix
}

func (s *WorkflowHandlerSuite) doTransition(token, action string, payload completePayload) *completeResponse {
	s.T().Helper()

	initiate := testutil.NewJSONRequest(s.T(), http.MethodPost, s.path("/workflow/"+action+"/initiate"), payload.transitionPayload)
	initiate.Header.Set("Authorization", "Bearer "+token)
	rr := testutil.DoRequest(s.router, initiate)
	testutil.AssertStatus(s.T(), rr, http.StatusAccepted)
	payload.OTPID = testutil.UnmarshalResponse[initiateResponse](s.T(), rr).OTPID
	payload.Code = "123456"

	complete := testutil.NewJSONRequest(s.T(), http.MethodPost, s.path("/workflow/"+action+"/complete"), payload)
	complete.Header.Set("Authorization", "Bearer "+token)
	rr = testutil.DoRequest(s.router, complete)
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	return testutil.UnmarshalResponse[completeResponse](s.T(), rr)
}

func (s *WorkflowHandlerSuite) TestTimelineStartsEmpty() {
	req := testutil.NewRequest(s.T(), http.MethodGet, s.path("/timeline"))
	req.Header.Set("Authorization", "Bearer "+officerToken)
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	resp := testutil.UnmarshalResponse[timelineResponse](s.T(), rr)
	s.Equal(string(workflow.StatusNone), resp.Status)
	s.Empty(resp.Events)
}

func (s *WorkflowHandlerSuite) TestMissingTokenRejected() {
	req := testutil.NewRequest(s.T(), http.MethodGet, s.path("/timeline"))
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatus(s.T(), rr, http.StatusUnauthorized)
}

func (s *WorkflowHandlerSuite) TestSubmitFlow() {
	resp := s.doTransition(officerToken, "submit", completePayload{
		transitionPayload: transitionPayload{Consent: true, Phone: "9876543210"},
	})

	s.Equal(string(workflow.StatusSubmitted), resp.Status)
	s.Equal("doc-1", resp.DocID)
	_, err := id.ParseDocumentNumber(resp.DocumentNumber)
	s.NoError(err, "submission mints a well-formed document number")

	timeline := testutil.NewRequest(s.T(), http.MethodGet, s.path("/timeline"))
	timeline.Header.Set("Authorization", "Bearer "+officerToken)
	rr := testutil.DoRequest(s.router, timeline)
	events := testutil.UnmarshalResponse[timelineResponse](s.T(), rr)
	s.Require().Len(events.Events, 1)
	s.True(events.Events[0].IsCurrent)
}

func (s *WorkflowHandlerSuite) TestReturnThenResubmitKeepsDocumentNumber() {
	submitted := s.doTransition(officerToken, "submit", completePayload{
		transitionPayload: transitionPayload{Consent: true, Phone: "9876543210"},
	})
	s.doTransition(approverToken, "return_for_correction", completePayload{
		transitionPayload: transitionPayload{Remarks: "Dates do not match the service register.", Phone: "9876543211"},
	})
	resubmitted := s.doTransition(officerToken, "resubmit", completePayload{
		transitionPayload: transitionPayload{Phone: "9876543210"},
	})

	s.Equal(string(workflow.StatusResubmitted), resubmitted.Status)
	s.Equal(submitted.DocumentNumber, resubmitted.DocumentNumber)
}

func (s *WorkflowHandlerSuite) TestCompleteRequiresOTPFields() {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, s.path("/workflow/submit/complete"), completePayload{
		transitionPayload: transitionPayload{Consent: true, Phone: "9876543210"},
	})
	req.Header.Set("Authorization", "Bearer "+officerToken)
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	testutil.AssertErrorCode(s.T(), rr, string(dErrors.CodeBadRequest))
}

func (s *WorkflowHandlerSuite) TestOfficerCannotApprove() {
	s.doTransition(officerToken, "submit", completePayload{
		transitionPayload: transitionPayload{Consent: true, Phone: "9876543210"},
	})

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, s.path("/workflow/approve/initiate"), transitionPayload{
		Remarks: "Verified and approved (file 12/2026).",
		Phone:   "9876543210",
	})
	req.Header.Set("Authorization", "Bearer "+officerToken)
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatus(s.T(), rr, http.StatusForbidden)
	testutil.AssertErrorCode(s.T(), rr, string(dErrors.CodeForbidden))
}

func (s *WorkflowHandlerSuite) TestRejectedOTPSurfacesAsBadGateway() {
	initiate := testutil.NewJSONRequest(s.T(), http.MethodPost, s.path("/workflow/submit/initiate"), transitionPayload{
		Consent: true, Phone: "9876543210",
	})
	initiate.Header.Set("Authorization", "Bearer "+officerToken)
	rr := testutil.DoRequest(s.router, initiate)
	testutil.AssertStatus(s.T(), rr, http.StatusAccepted)
	otpID := testutil.UnmarshalResponse[initiateResponse](s.T(), rr).OTPID

	s.otp.verifyErr = dErrors.New(dErrors.CodeExternalService, "one-time code was rejected")
	complete := testutil.NewJSONRequest(s.T(), http.MethodPost, s.path("/workflow/submit/complete"), completePayload{
		transitionPayload: transitionPayload{Consent: true, Phone: "9876543210"},
		OTPID:             otpID,
		Code:              "000000",
	})
	complete.Header.Set("Authorization", "Bearer "+officerToken)
	rr = testutil.DoRequest(s.router, complete)

	testutil.AssertStatus(s.T(), rr, http.StatusBadGateway)

	timeline := testutil.NewRequest(s.T(), http.MethodGet, s.path("/timeline"))
	timeline.Header.Set("Authorization", "Bearer "+officerToken)
	events := testutil.UnmarshalResponse[timelineResponse](s.T(), testutil.DoRequest(s.router, timeline))
	s.Empty(events.Events, "a rejected otp never produces a status event")
}

func (s *WorkflowHandlerSuite) TestUnknownActionRejected() {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, s.path("/workflow/escalate/initiate"), transitionPayload{
		Consent: true, Phone: "9876543210",
	})
	req.Header.Set("Authorization", "Bearer "+officerToken)
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
}
