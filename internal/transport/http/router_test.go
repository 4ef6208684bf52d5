package httptransport_test

import (
	"bytes"
	"log/slog"
	"net/http"
	"testing"

	"github.com/google/uuid"

	"servicebook/internal/platform/middleware"
	"servicebook/internal/session"
	sessionhandler "servicebook/internal/session/handler"
	httptransport "servicebook/internal/transport/http"
	"servicebook/pkg/testutil"
)

func TestRouterAssembly(t *testing.T) {
	testutil.Given(t, "the assembled router with the session module", func(t *testing.T) {
		logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
		validator := middleware.NewHMACValidator("router-test-key")

		sessions, err := session.NewService(session.NewInMemoryStore())
		if err != nil {
			t.Fatalf("failed to build session service: %v", err)
		}
		router := httptransport.NewRouter(logger, nil,
			sessionhandler.New(sessions, validator, logger, validator),
		)

		testutil.When(t, "calling GET /healthz", func(t *testing.T) {
			rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/healthz"))

			testutil.Then(t, "it should report ok", func(t *testing.T) {
				testutil.AssertStatus(t, rr, http.StatusOK)
			})
		})

		testutil.When(t, "posting a non-JSON body to /sessions", func(t *testing.T) {
			req := testutil.NewRequest(t, http.MethodPost, "/sessions")
			req.Header.Set("Content-Type", "text/plain")
			rr := testutil.DoRequest(router, req)

			testutil.Then(t, "it should reject the media type", func(t *testing.T) {
				testutil.AssertStatus(t, rr, http.StatusUnsupportedMediaType)
			})
		})

		testutil.When(t, "starting and ending a session", func(t *testing.T) {
			start := testutil.NewJSONRequest(t, http.MethodPost, "/sessions", map[string]string{
				"officer_id": uuid.New().String(),
				"role":       "officer",
				"actor_name": "A Sharma",
			})
			startRR := testutil.DoRequest(router, start)
			testutil.AssertStatus(t, startRR, http.StatusCreated)

			started := testutil.UnmarshalResponse[struct {
				SessionID string `json:"session_id"`
				Token     string `json:"token"`
			}](t, startRR)
			if started.Token == "" || started.SessionID == "" {
				t.Fatalf("expected a session id and token, got %+v", started)
			}

			end := testutil.NewRequest(t, http.MethodDelete, "/sessions")
			end.Header.Set("Authorization", "Bearer "+started.Token)
			endRR := testutil.DoRequest(router, end)

			testutil.Then(t, "the end call should succeed with the issued token", func(t *testing.T) {
				testutil.AssertStatus(t, endRR, http.StatusNoContent)
			})
		})

		testutil.And(t, "ending a session without a token", func(t *testing.T) {
			rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodDelete, "/sessions"))

			testutil.Then(t, "it should be rejected as unauthorized", func(t *testing.T) {
				testutil.AssertStatus(t, rr, http.StatusUnauthorized)
			})
		})
	})
}
