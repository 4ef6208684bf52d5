// Package esign talks to the external signing authority. The sign call is
// never retried automatically and runs under a hard deadline: after a timeout
// the authority's own state is unknown, so the failure is reported as a
// distinct timeout class rather than a generic error.
package esign

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"servicebook/internal/platform/config"
	dErrors "servicebook/pkg/domain-errors"
	"servicebook/pkg/platform/sentinel"
)

type Client struct {
	baseURL     string
	signTimeout time.Duration
	httpClient  *http.Client
}

func NewClient(cfg config.SigningConfig) *Client {
	return &Client{
		baseURL:     cfg.ESignBaseURL,
		signTimeout: cfg.SignTimeout,
		httpClient:  &http.Client{},
	}
}

type signPayload struct {
	DocID     string `json:"doc_id"`
	OTPID     string `json:"otp_id"`
	ActorName string `json:"actor_name"`
	Reason    string `json:"reason"`
}

type signResponse struct {
	Signed bool `json:"signed"`
}

// Sign asks the authority to sign the uploaded document. Returns nil only on
// an explicit signed confirmation.
func (c *Client) Sign(ctx context.Context, docID, otpID, actorName, reason string) error {
	ctx, cancel := context.WithTimeout(ctx, c.signTimeout)
	defer cancel()

	body, err := json.Marshal(signPayload{DocID: docID, OTPID: otpID, ActorName: actorName, Reason: reason})
	if err != nil {
		return fmt.Errorf("encode sign request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/sign", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build sign request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return dErrors.Wrap(sentinel.ErrSignTimeout, dErrors.CodeTimeout, "signing authority did not respond in time")
		}
		return dErrors.Wrap(fmt.Errorf("%w: %w", sentinel.ErrUnavailable, err), dErrors.CodeExternalService, "signing authority unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return dErrors.Newf(dErrors.CodeExternalService, "signing authority rejected the request: status %d", resp.StatusCode)
	}
	var payload signResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return dErrors.Wrap(err, dErrors.CodeExternalService, "decode sign response")
	}
	if !payload.Signed {
		return dErrors.New(dErrors.CodeExternalService, "signing authority returned no signed confirmation")
	}
	return nil
}
