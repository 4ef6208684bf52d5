// Package otp talks to the external OTP service that binds one-time codes to
// an actor before a signing run.
package otp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/hashicorp/go-retryablehttp"

	"servicebook/internal/platform/config"
	"servicebook/internal/signing"
	dErrors "servicebook/pkg/domain-errors"
	"servicebook/pkg/platform/sentinel"
)

// Client is the OTP service boundary. Request is retried on transient
// failures; Verify is not, because a consumed code must not be re-submitted.
type Client struct {
	baseURL   string
	retrying  *retryablehttp.Client
	plainHTTP *http.Client
}

func NewClient(cfg config.SigningConfig) *Client {
	c := retryablehttp.NewClient()
	c.RetryMax = 3
	c.Logger = nil
	return &Client{
		baseURL:   cfg.OTPBaseURL,
		retrying:  c,
		plainHTTP: c.HTTPClient,
	}
}

type requestPayload struct {
	Phone     string `json:"phone"`
	ActorName string `json:"actor_name"`
	Role      string `json:"role"`
}

type requestResponse struct {
	OTPID string `json:"otp_id"`
}

type verifyPayload struct {
	OTPID     string `json:"otp_id"`
	Code      string `json:"code"`
	ActorName string `json:"actor_name"`
}

// Request binds a one-time code to the actor and returns the otp id.
func (c *Client) Request(ctx context.Context, actor signing.Actor) (string, error) {
	body, err := json.Marshal(requestPayload{
		Phone:     actor.Phone,
		ActorName: actor.Name,
		Role:      actor.Role.String(),
	})
	if err != nil {
		return "", fmt.Errorf("encode otp request: %w", err)
	}
	req, err := retryablehttp.NewRequest(http.MethodPost, c.baseURL+"/otp/request", body)
	if err != nil {
		return "", fmt.Errorf("build otp request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.retrying.Do(req.WithContext(ctx))
	if err != nil {
		return "", dErrors.Wrap(fmt.Errorf("%w: %w", sentinel.ErrUnavailable, err), dErrors.CodeExternalService, "otp service unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", dErrors.Newf(dErrors.CodeExternalService, "otp service rejected the request: status %d", resp.StatusCode)
	}
	var payload requestResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeExternalService, "decode otp response")
	}
	if payload.OTPID == "" {
		return "", dErrors.New(dErrors.CodeExternalService, "otp service returned no otp id")
	}
	return payload.OTPID, nil
}

// Verify submits the actor's code. A rejection aborts the whole signing run.
func (c *Client) Verify(ctx context.Context, otpID, code, actorName string) error {
	body, err := json.Marshal(verifyPayload{OTPID: otpID, Code: code, ActorName: actorName})
	if err != nil {
		return fmt.Errorf("encode otp verification: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/otp/verify", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build otp verification: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.plainHTTP.Do(req)
	if err != nil {
		return dErrors.Wrap(fmt.Errorf("%w: %w", sentinel.ErrUnavailable, err), dErrors.CodeExternalService, "otp service unreachable")
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusUnprocessableEntity:
		return dErrors.New(dErrors.CodeExternalService, "one-time code was rejected")
	default:
		return dErrors.Newf(dErrors.CodeExternalService, "otp verification failed: status %d", resp.StatusCode)
	}
}
