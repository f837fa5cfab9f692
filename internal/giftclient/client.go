package giftclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

var (
	// ErrResponseNotOK is returned by Lookup for any non-2xx status.
	ErrResponseNotOK = errors.New("response not ok")
	// ErrMalformedOutcome is returned by Redeem when the body is JSON but not an object.
	ErrMalformedOutcome = errors.New("redemption response is not a JSON object")
)

// Observer receives one notification per API call.
type Observer interface {
	ObserveCall(op, result string, d time.Duration)
}

// Client calls the gift redemption API.
type Client struct {
	BaseURL  string
	HTTP     *http.Client
	Observer Observer
}

// New creates a client for the API rooted at baseURL.
// Requests carry no timeout of their own; callers bound them through the context.
func New(baseURL string, obs Observer) *Client {
	return &Client{
		BaseURL:  baseURL,
		HTTP:     &http.Client{},
		Observer: obs,
	}
}

// Lookup resolves a staff pass to its team mapping. A nil result with a nil
// error means the service answered with nothing to show.
func (c *Client) Lookup(ctx context.Context, staffPassID string) (res *LookupResult, err error) {
	defer c.observe("lookup", time.Now(), &err)

	u := c.BaseURL + "/lookup?staff_pass_id=" + url.QueryEscape(staffPassID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gift service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("lookup %s: %w", resp.Status, ErrResponseNotOK)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	res, err = decodeLookup(body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return res, nil
}

// Redeem claims the gift for the staff pass's team. Refusals come back as a
// RedemptionFailed outcome, not as an error; the status code is not consulted.
// A null body gives a nil outcome and no error.
func (c *Client) Redeem(ctx context.Context, staffPassID string) (out RedemptionOutcome, err error) {
	defer c.observe("redeem", time.Now(), &err)

	body, err := json.Marshal(redemptionRequest{StaffPassID: staffPassID})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/redemption", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gift service request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	out, err = decodeOutcome(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode response (%s): %w", resp.Status, err)
	}
	return out, nil
}

// Health checks that the gift API answers HTTP at all. The lookup route is
// probed without an identifier, which the API rejects with a 4xx.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/lookup", nil)
	if err != nil {
		return err
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("gift service unavailable: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 500 {
		return fmt.Errorf("gift service unhealthy: %s", resp.Status)
	}
	return nil
}

func (c *Client) observe(op string, start time.Time, err *error) {
	if c.Observer == nil {
		return
	}
	result := "ok"
	if *err != nil {
		result = "error"
	}
	c.Observer.ObserveCall(op, result, time.Since(start))
}
