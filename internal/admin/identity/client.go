package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Client is the HTTP implementation of Provider against the issuer's
// internal admin API.
type Client struct {
	BaseURL string
	APIKey  string // service-to-service key, sent as a bearer token

	HTTPClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) ResolveUserByEmail(ctx context.Context, email string) (User, error) {
	endpoint := c.BaseURL + "/internal/v1/users/by-email?email=" + url.QueryEscape(email)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return User{}, err
	}
	c.authorize(req)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return User{}, fmt.Errorf("identity: resolve user: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// fall through to decode
	case http.StatusNotFound:
		return User{}, ErrUserNotFound
	default:
		return User{}, fmt.Errorf("identity: resolve user: unexpected status %d", resp.StatusCode)
	}

	var body struct {
		SubjectID string `json:"subject_id"`
		Email     string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return User{}, fmt.Errorf("identity: resolve user: decode: %w", err)
	}
	return User{SubjectID: body.SubjectID, Email: body.Email}, nil
}

func (c *Client) SetRoleClaim(ctx context.Context, subjectID string, role *string) error {
	endpoint := c.BaseURL + "/internal/v1/users/" + url.PathEscape(subjectID) + "/claims/role"

	payload, err := json.Marshal(struct {
		Role *string `json:"role"`
	}{Role: role})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("identity: set role claim: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return nil
	case http.StatusNotFound:
		return ErrUserNotFound
	default:
		return fmt.Errorf("identity: set role claim: unexpected status %d", resp.StatusCode)
	}
}

func (c *Client) authorize(req *http.Request) {
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
}
