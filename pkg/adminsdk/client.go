package adminsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// APIError is a structured error returned by the service.
type APIError struct {
	StatusCode  int
	Kind        string
	Description string
}

func (e *APIError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("adminsdk: %s (%d): %s", e.Kind, e.StatusCode, e.Description)
	}
	return fmt.Sprintf("adminsdk: %s (%d)", e.Kind, e.StatusCode)
}

// Client calls the admin authorization service. SessionToken is the
// caller's portal session token; the service derives the caller identity
// from it.
type Client struct {
	BaseURL      string
	SessionToken string

	// BootstrapSecret, when set, is sent with GrantRole for the
	// first-superadmin bootstrap path.
	BootstrapSecret string

	HTTPClient *http.Client
}

func NewClient(baseURL, sessionToken string) *Client {
	return &Client{
		BaseURL:      baseURL,
		SessionToken: sessionToken,
		HTTPClient:   &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) GrantRole(ctx context.Context, req GrantRoleRequest) (*GrantRoleResponse, error) {
	var out GrantRoleResponse
	if err := c.do(ctx, http.MethodPost, "/v1/roles", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetRole(ctx context.Context, subjectID string) (*RoleResponse, error) {
	var out RoleResponse
	if err := c.do(ctx, http.MethodGet, "/v1/roles/"+url.PathEscape(subjectID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ExtendRole(ctx context.Context, subjectID string, req ExtendRoleRequest) (*ExtendRoleResponse, error) {
	var out ExtendRoleResponse
	if err := c.do(ctx, http.MethodPost, "/v1/roles/"+url.PathEscape(subjectID)+"/extend", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RevokeRole(ctx context.Context, subjectID string) (*RevokeRoleResponse, error) {
	var out RevokeRoleResponse
	if err := c.do(ctx, http.MethodDelete, "/v1/roles/"+url.PathEscape(subjectID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RefreshClaims(ctx context.Context, subjectID string) (*RefreshClaimsResponse, error) {
	var out RefreshClaimsResponse
	if err := c.do(ctx, http.MethodPost, "/v1/roles/"+url.PathEscape(subjectID)+"/refresh", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateInvite(ctx context.Context, req CreateInviteRequest) (*CreateInviteResponse, error) {
	var out CreateInviteResponse
	if err := c.do(ctx, http.MethodPost, "/v1/invites", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetInvite(ctx context.Context, inviteID string) (*InviteResponse, error) {
	var out InviteResponse
	if err := c.do(ctx, http.MethodGet, "/v1/invites/"+url.PathEscape(inviteID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ApproveInvite(ctx context.Context, inviteID string) (*ApproveInviteResponse, error) {
	var out ApproveInviteResponse
	if err := c.do(ctx, http.MethodPost, "/v1/invites/"+url.PathEscape(inviteID)+"/approve", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ClaimInvite consumes an invite using the opaque claim token handed out
// by CreateInvite. Invite ids cannot claim.
func (c *Client) ClaimInvite(ctx context.Context, claimToken string) (*ClaimInviteResponse, error) {
	var out ClaimInviteResponse
	if err := c.do(ctx, http.MethodPost, "/v1/invites/"+url.PathEscape(claimToken)+"/claim", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body *bytes.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(payload)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.SessionToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.SessionToken)
	}
	if c.BootstrapSecret != "" {
		req.Header.Set("X-Bootstrap-Secret", c.BootstrapSecret)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Kind: "unknown"}
		var body ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != "" {
			apiErr.Kind = body.Error
			apiErr.Description = body.ErrorDescription
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
