package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/client/models"
	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/google/uuid"
)

const maxResponseBody = 1 << 20

type userEnvelope struct {
	User *models.UserProfile `json:"user"`
}

type authEnvelope struct {
	User    *models.UserProfile `json:"user"`
	Token   string              `json:"token"`
	Message string              `json:"message"`
}

type errorEnvelope struct {
	Error string `json:"error"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HTTPClient talks JSON to the identity API rooted at baseURL.
type HTTPClient struct {
	baseURL   string
	hc        *http.Client
	log       logging.Logger
	requestID func() string
}

// NewHTTPClient builds a client for baseURL. A zero timeout leaves requests
// unbounded.
func NewHTTPClient(baseURL string, timeout time.Duration, log logging.Logger) (*HTTPClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q: need http(s)://host", baseURL)
	}

	return &HTTPClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		hc:        &http.Client{Timeout: timeout},
		log:       log.With("component", "identity-client"),
		requestID: uuid.NewString,
	}, nil
}

func (c *HTTPClient) Verify(ctx context.Context, token string) (*models.UserProfile, error) {
	var env userEnvelope
	if err := c.do(ctx, http.MethodGet, "/profile", token, nil, &env); err != nil {
		return nil, err
	}
	if err := checkUser(env.User); err != nil {
		return nil, err
	}
	return env.User, nil
}

func (c *HTTPClient) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	var env authEnvelope
	if err := c.do(ctx, http.MethodPost, "/login", "", loginRequest{Email: email, Password: password}, &env); err != nil {
		return nil, err
	}
	return authResult(env)
}

func (c *HTTPClient) Register(ctx context.Context, reg models.Registration) (*AuthResult, error) {
	var env authEnvelope
	if err := c.do(ctx, http.MethodPost, "/register", "", reg, &env); err != nil {
		return nil, err
	}
	return authResult(env)
}

func (c *HTTPClient) Logout(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/logout", token, nil, nil)
}

func (c *HTTPClient) UpdateProfile(ctx context.Context, token string, patch models.ProfilePatch) (*models.UserProfile, error) {
	var env userEnvelope
	if err := c.do(ctx, http.MethodPut, "/profile", token, patch, &env); err != nil {
		return nil, err
	}
	if err := checkUser(env.User); err != nil {
		return nil, err
	}
	return env.User, nil
}

func authResult(env authEnvelope) (*AuthResult, error) {
	if err := checkUser(env.User); err != nil {
		return nil, err
	}
	if env.Token == "" {
		return nil, fmt.Errorf("%w: missing token", ErrMalformed)
	}
	return &AuthResult{User: env.User, Token: env.Token, Message: env.Message}, nil
}

func checkUser(u *models.UserProfile) error {
	if u == nil {
		return fmt.Errorf("%w: missing user", ErrMalformed)
	}
	if u.ID == "" {
		return fmt.Errorf("%w: user without id", ErrMalformed)
	}
	return nil
}

// do performs one round trip. Non-2xx answers become *RejectedError, network
// failures wrap ErrUnavailable and undecodable 2xx bodies wrap ErrMalformed.
func (c *HTTPClient) do(ctx context.Context, method, path, token string, in, out any) error {
	reqID := c.requestID()
	log := c.log.With("request_id", reqID, "method", method, "path", path)

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(common.RequestIDHeaderName, reqID)
	if token != "" {
		req.Header.Set(common.AuthorizationHeaderName, "Bearer "+token)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		log.Debug(ctx, "request failed", "error", err)
		return fmt.Errorf("%s %s: %w: %w", method, path, ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		log.Debug(ctx, "reading response failed", "error", err)
		return fmt.Errorf("%s %s: %w: %w", method, path, ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		reason := GenericRejection
		var env errorEnvelope
		if json.Unmarshal(raw, &env) == nil && env.Error != "" {
			reason = env.Error
		}
		log.Debug(ctx, "request rejected", "status", resp.StatusCode)
		return &RejectedError{Status: resp.StatusCode, Reason: reason}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		log.Debug(ctx, "response decode failed", "status", resp.StatusCode, "error", err)
		return fmt.Errorf("%s %s: %w: %w", method, path, ErrMalformed, err)
	}
	return nil
}

var _ Client = (*HTTPClient)(nil)
