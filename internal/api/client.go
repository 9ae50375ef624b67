package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/notekeeper/notekeeper-go/internal/model"
)

// ErrUnauthorized marks responses where the server rejected the bearer
// token. Callers treat it as proof the held session is no longer valid
// server-side; there is no refresh mechanism to fall back on.
var ErrUnauthorized = errors.New("token rejected by server")

// fallbackMessage stands in when the server reports a failure without a
// usable error payload.
const fallbackMessage = "something went wrong, please try again"

const maxResponseBytes = 1 << 20 // 1MB

// Error is an application-level failure reported by the remote API.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Client talks to the remote note-keeper API.
type Client struct {
	baseURL string
	httpc   *http.Client
}

// NewClient creates a client for the API at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: timeout},
	}
}

// RequestSignupOTP asks the server to email a one-time passcode to a new
// account's address. Returns the server's confirmation message.
func (c *Client) RequestSignupOTP(ctx context.Context, name, email string) (string, error) {
	return c.requestOTP(ctx, "/auth/request-otp", model.OTPRequest{Name: name, Email: email})
}

// RequestLoginOTP asks the server to email a one-time passcode to an
// existing account's address.
func (c *Client) RequestLoginOTP(ctx context.Context, email string) (string, error) {
	return c.requestOTP(ctx, "/auth/login-check", model.OTPRequest{Email: email})
}

func (c *Client) requestOTP(ctx context.Context, path string, body model.OTPRequest) (string, error) {
	var resp model.MessageResponse
	if err := c.do(ctx, http.MethodPost, path, body, &resp, ""); err != nil {
		return "", err
	}
	// The issuance endpoints report some failures inside a 200 body.
	if resp.Error != "" {
		return "", &Error{Status: http.StatusOK, Message: resp.Error}
	}
	return resp.Message, nil
}

// VerifyOTP submits the passcode. Name is only sent for sign-up.
func (c *Client) VerifyOTP(ctx context.Context, name, email, otp string) (*model.VerifyOTPResponse, error) {
	var resp model.VerifyOTPResponse
	req := model.VerifyOTPRequest{Name: name, Email: email, OTP: otp}
	if err := c.do(ctx, http.MethodPost, "/auth/verify-otp", req, &resp, ""); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListNotes fetches the note collection. An empty, null or malformed body
// is an empty list, never an error.
func (c *Client) ListNotes(ctx context.Context, token string) ([]model.Note, error) {
	var resp model.NotesResponse
	if err := c.do(ctx, http.MethodGet, "/notes", nil, &resp, token); err != nil {
		return nil, err
	}
	if resp.Notes == nil {
		return []model.Note{}, nil
	}
	return resp.Notes, nil
}

// CreateNote creates a note and returns the server's copy of it.
func (c *Client) CreateNote(ctx context.Context, token, content string) (*model.Note, error) {
	var resp model.NoteResponse
	req := model.CreateNoteRequest{Content: content}
	if err := c.do(ctx, http.MethodPost, "/notes", req, &resp, token); err != nil {
		return nil, err
	}
	return &resp.Note, nil
}

// DeleteNote removes a note. The server answers with an empty or trivial
// body on success.
func (c *Client) DeleteNote(ctx context.Context, token, id string) error {
	return c.do(ctx, http.MethodDelete, "/notes/"+url.PathEscape(id), nil, nil, token)
}

// GoogleAuthURL is the provider entry point the browser should open to
// start the OAuth round trip.
func (c *Client) GoogleAuthURL() string {
	return c.baseURL + "/auth/google"
}

// Ping probes the API base URL. Any HTTP response counts as reachable.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("api unreachable: %w", err)
	}
	resp.Body.Close()
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, token string) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("reading response from %s: %w", path, err)
	}

	// A 401/403 only proves the session is invalid when the call actually
	// carried the bearer token; on the auth endpoints it is an ordinary
	// challenge failure with a message worth surfacing.
	rejected := resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden
	switch {
	case rejected && token != "":
		return fmt.Errorf("%s: %w", path, ErrUnauthorized)
	case resp.StatusCode >= 400:
		return &Error{Status: resp.StatusCode, Message: errorMessage(data)}
	}

	if out != nil && len(bytes.TrimSpace(data)) > 0 {
		// Tolerate malformed success bodies: callers see the zero value
		// and decide what an empty result means for them.
		_ = json.Unmarshal(data, out)
	}
	return nil
}

// errorMessage extracts a display message from an error response body.
func errorMessage(data []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	return fallbackMessage
}
