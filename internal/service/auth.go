package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/time/rate"

	"github.com/notekeeper/notekeeper-go/internal/api"
	"github.com/notekeeper/notekeeper-go/internal/model"
	"github.com/notekeeper/notekeeper-go/internal/store"
)

var (
	ErrNameRequired    = errors.New("name is required")
	ErrEmailRequired   = errors.New("email is required")
	ErrOTPRequired     = errors.New("enter the OTP sent to your email")
	ErrNoChallenge     = errors.New("request an OTP first")
	ErrResendThrottled = errors.New("an OTP was just sent, wait a moment before resending")
	ErrBadVerify       = errors.New("unexpected response, please try again")
)

// ChallengeState tracks progress through the two-step OTP protocol.
type ChallengeState int

const (
	StateIdle ChallengeState = iota
	StateOTPRequested
	StateVerified
)

// ChallengeMode selects the protocol variant. Sign-up collects a name and
// builds the session identity from client-held fields; sign-in builds it
// from the user object the server returns on verification.
type ChallengeMode int

const (
	ModeSignUp ChallengeMode = iota
	ModeSignIn
)

// AuthChallenge drives one OTP request/verify exchange. A failed call never
// advances the state: the caller may retry verification or resend the code.
type AuthChallenge struct {
	api    *api.Client
	store  store.Store
	mode   ChallengeMode
	resend *rate.Limiter // nil disables throttling

	state ChallengeState
	name  string
	email string
}

// NewSignUp creates a sign-up challenge.
func NewSignUp(client *api.Client, st store.Store) *AuthChallenge {
	return &AuthChallenge{api: client, store: st, mode: ModeSignUp}
}

// NewSignIn creates a sign-in challenge.
func NewSignIn(client *api.Client, st store.Store) *AuthChallenge {
	return &AuthChallenge{api: client, store: st, mode: ModeSignIn}
}

// WithResendLimit installs a courtesy throttle on repeated OTP issuance.
func (c *AuthChallenge) WithResendLimit(l *rate.Limiter) *AuthChallenge {
	c.resend = l
	return c
}

// State reports where the challenge currently stands.
func (c *AuthChallenge) State() ChallengeState {
	return c.state
}

// Email returns the address the OTP was (or will be) sent to.
func (c *AuthChallenge) Email() string {
	return c.email
}

// Start validates the identity fields locally and requests an OTP. Empty
// required fields short-circuit before any network call. On success the
// challenge moves to StateOTPRequested and captures the pending identity.
func (c *AuthChallenge) Start(ctx context.Context, name, email string) (string, error) {
	if c.mode == ModeSignUp && strings.TrimSpace(name) == "" {
		return "", ErrNameRequired
	}
	if strings.TrimSpace(email) == "" {
		return "", ErrEmailRequired
	}

	message, err := c.request(ctx, name, email)
	if err != nil {
		return "", err
	}

	c.name = name
	c.email = email
	c.state = StateOTPRequested
	return message, nil
}

// Resend re-issues the OTP with the identity captured by Start. It never
// changes the state, so any number of resends leaves the challenge valid.
func (c *AuthChallenge) Resend(ctx context.Context) (string, error) {
	if c.state != StateOTPRequested {
		return "", ErrNoChallenge
	}
	if c.resend != nil && !c.resend.Allow() {
		return "", ErrResendThrottled
	}
	return c.request(ctx, c.name, c.email)
}

func (c *AuthChallenge) request(ctx context.Context, name, email string) (string, error) {
	if c.mode == ModeSignIn {
		return c.api.RequestLoginOTP(ctx, email)
	}
	return c.api.RequestSignupOTP(ctx, name, email)
}

// Verify submits the passcode. On success the challenge completes and the
// resulting session is persisted before it is returned.
func (c *AuthChallenge) Verify(ctx context.Context, otp string) (*model.Session, error) {
	if c.state != StateOTPRequested {
		return nil, ErrNoChallenge
	}
	if strings.TrimSpace(otp) == "" {
		return nil, ErrOTPRequired
	}

	var name string
	if c.mode == ModeSignUp {
		name = c.name
	}
	resp, err := c.api.VerifyOTP(ctx, name, c.email, otp)
	if err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, ErrBadVerify
	}

	session := &model.Session{Token: resp.Token}
	if c.mode == ModeSignIn && resp.User != nil {
		// Server-returned fields take precedence over anything held locally.
		session.Identity = model.Identity{ID: resp.User.ID, Name: resp.User.Name, Email: resp.User.Email}
	} else {
		session.Identity = model.Identity{Name: c.name, Email: c.email}
	}
	if session.Identity.Email == "" {
		session.Identity.Email = c.email
	}

	if err := c.store.Set(session); err != nil {
		return nil, fmt.Errorf("persisting session: %w", err)
	}
	c.state = StateVerified
	return session, nil
}
