package service

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/notekeeper/notekeeper-go/internal/model"
	"github.com/notekeeper/notekeeper-go/internal/store"
	"github.com/notekeeper/notekeeper-go/internal/token"
)

// ErrNoSession means no credential could be found anywhere: the caller must
// route to the login entry point and make no network calls.
var ErrNoSession = errors.New("no active session")

// SessionGate decides whether a session exists before any protected
// operation runs. Lookup order is fixed: redirect query parameters first
// (a freshly completed OAuth round trip carries the token only in the URL),
// then the persisted store, then rejection.
type SessionGate struct {
	store     store.Store
	onSignOut func()
}

// NewSessionGate creates a gate over the given store.
func NewSessionGate(st store.Store) *SessionGate {
	return &SessionGate{store: st}
}

// OnSignOut registers an observer fired whenever the session is torn down,
// whether by an explicit sign-out or because the server rejected the token.
func (g *SessionGate) OnSignOut(fn func()) {
	g.onSignOut = fn
}

// Capture persists a session delivered through redirect query parameters.
// Returns nil when no token parameter is present. After a capture the
// caller must strip the parameters from the visible URL before anything
// else renders, so the credential never survives in history.
func (g *SessionGate) Capture(query url.Values) (*model.Session, error) {
	tok := query.Get("token")
	if tok == "" {
		return nil, nil
	}

	session := &model.Session{
		Token:    tok,
		Identity: model.Identity{Name: query.Get("name"), Email: query.Get("email")},
	}
	if err := g.store.Set(session); err != nil {
		return nil, fmt.Errorf("persisting session: %w", err)
	}
	return session, nil
}

// Resolve runs the ordered session lookup. A nil query skips the redirect
// parameter step. Missing display fields are backfilled from the decoded
// token payload; explicit fields always win over decoded ones.
func (g *SessionGate) Resolve(query url.Values) (*model.Session, error) {
	if query != nil {
		session, err := g.Capture(query)
		if err != nil {
			return nil, err
		}
		if session != nil {
			return backfill(session), nil
		}
	}

	session, err := g.store.Get()
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrNoSession
	}
	return backfill(session), nil
}

// SignOut clears the persisted session and notifies the observer. It is
// also the teardown path taken when a protected call proves the token is no
// longer valid server-side.
func (g *SessionGate) SignOut() error {
	err := g.store.Clear()
	if g.onSignOut != nil {
		g.onSignOut()
	}
	return err
}

// backfill fills missing display fields from the token payload. The decode
// is cosmetic only and never blocks admission.
func backfill(session *model.Session) *model.Session {
	if session.Identity.Name != "" && session.Identity.Email != "" {
		return session
	}
	claims := token.Decode(session.Token)
	if claims == nil {
		return session
	}
	if session.Identity.Name == "" {
		session.Identity.Name = claims.Name
	}
	if session.Identity.Email == "" {
		session.Identity.Email = claims.Email
	}
	if session.Identity.ID == 0 {
		session.Identity.ID = claims.ID
	}
	return session
}
