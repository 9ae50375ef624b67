package service

import (
	"context"
	"errors"
	"strings"

	"github.com/notekeeper/notekeeper-go/internal/api"
	"github.com/notekeeper/notekeeper-go/internal/model"
)

var (
	ErrContentRequired = errors.New("note content is required")
	ErrSessionExpired  = errors.New("session expired, please sign in again")
)

// NotesSync performs authenticated note operations and keeps a local cache
// consistent with server state. The cache only changes on a confirmed
// mutation; any failure leaves it in its last known good state. A rejected
// bearer token tears the whole session down through the gate rather than
// surfacing a retryable error.
type NotesSync struct {
	api   *api.Client
	gate  *SessionGate
	token string
	notes []model.Note
}

// NewNotesSync creates a sync bound to an admitted session's token. Callers
// must have passed the gate first.
func NewNotesSync(client *api.Client, gate *SessionGate, session *model.Session) *NotesSync {
	return &NotesSync{api: client, gate: gate, token: session.Token}
}

// Notes returns the cached list, most recently created first.
func (s *NotesSync) Notes() []model.Note {
	return s.notes
}

// Refresh replaces the cache with the server's list.
func (s *NotesSync) Refresh(ctx context.Context) ([]model.Note, error) {
	notes, err := s.api.ListNotes(ctx, s.token)
	if err != nil {
		return nil, s.fail(err)
	}
	s.notes = notes
	return notes, nil
}

// Add creates a note. Empty or whitespace-only content never reaches the
// network. The cache is only updated from the server's response, never
// optimistically.
func (s *NotesSync) Add(ctx context.Context, content string) (*model.Note, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrContentRequired
	}
	note, err := s.api.CreateNote(ctx, s.token, content)
	if err != nil {
		return nil, s.fail(err)
	}
	s.notes = append([]model.Note{*note}, s.notes...)
	return note, nil
}

// Remove deletes a note, dropping it from the cache only after the server
// confirms the deletion.
func (s *NotesSync) Remove(ctx context.Context, id string) error {
	if err := s.api.DeleteNote(ctx, s.token, id); err != nil {
		return s.fail(err)
	}
	kept := make([]model.Note, 0, len(s.notes))
	for _, n := range s.notes {
		if n.ID != id {
			kept = append(kept, n)
		}
	}
	s.notes = kept
	return nil
}

// fail classifies a remote failure. A rejected token is proof the session
// is invalid server-side, so it triggers teardown instead of a retry.
func (s *NotesSync) fail(err error) error {
	if errors.Is(err, api.ErrUnauthorized) {
		s.gate.SignOut()
		return ErrSessionExpired
	}
	return err
}
