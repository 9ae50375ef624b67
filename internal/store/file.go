package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/notekeeper/notekeeper-go/internal/crypto"
	"github.com/notekeeper/notekeeper-go/internal/model"
)

const sessionFile = "session.json"

// FileStore persists the session as a single JSON document in the state
// directory. Writes go through a temp file and rename, so a read never sees
// a half-written session. When a secret is configured the document is
// sealed at rest.
type FileStore struct {
	path   string
	secret string
}

// NewFileStore creates the state directory if needed and returns a store
// rooted there. An empty secret disables at-rest sealing.
func NewFileStore(dir, secret string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating state dir: %w", err)
	}
	return &FileStore{path: filepath.Join(dir, sessionFile), secret: secret}, nil
}

// persisted accepts both on-disk layouts: the structured identity document
// and the older flat token/name/email triple.
type persisted struct {
	Token    string          `json:"token"`
	Identity *model.Identity `json:"identity,omitempty"`

	// flat layout fields, read-only for compatibility
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

func (s *FileStore) Set(session *model.Session) error {
	identity := session.Identity
	data, err := json.MarshalIndent(persisted{Token: session.Token, Identity: &identity}, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}

	if s.secret != "" {
		data, err = crypto.Seal(s.secret, data)
		if err != nil {
			return fmt.Errorf("sealing session: %w", err)
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing session file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("writing session file: %w", err)
	}
	return nil
}

func (s *FileStore) Get() (*model.Session, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading session file: %w", err)
	}

	if s.secret != "" {
		data, err = crypto.Open(s.secret, data)
		if err != nil {
			return nil, fmt.Errorf("opening sealed session: %w", err)
		}
	}

	var p persisted
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decoding session file: %w", err)
	}
	if p.Token == "" {
		return nil, nil
	}

	session := &model.Session{Token: p.Token}
	if p.Identity != nil {
		session.Identity = *p.Identity
	} else {
		session.Identity = model.Identity{Name: p.Name, Email: p.Email}
	}
	return session, nil
}

func (s *FileStore) Clear() error {
	err := os.Remove(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
