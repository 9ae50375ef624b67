package store

import "github.com/notekeeper/notekeeper-go/internal/model"

// Store persists the current session between runs. At most one session is
// current at a time. Get returns nil with no error when nothing is stored;
// no expiry is enforced locally — staleness is only ever detected by the
// remote authority rejecting the token.
type Store interface {
	Set(session *model.Session) error
	Get() (*model.Session, error)
	Clear() error
}
