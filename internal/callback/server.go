package callback

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/notekeeper/notekeeper-go/internal/model"
	"github.com/notekeeper/notekeeper-go/internal/service"
)

// Server captures an OAuth redirect on a loopback listener. The provider
// round trip ends with the browser hitting /oauth carrying token, name and
// email query parameters. The handler persists the session through the gate
// and answers with a See Other redirect to a parameterless page, so the
// credential never stays in the visible URL and the redirect cannot be
// revisited through back-navigation.
type Server struct {
	gate    *service.SessionGate
	httpSrv *http.Server
	ln      net.Listener
	result  chan *model.Session
	errc    chan error
}

// New creates a callback server bound to addr (host:port, loopback).
func New(addr string, gate *service.SessionGate) *Server {
	s := &Server{
		gate:   gate,
		result: make(chan *model.Session, 1),
		errc:   make(chan error, 1),
	}

	r := chi.NewRouter()
	r.Get("/oauth", s.handleOAuth)
	r.Get("/done", s.handleDone)
	s.httpSrv = &http.Server{Addr: addr, Handler: r}
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

// Start begins listening and serving in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpSrv.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.httpSrv.Addr, err)
	}
	s.ln = ln

	go func() {
		if err := s.httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.errc <- err
		}
	}()
	return nil
}

// Addr reports the bound address after Start.
func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

// Wait blocks until a session is captured, the server fails, or the context
// expires.
func (s *Server) Wait(ctx context.Context) (*model.Session, error) {
	select {
	case session := <-s.result:
		return session, nil
	case err := <-s.errc:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close shuts the listener down.
func (s *Server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleOAuth(w http.ResponseWriter, r *http.Request) {
	session, err := s.gate.Capture(r.URL.Query())
	if err != nil {
		http.Error(w, "could not persist session", http.StatusInternalServerError)
		return
	}
	if session == nil {
		http.Error(w, "missing token parameter", http.StatusBadRequest)
		return
	}

	select {
	case s.result <- session:
	default:
	}
	http.Redirect(w, r, "/done", http.StatusSeeOther)
}

func (s *Server) handleDone(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "Signed in. You can close this window and return to the terminal.")
}
