package callback

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/notekeeper/notekeeper-go/internal/service"
	"github.com/notekeeper/notekeeper-go/internal/store"
)

func startServer(t *testing.T) (*Server, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	srv := New("127.0.0.1:0", service.NewSessionGate(st))
	if err := srv.Start(); err != nil {
		t.Fatalf("Start() unexpected error: %v", err)
	}
	t.Cleanup(func() { srv.Close() })
	return srv, st
}

// noRedirect is an HTTP client that surfaces redirects instead of following
// them, so the test can inspect the Location header.
var noRedirect = &http.Client{
	CheckRedirect: func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	},
}

func TestCaptureRedirect(t *testing.T) {
	srv, st := startServer(t)

	resp, err := noRedirect.Get("http://" + srv.Addr() + "/oauth?token=abc&name=Ada&email=a%40b.com")
	if err != nil {
		t.Fatalf("GET /oauth unexpected error: %v", err)
	}
	defer resp.Body.Close()

	// The parameterized URL must be replaced, not rendered: See Other to a
	// clean page keeps the credential out of the visible URL.
	if resp.StatusCode != http.StatusSeeOther {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusSeeOther)
	}
	if loc := resp.Header.Get("Location"); loc != "/done" {
		t.Errorf("Location = %q, want /done", loc)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	session, err := srv.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait() unexpected error: %v", err)
	}
	if session.Token != "abc" || session.Identity.Name != "Ada" || session.Identity.Email != "a@b.com" {
		t.Errorf("session = %+v, want abc / Ada / a@b.com", session)
	}

	persisted, err := st.Get()
	if err != nil || persisted == nil {
		t.Fatalf("store.Get() = %+v, %v, want the captured session", persisted, err)
	}
	if persisted.Token != "abc" {
		t.Errorf("persisted token = %q, want abc", persisted.Token)
	}
}

func TestMissingTokenParameter(t *testing.T) {
	srv, st := startServer(t)

	resp, err := noRedirect.Get("http://" + srv.Addr() + "/oauth?email=a%40b.com")
	if err != nil {
		t.Fatalf("GET /oauth unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
	if session, _ := st.Get(); session != nil {
		t.Errorf("store contains %+v, want nothing", session)
	}
}

func TestDonePage(t *testing.T) {
	srv, _ := startServer(t)

	resp, err := noRedirect.Get("http://" + srv.Addr() + "/done")
	if err != nil {
		t.Fatalf("GET /done unexpected error: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "close this window") {
		t.Errorf("body = %q, want a close-this-window message", body)
	}
}

func TestWaitTimeout(t *testing.T) {
	srv, _ := startServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := srv.Wait(ctx); err != context.DeadlineExceeded {
		t.Errorf("Wait() error = %v, want context.DeadlineExceeded", err)
	}
}
