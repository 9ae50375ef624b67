package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	return NewClient(srv.URL, 5*time.Second), srv
}

func TestRequestSignupOTP(t *testing.T) {
	var gotBody map[string]string
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/request-otp" {
			t.Errorf("path = %q, want /auth/request-otp", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decoding request body: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]string{"message": "OTP sent successfully"})
	})
	defer srv.Close()

	msg, err := client.RequestSignupOTP(context.Background(), "Ada", "ada@x.com")
	if err != nil {
		t.Fatalf("RequestSignupOTP() unexpected error: %v", err)
	}
	if msg != "OTP sent successfully" {
		t.Errorf("message = %q, want %q", msg, "OTP sent successfully")
	}
	if gotBody["name"] != "Ada" || gotBody["email"] != "ada@x.com" {
		t.Errorf("request body = %v, want name/email fields", gotBody)
	}
}

func TestRequestLoginOTPOmitsName(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/login-check" {
			t.Errorf("path = %q, want /auth/login-check", r.URL.Path)
		}
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if _, ok := body["name"]; ok {
			t.Error("login-check body should not carry a name field")
		}
		json.NewEncoder(w).Encode(map[string]string{"message": "OTP sent successfully"})
	})
	defer srv.Close()

	if _, err := client.RequestLoginOTP(context.Background(), "ada@x.com"); err != nil {
		t.Fatalf("RequestLoginOTP() unexpected error: %v", err)
	}
}

func TestRequestOTPErrorInOKBody(t *testing.T) {
	// The issuance endpoints sometimes report failures inside a 200 body.
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"error": "unknown email"})
	})
	defer srv.Close()

	_, err := client.RequestLoginOTP(context.Background(), "nobody@x.com")
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *api.Error", err)
	}
	if apiErr.Message != "unknown email" {
		t.Errorf("message = %q, want %q", apiErr.Message, "unknown email")
	}
}

func TestRequestOTPServerError(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "email is invalid"})
	})
	defer srv.Close()

	_, err := client.RequestSignupOTP(context.Background(), "Ada", "bad")
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *api.Error", err)
	}
	if apiErr.Status != http.StatusBadRequest || apiErr.Message != "email is invalid" {
		t.Errorf("error = %+v, want 400 / email is invalid", apiErr)
	}
}

func TestErrorFallbackMessage(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("<html>oops</html>"))
	})
	defer srv.Close()

	_, err := client.RequestLoginOTP(context.Background(), "ada@x.com")
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *api.Error", err)
	}
	if apiErr.Message != fallbackMessage {
		t.Errorf("message = %q, want fallback", apiErr.Message)
	}
}

func TestVerifyOTP(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/verify-otp" {
			t.Errorf("path = %q, want /auth/verify-otp", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"token":   "tkn1",
			"message": "ok",
			"user":    map[string]any{"id": 7, "name": "Ada", "email": "ada@x.com"},
		})
	})
	defer srv.Close()

	resp, err := client.VerifyOTP(context.Background(), "", "ada@x.com", "123456")
	if err != nil {
		t.Fatalf("VerifyOTP() unexpected error: %v", err)
	}
	if resp.Token != "tkn1" || resp.Message != "ok" {
		t.Errorf("resp = %+v, want token tkn1, message ok", resp)
	}
	if resp.User == nil || resp.User.ID != 7 || resp.User.Name != "Ada" {
		t.Errorf("user = %+v, want id 7 name Ada", resp.User)
	}
}

func TestListNotesBearerHeader(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tkn1" {
			t.Errorf("Authorization = %q, want %q", got, "Bearer tkn1")
		}
		json.NewEncoder(w).Encode(map[string]any{
			"notes": []map[string]string{{"id": "n1", "content": "first"}},
		})
	})
	defer srv.Close()

	notes, err := client.ListNotes(context.Background(), "tkn1")
	if err != nil {
		t.Fatalf("ListNotes() unexpected error: %v", err)
	}
	if len(notes) != 1 || notes[0].ID != "n1" || notes[0].Content != "first" {
		t.Errorf("notes = %+v, want one note n1/first", notes)
	}
}

func TestListNotesNullCollection(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"notes": null}`))
	})
	defer srv.Close()

	notes, err := client.ListNotes(context.Background(), "tkn1")
	if err != nil {
		t.Fatalf("ListNotes() unexpected error: %v", err)
	}
	if notes == nil || len(notes) != 0 {
		t.Errorf("notes = %#v, want empty non-nil slice", notes)
	}
}

func TestListNotesMalformedBody(t *testing.T) {
	for _, body := range []string{"", "not json", "{}"} {
		client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		})

		notes, err := client.ListNotes(context.Background(), "tkn1")
		srv.Close()
		if err != nil {
			t.Fatalf("ListNotes() with body %q unexpected error: %v", body, err)
		}
		if len(notes) != 0 {
			t.Errorf("ListNotes() with body %q = %+v, want empty", body, notes)
		}
	}
}

func TestUnauthorizedClassification(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		})

		_, err := client.ListNotes(context.Background(), "stale")
		srv.Close()
		if !errors.Is(err, ErrUnauthorized) {
			t.Errorf("status %d: error = %v, want ErrUnauthorized", status, err)
		}
	}
}

func TestVerifyOTPRejectionIsNotSessionTeardown(t *testing.T) {
	// A 401 on verification means a wrong code, not a rejected session:
	// no bearer token was sent, so the server's message must surface.
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "Invalid or expired OTP"})
	})
	defer srv.Close()

	_, err := client.VerifyOTP(context.Background(), "", "ada@x.com", "000000")
	if errors.Is(err, ErrUnauthorized) {
		t.Fatal("VerifyOTP() classified a challenge failure as ErrUnauthorized")
	}
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.Message != "Invalid or expired OTP" {
		t.Errorf("error = %v, want api.Error with the server message", err)
	}
}

func TestCreateNote(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/notes" {
			t.Errorf("got %s %s, want POST /notes", r.Method, r.URL.Path)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		json.NewEncoder(w).Encode(map[string]any{
			"note": map[string]string{"id": "n9", "content": body["content"]},
		})
	})
	defer srv.Close()

	note, err := client.CreateNote(context.Background(), "tkn1", "buy milk")
	if err != nil {
		t.Fatalf("CreateNote() unexpected error: %v", err)
	}
	if note.ID != "n9" || note.Content != "buy milk" {
		t.Errorf("note = %+v, want n9 / buy milk", note)
	}
}

func TestDeleteNote(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/notes/n1" {
			t.Errorf("got %s %s, want DELETE /notes/n1", r.Method, r.URL.Path)
		}
		// Success with an empty body.
	})
	defer srv.Close()

	if err := client.DeleteNote(context.Background(), "tkn1", "n1"); err != nil {
		t.Fatalf("DeleteNote() unexpected error: %v", err)
	}
}

func TestTransportError(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", time.Second)

	if _, err := client.ListNotes(context.Background(), "tkn1"); err == nil {
		t.Error("ListNotes() expected error for unreachable server")
	}
}
