package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/time/rate"

	"github.com/notekeeper/notekeeper-go/internal/api"
	"github.com/notekeeper/notekeeper-go/internal/callback"
	"github.com/notekeeper/notekeeper-go/internal/config"
	"github.com/notekeeper/notekeeper-go/internal/service"
	"github.com/notekeeper/notekeeper-go/internal/store"
	"github.com/notekeeper/notekeeper-go/internal/token"
)

const usageText = `notekeeper — personal notes, kept remotely

Usage:
  notekeeper signup            create an account via emailed OTP
  notekeeper login             sign in via emailed OTP
  notekeeper login --google    sign in with Google
  notekeeper whoami            show the current session identity
  notekeeper logout            sign out and forget the session
  notekeeper list              list notes
  notekeeper add <content>     create a note
  notekeeper rm <id>           delete a note
  notekeeper status            check whether the API is reachable
`

type app struct {
	cfg    config.Config
	client *api.Client
	store  store.Store
	gate   *service.SessionGate
	in     *bufio.Scanner
}

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("loading configuration", "error", err)
		os.Exit(1)
	}

	args := os.Args[1:]
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usageText)
		os.Exit(2)
	}

	st, err := store.NewFileStore(cfg.StateDir, cfg.StoreSecret)
	if err != nil {
		slog.Error("opening session store", "error", err, "dir", cfg.StateDir)
		os.Exit(1)
	}

	a := &app{
		cfg:    cfg,
		client: api.NewClient(cfg.APIURL, cfg.HTTPTimeout),
		store:  st,
		gate:   service.NewSessionGate(st),
		in:     bufio.NewScanner(os.Stdin),
	}

	ctx := context.Background()
	if err := a.run(ctx, args); err != nil {
		if errors.Is(err, service.ErrNoSession) {
			fmt.Fprintln(os.Stderr, "No active session. Run `notekeeper login` or `notekeeper signup` first.")
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func (a *app) run(ctx context.Context, args []string) error {
	switch args[0] {
	case "signup":
		return a.signup(ctx)
	case "login":
		if len(args) > 1 && args[1] == "--google" {
			return a.loginGoogle(ctx)
		}
		return a.login(ctx)
	case "logout":
		return a.logout()
	case "whoami":
		return a.whoami()
	case "list":
		return a.list(ctx)
	case "add":
		return a.add(ctx, strings.Join(args[1:], " "))
	case "rm":
		if len(args) < 2 {
			return errors.New("usage: notekeeper rm <id>")
		}
		return a.remove(ctx, args[1])
	case "status":
		return a.status(ctx)
	default:
		fmt.Fprint(os.Stderr, usageText)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func (a *app) prompt(label string) string {
	fmt.Print(label)
	if !a.in.Scan() {
		return ""
	}
	return strings.TrimSpace(a.in.Text())
}

// runChallenge drives the interactive OTP loop shared by signup and login.
// The prompt is synchronous, so there is never more than one request in
// flight for a challenge.
func (a *app) runChallenge(ctx context.Context, challenge *service.AuthChallenge, name, email string) error {
	message, err := challenge.Start(ctx, name, email)
	if err != nil {
		return err
	}
	if message == "" {
		message = "OTP sent to your email"
	}
	fmt.Println(message)

	for {
		otp := a.prompt("Enter OTP (or 'resend'): ")
		if otp == "" {
			return errors.New("aborted")
		}
		if otp == "resend" {
			msg, err := challenge.Resend(ctx)
			if err != nil {
				fmt.Println(err)
				continue
			}
			if msg == "" {
				msg = "OTP resent"
			}
			fmt.Println(msg)
			continue
		}

		session, err := challenge.Verify(ctx, otp)
		if err != nil {
			fmt.Println(err)
			continue
		}
		fmt.Printf("Welcome, %s! Signed in as %s.\n", session.Identity.Name, session.Identity.Email)
		return nil
	}
}

func (a *app) signup(ctx context.Context) error {
	name := a.prompt("Your name: ")
	email := a.prompt("Email: ")
	challenge := service.NewSignUp(a.client, a.store).
		WithResendLimit(rate.NewLimiter(rate.Every(30*time.Second), 1))
	return a.runChallenge(ctx, challenge, name, email)
}

func (a *app) login(ctx context.Context) error {
	if session, err := a.store.Get(); err == nil && session != nil {
		fmt.Printf("Already signed in as %s. Run `notekeeper logout` first to switch accounts.\n", session.Identity.Email)
		return nil
	}

	email := a.prompt("Email: ")
	challenge := service.NewSignIn(a.client, a.store).
		WithResendLimit(rate.NewLimiter(rate.Every(30*time.Second), 1))
	return a.runChallenge(ctx, challenge, "", email)
}

func (a *app) loginGoogle(ctx context.Context) error {
	srv := callback.New(a.cfg.CallbackAddr, a.gate)
	if err := srv.Start(); err != nil {
		return err
	}
	defer srv.Close()

	fmt.Println("Open this URL in your browser to sign in with Google:")
	fmt.Printf("  %s\n", a.client.GoogleAuthURL())
	fmt.Printf("Waiting for the redirect on http://%s/oauth ...\n", srv.Addr())

	ctx, cancel := context.WithTimeout(ctx, a.cfg.LoginTimeout)
	defer cancel()

	session, err := srv.Wait(ctx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return errors.New("timed out waiting for the sign-in redirect")
		}
		return err
	}
	fmt.Printf("Welcome, %s! Signed in as %s.\n", session.Identity.Name, session.Identity.Email)
	return nil
}

func (a *app) logout() error {
	if err := a.gate.SignOut(); err != nil {
		return err
	}
	fmt.Println("Signed out.")
	return nil
}

func (a *app) whoami() error {
	session, err := a.gate.Resolve(nil)
	if err != nil {
		return err
	}

	fmt.Printf("Name:  %s\n", session.Identity.Name)
	fmt.Printf("Email: %s\n", session.Identity.Email)
	if session.Identity.ID != 0 {
		fmt.Printf("ID:    %d\n", session.Identity.ID)
	}
	if claims := token.Decode(session.Token); claims == nil {
		fmt.Println("Token payload: not decodable")
	}
	return nil
}

func (a *app) list(ctx context.Context) error {
	session, err := a.gate.Resolve(nil)
	if err != nil {
		return err
	}
	sync := service.NewNotesSync(a.client, a.gate, session)

	notes, err := sync.Refresh(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Welcome, %s! (%s)\n\n", session.Identity.Name, session.Identity.Email)
	if len(notes) == 0 {
		fmt.Println("No notes yet. Create one with `notekeeper add <content>`.")
		return nil
	}
	for _, n := range notes {
		fmt.Printf("  [%s] %s\n", n.ID, n.Content)
	}
	return nil
}

func (a *app) add(ctx context.Context, content string) error {
	session, err := a.gate.Resolve(nil)
	if err != nil {
		return err
	}
	if strings.TrimSpace(content) == "" {
		content = a.prompt("Enter your note: ")
	}

	sync := service.NewNotesSync(a.client, a.gate, session)
	note, err := sync.Add(ctx, content)
	if err != nil {
		return err
	}
	fmt.Printf("Created note [%s].\n", note.ID)
	return nil
}

func (a *app) remove(ctx context.Context, id string) error {
	session, err := a.gate.Resolve(nil)
	if err != nil {
		return err
	}

	sync := service.NewNotesSync(a.client, a.gate, session)
	if err := sync.Remove(ctx, id); err != nil {
		return err
	}
	fmt.Printf("Deleted note [%s].\n", id)
	return nil
}

func (a *app) status(ctx context.Context) error {
	if err := a.client.Ping(ctx); err != nil {
		return err
	}
	fmt.Println("API reachable at", a.cfg.APIURL)
	return nil
}
