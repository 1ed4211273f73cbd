package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/target/eventnav/config"
	"github.com/target/eventnav/internal/bootstrap"
	"github.com/target/eventnav/internal/service"
)

const defaultLoginTimeout = 5 * time.Minute

type loginOptions struct {
	sessionOptions
	Timeout time.Duration
}

func parseLoginFlags(cmdCtx *commandContext, args []string) (loginOptions, error) {
	fs := newFlagSet("login", cmdCtx.Err)
	var opts loginOptions
	addSessionFlags(fs, &opts.sessionOptions)
	fs.DurationVar(&opts.Timeout, "timeout", defaultLoginTimeout, "how long to wait for the identity provider callback")
	if err := fs.Parse(args); err != nil {
		return loginOptions{}, err
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultLoginTimeout
	}
	return opts, nil
}

func runLogin(cmdCtx *commandContext, args []string) error {
	opts, err := parseLoginFlags(cmdCtx, args)
	if err != nil {
		return err
	}

	app, err := openApp(cmdCtx, opts.sessionOptions)
	if err != nil {
		return err
	}
	defer closeApp(cmdCtx, app)

	if opts.Token == "" {
		if err = interactiveLogin(cmdCtx, app, opts.Timeout); err != nil {
			return err
		}
	}
	return printSession(cmdCtx, app)
}

func interactiveLogin(cmdCtx *commandContext, app *bootstrap.App, timeout time.Duration) error {
	redirectURL := cmdCtx.Config.Auth.OAuth.RedirectURL
	switch cmdCtx.Config.Auth.Mode {
	case config.AuthModeToken:
		return errors.New("AUTH_MODE=token requires --token")

	case config.AuthModeMock:
		begin, err := app.Sessions.BeginLogin(cmdCtx.Ctx, redirectURL)
		if err != nil {
			return err
		}
		code, err := codeFromRedirect(begin.AuthURL)
		if err != nil {
			return err
		}
		_, err = app.Sessions.CompleteLogin(cmdCtx.Ctx, service.CompleteLoginInput{
			Code:  code,
			State: begin.State,
			Nonce: begin.Nonce,
		})
		return err

	default:
		ctx, cancel := context.WithTimeout(cmdCtx.Ctx, timeout)
		defer cancel()
		return browserLogin(ctx, cmdCtx, app.Sessions, redirectURL)
	}
}

func codeFromRedirect(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse redirect: %w", err)
	}
	code := u.Query().Get("code")
	if code == "" {
		return "", errors.New("redirect carries no authorization code")
	}
	return code, nil
}

// browserLogin prints the IdP URL and completes the login once the browser is
// redirected to the loopback listener.
func browserLogin(ctx context.Context, cmdCtx *commandContext, sessions *service.SessionManager, redirectURL string) error {
	redirect, err := url.Parse(redirectURL)
	if err != nil {
		return fmt.Errorf("parse redirect url: %w", err)
	}

	begin, err := sessions.BeginLogin(ctx, redirectURL)
	if err != nil {
		return err
	}

	results := make(chan callbackResult, 1)
	listener, err := (&net.ListenConfig{}).Listen(ctx, "tcp", cmdCtx.Config.Auth.CallbackAddr)
	if err != nil {
		return fmt.Errorf("listen for callback: %w", err)
	}
	srv := &http.Server{
		Handler:           newCallbackHandler(redirect.Path, begin.State, results),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if serveErr := srv.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			cmdCtx.Logger.WarnContext(ctx, "callback server stopped", "error", serveErr)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
			cmdCtx.Logger.WarnContext(ctx, "callback server shutdown failed", "error", shutdownErr)
		}
	}()

	if err = writef(cmdCtx.Out, "Open this URL in your browser to sign in:\n\n  %s\n\n", begin.AuthURL); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("waiting for login callback: %w", ctx.Err())
	case res := <-results:
		if res.err != nil {
			return res.err
		}
		_, err = sessions.CompleteLogin(ctx, service.CompleteLoginInput{
			Code:  res.code,
			State: begin.State,
			Nonce: begin.Nonce,
		})
		return err
	}
}

type callbackResult struct {
	code string
	err  error
}

// newCallbackHandler accepts one redirect on path carrying the expected state.
// Later requests are answered but ignored.
func newCallbackHandler(path, state string, results chan<- callbackResult) http.Handler {
	if path == "" {
		path = "/"
	}
	mux := http.NewServeMux()
	mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		var res callbackResult
		switch {
		case q.Get("error") != "":
			res.err = fmt.Errorf("identity provider returned %s: %s", q.Get("error"), q.Get("error_description"))
		case q.Get("state") != state:
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		case q.Get("code") == "":
			res.err = errors.New("callback carries no authorization code")
		default:
			res.code = q.Get("code")
		}

		select {
		case results <- res:
		default:
		}

		if res.err != nil {
			http.Error(w, "Sign-in failed. You can close this window.", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("Signed in. You can close this window.\n"))
	})
	return mux
}

func runLogout(cmdCtx *commandContext, args []string) error {
	fs := newFlagSet("logout", cmdCtx.Err)
	if err := fs.Parse(args); err != nil {
		return err
	}

	app, err := openApp(cmdCtx, sessionOptions{})
	if err != nil {
		return err
	}
	defer closeApp(cmdCtx, app)

	if err = app.Sessions.SignOut(cmdCtx.Ctx); err != nil {
		return err
	}
	return writef(cmdCtx.Out, "Signed out.\n")
}

func runWhoami(cmdCtx *commandContext, args []string) error {
	fs := newFlagSet("whoami", cmdCtx.Err)
	var opts sessionOptions
	addSessionFlags(fs, &opts)
	if err := fs.Parse(args); err != nil {
		return err
	}

	app, err := openApp(cmdCtx, opts)
	if err != nil {
		return err
	}
	defer closeApp(cmdCtx, app)
	return printSession(cmdCtx, app)
}

func printSession(cmdCtx *commandContext, app *bootstrap.App) error {
	session := app.Sessions.Current()
	if !session.SignedIn(time.Now()) {
		return writef(cmdCtx.Out, "Not signed in.\n")
	}
	expires := "never"
	if !session.ExpiresAt.IsZero() {
		expires = session.ExpiresAt.Local().Format(time.RFC1123)
	}
	return writef(cmdCtx.Out, "Signed in as %s (role %s, expires %s)\n", session.Email, session.Role, expires)
}
