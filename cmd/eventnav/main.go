package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/target/eventnav/config"
	"github.com/target/eventnav/internal/bootstrap"
)

type commandFn func(ctx *commandContext, args []string) error

type command struct {
	name        string
	description string
	run         commandFn
}

type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	Config config.AppConfig
	Out    io.Writer
	Err    io.Writer
}

func main() {
	logger := bootstrap.InitLogger(os.Stderr, os.Getenv("LOG_LEVEL"), false)

	if len(os.Args) < 2 {
		if err := printUsage(os.Stderr); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when no command is provided
	}

	cmdName := os.Args[1]
	if cmdName == "help" || cmdName == "-h" || cmdName == "--help" {
		if err := printUsage(os.Stdout); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		return
	}

	cmd, ok := commands()[cmdName]
	if !ok {
		if err := writef(os.Stderr, "unknown command %q\n\n", cmdName); err != nil {
			logger.Error("print unknown command message failed", "error", err)
		}
		if err := printUsage(os.Stderr); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when command is unknown
	}

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		logger.ErrorContext(context.Background(), "load config", "error", err)
		os.Exit(1) //nolint:forbidigo // CLI must signal configuration load failure to shell scripts
	}
	logger = bootstrap.InitLogger(os.Stderr, cfg.LogLevel, cfg.IsDev)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	cmdCtx := &commandContext{
		Ctx:    ctx,
		Logger: logger,
		Config: cfg,
		Out:    os.Stdout,
		Err:    os.Stderr,
	}
	runErr := cmd.run(cmdCtx, os.Args[2:])
	stop()
	if runErr != nil {
		logger.ErrorContext(ctx, "command failed", "command", cmdName, "error", runErr)
		os.Exit(1) //nolint:forbidigo // CLI must propagate command execution failure to callers
	}
}

func commands() map[string]command {
	return map[string]command{
		"login": {
			name:        "login",
			description: "Sign in through the configured identity provider or with --token",
			run:         runLogin,
		},
		"logout": {
			name:        "logout",
			description: "Sign out and delete the persisted session",
			run:         runLogout,
		},
		"whoami": {
			name:        "whoami",
			description: "Show the current session",
			run:         runWhoami,
		},
		"access": {
			name:        "access",
			description: "Check whether attendee-only links are unlocked for one or more event paths",
			run:         runAccess,
		},
		"menu": {
			name:        "menu",
			description: "Show the navigation menu for a location",
			run:         runMenu,
		},
		"refresh": {
			name:        "refresh",
			description: "Trigger the administrative data refresh (admins only)",
			run:         runRefresh,
		},
	}
}

func printUsage(w io.Writer) error {
	if err := writef(w, "Usage: eventnav <command> [flags]\n\n"); err != nil {
		return err
	}
	if err := writef(w, "Available commands:\n"); err != nil {
		return err
	}
	cmds := commands()
	names := make([]string, 0, len(cmds))
	for name := range cmds {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := writef(w, "  %-10s %s\n", name, cmds[name].description); err != nil {
			return err
		}
	}
	return nil
}

// sessionOptions are the flags shared by commands that act as the signed-in user.
type sessionOptions struct {
	Token string
}

func addSessionFlags(fs *pflag.FlagSet, opts *sessionOptions) {
	fs.StringVar(&opts.Token, "token", "", "bearer token to sign in with before running the command")
}

func newFlagSet(name string, w io.Writer) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(w)
	return fs
}

// openApp wires the application and, when a token is given, signs in with it.
func openApp(cmdCtx *commandContext, opts sessionOptions) (*bootstrap.App, error) {
	app, err := bootstrap.NewApp(cmdCtx.Ctx, bootstrap.AppOptions{
		Config:  cmdCtx.Config,
		Logger:  cmdCtx.Logger,
		Console: cmdCtx.Err,
	})
	if err != nil {
		return nil, err
	}

	if token := strings.TrimSpace(opts.Token); token != "" {
		if _, signInErr := app.Sessions.SignInWithToken(cmdCtx.Ctx, token); signInErr != nil {
			if closeErr := app.Close(); closeErr != nil {
				cmdCtx.Logger.WarnContext(cmdCtx.Ctx, "close app failed", "error", closeErr)
			}
			return nil, fmt.Errorf("sign in with token: %w", signInErr)
		}
	}
	return app, nil
}

func closeApp(cmdCtx *commandContext, app *bootstrap.App) {
	if err := app.Close(); err != nil {
		cmdCtx.Logger.WarnContext(cmdCtx.Ctx, "close app failed", "error", err)
	}
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}
