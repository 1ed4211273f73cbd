package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"golang.org/x/sync/errgroup"

	"github.com/target/eventnav/internal/bootstrap"
	"github.com/target/eventnav/internal/domain/nav"
	"github.com/target/eventnav/internal/service"
)

const maxConcurrentChecks = 8

// errSessionExpired reports a credential the API rejected; the session is already signed out.
var errSessionExpired = errors.New("session expired; sign in again")

type accessResult struct {
	Path     string
	EventID  string
	Decision nav.Decision
}

func runAccess(cmdCtx *commandContext, args []string) error {
	fs := newFlagSet("access", cmdCtx.Err)
	var opts sessionOptions
	addSessionFlags(fs, &opts)
	if err := fs.Parse(args); err != nil {
		return err
	}
	paths := fs.Args()
	if len(paths) == 0 {
		return errors.New("access requires at least one path, e.g. /events/42/attendees")
	}

	app, err := openApp(cmdCtx, opts)
	if err != nil {
		return err
	}
	defer closeApp(cmdCtx, app)

	if !app.Sessions.CurrentIdentity().Complete() {
		if err = writef(cmdCtx.Err, "Not signed in; every restricted link is locked.\n"); err != nil {
			return err
		}
	}

	results, err := checkAccess(cmdCtx, app, paths)
	if err != nil {
		return err
	}
	return printAccessResults(cmdCtx.Out, results)
}

// checkAccess evaluates every path on its own gate so the checks do not supersede each other.
func checkAccess(cmdCtx *commandContext, app *bootstrap.App, paths []string) ([]accessResult, error) {
	results := make([]accessResult, len(paths))
	identity := app.Sessions.CurrentIdentity()

	g, ctx := errgroup.WithContext(cmdCtx.Ctx)
	g.SetLimit(maxConcurrentChecks)
	for i, path := range paths {
		g.Go(func() error {
			gate, err := app.NewGate()
			if err != nil {
				return err
			}
			defer gate.Close()

			eventID, _ := nav.EventIDFromPath(path)
			ev := gate.Evaluate(ctx, service.EvaluateInput{EventID: eventID, Identity: identity})
			select {
			case <-ev.Done():
			case <-ctx.Done():
				return fmt.Errorf("check %s: %w", path, ctx.Err())
			}
			results[i] = accessResult{Path: path, EventID: eventID, Decision: gate.Decision()}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	// A rejected credential signs out without settling the gate.
	if identity.Complete() && !app.Sessions.CurrentIdentity().Complete() {
		return nil, errSessionExpired
	}
	return results, nil
}

func printAccessResults(w io.Writer, results []accessResult) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "PATH\tEVENT\tLOADING\tATTENDING"); err != nil {
		return err
	}
	for _, r := range results {
		event := r.EventID
		if event == "" {
			event = "-"
		}
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			r.Path, event, strconv.FormatBool(r.Decision.Loading), strconv.FormatBool(r.Decision.Attending),
		); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func runMenu(cmdCtx *commandContext, args []string) error {
	fs := newFlagSet("menu", cmdCtx.Err)
	var opts sessionOptions
	addSessionFlags(fs, &opts)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("menu requires exactly one path")
	}

	app, err := openApp(cmdCtx, opts)
	if err != nil {
		return err
	}
	defer closeApp(cmdCtx, app)

	ev := app.Navigator.Navigate(cmdCtx.Ctx, fs.Arg(0))
	select {
	case <-ev.Done():
	case <-cmdCtx.Ctx.Done():
		return cmdCtx.Ctx.Err()
	}
	return printMenu(cmdCtx.Out, app.Navigator.Items())
}

func printMenu(w io.Writer, items []nav.ItemView) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "ITEM\tTARGET\tENABLED\tTOOLTIP"); err != nil {
		return err
	}
	for _, item := range items {
		target := item.Href
		if item.Action != "" {
			target = "action:" + item.Action
		}
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%t\t%s\n", item.Label, target, item.Enabled, item.Tooltip); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func runRefresh(cmdCtx *commandContext, args []string) error {
	fs := newFlagSet("refresh", cmdCtx.Err)
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

	if err = app.Navigator.RunAction(cmdCtx.Ctx, nav.RefreshAction.Name); err != nil {
		return err
	}
	if !app.Actions.State().Completed {
		// A rejected credential signs the session out without an error.
		return errSessionExpired
	}
	return writef(cmdCtx.Out, "%s completed.\n", nav.RefreshAction.DisplayName())
}
