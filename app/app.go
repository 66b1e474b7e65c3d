// Package app runs the interactive client: a login view, a code view with
// the live countdown and a help view, switched by a nav.Router.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/jmcleod/examcode/alert"
	"github.com/jmcleod/examcode/auth"
	"github.com/jmcleod/examcode/client"
	"github.com/jmcleod/examcode/clock"
	"github.com/jmcleod/examcode/nav"
)

const helpText = `Commands in the code view:
  help     show this text
  logout   end the session and return to the login prompt
  quit     leave the program, keeping the session

The code is valid until the countdown reaches zero. A new code is fetched
automatically when it expires.
`

var errQuit = errors.New("quit")

// Deps are the collaborators shared by all views.
type Deps struct {
	Router   *nav.Router
	Auth     *auth.Service
	Alerts   *alert.Channel
	Fetcher  clock.Fetcher
	Sessions clock.SessionReader
}

// App is the interactive client.
type App struct {
	Deps

	in        *input
	out       *lockedWriter
	logger    *slog.Logger
	clockOpts []clock.Option
}

// Option configures an App.
type Option func(*App)

// WithInput sets where prompts and commands are read from.
func WithInput(r io.Reader) Option {
	return func(a *App) { a.in = newInput(r) }
}

// WithOutput sets where views are rendered.
func WithOutput(w io.Writer) Option {
	return func(a *App) { a.out = &lockedWriter{w: w} }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) { a.logger = logger }
}

// WithClockOptions passes options to every clock the code view creates.
func WithClockOptions(opts ...clock.Option) Option {
	return func(a *App) { a.clockOpts = append(a.clockOpts, opts...) }
}

// New returns an App reading from stdin and writing to stdout.
func New(deps Deps, opts ...Option) *App {
	a := &App{
		Deps:   deps,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.in == nil {
		a.in = newInput(os.Stdin)
	}
	if a.out == nil {
		a.out = &lockedWriter{w: os.Stdout}
	}
	return a
}

// Run shows the active view until ctx is cancelled, input ends on the login
// prompt, or the user quits.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	a.in.start(ctx)

	unsubscribe := a.Alerts.Subscribe(func(al alert.Alert) {
		if !al.Hidden {
			a.out.printf("! %s\n", al.Message)
		}
	})
	defer unsubscribe()

	for ctx.Err() == nil {
		route := a.Router.Current()
		a.logger.Debug("app: entering view", "route", string(route))

		var err error
		switch route {
		case nav.RouteCode:
			err = a.codeView(ctx)
		case nav.RouteHelp:
			a.helpView()
		default:
			err = a.loginView(ctx)
		}

		switch {
		case err == nil:
		case errors.Is(err, io.EOF), errors.Is(err, errQuit), errors.Is(err, context.Canceled):
			return nil
		default:
			return err
		}
	}
	return nil
}

func (a *App) loginView(ctx context.Context) error {
	if a.Auth.Resume() {
		return nil
	}

	a.out.printf("User: ")
	user, err := a.in.readLine(ctx, false)
	if err != nil {
		return err
	}
	a.out.printf("Password: ")
	password, err := a.in.readLine(ctx, true)
	if a.in.terminal {
		a.out.printf("\n")
	}
	if err != nil {
		return err
	}

	creds := client.NewCredentials(string(user), password)
	clear(password)
	// Failures are reported through the alert channel; stay on this view.
	_ = a.Auth.Login(ctx, creds)
	return nil
}

func (a *App) codeView(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg      sync.WaitGroup
		quitErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		a.watchRoute(ctx, cancel)
	}()
	go func() {
		defer wg.Done()
		if a.readCommands(ctx) {
			quitErr = errQuit
			cancel()
		}
	}()

	opts := append([]clock.Option{
		clock.WithLogger(a.logger),
		clock.WithObserver(a.render),
	}, a.clockOpts...)
	err := clock.New(a.Fetcher, a.Sessions, a.Auth, a.Alerts, opts...).Run(ctx)

	cancel()
	wg.Wait()
	if quitErr != nil {
		return quitErr
	}
	return err
}

// watchRoute cancels the view when the router leaves the code route.
func (a *App) watchRoute(ctx context.Context, cancel context.CancelFunc) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-a.Router.Changes():
			if a.Router.Current() != nav.RouteCode {
				cancel()
				return
			}
		}
	}
}

// readCommands handles code view commands until ctx is done or input ends.
// It reports whether the user asked to quit.
func (a *App) readCommands(ctx context.Context) bool {
	for {
		line, err := a.in.readLine(ctx, false)
		if err != nil {
			return false
		}
		switch strings.ToLower(strings.TrimSpace(string(line))) {
		case "":
		case "h", "help", "?":
			a.Router.Navigate(nav.RouteHelp)
		case "logout":
			a.Auth.Logout(false)
		case "q", "quit", "exit":
			return true
		default:
			a.out.printf("unknown command %q, type help\n", line)
		}
	}
}

func (a *App) render(s clock.Snapshot) {
	switch s.State {
	case clock.StateCounting, clock.StateRefetching:
		a.out.printf("Code: %s  expires in %s\n", s.Code, s.Countdown)
	}
}

func (a *App) helpView() {
	a.out.printf("%s", helpText)
	a.Router.Navigate(nav.RouteCode)
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) printf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.w, format, args...)
}
