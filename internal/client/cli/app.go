package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/client/config"
	"github.com/dmitrijs2005/gophauth/internal/client/models"
	"github.com/dmitrijs2005/gophauth/internal/client/services"
	"github.com/dmitrijs2005/gophauth/internal/logging"
)

// sessionManager is the session surface plus startup restoration.
type sessionManager interface {
	services.Session
	Start(ctx context.Context) error
}

// syncWriter serializes writes from the REPL and from session callbacks.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

type App struct {
	config  *config.Config
	session sessionManager
	log     logging.Logger
	closeFn func() error
	reader  *bufio.Reader
	out     io.Writer

	mu     sync.Mutex
	snap   models.Snapshot
	view   View
	form   FormState
	notice string
}

// NewApp wires logging, durable storage, the identity client and the
// session manager from c.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	log := newLogger(os.Stderr, c.LogLevel)

	store, closeFn, err := client.OpenStorage(ctx, c, log)
	if err != nil {
		log.Error(ctx, "error initializing storage", "error", err)
		return nil, err
	}

	apiClient, err := client.NewHTTPClient(c.ServerBaseURL, c.RequestTimeout, log)
	if err != nil {
		_ = closeFn()
		return nil, err
	}

	m := services.NewManager(apiClient, store, log)
	app := newApp(c, m, log, os.Stdin, os.Stdout)
	app.closeFn = closeFn
	return app, nil
}

// newLogger writes to w at level, or nowhere when level is "off".
func newLogger(w io.Writer, level string) logging.Logger {
	if level == "off" {
		return logging.Discard()
	}
	return logging.New(w, level)
}

func newApp(c *config.Config, s sessionManager, log logging.Logger, in io.Reader, out io.Writer) *App {
	return &App{
		config:  c,
		session: s,
		log:     log,
		reader:  bufio.NewReader(in),
		out:     &syncWriter{w: out},
		view:    ViewLoading,
		form:    newFormState(),
	}
}

// Run subscribes to the session, restores any stored session in the
// background and serves the REPL until the user exits or input ends.
func (a *App) Run(ctx context.Context) error {
	if a.closeFn != nil {
		defer func() {
			if err := a.closeFn(); err != nil {
				a.log.Error(ctx, "closing storage failed", "error", err)
			}
		}()
	}

	unsubscribe := a.session.Subscribe(a.onSnapshot)
	defer unsubscribe()
	a.onSnapshot(a.session.Snapshot())

	fmt.Fprintln(a.out, "Welcome to GophAuth CLI (type 'help' for commands)")
	fmt.Fprintln(a.out, "Loading...")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := a.initSignalHandler(cancel)
	defer stop()

	go func() {
		if err := a.session.Start(ctx); err != nil {
			a.log.Error(ctx, "restoring session failed", "error", err)
		}
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		runREPL(ctx, a, a.status, a.reader, a.out)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		fmt.Fprintln(a.out, "\nBye!")
	}
	return nil
}

// initSignalHandler cancels the app context on SIGINT or SIGTERM. In-flight
// requests are aborted and Run returns. The returned func stops listening.
func (a *App) initSignalHandler(cancel context.CancelFunc) func() {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	quit := make(chan struct{})
	go func() {
		select {
		case <-sigs:
			cancel()
		case <-quit:
		}
	}()

	return func() {
		signal.Stop(sigs)
		close(quit)
	}
}

// onSnapshot follows session changes. It never calls back into the session.
func (a *App) onSnapshot(s models.Snapshot) {
	a.mu.Lock()
	prev := a.view
	a.snap = s
	next := selectView(s, prev)
	if next != prev {
		a.view = next
		a.form = newFormState()
		a.notice = ""
	}
	a.mu.Unlock()

	if prev == ViewLoading && next != ViewLoading {
		if next == ViewDashboard {
			renderDashboard(a.out, s.User, a.config.PhoneRegion, "")
		} else {
			fmt.Fprintln(a.out, "Please log in or register (type 'help' for commands)")
		}
	}
}

func (a *App) snapshot() (models.Snapshot, View) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snap, a.view
}

func (a *App) currentView() View {
	_, v := a.snapshot()
	return v
}

// busy reports whether submit controls are disabled.
func (a *App) busy() bool {
	s, v := a.snapshot()
	return s.Loading || v == ViewLoading
}

func (a *App) status() string {
	s, v := a.snapshot()
	switch {
	case v == ViewLoading:
		return "(loading)"
	case s.Loading:
		return "(busy)"
	case s.IsAuthenticated && s.User != nil:
		return fmt.Sprintf("(%s)", s.User.Email)
	default:
		return "(anonymous)"
	}
}

// switchView moves to v, resetting the form if the view changes.
func (a *App) switchView(v View) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.view != v {
		a.view = v
		a.form = newFormState()
		a.notice = ""
	}
}

func (a *App) setField(field, value string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.form.Set(field, value)
}

func (a *App) formFields() map[string]string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[string]string, len(a.form.Fields))
	for k, v := range a.form.Fields {
		out[k] = v
	}
	return out
}

// fail records field errors and the submit banner on the current form and
// prints them.
func (a *App) fail(order []string, fieldErrs map[string]string, submit string) {
	a.mu.Lock()
	for k, v := range fieldErrs {
		a.form.FieldErrors[k] = v
	}
	a.form.SubmitError = submit
	f := a.form
	a.mu.Unlock()

	renderFieldErrors(a.out, order, f)
}

// Form returns a copy of the current form state.
func (a *App) Form() FormState {
	a.mu.Lock()
	defer a.mu.Unlock()
	f := newFormState()
	for k, v := range a.form.Fields {
		f.Fields[k] = v
	}
	for k, v := range a.form.FieldErrors {
		f.FieldErrors[k] = v
	}
	f.SubmitError = a.form.SubmitError
	return f
}
