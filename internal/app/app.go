// Package app holds the intake session state: the form being edited, the
// draft/review engine, the auto-cache scheduler, the live record
// subscription and local preferences. A UI adapter drives it through its
// methods; asynchronous outcomes are reported through Notifier.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/and161185/intakedesk/internal/autocache"
	"github.com/and161185/intakedesk/internal/clock"
	"github.com/and161185/intakedesk/internal/errs"
	"github.com/and161185/intakedesk/internal/form"
	"github.com/and161185/intakedesk/internal/model"
	"github.com/and161185/intakedesk/internal/output"
	"github.com/and161185/intakedesk/internal/review"
)

// Store is the record backend as seen by the session.
type Store interface {
	Persist(ctx context.Context, r model.Record) (string, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (model.Record, error)
	// Watch delivers the result set for term until ctx is done.
	Watch(ctx context.Context, term string, fn func([]model.Record)) error
}

// Auth manages the login session.
type Auth interface {
	Login(ctx context.Context, username, password string) (*model.Session, error)
	Restore() (*model.Session, error)
	Logout() error
}

// Notifier shows transient messages to the user.
type Notifier interface {
	Notify(msg string)
}

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(prompt string) bool
}

// Clipboard receives generated text outputs.
type Clipboard interface {
	Copy(text string) error
}

// PrefsStore persists preferences.
type PrefsStore interface {
	Load() (model.Preferences, error)
	Save(model.Preferences) error
}

// Deps are the collaborators of an App. Clock and Logger are optional.
type Deps struct {
	Store     Store
	Auth      Auth
	Notifier  Notifier
	Confirmer Confirmer
	Clipboard Clipboard
	Prefs     PrefsStore
	Clock     clock.Clock
	Logger    *zap.Logger
	Policy    autocache.Policy
}

// App is one intake session. All methods are safe for concurrent use;
// timer and subscription callbacks share the same lock as commands.
type App struct {
	store   Store
	auth    Auth
	notify  Notifier
	confirm Confirmer
	clip    Clipboard
	prefsDB PrefsStore
	clock   clock.Clock
	log     *zap.Logger

	// ctx bounds background work (subscriptions, direct saves).
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	session  *model.Session
	prefs    model.Preferences
	form     *form.Form
	engine   *review.Engine
	cache    *autocache.Scheduler
	touched  bool // form edited since the last snapshot
	location output.Location
	showLoc  bool

	watchCancel context.CancelFunc
	watchGen    uint64
	watchTerm   string
	records     []model.Record
	search      SearchResults
	watchers    sync.WaitGroup
}

// New builds an App. Preferences are loaded immediately; a broken
// preferences file is reported and defaults are used.
func New(d Deps) *App {
	if d.Clock == nil {
		d.Clock = clock.Real()
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	a := &App{
		store:   d.Store,
		auth:    d.Auth,
		notify:  d.Notifier,
		confirm: d.Confirmer,
		clip:    d.Clipboard,
		prefsDB: d.Prefs,
		clock:   d.Clock,
		log:     d.Logger,
		ctx:     ctx,
		cancel:  cancel,
		form:    form.New(),
		engine:  review.NewEngine(),
	}
	a.cache = autocache.New(d.Clock, d.Policy, a.onAutoCache, d.Logger.Named("autocache"))
	if a.prefsDB != nil {
		p, err := a.prefsDB.Load()
		if err != nil {
			a.notifyf("❌ Could not read preferences: %v", err)
		}
		a.prefs = p
	}
	return a
}

// Close stops timers and the live subscription and waits for it to exit.
func (a *App) Close() {
	a.mu.Lock()
	a.cache.Cancel()
	a.detachLocked()
	a.mu.Unlock()
	a.cancel()
	a.watchers.Wait()
}

// Start resumes a saved session, if any.
func (a *App) Start() {
	s, err := a.auth.Restore()
	if err != nil {
		a.log.Debug("no saved session", zap.Error(err))
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onLoginLocked(s)
}

// Session returns the active session or nil.
func (a *App) Session() *model.Session {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.session == nil {
		return nil
	}
	s := *a.session
	return &s
}

// Policy returns the auto-cache policy in effect.
func (a *App) Policy() autocache.Policy { return a.cache.Policy() }

// Login authenticates, subscribes to the record list and starts a new record.
func (a *App) Login(ctx context.Context, username, password string) error {
	s, err := a.auth.Login(ctx, username, password)
	if err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onLoginLocked(s)
	return nil
}

func (a *App) onLoginLocked(s *model.Session) {
	a.session = s
	a.log.Info("signed in", zap.String("user", s.DisplayName))
	a.subscribeLocked("")
	a.newRecordLocked()
	name := s.DisplayName
	if name == "" {
		name = s.Email
	}
	a.notifyf("Signed in as: %s", name)
}

// Logout cancels pending work, detaches the subscription and forgets the session.
func (a *App) Logout() error {
	a.mu.Lock()
	a.cache.Cancel()
	a.touched = false
	a.detachLocked()
	a.session = nil
	a.records = nil
	a.search.Clear()
	a.mu.Unlock()
	return a.auth.Logout()
}

func (a *App) requireSession() error {
	if a.session == nil {
		return errs.ErrUnauthenticated
	}
	return nil
}

// persistErr wraps backend failures, leaving session errors as they are.
func persistErr(op string, err error) error {
	var pe *errs.PersistenceError
	if errors.Is(err, errs.ErrUnauthenticated) || errors.As(err, &pe) {
		return err
	}
	return errs.Persistence(op, err)
}

func (a *App) notifyf(format string, args ...any) {
	if a.notify == nil {
		return
	}
	a.notify.Notify(fmt.Sprintf(format, args...))
}

func (a *App) confirmf(format string, args ...any) bool {
	if a.confirm == nil {
		return true
	}
	return a.confirm.Confirm(fmt.Sprintf(format, args...))
}
