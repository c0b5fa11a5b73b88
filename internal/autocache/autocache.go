// Package autocache debounces form edits into a single deferred action.
package autocache

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/and161185/intakedesk/internal/clock"
)

// Policy selects what happens when the debounce window elapses.
type Policy int

const (
	// ReviewGated snapshots the form into the draft and recomputes the review diff.
	ReviewGated Policy = iota
	// DirectSave snapshots the form and persists it immediately.
	DirectSave
)

// Window returns the debounce delay of the policy.
func (p Policy) Window() time.Duration {
	if p == DirectSave {
		return 2000 * time.Millisecond
	}
	return 1000 * time.Millisecond
}

func (p Policy) String() string {
	switch p {
	case ReviewGated:
		return "review"
	case DirectSave:
		return "direct"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy accepts "review" (the default when empty) or "direct".
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "review":
		return ReviewGated, nil
	case "direct":
		return DirectSave, nil
	default:
		return 0, fmt.Errorf("unknown autocache policy %q", s)
	}
}

// Scheduler runs action once after a quiet period of Policy.Window since the
// last Touch. Fires never overlap.
type Scheduler struct {
	clock  clock.Clock
	policy Policy
	action func()
	log    *zap.Logger

	mu    sync.Mutex
	timer clock.Timer
	seq   uint64

	run sync.Mutex
}

// New returns a scheduler. A nil logger is replaced by a no-op one.
func New(c clock.Clock, p Policy, action func(), log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{clock: c, policy: p, action: action, log: log}
}

// Policy returns the configured policy.
func (s *Scheduler) Policy() Policy { return s.policy }

// Touch (re)starts the debounce timer.
func (s *Scheduler) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.seq++
	seq := s.seq
	s.timer = s.clock.AfterFunc(s.policy.Window(), func() { s.fire(seq) })
}

// Cancel drops a pending fire. It reports whether one was pending.
func (s *Scheduler) Cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	if s.timer == nil {
		return false
	}
	stopped := s.timer.Stop()
	s.timer = nil
	return stopped
}

// Pending reports whether a fire is scheduled.
func (s *Scheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

func (s *Scheduler) fire(seq uint64) {
	s.mu.Lock()
	if seq != s.seq {
		// superseded by a later Touch or Cancel
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.mu.Unlock()

	s.run.Lock()
	defer s.run.Unlock()
	s.log.Debug("autocache fire", zap.Stringer("policy", s.policy))
	s.action()
}
