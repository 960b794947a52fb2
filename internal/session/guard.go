package session

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

type State int

const (
	StateChecking State = iota
	StateAuthenticated
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateChecking:
		return "checking"
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	}
	return "unknown"
}

// Provider is the source of truth for the current session. Subscribe
// delivers every later change (nil means the session is gone) until the
// returned function is called.
type Provider interface {
	Current(ctx context.Context) (*Session, error)
	Subscribe(fn func(*Session)) (unsubscribe func())
}

// Guard runs protected work only while a session exists.
type Guard struct {
	provider Provider
	redirect func()
	log      *zap.Logger

	mu    sync.Mutex
	state State
	// latest push received while checking
	pending    *Session
	hasPending bool
}

// NewGuard builds a guard; redirect is called whenever the caller must log in.
func NewGuard(p Provider, redirect func(), log *zap.Logger) *Guard {
	if log == nil {
		log = zap.NewNop()
	}
	if redirect == nil {
		redirect = func() {}
	}
	return &Guard{provider: p, redirect: redirect, log: log}
}

func (g *Guard) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Run fetches the session once and, if present, runs protected with it.
// If the provider later reports the session gone, protected's context is
// cancelled and Run returns ErrSessionLost. The subscription is always
// released before Run returns.
func (g *Guard) Run(ctx context.Context, protected func(ctx context.Context, s *Session) error) error {
	g.mu.Lock()
	g.state = StateChecking
	g.pending, g.hasPending = nil, false
	g.mu.Unlock()

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	unsubscribe := g.provider.Subscribe(func(s *Session) {
		if s != nil {
			g.transition(StateAuthenticated, s)
			return
		}
		if g.transition(StateUnauthenticated, nil) {
			g.log.Info("session lost, redirecting to login")
			cancel(ErrSessionLost)
			g.redirect()
		}
	})
	defer unsubscribe()

	sess, err := g.provider.Current(ctx)
	if err != nil {
		g.log.Warn("session check failed", zap.Error(err))
	}
	if err != nil || sess == nil {
		g.setState(StateUnauthenticated)
		g.redirect()
		return ErrUnauthenticated
	}
	sess, lost := g.resolve(sess)
	if lost {
		g.log.Info("session lost during check, redirecting to login")
		g.redirect()
		return ErrSessionLost
	}

	err = protected(ctx, sess)
	if context.Cause(ctx) == ErrSessionLost {
		return ErrSessionLost
	}
	return err
}

func (g *Guard) setState(s State) {
	g.mu.Lock()
	g.state = s
	g.mu.Unlock()
}

// resolve leaves checking with the fetched session, unless a push arrived
// meanwhile: the latest push wins.
func (g *Guard) resolve(fetched *Session) (*Session, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.hasPending {
		fetched = g.pending
		g.pending, g.hasPending = nil, false
	}
	if fetched == nil {
		g.state = StateUnauthenticated
		return nil, true
	}
	g.state = StateAuthenticated
	return fetched, false
}

// transition applies a pushed change and reports whether the state actually
// changed. While checking, the push is held for resolve.
func (g *Guard) transition(s State, pushed *Session) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == StateChecking {
		g.pending, g.hasPending = pushed, true
		return false
	}
	if g.state == s {
		return false
	}
	g.state = s
	return true
}
