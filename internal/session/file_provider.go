package session

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Refresher exchanges a refresh token for a new session.
type Refresher interface {
	RefreshSession(ctx context.Context, refreshToken string) (*Session, error)
}

// refreshWindow is how close to expiry Current starts refreshing.
const refreshWindow = time.Minute

// FileProvider serves the session kept in a FileStore and pushes changes
// when the file is rewritten or removed, or when the token expires.
type FileProvider struct {
	store     *FileStore
	refresher Refresher // optional
	log       *zap.Logger
	now       func() time.Time

	mu     sync.Mutex
	subs   map[int]func(*Session)
	nextID int
	stop   chan struct{}
	done   chan struct{}
}

func NewFileProvider(store *FileStore, refresher Refresher, log *zap.Logger) *FileProvider {
	if log == nil {
		log = zap.NewNop()
	}
	return &FileProvider{
		store:     store,
		refresher: refresher,
		log:       log,
		now:       time.Now,
		subs:      make(map[int]func(*Session)),
	}
}

// Current loads the stored session, refreshing it when it is about to
// expire. An expired session that cannot be refreshed is reported as nil.
func (p *FileProvider) Current(ctx context.Context) (*Session, error) {
	s, err := p.store.Load()
	if err != nil || s == nil {
		return nil, err
	}
	if p.refresher != nil && s.RefreshToken != "" && s.Expired(p.now().Add(refreshWindow)) {
		fresh, err := p.refresher.RefreshSession(ctx, s.RefreshToken)
		if err != nil {
			p.log.Warn("session refresh failed", zap.Error(err))
		} else {
			if err := p.store.Save(fresh); err != nil {
				return nil, err
			}
			s = fresh
		}
	}
	if s.Expired(p.now()) {
		return nil, nil
	}
	return s, nil
}

// Subscribe starts watching on the first subscriber and stops when the
// last one leaves.
func (p *FileProvider) Subscribe(fn func(*Session)) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.subs[id] = fn
	if len(p.subs) == 1 {
		if err := p.startLocked(); err != nil {
			p.log.Warn("session watch unavailable", zap.Error(err))
		}
	}
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.subs, id)
			var stop, done chan struct{}
			if len(p.subs) == 0 && p.stop != nil {
				stop, done = p.stop, p.done
				p.stop, p.done = nil, nil
			}
			p.mu.Unlock()
			if stop != nil {
				close(stop)
				<-done
			}
		})
	}
}

func (p *FileProvider) startLocked() error {
	dir := filepath.Dir(p.store.Path())
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return err
	}
	p.stop = make(chan struct{})
	p.done = make(chan struct{})
	go p.watch(w, p.stop, p.done)
	return nil
}

func (p *FileProvider) watch(w *fsnotify.Watcher, stop, done chan struct{}) {
	defer close(done)
	defer w.Close()

	expiry := time.NewTimer(time.Hour)
	expiry.Stop()
	defer expiry.Stop()

	arm := func(s *Session) {
		expiry.Stop()
		if s != nil && !s.ExpiresAt.IsZero() {
			expiry.Reset(s.ExpiresAt.Sub(p.now()))
		}
	}
	current, _ := p.store.Load()
	arm(current)

	for {
		select {
		case <-stop:
			return

		case event, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != p.store.Path() || event.Op == fsnotify.Chmod {
				continue
			}
			s, err := p.store.Load()
			if err != nil {
				p.log.Warn("session file unreadable", zap.Error(err))
				s = nil
			}
			if s.Expired(p.now()) {
				s = nil
			}
			arm(s)
			p.notify(s)

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			p.log.Warn("session watcher error", zap.Error(err))

		case <-expiry.C:
			p.log.Info("access token expired")
			p.notify(nil)
		}
	}
}

func (p *FileProvider) notify(s *Session) {
	p.mu.Lock()
	fns := make([]func(*Session), 0, len(p.subs))
	for _, fn := range p.subs {
		fns = append(fns, fn)
	}
	p.mu.Unlock()
	for _, fn := range fns {
		fn(s)
	}
}
