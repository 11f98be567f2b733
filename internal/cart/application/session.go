package application

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmehra2102/grocery-cart/internal/cart/domain"
	"github.com/dmehra2102/grocery-cart/internal/notify"
	pricing "github.com/dmehra2102/grocery-cart/internal/pricing/domain"
)

var ErrSessionNotFound = errors.New("session not found")

// Session is the view state a shopper owns: the cart mirrored from the
// repository plus the coupon, undo history and notices that live only here.
type Session struct {
	ID string

	mu      sync.Mutex
	loaded  bool
	cart    *domain.Cart
	history domain.History
	coupon  *pricing.Coupon
	notices *notify.Board

	// guarded by Registry.mu
	lastSeen time.Time
}

type Registry struct {
	log       *slog.Logger
	clock     Clock
	idleTTL   time.Duration
	noticeTTL time.Duration

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry(log *slog.Logger, clock Clock, idleTTL, noticeTTL time.Duration) *Registry {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Registry{
		log:       log,
		clock:     clock,
		idleTTL:   idleTTL,
		noticeTTL: noticeTTL,
		sessions:  make(map[string]*Session),
	}
}

// Create starts a session with an empty cart that needs no load.
func (r *Registry) Create() *Session {
	s := r.newSession(uuid.NewString())
	s.loaded = true
	s.cart = domain.NewCart()

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	return s
}

// Open returns the session for id, registering an unloaded one when the
// process has not seen it yet, and marks it as in use so Sweep keeps it.
// Only UUID session ids are accepted.
func (r *Registry) Open(id string) (*Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrSessionNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		s.lastSeen = r.clock.Now()
		return s, nil
	}
	s := r.newSession(id)
	r.sessions[id] = s
	return s, nil
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep expires notices and evicts sessions idle for longer than the idle
// TTL. Sessions busy with a request are left for the next sweep.
func (r *Registry) Sweep(now time.Time) (evicted int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, s := range r.sessions {
		if !s.mu.TryLock() {
			continue
		}
		s.notices.Sweep(now)
		s.mu.Unlock()
		idle := r.idleTTL > 0 && now.Sub(s.lastSeen) > r.idleTTL
		if idle {
			delete(r.sessions, id)
			evicted++
		}
	}
	return evicted
}

func (r *Registry) Run(ctx context.Context, interval time.Duration) error {
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Info("session sweeper stopping")
			return nil
		case <-t.C:
			if n := r.Sweep(r.clock.Now()); n > 0 {
				r.log.Debug("idle sessions evicted", "count", n)
			}
		}
	}
}

func (r *Registry) newSession(id string) *Session {
	return &Session{
		ID:       id,
		notices:  notify.NewBoard(r.noticeTTL),
		lastSeen: r.clock.Now(),
	}
}
