// Package notify keeps short-lived shopper notices such as the undo offer and
// coupon results. Expiry is explicit: a notice is visible until its ExpiresAt
// passes or it is dismissed, and Sweep discards whatever has lapsed.
package notify

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

const DefaultTTL = 3 * time.Second

var ErrNoticeNotFound = errors.New("notice not found")

type Kind string

const (
	KindUndo   Kind = "undo"
	KindCoupon Kind = "coupon"
)

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

type Notice struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Severity  Severity  `json:"severity"`
	Message   string    `json:"message"`
	PostedAt  time.Time `json:"posted_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (n Notice) Expired(now time.Time) bool {
	return !now.Before(n.ExpiresAt)
}

// Board holds at most one notice per kind; posting replaces the older one.
type Board struct {
	mu     sync.Mutex
	ttl    time.Duration
	byKind map[Kind]Notice
}

func NewBoard(ttl time.Duration) *Board {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Board{ttl: ttl, byKind: make(map[Kind]Notice)}
}

func (b *Board) Post(now time.Time, kind Kind, severity Severity, message string) Notice {
	n := Notice{
		ID:        uuid.NewString(),
		Kind:      kind,
		Severity:  severity,
		Message:   message,
		PostedAt:  now,
		ExpiresAt: now.Add(b.ttl),
	}
	b.mu.Lock()
	b.byKind[kind] = n
	b.mu.Unlock()
	return n
}

func (b *Board) Dismiss(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for k, n := range b.byKind {
		if n.ID == id {
			delete(b.byKind, k)
			return nil
		}
	}
	return ErrNoticeNotFound
}

func (b *Board) DismissKind(kind Kind) {
	b.mu.Lock()
	delete(b.byKind, kind)
	b.mu.Unlock()
}

// Active returns unexpired notices, oldest first.
func (b *Board) Active(now time.Time) []Notice {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Notice, 0, len(b.byKind))
	for _, n := range b.byKind {
		if !n.Expired(now) {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PostedAt.Before(out[j].PostedAt) })
	return out
}

// Sweep drops expired notices and reports how many were removed.
func (b *Board) Sweep(now time.Time) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	removed := 0
	for k, n := range b.byKind {
		if n.Expired(now) {
			delete(b.byKind, k)
			removed++
		}
	}
	return removed
}
