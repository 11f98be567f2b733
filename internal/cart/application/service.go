package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dmehra2102/grocery-cart/internal/cart/domain"
	catalog "github.com/dmehra2102/grocery-cart/internal/catalog/domain"
	"github.com/dmehra2102/grocery-cart/internal/notify"
	pricing "github.com/dmehra2102/grocery-cart/internal/pricing/domain"
	"github.com/dmehra2102/grocery-cart/pkg/tracing"
)

const (
	msgItemAdded   = "Item added to cart"
	msgItemRemoved = "Item removed from cart"
)

// View is what the cart page renders for a session.
type View struct {
	SessionID string
	Entries   []domain.Entry
	Quote     pricing.Quote
	Coupon    *pricing.Coupon
	CanUndo   bool
	Notices   []notify.Notice
}

type Service struct {
	log      *slog.Logger
	repo     CartRepository
	catalog  Catalog
	coupons  *pricing.CouponBook
	tiers    []pricing.Tier
	clock    Clock
	sessions *Registry
}

func NewService(log *slog.Logger, repo CartRepository, cat Catalog, coupons *pricing.CouponBook, tiers []pricing.Tier, sessions *Registry) *Service {
	return &Service{
		log:      log,
		repo:     repo,
		catalog:  cat,
		coupons:  coupons,
		tiers:    tiers,
		clock:    sessions.clock,
		sessions: sessions,
	}
}

func (s *Service) CreateSession(ctx context.Context) (View, error) {
	sess := s.sessions.Create()
	sess.mu.Lock()
	defer sess.mu.Unlock()
	s.log.Info("session created", "session_id", sess.ID)
	return s.view(sess), nil
}

func (s *Service) View(ctx context.Context, sessionID string) (View, error) {
	sess, unlock, err := s.acquire(ctx, sessionID)
	if err != nil {
		return View{}, err
	}
	defer unlock()
	return s.view(sess), nil
}

func (s *Service) Quantity(ctx context.Context, sessionID string, itemID int) (int, error) {
	sess, unlock, err := s.acquire(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	defer unlock()
	return sess.cart.Quantity(itemID), nil
}

func (s *Service) Increment(ctx context.Context, sessionID string, itemID int) (View, error) {
	return s.step(ctx, sessionID, itemID, 1)
}

// Decrement removes one unit; the entry disappears when it reaches zero.
// Decrementing an item that is not in the cart leaves the cart as it is.
func (s *Service) Decrement(ctx context.Context, sessionID string, itemID int) (View, error) {
	return s.step(ctx, sessionID, itemID, -1)
}

func (s *Service) step(ctx context.Context, sessionID string, itemID, delta int) (View, error) {
	sess, unlock, err := s.acquire(ctx, sessionID)
	if err != nil {
		return View{}, err
	}
	defer unlock()

	current := sess.cart.Quantity(itemID)
	if delta < 0 && current == 0 {
		return s.view(sess), nil
	}
	item, err := s.resolve(sess, itemID)
	if err != nil {
		return View{}, err
	}
	if err := s.mutate(ctx, sess, item, current+delta, true); err != nil {
		return View{}, err
	}
	return s.view(sess), nil
}

// SetQuantity stores n units of the item; n <= 0 removes the entry.
func (s *Service) SetQuantity(ctx context.Context, sessionID string, itemID, n int) (View, error) {
	sess, unlock, err := s.acquire(ctx, sessionID)
	if err != nil {
		return View{}, err
	}
	defer unlock()

	current := sess.cart.Quantity(itemID)
	if current == max(n, 0) {
		return s.view(sess), nil
	}
	item, err := s.resolve(sess, itemID)
	if err != nil {
		return View{}, err
	}
	if err := s.mutate(ctx, sess, item, n, true); err != nil {
		return View{}, err
	}
	return s.view(sess), nil
}

func (s *Service) Clear(ctx context.Context, sessionID string) (View, error) {
	sess, unlock, err := s.acquire(ctx, sessionID)
	if err != nil {
		return View{}, err
	}
	defer unlock()

	if sess.cart.Len() > 0 {
		ev := domain.ActivityEvent{
			SessionID:        sess.ID,
			PreviousQuantity: sess.cart.Units(),
			OccurredAt:       s.clock.Now(),
		}
		if err := s.persist(ctx, sess, domain.NewCart(), domain.EventCleared, ev); err != nil {
			return View{}, err
		}
	}
	sess.history.Clear()
	sess.notices.DismissKind(notify.KindUndo)
	return s.view(sess), nil
}

// Undo moves the most recently changed item one unit against the recorded
// direction and forgets the record. It does not restore PreviousQuantity.
func (s *Service) Undo(ctx context.Context, sessionID string) (View, error) {
	sess, unlock, err := s.acquire(ctx, sessionID)
	if err != nil {
		return View{}, err
	}
	defer unlock()

	last, ok := sess.history.Last()
	if !ok {
		return View{}, domain.ErrNothingToUndo
	}
	item := last.Item
	if e, ok := sess.cart.Entry(item.ID); ok {
		item = e.Item
	}
	current := sess.cart.Quantity(item.ID)
	next := current + last.Inverse()
	if next != current && (next > 0 || current > 0) {
		if err := s.mutate(ctx, sess, item, next, false); err != nil {
			return View{}, err
		}
	}
	sess.history.Clear()
	sess.notices.DismissKind(notify.KindUndo)
	s.log.Info("cart action undone", "session_id", sess.ID, "item_id", item.ID, "kind", last.Kind)
	return s.view(sess), nil
}

// ApplyCoupon redeems code once per session; further attempts while a coupon
// is applied change nothing. A rejected code leaves the session untouched
// apart from the error notice.
func (s *Service) ApplyCoupon(ctx context.Context, sessionID, code string) (View, error) {
	sess, unlock, err := s.acquire(ctx, sessionID)
	if err != nil {
		return View{}, err
	}
	defer unlock()

	if sess.coupon != nil {
		s.log.Debug("coupon already applied", "session_id", sess.ID, "code", sess.coupon.Code)
		return s.view(sess), nil
	}
	coupon, err := s.coupons.Lookup(code)
	switch {
	case errors.Is(err, pricing.ErrInvalidCoupon):
		sess.notices.Post(s.clock.Now(), notify.KindCoupon, notify.SeverityError, pricing.MsgCouponInvalid)
		s.log.Info("coupon rejected", "session_id", sess.ID, "code", code)
		return View{}, err
	case err != nil:
		return View{}, err
	}
	sess.coupon = &coupon
	sess.notices.Post(s.clock.Now(), notify.KindCoupon, notify.SeveritySuccess, pricing.MsgCouponApplied)
	s.log.Info("coupon applied", "session_id", sess.ID, "code", coupon.Code)
	return s.view(sess), nil
}

func (s *Service) RemoveCoupon(ctx context.Context, sessionID string) (View, error) {
	sess, unlock, err := s.acquire(ctx, sessionID)
	if err != nil {
		return View{}, err
	}
	defer unlock()
	sess.coupon = nil
	return s.view(sess), nil
}

func (s *Service) Notices(ctx context.Context, sessionID string) ([]notify.Notice, error) {
	sess, unlock, err := s.acquire(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return sess.notices.Active(s.clock.Now()), nil
}

func (s *Service) DismissNotice(ctx context.Context, sessionID, noticeID string) error {
	sess, unlock, err := s.acquire(ctx, sessionID)
	if err != nil {
		return err
	}
	defer unlock()
	return sess.notices.Dismiss(noticeID)
}

// acquire locks the session and loads its cart on first use. Missing or
// unreadable snapshots start an empty cart; repository failures do not.
func (s *Service) acquire(ctx context.Context, sessionID string) (*Session, func(), error) {
	sess, err := s.sessions.Open(sessionID)
	if err != nil {
		return nil, nil, err
	}
	sess.mu.Lock()
	if !sess.loaded {
		if err := s.load(ctx, sess); err != nil {
			sess.mu.Unlock()
			return nil, nil, err
		}
	}
	return sess, sess.mu.Unlock, nil
}

func (s *Service) load(ctx context.Context, sess *Session) error {
	data, err := s.repo.Load(ctx, sess.ID)
	switch {
	case errors.Is(err, ErrSnapshotNotFound):
		data = nil
	case err != nil:
		return fmt.Errorf("load cart %s: %w", sess.ID, err)
	}
	cart, ok := domain.LoadSnapshot(data)
	if !ok {
		s.log.Warn("corrupt cart snapshot ignored", "session_id", sess.ID)
	}
	sess.cart = cart
	sess.loaded = true
	return nil
}

// resolve prefers the snapshot already in the cart so prices stay as added.
func (s *Service) resolve(sess *Session, itemID int) (catalog.Item, error) {
	if e, ok := sess.cart.Entry(itemID); ok {
		return e.Item, nil
	}
	item, ok := s.catalog.Item(itemID)
	if !ok {
		return catalog.Item{}, fmt.Errorf("%w: %d", catalog.ErrItemNotFound, itemID)
	}
	return item, nil
}

func (s *Service) mutate(ctx context.Context, sess *Session, item catalog.Item, n int, record bool) error {
	next := sess.cart.Clone()
	prev := next.SetQuantity(item, n)
	now := s.clock.Now()

	eventType := domain.MutationEvent(prev, n)
	if !record {
		eventType = domain.EventActionUndone
	}
	ev := domain.ActivityEvent{
		SessionID:        sess.ID,
		ItemID:           item.ID,
		ItemName:         item.Name,
		PreviousQuantity: prev,
		Quantity:         next.Quantity(item.ID),
		OccurredAt:       now,
	}
	if err := s.persist(ctx, sess, next, eventType, ev); err != nil {
		return err
	}
	if !record {
		return nil
	}

	kind, msg := domain.ActionAdd, msgItemAdded
	if n < prev {
		kind, msg = domain.ActionRemove, msgItemRemoved
	}
	sess.history.Record(domain.ActionRecord{Kind: kind, Item: item, PreviousQuantity: prev, At: now})
	sess.notices.Post(now, notify.KindUndo, notify.SeverityInfo, msg)
	return nil
}

// persist rewrites the whole snapshot and swaps the cart only once it is stored.
func (s *Service) persist(ctx context.Context, sess *Session, next *domain.Cart, eventType string, ev domain.ActivityEvent) error {
	snapshot, err := domain.EncodeSnapshot(next)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	headers := map[string]string{"source": "cart-service"}
	if err := s.repo.SaveWithOutbox(ctx, sess.ID, snapshot, eventType, payload, headers, tracing.Traceparent(ctx)); err != nil {
		return fmt.Errorf("save cart %s: %w", sess.ID, err)
	}
	sess.cart = next
	return nil
}

func (s *Service) view(sess *Session) View {
	var coupon *pricing.Coupon
	if sess.coupon != nil {
		c := *sess.coupon
		coupon = &c
	}
	_, canUndo := sess.history.Last()
	return View{
		SessionID: sess.ID,
		Entries:   sess.cart.Entries(),
		Quote:     pricing.Compute(sess.cart.Lines(), s.tiers, coupon),
		Coupon:    coupon,
		CanUndo:   canUndo,
		Notices:   sess.notices.Active(s.clock.Now()),
	}
}
