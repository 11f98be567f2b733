package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/grocery-cart/internal/cart/application"
	"github.com/dmehra2102/grocery-cart/internal/cart/infrastructure/memory"
	catalog "github.com/dmehra2102/grocery-cart/internal/catalog/domain"
	"github.com/dmehra2102/grocery-cart/internal/notify"
	pricing "github.com/dmehra2102/grocery-cart/internal/pricing/domain"
)

type seenSet struct {
	mu   sync.Mutex
	keys map[string]bool
}

func (s *seenSet) Seen(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.keys[key] {
		return true, nil
	}
	s.keys[key] = true
	return false, nil
}

func (s *seenSet) Forget(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, key)
	return nil
}

// outageRepo fails the next failures saves, then behaves like its backing store.
type outageRepo struct {
	*memory.Repository
	mu       sync.Mutex
	failures int
}

func (r *outageRepo) SaveWithOutbox(ctx context.Context, sessionID string, snapshot []byte, eventType string, payload []byte, headers map[string]string, traceparent string) error {
	r.mu.Lock()
	if r.failures > 0 {
		r.failures--
		r.mu.Unlock()
		return errors.New("connection refused")
	}
	r.mu.Unlock()
	return r.Repository.SaveWithOutbox(ctx, sessionID, snapshot, eventType, payload, headers, traceparent)
}

func newServer(t *testing.T) http.Handler {
	t.Helper()
	return newServerWithRepo(t, memory.NewRepository())
}

func newServerWithRepo(t *testing.T, repo application.CartRepository) http.Handler {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := application.NewRegistry(log, application.SystemClock{}, 30*time.Minute, notify.DefaultTTL)
	svc := application.NewService(log, repo, catalog.Default(), pricing.DefaultCoupons(), pricing.DefaultTiers(), registry)
	return NewHandler(log, svc, &seenSet{keys: map[string]bool{}}).Routes()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, r))
	return rec
}

func decodeView(t *testing.T, rec *httptest.ResponseRecorder) viewResp {
	t.Helper()
	var v viewResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func createSession(t *testing.T, h http.Handler) string {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/sessions", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	return decodeView(t, rec).SessionID
}

func TestCartFlow(t *testing.T) {
	h := newServer(t)
	id := createSession(t, h)
	base := "/sessions/" + id

	rec := do(t, h, http.MethodPut, base+"/cart/items/6", `{"quantity":2}`)
	require.Equal(t, http.StatusOK, rec.Code)
	v := decodeView(t, rec)
	require.Len(t, v.Items, 1)
	assert.Equal(t, "8.99", v.Items[0].Price)
	assert.Equal(t, "17.98", v.Items[0].LineTotal)
	assert.Equal(t, "17.98", v.Subtotal)
	assert.True(t, v.CanUndo)

	rec = do(t, h, http.MethodPost, base+"/cart/items/6/increment", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, decodeView(t, rec).Items[0].Quantity)

	rec = do(t, h, http.MethodGet, base+"/cart/items/6", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"item_id":6,"quantity":3}`, rec.Body.String())

	rec = do(t, h, http.MethodPost, base+"/undo", "")
	require.Equal(t, http.StatusOK, rec.Code)
	v = decodeView(t, rec)
	assert.Equal(t, 2, v.Items[0].Quantity)
	assert.False(t, v.CanUndo)

	rec = do(t, h, http.MethodPost, base+"/undo", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, h, http.MethodDelete, base+"/cart", "")
	require.Equal(t, http.StatusOK, rec.Code)
	v = decodeView(t, rec)
	assert.Empty(t, v.Items)
	assert.Equal(t, "0.00", v.Total)
}

func TestCouponRoutes(t *testing.T) {
	h := newServer(t)
	base := "/sessions/" + createSession(t, h)

	do(t, h, http.MethodPut, base+"/cart/items/6", `{"quantity":2}`)

	rec := do(t, h, http.MethodPost, base+"/coupon", `{"code":"nope"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.JSONEq(t, `{"error":"Invalid or expired coupon code"}`, rec.Body.String())

	rec = do(t, h, http.MethodPost, base+"/coupon", `{"code":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, base+"/coupon", `{"code":"special20"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	v := decodeView(t, rec)
	require.NotNil(t, v.Coupon)
	assert.Equal(t, "SPECIAL20", v.Coupon.Code)
	assert.Equal(t, "3.60", v.Discount)
	assert.Equal(t, "14.38", v.Total)

	rec = do(t, h, http.MethodPost, base+"/coupon", `{"code":"WELCOME10"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "SPECIAL20", decodeView(t, rec).Coupon.Code)

	rec = do(t, h, http.MethodDelete, base+"/coupon", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, decodeView(t, rec).Coupon)
}

func TestNoticeRoutes(t *testing.T) {
	h := newServer(t)
	base := "/sessions/" + createSession(t, h)

	do(t, h, http.MethodPost, base+"/cart/items/1/increment", "")

	rec := do(t, h, http.MethodGet, base+"/notices", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Notices []notify.Notice `json:"notices"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Notices, 1)
	assert.Equal(t, "Item added to cart", body.Notices[0].Message)

	rec = do(t, h, http.MethodDelete, base+"/notices/"+body.Notices[0].ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodDelete, base+"/notices/"+body.Notices[0].ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBadRequests(t *testing.T) {
	h := newServer(t)
	base := "/sessions/" + createSession(t, h)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"non numeric item", http.MethodPost, base + "/cart/items/abc/increment", "", http.StatusBadRequest},
		{"unknown item", http.MethodPost, base + "/cart/items/99/increment", "", http.StatusNotFound},
		{"missing quantity", http.MethodPut, base + "/cart/items/1", `{}`, http.StatusBadRequest},
		{"decrement absent item", http.MethodPost, base + "/cart/items/2/decrement", "", http.StatusOK},
		{"malformed session", http.MethodGet, "/sessions/not-a-uuid/cart", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestUnknownSessionStartsEmpty(t *testing.T) {
	h := newServer(t)
	rec := do(t, h, http.MethodGet, "/sessions/"+uuid.NewString()+"/cart", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeView(t, rec).Items)
}

func TestDuplicateIdempotencyKey(t *testing.T) {
	h := newServer(t)
	base := "/sessions/" + createSession(t, h)

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, base+"/cart/items/1/increment", nil)
		req.Header.Set("Idempotency-Key", "k-1")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}
	require.Equal(t, http.StatusOK, send().Code)
	assert.Equal(t, http.StatusConflict, send().Code)

	rec := do(t, h, http.MethodGet, base+"/cart/items/1", "")
	assert.JSONEq(t, `{"item_id":1,"quantity":1}`, rec.Body.String())
}

func TestRetryAfterFailedSaveReusesKey(t *testing.T) {
	h := newServerWithRepo(t, &outageRepo{Repository: memory.NewRepository(), failures: 1})
	base := "/sessions/" + createSession(t, h)

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, base+"/cart/items/1/increment", nil)
		req.Header.Set("Idempotency-Key", "k-retry")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}
	require.Equal(t, http.StatusInternalServerError, send().Code)
	require.Equal(t, http.StatusOK, send().Code)
	assert.Equal(t, http.StatusConflict, send().Code)

	rec := do(t, h, http.MethodGet, base+"/cart/items/1", "")
	assert.JSONEq(t, `{"item_id":1,"quantity":1}`, rec.Body.String())
}
