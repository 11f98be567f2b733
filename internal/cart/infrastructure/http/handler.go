package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmehra2102/grocery-cart/internal/cart/application"
	"github.com/dmehra2102/grocery-cart/internal/cart/domain"
	catalog "github.com/dmehra2102/grocery-cart/internal/catalog/domain"
	"github.com/dmehra2102/grocery-cart/internal/notify"
	pricing "github.com/dmehra2102/grocery-cart/internal/pricing/domain"
	"github.com/dmehra2102/grocery-cart/pkg/httpjson"
	"github.com/dmehra2102/grocery-cart/pkg/idempotency"
)

type Handler struct {
	log     *slog.Logger
	service *application.Service
	idem    idempotency.Checker
	tracer  trace.Tracer
}

// NewHandler wires the session routes. idem may be nil to disable
// Idempotency-Key checks.
func NewHandler(log *slog.Logger, service *application.Service, idem idempotency.Checker) *Handler {
	return &Handler{
		log:     log,
		service: service,
		idem:    idem,
		tracer:  otel.Tracer("cart-http"),
	}
}

type setQuantityReq struct {
	Quantity *int `json:"quantity"`
}

type applyCouponReq struct {
	Code string `json:"code"`
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	h.Register(r)
	return r
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/sessions", h.createSession)

	r.Route("/sessions/{sessionID}", func(r chi.Router) {
		r.Get("/cart", h.getCart)
		r.Get("/cart/items/{itemID}", h.getQuantity)
		r.Get("/notices", h.listNotices)
		r.Delete("/notices/{noticeID}", h.dismissNotice)

		r.Group(func(r chi.Router) {
			r.Use(idempotency.Middleware(h.log, h.idem, func(req *http.Request) string {
				return chi.URLParam(req, "sessionID")
			}))
			r.Put("/cart/items/{itemID}", h.setQuantity)
			r.Post("/cart/items/{itemID}/increment", h.increment)
			r.Post("/cart/items/{itemID}/decrement", h.decrement)
			r.Delete("/cart", h.clear)
			r.Post("/undo", h.undo)
			r.Post("/coupon", h.applyCoupon)
			r.Delete("/coupon", h.removeCoupon)
		})
	})
}

func (h *Handler) createSession(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CreateSession")
	defer span.End()

	v, err := h.service.CreateSession(ctx)
	if err != nil {
		h.fail(w, span, err)
		return
	}
	span.SetAttributes(attribute.String("session.id", v.SessionID))
	httpjson.Write(w, http.StatusCreated, toViewResp(v))
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GetCart")
	defer span.End()

	v, err := h.service.View(ctx, chi.URLParam(r, "sessionID"))
	h.respond(w, span, v, err)
}

func (h *Handler) getQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GetQuantity")
	defer span.End()

	itemID, ok := itemParam(w, r)
	if !ok {
		return
	}
	q, err := h.service.Quantity(ctx, chi.URLParam(r, "sessionID"), itemID)
	if err != nil {
		h.fail(w, span, err)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]int{"item_id": itemID, "quantity": q})
}

func (h *Handler) setQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "SetQuantity")
	defer span.End()

	itemID, ok := itemParam(w, r)
	if !ok {
		return
	}
	var req setQuantityReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Quantity == nil {
		httpjson.Error(w, http.StatusBadRequest, domain.ErrInvalidQuantity.Error())
		return
	}
	v, err := h.service.SetQuantity(ctx, chi.URLParam(r, "sessionID"), itemID, *req.Quantity)
	h.respond(w, span, v, err)
}

func (h *Handler) increment(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "Increment")
	defer span.End()

	itemID, ok := itemParam(w, r)
	if !ok {
		return
	}
	v, err := h.service.Increment(ctx, chi.URLParam(r, "sessionID"), itemID)
	h.respond(w, span, v, err)
}

func (h *Handler) decrement(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "Decrement")
	defer span.End()

	itemID, ok := itemParam(w, r)
	if !ok {
		return
	}
	v, err := h.service.Decrement(ctx, chi.URLParam(r, "sessionID"), itemID)
	h.respond(w, span, v, err)
}

func (h *Handler) clear(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ClearCart")
	defer span.End()

	v, err := h.service.Clear(ctx, chi.URLParam(r, "sessionID"))
	h.respond(w, span, v, err)
}

func (h *Handler) undo(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "Undo")
	defer span.End()

	v, err := h.service.Undo(ctx, chi.URLParam(r, "sessionID"))
	h.respond(w, span, v, err)
}

func (h *Handler) applyCoupon(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ApplyCoupon")
	defer span.End()

	var req applyCouponReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid body")
		return
	}
	v, err := h.service.ApplyCoupon(ctx, chi.URLParam(r, "sessionID"), req.Code)
	h.respond(w, span, v, err)
}

func (h *Handler) removeCoupon(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "RemoveCoupon")
	defer span.End()

	v, err := h.service.RemoveCoupon(ctx, chi.URLParam(r, "sessionID"))
	h.respond(w, span, v, err)
}

func (h *Handler) listNotices(w http.ResponseWriter, r *http.Request) {
	notices, err := h.service.Notices(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.fail(w, nil, err)
		return
	}
	if notices == nil {
		notices = []notify.Notice{}
	}
	httpjson.Write(w, http.StatusOK, map[string]any{"notices": notices})
}

func (h *Handler) dismissNotice(w http.ResponseWriter, r *http.Request) {
	err := h.service.DismissNotice(r.Context(), chi.URLParam(r, "sessionID"), chi.URLParam(r, "noticeID"))
	if err != nil {
		h.fail(w, nil, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respond(w http.ResponseWriter, span trace.Span, v application.View, err error) {
	if err != nil {
		h.fail(w, span, err)
		return
	}
	httpjson.Write(w, http.StatusOK, toViewResp(v))
}

func (h *Handler) fail(w http.ResponseWriter, span trace.Span, err error) {
	status := statusFor(err)
	msg := err.Error()
	switch {
	case errors.Is(err, pricing.ErrInvalidCoupon):
		msg = pricing.MsgCouponInvalid
	case status == http.StatusInternalServerError:
		h.log.Error("cart request failed", "err", err)
		msg = "internal error"
		if span != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}
	httpjson.Error(w, status, msg)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, application.ErrSessionNotFound),
		errors.Is(err, catalog.ErrItemNotFound),
		errors.Is(err, notify.ErrNoticeNotFound):
		return http.StatusNotFound
	case errors.Is(err, pricing.ErrInvalidCoupon),
		errors.Is(err, domain.ErrNothingToUndo):
		return http.StatusUnprocessableEntity
	case errors.Is(err, pricing.ErrCouponCodeRequired),
		errors.Is(err, domain.ErrInvalidQuantity):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func itemParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "itemID"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid item id")
		return 0, false
	}
	return id, true
}
