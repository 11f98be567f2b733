package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmehra2102/grocery-cart/internal/pricing/domain"
	"github.com/dmehra2102/grocery-cart/pkg/httpjson"
)

type Handler struct {
	log     *slog.Logger
	coupons *domain.CouponBook
	tiers   []domain.Tier
}

func NewHandler(log *slog.Logger, coupons *domain.CouponBook, tiers []domain.Tier) *Handler {
	return &Handler{log: log, coupons: coupons, tiers: tiers}
}

type couponResp struct {
	Code    string `json:"code"`
	Percent int    `json:"percent"`
	Status  string `json:"status"`
}

type tierResp struct {
	Threshold string `json:"threshold"`
	Percent   int    `json:"percent"`
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	h.Register(r)
	return r
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/coupons", h.listCoupons)
	r.Get("/discounts", h.listDiscounts)
}

func (h *Handler) listCoupons(w http.ResponseWriter, r *http.Request) {
	all := h.coupons.All()
	out := make([]couponResp, 0, len(all))
	for _, c := range all {
		out = append(out, couponResp{Code: c.Code, Percent: c.Percent, Status: c.Status()})
	}
	httpjson.Write(w, http.StatusOK, map[string]any{"coupons": out})
}

func (h *Handler) listDiscounts(w http.ResponseWriter, r *http.Request) {
	out := make([]tierResp, 0, len(h.tiers))
	for _, t := range h.tiers {
		out = append(out, tierResp{Threshold: t.Threshold.StringFixed(2), Percent: t.Percent})
	}
	httpjson.Write(w, http.StatusOK, map[string]any{"discounts": out})
}
