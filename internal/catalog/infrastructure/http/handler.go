package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmehra2102/grocery-cart/internal/catalog/domain"
	"github.com/dmehra2102/grocery-cart/pkg/httpjson"
)

type Handler struct {
	log     *slog.Logger
	catalog *domain.Catalog
	tracer  trace.Tracer
}

func NewHandler(log *slog.Logger, catalog *domain.Catalog) *Handler {
	return &Handler{
		log:     log,
		catalog: catalog,
		tracer:  otel.Tracer("catalog-http"),
	}
}

type itemResp struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Price    string `json:"price"`
	Category string `json:"category"`
}

func toItemResp(it domain.Item) itemResp {
	return itemResp{ID: it.ID, Name: it.Name, Price: it.Price.StringFixed(2), Category: it.Category}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	h.Register(r)
	return r
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/items", h.listItems)
	r.Get("/items/{id}", h.getItem)
	r.Get("/categories", h.listCategories)
}

func (h *Handler) listItems(w http.ResponseWriter, r *http.Request) {
	_, span := h.tracer.Start(r.Context(), "ListItems")
	defer span.End()

	q := r.URL.Query()
	sort, err := domain.ParseSort(q.Get("sort"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	items := h.catalog.Find(domain.Query{
		Search:   q.Get("q"),
		Category: q.Get("category"),
		Sort:     sort,
	})
	span.SetAttributes(attribute.Int("items.count", len(items)))

	out := make([]itemResp, 0, len(items))
	for _, it := range items {
		out = append(out, toItemResp(it))
	}
	httpjson.Write(w, http.StatusOK, map[string]any{"items": out})
}

func (h *Handler) getItem(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid item id")
		return
	}
	it, ok := h.catalog.Item(id)
	if !ok {
		httpjson.Error(w, http.StatusNotFound, domain.ErrItemNotFound.Error())
		return
	}
	httpjson.Write(w, http.StatusOK, toItemResp(it))
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	httpjson.Write(w, http.StatusOK, map[string]any{"categories": h.catalog.Categories()})
}
