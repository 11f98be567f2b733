package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/grocery-cart/internal/catalog/domain"
)

func newServer() http.Handler {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewHandler(log, domain.Default()).Routes()
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestListItemsFiltersAndSorts(t *testing.T) {
	rec := get(t, newServer(), "/items?category=Dairy&sort=price-desc")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Items []itemResp `json:"items"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Len(t, body.Items, 2)
	assert.Equal(t, "Eggs", body.Items[0].Name)
	assert.Equal(t, "4.99", body.Items[0].Price)
	assert.Equal(t, "Milk", body.Items[1].Name)
}

func TestListItemsRejectsUnknownSort(t *testing.T) {
	rec := get(t, newServer(), "/items?sort=rating")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetItem(t *testing.T) {
	h := newServer()

	rec := get(t, h, "/items/6")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":6,"name":"Chicken","price":"8.99","category":"Meat"}`, rec.Body.String())

	assert.Equal(t, http.StatusNotFound, get(t, h, "/items/99").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/items/abc").Code)
}

func TestListCategories(t *testing.T) {
	rec := get(t, newServer(), "/categories")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"categories":["Fruits","Dairy","Bakery","Meat","Grains","Vegetables"]}`, rec.Body.String())
}
