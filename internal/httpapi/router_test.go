package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/desims/tokobangunansaya/internal/db"
	"github.com/desims/tokobangunansaya/internal/metrics"
	"github.com/desims/tokobangunansaya/internal/pos"
	"github.com/desims/tokobangunansaya/internal/report"
	"github.com/desims/tokobangunansaya/internal/sales"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cementJSON = `{"code":"CEM01","name":"Cement 40kg","unit":"sak","cost_price":50000,"sale_price":65000,"quantity":100}`

type failingPinger struct{}

func (failingPinger) Ping() error { return errors.New("connection refused") }

func setupRouter(t *testing.T) (*gin.Engine, *metrics.Metrics) {
	database, err := db.Connect(db.Options{Driver: "sqlite", DSN: "file::memory:?_foreign_keys=on", LogLevel: "error"})
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	require.NoError(t, db.RunMigrations(database))

	m := metrics.New()
	local := pos.NewLocal(database, pos.Settings{
		StoreName:     "TOKO BANGUNAN MAKMUR JAYA",
		ReceiptFooter: "Terima kasih sudah berbelanja!",
		Location:      time.UTC,
	}, nil, m, nil, sales.WithClock(func() time.Time {
		return time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)
	}))

	return NewRouter(local, Options{Metrics: m, DB: database, ExposeMetrics: true}), m
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestAddAndListItems(t *testing.T) {
	r, _ := setupRouter(t)

	rec := do(r, http.MethodPost, "/api/v1/items", cementJSON)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var item db.Item
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &item))
	assert.Equal(t, "CEM01", item.Code)
	assert.True(t, decimal.NewFromInt(65000).Equal(item.SalePrice))

	rec = do(r, http.MethodPost, "/api/v1/items", cementJSON)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, ErrorResponse{Error: "Item code already exists", Code: pos.CodeDuplicateCode}, decodeError(t, rec))

	rec = do(r, http.MethodGet, "/api/v1/items", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var items []db.ItemSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	require.Len(t, items, 1)
	assert.Equal(t, int64(100), items[0].Quantity)
}

func TestAddItemValidation(t *testing.T) {
	r, _ := setupRouter(t)

	rec := do(r, http.MethodPost, "/api/v1/items", `{"code":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, pos.CodeInvalidArgument, decodeError(t, rec).Code)

	rec = do(r, http.MethodPost, "/api/v1/items", `{"code":"X","name":"Paku","cost_price":1,"sale_price":-5,"quantity":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeError(t, rec).Error, "sale price")
}

func TestSellFlow(t *testing.T) {
	r, _ := setupRouter(t)
	require.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/api/v1/items", cementJSON).Code)

	rec := do(r, http.MethodPost, "/api/v1/sales", `{"code":"CEM01","quantity":10}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var sale db.Sale
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sale))
	assert.True(t, decimal.NewFromInt(650000).Equal(sale.Total))
	require.NotNil(t, sale.Item)
	assert.Equal(t, int64(90), sale.Item.Quantity)

	rec = do(r, http.MethodPost, "/api/v1/sales", `{"code":"CEM01","quantity":1000}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, pos.CodeInsufficientStock, decodeError(t, rec).Code)

	rec = do(r, http.MethodPost, "/api/v1/sales", `{"code":"NOPE","quantity":1}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, pos.CodeItemNotFound, decodeError(t, rec).Code)

	rec = do(r, http.MethodPost, "/api/v1/sales", `{"code":"CEM01","quantity":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(r, http.MethodGet, "/api/v1/sales", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []db.Sale
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	rec = do(r, http.MethodGet, "/api/v1/reports/daily", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var days []report.DailyRevenue
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &days))
	require.Len(t, days, 1)
	assert.Equal(t, "2026-10-18", days[0].Date)
	assert.True(t, decimal.NewFromInt(650000).Equal(days[0].Total))
}

func TestReceipt(t *testing.T) {
	r, _ := setupRouter(t)
	require.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/api/v1/items", cementJSON).Code)
	require.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/api/v1/sales", `{"code":"CEM01","quantity":2}`).Code)

	rec := do(r, http.MethodGet, "/api/v1/sales/1/receipt", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="struk_2026-10-18_09-30-00.pdf"`, rec.Header().Get("Content-Disposition"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")))

	rec = do(r, http.MethodGet, "/api/v1/sales/99/receipt", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, pos.CodeSaleNotFound, decodeError(t, rec).Code)

	rec = do(r, http.MethodGet, "/api/v1/sales/abc/receipt", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthz(t *testing.T) {
	r, _ := setupRouter(t)
	rec := do(r, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	down := NewRouter(nil, Options{DB: failingPinger{}})
	rec = do(down, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	r, _ := setupRouter(t)
	require.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/api/v1/items", cementJSON).Code)
	require.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/api/v1/sales", `{"code":"CEM01","quantity":3}`).Code)

	rec := do(r, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `tokobangunan_sales_total{outcome="completed"} 1`)
	assert.Contains(t, body, "tokobangunan_items_created_total 1")
	assert.Contains(t, body, `tokobangunan_http_requests_total{method="POST",route="/api/v1/sales",status="201"} 1`)

	hidden := NewRouter(nil, Options{})
	assert.Equal(t, http.StatusNotFound, do(hidden, http.MethodGet, "/metrics", "").Code)
}
