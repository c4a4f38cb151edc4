//go:build integration

package router_test

// End-to-end tests against real Postgres + Redis via testcontainers.
// Run with: go test -tags integration ./internal/router/... -v

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"backoffice/internal/config"
	"backoffice/internal/infra"
	"backoffice/internal/middleware"
	"backoffice/internal/repository"
	"backoffice/internal/router"
	"backoffice/internal/worker"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
)

const testSecret = "integration-secret-0123456789abcdef"

type testEnv struct {
	server  *httptest.Server
	rdb     *redis.Client
	ownerID uuid.UUID
	token   string // owner
	staff   string // staff of the same owner
	other   string // owner of another catalog
}

func mintToken(t *testing.T, userID, ownerID uuid.UUID, role string) string {
	t.Helper()
	claims := middleware.JWTClaims{
		UserID:  userID.String(),
		OwnerID: ownerID.String(),
		Role:    role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return tok
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.Run(ctx, "postgres:16-alpine",
		tcPostgres.WithDatabase("backoffice_test"),
		tcPostgres.WithUsername("backoffice"),
		tcPostgres.WithPassword("backoffice"),
		tcPostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := &config.Config{
		Port:                  8000,
		Env:                   "test",
		JWTSecret:             testSecret,
		DatabaseURL:           pgURL,
		RedisURL:              rdURL,
		WorkerPoolSize:        1,
		RateLimitPerMinute:    10000,
		ReportCacheTTLSeconds: 300,
		ReceiptStoragePath:    t.TempDir(),
		BusinessName:          "Integration Shop",
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	require.NoError(t, err)
	require.NoError(t, infra.RunMigrations(db))

	rdb, err := infra.NewRedis(cfg.RedisURL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	workerCtx, cancel := context.WithCancel(ctx)
	pool := worker.NewPool(rdb, worker.NewReceiptWorker(repository.NewSaleRepository(db), cfg.BusinessName, cfg.ReceiptStoragePath, nil))
	pool.Start(workerCtx, cfg.WorkerPoolSize)
	t.Cleanup(func() {
		cancel()
		pool.Wait()
	})

	srv := httptest.NewServer(router.New(cfg, db, rdb))
	t.Cleanup(srv.Close)

	owner := uuid.New()
	return &testEnv{
		server:  srv,
		rdb:     rdb,
		ownerID: owner,
		token:   mintToken(t, owner, owner, "owner"),
		staff:   mintToken(t, uuid.New(), owner, "staff"),
		other:   mintToken(t, uuid.New(), uuid.New(), "owner"),
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, token string, headers ...string) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := e.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	if resp.Header.Get("Content-Type") == "application/json; charset=utf-8" {
		_ = json.NewDecoder(resp.Body).Decode(&out)
	}
	return resp, out
}

func (e *testEnv) createProduct(t *testing.T, code string, qty int, price string) string {
	t.Helper()
	resp, body := e.do(t, http.MethodPost, "/v1/products", map[string]any{
		"product_code":    code,
		"name":            "Product " + code,
		"category":        "general",
		"unit_price":      price,
		"cost_price":      "1.00",
		"quantity":        qty,
		"min_stock_level": 2,
	}, e.token)
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	return body["id"].(string)
}

func (e *testEnv) productQuantity(t *testing.T, id string) int {
	t.Helper()
	resp, body := e.do(t, http.MethodGet, "/v1/products/"+id, nil, e.token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return int(body["quantity"].(float64))
}

func money(t *testing.T, v any) decimal.Decimal {
	t.Helper()
	s, ok := v.(string)
	require.True(t, ok, "expected decimal string, got %T", v)
	return decimal.RequireFromString(s)
}

func TestSaleLifecycle(t *testing.T) {
	env := setupTestEnv(t)
	productID := env.createProduct(t, "RICE-1KG", 10, "2.50")

	// Create with a partial payment.
	resp, sale := env.do(t, http.MethodPost, "/v1/sales", map[string]any{
		"items":          []map[string]any{{"product_id": productID, "quantity": 4}},
		"payment_method": "cash",
		"amount_paid":    "4.00",
		"customer":       map[string]any{"name": "Ana"},
	}, env.staff, "Idempotency-Key", "lifecycle-1")
	require.Equal(t, http.StatusCreated, resp.StatusCode, sale)
	saleID := sale["id"].(string)
	assert.True(t, money(t, sale["total_amount"]).Equal(decimal.RequireFromString("10")))
	assert.True(t, money(t, sale["balance"]).Equal(decimal.RequireFromString("6")))
	assert.Equal(t, "partial", sale["payment_status"])
	assert.Equal(t, 6, env.productQuantity(t, productID))

	// Retrying with the same key replays the sale without touching stock.
	resp, replay := env.do(t, http.MethodPost, "/v1/sales", map[string]any{
		"items":       []map[string]any{{"product_id": productID, "quantity": 4}},
		"amount_paid": "4.00",
	}, env.staff, "Idempotency-Key", "lifecycle-1")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, saleID, replay["id"])
	assert.Equal(t, 6, env.productQuantity(t, productID))

	// Overpayment is rejected; settling the balance works.
	resp, _ = env.do(t, http.MethodPost, "/v1/sales/"+saleID+"/payments", map[string]any{"amount": "7.00", "method": "card"}, env.staff)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, paid := env.do(t, http.MethodPost, "/v1/sales/"+saleID+"/payments", map[string]any{"amount": "6.00", "method": "card"}, env.staff)
	require.Equal(t, http.StatusOK, resp.StatusCode, paid)
	assert.Equal(t, "paid", paid["payment_status"])
	assert.Len(t, paid["payments"], 2)

	// Other owners cannot see it.
	resp, _ = env.do(t, http.MethodGet, "/v1/sales/"+saleID, nil, env.other)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Delivery and invoice details persist and survive a reload.
	resp, updated := env.do(t, http.MethodPut, "/v1/sales/"+saleID, map[string]any{
		"delivery": map[string]any{"required": true, "address": "Av. Rivadavia 100", "delivery_fee": "3.50"},
		"invoice":  map[string]any{"due_date": time.Now().UTC().AddDate(0, 0, 30).Format(time.RFC3339), "terms_and_conditions": "Net 30"},
	}, env.staff)
	require.Equal(t, http.StatusOK, resp.StatusCode, updated)
	resp, reloaded := env.do(t, http.MethodGet, "/v1/sales/"+saleID, nil, env.staff)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	delivery := reloaded["delivery"].(map[string]any)
	assert.Equal(t, "pending", delivery["status"])
	assert.True(t, money(t, delivery["delivery_fee"]).Equal(decimal.RequireFromString("3.5")))
	assert.Equal(t, "Net 30", reloaded["invoice"].(map[string]any)["terms_and_conditions"])
	assert.True(t, money(t, reloaded["total_amount"]).Equal(decimal.RequireFromString("10")))

	// A date-only end_date includes sales made that day.
	today := time.Now().UTC().Format("2006-01-02")
	resp, listed := env.do(t, http.MethodGet, "/v1/sales?end_date="+today+"&sort_by=-total_amount", nil, env.staff)
	require.Equal(t, http.StatusOK, resp.StatusCode, listed)
	assert.Len(t, listed["data"], 1)

	// Sub-cent amounts never reach the 2-decimal columns.
	resp, _ = env.do(t, http.MethodPost, "/v1/sales/"+saleID+"/payments", map[string]any{"amount": "0.005", "method": "cash"}, env.staff)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Staff cannot cancel; the owner can, and stock comes back.
	resp, _ = env.do(t, http.MethodPost, "/v1/sales/"+saleID+"/cancel", map[string]any{"reason": "wrong customer"}, env.staff)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp, cancelled := env.do(t, http.MethodPost, "/v1/sales/"+saleID+"/cancel", map[string]any{"reason": "wrong customer"}, env.token)
	require.Equal(t, http.StatusOK, resp.StatusCode, cancelled)
	assert.Equal(t, "cancelled", cancelled["status"])
	assert.Equal(t, 10, env.productQuantity(t, productID))

	resp, _ = env.do(t, http.MethodPost, "/v1/sales/"+saleID+"/cancel", map[string]any{"reason": "again"}, env.token)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Ledger: initial stock, sale, return.
	resp, history := env.do(t, http.MethodGet, "/v1/products/"+productID+"/stock-history", nil, env.token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	entries := history["data"].([]any)
	require.Len(t, entries, 3)
	assert.Equal(t, "returned", entries[0].(map[string]any)["type"])
	assert.Equal(t, "sold", entries[1].(map[string]any)["type"])

	// The receipt worker renders the PDF asynchronously.
	require.Eventually(t, func() bool {
		resp, _ := env.do(t, http.MethodGet, "/v1/sales/"+saleID+"/receipt", nil, env.token)
		return resp.StatusCode == http.StatusOK
	}, 20*time.Second, 200*time.Millisecond)
}

func TestConcurrentSalesOfLastUnits(t *testing.T) {
	env := setupTestEnv(t)
	productID := env.createProduct(t, "LAST-UNITS", 3, "1.00")

	const buyers = 8
	var wg sync.WaitGroup
	statuses := make([]int, buyers)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, _ := env.do(t, http.MethodPost, "/v1/sales", map[string]any{
				"items": []map[string]any{{"product_id": productID, "quantity": 1}},
			}, env.staff)
			statuses[i] = resp.StatusCode
		}(i)
	}
	wg.Wait()

	created := 0
	for _, s := range statuses {
		switch s {
		case http.StatusCreated:
			created++
		case http.StatusBadRequest, http.StatusConflict:
		default:
			t.Fatalf("unexpected status %d", s)
		}
	}
	assert.Equal(t, 3, created)
	assert.Equal(t, 0, env.productQuantity(t, productID))
}

func TestInsufficientStockResponse(t *testing.T) {
	env := setupTestEnv(t)
	productID := env.createProduct(t, "SCARCE", 2, "5.00")

	resp, body := env.do(t, http.MethodPost, "/v1/sales", map[string]any{
		"items": []map[string]any{{"product_id": productID, "quantity": 3}},
	}, env.staff)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "insufficient_stock", body["code"])
	assert.Equal(t, productID, body["product_id"])
	assert.EqualValues(t, 2, body["available"])
	assert.EqualValues(t, 3, body["requested"])
	assert.Equal(t, 2, env.productQuantity(t, productID))
}

func TestAnalyticsCacheInvalidatedByNewSales(t *testing.T) {
	env := setupTestEnv(t)
	productID := env.createProduct(t, "REPORT-1", 50, "10.00")
	sell := func(qty int) {
		resp, body := env.do(t, http.MethodPost, "/v1/sales", map[string]any{
			"items": []map[string]any{{"product_id": productID, "quantity": qty}},
		}, env.staff)
		require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	}

	sell(2)
	resp, first := env.do(t, http.MethodGet, "/v1/sales/analytics", nil, env.token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, first["overview"].(map[string]any)["total_sales"])

	sell(1)
	resp, second := env.do(t, http.MethodGet, "/v1/sales/analytics", nil, env.token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	overview := second["overview"].(map[string]any)
	assert.EqualValues(t, 2, overview["total_sales"])
	assert.True(t, money(t, overview["total_revenue"]).Equal(decimal.RequireFromString("30")))

	resp, monthly := env.do(t, http.MethodGet, "/v1/sales/monthly-performance", nil, env.token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, monthly["months"], 12)
}

func TestHealthAndAuth(t *testing.T) {
	env := setupTestEnv(t)

	resp, body := env.do(t, http.MethodGet, "/health", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "connected", body["db"])
	assert.Equal(t, "connected", body["redis"])

	resp, _ = env.do(t, http.MethodGet, "/v1/products", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
