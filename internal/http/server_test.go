package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"finvue/internal/analytics"
	"finvue/internal/metrics"
	"finvue/internal/services"
	"finvue/internal/store"
	"finvue/internal/store/memory"
)

var testNow = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

type testEnv struct {
	srv     *Server
	ledger  *store.Ledger
	metrics *metrics.Metrics
}

func newTestEnv(t *testing.T, seed bool, mutate func(*Deps)) *testEnv {
	t.Helper()
	ctx := context.Background()
	ledger, err := store.Open(ctx, store.NewJSONPersister(memory.New()), store.Options{SeedDemo: seed})
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	m := metrics.New()
	now := func() time.Time { return testNow }
	engine := analytics.NewEngine(ledger, 16, time.Minute, analytics.WithNow(now), analytics.WithMetrics(m))
	svc := services.NewLedgerService(ledger, services.WithInvalidator(engine), services.WithMetrics(m))

	deps := Deps{
		Service:            svc,
		Engine:             engine,
		Metrics:            m,
		RateLimitPerMinute: 1000,
		Now:                now,
	}
	if mutate != nil {
		mutate(&deps)
	}
	srv := NewServer(":0", deps)
	t.Cleanup(func() { srv.limiter.Stop() })
	return &testEnv{srv: srv, ledger: ledger, metrics: m}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rr := httptest.NewRecorder()
	e.srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

func TestHealthAndReady(t *testing.T) {
	env := newTestEnv(t, false, nil)
	for _, path := range []string{"/healthz", "/readyz"} {
		if rr := env.do(t, http.MethodGet, path, ""); rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}

	down := newTestEnv(t, false, func(d *Deps) {
		d.Ready = func(context.Context) error { return errors.New("database is locked") }
	})
	if rr := down.do(t, http.MethodGet, "/readyz", ""); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz with failing storage status=%d", rr.Code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	env := newTestEnv(t, false, nil)
	rr := env.do(t, http.MethodGet, "/api/transactions", "")
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" || rr.Header().Get("X-Frame-Options") != "DENY" {
		t.Fatalf("missing security headers: %v", rr.Header())
	}
	if rr.Header().Get("Cache-Control") != "no-store" {
		t.Fatalf("api responses should not be cached: %v", rr.Header())
	}
}

func TestListTransactions(t *testing.T) {
	env := newTestEnv(t, true, nil)

	tests := []struct {
		name string
		path string
		want int
	}{
		{"defaults to current month", "/api/transactions", 8},
		{"february", "/api/transactions?month=1", 7},
		{"search", "/api/transactions?month=2&q=rent", 1},
		{"other year", "/api/transactions?month=2&year=2023", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, http.MethodGet, tt.path, "")
			if rr.Code != http.StatusOK {
				t.Fatalf("status=%d", rr.Code)
			}
			txs := decode[[]map[string]any](t, rr)
			if len(txs) != tt.want {
				t.Fatalf("got %d transactions, want %d", len(txs), tt.want)
			}
		})
	}
}

func TestTransactionLifecycle(t *testing.T) {
	env := newTestEnv(t, false, nil)

	body := `{"date":"2024-03-12","amount":"145.50","type":"expense","category":"Groceries","description":"Whole Foods Market"}`
	rr := env.do(t, http.MethodPost, "/api/transactions", body)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", rr.Code, rr.Body.String())
	}
	created := decode[map[string]any](t, rr)
	id, _ := created["id"].(string)
	if id == "" || rr.Header().Get("Location") != "/api/transactions/"+id {
		t.Fatalf("unexpected create response %v location=%q", created, rr.Header().Get("Location"))
	}
	if created["amount"] != 145.5 {
		t.Fatalf("amount = %v", created["amount"])
	}

	form := "date=2024-03-12&amount=200&type=expense&category=Groceries&description=Whole+Foods+Market"
	rr = env.do(t, http.MethodPut, "/api/transactions/"+id, form)
	if rr.Code != http.StatusOK {
		t.Fatalf("update status=%d body=%s", rr.Code, rr.Body.String())
	}
	if got, _ := env.ledger.Get(id); got.Amount.Cents != 20000 {
		t.Fatalf("ledger amount = %d", got.Amount.Cents)
	}

	if rr := env.do(t, http.MethodPut, "/api/transactions/missing", form); rr.Code != http.StatusNotFound {
		t.Fatalf("update missing status=%d", rr.Code)
	}
	if rr := env.do(t, http.MethodDelete, "/api/transactions/"+id, ""); rr.Code != http.StatusNoContent {
		t.Fatalf("delete status=%d", rr.Code)
	}
	if rr := env.do(t, http.MethodDelete, "/api/transactions/"+id, ""); rr.Code != http.StatusNotFound {
		t.Fatalf("second delete status=%d", rr.Code)
	}
}

func TestCreateValidation(t *testing.T) {
	env := newTestEnv(t, false, nil)

	rr := env.do(t, http.MethodPost, "/api/transactions", `{"date":"","amount":"0","type":"gift","category":"","description":"x"}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status=%d", rr.Code)
	}
	resp := decode[struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}](t, rr)
	want := map[string]string{
		"amount":      "Amount must be greater than zero",
		"date":        "Date is required",
		"type":        "Please select a valid type",
		"category":    "Please select a category",
		"description": "Description is too short",
	}
	for k, v := range want {
		if resp.Fields[k] != v {
			t.Errorf("field %s = %q, want %q", k, resp.Fields[k], v)
		}
	}
	if env.ledger.Len() != 0 {
		t.Fatal("invalid input must not be stored")
	}

	if rr := env.do(t, http.MethodPost, "/api/transactions", `{"amount":`); rr.Code != http.StatusBadRequest {
		t.Fatalf("malformed body status=%d", rr.Code)
	}
}

func TestDashboard(t *testing.T) {
	env := newTestEnv(t, true, nil)

	rr := env.do(t, http.MethodGet, "/api/dashboard?month=2", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	d := decode[struct {
		MonthLabel string `json:"monthLabel"`
		Summary    struct {
			NetBalance     float64 `json:"netBalance"`
			EfficiencyRate int64   `json:"efficiencyRate"`
		} `json:"summary"`
		Trend         []map[string]any `json:"trend"`
		TopCategories []string         `json:"topCategories"`
		Transactions  []map[string]any `json:"transactions"`
	}](t, rr)

	if d.MonthLabel != "March" || d.Summary.NetBalance != 1814.5 || d.Summary.EfficiencyRate != 58 {
		t.Fatalf("unexpected dashboard %+v", d)
	}
	if len(d.Trend) != 6 || d.Trend[5]["name"] != "Mar" {
		t.Fatalf("unexpected trend %v", d.Trend)
	}
	if len(d.TopCategories) != 5 || d.TopCategories[0] != "Rent/Mortgage" {
		t.Fatalf("unexpected top categories %v", d.TopCategories)
	}
	if len(d.Transactions) != 8 {
		t.Fatalf("transactions = %d", len(d.Transactions))
	}

	env.do(t, http.MethodGet, "/api/dashboard?month=2", "")
	if env.metrics.CacheHits("dashboard") != 1 {
		t.Fatalf("second request should hit the cache, hits=%v", env.metrics.CacheHits("dashboard"))
	}

	body := `{"date":"2024-03-20","amount":"10","type":"expense","category":"Dining","description":"Coffee beans"}`
	if rr := env.do(t, http.MethodPost, "/api/transactions", body); rr.Code != http.StatusCreated {
		t.Fatalf("create status=%d", rr.Code)
	}
	rr = env.do(t, http.MethodGet, "/api/dashboard?month=2", "")
	d2 := decode[struct {
		Transactions []map[string]any `json:"transactions"`
	}](t, rr)
	if len(d2.Transactions) != 9 {
		t.Fatalf("dashboard should reflect the write, got %d transactions", len(d2.Transactions))
	}
}

func TestTrend(t *testing.T) {
	env := newTestEnv(t, true, nil)
	rr := env.do(t, http.MethodGet, "/api/trend?collapse_years=true", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	points := decode[[]struct {
		Name string  `json:"name"`
		Net  float64 `json:"net"`
	}](t, rr)
	if len(points) != 6 {
		t.Fatalf("points = %d", len(points))
	}
	if points[3].Name != "Jan" || points[3].Net != 1575 || points[5].Net != 1814.5 {
		t.Fatalf("unexpected points %+v", points)
	}
}

func TestCategories(t *testing.T) {
	env := newTestEnv(t, false, nil)

	rr := env.do(t, http.MethodGet, "/api/categories", "")
	tax := decode[map[string][]string](t, rr)
	n := len(tax["expense"])
	if n == 0 {
		t.Fatal("default taxonomy should list expense categories")
	}

	if rr := env.do(t, http.MethodPost, "/api/categories/expense", `{"name":"Pets"}`); rr.Code != http.StatusCreated {
		t.Fatalf("add status=%d body=%s", rr.Code, rr.Body.String())
	}
	rr = env.do(t, http.MethodGet, "/api/categories/expense", "")
	if names := decode[[]string](t, rr); len(names) != n+1 || names[n] != "Pets" {
		t.Fatalf("expense categories = %v", names)
	}
	if rr := env.do(t, http.MethodGet, "/api/categories/gift", ""); rr.Code != http.StatusBadRequest {
		t.Fatalf("list bad type status=%d", rr.Code)
	}
	if rr := env.do(t, http.MethodPost, "/api/categories/expense", `{"name":"Pets"}`); rr.Code != http.StatusConflict {
		t.Fatalf("duplicate status=%d", rr.Code)
	}
	if rr := env.do(t, http.MethodPost, "/api/categories/expense", `{"name":"  "}`); rr.Code != http.StatusBadRequest {
		t.Fatalf("blank name status=%d", rr.Code)
	}
	if rr := env.do(t, http.MethodPost, "/api/categories/gift", `{"name":"Pets"}`); rr.Code != http.StatusBadRequest {
		t.Fatalf("bad type status=%d", rr.Code)
	}

	idx := "/api/categories/expense/" + strconv.Itoa(n)
	if rr := env.do(t, http.MethodPut, idx, "name=Pet+Care"); rr.Code != http.StatusOK {
		t.Fatalf("rename status=%d body=%s", rr.Code, rr.Body.String())
	}
	if !env.ledger.Taxonomy().Has("expense", "Pet Care") {
		t.Fatal("rename not applied")
	}
	if rr := env.do(t, http.MethodPut, "/api/categories/expense/abc", "name=X"); rr.Code != http.StatusBadRequest {
		t.Fatalf("non-numeric index status=%d", rr.Code)
	}
	if rr := env.do(t, http.MethodDelete, idx, ""); rr.Code != http.StatusNoContent {
		t.Fatalf("remove status=%d", rr.Code)
	}
	if rr := env.do(t, http.MethodDelete, idx, ""); rr.Code != http.StatusNotFound {
		t.Fatalf("remove out of range status=%d", rr.Code)
	}
}

func TestExport(t *testing.T) {
	empty := newTestEnv(t, false, nil)
	if rr := empty.do(t, http.MethodGet, "/api/export.csv", ""); rr.Code != http.StatusNoContent {
		t.Fatalf("empty export status=%d", rr.Code)
	}

	env := newTestEnv(t, true, nil)
	rr := env.do(t, http.MethodGet, "/api/export.csv", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	if !strings.HasPrefix(rr.Header().Get("Content-Type"), "text/csv") {
		t.Fatalf("content type %q", rr.Header().Get("Content-Type"))
	}
	if !strings.Contains(rr.Header().Get("Content-Disposition"), "finvue_export_2024-03-15.csv") {
		t.Fatalf("disposition %q", rr.Header().Get("Content-Disposition"))
	}
	lines := strings.Split(rr.Body.String(), "\n")
	if lines[0] != "Date,Description,Type,Category,Amount" || len(lines) != 22 {
		t.Fatalf("unexpected csv head %q (%d lines)", lines[0], len(lines))
	}
	if lines[1] != `2024-03-01,"Tech Corp Monthly",income,Salary,4800` {
		t.Fatalf("first row %q", lines[1])
	}
}

func TestRateLimit(t *testing.T) {
	env := newTestEnv(t, false, func(d *Deps) { d.RateLimitPerMinute = 2 })
	body := `{"date":"2024-03-12","amount":"1","type":"expense","category":"Dining","description":"Coffee"}`

	for i := 0; i < 2; i++ {
		if rr := env.do(t, http.MethodPost, "/api/transactions", body); rr.Code != http.StatusCreated {
			t.Fatalf("request %d status=%d", i+1, rr.Code)
		}
	}
	rr := env.do(t, http.MethodPost, "/api/transactions", body)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("status=%d", rr.Code)
	}
	if env.ledger.Len() != 2 {
		t.Fatalf("limited request must not be stored, len=%d", env.ledger.Len())
	}
	if rr := env.do(t, http.MethodGet, "/api/transactions", ""); rr.Code != http.StatusOK {
		t.Fatalf("reads are not limited, status=%d", rr.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, false, nil)
	env.do(t, http.MethodGet, "/api/transactions", "")

	rr := env.do(t, http.MethodGet, "/metrics", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "finvue_http_request_duration_seconds_count") || !strings.Contains(body, `route="/api/transactions`) {
		t.Fatalf("request metric missing:\n%s", body)
	}
}

func TestUnknownRoute(t *testing.T) {
	env := newTestEnv(t, false, nil)
	if rr := env.do(t, http.MethodGet, "/nope", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("status=%d", rr.Code)
	}
}

func TestRateLimitIgnoresForwardedForUnlessTrusted(t *testing.T) {
	body := `{"date":"2024-03-12","amount":"1","type":"expense","category":"Dining","description":"Coffee"}`
	post := func(env *testEnv, forwardedFor string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/transactions", strings.NewReader(body))
		req.Header.Set("X-Forwarded-For", forwardedFor)
		rr := httptest.NewRecorder()
		env.srv.Handler.ServeHTTP(rr, req)
		return rr.Code
	}

	direct := newTestEnv(t, false, func(d *Deps) { d.RateLimitPerMinute = 1 })
	if code := post(direct, "203.0.113.1"); code != http.StatusCreated {
		t.Fatalf("first request status=%d", code)
	}
	if code := post(direct, "203.0.113.2"); code != http.StatusTooManyRequests {
		t.Fatalf("spoofed X-Forwarded-For bypassed the limit, status=%d", code)
	}

	proxied := newTestEnv(t, false, func(d *Deps) {
		d.RateLimitPerMinute = 1
		d.TrustProxyHeaders = true
	})
	for _, ip := range []string{"203.0.113.1", "203.0.113.2"} {
		if code := post(proxied, ip); code != http.StatusCreated {
			t.Fatalf("client %s status=%d", ip, code)
		}
	}
	if code := post(proxied, "203.0.113.1"); code != http.StatusTooManyRequests {
		t.Fatalf("repeat client status=%d", code)
	}
}
