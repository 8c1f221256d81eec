package middleware

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

const testKey = "3f9a6a1b-3d54-4fbe-8b3a-6b3e8d6b2c88"

// helper: new Echo with the middleware and a simple route
func setupEcho(rdb *redis.Client, ttl time.Duration, handler echo.HandlerFunc) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(Idempotency(rdb, ttl))
	e.POST("/api/loans", handler)
	e.GET("/api/loans", handler) // for non-mutating bypass test
	return e
}

func mkJSONBody(t *testing.T, v any) io.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return bytes.NewReader(b)
}

func doReq(t *testing.T, e *echo.Echo, method, path string, body io.Reader, hdr map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func newMiniredisClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, rdb
}

// counting handler so replays can be told apart from re-executions
func countingHandler(n *int32, code int) echo.HandlerFunc {
	return func(c echo.Context) error {
		v := atomic.AddInt32(n, 1)
		return c.JSON(code, map[string]any{"call": v})
	}
}

func Test_BypassOnGET(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()
	e := setupEcho(rdb, 30*time.Second, func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "get ok"})
	})
	rec := doReq(t, e, http.MethodGet, "/api/loans", nil, map[string]string{HeaderIdempotencyKey: testKey})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(mr.Keys()) != 0 {
		t.Fatalf("GET must not touch the store, keys=%v", mr.Keys())
	}
}

func Test_NoKey_PassesThrough(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()
	var calls int32
	e := setupEcho(rdb, time.Minute, countingHandler(&calls, http.StatusCreated))

	for i := 0; i < 2; i++ {
		rec := doReq(t, e, http.MethodPost, "/api/loans", mkJSONBody(t, map[string]int{"x": 1}), nil)
		if rec.Code != http.StatusCreated {
			t.Fatalf("want 201, got %d", rec.Code)
		}
	}
	if calls != 2 {
		t.Fatalf("handler should run twice without a key, ran %d", calls)
	}
	if len(mr.Keys()) != 0 {
		t.Fatalf("no key should be stored, keys=%v", mr.Keys())
	}
}

func Test_InvalidKey_Returns400(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()
	var calls int32
	e := setupEcho(rdb, time.Minute, countingHandler(&calls, http.StatusCreated))

	rec := doReq(t, e, http.MethodPost, "/api/loans", mkJSONBody(t, map[string]int{"x": 1}),
		map[string]string{HeaderIdempotencyKey: "NOT-VALID"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid key => want 400, got %d", rec.Code)
	}
	if calls != 0 {
		t.Fatalf("handler must not run on invalid key")
	}
}

func Test_HappyPath_Then_Replay(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()
	var calls int32
	e := setupEcho(rdb, 2*time.Minute, countingHandler(&calls, http.StatusCreated))

	h := map[string]string{HeaderIdempotencyKey: testKey}
	rec1 := doReq(t, e, http.MethodPost, "/api/loans", mkJSONBody(t, map[string]any{"document_id": "d"}), h)
	if rec1.Code != http.StatusCreated {
		t.Fatalf("first request => want 201, got %d, body: %s", rec1.Code, rec1.Body.String())
	}

	rec2 := doReq(t, e, http.MethodPost, "/api/loans", mkJSONBody(t, map[string]any{"document_id": "d"}), h)
	if rec2.Code != http.StatusCreated {
		t.Fatalf("replay => want 201, got %d, body: %s", rec2.Code, rec2.Body.String())
	}
	if rec1.Body.String() != rec2.Body.String() {
		t.Fatalf("replay body mismatch: %q vs %q", rec1.Body.String(), rec2.Body.String())
	}
	if rec2.Header().Get("Idempotent-Replayed") != "true" {
		t.Fatalf("replay header missing")
	}
	if calls != 1 {
		t.Fatalf("handler should run once, ran %d", calls)
	}
}

func Test_ClientErrorIsReplayed(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()
	var calls int32
	e := setupEcho(rdb, time.Minute, countingHandler(&calls, http.StatusBadRequest))

	h := map[string]string{HeaderIdempotencyKey: testKey}
	doReq(t, e, http.MethodPost, "/api/loans", mkJSONBody(t, map[string]int{"x": 1}), h)
	rec := doReq(t, e, http.MethodPost, "/api/loans", mkJSONBody(t, map[string]int{"x": 1}), h)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("want replayed 400, got %d", rec.Code)
	}
	if calls != 1 {
		t.Fatalf("4xx answers are final, handler ran %d times", calls)
	}
}

func Test_ServerErrorReleasesKey(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()
	var calls int32
	e := setupEcho(rdb, time.Minute, countingHandler(&calls, http.StatusInternalServerError))

	h := map[string]string{HeaderIdempotencyKey: testKey}
	rec := doReq(t, e, http.MethodPost, "/api/loans", mkJSONBody(t, map[string]int{"x": 1}), h)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("want 500, got %d", rec.Code)
	}
	if len(mr.Keys()) != 0 {
		t.Fatalf("key must be released after 5xx, keys=%v", mr.Keys())
	}
	doReq(t, e, http.MethodPost, "/api/loans", mkJSONBody(t, map[string]int{"x": 1}), h)
	if calls != 2 {
		t.Fatalf("retry after 5xx should re-run the handler, ran %d", calls)
	}
}

func Test_Conflict_When_InProgress(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()
	var calls int32
	e := setupEcho(rdb, 2*time.Minute, countingHandler(&calls, http.StatusCreated))

	body := []byte(`{"x":1}`)
	key := buildKey(http.MethodPost, "/api/loans", testKey)
	entry := idempEntry{
		InProgress: true,
		BodySHA256: bodyHash(body),
		Key:        testKey,
		CreatedAt:  time.Now().UTC(),
	}
	if ok, err := provisionalSet(context.Background(), rdb, key, entry); err != nil || !ok {
		t.Fatalf("seed provisional failed, ok=%v err=%v", ok, err)
	}

	rec := doReq(t, e, http.MethodPost, "/api/loans", bytes.NewReader(body), map[string]string{HeaderIdempotencyKey: testKey})
	if rec.Code != http.StatusConflict {
		t.Fatalf("in-progress => want 409, got %d body=%s", rec.Code, rec.Body.String())
	}
	if calls != 0 {
		t.Fatalf("handler must not run while in progress")
	}
}

func Test_Conflict_When_SameKey_DifferentBody(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()
	var calls int32
	e := setupEcho(rdb, 2*time.Minute, countingHandler(&calls, http.StatusCreated))

	key := buildKey(http.MethodPost, "/api/loans", testKey)
	final := idempEntry{
		Code:       http.StatusCreated,
		Body:       []byte(`{"ok":true}`),
		BodySHA256: bodyHash([]byte(`{"x":1}`)),
		Key:        testKey,
		CreatedAt:  time.Now().UTC(),
	}
	if err := saveFinal(context.Background(), rdb, key, final, 5*time.Minute); err != nil {
		t.Fatalf("seed final failed: %v", err)
	}

	rec := doReq(t, e, http.MethodPost, "/api/loans", bytes.NewReader([]byte(`{"x":2}`)),
		map[string]string{HeaderIdempotencyKey: testKey})
	if rec.Code != http.StatusConflict {
		t.Fatalf("different body same key => want 409, got %d", rec.Code)
	}
}

func Test_StoreUnavailable_Returns503(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	e := setupEcho(rdb, time.Minute, func(c echo.Context) error {
		return c.JSON(http.StatusCreated, map[string]bool{"ok": true})
	})

	rec := doReq(t, e, http.MethodPost, "/api/loans", bytes.NewReader([]byte(`{}`)),
		map[string]string{HeaderIdempotencyKey: testKey})
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("store unavailable => want 503, got %d", rec.Code)
	}
}
