package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/hitoshi/lostfound/internal/model"
)

func requestAs(userID string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/suggestions", nil)
	return req.WithContext(ContextWithUserID(req.Context(), userID))
}

func TestRateLimitMiddleware_AllowsWithinBurstThenLimits(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{GeneralRate: 1, GeneralBurst: 3, CleanupInterval: time.Minute})
	defer rl.Stop()

	calls := 0
	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, requestAs("user-1"))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i, w.Code)
		}
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, requestAs("user-1"))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}
	if ra, err := strconv.Atoi(w.Header().Get("Retry-After")); err != nil || ra < 1 {
		t.Errorf("Retry-After = %q, want positive integer", w.Header().Get("Retry-After"))
	}
	if body := decodeErrorBody(t, w); body.Code != model.ErrCodeRateLimited {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeRateLimited)
	}
	if calls != 3 {
		t.Errorf("handler calls = %d, want 3", calls)
	}
}

func TestRateLimitMiddleware_IsPerUser(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{GeneralRate: 0.01, GeneralBurst: 1, CleanupInterval: time.Minute})
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	for _, user := range []string{"a", "b", "c"} {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, requestAs(user))
		if w.Code != http.StatusOK {
			t.Errorf("user %s: status = %d, want 200", user, w.Code)
		}
	}
	if got := rl.LimiterCount(); got != 3 {
		t.Errorf("LimiterCount = %d, want 3", got)
	}
}

func TestRateLimitMiddleware_RequiresUser(t *testing.T) {
	rl := NewRateLimiter(DefaultRateLimiterConfig())
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestRateLimiter_CleanupRemovesStaleEntries(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{GeneralRate: 1, GeneralBurst: 1, CleanupInterval: time.Minute})
	defer rl.Stop()

	rl.limiterFor("stale")
	rl.cleanup(time.Now().Add(3 * time.Minute))

	if got := rl.LimiterCount(); got != 0 {
		t.Errorf("LimiterCount = %d, want 0 after cleanup", got)
	}
	rl.Stop() // 2回呼んでもpanicしない
}

func TestRateLimiterConfigPerMinute(t *testing.T) {
	cfg := RateLimiterConfigPerMinute(60)
	if cfg.GeneralRate != 1 || cfg.GeneralBurst != 60 {
		t.Errorf("config = %+v, want rate 1 burst 60", cfg)
	}
	if def := RateLimiterConfigPerMinute(0); def != DefaultRateLimiterConfig() {
		t.Errorf("zero should fall back to default, got %+v", def)
	}
}
