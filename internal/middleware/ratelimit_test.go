package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/hitoshi/storefront/internal/token"
)

func newTestRateLimiter(generalBurst, authBurst int) *RateLimiter {
	return NewRateLimiter(RateLimiterConfig{
		GeneralRate:     rate.Limit(0.001), // テスト中に補充されない低レート
		GeneralBurst:    generalBurst,
		AuthRate:        rate.Limit(0.001),
		AuthBurst:       authBurst,
		CleanupInterval: time.Hour,
	})
}

func TestGeneralMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("バースト分を超えると429を返す", func(t *testing.T) {
		rl := newTestRateLimiter(3, 10)
		defer rl.Stop()

		handler := rl.GeneralMiddleware()(next)
		claims := &token.SessionClaims{UserID: "u1"}

		for i := 0; i < 3; i++ {
			req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
			req = req.WithContext(ContextWithClaims(req.Context(), claims))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != http.StatusOK {
				t.Fatalf("request %d: status = %d, want %d", i+1, rec.Code, http.StatusOK)
			}
		}

		req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
		req = req.WithContext(ContextWithClaims(req.Context(), claims))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusTooManyRequests {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusTooManyRequests)
		}
		if rec.Header().Get("Retry-After") == "" {
			t.Error("Retry-After header is missing")
		}
	})

	t.Run("ユーザーごとに独立して制限される", func(t *testing.T) {
		rl := newTestRateLimiter(1, 10)
		defer rl.Stop()

		handler := rl.GeneralMiddleware()(next)

		// u1がバーストを使い切る
		req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
		req = req.WithContext(ContextWithClaims(req.Context(), &token.SessionClaims{UserID: "u1"}))
		handler.ServeHTTP(httptest.NewRecorder(), req)

		// u2は影響を受けない
		req = httptest.NewRequest(http.MethodGet, "/api/products", nil)
		req = req.WithContext(ContextWithClaims(req.Context(), &token.SessionClaims{UserID: "u2"}))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
		}
	})

	t.Run("クレームがない場合は401", func(t *testing.T) {
		rl := newTestRateLimiter(10, 10)
		defer rl.Stop()

		handler := rl.GeneralMiddleware()(next)

		req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
		}
	})
}

func TestAuthRateLimitMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("IPアドレスごとにバースト分を超えると429を返す", func(t *testing.T) {
		rl := newTestRateLimiter(10, 2)
		defer rl.Stop()

		handler := rl.AuthMiddleware()(next)

		for i := 0; i < 2; i++ {
			req := httptest.NewRequest(http.MethodPost, "/api/auth/signin", nil)
			req.RemoteAddr = "10.0.0.1:12345"
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != http.StatusOK {
				t.Fatalf("request %d: status = %d, want %d", i+1, rec.Code, http.StatusOK)
			}
		}

		req := httptest.NewRequest(http.MethodPost, "/api/auth/signin", nil)
		req.RemoteAddr = "10.0.0.1:12345"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusTooManyRequests {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusTooManyRequests)
		}

		// 別IPは影響を受けない
		req = httptest.NewRequest(http.MethodPost, "/api/auth/signin", nil)
		req.RemoteAddr = "10.0.0.2:12345"
		rec = httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
		}
	})

	t.Run("X-Forwarded-Forの先頭アドレスをキーに使う", func(t *testing.T) {
		rl := newTestRateLimiter(10, 1)
		defer rl.Stop()

		handler := rl.AuthMiddleware()(next)

		req := httptest.NewRequest(http.MethodPost, "/api/auth/signin", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
		handler.ServeHTTP(httptest.NewRecorder(), req)

		if got := rl.AuthLimiterCount(); got != 1 {
			t.Fatalf("limiter count = %d, want 1", got)
		}

		// 同じ転送元IPなら別のRemoteAddrでも同一エントリ
		req = httptest.NewRequest(http.MethodPost, "/api/auth/signin", nil)
		req.RemoteAddr = "10.9.9.9:1"
		req.Header.Set("X-Forwarded-For", "203.0.113.7")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusTooManyRequests {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusTooManyRequests)
		}
	})
}

func TestCleanup(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		GeneralRate:     1,
		GeneralBurst:    1,
		AuthRate:        1,
		AuthBurst:       1,
		CleanupInterval: time.Hour,
	})
	defer rl.Stop()

	rl.getOrCreate(&rl.generalMu, rl.generalLimiters, "u1", rl.config.GeneralRate, rl.config.GeneralBurst)
	rl.getOrCreate(&rl.authMu, rl.authLimiters, "10.0.0.1", rl.config.AuthRate, rl.config.AuthBurst)

	// 最終アクセスを過去に巻き戻す
	rl.generalLimiters["u1"].lastAccess = time.Now().Add(-3 * time.Hour)
	rl.authLimiters["10.0.0.1"].lastAccess = time.Now().Add(-3 * time.Hour)

	rl.cleanup()

	if got := rl.GeneralLimiterCount(); got != 0 {
		t.Errorf("general limiter count = %d, want 0", got)
	}
	if got := rl.AuthLimiterCount(); got != 0 {
		t.Errorf("auth limiter count = %d, want 0", got)
	}
}
