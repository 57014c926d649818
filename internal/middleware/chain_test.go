package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/lifegpa/internal/model"
)

// TestMiddlewareChain_SessionThenRateLimit_ValidSession は
// Session → RateLimit のチェーンを有効セッション付きリクエストが通ることを検証する。
func TestMiddlewareChain_SessionThenRateLimit_ValidSession(t *testing.T) {
	finder := &mockSessionFinder{
		findByIDFunc: func(ctx context.Context, id string) (*model.Session, error) {
			return &model.Session{
				ID:        "valid-session",
				UserID:    77,
				ExpiresAt: time.Now().Add(1 * time.Hour),
			}, nil
		},
	}

	sessionMW := NewSessionMiddleware(finder)
	rl := NewRateLimiter(testRateLimiterConfig(5, 5))
	defer rl.Stop()

	var capturedUserID int64
	handler := sessionMW(rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedUserID, _ = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})))

	req := httptest.NewRequest(http.MethodGet, "/api/user_categories", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "valid-session"})
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
	if capturedUserID != 77 {
		t.Errorf("userID = %d, want %d", capturedUserID, 77)
	}
	// レートリミッターに認証済みユーザーのエントリが作られていること
	if rl.GeneralLimiterCount() != 1 {
		t.Errorf("general limiter count = %d, want 1", rl.GeneralLimiterCount())
	}
}

// TestMiddlewareChain_NoSession_RejectedBeforeRateLimit は
// セッションなしのリクエストがレートリミッターに到達する前に400で拒否されることを検証する。
func TestMiddlewareChain_NoSession_RejectedBeforeRateLimit(t *testing.T) {
	finder := &mockSessionFinder{
		findByIDFunc: func(ctx context.Context, id string) (*model.Session, error) {
			t.Fatal("session store should not be queried without a cookie")
			return nil, nil
		},
	}

	sessionMW := NewSessionMiddleware(finder)
	rl := NewRateLimiter(testRateLimiterConfig(5, 5))
	defer rl.Stop()

	handler := sessionMW(rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	})))

	req := httptest.NewRequest(http.MethodPost, "/api/user_habits", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	// 認証ゲートで400が返ること
	if w.Result().StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusBadRequest)
	}
	if got := decodeMessage(t, w); got != restrictedMessage {
		t.Errorf("message = %q, want %q", got, restrictedMessage)
	}
	// セッション段階で弾かれるためリミッターのエントリは作られないこと
	if rl.GeneralLimiterCount() != 0 {
		t.Errorf("general limiter count = %d, want 0", rl.GeneralLimiterCount())
	}
}

// TestMiddlewareChain_RecoveryWrapsSession は
// Recovery → Session のチェーンで後続ハンドラのpanicが500に変換され、
// 認証ゲート自体は通常通り機能することを検証する。
func TestMiddlewareChain_RecoveryWrapsSession(t *testing.T) {
	finder := &mockSessionFinder{
		findByIDFunc: func(ctx context.Context, id string) (*model.Session, error) {
			return &model.Session{
				ID:        "valid-session",
				UserID:    1,
				ExpiresAt: time.Now().Add(1 * time.Hour),
			}, nil
		},
	}

	recoveryMW := NewRecoveryMiddleware()
	sessionMW := NewSessionMiddleware(finder)

	handler := recoveryMW(sessionMW(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})))

	req := httptest.NewRequest(http.MethodGet, "/api/habit_tracking", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "valid-session"})
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusInternalServerError)
	}
}
