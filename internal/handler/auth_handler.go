package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hitoshi/lifegpa/internal/middleware"
	"github.com/hitoshi/lifegpa/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	// Register は新規ユーザーを作成する。
	Register(ctx context.Context, username, password string, email *string) (*model.User, error)
	// Login は認証情報を検証しセッションを発行する。
	Login(ctx context.Context, username, password string) (*model.User, *model.Session, error)
	// Logout はセッションを破棄する。
	Logout(ctx context.Context, sessionID string) error
}

// LoginRecorder はログイン成功を記録する。
type LoginRecorder interface {
	RecordLogin()
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	CookieDomain  string
	CookieSecure  bool
	SessionMaxAge int // セッションCookieの有効期間（秒）
}

// AuthHandler は登録・ログイン・ログアウトのHTTPハンドラー。
type AuthHandler struct {
	service  AuthServiceInterface
	config   AuthHandlerConfig
	recorder LoginRecorder
}

// NewAuthHandler はAuthHandlerを生成する。recorderはnil可。
func NewAuthHandler(service AuthServiceInterface, config AuthHandlerConfig, recorder LoginRecorder) *AuthHandler {
	return &AuthHandler{
		service:  service,
		config:   config,
		recorder: recorder,
	}
}

// registerRequest はユーザー登録リクエストのボディ。
type registerRequest struct {
	Username *string `json:"username"`
	Password *string `json:"password"`
	Email    *string `json:"email"`
}

// loginRequest はログインリクエストのボディ。
type loginRequest struct {
	Username *string `json:"username"`
	Password *string `json:"password"`
}

// userResponse はユーザー情報のAPIレスポンス。パスワードハッシュは含めない。
type userResponse struct {
	ID       int64   `json:"id"`
	Username string  `json:"username"`
	Email    *string `json:"email"`
}

// Register は新規ユーザー登録を処理する。
// POST /api/users/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if apiErr := decodeBody(r, "user", &req); apiErr != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	if req.Username == nil || *req.Username == "" || req.Password == nil || *req.Password == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest,
			model.NewMissingFieldsError("username and/or password"))
		return
	}

	user, err := h.service.Register(r.Context(), *req.Username, *req.Password, req.Email)
	if err != nil {
		handleServiceError(w, err, model.NewStorageFailedError("register user"))
		return
	}

	writeJSON(w, http.StatusCreated, userResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
	})
}

// Login は認証情報を検証し、セッションCookieを発行する。
// POST /api/users/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if apiErr := decodeBody(r, "user", &req); apiErr != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	if req.Username == nil || *req.Username == "" || req.Password == nil || *req.Password == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest,
			model.NewMissingFieldsError("username and/or password"))
		return
	}

	user, session, err := h.service.Login(r.Context(), *req.Username, *req.Password)
	if err != nil {
		handleServiceError(w, err, model.NewStorageFailedError("login"))
		return
	}

	// セッションCookieを設定（HTTP Only）
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    session.ID,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   h.config.SessionMaxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	if h.recorder != nil {
		h.recorder.RecordLogin()
	}

	writeJSON(w, http.StatusOK, messageResponse{
		Message: fmt.Sprintf("Welcome %s!", user.Username),
	})
}

// Logout はセッションを破棄し、Cookieをクリアする。
// POST /api/users/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(middleware.SessionCookieName)
	if err == nil && cookie.Value != "" {
		if logoutErr := h.service.Logout(r.Context(), cookie.Value); logoutErr != nil {
			slog.Error("failed to logout", slog.String("error", logoutErr.Error()))
			// ログアウト失敗してもCookieはクリアする
		}
	}

	h.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, messageResponse{Message: "Logged out"})
}

// clearSessionCookie はセッションCookieを失効させる。
func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
