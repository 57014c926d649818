package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/hitoshi/lifegpa/internal/middleware"
	"github.com/hitoshi/lifegpa/internal/model"
	"github.com/hitoshi/lifegpa/internal/score"
)

// TrackedLister は習慣情報を結合した記録ビューの取得インターフェース。
type TrackedLister interface {
	ListTrackedForUser(ctx context.Context, userID int64) ([]*model.TrackedHabit, error)
}

// ProgressServiceInterface はスコア計算のインターフェース。
type ProgressServiceInterface interface {
	ProgressForUser(ctx context.Context, userID int64, from, to time.Time) (*score.Progress, error)
}

// WithdrawServiceInterface は退会処理のインターフェース。
type WithdrawServiceInterface interface {
	Withdraw(ctx context.Context, userID int64) error
}

// UserHandler はユーザースコープの読み取りと退会のHTTPハンドラー。
type UserHandler struct {
	categories CategoryServiceInterface
	habits     HabitServiceInterface
	tracked    TrackedLister
	progress   ProgressServiceInterface
	withdraw   WithdrawServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(
	categories CategoryServiceInterface,
	habits HabitServiceInterface,
	tracked TrackedLister,
	progress ProgressServiceInterface,
	withdraw WithdrawServiceInterface,
) *UserHandler {
	return &UserHandler{
		categories: categories,
		habits:     habits,
		tracked:    tracked,
		progress:   progress,
		withdraw:   withdraw,
	}
}

// requireOwnPath はパスの{id}がセッションユーザー自身かを検証する。
// 他ユーザーのIDはユーザーが存在しない場合と同一の404を返す。
func requireOwnPath(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return 0, false
	}

	pathID, err := idParam(r)
	if err != nil || pathID != userID {
		middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewNotFoundError("user"))
		return 0, false
	}

	return userID, true
}

// ListCategories はユーザー自身のカテゴリ一覧を返す。
// GET /api/users/{id}/categories
func (h *UserHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireOwnPath(w, r)
	if !ok {
		return
	}

	categories, err := h.categories.ListForUser(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err, model.NewStorageFailedError("get user categories"))
		return
	}

	writeJSON(w, http.StatusOK, toCategoryResponses(categories))
}

// ListHabits はユーザー自身の習慣一覧を返す。
// GET /api/users/{id}/habits
func (h *UserHandler) ListHabits(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireOwnPath(w, r)
	if !ok {
		return
	}

	habits, err := h.habits.ListForUser(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err, model.NewStorageFailedError("get user habits"))
		return
	}

	writeJSON(w, http.StatusOK, toHabitResponses(habits))
}

// ListTrackedHabits は習慣情報を結合した記録ビューを返す。
// GET /api/users/{id}/tracked_habits
func (h *UserHandler) ListTrackedHabits(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireOwnPath(w, r)
	if !ok {
		return
	}

	tracked, err := h.tracked.ListTrackedForUser(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err, model.NewStorageFailedError("get tracked habits"))
		return
	}

	writeJSON(w, http.StatusOK, toTrackedHabitResponses(tracked))
}

// Progress は指定ウィンドウの重み付きスコアを返す。
// GET /api/users/{id}/progress?from=&to=
func (h *UserHandler) Progress(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireOwnPath(w, r)
	if !ok {
		return
	}

	from, err := parseWindowParam(r.URL.Query().Get("from"))
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidFieldsError("from"))
		return
	}
	to, err := parseWindowParam(r.URL.Query().Get("to"))
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidFieldsError("to"))
		return
	}

	progress, err := h.progress.ProgressForUser(r.Context(), userID, from, to)
	if err != nil {
		handleServiceError(w, err, model.NewStorageFailedError("compute progress"))
		return
	}

	writeJSON(w, http.StatusOK, progress)
}

// Withdraw はセッションユーザーのアカウントと全所有データを削除する。
// DELETE /api/users/me
func (h *UserHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.withdraw.Withdraw(r.Context(), userID); err != nil {
		handleServiceError(w, err, model.NewStorageFailedError("delete user"))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
