package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hitoshi/lifegpa/internal/middleware"
	"github.com/hitoshi/lifegpa/internal/model"
)

// HabitServiceInterface は習慣ハンドラーが必要とするサービスインターフェース。
type HabitServiceInterface interface {
	ListForUser(ctx context.Context, userID int64) ([]*model.UserHabit, error)
	Create(ctx context.Context, userID int64, uh *model.UserHabit) (*model.UserHabit, error)
	Update(ctx context.Context, userID, id int64, uh *model.UserHabit) (*model.UserHabit, error)
	Delete(ctx context.Context, id int64) error
}

// HabitFinder は存在検証ミドルウェアが使うID解決インターフェース。
// repository.UserHabitRepositoryが満たす。
type HabitFinder interface {
	FindByID(ctx context.Context, id int64) (*model.UserHabit, error)
}

// HabitHandler はユーザー習慣管理のHTTPハンドラー。
type HabitHandler struct {
	service HabitServiceInterface
	finder  HabitFinder
}

// NewHabitHandler はHabitHandlerを生成する。
func NewHabitHandler(service HabitServiceInterface, finder HabitFinder) *HabitHandler {
	return &HabitHandler{
		service: service,
		finder:  finder,
	}
}

// habitPayload は習慣書き込みリクエストのボディ。
// user_idはボディから受け取らず、常にセッションから設定する。
// weightが省略された場合は0として扱う。
type habitPayload struct {
	CategoryID      *int64   `json:"category_id"`
	Name            *string  `json:"name"`
	Description     *string  `json:"description"`
	DailyGoalAmount *string  `json:"daily_goal_amount"`
	Weight          *float64 `json:"weight"`
}

// habitResponse はユーザー習慣のAPIレスポンス。
type habitResponse struct {
	ID              int64   `json:"id"`
	UserID          int64   `json:"user_id"`
	CategoryID      int64   `json:"category_id"`
	Name            string  `json:"name"`
	Description     *string `json:"description"`
	DailyGoalAmount string  `json:"daily_goal_amount"`
	Weight          float64 `json:"weight"`
}

type habitCtxKeyType struct{}

var habitCtxKey = habitCtxKeyType{}

// HabitCtx はパスIDをユーザー習慣に解決するミドルウェア。
// 不在・他ユーザー所有の行は同一の404を返す。ストレージ障害は500。
func (h *HabitHandler) HabitCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUserID(w, r)
		if !ok {
			return
		}

		id, err := idParam(r)
		if err != nil {
			middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewNotFoundError("user habit"))
			return
		}

		uh, err := h.finder.FindByID(r.Context(), id)
		if err != nil {
			slog.Error("failed to resolve user habit", slog.String("error", err.Error()))
			middleware.WriteErrorResponse(w, http.StatusInternalServerError,
				model.NewRetrievalFailedError("user habit"))
			return
		}
		if uh == nil || uh.UserID != userID {
			middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewNotFoundError("user habit"))
			return
		}

		ctx := context.WithValue(r.Context(), habitCtxKey, uh)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// habitFromContext はHabitCtxが解決したエンティティを取り出す。
func habitFromContext(ctx context.Context) *model.UserHabit {
	uh, _ := ctx.Value(habitCtxKey).(*model.UserHabit)
	return uh
}

// List はユーザーの習慣一覧を返す。
// GET /api/user_habits
func (h *HabitHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	habits, err := h.service.ListForUser(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err, model.NewStorageFailedError("get user habits"))
		return
	}

	writeJSON(w, http.StatusOK, toHabitResponses(habits))
}

// Get はHabitCtxが解決した習慣を返す。
// GET /api/user_habits/{id}
func (h *HabitHandler) Get(w http.ResponseWriter, r *http.Request) {
	uh := habitFromContext(r.Context())
	writeJSON(w, http.StatusOK, toHabitResponse(uh))
}

// Create は習慣を作成する。
// POST /api/user_habits
func (h *HabitHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	payload, apiErr := parseHabitPayload(r)
	if apiErr != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	uh, err := h.service.Create(r.Context(), userID, payload.toModel())
	if err != nil {
		handleServiceError(w, err, model.NewStorageFailedError("add new user habit"))
		return
	}

	writeJSON(w, http.StatusCreated, toHabitResponse(uh))
}

// Update はHabitCtxが解決した習慣の内容を置き換える。
// PUT /api/user_habits/{id}
func (h *HabitHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	payload, apiErr := parseHabitPayload(r)
	if apiErr != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	current := habitFromContext(r.Context())
	uh, err := h.service.Update(r.Context(), userID, current.ID, payload.toModel())
	if err != nil {
		handleServiceError(w, err, model.NewStorageFailedError("update user habit"))
		return
	}

	writeJSON(w, http.StatusOK, toHabitResponse(uh))
}

// Delete はHabitCtxが解決した習慣を削除し、削除した行を返す。
// DELETE /api/user_habits/{id}
func (h *HabitHandler) Delete(w http.ResponseWriter, r *http.Request) {
	current := habitFromContext(r.Context())

	if err := h.service.Delete(r.Context(), current.ID); err != nil {
		handleServiceError(w, err, model.NewStorageFailedError("delete user habit"))
		return
	}

	writeJSON(w, http.StatusOK, toHabitResponse(current))
}

// parseHabitPayload は習慣書き込みボディを検証して返す。
func parseHabitPayload(r *http.Request) (*habitPayload, *model.APIError) {
	var payload habitPayload
	if apiErr := decodeBody(r, "user habit", &payload); apiErr != nil {
		return nil, apiErr
	}
	if payload.Name == nil || *payload.Name == "" ||
		payload.CategoryID == nil ||
		payload.DailyGoalAmount == nil || *payload.DailyGoalAmount == "" {
		return nil, model.NewMissingFieldsError("name, category_id and/or daily_goal_amount")
	}
	return &payload, nil
}

// toModel は検証済みペイロードをドメインモデルに変換する。
func (p *habitPayload) toModel() *model.UserHabit {
	uh := &model.UserHabit{
		CategoryID:      *p.CategoryID,
		Name:            *p.Name,
		Description:     p.Description,
		DailyGoalAmount: *p.DailyGoalAmount,
	}
	if p.Weight != nil {
		uh.Weight = *p.Weight
	}
	return uh
}

func toHabitResponse(uh *model.UserHabit) habitResponse {
	return habitResponse{
		ID:              uh.ID,
		UserID:          uh.UserID,
		CategoryID:      uh.CategoryID,
		Name:            uh.Name,
		Description:     uh.Description,
		DailyGoalAmount: uh.DailyGoalAmount,
		Weight:          uh.Weight,
	}
}

func toHabitResponses(habits []*model.UserHabit) []habitResponse {
	responses := make([]habitResponse, 0, len(habits))
	for _, uh := range habits {
		responses = append(responses, toHabitResponse(uh))
	}
	return responses
}
