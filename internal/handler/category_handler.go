package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hitoshi/lifegpa/internal/middleware"
	"github.com/hitoshi/lifegpa/internal/model"
)

// CategoryServiceInterface はカテゴリハンドラーが必要とするサービスインターフェース。
type CategoryServiceInterface interface {
	ListForUser(ctx context.Context, userID int64) ([]*model.UserCategory, error)
	Create(ctx context.Context, userID, categoryID int64, weight float64) (*model.UserCategory, error)
	Update(ctx context.Context, userID, id, categoryID int64, weight float64) (*model.UserCategory, error)
	Delete(ctx context.Context, id int64) error
}

// CategoryFinder は存在検証ミドルウェアが使うID解決インターフェース。
// repository.UserCategoryRepositoryが満たす。
type CategoryFinder interface {
	FindByID(ctx context.Context, id int64) (*model.UserCategory, error)
}

// CategoryHandler はユーザーカテゴリ管理のHTTPハンドラー。
type CategoryHandler struct {
	service CategoryServiceInterface
	finder  CategoryFinder
}

// NewCategoryHandler はCategoryHandlerを生成する。
func NewCategoryHandler(service CategoryServiceInterface, finder CategoryFinder) *CategoryHandler {
	return &CategoryHandler{
		service: service,
		finder:  finder,
	}
}

// categoryPayload はカテゴリ書き込みリクエストのボディ。
// user_idはボディから受け取らず、常にセッションから設定する。
type categoryPayload struct {
	CategoryID *int64   `json:"category_id"`
	Weight     *float64 `json:"weight"`
}

// categoryResponse はユーザーカテゴリのAPIレスポンス。
type categoryResponse struct {
	ID         int64   `json:"id"`
	UserID     int64   `json:"user_id"`
	CategoryID int64   `json:"category_id"`
	Weight     float64 `json:"weight"`
}

type categoryCtxKeyType struct{}

var categoryCtxKey = categoryCtxKeyType{}

// CategoryCtx はパスIDをユーザーカテゴリに解決するミドルウェア。
// 不在・他ユーザー所有の行は同一の404を返す。ストレージ障害は500。
// 解決したエンティティはコンテキストに載せて下流に渡す。
func (h *CategoryHandler) CategoryCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUserID(w, r)
		if !ok {
			return
		}

		id, err := idParam(r)
		if err != nil {
			middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewNotFoundError("user category"))
			return
		}

		uc, err := h.finder.FindByID(r.Context(), id)
		if err != nil {
			slog.Error("failed to resolve user category", slog.String("error", err.Error()))
			middleware.WriteErrorResponse(w, http.StatusInternalServerError,
				model.NewRetrievalFailedError("user category"))
			return
		}
		if uc == nil || uc.UserID != userID {
			middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewNotFoundError("user category"))
			return
		}

		ctx := context.WithValue(r.Context(), categoryCtxKey, uc)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// categoryFromContext はCategoryCtxが解決したエンティティを取り出す。
func categoryFromContext(ctx context.Context) *model.UserCategory {
	uc, _ := ctx.Value(categoryCtxKey).(*model.UserCategory)
	return uc
}

// List はユーザーのカテゴリ一覧を返す。
// GET /api/user_categories
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	categories, err := h.service.ListForUser(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err, model.NewStorageFailedError("get user categories"))
		return
	}

	writeJSON(w, http.StatusOK, toCategoryResponses(categories))
}

// Get はCategoryCtxが解決したカテゴリを返す。
// GET /api/user_categories/{id}
func (h *CategoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	uc := categoryFromContext(r.Context())
	writeJSON(w, http.StatusOK, toCategoryResponse(uc))
}

// Create はカテゴリを作成する。
// POST /api/user_categories
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	payload, apiErr := parseCategoryPayload(r)
	if apiErr != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	uc, err := h.service.Create(r.Context(), userID, *payload.CategoryID, *payload.Weight)
	if err != nil {
		handleServiceError(w, err, model.NewStorageFailedError("add new user category"))
		return
	}

	writeJSON(w, http.StatusCreated, toCategoryResponse(uc))
}

// Update はCategoryCtxが解決したカテゴリの内容を置き換える。
// PUT /api/user_categories/{id}
func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	payload, apiErr := parseCategoryPayload(r)
	if apiErr != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	current := categoryFromContext(r.Context())
	uc, err := h.service.Update(r.Context(), userID, current.ID, *payload.CategoryID, *payload.Weight)
	if err != nil {
		handleServiceError(w, err, model.NewStorageFailedError("update user category"))
		return
	}

	writeJSON(w, http.StatusOK, toCategoryResponse(uc))
}

// Delete はCategoryCtxが解決したカテゴリを削除し、削除した行を返す。
// DELETE /api/user_categories/{id}
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	current := categoryFromContext(r.Context())

	if err := h.service.Delete(r.Context(), current.ID); err != nil {
		handleServiceError(w, err, model.NewStorageFailedError("delete user category"))
		return
	}

	writeJSON(w, http.StatusOK, toCategoryResponse(current))
}

// parseCategoryPayload はカテゴリ書き込みボディを検証して返す。
// 空ボディはMISSING_BODY、必須フィールド欠落はMISSING_FIELDS。
func parseCategoryPayload(r *http.Request) (*categoryPayload, *model.APIError) {
	var payload categoryPayload
	if apiErr := decodeBody(r, "user category", &payload); apiErr != nil {
		return nil, apiErr
	}
	if payload.CategoryID == nil || payload.Weight == nil {
		return nil, model.NewMissingFieldsError("category_id and/or weight")
	}
	return &payload, nil
}

func toCategoryResponse(uc *model.UserCategory) categoryResponse {
	return categoryResponse{
		ID:         uc.ID,
		UserID:     uc.UserID,
		CategoryID: uc.CategoryID,
		Weight:     uc.Weight,
	}
}

func toCategoryResponses(categories []*model.UserCategory) []categoryResponse {
	responses := make([]categoryResponse, 0, len(categories))
	for _, uc := range categories {
		responses = append(responses, toCategoryResponse(uc))
	}
	return responses
}
