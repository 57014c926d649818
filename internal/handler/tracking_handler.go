package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/lifegpa/internal/middleware"
	"github.com/hitoshi/lifegpa/internal/model"
)

// TrackingServiceInterface は記録ハンドラーが必要とするサービスインターフェース。
type TrackingServiceInterface interface {
	ListForUser(ctx context.Context, userID int64) ([]*model.HabitTracking, error)
	Create(ctx context.Context, userID int64, ht *model.HabitTracking) (*model.HabitTracking, error)
	Update(ctx context.Context, userID, id int64, ht *model.HabitTracking) (*model.HabitTracking, error)
	Delete(ctx context.Context, id int64) error
	// OwnerOf は記録エントリの所有ユーザーIDを返す。見つからない場合は0。
	OwnerOf(ctx context.Context, entry *model.HabitTracking) (int64, error)
}

// TrackingFinder は存在検証ミドルウェアが使うID解決インターフェース。
// repository.HabitTrackingRepositoryが満たす。
type TrackingFinder interface {
	FindByID(ctx context.Context, id int64) (*model.HabitTracking, error)
}

// TrackingRecorder は記録エントリの作成をメトリクスに記録する。
type TrackingRecorder interface {
	RecordTrackingLogged()
}

// TrackingHandler は習慣記録管理のHTTPハンドラー。
type TrackingHandler struct {
	service  TrackingServiceInterface
	finder   TrackingFinder
	recorder TrackingRecorder
}

// NewTrackingHandler はTrackingHandlerを生成する。recorderはnil可。
func NewTrackingHandler(service TrackingServiceInterface, finder TrackingFinder, recorder TrackingRecorder) *TrackingHandler {
	return &TrackingHandler{
		service:  service,
		finder:   finder,
		recorder: recorder,
	}
}

// trackingPayload は記録書き込みリクエストのボディ。
// done_onが省略された場合は現在時刻を使う。
type trackingPayload struct {
	UserHabitID *int64    `json:"user_habit_id"`
	DoneOn      *flexTime `json:"done_on"`
	Quantity    *float64  `json:"quantity"`
}

// trackingResponse は記録エントリのAPIレスポンス。
// done_onはRFC3339（UTC）に正規化して返す。
type trackingResponse struct {
	ID          int64   `json:"id"`
	UserHabitID int64   `json:"user_habit_id"`
	DoneOn      string  `json:"done_on"`
	Quantity    float64 `json:"quantity"`
}

// trackedHabitResponse は習慣情報を結合した記録ビューのAPIレスポンス。
type trackedHabitResponse struct {
	ID              int64   `json:"id"`
	UserHabitID     int64   `json:"user_habit_id"`
	Name            string  `json:"name"`
	Description     *string `json:"description"`
	DailyGoalAmount string  `json:"daily_goal_amount"`
	DoneOn          string  `json:"done_on"`
	Quantity        float64 `json:"quantity"`
}

type trackingCtxKeyType struct{}

var trackingCtxKey = trackingCtxKeyType{}

// TrackingCtx はパスIDを記録エントリに解決するミドルウェア。
// 所有判定は参照先の習慣を経由して行う。不在・他ユーザーの行は同一の404。
func (h *TrackingHandler) TrackingCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUserID(w, r)
		if !ok {
			return
		}

		id, err := idParam(r)
		if err != nil {
			middleware.WriteErrorResponse(w, http.StatusNotFound,
				model.NewNotFoundError("habit tracking entry"))
			return
		}

		entry, err := h.finder.FindByID(r.Context(), id)
		if err != nil {
			slog.Error("failed to resolve tracking entry", slog.String("error", err.Error()))
			middleware.WriteErrorResponse(w, http.StatusInternalServerError,
				model.NewRetrievalFailedError("habit tracking entry"))
			return
		}
		if entry == nil {
			middleware.WriteErrorResponse(w, http.StatusNotFound,
				model.NewNotFoundError("habit tracking entry"))
			return
		}

		owner, err := h.service.OwnerOf(r.Context(), entry)
		if err != nil {
			slog.Error("failed to resolve tracking entry owner", slog.String("error", err.Error()))
			middleware.WriteErrorResponse(w, http.StatusInternalServerError,
				model.NewRetrievalFailedError("habit tracking entry"))
			return
		}
		if owner != userID {
			middleware.WriteErrorResponse(w, http.StatusNotFound,
				model.NewNotFoundError("habit tracking entry"))
			return
		}

		ctx := context.WithValue(r.Context(), trackingCtxKey, entry)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// trackingFromContext はTrackingCtxが解決したエンティティを取り出す。
func trackingFromContext(ctx context.Context) *model.HabitTracking {
	entry, _ := ctx.Value(trackingCtxKey).(*model.HabitTracking)
	return entry
}

// List はユーザーの全記録エントリを返す。
// GET /api/habit_tracking
func (h *TrackingHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	entries, err := h.service.ListForUser(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err, model.NewStorageFailedError("get habit tracking"))
		return
	}

	writeJSON(w, http.StatusOK, toTrackingResponses(entries))
}

// Get はTrackingCtxが解決した記録エントリを返す。
// GET /api/habit_tracking/{id}
func (h *TrackingHandler) Get(w http.ResponseWriter, r *http.Request) {
	entry := trackingFromContext(r.Context())
	writeJSON(w, http.StatusOK, toTrackingResponse(entry))
}

// Create は記録エントリを作成する。
// POST /api/habit_tracking
func (h *TrackingHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	payload, apiErr := parseTrackingPayload(r)
	if apiErr != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	entry, err := h.service.Create(r.Context(), userID, payload.toModel())
	if err != nil {
		handleServiceError(w, err, model.NewStorageFailedError("add new habit tracking"))
		return
	}

	if h.recorder != nil {
		h.recorder.RecordTrackingLogged()
	}

	writeJSON(w, http.StatusCreated, toTrackingResponse(entry))
}

// Update はTrackingCtxが解決した記録エントリの内容を置き換える。
// PUT /api/habit_tracking/{id}
func (h *TrackingHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	payload, apiErr := parseTrackingPayload(r)
	if apiErr != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	current := trackingFromContext(r.Context())
	entry, err := h.service.Update(r.Context(), userID, current.ID, payload.toModel())
	if err != nil {
		handleServiceError(w, err, model.NewStorageFailedError("update habit tracking"))
		return
	}

	writeJSON(w, http.StatusOK, toTrackingResponse(entry))
}

// Delete はTrackingCtxが解決した記録エントリを削除し、削除した行を返す。
// DELETE /api/habit_tracking/{id}
func (h *TrackingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	current := trackingFromContext(r.Context())

	if err := h.service.Delete(r.Context(), current.ID); err != nil {
		handleServiceError(w, err, model.NewStorageFailedError("delete habit tracking"))
		return
	}

	writeJSON(w, http.StatusOK, toTrackingResponse(current))
}

// parseTrackingPayload は記録書き込みボディを検証して返す。
func parseTrackingPayload(r *http.Request) (*trackingPayload, *model.APIError) {
	var payload trackingPayload
	if apiErr := decodeBody(r, "habit tracking", &payload); apiErr != nil {
		return nil, apiErr
	}
	if payload.UserHabitID == nil || payload.Quantity == nil {
		return nil, model.NewMissingFieldsError("user_habit_id and/or quantity")
	}
	return &payload, nil
}

// toModel は検証済みペイロードをドメインモデルに変換する。
func (p *trackingPayload) toModel() *model.HabitTracking {
	ht := &model.HabitTracking{
		UserHabitID: *p.UserHabitID,
		Quantity:    *p.Quantity,
	}
	if p.DoneOn != nil {
		ht.DoneOn = p.DoneOn.Time
	} else {
		ht.DoneOn = time.Now().UTC()
	}
	return ht
}

func toTrackingResponse(ht *model.HabitTracking) trackingResponse {
	return trackingResponse{
		ID:          ht.ID,
		UserHabitID: ht.UserHabitID,
		DoneOn:      formatDoneOn(ht.DoneOn),
		Quantity:    ht.Quantity,
	}
}

func toTrackingResponses(entries []*model.HabitTracking) []trackingResponse {
	responses := make([]trackingResponse, 0, len(entries))
	for _, ht := range entries {
		responses = append(responses, toTrackingResponse(ht))
	}
	return responses
}

func toTrackedHabitResponses(tracked []*model.TrackedHabit) []trackedHabitResponse {
	responses := make([]trackedHabitResponse, 0, len(tracked))
	for _, t := range tracked {
		responses = append(responses, trackedHabitResponse{
			ID:              t.ID,
			UserHabitID:     t.UserHabitID,
			Name:            t.Name,
			Description:     t.Description,
			DailyGoalAmount: t.DailyGoalAmount,
			DoneOn:          formatDoneOn(t.DoneOn),
			Quantity:        t.Quantity,
		})
	}
	return responses
}
