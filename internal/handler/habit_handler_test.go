package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/lifegpa/internal/model"
)

// --- モック定義 ---

// mockHabitService はHabitServiceInterfaceのモック実装。
type mockHabitService struct {
	listForUserFn func(ctx context.Context, userID int64) ([]*model.UserHabit, error)
	createFn      func(ctx context.Context, userID int64, uh *model.UserHabit) (*model.UserHabit, error)
	updateFn      func(ctx context.Context, userID, id int64, uh *model.UserHabit) (*model.UserHabit, error)
	deleteFn      func(ctx context.Context, id int64) error
}

func (m *mockHabitService) ListForUser(ctx context.Context, userID int64) ([]*model.UserHabit, error) {
	if m.listForUserFn != nil {
		return m.listForUserFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockHabitService) Create(ctx context.Context, userID int64, uh *model.UserHabit) (*model.UserHabit, error) {
	if m.createFn != nil {
		return m.createFn(ctx, userID, uh)
	}
	return nil, nil
}

func (m *mockHabitService) Update(ctx context.Context, userID, id int64, uh *model.UserHabit) (*model.UserHabit, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, userID, id, uh)
	}
	return nil, nil
}

func (m *mockHabitService) Delete(ctx context.Context, id int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

// mockHabitFinder はHabitFinderのモック実装。
type mockHabitFinder struct {
	findByIDFn func(ctx context.Context, id int64) (*model.UserHabit, error)
}

func (m *mockHabitFinder) FindByID(ctx context.Context, id int64) (*model.UserHabit, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

// --- POST /api/user_habits テスト ---

func TestHabitHandler_Create_Success(t *testing.T) {
	svc := &mockHabitService{
		createFn: func(ctx context.Context, userID int64, uh *model.UserHabit) (*model.UserHabit, error) {
			if userID != 42 {
				t.Errorf("userID = %d, want 42", userID)
			}
			if uh.Name != "Running" {
				t.Errorf("name = %q, want %q", uh.Name, "Running")
			}
			if uh.DailyGoalAmount != "5 km" {
				t.Errorf("daily_goal_amount = %q, want %q", uh.DailyGoalAmount, "5 km")
			}
			created := *uh
			created.ID = 9
			created.UserID = userID
			return &created, nil
		},
	}

	h := NewHabitHandler(svc, &mockHabitFinder{})

	body := `{"category_id": 3, "name": "Running", "daily_goal_amount": "5 km", "weight": 0.4}`
	req := httptest.NewRequest(http.MethodPost, "/api/user_habits", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req = withUserID(req, 42)
	w := httptest.NewRecorder()

	h.Create(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}

	result := decodeJSONBody(t, w)
	if result["id"] != float64(9) {
		t.Errorf("id = %v, want 9", result["id"])
	}
	if result["user_id"] != float64(42) {
		t.Errorf("user_id = %v, want 42", result["user_id"])
	}
	if result["weight"] != 0.4 {
		t.Errorf("weight = %v, want 0.4", result["weight"])
	}
}

func TestHabitHandler_Create_IgnoresClientSuppliedUserID(t *testing.T) {
	var gotUserID int64
	svc := &mockHabitService{
		createFn: func(ctx context.Context, userID int64, uh *model.UserHabit) (*model.UserHabit, error) {
			gotUserID = userID
			return uh, nil
		},
	}

	h := NewHabitHandler(svc, &mockHabitFinder{})

	body := `{"category_id": 3, "name": "Running", "daily_goal_amount": "5 km", "user_id": 999}`
	req := httptest.NewRequest(http.MethodPost, "/api/user_habits", bytes.NewBufferString(body))
	req = withUserID(req, 42)
	w := httptest.NewRecorder()

	h.Create(w, req)

	if gotUserID != 42 {
		t.Errorf("userID = %d, want 42 (session user, not body user_id)", gotUserID)
	}
}

func TestHabitHandler_Create_EmptyBody_ReturnsMissingBody(t *testing.T) {
	h := NewHabitHandler(&mockHabitService{}, &mockHabitFinder{})

	req := httptest.NewRequest(http.MethodPost, "/api/user_habits", bytes.NewBufferString(""))
	req = withUserID(req, 42)
	w := httptest.NewRecorder()

	h.Create(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
	if got := messageFromBody(t, w); got != "missing user habit data" {
		t.Errorf("message = %q, want %q", got, "missing user habit data")
	}
}

func TestHabitHandler_Create_MissingRequiredFields_ReturnsMissingFields(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"名前なし", `{"category_id": 3, "daily_goal_amount": "5 km"}`},
		{"名前が空文字", `{"category_id": 3, "name": "", "daily_goal_amount": "5 km"}`},
		{"カテゴリなし", `{"name": "Running", "daily_goal_amount": "5 km"}`},
		{"目標なし", `{"category_id": 3, "name": "Running"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHabitHandler(&mockHabitService{}, &mockHabitFinder{})

			req := httptest.NewRequest(http.MethodPost, "/api/user_habits", bytes.NewBufferString(tt.body))
			req = withUserID(req, 42)
			w := httptest.NewRecorder()

			h.Create(w, req)

			resp := w.Result()
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
			}
			want := "missing name, category_id and/or daily_goal_amount field(s)"
			if got := messageFromBody(t, w); got != want {
				t.Errorf("message = %q, want %q", got, want)
			}
		})
	}
}

// weight省略時は0として扱う
func TestHabitHandler_Create_OmittedWeight_DefaultsToZero(t *testing.T) {
	var gotWeight float64 = -1
	svc := &mockHabitService{
		createFn: func(ctx context.Context, userID int64, uh *model.UserHabit) (*model.UserHabit, error) {
			gotWeight = uh.Weight
			return uh, nil
		},
	}

	h := NewHabitHandler(svc, &mockHabitFinder{})

	body := `{"category_id": 3, "name": "Running", "daily_goal_amount": "5 km"}`
	req := httptest.NewRequest(http.MethodPost, "/api/user_habits", bytes.NewBufferString(body))
	req = withUserID(req, 42)
	w := httptest.NewRecorder()

	h.Create(w, req)

	if gotWeight != 0 {
		t.Errorf("weight = %v, want 0", gotWeight)
	}
}

// --- HabitCtx テスト ---

func TestHabitCtx_ResolvesOwnedHabit(t *testing.T) {
	finder := &mockHabitFinder{
		findByIDFn: func(ctx context.Context, id int64) (*model.UserHabit, error) {
			return &model.UserHabit{ID: 9, UserID: 42, CategoryID: 3, Name: "Running", DailyGoalAmount: "5 km"}, nil
		},
	}

	h := NewHabitHandler(&mockHabitService{}, finder)

	var resolved *model.UserHabit
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resolved = habitFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/user_habits/9", nil)
	req = withUserID(req, 42)
	req = withChiURLParam(req, "id", "9")
	w := httptest.NewRecorder()

	h.HabitCtx(next).ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
	if resolved == nil || resolved.Name != "Running" {
		t.Errorf("resolved = %+v, want habit Running", resolved)
	}
}

func TestHabitCtx_ForeignHabit_ReturnsSameNotFoundAsMissing(t *testing.T) {
	tests := []struct {
		name   string
		habit  *model.UserHabit
		pathID string
	}{
		{"不在の行", nil, "99"},
		{"他ユーザー所有の行", &model.UserHabit{ID: 9, UserID: 999, Name: "Running"}, "9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			finder := &mockHabitFinder{
				findByIDFn: func(ctx context.Context, id int64) (*model.UserHabit, error) {
					return tt.habit, nil
				},
			}

			h := NewHabitHandler(&mockHabitService{}, finder)

			called := false
			req := httptest.NewRequest(http.MethodGet, "/api/user_habits/"+tt.pathID, nil)
			req = withUserID(req, 42)
			req = withChiURLParam(req, "id", tt.pathID)
			w := httptest.NewRecorder()

			h.HabitCtx(ctxNext(&called)).ServeHTTP(w, req)

			resp := w.Result()
			if resp.StatusCode != http.StatusNotFound {
				t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
			}
			want := "The user habit with the specified ID does not exist."
			if got := messageFromBody(t, w); got != want {
				t.Errorf("message = %q, want %q", got, want)
			}
			if called {
				t.Error("next handler must not run")
			}
		})
	}
}

// --- GET /api/user_habits/{id} テスト ---

func TestHabitHandler_Get_ReturnsResolvedHabit(t *testing.T) {
	h := NewHabitHandler(&mockHabitService{}, &mockHabitFinder{})

	desc := "Morning routine"
	req := httptest.NewRequest(http.MethodGet, "/api/user_habits/9", nil)
	ctx := context.WithValue(req.Context(), habitCtxKey, &model.UserHabit{
		ID: 9, UserID: 42, CategoryID: 3,
		Name: "Running", Description: &desc, DailyGoalAmount: "5 km", Weight: 0.4,
	})
	req = req.WithContext(ctx)
	w := httptest.NewRecorder()

	h.Get(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	result := decodeJSONBody(t, w)
	if result["name"] != "Running" {
		t.Errorf("name = %v, want Running", result["name"])
	}
	if result["description"] != "Morning routine" {
		t.Errorf("description = %v, want Morning routine", result["description"])
	}
	if result["daily_goal_amount"] != "5 km" {
		t.Errorf("daily_goal_amount = %v, want 5 km", result["daily_goal_amount"])
	}
}

// descriptionがnilの場合はJSONのnullとして返す
func TestHabitHandler_Get_NilDescription_ReturnsNull(t *testing.T) {
	h := NewHabitHandler(&mockHabitService{}, &mockHabitFinder{})

	req := httptest.NewRequest(http.MethodGet, "/api/user_habits/9", nil)
	ctx := context.WithValue(req.Context(), habitCtxKey, &model.UserHabit{
		ID: 9, UserID: 42, CategoryID: 3, Name: "Running", DailyGoalAmount: "5 km",
	})
	req = req.WithContext(ctx)
	w := httptest.NewRecorder()

	h.Get(w, req)

	result := decodeJSONBody(t, w)
	if v, ok := result["description"]; !ok || v != nil {
		t.Errorf("description = %v, want null", v)
	}
}

// --- PUT /api/user_habits/{id} テスト ---

func TestHabitHandler_Update_PassesResolvedID(t *testing.T) {
	svc := &mockHabitService{
		updateFn: func(ctx context.Context, userID, id int64, uh *model.UserHabit) (*model.UserHabit, error) {
			if userID != 42 {
				t.Errorf("userID = %d, want 42", userID)
			}
			if id != 9 {
				t.Errorf("id = %d, want 9", id)
			}
			updated := *uh
			updated.ID = id
			updated.UserID = userID
			return &updated, nil
		},
	}

	h := NewHabitHandler(svc, &mockHabitFinder{})

	body := `{"category_id": 3, "name": "Evening run", "daily_goal_amount": "3 km"}`
	req := httptest.NewRequest(http.MethodPut, "/api/user_habits/9", bytes.NewBufferString(body))
	req = withUserID(req, 42)
	ctx := context.WithValue(req.Context(), habitCtxKey, &model.UserHabit{
		ID: 9, UserID: 42, CategoryID: 3, Name: "Running", DailyGoalAmount: "5 km",
	})
	req = req.WithContext(ctx)
	w := httptest.NewRecorder()

	h.Update(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	result := decodeJSONBody(t, w)
	if result["name"] != "Evening run" {
		t.Errorf("name = %v, want Evening run", result["name"])
	}
}

// --- DELETE /api/user_habits/{id} テスト ---

func TestHabitHandler_Delete_ReturnsDeletedEntity(t *testing.T) {
	var deletedID int64
	svc := &mockHabitService{
		deleteFn: func(ctx context.Context, id int64) error {
			deletedID = id
			return nil
		},
	}

	h := NewHabitHandler(svc, &mockHabitFinder{})

	req := httptest.NewRequest(http.MethodDelete, "/api/user_habits/9", nil)
	req = withUserID(req, 42)
	ctx := context.WithValue(req.Context(), habitCtxKey, &model.UserHabit{
		ID: 9, UserID: 42, CategoryID: 3, Name: "Running", DailyGoalAmount: "5 km",
	})
	req = req.WithContext(ctx)
	w := httptest.NewRecorder()

	h.Delete(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if deletedID != 9 {
		t.Errorf("deleted id = %d, want 9", deletedID)
	}

	result := decodeJSONBody(t, w)
	if result["name"] != "Running" {
		t.Errorf("name = %v, want Running", result["name"])
	}
}
