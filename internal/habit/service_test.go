package habit

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/lifegpa/internal/config"
	"github.com/hitoshi/lifegpa/internal/model"
	"github.com/hitoshi/lifegpa/internal/security"
)

// mockHabitRepo はUserHabitRepositoryのモック。
type mockHabitRepo struct {
	findByIDFunc            func(ctx context.Context, id int64) (*model.UserHabit, error)
	listByUserIDFunc        func(ctx context.Context, userID int64) ([]*model.UserHabit, error)
	createFunc              func(ctx context.Context, uh *model.UserHabit) error
	updateFunc              func(ctx context.Context, uh *model.UserHabit) (*model.UserHabit, error)
	deleteFunc              func(ctx context.Context, id int64) (bool, error)
	sumWeightByCategoryFunc func(ctx context.Context, userID, categoryID, excludeID int64) (float64, error)
}

func (m *mockHabitRepo) FindByID(ctx context.Context, id int64) (*model.UserHabit, error) {
	return m.findByIDFunc(ctx, id)
}

func (m *mockHabitRepo) ListByUserID(ctx context.Context, userID int64) ([]*model.UserHabit, error) {
	return m.listByUserIDFunc(ctx, userID)
}

func (m *mockHabitRepo) Create(ctx context.Context, uh *model.UserHabit) error {
	return m.createFunc(ctx, uh)
}

func (m *mockHabitRepo) Update(ctx context.Context, uh *model.UserHabit) (*model.UserHabit, error) {
	return m.updateFunc(ctx, uh)
}

func (m *mockHabitRepo) Delete(ctx context.Context, id int64) (bool, error) {
	return m.deleteFunc(ctx, id)
}

func (m *mockHabitRepo) SumWeightByCategory(ctx context.Context, userID, categoryID, excludeID int64) (float64, error) {
	return m.sumWeightByCategoryFunc(ctx, userID, categoryID, excludeID)
}

func TestCreate_StampsSessionUserID(t *testing.T) {
	var created *model.UserHabit
	repo := &mockHabitRepo{
		createFunc: func(ctx context.Context, uh *model.UserHabit) error {
			uh.ID = 10
			created = uh
			return nil
		},
	}

	svc := NewService(repo, security.NewTextSanitizer(), config.WeightPolicyPermissive)

	input := &model.UserHabit{
		// クライアントが他人のIDを送ってきても無視される
		UserID:          999,
		CategoryID:      3,
		Name:            "Running",
		DailyGoalAmount: "5km",
		Weight:          0.3,
	}

	_, err := svc.Create(context.Background(), 42, input)
	if err != nil {
		t.Fatalf("Create returned unexpected error: %v", err)
	}

	if created.UserID != 42 {
		t.Errorf("stamped user ID = %d, want 42", created.UserID)
	}
}

func TestCreate_SanitizesFreeTextFields(t *testing.T) {
	var created *model.UserHabit
	repo := &mockHabitRepo{
		createFunc: func(ctx context.Context, uh *model.UserHabit) error {
			uh.ID = 1
			created = uh
			return nil
		},
	}

	svc := NewService(repo, security.NewTextSanitizer(), config.WeightPolicyPermissive)

	desc := `<img src="x" onerror="alert(1)">Morning routine`
	input := &model.UserHabit{
		CategoryID:      1,
		Name:            `<script>alert('xss')</script>Running`,
		Description:     &desc,
		DailyGoalAmount: "<b>5km</b>",
		Weight:          0.3,
	}

	_, err := svc.Create(context.Background(), 1, input)
	if err != nil {
		t.Fatalf("Create returned unexpected error: %v", err)
	}

	if created.Name != "Running" {
		t.Errorf("name = %q, want %q", created.Name, "Running")
	}
	if created.DailyGoalAmount != "5km" {
		t.Errorf("daily goal amount = %q, want %q", created.DailyGoalAmount, "5km")
	}
	if created.Description == nil || *created.Description != "Morning routine" {
		t.Errorf("description = %v, want %q", created.Description, "Morning routine")
	}
}

func TestCreate_StrictPolicy_RejectsExcessWeightWithinCategory(t *testing.T) {
	var gotCategoryID int64
	repo := &mockHabitRepo{
		sumWeightByCategoryFunc: func(ctx context.Context, userID, categoryID, excludeID int64) (float64, error) {
			gotCategoryID = categoryID
			return 0.9, nil
		},
		createFunc: func(ctx context.Context, uh *model.UserHabit) error {
			t.Fatal("Create should not be called when weight sum is exceeded")
			return nil
		},
	}

	svc := NewService(repo, security.NewTextSanitizer(), config.WeightPolicyStrict)

	input := &model.UserHabit{CategoryID: 5, Name: "Running", DailyGoalAmount: "5km", Weight: 0.2}
	_, err := svc.Create(context.Background(), 1, input)
	if err == nil {
		t.Fatal("expected error when habit weight sum exceeds 1.0")
	}

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T", err)
	}
	if apiErr.Code != model.ErrCodeWeightSumExceeded {
		t.Errorf("code = %q, want %q", apiErr.Code, model.ErrCodeWeightSumExceeded)
	}
	// 重み合計は同一カテゴリ内で検証されること
	if gotCategoryID != 5 {
		t.Errorf("category ID = %d, want 5", gotCategoryID)
	}
}

func TestUpdate_PreservesIDAndOwner(t *testing.T) {
	var passed *model.UserHabit
	repo := &mockHabitRepo{
		updateFunc: func(ctx context.Context, uh *model.UserHabit) (*model.UserHabit, error) {
			passed = uh
			return uh, nil
		},
	}

	svc := NewService(repo, security.NewTextSanitizer(), config.WeightPolicyPermissive)

	input := &model.UserHabit{CategoryID: 2, Name: "Reading", DailyGoalAmount: "30min", Weight: 0.4}
	_, err := svc.Update(context.Background(), 42, 7, input)
	if err != nil {
		t.Fatalf("Update returned unexpected error: %v", err)
	}

	if passed.ID != 7 {
		t.Errorf("ID = %d, want 7", passed.ID)
	}
	if passed.UserID != 42 {
		t.Errorf("user ID = %d, want 42", passed.UserID)
	}
}

func TestUpdate_NotFound(t *testing.T) {
	repo := &mockHabitRepo{
		updateFunc: func(ctx context.Context, uh *model.UserHabit) (*model.UserHabit, error) {
			return nil, nil
		},
	}

	svc := NewService(repo, security.NewTextSanitizer(), config.WeightPolicyPermissive)

	input := &model.UserHabit{CategoryID: 1, Name: "Running", DailyGoalAmount: "5km"}
	_, err := svc.Update(context.Background(), 1, 999, input)
	if err == nil {
		t.Fatal("expected error for missing habit")
	}

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T", err)
	}
	if apiErr.Code != model.ErrCodeNotFound {
		t.Errorf("code = %q, want %q", apiErr.Code, model.ErrCodeNotFound)
	}
}

func TestDelete_NotFound(t *testing.T) {
	repo := &mockHabitRepo{
		deleteFunc: func(ctx context.Context, id int64) (bool, error) {
			return false, nil
		},
	}

	svc := NewService(repo, security.NewTextSanitizer(), config.WeightPolicyPermissive)

	err := svc.Delete(context.Background(), 999)
	if err == nil {
		t.Fatal("expected error for missing habit")
	}

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T", err)
	}
	if apiErr.Code != model.ErrCodeNotFound {
		t.Errorf("code = %q, want %q", apiErr.Code, model.ErrCodeNotFound)
	}
}

func TestListForUser(t *testing.T) {
	repo := &mockHabitRepo{
		listByUserIDFunc: func(ctx context.Context, userID int64) ([]*model.UserHabit, error) {
			return []*model.UserHabit{
				{ID: 1, UserID: userID, Name: "Running"},
				{ID: 2, UserID: userID, Name: "Reading"},
			}, nil
		},
	}

	svc := NewService(repo, security.NewTextSanitizer(), config.WeightPolicyPermissive)

	habits, err := svc.ListForUser(context.Background(), 42)
	if err != nil {
		t.Fatalf("ListForUser returned unexpected error: %v", err)
	}
	if len(habits) != 2 {
		t.Errorf("len(habits) = %d, want 2", len(habits))
	}
}
