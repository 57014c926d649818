// Package tracking は習慣記録エントリのドメインロジックを提供する。
package tracking

import (
	"context"
	"fmt"

	"github.com/hitoshi/lifegpa/internal/model"
	"github.com/hitoshi/lifegpa/internal/repository"
)

// Service は習慣記録のサービス層。
// 書き込み時はuser_habit_idが認証済みユーザー自身の習慣に解決されることを検証する。
// 他ユーザーの習慣を参照する書き込みは、習慣が存在しない場合と同一のNOT_FOUNDで拒否する。
type Service struct {
	repo      repository.HabitTrackingRepository
	habitRepo repository.UserHabitRepository
}

// NewService はServiceを生成する。
func NewService(repo repository.HabitTrackingRepository, habitRepo repository.UserHabitRepository) *Service {
	return &Service{
		repo:      repo,
		habitRepo: habitRepo,
	}
}

// ListForUser はユーザーの全習慣の記録エントリを返す。
func (s *Service) ListForUser(ctx context.Context, userID int64) ([]*model.HabitTracking, error) {
	entries, err := s.repo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracking entries: %w", err)
	}
	return entries, nil
}

// ListTrackedForUser は記録エントリに習慣情報を結合したビューを返す。
func (s *Service) ListTrackedForUser(ctx context.Context, userID int64) ([]*model.TrackedHabit, error) {
	tracked, err := s.repo.ListTrackedByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracked habits: %w", err)
	}
	return tracked, nil
}

// Create は記録エントリを作成する。
// user_habit_idの所有検証に成功した場合のみストレージに書き込む。
func (s *Service) Create(ctx context.Context, userID int64, ht *model.HabitTracking) (*model.HabitTracking, error) {
	if err := s.verifyHabitOwnership(ctx, userID, ht.UserHabitID); err != nil {
		return nil, err
	}

	ht.ID = 0
	if err := s.repo.Create(ctx, ht); err != nil {
		return nil, fmt.Errorf("failed to create tracking entry: %w", err)
	}

	return ht, nil
}

// Update は指定IDの記録エントリのuser_habit_id、done_on、quantityを置き換える。
// 参照先の習慣の所有検証を書き込み前に行う。
func (s *Service) Update(ctx context.Context, userID, id int64, ht *model.HabitTracking) (*model.HabitTracking, error) {
	if err := s.verifyHabitOwnership(ctx, userID, ht.UserHabitID); err != nil {
		return nil, err
	}

	ht.ID = id
	updated, err := s.repo.Update(ctx, ht)
	if err != nil {
		return nil, fmt.Errorf("failed to update tracking entry: %w", err)
	}
	if updated == nil {
		return nil, model.NewNotFoundError("habit tracking entry")
	}

	return updated, nil
}

// Delete は指定IDの記録エントリを削除する。
func (s *Service) Delete(ctx context.Context, id int64) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete tracking entry: %w", err)
	}
	if !deleted {
		return model.NewNotFoundError("habit tracking entry")
	}
	return nil
}

// OwnerOf は記録エントリの所有ユーザーIDを返す。
// 存在検証ミドルウェアが所有確認に使用する。
// エントリまたは参照先の習慣が見つからない場合は0を返す。
func (s *Service) OwnerOf(ctx context.Context, entry *model.HabitTracking) (int64, error) {
	habit, err := s.habitRepo.FindByID(ctx, entry.UserHabitID)
	if err != nil {
		return 0, fmt.Errorf("failed to find habit for tracking entry: %w", err)
	}
	if habit == nil {
		return 0, nil
	}
	return habit.UserID, nil
}

// verifyHabitOwnership はuser_habit_idが指定ユーザー自身の習慣かを検証する。
// 不在・他ユーザー所有のどちらも同一のNOT_FOUNDを返す（所有情報を漏らさない）。
func (s *Service) verifyHabitOwnership(ctx context.Context, userID, userHabitID int64) error {
	habit, err := s.habitRepo.FindByID(ctx, userHabitID)
	if err != nil {
		return fmt.Errorf("failed to find habit: %w", err)
	}
	if habit == nil || habit.UserID != userID {
		return model.NewNotFoundError("user habit")
	}
	return nil
}
