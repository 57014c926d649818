// Package habit はユーザー習慣のドメインロジックを提供する。
package habit

import (
	"context"
	"fmt"

	"github.com/hitoshi/lifegpa/internal/config"
	"github.com/hitoshi/lifegpa/internal/model"
	"github.com/hitoshi/lifegpa/internal/repository"
	"github.com/hitoshi/lifegpa/internal/security"
)

const weightSumEpsilon = 1e-9

// Service はユーザー習慣のサービス層。
// 自由記述フィールド（name、description、daily_goal_amount）は保存前にサニタイズする。
// 習慣のcategory_idはユーザーのUserCategory集合に対して検証しない
// （既存実装の挙動を踏襲。参照整合性はスコア集計側が欠落に耐える）。
type Service struct {
	repo      repository.UserHabitRepository
	sanitizer security.TextSanitizerService
	policy    config.WeightPolicy
}

// NewService はServiceを生成する。
func NewService(repo repository.UserHabitRepository, sanitizer security.TextSanitizerService, policy config.WeightPolicy) *Service {
	return &Service{
		repo:      repo,
		sanitizer: sanitizer,
		policy:    policy,
	}
}

// ListForUser はユーザーの習慣一覧を返す。
func (s *Service) ListForUser(ctx context.Context, userID int64) ([]*model.UserHabit, error) {
	habits, err := s.repo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list habits: %w", err)
	}
	return habits, nil
}

// Create はユーザー習慣を作成する。
// user_idは認証済みセッションのuserIDをスタンプし、クライアント入力は使用しない。
func (s *Service) Create(ctx context.Context, userID int64, uh *model.UserHabit) (*model.UserHabit, error) {
	if err := s.checkWeightSum(ctx, userID, uh.CategoryID, 0, uh.Weight); err != nil {
		return nil, err
	}

	uh.ID = 0
	uh.UserID = userID
	s.sanitizeFields(uh)

	if err := s.repo.Create(ctx, uh); err != nil {
		return nil, fmt.Errorf("failed to create habit: %w", err)
	}

	return uh, nil
}

// Update は指定IDの習慣のid・user_id以外のフィールドを置き換える。
// 対象が存在しない（または他ユーザー所有の）場合はNOT_FOUNDを返す。
func (s *Service) Update(ctx context.Context, userID, id int64, uh *model.UserHabit) (*model.UserHabit, error) {
	if err := s.checkWeightSum(ctx, userID, uh.CategoryID, id, uh.Weight); err != nil {
		return nil, err
	}

	uh.ID = id
	uh.UserID = userID
	s.sanitizeFields(uh)

	updated, err := s.repo.Update(ctx, uh)
	if err != nil {
		return nil, fmt.Errorf("failed to update habit: %w", err)
	}
	if updated == nil {
		return nil, model.NewNotFoundError("user habit")
	}

	return updated, nil
}

// Delete は指定IDの習慣を削除する。配下の記録エントリも削除される。
func (s *Service) Delete(ctx context.Context, id int64) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete habit: %w", err)
	}
	if !deleted {
		return model.NewNotFoundError("user habit")
	}
	return nil
}

// sanitizeFields は自由記述フィールドからマークアップを除去する。
func (s *Service) sanitizeFields(uh *model.UserHabit) {
	if s.sanitizer == nil {
		return
	}
	uh.Name = s.sanitizer.Sanitize(uh.Name)
	uh.DailyGoalAmount = s.sanitizer.Sanitize(uh.DailyGoalAmount)
	if uh.Description != nil {
		desc := s.sanitizer.Sanitize(*uh.Description)
		uh.Description = &desc
	}
}

// checkWeightSum は厳格ポリシー時にカテゴリ内の習慣重み合計を検証する。
func (s *Service) checkWeightSum(ctx context.Context, userID, categoryID, excludeID int64, weight float64) error {
	if s.policy != config.WeightPolicyStrict {
		return nil
	}

	sum, err := s.repo.SumWeightByCategory(ctx, userID, categoryID, excludeID)
	if err != nil {
		return fmt.Errorf("failed to sum habit weights: %w", err)
	}
	if sum+weight > 1.0+weightSumEpsilon {
		return model.NewWeightSumExceededError("habit")
	}
	return nil
}
