// Package category はユーザーカテゴリのドメインロジックを提供する。
package category

import (
	"context"
	"fmt"

	"github.com/hitoshi/lifegpa/internal/config"
	"github.com/hitoshi/lifegpa/internal/model"
	"github.com/hitoshi/lifegpa/internal/repository"
)

// weightSumEpsilon は浮動小数点誤差の許容量。
// 0.3 + 0.7 のような合計がちょうど1.0にならないケースを吸収する。
const weightSumEpsilon = 1e-9

// Service はユーザーカテゴリのサービス層。
// 書き込みは必ず所有者のuser_idをスタンプ済みの状態でリポジトリに渡す。
type Service struct {
	repo   repository.UserCategoryRepository
	policy config.WeightPolicy
}

// NewService はServiceを生成する。
func NewService(repo repository.UserCategoryRepository, policy config.WeightPolicy) *Service {
	return &Service{
		repo:   repo,
		policy: policy,
	}
}

// ListForUser はユーザーのカテゴリ一覧を返す。
func (s *Service) ListForUser(ctx context.Context, userID int64) ([]*model.UserCategory, error) {
	categories, err := s.repo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// Create はユーザーカテゴリを作成する。
// user_idは認証済みセッションのuserIDをスタンプし、クライアント入力は使用しない。
// 厳格ポリシーの場合、作成後の重み合計が1.0を超えるとAPIErrorを返す。
func (s *Service) Create(ctx context.Context, userID, categoryID int64, weight float64) (*model.UserCategory, error) {
	if err := s.checkWeightSum(ctx, userID, 0, weight); err != nil {
		return nil, err
	}

	uc := &model.UserCategory{
		UserID:     userID,
		CategoryID: categoryID,
		Weight:     weight,
	}

	if err := s.repo.Create(ctx, uc); err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	return uc, nil
}

// Update は指定IDのカテゴリのcategory_idとweightを置き換える。
// idとuser_idは保持される。対象が存在しない（または他ユーザー所有の）場合はNOT_FOUNDを返す。
func (s *Service) Update(ctx context.Context, userID, id, categoryID int64, weight float64) (*model.UserCategory, error) {
	if err := s.checkWeightSum(ctx, userID, id, weight); err != nil {
		return nil, err
	}

	uc := &model.UserCategory{
		ID:         id,
		UserID:     userID,
		CategoryID: categoryID,
		Weight:     weight,
	}

	updated, err := s.repo.Update(ctx, uc)
	if err != nil {
		return nil, fmt.Errorf("failed to update category: %w", err)
	}
	if updated == nil {
		return nil, model.NewNotFoundError("user category")
	}

	return updated, nil
}

// Delete は指定IDのカテゴリを削除する。
// 削除対象が存在しない場合はNOT_FOUNDを返す。
func (s *Service) Delete(ctx context.Context, id int64) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	if !deleted {
		return model.NewNotFoundError("user category")
	}
	return nil
}

// checkWeightSum は厳格ポリシー時に重み合計を検証する。
// permissiveの場合は常にnilを返す（重みは助言的な値としてそのまま保存する）。
func (s *Service) checkWeightSum(ctx context.Context, userID, excludeID int64, weight float64) error {
	if s.policy != config.WeightPolicyStrict {
		return nil
	}

	sum, err := s.repo.SumWeightByUser(ctx, userID, excludeID)
	if err != nil {
		return fmt.Errorf("failed to sum category weights: %w", err)
	}
	if sum+weight > 1.0+weightSumEpsilon {
		return model.NewWeightSumExceededError("category")
	}
	return nil
}
