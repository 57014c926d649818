package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/lifegpa/internal/model"
)

// PostgresUserCategoryRepo はPostgreSQLを使用したユーザーカテゴリリポジトリ。
type PostgresUserCategoryRepo struct {
	db *sql.DB
}

// NewPostgresUserCategoryRepo はPostgresUserCategoryRepoを生成する。
func NewPostgresUserCategoryRepo(db *sql.DB) *PostgresUserCategoryRepo {
	return &PostgresUserCategoryRepo{db: db}
}

// FindByID は指定IDのユーザーカテゴリを取得する。見つからない場合はnilを返す。
func (r *PostgresUserCategoryRepo) FindByID(ctx context.Context, id int64) (*model.UserCategory, error) {
	uc := &model.UserCategory{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, category_id, weight, created_at, updated_at
		 FROM user_categories WHERE id = $1`,
		id,
	).Scan(&uc.ID, &uc.UserID, &uc.CategoryID, &uc.Weight, &uc.CreatedAt, &uc.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user category: %w", err)
	}

	return uc, nil
}

// ListByUserID はユーザーのカテゴリ一覧をID昇順で返す。
func (r *PostgresUserCategoryRepo) ListByUserID(ctx context.Context, userID int64) ([]*model.UserCategory, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, category_id, weight, created_at, updated_at
		 FROM user_categories WHERE user_id = $1 ORDER BY id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list user categories: %w", err)
	}
	defer rows.Close()

	categories := []*model.UserCategory{}
	for rows.Next() {
		uc := &model.UserCategory{}
		if err := rows.Scan(&uc.ID, &uc.UserID, &uc.CategoryID, &uc.Weight, &uc.CreatedAt, &uc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user category: %w", err)
		}
		categories = append(categories, uc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate user categories: %w", err)
	}

	return categories, nil
}

// Create はユーザーカテゴリを作成し、採番されたIDとタイムスタンプを書き戻す。
func (r *PostgresUserCategoryRepo) Create(ctx context.Context, uc *model.UserCategory) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO user_categories (user_id, category_id, weight)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at, updated_at`,
		uc.UserID, uc.CategoryID, uc.Weight,
	).Scan(&uc.ID, &uc.CreatedAt, &uc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert user category: %w", err)
	}
	return nil
}

// Update はcategory_idとweightを置き換える。idとuser_idは変更しない。
// 所有権スタンプと更新クエリを単一のストレージ呼び出しで適用する
// （WHERE句でidとuser_idの両方を固定し、部分的な書き込みを防ぐ）。
func (r *PostgresUserCategoryRepo) Update(ctx context.Context, uc *model.UserCategory) (*model.UserCategory, error) {
	updated := &model.UserCategory{}
	err := r.db.QueryRowContext(ctx,
		`UPDATE user_categories
		 SET category_id = $1, weight = $2, updated_at = now()
		 WHERE id = $3 AND user_id = $4
		 RETURNING id, user_id, category_id, weight, created_at, updated_at`,
		uc.CategoryID, uc.Weight, uc.ID, uc.UserID,
	).Scan(&updated.ID, &updated.UserID, &updated.CategoryID, &updated.Weight, &updated.CreatedAt, &updated.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update user category: %w", err)
	}

	return updated, nil
}

// Delete は指定IDのユーザーカテゴリを削除する。削除された場合trueを返す。
func (r *PostgresUserCategoryRepo) Delete(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM user_categories WHERE id = $1`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete user category: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// SumWeightByUser はユーザーのカテゴリ重み合計を返す。
// excludeIDが0以外の場合、そのIDの行を合計から除外する。
func (r *PostgresUserCategoryRepo) SumWeightByUser(ctx context.Context, userID, excludeID int64) (float64, error) {
	var sum float64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(weight), 0)
		 FROM user_categories
		 WHERE user_id = $1 AND id <> $2`,
		userID, excludeID,
	).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("failed to sum category weights: %w", err)
	}
	return sum, nil
}

// compile-time interface check
var _ UserCategoryRepository = (*PostgresUserCategoryRepo)(nil)
