package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/lifegpa/internal/model"
)

// PostgresUserHabitRepo はPostgreSQLを使用したユーザー習慣リポジトリ。
type PostgresUserHabitRepo struct {
	db *sql.DB
}

// NewPostgresUserHabitRepo はPostgresUserHabitRepoを生成する。
func NewPostgresUserHabitRepo(db *sql.DB) *PostgresUserHabitRepo {
	return &PostgresUserHabitRepo{db: db}
}

// FindByID は指定IDのユーザー習慣を取得する。見つからない場合はnilを返す。
func (r *PostgresUserHabitRepo) FindByID(ctx context.Context, id int64) (*model.UserHabit, error) {
	uh := &model.UserHabit{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, category_id, name, description, daily_goal_amount, weight, created_at, updated_at
		 FROM user_habits WHERE id = $1`,
		id,
	).Scan(&uh.ID, &uh.UserID, &uh.CategoryID, &uh.Name, &uh.Description, &uh.DailyGoalAmount, &uh.Weight, &uh.CreatedAt, &uh.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user habit: %w", err)
	}

	return uh, nil
}

// ListByUserID はユーザーの習慣一覧をID昇順で返す。
func (r *PostgresUserHabitRepo) ListByUserID(ctx context.Context, userID int64) ([]*model.UserHabit, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, category_id, name, description, daily_goal_amount, weight, created_at, updated_at
		 FROM user_habits WHERE user_id = $1 ORDER BY id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list user habits: %w", err)
	}
	defer rows.Close()

	habits := []*model.UserHabit{}
	for rows.Next() {
		uh := &model.UserHabit{}
		if err := rows.Scan(&uh.ID, &uh.UserID, &uh.CategoryID, &uh.Name, &uh.Description, &uh.DailyGoalAmount, &uh.Weight, &uh.CreatedAt, &uh.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user habit: %w", err)
		}
		habits = append(habits, uh)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate user habits: %w", err)
	}

	return habits, nil
}

// Create はユーザー習慣を作成し、採番されたIDとタイムスタンプを書き戻す。
func (r *PostgresUserHabitRepo) Create(ctx context.Context, uh *model.UserHabit) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO user_habits (user_id, category_id, name, description, daily_goal_amount, weight)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at, updated_at`,
		uh.UserID, uh.CategoryID, uh.Name, uh.Description, uh.DailyGoalAmount, uh.Weight,
	).Scan(&uh.ID, &uh.CreatedAt, &uh.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert user habit: %w", err)
	}
	return nil
}

// Update はid・user_id以外のフィールドを置き換える。
// WHERE句でidとuser_idの両方を固定し、単一クエリで所有権を保証する。
func (r *PostgresUserHabitRepo) Update(ctx context.Context, uh *model.UserHabit) (*model.UserHabit, error) {
	updated := &model.UserHabit{}
	err := r.db.QueryRowContext(ctx,
		`UPDATE user_habits
		 SET category_id = $1, name = $2, description = $3, daily_goal_amount = $4, weight = $5, updated_at = now()
		 WHERE id = $6 AND user_id = $7
		 RETURNING id, user_id, category_id, name, description, daily_goal_amount, weight, created_at, updated_at`,
		uh.CategoryID, uh.Name, uh.Description, uh.DailyGoalAmount, uh.Weight, uh.ID, uh.UserID,
	).Scan(&updated.ID, &updated.UserID, &updated.CategoryID, &updated.Name, &updated.Description, &updated.DailyGoalAmount, &updated.Weight, &updated.CreatedAt, &updated.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update user habit: %w", err)
	}

	return updated, nil
}

// Delete は指定IDのユーザー習慣を削除する。削除された場合trueを返す。
// 配下のhabit_trackingはCASCADE削除される。
func (r *PostgresUserHabitRepo) Delete(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM user_habits WHERE id = $1`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete user habit: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// SumWeightByCategory はユーザーの指定カテゴリ内の習慣重み合計を返す。
// excludeIDが0以外の場合、そのIDの行を合計から除外する。
func (r *PostgresUserHabitRepo) SumWeightByCategory(ctx context.Context, userID, categoryID, excludeID int64) (float64, error) {
	var sum float64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(weight), 0)
		 FROM user_habits
		 WHERE user_id = $1 AND category_id = $2 AND id <> $3`,
		userID, categoryID, excludeID,
	).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("failed to sum habit weights: %w", err)
	}
	return sum, nil
}

// compile-time interface check
var _ UserHabitRepository = (*PostgresUserHabitRepo)(nil)
