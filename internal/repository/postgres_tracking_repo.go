package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/lifegpa/internal/model"
)

// PostgresHabitTrackingRepo はPostgreSQLを使用した習慣記録リポジトリ。
type PostgresHabitTrackingRepo struct {
	db *sql.DB
}

// NewPostgresHabitTrackingRepo はPostgresHabitTrackingRepoを生成する。
func NewPostgresHabitTrackingRepo(db *sql.DB) *PostgresHabitTrackingRepo {
	return &PostgresHabitTrackingRepo{db: db}
}

// FindByID は指定IDの記録エントリを取得する。見つからない場合はnilを返す。
func (r *PostgresHabitTrackingRepo) FindByID(ctx context.Context, id int64) (*model.HabitTracking, error) {
	ht := &model.HabitTracking{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_habit_id, done_on, quantity, created_at
		 FROM habit_tracking WHERE id = $1`,
		id,
	).Scan(&ht.ID, &ht.UserHabitID, &ht.DoneOn, &ht.Quantity, &ht.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find habit tracking entry: %w", err)
	}

	return ht, nil
}

// ListByUserID はユーザーの全習慣の記録エントリをID昇順で返す。
// 所有権はuser_habitsとの結合で保証する。
func (r *PostgresHabitTrackingRepo) ListByUserID(ctx context.Context, userID int64) ([]*model.HabitTracking, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT ht.id, ht.user_habit_id, ht.done_on, ht.quantity, ht.created_at
		 FROM habit_tracking ht
		 JOIN user_habits uh ON uh.id = ht.user_habit_id
		 WHERE uh.user_id = $1
		 ORDER BY ht.id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list habit tracking entries: %w", err)
	}
	defer rows.Close()

	return scanTrackingRows(rows)
}

// ListByUserAndWindow はユーザーの記録エントリを期間で絞り込んで返す。
func (r *PostgresHabitTrackingRepo) ListByUserAndWindow(ctx context.Context, userID int64, from, to time.Time) ([]*model.HabitTracking, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT ht.id, ht.user_habit_id, ht.done_on, ht.quantity, ht.created_at
		 FROM habit_tracking ht
		 JOIN user_habits uh ON uh.id = ht.user_habit_id
		 WHERE uh.user_id = $1 AND ht.done_on >= $2 AND ht.done_on <= $3
		 ORDER BY ht.id`,
		userID, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list habit tracking entries in window: %w", err)
	}
	defer rows.Close()

	return scanTrackingRows(rows)
}

// ListTrackedByUserID は記録エントリに習慣情報を結合したビューを返す。
func (r *PostgresHabitTrackingRepo) ListTrackedByUserID(ctx context.Context, userID int64) ([]*model.TrackedHabit, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT ht.id, ht.user_habit_id, uh.name, uh.description, uh.daily_goal_amount, ht.done_on, ht.quantity
		 FROM habit_tracking ht
		 JOIN user_habits uh ON uh.id = ht.user_habit_id
		 WHERE uh.user_id = $1
		 ORDER BY ht.id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracked habits: %w", err)
	}
	defer rows.Close()

	tracked := []*model.TrackedHabit{}
	for rows.Next() {
		th := &model.TrackedHabit{}
		if err := rows.Scan(&th.ID, &th.UserHabitID, &th.Name, &th.Description, &th.DailyGoalAmount, &th.DoneOn, &th.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan tracked habit: %w", err)
		}
		tracked = append(tracked, th)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tracked habits: %w", err)
	}

	return tracked, nil
}

// Create は記録エントリを作成し、採番されたIDとタイムスタンプを書き戻す。
func (r *PostgresHabitTrackingRepo) Create(ctx context.Context, ht *model.HabitTracking) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO habit_tracking (user_habit_id, done_on, quantity)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		ht.UserHabitID, ht.DoneOn, ht.Quantity,
	).Scan(&ht.ID, &ht.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert habit tracking entry: %w", err)
	}
	return nil
}

// Update はuser_habit_id、done_on、quantityを置き換える。idは変更しない。
func (r *PostgresHabitTrackingRepo) Update(ctx context.Context, ht *model.HabitTracking) (*model.HabitTracking, error) {
	updated := &model.HabitTracking{}
	err := r.db.QueryRowContext(ctx,
		`UPDATE habit_tracking
		 SET user_habit_id = $1, done_on = $2, quantity = $3
		 WHERE id = $4
		 RETURNING id, user_habit_id, done_on, quantity, created_at`,
		ht.UserHabitID, ht.DoneOn, ht.Quantity, ht.ID,
	).Scan(&updated.ID, &updated.UserHabitID, &updated.DoneOn, &updated.Quantity, &updated.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update habit tracking entry: %w", err)
	}

	return updated, nil
}

// Delete は指定IDの記録エントリを削除する。削除された場合trueを返す。
func (r *PostgresHabitTrackingRepo) Delete(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM habit_tracking WHERE id = $1`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete habit tracking entry: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// scanTrackingRows は記録エントリの行スキャンを共通化する。
func scanTrackingRows(rows *sql.Rows) ([]*model.HabitTracking, error) {
	entries := []*model.HabitTracking{}
	for rows.Next() {
		ht := &model.HabitTracking{}
		if err := rows.Scan(&ht.ID, &ht.UserHabitID, &ht.DoneOn, &ht.Quantity, &ht.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan habit tracking entry: %w", err)
		}
		entries = append(entries, ht)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate habit tracking entries: %w", err)
	}
	return entries, nil
}

// compile-time interface check
var _ HabitTrackingRepository = (*PostgresHabitTrackingRepo)(nil)
