// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/lifegpa/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.User, error)

	// FindByUsername はユーザー名でユーザーを検索する。見つからない場合はnilを返す。
	FindByUsername(ctx context.Context, username string) (*model.User, error)

	// Create はユーザーを作成し、採番されたIDとタイムスタンプをuserに書き戻す。
	Create(ctx context.Context, user *model.User) error

	// DeleteByID は指定IDのユーザーを削除する。
	// 関連するsessions、user_categories、user_habits、habit_trackingはCASCADE削除される。
	DeleteByID(ctx context.Context, id int64) error
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID int64) error
}

// UserCategoryRepository はユーザーカテゴリデータの永続化インターフェース。
type UserCategoryRepository interface {
	// FindByID は指定IDのユーザーカテゴリを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.UserCategory, error)

	// ListByUserID はユーザーのカテゴリ一覧をID昇順で返す。
	ListByUserID(ctx context.Context, userID int64) ([]*model.UserCategory, error)

	// Create はユーザーカテゴリを作成し、採番されたIDとタイムスタンプを書き戻す。
	// user_idは呼び出し側のサービス層がセッションから設定済みであること。
	Create(ctx context.Context, uc *model.UserCategory) error

	// Update はcategory_idとweightを置き換える。idとuser_idは変更しない。
	// 更新後の行を返す。対象が存在しない場合はnilを返す。
	Update(ctx context.Context, uc *model.UserCategory) (*model.UserCategory, error)

	// Delete は指定IDのユーザーカテゴリを削除する。削除された場合trueを返す。
	Delete(ctx context.Context, id int64) (bool, error)

	// SumWeightByUser はユーザーのカテゴリ重み合計を返す。
	// excludeIDが0以外の場合、そのIDの行を合計から除外する（更新時の自己除外用）。
	SumWeightByUser(ctx context.Context, userID, excludeID int64) (float64, error)
}

// UserHabitRepository はユーザー習慣データの永続化インターフェース。
type UserHabitRepository interface {
	// FindByID は指定IDのユーザー習慣を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.UserHabit, error)

	// ListByUserID はユーザーの習慣一覧をID昇順で返す。
	ListByUserID(ctx context.Context, userID int64) ([]*model.UserHabit, error)

	// Create はユーザー習慣を作成し、採番されたIDとタイムスタンプを書き戻す。
	Create(ctx context.Context, uh *model.UserHabit) error

	// Update はid・user_id以外のフィールドを置き換える。
	// 更新後の行を返す。対象が存在しない場合はnilを返す。
	Update(ctx context.Context, uh *model.UserHabit) (*model.UserHabit, error)

	// Delete は指定IDのユーザー習慣を削除する。削除された場合trueを返す。
	Delete(ctx context.Context, id int64) (bool, error)

	// SumWeightByCategory はユーザーの指定カテゴリ内の習慣重み合計を返す。
	// excludeIDが0以外の場合、そのIDの行を合計から除外する。
	SumWeightByCategory(ctx context.Context, userID, categoryID, excludeID int64) (float64, error)
}

// HabitTrackingRepository は習慣記録データの永続化インターフェース。
type HabitTrackingRepository interface {
	// FindByID は指定IDの記録エントリを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.HabitTracking, error)

	// ListByUserID はユーザーの全習慣の記録エントリをID昇順で返す。
	ListByUserID(ctx context.Context, userID int64) ([]*model.HabitTracking, error)

	// ListByUserAndWindow はユーザーの記録エントリを期間で絞り込んで返す。
	// スコア集計用。fromを含みtoを含む。
	ListByUserAndWindow(ctx context.Context, userID int64, from, to time.Time) ([]*model.HabitTracking, error)

	// ListTrackedByUserID は記録エントリに習慣情報を結合したビューを返す。
	ListTrackedByUserID(ctx context.Context, userID int64) ([]*model.TrackedHabit, error)

	// Create は記録エントリを作成し、採番されたIDとタイムスタンプを書き戻す。
	// user_habit_idの所有検証は呼び出し側のサービス層が行う。
	Create(ctx context.Context, ht *model.HabitTracking) error

	// Update はuser_habit_id、done_on、quantityを置き換える。idは変更しない。
	// 更新後の行を返す。対象が存在しない場合はnilを返す。
	Update(ctx context.Context, ht *model.HabitTracking) (*model.HabitTracking, error)

	// Delete は指定IDの記録エントリを削除する。削除された場合trueを返す。
	Delete(ctx context.Context, id int64) (bool, error)
}
