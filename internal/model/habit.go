// Package model はドメインモデルを定義する。
package model

import "time"

// UserCategory はトップレベルカテゴリがユーザーの総合スコアに占める割合を表す。
// UserIDは書き込み時に必ずセッションから導出され、クライアント入力からは設定されない。
// Weightは合計1を強制しない助言的な値（集計側は非正規化の重みをそのまま計算する）。
type UserCategory struct {
	ID         int64
	UserID     int64
	CategoryID int64
	Weight     float64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// UserHabit はカテゴリ内の個別の習慣を表す。
// DailyGoalAmountは"100 g"や"once per day"のような自由記述テキスト。
// Weightはカテゴリ内での習慣の割合を表す。
type UserHabit struct {
	ID              int64
	UserID          int64
	CategoryID      int64
	Name            string
	Description     *string
	DailyGoalAmount string
	Weight          float64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// HabitTracking は習慣の1回分の記録を表す。
// UserHabitIDは記録を行うユーザー自身のUserHabitに解決されなければならない。
type HabitTracking struct {
	ID          int64
	UserHabitID int64
	DoneOn      time.Time
	Quantity    float64
	CreatedAt   time.Time
}

// TrackedHabit は記録エントリに習慣情報を結合した読み取り専用ビュー。
// GET /api/users/{id}/tracked_habits で使用する。
type TrackedHabit struct {
	ID              int64
	UserHabitID     int64
	Name            string
	Description     *string
	DailyGoalAmount string
	DoneOn          time.Time
	Quantity        float64
}
