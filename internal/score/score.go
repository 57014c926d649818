// Package score は重み付き達成度スコアの計算を提供する。
package score

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/hitoshi/lifegpa/internal/model"
)

// DefaultWindowDays はウィンドウ未指定時の集計日数。直近7日間を対象とする。
const DefaultWindowDays = 7

// HabitScore は習慣単位のスコア内訳。
type HabitScore struct {
	UserHabitID int64   `json:"user_habit_id"`
	Name        string  `json:"name"`
	Weight      float64 `json:"weight"`
	Goal        float64 `json:"goal"`
	Logged      float64 `json:"logged"`
	Attainment  float64 `json:"attainment"`
	Score       float64 `json:"score"`
}

// CategoryScore はカテゴリ単位のスコア内訳。
type CategoryScore struct {
	UserCategoryID int64        `json:"user_category_id"`
	CategoryID     int64        `json:"category_id"`
	Weight         float64      `json:"weight"`
	Score          float64      `json:"score"`
	Habits         []HabitScore `json:"habits"`
}

// Progress はユーザー全体のスコア計算結果。
type Progress struct {
	From       time.Time       `json:"from"`
	To         time.Time       `json:"to"`
	WindowDays int             `json:"window_days"`
	Overall    float64         `json:"overall"`
	Categories []CategoryScore `json:"categories"`
}

// Compute はカテゴリ・習慣・記録エントリからスコアを計算する純関数。
//
// 習慣ごとの目標値はdaily_goal_amountの先頭数値から取り、取れなければ1とする。
// 達成率 = min(1, ウィンドウ内のquantity合計 / (目標値 × ウィンドウ日数))。
// 習慣スコア = 習慣weight × 達成率。
// カテゴリスコア = カテゴリweight × 習慣スコア合計。
// 全体スコア = カテゴリスコア合計。正規化は行わない。
func Compute(
	categories []*model.UserCategory,
	habits []*model.UserHabit,
	entries []*model.HabitTracking,
	from, to time.Time,
) *Progress {
	days := windowDays(from, to)

	// 習慣ごとのquantity合計。
	logged := make(map[int64]float64, len(habits))
	for _, e := range entries {
		logged[e.UserHabitID] += e.Quantity
	}

	// カテゴリIDごとの習慣グループ。
	byCategory := make(map[int64][]*model.UserHabit, len(categories))
	for _, h := range habits {
		byCategory[h.CategoryID] = append(byCategory[h.CategoryID], h)
	}

	progress := &Progress{
		From:       from,
		To:         to,
		WindowDays: days,
		Categories: make([]CategoryScore, 0, len(categories)),
	}

	for _, c := range categories {
		cs := CategoryScore{
			UserCategoryID: c.ID,
			CategoryID:     c.CategoryID,
			Weight:         c.Weight,
			Habits:         make([]HabitScore, 0, len(byCategory[c.CategoryID])),
		}

		var habitSum float64
		for _, h := range byCategory[c.CategoryID] {
			goal := ParseGoal(h.DailyGoalAmount)
			total := logged[h.ID]
			attainment := attainment(total, goal, days)
			hs := HabitScore{
				UserHabitID: h.ID,
				Name:        h.Name,
				Weight:      h.Weight,
				Goal:        goal,
				Logged:      total,
				Attainment:  attainment,
				Score:       h.Weight * attainment,
			}
			habitSum += hs.Score
			cs.Habits = append(cs.Habits, hs)
		}

		cs.Score = c.Weight * habitSum
		progress.Overall += cs.Score
		progress.Categories = append(progress.Categories, cs)
	}

	return progress
}

// ParseGoal はdaily_goal_amountの先頭数値を目標値として解釈する。
// "30 minutes"は30、"2.5 liters"は2.5。数値が取れない場合は1を返す。
func ParseGoal(s string) float64 {
	s = strings.TrimSpace(s)
	end := 0
	seenDot := false
	for end < len(s) {
		ch := s[end]
		if ch >= '0' && ch <= '9' {
			end++
			continue
		}
		if ch == '.' && !seenDot {
			seenDot = true
			end++
			continue
		}
		break
	}
	if end == 0 {
		return 1
	}
	v, err := strconv.ParseFloat(s[:end], 64)
	if err != nil || v <= 0 {
		return 1
	}
	return v
}

// attainment は達成率を計算する。上限は1。
func attainment(total, goal float64, days int) float64 {
	target := goal * float64(days)
	if target <= 0 {
		return 0
	}
	return math.Min(1, total/target)
}

// windowDays はウィンドウの日数を返す。最低1日。
func windowDays(from, to time.Time) int {
	d := int(math.Ceil(to.Sub(from).Hours() / 24))
	if d < 1 {
		return 1
	}
	return d
}
