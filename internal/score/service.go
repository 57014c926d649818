package score

import (
	"context"
	"fmt"
	"time"

	"github.com/hitoshi/lifegpa/internal/model"
	"github.com/hitoshi/lifegpa/internal/repository"
)

// Recorder はスコア計算回数を記録する。
type Recorder interface {
	RecordScoreComputation()
}

// Service はリポジトリからユーザーのデータを集めてスコアを計算する。
type Service struct {
	categoryRepo repository.UserCategoryRepository
	habitRepo    repository.UserHabitRepository
	trackingRepo repository.HabitTrackingRepository
	recorder     Recorder
}

// NewService はServiceを生成する。recorderはnil可。
func NewService(
	categoryRepo repository.UserCategoryRepository,
	habitRepo repository.UserHabitRepository,
	trackingRepo repository.HabitTrackingRepository,
	recorder Recorder,
) *Service {
	return &Service{
		categoryRepo: categoryRepo,
		habitRepo:    habitRepo,
		trackingRepo: trackingRepo,
		recorder:     recorder,
	}
}

// ProgressForUser は指定ウィンドウのスコアを計算して返す。
// 片方のみ指定された場合もウィンドウが成立するよう、toのゼロ値は現在時刻、
// fromのゼロ値はtoのDefaultWindowDays日前に補完する。
// 補完後にtoがfromより前となるウィンドウはエラーとする。
func (s *Service) ProgressForUser(ctx context.Context, userID int64, from, to time.Time) (*Progress, error) {
	if to.IsZero() {
		to = time.Now().UTC()
	}
	if from.IsZero() {
		from = to.AddDate(0, 0, -DefaultWindowDays)
	}
	if to.Before(from) {
		return nil, model.NewInvalidWindowError()
	}

	categories, err := s.categoryRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories for score: %w", err)
	}

	habits, err := s.habitRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list habits for score: %w", err)
	}

	entries, err := s.trackingRepo.ListByUserAndWindow(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracking entries for score: %w", err)
	}

	progress := Compute(categories, habits, entries, from, to)

	if s.recorder != nil {
		s.recorder.RecordScoreComputation()
	}

	return progress, nil
}
