package services

import (
	"context"
	"errors"
	"time"

	"github.com/codeclash/competition-system/models"
	"github.com/codeclash/competition-system/repositories"
)

// TxManager abstracts transactional execution so services stay testable.
// The production implementation lives in the db package.
type TxManager interface {
	InTx(ctx context.Context, fn func(ctx context.Context, exec repositories.SQLExecutor) error) error
}

// Clock lets tests pin "now" for deadline and cutoff checks.
type Clock func() time.Time

func isValidStatusTransition(current, next models.CompetitionStatus) bool {
	// Strict forward chain; no regressions, no skips.
	allowedNext := map[models.CompetitionStatus]models.CompetitionStatus{
		models.StatusDraft:      models.StatusOpen,
		models.StatusOpen:       models.StatusInProgress,
		models.StatusInProgress: models.StatusJudging,
		models.StatusJudging:    models.StatusCompleted,
	}
	target, ok := allowedNext[current]
	return ok && target == next
}

func isValidCompetitionStatus(status models.CompetitionStatus) bool {
	switch status {
	case models.StatusDraft, models.StatusOpen, models.StatusInProgress, models.StatusJudging, models.StatusCompleted:
		return true
	}
	return false
}

func validateCompetitionDates(start, end time.Time, deadline *time.Time) error {
	if start.IsZero() || end.IsZero() {
		return ErrCompetitionInvalidDateRange
	}
	if end.Before(start) {
		return ErrCompetitionInvalidDateRange
	}
	if deadline != nil && deadline.After(start) {
		return ErrCompetitionInvalidDeadline
	}
	return nil
}

func mapCompetitionRepoError(err error) error {
	if errors.Is(err, repositories.ErrCompetitionNotFound) {
		return ErrCompetitionNotFound
	}
	return err
}
