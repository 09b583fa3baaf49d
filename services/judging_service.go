package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/codeclash/competition-system/models"
	"github.com/codeclash/competition-system/repositories"
	"github.com/codeclash/competition-system/scoring"
	"golang.org/x/sync/errgroup"
)

// finalizeConcurrency bounds the per-submission score fan-out when freezing
// a ranking.
const finalizeConcurrency = 4

type DefineCriterionInput struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Weight      int     `json:"weight"`
	MaxScore    int     `json:"max_score"`
}

type SubmitScoreInput struct {
	CriterionID int     `json:"criterion_id"`
	Score       int     `json:"score"`
	Comment     *string `json:"comment"`
}

type JudgingService interface {
	DefineCriterion(ctx context.Context, competitionID int, input DefineCriterionInput) (*models.JudgingCriterion, error)
	DeleteCriterion(ctx context.Context, criterionID int) error
	ListCriteria(ctx context.Context, competitionID int) ([]*models.JudgingCriterion, error)
	SubmitScore(ctx context.Context, submissionID, judgeUserID int, input SubmitScoreInput) (*models.JudgingScore, error)
	ListScoresBySubmission(ctx context.Context, submissionID int) ([]*models.JudgingScore, error)
	ComputeAggregate(ctx context.Context, submissionID int) (float64, error)
	Rank(ctx context.Context, competitionID int) ([]*models.RankingEntry, error)
	FinalizeRankings(ctx context.Context, exec repositories.SQLExecutor, competitionID int) error
}

type judgingService struct {
	txManager TxManager
	compRepo  repositories.CompetitionRepository
	subRepo   repositories.SubmissionRepository
	critRepo  repositories.CriterionRepository
	scoreRepo repositories.ScoreRepository
	rankRepo  repositories.RankingRepository
	logger    *slog.Logger
}

func NewJudgingService(
	txManager TxManager,
	compRepo repositories.CompetitionRepository,
	subRepo repositories.SubmissionRepository,
	critRepo repositories.CriterionRepository,
	scoreRepo repositories.ScoreRepository,
	rankRepo repositories.RankingRepository,
	logger *slog.Logger,
) JudgingService {
	return &judgingService{
		txManager: txManager,
		compRepo:  compRepo,
		subRepo:   subRepo,
		critRepo:  critRepo,
		scoreRepo: scoreRepo,
		rankRepo:  rankRepo,
		logger:    logger,
	}
}

// DefineCriterion adds a weighted judging dimension. Criteria must exist
// before judging opens; once any score references a criterion it is
// immutable so the aggregate keeps its meaning.
func (s *judgingService) DefineCriterion(ctx context.Context, competitionID int, input DefineCriterionInput) (*models.JudgingCriterion, error) {
	competition, err := s.compRepo.GetByID(ctx, competitionID)
	if err != nil {
		return nil, mapCompetitionRepoError(err)
	}
	if competition.Status == models.StatusJudging || competition.Status == models.StatusCompleted {
		return nil, ErrCriteriaDefinitionClosed
	}
	if input.Name == "" {
		return nil, ErrCriterionNameRequired
	}
	if input.Weight < 1 {
		return nil, ErrCriterionInvalidWeight
	}
	if input.MaxScore < 1 {
		return nil, ErrCriterionInvalidMaxScore
	}

	criterion := &models.JudgingCriterion{
		CompetitionID: competitionID,
		Name:          input.Name,
		Description:   input.Description,
		Weight:        input.Weight,
		MaxScore:      input.MaxScore,
	}
	if err := s.critRepo.Create(ctx, criterion); err != nil {
		return nil, fmt.Errorf("create criterion: %w", err)
	}
	return criterion, nil
}

func (s *judgingService) DeleteCriterion(ctx context.Context, criterionID int) error {
	criterion, err := s.critRepo.GetByID(ctx, criterionID)
	if err != nil {
		return mapCriterionRepoError(err)
	}

	count, err := s.scoreRepo.CountByCriterion(ctx, criterion.ID)
	if err != nil {
		return fmt.Errorf("count scores for criterion: %w", err)
	}
	if count > 0 {
		return ErrCriterionInUse
	}

	competition, err := s.compRepo.GetByID(ctx, criterion.CompetitionID)
	if err != nil {
		return mapCompetitionRepoError(err)
	}
	if competition.Status == models.StatusJudging || competition.Status == models.StatusCompleted {
		return ErrCriteriaDefinitionClosed
	}

	if err := s.critRepo.Delete(ctx, criterionID); err != nil {
		return mapCriterionRepoError(err)
	}
	return nil
}

func (s *judgingService) ListCriteria(ctx context.Context, competitionID int) ([]*models.JudgingCriterion, error) {
	if _, err := s.compRepo.GetByID(ctx, competitionID); err != nil {
		return nil, mapCompetitionRepoError(err)
	}
	return s.critRepo.ListByCompetition(ctx, competitionID)
}

// SubmitScore records one judge's score for one criterion of one submission.
// A repeated call for the same (submission, judge, criterion) replaces the
// prior score; it never double-counts. The phase check and the write happen
// in one transaction holding a shared lock on the competition row, so a
// concurrent completed transition (which locks the row exclusively while
// freezing the ranking) either sees this score or rejects it, never both.
func (s *judgingService) SubmitScore(ctx context.Context, submissionID, judgeUserID int, input SubmitScoreInput) (*models.JudgingScore, error) {
	sub, err := s.subRepo.GetByID(ctx, submissionID)
	if err != nil {
		return nil, mapSubmissionRepoError(err)
	}

	criterion, err := s.critRepo.GetByID(ctx, input.CriterionID)
	if err != nil {
		return nil, mapCriterionRepoError(err)
	}
	if criterion.CompetitionID != sub.CompetitionID {
		return nil, ErrCriterionNotFound
	}
	if input.Score < 0 || input.Score > criterion.MaxScore {
		return nil, fmt.Errorf("%w: got %d, allowed 0..%d", ErrScoreOutOfRange, input.Score, criterion.MaxScore)
	}

	score := &models.JudgingScore{
		SubmissionID: submissionID,
		JudgeUserID:  judgeUserID,
		CriterionID:  input.CriterionID,
		Score:        input.Score,
		Comment:      input.Comment,
	}
	err = s.txManager.InTx(ctx, func(ctx context.Context, exec repositories.SQLExecutor) error {
		competition, err := s.compRepo.GetByIDForShare(ctx, exec, sub.CompetitionID)
		if err != nil {
			return mapCompetitionRepoError(err)
		}
		if competition.Status != models.StatusJudging {
			return ErrNotJudgingPhase
		}
		if err := s.scoreRepo.Upsert(ctx, exec, score); err != nil {
			return fmt.Errorf("upsert score: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return score, nil
}

func (s *judgingService) ListScoresBySubmission(ctx context.Context, submissionID int) ([]*models.JudgingScore, error) {
	if _, err := s.subRepo.GetByID(ctx, submissionID); err != nil {
		return nil, mapSubmissionRepoError(err)
	}
	return s.scoreRepo.ListBySubmission(ctx, submissionID)
}

// ComputeAggregate is a pure function of the stored criteria and scores:
// repeated calls with unchanged inputs yield the same value.
func (s *judgingService) ComputeAggregate(ctx context.Context, submissionID int) (float64, error) {
	sub, err := s.subRepo.GetByID(ctx, submissionID)
	if err != nil {
		return 0, mapSubmissionRepoError(err)
	}
	criteria, err := s.critRepo.ListByCompetition(ctx, sub.CompetitionID)
	if err != nil {
		return 0, fmt.Errorf("list criteria: %w", err)
	}
	scores, err := s.scoreRepo.ListBySubmission(ctx, submissionID)
	if err != nil {
		return 0, fmt.Errorf("list scores: %w", err)
	}
	return scoring.Aggregate(toScoringCriteria(criteria), toScoringScores(scores)), nil
}

// Rank returns the competition standing. Once frozen snapshot rows exist
// (written by the completed transition) those are served; before that the
// ranking is computed live and may shift while judges are still scoring.
func (s *judgingService) Rank(ctx context.Context, competitionID int) ([]*models.RankingEntry, error) {
	competition, err := s.compRepo.GetByID(ctx, competitionID)
	if err != nil {
		return nil, mapCompetitionRepoError(err)
	}
	if competition.Status == models.StatusCompleted {
		frozen, err := s.rankRepo.Exists(ctx, competitionID)
		if err != nil {
			return nil, fmt.Errorf("check frozen ranking: %w", err)
		}
		if frozen {
			return s.rankRepo.ListByCompetition(ctx, competitionID)
		}
	}
	return s.computeRanking(ctx, competitionID)
}

func (s *judgingService) computeRanking(ctx context.Context, competitionID int) ([]*models.RankingEntry, error) {
	submissions, err := s.subRepo.ListByCompetition(ctx, competitionID)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	criteria, err := s.critRepo.ListByCompetition(ctx, competitionID)
	if err != nil {
		return nil, fmt.Errorf("list criteria: %w", err)
	}

	scoringCriteria := toScoringCriteria(criteria)
	bySubmission := make(map[int]*models.Submission, len(submissions))

	// Each goroutine writes its own slice slot; no shared state beyond that.
	entries := make([]scoring.Entry, len(submissions))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(finalizeConcurrency)
	for i, sub := range submissions {
		i, sub := i, sub
		bySubmission[sub.ID] = sub
		g.Go(func() error {
			scores, err := s.scoreRepo.ListBySubmission(gCtx, sub.ID)
			if err != nil {
				return fmt.Errorf("list scores for submission %d: %w", sub.ID, err)
			}
			entries[i] = scoring.Entry{
				SubmissionID: sub.ID,
				SubmittedAt:  sub.SubmittedAt,
				Score:        scoring.Aggregate(scoringCriteria, toScoringScores(scores)),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ranked := scoring.Rank(entries)
	result := make([]*models.RankingEntry, len(ranked))
	for i, r := range ranked {
		result[i] = &models.RankingEntry{
			CompetitionID:  competitionID,
			SubmissionID:   r.SubmissionID,
			Rank:           r.Rank,
			AggregateScore: r.Score,
			Submission:     bySubmission[r.SubmissionID],
		}
	}
	return result, nil
}

// FinalizeRankings computes the ranking and writes it to final_rankings
// inside the caller's transaction (the completed transition). Any earlier
// snapshot rows for the competition are replaced.
func (s *judgingService) FinalizeRankings(ctx context.Context, exec repositories.SQLExecutor, competitionID int) error {
	entries, err := s.computeRanking(ctx, competitionID)
	if err != nil {
		return err
	}
	// Deterministic write order keeps the unique (competition, rank) pair
	// honest even if an aborted freeze left rows behind.
	sort.Slice(entries, func(i, j int) bool { return entries[i].Rank < entries[j].Rank })

	if err := s.rankRepo.DeleteByCompetition(ctx, exec, competitionID); err != nil {
		return err
	}
	if err := s.rankRepo.BatchCreate(ctx, exec, entries); err != nil {
		return err
	}

	s.logger.Info("ranking frozen",
		slog.Int("competition_id", competitionID),
		slog.Int("entries", len(entries)))
	return nil
}

func toScoringCriteria(criteria []*models.JudgingCriterion) []scoring.Criterion {
	out := make([]scoring.Criterion, len(criteria))
	for i, c := range criteria {
		out[i] = scoring.Criterion{ID: c.ID, Weight: c.Weight, MaxScore: c.MaxScore}
	}
	return out
}

func toScoringScores(scores []*models.JudgingScore) []scoring.Score {
	out := make([]scoring.Score, len(scores))
	for i, s := range scores {
		out[i] = scoring.Score{CriterionID: s.CriterionID, JudgeUserID: s.JudgeUserID, Value: s.Score}
	}
	return out
}

func mapCriterionRepoError(err error) error {
	if errors.Is(err, repositories.ErrCriterionNotFound) {
		return ErrCriterionNotFound
	}
	return err
}
