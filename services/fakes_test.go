package services

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/codeclash/competition-system/models"
	"github.com/codeclash/competition-system/repositories"
	"github.com/codeclash/competition-system/storage"
)

// fakeTxManager serializes transactions with a mutex, which mirrors how
// the competition/team row locks serialize the real transactions.
type fakeTxManager struct {
	mu sync.Mutex
}

func (f *fakeTxManager) InTx(ctx context.Context, fn func(ctx context.Context, exec repositories.SQLExecutor) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return fn(ctx, nil)
}

type fakeCompetitionRepo struct {
	mu     sync.Mutex
	byID   map[int]*models.Competition
	nextID int
}

func newFakeCompetitionRepo() *fakeCompetitionRepo {
	return &fakeCompetitionRepo{byID: make(map[int]*models.Competition), nextID: 1}
}

func copyCompetition(c *models.Competition) *models.Competition {
	out := *c
	return &out
}

func (f *fakeCompetitionRepo) Create(ctx context.Context, c *models.Competition) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.ID = f.nextID
	f.nextID++
	c.CreatedAt = time.Now()
	f.byID[c.ID] = copyCompetition(c)
	return nil
}

func (f *fakeCompetitionRepo) GetByID(ctx context.Context, id int) (*models.Competition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byID[id]
	if !ok {
		return nil, repositories.ErrCompetitionNotFound
	}
	return copyCompetition(c), nil
}

func (f *fakeCompetitionRepo) GetByIDForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Competition, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeCompetitionRepo) GetByIDForShare(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Competition, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeCompetitionRepo) List(ctx context.Context, filter repositories.CompetitionFilter) ([]*models.Competition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Competition
	for _, c := range f.byID {
		if filter.Status != nil && c.Status != *filter.Status {
			continue
		}
		if filter.Visibility != nil && c.Visibility != *filter.Visibility {
			continue
		}
		if filter.HostUserID != nil && c.HostUserID != *filter.HostUserID {
			continue
		}
		if filter.StartedBefore != nil && !c.StartDate.Before(*filter.StartedBefore) {
			continue
		}
		if filter.EndedBefore != nil && !c.EndDate.Before(*filter.EndedBefore) {
			continue
		}
		out = append(out, copyCompetition(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeCompetitionRepo) Update(ctx context.Context, c *models.Competition) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[c.ID]; !ok {
		return repositories.ErrCompetitionNotFound
	}
	f.byID[c.ID] = copyCompetition(c)
	return nil
}

func (f *fakeCompetitionRepo) UpdateStatus(ctx context.Context, exec repositories.SQLExecutor, id int, status models.CompetitionStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byID[id]
	if !ok {
		return repositories.ErrCompetitionNotFound
	}
	c.Status = status
	return nil
}

func (f *fakeCompetitionRepo) UpdateBannerKey(ctx context.Context, id int, key *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byID[id]
	if !ok {
		return repositories.ErrCompetitionNotFound
	}
	c.BannerKey = key
	return nil
}

func (f *fakeCompetitionRepo) Delete(ctx context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return repositories.ErrCompetitionNotFound
	}
	delete(f.byID, id)
	return nil
}

type fakeRegistrationRepo struct {
	mu     sync.Mutex
	rows   map[int]*models.Registration
	nextID int
}

func newFakeRegistrationRepo() *fakeRegistrationRepo {
	return &fakeRegistrationRepo{rows: make(map[int]*models.Registration), nextID: 1}
}

func (f *fakeRegistrationRepo) Create(ctx context.Context, exec repositories.SQLExecutor, reg *models.Registration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.CompetitionID == reg.CompetitionID && r.UserID == reg.UserID && r.Status == models.RegistrationStatusRegistered {
			return repositories.ErrRegistrationConflict
		}
	}
	reg.ID = f.nextID
	f.nextID++
	reg.CreatedAt = time.Now()
	stored := *reg
	f.rows[reg.ID] = &stored
	return nil
}

func (f *fakeRegistrationRepo) FindActive(ctx context.Context, exec repositories.SQLExecutor, competitionID, userID int) (*models.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.CompetitionID == competitionID && r.UserID == userID && r.Status == models.RegistrationStatusRegistered {
			out := *r
			return &out, nil
		}
	}
	return nil, repositories.ErrRegistrationNotFound
}

func (f *fakeRegistrationRepo) CountActive(ctx context.Context, exec repositories.SQLExecutor, competitionID int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, r := range f.rows {
		if r.CompetitionID == competitionID && r.Status == models.RegistrationStatusRegistered {
			count++
		}
	}
	return count, nil
}

func (f *fakeRegistrationRepo) UpdateStatus(ctx context.Context, exec repositories.SQLExecutor, id int, status models.RegistrationStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[id]
	if !ok {
		return repositories.ErrRegistrationNotFound
	}
	r.Status = status
	return nil
}

func (f *fakeRegistrationRepo) ListByCompetition(ctx context.Context, competitionID int, statusFilter *models.RegistrationStatus) ([]*models.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Registration
	for _, r := range f.rows {
		if r.CompetitionID != competitionID {
			continue
		}
		if statusFilter != nil && r.Status != *statusFilter {
			continue
		}
		row := *r
		out = append(out, &row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeTeamRepo struct {
	mu     sync.Mutex
	byID   map[int]*models.Team
	nextID int
}

func newFakeTeamRepo() *fakeTeamRepo {
	return &fakeTeamRepo{byID: make(map[int]*models.Team), nextID: 1}
}

func (f *fakeTeamRepo) Create(ctx context.Context, exec repositories.SQLExecutor, team *models.Team) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.byID {
		if t.CompetitionID == team.CompetitionID && t.Name == team.Name {
			return repositories.ErrTeamNameConflict
		}
	}
	team.ID = f.nextID
	f.nextID++
	team.CreatedAt = time.Now()
	stored := *team
	f.byID[team.ID] = &stored
	return nil
}

func (f *fakeTeamRepo) GetByID(ctx context.Context, id int) (*models.Team, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.byID[id]
	if !ok {
		return nil, repositories.ErrTeamNotFound
	}
	out := *t
	return &out, nil
}

func (f *fakeTeamRepo) GetByIDForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Team, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeTeamRepo) ListByCompetition(ctx context.Context, competitionID int) ([]*models.Team, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Team
	for _, t := range f.byID {
		if t.CompetitionID == competitionID {
			row := *t
			out = append(out, &row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeTeamRepo) UpdateCaptain(ctx context.Context, exec repositories.SQLExecutor, teamID, captainUserID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.byID[teamID]
	if !ok {
		return repositories.ErrTeamNotFound
	}
	t.CaptainUserID = captainUserID
	return nil
}

func (f *fakeTeamRepo) UpdateLogoKey(ctx context.Context, id int, key *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.byID[id]
	if !ok {
		return repositories.ErrTeamNotFound
	}
	t.LogoKey = key
	return nil
}

func (f *fakeTeamRepo) HasCaptaincy(ctx context.Context, exec repositories.SQLExecutor, competitionID, userID int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.byID {
		if t.CompetitionID == competitionID && t.CaptainUserID == userID {
			return true, nil
		}
	}
	return false, nil
}

type fakeTeamMemberRepo struct {
	mu       sync.Mutex
	rows     map[int]*models.TeamMember
	nextID   int
	teamRepo *fakeTeamRepo
}

func newFakeTeamMemberRepo(teams *fakeTeamRepo) *fakeTeamMemberRepo {
	return &fakeTeamMemberRepo{rows: make(map[int]*models.TeamMember), nextID: 1, teamRepo: teams}
}

func (f *fakeTeamMemberRepo) Create(ctx context.Context, exec repositories.SQLExecutor, member *models.TeamMember) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.rows {
		if m.TeamID == member.TeamID && m.UserID == member.UserID {
			return repositories.ErrTeamMemberConflict
		}
	}
	member.ID = f.nextID
	f.nextID++
	member.CreatedAt = time.Now()
	stored := *member
	f.rows[member.ID] = &stored
	return nil
}

func (f *fakeTeamMemberRepo) Exists(ctx context.Context, exec repositories.SQLExecutor, teamID, userID int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.rows {
		if m.TeamID == teamID && m.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeTeamMemberRepo) Delete(ctx context.Context, exec repositories.SQLExecutor, teamID, userID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, m := range f.rows {
		if m.TeamID == teamID && m.UserID == userID {
			delete(f.rows, id)
			return nil
		}
	}
	return repositories.ErrTeamMemberNotFound
}

func (f *fakeTeamMemberRepo) ListByTeam(ctx context.Context, teamID int) ([]*models.TeamMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.TeamMember
	for _, m := range f.rows {
		if m.TeamID == teamID {
			row := *m
			out = append(out, &row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeTeamMemberRepo) DeleteByCompetitionAndUser(ctx context.Context, exec repositories.SQLExecutor, competitionID, userID int) error {
	teams, err := f.teamRepo.ListByCompetition(ctx, competitionID)
	if err != nil {
		return err
	}
	inCompetition := make(map[int]bool, len(teams))
	for _, t := range teams {
		inCompetition[t.ID] = true
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for id, m := range f.rows {
		if m.UserID == userID && inCompetition[m.TeamID] {
			delete(f.rows, id)
		}
	}
	return nil
}

type fakeInviteRepo struct {
	mu     sync.Mutex
	byID   map[int]*models.TeamInvite
	nextID int
}

func newFakeInviteRepo() *fakeInviteRepo {
	return &fakeInviteRepo{byID: make(map[int]*models.TeamInvite), nextID: 1}
}

func (f *fakeInviteRepo) Create(ctx context.Context, invite *models.TeamInvite) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	invite.ID = f.nextID
	f.nextID++
	invite.CreatedAt = time.Now()
	stored := *invite
	f.byID[invite.ID] = &stored
	return nil
}

func (f *fakeInviteRepo) GetByID(ctx context.Context, id int) (*models.TeamInvite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.byID[id]
	if !ok {
		return nil, repositories.ErrInviteNotFound
	}
	out := *inv
	return &out, nil
}

func (f *fakeInviteRepo) GetByToken(ctx context.Context, token string) (*models.TeamInvite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, inv := range f.byID {
		if inv.Token == token {
			out := *inv
			return &out, nil
		}
	}
	return nil, repositories.ErrInviteNotFound
}

func (f *fakeInviteRepo) ListByTeam(ctx context.Context, teamID int) ([]*models.TeamInvite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.TeamInvite
	for _, inv := range f.byID {
		if inv.TeamID == teamID {
			row := *inv
			out = append(out, &row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeInviteRepo) Delete(ctx context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return repositories.ErrInviteNotFound
	}
	delete(f.byID, id)
	return nil
}

type fakeSubmissionRepo struct {
	mu     sync.Mutex
	byID   map[int]*models.Submission
	nextID int
}

func newFakeSubmissionRepo() *fakeSubmissionRepo {
	return &fakeSubmissionRepo{byID: make(map[int]*models.Submission), nextID: 1}
}

func (f *fakeSubmissionRepo) Create(ctx context.Context, sub *models.Submission) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub.ID = f.nextID
	f.nextID++
	if sub.SubmittedAt.IsZero() {
		sub.SubmittedAt = time.Now()
	}
	sub.UpdatedAt = sub.SubmittedAt
	stored := *sub
	f.byID[sub.ID] = &stored
	return nil
}

func (f *fakeSubmissionRepo) GetByID(ctx context.Context, id int) (*models.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub, ok := f.byID[id]
	if !ok {
		return nil, repositories.ErrSubmissionNotFound
	}
	out := *sub
	return &out, nil
}

func (f *fakeSubmissionRepo) Update(ctx context.Context, sub *models.Submission) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[sub.ID]; !ok {
		return repositories.ErrSubmissionNotFound
	}
	sub.UpdatedAt = time.Now()
	stored := *sub
	f.byID[sub.ID] = &stored
	return nil
}

func (f *fakeSubmissionRepo) ListByCompetition(ctx context.Context, competitionID int) ([]*models.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Submission
	for _, sub := range f.byID {
		if sub.CompetitionID == competitionID {
			row := *sub
			out = append(out, &row)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].SubmittedAt.Before(out[j].SubmittedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

type fakeCriterionRepo struct {
	mu     sync.Mutex
	byID   map[int]*models.JudgingCriterion
	nextID int
}

func newFakeCriterionRepo() *fakeCriterionRepo {
	return &fakeCriterionRepo{byID: make(map[int]*models.JudgingCriterion), nextID: 1}
}

func (f *fakeCriterionRepo) Create(ctx context.Context, criterion *models.JudgingCriterion) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	criterion.ID = f.nextID
	f.nextID++
	criterion.CreatedAt = time.Now()
	stored := *criterion
	f.byID[criterion.ID] = &stored
	return nil
}

func (f *fakeCriterionRepo) GetByID(ctx context.Context, id int) (*models.JudgingCriterion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byID[id]
	if !ok {
		return nil, repositories.ErrCriterionNotFound
	}
	out := *c
	return &out, nil
}

func (f *fakeCriterionRepo) ListByCompetition(ctx context.Context, competitionID int) ([]*models.JudgingCriterion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.JudgingCriterion
	for _, c := range f.byID {
		if c.CompetitionID == competitionID {
			row := *c
			out = append(out, &row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeCriterionRepo) Update(ctx context.Context, criterion *models.JudgingCriterion) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[criterion.ID]; !ok {
		return repositories.ErrCriterionNotFound
	}
	stored := *criterion
	f.byID[criterion.ID] = &stored
	return nil
}

func (f *fakeCriterionRepo) Delete(ctx context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return repositories.ErrCriterionNotFound
	}
	delete(f.byID, id)
	return nil
}

type scoreKey struct {
	submissionID int
	judgeUserID  int
	criterionID  int
}

type fakeScoreRepo struct {
	mu     sync.Mutex
	rows   map[scoreKey]*models.JudgingScore
	nextID int
}

func newFakeScoreRepo() *fakeScoreRepo {
	return &fakeScoreRepo{rows: make(map[scoreKey]*models.JudgingScore), nextID: 1}
}

func (f *fakeScoreRepo) Upsert(ctx context.Context, exec repositories.SQLExecutor, score *models.JudgingScore) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := scoreKey{score.SubmissionID, score.JudgeUserID, score.CriterionID}
	if existing, ok := f.rows[key]; ok {
		existing.Score = score.Score
		existing.Comment = score.Comment
		existing.UpdatedAt = time.Now()
		score.ID = existing.ID
		return nil
	}
	score.ID = f.nextID
	f.nextID++
	score.CreatedAt = time.Now()
	score.UpdatedAt = score.CreatedAt
	stored := *score
	f.rows[key] = &stored
	return nil
}

func (f *fakeScoreRepo) ListBySubmission(ctx context.Context, submissionID int) ([]*models.JudgingScore, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.JudgingScore
	for _, s := range f.rows {
		if s.SubmissionID == submissionID {
			row := *s
			out = append(out, &row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeScoreRepo) CountByCriterion(ctx context.Context, criterionID int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, s := range f.rows {
		if s.CriterionID == criterionID {
			count++
		}
	}
	return count, nil
}

type fakeRankingRepo struct {
	mu     sync.Mutex
	rows   map[int][]*models.RankingEntry
	nextID int
}

func newFakeRankingRepo() *fakeRankingRepo {
	return &fakeRankingRepo{rows: make(map[int][]*models.RankingEntry), nextID: 1}
}

func (f *fakeRankingRepo) BatchCreate(ctx context.Context, exec repositories.SQLExecutor, entries []*models.RankingEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	for _, e := range entries {
		row := *e
		row.ID = f.nextID
		f.nextID++
		row.FrozenAt = &now
		f.rows[row.CompetitionID] = append(f.rows[row.CompetitionID], &row)
	}
	return nil
}

func (f *fakeRankingRepo) ListByCompetition(ctx context.Context, competitionID int) ([]*models.RankingEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := f.rows[competitionID]
	out := make([]*models.RankingEntry, 0, len(stored))
	for _, e := range stored {
		row := *e
		out = append(out, &row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rank < out[j].Rank })
	return out, nil
}

func (f *fakeRankingRepo) DeleteByCompetition(ctx context.Context, exec repositories.SQLExecutor, competitionID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rows, competitionID)
	return nil
}

func (f *fakeRankingRepo) Exists(ctx context.Context, competitionID int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows[competitionID]) > 0, nil
}

type fakeUploader struct {
	mu       sync.Mutex
	uploaded map[string]string
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{uploaded: make(map[string]string)}
}

func (f *fakeUploader) Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*storage.UploadResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploaded[key] = contentType
	return &storage.UploadResult{Key: key, Location: f.GetPublicURL(key), ETag: "fake-etag"}, nil
}

func (f *fakeUploader) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.uploaded, key)
	return nil
}

func (f *fakeUploader) GetPublicURL(key string) string {
	return fmt.Sprintf("https://cdn.test/%s", key)
}
