package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/padelpoint/tournament-service/brackets"
	"github.com/padelpoint/tournament-service/models"
	"github.com/padelpoint/tournament-service/repositories"
)

// fakeTxRunner invokes the callback with a nil executor; the fake
// repositories ignore the executor entirely. Transactions run one at a time,
// mirroring the tournament row lock the real runner's transactions take.
type fakeTxRunner struct {
	mu sync.Mutex
}

func (r *fakeTxRunner) RunInTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(nil)
}

type fakeTournamentRepo struct {
	tournaments map[int]*models.Tournament
}

func (f *fakeTournamentRepo) Create(ctx context.Context, t *models.Tournament) error { return nil }

func (f *fakeTournamentRepo) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	t, ok := f.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	copied := *t
	return &copied, nil
}

func (f *fakeTournamentRepo) List(ctx context.Context, filter repositories.ListTournamentsFilter) ([]*models.Tournament, error) {
	return nil, nil
}

func (f *fakeTournamentRepo) LockByID(ctx context.Context, exec repositories.SQLExecutor, id int) error {
	if _, ok := f.tournaments[id]; !ok {
		return repositories.ErrTournamentNotFound
	}
	return nil
}

func (f *fakeTournamentRepo) UpdatePosterKey(ctx context.Context, id int, posterKey *string) error {
	return nil
}

func (f *fakeTournamentRepo) UpdateStatus(ctx context.Context, id int, status models.TournamentStatus) error {
	return nil
}

func (f *fakeTournamentRepo) ActivateStartedByDate(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

type fakeTeamRepo struct {
	teams []*models.Team
}

func (f *fakeTeamRepo) Create(ctx context.Context, exec repositories.SQLExecutor, team *models.Team) error {
	team.ID = len(f.teams) + 1
	f.teams = append(f.teams, team)
	return nil
}

func (f *fakeTeamRepo) GetByID(ctx context.Context, id int) (*models.Team, error) {
	for _, t := range f.teams {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, repositories.ErrTeamNotFound
}

func (f *fakeTeamRepo) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Team, error) {
	out := make([]*models.Team, 0, len(f.teams))
	for _, t := range f.teams {
		if t.TournamentID == tournamentID {
			out = append(out, t)
		}
	}
	return out, nil
}

type fakeCourtRepo struct {
	courts map[int]*models.Court
}

func (f *fakeCourtRepo) Create(ctx context.Context, court *models.Court) error { return nil }

func (f *fakeCourtRepo) GetByID(ctx context.Context, id int) (*models.Court, error) {
	c, ok := f.courts[id]
	if !ok {
		return nil, repositories.ErrCourtNotFound
	}
	return c, nil
}

func (f *fakeCourtRepo) List(ctx context.Context) ([]*models.Court, error) { return nil, nil }

// fakeMatchRepo keeps matches keyed by id, hands out copies and enforces
// the same optimistic version check as the Postgres implementation.
// afterGetByID, when set, runs against the stored row right after a read
// takes its copy, so tests can slip a concurrent writer in between a
// service's read and its update.
type fakeMatchRepo struct {
	nextID       int
	matches      map[int]*models.Match
	afterGetByID func(stored *models.Match)
}

func newFakeMatchRepo() *fakeMatchRepo {
	return &fakeMatchRepo{nextID: 1, matches: make(map[int]*models.Match)}
}

func (f *fakeMatchRepo) CreateAll(ctx context.Context, exec repositories.SQLExecutor, matches []*models.Match) error {
	for _, m := range matches {
		m.ID = f.nextID
		f.nextID++
		stored := *m
		f.matches[m.ID] = &stored
	}
	return nil
}

func (f *fakeMatchRepo) GetByID(ctx context.Context, id int) (*models.Match, error) {
	m, ok := f.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	copied := *m
	if f.afterGetByID != nil {
		f.afterGetByID(m)
	}
	return &copied, nil
}

func (f *fakeMatchRepo) GetByRoundSlot(ctx context.Context, exec repositories.SQLExecutor, tournamentID, round, slot int) (*models.Match, error) {
	for _, m := range f.matches {
		if m.TournamentID == tournamentID && m.Round == round && m.Slot == slot {
			copied := *m
			return &copied, nil
		}
	}
	return nil, repositories.ErrMatchNotFound
}

func (f *fakeMatchRepo) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Match, error) {
	out := make([]*models.Match, 0)
	for id := 1; id < f.nextID; id++ {
		m, ok := f.matches[id]
		if !ok || m.TournamentID != tournamentID {
			continue
		}
		copied := *m
		out = append(out, &copied)
	}
	return out, nil
}

func (f *fakeMatchRepo) CountByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) (int, error) {
	count := 0
	for _, m := range f.matches {
		if m.TournamentID == tournamentID {
			count++
		}
	}
	return count, nil
}

func (f *fakeMatchRepo) Update(ctx context.Context, exec repositories.SQLExecutor, match *models.Match) error {
	stored, ok := f.matches[match.ID]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	if stored.Version != match.Version {
		return repositories.ErrMatchVersionConflict
	}
	match.Version++
	copied := *match
	f.matches[match.ID] = &copied
	return nil
}

// flakyMatchRepo drains a queue of read failures before delegating to the
// embedded fake, counting every GetByID call.
type flakyMatchRepo struct {
	*fakeMatchRepo
	failures []error
	getCalls int
}

func (f *flakyMatchRepo) GetByID(ctx context.Context, id int) (*models.Match, error) {
	f.getCalls++
	if len(f.failures) > 0 {
		err := f.failures[0]
		f.failures = f.failures[1:]
		return nil, err
	}
	return f.fakeMatchRepo.GetByID(ctx, id)
}

type drawServiceFixture struct {
	svc       DrawService
	matchRepo *fakeMatchRepo
}

func newDrawServiceFixture(t *testing.T, teamCount int) *drawServiceFixture {
	t.Helper()

	tournamentRepo := &fakeTournamentRepo{tournaments: map[int]*models.Tournament{
		1: {ID: 1, Name: "Open de Otono", Status: models.TournamentStatusRegistration},
	}}
	teamRepo := &fakeTeamRepo{}
	for i := 0; i < teamCount; i++ {
		teamRepo.teams = append(teamRepo.teams, &models.Team{ID: i + 1, TournamentID: 1})
	}
	matchRepo := newFakeMatchRepo()
	courtRepo := &fakeCourtRepo{courts: map[int]*models.Court{
		1: {ID: 1, Name: "Pista Central"},
	}}

	svc := NewDrawService(
		&fakeTxRunner{},
		tournamentRepo,
		teamRepo,
		matchRepo,
		courtRepo,
		brackets.NewSingleEliminationGenerator(),
		nil,
		nil,
	)
	return &drawServiceFixture{svc: svc, matchRepo: matchRepo}
}

func (fx *drawServiceFixture) matchAt(t *testing.T, round, slot int) *models.Match {
	t.Helper()
	m, err := fx.matchRepo.GetByRoundSlot(context.Background(), nil, 1, round, slot)
	if err != nil {
		t.Fatalf("no match at round %d slot %d: %v", round, slot, err)
	}
	return m
}

func TestCreateDrawPersistsBracket(t *testing.T) {
	fx := newDrawServiceFixture(t, 8)
	ctx := context.Background()

	draw, err := fx.svc.CreateDraw(ctx, 1)
	if err != nil {
		t.Fatalf("CreateDraw: %v", err)
	}
	if len(draw.Rounds) != 3 {
		t.Fatalf("rounds = %d, want 3", len(draw.Rounds))
	}

	count, _ := fx.matchRepo.CountByTournament(ctx, nil, 1)
	if count != 7 {
		t.Errorf("persisted matches = %d, want 7", count)
	}
}

func TestCreateDrawRejectsExisting(t *testing.T) {
	fx := newDrawServiceFixture(t, 4)
	ctx := context.Background()

	if _, err := fx.svc.CreateDraw(ctx, 1); err != nil {
		t.Fatalf("first CreateDraw: %v", err)
	}
	if _, err := fx.svc.CreateDraw(ctx, 1); !errors.Is(err, ErrDrawAlreadyExists) {
		t.Fatalf("second CreateDraw err = %v, want ErrDrawAlreadyExists", err)
	}
}

func TestCreateDrawConcurrentDuplicate(t *testing.T) {
	fx := newDrawServiceFixture(t, 4)
	ctx := context.Background()

	// Two organizers hit the endpoint at the same time. The existence
	// check and the insert share a transaction behind the tournament row
	// lock, so exactly one call wins and the other sees the draw.
	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := fx.svc.CreateDraw(ctx, 1)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var created, rejected int
	for err := range errs {
		switch {
		case err == nil:
			created++
		case errors.Is(err, ErrDrawAlreadyExists):
			rejected++
		default:
			t.Fatalf("CreateDraw: %v", err)
		}
	}
	if created != 1 || rejected != 1 {
		t.Fatalf("created = %d, rejected = %d, want exactly one of each", created, rejected)
	}

	count, err := fx.matchRepo.CountByTournament(ctx, nil, 1)
	if err != nil {
		t.Fatalf("CountByTournament: %v", err)
	}
	if count != 3 {
		t.Errorf("persisted matches = %d, want 3 for a four-team bracket", count)
	}
}

func TestCreateDrawUnknownTournament(t *testing.T) {
	fx := newDrawServiceFixture(t, 4)

	if _, err := fx.svc.CreateDraw(context.Background(), 99); !errors.Is(err, ErrTournamentNotFound) {
		t.Fatalf("err = %v, want ErrTournamentNotFound", err)
	}
}

func TestCreateDrawTooFewTeams(t *testing.T) {
	fx := newDrawServiceFixture(t, 1)

	_, err := fx.svc.CreateDraw(context.Background(), 1)
	if !errors.Is(err, ErrValidationFailed) {
		t.Fatalf("err = %v, want ErrValidationFailed", err)
	}
	if !errors.Is(err, brackets.ErrInsufficientTeams) {
		t.Fatalf("err = %v, want wrapped ErrInsufficientTeams", err)
	}
}

func TestPreviewDrawDoesNotPersist(t *testing.T) {
	fx := newDrawServiceFixture(t, 8)
	ctx := context.Background()

	draw, err := fx.svc.PreviewDraw(ctx, 1)
	if err != nil {
		t.Fatalf("PreviewDraw: %v", err)
	}
	if len(draw.Rounds) != 3 {
		t.Errorf("rounds = %d, want 3", len(draw.Rounds))
	}

	count, _ := fx.matchRepo.CountByTournament(ctx, nil, 1)
	if count != 0 {
		t.Errorf("persisted matches = %d, want 0", count)
	}
}

func TestGetDrawWithoutBracket(t *testing.T) {
	fx := newDrawServiceFixture(t, 4)

	if _, err := fx.svc.GetDraw(context.Background(), 1); !errors.Is(err, ErrDrawNotFound) {
		t.Fatalf("err = %v, want ErrDrawNotFound", err)
	}
}

func TestSubmitScorePropagatesWinner(t *testing.T) {
	fx := newDrawServiceFixture(t, 8)
	ctx := context.Background()

	if _, err := fx.svc.CreateDraw(ctx, 1); err != nil {
		t.Fatalf("CreateDraw: %v", err)
	}

	// Seeding pairs seed 1 against seed 8 in the opening slot.
	opener := fx.matchAt(t, 0, 0)
	updated, err := fx.svc.SubmitScore(ctx, opener.ID, "6-4,6-3")
	if err != nil {
		t.Fatalf("SubmitScore: %v", err)
	}
	if updated.Status != models.MatchStatusCompleted {
		t.Errorf("status = %q, want completed", updated.Status)
	}
	if updated.WinnerTeamID == nil || *updated.WinnerTeamID != *opener.HomeTeamID {
		t.Errorf("winner = %v, want home team %d", updated.WinnerTeamID, *opener.HomeTeamID)
	}

	semi := fx.matchAt(t, 1, 0)
	if semi.HomeTeamID == nil || *semi.HomeTeamID != *opener.HomeTeamID {
		t.Errorf("semifinal home side = %v, want %d", semi.HomeTeamID, *opener.HomeTeamID)
	}
	if semi.AwayTeamID != nil {
		t.Errorf("semifinal away side = %v, want open", semi.AwayTeamID)
	}
}

func TestSubmitScoreAwayWinner(t *testing.T) {
	fx := newDrawServiceFixture(t, 8)
	ctx := context.Background()

	if _, err := fx.svc.CreateDraw(ctx, 1); err != nil {
		t.Fatalf("CreateDraw: %v", err)
	}

	opener := fx.matchAt(t, 0, 1)
	updated, err := fx.svc.SubmitScore(ctx, opener.ID, "4-6,6-7")
	if err != nil {
		t.Fatalf("SubmitScore: %v", err)
	}
	if updated.WinnerTeamID == nil || *updated.WinnerTeamID != *opener.AwayTeamID {
		t.Errorf("winner = %v, want away team %d", updated.WinnerTeamID, *opener.AwayTeamID)
	}

	semi := fx.matchAt(t, 1, 0)
	if semi.AwayTeamID == nil || *semi.AwayTeamID != *opener.AwayTeamID {
		t.Errorf("semifinal away side = %v, want %d", semi.AwayTeamID, *opener.AwayTeamID)
	}
}

func TestSubmitScoreIdempotentRepeat(t *testing.T) {
	fx := newDrawServiceFixture(t, 4)
	ctx := context.Background()

	if _, err := fx.svc.CreateDraw(ctx, 1); err != nil {
		t.Fatalf("CreateDraw: %v", err)
	}

	opener := fx.matchAt(t, 0, 0)
	first, err := fx.svc.SubmitScore(ctx, opener.ID, "6-4, 6-3")
	if err != nil {
		t.Fatalf("first SubmitScore: %v", err)
	}

	// Same result, different formatting: accepted without effect.
	second, err := fx.svc.SubmitScore(ctx, opener.ID, "6-4,6-3")
	if err != nil {
		t.Fatalf("repeated SubmitScore: %v", err)
	}
	if second.Version != first.Version {
		t.Errorf("version changed on repeat: %d -> %d", first.Version, second.Version)
	}

	// A different score on a completed match is a conflict.
	if _, err := fx.svc.SubmitScore(ctx, opener.ID, "6-2,6-2"); !errors.Is(err, ErrMatchAlreadyCompleted) {
		t.Fatalf("err = %v, want ErrMatchAlreadyCompleted", err)
	}
}

func TestSubmitScoreInvalidFormat(t *testing.T) {
	fx := newDrawServiceFixture(t, 4)
	ctx := context.Background()

	if _, err := fx.svc.CreateDraw(ctx, 1); err != nil {
		t.Fatalf("CreateDraw: %v", err)
	}
	opener := fx.matchAt(t, 0, 0)

	if _, err := fx.svc.SubmitScore(ctx, opener.ID, "6-5,6-3"); !errors.Is(err, ErrValidationFailed) {
		t.Fatalf("err = %v, want ErrValidationFailed", err)
	}

	stored := fx.matchAt(t, 0, 0)
	if stored.Status != models.MatchStatusUnscheduled && stored.Status != models.MatchStatusScheduled {
		t.Errorf("match mutated by rejected score: status %q", stored.Status)
	}
}

func TestSubmitScoreRejectsByeMatch(t *testing.T) {
	fx := newDrawServiceFixture(t, 6)
	ctx := context.Background()

	if _, err := fx.svc.CreateDraw(ctx, 1); err != nil {
		t.Fatalf("CreateDraw: %v", err)
	}

	// With 6 entrants the top seeds open on byes.
	bye := fx.matchAt(t, 0, 0)
	if !bye.IsBye() {
		t.Fatalf("expected bye at round 0 slot 0, status %q", bye.Status)
	}
	if _, err := fx.svc.SubmitScore(ctx, bye.ID, "6-0,6-0"); !errors.Is(err, ErrByeMatchImmutable) {
		t.Fatalf("err = %v, want ErrByeMatchImmutable", err)
	}
}

func TestSubmitScoreVersionConflict(t *testing.T) {
	fx := newDrawServiceFixture(t, 4)
	ctx := context.Background()

	if _, err := fx.svc.CreateDraw(ctx, 1); err != nil {
		t.Fatalf("CreateDraw: %v", err)
	}
	opener := fx.matchAt(t, 0, 0)

	// A concurrent writer bumps the stored version after the service has
	// taken its read but before it writes, so the optimistic check loses.
	fx.matchRepo.afterGetByID = func(stored *models.Match) {
		stored.Version++
	}

	if _, err := fx.svc.SubmitScore(ctx, opener.ID, "6-4,6-3"); !errors.Is(err, ErrConcurrentModification) {
		t.Fatalf("err = %v, want ErrConcurrentModification", err)
	}

	fx.matchRepo.afterGetByID = nil
	stored := fx.matchAt(t, 0, 0)
	if stored.Status == models.MatchStatusCompleted {
		t.Errorf("match completed despite lost version race")
	}
}

func TestSubmitScoreRunsTournamentToCompletion(t *testing.T) {
	fx := newDrawServiceFixture(t, 4)
	ctx := context.Background()

	if _, err := fx.svc.CreateDraw(ctx, 1); err != nil {
		t.Fatalf("CreateDraw: %v", err)
	}

	for _, slot := range []int{0, 1} {
		m := fx.matchAt(t, 0, slot)
		if _, err := fx.svc.SubmitScore(ctx, m.ID, "6-4,6-3"); err != nil {
			t.Fatalf("SubmitScore round 0 slot %d: %v", slot, err)
		}
	}

	final := fx.matchAt(t, 1, 0)
	if final.HomeTeamID == nil || final.AwayTeamID == nil {
		t.Fatalf("final not populated: home %v away %v", final.HomeTeamID, final.AwayTeamID)
	}

	done, err := fx.svc.SubmitScore(ctx, final.ID, "7-6,3-6,10-8")
	if err != nil {
		t.Fatalf("SubmitScore final: %v", err)
	}
	if done.WinnerTeamID == nil || *done.WinnerTeamID != *final.HomeTeamID {
		t.Errorf("champion = %v, want %d", done.WinnerTeamID, *final.HomeTeamID)
	}
}

func TestCorrectScoreSameWinner(t *testing.T) {
	fx := newDrawServiceFixture(t, 4)
	ctx := context.Background()

	if _, err := fx.svc.CreateDraw(ctx, 1); err != nil {
		t.Fatalf("CreateDraw: %v", err)
	}
	opener := fx.matchAt(t, 0, 0)
	if _, err := fx.svc.SubmitScore(ctx, opener.ID, "6-4,6-3"); err != nil {
		t.Fatalf("SubmitScore: %v", err)
	}

	corrected, err := fx.svc.CorrectScore(ctx, opener.ID, "6-4,6-2")
	if err != nil {
		t.Fatalf("CorrectScore: %v", err)
	}
	if corrected.Score == nil || *corrected.Score != "6-4,6-2" {
		t.Errorf("score = %v, want 6-4,6-2", corrected.Score)
	}
	if *corrected.WinnerTeamID != *opener.HomeTeamID {
		t.Errorf("winner changed on same-winner correction")
	}
}

func TestCorrectScoreFlipsWinnerBeforeDownstreamPlay(t *testing.T) {
	fx := newDrawServiceFixture(t, 4)
	ctx := context.Background()

	if _, err := fx.svc.CreateDraw(ctx, 1); err != nil {
		t.Fatalf("CreateDraw: %v", err)
	}
	opener := fx.matchAt(t, 0, 0)
	if _, err := fx.svc.SubmitScore(ctx, opener.ID, "6-4,6-3"); err != nil {
		t.Fatalf("SubmitScore: %v", err)
	}

	corrected, err := fx.svc.CorrectScore(ctx, opener.ID, "4-6,3-6")
	if err != nil {
		t.Fatalf("CorrectScore: %v", err)
	}
	if *corrected.WinnerTeamID != *opener.AwayTeamID {
		t.Errorf("winner = %d, want away team %d", *corrected.WinnerTeamID, *opener.AwayTeamID)
	}

	final := fx.matchAt(t, 1, 0)
	if final.HomeTeamID == nil || *final.HomeTeamID != *opener.AwayTeamID {
		t.Errorf("final home side = %v, want corrected winner %d", final.HomeTeamID, *opener.AwayTeamID)
	}
}

func TestCorrectScoreRejectedAfterDownstreamPlay(t *testing.T) {
	fx := newDrawServiceFixture(t, 4)
	ctx := context.Background()

	if _, err := fx.svc.CreateDraw(ctx, 1); err != nil {
		t.Fatalf("CreateDraw: %v", err)
	}

	for _, slot := range []int{0, 1} {
		m := fx.matchAt(t, 0, slot)
		if _, err := fx.svc.SubmitScore(ctx, m.ID, "6-4,6-3"); err != nil {
			t.Fatalf("SubmitScore slot %d: %v", slot, err)
		}
	}
	final := fx.matchAt(t, 1, 0)
	if _, err := fx.svc.SubmitScore(ctx, final.ID, "6-2,6-2"); err != nil {
		t.Fatalf("SubmitScore final: %v", err)
	}

	opener := fx.matchAt(t, 0, 0)
	_, err := fx.svc.CorrectScore(ctx, opener.ID, "4-6,3-6")
	if !errors.Is(err, ErrDownstreamAlreadyPlayed) {
		t.Fatalf("err = %v, want ErrDownstreamAlreadyPlayed", err)
	}

	// Neither match changed.
	after := fx.matchAt(t, 0, 0)
	if *after.Score != *opener.Score || *after.WinnerTeamID != *opener.WinnerTeamID {
		t.Errorf("opener mutated by rejected correction")
	}
	finalAfter := fx.matchAt(t, 1, 0)
	if *finalAfter.HomeTeamID != *final.HomeTeamID {
		t.Errorf("final mutated by rejected correction")
	}
}

func TestCorrectScoreWithoutResult(t *testing.T) {
	fx := newDrawServiceFixture(t, 4)
	ctx := context.Background()

	if _, err := fx.svc.CreateDraw(ctx, 1); err != nil {
		t.Fatalf("CreateDraw: %v", err)
	}
	opener := fx.matchAt(t, 0, 0)

	if _, err := fx.svc.CorrectScore(ctx, opener.ID, "6-4,6-3"); !errors.Is(err, ErrNoScoreToCorrect) {
		t.Fatalf("err = %v, want ErrNoScoreToCorrect", err)
	}
}

func TestScheduleMatch(t *testing.T) {
	fx := newDrawServiceFixture(t, 4)
	ctx := context.Background()

	if _, err := fx.svc.CreateDraw(ctx, 1); err != nil {
		t.Fatalf("CreateDraw: %v", err)
	}
	opener := fx.matchAt(t, 0, 0)

	at := time.Date(2026, 9, 12, 10, 0, 0, 0, time.UTC)
	updated, err := fx.svc.ScheduleMatch(ctx, opener.ID, ScheduleMatchInput{CourtID: 1, ScheduledAt: at})
	if err != nil {
		t.Fatalf("ScheduleMatch: %v", err)
	}
	if updated.Status != models.MatchStatusScheduled {
		t.Errorf("status = %q, want scheduled", updated.Status)
	}
	if updated.CourtID == nil || *updated.CourtID != 1 {
		t.Errorf("court = %v, want 1", updated.CourtID)
	}
	if updated.ScheduledAt == nil || !updated.ScheduledAt.Equal(at) {
		t.Errorf("scheduled_at = %v, want %v", updated.ScheduledAt, at)
	}
}

func TestScheduleMatchInvalidInput(t *testing.T) {
	fx := newDrawServiceFixture(t, 4)
	ctx := context.Background()

	if _, err := fx.svc.CreateDraw(ctx, 1); err != nil {
		t.Fatalf("CreateDraw: %v", err)
	}
	opener := fx.matchAt(t, 0, 0)

	cases := []ScheduleMatchInput{
		{CourtID: 0, ScheduledAt: time.Now()},
		{CourtID: 1},
	}
	for _, input := range cases {
		if _, err := fx.svc.ScheduleMatch(ctx, opener.ID, input); !errors.Is(err, ErrInvalidSchedule) {
			t.Errorf("input %+v: err = %v, want ErrInvalidSchedule", input, err)
		}
	}

	at := time.Date(2026, 9, 12, 10, 0, 0, 0, time.UTC)
	if _, err := fx.svc.ScheduleMatch(ctx, opener.ID, ScheduleMatchInput{CourtID: 7, ScheduledAt: at}); !errors.Is(err, ErrCourtNotFound) {
		t.Errorf("unknown court: err = %v, want ErrCourtNotFound", err)
	}
}

func TestGetDrawGroupsRoundsAndAttachesTeams(t *testing.T) {
	fx := newDrawServiceFixture(t, 8)
	ctx := context.Background()

	if _, err := fx.svc.CreateDraw(ctx, 1); err != nil {
		t.Fatalf("CreateDraw: %v", err)
	}

	draw, err := fx.svc.GetDraw(ctx, 1)
	if err != nil {
		t.Fatalf("GetDraw: %v", err)
	}
	if len(draw.Rounds) != 3 {
		t.Fatalf("rounds = %d, want 3", len(draw.Rounds))
	}
	for _, m := range draw.Rounds[0].Matches {
		if m.HomeTeamID != nil && m.HomeTeam == nil {
			t.Errorf("round 0 slot %d: home team not attached", m.Slot)
		}
		if m.AwayTeamID != nil && m.AwayTeam == nil {
			t.Errorf("round 0 slot %d: away team not attached", m.Slot)
		}
	}
}

func newFlakyDrawFixture(t *testing.T) (DrawService, *flakyMatchRepo) {
	t.Helper()

	tournamentRepo := &fakeTournamentRepo{tournaments: map[int]*models.Tournament{
		1: {ID: 1, Name: "Open de Otono", Status: models.TournamentStatusRegistration},
	}}
	teamRepo := &fakeTeamRepo{}
	for i := 0; i < 4; i++ {
		teamRepo.teams = append(teamRepo.teams, &models.Team{ID: i + 1, TournamentID: 1})
	}
	flaky := &flakyMatchRepo{fakeMatchRepo: newFakeMatchRepo()}

	svc := NewDrawService(
		&fakeTxRunner{},
		tournamentRepo,
		teamRepo,
		flaky,
		&fakeCourtRepo{courts: map[int]*models.Court{}},
		brackets.NewSingleEliminationGenerator(),
		nil,
		nil,
	)
	return svc, flaky
}

func TestGetMatchDetailsRetriesTransientReads(t *testing.T) {
	svc, flaky := newFlakyDrawFixture(t)
	ctx := context.Background()

	if _, err := svc.CreateDraw(ctx, 1); err != nil {
		t.Fatalf("CreateDraw: %v", err)
	}
	opener, err := flaky.GetByRoundSlot(ctx, nil, 1, 0, 0)
	if err != nil {
		t.Fatalf("no opening match: %v", err)
	}

	flaky.getCalls = 0
	flaky.failures = []error{
		errors.New("read tcp: connection reset by peer"),
		errors.New("read tcp: connection reset by peer"),
	}

	match, err := svc.GetMatchDetails(ctx, opener.ID)
	if err != nil {
		t.Fatalf("GetMatchDetails: %v", err)
	}
	if match.ID != opener.ID {
		t.Errorf("match ID = %d, want %d", match.ID, opener.ID)
	}
	if flaky.getCalls != 3 {
		t.Errorf("GetByID calls = %d, want 3 for two transient failures", flaky.getCalls)
	}
}

func TestGetMatchDetailsDoesNotRetryMissingMatch(t *testing.T) {
	svc, flaky := newFlakyDrawFixture(t)

	_, err := svc.GetMatchDetails(context.Background(), 404)
	if !errors.Is(err, ErrMatchNotFound) {
		t.Fatalf("err = %v, want ErrMatchNotFound", err)
	}
	if flaky.getCalls != 1 {
		t.Errorf("GetByID calls = %d, want 1; a missing match is final", flaky.getCalls)
	}
}
