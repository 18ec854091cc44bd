package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/swiss-tournament/brackets"
	"github.com/Dosada05/swiss-tournament/models"
	"github.com/Dosada05/swiss-tournament/repositories"
)

type keepOrder struct{}

func (keepOrder) Shuffle(int, func(i, j int)) {}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []brackets.WebSocketMessage
}

func (n *recordingNotifier) BroadcastToRoom(roomID string, message interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message.(brackets.WebSocketMessage))
}

func (n *recordingNotifier) types() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.messages))
	for i, m := range n.messages {
		out[i] = m.Type
	}
	return out
}

type recordingArchiver struct {
	mu       sync.Mutex
	archived []*models.Tournament
	err      error
}

func (a *recordingArchiver) Archive(ctx context.Context, t *models.Tournament) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.archived = append(a.archived, t)
	return a.err
}

// flakyStore wraps a repository and fails Save while failing is set.
type flakyStore struct {
	repositories.TournamentRepository
	mu      sync.Mutex
	failing bool
	saves   int
}

var errDiskFull = errors.New("disk full")

func (s *flakyStore) Save(ctx context.Context, t *models.Tournament) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.failing {
		return errDiskFull
	}
	return s.TournamentRepository.Save(ctx, t)
}

func (s *flakyStore) setFailing(v bool) {
	s.mu.Lock()
	s.failing = v
	s.mu.Unlock()
}

type fixture struct {
	roster   repositories.PlayerStore
	store    *flakyStore
	notifier *recordingNotifier
	archiver *recordingArchiver
	deps     ManagerDeps
	now      time.Time
}

func newFixture(t *testing.T, playerIDs ...string) *fixture {
	t.Helper()
	roster, store := repositories.NewMemoryRepositories()
	players := make([]*models.Participant, 0, len(playerIDs))
	for _, id := range playerIDs {
		players = append(players, &models.Participant{
			ID:        id,
			FirstName: "First" + id,
			LastName:  "Last" + id,
			BirthDate: time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
		})
	}
	require.NoError(t, roster.Upsert(context.Background(), players))

	f := &fixture{
		roster:   roster,
		store:    &flakyStore{TournamentRepository: store},
		notifier: &recordingNotifier{},
		archiver: &recordingArchiver{},
		now:      time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	f.deps = ManagerDeps{
		Roster:    roster,
		Store:     f.store,
		Generator: brackets.NewSwissGenerator(),
		Random:    keepOrder{},
		Notifier:  f.notifier,
		Archiver:  f.archiver,
		Clock:     func() time.Time { return f.now },
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	return f
}

func (f *fixture) manager(t *testing.T, rounds int, ids ...string) *TournamentManager {
	t.Helper()
	m := NewTournamentManager(&models.Tournament{
		ID:        "t-1",
		Name:      "Spring Open",
		NumRounds: rounds,
		StartDate: f.now,
		CreatedAt: f.now,
	}, f.deps)
	for _, id := range ids {
		_, err := m.AddParticipant(context.Background(), id)
		require.NoError(t, err)
	}
	return m
}

func points(t *testing.T, m *TournamentManager) map[string]float64 {
	t.Helper()
	out := map[string]float64{}
	for _, p := range m.Snapshot().Participants {
		out[p.ID] = p.Points
	}
	return out
}

func TestAddParticipant(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "A", "B")
	m := f.manager(t, 3)

	p, err := m.AddParticipant(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, "A", p.ID)
	assert.Zero(t, p.Points)

	_, err = m.AddParticipant(ctx, "A")
	assert.ErrorIs(t, err, ErrDuplicateParticipant)

	_, err = m.AddParticipant(ctx, "Z")
	assert.ErrorIs(t, err, ErrParticipantNotInRoster)

	_, err = m.AddParticipant(ctx, "  ")
	assert.ErrorIs(t, err, ErrValidationFailed)

	assert.Len(t, m.Snapshot().Participants, 1)
	assert.Contains(t, f.notifier.types(), brackets.EventParticipantAdded)
}

func TestRegistrationClosesWithFirstRound(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "A", "B", "C")
	m := f.manager(t, 2, "A", "B")

	_, err := m.StartNextRound(ctx)
	require.NoError(t, err)

	_, err = m.AddParticipant(ctx, "C")
	assert.ErrorIs(t, err, ErrRegistrationNotOpen)
	assert.Len(t, m.Snapshot().Participants, 2)
}

func TestFourParticipantTournament(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "P1", "P2", "P3", "P4")
	m := f.manager(t, 2, "P1", "P2", "P3", "P4")

	r1, err := m.StartNextRound(ctx)
	require.NoError(t, err)
	require.Len(t, r1.Matches, 2)
	assert.Empty(t, r1.ByeIDs)
	assert.Equal(t, "Round 1", r1.Name)
	assert.Equal(t, models.StatusRoundInProgress, m.Snapshot().Status())

	_, err = m.RecordResults(ctx, []MatchResult{
		{MatchUID: "R1M1", ScoreA: 1, ScoreB: 0},
		{MatchUID: "R1M2", ScoreA: 1, ScoreB: 0},
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusAwaitingNextRound, m.Snapshot().Status())

	// P1 and P3 lead on points; P2 and P4 trail.
	r2, err := m.StartNextRound(ctx)
	require.NoError(t, err)
	require.Len(t, r2.Matches, 2)
	assert.Equal(t, []string{"P1", "P3"}, []string{r2.Matches[0].PlayerAID, r2.Matches[0].PlayerBID})
	assert.Equal(t, []string{"P2", "P4"}, []string{r2.Matches[1].PlayerAID, r2.Matches[1].PlayerBID})
	for _, match := range r2.Matches {
		assert.False(t, match.Forced)
	}

	_, err = m.RecordResults(ctx, []MatchResult{
		{MatchUID: "R2M1", ScoreA: 0.5, ScoreB: 0.5},
		{MatchUID: "R2M2", ScoreA: 0, ScoreB: 1},
	})
	require.NoError(t, err)

	snapshot := m.Snapshot()
	assert.Equal(t, models.StatusClosed, snapshot.Status())
	require.NotNil(t, snapshot.EndDate)

	rankings, err := m.Rankings()
	require.NoError(t, err)
	require.Len(t, rankings, 4)
	assert.Equal(t, "P1", rankings[0].ParticipantID)
	assert.Equal(t, 1.5, rankings[0].Points)
	assert.Equal(t, "P3", rankings[1].ParticipantID)
	assert.Equal(t, "P4", rankings[2].ParticipantID)
	assert.Equal(t, "P2", rankings[3].ParticipantID)
	for i, r := range rankings {
		assert.Equal(t, i+1, r.Rank)
		assert.Equal(t, r.Rank, snapshot.Participant(r.ParticipantID).Rank)
	}

	assert.Len(t, snapshot.ResultLog, 4)
	assert.Equal(t, "Round 1 : FirstP1 LastP1 (P1) 1 - 0 FirstP2 LastP2 (P2)", snapshot.ResultLog[0])

	require.Len(t, f.archiver.archived, 1)
	assert.Equal(t, "t-1", f.archiver.archived[0].ID)
	assert.Contains(t, f.notifier.types(), brackets.EventTournamentClosed)

	stored, err := f.store.GetByID(ctx, "t-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusClosed, stored.Status())
}

func TestFiveParticipantsByes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "A", "B", "C", "D", "E")
	m := f.manager(t, 2, "A", "B", "C", "D", "E")

	r1, err := m.StartNextRound(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, r1.ByeIDs)
	require.Len(t, r1.Matches, 2)
	assert.Equal(t, 1.0, points(t, m)["A"])

	_, err = m.RecordResults(ctx, []MatchResult{
		{MatchUID: "R1M1", ScoreA: 1, ScoreB: 0},
		{MatchUID: "R1M2", ScoreA: 1, ScoreB: 0},
	})
	require.NoError(t, err)

	r2, err := m.StartNextRound(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"E"}, r2.ByeIDs)
	assert.Equal(t, []string{"A", "B"}, []string{r2.Matches[0].PlayerAID, r2.Matches[0].PlayerBID})
	assert.Equal(t, []string{"D", "C"}, []string{r2.Matches[1].PlayerAID, r2.Matches[1].PlayerBID})
	assert.Equal(t, 1.0, points(t, m)["E"])

	log := m.Snapshot().ResultLog
	assert.Contains(t, log, "Round 1 : FirstA LastA (A) receives a bye (+1)")
}

func TestStartNextRoundWhileRoundOpen(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "A", "B", "C", "D")
	m := f.manager(t, 3, "A", "B", "C", "D")

	_, err := m.StartNextRound(ctx)
	require.NoError(t, err)
	_, err = m.RecordResults(ctx, []MatchResult{{MatchUID: "R1M1", ScoreA: 1, ScoreB: 0}})
	require.NoError(t, err)

	before := m.Snapshot()
	_, err = m.StartNextRound(ctx)
	assert.ErrorIs(t, err, ErrRoundNotReady)
	assert.Equal(t, before, m.Snapshot())
}

func TestRecordResultsRequiresOpenRound(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "A", "B", "C", "D")
	m := f.manager(t, 2, "A", "B", "C", "D")

	_, err := m.RecordResults(ctx, []MatchResult{{MatchUID: "R1M1", ScoreA: 1, ScoreB: 0}})
	assert.ErrorIs(t, err, ErrRoundNotReady)

	_, err = m.StartNextRound(ctx)
	require.NoError(t, err)
	_, err = m.RecordResults(ctx, []MatchResult{{MatchUID: "R1M1", ScoreA: 1, ScoreB: 0}})
	require.NoError(t, err)
	_, err = m.RecordResults(ctx, []MatchResult{{MatchUID: "R1M2", ScoreA: 0, ScoreB: 1}})
	require.NoError(t, err)

	_, err = m.RecordResults(ctx, []MatchResult{{MatchUID: "R1M1", ScoreA: 1, ScoreB: 0}})
	assert.ErrorIs(t, err, ErrRoundNotReady)
}

func TestInvalidScoreLeavesMatchOpen(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "A", "B")
	m := f.manager(t, 1, "A", "B")

	_, err := m.StartNextRound(ctx)
	require.NoError(t, err)

	round, err := m.RecordResults(ctx, []MatchResult{{MatchUID: "R1M1", ScoreA: 0.3, ScoreB: 0.7}})
	assert.ErrorIs(t, err, ErrInvalidScore)
	require.NotNil(t, round)
	assert.False(t, round.Matches[0].IsClosed())
	assert.Equal(t, map[string]float64{"A": 0, "B": 0}, points(t, m))
	assert.Equal(t, models.StatusRoundInProgress, m.Snapshot().Status())
}

func TestRecordResultsStopsAtFirstError(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "A", "B", "C", "D", "E", "F")
	m := f.manager(t, 2, "A", "B", "C", "D", "E", "F")

	_, err := m.StartNextRound(ctx)
	require.NoError(t, err)

	round, err := m.RecordResults(ctx, []MatchResult{
		{MatchUID: "R1M1", ScoreA: 1, ScoreB: 0},
		{MatchUID: "R9M9", ScoreA: 1, ScoreB: 0},
		{MatchUID: "R1M3", ScoreA: 1, ScoreB: 0},
	})
	assert.ErrorIs(t, err, ErrMatchNotFound)
	assert.True(t, round.Matches[0].IsClosed())
	assert.False(t, round.Matches[2].IsClosed())

	_, err = m.RecordResults(ctx, []MatchResult{{MatchUID: "R1M1", ScoreA: 0, ScoreB: 1}})
	assert.ErrorIs(t, err, ErrMatchAlreadyClosed)
	assert.Equal(t, 1.0, points(t, m)["A"])
	assert.Equal(t, 0.0, points(t, m)["B"])
}

func TestClosedTournamentRejectsOperations(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "A", "B")
	m := f.manager(t, 1, "A", "B")

	_, err := m.Rankings()
	assert.ErrorIs(t, err, ErrRankingsUnavailable)

	_, err = m.StartNextRound(ctx)
	require.NoError(t, err)
	_, err = m.RecordResults(ctx, []MatchResult{{MatchUID: "R1M1", ScoreA: 0.5, ScoreB: 0.5}})
	require.NoError(t, err)

	_, err = m.StartNextRound(ctx)
	assert.ErrorIs(t, err, ErrTournamentComplete)
	_, err = m.RecordResults(ctx, []MatchResult{{MatchUID: "R1M1", ScoreA: 1, ScoreB: 0}})
	assert.ErrorIs(t, err, ErrTournamentComplete)
	_, err = m.AddParticipant(ctx, "A")
	assert.ErrorIs(t, err, ErrTournamentComplete)

	first, err := m.Rankings()
	require.NoError(t, err)
	second, err := m.Rankings()
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, "A", first[0].ParticipantID)
}

func TestEmptyTournamentCloses(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	m := f.manager(t, 1)

	round, err := m.StartNextRound(ctx)
	require.NoError(t, err)
	assert.Empty(t, round.Matches)
	assert.Empty(t, round.ByeIDs)
	assert.True(t, round.IsFinished())

	rankings, err := m.Rankings()
	require.NoError(t, err)
	assert.Empty(t, rankings)
	assert.True(t, m.Snapshot().IsClosed())
	assert.Equal(t, []string{brackets.EventRoundStarted, brackets.EventTournamentClosed}, f.notifier.types())
	assert.Len(t, f.archiver.archived, 1)

	_, err = m.RecordResults(ctx, nil)
	assert.ErrorIs(t, err, ErrTournamentComplete)
}

func TestSingleParticipantRoundsFinishOnStart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "A")
	m := f.manager(t, 2, "A")

	first, err := m.StartNextRound(ctx)
	require.NoError(t, err)
	assert.Empty(t, first.Matches)
	assert.Empty(t, first.ByeIDs)
	assert.True(t, first.IsFinished())
	assert.False(t, m.Snapshot().IsClosed())

	second, err := m.StartNextRound(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, second.Number)
	assert.True(t, second.IsFinished())

	rankings, err := m.Rankings()
	require.NoError(t, err)
	require.Len(t, rankings, 1)
	assert.Equal(t, "A", rankings[0].ParticipantID)
	assert.Zero(t, rankings[0].Points)

	stored, err := f.store.GetByID(ctx, "t-1")
	require.NoError(t, err)
	assert.True(t, stored.IsClosed())
}

func TestPersistenceFailureKeepsState(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "A", "B", "C", "D")
	m := f.manager(t, 2, "A", "B", "C", "D")

	f.store.setFailing(true)
	round, err := m.StartNextRound(ctx)
	assert.ErrorIs(t, err, ErrPersistenceFailed)
	assert.ErrorIs(t, err, errDiskFull)
	require.NotNil(t, round)
	assert.Len(t, round.Matches, 2)
	assert.Equal(t, 1, m.Snapshot().CurrentRound)

	_, err = m.RecordResults(ctx, []MatchResult{{MatchUID: "R1M1", ScoreA: 1, ScoreB: 0}})
	assert.ErrorIs(t, err, ErrPersistenceFailed)
	assert.Equal(t, 1.0, points(t, m)["A"])

	f.store.setFailing(false)
	_, err = m.RecordResults(ctx, []MatchResult{{MatchUID: "R1M2", ScoreA: 1, ScoreB: 0}})
	require.NoError(t, err)

	stored, err := f.store.GetByID(ctx, "t-1")
	require.NoError(t, err)
	assert.Equal(t, 1, stored.CurrentRound)
	assert.True(t, stored.Rounds[0].IsFinished())
}

func TestArchiveFailureDoesNotFailResults(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "A", "B")
	f.archiver.err = errors.New("bucket unavailable")
	m := f.manager(t, 1, "A", "B")

	_, err := m.StartNextRound(ctx)
	require.NoError(t, err)
	_, err = m.RecordResults(ctx, []MatchResult{{MatchUID: "R1M1", ScoreA: 1, ScoreB: 0}})
	require.NoError(t, err)
	assert.True(t, m.Snapshot().IsClosed())
}

func TestConcurrentResultsAreSerialized(t *testing.T) {
	ctx := context.Background()
	ids := []string{"A", "B", "C", "D", "E", "F", "G", "H"}
	f := newFixture(t, ids...)
	m := f.manager(t, 1, ids...)

	round, err := m.StartNextRound(ctx)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for _, match := range round.Matches {
		for i := 0; i < 3; i++ {
			wg.Add(1)
			go func(uid string) {
				defer wg.Done()
				_, _ = m.RecordResults(ctx, []MatchResult{{MatchUID: uid, ScoreA: 1, ScoreB: 0}})
			}(match.UID)
		}
	}
	wg.Wait()

	total := 0.0
	for _, p := range points(t, m) {
		total += p
	}
	assert.Equal(t, float64(len(round.Matches)), total)
	assert.True(t, m.Snapshot().IsClosed())
}
