package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Dosada05/swiss-tournament/brackets"
	"github.com/Dosada05/swiss-tournament/models"
	"github.com/Dosada05/swiss-tournament/repositories"
)

// Notifier receives tournament events, the websocket hub in production.
type Notifier interface {
	BroadcastToRoom(roomID string, message interface{})
}

// Archiver stores the final state of a closed tournament outside the main store.
type Archiver interface {
	Archive(ctx context.Context, tournament *models.Tournament) error
}

type MatchResult struct {
	MatchUID string  `json:"match_uid"`
	ScoreA   float64 `json:"score_a"`
	ScoreB   float64 `json:"score_b"`
}

type ResultsRecordedPayload struct {
	TournamentID string        `json:"tournament_id"`
	Round        *models.Round `json:"round"`
	Applied      int           `json:"applied"`
}

type TournamentClosedPayload struct {
	TournamentID string           `json:"tournament_id"`
	Rankings     []models.Ranking `json:"rankings"`
}

// ManagerDeps are the collaborators shared by every TournamentManager.
// Notifier, Archiver, Clock and Logger are optional.
type ManagerDeps struct {
	Roster    repositories.PlayerRepository
	Store     repositories.TournamentRepository
	Generator brackets.PairingGenerator
	Random    brackets.RandomSource
	Notifier  Notifier
	Archiver  Archiver
	Clock     func() time.Time
	Logger    *slog.Logger
}

func (d ManagerDeps) withDefaults() ManagerDeps {
	if d.Generator == nil {
		d.Generator = brackets.NewSwissGenerator()
	}
	if d.Random == nil {
		d.Random = brackets.NewTimeSeededSource()
	}
	if d.Clock == nil {
		d.Clock = time.Now
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return d
}

// TournamentManager drives the lifecycle of one tournament. Every mutation
// holds mu, so concurrent callers observe the operations one after another.
// Each successful mutation is followed by a save; a failed save is reported
// with ErrPersistenceFailed and the in-memory state is kept.
type TournamentManager struct {
	mu         sync.Mutex
	tournament *models.Tournament
	deps       ManagerDeps
	logger     *slog.Logger
}

func NewTournamentManager(tournament *models.Tournament, deps ManagerDeps) *TournamentManager {
	deps = deps.withDefaults()
	return &TournamentManager{
		tournament: tournament,
		deps:       deps,
		logger:     deps.Logger.With("tournament_id", tournament.ID),
	}
}

// Snapshot returns a deep copy of the current state.
func (m *TournamentManager) Snapshot() *models.Tournament {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tournament.Clone()
}

// AddParticipant registers a roster player. Registration is open until the
// first round starts.
func (m *TournamentManager) AddParticipant(ctx context.Context, playerID string) (*models.Participant, error) {
	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return nil, fmt.Errorf("%w: player id is required", ErrValidationFailed)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.tournament
	if t.IsClosed() {
		return nil, ErrTournamentComplete
	}
	if len(t.Rounds) > 0 {
		return nil, ErrRegistrationNotOpen
	}
	if t.Participant(playerID) != nil {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateParticipant, playerID)
	}

	player, err := m.deps.Roster.GetByID(ctx, playerID)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrParticipantNotInRoster, playerID)
		}
		return nil, fmt.Errorf("failed to look up player %s: %w", playerID, err)
	}

	entry := player.Entry()
	t.Participants = append(t.Participants, entry)
	m.logger.Info("participant added", "participant_id", entry.ID, "participants", len(t.Participants))

	m.notify(brackets.EventParticipantAdded, entry.Clone())
	return entry.Clone(), m.persist(ctx)
}

// StartNextRound pairs the participants for the next round and awards the
// bye point. It refuses while the latest round is open or once the configured
// rounds are exhausted. A round without matches finishes as soon as it starts.
func (m *TournamentManager) StartNextRound(ctx context.Context) (*models.Round, error) {
	m.mu.Lock()

	t := m.tournament
	if t.IsClosed() {
		m.mu.Unlock()
		return nil, ErrTournamentComplete
	}
	if latest := t.LatestRound(); latest != nil && latest.IsOpen() {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: %s still has %d open matches", ErrRoundNotReady, latest.Name, latest.OpenMatches())
	}
	if t.CurrentRound >= t.NumRounds {
		m.mu.Unlock()
		return nil, ErrTournamentComplete
	}

	number := t.CurrentRound + 1
	pairing, err := m.deps.Generator.GeneratePairings(ctx, brackets.GeneratePairingsParams{
		RoundNumber:  number,
		Participants: t.Participants,
		PlayedPairs:  t.PlayedPairs(),
		Random:       m.deps.Random,
	})
	if err != nil {
		m.mu.Unlock()
		if errors.Is(err, ErrPairingImpossible) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrPairingImpossible, err)
	}

	now := m.deps.Clock()
	round := models.NewRound(number, now)
	round.Matches = pairing.Matches
	for _, bye := range pairing.Byes {
		p := t.Participant(bye.ID)
		if p == nil {
			continue
		}
		p.AddPoints(1)
		round.ByeIDs = append(round.ByeIDs, p.ID)
		t.ResultLog = append(t.ResultLog, fmt.Sprintf("%s : %s receives a bye (+1)", round.Name, p.String()))
	}

	t.Rounds = append(t.Rounds, round)
	t.CurrentRound = number

	m.logger.Info("round started",
		"round", number,
		"matches", len(round.Matches),
		"byes", len(round.ByeIDs),
		"forced", pairing.Forced(),
		"generator", m.deps.Generator.GetName())

	var closed *models.Tournament
	if len(round.Matches) == 0 && round.Finish(now) {
		closed = m.finishRound(round, now)
	}

	snapshot := round.Clone()
	m.notify(brackets.EventRoundStarted, snapshot)
	if closed != nil {
		m.notify(brackets.EventTournamentClosed, TournamentClosedPayload{TournamentID: t.ID, Rankings: closed.Rankings})
	}
	persistErr := m.persist(ctx)
	m.mu.Unlock()

	if closed != nil {
		m.archive(ctx, closed)
	}
	return snapshot, persistErr
}

// RecordResults applies results to the open round, one match at a time.
// Processing stops at the first rejected result; results applied before it
// are kept. Once every match is closed the round is finished, and finishing
// the last configured round closes the tournament.
func (m *TournamentManager) RecordResults(ctx context.Context, results []MatchResult) (*models.Round, error) {
	m.mu.Lock()

	t := m.tournament
	if t.IsClosed() {
		m.mu.Unlock()
		return nil, ErrTournamentComplete
	}
	round := t.LatestRound()
	if round == nil || round.IsFinished() {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: no round is in progress", ErrRoundNotReady)
	}

	applied := 0
	var resultErr error
	for _, res := range results {
		if err := m.applyResult(round, res); err != nil {
			resultErr = err
			break
		}
		applied++
	}

	now := m.deps.Clock()
	finished := round.Finish(now)
	var closed *models.Tournament
	if finished {
		closed = m.finishRound(round, now)
	}

	snapshot := round.Clone()
	var persistErr error
	if applied > 0 || finished {
		m.notify(brackets.EventResultsRecorded, ResultsRecordedPayload{TournamentID: t.ID, Round: snapshot, Applied: applied})
		if closed != nil {
			m.notify(brackets.EventTournamentClosed, TournamentClosedPayload{TournamentID: t.ID, Rankings: closed.Rankings})
		}
		persistErr = m.persist(ctx)
	}
	m.mu.Unlock()

	if closed != nil {
		m.archive(ctx, closed)
	}

	if resultErr != nil {
		return snapshot, errors.Join(resultErr, persistErr)
	}
	return snapshot, persistErr
}

// finishRound closes the tournament when round was the last configured one and
// returns a copy of the closed state, or nil.
func (m *TournamentManager) finishRound(round *models.Round, now time.Time) *models.Tournament {
	t := m.tournament
	m.logger.Info("round finished", "round", round.Number)
	if !t.IsComplete() {
		return nil
	}
	t.Close(now)
	m.logger.Info("tournament closed", "rounds", t.CurrentRound, "participants", len(t.Participants))
	return t.Clone()
}

func (m *TournamentManager) applyResult(round *models.Round, res MatchResult) error {
	t := m.tournament
	match := round.Match(res.MatchUID)
	if match == nil {
		return fmt.Errorf("%w: %q in %s", ErrMatchNotFound, res.MatchUID, round.Name)
	}
	a := t.Participant(match.PlayerAID)
	b := t.Participant(match.PlayerBID)
	if a == nil || b == nil {
		return fmt.Errorf("match %s references an unknown participant", match.UID)
	}
	if err := match.RecordScore(a, b, res.ScoreA, res.ScoreB); err != nil {
		return fmt.Errorf("match %s: %w", match.UID, err)
	}
	t.ResultLog = append(t.ResultLog, fmt.Sprintf("%s : %s", round.Name, match.Describe(a, b)))
	return nil
}

// Rankings returns the final ranking of a closed tournament.
func (m *TournamentManager) Rankings() ([]models.Ranking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.tournament.IsClosed() {
		return nil, fmt.Errorf("%w: tournament is %s", ErrRankingsUnavailable, m.tournament.Status())
	}
	return append([]models.Ranking{}, m.tournament.Rankings...), nil
}

func (m *TournamentManager) persist(ctx context.Context) error {
	if err := m.deps.Store.Save(ctx, m.tournament); err != nil {
		m.logger.Error("failed to persist tournament", "round", m.tournament.CurrentRound, "error", err)
		return fmt.Errorf("%w: %w", ErrPersistenceFailed, err)
	}
	return nil
}

func (m *TournamentManager) notify(event string, payload interface{}) {
	if m.deps.Notifier == nil {
		return
	}
	room := brackets.TournamentRoom(m.tournament.ID)
	m.deps.Notifier.BroadcastToRoom(room, brackets.WebSocketMessage{
		Type:    event,
		Payload: payload,
		RoomID:  room,
	})
}

func (m *TournamentManager) archive(ctx context.Context, closed *models.Tournament) {
	if m.deps.Archiver == nil {
		return
	}
	if err := m.deps.Archiver.Archive(ctx, closed); err != nil {
		m.logger.Warn("failed to archive closed tournament", "error", err)
		return
	}
	m.logger.Info("closed tournament archived")
}
