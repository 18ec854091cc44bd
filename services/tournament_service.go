package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Dosada05/swiss-tournament/models"
	"github.com/Dosada05/swiss-tournament/repositories"
)

type CreateTournamentInput struct {
	Name        string     `json:"name"`
	Location    string     `json:"location"`
	Description string     `json:"description"`
	StartDate   *time.Time `json:"start_date"`
	NumRounds   int        `json:"num_rounds"`
}

type TournamentService interface {
	CreateTournament(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error)
	GetTournament(ctx context.Context, id string) (*models.Tournament, error)
	ListTournaments(ctx context.Context) ([]*models.Tournament, error)
	AddParticipant(ctx context.Context, id, playerID string) (*models.Participant, error)
	StartNextRound(ctx context.Context, id string) (*models.Round, error)
	RecordResults(ctx context.Context, id string, results []MatchResult) (*models.Round, error)
	Rankings(ctx context.Context, id string) ([]models.Ranking, error)
}

type tournamentService struct {
	deps          ManagerDeps
	defaultRounds int
	newID         func() string

	mu       sync.Mutex
	managers map[string]*TournamentManager
}

// NewTournamentService keeps one TournamentManager per tournament, loading it
// from the store on first use.
func NewTournamentService(deps ManagerDeps, defaultRounds int) TournamentService {
	if defaultRounds < 1 {
		defaultRounds = models.DefaultNumRounds
	}
	return &tournamentService{
		deps:          deps.withDefaults(),
		defaultRounds: defaultRounds,
		newID:         uuid.NewString,
		managers:      make(map[string]*TournamentManager),
	}
}

func (s *tournamentService) CreateTournament(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrTournamentNameRequired
	}
	rounds := input.NumRounds
	if rounds == 0 {
		rounds = s.defaultRounds
	}
	if rounds < 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidRoundCount, rounds)
	}

	now := s.deps.Clock()
	start := now
	if input.StartDate != nil {
		start = *input.StartDate
	}
	tournament := &models.Tournament{
		ID:           s.newID(),
		Name:         name,
		Location:     strings.TrimSpace(input.Location),
		Description:  strings.TrimSpace(input.Description),
		StartDate:    start,
		NumRounds:    rounds,
		Participants: []*models.Participant{},
		Rounds:       []*models.Round{},
		CreatedAt:    now,
	}

	var persistErr error
	if err := s.deps.Store.Save(ctx, tournament); err != nil {
		if errors.Is(err, repositories.ErrTournamentNameConflict) {
			return nil, fmt.Errorf("%w: %s", ErrTournamentNameConflict, name)
		}
		s.deps.Logger.Error("failed to persist new tournament", "tournament_id", tournament.ID, "error", err)
		persistErr = fmt.Errorf("%w: %w", ErrPersistenceFailed, err)
	}

	s.mu.Lock()
	s.managers[tournament.ID] = NewTournamentManager(tournament, s.deps)
	s.mu.Unlock()

	s.deps.Logger.Info("tournament created", "tournament_id", tournament.ID, "name", name, "rounds", rounds)
	return tournament.Clone(), persistErr
}

// manager returns the live manager for id. The store is read without holding
// mu; when two callers load the same tournament the first one registered wins.
func (s *tournamentService) manager(ctx context.Context, id string) (*TournamentManager, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrTournamentNotFound
	}

	s.mu.Lock()
	m, ok := s.managers[id]
	s.mu.Unlock()
	if ok {
		return m, nil
	}

	tournament, err := s.deps.Store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrTournamentNotFound, id)
		}
		return nil, fmt.Errorf("failed to load tournament %s: %w", id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.managers[id]; ok {
		return m, nil
	}
	m = NewTournamentManager(tournament, s.deps)
	s.managers[id] = m
	return m, nil
}

func (s *tournamentService) GetTournament(ctx context.Context, id string) (*models.Tournament, error) {
	m, err := s.manager(ctx, id)
	if err != nil {
		return nil, err
	}
	return m.Snapshot(), nil
}

// ListTournaments merges the stored tournaments with the live state of the
// loaded ones, newest first.
func (s *tournamentService) ListTournaments(ctx context.Context) ([]*models.Tournament, error) {
	stored, err := s.deps.Store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}

	s.mu.Lock()
	live := make(map[string]*TournamentManager, len(s.managers))
	for id, m := range s.managers {
		live[id] = m
	}
	s.mu.Unlock()

	result := make([]*models.Tournament, 0, len(stored)+len(live))
	for _, t := range stored {
		if m, ok := live[t.ID]; ok {
			result = append(result, m.Snapshot())
			delete(live, t.ID)
			continue
		}
		result = append(result, t)
	}
	for _, m := range live {
		result = append(result, m.Snapshot())
	}

	sort.SliceStable(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (s *tournamentService) AddParticipant(ctx context.Context, id, playerID string) (*models.Participant, error) {
	m, err := s.manager(ctx, id)
	if err != nil {
		return nil, err
	}
	return m.AddParticipant(ctx, playerID)
}

func (s *tournamentService) StartNextRound(ctx context.Context, id string) (*models.Round, error) {
	m, err := s.manager(ctx, id)
	if err != nil {
		return nil, err
	}
	return m.StartNextRound(ctx)
}

func (s *tournamentService) RecordResults(ctx context.Context, id string, results []MatchResult) (*models.Round, error) {
	m, err := s.manager(ctx, id)
	if err != nil {
		return nil, err
	}
	return m.RecordResults(ctx, results)
}

func (s *tournamentService) Rankings(ctx context.Context, id string) ([]models.Ranking, error) {
	m, err := s.manager(ctx, id)
	if err != nil {
		return nil, err
	}
	return m.Rankings()
}
