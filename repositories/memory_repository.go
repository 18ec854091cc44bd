package repositories

import (
	"context"
	"sort"
	"sync"

	"github.com/Dosada05/swiss-tournament/models"
)

// memoryStore is an in-process roster and tournament store, used when no
// database is configured. Snapshots are stored encoded so callers never share
// pointers with the store.
type memoryStore struct {
	mu          sync.RWMutex
	players     map[string]models.Participant
	tournaments map[string][]byte
	order       []string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		players:     make(map[string]models.Participant),
		tournaments: make(map[string][]byte),
	}
}

type memoryPlayerRepository struct{ store *memoryStore }

type memoryTournamentRepository struct{ store *memoryStore }

// NewMemoryRepositories returns a roster and a tournament repository backed by
// the same in-memory store.
func NewMemoryRepositories() (PlayerStore, TournamentRepository) {
	s := newMemoryStore()
	return &memoryPlayerRepository{store: s}, &memoryTournamentRepository{store: s}
}

func (r *memoryPlayerRepository) GetByID(ctx context.Context, id string) (*models.Participant, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	p, ok := r.store.players[id]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	return &p, nil
}

func (r *memoryPlayerRepository) Upsert(ctx context.Context, players []*models.Participant) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, p := range players {
		if p == nil {
			continue
		}
		r.store.players[p.ID] = *p.Entry()
	}
	return nil
}

func (r *memoryTournamentRepository) Save(ctx context.Context, t *models.Tournament) error {
	raw, err := encodeSnapshot(t)
	if err != nil {
		return err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for id, existing := range r.store.tournaments {
		if id == t.ID {
			continue
		}
		other, err := decodeSnapshot(existing)
		if err == nil && other.Name == t.Name {
			return ErrTournamentNameConflict
		}
	}
	if _, ok := r.store.tournaments[t.ID]; !ok {
		r.store.order = append(r.store.order, t.ID)
	}
	r.store.tournaments[t.ID] = raw
	return nil
}

func (r *memoryTournamentRepository) GetByID(ctx context.Context, id string) (*models.Tournament, error) {
	r.store.mu.RLock()
	raw, ok := r.store.tournaments[id]
	r.store.mu.RUnlock()
	if !ok {
		return nil, ErrTournamentNotFound
	}
	return decodeSnapshot(raw)
}

func (r *memoryTournamentRepository) List(ctx context.Context) ([]*models.Tournament, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	tournaments := make([]*models.Tournament, 0, len(r.store.order))
	for _, id := range r.store.order {
		t, err := decodeSnapshot(r.store.tournaments[id])
		if err != nil {
			return nil, err
		}
		tournaments = append(tournaments, t)
	}
	sort.SliceStable(tournaments, func(i, j int) bool {
		return tournaments[i].CreatedAt.After(tournaments[j].CreatedAt)
	})
	return tournaments, nil
}
