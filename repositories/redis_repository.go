package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/Dosada05/swiss-tournament/models"
)

const (
	redisTournamentIndex = "tournaments"
	redisTournamentNames = "tournaments:names"
)

func redisPlayerKey(id string) string     { return "player:" + strings.TrimSpace(id) }
func redisTournamentKey(id string) string { return "tournament:" + strings.TrimSpace(id) }

type redisPlayerRepository struct{ rdb *redis.Client }

type redisTournamentRepository struct{ rdb *redis.Client }

func NewRedisPlayerRepository(rdb *redis.Client) PlayerStore {
	return &redisPlayerRepository{rdb: rdb}
}

func NewRedisTournamentRepository(rdb *redis.Client) TournamentRepository {
	return &redisTournamentRepository{rdb: rdb}
}

func (r *redisPlayerRepository) GetByID(ctx context.Context, id string) (*models.Participant, error) {
	raw, err := r.rdb.Get(ctx, redisPlayerKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrPlayerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load player %s: %w", id, err)
	}
	var p models.Participant
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("failed to decode player %s: %w", id, err)
	}
	return p.Entry(), nil
}

func (r *redisPlayerRepository) Upsert(ctx context.Context, players []*models.Participant) error {
	pipe := r.rdb.TxPipeline()
	for _, p := range players {
		if p == nil {
			continue
		}
		raw, err := json.Marshal(p.Entry())
		if err != nil {
			return err
		}
		pipe.Set(ctx, redisPlayerKey(p.ID), raw, 0)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to upsert players: %w", err)
	}
	return nil
}

// Save stores the snapshot and claims the tournament name in a hash so two
// tournaments cannot share a name.
func (r *redisTournamentRepository) Save(ctx context.Context, t *models.Tournament) error {
	raw, err := encodeSnapshot(t)
	if err != nil {
		return err
	}

	claimed, err := r.rdb.HSetNX(ctx, redisTournamentNames, t.Name, t.ID).Result()
	if err != nil {
		return fmt.Errorf("failed to claim tournament name: %w", err)
	}
	if !claimed {
		owner, err := r.rdb.HGet(ctx, redisTournamentNames, t.Name).Result()
		if err != nil {
			return fmt.Errorf("failed to check tournament name: %w", err)
		}
		if owner != t.ID {
			return ErrTournamentNameConflict
		}
	}

	pipe := r.rdb.TxPipeline()
	pipe.Set(ctx, redisTournamentKey(t.ID), raw, 0)
	pipe.ZAdd(ctx, redisTournamentIndex, redis.Z{Score: float64(t.CreatedAt.UnixNano()), Member: t.ID})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save tournament %s: %w", t.ID, err)
	}
	return nil
}

func (r *redisTournamentRepository) GetByID(ctx context.Context, id string) (*models.Tournament, error) {
	raw, err := r.rdb.Get(ctx, redisTournamentKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrTournamentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load tournament %s: %w", id, err)
	}
	return decodeSnapshot(raw)
}

func (r *redisTournamentRepository) List(ctx context.Context) ([]*models.Tournament, error) {
	ids, err := r.rdb.ZRevRange(ctx, redisTournamentIndex, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}

	tournaments := make([]*models.Tournament, 0, len(ids))
	for _, id := range ids {
		t, err := r.GetByID(ctx, id)
		if errors.Is(err, ErrTournamentNotFound) {
			continue
		}
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
