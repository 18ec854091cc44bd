package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Dosada05/swiss-tournament/models"
)

var (
	ErrPlayerNotFound         = errors.New("player not found in roster")
	ErrTournamentNotFound     = errors.New("tournament not found")
	ErrTournamentNameConflict = errors.New("tournament name already exists")
	ErrInvalidSnapshot        = errors.New("invalid tournament snapshot")
	ErrNoRowsWritten          = errors.New("write affected no rows")
)

// SQLExecutor is satisfied by both *sql.DB and *sql.Tx.
type SQLExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// PlayerRepository is the read side of the global roster.
type PlayerRepository interface {
	GetByID(ctx context.Context, id string) (*models.Participant, error)
}

// PlayerSeeder loads roster entries, used to import a roster file at startup.
type PlayerSeeder interface {
	Upsert(ctx context.Context, players []*models.Participant) error
}

type PlayerStore interface {
	PlayerRepository
	PlayerSeeder
}

// TournamentRepository persists whole tournament snapshots.
type TournamentRepository interface {
	Save(ctx context.Context, tournament *models.Tournament) error
	GetByID(ctx context.Context, id string) (*models.Tournament, error)
	List(ctx context.Context) ([]*models.Tournament, error)
}

// execOne runs a single-row write and fails with noRowsErr when nothing was
// written.
func execOne(ctx context.Context, exec SQLExecutor, noRowsErr error, query string, args ...interface{}) error {
	result, err := exec.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, noRowsErr)
}

func checkAffectedRows(result sql.Result, notFoundError error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return notFoundError
	}
	return nil
}

func encodeSnapshot(t *models.Tournament) ([]byte, error) {
	if t == nil || t.ID == "" {
		return nil, fmt.Errorf("%w: missing tournament id", ErrInvalidSnapshot)
	}
	raw, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}
	return raw, nil
}

func decodeSnapshot(raw []byte) (*models.Tournament, error) {
	var t models.Tournament
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}
	if t.ID == "" {
		return nil, fmt.Errorf("%w: missing tournament id", ErrInvalidSnapshot)
	}
	if t.Participants == nil {
		t.Participants = []*models.Participant{}
	}
	if t.Rounds == nil {
		t.Rounds = []*models.Round{}
	}
	return &t, nil
}
