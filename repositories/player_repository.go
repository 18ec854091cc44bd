package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/swiss-tournament/models"
)

type postgresPlayerRepository struct {
	db *sql.DB
}

func NewPostgresPlayerRepository(db *sql.DB) PlayerStore {
	return &postgresPlayerRepository{db: db}
}

func (r *postgresPlayerRepository) GetByID(ctx context.Context, id string) (*models.Participant, error) {
	query := `
		SELECT id, first_name, last_name, birth_date
		FROM players
		WHERE id = $1`

	p := &models.Participant{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.FirstName, &p.LastName, &p.BirthDate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to scan player %s: %w", id, err)
	}
	return p, nil
}

func (r *postgresPlayerRepository) Upsert(ctx context.Context, players []*models.Participant) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO players (id, first_name, last_name, birth_date)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			birth_date = EXCLUDED.birth_date`

	for _, p := range players {
		if err := upsertPlayer(ctx, tx, query, p); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func upsertPlayer(ctx context.Context, exec SQLExecutor, query string, p *models.Participant) error {
	if err := execOne(ctx, exec, ErrNoRowsWritten, query, p.ID, p.FirstName, p.LastName, p.BirthDate); err != nil {
		return fmt.Errorf("failed to upsert player %s: %w", p.ID, err)
	}
	return nil
}
