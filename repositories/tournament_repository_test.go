package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/swiss-tournament/models"
)

func sampleTournament() *models.Tournament {
	a := &models.Participant{ID: "AB00001", FirstName: "Ada", LastName: "Byron", Points: 1}
	b := &models.Participant{ID: "AB00002", FirstName: "Bob", LastName: "Hill"}
	r := models.NewRound(1, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	m := models.NewMatch(models.MatchUID(1, 1), a, b)
	one, zero := 1.0, 0.0
	m.ScoreA, m.ScoreB = &one, &zero
	r.Matches = append(r.Matches, m)

	return &models.Tournament{
		ID:           "9b2f7c1e-0000-4000-8000-000000000001",
		Name:         "Spring Open",
		NumRounds:    4,
		CurrentRound: 1,
		Participants: []*models.Participant{a, b},
		Rounds:       []*models.Round{r},
		CreatedAt:    time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC),
	}
}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestPostgresTournamentSave(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresTournamentRepository(db)
	tr := sampleTournament()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO tournaments")).
		WithArgs(tr.ID, tr.Name, string(models.StatusRoundInProgress), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Save(context.Background(), tr))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTournamentSaveNameConflict(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresTournamentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO tournaments")).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "tournaments_name_key"})

	err := repo.Save(context.Background(), sampleTournament())
	assert.ErrorIs(t, err, ErrTournamentNameConflict)
}

func TestPostgresTournamentSaveNoRowsWritten(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresTournamentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO tournaments")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Save(context.Background(), sampleTournament())
	assert.ErrorIs(t, err, ErrNoRowsWritten)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTournamentSaveRejectsMissingID(t *testing.T) {
	db, _ := newMock(t)
	err := NewPostgresTournamentRepository(db).Save(context.Background(), &models.Tournament{Name: "x"})
	assert.ErrorIs(t, err, ErrInvalidSnapshot)
}

func TestPostgresTournamentGetByID(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresTournamentRepository(db)
	tr := sampleTournament()
	raw, err := json.Marshal(tr)
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT snapshot FROM tournaments WHERE id = $1")).
		WithArgs(tr.ID).
		WillReturnRows(sqlmock.NewRows([]string{"snapshot"}).AddRow(raw))

	got, err := repo.GetByID(context.Background(), tr.ID)
	require.NoError(t, err)
	assert.Equal(t, tr.Name, got.Name)
	require.Len(t, got.Rounds, 1)
	require.Len(t, got.Rounds[0].Matches, 1)
	assert.True(t, got.Rounds[0].Matches[0].IsClosed())
	assert.Equal(t, 1.0, got.Participant("AB00001").Points)
	assert.Nil(t, got.Rankings)
}

func TestPostgresTournamentGetByIDNotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT snapshot FROM tournaments")).
		WillReturnError(sql.ErrNoRows)

	_, err := NewPostgresTournamentRepository(db).GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrTournamentNotFound)
}

func TestPostgresTournamentList(t *testing.T) {
	db, mock := newMock(t)
	first := sampleTournament()
	second := sampleTournament()
	second.ID = "9b2f7c1e-0000-4000-8000-000000000002"
	second.Name = "Autumn Open"
	raw1, _ := json.Marshal(first)
	raw2, _ := json.Marshal(second)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT snapshot FROM tournaments ORDER BY")).
		WillReturnRows(sqlmock.NewRows([]string{"snapshot"}).AddRow(raw1).AddRow(raw2))

	list, err := NewPostgresTournamentRepository(db).List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Autumn Open", list[1].Name)
}

func TestPostgresPlayerGetByID(t *testing.T) {
	db, mock := newMock(t)
	birth := time.Date(1990, 5, 17, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, first_name, last_name, birth_date")).
		WithArgs("AB00001").
		WillReturnRows(sqlmock.NewRows([]string{"id", "first_name", "last_name", "birth_date"}).
			AddRow("AB00001", "Ada", "Byron", birth))

	p, err := NewPostgresPlayerRepository(db).GetByID(context.Background(), "AB00001")
	require.NoError(t, err)
	assert.Equal(t, "Ada Byron", p.FullName())
	assert.Equal(t, birth, p.BirthDate)
	assert.Zero(t, p.Points)
}

func TestPostgresPlayerNotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, first_name")).WillReturnError(sql.ErrNoRows)

	_, err := NewPostgresPlayerRepository(db).GetByID(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestPostgresPlayerUpsert(t *testing.T) {
	db, mock := newMock(t)
	players := []*models.Participant{{ID: "A"}, {ID: "B"}}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO players")).WithArgs("A", "", "", time.Time{}).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO players")).WithArgs("B", "", "", time.Time{}).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, NewPostgresPlayerRepository(db).Upsert(context.Background(), players))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresPlayerUpsertRollsBackWhenNothingWritten(t *testing.T) {
	db, mock := newMock(t)
	players := []*models.Participant{{ID: "A"}, {ID: "B"}}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO players")).WithArgs("A", "", "", time.Time{}).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO players")).WithArgs("B", "", "", time.Time{}).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := NewPostgresPlayerRepository(db).Upsert(context.Background(), players)
	assert.ErrorIs(t, err, ErrNoRowsWritten)
	assert.Contains(t, err.Error(), "player B")
	require.NoError(t, mock.ExpectationsWereMet())
}
