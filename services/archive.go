package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/swiss-tournament/models"
	"github.com/Dosada05/swiss-tournament/storage"
)

const (
	ArchiveSnapshotFile  = "final.json"
	ArchiveStandingsFile = "standings.xlsx"

	contentTypeJSON = "application/json"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	standingsSheet = "Standings"
	roundsSheet    = "Rounds"
)

type storageArchiver struct {
	uploader storage.FileUploader
	logger   *slog.Logger
}

// NewStorageArchiver uploads a closed tournament as a JSON snapshot and a
// standings workbook.
func NewStorageArchiver(uploader storage.FileUploader, logger *slog.Logger) Archiver {
	if logger == nil {
		logger = slog.Default()
	}
	return &storageArchiver{uploader: uploader, logger: logger}
}

func (a *storageArchiver) Archive(ctx context.Context, tournament *models.Tournament) error {
	snapshot, err := json.MarshalIndent(tournament, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode tournament %s: %w", tournament.ID, err)
	}
	workbook, err := BuildStandingsWorkbook(tournament)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	upload := func(file, contentType string, body []byte) func() error {
		return func() error {
			key := storage.ArchiveKey(tournament.ID, file)
			res, err := a.uploader.Upload(gctx, key, contentType, bytes.NewReader(body))
			if err != nil {
				return fmt.Errorf("failed to upload %s: %w", key, err)
			}
			a.logger.Info("archive file uploaded", "tournament_id", tournament.ID, "key", res.Key, "location", res.Location)
			return nil
		}
	}
	g.Go(upload(ArchiveSnapshotFile, contentTypeJSON, snapshot))
	g.Go(upload(ArchiveStandingsFile, contentTypeXLSX, workbook))
	return g.Wait()
}

// BuildStandingsWorkbook renders the final standings and every match into an
// xlsx workbook.
func BuildStandingsWorkbook(tournament *models.Tournament) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", standingsSheet); err != nil {
		return nil, fmt.Errorf("failed to prepare standings sheet: %w", err)
	}

	standings := [][]interface{}{{"Rank", "ID", "Name", "Points"}}
	rankings := tournament.Rankings
	if rankings == nil {
		rankings = models.ComputeRankings(tournament.Participants)
	}
	for _, r := range rankings {
		standings = append(standings, []interface{}{r.Rank, r.ParticipantID, r.Name, r.Points})
	}
	if err := writeRows(f, standingsSheet, standings); err != nil {
		return nil, err
	}

	if _, err := f.NewSheet(roundsSheet); err != nil {
		return nil, fmt.Errorf("failed to create rounds sheet: %w", err)
	}
	rounds := [][]interface{}{{"Round", "Match", "Player A", "Score A", "Score B", "Player B"}}
	for _, round := range tournament.Rounds {
		for _, m := range round.Matches {
			rounds = append(rounds, []interface{}{
				round.Number, m.UID,
				participantName(tournament, m.PlayerAID), scoreCell(m.ScoreA),
				scoreCell(m.ScoreB), participantName(tournament, m.PlayerBID),
			})
		}
		for _, id := range round.ByeIDs {
			rounds = append(rounds, []interface{}{round.Number, "bye", participantName(tournament, id), 1, "", ""})
		}
	}
	if err := writeRows(f, roundsSheet, rounds); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render standings workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func participantName(t *models.Tournament, id string) string {
	if p := t.Participant(id); p != nil {
		return p.String()
	}
	return id
}

func scoreCell(s *float64) string {
	if s == nil {
		return ""
	}
	return strconv.FormatFloat(*s, 'f', -1, 64)
}
