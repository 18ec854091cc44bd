package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Dosada05/swiss-tournament/models"
	"github.com/Dosada05/swiss-tournament/services"
)

type TournamentHandler struct {
	tournamentService services.TournamentService
}

func NewTournamentHandler(ts services.TournamentService) *TournamentHandler {
	return &TournamentHandler{
		tournamentService: ts,
	}
}

type tournamentSummary struct {
	ID           string                  `json:"id"`
	Name         string                  `json:"name"`
	Location     string                  `json:"location,omitempty"`
	Status       models.TournamentStatus `json:"status"`
	StartDate    time.Time               `json:"start_date"`
	EndDate      *time.Time              `json:"end_date,omitempty"`
	NumRounds    int                     `json:"num_rounds"`
	CurrentRound int                     `json:"current_round"`
	Participants int                     `json:"participants"`
}

type tournamentDetails struct {
	*models.Tournament
	Status    models.TournamentStatus `json:"status"`
	Standings []models.Ranking        `json:"standings"`
}

func summarize(t *models.Tournament) tournamentSummary {
	return tournamentSummary{
		ID:           t.ID,
		Name:         t.Name,
		Location:     t.Location,
		Status:       t.Status(),
		StartDate:    t.StartDate,
		EndDate:      t.EndDate,
		NumRounds:    t.NumRounds,
		CurrentRound: t.CurrentRound,
		Participants: len(t.Participants),
	}
}

func tournamentIDFromURL(r *http.Request) (string, error) {
	id := strings.TrimSpace(chi.URLParam(r, "tournamentID"))
	if id == "" {
		return "", errors.New("missing tournament id in URL")
	}
	return id, nil
}

// ListHandler handles GET /tournaments
func (h *TournamentHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	tournaments, err := h.tournamentService.ListTournaments(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	summaries := make([]tournamentSummary, 0, len(tournaments))
	for _, t := range tournaments {
		summaries = append(summaries, summarize(t))
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournaments": summaries}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// CreateHandler handles POST /tournaments
func (h *TournamentHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	var input services.CreateTournamentInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.CreateTournament(r.Context(), input)
	if tournament == nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeResult(w, r, http.StatusCreated, "tournament", tournament, err)
}

// GetByIDHandler handles GET /tournaments/{tournamentID}
func (h *TournamentHandler) GetByIDHandler(w http.ResponseWriter, r *http.Request) {
	id, err := tournamentIDFromURL(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.GetTournament(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	details := tournamentDetails{
		Tournament: tournament,
		Status:     tournament.Status(),
		Standings:  models.ComputeRankings(tournament.Participants),
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": details}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListParticipantsHandler handles GET /tournaments/{tournamentID}/participants
func (h *TournamentHandler) ListParticipantsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := tournamentIDFromURL(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.GetTournament(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	participants := tournament.Participants
	models.SortByName(participants)
	if err := writeJSON(w, http.StatusOK, jsonResponse{"participants": participants}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type addParticipantInput struct {
	PlayerID string `json:"player_id"`
}

// AddParticipantHandler handles POST /tournaments/{tournamentID}/participants
func (h *TournamentHandler) AddParticipantHandler(w http.ResponseWriter, r *http.Request) {
	id, err := tournamentIDFromURL(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input addParticipantInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	participant, err := h.tournamentService.AddParticipant(r.Context(), id, input.PlayerID)
	if participant == nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeResult(w, r, http.StatusCreated, "participant", participant, err)
}

// StartRoundHandler handles POST /tournaments/{tournamentID}/rounds
func (h *TournamentHandler) StartRoundHandler(w http.ResponseWriter, r *http.Request) {
	id, err := tournamentIDFromURL(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	round, err := h.tournamentService.StartNextRound(r.Context(), id)
	if round == nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeResult(w, r, http.StatusCreated, "round", round, err)
}

type recordResultsInput struct {
	Results []services.MatchResult `json:"results"`
}

// RecordResultsHandler handles POST /tournaments/{tournamentID}/rounds/current/results
func (h *TournamentHandler) RecordResultsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := tournamentIDFromURL(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input recordResultsInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	for _, res := range input.Results {
		if strings.TrimSpace(res.MatchUID) == "" {
			badRequestResponse(w, r, errors.New("every result needs a match_uid"))
			return
		}
	}

	round, err := h.tournamentService.RecordResults(r.Context(), id, input.Results)
	if round == nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeResult(w, r, http.StatusOK, "round", round, err)
}

// RankingsHandler handles GET /tournaments/{tournamentID}/rankings
func (h *TournamentHandler) RankingsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := tournamentIDFromURL(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	rankings, err := h.tournamentService.Rankings(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"rankings": rankings}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
