package models

import "time"

// TournamentStatus is derived from the round history, it is never stored.
type TournamentStatus string

const (
	StatusRegistering       TournamentStatus = "registering"
	StatusRoundInProgress   TournamentStatus = "round_in_progress"
	StatusAwaitingNextRound TournamentStatus = "awaiting_next_round"
	StatusClosed            TournamentStatus = "closed"
)

const DefaultNumRounds = 4

// Tournament is the aggregate driven by the lifecycle manager.
type Tournament struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Location     string         `json:"location,omitempty"`
	Description  string         `json:"description,omitempty"`
	StartDate    time.Time      `json:"start_date"`
	EndDate      *time.Time     `json:"end_date,omitempty"`
	NumRounds    int            `json:"num_rounds"`
	CurrentRound int            `json:"current_round"`
	Participants []*Participant `json:"participants"`
	Rounds       []*Round       `json:"rounds"`
	Rankings     []Ranking      `json:"rankings"`
	ResultLog    []string       `json:"result_log,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

func (t *Tournament) Status() TournamentStatus {
	switch {
	case t.Rankings != nil:
		return StatusClosed
	case len(t.Rounds) == 0:
		return StatusRegistering
	case t.LatestRound().IsOpen():
		return StatusRoundInProgress
	default:
		return StatusAwaitingNextRound
	}
}

func (t *Tournament) IsClosed() bool {
	return t.Rankings != nil
}

func (t *Tournament) LatestRound() *Round {
	if len(t.Rounds) == 0 {
		return nil
	}
	return t.Rounds[len(t.Rounds)-1]
}

func (t *Tournament) Participant(id string) *Participant {
	for _, p := range t.Participants {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// PlayedPairs collects every pair that met in any round so far.
func (t *Tournament) PlayedPairs() PlayedPairs {
	played := make(PlayedPairs)
	for _, r := range t.Rounds {
		for _, m := range r.Matches {
			played.Add(m.PlayerAID, m.PlayerBID)
		}
	}
	return played
}

// IsComplete reports that the configured rounds were all played and the last
// one is finished.
func (t *Tournament) IsComplete() bool {
	if t.CurrentRound < t.NumRounds {
		return false
	}
	last := t.LatestRound()
	return last == nil || last.IsFinished()
}

// Close fixes the final ranking. It is a no-op on a closed tournament.
func (t *Tournament) Close(at time.Time) []Ranking {
	if t.Rankings != nil {
		return t.Rankings
	}
	t.Rankings = ComputeRankings(t.Participants)
	for _, r := range t.Rankings {
		if p := t.Participant(r.ParticipantID); p != nil {
			p.Rank = r.Rank
		}
	}
	t.EndDate = &at
	return t.Rankings
}
