package models

import (
	"fmt"
	"time"
)

// Round is one stage of the tournament. It is open until every match is
// closed and EndedAt is set.
type Round struct {
	Number    int        `json:"number"`
	Name      string     `json:"name"`
	Matches   []*Match   `json:"matches"`
	ByeIDs    []string   `json:"bye_ids,omitempty"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

func NewRound(number int, startedAt time.Time) *Round {
	return &Round{
		Number:    number,
		Name:      fmt.Sprintf("Round %d", number),
		Matches:   []*Match{},
		StartedAt: startedAt,
	}
}

// MatchUID builds the identifier of the n-th (1-based) match of a round.
func MatchUID(roundNumber, order int) string {
	return fmt.Sprintf("R%dM%d", roundNumber, order)
}

func (r *Round) AllMatchesClosed() bool {
	for _, m := range r.Matches {
		if !m.IsClosed() {
			return false
		}
	}
	return true
}

func (r *Round) IsFinished() bool {
	return r.EndedAt != nil && r.AllMatchesClosed()
}

func (r *Round) IsOpen() bool {
	return !r.IsFinished()
}

func (r *Round) OpenMatches() int {
	n := 0
	for _, m := range r.Matches {
		if !m.IsClosed() {
			n++
		}
	}
	return n
}

func (r *Round) Match(uid string) *Match {
	for _, m := range r.Matches {
		if m.UID == uid {
			return m
		}
	}
	return nil
}

// Finish stamps the end time once every match is closed. It reports whether
// the round is finished afterwards.
func (r *Round) Finish(at time.Time) bool {
	if r.EndedAt != nil {
		return true
	}
	if !r.AllMatchesClosed() {
		return false
	}
	r.EndedAt = &at
	return true
}
