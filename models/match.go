package models

import (
	"fmt"
	"strconv"
)

type MatchStatus string

const (
	MatchStatusOpen   MatchStatus = "open"
	MatchStatusClosed MatchStatus = "closed"
)

// Match is one encounter between two participants. Scores stay nil until the
// result is recorded; a closed match is never modified again.
type Match struct {
	UID       string   `json:"uid"`
	PlayerAID string   `json:"player_a_id"`
	PlayerBID string   `json:"player_b_id"`
	ScoreA    *float64 `json:"score_a,omitempty"`
	ScoreB    *float64 `json:"score_b,omitempty"`
	Forced    bool     `json:"forced,omitempty"` // pairing repeated an earlier encounter
}

func NewMatch(uid string, a, b *Participant) *Match {
	return &Match{UID: uid, PlayerAID: a.ID, PlayerBID: b.ID}
}

func (m *Match) IsClosed() bool {
	return m.ScoreA != nil && m.ScoreB != nil
}

func (m *Match) Status() MatchStatus {
	if m.IsClosed() {
		return MatchStatusClosed
	}
	return MatchStatusOpen
}

func (m *Match) Pair() PairKey {
	return NewPairKey(m.PlayerAID, m.PlayerBID)
}

// ValidateScore accepts exactly 1-0, 0-1 and 0.5-0.5.
func ValidateScore(scoreA, scoreB float64) error {
	switch {
	case scoreA == 1 && scoreB == 0,
		scoreA == 0 && scoreB == 1,
		scoreA == 0.5 && scoreB == 0.5:
		return nil
	default:
		return fmt.Errorf("%w: got %s-%s", ErrInvalidScore, formatScore(scoreA), formatScore(scoreB))
	}
}

// RecordScore closes the match and credits both participants. On error the
// match and the participants are left untouched.
func (m *Match) RecordScore(a, b *Participant, scoreA, scoreB float64) error {
	if m.IsClosed() {
		return fmt.Errorf("%w: %s", ErrMatchAlreadyClosed, m.UID)
	}
	if a == nil || b == nil || a.ID != m.PlayerAID || b.ID != m.PlayerBID {
		return fmt.Errorf("participants do not belong to match %s", m.UID)
	}
	if err := ValidateScore(scoreA, scoreB); err != nil {
		return err
	}
	m.ScoreA = &scoreA
	m.ScoreB = &scoreB
	a.AddPoints(scoreA)
	b.AddPoints(scoreB)
	return nil
}

func (m *Match) Describe(a, b *Participant) string {
	if !m.IsClosed() {
		return fmt.Sprintf("%s vs %s", a, b)
	}
	return fmt.Sprintf("%s %s - %s %s", a, formatScore(*m.ScoreA), formatScore(*m.ScoreB), b)
}

func formatScore(s float64) string {
	return strconv.FormatFloat(s, 'f', -1, 64)
}
