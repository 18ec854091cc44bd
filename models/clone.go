package models

import "time"

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneScore(s *float64) *float64 {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func (p *Participant) Clone() *Participant {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

func (m *Match) Clone() *Match {
	if m == nil {
		return nil
	}
	c := *m
	c.ScoreA = cloneScore(m.ScoreA)
	c.ScoreB = cloneScore(m.ScoreB)
	return &c
}

func (r *Round) Clone() *Round {
	if r == nil {
		return nil
	}
	c := *r
	c.Matches = make([]*Match, len(r.Matches))
	for i, m := range r.Matches {
		c.Matches[i] = m.Clone()
	}
	if r.ByeIDs != nil {
		c.ByeIDs = append([]string(nil), r.ByeIDs...)
	}
	c.EndedAt = cloneTime(r.EndedAt)
	return &c
}

// Clone returns a deep copy that shares no mutable state with t.
func (t *Tournament) Clone() *Tournament {
	if t == nil {
		return nil
	}
	c := *t
	c.EndDate = cloneTime(t.EndDate)
	c.Participants = make([]*Participant, len(t.Participants))
	for i, p := range t.Participants {
		c.Participants[i] = p.Clone()
	}
	c.Rounds = make([]*Round, len(t.Rounds))
	for i, r := range t.Rounds {
		c.Rounds[i] = r.Clone()
	}
	if t.Rankings != nil {
		c.Rankings = append([]Ranking{}, t.Rankings...)
	}
	if t.ResultLog != nil {
		c.ResultLog = append([]string(nil), t.ResultLog...)
	}
	return &c
}
