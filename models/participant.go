package models

import (
	"fmt"
	"sort"
	"time"
)

// Participant is a player entered in a tournament. Points and Rank are
// tournament-scoped; the identity fields mirror the global roster entry.
type Participant struct {
	ID        string    `json:"id" db:"id"`
	FirstName string    `json:"first_name" db:"first_name"`
	LastName  string    `json:"last_name" db:"last_name"`
	BirthDate time.Time `json:"birth_date" db:"birth_date"`
	Points    float64   `json:"points" db:"-"`
	Rank      int       `json:"rank,omitempty" db:"-"`
}

// Entry returns a fresh tournament entry for a roster player: same identity,
// zero points, no rank.
func (p *Participant) Entry() *Participant {
	return &Participant{
		ID:        p.ID,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		BirthDate: p.BirthDate,
	}
}

func (p *Participant) FullName() string {
	return fmt.Sprintf("%s %s", p.FirstName, p.LastName)
}

func (p *Participant) String() string {
	return fmt.Sprintf("%s (%s)", p.FullName(), p.ID)
}

// AddPoints never decreases the total.
func (p *Participant) AddPoints(delta float64) {
	if delta <= 0 {
		return
	}
	p.Points += delta
}

// SortByStanding orders participants by points descending, then by ID.
// Pairing and ranking both rely on this order being total.
func SortByStanding(participants []*Participant) {
	sort.SliceStable(participants, func(i, j int) bool {
		if participants[i].Points != participants[j].Points {
			return participants[i].Points > participants[j].Points
		}
		return participants[i].ID < participants[j].ID
	})
}

// SortByName orders participants alphabetically by last then first name.
func SortByName(participants []*Participant) {
	sort.SliceStable(participants, func(i, j int) bool {
		if participants[i].LastName != participants[j].LastName {
			return participants[i].LastName < participants[j].LastName
		}
		if participants[i].FirstName != participants[j].FirstName {
			return participants[i].FirstName < participants[j].FirstName
		}
		return participants[i].ID < participants[j].ID
	})
}
