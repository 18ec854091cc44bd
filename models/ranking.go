package models

// Ranking is one line of the final standings.
type Ranking struct {
	Rank          int     `json:"rank"`
	ParticipantID string  `json:"participant_id"`
	Name          string  `json:"name"`
	Points        float64 `json:"points"`
}

// ComputeRankings orders participants by points descending with ties broken
// by participant ID, and numbers them from 1. The input slice is not modified.
func ComputeRankings(participants []*Participant) []Ranking {
	sorted := make([]*Participant, 0, len(participants))
	for _, p := range participants {
		if p != nil {
			sorted = append(sorted, p)
		}
	}
	SortByStanding(sorted)

	rankings := make([]Ranking, len(sorted))
	for i, p := range sorted {
		rankings[i] = Ranking{
			Rank:          i + 1,
			ParticipantID: p.ID,
			Name:          p.FullName(),
			Points:        p.Points,
		}
	}
	return rankings
}
