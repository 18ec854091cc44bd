package brackets

import (
	"context"

	"github.com/Dosada05/swiss-tournament/models"
)

type GeneratePairingsParams struct {
	RoundNumber  int
	Participants []*models.Participant
	PlayedPairs  models.PlayedPairs
	Random       RandomSource
}

// Pairing is the outcome of one pairing pass. Byes are reported, not awarded:
// the caller credits the bye point.
type Pairing struct {
	Matches []*models.Match
	Byes    []*models.Participant
}

// Forced counts matches that repeat an earlier encounter.
func (p *Pairing) Forced() int {
	n := 0
	for _, m := range p.Matches {
		if m.Forced {
			n++
		}
	}
	return n
}

type PairingGenerator interface {
	GeneratePairings(ctx context.Context, params GeneratePairingsParams) (*Pairing, error)

	GetName() string
}
