package brackets

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dosada05/swiss-tournament/models"
)

var ErrPairingImpossible = errors.New("pairing cannot be completed")

type SwissGenerator struct{}

func NewSwissGenerator() PairingGenerator {
	return &SwissGenerator{}
}

func (g *SwissGenerator) GetName() string {
	return "Swiss"
}

// GeneratePairings pairs the participants for one round.
//
// Round 1 is shuffled with params.Random; with an odd count the first
// participant after the shuffle sits out with a bye, the rest are paired
// (0,1), (2,3), ... in shuffled order.
//
// Later rounds walk the standings (points desc, ID asc): the top unpaired
// participant meets the first remaining one it has not played yet. When every
// remaining candidate is a rematch the top candidate is taken anyway and the
// match is flagged Forced. A single leftover gets the bye.
//
// Fewer than two participants yield an empty pairing.
func (g *SwissGenerator) GeneratePairings(ctx context.Context, params GeneratePairingsParams) (*Pairing, error) {
	if params.RoundNumber < 1 {
		return nil, fmt.Errorf("%w: invalid round number %d", ErrPairingImpossible, params.RoundNumber)
	}
	if err := checkParticipants(params.Participants); err != nil {
		return nil, err
	}

	pairing := &Pairing{Matches: []*models.Match{}}
	if len(params.Participants) < 2 {
		return pairing, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if params.RoundNumber == 1 {
		if params.Random == nil {
			return nil, fmt.Errorf("%w: random source is required for the first round", ErrPairingImpossible)
		}
		return g.firstRound(params, pairing), nil
	}
	return g.nextRound(params, pairing)
}

func (g *SwissGenerator) firstRound(params GeneratePairingsParams, pairing *Pairing) *Pairing {
	shuffled := make([]*models.Participant, len(params.Participants))
	copy(shuffled, params.Participants)
	params.Random.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	if len(shuffled)%2 != 0 {
		pairing.Byes = append(pairing.Byes, shuffled[0])
		shuffled = shuffled[1:]
	}

	for i := 0; i+1 < len(shuffled); i += 2 {
		uid := models.MatchUID(params.RoundNumber, len(pairing.Matches)+1)
		pairing.Matches = append(pairing.Matches, models.NewMatch(uid, shuffled[i], shuffled[i+1]))
	}
	return pairing
}

func (g *SwissGenerator) nextRound(params GeneratePairingsParams, pairing *Pairing) (*Pairing, error) {
	pool := make([]*models.Participant, len(params.Participants))
	copy(pool, params.Participants)
	models.SortByStanding(pool)

	played := params.PlayedPairs
	if played == nil {
		played = models.PlayedPairs{}
	}

	// Every pass removes at least one participant from the pool.
	maxPasses := len(pool)
	for passes := 0; len(pool) > 0; passes++ {
		if passes >= maxPasses {
			return nil, fmt.Errorf("%w: %d participants left unpaired", ErrPairingImpossible, len(pool))
		}

		top := pool[0]
		pool = pool[1:]

		if len(pool) == 0 {
			pairing.Byes = append(pairing.Byes, top)
			break
		}

		idx, forced := 0, true
		for i, candidate := range pool {
			if !played.Has(top.ID, candidate.ID) {
				idx, forced = i, false
				break
			}
		}

		opponent := pool[idx]
		pool = append(pool[:idx], pool[idx+1:]...)

		uid := models.MatchUID(params.RoundNumber, len(pairing.Matches)+1)
		match := models.NewMatch(uid, top, opponent)
		match.Forced = forced
		pairing.Matches = append(pairing.Matches, match)
	}
	return pairing, nil
}

func checkParticipants(participants []*models.Participant) error {
	seen := make(map[string]struct{}, len(participants))
	for i, p := range participants {
		if p == nil {
			return fmt.Errorf("%w: participant %d is nil", ErrPairingImpossible, i)
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("%w: participant %s listed twice", ErrPairingImpossible, p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	return nil
}
