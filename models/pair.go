package models

// PairKey identifies an unordered pair of participants.
type PairKey struct {
	Low  string
	High string
}

func NewPairKey(a, b string) PairKey {
	if a > b {
		a, b = b, a
	}
	return PairKey{Low: a, High: b}
}

// PlayedPairs is the set of unordered pairs that already met.
type PlayedPairs map[PairKey]struct{}

func (p PlayedPairs) Add(a, b string) {
	p[NewPairKey(a, b)] = struct{}{}
}

func (p PlayedPairs) Has(a, b string) bool {
	_, ok := p[NewPairKey(a, b)]
	return ok
}
