package selection

import (
	"fmt"
	"sort"

	"github.com/delorean-quant/delorean/internal/contracts"
	"github.com/delorean-quant/delorean/internal/strategyconfig"
	"github.com/delorean-quant/delorean/pkg/logger"
)

// unranked is the rank assigned to held instruments with no score today.
// Always outside any buffer, so they become drop candidates first.
const unranked = 1 << 30

// Selector decides the daily held set from smoothed scores using a
// top-K-plus-buffer rule with a swap cap. This is the anti-churn core:
// a held instrument is retained unconditionally while it ranks within
// TopK+Buffer, and swaps are rationed even when several signals fire at
// once.
type Selector struct {
	cfg    strategyconfig.Selection
	logger *logger.Logger
}

// Ranked is one instrument with its cross-sectional rank (1 = best).
type Ranked struct {
	Symbol string
	Score  float64
	Rank   int
}

// Decision is the outcome of one selection step.
type Decision struct {
	Held     contracts.HeldSet
	Adds     []string
	Drops    []string
	Rankings []Ranked
}

// NewSelector creates a selector from validated config.
func NewSelector(cfg strategyconfig.Selection, log *logger.Logger) *Selector {
	return &Selector{cfg: cfg, logger: log}
}

// Rank orders instruments by smoothed score descending. Ties break by
// symbol ascending so identical inputs always produce identical output.
func Rank(scores map[string]float64) []Ranked {
	ranked := make([]Ranked, 0, len(scores))
	for symbol, score := range scores {
		ranked = append(ranked, Ranked{Symbol: symbol, Score: score})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Symbol < ranked[j].Symbol
	})

	for i := range ranked {
		ranked[i].Rank = i + 1
	}

	return ranked
}

// Select computes today's held set from today's smoothed scores and
// yesterday's held set. On the first call (empty prev) the held set
// bootstraps to the Top-K with no swap limit.
func (s *Selector) Select(scores map[string]float64, prev contracts.HeldSet) (*Decision, error) {
	if len(scores) == 0 && len(prev) == 0 {
		return nil, fmt.Errorf("no scores and no prior holdings: nothing to select from")
	}

	rankings := Rank(scores)
	rankOf := make(map[string]int, len(rankings))
	for _, r := range rankings {
		rankOf[r.Symbol] = r.Rank
	}

	// Bootstrap: take the Top-K outright.
	if len(prev) == 0 {
		n := s.cfg.TopK
		if n > len(rankings) {
			n = len(rankings)
		}
		held := make(contracts.HeldSet, 0, n)
		adds := make([]string, 0, n)
		for _, r := range rankings[:n] {
			held = append(held, r.Symbol)
			adds = append(adds, r.Symbol)
		}
		return &Decision{Held: held, Adds: adds, Rankings: rankings}, nil
	}

	limit := s.cfg.TopK + s.cfg.Buffer

	// Held instruments outside TopK+Buffer are drop candidates, worst
	// ranked first. Everything inside the buffer is retained.
	dropCandidates := make([]string, 0, len(prev))
	for _, symbol := range prev {
		rank, found := rankOf[symbol]
		if !found {
			rank = unranked
		}
		if rank > limit {
			dropCandidates = append(dropCandidates, symbol)
		}
	}
	sort.Slice(dropCandidates, func(i, j int) bool {
		ri, rj := rankAt(rankOf, dropCandidates[i]), rankAt(rankOf, dropCandidates[j])
		if ri != rj {
			return ri > rj
		}
		return dropCandidates[i] < dropCandidates[j]
	})

	// Non-held instruments within TopK are add candidates, best first.
	addCandidates := make([]string, 0, s.cfg.TopK)
	for _, r := range rankings {
		if r.Rank > s.cfg.TopK {
			break
		}
		if !prev.Contains(r.Symbol) {
			addCandidates = append(addCandidates, r.Symbol)
		}
	}

	// Ration swaps: a swap is one drop paired with one add. Unpaired
	// adds (refilling a below-capacity set) consume budget too.
	numDrops := min(len(dropCandidates), s.cfg.MaxSwapsPerDay)
	freeSlots := s.cfg.TopK - (len(prev) - numDrops)
	numAdds := min(len(addCandidates), s.cfg.MaxSwapsPerDay)
	if numAdds > freeSlots {
		numAdds = max(freeSlots, 0)
	}

	drops := dropCandidates[:numDrops]
	adds := addCandidates[:numAdds]

	dropped := make(map[string]bool, numDrops)
	for _, symbol := range drops {
		dropped[symbol] = true
	}

	held := make(contracts.HeldSet, 0, len(prev)-numDrops+numAdds)
	for _, symbol := range prev {
		if !dropped[symbol] {
			held = append(held, symbol)
		}
	}
	held = append(held, adds...)

	// Order by today's rank so downstream output is stable; unranked
	// retained members go last.
	sort.Slice(held, func(i, j int) bool {
		ri, rj := rankAt(rankOf, held[i]), rankAt(rankOf, held[j])
		if ri != rj {
			return ri < rj
		}
		return held[i] < held[j]
	})

	if len(held) > limit {
		// Cannot happen while the swap math above holds; guard anyway.
		return nil, fmt.Errorf("held set size %d exceeds topk+buffer %d", len(held), limit)
	}

	if len(adds) > 0 || len(drops) > 0 {
		s.logger.WithFields(map[string]interface{}{
			"adds":  adds,
			"drops": drops,
			"held":  len(held),
		}).Debug("Held set updated")
	}

	return &Decision{Held: held, Adds: adds, Drops: drops, Rankings: rankings}, nil
}

func rankAt(rankOf map[string]int, symbol string) int {
	if r, found := rankOf[symbol]; found {
		return r
	}
	return unranked
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
