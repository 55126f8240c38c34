package planner

import (
	"sort"

	"github.com/rs/zerolog/log"
)

// FilterByConfidence keeps candidates at or above threshold. When that leaves
// fewer than minSuggestions, the top minSuggestions candidates by confidence
// are kept instead; when there are not even that many candidates, all are
// returned unfiltered.
func FilterByConfidence(candidates []TransferCandidate, threshold float64, minSuggestions int) []TransferCandidate {
	if len(candidates) == 0 {
		return candidates
	}

	var kept []TransferCandidate
	for _, c := range candidates {
		if c.Confidence >= threshold {
			kept = append(kept, c)
		}
	}

	if len(kept) >= minSuggestions {
		log.Info().Int("kept", len(kept)).Int("total", len(candidates)).
			Float64("threshold", threshold).Msg("confidence filter applied")
		return kept
	}

	if len(candidates) >= minSuggestions {
		ranked := append([]TransferCandidate(nil), candidates...)
		sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Confidence > ranked[j].Confidence })
		log.Info().Int("kept", minSuggestions).Int("total", len(candidates)).
			Msg("confidence filter fell back to top candidates")
		return ranked[:minSuggestions]
	}

	return candidates
}
