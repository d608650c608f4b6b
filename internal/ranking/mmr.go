package ranking

import "strings"

// Diversify applies Maximal Marginal Relevance over the already
// tie-broken, descending-sorted results:
//
//	mmr(c) = lambda*final(c) - (1-lambda)*max(sim(path(c), path(s)) for s in selected)
//
// path similarity is the longest-common-prefix fraction of path
// components, so results from the same directory (or especially the
// same file) get penalized for redundancy relative to what's already
// selected. MaxPerFile caps how many results from one file survive
// regardless of score.
func Diversify(results []*Scored, cfg DiversificationConfig) []*Scored {
	if !cfg.Enabled || len(results) <= 1 || allSamePath(results) {
		return results
	}

	selected := make([]*Scored, 0, len(results))
	perFile := make(map[string]int)
	remaining := append([]*Scored(nil), results...)

	for len(remaining) > 0 {
		bestIdx := -1
		bestMMR := -1e18
		for i, cand := range remaining {
			if cfg.MaxPerFile > 0 && perFile[cand.FilePath] >= cfg.MaxPerFile {
				continue
			}
			maxSim := 0.0
			for _, s := range selected {
				if sim := pathSimilarity(cand.FilePath, s.FilePath); sim > maxSim {
					maxSim = sim
				}
			}
			mmr := cfg.Lambda*cand.FinalScore - (1-cfg.Lambda)*maxSim
			if mmr > bestMMR {
				bestMMR = mmr
				bestIdx = i
			}
		}
		if bestIdx == -1 {
			// every remaining candidate is capped out by MaxPerFile; stop.
			break
		}
		chosen := remaining[bestIdx]
		maxSim := 0.0
		for _, s := range selected {
			if sim := pathSimilarity(chosen.FilePath, s.FilePath); sim > maxSim {
				maxSim = sim
			}
		}
		chosen.DiversityPenalty = (1 - cfg.Lambda) * maxSim
		chosen.FinalScore = cfg.Lambda*chosen.FinalScore - chosen.DiversityPenalty
		selected = append(selected, chosen)
		perFile[chosen.FilePath]++
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}

	return selected
}

// allSamePath reports whether every result shares one file path, the
// other Stage E skip condition besides single-result and disabled.
func allSamePath(results []*Scored) bool {
	for i := 1; i < len(results); i++ {
		if results[i].FilePath != results[0].FilePath {
			return false
		}
	}
	return true
}

// pathSimilarity is the fraction of leading path components two paths
// share, e.g. "a/b/c.go" vs "a/b/d.go" -> 2/3.
func pathSimilarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	partsA := strings.Split(a, "/")
	partsB := strings.Split(b, "/")
	common := 0
	for i := 0; i < len(partsA) && i < len(partsB); i++ {
		if partsA[i] != partsB[i] {
			break
		}
		common++
	}
	maxLen := len(partsA)
	if len(partsB) > maxLen {
		maxLen = len(partsB)
	}
	if maxLen == 0 {
		return 0
	}
	return float64(common) / float64(maxLen)
}
