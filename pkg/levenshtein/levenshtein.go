// Package levenshtein computes edit distances between short strings and
// picks the closest known word for "did you mean" hints.
package levenshtein

// Distance returns the minimum number of single-rune insertions, deletions
// and substitutions turning a into b. It keeps two rows of the edit matrix.
func Distance(a, b string) int {
	src, dst := []rune(a), []rune(b)
	if len(src) < len(dst) {
		src, dst = dst, src
	}

	prev := make([]int, len(dst)+1)
	curr := make([]int, len(dst)+1)

	for j := range prev {
		prev[j] = j
	}

	for i, sr := range src {
		curr[0] = i + 1

		for j, dr := range dst {
			cost := 1
			if sr == dr {
				cost = 0
			}

			curr[j+1] = min(prev[j+1]+1, curr[j]+1, prev[j]+cost)
		}

		prev, curr = curr, prev
	}

	return prev[len(dst)]
}

// Closest returns the candidate nearest to word, or "" when every candidate
// is more than maxDistance edits away. Ties go to the earlier candidate.
func Closest(word string, candidates []string, maxDistance int) string {
	best, bestDistance := "", maxDistance+1

	for _, candidate := range candidates {
		d := Distance(word, candidate)
		if d < bestDistance {
			best, bestDistance = candidate, d
		}
	}

	return best
}
