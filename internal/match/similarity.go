// Package match scores how alike two short phrases are. Every fuzzy decision
// in the assistant (wake word, predefined answers, capability triggers) goes
// through Ratio.
package match

// Result is the outcome of a best-candidate search. Key is empty when nothing
// was found.
type Result struct {
	Key   string
	Score float64
}

// Found reports whether the search produced a candidate.
func (r Result) Found() bool {
	return r.Key != ""
}

// Ratio returns 2*M/T where M is the number of runes in the matching blocks of
// a and b and T is the combined rune count. Matching blocks are found by taking
// the longest common substring and recursing on both sides of it.
//
// Two empty strings are identical (1). One empty string matches nothing (0).
// Block selection depends on argument order when several longest blocks tie,
// so both orders are computed and the larger count is used.
func Ratio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)

	total := len(ra) + len(rb)
	if total == 0 {
		return 1
	}
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}

	m := matchingRunes(ra, rb)
	if m2 := matchingRunes(rb, ra); m2 > m {
		m = m2
	}

	return 2 * float64(m) / float64(total)
}

// Best returns the candidate with the highest Ratio against query. The first
// candidate wins ties. Empty candidates are skipped.
func Best(query string, candidates []string) Result {
	var best Result
	for _, c := range candidates {
		if c == "" {
			continue
		}
		s := Ratio(query, c)
		if !best.Found() || s > best.Score {
			best = Result{Key: c, Score: s}
		}
	}

	return best
}

type span struct {
	alo, ahi int
	blo, bhi int
}

func matchingRunes(a, b []rune) int {
	var (
		total int
		queue = []span{{0, len(a), 0, len(b)}}
	)

	for len(queue) > 0 {
		s := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		i, j, k := longestMatch(a, b, s)
		if k == 0 {
			continue
		}
		total += k

		if s.alo < i && s.blo < j {
			queue = append(queue, span{s.alo, i, s.blo, j})
		}
		if i+k < s.ahi && j+k < s.bhi {
			queue = append(queue, span{i + k, s.ahi, j + k, s.bhi})
		}
	}

	return total
}

// longestMatch finds the longest common block of a[alo:ahi] and b[blo:bhi].
// Among equal blocks the one starting earliest in a, then earliest in b, wins.
func longestMatch(a, b []rune, s span) (besti, bestj, bestk int) {
	besti, bestj = s.alo, s.blo

	width := s.bhi - s.blo
	prev := make([]int, width+1)
	cur := make([]int, width+1)

	for i := s.alo; i < s.ahi; i++ {
		for j := s.blo; j < s.bhi; j++ {
			col := j - s.blo + 1
			if a[i] != b[j] {
				cur[col] = 0
				continue
			}

			k := prev[col-1] + 1
			cur[col] = k
			if k > bestk {
				besti, bestj, bestk = i-k+1, j-k+1, k
			}
		}
		prev, cur = cur, prev
	}

	return besti, bestj, bestk
}
