package classify

import (
	"strings"

	"github.com/hbollon/go-edlib"
)

// PartialRatio scores how well the shorter of a and b fits somewhere inside
// the longer one. The result is the best indel similarity, in [0,1], between
// the shorter string and every window of the longer string of the same
// length, including windows that hang over either end. Empty input scores 0.
func PartialRatio(a, b string) float64 {
	short, long := []rune(a), []rune(b)
	if len(short) == 0 || len(long) == 0 {
		return 0
	}
	if len(short) > len(long) {
		short, long = long, short
	}
	if strings.Contains(string(long), string(short)) {
		return 1
	}

	width := len(short)
	best := 0.0
	for start := 1 - width; start < len(long); start++ {
		lo := max(0, start)
		hi := min(len(long), start+width)
		if score := indelRatio(short, long[lo:hi]); score > best {
			best = score
		}
	}
	return best
}

// indelRatio is 1 - (insertions + deletions) / (len(a) + len(b)), which is
// the same as 2*LCS / (len(a) + len(b)).
func indelRatio(a, b []rune) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 0
	}
	lcs := edlib.LCS(string(a), string(b))
	return 2 * float64(lcs) / float64(total)
}

// bestCandidate returns the candidate with the highest partial ratio against
// the normalized description. The first candidate to reach the best score
// wins. Candidates that normalize to nothing are skipped.
func bestCandidate(normalized string, candidates []string, noise string) (string, float64) {
	var (
		best      string
		bestScore float64
	)
	for _, candidate := range candidates {
		folded := NormalizeWith(candidate, noise)
		if folded == "" {
			continue
		}
		if score := PartialRatio(normalized, folded); score > bestScore {
			best, bestScore = candidate, score
		}
	}
	return best, bestScore
}
