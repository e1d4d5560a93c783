package fuzzy

import (
	"math"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

// DefaultScore is the score carried by the Default sentinel. Every real
// match scores at least 1.
const DefaultScore = -100

// Match is the result of scoring a word against a candidate text.
type Match struct {
	// Score is the match score (higher is better).
	Score int `json:"score"`

	// Positions contains the rune indices of matched characters in the
	// candidate text, in ascending order.
	Positions []int `json:"positions"`

	def bool
}

// Default is the sentinel returned when there is nothing to match against.
// It always passes a filter and carries no distinguishing score.
var Default = Match{Score: DefaultScore, def: true}

// IsDefault reports whether m is the Default sentinel.
func (m Match) IsDefault() bool {
	return m.def
}

// FirstPosition returns the first matched rune index, or -1 when the match
// has no positions.
func (m Match) FirstPosition() int {
	if len(m.Positions) == 0 {
		return -1
	}
	return m.Positions[0]
}

// Algorithm scores word against a candidate text. It returns false when
// the word does not match.
type Algorithm func(word, text string) (Match, bool)

// DefaultAggressiveThreshold is the batch size above which ForBatch selects
// the cheaper Standard algorithm.
const DefaultAggressiveThreshold = 2000

// Matcher holds the scoring configuration shared by the algorithms.
type Matcher struct {
	scorer WeightedScorer

	// maxAlignLen bounds the alignment search; longer texts fall back to
	// the greedy scan.
	maxAlignLen int

	// transpositionPenalty is subtracted from matches that needed two
	// adjacent query characters swapped.
	transpositionPenalty int
}

// NewMatcher creates a matcher with the given weights.
func NewMatcher(weights WeightedScorer) *Matcher {
	return &Matcher{
		scorer:               weights,
		maxAlignLen:          128,
		transpositionPenalty: 30,
	}
}

var defaultMatcher = NewMatcher(DefaultWeights())

// Standard scores with the default matcher's greedy algorithm.
func Standard(word, text string) (Match, bool) {
	return defaultMatcher.Standard(word, text)
}

// GracefulAggressive scores with the default matcher's alignment search
// and typo tolerance.
func GracefulAggressive(word, text string) (Match, bool) {
	return defaultMatcher.GracefulAggressive(word, text)
}

// ForBatch returns the default matcher's algorithm for a batch of size n.
func ForBatch(n, threshold int) Algorithm {
	return defaultMatcher.ForBatch(n, threshold)
}

// ForBatch returns Standard when the batch holds more than threshold
// candidates and GracefulAggressive otherwise, bounding worst case latency
// on huge batches. A threshold below 1 selects DefaultAggressiveThreshold.
func (m *Matcher) ForBatch(n, threshold int) Algorithm {
	if threshold < 1 {
		threshold = DefaultAggressiveThreshold
	}
	if n > threshold {
		return m.Standard
	}
	return m.GracefulAggressive
}

// Standard matches word as a subsequence of text using a greedy left to
// right scan.
func (m *Matcher) Standard(word, text string) (Match, bool) {
	if word == "" {
		return Default, true
	}
	query := fold([]rune(word))
	original := []rune(text)
	folded := fold(original)
	if len(query) > len(folded) {
		return Match{}, false
	}

	positions, ok := greedy(query, folded)
	if !ok {
		return Match{}, false
	}
	return Match{
		Score:     m.scorer.Score(query, original, folded, positions),
		Positions: positions,
	}, true
}

// GracefulAggressive matches word against text choosing the alignment
// with the highest score. When word is not a subsequence of text, every
// transposition of two adjacent characters of word is tried and the best
// result is returned with a penalty.
func (m *Matcher) GracefulAggressive(word, text string) (Match, bool) {
	if word == "" {
		return Default, true
	}
	query := fold([]rune(word))
	original := []rune(text)
	folded := fold(original)
	if len(query) > len(folded) {
		return Match{}, false
	}

	if positions, ok := m.align(query, original, folded); ok {
		return Match{
			Score:     m.scorer.Score(query, original, folded, positions),
			Positions: positions,
		}, true
	}

	best := Match{}
	found := false
	swapped := make([]rune, len(query))
	for i := 0; i+1 < len(query); i++ {
		if query[i] == query[i+1] {
			continue
		}
		copy(swapped, query)
		swapped[i], swapped[i+1] = swapped[i+1], swapped[i]
		if _, ok := greedy(swapped, folded); !ok {
			continue
		}

		positions, ok := m.align(swapped, original, folded)
		if !ok {
			continue
		}
		score := m.scorer.Score(swapped, original, folded, positions) - m.transpositionPenalty
		if score < 1 {
			score = 1
		}
		if !found || score > best.Score {
			best = Match{Score: score, Positions: positions}
			found = true
		}
	}
	return best, found
}

// greedy places each query rune at its leftmost possible position.
func greedy(query, text []rune) ([]int, bool) {
	positions := make([]int, 0, len(query))
	qi := 0
	for i := 0; i < len(text) && qi < len(query); i++ {
		if text[i] == query[qi] {
			positions = append(positions, i)
			qi++
		}
	}
	if qi != len(query) {
		return nil, false
	}
	return positions, true
}

// align finds the positions maximizing the position dependent part of the
// weighted score with dynamic programming over (query index, text index).
// It runs in O(len(query) * len(text)).
func (m *Matcher) align(query, original, text []rune) ([]int, bool) {
	n, l := len(query), len(text)
	if n == 0 || n > l {
		return nil, false
	}
	if l > m.maxAlignLen {
		return greedy(query, text)
	}

	const unreachable = math.MinInt32 / 2
	score := make([][]int, n)
	from := make([][]int, n)
	for i := range score {
		score[i] = make([]int, l)
		from[i] = make([]int, l)
		for j := range score[i] {
			score[i][j] = unreachable
			from[i][j] = -1
		}
	}

	for j := 0; j < l; j++ {
		if text[j] == query[0] {
			score[0][j] = m.scorer.leadingScore(j) + m.scorer.placementScore(original, j)
		}
	}

	// A gap transition from k to j scores GapPenalty*k - GapPenalty*(j-1),
	// so the best gap predecessor is a running maximum of
	// score[i-1][k] + GapPenalty*k over k <= j-2. The consecutive
	// predecessor j-1 is checked on its own.
	gap := m.scorer.GapPenalty
	for i := 1; i < n; i++ {
		prev := score[i-1]
		runBest, runK := unreachable, -1
		for j := i; j < l; j++ {
			if k := j - 2; k >= i-1 && prev[k] != unreachable {
				if v := prev[k] + gap*k; v > runBest {
					runBest, runK = v, k
				}
			}
			if text[j] != query[i] {
				continue
			}
			best, bestK := unreachable, -1
			if runK >= 0 {
				best, bestK = runBest-gap*(j-1), runK
			}
			if prev[j-1] != unreachable {
				if v := prev[j-1] + m.scorer.transitionScore(j-1, j); v > best {
					best, bestK = v, j-1
				}
			}
			if bestK < 0 {
				continue
			}
			score[i][j] = best + m.scorer.placementScore(original, j)
			from[i][j] = bestK
		}
	}

	end, best := -1, unreachable
	for j := n - 1; j < l; j++ {
		if score[n-1][j] > best {
			best, end = score[n-1][j], j
		}
	}
	if end < 0 {
		return nil, false
	}

	positions := make([]int, n)
	for i, j := n-1, end; i >= 0; i-- {
		positions[i] = j
		j = from[i][j]
	}
	return positions, true
}

// fold case folds runes so that indices stay aligned with the input.
// ASCII input is lowered directly. Otherwise the whole string is folded
// once, and only when that changes the rune count are runes folded one
// at a time, with runes whose folding expands lowercased instead.
func fold(runes []rune) []rune {
	out := make([]rune, len(runes))
	ascii := true
	for i, r := range runes {
		if r >= utf8.RuneSelf {
			ascii = false
			break
		}
		out[i] = unicode.ToLower(r)
	}
	if ascii {
		return out
	}

	caser := cases.Fold()
	if whole := []rune(caser.String(string(runes))); len(whole) == len(runes) {
		return whole
	}
	for i, r := range runes {
		if r < utf8.RuneSelf {
			out[i] = unicode.ToLower(r)
			continue
		}
		folded := []rune(caser.String(string(r)))
		if len(folded) == 1 {
			out[i] = folded[0]
		} else {
			out[i] = unicode.ToLower(r)
		}
	}
	return out
}
