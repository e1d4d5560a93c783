package fuzzy

import "unicode"

// WeightedScorer scores a match with configurable weights.
type WeightedScorer struct {
	// BaseScore is the starting score for any match.
	BaseScore int

	// ConsecutiveBonus is added for each consecutive character match.
	ConsecutiveBonus int

	// WordBoundaryBonus is added for matches at word boundaries.
	WordBoundaryBonus int

	// PrefixBonus is added when the first match is at position 0.
	PrefixBonus int

	// ExactPrefixBonus is added when query matches the start of text exactly.
	ExactPrefixBonus int

	// GapPenalty is subtracted for each gap character between matches.
	GapPenalty int

	// LeadingPenalty is subtracted for each character before first match.
	LeadingPenalty int

	// LengthBonusThreshold grants a bonus to texts shorter than this.
	LengthBonusThreshold int
}

// DefaultWeights returns the default scoring weights.
func DefaultWeights() WeightedScorer {
	return WeightedScorer{
		BaseScore:            100,
		ConsecutiveBonus:     20,
		WordBoundaryBonus:    15,
		PrefixBonus:          25,
		ExactPrefixBonus:     50,
		GapPenalty:           2,
		LeadingPenalty:       1,
		LengthBonusThreshold: 20,
	}
}

// Score scores a match given the folded query, the original and folded
// text, and the rune indices of the matched characters.
func (s WeightedScorer) Score(queryRunes, originalRunes, textRunes []rune, matches []int) int {
	if len(matches) == 0 {
		return 0
	}

	score := s.BaseScore

	for i := 1; i < len(matches); i++ {
		if matches[i] == matches[i-1]+1 {
			score += s.ConsecutiveBonus
		}
	}

	for _, idx := range matches {
		if isWordBoundary(originalRunes, idx) {
			score += s.WordBoundaryBonus
		}
	}

	if matches[0] == 0 {
		score += s.PrefixBonus
	}

	if len(matches) > 1 {
		totalGap := matches[len(matches)-1] - matches[0] - len(matches) + 1
		if totalGap > 0 {
			score -= totalGap * s.GapPenalty
		}
	}

	if matches[0] > 0 {
		score -= matches[0] * s.LeadingPenalty
	}

	if textLen := len(textRunes); textLen < s.LengthBonusThreshold {
		score += s.LengthBonusThreshold - textLen
	}

	if hasPrefix(textRunes, queryRunes) {
		score += s.ExactPrefixBonus
	}

	// Any match outranks the Default sentinel.
	if score < 1 {
		score = 1
	}

	return score
}

// placementScore is the part of Score that depends on where a single
// character lands, used by the alignment search.
func (s WeightedScorer) placementScore(originalRunes []rune, idx int) int {
	if isWordBoundary(originalRunes, idx) {
		return s.WordBoundaryBonus
	}
	return 0
}

// transitionScore is the part of Score contributed by moving from a match
// at prev to a match at next.
func (s WeightedScorer) transitionScore(prev, next int) int {
	if next == prev+1 {
		return s.ConsecutiveBonus
	}
	return -(next - prev - 1) * s.GapPenalty
}

// leadingScore is the part of Score contributed by the first match.
func (s WeightedScorer) leadingScore(first int) int {
	if first == 0 {
		return s.PrefixBonus
	}
	return -first * s.LeadingPenalty
}

func hasPrefix(text, prefix []rune) bool {
	if len(text) < len(prefix) {
		return false
	}
	for i, r := range prefix {
		if text[i] != r {
			return false
		}
	}
	return true
}

// isWordBoundary checks if the rune at idx is at a word boundary.
func isWordBoundary(runes []rune, idx int) bool {
	if idx == 0 {
		return true
	}
	if idx >= len(runes) {
		return false
	}

	prevChar := runes[idx-1]
	currChar := runes[idx]

	// After separators, including snake_case and kebab-case.
	if unicode.IsSpace(prevChar) || unicode.IsPunct(prevChar) || unicode.IsSymbol(prevChar) {
		return true
	}

	// camelCase transition.
	if unicode.IsLower(prevChar) && unicode.IsUpper(currChar) {
		return true
	}

	// Letter to digit transition (e.g. "utf8").
	if unicode.IsLetter(prevChar) && unicode.IsDigit(currChar) {
		return true
	}

	return false
}
