// Package fuzzy scores a typed word against a completion candidate's filter
// text.
//
// A successful match reports a Score (higher is better) and the rune
// offsets in the candidate text that the typed characters matched, which
// callers use for ranking and highlighting.
//
// # Scoring
//
// Every algorithm in the package produces positions and then feeds them to
// the same WeightedScorer, so scores from different algorithms are directly
// comparable. The scorer favors:
//   - Prefix matches (first typed character matches the first text character)
//   - Word boundary matches (after separators, camelCase transitions)
//   - Consecutive runs of matched characters
//   - Shorter candidate texts
//
// and penalizes gaps between matched characters and characters skipped
// before the first match.
//
// # Algorithms
//
//   - Standard: greedy left-to-right subsequence scan. Linear in the text
//     length; used for very large candidate batches.
//   - GracefulAggressive: finds the best scoring alignment and, when the
//     word is not a subsequence at all, retries with adjacent characters
//     transposed to tolerate small typos.
//
// ForBatch picks between them from the batch size.
//
// Matching is case-insensitive; text is case folded with
// golang.org/x/text/cases, rune by rune when folding the whole string
// would shift positions away from the original text.
package fuzzy
