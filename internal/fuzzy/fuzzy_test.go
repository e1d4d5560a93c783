package fuzzy

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStandard_Matches(t *testing.T) {
	tests := []struct {
		word, text string
		want       bool
		positions  []int
	}{
		{"gd", "GetDocument", true, []int{0, 3}},
		{"http", "HTTPServer", true, []int{0, 1, 2, 3}},
		{"HTTP", "httpServer", true, []int{0, 1, 2, 3}},
		{"mvn", "my_variable_name", true, []int{0, 3, 12}},
		{"xyz", "hello", false, nil},
		{"hello", "hell", false, nil},
		{"é", "Élan", true, []int{0}},
	}

	for _, tt := range tests {
		t.Run(tt.word+"/"+tt.text, func(t *testing.T) {
			m, ok := Standard(tt.word, tt.text)
			require.Equal(t, tt.want, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.positions, m.Positions)
			assert.GreaterOrEqual(t, m.Score, 1)
			assert.False(t, m.IsDefault())
		})
	}
}

func TestEmptyWordIsDefault(t *testing.T) {
	for _, alg := range []Algorithm{Standard, GracefulAggressive} {
		m, ok := alg("", "anything")
		require.True(t, ok)
		assert.True(t, m.IsDefault())
		assert.Equal(t, DefaultScore, m.Score)
		assert.Equal(t, -1, m.FirstPosition())
	}
}

func TestScoreOrdering(t *testing.T) {
	exact, ok := Standard("hello", "hello")
	require.True(t, ok)
	prefix, ok := Standard("hel", "hello")
	require.True(t, ok)
	substring, ok := Standard("oo", "foobar")
	require.True(t, ok)

	assert.Greater(t, exact.Score, prefix.Score, "exact should beat prefix")
	assert.Greater(t, prefix.Score, substring.Score, "prefix should beat substring")

	boundary, ok := Standard("gd", "GetDocument")
	require.True(t, ok)
	scattered, ok := Standard("gd", "aggregated")
	require.True(t, ok)
	assert.Greater(t, boundary.Score, scattered.Score, "camelCase boundaries should beat scattered")
}

func TestGracefulAggressive_PrefersBetterAlignment(t *testing.T) {
	greedyMatch, ok := Standard("ob", "fooBar")
	require.True(t, ok)
	assert.Equal(t, []int{1, 3}, greedyMatch.Positions)

	best, ok := GracefulAggressive("ob", "fooBar")
	require.True(t, ok)
	assert.Equal(t, []int{2, 3}, best.Positions)
	assert.Greater(t, best.Score, greedyMatch.Score)
}

func TestGracefulAggressive_NeverWorseThanStandard(t *testing.T) {
	pairs := [][2]string{
		{"gd", "GetDocument"},
		{"fb", "fooBarBaz"},
		{"con", "console"},
		{"ab", "xaxbxab"},
		{"sv", "someVariable"},
	}
	for _, p := range pairs {
		s, ok := Standard(p[0], p[1])
		require.True(t, ok, "%v", p)
		g, ok := GracefulAggressive(p[0], p[1])
		require.True(t, ok, "%v", p)
		assert.GreaterOrEqual(t, g.Score, s.Score, "%v", p)
	}
}

func TestGracefulAggressive_ToleratesTransposition(t *testing.T) {
	_, ok := Standard("teh", "the")
	assert.False(t, ok)

	m, ok := GracefulAggressive("teh", "the")
	require.True(t, ok)
	assert.Equal(t, []int{0, 1, 2}, m.Positions)

	exact, ok := GracefulAggressive("the", "the")
	require.True(t, ok)
	assert.Less(t, m.Score, exact.Score, "transposed match must score below the exact one")
}

func TestGracefulAggressive_LongTextFallsBack(t *testing.T) {
	text := strings.Repeat("x", 300) + "needle"
	m, ok := GracefulAggressive("ndl", text)
	require.True(t, ok)
	assert.Equal(t, []int{300, 303, 304}, m.Positions)
}

func TestForBatch(t *testing.T) {
	// The standard algorithm has no typo tolerance, which makes the
	// selection observable.
	_, ok := ForBatch(DefaultAggressiveThreshold+1, DefaultAggressiveThreshold)("teh", "the")
	assert.False(t, ok, "large batches use the standard algorithm")

	_, ok = ForBatch(DefaultAggressiveThreshold, DefaultAggressiveThreshold)("teh", "the")
	assert.True(t, ok, "batches at the threshold use the aggressive algorithm")

	_, ok = ForBatch(5, 0)("teh", "the")
	assert.True(t, ok, "zero threshold selects the default")
}

func TestWeightedScorer_MinimumScore(t *testing.T) {
	s := WeightedScorer{BaseScore: 0, GapPenalty: 100}
	q := []rune("ab")
	text := []rune("a-------b")
	assert.Equal(t, 1, s.Score(q, text, text, []int{0, 8}))
	assert.Equal(t, 0, s.Score(q, text, text, nil))
}

func TestIsWordBoundary(t *testing.T) {
	runes := []rune("get_userName2")
	assert.True(t, isWordBoundary(runes, 0))
	assert.True(t, isWordBoundary(runes, 4), "after underscore")
	assert.True(t, isWordBoundary(runes, 8), "camelCase")
	assert.True(t, isWordBoundary(runes, 12), "letter to digit")
	assert.False(t, isWordBoundary(runes, 2))
	assert.False(t, isWordBoundary(runes, 99))
}

// alignQuadratic scores every predecessor for each placement. align must
// pick the same positions.
func alignQuadratic(m *Matcher, query, original, text []rune) ([]int, bool) {
	n, l := len(query), len(text)
	if n == 0 || n > l {
		return nil, false
	}
	const unreachable = -1 << 30
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
	for i := 1; i < n; i++ {
		for j := i; j < l; j++ {
			if text[j] != query[i] {
				continue
			}
			best, bestK := unreachable, -1
			for k := i - 1; k < j; k++ {
				if score[i-1][k] == unreachable {
					continue
				}
				if v := score[i-1][k] + m.scorer.transitionScore(k, j); v > best {
					best, bestK = v, k
				}
			}
			if bestK >= 0 {
				score[i][j] = best + m.scorer.placementScore(original, j)
				from[i][j] = bestK
			}
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

func TestAlign_MatchesQuadraticSearch(t *testing.T) {
	m := NewMatcher(DefaultWeights())
	pairs := [][2]string{
		{"ob", "fooBar"},
		{"gd", "GetDocument"},
		{"ab", "xaxbxab"},
		{"aaa", "aaxaaxaaa"},
		{"abc", "a_b_c_abc_ab_c"},
		{"sv", "someVariable_saveValue"},
		{"mvn", "my_variable_name"},
		{"aab", strings.Repeat("a", 30) + "b" + strings.Repeat("ab", 10)},
		{"xyz", "hello"},
		{"aa", "a"},
	}
	for _, p := range pairs {
		t.Run(p[0]+"/"+p[1], func(t *testing.T) {
			query := fold([]rune(p[0]))
			original := []rune(p[1])
			text := fold(original)

			want, wantOK := alignQuadratic(m, query, original, text)
			got, ok := m.align(query, original, text)
			require.Equal(t, wantOK, ok)
			assert.Equal(t, want, got)
		})
	}
}

func TestGracefulAggressive_LargeRepetitiveBatch(t *testing.T) {
	label := strings.Repeat("a", 128)
	missing := strings.Repeat("a", 40) + "b"
	present := strings.Repeat("a", 40)

	algo := ForBatch(DefaultAggressiveThreshold, DefaultAggressiveThreshold)

	start := time.Now()
	for i := 0; i < DefaultAggressiveThreshold; i++ {
		_, ok := algo(missing, label)
		require.False(t, ok)
		m, ok := algo(present, label)
		require.True(t, ok)
		require.Len(t, m.Positions, 40)
	}
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestFold(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"GetDocument", "getdocument"},
		{"ÉLAN", "élan"},
		{"ΣΑ", "σα"},
		// ß folds to two runes, so it is lowercased in place.
		{"STRAßE", "straße"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := fold([]rune(tt.in))
			assert.Equal(t, tt.want, string(got))
			assert.Len(t, got, len([]rune(tt.in)))
		})
	}
}
