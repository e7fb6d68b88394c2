package intent

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"open", "chrome"}, tokenize("Open Chrome"))
	assert.Equal(t, []string{"go", "to", "facebook"}, tokenize("go to facebook!"))
	assert.Empty(t, tokenize("a b c"))
	assert.Equal(t, []string{"win", "up"}, tokenize("win+up"))
}

func TestVectorizer_IDFAndNorm(t *testing.T) {
	v := fitVectorizer([]string{"open chrome", "open app", "close app"})
	require.Equal(t, 4, v.dim())

	// Lexical vocabulary order.
	assert.Equal(t, 0, v.vocab["app"])
	assert.Equal(t, 1, v.vocab["chrome"])
	assert.Equal(t, 2, v.vocab["close"])
	assert.Equal(t, 3, v.vocab["open"])

	assert.InDelta(t, math.Log(4.0/3.0)+1, v.idf[v.vocab["open"]], 1e-12)
	assert.InDelta(t, math.Log(4.0/2.0)+1, v.idf[v.vocab["chrome"]], 1e-12)

	x := v.transform("open chrome chrome")
	var norm float64
	for _, w := range x.val {
		norm += w * w
	}
	assert.InDelta(t, 1.0, norm, 1e-12)
	assert.Equal(t, []int{1, 3}, x.idx)
	assert.Greater(t, x.val[0], x.val[1])
}

func TestVectorizer_UnknownTermsGiveZeroVector(t *testing.T) {
	v := fitVectorizer([]string{"open chrome"})
	x := v.transform("launch firefox")
	assert.Empty(t, x.idx)
	assert.Empty(t, x.val)
}

func TestSoftmax_ProbabilitiesSumToOne(t *testing.T) {
	v := fitVectorizer([]string{"copy", "paste", "lock screen"})
	xs := []sparseVec{v.transform("copy"), v.transform("paste"), v.transform("lock screen")}
	m := trainSoftmax(xs, []int{0, 0, 1}, 2, v.dim(), DefaultTrainOptions())

	for _, x := range append(xs, v.transform("nothing here")) {
		var sum float64
		for _, p := range m.probabilities(x) {
			assert.GreaterOrEqual(t, p, 0.0)
			sum += p
		}
		assert.InDelta(t, 1.0, sum, 1e-9)
	}

	p := m.probabilities(v.transform("lock screen"))
	assert.Greater(t, p[1], p[0])
}
