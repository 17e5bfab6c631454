package rainbow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEndpointGoldenVectors(t *testing.T) {
	assert.Equal(t, "0da49c9a507b3a983d1804a675ae8cb9422746d7", Endpoint("casper4", 1).Hex())
	assert.Equal(t, "03ae03c3ed6bff9b9a30afe247e8d0788278108b", Endpoint("casper4", DefaultChainLength).Hex())
	assert.Equal(t, "131517713f8a4bf01c12b15c1e6680b5e0e993be", Endpoint("alpha", 10).Hex())
	assert.Equal(t, HashString("casper4"), Endpoint("casper4", 0))
}

func TestEndpointDeterministic(t *testing.T) {
	for _, seed := range []string{"", "casper4", "correct horse battery staple", "пароль"} {
		assert.Equal(t, Endpoint(seed, 50), Endpoint(seed, 50))
	}
}

func TestWalkMatchesEndpoint(t *testing.T) {
	var texts []string
	var last Digest
	Walk("casper4", 5, func(position int, text string, digest Digest) bool {
		assert.Equal(t, len(texts), position)
		assert.Equal(t, HashString(text), digest)
		texts = append(texts, text)
		last = digest
		return true
	})
	assert.Len(t, texts, 5)
	assert.Equal(t, "casper4", texts[0])
	assert.Equal(t, "Vuvk5CAA", texts[1])
	assert.Equal(t, HashString(Reduce(last, 4)), Endpoint("casper4", 5))
}

func TestWalkStops(t *testing.T) {
	visited := 0
	Walk("casper4", 10, func(position int, _ string, _ Digest) bool {
		visited++
		return position < 2
	})
	assert.Equal(t, 3, visited)
}
