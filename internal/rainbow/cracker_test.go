package rainbow

import (
	"context"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCracker(t *testing.T, seeds []string, chainLength int) *Cracker {
	cfg := &Config{ChainLength: chainLength}
	table, err := BuildTable(context.Background(), &sliceSource{seeds: seeds}, cfg)
	require.NoError(t, err)
	c, err := NewCracker(table, cfg, zerolog.Nop())
	require.NoError(t, err)
	return c
}

func TestCrackRecoversSeeds(t *testing.T) {
	seeds := []string{"alpha", "bravo", "charlie", "delta", "echo"}
	c := newTestCracker(t, seeds, 10)
	for _, seed := range seeds {
		plaintext, found, err := c.Crack(context.Background(), HashString(seed))
		require.NoError(t, err)
		assert.True(t, found, seed)
		assert.Equal(t, seed, plaintext)
	}
}

func TestCrackRecoversIntermediateLink(t *testing.T) {
	c := newTestCracker(t, []string{"alpha", "bravo", "charlie", "delta", "echo"}, 10)
	plaintext, found, err := c.Crack(context.Background(), HashString("hPqnzA"))
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "hPqnzA", plaintext)
}

func TestCrackGoldenVector(t *testing.T) {
	c := newTestCracker(t, []string{"casper4"}, DefaultChainLength)
	plaintext, found, err := c.CrackHex(context.Background(), "0da49c9a507b3a983d1804a675ae8cb9422746d7")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "Vuvk5CAA", plaintext)
}

func TestCrackEmptySeed(t *testing.T) {
	c := newTestCracker(t, []string{"alpha", "", "bravo"}, 10)
	assert.Equal(t, 3, c.Table().Len())
	plaintext, found, err := c.CrackHex(context.Background(), "da39a3ee5e6b4b0d3255bfef95601890afd80709")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "", plaintext)
}

func TestCrackNotFound(t *testing.T) {
	c := newTestCracker(t, []string{"alpha", "bravo", "charlie", "delta", "echo"}, 10)
	plaintext, found, err := c.Crack(context.Background(), HashString("notinthere"))
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, plaintext)
}

func TestCrackEmptyTable(t *testing.T) {
	c := newTestCracker(t, nil, 10)
	_, found, err := c.Crack(context.Background(), HashString("alpha"))
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCrackHexRejectsMalformedTarget(t *testing.T) {
	c := newTestCracker(t, []string{"alpha"}, 10)
	for _, target := range []string{"", "xyz", "0da49c9a507b3a983d1804a675ae8cb9422746d", "0da49c9a507b3a983d1804a675ae8cb9422746dg"} {
		plaintext, found, err := c.CrackHex(context.Background(), target)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidDigest))
		assert.False(t, found)
		assert.Empty(t, plaintext)
	}
}

func TestCrackFalseAlarm(t *testing.T) {
	// bravo's endpoint filed under alpha: every lookup that reaches it replays
	// the wrong chain and must be rejected.
	table, err := FromEntries(10, map[string]string{Endpoint("bravo", 10).Hex(): "alpha"})
	require.NoError(t, err)
	c, err := NewCracker(table, &Config{ChainLength: 10}, zerolog.Nop())
	require.NoError(t, err)
	_, found, err := c.Crack(context.Background(), HashString("bravo"))
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCrackCancelled(t *testing.T) {
	c := newTestCracker(t, []string{"alpha"}, 10)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, found, err := c.Crack(ctx, HashString("alpha"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, found)
}

func TestCrackConcurrent(t *testing.T) {
	seeds := seedList(50)
	c := newTestCracker(t, seeds, 20)
	var wg sync.WaitGroup
	for _, seed := range seeds {
		wg.Add(1)
		go func() {
			defer wg.Done()
			plaintext, found, err := c.Crack(context.Background(), HashString(seed))
			assert.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, seed, plaintext)
		}()
	}
	wg.Wait()
}
