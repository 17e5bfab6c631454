package rainbow

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashKnownVectors(t *testing.T) {
	assert.Equal(t, "da39a3ee5e6b4b0d3255bfef95601890afd80709", HashString("").Hex())
	assert.Equal(t, "a9993e364706816aba3e25717850c26c9cd0d89d", HashString("abc").Hex())
	assert.Equal(t, HashString("abc"), Hash([]byte("abc")))
}

func TestParseDigest(t *testing.T) {
	d, err := ParseDigest("0da49c9a507b3a983d1804a675ae8cb9422746d7")
	require.NoError(t, err)
	assert.Equal(t, HashString("Vuvk5CAA"), d)

	upper, err := ParseDigest("  0DA49C9A507B3A983D1804A675AE8CB9422746D7\n")
	require.NoError(t, err)
	assert.Equal(t, d, upper)
}

func TestParseDigestRejectsMalformedInput(t *testing.T) {
	for name, input := range map[string]string{
		"empty":     "",
		"short":     "0da49c9a507b3a98",
		"long":      "0da49c9a507b3a983d1804a675ae8cb9422746d700",
		"odd":       "0da49c9a507b3a983d1804a675ae8cb9422746d",
		"non-hex":   "zda49c9a507b3a983d1804a675ae8cb9422746d7",
		"md5":       "5f4dcc3b5aa765d61d8327deb882cf99",
		"sha256":    strings.Repeat("ab", 32),
		"separator": "0da49c9a-507b3a983d1804a675ae8cb9422746d",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseDigest(input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidDigest), "unexpected error: %v", err)
		})
	}
}
