package rainbow

import (
	"crypto/sha1"
	"encoding/hex"
	"github.com/pkg/errors"
	"strings"
)

const DigestSize = sha1.Size

var ErrInvalidDigest = errors.New("invalid digest")

// Digest is a SHA-1 hash value.
type Digest [DigestSize]byte

func Hash(data []byte) Digest {
	return sha1.Sum(data)
}

func HashString(s string) Digest {
	return sha1.Sum([]byte(s))
}

func (d Digest) Hex() string {
	return hex.EncodeToString(d[:])
}

func (d Digest) String() string {
	return d.Hex()
}

// ParseDigest decodes a hex encoded digest. Surrounding whitespace is ignored,
// both letter cases are accepted.
func ParseDigest(s string) (Digest, error) {
	var d Digest
	s = strings.TrimSpace(s)
	if len(s) != hex.EncodedLen(DigestSize) {
		return d, errors.Wrapf(ErrInvalidDigest, "expected %d hex characters, got %d",
			hex.EncodedLen(DigestSize), len(s))
	}
	if _, err := hex.Decode(d[:], []byte(s)); err != nil {
		return Digest{}, errors.Wrapf(ErrInvalidDigest, "%q: %v", s, err)
	}
	return d, nil
}
