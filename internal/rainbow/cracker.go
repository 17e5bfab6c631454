package rainbow

import (
	"context"
	"github.com/rs/zerolog"
)

// Cracker searches a table for plaintexts of target digests. It only reads the
// table, so one Cracker may serve any number of goroutines.
type Cracker struct {
	l           zerolog.Logger
	table       *Table
	chainLength int
}

func NewCracker(table *Table, cfg *Config, l zerolog.Logger) (*Cracker, error) {
	c := *cfg
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &Cracker{
		table:       table,
		chainLength: c.ChainLength,
		l: l.With().
			Str("domain", "rainbow").
			Str("type", "cracker").
			Logger(),
	}, nil
}

func (c *Cracker) Table() *Table {
	return c.table
}

func (c *Cracker) ChainLength() int {
	return c.chainLength
}

// CrackHex validates a hex encoded target before searching for it.
func (c *Cracker) CrackHex(ctx context.Context, target string) (string, bool, error) {
	d, err := ParseDigest(target)
	if err != nil {
		return "", false, err
	}
	return c.Crack(ctx, d)
}

// Crack looks for a plaintext hashing to target. Every chain position is
// assumed in turn, starting from the end of the chain; a table hit is only
// accepted after replaying its chain reproduces target. The context is
// checked between positions.
func (c *Cracker) Crack(ctx context.Context, target Digest) (string, bool, error) {
	n := c.chainLength
	for i := n - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			return "", false, err
		}
		current := target
		for j := i; j < n; j++ {
			candidate := HashString(Reduce(current, j))
			seed, ok := c.table.Lookup(candidate)
			if !ok {
				current = candidate
				continue
			}
			if plaintext, found := c.replay(seed, target); found {
				c.l.Debug().
					Str("target", target.Hex()).
					Int("position", i).
					Msg("plaintext recovered")
				return plaintext, true, nil
			}
			c.l.Trace().
				Str("target", target.Hex()).
				Int("position", i).
				Str("seed", seed).
				Msg("false alarm")
			break
		}
	}
	return "", false, nil
}

func (c *Cracker) replay(seed string, target Digest) (string, bool) {
	var plaintext string
	found := false
	Walk(seed, c.chainLength, func(_ int, text string, digest Digest) bool {
		if digest == target {
			plaintext, found = text, true
			return false
		}
		return true
	})
	return plaintext, found
}
