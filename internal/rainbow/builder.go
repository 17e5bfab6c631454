package rainbow

import (
	"context"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"time"
)

// SeedSource yields seeds one at a time in the shape of bufio.Scanner: Scan
// advances, Text returns the current seed, Err reports the first read error
// once Scan returns false.
type SeedSource interface {
	Scan() bool
	Text() string
	Err() error
}

// Builder turns a stream of seeds into a Table. Seeds are read in batches,
// chains of a batch are computed concurrently, and the results are merged in
// seed order, so when two seeds share an endpoint the later one wins exactly
// as in a sequential run.
type Builder struct {
	l        zerolog.Logger
	cfg      Config
	endpoint func(seed string, length int) Digest

	// OnProgress, if set, is called after every merged batch with the number
	// of seeds processed so far.
	OnProgress func(done int)
}

func NewBuilder(cfg *Config, l zerolog.Logger) (*Builder, error) {
	c := *cfg
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &Builder{
		cfg:      c,
		endpoint: Endpoint,
		l: l.With().
			Str("domain", "rainbow").
			Str("type", "builder").
			Int("chain-length", c.ChainLength).
			Logger(),
	}, nil
}

// BuildTable builds a table from src with the global logger.
func BuildTable(ctx context.Context, src SeedSource, cfg *Config) (*Table, error) {
	b, err := NewBuilder(cfg, log.Logger)
	if err != nil {
		return nil, err
	}
	return b.Build(ctx, src)
}

func (b *Builder) Build(ctx context.Context, src SeedSource) (*Table, error) {
	start := time.Now()
	table := newTable(b.cfg.ChainLength, 0)
	var (
		batch     []string
		endpoints []Digest
	)
	done := 0
	b.l.Debug().Int("workers", b.cfg.Workers).Int("batch-size", b.cfg.BatchSize).Msg("building table")
	for {
		batch = batch[:0]
		for len(batch) < b.cfg.BatchSize && src.Scan() {
			batch = append(batch, src.Text())
		}
		if err := src.Err(); err != nil {
			b.l.Error().Err(err).Int("seeds", done).Msg("failed to read seeds")
			return nil, errors.Wrap(err, "failed to read seeds")
		}
		if len(batch) == 0 {
			break
		}
		if cap(endpoints) < len(batch) {
			endpoints = make([]Digest, len(batch))
		}
		if err := b.computeBatch(ctx, batch, endpoints[:len(batch)]); err != nil {
			return nil, err
		}
		for i, seed := range batch {
			table.put(endpoints[i], seed)
		}
		done += len(batch)
		b.l.Debug().Int("seeds", done).Int("entries", table.Len()).Msg("batch merged")
		if b.OnProgress != nil {
			b.OnProgress(done)
		}
		if len(batch) < b.cfg.BatchSize {
			break
		}
	}
	b.l.Info().
		Int("seeds", done).
		Int("entries", table.Len()).
		Dur("elapsed", time.Since(start)).
		Msg("table built")
	return table, nil
}

// computeBatch fills endpoints[i] with the chain endpoint of batch[i]. Every
// worker owns a contiguous range of indices, so no synchronization is needed
// beyond the group wait.
func (b *Builder) computeBatch(ctx context.Context, batch []string, endpoints []Digest) error {
	workers := b.cfg.Workers
	if workers > len(batch) {
		workers = len(batch)
	}
	chunk := (len(batch) + workers - 1) / workers
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for lo := 0; lo < len(batch); lo += chunk {
		hi := min(lo+chunk, len(batch))
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if err := gCtx.Err(); err != nil {
					return err
				}
				endpoints[i] = b.endpoint(batch[i], b.cfg.ChainLength)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return errors.Wrap(err, "table build interrupted")
	}
	return nil
}
