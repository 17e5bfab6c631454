package provision

import (
	"context"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/ykhdr/rainbow-hash/internal/rainbow"
	"github.com/ykhdr/rainbow-hash/internal/seed"
	"github.com/ykhdr/rainbow-hash/internal/store/tablestore"
)

var ErrChainLengthMismatch = errors.New("stored table chain length differs from config")

// SourceOpener opens the seed source. It is only called when a table has to
// be built.
type SourceOpener func() (seed.Source, func() error, error)

type Options struct {
	Store      tablestore.Store
	OpenSeeds  SourceOpener
	Config     *rainbow.Config
	Regenerate bool
	Verify     bool
	OnProgress func(done int)
	Logger     zerolog.Logger
}

// FileSeeds opens a line-oriented seed file.
func FileSeeds(path string) SourceOpener {
	return func() (seed.Source, func() error, error) {
		src, err := seed.Open(path)
		if err != nil {
			return nil, nil, err
		}
		return src, src.Close, nil
	}
}

// LoadOrBuild returns the stored table when there is one, otherwise builds a
// table from the seed source and stores it.
func LoadOrBuild(ctx context.Context, opts Options) (*rainbow.Table, error) {
	l := opts.Logger.With().Str("domain", "provision").Logger()
	exists, err := opts.Store.Exists(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to check table store")
	}
	var table *rainbow.Table
	if exists && !opts.Regenerate {
		l.Info().Msg("loading existing rainbow table")
		table, err = load(ctx, opts)
	} else {
		l.Info().Bool("regenerate", opts.Regenerate).Msg("generating new rainbow table")
		table, err = build(ctx, opts)
	}
	if err != nil {
		return nil, err
	}
	if opts.Verify {
		if err := table.Verify(ctx, opts.Config.ChainLength); err != nil {
			return nil, errors.Wrap(err, "table verification failed")
		}
		l.Info().Msg("table verified")
	}
	l.Info().Int("entries", table.Len()).Int("chain-length", opts.Config.ChainLength).Msg("rainbow table ready")
	return table, nil
}

func load(ctx context.Context, opts Options) (*rainbow.Table, error) {
	table, err := opts.Store.Load(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load table")
	}
	if table.ChainLength() != 0 && table.ChainLength() != opts.Config.ChainLength {
		return nil, errors.Wrapf(ErrChainLengthMismatch, "stored %d, configured %d",
			table.ChainLength(), opts.Config.ChainLength)
	}
	return table, nil
}

func build(ctx context.Context, opts Options) (*rainbow.Table, error) {
	src, closeSrc, err := opts.OpenSeeds()
	if err != nil {
		return nil, errors.Wrap(err, "failed to open seeds")
	}
	defer func() { _ = closeSrc() }()
	builder, err := rainbow.NewBuilder(opts.Config, opts.Logger)
	if err != nil {
		return nil, err
	}
	builder.OnProgress = opts.OnProgress
	table, err := builder.Build(ctx, src)
	if err != nil {
		return nil, err
	}
	if err := opts.Store.Save(ctx, table); err != nil {
		return nil, errors.Wrap(err, "failed to save table")
	}
	return table, nil
}
