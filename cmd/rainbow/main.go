package main

import (
	"context"
	"fmt"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/pflag"
	"github.com/ykhdr/rainbow-hash/config"
	"github.com/ykhdr/rainbow-hash/internal/provision"
	"github.com/ykhdr/rainbow-hash/internal/rainbow"
	"github.com/ykhdr/rainbow-hash/internal/store/tablestore"
	"io"
	"os"
	"os/signal"
	"time"
)

const success, failure, invalid = 0, 1, 2

type flags struct {
	config      string
	seeds       string
	table       string
	chainLength int
	workers     int
	logLevel    string
	regenerate  bool
	progress    bool
	verify      bool
}

func main() { os.Exit(run(os.Args[1:], os.Stdout)) }

func parseFlags(args []string) (*flags, *pflag.FlagSet, error) {
	f := &flags{}
	fs := pflag.NewFlagSet("rainbow", pflag.ContinueOnError)
	fs.StringVarP(&f.config, "config", "c", "", "KDL config file")
	fs.StringVarP(&f.seeds, "seeds", "s", "", "seed dictionary, one candidate per line")
	fs.StringVarP(&f.table, "table", "t", "", "rainbow table file")
	fs.IntVarP(&f.chainLength, "chain-length", "n", 0, "reduction steps per chain")
	fs.IntVarP(&f.workers, "workers", "w", 0, "goroutines computing chains")
	fs.StringVarP(&f.logLevel, "log-level", "l", "", "trace, debug, info, warn or error")
	fs.BoolVarP(&f.regenerate, "regenerate", "r", false, "rebuild the table even if one is stored")
	fs.BoolVarP(&f.progress, "progress", "p", false, "show a progress bar while building")
	fs.BoolVar(&f.verify, "verify", false, "recompute every chain of the table before cracking")
	fs.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "Usage: rainbow [flags] [HASH...]\n\nFlags:\n")
		fs.PrintDefaults()
	}
	err := fs.Parse(args)
	return f, fs, err
}

// applyFlags overrides config values with the flags given on the command line.
func applyFlags(cfg *config.RainbowConfig, f *flags, fs *pflag.FlagSet) {
	if fs.Changed("seeds") {
		cfg.SeedsPath = f.seeds
	}
	if fs.Changed("table") {
		cfg.Store.Type = tablestore.FileType
		cfg.Store.Path = f.table
	}
	if fs.Changed("chain-length") {
		cfg.Rainbow.ChainLength = f.chainLength
	}
	if fs.Changed("workers") {
		cfg.Rainbow.Workers = f.workers
	}
	if fs.Changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
}

func run(args []string, out io.Writer) int {
	f, fs, err := parseFlags(args)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return success
		}
		return invalid
	}
	cfg, err := config.InitializeConfig(f.config)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "rainbow: %v\n", err)
		return failure
	}
	applyFlags(cfg, f, fs)
	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("Invalid configuration")
		return invalid
	}
	config.SetupLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	store, closeStore, err := tablestore.New(cfg.Store)
	if err != nil {
		log.Error().Err(err).Msg("Failed to open table store")
		return failure
	}
	defer func() { _ = closeStore(context.Background()) }()

	opts := provision.Options{
		Store:      store,
		OpenSeeds:  provision.FileSeeds(cfg.SeedsPath),
		Config:     cfg.Rainbow,
		Regenerate: f.regenerate,
		Verify:     f.verify,
		Logger:     log.Logger,
	}
	if f.progress {
		bar := newProgressBar()
		defer func() { _ = bar.Finish() }()
		last := 0
		opts.OnProgress = func(done int) {
			_ = bar.Add(done - last)
			last = done
		}
	}
	table, err := provision.LoadOrBuild(ctx, opts)
	if err != nil {
		log.Error().Err(err).Msg("Failed to prepare rainbow table")
		return failure
	}
	cracker, err := rainbow.NewCracker(table, cfg.Rainbow, log.Logger)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create cracker")
		return failure
	}
	return crackAll(ctx, cracker, fs.Args(), out)
}

func crackAll(ctx context.Context, cracker *rainbow.Cracker, hashes []string, out io.Writer) int {
	status := success
	for _, hash := range hashes {
		plaintext, found, err := cracker.CrackHex(ctx, hash)
		switch {
		case errors.Is(err, rainbow.ErrInvalidDigest):
			log.Warn().Err(err).Str("hash", hash).Msg("Invalid hash")
			status = invalid
		case err != nil:
			log.Error().Err(err).Msg("Crack interrupted")
			return failure
		case found:
			_, _ = fmt.Fprintf(out, "%s\t%s\n", hash, plaintext)
		default:
			_, _ = fmt.Fprintf(out, "%s\t<not found>\n", hash)
		}
	}
	return status
}

func newProgressBar() *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("building chains"),
		progressbar.OptionThrottle(500*time.Millisecond),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("seeds"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSpinnerType(14),
	)
}
