package main

import (
	"context"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/ykhdr/rainbow-hash/config"
	"github.com/ykhdr/rainbow-hash/internal/amqp"
	"github.com/ykhdr/rainbow-hash/internal/consul"
	"github.com/ykhdr/rainbow-hash/internal/hashcrack"
	"github.com/ykhdr/rainbow-hash/internal/net"
	"github.com/ykhdr/rainbow-hash/internal/provision"
	"github.com/ykhdr/rainbow-hash/internal/rainbow"
	"github.com/ykhdr/rainbow-hash/internal/server/api"
	"github.com/ykhdr/rainbow-hash/internal/store/tablestore"
	"golang.org/x/sync/errgroup"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	configPath := config.DefaultConfigPath
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}
	cfg, err := config.InitializeConfig(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing config")
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := tablestore.New(cfg.Store)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing table store")
	}
	defer func() { _ = closeStore(context.Background()) }()
	table, err := provision.LoadOrBuild(ctx, provision.Options{
		Store:     store,
		OpenSeeds: provision.FileSeeds(cfg.SeedsPath),
		Config:    cfg.Rainbow,
		Logger:    log.Logger,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Error preparing rainbow table")
	}
	cracker, err := rainbow.NewCracker(table, cfg.Rainbow, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing cracker")
	}

	group, gCtx := errgroup.WithContext(ctx)
	apiSrv := api.NewServer(cfg.ApiServerAddr, cracker)
	group.Go(func() error {
		return apiSrv.Start(gCtx)
	})
	if cfg.ConsulConfig != nil {
		deregister, err := registerInConsul(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("Error registering service in consul")
		}
		defer deregister()
	}
	if cfg.AmqpConfig != nil {
		amqpConn, err := amqp.Dial(gCtx, cfg.AmqpConfig)
		if err != nil {
			log.Fatal().Err(err).Msg("Error initializing amqp connection")
		}
		defer func() { _ = amqpConn.Close() }()
		crackSrv := hashcrack.NewService(cfg.AmqpConfig, cracker, amqpConn)
		group.Go(func() error {
			return crackSrv.Start(gCtx)
		})
	}
	if err = group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("Rainbow service failed")
	}
	log.Info().Msg("Rainbow service stopped")
}

func registerInConsul(cfg *config.RainbowConfig) (func(), error) {
	consulClient, err := consul.NewClient(cfg.ConsulConfig)
	if err != nil {
		return nil, err
	}
	host, port, err := net.AdvertiseAddr(cfg.ApiServerAddr, cfg.AdvertiseAddr)
	if err != nil {
		return nil, err
	}
	srv, err := consulClient.RegisterService(cfg.ConsulConfig.ServiceName, host, port)
	if err != nil {
		return nil, err
	}
	log.Info().Str("service-id", srv.Id()).Str("url", srv.Url()).Msg("Registered in consul")
	return func() {
		if err := consulClient.DeregisterService(srv); err != nil {
			log.Warn().Err(err).Msg("Failed to deregister from consul")
		}
	}, nil
}
