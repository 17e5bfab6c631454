package hashcrack

import (
	"context"
	"encoding/json"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	amqpcfg "github.com/ykhdr/rainbow-hash/internal/amqp"
	amqpconn "github.com/ykhdr/rainbow-hash/internal/amqp/connection"
	"github.com/ykhdr/rainbow-hash/internal/amqp/consumer"
	"github.com/ykhdr/rainbow-hash/internal/amqp/publisher"
	"github.com/ykhdr/rainbow-hash/internal/rainbow"
	"github.com/ykhdr/rainbow-hash/pkg/messages"
)

// Service answers crack requests arriving over AMQP.
type Service struct {
	l            zerolog.Logger
	cfg          *amqpcfg.Config
	consumerCfg  *consumer.Config
	publisherCfg *publisher.Config
	cracker      *rainbow.Cracker

	amqpConn      *amqpconn.Connection
	amqpPublisher publisher.Publisher[messages.CrackResponse]
}

func NewService(cfg *amqpcfg.Config, cracker *rainbow.Cracker, amqpConn *amqpconn.Connection) *Service {
	return &Service{
		cfg:          cfg,
		cracker:      cracker,
		amqpConn:     amqpConn,
		consumerCfg:  cfg.ConsumerConfig.ToConsumerConfig(json.Unmarshal, false),
		publisherCfg: cfg.PublisherConfig.ToPublisherConfig(json.Marshal, "application/json"),
		l: log.With().
			Str("domain", "hashcrack").
			Logger(),
	}
}

// Start consumes requests until ctx is done.
func (s *Service) Start(ctx context.Context) error {
	ch, err := s.amqpConn.Channel(ctx, s.cfg.Prefetch)
	if err != nil {
		s.l.Warn().Err(err).Msg("Error create amqp channel")
		return errors.Wrap(err, "error create amqp channel")
	}
	defer func() { _ = ch.Close() }()
	s.amqpPublisher = publisher.New[messages.CrackResponse](ch, s.publisherCfg)
	amqpConsumer := consumer.New(ch, s.receive, s.consumerCfg)
	s.l.Info().Str("queue", s.consumerCfg.Queue).Msg("Hashcrack service is running")
	amqpConsumer.Subscribe(ctx)
	return nil
}

func (s *Service) receive(ctx context.Context, data *messages.CrackRequest, d amqp.Delivery) error {
	resp, err := s.crackTask(ctx, data)
	if err != nil {
		if nackErr := d.Nack(false, true); nackErr != nil {
			return errors.Wrap(nackErr, "error nack delivery")
		}
		return err
	}
	if err := s.amqpPublisher.SendMessage(ctx, resp, publisher.Persistent, false, false); err != nil {
		if nackErr := d.Nack(false, true); nackErr != nil {
			return errors.Wrap(nackErr, "error nack delivery")
		}
		return err
	}
	if err := d.Ack(false); err != nil {
		return errors.Wrap(err, "error ack delivery")
	}
	return nil
}

// crackTask answers a single request. A malformed hash is reported in the
// response; only an interrupted search is returned as an error, so the
// request can be redelivered.
func (s *Service) crackTask(ctx context.Context, req *messages.CrackRequest) (*messages.CrackResponse, error) {
	s.l.Debug().
		Str("req-id", req.RequestId).
		Str("hash", req.Hash).
		Msg("cracking task")
	resp := &messages.CrackResponse{
		Id:        uuid.NewString(),
		RequestId: req.RequestId,
		Hash:      req.Hash,
	}
	plaintext, found, err := s.cracker.CrackHex(ctx, req.Hash)
	switch {
	case errors.Is(err, rainbow.ErrInvalidDigest):
		s.l.Warn().Err(err).Str("req-id", req.RequestId).Msg("invalid hash in request")
		resp.Error = err.Error()
	case err != nil:
		return nil, errors.Wrap(err, "crack interrupted")
	default:
		resp.Found = found
		resp.Plaintext = plaintext
	}
	return resp, nil
}
