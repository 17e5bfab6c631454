package config

import (
	"github.com/pkg/errors"
	"github.com/ykhdr/rainbow-hash/internal/amqp"
	"github.com/ykhdr/rainbow-hash/internal/consul"
	"github.com/ykhdr/rainbow-hash/internal/kdl"
	"github.com/ykhdr/rainbow-hash/internal/rainbow"
	"github.com/ykhdr/rainbow-hash/internal/store/tablestore"
)

const (
	DefaultConfigPath = "./config/config.kdl"
	DefaultSeedsPath  = "list.txt"
)

type RainbowConfig struct {
	LogConfig
	SeedsPath     string             `kdl:"seeds-path"`
	ApiServerAddr string             `kdl:"api-server-addr"`
	AdvertiseAddr string             `kdl:"advertise-addr"`
	Rainbow       *rainbow.Config    `kdl:"rainbow"`
	Store         *tablestore.Config `kdl:"store"`
	AmqpConfig    *amqp.Config       `kdl:"amqp"`
	ConsulConfig  *consul.Config     `kdl:"consul"`
}

// DefaultConfig leaves AMQP and Consul disabled; declaring their blocks in the
// config file enables them.
func DefaultConfig() *RainbowConfig {
	return &RainbowConfig{
		LogConfig:     LogConfig{LogLevel: "info"},
		SeedsPath:     DefaultSeedsPath,
		ApiServerAddr: "127.0.0.1:8080",
		Rainbow:       rainbow.DefaultConfig(),
		Store:         tablestore.DefaultConfig(),
	}
}

// InitializeConfig reads the KDL file at path over the defaults and sets up
// logging. An empty path yields the defaults alone.
func InitializeConfig(path string) (*RainbowConfig, error) {
	cfg := DefaultConfig()
	if path != "" {
		loaded, err := kdl.Unmarshal[RainbowConfig](path, *cfg)
		if err != nil {
			return nil, errors.Wrap(err, "unmarshal kdl")
		}
		cfg = &loaded
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	SetupLogger(cfg)
	return cfg, nil
}

func (c *RainbowConfig) Validate() error {
	if c.Rainbow == nil {
		c.Rainbow = rainbow.DefaultConfig()
	}
	if c.Store == nil {
		c.Store = tablestore.DefaultConfig()
	}
	if err := c.Rainbow.Validate(); err != nil {
		return err
	}
	if c.AmqpConfig != nil {
		defaults := amqp.DefaultConfig()
		if c.AmqpConfig.ReconnectTimeout <= 0 {
			c.AmqpConfig.ReconnectTimeout = defaults.ReconnectTimeout
		}
		if c.AmqpConfig.ConsumerConfig == nil {
			c.AmqpConfig.ConsumerConfig = defaults.ConsumerConfig
		}
		if c.AmqpConfig.PublisherConfig == nil {
			c.AmqpConfig.PublisherConfig = defaults.PublisherConfig
		}
		if c.AmqpConfig.ConsumerConfig.Queue == "" {
			return errors.New("amqp consumer queue is required")
		}
	}
	if c.ConsulConfig != nil && c.ConsulConfig.ServiceName == "" {
		c.ConsulConfig.ServiceName = consul.DefaultConfig().ServiceName
	}
	return nil
}
