package amqp

import (
	"github.com/ykhdr/rainbow-hash/internal/amqp/consumer"
	"github.com/ykhdr/rainbow-hash/internal/amqp/publisher"
	"time"
)

type Config struct {
	URI              string           `kdl:"uri"`
	Username         string           `kdl:"username"`
	Password         string           `kdl:"password"`
	ReconnectTimeout time.Duration    `kdl:"reconnect-timeout"`
	Prefetch         int              `kdl:"prefetch"`
	PublisherConfig  *PublisherConfig `kdl:"publisher"`
	ConsumerConfig   *ConsumerConfig  `kdl:"consumer"`
}

func DefaultConfig() *Config {
	return &Config{
		URI:              "amqp://rabbitmq:5672/",
		Username:         "guest",
		Password:         "guest",
		ReconnectTimeout: 5 * time.Second,
		Prefetch:         1,
		PublisherConfig: &PublisherConfig{
			Exchange:   "rainbow",
			RoutingKey: "crack.response",
		},
		ConsumerConfig: &ConsumerConfig{
			Queue: "crack.request",
		},
	}
}

type PublisherConfig struct {
	Exchange   string `kdl:"exchange"`
	RoutingKey string `kdl:"routing-key"`
}

func (p *PublisherConfig) ToPublisherConfig(
	marshal publisher.Marshal,
	contentType string,
) *publisher.Config {
	return &publisher.Config{
		Exchange:    p.Exchange,
		RoutingKey:  p.RoutingKey,
		Marshal:     marshal,
		ContentType: contentType,
	}
}

type ConsumerConfig struct {
	Queue    string `kdl:"queue"`
	Consumer string `kdl:"consumer"`
}

func (c *ConsumerConfig) ToConsumerConfig(unmarshal consumer.Unmarshal, autoAck bool) *consumer.Config {
	return &consumer.Config{
		Unmarshal: unmarshal,
		Queue:     c.Queue,
		Consumer:  c.Consumer,
		AutoAck:   autoAck,
	}
}
