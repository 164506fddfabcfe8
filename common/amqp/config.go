package amqp

import (
	"time"

	"github.com/ykhdr/crack-dict/common/amqp/connection"
	"github.com/ykhdr/crack-dict/common/amqp/consumer"
	"github.com/ykhdr/crack-dict/common/amqp/publisher"
)

type Config struct {
	URI              string        `kdl:"uri"`
	Username         string        `kdl:"username"`
	Password         string        `kdl:"password"`
	ReconnectTimeout time.Duration `kdl:"reconnect-timeout"`
	DialTimeout      time.Duration `kdl:"dial-timeout"`
	// Exchange is the fanout exchange match reports are broadcast on.
	Exchange string `kdl:"exchange"`
}

func (c *Config) ToPublisherConfig(marshal publisher.Marshal, contentType string) *publisher.Config {
	return &publisher.Config{
		Exchange:    c.Exchange,
		Marshal:     marshal,
		ContentType: contentType,
	}
}

// ToConsumerConfig subscribes a private auto-acked queue to the exchange.
func (c *Config) ToConsumerConfig(unmarshal consumer.Unmarshal) *consumer.Config {
	return &consumer.Config{
		Unmarshal: unmarshal,
		Binding:   &connection.Binding{Exchange: c.Exchange},
		AutoAck:   true,
		Exclusive: true,
	}
}
