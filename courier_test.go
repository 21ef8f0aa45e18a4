package courier_test

import (
	"context"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/heetch/courier"
	"github.com/heetch/courier/broker/brokertest"
	"github.com/heetch/courier/broker/kafkagobroker"
	"github.com/heetch/courier/common"
	"github.com/heetch/courier/config"
	"github.com/heetch/courier/delivery"
	"github.com/heetch/courier/producer"
)

func settings(mode delivery.Mode) *config.Settings {
	return &config.Settings{
		Kafka: config.KafkaSettings{
			Brokers: []string{"localhost:9092"},
			Client:  config.ClientSarama,
		},
		Producer: config.ProducerSettings{
			ClientID:        "test",
			Mode:            mode,
			Topic:           config.DefaultTopic(mode),
			MaxMessageBytes: 1000000,
			PoolSize:        8,
		},
		Logging: config.LoggingSettings{Level: "debug"},
		Metrics: config.MetricsSettings{Namespace: "courier"},
	}
}

func TestPublish(t *testing.T) {
	c := qt.New(t)
	for _, mode := range delivery.Modes() {
		c.Run(mode.String(), func(c *qt.C) {
			logger := common.NewTestLogger(c)
			client := brokertest.New(brokertest.FailFirst(1, nil))
			reg := prometheus.NewRegistry()

			cr, err := courier.NewFromClient(settings(mode), client, logger.Logger, reg)
			c.Assert(err, qt.IsNil)
			logger.LogLineMatches("^info producer ready$")
			c.Assert(cr.Topic(), qt.Equals, config.DefaultTopic(mode))

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			o, err := cr.Publish(ctx, "hello", producer.StrKey("key")).Wait(ctx)

			switch mode {
			case delivery.AtLeastOnce:
				c.Assert(err, qt.IsNil)
				c.Assert(o.Attempts, qt.Equals, 2)
			default:
				c.Assert(err, qt.ErrorIs, brokertest.ErrUnavailable)
				c.Assert(o.Attempts, qt.Equals, 1)
			}
			c.Assert(client.Records()[0].Topic, qt.Equals, config.DefaultTopic(mode))

			families, err := reg.Gather()
			c.Assert(err, qt.IsNil)
			c.Assert(families, qt.Not(qt.HasLen), 0)

			c.Assert(cr.Close(), qt.IsNil)
			c.Assert(client.Closed(), qt.IsTrue)
		})
	}
}

func TestNewFromClientRejectsPlainClientForExactlyOnce(t *testing.T) {
	c := qt.New(t)
	_, err := courier.NewFromClient(settings(delivery.ExactlyOnce), brokertest.New().Plain(), zap.NewNop(), nil)
	c.Assert(err, qt.ErrorIs, delivery.ErrNotTransactional)
}

func TestNewClient(t *testing.T) {
	c := qt.New(t)
	s := settings(delivery.AtLeastOnce)
	s.Kafka.Client = config.ClientKafkaGo

	client, err := courier.NewClient(context.Background(), s)
	c.Assert(err, qt.IsNil)
	_, ok := client.(*kafkagobroker.Client)
	c.Assert(ok, qt.IsTrue)
	c.Assert(client.Close(), qt.IsNil)

	s.Kafka.Client = "rabbit"
	_, err = courier.NewClient(context.Background(), s)
	c.Assert(err, qt.ErrorMatches, `unknown kafka client "rabbit"`)
}
