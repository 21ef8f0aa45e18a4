// Package courier wires the producer of a configured delivery mode:
// settings, logger, metrics and broker client.
package courier

import (
	"context"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/heetch/courier/broker"
	"github.com/heetch/courier/broker/confluentbroker"
	"github.com/heetch/courier/broker/kafkagobroker"
	"github.com/heetch/courier/broker/saramabroker"
	"github.com/heetch/courier/common"
	"github.com/heetch/courier/config"
	"github.com/heetch/courier/metrics"
	"github.com/heetch/courier/producer"
)

// Courier sends messages to the configured topic.
type Courier struct {
	*producer.Producer

	topic  string
	logger *zap.Logger
}

// New creates a Courier from s. Metrics are registered with reg when
// it is not nil. Exactly-once producers register their transactional
// id with the brokers before New returns, bounded by ctx.
func New(ctx context.Context, s *config.Settings, reg prometheus.Registerer) (*Courier, error) {
	logger, err := common.NewLogger(s.Logging.Level)
	if err != nil {
		return nil, err
	}
	client, err := NewClient(ctx, s)
	if err != nil {
		return nil, err
	}
	c, err := NewFromClient(s, client, logger, reg)
	if err != nil {
		client.Close()
		return nil, err
	}
	return c, nil
}

// NewClient creates the broker client selected by s.Kafka.Client,
// configured for the delivery mode of s.
func NewClient(ctx context.Context, s *config.Settings) (broker.Client, error) {
	pcfg := producerConfig(s)
	policy := pcfg.Policy()

	var (
		client broker.Client
		err    error
	)
	switch s.Kafka.Client {
	case config.ClientSarama:
		scfg := saramabroker.NewConfig(pcfg.ClientID)
		scfg.Producer.MaxMessageBytes = pcfg.MaxMessageBytes
		if err := saramabroker.Configure(scfg, policy, pcfg.TransactionalID()); err != nil {
			return nil, err
		}
		client, err = saramabroker.New(s.Kafka.Brokers, scfg)
	case config.ClientKafkaGo:
		client, err = kafkagobroker.New(s.Kafka.Brokers, policy)
	case config.ClientConfluent:
		conf, cerr := confluentbroker.ConfigMap(s.Kafka.Brokers, pcfg.ClientID, policy, pcfg.TransactionalID())
		if cerr != nil {
			return nil, cerr
		}
		client, err = confluentbroker.New(ctx, conf)
	default:
		return nil, errors.Errorf("unknown kafka client %q", s.Kafka.Client)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "cannot create %s client", s.Kafka.Client)
	}
	return client, nil
}

// NewFromClient creates a Courier sending through client.
func NewFromClient(s *config.Settings, client broker.Client, logger *zap.Logger, reg prometheus.Registerer) (*Courier, error) {
	pcfg := producerConfig(s)
	pcfg.Logger = logger
	if reg != nil {
		m, err := metrics.NewPrometheus(reg, s.Metrics.Namespace, pcfg.Mode)
		if err != nil {
			return nil, err
		}
		pcfg.Metrics = m
	}

	p, err := producer.New(pcfg, client)
	if err != nil {
		return nil, err
	}

	logger.Info("producer ready",
		zap.Stringer("mode", pcfg.Mode),
		zap.String("topic", s.Producer.Topic),
		zap.String("kafka_client", s.Kafka.Client),
		zap.Strings("brokers", s.Kafka.Brokers),
	)
	return &Courier{
		Producer: p,
		topic:    s.Producer.Topic,
		logger:   logger,
	}, nil
}

func producerConfig(s *config.Settings) producer.Config {
	pcfg := producer.NewConfig(s.Producer.ClientID, s.Producer.Mode)
	pcfg.MaxMessageBytes = s.Producer.MaxMessageBytes
	pcfg.PoolSize = s.Producer.PoolSize
	pcfg.Backoff = s.Backoff.Strategy()
	return pcfg
}

// Topic returns the topic Publish sends to.
func (c *Courier) Topic() string {
	return c.topic
}

// Publish sends body to the configured topic.
func (c *Courier) Publish(ctx context.Context, body interface{}, opts ...producer.Option) *producer.Future {
	return c.Send(ctx, c.topic, body, opts...)
}

// Close closes the producer and flushes the logger.
func (c *Courier) Close() error {
	err := c.Producer.Close()
	_ = c.logger.Sync()
	return err
}
