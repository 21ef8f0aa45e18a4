package producer

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/retry.v1"

	"github.com/heetch/courier/delivery"
)

// DefaultMaxMessageBytes is the default size limit of a record.
const DefaultMaxMessageBytes = 1000000

// Config is used to configure the Producer.
type Config struct {
	// ClientID identifies the producer. It is the suffix of the
	// transactional id of exactly-once producers.
	ClientID string

	// Mode is the delivery guarantee of every message sent.
	Mode delivery.Mode

	// MaxMessageBytes is the largest record accepted. Larger records
	// fail without being sent.
	MaxMessageBytes int

	// Converter turns messages into broker records.
	Converter MessageConverter

	// Logger defaults to a no-op logger.
	Logger *zap.Logger

	// Metrics is told about every outcome and retry.
	Metrics MetricsReporter

	// Backoff is the delay strategy between the attempts of an
	// at-least-once message. Nil means retrying immediately.
	Backoff retry.Strategy

	// PoolSize is the number of goroutines kept to run retries and
	// transactions.
	PoolSize int
}

// NewConfig creates a config with sane defaults.
func NewConfig(clientID string, mode delivery.Mode) Config {
	return Config{
		ClientID:        clientID,
		Mode:            mode,
		MaxMessageBytes: DefaultMaxMessageBytes,
		Converter:       MessageConverterV1(),
		Logger:          zap.NewNop(),
		Metrics:         nopReporter{},
		PoolSize:        256,
	}
}

// Policy returns the delivery policy of c.Mode.
func (c Config) Policy() delivery.Policy {
	return delivery.PolicyFor(c.Mode)
}

// TransactionalID returns the transactional id broker clients must be
// created with. It is empty unless c.Mode is transactional.
func (c Config) TransactionalID() string {
	return c.Policy().TransactionalID(c.ClientID)
}

func (c *Config) validate() error {
	if !c.Mode.Valid() {
		return errors.Errorf("invalid delivery mode %d", int(c.Mode))
	}
	if c.MaxMessageBytes <= 0 {
		return errors.New("max message bytes must be positive")
	}
	if c.PoolSize <= 0 {
		return errors.New("pool size must be positive")
	}
	if c.Converter == nil {
		c.Converter = MessageConverterV1()
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	if c.Metrics == nil {
		c.Metrics = nopReporter{}
	}
	return nil
}
