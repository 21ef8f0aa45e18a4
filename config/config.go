// Package config loads the settings of a courier producer from a
// configuration file and the environment.
package config

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/retry.v1"

	"github.com/heetch/courier/delivery"
	"github.com/heetch/courier/resend"
)

// Broker client implementations.
const (
	ClientSarama    = "sarama"
	ClientKafkaGo   = "kafka-go"
	ClientConfluent = "confluent"
)

var defaultTopics = map[delivery.Mode]string{
	delivery.AtMostOnce:  "at-most-once-topic",
	delivery.AtLeastOnce: "at-least-once-topic",
	delivery.ExactlyOnce: "exactly-once-topic",
}

// DefaultTopic returns the topic messages of mode are sent to unless
// configured otherwise.
func DefaultTopic(mode delivery.Mode) string {
	return defaultTopics[mode]
}

// Settings holds the configuration of a producer.
type Settings struct {
	// File is the configuration file used, if any.
	File string

	Kafka    KafkaSettings
	Producer ProducerSettings
	Backoff  BackoffSettings
	Logging  LoggingSettings
	Metrics  MetricsSettings
}

// KafkaSettings contains the connection settings.
type KafkaSettings struct {
	Brokers []string
	// Client is the broker client implementation: sarama, kafka-go or
	// confluent.
	Client string
}

// ProducerSettings contains the delivery settings.
type ProducerSettings struct {
	ClientID        string
	Mode            delivery.Mode
	Topic           string
	MaxMessageBytes int
	PoolSize        int
}

// BackoffSettings configures the delay between the attempts of an
// at-least-once message. A zero Initial delay retries immediately.
type BackoffSettings struct {
	Initial time.Duration
	Max     time.Duration
	Factor  float64
	Jitter  bool
}

// Strategy returns the retry strategy described by b, or nil for
// immediate retries.
func (b BackoffSettings) Strategy() retry.Strategy {
	if b.Initial <= 0 {
		return nil
	}
	return resend.Exponential(b.Initial, b.Max, b.Factor, b.Jitter)
}

// LoggingSettings contains logging configuration
type LoggingSettings struct {
	Level string
}

// MetricsSettings contains metrics configuration
type MetricsSettings struct {
	Namespace string
}

func (s *Settings) validate() error {
	var validationErrors []string

	if len(s.Kafka.Brokers) == 0 {
		validationErrors = append(validationErrors, "KAFKA_BROKERS is required")
	}
	switch s.Kafka.Client {
	case ClientSarama, ClientKafkaGo, ClientConfluent:
	default:
		validationErrors = append(validationErrors, "KAFKA_CLIENT must be one of sarama, kafka-go or confluent")
	}
	if s.Kafka.Client == ClientKafkaGo && s.Producer.Mode == delivery.ExactlyOnce {
		validationErrors = append(validationErrors, "KAFKA_CLIENT kafka-go does not support exactly-once delivery")
	}
	if s.Producer.ClientID == "" {
		validationErrors = append(validationErrors, "CLIENT_ID is required")
	}
	if s.Producer.Topic == "" {
		validationErrors = append(validationErrors, "TOPIC is required")
	}
	if s.Producer.MaxMessageBytes <= 0 {
		validationErrors = append(validationErrors, "MAX_MESSAGE_BYTES must be greater than 0")
	}
	if s.Producer.PoolSize <= 0 {
		validationErrors = append(validationErrors, "WORKER_POOL_SIZE must be greater than 0")
	}
	if s.Backoff.Initial > 0 {
		if s.Backoff.Max < s.Backoff.Initial {
			validationErrors = append(validationErrors, "BACKOFF_MAX must not be lower than BACKOFF_INITIAL")
		}
		if s.Backoff.Factor < 1 {
			validationErrors = append(validationErrors, "BACKOFF_FACTOR must be at least 1")
		}
	}

	if len(validationErrors) > 0 {
		return errors.New(strings.Join(validationErrors, ", "))
	}
	return nil
}
