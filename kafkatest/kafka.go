// Package kafkatest provides a package intended for running tests
// that require a Kafka backend.
package kafkatest

import (
	"crypto/rand"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Shopify/sarama"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/retry.v1"

	"github.com/heetch/courier/broker/saramabroker"
	"github.com/heetch/courier/config"
	"github.com/heetch/courier/delivery"
	"github.com/heetch/courier/producer"
)

var ErrDisabled = errors.New("kafka tests are disabled")

// New connects to a Kafka instance and returns a Kafka
// instance that uses it.
//
// The following environment variables can be used to
// configure the connection parameters:
//
//	- $KAFKA_DISABLE
//		A boolean as parsed by strconv.ParseBool. If this is true,
//		New will return ErrDisabled.
//	- $KAFKA_ADDRS
//		A comma-separate list of Kafka broker addresses in host:port
//		form. If this is empty, localhost:9092 will be used.
//		The list of address can be discovered by calling Kafka.Addrs.
//	- $KAFKA_USERNAME, $KAFKA_PASSWORD
//		The username and password to use for SASL authentication.
//		When $KAFKA_USERNAME is non-empty, SASL will be
//		enabled.
//	- $KAFKA_USE_TLS
//		A boolean as parsed by strconv.ParseBool. If this
//		is true, a secure TLS connection will be used.
//	- $KAFKA_TIMEOUT
//		The maximum duration to wait when trying to connect
//		to Kafka. Defaults to "30s".
//
// The returned Kafka instance must be closed after use.
func New() (*Kafka, error) {
	disabled, err := boolVar("KAFKA_DISABLE")
	if err != nil {
		return nil, errors.Wrap(err, "bad value for $KAFKA_DISABLE")
	}
	if disabled {
		return nil, ErrDisabled
	}
	addrsStr := os.Getenv("KAFKA_ADDRS")
	if addrsStr == "" {
		addrsStr = "localhost:9092"
	}
	useTLS, err := boolVar("KAFKA_USE_TLS")
	if err != nil {
		return nil, errors.Wrap(err, "bad value for $KAFKA_USE_TLS")
	}
	k := &Kafka{
		addrs:        strings.Split(addrsStr, ","),
		useTLS:       useTLS,
		saslUser:     os.Getenv("KAFKA_USERNAME"),
		saslPassword: os.Getenv("KAFKA_PASSWORD"),
		Logger:       zap.NewNop(),
	}
	// The cluster might not be available immediately, so try
	// for a while before giving up.
	retryLimit := 30 * time.Second
	if limit := os.Getenv("KAFKA_TIMEOUT"); limit != "" {
		retryLimit, err = time.ParseDuration(limit)
		if err != nil {
			return nil, errors.Wrap(err, "bad value for $KAFKA_TIMEOUT")
		}
	}
	retryStrategy := retry.LimitTime(retryLimit, retry.Exponential{
		Initial:  time.Millisecond,
		MaxDelay: time.Second,
	})
	t0 := time.Now()
	for a := retry.Start(retryStrategy, nil); ; {
		admin, err := sarama.NewClusterAdmin(k.addrs, k.Config())
		if err == nil {
			k.Logger.Info("connected to kafka", zap.Duration("after", time.Since(t0)))
			k.admin = admin
			return k, nil
		}
		if !a.Next() {
			return nil, errors.Wrapf(err, "cannot connect to Kafka cluster at %q after %v", k.addrs, retryLimit)
		}
	}
}

// Kafka represents a connection to a Kafka cluster.
type Kafka struct {
	// Logger is given to the producers created by Producer.
	Logger *zap.Logger

	addrs        []string
	useTLS       bool
	saslUser     string
	saslPassword string
	admin        sarama.ClusterAdmin
	topics       []string
}

// Config returns a sarama configuration that will
// use connection parameters defined in the environment
// variables described in New.
func (k *Kafka) Config() *sarama.Config {
	cfg := sarama.NewConfig()
	k.InitConfig(cfg)
	return cfg
}

// InitConfig is similar to Config, except that instead of
// returning a new configuration, it configures an existing
// one.
func (k *Kafka) InitConfig(cfg *sarama.Config) {
	if cfg.Version == sarama.MinVersion {
		cfg.Version = sarama.V1_0_0_0
	}
	cfg.Net.TLS.Enable = k.useTLS
	if k.saslUser != "" {
		cfg.Net.SASL.Enable = true
		cfg.Net.SASL.User = k.saslUser
		cfg.Net.SASL.Password = k.saslPassword
	}
}

// Addrs returns the configured Kafka broker addresses.
func (k *Kafka) Addrs() []string {
	return k.addrs
}

// NewTopic creates a new Kafka topic with a random name and
// single partition. It returns the topic's name. The topic will be deleted
// when k.Close is called.
//
// NewTopic panics if the topic cannot be created.
func (k *Kafka) NewTopic() string {
	topic, err := k.NewTopicWith(1, 1)
	if err != nil {
		panic(err)
	}
	return topic
}

// NewTopicWith is like NewTopic with the given number of partitions
// and replication factor. The replication factor is capped to the size
// of the cluster.
func (k *Kafka) NewTopicWith(partitions int32, replication int16) (string, error) {
	topic := randomName("kafkatest-")
	if err := k.createTopic(topic, partitions, replication); err != nil {
		return "", err
	}
	k.topics = append(k.topics, topic)
	return topic, nil
}

func (k *Kafka) createTopic(topic string, partitions int32, replication int16) error {
	if k.admin == nil {
		return errors.New("cannot create topic with closed kafkatest.Kafka instance")
	}
	brokers, _, err := k.admin.DescribeCluster()
	if err != nil {
		return errors.Wrap(err, "cannot describe cluster")
	}
	if n := int16(len(brokers)); n > 0 && replication > n {
		replication = n
	}
	err = k.admin.CreateTopic(topic, &sarama.TopicDetail{
		NumPartitions:     partitions,
		ReplicationFactor: replication,
	}, false)
	if err != nil && !errors.Is(err, sarama.ErrTopicAlreadyExists) {
		return errors.Wrapf(err, "cannot create topic %q", topic)
	}
	return nil
}

// EnsureDefaultTopics creates the topic of every delivery mode, with 3
// partitions replicated 3 times, unless they already exist. These
// topics are not deleted by Close.
func (k *Kafka) EnsureDefaultTopics() error {
	for _, m := range delivery.Modes() {
		if err := k.createTopic(config.DefaultTopic(m), 3, 3); err != nil {
			return err
		}
	}
	return nil
}

// Producer returns a producer of the given mode, sending through
// sarama with the connection parameters of k.
func (k *Kafka) Producer(clientID string, mode delivery.Mode) (*producer.Producer, error) {
	pcfg := producer.NewConfig(clientID, mode)
	pcfg.Logger = k.Logger

	scfg := saramabroker.NewConfig(clientID)
	k.InitConfig(scfg)
	if err := saramabroker.Configure(scfg, pcfg.Policy(), pcfg.TransactionalID()); err != nil {
		return nil, err
	}
	client, err := saramabroker.New(k.addrs, scfg)
	if err != nil {
		return nil, err
	}
	p, err := producer.New(pcfg, client)
	if err != nil {
		client.Close()
		return nil, err
	}
	return p, nil
}

// Close closes the client connection and removes any topics
// created by NewTopic. This method may be called more than once.
func (k *Kafka) Close() error {
	if k.admin == nil {
		return nil
	}
	for ; len(k.topics) != 0; k.topics = k.topics[1:] {
		if err := k.admin.DeleteTopic(k.topics[0]); err != nil {
			return errors.Wrapf(err, "cannot delete topic %q", k.topics[0])
		}
	}
	k.admin.Close()
	k.admin = nil
	return nil
}

func boolVar(envVar string) (bool, error) {
	s := os.Getenv(envVar)
	if s == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, errors.Errorf("invalid boolean value %q (possible values are: 1, t, T, TRUE, true, True, 0, f, F, FALSE)", s)
	}
	return b, nil
}

func randomName(prefix string) string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return fmt.Sprintf("%s%x", prefix, buf)
}
