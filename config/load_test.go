package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heetch/courier/delivery"
)

// chdir moves to a new temporary directory for the duration of the test.
func chdir(t *testing.T) string {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		_ = os.Chdir(wd)
	})
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdir(t)

	s, err := Load("missing")
	require.NoError(t, err)
	assert.Empty(t, s.File)
	assert.Equal(t, []string{"localhost:9092"}, s.Kafka.Brokers)
	assert.Equal(t, ClientSarama, s.Kafka.Client)
	assert.Equal(t, "courier", s.Producer.ClientID)
	assert.Equal(t, delivery.AtLeastOnce, s.Producer.Mode)
	assert.Equal(t, "at-least-once-topic", s.Producer.Topic)
	assert.Equal(t, 1000000, s.Producer.MaxMessageBytes)
	assert.Equal(t, 256, s.Producer.PoolSize)
	assert.Equal(t, "info", s.Logging.Level)
	assert.Equal(t, "courier", s.Metrics.Namespace)
	assert.Nil(t, s.Backoff.Strategy())
}

func TestLoadFile(t *testing.T) {
	dir := chdir(t)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "configs"), 0755))

	content := "KAFKA_BROKERS=kafka1:9092,kafka2:9092\n" +
		"DELIVERY_MODE=EXACTLY_ONCE\n" +
		"CLIENT_ID=payments\n" +
		"BACKOFF_INITIAL=100ms\n" +
		"BACKOFF_MAX=1s\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "configs", "courier.env"), []byte(content), 0644))

	s, err := Load("courier")
	require.NoError(t, err)
	assert.Contains(t, s.File, "courier.env")
	assert.Equal(t, []string{"kafka1:9092", "kafka2:9092"}, s.Kafka.Brokers)
	assert.Equal(t, delivery.ExactlyOnce, s.Producer.Mode)
	assert.Equal(t, "exactly-once-topic", s.Producer.Topic)
	assert.Equal(t, "payments", s.Producer.ClientID)
	assert.Equal(t, 100*time.Millisecond, s.Backoff.Initial)
	assert.NotNil(t, s.Backoff.Strategy())

	s, err = LoadWithName("configs/courier")
	require.NoError(t, err)
	assert.Equal(t, "payments", s.Producer.ClientID)
}

func TestLoadEnvOverrides(t *testing.T) {
	chdir(t)
	t.Setenv("COURIER_DELIVERY_MODE", "at-most-once")
	t.Setenv("COURIER_TOPIC", "events")
	t.Setenv("COURIER_KAFKA_CLIENT", "Kafka-Go")

	s, err := Load("missing")
	require.NoError(t, err)
	assert.Equal(t, delivery.AtMostOnce, s.Producer.Mode)
	assert.Equal(t, "events", s.Producer.Topic)
	assert.Equal(t, ClientKafkaGo, s.Kafka.Client)
}

func TestLoadInvalid(t *testing.T) {
	chdir(t)

	t.Setenv("COURIER_DELIVERY_MODE", "twice")
	_, err := Load("missing")
	require.EqualError(t, err, `invalid configuration: unknown delivery mode "twice"`)

	t.Setenv("COURIER_DELIVERY_MODE", "exactly-once")
	t.Setenv("COURIER_KAFKA_CLIENT", "kafka-go")
	t.Setenv("COURIER_WORKER_POOL_SIZE", "0")
	_, err = Load("missing")
	require.EqualError(t, err, "invalid configuration: "+
		"KAFKA_CLIENT kafka-go does not support exactly-once delivery, "+
		"WORKER_POOL_SIZE must be greater than 0")
}

func TestSettingsValidate(t *testing.T) {
	s := Settings{
		Kafka:    KafkaSettings{Client: "rabbit"},
		Producer: ProducerSettings{Mode: delivery.AtLeastOnce, MaxMessageBytes: 1, PoolSize: 1},
		Backoff:  BackoffSettings{Initial: time.Second, Max: time.Millisecond, Factor: 0.5},
	}
	require.EqualError(t, s.validate(), "KAFKA_BROKERS is required, "+
		"KAFKA_CLIENT must be one of sarama, kafka-go or confluent, "+
		"CLIENT_ID is required, "+
		"TOPIC is required, "+
		"BACKOFF_MAX must not be lower than BACKOFF_INITIAL, "+
		"BACKOFF_FACTOR must be at least 1")
}
