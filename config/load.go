package config

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/heetch/courier/delivery"
)

// EnvPrefix prefixes the environment variables read by Load: the
// DELIVERY_MODE setting is read from $COURIER_DELIVERY_MODE.
const EnvPrefix = "COURIER"

// Load loads the settings from the <name>.env file found in ./configs
// or the working directory, if any.
func Load(name string) (*Settings, error) {
	return load(name+".env", "env")
}

// LoadWithName loads the settings from the file with the given base
// name, auto-detecting its type from its extension.
func LoadWithName(name string) (*Settings, error) {
	return load(name, "")
}

// load is layered:
// 1. defaults
// 2. config file values, if a file is found
// 3. environment variables
// 4. validation
func load(name, typ string) (*Settings, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName(name)
	if typ != "" {
		v.SetConfigType(typ)
	}
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrapf(err, "cannot read config file %q", v.ConfigFileUsed())
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	mode, err := delivery.ParseMode(v.GetString("DELIVERY_MODE"))
	if err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	topic := v.GetString("TOPIC")
	if topic == "" {
		topic = DefaultTopic(mode)
	}

	s := &Settings{
		File: v.ConfigFileUsed(),
		Kafka: KafkaSettings{
			Brokers: splitList(v.GetString("KAFKA_BROKERS")),
			Client:  strings.ToLower(v.GetString("KAFKA_CLIENT")),
		},
		Producer: ProducerSettings{
			ClientID:        v.GetString("CLIENT_ID"),
			Mode:            mode,
			Topic:           topic,
			MaxMessageBytes: v.GetInt("MAX_MESSAGE_BYTES"),
			PoolSize:        v.GetInt("WORKER_POOL_SIZE"),
		},
		Backoff: BackoffSettings{
			Initial: v.GetDuration("BACKOFF_INITIAL"),
			Max:     v.GetDuration("BACKOFF_MAX"),
			Factor:  v.GetFloat64("BACKOFF_FACTOR"),
			Jitter:  v.GetBool("BACKOFF_JITTER"),
		},
		Logging: LoggingSettings{
			Level: v.GetString("LOG_LEVEL"),
		},
		Metrics: MetricsSettings{
			Namespace: v.GetString("METRICS_NAMESPACE"),
		},
	}

	if err := s.validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return s, nil
}

// setDefaults sets a development baseline: brokers on localhost and
// immediate retries.
func setDefaults(v *viper.Viper) {
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_CLIENT", ClientSarama)

	v.SetDefault("CLIENT_ID", "courier")
	v.SetDefault("DELIVERY_MODE", delivery.AtLeastOnce.String())
	v.SetDefault("TOPIC", "")
	v.SetDefault("MAX_MESSAGE_BYTES", 1000000)
	v.SetDefault("WORKER_POOL_SIZE", 256)

	v.SetDefault("BACKOFF_INITIAL", time.Duration(0))
	v.SetDefault("BACKOFF_MAX", 5*time.Second)
	v.SetDefault("BACKOFF_FACTOR", 2.0)
	v.SetDefault("BACKOFF_JITTER", false)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("METRICS_NAMESPACE", "courier")
}

func splitList(s string) []string {
	var list []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	return list
}
