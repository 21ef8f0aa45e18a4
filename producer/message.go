package producer

import (
	"time"

	"github.com/rogpeppe/fastuuid"

	"github.com/heetch/courier/codec"
)

var uuids = fastuuid.MustNewGenerator()

// Message represents a message to be sent via Kafka.
// Before sending it, the producer will transform this structure into a
// broker.Record using the configured MessageConverter.
type Message struct {
	// The Kafka topic this Message applies to.
	Topic string

	// If specified, messages with the same key will be sent to the same Kafka partition.
	Key codec.Encoder

	// Body of the Kafka message. A codec.Encoder is used as is, a byte
	// slice is sent untouched and anything else is encoded as JSON.
	Body interface{}

	// The time at which this Message was produced.
	ProducedAt time.Time

	// Headers of the message.
	Headers map[string]string

	// Unique ID of the message. Defaults to an uuid.
	ID string
}

// prepare makes sure the message contains a unique ID and
// the Headers map memory is allocated.
func (m *Message) prepare() {
	if m.ID == "" {
		m.ID = uuids.Hex128()
	}

	if m.Headers == nil {
		m.Headers = make(map[string]string)
	}
}

// NewMessage creates a configured message with a generated unique ID.
func NewMessage(topic string, body interface{}, opts ...Option) *Message {
	m := &Message{
		Topic:   topic,
		Body:    body,
		Headers: make(map[string]string),
		ID:      uuids.Hex128(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Option is a function type that receives a pointer to a Message and
// modifies it in place. Options are intended to customize a message
// before sending it. You can do this either by passing them as
// parameters to the NewMessage or Send functions, or by calling them
// directly against a Message.
type Option func(*Message)

// Header is an Option that adds a custom header to the message. If
// multiple Header's are defined for the same key, the value of the
// last one wins.
func Header(k, v string) Option {
	return func(m *Message) {
		if m.Headers == nil {
			m.Headers = make(map[string]string)
		}
		m.Headers[k] = v
	}
}

// Key is an Option that specifies a key for the message.
func Key(key codec.Encoder) Option {
	return func(m *Message) {
		m.Key = key
	}
}

// StrKey is an Option that specifies a key for the message as a string.
func StrKey(key string) Option {
	return Key(codec.StringEncoder(key))
}

// Int64Key is an Option that specifies a key for the message as an integer.
func Int64Key(key int64) Option {
	return Key(codec.Int64Encoder(key))
}

// Float64Key is an Option that specifies a key for the message as a float.
func Float64Key(key float64) Option {
	return Key(codec.Float64Encoder(key))
}

// ID is an Option that replaces the generated id of the message.
func ID(id string) Option {
	return func(m *Message) {
		m.ID = id
	}
}
