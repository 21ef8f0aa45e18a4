package producer

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/heetch/courier/broker"
	"github.com/heetch/courier/codec"
)

// A MessageConverter transforms a Message into a broker.Record.
// The role of the converter is to decouple the conventions defined
// by users from the producer.
// Each converter defines the way it wants to encode the message
// body, key and headers.
type MessageConverter interface {
	ToRecord(ctx context.Context, msg *Message) (*broker.Record, error)
}

// MessageConverterFunc turns a function into a MessageConverter.
type MessageConverterFunc func(ctx context.Context, msg *Message) (*broker.Record, error)

// ToRecord implements MessageConverter.
func (f MessageConverterFunc) ToRecord(ctx context.Context, msg *Message) (*broker.Record, error) {
	return f(ctx, msg)
}

// Headers set by MessageConverterV1.
const (
	HeaderMessageID  = "Message-Id"
	HeaderProducedAt = "Produced-At"
)

// MessageConverterV1 is the first version of the default converter.
// The message id and production time are sent as the Message-Id and
// Produced-At headers, along with the custom headers of the message.
func MessageConverterV1() MessageConverter {
	return MessageConverterFunc(func(ctx context.Context, msg *Message) (*broker.Record, error) {
		value, err := encodeBody(msg.Body)
		if err != nil {
			return nil, errors.Wrap(err, "failed to encode message body")
		}

		r := broker.Record{
			Topic:   msg.Topic,
			Value:   value,
			Headers: make(map[string]string, len(msg.Headers)+2),
		}

		if msg.Key != nil {
			r.Key, err = msg.Key.Encode()
			if err != nil {
				return nil, errors.Wrap(err, "failed to encode message key")
			}
		}

		if msg.ProducedAt.IsZero() {
			msg.ProducedAt = time.Now()
		}
		for k, v := range msg.Headers {
			r.Headers[k] = v
		}
		r.Headers[HeaderMessageID] = msg.ID
		r.Headers[HeaderProducedAt] = msg.ProducedAt.UTC().Format(time.RFC3339Nano)

		return &r, nil
	})
}

func encodeBody(body interface{}) ([]byte, error) {
	switch b := body.(type) {
	case codec.Encoder:
		return b.Encode()
	case []byte:
		return b, nil
	default:
		return codec.JSON().Encode(body)
	}
}
