package confluentbroker

import (
	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/pkg/errors"

	"github.com/heetch/courier/delivery"
)

var conflicts = map[kafka.ErrorCode]bool{
	kafka.ErrFenced:               true,
	kafka.ErrProducerFenced:       true,
	kafka.ErrInvalidProducerEpoch: true,
	kafka.ErrInvalidTxnState:      true,
}

var permanent = map[kafka.ErrorCode]bool{
	kafka.ErrMsgSizeTooLarge:                    true,
	kafka.ErrInvalidMsg:                         true,
	kafka.ErrInvalidMsgSize:                     true,
	kafka.ErrTopicAuthorizationFailed:           true,
	kafka.ErrClusterAuthorizationFailed:         true,
	kafka.ErrTransactionalIDAuthorizationFailed: true,
}

// Classify wraps err, returned by librdkafka during op, into a
// delivery error of the matching kind. Fatal errors are permanent;
// unknown errors are transient.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var kerr kafka.Error
	if !errors.As(err, &kerr) {
		return delivery.NewTransient(op, err)
	}
	switch code := kerr.Code(); {
	case conflicts[code]:
		return delivery.NewConflict(op, err)
	case permanent[code], kerr.IsFatal():
		return delivery.NewPermanent(op, err)
	}
	return delivery.NewTransient(op, err)
}
