package saramabroker

import (
	"github.com/Shopify/sarama"
	"github.com/pkg/errors"

	"github.com/heetch/courier/delivery"
)

var permanent = []error{
	sarama.ErrMessageSizeTooLarge,
	sarama.ErrInvalidMessage,
	sarama.ErrInvalidMessageSize,
	sarama.ErrTopicAuthorizationFailed,
	sarama.ErrClusterAuthorizationFailed,
	sarama.ErrTransactionalIDAuthorizationFailed,
}

var conflicts = []error{
	sarama.ErrProducerFenced,
	sarama.ErrInvalidProducerEpoch,
	sarama.ErrInvalidTxnState,
}

// Classify wraps err, returned by sarama during op, into a delivery
// error of the matching kind. Unknown errors are transient.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if delivery.KindOf(err) != delivery.Transient {
		return err
	}
	for _, target := range conflicts {
		if errors.Is(err, target) {
			return delivery.NewConflict(op, err)
		}
	}
	for _, target := range permanent {
		if errors.Is(err, target) {
			return delivery.NewPermanent(op, err)
		}
	}
	var cerr sarama.ConfigurationError
	if errors.As(err, &cerr) {
		return delivery.NewPermanent(op, err)
	}
	return delivery.NewTransient(op, err)
}
