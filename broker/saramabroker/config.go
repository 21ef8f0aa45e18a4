package saramabroker

import (
	"github.com/Shopify/sarama"
	"github.com/pkg/errors"

	"github.com/heetch/courier/delivery"
)

// NewConfig creates a sarama config with sane defaults for clientID.
// Keyed records are partitioned the way JVM clients partition them.
func NewConfig(clientID string) *sarama.Config {
	config := sarama.NewConfig()
	config.Version = sarama.V1_0_0_0
	config.ClientID = clientID
	config.Producer.Partitioner = NewJVMCompatiblePartitioner
	// required to be told about every record, see Client.
	config.Producer.Return.Successes = true
	config.Producer.Return.Errors = true

	return config
}

var requiredAcks = map[delivery.Acks]sarama.RequiredAcks{
	delivery.AcksNone:   sarama.NoResponse,
	delivery.AcksLeader: sarama.WaitForLocal,
	delivery.AcksAll:    sarama.WaitForAll,
}

// Configure applies the delivery policy to config. txnID is only used
// by transactional policies.
//
// Sarama's own retries are disabled unless the policy is idempotent:
// records are retried by the producer, which needs to see every
// failure. Idempotent producers need sarama to retry in order to keep
// their sequence numbers.
func Configure(config *sarama.Config, p delivery.Policy, txnID string) error {
	acks, ok := requiredAcks[p.Acks]
	if !ok {
		return errors.Errorf("unsupported acks %v", p.Acks)
	}
	config.Producer.RequiredAcks = acks
	config.Producer.Return.Successes = true
	config.Producer.Return.Errors = true
	config.Producer.Idempotent = p.Idempotent
	config.Producer.Transaction.ID = ""

	if !p.Idempotent {
		config.Producer.Retry.Max = 0
		return errors.Wrap(config.Validate(), "invalid sarama config")
	}
	if config.Producer.Retry.Max < 1 {
		config.Producer.Retry.Max = 3
	}
	config.Net.MaxOpenRequests = 1
	if !config.Version.IsAtLeast(sarama.V0_11_0_0) {
		config.Version = sarama.V0_11_0_0
	}

	if p.Transactional {
		if txnID == "" {
			return errors.New("transactional policies require a transactional id")
		}
		config.Producer.Transaction.ID = txnID
	}
	return errors.Wrap(config.Validate(), "invalid sarama config")
}
