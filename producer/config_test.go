package producer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/heetch/courier/delivery"
)

// checks if NewConfig returns the right defaults.
func TestNewConfig(t *testing.T) {
	c := NewConfig("test", delivery.AtLeastOnce)
	require.Equal(t, "test", c.ClientID)
	require.Equal(t, delivery.AtLeastOnce, c.Mode)
	require.Equal(t, 1000000, c.MaxMessageBytes)
	require.Equal(t, 256, c.PoolSize)
	require.NotNil(t, c.Logger)
	require.NotNil(t, c.Converter)
	require.Equal(t, 3, c.Policy().MaxRetries)
	require.Empty(t, c.TransactionalID())

	c = NewConfig("test", delivery.ExactlyOnce)
	require.Equal(t, "exactly-once-test", c.TransactionalID())
}

func TestConfigValidate(t *testing.T) {
	c := NewConfig("test", delivery.AtMostOnce)
	c.MaxMessageBytes = 0
	require.EqualError(t, c.validate(), "max message bytes must be positive")

	c = NewConfig("test", delivery.AtMostOnce)
	c.PoolSize = -1
	require.EqualError(t, c.validate(), "pool size must be positive")
}
