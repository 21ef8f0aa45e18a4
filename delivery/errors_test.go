package delivery_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/heetch/courier/delivery"
)

func TestKindOf(t *testing.T) {
	cause := errors.New("boom")
	tests := []struct {
		name      string
		err       error
		kind      delivery.Kind
		retryable bool
	}{
		{"nil", nil, 0, false},
		{"unclassified", cause, delivery.Transient, true},
		{"transient", delivery.NewTransient("send", cause), delivery.Transient, true},
		{"permanent", delivery.NewPermanent("send", cause), delivery.Permanent, false},
		{"conflict", delivery.NewConflict("commit", cause), delivery.TransactionConflict, false},
		{"wrapped permanent", errors.Wrap(delivery.NewPermanent("send", cause), "outer"), delivery.Permanent, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require.Equal(t, test.kind, delivery.KindOf(test.err))
			require.Equal(t, test.retryable, delivery.IsRetryable(test.err))
		})
	}
}

func TestError(t *testing.T) {
	err := delivery.NewPermanent("send", delivery.ErrRecordTooLarge)
	require.EqualError(t, err, "send: delivery: record too large")
	require.True(t, errors.Is(err, delivery.ErrRecordTooLarge))

	var derr *delivery.Error
	require.True(t, errors.As(err, &derr))
	require.False(t, derr.Retryable())

	require.NoError(t, delivery.NewTransient("send", nil))
	require.EqualError(t, &delivery.Error{Kind: delivery.Transient, Err: errors.New("boom")}, "boom")
}

func TestKindString(t *testing.T) {
	require.Equal(t, "transient", delivery.Transient.String())
	require.Equal(t, "permanent", delivery.Permanent.String())
	require.Equal(t, "transaction conflict", delivery.TransactionConflict.String())
	require.Equal(t, "unknown", delivery.Kind(0).String())
}
