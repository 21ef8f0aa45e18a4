package broker_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/heetch/courier/broker"
)

func TestRecordSize(t *testing.T) {
	r := broker.Record{
		Topic:   "ignored",
		Key:     []byte("key"),
		Value:   []byte("value"),
		Headers: map[string]string{"Message-Id": "42"},
	}
	require.Equal(t, 3+5+10+2, r.Size())

	require.Zero(t, (&broker.Record{}).Size())
}
