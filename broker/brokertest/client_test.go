package brokertest_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/heetch/courier/broker"
	"github.com/heetch/courier/broker/brokertest"
)

func produce(c broker.Client) broker.Result {
	resc := make(chan broker.Result, 1)
	c.Produce(context.Background(), &broker.Record{Topic: "t", Value: []byte("v")}, func(r broker.Result) {
		resc <- r
	})
	return <-resc
}

func TestFailFirst(t *testing.T) {
	c := brokertest.New(brokertest.FailFirst(2, nil))
	require.Equal(t, brokertest.ErrUnavailable, produce(c).Err)
	require.Equal(t, brokertest.ErrUnavailable, produce(c).Err)

	res := produce(c)
	require.NoError(t, res.Err)
	require.EqualValues(t, 0, res.Offset)
	require.EqualValues(t, 1, produce(c).Offset)
	require.Equal(t, 4, c.Calls())
	require.Len(t, c.Records(), 4)
}

func TestTransactions(t *testing.T) {
	errCommit := errors.New("commit failed")
	c := brokertest.New(brokertest.FailCommit(errCommit))

	require.NoError(t, c.BeginTxn())
	require.True(t, c.InTxn())
	require.NoError(t, c.BeginTxn())
	require.Equal(t, 1, c.Overlaps())

	require.Equal(t, errCommit, c.CommitTxn())
	require.True(t, c.InTxn())
	require.NoError(t, c.AbortTxn())
	require.False(t, c.InTxn())

	require.Equal(t, []string{
		brokertest.Begin,
		brokertest.Begin,
		brokertest.Commit,
		brokertest.Abort,
	}, c.Events())
}

func TestPlain(t *testing.T) {
	c := brokertest.New()
	_, ok := c.Plain().(broker.TxnClient)
	require.False(t, ok)

	require.NoError(t, c.Plain().Close())
	require.True(t, c.Closed())
}

func TestCloseWaitsForAnswers(t *testing.T) {
	defer goleak.VerifyNone(t)

	c := brokertest.New(brokertest.Latency(20 * time.Millisecond))
	var answered int32
	for i := 0; i < 10; i++ {
		c.Produce(context.Background(), &broker.Record{Topic: "t"}, func(broker.Result) {
			atomic.AddInt32(&answered, 1)
		})
	}
	require.NoError(t, c.Close())
	require.EqualValues(t, 10, atomic.LoadInt32(&answered))
}
