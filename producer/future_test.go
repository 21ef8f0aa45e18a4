package producer

import (
	"context"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/pkg/errors"

	"github.com/heetch/courier/delivery"
)

func TestFuture(t *testing.T) {
	c := qt.New(t)
	f := newFuture(NewMessage("topic", "body"))

	_, ok := f.Outcome()
	c.Assert(ok, qt.IsFalse)

	var got []Outcome
	f.OnComplete(func(o Outcome) { got = append(got, o) })

	want := Outcome{Partition: 2, Offset: 10, Attempts: 1}
	f.resolve(want)
	f.resolve(Outcome{Err: errors.New("ignored")})

	o, ok := f.Outcome()
	c.Assert(ok, qt.IsTrue)
	c.Assert(o, qt.Equals, want)
	c.Assert(got, qt.DeepEquals, []Outcome{want})

	f.OnComplete(func(o Outcome) { got = append(got, o) })
	c.Assert(got, qt.HasLen, 2)

	o, err := f.Wait(context.Background())
	c.Assert(err, qt.IsNil)
	c.Assert(o.Succeeded(), qt.IsTrue)
	c.Assert(o.Retryable(), qt.IsFalse)
	c.Assert(o.Kind(), qt.Equals, delivery.Kind(0))
}

func TestFutureWaitFailure(t *testing.T) {
	c := qt.New(t)
	f := newFuture(NewMessage("topic", "body"))
	cause := delivery.NewTransient("produce", errors.New("timeout"))
	f.resolve(Outcome{Partition: -1, Offset: -1, Attempts: 1, Err: cause})

	o, err := f.Wait(context.Background())
	c.Assert(err, qt.Equals, cause)
	c.Assert(o.Retryable(), qt.IsTrue)
	c.Assert(o.Kind(), qt.Equals, delivery.Transient)
}

func TestTxnState(t *testing.T) {
	c := qt.New(t)
	c.Assert(TxnOpen.String(), qt.Equals, "open")
	c.Assert(TxnCommitted.String(), qt.Equals, "committed")
	c.Assert(TxnAborted.String(), qt.Equals, "aborted")
	c.Assert(TxnState(9).String(), qt.Equals, "unknown")
}
