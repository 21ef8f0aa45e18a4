package producer

import (
	"context"

	"go.uber.org/zap"

	"github.com/heetch/courier/broker"
	"github.com/heetch/courier/delivery"
)

func resultOutcome(res broker.Result, attempts int) Outcome {
	return Outcome{
		Partition: res.Partition,
		Offset:    res.Offset,
		Attempts:  attempts,
		Err:       res.Err,
	}
}

// sendAtMostOnce makes a single attempt. Failures are logged and
// reported as they are.
func (p *Producer) sendAtMostOnce(ctx context.Context, msg *Message, rec *broker.Record, resolve func(Outcome)) {
	p.client.Produce(ctx, rec, func(res broker.Result) {
		if res.Err != nil {
			p.logger.Error("failed to send message", p.fields(msg, zap.Error(res.Err))...)
		}
		resolve(resultOutcome(res, 1))
	})
}

// sendAtLeastOnce runs the record through the retry engine. Only the
// terminal failure is reported.
func (p *Producer) sendAtLeastOnce(ctx context.Context, msg *Message, rec *broker.Record, resolve func(Outcome)) {
	// attempts never overlap, so last needs no lock.
	var last broker.Result

	p.engine.Run(func(attempt int, report func(error)) {
		if attempt > 0 {
			p.config.Metrics.Retry(msg, attempt, last.Err)
			p.logger.Debug("sending message again", p.fields(msg, zap.Int("attempt", attempt))...)
		}
		p.client.Produce(ctx, rec, func(res broker.Result) {
			last = res
			if res.Err != nil {
				p.logger.Warn("failed to send message",
					p.fields(msg, zap.Int("attempt", attempt), zap.Error(res.Err))...)
			}
			report(res.Err)
		})
	}, func(attempts int, err error) {
		o := resultOutcome(last, attempts)
		o.Err = err
		if err != nil {
			p.logger.Error("giving up on message", p.fields(msg, zap.Int("attempts", attempts), zap.Error(err))...)
		}
		resolve(o)
	})
}

// sendExactlyOnce waits for the previous transaction to finish, on a
// pool goroutine, then sends rec in a transaction of its own.
func (p *Producer) sendExactlyOnce(ctx context.Context, msg *Message, rec *broker.Record, resolve func(Outcome)) {
	resolve(p.transact(ctx, msg, rec))
}

// transact sends rec in a transaction of its own: begin, send, then
// commit on success or abort on any failure. The transaction is never
// left open.
func (p *Producer) transact(ctx context.Context, msg *Message, rec *broker.Record) Outcome {
	p.txnMu.Lock()
	defer p.txnMu.Unlock()

	txn := &Transaction{ID: p.txn.TransactionalID(), State: TxnAborted}
	o := Outcome{Partition: -1, Offset: -1, Txn: txn}

	if p.fenced {
		o.Err = delivery.NewConflict("begin", delivery.ErrFenced)
		p.logger.Error("transactional id fenced", p.fields(msg, zap.Error(o.Err))...)
		return o
	}

	if err := p.txn.BeginTxn(); err != nil {
		p.logger.Error("failed to begin transaction", p.fields(msg, zap.Error(err))...)
		p.checkFenced(err)
		o.Err = err
		return o
	}
	txn.State = TxnOpen

	resc := make(chan broker.Result, 1)
	p.client.Produce(ctx, rec, func(res broker.Result) {
		resc <- res
	})
	res := <-resc
	o.Attempts = 1
	if res.Err != nil {
		p.logger.Error("failed to send message", p.fields(msg, zap.Error(res.Err))...)
		return p.abort(msg, o, res.Err)
	}

	if err := p.txn.CommitTxn(); err != nil {
		p.logger.Error("failed to commit transaction", p.fields(msg, zap.Error(err))...)
		return p.abort(msg, o, err)
	}
	txn.State = TxnCommitted
	o.Partition, o.Offset = res.Partition, res.Offset
	return o
}

func (p *Producer) abort(msg *Message, o Outcome, cause error) Outcome {
	p.checkFenced(cause)
	if err := p.txn.AbortTxn(); err != nil {
		p.logger.Error("failed to abort transaction", p.fields(msg, zap.Error(err))...)
	}
	o.Txn.State = TxnAborted
	o.Err = cause
	return o
}

// checkFenced stops the producer from opening transactions once the
// brokers fenced its transactional id. It must be called with txnMu
// held.
func (p *Producer) checkFenced(err error) {
	if delivery.KindOf(err) == delivery.TransactionConflict {
		p.fenced = true
	}
}
