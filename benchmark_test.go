package courier_test

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/heetch/courier"
	"github.com/heetch/courier/broker/brokertest"
	"github.com/heetch/courier/delivery"
	"github.com/heetch/courier/producer"
)

func BenchmarkPublish(b *testing.B) {
	for _, mode := range delivery.Modes() {
		b.Run(mode.String(), func(b *testing.B) {
			cr, err := courier.NewFromClient(settings(mode), brokertest.New(), zap.NewNop(), nil)
			if err != nil {
				b.Fatal(err)
			}
			defer cr.Close()

			ctx := context.Background()
			futures := make([]*producer.Future, b.N)
			b.ResetTimer()
			for n := 0; n < b.N; n++ {
				futures[n] = cr.Publish(ctx, "some body", producer.StrKey("some key"))
			}

			errCount := make(map[string]int)
			for _, f := range futures {
				if _, err := f.Wait(ctx); err != nil {
					errCount[err.Error()]++
				}
			}
			for msg, count := range errCount {
				b.Logf("|| %d\t\t: %q", count, msg)
			}
		})
	}
}
