package resend

import (
	"time"

	"gopkg.in/retry.v1"
)

// Immediate returns a strategy that retries without any delay.
// It never stops on its own: the engine's retry bound does.
func Immediate() retry.Strategy {
	return immediate{}
}

type immediate struct{}

func (immediate) NewTimer(time.Time) retry.Timer {
	return immediate{}
}

func (immediate) NextSleep(time.Time) (time.Duration, bool) {
	return 0, true
}

// Exponential returns a strategy whose delay between the start of two
// attempts begins at initial and is multiplied by factor each time, up
// to max. With jitter, each delay is randomised between zero and its
// computed value.
func Exponential(initial, max time.Duration, factor float64, jitter bool) retry.Strategy {
	return retry.Exponential{
		Initial:  initial,
		MaxDelay: max,
		Factor:   factor,
		Jitter:   jitter,
	}
}
