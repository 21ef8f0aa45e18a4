package delivery

import (
	"strings"

	"github.com/pkg/errors"
)

// Mode is a delivery guarantee.
type Mode int

// The zero Mode is invalid so that a forgotten mode is caught when a
// producer is built.
const (
	// AtMostOnce sends each record once and accepts that it may be lost.
	AtMostOnce Mode = iota + 1
	// AtLeastOnce retries failed sends and accepts that a record
	// may be written more than once.
	AtLeastOnce
	// ExactlyOnce wraps each send in a broker transaction.
	ExactlyOnce
)

var modeNames = map[Mode]string{
	AtMostOnce:  "at-most-once",
	AtLeastOnce: "at-least-once",
	ExactlyOnce: "exactly-once",
}

// Modes returns every valid mode.
func Modes() []Mode {
	return []Mode{AtMostOnce, AtLeastOnce, ExactlyOnce}
}

// Valid reports whether m is one of the defined modes.
func (m Mode) Valid() bool {
	_, ok := modeNames[m]
	return ok
}

func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return "unknown"
}

// ParseMode parses the string form of a mode, as returned by Mode.String.
// Underscores are accepted in place of dashes and case is ignored.
func ParseMode(s string) (Mode, error) {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-")
	for m, name := range modeNames {
		if name == norm {
			return m, nil
		}
	}
	return 0, errors.Errorf("unknown delivery mode %q", s)
}
