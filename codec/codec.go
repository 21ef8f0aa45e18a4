// Package codec encodes the keys and bodies of messages.
package codec

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/pkg/errors"
)

// A Codec encodes values into bytes.
type Codec interface {
	Encode(v interface{}) ([]byte, error)
}

type codecFunc func(v interface{}) ([]byte, error)

func (f codecFunc) Encode(v interface{}) ([]byte, error) {
	return f(v)
}

// String encodes strings or byte slices into themselves.
// It is useful when passing raw data without touching it.
// Encode takes a byte slice, string, stringer or error and returns a byte slice.
func String() Codec {
	return codecFunc(func(v interface{}) ([]byte, error) {
		switch t := v.(type) {
		case string:
			return []byte(t), nil
		case []byte:
			return t, nil
		case fmt.Stringer:
			return []byte(t.String()), nil
		case error:
			return []byte(t.Error()), nil
		default:
			return nil, errors.Errorf("%v must be a string, a stringer, an error or a byte slice, got %T instead", v, v)
		}
	})
}

// JSON Codec handles JSON encoding.
func JSON() Codec {
	return codecFunc(json.Marshal)
}

// Int64 Codec handles int64 encoding.
func Int64() Codec {
	return codecFunc(func(v interface{}) ([]byte, error) {
		i, ok := v.(int64)
		if !ok {
			return nil, errors.Errorf("%v must be an int64, got %T instead", v, v)
		}

		return []byte(strconv.FormatInt(i, 10)), nil
	})
}

// Float64 Codec handles float64 encoding, using the shortest
// representation that reads back to the same value.
func Float64() Codec {
	return codecFunc(func(v interface{}) ([]byte, error) {
		f, ok := v.(float64)
		if !ok {
			return nil, errors.Errorf("%v must be a float64, got %T instead", v, v)
		}

		return []byte(strconv.FormatFloat(f, 'f', -1, 64)), nil
	})
}
