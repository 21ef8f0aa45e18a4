package codec_test

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/heetch/courier/codec"
)

func TestEncoding(t *testing.T) {
	tests := []struct {
		name     string
		from     interface{}
		expected string
		codec    codec.Codec
	}{
		{"string/string", "hello", "hello", codec.String()},
		{"string/byte-slice", []byte("hello"), "hello", codec.String()},
		{"string/error", errors.New("hello"), "hello", codec.String()},
		{"string/stringer", bytes.NewBuffer([]byte("hello")), "hello", codec.String()},
		{"int64/int64", int64(10), "10", codec.Int64()},
		{"float64/float64", 3.14, "3.14", codec.Float64()},
		{"json/string", "hello", `"hello"`, codec.JSON()},
		{"json/struct", struct {
			Amount int `json:"amount"`
		}{42}, `{"amount":42}`, codec.JSON()},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			res, err := test.codec.Encode(test.from)
			require.NoError(t, err)
			require.Equal(t, test.expected, string(res))
		})
	}
}

func TestEncodingErrors(t *testing.T) {
	tests := []struct {
		name      string
		from      interface{}
		errString string
		codec     codec.Codec
	}{
		{"string/int", 10, "10 must be a string, a stringer, an error or a byte slice, got int instead", codec.String()},
		{"int64/string", "hello", "hello must be an int64, got string instead", codec.Int64()},
		{"float64/string", "hello", "hello must be a float64, got string instead", codec.Float64()},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := test.codec.Encode(test.from)
			require.Error(t, err)
			require.EqualError(t, err, test.errString)
		})
	}

	_, err := codec.JSON().Encode(make(chan int))
	require.Error(t, err)
}
