// Package codec turns message bodies into the bytes stored in the
// key-value store, and back.
package codec

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/pkg/errors"
)

// A Codec can encode and decode values.
type Codec interface {
	Encode(v interface{}) ([]byte, error)
	Decode(data []byte, target interface{}) error
}

type codecFunc struct {
	encodeFn func(v interface{}) ([]byte, error)
	decodeFn func(data []byte, target interface{}) error
}

func (c *codecFunc) Encode(v interface{}) ([]byte, error) {
	if v == nil {
		return nil, errors.New("cannot encode a nil value")
	}
	return c.encodeFn(v)
}

func (c *codecFunc) Decode(data []byte, target interface{}) error {
	return c.decodeFn(data, target)
}

// String stores strings and byte slices as they are.
// Encode accepts a byte slice, a string, a fmt.Stringer or an error.
// Decode accepts a pointer to a string or to a byte slice.
func String() Codec {
	return &codecFunc{
		func(v interface{}) ([]byte, error) {
			switch t := v.(type) {
			case []byte:
				return t, nil
			case string:
				return []byte(t), nil
			case fmt.Stringer:
				return []byte(t.String()), nil
			case error:
				return []byte(t.Error()), nil
			}
			return nil, errors.Errorf("%v must be a string, a stringer, an error or a byte slice, got %T instead", v, v)
		},
		func(data []byte, target interface{}) error {
			switch t := target.(type) {
			case *string:
				*t = string(data)
			case *[]byte:
				*t = data
			default:
				return errors.Errorf("target must be a pointer to string or to a byte slice, got %T instead", target)
			}
			return nil
		},
	}
}

// JSON stores values in their JSON representation.
func JSON() Codec {
	return &codecFunc{
		func(v interface{}) ([]byte, error) {
			data, err := json.Marshal(v)
			return data, errors.Wrap(err, "failed to encode value as JSON")
		},
		json.Unmarshal,
	}
}

// Int64 stores integers in base 10. Encode accepts any Go integer
// type that fits in an int64.
func Int64() Codec {
	return &codecFunc{
		func(v interface{}) ([]byte, error) {
			var i int64
			switch t := v.(type) {
			case int64:
				i = t
			case int:
				i = int64(t)
			case int32:
				i = int64(t)
			default:
				return nil, errors.Errorf("%v must be an int64, got %T instead", v, v)
			}
			return strconv.AppendInt(nil, i, 10), nil
		},
		func(data []byte, target interface{}) error {
			ptr, ok := target.(*int64)
			if !ok {
				return errors.Errorf("target must be a pointer to int64, got %T instead", target)
			}
			i, err := strconv.ParseInt(string(data), 10, 64)
			if err != nil {
				return errors.Wrap(err, "failed to decode int64")
			}
			*ptr = i
			return nil
		},
	}
}

// Float64 stores floats in their shortest decimal representation.
func Float64() Codec {
	return &codecFunc{
		func(v interface{}) ([]byte, error) {
			f, ok := v.(float64)
			if !ok {
				return nil, errors.Errorf("%v must be a float64, got %T instead", v, v)
			}
			return strconv.AppendFloat(nil, f, 'g', -1, 64), nil
		},
		func(data []byte, target interface{}) error {
			ptr, ok := target.(*float64)
			if !ok {
				return errors.Errorf("target must be a pointer to float64, got %T instead", target)
			}
			f, err := strconv.ParseFloat(string(data), 64)
			if err != nil {
				return errors.Wrap(err, "failed to decode float64")
			}
			*ptr = f
			return nil
		},
	}
}
