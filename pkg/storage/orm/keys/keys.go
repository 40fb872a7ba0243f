// Copyright (c) 2019 Uber Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package keys encodes id values as order preserving row keys: for two
// values of the same kind, the byte order of the keys is the order of the
// values. All integer kinds share one encoding, so int32(5) and int64(5)
// address the same row.
package keys

import (
	"encoding/binary"
	"fmt"
	"math"
	"reflect"
	"time"

	"github.com/pborman/uuid"
	"github.com/pkg/errors"
)

const (
	tagBool   byte = 0x01
	tagInt    byte = 0x10
	tagFloat  byte = 0x11
	tagTime   byte = 0x12
	tagString byte = 0x20
	tagBytes  byte = 0x30
	tagUUID   byte = 0x31
)

// Encode returns the row key of an id value.
func Encode(v interface{}) ([]byte, error) {
	switch t := v.(type) {
	case nil:
		return nil, errors.New("nil row key")
	case string:
		return append([]byte{tagString}, t...), nil
	case uuid.UUID:
		return append([]byte{tagUUID}, t...), nil
	case []byte:
		return append([]byte{tagBytes}, t...), nil
	case time.Time:
		return encodeInt(tagTime, t.UnixNano()), nil
	case bool:
		if t {
			return []byte{tagBool, 1}, nil
		}
		return []byte{tagBool, 0}, nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return encodeInt(tagInt, rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return nil, errors.Errorf("row key %d overflows int64", u)
		}
		return encodeInt(tagInt, int64(u)), nil
	case reflect.Float32, reflect.Float64:
		return encodeFloat(rv.Float()), nil
	case reflect.String:
		return append([]byte{tagString}, rv.String()...), nil
	case reflect.Ptr:
		if rv.IsNil() {
			return nil, errors.New("nil row key")
		}
		return Encode(rv.Elem().Interface())
	}
	return nil, errors.Errorf("unsupported row key type %T", v)
}

// MustEncode is Encode for values known to be valid keys.
func MustEncode(v interface{}) []byte {
	b, err := Encode(v)
	if err != nil {
		panic(err)
	}
	return b
}

// EncodeToString returns the row key of v as a string.
func EncodeToString(v interface{}) (string, error) {
	b, err := Encode(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Decode returns the id value of a row key. Integers decode as int64,
// floats as float64.
func Decode(b []byte) (interface{}, error) {
	if len(b) == 0 {
		return nil, errors.New("empty row key")
	}
	tag, body := b[0], b[1:]
	switch tag {
	case tagString:
		return string(body), nil
	case tagBytes:
		return append([]byte(nil), body...), nil
	case tagUUID:
		if len(body) != 16 {
			return nil, errors.Errorf("invalid uuid row key length %d", len(body))
		}
		return uuid.UUID(append([]byte(nil), body...)), nil
	case tagBool:
		if len(body) != 1 {
			return nil, errors.New("invalid bool row key")
		}
		return body[0] == 1, nil
	case tagInt, tagTime:
		if len(body) != 8 {
			return nil, errors.Errorf("invalid int row key length %d", len(body))
		}
		i := int64(binary.BigEndian.Uint64(body) ^ (1 << 63))
		if tag == tagTime {
			return time.Unix(0, i).UTC(), nil
		}
		return i, nil
	case tagFloat:
		if len(body) != 8 {
			return nil, errors.Errorf("invalid float row key length %d", len(body))
		}
		u := binary.BigEndian.Uint64(body)
		if u&(1<<63) != 0 {
			u ^= 1 << 63
		} else {
			u = ^u
		}
		return math.Float64frombits(u), nil
	}
	return nil, fmt.Errorf("unknown row key tag 0x%x", tag)
}

func encodeInt(tag byte, i int64) []byte {
	b := make([]byte, 9)
	b[0] = tag
	binary.BigEndian.PutUint64(b[1:], uint64(i)^(1<<63))
	return b
}

func encodeFloat(f float64) []byte {
	u := math.Float64bits(f)
	if u&(1<<63) == 0 {
		u ^= 1 << 63
	} else {
		u = ^u
	}
	b := make([]byte, 9)
	b[0] = tagFloat
	binary.BigEndian.PutUint64(b[1:], u)
	return b
}

// JoinKey returns the row key of a join table row linking owner to
// target. All rows of one owner share the prefix JoinPrefix(owner).
func JoinKey(owner, target interface{}) ([]byte, error) {
	prefix, err := JoinPrefix(owner)
	if err != nil {
		return nil, err
	}
	t, err := Encode(target)
	if err != nil {
		return nil, err
	}
	return append(prefix, t...), nil
}

// JoinPrefix returns the key prefix of the join table rows of owner. The
// owner key is length prefixed so that no owner prefix is a prefix of
// another.
func JoinPrefix(owner interface{}) ([]byte, error) {
	o, err := Encode(owner)
	if err != nil {
		return nil, err
	}
	if len(o) > math.MaxUint16 {
		return nil, errors.Errorf("join key owner of %d bytes is too long", len(o))
	}
	b := make([]byte, 2, 2+len(o))
	binary.BigEndian.PutUint16(b, uint16(len(o)))
	return append(b, o...), nil
}

// PrefixEnd returns the smallest key greater than every key starting with
// prefix, or nil when there is none.
func PrefixEnd(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}
