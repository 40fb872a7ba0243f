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

package accessor

import (
	"reflect"
	"time"

	"github.com/devbyt/Kundera/pkg/storage/orm/descriptor"

	"github.com/pborman/uuid"
	"github.com/pkg/errors"
)

var (
	_timeType  = reflect.TypeOf(time.Time{})
	_uuidType  = reflect.TypeOf(uuid.UUID(nil))
	_bytesType = reflect.TypeOf([]byte(nil))
)

// Convert converts a stored value to t. Stored values come from different
// codecs, so numbers may arrive as any numeric kind, uuids as bytes or
// strings, times as strings or unix nanoseconds, and collections as
// []interface{} or map[string]interface{}.
func Convert(v interface{}, t reflect.Type) (reflect.Value, error) {
	if v == nil {
		return reflect.Zero(t), nil
	}
	rv := reflect.ValueOf(v)
	if rv.Type() == t || t.Kind() == reflect.Interface && rv.Type().AssignableTo(t) {
		return rv, nil
	}
	if rv.Type().AssignableTo(t) {
		return rv.Convert(t), nil
	}
	if t.Kind() == reflect.Ptr {
		ev, err := Convert(v, t.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		p := reflect.New(t.Elem())
		p.Elem().Set(ev)
		return p, nil
	}
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return reflect.Zero(t), nil
		}
		return Convert(rv.Elem().Interface(), t)
	}

	switch t {
	case _uuidType:
		switch s := v.(type) {
		case string:
			id := uuid.Parse(s)
			if id == nil {
				return reflect.Value{}, errors.Errorf("invalid uuid %q", s)
			}
			return reflect.ValueOf(id), nil
		case []byte:
			return reflect.ValueOf(uuid.UUID(s)), nil
		}
	case _timeType:
		switch s := v.(type) {
		case string:
			tm, err := time.Parse(time.RFC3339Nano, s)
			if err != nil {
				return reflect.Value{}, errors.Wrapf(err, "invalid time %q", s)
			}
			return reflect.ValueOf(tm), nil
		case int64:
			return reflect.ValueOf(time.Unix(0, s).UTC()), nil
		}
	}

	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		if isNumber(rv.Kind()) {
			return rv.Convert(t), nil
		}
	case reflect.String:
		if rv.Kind() == reflect.String {
			return rv.Convert(t), nil
		}
	case reflect.Bool:
		if rv.Kind() == reflect.Bool {
			return rv.Convert(t), nil
		}
	case reflect.Slice:
		if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
			out := reflect.MakeSlice(t, rv.Len(), rv.Len())
			for i := 0; i < rv.Len(); i++ {
				ev, err := Convert(rv.Index(i).Interface(), t.Elem())
				if err != nil {
					return reflect.Value{}, err
				}
				out.Index(i).Set(ev)
			}
			return out, nil
		}
	case reflect.Map:
		if rv.Kind() == reflect.Map {
			out := reflect.MakeMapWithSize(t, rv.Len())
			iter := rv.MapRange()
			for iter.Next() {
				kv, err := Convert(iter.Key().Interface(), t.Key())
				if err != nil {
					return reflect.Value{}, err
				}
				ev, err := Convert(iter.Value().Interface(), t.Elem())
				if err != nil {
					return reflect.Value{}, err
				}
				out.SetMapIndex(kv, ev)
			}
			return out, nil
		}
	}
	if rv.Type().ConvertibleTo(t) && rv.Kind() == t.Kind() {
		return rv.Convert(t), nil
	}
	return reflect.Value{}, errors.Errorf("cannot convert %T to %v", v, t)
}

func isNumber(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

var _kindTypes = map[descriptor.ValueKind]reflect.Type{
	descriptor.KindString: reflect.TypeOf(""),
	descriptor.KindInt:    reflect.TypeOf(int32(0)),
	descriptor.KindLong:   reflect.TypeOf(int64(0)),
	descriptor.KindFloat:  reflect.TypeOf(float32(0)),
	descriptor.KindDouble: reflect.TypeOf(float64(0)),
	descriptor.KindBool:   reflect.TypeOf(false),
	descriptor.KindBytes:  _bytesType,
	descriptor.KindTime:   _timeType,
	descriptor.KindUUID:   _uuidType,
}

// Normalize converts v to the canonical Go type of kind, e.g. int64 for
// long values. Record entities store normalized values. Values of other
// kinds are returned unchanged.
func Normalize(v interface{}, kind descriptor.ValueKind) (interface{}, error) {
	t, ok := _kindTypes[kind]
	if !ok || v == nil {
		return v, nil
	}
	cv, err := Convert(v, t)
	if err != nil {
		return nil, err
	}
	return cv.Interface(), nil
}
