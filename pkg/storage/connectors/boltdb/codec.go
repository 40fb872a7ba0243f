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

package boltdb

import (
	"bytes"

	"github.com/devbyt/Kundera/pkg/storage/orm/entity"

	"github.com/golang/snappy"
	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
)

// encodeRow serializes a row with msgpack and compresses it with snappy.
func encodeRow(row entity.Row) ([]byte, error) {
	b, err := msgpack.Marshal(map[string]interface{}(row))
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode row")
	}
	return snappy.Encode(nil, b), nil
}

// decodeRow reverses encodeRow. Integers decode as int64 and unsigned
// integers as uint64; nested rows decode as entity.Row.
func decodeRow(b []byte) (entity.Row, error) {
	raw, err := snappy.Decode(nil, b)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decompress row")
	}
	dec := msgpack.NewDecoder(bytes.NewReader(raw))
	dec.UseLooseInterfaceDecoding(true)
	var m map[string]interface{}
	if err := dec.Decode(&m); err != nil {
		return nil, errors.Wrap(err, "failed to decode row")
	}
	return toRow(m), nil
}

func toRow(m map[string]interface{}) entity.Row {
	row := make(entity.Row, len(m))
	for k, v := range m {
		row[k] = toValue(v)
	}
	return row
}

func toValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		return toRow(t)
	case []interface{}:
		for i := range t {
			t[i] = toValue(t[i])
		}
		return t
	}
	return v
}
