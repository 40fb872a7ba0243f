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

package keys

import (
	"bytes"
	"testing"
	"time"

	"github.com/pborman/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeIntegersShareKeys(t *testing.T) {
	a, err := Encode(int32(5))
	require.NoError(t, err)
	b, err := Encode(int64(5))
	require.NoError(t, err)
	c, err := Encode(uint8(5))
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, a, c)
}

func TestEncodePreservesOrder(t *testing.T) {
	ordered := [][]interface{}{
		{int64(-100), int64(-1), int64(0), int64(3), int64(1 << 40)},
		{-2.5, -0.5, 0.0, 0.25, 1e10},
		{"", "a", "ab", "b"},
		{
			time.Unix(0, 0),
			time.Unix(100, 0),
			time.Unix(100, 1),
		},
	}
	for _, values := range ordered {
		for i := 1; i < len(values); i++ {
			prev := MustEncode(values[i-1])
			cur := MustEncode(values[i])
			assert.Equal(t, -1, bytes.Compare(prev, cur),
				"%v must sort before %v", values[i-1], values[i])
		}
	}
}

func TestDecode(t *testing.T) {
	id := uuid.NewRandom()
	now := time.Unix(1600000000, 42).UTC()
	tt := []struct {
		in  interface{}
		out interface{}
	}{
		{int32(-7), int64(-7)},
		{uint16(7), int64(7)},
		{1.5, 1.5},
		{-1.5, -1.5},
		{"name", "name"},
		{[]byte{1, 2}, []byte{1, 2}},
		{id, id},
		{true, true},
		{now, now},
	}
	for _, tc := range tt {
		b, err := Encode(tc.in)
		require.NoError(t, err)
		out, err := Decode(b)
		require.NoError(t, err)
		assert.Equal(t, tc.out, out)
	}
}

func TestEncodeErrors(t *testing.T) {
	_, err := Encode(nil)
	assert.Error(t, err)

	_, err = Encode(struct{}{})
	assert.Error(t, err)

	_, err = Encode(uint64(1 << 63))
	assert.Error(t, err)

	_, err = Decode(nil)
	assert.Error(t, err)

	_, err = Decode([]byte{0x7f})
	assert.Error(t, err)
}

func TestJoinKeys(t *testing.T) {
	a, err := JoinPrefix("a")
	require.NoError(t, err)
	ab, err := JoinPrefix("ab")
	require.NoError(t, err)
	assert.False(t, bytes.HasPrefix(ab, a))

	k, err := JoinKey("a", int64(7))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(k, a))
	assert.Equal(t, -1, bytes.Compare(k, PrefixEnd(a)))

	_, err = JoinKey(nil, 1)
	assert.Error(t, err)
}

func TestPrefixEnd(t *testing.T) {
	assert.Equal(t, []byte{0x01, 0x03}, PrefixEnd([]byte{0x01, 0x02}))
	assert.Equal(t, []byte{0x02}, PrefixEnd([]byte{0x01, 0xff}))
	assert.Nil(t, PrefixEnd([]byte{0xff, 0xff}))
}
