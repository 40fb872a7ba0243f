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

package query

import (
	"bytes"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/devbyt/Kundera/pkg/storage/orm/entity"

	"github.com/pborman/uuid"
)

// Filter is a node of a filter tree evaluated against store rows.
type Filter interface {
	// Matches reports whether row passes the filter.
	Matches(row entity.Row) bool
	String() string
}

// CompareOp is a comparison operator.
type CompareOp int

// Comparison operators
const (
	Equal CompareOp = iota
	NotEqual
	Less
	LessOrEqual
	Greater
	GreaterOrEqual
)

var _compareOpNames = map[CompareOp]string{
	Equal:          "=",
	NotEqual:       "!=",
	Less:           "<",
	LessOrEqual:    "<=",
	Greater:        ">",
	GreaterOrEqual: ">=",
}

func (o CompareOp) String() string {
	return _compareOpNames[o]
}

// ParseCompareOp returns the operator for its symbol.
func ParseCompareOp(s string) (CompareOp, bool) {
	for op, n := range _compareOpNames {
		if n == s {
			return op, true
		}
	}
	return Equal, false
}

// Compare compares a column with a constant. Columns of embedded records
// are addressed as "embedded.leaf".
type Compare struct {
	Column string
	Op     CompareOp
	Value  interface{}
}

// Matches implements Filter. A missing column never matches, and neither
// do values that cannot be ordered for the ordering operators.
func (c *Compare) Matches(row entity.Row) bool {
	v, ok := Lookup(row, c.Column)
	if !ok {
		return false
	}
	cmp, ok := CompareValues(v, c.Value)
	if !ok {
		return c.Op == NotEqual
	}
	switch c.Op {
	case Equal:
		return cmp == 0
	case NotEqual:
		return cmp != 0
	case Less:
		return cmp < 0
	case LessOrEqual:
		return cmp <= 0
	case Greater:
		return cmp > 0
	case GreaterOrEqual:
		return cmp >= 0
	}
	return false
}

func (c *Compare) String() string {
	return fmt.Sprintf("%s %s %v", c.Column, c.Op, c.Value)
}

// ListOp combines the filters of a FilterList.
type ListOp int

const (
	// MustPassAll requires every filter to match.
	MustPassAll ListOp = iota
	// MustPassOne requires at least one filter to match.
	MustPassOne
)

// FilterList combines filters. An empty list matches every row.
type FilterList struct {
	Op      ListOp
	Filters []Filter
}

// And returns a list requiring every filter.
func And(filters ...Filter) *FilterList {
	return &FilterList{Op: MustPassAll, Filters: filters}
}

// Or returns a list requiring one of the filters.
func Or(filters ...Filter) *FilterList {
	return &FilterList{Op: MustPassOne, Filters: filters}
}

// Matches implements Filter.
func (l *FilterList) Matches(row entity.Row) bool {
	if len(l.Filters) == 0 {
		return true
	}
	for _, f := range l.Filters {
		m := f.Matches(row)
		if l.Op == MustPassOne && m {
			return true
		}
		if l.Op == MustPassAll && !m {
			return false
		}
	}
	return l.Op == MustPassAll
}

func (l *FilterList) String() string {
	sep := " AND "
	if l.Op == MustPassOne {
		sep = " OR "
	}
	parts := make([]string, len(l.Filters))
	for i, f := range l.Filters {
		parts[i] = f.String()
	}
	return "(" + strings.Join(parts, sep) + ")"
}

// Lookup returns the value of column in row, descending into nested rows
// for "embedded.leaf" columns.
func Lookup(row entity.Row, column string) (interface{}, bool) {
	if v, ok := row[column]; ok {
		return v, true
	}
	i := strings.Index(column, ".")
	if i < 0 {
		return nil, false
	}
	nested, ok := entity.AsRow(row[column[:i]])
	if !ok {
		return nil, false
	}
	return Lookup(nested, column[i+1:])
}

// CompareValues orders a and b. Numbers of any Go kind compare by value.
// The second result is false when the values are not comparable.
func CompareValues(a, b interface{}) (int, bool) {
	if a == nil || b == nil {
		if a == nil && b == nil {
			return 0, true
		}
		return 0, false
	}
	switch av := a.(type) {
	case string:
		if bv, ok := b.(string); ok {
			return strings.Compare(av, bv), true
		}
		return 0, false
	case bool:
		bv, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case av == bv:
			return 0, true
		case !av:
			return -1, true
		default:
			return 1, true
		}
	case time.Time:
		bv, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		switch {
		case av.Before(bv):
			return -1, true
		case av.After(bv):
			return 1, true
		}
		return 0, true
	case uuid.UUID:
		return compareBytes(av, b)
	case []byte:
		return compareBytes(av, b)
	}
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if !aok || !bok {
		return 0, false
	}
	ai, aInt := toInt(a)
	bi, bInt := toInt(b)
	if aInt && bInt {
		switch {
		case ai < bi:
			return -1, true
		case ai > bi:
			return 1, true
		}
		return 0, true
	}
	switch {
	case af < bf:
		return -1, true
	case af > bf:
		return 1, true
	}
	return 0, true
}

func compareBytes(a []byte, b interface{}) (int, bool) {
	switch bv := b.(type) {
	case uuid.UUID:
		return bytes.Compare(a, bv), true
	case []byte:
		return bytes.Compare(a, bv), true
	case string:
		if u := uuid.Parse(bv); u != nil {
			return bytes.Compare(a, u), true
		}
	}
	return 0, false
}

func toFloat(v interface{}) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

func toInt(v interface{}) (int64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint()), true
	}
	return 0, false
}
