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

// Package entity holds the value types passed between store adapters, the
// result iterator and the persistence delegator.
package entity

import (
	"fmt"
	"sort"
)

// Row is one store row: column name to value. Embedded records of nested
// entities are stored as a nested Row under the embedded column (the super
// column), element collections as slices.
type Row map[string]interface{}

// Columns returns the column names of the row in sorted order.
func (r Row) Columns() []string {
	cols := make([]string, 0, len(r))
	for c := range r {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}

// AsRow returns v as a Row when it is a nested row, as stored or as
// decoded by a generic codec.
func AsRow(v interface{}) (Row, bool) {
	switch r := v.(type) {
	case Row:
		return r, true
	case map[string]interface{}:
		return Row(r), true
	}
	return nil, false
}

// Record is a map backed entity instance, used for entity types that are
// described without a Go struct.
type Record struct {
	Class  string
	Fields map[string]interface{}
}

// NewRecord returns an empty record of the given class.
func NewRecord(class string) *Record {
	return &Record{Class: class, Fields: map[string]interface{}{}}
}

// Get returns the value of an attribute.
func (r *Record) Get(name string) interface{} {
	return r.Fields[name]
}

// Set sets the value of an attribute.
func (r *Record) Set(name string, value interface{}) {
	r.Fields[name] = value
}

func (r *Record) String() string {
	return fmt.Sprintf("%s%v", r.Class, r.Fields)
}

// EnhancedEntity is a hydrated entity paired with its primary key value and
// the relations still to be resolved, keyed by join column.
type EnhancedEntity struct {
	Entity    interface{}
	ID        interface{}
	Relations map[string]interface{}
}

// NewEnhancedEntity wraps e. A nil relations map is replaced by an empty one.
func NewEnhancedEntity(
	e interface{},
	id interface{},
	relations map[string]interface{},
) *EnhancedEntity {
	if relations == nil {
		relations = map[string]interface{}{}
	}
	return &EnhancedEntity{Entity: e, ID: id, Relations: relations}
}

// Key identifies a loaded entity inside one relation resolution session.
type Key struct {
	Class string
	// ID is the order preserving encoding of the primary key value.
	ID string
}
