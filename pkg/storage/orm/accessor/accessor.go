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

/*
Package accessor reads and writes attribute values of entity instances.

Entities are either pointers to Go structs, whose fields are located by the
field paths compiled into EntityMetadata, or *entity.Record values, whose
fields are keyed by attribute name. An *entity.EnhancedEntity is accessed
through the entity it wraps.
*/
package accessor

import (
	"reflect"

	"github.com/devbyt/Kundera/pkg/storage/orm/entity"
	"github.com/devbyt/Kundera/pkg/storage/orm/metadata"

	"github.com/pkg/errors"
)

// Unwrap returns the entity wrapped by an EnhancedEntity, or e itself.
func Unwrap(e interface{}) interface{} {
	if ee, ok := e.(*entity.EnhancedEntity); ok {
		return ee.Entity
	}
	return e
}

// ID returns the id value of an entity.
func ID(m *metadata.EntityMetadata, e interface{}) (interface{}, error) {
	if ee, ok := e.(*entity.EnhancedEntity); ok && ee.ID != nil {
		return ee.ID, nil
	}
	if m.IDAccessor == nil {
		return nil, errors.Errorf("no id accessor for %s", m.Class)
	}
	return get(Unwrap(e), m.IDAccessor.Attribute, m.IDAccessor.FieldPath)
}

// SetID sets the id value of an entity.
func SetID(m *metadata.EntityMetadata, e interface{}, id interface{}) error {
	if m.IDAccessor == nil {
		return errors.Errorf("no id accessor for %s", m.Class)
	}
	return set(Unwrap(e), m.IDAccessor.Attribute, m.IDAccessor.FieldPath, id)
}

// Get returns the value of an attribute.
func Get(m *metadata.EntityMetadata, e interface{}, attribute string) (interface{}, error) {
	return get(Unwrap(e), attribute, m.FieldPaths[attribute])
}

// Set sets the value of an attribute, converting it to the field type.
// Relation values are entity instances or slices of them.
func Set(m *metadata.EntityMetadata, e interface{}, attribute string, v interface{}) error {
	return set(Unwrap(e), attribute, m.FieldPaths[attribute], v)
}

func get(e interface{}, attribute string, path []int) (interface{}, error) {
	if r, ok := e.(*entity.Record); ok {
		return r.Get(attribute), nil
	}
	f, err := field(e, attribute, path)
	if err != nil {
		return nil, err
	}
	if f.Kind() == reflect.Ptr && f.IsNil() {
		return nil, nil
	}
	return f.Interface(), nil
}

func set(e interface{}, attribute string, path []int, v interface{}) error {
	if r, ok := e.(*entity.Record); ok {
		r.Set(attribute, v)
		return nil
	}
	f, err := field(e, attribute, path)
	if err != nil {
		return err
	}
	if items, ok := v.([]interface{}); ok && f.Kind() == reflect.Slice {
		return setEntities(f, attribute, items)
	}
	cv, err := Convert(v, f.Type())
	if err != nil {
		return errors.Wrapf(err, "attribute %s", attribute)
	}
	f.Set(cv)
	return nil
}

// setEntities fills a slice field from entity instances, dereferencing
// pointers when the slice holds struct values.
func setEntities(f reflect.Value, attribute string, items []interface{}) error {
	out := reflect.MakeSlice(f.Type(), 0, len(items))
	et := f.Type().Elem()
	for _, it := range items {
		iv := reflect.ValueOf(Unwrap(it))
		switch {
		case iv.Type().AssignableTo(et):
		case iv.Kind() == reflect.Ptr && iv.Elem().Type().AssignableTo(et):
			iv = iv.Elem()
		default:
			cv, err := Convert(iv.Interface(), et)
			if err != nil {
				return errors.Wrapf(err, "attribute %s", attribute)
			}
			iv = cv
		}
		out = reflect.Append(out, iv)
	}
	f.Set(out)
	return nil
}

func field(e interface{}, attribute string, path []int) (reflect.Value, error) {
	if len(path) == 0 {
		return reflect.Value{}, errors.Errorf("no field for attribute %s", attribute)
	}
	v := reflect.ValueOf(e)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return reflect.Value{}, errors.Errorf("entity %T is not a non-nil pointer", e)
	}
	return v.Elem().FieldByIndex(path), nil
}
