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

	"github.com/devbyt/Kundera/pkg/storage/orm/api"
	"github.com/devbyt/Kundera/pkg/storage/orm/descriptor"
	"github.com/devbyt/Kundera/pkg/storage/orm/entity"
	"github.com/devbyt/Kundera/pkg/storage/orm/metadata"
	"github.com/devbyt/Kundera/pkg/storage/orm/metamodel"

	"github.com/pkg/errors"
)

// Hydrate builds an entity instance from a store row. It returns the
// foreign keys of to-one owning relations found in the row, keyed by join
// column. Failures match api.ErrHydration.
func Hydrate(
	m *metadata.EntityMetadata,
	row entity.Row,
) (interface{}, map[string]interface{}, error) {
	if m.Descriptor == nil || m.IDAttribute == nil {
		return nil, nil, errors.Wrapf(api.ErrHydration,
			"metadata of %s is not compiled", m.Class)
	}
	if v, ok := row[m.IDAttribute.Column]; !ok || v == nil {
		return nil, nil, errors.Wrapf(api.ErrHydration,
			"row of %s has no id column %s", m.Table, m.IDAttribute.Column)
	}

	e := m.Descriptor.NewInstance()
	relations := map[string]interface{}{}
	for _, a := range m.Attributes {
		var err error
		switch a.Kind {
		case metamodel.AttributeRelation:
			r, ok := m.Relation(a.Name)
			if ok && r.Kind == metadata.ToOneOwning {
				if v := row[r.JoinColumn]; v != nil {
					relations[r.JoinColumn] = v
				}
			}
			continue
		case metamodel.AttributeEmbedded:
			nested, ok := entity.AsRow(row[a.Column])
			if !ok {
				continue
			}
			var rec interface{}
			rec, err = hydrateRecord(a.Type.Embeddable, nested)
			if err == nil {
				err = set(e, a.Name, m.FieldPaths[a.Name], rec)
			}
		default:
			v, ok := row[a.Column]
			if !ok || v == nil {
				continue
			}
			err = setValue(e, a, m.FieldPaths[a.Name], v)
		}
		if err != nil {
			return nil, nil, errors.Wrapf(api.ErrHydration,
				"%s.%s: %v", m.Class, a.Name, err)
		}
	}
	return e, relations, nil
}

func setValue(e interface{}, a *metamodel.Attribute, path []int, v interface{}) error {
	emb := a.Type.Embeddable
	if a.Kind == metamodel.AttributeElementCollection && emb != nil {
		items := reflect.ValueOf(v)
		if items.Kind() != reflect.Slice {
			return errors.Errorf("element collection value %T is not a list", v)
		}
		out := make([]interface{}, 0, items.Len())
		for i := 0; i < items.Len(); i++ {
			nested, ok := entity.AsRow(items.Index(i).Interface())
			if !ok {
				return errors.Errorf("element %d is not a row", i)
			}
			rec, err := hydrateRecord(emb, nested)
			if err != nil {
				return err
			}
			out = append(out, rec)
		}
		return set(e, a.Name, path, out)
	}
	if _, ok := e.(*entity.Record); ok && !a.IsCollection() {
		nv, err := Normalize(v, a.Type.Kind)
		if err != nil {
			return err
		}
		v = nv
	}
	return set(e, a.Name, path, v)
}

// hydrateRecord builds an embeddable instance from a nested row.
func hydrateRecord(d *descriptor.EntityDescriptor, row entity.Row) (interface{}, error) {
	rec := d.NewInstance()
	for _, a := range d.Attributes {
		c, err := metamodel.Classify(d, a)
		if err != nil {
			return nil, err
		}
		if c.Skip {
			continue
		}
		v, ok := row[c.Column]
		if !ok || v == nil {
			continue
		}
		if r, ok := rec.(*entity.Record); ok {
			nv, err := Normalize(v, a.Type.Kind)
			if err != nil {
				return nil, err
			}
			r.Set(a.Name, nv)
			continue
		}
		if err := set(rec, a.Name, a.FieldIndex, v); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

// Dehydrate builds the store row of an entity instance. Relations are not
// part of the row; their foreign keys are written by the caller.
func Dehydrate(m *metadata.EntityMetadata, e interface{}) (entity.Row, error) {
	e = Unwrap(e)
	row := entity.Row{}
	for _, a := range m.Attributes {
		if a.IsRelation() {
			continue
		}
		v, err := get(e, a.Name, m.FieldPaths[a.Name])
		if err != nil {
			return nil, errors.Wrapf(err, "%s.%s", m.Class, a.Name)
		}
		if v == nil {
			continue
		}
		emb := a.Type.Embeddable
		switch {
		case a.Kind == metamodel.AttributeEmbedded:
			nested, err := dehydrateRecord(emb, v)
			if err != nil {
				return nil, errors.Wrapf(err, "%s.%s", m.Class, a.Name)
			}
			row[a.Column] = nested
		case a.Kind == metamodel.AttributeElementCollection && emb != nil:
			items := reflect.ValueOf(v)
			out := make([]interface{}, 0, items.Len())
			for i := 0; i < items.Len(); i++ {
				nested, err := dehydrateRecord(emb, items.Index(i).Interface())
				if err != nil {
					return nil, errors.Wrapf(err, "%s.%s", m.Class, a.Name)
				}
				out = append(out, nested)
			}
			row[a.Column] = out
		default:
			row[a.Column] = v
		}
	}
	return row, nil
}

func dehydrateRecord(d *descriptor.EntityDescriptor, v interface{}) (entity.Row, error) {
	row := entity.Row{}
	for _, a := range d.Attributes {
		c, err := metamodel.Classify(d, a)
		if err != nil {
			return nil, err
		}
		if c.Skip {
			continue
		}
		var fv interface{}
		switch r := v.(type) {
		case *entity.Record:
			fv = r.Get(a.Name)
		case entity.Row:
			fv = r[c.Column]
		default:
			rv := reflect.Indirect(reflect.ValueOf(v))
			if rv.Kind() != reflect.Struct {
				return nil, errors.Errorf("embedded value %T is not a struct", v)
			}
			fv = rv.FieldByIndex(a.FieldIndex).Interface()
		}
		if fv != nil {
			row[c.Column] = fv
		}
	}
	return row, nil
}
