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

package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/devbyt/Kundera/pkg/storage/orm/accessor"
	"github.com/devbyt/Kundera/pkg/storage/orm/descriptor"
	"github.com/devbyt/Kundera/pkg/storage/orm/entity"
	"github.com/devbyt/Kundera/pkg/storage/orm/metadata"
	"github.com/devbyt/Kundera/pkg/storage/orm/query"

	"github.com/pborman/uuid"
	"github.com/pkg/errors"
)

// parseValue parses a command line value of the given kind.
func parseValue(kind descriptor.ValueKind, s string) (interface{}, error) {
	switch kind {
	case descriptor.KindInt:
		v, err := strconv.ParseInt(s, 10, 32)
		return int32(v), err
	case descriptor.KindLong:
		return strconv.ParseInt(s, 10, 64)
	case descriptor.KindFloat:
		v, err := strconv.ParseFloat(s, 32)
		return float32(v), err
	case descriptor.KindDouble:
		return strconv.ParseFloat(s, 64)
	case descriptor.KindBool:
		return strconv.ParseBool(s)
	case descriptor.KindTime:
		return time.Parse(time.RFC3339Nano, s)
	case descriptor.KindUUID:
		id := uuid.Parse(s)
		if id == nil {
			return nil, errors.Errorf("invalid uuid %q", s)
		}
		return id, nil
	case descriptor.KindBytes:
		return []byte(s), nil
	}
	return s, nil
}

// parseKey parses an id value of m.
func parseKey(m *metadata.EntityMetadata, s string) (interface{}, error) {
	v, err := parseValue(m.IDAttribute.Type.Kind, s)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid key %q of %s", s, m.Class)
	}
	return v, nil
}

// columnKind returns the value kind stored in column, string when the
// column is unknown.
func columnKind(m *metadata.EntityMetadata, column string) descriptor.ValueKind {
	name, ok := m.ColumnMap.Get(column)
	if !ok {
		return descriptor.KindString
	}
	parts := strings.SplitN(name, ".", 2)
	a, ok := m.Attribute(parts[0])
	if !ok {
		return descriptor.KindString
	}
	if len(parts) == 1 {
		return a.Type.Kind
	}
	for _, leaf := range a.Embedded {
		if leaf.Name == parts[1] {
			return leaf.Type.Kind
		}
	}
	return descriptor.KindString
}

// parseFilter parses "column:op:value" into a comparison on m.
func parseFilter(m *metadata.EntityMetadata, expr string) (*query.Compare, error) {
	parts := strings.SplitN(expr, ":", 3)
	if len(parts) != 3 {
		return nil, errors.Errorf("invalid filter %q, want column:op:value", expr)
	}
	op, ok := query.ParseCompareOp(parts[1])
	if !ok {
		return nil, errors.Errorf("unknown operator %q in filter %q", parts[1], expr)
	}
	v, err := parseValue(columnKind(m, parts[0]), parts[2])
	if err != nil {
		return nil, errors.Wrapf(err, "filter %q", expr)
	}
	return &query.Compare{Column: parts[0], Op: op, Value: v}, nil
}

// parseColumns parses a projection of "column" or "family.qualifier"
// names.
func parseColumns(m *metadata.EntityMetadata, names []string) []map[string]string {
	var out []map[string]string
	for _, n := range names {
		if i := strings.Index(n, "."); i >= 0 {
			out = append(out, map[string]string{n[:i]: n[i+1:]})
			continue
		}
		out = append(out, map[string]string{m.Table: n})
	}
	return out
}

// recordLoader turns decoded JSON objects into record entities.
type recordLoader struct {
	entityMetadata func(descriptor.Class) (*metadata.EntityMetadata, error)
}

// load builds a record of m from obj. Relation values are either ids,
// which give records holding the id only, or nested objects.
func (l *recordLoader) load(
	m *metadata.EntityMetadata,
	obj map[string]interface{},
) (*entity.Record, error) {
	rec := entity.NewRecord(string(m.Class))
	for name, v := range obj {
		if r, ok := m.Relation(name); ok {
			rv, err := l.relation(r, v)
			if err != nil {
				return nil, errors.Wrapf(err, "relation %s", name)
			}
			rec.Set(name, rv)
			continue
		}
		a, ok := m.Attribute(name)
		if !ok {
			return nil, errors.Errorf("%s has no attribute %q", m.Class, name)
		}
		nv, err := normalize(a.Descriptor, v)
		if err != nil {
			return nil, errors.Wrapf(err, "attribute %s", name)
		}
		rec.Set(name, nv)
	}
	return rec, nil
}

func (l *recordLoader) relation(r *metadata.RelationRecord, v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	tm, err := l.entityMetadata(r.Target)
	if err != nil {
		return nil, err
	}
	target := func(v interface{}) (*entity.Record, error) {
		if obj, ok := v.(map[string]interface{}); ok {
			return l.load(tm, obj)
		}
		id, err := accessor.Normalize(v, tm.IDAttribute.Type.Kind)
		if err != nil {
			return nil, err
		}
		rec := entity.NewRecord(string(tm.Class))
		rec.Set(tm.IDAccessor.Attribute, id)
		return rec, nil
	}
	items, ok := v.([]interface{})
	if !ok {
		return target(v)
	}
	out := make([]interface{}, 0, len(items))
	for _, it := range items {
		rec, err := target(it)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// normalize converts a decoded JSON value to the canonical type of the
// attribute. Embeddables become records.
func normalize(a *descriptor.AttributeDescriptor, v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	one := func(v interface{}) (interface{}, error) {
		if a.Type.Kind != descriptor.KindRecord {
			return accessor.Normalize(v, a.Type.Kind)
		}
		obj, ok := v.(map[string]interface{})
		if !ok || a.Type.Embeddable == nil {
			return nil, errors.Errorf("want an object for %s, got %T", a.Name, v)
		}
		emb := a.Type.Embeddable
		rec := entity.NewRecord(string(emb.Class))
		for name, fv := range obj {
			ea, ok := emb.Attribute(name)
			if !ok {
				return nil, errors.Errorf("%s has no attribute %q", emb.Class, name)
			}
			nv, err := normalize(ea, fv)
			if err != nil {
				return nil, err
			}
			rec.Set(name, nv)
		}
		return rec, nil
	}

	switch a.Collection {
	case descriptor.CollectionList, descriptor.CollectionSet:
		items, ok := v.([]interface{})
		if !ok {
			return nil, errors.Errorf("want a list for %s, got %T", a.Name, v)
		}
		out := make([]interface{}, 0, len(items))
		for _, it := range items {
			nv, err := one(it)
			if err != nil {
				return nil, err
			}
			out = append(out, nv)
		}
		return out, nil
	case descriptor.CollectionMap:
		obj, ok := v.(map[string]interface{})
		if !ok {
			return nil, errors.Errorf("want an object for %s, got %T", a.Name, v)
		}
		out := make(map[string]interface{}, len(obj))
		for k, it := range obj {
			nv, err := one(it)
			if err != nil {
				return nil, err
			}
			out[k] = nv
		}
		return out, nil
	}
	return one(v)
}

// recordPrinter turns loaded entities into JSON friendly values. An
// entity met again below itself is printed as a reference.
type recordPrinter struct {
	entityMetadata func(descriptor.Class) (*metadata.EntityMetadata, error)
	path           map[*entity.Record]bool
}

func newRecordPrinter(
	entityMetadata func(descriptor.Class) (*metadata.EntityMetadata, error),
) *recordPrinter {
	return &recordPrinter{
		entityMetadata: entityMetadata,
		path:           map[*entity.Record]bool{},
	}
}

func (p *recordPrinter) value(v interface{}) interface{} {
	switch x := v.(type) {
	case *entity.EnhancedEntity:
		return p.value(x.Entity)
	case *entity.Record:
		if p.path[x] {
			return p.ref(x)
		}
		p.path[x] = true
		defer delete(p.path, x)
		out := make(map[string]interface{}, len(x.Fields))
		for k, fv := range x.Fields {
			out[k] = p.value(fv)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(x))
		for i, it := range x {
			out[i] = p.value(it)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(x))
		for k, it := range x {
			out[k] = p.value(it)
		}
		return out
	case uuid.UUID:
		return x.String()
	case time.Time:
		return x.Format(time.RFC3339Nano)
	}
	return v
}

func (p *recordPrinter) ref(r *entity.Record) interface{} {
	out := map[string]interface{}{"$ref": r.Class}
	m, err := p.entityMetadata(descriptor.Class(r.Class))
	if err != nil {
		return out
	}
	if id, err := accessor.ID(m, r); err == nil {
		out["id"] = p.value(id)
	}
	return out
}

func describeRelation(r *metadata.RelationRecord) string {
	s := fmt.Sprintf("%s %s -> %s", r.Attribute, r.Kind, r.Target.SimpleName())
	if r.JoinTable != nil {
		s += fmt.Sprintf(" via %s", r.JoinTable.Name)
	} else if r.JoinColumn != "" {
		s += fmt.Sprintf(" on %s", r.JoinColumn)
	}
	return s
}
