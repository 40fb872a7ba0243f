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

package descriptor

import (
	"reflect"
	"strings"
	"time"

	"github.com/devbyt/Kundera/pkg/storage/orm/api"

	"github.com/pborman/uuid"
	"github.com/pkg/errors"
)

// Entity marks a Go struct as an entity. It is embedded as an anonymous
// field carrying the table directives:
//
//	type Person struct {
//		descriptor.Entity `orm:"table=person, schema=crm, unit=main"`
//		ID      int64    `orm:"id"`
//		Name    string   `orm:"column=full_name"`
//		Address *Address `orm:"toOne, joinColumn=address_id"`
//	}
type Entity struct{}

// MappedSuperclass marks a Go struct as a mapped supertype. Entities embed
// the supertype struct anonymously to inherit its attributes.
type MappedSuperclass struct{}

// Embeddable marks a Go struct as a record stored inline in its owner.
type Embeddable struct{}

const _tagName = "orm"

var (
	_entityType           = reflect.TypeOf(Entity{})
	_mappedSuperclassType = reflect.TypeOf(MappedSuperclass{})
	_embeddableType       = reflect.TypeOf(Embeddable{})
	_timeType             = reflect.TypeOf(time.Time{})
	_uuidType             = reflect.TypeOf(uuid.UUID(nil))
	_bytesType            = reflect.TypeOf([]byte(nil))
	_namedQuerierType     = reflect.TypeOf((*NamedQuerier)(nil)).Elem()
)

// ClassOfType returns the class token of a Go type.
func ClassOfType(t reflect.Type) Class {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return Class(t.PkgPath() + "." + t.Name())
}

// FromStruct builds the descriptor of an annotated Go struct. obj is a
// struct value or a pointer to one.
func FromStruct(obj interface{}) (*EntityDescriptor, error) {
	t := reflect.TypeOf(obj)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil, errors.Wrapf(api.ErrInvalidEntityDefinition,
			"%v is not a struct", reflect.TypeOf(obj))
	}
	d, err := parseStruct(t, make(map[reflect.Type]*EntityDescriptor))
	if err != nil {
		return nil, err
	}
	if !d.IsPersistent() {
		return nil, errors.Wrapf(api.ErrInvalidEntityDefinition,
			"%s has no entity marker", d.Class)
	}
	return d, nil
}

type tagOption struct {
	key   string
	value string
}

// parseTag splits a tag of the form "key=value, flag, key=value".
func parseTag(tag string) []tagOption {
	var opts []tagOption
	for _, part := range strings.Split(tag, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kv := strings.SplitN(part, "=", 2)
		opt := tagOption{key: strings.TrimSpace(kv[0])}
		if len(kv) == 2 {
			opt.value = strings.TrimSpace(kv[1])
		}
		opts = append(opts, opt)
	}
	return opts
}

func roleOfMarker(t reflect.Type) (Role, bool) {
	switch t {
	case _entityType:
		return RoleEntity, true
	case _mappedSuperclassType:
		return RoleMappedSuperclass, true
	case _embeddableType:
		return RoleEmbeddable, true
	}
	return RoleNone, false
}

func parseStruct(
	t reflect.Type,
	seen map[reflect.Type]*EntityDescriptor,
) (*EntityDescriptor, error) {
	if d, ok := seen[t]; ok {
		return d, nil
	}
	d := &EntityDescriptor{Class: ClassOfType(t), GoType: t}
	seen[t] = d

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous {
			if role, ok := roleOfMarker(f.Type); ok {
				d.Role = role
				if err := parseTableTag(d, f.Tag.Get(_tagName)); err != nil {
					return nil, err
				}
				continue
			}
			if f.Type.Kind() == reflect.Struct {
				if d.Supertype != nil {
					return nil, errors.Wrapf(api.ErrInvalidEntityDefinition,
						"%s embeds more than one supertype", d.Class)
				}
				st, err := parseStruct(f.Type, seen)
				if err != nil {
					return nil, err
				}
				d.Supertype = st
				d.SupertypeField = []int{i}
				continue
			}
		}
		a, err := parseAttribute(d.Class, f, i, seen)
		if err != nil {
			return nil, err
		}
		d.Attributes = append(d.Attributes, a)
	}

	if reflect.PtrTo(t).Implements(_namedQuerierType) {
		d.Queries = reflect.New(t).Interface().(NamedQuerier).NamedQueries()
	}
	return d, nil
}

func parseTableTag(d *EntityDescriptor, tag string) error {
	for _, opt := range parseTag(tag) {
		if d.Table == nil {
			d.Table = &TableDirective{}
		}
		switch opt.key {
		case "table", "name":
			d.Table.Name = opt.value
		case "schema":
			d.Table.Schema = opt.value
		case "unit":
			d.Table.Unit = opt.value
		default:
			return errors.Wrapf(api.ErrInvalidEntityDefinition,
				"unknown table directive %q on %s", opt.key, d.Class)
		}
	}
	return nil
}

func parseAttribute(
	owner Class,
	f reflect.StructField,
	index int,
	seen map[reflect.Type]*EntityDescriptor,
) (*AttributeDescriptor, error) {
	a := &AttributeDescriptor{
		Name:       f.Name,
		FieldIndex: []int{index},
	}
	// unexported fields cannot be read or set, so they are never stored
	if f.PkgPath != "" {
		a.Modifiers.Transient = true
		return a, nil
	}

	vt, shape, err := valueTypeOf(f.Type, seen)
	if err != nil {
		return nil, err
	}
	a.Type = vt
	a.Collection = shape

	tag := f.Tag.Get(_tagName)
	if tag == "-" {
		a.Directives.Transient = true
		return a, nil
	}

	var (
		kinds []RelationDirectiveKind
		rel   RelationDirective
		jt    JoinTable
	)
	for _, opt := range parseTag(tag) {
		switch opt.key {
		case "id":
			a.Directives.ID = true
		case "column":
			a.Directives.Column = opt.value
		case "transient":
			a.Directives.Transient = true
		case "embedded":
			a.Directives.Embedded = true
		case "elementCollection":
			a.Directives.ElementCollection = true
		case "toOne":
			kinds = append(kinds, ToOne)
		case "toMany":
			kinds = append(kinds, ToMany)
		case "inverseToOne":
			kinds = append(kinds, InverseToOne)
		case "inverseToMany":
			kinds = append(kinds, InverseToMany)
		case "manyToMany":
			kinds = append(kinds, ManyToMany)
		case "mappedBy":
			rel.MappedBy = opt.value
		case "joinColumn":
			rel.JoinColumn = opt.value
		case "joinTable":
			jt.Name = opt.value
		case "joinTableSchema":
			jt.Schema = opt.value
		case "inverseJoinColumn":
			jt.InverseJoinColumn = opt.value
		case "fetch":
			switch strings.ToLower(opt.value) {
			case "eager":
				rel.Fetch = FetchEager
			case "lazy":
				rel.Fetch = FetchLazy
			default:
				return nil, errors.Wrapf(api.ErrInvalidEntityDefinition,
					"unknown fetch type %q on %s.%s", opt.value, owner, f.Name)
			}
		case "cascade":
			rel.Cascade = parseCascade(opt.value)
		case "optional":
			rel.Optional = true
		default:
			return nil, errors.Wrapf(api.ErrInvalidEntityDefinition,
				"unknown directive %q on %s.%s", opt.key, owner, f.Name)
		}
	}

	if jt.Name != "" {
		// the owner side join column of a join table is given by joinColumn
		jt.JoinColumn = rel.JoinColumn
		rel.JoinColumn = ""
		rel.JoinTable = &jt
	}
	for _, k := range kinds {
		r := rel
		r.Kind = k
		a.Directives.Relations = append(a.Directives.Relations, r)
	}
	return a, nil
}

func valueTypeOf(
	t reflect.Type,
	seen map[reflect.Type]*EntityDescriptor,
) (ValueType, CollectionShape, error) {
	shape := CollectionNone
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t != _uuidType && t != _bytesType {
		switch t.Kind() {
		case reflect.Slice, reflect.Array:
			shape = CollectionList
			t = t.Elem()
		case reflect.Map:
			shape = CollectionMap
			t = t.Elem()
		}
		if t.Kind() == reflect.Ptr {
			t = t.Elem()
		}
	}

	vt := ValueType{GoType: t}
	switch {
	case t == _uuidType:
		vt.Kind = KindUUID
	case t == _bytesType:
		vt.Kind = KindBytes
	case t == _timeType:
		vt.Kind = KindTime
	case t.Kind() == reflect.Struct:
		vt.Kind = KindRecord
		vt.Class = ClassOfType(t)
		if isEmbeddable(t) {
			d, err := parseStruct(t, seen)
			if err != nil {
				return vt, shape, err
			}
			vt.Embeddable = d
		}
	default:
		vt.Kind = basicKind(t.Kind())
	}
	return vt, shape, nil
}

func isEmbeddable(t reflect.Type) bool {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous && f.Type == _embeddableType {
			return true
		}
	}
	return false
}

func basicKind(k reflect.Kind) ValueKind {
	switch k {
	case reflect.String:
		return KindString
	case reflect.Int8, reflect.Int16, reflect.Int32,
		reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return KindInt
	case reflect.Int, reflect.Int64, reflect.Uint, reflect.Uint64:
		return KindLong
	case reflect.Float32:
		return KindFloat
	case reflect.Float64:
		return KindDouble
	case reflect.Bool:
		return KindBool
	default:
		return KindUnknown
	}
}
