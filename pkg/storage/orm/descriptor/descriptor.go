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
Package descriptor describes user entity types to the metadata compiler.

A descriptor is plain data: a class token, an ordered attribute list with
persistence directives, an optional supertype and table-level directives.
Descriptors are produced either from annotated Go structs (see FromStruct)
or built explicitly, for example from configuration, and are served to the
compiler through a Source.
*/
package descriptor

import (
	"reflect"
	"strings"

	"github.com/devbyt/Kundera/pkg/storage/orm/entity"
)

// Class is the fully qualified name of an entity type. It is the identity
// key of the managed-type metamodel.
type Class string

// SimpleName returns the class name without its package path.
func (c Class) SimpleName() string {
	s := string(c)
	if i := strings.LastIndexAny(s, "./"); i >= 0 {
		return s[i+1:]
	}
	return s
}

// Role tells whether a type is persistent and how.
type Role int

const (
	// RoleNone is a type that is not persistent on its own.
	RoleNone Role = iota
	// RoleEntity is a persistent type stored in its own table.
	RoleEntity
	// RoleMappedSuperclass is a supertype whose attributes are inherited by
	// entities but which has no table of its own.
	RoleMappedSuperclass
	// RoleEmbeddable is a record stored inline within its owning entity.
	RoleEmbeddable
)

func (r Role) String() string {
	switch r {
	case RoleEntity:
		return "entity"
	case RoleMappedSuperclass:
		return "mapped_superclass"
	case RoleEmbeddable:
		return "embeddable"
	default:
		return "none"
	}
}

// ValueKind is the declared kind of an attribute value, or of its elements
// for collection attributes.
type ValueKind int

// Supported value kinds
const (
	KindUnknown ValueKind = iota
	KindString
	KindInt
	KindLong
	KindFloat
	KindDouble
	KindBool
	KindBytes
	KindTime
	KindUUID
	KindRecord
)

// IsBasic reports whether the kind is a basic scalar.
func (k ValueKind) IsBasic() bool {
	return k != KindUnknown && k != KindRecord
}

var _kindNames = map[ValueKind]string{
	KindUnknown: "unknown",
	KindString:  "string",
	KindInt:     "int",
	KindLong:    "long",
	KindFloat:   "float",
	KindDouble:  "double",
	KindBool:    "bool",
	KindBytes:   "bytes",
	KindTime:    "time",
	KindUUID:    "uuid",
	KindRecord:  "record",
}

func (k ValueKind) String() string {
	return _kindNames[k]
}

// ParseValueKind returns the kind for its name.
func ParseValueKind(name string) (ValueKind, bool) {
	for k, n := range _kindNames {
		if n == name {
			return k, true
		}
	}
	return KindUnknown, false
}

// ValueType is the declared value type of an attribute.
type ValueType struct {
	Kind ValueKind
	// Class names the record type for KindRecord values.
	Class Class
	// Embeddable is set when the record type is an embeddable.
	Embeddable *EntityDescriptor
	// GoType is the Go type of the value when the entity is a Go struct.
	GoType reflect.Type
}

// CollectionShape is the declared collection shape of an attribute.
type CollectionShape int

// Collection shapes
const (
	CollectionNone CollectionShape = iota
	CollectionList
	CollectionSet
	CollectionMap
)

// Modifiers are storage modifiers declared on the attribute itself.
type Modifiers struct {
	// Static attributes belong to the type, not to instances.
	Static bool
	// Transient attributes are never stored.
	Transient bool
}

// AttributeDescriptor describes one attribute of an entity type.
type AttributeDescriptor struct {
	Name       string
	Type       ValueType
	Collection CollectionShape
	Modifiers  Modifiers
	Directives Directives
	// FieldIndex locates the struct field of Go struct entities, relative to
	// the declaring struct.
	FieldIndex []int
}

// IsCollection reports whether the attribute is declared as a collection.
func (a *AttributeDescriptor) IsCollection() bool {
	return a.Collection != CollectionNone
}

// TableDirective carries table level directives.
type TableDirective struct {
	Name   string
	Schema string
	Unit   string
}

// EntityDescriptor describes a user type.
type EntityDescriptor struct {
	Class      Class
	Role       Role
	Attributes []*AttributeDescriptor
	// Supertype is the declared supertype, if any.
	Supertype *EntityDescriptor
	// SupertypeField locates the embedded supertype struct field of Go
	// struct entities.
	SupertypeField []int
	Table          *TableDirective
	Queries        NamedQueries
	// GoType is the struct type of Go struct entities. Descriptors without
	// a Go type are instantiated as *entity.Record.
	GoType reflect.Type
}

// Attribute returns the declared attribute with the given name.
func (d *EntityDescriptor) Attribute(name string) (*AttributeDescriptor, bool) {
	for _, a := range d.Attributes {
		if a.Name == name {
			return a, true
		}
	}
	return nil, false
}

// IsPersistent reports whether the type takes part in the metamodel.
func (d *EntityDescriptor) IsPersistent() bool {
	return d != nil && d.Role != RoleNone
}

// NewInstance returns a new empty instance of the described type: a
// pointer to a zero struct, or a record for descriptors without a Go type.
func (d *EntityDescriptor) NewInstance() interface{} {
	if d.GoType == nil {
		return entity.NewRecord(string(d.Class))
	}
	return reflect.New(d.GoType).Interface()
}
