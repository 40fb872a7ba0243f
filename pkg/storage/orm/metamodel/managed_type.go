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

package metamodel

import (
	"github.com/devbyt/Kundera/pkg/storage/orm/descriptor"
)

// Attribute is a persistent attribute of a managed type.
type Attribute struct {
	Name       string
	Column     string
	Kind       AttributeKind
	Declaring  descriptor.Class
	Type       descriptor.ValueType
	Collection descriptor.CollectionShape
	// Embedded lists the leaf attributes of an embedded attribute.
	Embedded []*Attribute
	// Descriptor is the attribute descriptor this attribute was built from.
	Descriptor *descriptor.AttributeDescriptor
}

// IsID reports whether the attribute is the id attribute.
func (a *Attribute) IsID() bool {
	return a.Kind == AttributeID
}

// IsCollection reports whether the attribute is a collection.
func (a *Attribute) IsCollection() bool {
	return a.Collection != descriptor.CollectionNone
}

// IsRelation reports whether the attribute references another entity.
func (a *Attribute) IsRelation() bool {
	return a.Kind == AttributeRelation
}

// ManagedType is the metamodel node of one persistent type.
type ManagedType struct {
	Class descriptor.Class
	Role  descriptor.Role
	// Supertype is the class of the persistent supertype, empty if none.
	Supertype descriptor.Class

	attributes []*Attribute
	index      map[string]int
}

func newManagedType(d *descriptor.EntityDescriptor) *ManagedType {
	mt := &ManagedType{
		Class: d.Class,
		Role:  d.Role,
		index: make(map[string]int),
	}
	if d.Supertype.IsPersistent() {
		mt.Supertype = d.Supertype.Class
	}
	return mt
}

// put adds an attribute, replacing a previous attribute of the same name
// in place.
func (mt *ManagedType) put(a *Attribute) {
	if i, ok := mt.index[a.Name]; ok {
		mt.attributes[i] = a
		return
	}
	mt.index[a.Name] = len(mt.attributes)
	mt.attributes = append(mt.attributes, a)
}

// Attribute returns the declared attribute with the given name.
func (mt *ManagedType) Attribute(name string) (*Attribute, bool) {
	i, ok := mt.index[name]
	if !ok {
		return nil, false
	}
	return mt.attributes[i], true
}

// Attributes returns the declared attributes in declaration order.
func (mt *ManagedType) Attributes() []*Attribute {
	out := make([]*Attribute, len(mt.attributes))
	copy(out, mt.attributes)
	return out
}

// IDAttribute returns the declared id attribute, nil if there is none.
func (mt *ManagedType) IDAttribute() *Attribute {
	for _, a := range mt.attributes {
		if a.IsID() {
			return a
		}
	}
	return nil
}
