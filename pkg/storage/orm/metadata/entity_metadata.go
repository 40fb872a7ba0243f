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
Package metadata holds the compiled, store-facing description of entities:
the EntityMetadata produced by the metadata compiler for each entity class
and the ApplicationMetadata index over all persistence units.
*/
package metadata

import (
	"github.com/devbyt/Kundera/pkg/storage/orm/descriptor"
	"github.com/devbyt/Kundera/pkg/storage/orm/metamodel"
)

// FamilyType is the storage shape of an entity.
type FamilyType int

const (
	// Flat entities store scalar columns only.
	Flat FamilyType = iota
	// Nested entities store embedded records or non-basic element
	// collections as super columns.
	Nested
)

func (f FamilyType) String() string {
	if f == Nested {
		return "NESTED"
	}
	return "FLAT"
}

// Join returns the least upper bound of f and o. Nested never downgrades.
func (f FamilyType) Join(o FamilyType) FamilyType {
	if f == Nested || o == Nested {
		return Nested
	}
	return Flat
}

// IDAccessor locates the id value of an entity instance.
type IDAccessor struct {
	// Attribute is the id attribute name, used for record entities.
	Attribute string
	// FieldPath is the struct field index path from the entity struct,
	// including embedded supertype structs.
	FieldPath []int
}

// EntityMetadata is the compiled description of an entity class.
type EntityMetadata struct {
	Class  descriptor.Class
	Unit   string
	Schema string
	Table  string
	Family FamilyType

	// IDAttribute is declared on the entity or inherited from a mapped
	// supertype.
	IDAttribute *metamodel.Attribute
	IDAccessor  *IDAccessor

	Relations            []*RelationRecord
	RelationViaJoinTable bool

	// ColumnMap maps column names to attribute names for every persistent
	// non-relation attribute. Embedded leaves are keyed by their qualified
	// column "embedded.leaf".
	ColumnMap *ColumnMap

	// Attributes lists every persistent attribute, inherited first.
	Attributes []*metamodel.Attribute
	// FieldPaths maps attribute names to struct field index paths from the
	// entity struct.
	FieldPaths map[string][]int

	Descriptor *descriptor.EntityDescriptor
}

// New returns empty metadata for class in unit.
func New(unit string, class descriptor.Class) *EntityMetadata {
	return &EntityMetadata{
		Class:      class,
		Unit:       unit,
		ColumnMap:  NewColumnMap(),
		FieldPaths: map[string][]int{},
	}
}

// QualifiedTableName returns "schema.table", or the table alone when the
// schema is empty.
func (m *EntityMetadata) QualifiedTableName() string {
	if m.Schema == "" {
		return m.Table
	}
	return m.Schema + "." + m.Table
}

// AddRelation adds a relation record, replacing a record for the same
// attribute.
func (m *EntityMetadata) AddRelation(r *RelationRecord) {
	for i, old := range m.Relations {
		if old.Attribute == r.Attribute {
			m.Relations[i] = r
			m.updateJoinTableFlag()
			return
		}
	}
	m.Relations = append(m.Relations, r)
	m.updateJoinTableFlag()
}

func (m *EntityMetadata) updateJoinTableFlag() {
	m.RelationViaJoinTable = false
	for _, r := range m.Relations {
		if r.Kind == ManyToManyJoin {
			m.RelationViaJoinTable = true
		}
	}
}

// Relation returns the relation record of an attribute.
func (m *EntityMetadata) Relation(attribute string) (*RelationRecord, bool) {
	for _, r := range m.Relations {
		if r.Attribute == attribute {
			return r, true
		}
	}
	return nil, false
}

// HasRelations reports whether relation fill-in applies to the entity.
func (m *EntityMetadata) HasRelations() bool {
	return len(m.Relations) > 0 || m.RelationViaJoinTable
}

// Attribute returns the persistent attribute with the given name.
func (m *EntityMetadata) Attribute(name string) (*metamodel.Attribute, bool) {
	for _, a := range m.Attributes {
		if a.Name == name {
			return a, true
		}
	}
	return nil, false
}

// Clone returns a copy of m that can be modified without affecting m.
func (m *EntityMetadata) Clone() *EntityMetadata {
	c := *m
	c.Relations = append([]*RelationRecord(nil), m.Relations...)
	c.Attributes = append([]*metamodel.Attribute(nil), m.Attributes...)
	if m.ColumnMap != nil {
		c.ColumnMap = m.ColumnMap.Clone()
	} else {
		c.ColumnMap = NewColumnMap()
	}
	c.FieldPaths = make(map[string][]int, len(m.FieldPaths))
	for k, v := range m.FieldPaths {
		c.FieldPaths[k] = v
	}
	if m.IDAccessor != nil {
		acc := *m.IDAccessor
		c.IDAccessor = &acc
	}
	return &c
}
