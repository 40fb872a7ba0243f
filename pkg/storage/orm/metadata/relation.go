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

package metadata

import (
	"github.com/devbyt/Kundera/pkg/storage/orm/descriptor"
)

// RelationKind is the shape of a relation between two entities.
type RelationKind int

// Relation kinds
const (
	ToOneOwning RelationKind = iota + 1
	ToOneInverse
	ToManyOwning
	ToManyInverse
	ManyToManyJoin
)

var _relationKindNames = map[RelationKind]string{
	ToOneOwning:    "TO_ONE_OWNING",
	ToOneInverse:   "TO_ONE_INVERSE",
	ToManyOwning:   "TO_MANY_OWNING",
	ToManyInverse:  "TO_MANY_INVERSE",
	ManyToManyJoin: "MANY_TO_MANY_JOIN",
}

func (k RelationKind) String() string {
	return _relationKindNames[k]
}

// IsToMany reports whether the owner side holds a collection.
func (k RelationKind) IsToMany() bool {
	return k == ToManyOwning || k == ToManyInverse || k == ManyToManyJoin
}

// RelationRecord describes one outbound reference of an entity.
type RelationRecord struct {
	// Attribute is the owner side attribute name.
	Attribute string
	Target    descriptor.Class
	Kind      RelationKind
	// JoinColumn holds the foreign key. It is a column of the owner table
	// for to-one owning relations and of the target table for to-many
	// owning relations.
	JoinColumn string
	// JoinTable is set for many-to-many relations.
	JoinTable *descriptor.JoinTable
	// MappedBy names the owning attribute on the target for inverse
	// relations.
	MappedBy   string
	Fetch      descriptor.FetchType
	Cascade    []descriptor.CascadeType
	Optional   bool
	Collection descriptor.CollectionShape
}

// IsEager reports whether the relation is loaded with its owner. Relations
// without an explicit fetch type are eager when they are to-one.
func (r *RelationRecord) IsEager() bool {
	switch r.Fetch {
	case descriptor.FetchEager:
		return true
	case descriptor.FetchLazy:
		return false
	default:
		return !r.Kind.IsToMany()
	}
}

// Cascades reports whether operation c is cascaded to the target.
func (r *RelationRecord) Cascades(c descriptor.CascadeType) bool {
	for _, rc := range r.Cascade {
		if rc == c || rc == descriptor.CascadeAll {
			return true
		}
	}
	return false
}
