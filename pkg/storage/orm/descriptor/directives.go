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
	"strings"
)

// Directives are the persistence directives declared on an attribute.
type Directives struct {
	ID bool
	// Column overrides the column name, which defaults to the attribute name.
	Column string
	// Transient marks the attribute as non-persistent.
	Transient         bool
	Embedded          bool
	ElementCollection bool
	Relations         []RelationDirective
}

// HasRelation reports whether any relation directive is present.
func (d Directives) HasRelation() bool {
	return len(d.Relations) > 0
}

// Relation returns the relation directive of the given kind.
func (d Directives) Relation(kind RelationDirectiveKind) (RelationDirective, bool) {
	for _, r := range d.Relations {
		if r.Kind == kind {
			return r, true
		}
	}
	return RelationDirective{}, false
}

// RelationDirectiveKind is the kind of a relation directive.
type RelationDirectiveKind int

// Relation directive kinds
const (
	ToOne RelationDirectiveKind = iota + 1
	ToMany
	InverseToOne
	InverseToMany
	ManyToMany
)

var _relationDirectiveNames = map[RelationDirectiveKind]string{
	ToOne:         "toOne",
	ToMany:        "toMany",
	InverseToOne:  "inverseToOne",
	InverseToMany: "inverseToMany",
	ManyToMany:    "manyToMany",
}

func (k RelationDirectiveKind) String() string {
	return _relationDirectiveNames[k]
}

// FetchType is the fetch policy of a relation.
type FetchType int

// Fetch policies. FetchDefault resolves to eager for to-one relations and
// lazy for to-many relations.
const (
	FetchDefault FetchType = iota
	FetchEager
	FetchLazy
)

func (f FetchType) String() string {
	switch f {
	case FetchEager:
		return "eager"
	case FetchLazy:
		return "lazy"
	default:
		return "default"
	}
}

// CascadeType is an operation cascaded from the owner to related entities.
type CascadeType string

// Cascade types
const (
	CascadeAll     CascadeType = "all"
	CascadePersist CascadeType = "persist"
	CascadeMerge   CascadeType = "merge"
	CascadeRemove  CascadeType = "remove"
	CascadeRefresh CascadeType = "refresh"
	CascadeDetach  CascadeType = "detach"
)

// JoinTable describes the table linking both sides of a many-to-many
// relation.
type JoinTable struct {
	Name              string
	Schema            string
	JoinColumn        string
	InverseJoinColumn string
}

// RelationDirective is one relation directive on an attribute.
type RelationDirective struct {
	Kind RelationDirectiveKind
	// MappedBy names the owning attribute on the target for inverse sides.
	MappedBy   string
	JoinColumn string
	JoinTable  *JoinTable
	Fetch      FetchType
	Cascade    []CascadeType
	Optional   bool
}

// NamedQuery is a named query template declared on an entity.
type NamedQuery struct {
	Name  string
	Query string
}

// NamedQueries holds the four kinds of named-query directives.
type NamedQueries struct {
	Named      *NamedQuery
	NamedList  []NamedQuery
	Native     *NamedQuery
	NativeList []NamedQuery
}

// IsEmpty reports whether no named query is declared.
func (q NamedQueries) IsEmpty() bool {
	return q.Named == nil && len(q.NamedList) == 0 &&
		q.Native == nil && len(q.NativeList) == 0
}

// NamedQuerier is implemented by Go struct entities that declare named
// queries.
type NamedQuerier interface {
	NamedQueries() NamedQueries
}

// parseCascade parses a "|" separated cascade list.
func parseCascade(v string) []CascadeType {
	var out []CascadeType
	for _, c := range strings.Split(v, "|") {
		c = strings.TrimSpace(c)
		if c != "" {
			out = append(out, CascadeType(strings.ToLower(c)))
		}
	}
	return out
}
