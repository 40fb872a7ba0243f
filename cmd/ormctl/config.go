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
	"strings"

	"github.com/devbyt/Kundera/pkg/common/config"
	"github.com/devbyt/Kundera/pkg/storage/connectors/boltdb"
	"github.com/devbyt/Kundera/pkg/storage/connectors/cassandra"
	"github.com/devbyt/Kundera/pkg/storage/connectors/memory"
	"github.com/devbyt/Kundera/pkg/storage/orm/api"
	"github.com/devbyt/Kundera/pkg/storage/orm/descriptor"
	"github.com/devbyt/Kundera/pkg/storage/orm/processor"

	"github.com/pkg/errors"
)

// Store types
const (
	storeMemory    = "memory"
	storeBoltDB    = "boltdb"
	storeCassandra = "cassandra"
)

// Config is the ormctl configuration
type Config struct {
	Store StoreConfig `yaml:"store"`

	// Secrets are merged into the Cassandra connection when set
	Secrets config.StoreSecretsConfig `yaml:"secrets"`

	// SecretTables are tables whose statement values are redacted in logs
	SecretTables []string `yaml:"secret_tables"`

	Units []UnitConfig `yaml:"units" validate:"nonzero"`
}

// StoreConfig selects and configures the connector
type StoreConfig struct {
	Type      string            `yaml:"type" validate:"nonzero"`
	Memory    memory.Config     `yaml:"memory"`
	BoltDB    *boltdb.Config    `yaml:"boltdb"`
	Cassandra *cassandra.Config `yaml:"cassandra"`
}

// UnitConfig declares a persistence unit and its types
type UnitConfig struct {
	processor.UnitProperties `yaml:",inline"`

	Embeddables []TypeConfig `yaml:"embeddables"`
	Entities    []TypeConfig `yaml:"entities"`
}

// TypeConfig declares an entity or an embeddable
type TypeConfig struct {
	Name       string            `yaml:"name" validate:"nonzero"`
	Table      string            `yaml:"table"`
	Schema     string            `yaml:"schema"`
	Attributes []AttributeConfig `yaml:"attributes"`
	Relations  []RelationConfig  `yaml:"relations"`
	Queries    []QueryConfig     `yaml:"queries"`
}

// AttributeConfig declares a value attribute. Kind is a basic kind name,
// or "record" together with the embeddable in Type.
type AttributeConfig struct {
	Name       string `yaml:"name" validate:"nonzero"`
	Kind       string `yaml:"kind" validate:"nonzero"`
	Type       string `yaml:"type"`
	Column     string `yaml:"column"`
	ID         bool   `yaml:"id"`
	Collection string `yaml:"collection"`
	Transient  bool   `yaml:"transient"`
}

// RelationConfig declares a relation attribute
type RelationConfig struct {
	Name       string           `yaml:"name" validate:"nonzero"`
	Kind       string           `yaml:"kind" validate:"nonzero"`
	Target     string           `yaml:"target" validate:"nonzero"`
	MappedBy   string           `yaml:"mapped_by"`
	JoinColumn string           `yaml:"join_column"`
	JoinTable  *JoinTableConfig `yaml:"join_table"`
	Fetch      string           `yaml:"fetch"`
	Cascade    []string         `yaml:"cascade"`
	Optional   bool             `yaml:"optional"`
}

// JoinTableConfig declares the join table of a many-to-many relation
type JoinTableConfig struct {
	Name              string `yaml:"name" validate:"nonzero"`
	Schema            string `yaml:"schema"`
	JoinColumn        string `yaml:"join_column"`
	InverseJoinColumn string `yaml:"inverse_join_column"`
}

// QueryConfig declares a named query
type QueryConfig struct {
	Name   string `yaml:"name" validate:"nonzero"`
	Query  string `yaml:"query" validate:"nonzero"`
	Native bool   `yaml:"native"`
}

// classOf returns the class of a type declared in unit.
func classOf(unit, name string) descriptor.Class {
	return descriptor.Class(unit + "." + name)
}

var _collections = map[string]descriptor.CollectionShape{
	"":     descriptor.CollectionNone,
	"list": descriptor.CollectionList,
	"set":  descriptor.CollectionSet,
	"map":  descriptor.CollectionMap,
}

var _relationKinds = map[string]descriptor.RelationDirectiveKind{}

func init() {
	for _, k := range []descriptor.RelationDirectiveKind{
		descriptor.ToOne,
		descriptor.ToMany,
		descriptor.InverseToOne,
		descriptor.InverseToMany,
		descriptor.ManyToMany,
	} {
		_relationKinds[strings.ToLower(k.String())] = k
	}
}

// Descriptors builds the entity descriptors declared by the unit and
// registers them in reg.
func (u *UnitConfig) Descriptors(reg *descriptor.Registry) ([]*descriptor.EntityDescriptor, error) {
	embeddables := make(map[string]*descriptor.EntityDescriptor, len(u.Embeddables))
	for i := range u.Embeddables {
		t := &u.Embeddables[i]
		d := &descriptor.EntityDescriptor{
			Class: classOf(u.Name, t.Name),
			Role:  descriptor.RoleEmbeddable,
		}
		for _, ac := range t.Attributes {
			a, err := u.attribute(d.Class, ac, nil)
			if err != nil {
				return nil, err
			}
			d.Attributes = append(d.Attributes, a)
		}
		embeddables[t.Name] = d
	}

	var out []*descriptor.EntityDescriptor
	for i := range u.Entities {
		t := &u.Entities[i]
		d := &descriptor.EntityDescriptor{
			Class: classOf(u.Name, t.Name),
			Role:  descriptor.RoleEntity,
			Table: &descriptor.TableDirective{
				Name:   t.Table,
				Schema: t.Schema,
				Unit:   u.Name,
			},
		}
		for _, ac := range t.Attributes {
			a, err := u.attribute(d.Class, ac, embeddables)
			if err != nil {
				return nil, err
			}
			d.Attributes = append(d.Attributes, a)
		}
		for _, rc := range t.Relations {
			a, err := u.relation(d.Class, rc)
			if err != nil {
				return nil, err
			}
			d.Attributes = append(d.Attributes, a)
		}
		for _, q := range t.Queries {
			nq := descriptor.NamedQuery{Name: q.Name, Query: q.Query}
			if q.Native {
				d.Queries.NativeList = append(d.Queries.NativeList, nq)
			} else {
				d.Queries.NamedList = append(d.Queries.NamedList, nq)
			}
		}
		if err := reg.Register(d); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func (u *UnitConfig) attribute(
	owner descriptor.Class,
	ac AttributeConfig,
	embeddables map[string]*descriptor.EntityDescriptor,
) (*descriptor.AttributeDescriptor, error) {
	kind, ok := descriptor.ParseValueKind(strings.ToLower(ac.Kind))
	if !ok || kind == descriptor.KindUnknown {
		return nil, errors.Wrapf(api.ErrInvalidEntityDefinition,
			"unknown kind %q of %s.%s", ac.Kind, owner, ac.Name)
	}
	shape, ok := _collections[strings.ToLower(ac.Collection)]
	if !ok {
		return nil, errors.Wrapf(api.ErrInvalidEntityDefinition,
			"unknown collection %q of %s.%s", ac.Collection, owner, ac.Name)
	}
	a := &descriptor.AttributeDescriptor{
		Name:       ac.Name,
		Type:       descriptor.ValueType{Kind: kind},
		Collection: shape,
		Directives: descriptor.Directives{
			ID:        ac.ID,
			Column:    ac.Column,
			Transient: ac.Transient,
		},
	}
	if kind != descriptor.KindRecord {
		return a, nil
	}
	emb, ok := embeddables[ac.Type]
	if !ok {
		return nil, errors.Wrapf(api.ErrInvalidEntityDefinition,
			"unknown embeddable %q of %s.%s", ac.Type, owner, ac.Name)
	}
	a.Type.Class = emb.Class
	a.Type.Embeddable = emb
	if a.IsCollection() {
		a.Directives.ElementCollection = true
	} else {
		a.Directives.Embedded = true
	}
	return a, nil
}

func (u *UnitConfig) relation(
	owner descriptor.Class,
	rc RelationConfig,
) (*descriptor.AttributeDescriptor, error) {
	kind, ok := _relationKinds[strings.ToLower(rc.Kind)]
	if !ok {
		return nil, errors.Wrapf(api.ErrInvalidEntityDefinition,
			"unknown relation %q of %s.%s", rc.Kind, owner, rc.Name)
	}
	r := descriptor.RelationDirective{
		Kind:       kind,
		MappedBy:   rc.MappedBy,
		JoinColumn: rc.JoinColumn,
		Optional:   rc.Optional,
	}
	switch strings.ToLower(rc.Fetch) {
	case "":
	case "eager":
		r.Fetch = descriptor.FetchEager
	case "lazy":
		r.Fetch = descriptor.FetchLazy
	default:
		return nil, errors.Wrapf(api.ErrInvalidEntityDefinition,
			"unknown fetch type %q of %s.%s", rc.Fetch, owner, rc.Name)
	}
	for _, c := range rc.Cascade {
		r.Cascade = append(r.Cascade, descriptor.CascadeType(strings.ToLower(c)))
	}
	if jt := rc.JoinTable; jt != nil {
		r.JoinTable = &descriptor.JoinTable{
			Name:              jt.Name,
			Schema:            jt.Schema,
			JoinColumn:        jt.JoinColumn,
			InverseJoinColumn: jt.InverseJoinColumn,
		}
	}

	a := &descriptor.AttributeDescriptor{
		Name: rc.Name,
		Type: descriptor.ValueType{
			Kind:  descriptor.KindRecord,
			Class: classOf(u.Name, rc.Target),
		},
		Directives: descriptor.Directives{
			Relations: []descriptor.RelationDirective{r},
		},
	}
	switch kind {
	case descriptor.ToMany, descriptor.InverseToMany, descriptor.ManyToMany:
		a.Collection = descriptor.CollectionList
	}
	return a, nil
}
