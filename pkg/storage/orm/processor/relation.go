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

package processor

import (
	"github.com/devbyt/Kundera/pkg/storage/orm/api"
	"github.com/devbyt/Kundera/pkg/storage/orm/descriptor"
	"github.com/devbyt/Kundera/pkg/storage/orm/metadata"
	"github.com/devbyt/Kundera/pkg/storage/orm/metamodel"

	"github.com/pkg/errors"
)

// RelationProcessor validates one relation directive and records the
// relation on the entity metadata.
type RelationProcessor interface {
	// Kind returns the relation kind the processor records.
	Kind() metadata.RelationKind
	// AddRelation appends the relation record of attribute a to m.
	AddRelation(m *metadata.EntityMetadata, a *metamodel.Attribute) error
}

// _precedence orders relation directives, first match wins.
var _precedence = []descriptor.RelationDirectiveKind{
	descriptor.ManyToMany,
	descriptor.InverseToMany,
	descriptor.ToMany,
	descriptor.InverseToOne,
	descriptor.ToOne,
}

// RelationProcessorFor selects the relation processor for an attribute.
// It returns false when the attribute carries no relation directive.
func RelationProcessorFor(a *descriptor.AttributeDescriptor) (RelationProcessor, bool) {
	for _, kind := range _precedence {
		d, ok := a.Directives.Relation(kind)
		if !ok {
			continue
		}
		switch kind {
		case descriptor.ManyToMany:
			return manyToManyProcessor{d}, true
		case descriptor.InverseToMany:
			return toManyInverseProcessor{d}, true
		case descriptor.ToMany:
			return toManyOwningProcessor{d}, true
		case descriptor.InverseToOne:
			return toOneInverseProcessor{d}, true
		case descriptor.ToOne:
			return toOneOwningProcessor{d}, true
		}
	}
	return nil, false
}

func newRecord(
	kind metadata.RelationKind,
	d descriptor.RelationDirective,
	a *metamodel.Attribute,
) (*metadata.RelationRecord, error) {
	if a.Type.Kind != descriptor.KindRecord || a.Type.Class == "" {
		return nil, errors.Wrapf(api.ErrInvalidRelation,
			"target of %s is not an entity", a.Name)
	}
	if kind.IsToMany() && !a.IsCollection() {
		return nil, errors.Wrapf(api.ErrInvalidRelation,
			"%s relation %s must be a collection", kind, a.Name)
	}
	if !kind.IsToMany() && a.IsCollection() {
		return nil, errors.Wrapf(api.ErrInvalidRelation,
			"%s relation %s must not be a collection", kind, a.Name)
	}
	return &metadata.RelationRecord{
		Attribute:  a.Name,
		Target:     a.Type.Class,
		Kind:       kind,
		MappedBy:   d.MappedBy,
		Fetch:      d.Fetch,
		Cascade:    d.Cascade,
		Optional:   d.Optional,
		Collection: a.Collection,
	}, nil
}

func requireMappedBy(kind metadata.RelationKind, d descriptor.RelationDirective, a *metamodel.Attribute) error {
	if d.MappedBy == "" {
		return errors.Wrapf(api.ErrInvalidRelation,
			"%s relation %s has no mappedBy", kind, a.Name)
	}
	return nil
}

type toOneOwningProcessor struct {
	directive descriptor.RelationDirective
}

func (p toOneOwningProcessor) Kind() metadata.RelationKind {
	return metadata.ToOneOwning
}

func (p toOneOwningProcessor) AddRelation(m *metadata.EntityMetadata, a *metamodel.Attribute) error {
	r, err := newRecord(p.Kind(), p.directive, a)
	if err != nil {
		return err
	}
	r.JoinColumn = p.directive.JoinColumn
	if r.JoinColumn == "" {
		r.JoinColumn = a.Column
	}
	m.AddRelation(r)
	return nil
}

type toOneInverseProcessor struct {
	directive descriptor.RelationDirective
}

func (p toOneInverseProcessor) Kind() metadata.RelationKind {
	return metadata.ToOneInverse
}

func (p toOneInverseProcessor) AddRelation(m *metadata.EntityMetadata, a *metamodel.Attribute) error {
	if err := requireMappedBy(p.Kind(), p.directive, a); err != nil {
		return err
	}
	r, err := newRecord(p.Kind(), p.directive, a)
	if err != nil {
		return err
	}
	m.AddRelation(r)
	return nil
}

type toManyOwningProcessor struct {
	directive descriptor.RelationDirective
}

func (p toManyOwningProcessor) Kind() metadata.RelationKind {
	return metadata.ToManyOwning
}

func (p toManyOwningProcessor) AddRelation(m *metadata.EntityMetadata, a *metamodel.Attribute) error {
	r, err := newRecord(p.Kind(), p.directive, a)
	if err != nil {
		return err
	}
	// the foreign key lives on the target table
	r.JoinColumn = p.directive.JoinColumn
	if r.JoinColumn == "" {
		r.JoinColumn = a.Column
	}
	m.AddRelation(r)
	return nil
}

type toManyInverseProcessor struct {
	directive descriptor.RelationDirective
}

func (p toManyInverseProcessor) Kind() metadata.RelationKind {
	return metadata.ToManyInverse
}

func (p toManyInverseProcessor) AddRelation(m *metadata.EntityMetadata, a *metamodel.Attribute) error {
	if err := requireMappedBy(p.Kind(), p.directive, a); err != nil {
		return err
	}
	r, err := newRecord(p.Kind(), p.directive, a)
	if err != nil {
		return err
	}
	m.AddRelation(r)
	return nil
}

type manyToManyProcessor struct {
	directive descriptor.RelationDirective
}

func (p manyToManyProcessor) Kind() metadata.RelationKind {
	return metadata.ManyToManyJoin
}

func (p manyToManyProcessor) AddRelation(m *metadata.EntityMetadata, a *metamodel.Attribute) error {
	jt := p.directive.JoinTable
	if jt == nil || jt.Name == "" {
		return errors.Wrapf(api.ErrInvalidRelation,
			"many-to-many relation %s has no join table", a.Name)
	}
	if jt.JoinColumn == "" || jt.InverseJoinColumn == "" {
		return errors.Wrapf(api.ErrInvalidRelation,
			"join table %s of %s needs join and inverse join columns", jt.Name, a.Name)
	}
	r, err := newRecord(p.Kind(), p.directive, a)
	if err != nil {
		return err
	}
	t := *jt
	if t.Schema == "" {
		t.Schema = m.Schema
	}
	r.JoinTable = &t
	m.AddRelation(r)
	return nil
}
