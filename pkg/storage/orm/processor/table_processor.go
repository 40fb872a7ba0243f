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
Package processor compiles entity descriptors into EntityMetadata.

The TableProcessor compiles one entity class: it registers the named
queries of the class, resolves the table, classifies every attribute into
the managed-type metamodel, records relations through the relation
processors, resolves the id attribute (possibly inherited from a mapped
supertype) and builds the column map. CompileUnit compiles every entity of
a persistence unit and freezes its metamodel.
*/
package processor

import (
	"github.com/devbyt/Kundera/pkg/storage/orm/api"
	"github.com/devbyt/Kundera/pkg/storage/orm/descriptor"
	"github.com/devbyt/Kundera/pkg/storage/orm/metadata"
	"github.com/devbyt/Kundera/pkg/storage/orm/metamodel"
	"github.com/devbyt/Kundera/pkg/storage/orm/query"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// UnitProperties are the persistence unit settings used while compiling.
type UnitProperties struct {
	Name          string `yaml:"name" validate:"nonzero"`
	DefaultSchema string `yaml:"default_schema"`
}

// TableProcessor compiles entity classes of one persistence unit.
type TableProcessor struct {
	source  descriptor.Source
	builder *metamodel.Builder
	queries *query.Registry
	props   UnitProperties
}

// NewTableProcessor returns a table processor writing managed types to
// builder and named queries to queries.
func NewTableProcessor(
	source descriptor.Source,
	builder *metamodel.Builder,
	queries *query.Registry,
	props UnitProperties,
) *TableProcessor {
	return &TableProcessor{
		source:  source,
		builder: builder,
		queries: queries,
		props:   props,
	}
}

// Process populates m with the compiled metadata of class. m.Unit must be
// set, otherwise the call does nothing. On failure neither m nor the
// query registry is modified, and the metamodel is rolled back to its
// state before the call.
func (p *TableProcessor) Process(class descriptor.Class, m *metadata.EntityMetadata) (err error) {
	if m.Unit == "" {
		log.WithField("class", class).
			Debug("persistence unit not set, skipping entity metadata")
		return nil
	}
	d, err := p.source.Descriptor(class)
	if err != nil {
		return errors.Wrapf(api.ErrInvalidEntityDefinition,
			"unknown entity class %s: %v", class, err)
	}
	if d.Role != descriptor.RoleEntity {
		return errors.Wrapf(api.ErrInvalidEntityDefinition,
			"%s is a %s, not an entity", class, d.Role)
	}

	scratch := m.Clone()
	scratch.Class = class
	scratch.Descriptor = d

	entries := query.EntriesFor(d)
	if err := p.queries.Check(entries); err != nil {
		return err
	}

	p.setTable(scratch, d)

	cp := p.builder.Checkpoint()
	defer func() {
		if err != nil {
			p.builder.Rollback(cp)
		}
	}()

	if err := p.builder.Process(class); err != nil {
		return err
	}
	mm := p.builder.Metamodel()
	mt, _ := mm.ManagedType(class)

	for _, a := range d.Attributes {
		if err := p.builder.Construct(class, a); err != nil {
			return err
		}
		c, err := metamodel.Classify(d, a)
		if err != nil {
			return err
		}
		if c.Skip {
			continue
		}
		attr, _ := mt.Attribute(a.Name)
		if c.Kind == metamodel.AttributeID {
			scratch.IDAttribute = attr
		}
		if c.Nested {
			scratch.Family = scratch.Family.Join(metadata.Nested)
		}
		if c.Kind == metamodel.AttributeRelation {
			rp, _ := RelationProcessorFor(a)
			if err := rp.AddRelation(scratch, attr); err != nil {
				return &api.MetamodelLoadError{
					Class:     string(class),
					Attribute: a.Name,
					Cause:     err,
				}
			}
		}
	}

	if scratch.IDAttribute == nil {
		scratch.IDAttribute = mm.IDAttribute(class)
	}
	if scratch.IDAttribute == nil || scratch.IDAttribute.IsCollection() {
		return errors.Wrapf(api.ErrInvalidEntityDefinition,
			"entity %s has no singular id attribute", class)
	}

	scratch.Attributes = mm.Attributes(class)
	scratch.FieldPaths = fieldPaths(d)
	scratch.IDAccessor = &metadata.IDAccessor{
		Attribute: scratch.IDAttribute.Name,
		FieldPath: scratch.FieldPaths[scratch.IDAttribute.Name],
	}
	for _, a := range scratch.Attributes {
		if isNested(a) {
			scratch.Family = scratch.Family.Join(metadata.Nested)
		}
	}
	populateColumnMap(scratch)

	if err := p.queries.AddAll(entries); err != nil {
		return err
	}
	*m = *scratch

	log.WithFields(log.Fields{
		"unit":      m.Unit,
		"class":     m.Class,
		"table":     m.QualifiedTableName(),
		"family":    m.Family,
		"relations": len(m.Relations),
	}).Debug("entity metadata compiled")
	return nil
}

func (p *TableProcessor) setTable(m *metadata.EntityMetadata, d *descriptor.EntityDescriptor) {
	m.Table = d.Class.SimpleName()
	m.Schema = p.props.DefaultSchema
	if d.Table == nil {
		return
	}
	if d.Table.Name != "" {
		m.Table = d.Table.Name
	}
	if d.Table.Schema != "" {
		m.Schema = d.Table.Schema
	}
}

func isNested(a *metamodel.Attribute) bool {
	switch a.Kind {
	case metamodel.AttributeEmbedded:
		return true
	case metamodel.AttributeElementCollection:
		return !a.Type.Kind.IsBasic()
	}
	return false
}

// populateColumnMap maps the column of every persistent non-relation
// attribute. Embedded attributes contribute their leaves.
func populateColumnMap(m *metadata.EntityMetadata) {
	m.ColumnMap = metadata.NewColumnMap()
	for _, a := range m.Attributes {
		switch {
		case a.IsRelation():
		case a.Kind == metamodel.AttributeEmbedded:
			for _, leaf := range a.Embedded {
				m.ColumnMap.Put(a.Column+"."+leaf.Column, a.Name+"."+leaf.Name)
			}
		default:
			m.ColumnMap.Put(a.Column, a.Name)
		}
	}
}

// fieldPaths returns the struct field index path of every attribute of d
// and its supertypes, relative to the struct of d.
func fieldPaths(d *descriptor.EntityDescriptor) map[string][]int {
	paths := map[string][]int{}
	var prefix []int
	for cur := d; cur != nil; cur = cur.Supertype {
		for _, a := range cur.Attributes {
			if _, ok := paths[a.Name]; ok || len(a.FieldIndex) == 0 {
				continue
			}
			path := make([]int, 0, len(prefix)+len(a.FieldIndex))
			path = append(path, prefix...)
			paths[a.Name] = append(path, a.FieldIndex...)
		}
		prefix = append(append([]int(nil), prefix...), cur.SupertypeField...)
	}
	return paths
}
