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
	"github.com/devbyt/Kundera/pkg/storage/orm/api"
	"github.com/devbyt/Kundera/pkg/storage/orm/descriptor"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Builder incrementally builds the metamodel of one persistence unit.
// It is not safe for concurrent use; the metamodel it builds is safe for
// concurrent reads once frozen.
type Builder struct {
	mm     *Metamodel
	source descriptor.Source
}

// NewBuilder returns a builder populating a new metamodel for unit.
func NewBuilder(unit string, source descriptor.Source) *Builder {
	return &Builder{mm: New(unit), source: source}
}

// Metamodel returns the metamodel being built.
func (b *Builder) Metamodel() *Metamodel {
	return b.mm
}

// Process ensures a node exists for class and for each persistent ancestor.
// Ancestor attributes are constructed as well, since entities inherit them.
// Processing a class twice is a no-op.
func (b *Builder) Process(class descriptor.Class) error {
	d, err := b.source.Descriptor(class)
	if err != nil {
		return err
	}
	b.mm.mu.Lock()
	defer b.mm.mu.Unlock()
	return b.process(d, false)
}

func (b *Builder) process(d *descriptor.EntityDescriptor, withAttributes bool) error {
	if _, ok := b.mm.types[d.Class]; !ok {
		if b.mm.frozen.Load() {
			return errors.Wrapf(api.ErrFrozen, "metamodel %s", b.mm.unit)
		}
		mt := newManagedType(d)
		b.mm.types[d.Class] = mt
		log.WithFields(log.Fields{
			"unit":      b.mm.unit,
			"class":     d.Class,
			"supertype": mt.Supertype,
		}).Debug("managed type created")
	}
	if withAttributes && !b.mm.frozen.Load() {
		for _, a := range d.Attributes {
			if err := b.construct(d, a); err != nil {
				return err
			}
		}
	}
	if d.Supertype.IsPersistent() {
		return b.process(d.Supertype, true)
	}
	return nil
}

// Construct classifies an attribute of class and adds it to the node of
// class, replacing an attribute of the same name. Skipped attributes are
// not added. Process must have been called for class.
func (b *Builder) Construct(class descriptor.Class, a *descriptor.AttributeDescriptor) error {
	d, err := b.source.Descriptor(class)
	if err != nil {
		return err
	}
	b.mm.mu.Lock()
	defer b.mm.mu.Unlock()
	if b.mm.frozen.Load() {
		return errors.Wrapf(api.ErrFrozen, "metamodel %s", b.mm.unit)
	}
	return b.construct(d, a)
}

func (b *Builder) construct(d *descriptor.EntityDescriptor, a *descriptor.AttributeDescriptor) error {
	mt, ok := b.mm.types[d.Class]
	if !ok {
		return errors.Errorf("managed type %s not processed", d.Class)
	}
	c, err := Classify(d, a)
	if err != nil {
		return err
	}
	if c.Skip {
		return nil
	}
	attr := newAttribute(d.Class, a, c)
	if attr.Kind == AttributeEmbedded {
		emb := a.Type.Embeddable
		if _, ok := b.mm.types[emb.Class]; !ok {
			b.mm.types[emb.Class] = newManagedType(emb)
		}
		embType := b.mm.types[emb.Class]
		for _, ea := range emb.Attributes {
			ec, err := Classify(emb, ea)
			if err != nil {
				return err
			}
			if ec.Skip {
				continue
			}
			leaf := newAttribute(emb.Class, ea, ec)
			embType.put(leaf)
			attr.Embedded = append(attr.Embedded, leaf)
		}
	}
	mt.put(attr)
	return nil
}

func newAttribute(
	class descriptor.Class,
	a *descriptor.AttributeDescriptor,
	c Classification,
) *Attribute {
	return &Attribute{
		Name:       a.Name,
		Column:     c.Column,
		Kind:       c.Kind,
		Declaring:  class,
		Type:       a.Type,
		Collection: a.Collection,
		Descriptor: a,
	}
}

// Checkpoint is the state of the nodes of a metamodel at one point of a
// build.
type Checkpoint struct {
	nodes map[descriptor.Class]nodeState
}

type nodeState struct {
	mt         *ManagedType
	attributes []*Attribute
	index      map[string]int
}

// Checkpoint records the nodes built so far and their attributes.
func (b *Builder) Checkpoint() *Checkpoint {
	b.mm.mu.RLock()
	defer b.mm.mu.RUnlock()
	cp := &Checkpoint{nodes: make(map[descriptor.Class]nodeState, len(b.mm.types))}
	for class, mt := range b.mm.types {
		index := make(map[string]int, len(mt.index))
		for k, v := range mt.index {
			index[k] = v
		}
		cp.nodes[class] = nodeState{
			mt:         mt,
			attributes: append([]*Attribute(nil), mt.attributes...),
			index:      index,
		}
	}
	return cp
}

// Rollback drops the nodes created since cp and restores the attributes
// of the others. Nodes keep their identity. A frozen metamodel is left
// unchanged.
func (b *Builder) Rollback(cp *Checkpoint) {
	b.mm.mu.Lock()
	defer b.mm.mu.Unlock()
	if b.mm.frozen.Load() {
		return
	}
	for class := range b.mm.types {
		if _, ok := cp.nodes[class]; !ok {
			delete(b.mm.types, class)
			log.WithFields(log.Fields{
				"unit":  b.mm.unit,
				"class": class,
			}).Debug("managed type rolled back")
		}
	}
	for class, st := range cp.nodes {
		st.mt.attributes = st.attributes
		st.mt.index = st.index
		b.mm.types[class] = st.mt
	}
}

// ManagedTypes returns the class to node mapping built so far.
func (b *Builder) ManagedTypes() map[descriptor.Class]*ManagedType {
	return b.mm.ManagedTypes()
}

// Freeze makes the metamodel read-only.
func (b *Builder) Freeze() {
	b.mm.Freeze()
}
