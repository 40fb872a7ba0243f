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
	"sync"

	"github.com/devbyt/Kundera/pkg/storage/orm/descriptor"

	"go.uber.org/atomic"
)

// Metamodel is the managed-type metamodel of one persistence unit. It is
// written by a single Builder during startup and read-only once frozen.
type Metamodel struct {
	unit   string
	mu     sync.RWMutex
	types  map[descriptor.Class]*ManagedType
	frozen atomic.Bool
}

// New returns an empty metamodel for a persistence unit.
func New(unit string) *Metamodel {
	return &Metamodel{
		unit:  unit,
		types: make(map[descriptor.Class]*ManagedType),
	}
}

// Unit returns the persistence unit name.
func (m *Metamodel) Unit() string {
	return m.unit
}

func (m *Metamodel) rlock() func() {
	if m.frozen.Load() {
		return func() {}
	}
	m.mu.RLock()
	return m.mu.RUnlock
}

// ManagedType returns the node of a class.
func (m *Metamodel) ManagedType(class descriptor.Class) (*ManagedType, bool) {
	defer m.rlock()()
	mt, ok := m.types[class]
	return mt, ok
}

// Supertype returns the node of the supertype of mt.
func (m *Metamodel) Supertype(mt *ManagedType) (*ManagedType, bool) {
	if mt == nil || mt.Supertype == "" {
		return nil, false
	}
	return m.ManagedType(mt.Supertype)
}

// chain returns the node of class followed by its supertype nodes.
func (m *Metamodel) chain(class descriptor.Class) []*ManagedType {
	var out []*ManagedType
	mt, ok := m.ManagedType(class)
	for ok {
		out = append(out, mt)
		mt, ok = m.Supertype(mt)
	}
	return out
}

// IDAttribute returns the id attribute of class, declared or inherited from
// the nearest supertype that declares one.
func (m *Metamodel) IDAttribute(class descriptor.Class) *Attribute {
	for _, mt := range m.chain(class) {
		if id := mt.IDAttribute(); id != nil {
			return id
		}
	}
	return nil
}

// Attribute returns the attribute with the given name, declared or
// inherited.
func (m *Metamodel) Attribute(class descriptor.Class, name string) (*Attribute, bool) {
	for _, mt := range m.chain(class) {
		if a, ok := mt.Attribute(name); ok {
			return a, true
		}
	}
	return nil, false
}

// Attributes returns every attribute of class: inherited attributes first,
// starting from the root supertype, then the declared ones.
func (m *Metamodel) Attributes(class descriptor.Class) []*Attribute {
	chain := m.chain(class)
	var out []*Attribute
	for i := len(chain) - 1; i >= 0; i-- {
		out = append(out, chain[i].Attributes()...)
	}
	return out
}

// ManagedTypes returns a copy of the class to node mapping.
func (m *Metamodel) ManagedTypes() map[descriptor.Class]*ManagedType {
	defer m.rlock()()
	out := make(map[descriptor.Class]*ManagedType, len(m.types))
	for k, v := range m.types {
		out[k] = v
	}
	return out
}

// Freeze makes the metamodel read-only.
func (m *Metamodel) Freeze() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frozen.Store(true)
}

// Frozen reports whether the metamodel is read-only.
func (m *Metamodel) Frozen() bool {
	return m.frozen.Load()
}
