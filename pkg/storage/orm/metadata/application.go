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
	"sort"
	"sync"

	"github.com/devbyt/Kundera/pkg/storage/orm/descriptor"
	"github.com/devbyt/Kundera/pkg/storage/orm/metamodel"

	"go.uber.org/yarpc/yarpcerrors"
)

type entityKey struct {
	unit  string
	class descriptor.Class
}

// ApplicationMetadata indexes compiled entity metadata by persistence unit
// and class, together with the metamodel of each unit.
type ApplicationMetadata struct {
	sync.RWMutex
	entities   map[entityKey]*EntityMetadata
	metamodels map[string]*metamodel.Metamodel
}

// NewApplicationMetadata returns an empty index.
func NewApplicationMetadata() *ApplicationMetadata {
	return &ApplicationMetadata{
		entities:   map[entityKey]*EntityMetadata{},
		metamodels: map[string]*metamodel.Metamodel{},
	}
}

// AddEntityMetadata stores m under its unit and class.
func (a *ApplicationMetadata) AddEntityMetadata(m *EntityMetadata) {
	a.Lock()
	defer a.Unlock()
	a.entities[entityKey{m.Unit, m.Class}] = m
}

// SetMetamodel stores the metamodel of a unit.
func (a *ApplicationMetadata) SetMetamodel(mm *metamodel.Metamodel) {
	a.Lock()
	defer a.Unlock()
	a.metamodels[mm.Unit()] = mm
}

// Metamodel returns the metamodel of a unit.
func (a *ApplicationMetadata) Metamodel(unit string) (*metamodel.Metamodel, bool) {
	a.RLock()
	defer a.RUnlock()
	mm, ok := a.metamodels[unit]
	return mm, ok
}

// EntityMetadata returns the metadata of class in unit.
func (a *ApplicationMetadata) EntityMetadata(
	unit string,
	class descriptor.Class,
) (*EntityMetadata, error) {
	a.RLock()
	defer a.RUnlock()
	m, ok := a.entities[entityKey{unit, class}]
	if !ok {
		return nil, yarpcerrors.NotFoundErrorf(
			"entity metadata not found for %s in unit %s", class, unit)
	}
	return m, nil
}

// EntityMetadataByClass returns the metadata of class in whichever unit it
// was compiled.
func (a *ApplicationMetadata) EntityMetadataByClass(class descriptor.Class) (*EntityMetadata, error) {
	a.RLock()
	defer a.RUnlock()
	for k, m := range a.entities {
		if k.class == class {
			return m, nil
		}
	}
	return nil, yarpcerrors.NotFoundErrorf("entity metadata not found for %s", class)
}

// Entities returns the metadata of every entity of a unit sorted by class.
func (a *ApplicationMetadata) Entities(unit string) []*EntityMetadata {
	a.RLock()
	defer a.RUnlock()
	var out []*EntityMetadata
	for k, m := range a.entities {
		if k.unit == unit {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Class < out[j].Class })
	return out
}

// Units returns the names of all units with compiled entities, sorted.
func (a *ApplicationMetadata) Units() []string {
	a.RLock()
	defer a.RUnlock()
	seen := map[string]bool{}
	var out []string
	for k := range a.entities {
		if !seen[k.unit] {
			seen[k.unit] = true
			out = append(out, k.unit)
		}
	}
	sort.Strings(out)
	return out
}
