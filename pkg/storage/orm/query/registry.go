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
Package query holds the named-query registry and the translated scan
descriptor consumed by the scan coordinator.

The registry has a two phase lifecycle. While building, a single writer
registers the named queries of every compiled entity. Freeze makes it
read-only; lookups after freeze take no lock.
*/
package query

import (
	"sort"
	"sync"

	"github.com/devbyt/Kundera/pkg/storage/orm/api"
	"github.com/devbyt/Kundera/pkg/storage/orm/descriptor"

	"github.com/pkg/errors"
	"go.uber.org/atomic"
)

// NamedQueryEntry is one registered named query.
type NamedQueryEntry struct {
	Name   string
	Query  string
	Native bool
	// Class is the entity class declaring the query.
	Class descriptor.Class
}

// EntriesFor flattens the named-query directives of d: single named,
// named list, single native and native list, in that order.
func EntriesFor(d *descriptor.EntityDescriptor) []NamedQueryEntry {
	var out []NamedQueryEntry
	add := func(q descriptor.NamedQuery, native bool) {
		out = append(out, NamedQueryEntry{
			Name:   q.Name,
			Query:  q.Query,
			Native: native,
			Class:  d.Class,
		})
	}
	qs := d.Queries
	if qs.Named != nil {
		add(*qs.Named, false)
	}
	for _, q := range qs.NamedList {
		add(q, false)
	}
	if qs.Native != nil {
		add(*qs.Native, true)
	}
	for _, q := range qs.NativeList {
		add(q, true)
	}
	return out
}

// Registry maps query names to named-query entries.
type Registry struct {
	mu      sync.Mutex
	entries map[string]NamedQueryEntry
	frozen  atomic.Bool
}

var _global = NewRegistry()

// Global returns the process-wide registry.
func Global() *Registry {
	return _global
}

// NewRegistry returns an empty registry in the building phase.
func NewRegistry() *Registry {
	return &Registry{entries: map[string]NamedQueryEntry{}}
}

// Add registers one entry. Adding an entry identical to a registered one
// is a no-op; a different entry under a registered name fails with
// api.ErrDuplicateQuery.
func (r *Registry) Add(e NamedQueryEntry) error {
	return r.AddAll([]NamedQueryEntry{e})
}

// AddAll registers entries atomically: either all of them are registered
// or none is.
func (r *Registry) AddAll(entries []NamedQueryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	fresh, err := r.check(entries)
	if err != nil {
		return err
	}
	if len(fresh) > 0 && r.frozen.Load() {
		return errors.Wrapf(api.ErrFrozen, "named query %q", fresh[0].Name)
	}
	for _, e := range fresh {
		r.entries[e.Name] = e
	}
	return nil
}

// Check reports the error AddAll would return for entries, without
// registering anything.
func (r *Registry) Check(entries []NamedQueryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	fresh, err := r.check(entries)
	if err != nil {
		return err
	}
	if len(fresh) > 0 && r.frozen.Load() {
		return errors.Wrapf(api.ErrFrozen, "named query %q", fresh[0].Name)
	}
	return nil
}

// check returns the entries not registered yet.
func (r *Registry) check(entries []NamedQueryEntry) ([]NamedQueryEntry, error) {
	batch := make(map[string]NamedQueryEntry, len(entries))
	var fresh []NamedQueryEntry
	for _, e := range entries {
		if e.Name == "" {
			return nil, errors.Wrapf(api.ErrInvalidEntityDefinition,
				"named query without name on %s", e.Class)
		}
		old, ok := r.entries[e.Name]
		if !ok {
			old, ok = batch[e.Name]
		}
		if ok {
			if old != e {
				return nil, errors.Wrapf(api.ErrDuplicateQuery,
					"query %q declared by %s and %s", e.Name, old.Class, e.Class)
			}
			continue
		}
		batch[e.Name] = e
		fresh = append(fresh, e)
	}
	return fresh, nil
}

// Get returns the entry registered under name.
func (r *Registry) Get(name string) (NamedQueryEntry, bool) {
	if !r.frozen.Load() {
		r.mu.Lock()
		defer r.mu.Unlock()
	}
	e, ok := r.entries[name]
	return e, ok
}

// Entries returns every entry sorted by name.
func (r *Registry) Entries() []NamedQueryEntry {
	if !r.frozen.Load() {
		r.mu.Lock()
		defer r.mu.Unlock()
	}
	out := make([]NamedQueryEntry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Freeze ends the building phase. It cannot be undone.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen.Store(true)
}

// Frozen reports whether the registry is read-only.
func (r *Registry) Frozen() bool {
	return r.frozen.Load()
}
