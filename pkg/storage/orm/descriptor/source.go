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
	"reflect"
	"sync"

	"github.com/devbyt/Kundera/pkg/storage/orm/entity"

	"github.com/pkg/errors"
	"go.uber.org/yarpc/yarpcerrors"
)

// Source gives the compiler access to entity descriptors.
type Source interface {
	// Descriptor returns the descriptor of a class.
	Descriptor(class Class) (*EntityDescriptor, error)
}

// Registry is a Source populated by registration calls, typically one per
// entity type during application startup.
type Registry struct {
	sync.RWMutex
	byClass map[Class]*EntityDescriptor
	byType  map[reflect.Type]Class
}

// ensure that Registry satisfies the Source interface
var _ Source = (*Registry)(nil)

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byClass: make(map[Class]*EntityDescriptor),
		byType:  make(map[reflect.Type]Class),
	}
}

// Register adds a descriptor together with its supertypes and embeddables.
// Registering a class twice keeps the first descriptor.
func (r *Registry) Register(d *EntityDescriptor) error {
	if d == nil || d.Class == "" {
		return errors.New("descriptor without class")
	}
	r.Lock()
	defer r.Unlock()
	r.register(d)
	return nil
}

func (r *Registry) register(d *EntityDescriptor) {
	if _, ok := r.byClass[d.Class]; ok {
		return
	}
	r.byClass[d.Class] = d
	if d.GoType != nil {
		r.byType[d.GoType] = d.Class
	}
	if d.Supertype != nil {
		r.register(d.Supertype)
	}
	for _, a := range d.Attributes {
		if a.Type.Embeddable != nil {
			r.register(a.Type.Embeddable)
		}
	}
}

// RegisterObject parses the struct tags of obj and registers the resulting
// descriptor.
func (r *Registry) RegisterObject(obj interface{}) (*EntityDescriptor, error) {
	d, err := FromStruct(obj)
	if err != nil {
		return nil, err
	}
	if err := r.Register(d); err != nil {
		return nil, err
	}
	return r.Descriptor(d.Class)
}

// Descriptor returns the descriptor of a class.
func (r *Registry) Descriptor(class Class) (*EntityDescriptor, error) {
	r.RLock()
	defer r.RUnlock()
	d, ok := r.byClass[class]
	if !ok {
		return nil, yarpcerrors.NotFoundErrorf(
			"descriptor not found for class: %q", class)
	}
	return d, nil
}

// ClassOf returns the class of an entity instance.
func (r *Registry) ClassOf(e interface{}) (Class, error) {
	switch v := e.(type) {
	case *entity.Record:
		return Class(v.Class), nil
	case *entity.EnhancedEntity:
		return r.ClassOf(v.Entity)
	}
	t := reflect.TypeOf(e)
	if t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	r.RLock()
	defer r.RUnlock()
	class, ok := r.byType[t]
	if !ok {
		return "", yarpcerrors.NotFoundErrorf(
			"entity type not registered: %v", t)
	}
	return class, nil
}

// Classes returns every registered class.
func (r *Registry) Classes() []Class {
	r.RLock()
	defer r.RUnlock()
	classes := make([]Class, 0, len(r.byClass))
	for c := range r.byClass {
		classes = append(classes, c)
	}
	return classes
}
