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
Package api holds the error kinds and the iterator contract shared by the
metadata compiler, the scan coordinator and the result iterator.

Errors are returned wrapped with context (github.com/pkg/errors). Callers
check the kind with errors.Is, for example:

	if errors.Is(err, api.ErrDuplicateQuery) {
		...
	}
*/
package api

import (
	"errors"
	"fmt"
)

// Public error kinds
var (
	// ErrInvalidEntityDefinition means an entity lacks an id attribute, has
	// conflicting directives or is otherwise malformed.
	ErrInvalidEntityDefinition = errors.New("invalid entity definition")

	// ErrInvalidRelation means a relation directive is malformed, for example
	// a many-to-many relation without a join table.
	ErrInvalidRelation = errors.New("invalid relation")

	// ErrMetamodelLoad is matched by every MetamodelLoadError.
	ErrMetamodelLoad = errors.New("metamodel load failure")

	// ErrDuplicateQuery means two named queries were registered under the
	// same name.
	ErrDuplicateQuery = errors.New("duplicate query")

	// ErrPersistence is matched by every PersistenceError.
	ErrPersistence = errors.New("persistence error")

	// ErrHydration means a store row could not be turned into an entity.
	// It does not end a scan.
	ErrHydration = errors.New("hydration failure")

	// ErrNoSuchElement is returned when an iterator is consumed beyond its
	// bounds.
	ErrNoSuchElement = errors.New("no such element")

	// ErrUnsupportedOperation is returned for mutation calls on an iterator.
	ErrUnsupportedOperation = errors.New("unsupported operation")

	// ErrFrozen is returned for writes to a registry or metamodel after it
	// was frozen.
	ErrFrozen = errors.New("frozen after bootstrap")
)

// MetamodelLoadError wraps a failure raised by a relation processor while
// compiling the metadata of an entity.
type MetamodelLoadError struct {
	Class     string
	Attribute string
	Cause     error
}

func (e *MetamodelLoadError) Error() string {
	return fmt.Sprintf("error with relationship in entity(%s.%s), reason: %v",
		e.Class, e.Attribute, e.Cause)
}

// Unwrap returns the relation processor failure.
func (e *MetamodelLoadError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is ErrMetamodelLoad.
func (e *MetamodelLoadError) Is(target error) bool {
	return target == ErrMetamodelLoad
}

// PersistenceError is an I/O or store level failure during a scan.
type PersistenceError struct {
	// Op names the store operation that failed, e.g. "open" or "next".
	Op    string
	Table string
	Cause error
}

// NewPersistenceError wraps cause as a persistence error.
func NewPersistenceError(op, table string, cause error) *PersistenceError {
	return &PersistenceError{Op: op, Table: table, Cause: cause}
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("error in connecting to database or some network "+
		"problem during %s on %s. Caused by: %v", e.Op, e.Table, e.Cause)
}

// Unwrap returns the store failure.
func (e *PersistenceError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is ErrPersistence.
func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}
