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

package orm

import (
	"context"

	"github.com/devbyt/Kundera/pkg/storage/orm/descriptor"
	"github.com/devbyt/Kundera/pkg/storage/orm/entity"
	"github.com/devbyt/Kundera/pkg/storage/orm/metadata"
	"github.com/devbyt/Kundera/pkg/storage/orm/scan"
)

// Connector is the interface that must be implemented for a backend store
type Connector interface {
	// NewHandle returns a store handle for one scan
	NewHandle() scan.StoreHandle

	// Persist writes the columns of row to the row of the entity table of m
	// keyed by the id column. Columns not in row are left unchanged.
	Persist(ctx context.Context, m *metadata.EntityMetadata, row entity.Row) error

	// Find fetches a row by id. It returns nil when there is no such row.
	Find(ctx context.Context, m *metadata.EntityMetadata, id interface{}) (entity.Row, error)

	// FindByColumn fetches the rows whose column equals value
	FindByColumn(
		ctx context.Context,
		m *metadata.EntityMetadata,
		column string,
		value interface{},
	) ([]entity.Row, error)

	// Delete deletes a row by id
	Delete(ctx context.Context, m *metadata.EntityMetadata, id interface{}) error

	// PersistJoinTable writes one join table row per target id
	PersistJoinTable(
		ctx context.Context,
		jt *descriptor.JoinTable,
		ownerID interface{},
		targetIDs []interface{},
	) error

	// FindJoinTableIDs returns the target ids linked to ownerID
	FindJoinTableIDs(
		ctx context.Context,
		jt *descriptor.JoinTable,
		ownerID interface{},
	) ([]interface{}, error)

	// Close releases the store
	Close() error
}

// JoinTableName returns the qualified name of a join table.
func JoinTableName(jt *descriptor.JoinTable) string {
	if jt.Schema == "" {
		return jt.Name
	}
	return jt.Schema + "." + jt.Name
}
