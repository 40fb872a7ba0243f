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

package iterator

import (
	"context"

	"github.com/devbyt/Kundera/pkg/storage/orm/descriptor"
	"github.com/devbyt/Kundera/pkg/storage/orm/entity"
	"github.com/devbyt/Kundera/pkg/storage/orm/metadata"
)

// Delegator gives relation resolution access to the stores of every
// entity class.
type Delegator interface {
	// Reader returns the reader resolving entity relations.
	Reader() EntityReader

	// EntityMetadata returns the compiled metadata of a class.
	EntityMetadata(class descriptor.Class) (*metadata.EntityMetadata, error)

	// Find loads the entity of m with the given id. It returns nil when no
	// such entity exists, or an *entity.EnhancedEntity when the row
	// carries foreign keys.
	Find(ctx context.Context, m *metadata.EntityMetadata, id interface{}) (interface{}, error)

	// FindByColumn loads the entities of m whose column equals value.
	FindByColumn(
		ctx context.Context,
		m *metadata.EntityMetadata,
		column string,
		value interface{},
	) ([]interface{}, error)

	// FindJoinTableIDs returns the inverse join column values of the join
	// table rows whose join column equals ownerID.
	FindJoinTableIDs(
		ctx context.Context,
		jt *descriptor.JoinTable,
		ownerID interface{},
	) ([]interface{}, error)
}

// EntityReader resolves the relations of hydrated entities.
type EntityReader interface {
	// RecursivelyFindEntities sets the related entities of e and of the
	// entities it reaches. relations holds the foreign keys read with e,
	// keyed by join column. When lazy is set only eager relations are
	// resolved. seen maps already loaded entities and breaks cycles.
	RecursivelyFindEntities(
		ctx context.Context,
		e interface{},
		relations map[string]interface{},
		m *metadata.EntityMetadata,
		d Delegator,
		lazy bool,
		seen map[entity.Key]interface{},
	) (interface{}, error)
}
