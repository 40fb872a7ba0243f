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

package scan

import (
	"context"

	"github.com/devbyt/Kundera/pkg/storage/orm/metadata"
	"github.com/devbyt/Kundera/pkg/storage/orm/query"
)

// StoreHandle is the scan cursor of a store adapter. A handle serves one
// scan at a time and is not safe for concurrent use.
type StoreHandle interface {
	// SetFetchSize bounds the rows the handle fetches per round trip.
	SetFetchSize(n int)

	// ReadData starts a scan of table. A non-nil rowKey reads that single
	// row; otherwise the scan covers [startKey, endKey), nil bounds being
	// open. Rows not matching filter are skipped.
	ReadData(
		ctx context.Context,
		table string,
		m *metadata.EntityMetadata,
		rowKey interface{},
		startKey interface{},
		endKey interface{},
		columns []map[string]string,
		filter query.Filter,
	) error

	// HasNext reports whether the scan has an unread row.
	HasNext() bool

	// Next returns the next row hydrated into an entity, or an
	// *entity.EnhancedEntity carrying the foreign keys found in the row.
	// Hydration failures match api.ErrHydration; other failures end the
	// scan.
	Next(m *metadata.EntityMetadata, columns []map[string]string) (interface{}, error)

	// Reset releases the scan.
	Reset()
}
