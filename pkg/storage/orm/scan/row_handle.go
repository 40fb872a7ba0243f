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

	"github.com/devbyt/Kundera/pkg/storage/orm/accessor"
	"github.com/devbyt/Kundera/pkg/storage/orm/entity"
	"github.com/devbyt/Kundera/pkg/storage/orm/metadata"
	"github.com/devbyt/Kundera/pkg/storage/orm/query"

	log "github.com/sirupsen/logrus"
)

// ReadRequest describes one read of a table.
type ReadRequest struct {
	Table string
	// RowKey selects a single row when non-nil.
	RowKey interface{}
	// StartKey and EndKey bound the read to [StartKey, EndKey). Nil bounds
	// are open.
	StartKey interface{}
	EndKey   interface{}
	// PageSize is the number of rows fetched per round trip, 0 for the
	// store default.
	PageSize int
}

// RowCursor iterates the rows of one read in row key order.
type RowCursor interface {
	// Next returns the next row, or nil at the end of the read.
	Next() (entity.Row, error)
	// Close releases the cursor.
	Close() error
}

// RowReader opens row cursors. Store adapters implement it and get a
// StoreHandle from NewRowHandle.
type RowReader interface {
	OpenCursor(
		ctx context.Context,
		m *metadata.EntityMetadata,
		req ReadRequest,
	) (RowCursor, error)
}

// rowHandle adapts a RowReader to StoreHandle. It evaluates the filter on
// each row, applies the projection and hydrates the rows.
type rowHandle struct {
	reader   RowReader
	pageSize int

	table    string
	filter   query.Filter
	cursor   RowCursor
	buffered entity.Row
	err      error
}

// ensure that rowHandle satisfies the StoreHandle interface
var _ StoreHandle = (*rowHandle)(nil)

// NewRowHandle returns a StoreHandle reading rows through reader.
func NewRowHandle(reader RowReader) StoreHandle {
	return &rowHandle{reader: reader}
}

func (h *rowHandle) SetFetchSize(n int) {
	h.pageSize = n
}

func (h *rowHandle) ReadData(
	ctx context.Context,
	table string,
	m *metadata.EntityMetadata,
	rowKey interface{},
	startKey interface{},
	endKey interface{},
	columns []map[string]string,
	filter query.Filter,
) error {
	h.closeCursor()
	cursor, err := h.reader.OpenCursor(ctx, m, ReadRequest{
		Table:    table,
		RowKey:   rowKey,
		StartKey: startKey,
		EndKey:   endKey,
		PageSize: h.pageSize,
	})
	if err != nil {
		return err
	}
	h.table = table
	h.filter = filter
	h.cursor = cursor
	return nil
}

// HasNext buffers the next matching row. A read failure is reported as an
// unread row so that Next can return it.
func (h *rowHandle) HasNext() bool {
	if h.buffered != nil || h.err != nil {
		return true
	}
	if h.cursor == nil {
		return false
	}
	for {
		row, err := h.cursor.Next()
		if err != nil {
			h.err = err
			return true
		}
		if row == nil {
			return false
		}
		if h.filter == nil || h.filter.Matches(row) {
			h.buffered = row
			return true
		}
	}
}

func (h *rowHandle) Next(
	m *metadata.EntityMetadata,
	columns []map[string]string,
) (interface{}, error) {
	if !h.HasNext() {
		return nil, nil
	}
	if err := h.err; err != nil {
		h.err = nil
		return nil, err
	}
	row := h.buffered
	h.buffered = nil

	if names := query.ColumnNames(m.Table, columns); len(names) > 0 {
		// the id and the foreign keys are always read
		names = append(names, m.IDAttribute.Column)
		for _, r := range m.Relations {
			if r.Kind == metadata.ToOneOwning {
				names = append(names, r.JoinColumn)
			}
		}
		row = query.Project(row, names)
	}

	e, fks, err := accessor.Hydrate(m, row)
	if err != nil {
		log.WithError(err).
			WithField("table", h.table).
			Warn("skipping row that failed hydration")
		return nil, err
	}
	id, err := accessor.ID(m, e)
	if err != nil {
		id = row[m.IDAttribute.Column]
	}
	return entity.NewEnhancedEntity(e, id, fks), nil
}

func (h *rowHandle) Reset() {
	h.closeCursor()
	h.filter = nil
	h.err = nil
}

func (h *rowHandle) closeCursor() {
	h.buffered = nil
	if h.cursor == nil {
		return
	}
	if err := h.cursor.Close(); err != nil {
		log.WithError(err).
			WithField("table", h.table).
			Warn("failed to close row cursor")
	}
	h.cursor = nil
}
