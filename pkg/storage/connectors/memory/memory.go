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
Package memory implements an in-memory wide-column store connector.

Every table is a btree ordered by the encoded row key of the id column,
so range scans return rows in id order. Scans read one page of rows per
round trip under the store read lock and resume after the last key read,
which lets writers interleave with long scans.
*/
package memory

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/devbyt/Kundera/pkg/storage"
	"github.com/devbyt/Kundera/pkg/storage/orm"
	"github.com/devbyt/Kundera/pkg/storage/orm/descriptor"
	"github.com/devbyt/Kundera/pkg/storage/orm/entity"
	"github.com/devbyt/Kundera/pkg/storage/orm/keys"
	"github.com/devbyt/Kundera/pkg/storage/orm/metadata"
	"github.com/devbyt/Kundera/pkg/storage/orm/query"
	"github.com/devbyt/Kundera/pkg/storage/orm/scan"

	"github.com/google/btree"
	"github.com/pkg/errors"
	"github.com/uber-go/tally/v4"
)

const (
	_defaultDegree   = 16
	_defaultPageSize = 100
	_storeName       = "memory"
)

// ErrClosed is returned by operations on a closed connector.
var ErrClosed = errors.New("memory store closed")

// Config is the configuration of the memory connector
type Config struct {
	// Degree is the btree degree of every table.
	Degree int `yaml:"degree"`
	// PageSize is the scan page size used when the fetch size is 0.
	PageSize int `yaml:"page_size"`
}

type item struct {
	key []byte
	row entity.Row
}

func (i *item) Less(than btree.Item) bool {
	return bytes.Compare(i.key, than.(*item).key) < 0
}

// Connector is an in-memory store. It is safe for concurrent use.
type Connector struct {
	sync.RWMutex

	degree   int
	pageSize int
	tables   map[string]*btree.BTree
	closed   bool
	metrics  *storage.StoreMetrics
}

// ensure that Connector satisfies the orm.Connector and the
// scan.RowReader interfaces
var (
	_ orm.Connector  = (*Connector)(nil)
	_ scan.RowReader = (*Connector)(nil)
)

// NewConnector returns an empty memory store.
func NewConnector(cfg Config, scope tally.Scope) *Connector {
	if cfg.Degree <= 1 {
		cfg.Degree = _defaultDegree
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = _defaultPageSize
	}
	return &Connector{
		degree:   cfg.Degree,
		pageSize: cfg.PageSize,
		tables:   make(map[string]*btree.BTree),
		metrics:  storage.NewStoreMetrics(scope, _storeName, nil),
	}
}

// table returns the tree of name, creating it when create is set. The
// caller holds the lock.
func (c *Connector) table(name string, create bool) *btree.BTree {
	t, ok := c.tables[name]
	if !ok && create {
		t = btree.New(c.degree)
		c.tables[name] = t
	}
	return t
}

// NewHandle returns a store handle for one scan.
func (c *Connector) NewHandle() scan.StoreHandle {
	return scan.NewRowHandle(c)
}

// Persist merges row into the stored row with the same id.
func (c *Connector) Persist(
	ctx context.Context,
	m *metadata.EntityMetadata,
	row entity.Row,
) (err error) {
	table := m.QualifiedTableName()
	defer func(start time.Time) {
		c.metrics.Record(table, storage.OpPersist, start, err)
	}(time.Now())

	key, err := keys.Encode(row[m.IDAttribute.Column])
	if err != nil {
		return errors.Wrapf(err, "row key of %s", table)
	}

	c.Lock()
	defer c.Unlock()
	if c.closed {
		return ErrClosed
	}
	t := c.table(table, true)
	merged := entity.Row{}
	if old := t.Get(&item{key: key}); old != nil {
		for k, v := range old.(*item).row {
			merged[k] = v
		}
	}
	for k, v := range row {
		merged[k] = v
	}
	t.ReplaceOrInsert(&item{key: key, row: merged})
	return nil
}

// Find returns a copy of the row with the given id, or nil.
func (c *Connector) Find(
	ctx context.Context,
	m *metadata.EntityMetadata,
	id interface{},
) (row entity.Row, err error) {
	table := m.QualifiedTableName()
	defer func(start time.Time) {
		c.metrics.Record(table, storage.OpFind, start, err)
	}(time.Now())

	key, err := keys.Encode(id)
	if err != nil {
		return nil, errors.Wrapf(err, "row key of %s", table)
	}
	c.RLock()
	defer c.RUnlock()
	if c.closed {
		return nil, ErrClosed
	}
	t := c.table(table, false)
	if t == nil {
		return nil, nil
	}
	if it := t.Get(&item{key: key}); it != nil {
		return copyRow(it.(*item).row), nil
	}
	return nil, nil
}

// FindByColumn returns the rows whose column equals value, in id order.
func (c *Connector) FindByColumn(
	ctx context.Context,
	m *metadata.EntityMetadata,
	column string,
	value interface{},
) (rows []entity.Row, err error) {
	table := m.QualifiedTableName()
	defer func(start time.Time) {
		c.metrics.Record(table, storage.OpFindBy, start, err)
	}(time.Now())

	filter := &query.Compare{Column: column, Op: query.Equal, Value: value}
	c.RLock()
	defer c.RUnlock()
	if c.closed {
		return nil, ErrClosed
	}
	t := c.table(table, false)
	if t == nil {
		return nil, nil
	}
	t.Ascend(func(i btree.Item) bool {
		if row := i.(*item).row; filter.Matches(row) {
			rows = append(rows, copyRow(row))
		}
		return true
	})
	return rows, nil
}

// Delete removes the row with the given id.
func (c *Connector) Delete(
	ctx context.Context,
	m *metadata.EntityMetadata,
	id interface{},
) (err error) {
	table := m.QualifiedTableName()
	defer func(start time.Time) {
		c.metrics.Record(table, storage.OpDelete, start, err)
	}(time.Now())

	key, err := keys.Encode(id)
	if err != nil {
		return errors.Wrapf(err, "row key of %s", table)
	}
	c.Lock()
	defer c.Unlock()
	if c.closed {
		return ErrClosed
	}
	if t := c.table(table, false); t != nil {
		t.Delete(&item{key: key})
	}
	return nil
}

// PersistJoinTable writes the join table rows of ownerID.
func (c *Connector) PersistJoinTable(
	ctx context.Context,
	jt *descriptor.JoinTable,
	ownerID interface{},
	targetIDs []interface{},
) (err error) {
	table := orm.JoinTableName(jt)
	defer func(start time.Time) {
		c.metrics.Record(table, storage.OpJoinWrite, start, err)
	}(time.Now())

	items := make([]*item, 0, len(targetIDs))
	for _, target := range targetIDs {
		key, err := keys.JoinKey(ownerID, target)
		if err != nil {
			return errors.Wrapf(err, "row key of %s", table)
		}
		items = append(items, &item{key: key, row: entity.Row{
			jt.JoinColumn:        ownerID,
			jt.InverseJoinColumn: target,
		}})
	}

	c.Lock()
	defer c.Unlock()
	if c.closed {
		return ErrClosed
	}
	t := c.table(table, true)
	for _, it := range items {
		t.ReplaceOrInsert(it)
	}
	return nil
}

// FindJoinTableIDs returns the target ids linked to ownerID in key order.
func (c *Connector) FindJoinTableIDs(
	ctx context.Context,
	jt *descriptor.JoinTable,
	ownerID interface{},
) (ids []interface{}, err error) {
	table := orm.JoinTableName(jt)
	defer func(start time.Time) {
		c.metrics.Record(table, storage.OpJoinRead, start, err)
	}(time.Now())

	prefix, err := keys.JoinPrefix(ownerID)
	if err != nil {
		return nil, errors.Wrapf(err, "row key of %s", table)
	}
	c.RLock()
	defer c.RUnlock()
	if c.closed {
		return nil, ErrClosed
	}
	t := c.table(table, false)
	if t == nil {
		return nil, nil
	}
	collect := func(i btree.Item) bool {
		ids = append(ids, i.(*item).row[jt.InverseJoinColumn])
		return true
	}
	if end := keys.PrefixEnd(prefix); end != nil {
		t.AscendRange(&item{key: prefix}, &item{key: end}, collect)
	} else {
		t.AscendGreaterOrEqual(&item{key: prefix}, collect)
	}
	return ids, nil
}

// Close drops every table.
func (c *Connector) Close() error {
	c.Lock()
	defer c.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.closed = true
	c.tables = nil
	return nil
}

// OpenCursor opens a paged cursor over a table.
func (c *Connector) OpenCursor(
	ctx context.Context,
	m *metadata.EntityMetadata,
	req scan.ReadRequest,
) (scan.RowCursor, error) {
	cur := &cursor{
		ctx:      ctx,
		conn:     c,
		table:    req.Table,
		pageSize: req.PageSize,
	}
	if cur.pageSize <= 0 {
		cur.pageSize = c.pageSize
	}

	var err error
	switch {
	case req.RowKey != nil:
		if cur.start, err = keys.Encode(req.RowKey); err != nil {
			return nil, err
		}
		cur.end = append(append([]byte(nil), cur.start...), 0)
	default:
		if req.StartKey != nil {
			if cur.start, err = keys.Encode(req.StartKey); err != nil {
				return nil, err
			}
		}
		if req.EndKey != nil {
			if cur.end, err = keys.Encode(req.EndKey); err != nil {
				return nil, err
			}
		}
	}

	c.RLock()
	defer c.RUnlock()
	if c.closed {
		return nil, ErrClosed
	}
	c.metrics.SendCounters(req.Table, storage.OpScan, nil)
	return cur, nil
}

// cursor reads a table one page at a time.
type cursor struct {
	ctx      context.Context
	conn     *Connector
	table    string
	pageSize int

	// start is the inclusive lower bound of the next page, end the
	// exclusive upper bound of the read. Nil bounds are open.
	start []byte
	end   []byte
	// after is set once a page was read and excludes its last key.
	after []byte

	page []entity.Row
	done bool
}

func (cur *cursor) Next() (entity.Row, error) {
	if len(cur.page) == 0 && !cur.done {
		if err := cur.fetch(); err != nil {
			return nil, err
		}
	}
	if len(cur.page) == 0 {
		return nil, nil
	}
	row := cur.page[0]
	cur.page = cur.page[1:]
	return row, nil
}

func (cur *cursor) fetch() (err error) {
	defer func(start time.Time) {
		cur.conn.metrics.Record(cur.table, storage.OpScanPage, start, err)
	}(time.Now())

	if err := cur.ctx.Err(); err != nil {
		return err
	}
	cur.conn.RLock()
	defer cur.conn.RUnlock()
	if cur.conn.closed {
		return ErrClosed
	}
	t := cur.conn.table(cur.table, false)
	if t == nil {
		cur.done = true
		return nil
	}

	from := cur.start
	if cur.after != nil {
		from = cur.after
	}
	visit := func(i btree.Item) bool {
		it := i.(*item)
		if cur.after != nil && bytes.Equal(it.key, cur.after) {
			return true
		}
		cur.page = append(cur.page, copyRow(it.row))
		cur.after = it.key
		return len(cur.page) < cur.pageSize
	}
	switch {
	case from == nil && cur.end == nil:
		t.Ascend(visit)
	case from == nil:
		t.AscendLessThan(&item{key: cur.end}, visit)
	case cur.end == nil:
		t.AscendGreaterOrEqual(&item{key: from}, visit)
	default:
		t.AscendRange(&item{key: from}, &item{key: cur.end}, visit)
	}
	if len(cur.page) < cur.pageSize {
		cur.done = true
	}
	return nil
}

func (cur *cursor) Close() error {
	cur.page = nil
	cur.done = true
	return nil
}

// copyRow copies the top level of a row and of its nested rows.
func copyRow(row entity.Row) entity.Row {
	out := make(entity.Row, len(row))
	for k, v := range row {
		if nested, ok := entity.AsRow(v); ok {
			v = copyRow(nested)
		}
		out[k] = v
	}
	return out
}
