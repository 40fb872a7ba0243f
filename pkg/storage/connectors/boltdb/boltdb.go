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
Package boltdb implements a wide-column store connector on an embedded
bolt database.

Every table is a bucket keyed by the encoded row key of the id column, so
bucket order is id order. Row values are msgpack documents compressed with
snappy. Scans read one page per read transaction and resume after the last
key of the previous page, so no transaction is held open between pages.
*/
package boltdb

import (
	"bytes"
	"context"
	"os"
	"time"

	"github.com/devbyt/Kundera/pkg/storage"
	"github.com/devbyt/Kundera/pkg/storage/orm"
	"github.com/devbyt/Kundera/pkg/storage/orm/descriptor"
	"github.com/devbyt/Kundera/pkg/storage/orm/entity"
	"github.com/devbyt/Kundera/pkg/storage/orm/keys"
	"github.com/devbyt/Kundera/pkg/storage/orm/metadata"
	"github.com/devbyt/Kundera/pkg/storage/orm/query"
	"github.com/devbyt/Kundera/pkg/storage/orm/scan"

	"github.com/boltdb/bolt"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/uber-go/tally/v4"
)

const (
	_defaultPageSize = 100
	_defaultTimeout  = time.Second
	_storeName       = "boltdb"
)

// Config is the configuration of the bolt connector
type Config struct {
	Path     string        `yaml:"path" validate:"nonzero"`
	NoSync   bool          `yaml:"no_sync"`
	ReadOnly bool          `yaml:"read_only"`
	Timeout  time.Duration `yaml:"timeout"`
	// PageSize is the scan page size used when the fetch size is 0.
	PageSize int `yaml:"page_size"`
}

// Connector stores tables in a bolt database. It is safe for concurrent
// use.
type Connector struct {
	db       *bolt.DB
	pageSize int
	metrics  *storage.StoreMetrics
}

// ensure that Connector satisfies the orm.Connector and the
// scan.RowReader interfaces
var (
	_ orm.Connector  = (*Connector)(nil)
	_ scan.RowReader = (*Connector)(nil)
)

// NewConnector opens the bolt database at cfg.Path.
func NewConnector(cfg *Config, scope tally.Scope) (*Connector, error) {
	if cfg == nil {
		return nil, errors.New("must provide config")
	}
	if cfg.Path == "" {
		return nil, os.ErrInvalid
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = _defaultTimeout
	}
	db, err := bolt.Open(cfg.Path, 0600, &bolt.Options{
		Timeout:  timeout,
		ReadOnly: cfg.ReadOnly,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", cfg.Path)
	}
	db.NoSync = cfg.NoSync

	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = _defaultPageSize
	}
	log.WithFields(log.Fields{
		"path":      cfg.Path,
		"read_only": cfg.ReadOnly,
	}).Info("bolt store opened")
	return &Connector{
		db:       db,
		pageSize: pageSize,
		metrics:  storage.NewStoreMetrics(scope, _storeName, nil),
	}, nil
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
	return c.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(table))
		if err != nil {
			return err
		}
		merged := entity.Row{}
		if v := b.Get(key); v != nil {
			old, err := decodeRow(v)
			if err != nil {
				return err
			}
			merged = old
		}
		for k, v := range row {
			merged[k] = v
		}
		value, err := encodeRow(merged)
		if err != nil {
			return err
		}
		return b.Put(key, value)
	})
}

// Find returns the row with the given id, or nil.
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
	err = c.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(table))
		if b == nil {
			return nil
		}
		v := b.Get(key)
		if v == nil {
			return nil
		}
		row, err = decodeRow(v)
		return err
	})
	return row, err
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
	err = c.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(table))
		if b == nil {
			return nil
		}
		return b.ForEach(func(_, v []byte) error {
			row, err := decodeRow(v)
			if err != nil {
				return err
			}
			if filter.Matches(row) {
				rows = append(rows, row)
			}
			return nil
		})
	})
	return rows, err
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
	return c.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(table))
		if b == nil {
			return nil
		}
		return b.Delete(key)
	})
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

	return c.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(table))
		if err != nil {
			return err
		}
		for _, target := range targetIDs {
			key, err := keys.JoinKey(ownerID, target)
			if err != nil {
				return errors.Wrapf(err, "row key of %s", table)
			}
			value, err := encodeRow(entity.Row{
				jt.JoinColumn:        ownerID,
				jt.InverseJoinColumn: target,
			})
			if err != nil {
				return err
			}
			if err := b.Put(key, value); err != nil {
				return err
			}
		}
		return nil
	})
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
	err = c.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(table))
		if b == nil {
			return nil
		}
		cur := b.Cursor()
		for k, v := cur.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = cur.Next() {
			row, err := decodeRow(v)
			if err != nil {
				return err
			}
			ids = append(ids, row[jt.InverseJoinColumn])
		}
		return nil
	})
	return ids, err
}

// Close closes the bolt database.
func (c *Connector) Close() error {
	return c.db.Close()
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
	c.metrics.SendCounters(req.Table, storage.OpScan, nil)
	return cur, nil
}

// cursor reads a bucket one page per read transaction.
type cursor struct {
	ctx      context.Context
	conn     *Connector
	table    string
	pageSize int

	start []byte
	end   []byte
	// after is the last key read.
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
	err = cur.conn.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(cur.table))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		var k, v []byte
		switch {
		case cur.after != nil:
			k, v = c.Seek(cur.after)
			if k != nil && bytes.Equal(k, cur.after) {
				k, v = c.Next()
			}
		case cur.start != nil:
			k, v = c.Seek(cur.start)
		default:
			k, v = c.First()
		}
		for ; k != nil && len(cur.page) < cur.pageSize; k, v = c.Next() {
			if cur.end != nil && bytes.Compare(k, cur.end) >= 0 {
				break
			}
			row, err := decodeRow(v)
			if err != nil {
				return err
			}
			cur.page = append(cur.page, row)
			// keys are only valid for the life of the transaction
			cur.after = append(cur.after[:0:0], k...)
		}
		return nil
	})
	if len(cur.page) < cur.pageSize {
		cur.done = true
	}
	return err
}

func (cur *cursor) Close() error {
	cur.page = nil
	cur.done = true
	return nil
}
