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
Package scan turns translated scan descriptors into physical scans against
a store handle.

A Coordinator runs one scan: a key range, or one point read per row key
when the descriptor carries row keys. It exposes a pull based cursor with
an explicit, idempotent Reset. A Coordinator is single-threaded.
*/
package scan

import (
	"context"

	"github.com/devbyt/Kundera/pkg/storage/orm/api"
	"github.com/devbyt/Kundera/pkg/storage/orm/metadata"
	"github.com/devbyt/Kundera/pkg/storage/orm/query"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/uber-go/tally/v4"
)

// Coordinator drives a scan over a store handle.
type Coordinator struct {
	handle  StoreHandle
	metrics *Metrics

	ctx   context.Context
	table string
	m     *metadata.EntityMetadata
	desc  *query.ScanDescriptor

	// pending holds the row keys still to be read in point mode.
	pending []interface{}
	opened  bool
	done    bool
	err     error
	// undelivered is set while a point read failure awaits Next.
	undelivered bool
}

// NewCoordinator returns a coordinator scanning through handle.
func NewCoordinator(handle StoreHandle, scope tally.Scope) *Coordinator {
	return &Coordinator{
		handle:  handle,
		metrics: NewMetrics(scope),
	}
}

// Open begins the scan of table described by desc. A nil desc scans the
// whole table. Store failures are returned as *api.PersistenceError.
func (c *Coordinator) Open(
	ctx context.Context,
	table string,
	m *metadata.EntityMetadata,
	desc *query.ScanDescriptor,
) error {
	if c.opened {
		return errors.Errorf("scan of %s already open", c.table)
	}
	if desc == nil {
		desc = &query.ScanDescriptor{}
	}
	c.ctx = ctx
	c.table = table
	c.m = m
	c.desc = desc
	c.opened = true

	var err error
	if len(desc.RowKeys) > 0 {
		c.pending = append([]interface{}(nil), desc.RowKeys...)
		err = c.readNextKey()
	} else {
		err = c.handle.ReadData(ctx, table, m, nil,
			desc.StartRow, desc.EndRow, desc.Columns, desc.Filter)
	}
	if err != nil {
		c.metrics.ScanOpenFail.Inc(1)
		log.WithError(err).
			WithField("table", table).
			Error("failed to open scan")
		c.err = api.NewPersistenceError("open", table, err)
		c.Reset()
		return c.err
	}
	c.metrics.ScanOpen.Inc(1)
	log.WithFields(log.Fields{
		"table":     table,
		"start_row": desc.StartRow,
		"end_row":   desc.EndRow,
		"row_keys":  len(desc.RowKeys),
	}).Debug("scan opened")
	return nil
}

func (c *Coordinator) readNextKey() error {
	key := c.pending[0]
	c.pending = c.pending[1:]
	return c.handle.ReadData(c.ctx, c.table, c.m, key,
		nil, nil, c.desc.Columns, c.desc.Filter)
}

// HasNext reports whether an unread row is buffered or the server cursor
// is live. A failed point read counts as an unread row so that the next
// call to Next returns the failure.
func (c *Coordinator) HasNext() bool {
	if c.undelivered {
		return true
	}
	if !c.opened || c.done {
		return false
	}
	for !c.handle.HasNext() {
		if len(c.pending) == 0 {
			return false
		}
		if err := c.readNextKey(); err != nil {
			c.fail("read", err)
			c.undelivered = true
			return true
		}
	}
	return true
}

// Next returns the next hydrated entity, or nil when the scan is
// exhausted. Hydration failures are returned unchanged and leave the scan
// open; any other failure ends the scan and is returned as
// *api.PersistenceError.
func (c *Coordinator) Next(
	m *metadata.EntityMetadata,
	columns []map[string]string,
) (interface{}, error) {
	if !c.HasNext() {
		return nil, c.err
	}
	if c.undelivered {
		c.undelivered = false
		return nil, c.err
	}
	e, err := c.handle.Next(m, columns)
	if err != nil {
		if errors.Is(err, api.ErrHydration) {
			return nil, err
		}
		return nil, c.fail("next", err)
	}
	c.metrics.ScanRows.Inc(1)
	return e, nil
}

func (c *Coordinator) fail(op string, err error) error {
	c.metrics.ScanNextFail.Inc(1)
	log.WithError(err).
		WithFields(log.Fields{"table": c.table, "op": op}).
		Error("scan failed")
	c.err = api.NewPersistenceError(op, c.table, err)
	c.Reset()
	return c.err
}

// Reset releases the server-side cursor. Calling it more than once has no
// further effect.
func (c *Coordinator) Reset() {
	if c.done {
		return
	}
	c.done = true
	c.pending = nil
	c.handle.Reset()
	c.metrics.ScanReset.Inc(1)
	log.WithField("table", c.table).Debug("scan reset")
}

// Done reports whether the scan was released.
func (c *Coordinator) Done() bool {
	return c.done
}

// Err returns the failure that ended the scan, if any.
func (c *Coordinator) Err() error {
	return c.err
}
