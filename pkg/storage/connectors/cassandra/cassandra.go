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
Package cassandra implements the store connector for Cassandra.

Entity tables have one CQL column per entity column, keyed by the id
column. Embedded records and element collections of records are stored as
JSON text columns. Scans page through the server with the fetch size as
the CQL page size.
*/
package cassandra

import (
	"context"
	"time"

	"github.com/devbyt/Kundera/pkg/common/logging"
	"github.com/devbyt/Kundera/pkg/storage"
	"github.com/devbyt/Kundera/pkg/storage/orm"
	"github.com/devbyt/Kundera/pkg/storage/orm/descriptor"
	"github.com/devbyt/Kundera/pkg/storage/orm/entity"
	"github.com/devbyt/Kundera/pkg/storage/orm/metadata"
	"github.com/devbyt/Kundera/pkg/storage/orm/metamodel"
	"github.com/devbyt/Kundera/pkg/storage/orm/scan"

	"github.com/gocql/gocql"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/uber-go/tally/v4"
	"go.uber.org/yarpc/yarpcerrors"
)

var _json = jsoniter.ConfigCompatibleWithStandardLibrary

type cassandraConnector struct {
	// Session is the gocql session created for this connector
	Session *gocql.Session
	metrics *storage.StoreMetrics

	// Conf is the Cassandra connector config for this cluster
	Conf *Config
}

// ensure that implementation (cassandraConnector) satisfies the interfaces
var (
	_ orm.Connector  = (*cassandraConnector)(nil)
	_ scan.RowReader = (*cassandraConnector)(nil)
)

// NewCassandraConnector initializes a Cassandra Connector
func NewCassandraConnector(
	config *Config,
	scope tally.Scope,
) (orm.Connector, error) {
	if config == nil || config.CassandraConn == nil {
		return nil, errors.New("must provide cassandra connection config")
	}
	session, err := CreateStoreSession(
		config.CassandraConn, config.StoreName)
	if err != nil {
		return nil, err
	}
	return &cassandraConnector{
		Session: session,
		metrics: storage.NewStoreMetrics(
			scope.SubScope("cql"), config.StoreName, getGocqlErrorTag),
		Conf: config,
	}, nil
}

// getGocqlErrorTag gets a error tag for metrics based on gocql error
// We cannot just use err.Error() as a tag because it contains invalid
// characters like = : etc. which will be rejected by M3
func getGocqlErrorTag(err error) string {
	if yarpcerrors.IsAlreadyExists(err) {
		return "already_exists"
	}
	if yarpcerrors.IsNotFound(err) {
		return "not_found"
	}
	switch errors.Cause(err).(type) {
	case *gocql.RequestErrReadFailure:
		return "read_failure"
	case *gocql.RequestErrWriteFailure:
		return "write_failure"
	case *gocql.RequestErrAlreadyExists:
		return "already_exists"
	case *gocql.RequestErrReadTimeout:
		return "read_timeout"
	case *gocql.RequestErrWriteTimeout:
		return "write_timeout"
	case *gocql.RequestErrUnavailable:
		return "unavailable"
	case *gocql.RequestErrFunctionFailure:
		return "function_failure"
	case *gocql.RequestErrUnprepared:
		return "unprepared"
	default:
		return "unknown"
	}
}

// nestedColumns returns the columns of m stored as JSON text.
func nestedColumns(m *metadata.EntityMetadata) map[string]bool {
	out := map[string]bool{}
	for _, a := range m.Attributes {
		switch {
		case a.Kind == metamodel.AttributeEmbedded:
			out[a.Column] = true
		case a.Kind == metamodel.AttributeElementCollection && !a.Type.Kind.IsBasic():
			out[a.Column] = true
		}
	}
	return out
}

// splitRow returns the column names of row and their CQL values in the
// same order. Nested values are encoded as JSON.
func splitRow(m *metadata.EntityMetadata, row entity.Row) (
	colNames []string, colValues []interface{}, err error) {
	nested := nestedColumns(m)
	for _, name := range row.Columns() {
		v := row[name]
		if nested[name] {
			b, err := _json.Marshal(v)
			if err != nil {
				return nil, nil, errors.Wrapf(err, "column %s", name)
			}
			v = string(b)
		}
		colNames = append(colNames, name)
		colValues = append(colValues, v)
	}
	return colNames, colValues, nil
}

// processDBData turns a row read from Cassandra into an entity row: uuids
// become strings and JSON columns are decoded.
func processDBData(
	m *metadata.EntityMetadata,
	result map[string]interface{},
) (entity.Row, error) {
	nested := nestedColumns(m)
	row := make(entity.Row, len(result))
	for k, v := range result {
		switch t := v.(type) {
		case gocql.UUID:
			v = t.String()
		case string:
			if nested[k] {
				if t == "" {
					v = nil
					break
				}
				var decoded interface{}
				if err := _json.UnmarshalFromString(t, &decoded); err != nil {
					return nil, errors.Wrapf(err, "column %s", k)
				}
				v = toNested(decoded)
			}
		}
		row[k] = v
	}
	return row, nil
}

func toNested(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		row := make(entity.Row, len(t))
		for k, e := range t {
			row[k] = toNested(e)
		}
		return row
	case []interface{}:
		for i := range t {
			t[i] = toNested(t[i])
		}
	}
	return v
}

// query builds a gocql query for stmt bound to values.
func (c *cassandraConnector) query(
	ctx context.Context,
	stmt string,
	values ...interface{},
) *gocql.Query {
	log.WithFields(log.Fields{
		logging.DBStmtLogField: stmt,
		logging.DBArgsLogField: values,
	}).Debug("cql statement")
	return c.Session.Query(stmt, values...).WithContext(ctx)
}

// NewHandle returns a store handle for one scan.
func (c *cassandraConnector) NewHandle() scan.StoreHandle {
	return scan.NewRowHandle(c)
}

// Persist upserts the columns of row.
func (c *cassandraConnector) Persist(
	ctx context.Context,
	m *metadata.EntityMetadata,
	row entity.Row,
) (err error) {
	table := m.QualifiedTableName()
	defer func(start time.Time) {
		c.metrics.Record(table, storage.OpPersist, start, err)
	}(time.Now())

	colNames, colValues, err := splitRow(m, row)
	if err != nil {
		return err
	}
	stmt, err := InsertStmt(
		Table(table),
		Columns(colNames),
		Values(colValues),
	)
	if err != nil {
		return err
	}
	return c.query(ctx, stmt, colValues...).Exec()
}

// selectRows runs a select statement and returns the processed rows.
func (c *cassandraConnector) selectRows(
	ctx context.Context,
	m *metadata.EntityMetadata,
	values []interface{},
	opts ...Option,
) ([]entity.Row, error) {
	stmt, err := SelectStmt(opts...)
	if err != nil {
		return nil, err
	}
	iter := c.query(ctx, stmt, values...).Iter()
	result, err := iter.SliceMap()
	if err != nil {
		return nil, errors.Wrap(err, "SliceMap failed")
	}
	rows := make([]entity.Row, 0, len(result))
	for _, r := range result {
		row, err := processDBData(m, r)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Find fetches a row by id
func (c *cassandraConnector) Find(
	ctx context.Context,
	m *metadata.EntityMetadata,
	id interface{},
) (row entity.Row, err error) {
	table := m.QualifiedTableName()
	defer func(start time.Time) {
		c.metrics.Record(table, storage.OpFind, start, err)
	}(time.Now())

	rows, err := c.selectRows(ctx, m, []interface{}{id},
		Table(table),
		Conditions([]string{m.IDAttribute.Column}),
		Limit(1),
	)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

// FindByColumn fetches the rows whose column equals value
func (c *cassandraConnector) FindByColumn(
	ctx context.Context,
	m *metadata.EntityMetadata,
	column string,
	value interface{},
) (rows []entity.Row, err error) {
	table := m.QualifiedTableName()
	defer func(start time.Time) {
		c.metrics.Record(table, storage.OpFindBy, start, err)
	}(time.Now())

	return c.selectRows(ctx, m, []interface{}{value},
		Table(table),
		Conditions([]string{column}),
		AllowFiltering(true),
	)
}

// Delete deletes a row by id
func (c *cassandraConnector) Delete(
	ctx context.Context,
	m *metadata.EntityMetadata,
	id interface{},
) (err error) {
	table := m.QualifiedTableName()
	defer func(start time.Time) {
		c.metrics.Record(table, storage.OpDelete, start, err)
	}(time.Now())

	stmt, err := DeleteStmt(
		Table(table),
		Conditions([]string{m.IDAttribute.Column}),
	)
	if err != nil {
		return err
	}
	return c.query(ctx, stmt, id).Exec()
}

// PersistJoinTable writes the join table rows of ownerID in one logged
// batch.
func (c *cassandraConnector) PersistJoinTable(
	ctx context.Context,
	jt *descriptor.JoinTable,
	ownerID interface{},
	targetIDs []interface{},
) (err error) {
	table := orm.JoinTableName(jt)
	defer func(start time.Time) {
		c.metrics.Record(table, storage.OpJoinWrite, start, err)
	}(time.Now())

	if len(targetIDs) == 0 {
		return nil
	}
	stmt, err := InsertStmt(
		Table(table),
		Columns([]string{jt.JoinColumn, jt.InverseJoinColumn}),
	)
	if err != nil {
		return err
	}
	batch := c.Session.NewBatch(gocql.LoggedBatch).WithContext(ctx)
	for _, target := range targetIDs {
		batch.Query(stmt, ownerID, target)
	}
	return c.Session.ExecuteBatch(batch)
}

// FindJoinTableIDs returns the target ids linked to ownerID
func (c *cassandraConnector) FindJoinTableIDs(
	ctx context.Context,
	jt *descriptor.JoinTable,
	ownerID interface{},
) (ids []interface{}, err error) {
	table := orm.JoinTableName(jt)
	defer func(start time.Time) {
		c.metrics.Record(table, storage.OpJoinRead, start, err)
	}(time.Now())

	stmt, err := SelectStmt(
		Table(table),
		Columns([]string{jt.InverseJoinColumn}),
		Conditions([]string{jt.JoinColumn}),
		AllowFiltering(true),
	)
	if err != nil {
		return nil, err
	}
	iter := c.query(ctx, stmt, ownerID).Iter()
	row := map[string]interface{}{}
	for iter.MapScan(row) {
		id := row[jt.InverseJoinColumn]
		if u, ok := id.(gocql.UUID); ok {
			id = u.String()
		}
		ids = append(ids, id)
		row = map[string]interface{}{}
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return ids, nil
}

// Close closes the session
func (c *cassandraConnector) Close() error {
	c.Session.Close()
	return nil
}

// scanOptions returns the select options of a read request.
func scanOptions(m *metadata.EntityMetadata, req scan.ReadRequest) (
	[]Option, []interface{}) {
	opts := []Option{Table(req.Table)}
	var values []interface{}
	switch {
	case req.RowKey != nil:
		opts = append(opts, Conditions([]string{m.IDAttribute.Column}))
		values = append(values, req.RowKey)
	default:
		opts = append(opts, Range(m.IDAttribute.Column,
			req.StartKey != nil, req.EndKey != nil))
		if req.StartKey != nil {
			values = append(values, req.StartKey)
		}
		if req.EndKey != nil {
			values = append(values, req.EndKey)
		}
	}
	return opts, values
}

// OpenCursor starts a paged select over a table.
func (c *cassandraConnector) OpenCursor(
	ctx context.Context,
	m *metadata.EntityMetadata,
	req scan.ReadRequest,
) (scan.RowCursor, error) {
	opts, values := scanOptions(m, req)
	stmt, err := SelectStmt(opts...)
	if err != nil {
		return nil, err
	}
	q := c.query(ctx, stmt, values...)
	if req.PageSize > 0 {
		q = q.PageSize(req.PageSize)
	}
	log.WithFields(log.Fields{
		"table":     req.Table,
		"page_size": req.PageSize,
	}).Debug("opening cql cursor")
	return &cqlCursor{
		iter:    q.Iter(),
		m:       m,
		table:   req.Table,
		metrics: c.metrics,
		start:   time.Now(),
	}, nil
}

// cqlCursor implements scan.RowCursor over a gocql iterator
type cqlCursor struct {
	iter    *gocql.Iter
	m       *metadata.EntityMetadata
	table   string
	metrics *storage.StoreMetrics
	start   time.Time
	closed  bool
}

func (cur *cqlCursor) Next() (entity.Row, error) {
	if cur.closed {
		return nil, nil
	}
	result := map[string]interface{}{}
	if cur.iter.MapScan(result) {
		return processDBData(cur.m, result)
	}
	// Either end-of-results or error
	err := cur.Close()
	return nil, err
}

func (cur *cqlCursor) Close() error {
	if cur.closed {
		return nil
	}
	cur.closed = true
	err := cur.iter.Close()
	cur.metrics.Record(cur.table, storage.OpScan, cur.start, err)
	return err
}
