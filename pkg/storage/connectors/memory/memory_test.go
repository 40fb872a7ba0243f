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

package memory_test

import (
	"context"
	"testing"

	"github.com/devbyt/Kundera/pkg/storage/connectors/memory"
	"github.com/devbyt/Kundera/pkg/storage/orm/descriptor"
	"github.com/devbyt/Kundera/pkg/storage/orm/entity"
	"github.com/devbyt/Kundera/pkg/storage/orm/iterator"
	"github.com/devbyt/Kundera/pkg/storage/orm/metadata"
	"github.com/devbyt/Kundera/pkg/storage/orm/processor"
	"github.com/devbyt/Kundera/pkg/storage/orm/query"
	"github.com/devbyt/Kundera/pkg/storage/orm/scan"
	"github.com/devbyt/Kundera/pkg/storage/orm/testutil"

	"github.com/stretchr/testify/suite"
	"github.com/uber-go/tally/v4"
)

type MemoryConnectorTestSuite struct {
	suite.Suite

	ctx    context.Context
	app    *metadata.ApplicationMetadata
	person *metadata.EntityMetadata
	scope  tally.TestScope
	conn   *memory.Connector
}

func TestMemoryConnectorTestSuite(t *testing.T) {
	suite.Run(t, new(MemoryConnectorTestSuite))
}

func (suite *MemoryConnectorTestSuite) SetupSuite() {
	reg, err := testutil.NewRegistry()
	suite.Require().NoError(err)
	suite.app = metadata.NewApplicationMetadata()
	_, err = processor.CompileUnit(
		reg,
		processor.UnitProperties{Name: testutil.Unit},
		processor.EntitiesOfUnit(reg, testutil.Unit),
		suite.app,
		query.NewRegistry(),
	)
	suite.Require().NoError(err)
	suite.person, err = suite.app.EntityMetadata(
		testutil.Unit, testutil.ClassOf(&testutil.Person{}))
	suite.Require().NoError(err)
}

func (suite *MemoryConnectorTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.scope = tally.NewTestScope("", nil)
	suite.conn = memory.NewConnector(memory.Config{Degree: 2, PageSize: 2}, suite.scope)
}

func (suite *MemoryConnectorTestSuite) persistPeople(n int) {
	for i := 1; i <= n; i++ {
		suite.Require().NoError(suite.conn.Persist(suite.ctx, suite.person, entity.Row{
			"ID":   int64(i),
			"Name": "p",
			"Age":  int32(20 + i),
		}))
	}
}

func (suite *MemoryConnectorTestSuite) readAll(req scan.ReadRequest) []int64 {
	cur, err := suite.conn.OpenCursor(suite.ctx, suite.person, req)
	suite.Require().NoError(err)
	defer cur.Close()

	var ids []int64
	for {
		row, err := cur.Next()
		suite.Require().NoError(err)
		if row == nil {
			return ids
		}
		ids = append(ids, row["ID"].(int64))
	}
}

// TestPersistMerges tests that persist only overwrites the given columns
func (suite *MemoryConnectorTestSuite) TestPersistMerges() {
	suite.NoError(suite.conn.Persist(suite.ctx, suite.person,
		entity.Row{"ID": int64(1), "Name": "ann", "Age": int32(30)}))
	suite.NoError(suite.conn.Persist(suite.ctx, suite.person,
		entity.Row{"ID": int64(1), "Age": int32(31)}))

	row, err := suite.conn.Find(suite.ctx, suite.person, int64(1))
	suite.NoError(err)
	suite.Equal(entity.Row{"ID": int64(1), "Name": "ann", "Age": int32(31)}, row)

	// the returned row is a copy
	row["Name"] = "bob"
	row, err = suite.conn.Find(suite.ctx, suite.person, int64(1))
	suite.NoError(err)
	suite.Equal("ann", row["Name"])

	row, err = suite.conn.Find(suite.ctx, suite.person, int64(2))
	suite.NoError(err)
	suite.Nil(row)
}

// TestFindByColumnAndDelete tests column lookups and deletes
func (suite *MemoryConnectorTestSuite) TestFindByColumnAndDelete() {
	suite.persistPeople(4)
	rows, err := suite.conn.FindByColumn(suite.ctx, suite.person, "Age", int32(22))
	suite.NoError(err)
	suite.Require().Len(rows, 1)
	suite.Equal(int64(2), rows[0]["ID"])

	suite.NoError(suite.conn.Delete(suite.ctx, suite.person, int64(2)))
	rows, err = suite.conn.FindByColumn(suite.ctx, suite.person, "Age", int32(22))
	suite.NoError(err)
	suite.Empty(rows)

	// deleting an absent row is not an error
	suite.NoError(suite.conn.Delete(suite.ctx, suite.person, int64(2)))

	_, err = suite.conn.Find(suite.ctx, suite.person, struct{}{})
	suite.Error(err)
}

// TestJoinTable tests that join rows of an owner never mix with the rows
// of an owner whose key it prefixes
func (suite *MemoryConnectorTestSuite) TestJoinTable() {
	jt := &descriptor.JoinTable{
		Name:              "entity_tag",
		JoinColumn:        "article_id",
		InverseJoinColumn: "tag_id",
	}
	suite.NoError(suite.conn.PersistJoinTable(suite.ctx, jt, "a",
		[]interface{}{"y", "x"}))
	suite.NoError(suite.conn.PersistJoinTable(suite.ctx, jt, "ab",
		[]interface{}{"z"}))

	ids, err := suite.conn.FindJoinTableIDs(suite.ctx, jt, "a")
	suite.NoError(err)
	suite.Equal([]interface{}{"x", "y"}, ids)

	ids, err = suite.conn.FindJoinTableIDs(suite.ctx, jt, "ab")
	suite.NoError(err)
	suite.Equal([]interface{}{"z"}, ids)

	ids, err = suite.conn.FindJoinTableIDs(suite.ctx, jt, "b")
	suite.NoError(err)
	suite.Empty(ids)
}

// TestCursorPages tests range and point reads across page boundaries
func (suite *MemoryConnectorTestSuite) TestCursorPages() {
	suite.persistPeople(5)

	suite.Equal([]int64{1, 2, 3, 4, 5}, suite.readAll(scan.ReadRequest{Table: "crm.person"}))
	suite.Equal([]int64{1, 2, 3, 4, 5},
		suite.readAll(scan.ReadRequest{Table: "crm.person", PageSize: 1}))
	suite.Equal([]int64{2, 3, 4}, suite.readAll(scan.ReadRequest{
		Table:    "crm.person",
		StartKey: int64(2),
		EndKey:   int64(5),
	}))
	suite.Equal([]int64{4, 5}, suite.readAll(scan.ReadRequest{
		Table:    "crm.person",
		StartKey: int64(4),
	}))
	suite.Equal([]int64{1, 2}, suite.readAll(scan.ReadRequest{
		Table:  "crm.person",
		EndKey: int64(3),
	}))
	suite.Equal([]int64{3}, suite.readAll(scan.ReadRequest{
		Table:  "crm.person",
		RowKey: int64(3),
	}))
	suite.Empty(suite.readAll(scan.ReadRequest{
		Table:  "crm.person",
		RowKey: int64(9),
	}))
	suite.Empty(suite.readAll(scan.ReadRequest{Table: "crm.nobody"}))

	pages := suite.scope.Snapshot().Counters()
	suite.NotEmpty(pages)
}

// TestCursorInterleavedWrites tests that a scan sees rows written after
// the page it already read
func (suite *MemoryConnectorTestSuite) TestCursorInterleavedWrites() {
	suite.persistPeople(2)
	cur, err := suite.conn.OpenCursor(suite.ctx, suite.person,
		scan.ReadRequest{Table: "crm.person", PageSize: 2})
	suite.Require().NoError(err)

	row, err := cur.Next()
	suite.NoError(err)
	suite.Equal(int64(1), row["ID"])

	suite.persistPeople(3)

	var ids []int64
	for {
		row, err := cur.Next()
		suite.Require().NoError(err)
		if row == nil {
			break
		}
		ids = append(ids, row["ID"].(int64))
	}
	suite.Equal([]int64{2, 3}, ids)
	suite.NoError(cur.Close())
}

// TestClosed tests operations on a closed connector
func (suite *MemoryConnectorTestSuite) TestClosed() {
	suite.persistPeople(3)
	cur, err := suite.conn.OpenCursor(suite.ctx, suite.person,
		scan.ReadRequest{Table: "crm.person", PageSize: 1})
	suite.Require().NoError(err)
	_, err = cur.Next()
	suite.NoError(err)

	suite.NoError(suite.conn.Close())
	suite.Equal(memory.ErrClosed, suite.conn.Close())

	_, err = cur.Next()
	suite.Equal(memory.ErrClosed, err)
	_, err = suite.conn.Find(suite.ctx, suite.person, int64(1))
	suite.Equal(memory.ErrClosed, err)
	suite.Equal(memory.ErrClosed, suite.conn.Persist(suite.ctx, suite.person,
		entity.Row{"ID": int64(1)}))
	_, err = suite.conn.OpenCursor(suite.ctx, suite.person,
		scan.ReadRequest{Table: "crm.person"})
	suite.Equal(memory.ErrClosed, err)
}

// TestCanceledScan tests that a page read honors the context
func (suite *MemoryConnectorTestSuite) TestCanceledScan() {
	suite.persistPeople(1)
	ctx, cancel := context.WithCancel(suite.ctx)
	cur, err := suite.conn.OpenCursor(ctx, suite.person,
		scan.ReadRequest{Table: "crm.person"})
	suite.Require().NoError(err)
	cancel()
	_, err = cur.Next()
	suite.Equal(context.Canceled, err)
}

// TestResultIterator tests a filtered and projected iteration bounded by
// the fetch size
func (suite *MemoryConnectorTestSuite) TestResultIterator() {
	suite.persistPeople(10)

	it, err := iterator.New(suite.ctx, iterator.Params{
		Handle:   suite.conn.NewHandle(),
		Metadata: suite.person,
		Scan: &query.ScanDescriptor{
			StartRow: int64(2),
			Columns:  []map[string]string{{"person": "Name"}},
			Filter:   &query.Compare{Column: "Age", Op: query.Greater, Value: 24},
		},
		FetchSize: 3,
		Scope:     suite.scope,
	})
	suite.Require().NoError(err)

	var people []*testutil.Person
	for it.HasNext() {
		e, err := it.Next()
		suite.Require().NoError(err)
		people = append(people, e.(*testutil.Person))
	}
	suite.Require().Len(people, 3)
	for i, p := range people {
		suite.Equal(int64(5+i), p.ID)
		suite.Equal("p", p.Name)
		// Age is not projected
		suite.Zero(p.Age)
	}
	suite.False(it.HasNext())
	it.Close()
}

// TestResultIteratorPointKeys tests iteration over point keys
func (suite *MemoryConnectorTestSuite) TestResultIteratorPointKeys() {
	suite.persistPeople(3)

	it, err := iterator.New(suite.ctx, iterator.Params{
		Handle:   suite.conn.NewHandle(),
		Metadata: suite.person,
		Scan: &query.ScanDescriptor{
			RowKeys: []interface{}{int64(3), int64(7), int64(1)},
		},
		FetchSize: 10,
	})
	suite.Require().NoError(err)

	out, err := it.NextChunk(10)
	suite.NoError(err)
	suite.Require().Len(out, 2)
	suite.Equal(int64(3), out[0].(*testutil.Person).ID)
	suite.Equal(int64(1), out[1].(*testutil.Person).ID)
}
