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

package iterator_test

import (
	"context"
	"io"
	"testing"

	"github.com/devbyt/Kundera/pkg/storage/orm/api"
	"github.com/devbyt/Kundera/pkg/storage/orm/entity"
	"github.com/devbyt/Kundera/pkg/storage/orm/iterator"
	iteratormocks "github.com/devbyt/Kundera/pkg/storage/orm/iterator/mocks"
	"github.com/devbyt/Kundera/pkg/storage/orm/metadata"
	"github.com/devbyt/Kundera/pkg/storage/orm/processor"
	"github.com/devbyt/Kundera/pkg/storage/orm/query"
	scanmocks "github.com/devbyt/Kundera/pkg/storage/orm/scan/mocks"
	"github.com/devbyt/Kundera/pkg/storage/orm/testutil"

	"github.com/golang/mock/gomock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/suite"
	"github.com/uber-go/tally/v4"
)

type IteratorTestSuite struct {
	suite.Suite

	ctrl   *gomock.Controller
	ctx    context.Context
	app    *metadata.ApplicationMetadata
	handle *scanmocks.MockStoreHandle
	scope  tally.TestScope
}

func TestIteratorTestSuite(t *testing.T) {
	suite.Run(t, new(IteratorTestSuite))
}

func (suite *IteratorTestSuite) SetupSuite() {
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
}

func (suite *IteratorTestSuite) SetupTest() {
	suite.ctrl = gomock.NewController(suite.T())
	suite.ctx = context.Background()
	suite.handle = scanmocks.NewMockStoreHandle(suite.ctrl)
	suite.scope = tally.NewTestScope("", nil)
}

func (suite *IteratorTestSuite) TearDownTest() {
	suite.ctrl.Finish()
}

func (suite *IteratorTestSuite) metadata(e interface{}) *metadata.EntityMetadata {
	m, err := suite.app.EntityMetadata(testutil.Unit, testutil.ClassOf(e))
	suite.Require().NoError(err)
	return m
}

func people(n int) []interface{} {
	rows := make([]interface{}, n)
	for i := range rows {
		rows[i] = &testutil.Person{ID: int64(i + 1)}
	}
	return rows
}

// expectScan sets up a handle serving rows after a successful open.
// Reset must be called exactly once.
func (suite *IteratorTestSuite) expectScan(fetchSize int, rows []interface{}) {
	i := 0
	suite.handle.EXPECT().SetFetchSize(fetchSize)
	suite.handle.EXPECT().
		ReadData(suite.ctx, gomock.Any(), gomock.Any(), gomock.Nil(),
			gomock.Nil(), gomock.Nil(), gomock.Any(), gomock.Any()).
		Return(nil)
	suite.handle.EXPECT().HasNext().
		DoAndReturn(func() bool { return i < len(rows) }).
		AnyTimes()
	suite.handle.EXPECT().Next(gomock.Any(), gomock.Any()).
		DoAndReturn(func(*metadata.EntityMetadata, []map[string]string) (interface{}, error) {
			r := rows[i]
			i++
			return r, nil
		}).
		AnyTimes()
	suite.handle.EXPECT().Reset().Times(1)
}

func (suite *IteratorTestSuite) newIterator(
	m *metadata.EntityMetadata,
	fetchSize int,
	d iterator.Delegator,
) *iterator.ResultIterator {
	it, err := iterator.New(suite.ctx, iterator.Params{
		Handle:    suite.handle,
		Metadata:  m,
		FetchSize: fetchSize,
		Delegator: d,
		Scope:     suite.scope,
	})
	suite.Require().NoError(err)
	return it
}

// TestFetchSizeBound tests that the iterator stops after fetch size rows
func (suite *IteratorTestSuite) TestFetchSizeBound() {
	suite.expectScan(3, people(10))
	it := suite.newIterator(suite.metadata(&testutil.Person{}), 3, nil)

	for i := 1; i <= 3; i++ {
		suite.True(it.HasNext())
		e, err := it.Next()
		suite.NoError(err)
		suite.Equal(int64(i), e.(*testutil.Person).ID)
	}
	suite.False(it.HasNext())
	suite.False(it.HasNext())

	_, err := it.Next()
	suite.True(errors.Is(err, api.ErrNoSuchElement))

	counters := suite.scope.Snapshot().Counters()
	suite.Equal(int64(3), counters["iterator.rows+"].Value())
	suite.Equal(int64(1), counters["scan.reset+"].Value())
}

// TestFetchSizeZero tests that a zero fetch size gives an empty iterator
func (suite *IteratorTestSuite) TestFetchSizeZero() {
	suite.expectScan(0, people(5))
	it := suite.newIterator(suite.metadata(&testutil.Person{}), 0, nil)

	suite.False(it.HasNext())
	_, err := it.Next()
	suite.True(errors.Is(err, api.ErrNoSuchElement))

	chunk, err := it.NextChunk(4)
	suite.NoError(err)
	suite.Empty(chunk)
}

// TestZeroRows tests that an empty scan is reset exactly once
func (suite *IteratorTestSuite) TestZeroRows() {
	suite.expectScan(5, nil)
	it := suite.newIterator(suite.metadata(&testutil.Person{}), 5, nil)

	suite.False(it.HasNext())
	suite.False(it.HasNext())
	it.Close()

	_, err := it.Next()
	suite.True(errors.Is(err, api.ErrNoSuchElement))
}

// TestNextWithoutHasNext tests that Next detects exhaustion by itself
func (suite *IteratorTestSuite) TestNextWithoutHasNext() {
	suite.expectScan(5, people(1))
	it := suite.newIterator(suite.metadata(&testutil.Person{}), 5, nil)

	_, err := it.Next()
	suite.NoError(err)
	_, err = it.Next()
	suite.True(errors.Is(err, api.ErrNoSuchElement))
	suite.False(it.HasNext())
}

// TestRawEntity tests that entities without relations are never wrapped
func (suite *IteratorTestSuite) TestRawEntity() {
	p := &testutil.Person{ID: 1, Name: "ann"}
	suite.expectScan(5, []interface{}{entity.NewEnhancedEntity(p, p.ID, nil)})
	it := suite.newIterator(suite.metadata(&testutil.Person{}), 5, nil)

	suite.True(it.HasNext())
	e, err := it.Next()
	suite.NoError(err)
	suite.True(e == p)
}

// TestRelationFillIn tests that entities with relations go through the
// delegator's reader
func (suite *IteratorTestSuite) TestRelationFillIn() {
	m := suite.metadata(&testutil.Account{})
	acct := &testutil.Account{ID: 9}
	filled := &testutil.Account{ID: 9, Owner: &testutil.Person{ID: 7}}

	suite.expectScan(5, []interface{}{acct})
	reader := iteratormocks.NewMockEntityReader(suite.ctrl)
	d := iteratormocks.NewMockDelegator(suite.ctrl)
	d.EXPECT().Reader().Return(reader)
	reader.EXPECT().
		RecursivelyFindEntities(suite.ctx, acct, gomock.Any(), m, d, false, gomock.Any()).
		DoAndReturn(func(
			_ context.Context,
			_ interface{},
			relations map[string]interface{},
			_ *metadata.EntityMetadata,
			_ iterator.Delegator,
			_ bool,
			seen map[entity.Key]interface{},
		) (interface{}, error) {
			suite.Empty(relations)
			suite.NotNil(seen)
			suite.Empty(seen)
			return filled, nil
		})

	it := suite.newIterator(m, 5, d)
	suite.True(it.HasNext())
	e, err := it.Next()
	suite.NoError(err)
	suite.True(e == filled)
	suite.False(it.HasNext())
}

// TestRelationFillInForeignKeys tests that foreign keys read by the adapter
// reach the reader
func (suite *IteratorTestSuite) TestRelationFillInForeignKeys() {
	m := suite.metadata(&testutil.Account{})
	acct := &testutil.Account{ID: 9}
	fks := map[string]interface{}{"owner_id": int64(7)}

	suite.expectScan(5, []interface{}{entity.NewEnhancedEntity(acct, int64(9), fks)})
	reader := iteratormocks.NewMockEntityReader(suite.ctrl)
	d := iteratormocks.NewMockDelegator(suite.ctrl)
	d.EXPECT().Reader().Return(reader)
	reader.EXPECT().
		RecursivelyFindEntities(suite.ctx, acct, fks, m, d, false, gomock.Any()).
		Return(acct, nil)

	it := suite.newIterator(m, 5, d)
	e, err := it.Next()
	suite.NoError(err)
	suite.True(e == acct)
}

// TestRelationFillInFailure tests that reader failures are returned and
// leave the iterator open
func (suite *IteratorTestSuite) TestRelationFillInFailure() {
	m := suite.metadata(&testutil.Account{})
	rows := []interface{}{&testutil.Account{ID: 1}, &testutil.Account{ID: 2}}

	suite.expectScan(5, rows)
	reader := iteratormocks.NewMockEntityReader(suite.ctrl)
	d := iteratormocks.NewMockDelegator(suite.ctrl)
	d.EXPECT().Reader().Return(reader).Times(2)
	gomock.InOrder(
		reader.EXPECT().
			RecursivelyFindEntities(gomock.Any(), rows[0], gomock.Any(), m, d, false, gomock.Any()).
			Return(nil, errors.New("owner lookup failed")),
		reader.EXPECT().
			RecursivelyFindEntities(gomock.Any(), rows[1], gomock.Any(), m, d, false, gomock.Any()).
			Return(rows[1], nil),
	)

	it := suite.newIterator(m, 5, d)
	_, err := it.Next()
	suite.Error(err)
	suite.True(it.HasNext())
	e, err := it.Next()
	suite.NoError(err)
	suite.True(e == rows[1])
}

// TestChunks tests that consecutive chunks deliver the same sequence as one
// larger chunk
func (suite *IteratorTestSuite) TestChunks() {
	m := suite.metadata(&testutil.Person{})

	suite.expectScan(10, people(7))
	it := suite.newIterator(m, 10, nil)
	whole, err := it.NextChunk(5)
	suite.NoError(err)
	suite.Len(whole, 5)
	it.Close()

	suite.ctrl.Finish()
	suite.SetupTest()
	suite.expectScan(10, people(7))
	it = suite.newIterator(m, 10, nil)
	first, err := it.NextChunk(3)
	suite.NoError(err)
	second, err := it.NextChunk(2)
	suite.NoError(err)
	suite.Equal(whole, append(first, second...))

	// chunks stop early on exhaustion
	rest, err := it.NextChunk(10)
	suite.NoError(err)
	suite.Len(rest, 2)
	rest, err = it.NextChunk(10)
	suite.NoError(err)
	suite.Empty(rest)
}

// TestChunksBoundByFetchSize tests that chunks never exceed the fetch size
func (suite *IteratorTestSuite) TestChunksBoundByFetchSize() {
	suite.expectScan(4, people(10))
	it := suite.newIterator(suite.metadata(&testutil.Person{}), 4, nil)

	chunk, err := it.NextChunk(3)
	suite.NoError(err)
	suite.Len(chunk, 3)
	chunk, err = it.NextChunk(3)
	suite.NoError(err)
	suite.Len(chunk, 1)
	suite.False(it.HasNext())
}

// TestHydrationFailure tests that a row failing hydration does not end the
// scan
func (suite *IteratorTestSuite) TestHydrationFailure() {
	calls := 0
	suite.handle.EXPECT().SetFetchSize(5)
	suite.handle.EXPECT().
		ReadData(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(),
			gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil)
	suite.handle.EXPECT().HasNext().
		DoAndReturn(func() bool { return calls < 2 }).
		AnyTimes()
	suite.handle.EXPECT().Next(gomock.Any(), gomock.Any()).
		DoAndReturn(func(*metadata.EntityMetadata, []map[string]string) (interface{}, error) {
			calls++
			if calls == 1 {
				return nil, errors.Wrap(api.ErrHydration, "bad row")
			}
			return &testutil.Person{ID: 2}, nil
		}).
		Times(2)
	suite.handle.EXPECT().Reset().Times(1)

	it := suite.newIterator(suite.metadata(&testutil.Person{}), 5, nil)
	suite.True(it.HasNext())
	_, err := it.Next()
	suite.True(errors.Is(err, api.ErrHydration))

	suite.True(it.HasNext())
	e, err := it.Next()
	suite.NoError(err)
	suite.Equal(int64(2), e.(*testutil.Person).ID)
	suite.False(it.HasNext())
}

// TestStoreFailure tests that a store failure exhausts the iterator
func (suite *IteratorTestSuite) TestStoreFailure() {
	suite.handle.EXPECT().SetFetchSize(5)
	suite.handle.EXPECT().
		ReadData(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(),
			gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil)
	suite.handle.EXPECT().HasNext().Return(true).AnyTimes()
	suite.handle.EXPECT().Next(gomock.Any(), gomock.Any()).Return(nil, io.ErrUnexpectedEOF)
	suite.handle.EXPECT().Reset().Times(1)

	it := suite.newIterator(suite.metadata(&testutil.Person{}), 5, nil)
	suite.True(it.HasNext())
	_, err := it.Next()
	suite.True(errors.Is(err, api.ErrPersistence))
	suite.True(errors.Is(err, io.ErrUnexpectedEOF))

	suite.False(it.HasNext())
	_, err = it.Next()
	suite.True(errors.Is(err, api.ErrNoSuchElement))
}

// TestOpenFailure tests that open failures are persistence errors
func (suite *IteratorTestSuite) TestOpenFailure() {
	suite.handle.EXPECT().SetFetchSize(5)
	suite.handle.EXPECT().
		ReadData(gomock.Any(), "crm.person", gomock.Any(), gomock.Any(),
			gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(io.EOF)
	suite.handle.EXPECT().Reset().Times(1)

	_, err := iterator.New(suite.ctx, iterator.Params{
		Handle:    suite.handle,
		Metadata:  suite.metadata(&testutil.Person{}),
		FetchSize: 5,
	})
	var perr *api.PersistenceError
	suite.Require().True(errors.As(err, &perr))
	suite.Equal("open", perr.Op)
	suite.Equal("crm.person", perr.Table)
}

// TestInvalidParams tests iterator construction checks
func (suite *IteratorTestSuite) TestInvalidParams() {
	_, err := iterator.New(suite.ctx, iterator.Params{})
	suite.Error(err)

	_, err = iterator.New(suite.ctx, iterator.Params{
		Handle:    suite.handle,
		Metadata:  suite.metadata(&testutil.Person{}),
		FetchSize: -1,
	})
	suite.Error(err)

	_, err = iterator.New(suite.ctx, iterator.Params{
		Handle:    suite.handle,
		Metadata:  suite.metadata(&testutil.Account{}),
		FetchSize: 1,
	})
	suite.Error(err)
}

// TestRemove tests that remove is unsupported
func (suite *IteratorTestSuite) TestRemove() {
	suite.expectScan(1, people(1))
	it := suite.newIterator(suite.metadata(&testutil.Person{}), 1, nil)
	suite.True(errors.Is(it.Remove(), api.ErrUnsupportedOperation))
	it.Close()
	it.Close()
	suite.False(it.HasNext())
}

// TestPointKeys tests scans over explicit row keys
func (suite *IteratorTestSuite) TestPointKeys() {
	var current interface{}
	suite.handle.EXPECT().SetFetchSize(10)
	for _, k := range []int64{3, 1} {
		k := k
		suite.handle.EXPECT().
			ReadData(suite.ctx, "crm.person", gomock.Any(), k,
				gomock.Nil(), gomock.Nil(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(
				context.Context, string, *metadata.EntityMetadata,
				interface{}, interface{}, interface{},
				[]map[string]string, query.Filter,
			) error {
				current = &testutil.Person{ID: k}
				return nil
			})
	}
	suite.handle.EXPECT().HasNext().
		DoAndReturn(func() bool { return current != nil }).
		AnyTimes()
	suite.handle.EXPECT().Next(gomock.Any(), gomock.Any()).
		DoAndReturn(func(*metadata.EntityMetadata, []map[string]string) (interface{}, error) {
			e := current
			current = nil
			return e, nil
		}).
		Times(2)
	suite.handle.EXPECT().Reset().Times(1)

	it, err := iterator.New(suite.ctx, iterator.Params{
		Handle:    suite.handle,
		Metadata:  suite.metadata(&testutil.Person{}),
		Scan:      &query.ScanDescriptor{RowKeys: []interface{}{int64(3), int64(1)}},
		FetchSize: 10,
	})
	suite.Require().NoError(err)
	all, err := it.NextChunk(10)
	suite.NoError(err)
	suite.Len(all, 2)
	suite.Equal(int64(3), all[0].(*testutil.Person).ID)
	suite.Equal(int64(1), all[1].(*testutil.Person).ID)
}

// TestPointKeysReadFailure tests that a failing point read is returned to
// the caller instead of ending the iteration quietly
func (suite *IteratorTestSuite) TestPointKeysReadFailure() {
	var current interface{}
	cause := errors.New("store unreachable")
	suite.handle.EXPECT().SetFetchSize(10)
	suite.handle.EXPECT().
		ReadData(suite.ctx, "crm.person", gomock.Any(), int64(3),
			gomock.Nil(), gomock.Nil(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(
			context.Context, string, *metadata.EntityMetadata,
			interface{}, interface{}, interface{},
			[]map[string]string, query.Filter,
		) error {
			current = &testutil.Person{ID: 3}
			return nil
		})
	suite.handle.EXPECT().
		ReadData(suite.ctx, "crm.person", gomock.Any(), int64(1),
			gomock.Nil(), gomock.Nil(), gomock.Any(), gomock.Any()).
		Return(cause)
	suite.handle.EXPECT().HasNext().
		DoAndReturn(func() bool { return current != nil }).
		AnyTimes()
	suite.handle.EXPECT().Next(gomock.Any(), gomock.Any()).
		DoAndReturn(func(*metadata.EntityMetadata, []map[string]string) (interface{}, error) {
			e := current
			current = nil
			return e, nil
		}).
		Times(1)
	suite.handle.EXPECT().Reset().Times(1)

	it, err := iterator.New(suite.ctx, iterator.Params{
		Handle:    suite.handle,
		Metadata:  suite.metadata(&testutil.Person{}),
		Scan:      &query.ScanDescriptor{RowKeys: []interface{}{int64(3), int64(1)}},
		FetchSize: 10,
	})
	suite.Require().NoError(err)
	chunk, err := it.NextChunk(10)
	suite.Len(chunk, 1)
	suite.Equal(int64(3), chunk[0].(*testutil.Person).ID)
	var perr *api.PersistenceError
	suite.Require().True(errors.As(err, &perr))
	suite.Equal("read", perr.Op)
	suite.True(errors.Is(err, cause))

	suite.False(it.HasNext())
	_, err = it.Next()
	suite.True(errors.Is(err, api.ErrNoSuchElement))
}
