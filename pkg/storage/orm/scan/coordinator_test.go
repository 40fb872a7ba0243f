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

package scan_test

import (
	"context"
	"testing"

	"github.com/devbyt/Kundera/pkg/storage/orm/api"
	"github.com/devbyt/Kundera/pkg/storage/orm/metadata"
	"github.com/devbyt/Kundera/pkg/storage/orm/query"
	"github.com/devbyt/Kundera/pkg/storage/orm/scan"
	"github.com/devbyt/Kundera/pkg/storage/orm/scan/mocks"

	"github.com/golang/mock/gomock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/suite"
	"github.com/uber-go/tally/v4"
)

type CoordinatorTestSuite struct {
	suite.Suite

	ctrl   *gomock.Controller
	ctx    context.Context
	handle *mocks.MockStoreHandle
	scope  tally.TestScope
	m      *metadata.EntityMetadata
	coord  *scan.Coordinator
}

func TestCoordinatorTestSuite(t *testing.T) {
	suite.Run(t, new(CoordinatorTestSuite))
}

func (suite *CoordinatorTestSuite) SetupTest() {
	suite.ctrl = gomock.NewController(suite.T())
	suite.ctx = context.Background()
	suite.handle = mocks.NewMockStoreHandle(suite.ctrl)
	suite.scope = tally.NewTestScope("", nil)
	suite.m = metadata.New("main", "Person")
	suite.m.Table = "person"
	suite.coord = scan.NewCoordinator(suite.handle, suite.scope)
}

func (suite *CoordinatorTestSuite) TearDownTest() {
	suite.ctrl.Finish()
}

func (suite *CoordinatorTestSuite) counter(name string) int64 {
	c, ok := suite.scope.Snapshot().Counters()[name+"+"]
	if !ok {
		return 0
	}
	return c.Value()
}

// TestRangeScan tests a key range scan from open to reset
func (suite *CoordinatorTestSuite) TestRangeScan() {
	filter := &query.Compare{Column: "age", Op: query.Greater, Value: 30}
	desc := &query.ScanDescriptor{
		StartRow: int64(1),
		EndRow:   int64(10),
		Columns:  []map[string]string{{"person": "name"}},
		Filter:   filter,
	}
	left := 2
	suite.handle.EXPECT().
		ReadData(suite.ctx, "person", suite.m, nil, int64(1), int64(10),
			desc.Columns, filter).
		Return(nil)
	suite.handle.EXPECT().HasNext().
		DoAndReturn(func() bool { return left > 0 }).
		AnyTimes()
	suite.handle.EXPECT().Next(suite.m, desc.Columns).
		DoAndReturn(func(*metadata.EntityMetadata, []map[string]string) (interface{}, error) {
			left--
			return left, nil
		}).
		Times(2)
	suite.handle.EXPECT().Reset().Times(1)

	suite.NoError(suite.coord.Open(suite.ctx, "person", suite.m, desc))
	for i := 0; i < 2; i++ {
		suite.True(suite.coord.HasNext())
		e, err := suite.coord.Next(suite.m, desc.Columns)
		suite.NoError(err)
		suite.Equal(1-i, e)
	}
	suite.False(suite.coord.HasNext())

	e, err := suite.coord.Next(suite.m, desc.Columns)
	suite.NoError(err)
	suite.Nil(e)

	suite.coord.Reset()
	suite.coord.Reset()
	suite.True(suite.coord.Done())
	suite.False(suite.coord.HasNext())

	suite.Equal(int64(1), suite.counter("scan.open"))
	suite.Equal(int64(2), suite.counter("scan.rows"))
	suite.Equal(int64(1), suite.counter("scan.reset"))
}

// TestOpenTwice tests that a coordinator runs a single scan
func (suite *CoordinatorTestSuite) TestOpenTwice() {
	suite.handle.EXPECT().
		ReadData(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(),
			gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil)

	suite.NoError(suite.coord.Open(suite.ctx, "person", suite.m, nil))
	suite.Error(suite.coord.Open(suite.ctx, "person", suite.m, nil))
}

// TestOpenFailure tests that a failing open resets the handle
func (suite *CoordinatorTestSuite) TestOpenFailure() {
	cause := errors.New("no host available")
	suite.handle.EXPECT().
		ReadData(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(),
			gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(cause)
	suite.handle.EXPECT().Reset().Times(1)

	err := suite.coord.Open(suite.ctx, "person", suite.m, nil)
	suite.True(errors.Is(err, api.ErrPersistence))
	suite.True(errors.Is(err, cause))
	suite.Equal(err, suite.coord.Err())
	suite.False(suite.coord.HasNext())
	suite.Equal(int64(1), suite.counter("scan.open_fail"))
}

// TestPointScan tests that row keys are read one after another
func (suite *CoordinatorTestSuite) TestPointScan() {
	buffered := false
	for _, k := range []string{"a", "b", "c"} {
		k := k
		suite.handle.EXPECT().
			ReadData(suite.ctx, "person", suite.m, k, nil, nil,
				gomock.Any(), gomock.Any()).
			DoAndReturn(func(
				context.Context, string, *metadata.EntityMetadata,
				interface{}, interface{}, interface{},
				[]map[string]string, query.Filter,
			) error {
				// "b" has no row
				buffered = k != "b"
				return nil
			})
	}
	suite.handle.EXPECT().HasNext().
		DoAndReturn(func() bool { return buffered }).
		AnyTimes()
	suite.handle.EXPECT().Next(gomock.Any(), gomock.Any()).
		DoAndReturn(func(*metadata.EntityMetadata, []map[string]string) (interface{}, error) {
			buffered = false
			return "row", nil
		}).
		Times(2)
	suite.handle.EXPECT().Reset().Times(1)

	desc := &query.ScanDescriptor{RowKeys: []interface{}{"a", "b", "c"}}
	suite.NoError(suite.coord.Open(suite.ctx, "person", suite.m, desc))

	var rows []interface{}
	for suite.coord.HasNext() {
		e, err := suite.coord.Next(suite.m, nil)
		suite.NoError(err)
		rows = append(rows, e)
	}
	suite.Len(rows, 2)
	suite.coord.Reset()
}

// TestPointScanFailure tests that a failing point read ends the scan
func (suite *CoordinatorTestSuite) TestPointScanFailure() {
	cause := errors.New("timeout")
	gomock.InOrder(
		suite.handle.EXPECT().
			ReadData(gomock.Any(), gomock.Any(), gomock.Any(), "a",
				gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil),
		suite.handle.EXPECT().HasNext().Return(false),
		suite.handle.EXPECT().
			ReadData(gomock.Any(), gomock.Any(), gomock.Any(), "b",
				gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(cause),
		suite.handle.EXPECT().Reset(),
	)

	desc := &query.ScanDescriptor{RowKeys: []interface{}{"a", "b"}}
	suite.NoError(suite.coord.Open(suite.ctx, "person", suite.m, desc))

	// the failure is reported as an unread row and delivered by Next
	suite.True(suite.coord.HasNext())
	suite.True(suite.coord.Done())
	suite.True(suite.coord.HasNext())
	e, err := suite.coord.Next(suite.m, nil)
	suite.Nil(e)
	var perr *api.PersistenceError
	suite.Require().True(errors.As(err, &perr))
	suite.Equal("read", perr.Op)
	suite.True(errors.Is(err, cause))
	suite.Equal(err, suite.coord.Err())

	suite.False(suite.coord.HasNext())
	e, err = suite.coord.Next(suite.m, nil)
	suite.Nil(e)
	suite.Equal(perr, err)
}

// TestNextFailures tests hydration and store failures of Next
func (suite *CoordinatorTestSuite) TestNextFailures() {
	suite.handle.EXPECT().
		ReadData(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(),
			gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil)
	suite.handle.EXPECT().HasNext().Return(true).AnyTimes()
	gomock.InOrder(
		suite.handle.EXPECT().Next(gomock.Any(), gomock.Any()).
			Return(nil, api.ErrHydration),
		suite.handle.EXPECT().Next(gomock.Any(), gomock.Any()).
			Return(nil, errors.New("connection reset")),
	)
	suite.handle.EXPECT().Reset().Times(1)

	suite.NoError(suite.coord.Open(suite.ctx, "person", suite.m, nil))

	_, err := suite.coord.Next(suite.m, nil)
	suite.True(errors.Is(err, api.ErrHydration))
	suite.False(suite.coord.Done())

	_, err = suite.coord.Next(suite.m, nil)
	suite.True(errors.Is(err, api.ErrPersistence))
	suite.True(suite.coord.Done())

	// the failure is reported again once the scan is over
	_, err = suite.coord.Next(suite.m, nil)
	suite.True(errors.Is(err, api.ErrPersistence))
	suite.Equal(int64(1), suite.counter("scan.next_fail"))
}

// TestResetBeforeOpen tests that an unopened coordinator is empty
func (suite *CoordinatorTestSuite) TestResetBeforeOpen() {
	suite.handle.EXPECT().Reset().Times(1)
	suite.False(suite.coord.HasNext())
	suite.coord.Reset()
	suite.coord.Reset()
}
