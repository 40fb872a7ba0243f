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

package query

import (
	"sync"
	"testing"

	"github.com/devbyt/Kundera/pkg/storage/orm/api"
	"github.com/devbyt/Kundera/pkg/storage/orm/descriptor"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type RegistryTestSuite struct {
	suite.Suite

	reg *Registry
}

func TestRegistryTestSuite(t *testing.T) {
	suite.Run(t, new(RegistryTestSuite))
}

func (suite *RegistryTestSuite) SetupTest() {
	suite.reg = NewRegistry()
}

func entry(name, class string) NamedQueryEntry {
	return NamedQueryEntry{
		Name:  name,
		Query: "SELECT e FROM " + class + " e",
		Class: descriptor.Class(class),
	}
}

// TestEntriesFor tests flattening the four named query directive kinds
func (suite *RegistryTestSuite) TestEntriesFor() {
	d := &descriptor.EntityDescriptor{
		Class: "x.Person",
		Queries: descriptor.NamedQueries{
			Named:      &descriptor.NamedQuery{Name: "a", Query: "qa"},
			NamedList:  []descriptor.NamedQuery{{Name: "b", Query: "qb"}},
			Native:     &descriptor.NamedQuery{Name: "c", Query: "qc"},
			NativeList: []descriptor.NamedQuery{{Name: "d", Query: "qd"}, {Name: "e", Query: "qe"}},
		},
	}
	entries := EntriesFor(d)
	suite.Len(entries, 5)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name)
		suite.Equal(d.Class, e.Class)
		suite.Equal(e.Name == "c" || e.Name == "d" || e.Name == "e", e.Native)
	}
	suite.Equal([]string{"a", "b", "c", "d", "e"}, names)

	suite.Empty(EntriesFor(&descriptor.EntityDescriptor{Class: "x.Empty"}))
}

// TestAddAndGet tests registering and reading entries
func (suite *RegistryTestSuite) TestAddAndGet() {
	suite.NoError(suite.reg.Add(entry("q1", "x.A")))
	e, ok := suite.reg.Get("q1")
	suite.True(ok)
	suite.Equal(descriptor.Class("x.A"), e.Class)

	_, ok = suite.reg.Get("q2")
	suite.False(ok)

	// identical re-registration is a no-op
	suite.NoError(suite.reg.Add(entry("q1", "x.A")))

	err := suite.reg.Add(entry("q1", "x.B"))
	suite.True(errors.Is(err, api.ErrDuplicateQuery))

	err = suite.reg.Add(NamedQueryEntry{Class: "x.A"})
	suite.Error(err)
}

// TestAddAllAtomic tests that a failing batch registers nothing
func (suite *RegistryTestSuite) TestAddAllAtomic() {
	suite.NoError(suite.reg.Add(entry("taken", "x.A")))

	err := suite.reg.AddAll([]NamedQueryEntry{
		entry("fresh", "x.B"),
		entry("taken", "x.B"),
	})
	suite.True(errors.Is(err, api.ErrDuplicateQuery))
	_, ok := suite.reg.Get("fresh")
	suite.False(ok)

	// duplicates inside one batch fail too
	err = suite.reg.AddAll([]NamedQueryEntry{
		entry("dup", "x.B"),
		entry("dup", "x.C"),
	})
	suite.True(errors.Is(err, api.ErrDuplicateQuery))
	suite.Len(suite.reg.Entries(), 1)

	suite.NoError(suite.reg.Check([]NamedQueryEntry{entry("fresh", "x.B")}))
}

// TestFreeze tests the read-only phase of the registry
func (suite *RegistryTestSuite) TestFreeze() {
	suite.NoError(suite.reg.Add(entry("q1", "x.A")))
	suite.reg.Freeze()
	suite.True(suite.reg.Frozen())

	err := suite.reg.Add(entry("q2", "x.A"))
	suite.True(errors.Is(err, api.ErrFrozen))
	suite.True(errors.Is(suite.reg.Check([]NamedQueryEntry{entry("q2", "x.A")}), api.ErrFrozen))

	// already registered entries can be re-added
	suite.NoError(suite.reg.Add(entry("q1", "x.A")))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok := suite.reg.Get("q1")
			suite.True(ok)
		}()
	}
	wg.Wait()
	suite.Len(suite.reg.Entries(), 1)
}

// TestGlobal tests the process-wide registry value
func (suite *RegistryTestSuite) TestGlobal() {
	suite.True(Global() == Global())
}
