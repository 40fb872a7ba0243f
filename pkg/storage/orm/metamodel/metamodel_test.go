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

package metamodel

import (
	"testing"

	"github.com/devbyt/Kundera/pkg/storage/orm/api"
	"github.com/devbyt/Kundera/pkg/storage/orm/descriptor"
	"github.com/devbyt/Kundera/pkg/storage/orm/testutil"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type MetamodelTestSuite struct {
	suite.Suite

	reg *descriptor.Registry
}

func TestMetamodelTestSuite(t *testing.T) {
	suite.Run(t, new(MetamodelTestSuite))
}

func (suite *MetamodelTestSuite) SetupTest() {
	reg, err := testutil.NewRegistry()
	suite.Require().NoError(err)
	suite.reg = reg
}

func (suite *MetamodelTestSuite) descriptor(e interface{}) *descriptor.EntityDescriptor {
	d, err := suite.reg.Descriptor(testutil.ClassOf(e))
	suite.Require().NoError(err)
	return d
}

func (suite *MetamodelTestSuite) classify(e interface{}, name string) (Classification, error) {
	d := suite.descriptor(e)
	a, ok := d.Attribute(name)
	suite.Require().True(ok, name)
	return Classify(d, a)
}

// TestClassify tests the classification of fixture attributes
func (suite *MetamodelTestSuite) TestClassify() {
	tt := []struct {
		entity interface{}
		attr   string
		kind   AttributeKind
		column string
		nested bool
	}{
		{&testutil.Person{}, "ID", AttributeID, "ID", false},
		{&testutil.Person{}, "Name", AttributeBasic, "Name", false},
		{&testutil.Customer{}, "Addr", AttributeEmbedded, "Addr", true},
		{&testutil.Customer{}, "Phones", AttributeElementCollection, "Phones", false},
		{&testutil.Traveller{}, "Visits", AttributeElementCollection, "Visits", true},
		{&testutil.Article{}, "Tags", AttributeRelation, "Tags", false},
		{&testutil.Account{}, "Owner", AttributeRelation, "Owner", false},
	}
	for _, tc := range tt {
		c, err := suite.classify(tc.entity, tc.attr)
		suite.NoError(err)
		suite.False(c.Skip)
		suite.Equal(tc.kind, c.Kind, tc.attr)
		suite.Equal(tc.column, c.Column, tc.attr)
		suite.Equal(tc.nested, c.Nested, tc.attr)
	}

	addr := suite.descriptor(&testutil.Customer{})
	a, _ := addr.Attribute("Addr")
	city, _ := a.Type.Embeddable.Attribute("City")
	c, err := Classify(a.Type.Embeddable, city)
	suite.NoError(err)
	suite.Equal("city_name", c.Column)
}

// TestClassifySkip tests that static and transient attributes are skipped
func (suite *MetamodelTestSuite) TestClassifySkip() {
	c, err := suite.classify(&testutil.Person{}, "Scratch")
	suite.NoError(err)
	suite.True(c.Skip)

	c, err = suite.classify(&testutil.Person{}, "seen")
	suite.NoError(err)
	suite.True(c.Skip)

	owner := &descriptor.EntityDescriptor{Class: "x.Static", Role: descriptor.RoleEntity}
	c, err = Classify(owner, &descriptor.AttributeDescriptor{
		Name:      "Counter",
		Modifiers: descriptor.Modifiers{Static: true},
	})
	suite.NoError(err)
	suite.True(c.Skip)
}

// TestClassifyConflicts tests conflicting and invalid directives
func (suite *MetamodelTestSuite) TestClassifyConflicts() {
	owner := &descriptor.EntityDescriptor{Class: "x.Bad", Role: descriptor.RoleEntity}
	tt := []*descriptor.AttributeDescriptor{
		{
			Name: "IDAndRelation",
			Type: descriptor.ValueType{Kind: descriptor.KindRecord, Class: "x.Other"},
			Directives: descriptor.Directives{
				ID:        true,
				Relations: []descriptor.RelationDirective{{Kind: descriptor.ToOne}},
			},
		},
		{
			Name:       "IDs",
			Type:       descriptor.ValueType{Kind: descriptor.KindLong},
			Collection: descriptor.CollectionList,
			Directives: descriptor.Directives{ID: true},
		},
		{
			Name:       "NotACollection",
			Type:       descriptor.ValueType{Kind: descriptor.KindString},
			Directives: descriptor.Directives{ElementCollection: true},
		},
	}
	for _, a := range tt {
		_, err := Classify(owner, a)
		suite.Error(err)
		suite.True(errors.Is(err, api.ErrInvalidEntityDefinition))
		suite.Contains(err.Error(), a.Name)
	}
}

// TestClassifyEmbeddedNonEmbeddable tests that an embedded directive on a
// type which is not embeddable falls back to basic
func (suite *MetamodelTestSuite) TestClassifyEmbeddedNonEmbeddable() {
	owner := &descriptor.EntityDescriptor{Class: "x.Owner", Role: descriptor.RoleEntity}
	c, err := Classify(owner, &descriptor.AttributeDescriptor{
		Name:       "Blob",
		Type:       descriptor.ValueType{Kind: descriptor.KindRecord, Class: "x.Blob"},
		Directives: descriptor.Directives{Embedded: true},
	})
	suite.NoError(err)
	suite.Equal(AttributeBasic, c.Kind)
	suite.False(c.Nested)
}

// TestBuilderProcess tests that processing a class creates its supertype
// chain
func (suite *MetamodelTestSuite) TestBuilderProcess() {
	b := NewBuilder(testutil.Unit, suite.reg)
	child := testutil.ClassOf(&testutil.Child{})
	suite.NoError(b.Process(child))

	types := b.ManagedTypes()
	suite.Len(types, 2)
	mt, ok := types[child]
	suite.True(ok)
	base, ok := b.Metamodel().Supertype(mt)
	suite.True(ok)
	suite.Equal(descriptor.RoleMappedSuperclass, base.Role)
	suite.Equal(mt.Supertype, base.Class)

	// ancestor attributes are constructed, the class' own are not yet
	suite.Len(base.Attributes(), 2)
	suite.Empty(mt.Attributes())
	id := b.Metamodel().IDAttribute(child)
	suite.Require().NotNil(id)
	suite.Equal(base.Class, id.Declaring)

	// processing again is a no-op
	suite.NoError(b.Process(child))
	suite.Equal(types, b.ManagedTypes())
}

// TestBuilderConstruct tests adding attributes to a managed type
func (suite *MetamodelTestSuite) TestBuilderConstruct() {
	b := NewBuilder(testutil.Unit, suite.reg)
	class := testutil.ClassOf(&testutil.Customer{})
	d := suite.descriptor(&testutil.Customer{})

	a, _ := d.Attribute("Addr")
	suite.Error(b.Construct(class, a))

	suite.NoError(b.Process(class))
	for _, a := range d.Attributes {
		suite.NoError(b.Construct(class, a))
	}
	mt, ok := b.Metamodel().ManagedType(class)
	suite.True(ok)
	suite.Len(mt.Attributes(), 3)

	addr, ok := mt.Attribute("Addr")
	suite.True(ok)
	suite.Equal(AttributeEmbedded, addr.Kind)
	suite.Len(addr.Embedded, 2)
	suite.Equal("city_name", addr.Embedded[1].Column)

	// the embeddable gets its own node
	_, ok = b.Metamodel().ManagedType(a.Type.Embeddable.Class)
	suite.True(ok)

	// constructing again replaces in place
	suite.NoError(b.Construct(class, a))
	suite.Len(mt.Attributes(), 3)

	attrs := b.Metamodel().Attributes(class)
	suite.Equal("ID", attrs[0].Name)
}

// TestBuilderFreeze tests that a frozen metamodel rejects writes
func (suite *MetamodelTestSuite) TestBuilderFreeze() {
	b := NewBuilder(testutil.Unit, suite.reg)
	person := testutil.ClassOf(&testutil.Person{})
	suite.NoError(b.Process(person))
	b.Freeze()
	suite.True(b.Metamodel().Frozen())

	// known classes can still be processed
	suite.NoError(b.Process(person))

	err := b.Process(testutil.ClassOf(&testutil.Tag{}))
	suite.True(errors.Is(err, api.ErrFrozen))

	d := suite.descriptor(&testutil.Person{})
	err = b.Construct(person, d.Attributes[0])
	suite.True(errors.Is(err, api.ErrFrozen))

	_, ok := b.Metamodel().ManagedType(person)
	suite.True(ok)
}

// TestBuilderRollback tests that a rollback restores the nodes recorded by
// a checkpoint
func (suite *MetamodelTestSuite) TestBuilderRollback() {
	b := NewBuilder(testutil.Unit, suite.reg)
	person := testutil.ClassOf(&testutil.Person{})
	pd := suite.descriptor(&testutil.Person{})
	suite.NoError(b.Process(person))
	for _, a := range pd.Attributes {
		suite.NoError(b.Construct(person, a))
	}
	mt, _ := b.Metamodel().ManagedType(person)
	before := mt.Attributes()

	cp := b.Checkpoint()
	customer := testutil.ClassOf(&testutil.Customer{})
	cd := suite.descriptor(&testutil.Customer{})
	suite.NoError(b.Process(customer))
	for _, a := range cd.Attributes {
		suite.NoError(b.Construct(customer, a))
	}
	suite.NoError(b.Construct(person, pd.Attributes[0]))
	suite.Len(b.ManagedTypes(), 3)

	b.Rollback(cp)
	types := b.ManagedTypes()
	suite.Len(types, 1)
	suite.NotContains(types, customer)
	suite.True(mt == types[person])
	suite.Equal(before, mt.Attributes())
	for i, a := range mt.Attributes() {
		suite.True(before[i] == a, a.Name)
	}
}
