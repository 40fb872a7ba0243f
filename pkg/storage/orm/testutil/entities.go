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

// Package testutil holds annotated entity types shared by the tests of the
// orm packages.
package testutil

import (
	"time"

	"github.com/devbyt/Kundera/pkg/storage/orm/descriptor"

	"github.com/pborman/uuid"
)

// Unit is the persistence unit of every fixture entity.
const Unit = "main"

// Person is a flat entity with named queries.
type Person struct {
	descriptor.Entity `orm:"table=person, schema=crm, unit=main"`
	ID                int64 `orm:"id"`
	Name              string
	Age               int32
	Scratch           string `orm:"-"`
	seen              bool
}

// NamedQueries implements descriptor.NamedQuerier.
func (p *Person) NamedQueries() descriptor.NamedQueries {
	return descriptor.NamedQueries{
		Named: &descriptor.NamedQuery{
			Name:  "person.all",
			Query: "SELECT p FROM Person p",
		},
		NativeList: []descriptor.NamedQuery{
			{Name: "person.native", Query: "SELECT * FROM crm.person"},
		},
	}
}

// Address is an embeddable record.
type Address struct {
	descriptor.Embeddable
	Street string
	City   string `orm:"column=city_name"`
}

// Customer is nested because of its embedded address.
type Customer struct {
	descriptor.Entity `orm:"table=customer, schema=crm, unit=main"`
	ID                uuid.UUID `orm:"id"`
	Addr              Address   `orm:"embedded"`
	Phones            []string  `orm:"elementCollection"`
}

// Visit is an embeddable stored in an element collection.
type Visit struct {
	descriptor.Embeddable
	Place string
	Day   time.Time
}

// Traveller is nested because of its element collection of records.
type Traveller struct {
	descriptor.Entity `orm:"unit=main"`
	ID                string  `orm:"id"`
	Visits            []Visit `orm:"elementCollection"`
}

// Tag is the target of a many-to-many relation.
type Tag struct {
	descriptor.Entity `orm:"table=tag, unit=main"`
	ID                string `orm:"id"`
	Label             string
}

// Article relates to tags through a join table.
type Article struct {
	descriptor.Entity `orm:"table=article, unit=main"`
	ID                int64 `orm:"id"`
	Title             string
	Tags              []*Tag `orm:"manyToMany, joinTable=entity_tag, joinColumn=article_id, inverseJoinColumn=tag_id"`
}

// Base is a mapped supertype carrying the id.
type Base struct {
	descriptor.MappedSuperclass
	ID      int64 `orm:"id"`
	Created time.Time
}

// Child inherits its id from Base.
type Child struct {
	descriptor.Entity `orm:"table=child, unit=main"`
	Base
	Name string
}

// Account has a to-one owning relation to Person.
type Account struct {
	descriptor.Entity `orm:"table=account, unit=main"`
	ID                int64 `orm:"id"`
	Balance           float64
	Owner             *Person `orm:"toOne, joinColumn=owner_id, cascade=persist"`
}

// Department is the inverse side of Employee.Dept.
type Department struct {
	descriptor.Entity `orm:"table=department, unit=main"`
	ID                int64 `orm:"id"`
	Name              string
	Employees         []*Employee `orm:"inverseToMany, mappedBy=Dept, fetch=eager"`
}

// Employee refers to its department, which refers back to its employees.
type Employee struct {
	descriptor.Entity `orm:"table=employee, unit=main"`
	ID                int64 `orm:"id"`
	Name              string
	Dept              *Department `orm:"toOne, joinColumn=department_id"`
}

// Project owns its tasks through a foreign key on the task table.
type Project struct {
	descriptor.Entity `orm:"table=project, unit=main"`
	ID                int64 `orm:"id"`
	Tasks             []*Task `orm:"toMany, joinColumn=project_id, fetch=eager, cascade=all"`
}

// Task is the target of Project.Tasks.
type Task struct {
	descriptor.Entity `orm:"table=task, unit=main"`
	ID                int64 `orm:"id"`
	Title             string
}

// Entities returns an instance of every fixture entity.
func Entities() []interface{} {
	return []interface{}{
		&Person{},
		&Customer{},
		&Traveller{},
		&Tag{},
		&Article{},
		&Child{},
		&Account{},
		&Department{},
		&Employee{},
		&Project{},
		&Task{},
	}
}

// NewRegistry returns a descriptor registry holding every fixture entity.
func NewRegistry() (*descriptor.Registry, error) {
	reg := descriptor.NewRegistry()
	for _, e := range Entities() {
		if _, err := reg.RegisterObject(e); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// ClassOf returns the class token of a fixture entity.
func ClassOf(e interface{}) descriptor.Class {
	d, err := descriptor.FromStruct(e)
	if err != nil {
		panic(err)
	}
	return d.Class
}
