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

package main

import (
	"io"

	"github.com/devbyt/Kundera/pkg/storage/orm"
	"github.com/devbyt/Kundera/pkg/storage/orm/descriptor"
	"github.com/devbyt/Kundera/pkg/storage/orm/metadata"
	"github.com/devbyt/Kundera/pkg/storage/orm/processor"
	"github.com/devbyt/Kundera/pkg/storage/orm/query"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/uber-go/tally/v4"
)

// compile compiles every unit of cfg into app and returns the named
// query registry shared by the units.
func compile(cfg *Config, app *metadata.ApplicationMetadata) (*query.Registry, error) {
	reg := descriptor.NewRegistry()
	queries := query.NewRegistry()
	for i := range cfg.Units {
		u := &cfg.Units[i]
		if _, err := u.Descriptors(reg); err != nil {
			return nil, errors.Wrapf(err, "unit %s", u.Name)
		}
		classes := processor.EntitiesOfUnit(reg, u.Name)
		if _, err := processor.CompileUnit(
			reg, u.UnitProperties, classes, app, queries); err != nil {
			return nil, errors.Wrapf(err, "unit %s", u.Name)
		}
	}
	queries.Freeze()
	return queries, nil
}

// newCommands compiles the units of cfg and connects to the store. The
// commands run against unit, the first unit when empty.
func newCommands(
	cfg *Config,
	unit string,
	out io.Writer,
	scope tally.Scope,
) (*commands, error) {
	if unit == "" && len(cfg.Units) > 0 {
		unit = cfg.Units[0].Name
	}
	app := metadata.NewApplicationMetadata()
	queries, err := compile(cfg, app)
	if err != nil {
		return nil, err
	}
	conn, err := newConnector(cfg, scope)
	if err != nil {
		return nil, err
	}
	client, err := orm.NewClient(conn, app, unit, queries, nil, scope)
	if err != nil {
		conn.Close()
		return nil, err
	}
	log.WithFields(log.Fields{
		"unit":  unit,
		"store": cfg.Store.Type,
	}).Debug("ormctl client created")
	return &commands{
		client:  client,
		app:     app,
		queries: queries,
		unit:    unit,
		out:     out,
	}, nil
}
