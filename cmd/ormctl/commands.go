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
	"context"
	"io"
	"io/ioutil"

	"github.com/devbyt/Kundera/pkg/storage/orm"
	"github.com/devbyt/Kundera/pkg/storage/orm/api"
	"github.com/devbyt/Kundera/pkg/storage/orm/metadata"
	"github.com/devbyt/Kundera/pkg/storage/orm/query"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

var _json = jsoniter.ConfigCompatibleWithStandardLibrary

// scanOptions are the scan command arguments
type scanOptions struct {
	Start     string
	End       string
	Keys      []string
	Where     []string
	Any       bool
	Columns   []string
	FetchSize int
}

// commands runs the ormctl commands against one persistence unit.
type commands struct {
	client  *orm.Client
	app     *metadata.ApplicationMetadata
	queries *query.Registry
	unit    string
	out     io.Writer
}

func (c *commands) metadata(name string) (*metadata.EntityMetadata, error) {
	return c.client.EntityMetadata(classOf(c.unit, name))
}

func (c *commands) print(v interface{}) error {
	p := newRecordPrinter(c.client.EntityMetadata)
	return _json.NewEncoder(c.out).Encode(p.value(v))
}

// entityDescription is the printed form of compiled entity metadata
type entityDescription struct {
	Class     string            `json:"class"`
	Table     string            `json:"table"`
	Family    string            `json:"family"`
	ID        string            `json:"id"`
	Columns   map[string]string `json:"columns"`
	Relations []string          `json:"relations,omitempty"`
}

// describe prints the compiled metadata of one entity, or of every
// entity of the unit when name is empty.
func (c *commands) describe(name string) error {
	var entities []*metadata.EntityMetadata
	if name != "" {
		m, err := c.metadata(name)
		if err != nil {
			return err
		}
		entities = append(entities, m)
	} else {
		entities = c.app.Entities(c.unit)
	}
	for _, m := range entities {
		d := entityDescription{
			Class:   string(m.Class),
			Table:   m.QualifiedTableName(),
			Family:  m.Family.String(),
			Columns: m.ColumnMap.Map(),
		}
		if m.IDAttribute != nil {
			d.ID = m.IDAttribute.Column
		}
		for _, r := range m.Relations {
			d.Relations = append(d.Relations, describeRelation(r))
		}
		if err := c.print(d); err != nil {
			return err
		}
	}
	return nil
}

// listQueries prints the registered named queries.
func (c *commands) listQueries() error {
	for _, e := range c.queries.Entries() {
		if err := c.print(map[string]interface{}{
			"name":   e.Name,
			"class":  string(e.Class),
			"native": e.Native,
			"query":  e.Query,
		}); err != nil {
			return err
		}
	}
	return nil
}

// load persists the entities of the JSON array in file.
func (c *commands) load(ctx context.Context, name string, file string) (int, error) {
	m, err := c.metadata(name)
	if err != nil {
		return 0, err
	}
	data, err := ioutil.ReadFile(file)
	if err != nil {
		return 0, err
	}
	var objs []map[string]interface{}
	if err := _json.Unmarshal(data, &objs); err != nil {
		return 0, errors.Wrapf(err, "failed to decode %s", file)
	}

	loader := &recordLoader{entityMetadata: c.client.EntityMetadata}
	for i, obj := range objs {
		rec, err := loader.load(m, obj)
		if err != nil {
			return i, errors.Wrapf(err, "entity %d of %s", i, file)
		}
		if err := c.client.Persist(ctx, rec); err != nil {
			return i, err
		}
	}
	log.WithFields(log.Fields{
		"class":    m.Class,
		"entities": len(objs),
	}).Info("entities loaded")
	return len(objs), nil
}

// get prints one entity and its relations.
func (c *commands) get(ctx context.Context, name string, id string) error {
	m, err := c.metadata(name)
	if err != nil {
		return err
	}
	key, err := parseKey(m, id)
	if err != nil {
		return err
	}
	e, err := c.client.Get(ctx, m.Class, key)
	if err != nil {
		return err
	}
	return c.print(e)
}

// scanDescriptor builds the scan of m described by opts.
func scanDescriptor(m *metadata.EntityMetadata, opts scanOptions) (*query.ScanDescriptor, error) {
	desc := &query.ScanDescriptor{Columns: parseColumns(m, opts.Columns)}
	var err error
	if opts.Start != "" {
		if desc.StartRow, err = parseKey(m, opts.Start); err != nil {
			return nil, err
		}
	}
	if opts.End != "" {
		if desc.EndRow, err = parseKey(m, opts.End); err != nil {
			return nil, err
		}
	}
	for _, k := range opts.Keys {
		key, err := parseKey(m, k)
		if err != nil {
			return nil, err
		}
		desc.RowKeys = append(desc.RowKeys, key)
	}

	var filters []query.Filter
	for _, w := range opts.Where {
		f, err := parseFilter(m, w)
		if err != nil {
			return nil, err
		}
		filters = append(filters, f)
	}
	switch {
	case len(filters) == 1:
		desc.Filter = filters[0]
	case len(filters) > 1 && opts.Any:
		desc.Filter = query.Or(filters...)
	case len(filters) > 1:
		desc.Filter = query.And(filters...)
	}
	return desc, nil
}

// scan prints the entities selected by opts. Entities failing to hydrate
// are skipped.
func (c *commands) scan(ctx context.Context, name string, opts scanOptions) (int, error) {
	m, err := c.metadata(name)
	if err != nil {
		return 0, err
	}
	desc, err := scanDescriptor(m, opts)
	if err != nil {
		return 0, err
	}
	it, err := c.client.Scan(ctx, m.Class, desc, opts.FetchSize)
	if err != nil {
		return 0, err
	}
	defer it.Close()

	n := 0
	for it.HasNext() {
		e, err := it.Next()
		if err != nil {
			if !errors.Is(err, api.ErrHydration) {
				return n, err
			}
			log.WithError(err).Warn("skipping entity")
			continue
		}
		if err := c.print(e); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
