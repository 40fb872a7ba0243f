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

package orm

import (
	"context"
	"reflect"

	"github.com/devbyt/Kundera/pkg/storage/orm/accessor"
	"github.com/devbyt/Kundera/pkg/storage/orm/api"
	"github.com/devbyt/Kundera/pkg/storage/orm/descriptor"
	"github.com/devbyt/Kundera/pkg/storage/orm/entity"
	"github.com/devbyt/Kundera/pkg/storage/orm/iterator"
	"github.com/devbyt/Kundera/pkg/storage/orm/keys"
	"github.com/devbyt/Kundera/pkg/storage/orm/metadata"
	"github.com/devbyt/Kundera/pkg/storage/orm/persistence"
	"github.com/devbyt/Kundera/pkg/storage/orm/query"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/uber-go/tally/v4"
	"go.uber.org/yarpc/yarpcerrors"
)

// Client manages the entities of one persistence unit.
type Client struct {
	conn       Connector
	app        *metadata.ApplicationMetadata
	unit       string
	queries    *query.Registry
	translator query.Translator
	reader     iterator.EntityReader
	scope      tally.Scope
	metrics    *Metrics
}

// ensure that Client satisfies the iterator.Delegator interface
var _ iterator.Delegator = (*Client)(nil)

// NewClient returns a new client for the entities of unit compiled into
// app, stored through conn. Named queries are looked up in queries and
// turned into scans by translator; both may be nil.
func NewClient(
	conn Connector,
	app *metadata.ApplicationMetadata,
	unit string,
	queries *query.Registry,
	translator query.Translator,
	scope tally.Scope,
) (*Client, error) {
	if conn == nil || app == nil {
		return nil, errors.New("client needs a connector and application metadata")
	}
	if _, ok := app.Metamodel(unit); !ok {
		return nil, yarpcerrors.NotFoundErrorf(
			"persistence unit %q is not compiled", unit)
	}
	if scope == nil {
		scope = tally.NoopScope
	}
	return &Client{
		conn:       conn,
		app:        app,
		unit:       unit,
		queries:    queries,
		translator: translator,
		reader:     persistence.NewReader(scope),
		scope:      scope,
		metrics:    NewMetrics(scope),
	}, nil
}

// Reader returns the relation reader of the client.
func (c *Client) Reader() iterator.EntityReader {
	return c.reader
}

// EntityMetadata returns the metadata of class, looking in the other
// compiled units when class is not part of the client's unit.
func (c *Client) EntityMetadata(class descriptor.Class) (*metadata.EntityMetadata, error) {
	m, err := c.app.EntityMetadata(c.unit, class)
	if err == nil {
		return m, nil
	}
	if m, err := c.app.EntityMetadataByClass(class); err == nil {
		return m, nil
	}
	return nil, yarpcerrors.NotFoundErrorf("entity metadata not found for %s", class)
}

// metadataOf gets the metadata matching the entity instance provided.
func (c *Client) metadataOf(e interface{}) (*metadata.EntityMetadata, error) {
	e = accessor.Unwrap(e)
	if r, ok := e.(*entity.Record); ok {
		return c.EntityMetadata(descriptor.Class(r.Class))
	}
	t := reflect.TypeOf(e)
	if t == nil {
		return nil, errors.New("nil entity")
	}
	return c.EntityMetadata(descriptor.ClassOfType(t))
}

// hydrate builds an entity from a row, keeping its foreign keys.
func hydrate(m *metadata.EntityMetadata, row entity.Row) (*entity.EnhancedEntity, error) {
	e, fks, err := accessor.Hydrate(m, row)
	if err != nil {
		return nil, err
	}
	return entity.NewEnhancedEntity(e, row[m.IDAttribute.Column], fks), nil
}

// Find loads the entity of m with the given id without its relations.
func (c *Client) Find(
	ctx context.Context,
	m *metadata.EntityMetadata,
	id interface{},
) (interface{}, error) {
	row, err := c.conn.Find(ctx, m, id)
	if err != nil || row == nil {
		return nil, err
	}
	return hydrate(m, row)
}

// FindByColumn loads the entities of m whose column equals value, without
// their relations.
func (c *Client) FindByColumn(
	ctx context.Context,
	m *metadata.EntityMetadata,
	column string,
	value interface{},
) ([]interface{}, error) {
	rows, err := c.conn.FindByColumn(ctx, m, column, value)
	if err != nil {
		return nil, err
	}
	out := make([]interface{}, 0, len(rows))
	for _, row := range rows {
		ee, err := hydrate(m, row)
		if err != nil {
			return nil, err
		}
		out = append(out, ee)
	}
	return out, nil
}

// FindJoinTableIDs returns the target ids linked to ownerID.
func (c *Client) FindJoinTableIDs(
	ctx context.Context,
	jt *descriptor.JoinTable,
	ownerID interface{},
) ([]interface{}, error) {
	return c.conn.FindJoinTableIDs(ctx, jt, ownerID)
}

// Get loads the entity of class with the given id and resolves its
// relations. It returns a not found error when no such entity exists.
func (c *Client) Get(
	ctx context.Context,
	class descriptor.Class,
	id interface{},
) (e interface{}, err error) {
	defer func() { c.metrics.record(c.metrics.Get, c.metrics.GetFail, err) }()

	m, err := c.EntityMetadata(class)
	if err != nil {
		return nil, err
	}
	loaded, err := c.Find(ctx, m, id)
	if err != nil {
		return nil, err
	}
	if loaded == nil {
		return nil, yarpcerrors.NotFoundErrorf("%s %v not found", class, id)
	}
	ee := loaded.(*entity.EnhancedEntity)
	if !m.HasRelations() {
		return ee.Entity, nil
	}
	return c.reader.RecursivelyFindEntities(
		ctx, ee.Entity, ee.Relations, m, c, false, map[entity.Key]interface{}{})
}

// Persist writes the row of e and the foreign keys and join table rows of
// its relations. Related entities are written too when the relation
// cascades persist.
func (c *Client) Persist(ctx context.Context, e interface{}) (err error) {
	defer func() { c.metrics.record(c.metrics.Persist, c.metrics.PersistFail, err) }()
	return c.persist(ctx, e, map[entity.Key]bool{})
}

func (c *Client) persist(
	ctx context.Context,
	e interface{},
	visited map[entity.Key]bool,
) error {
	m, err := c.metadataOf(e)
	if err != nil {
		return err
	}
	row, err := accessor.Dehydrate(m, e)
	if err != nil {
		return err
	}
	id := row[m.IDAttribute.Column]
	if id == nil {
		return errors.Wrapf(api.ErrInvalidEntityDefinition,
			"%s has no id value", m.Class)
	}
	key, err := visitKey(m, id)
	if err != nil {
		return err
	}
	if visited[key] {
		return nil
	}
	visited[key] = true

	// to-one targets are written first so that the foreign key never
	// refers to a missing row
	for _, rel := range m.Relations {
		if rel.Kind != metadata.ToOneOwning {
			continue
		}
		target, err := accessor.Get(m, e, rel.Attribute)
		if err != nil {
			return err
		}
		if target == nil {
			continue
		}
		tm, err := c.EntityMetadata(rel.Target)
		if err != nil {
			return err
		}
		tid, err := accessor.ID(tm, target)
		if err != nil {
			return err
		}
		row[rel.JoinColumn] = tid
		if rel.Cascades(descriptor.CascadePersist) {
			if err := c.persist(ctx, target, visited); err != nil {
				return err
			}
		}
	}

	if err := c.conn.Persist(ctx, m, row); err != nil {
		log.WithError(err).
			WithField("table", m.QualifiedTableName()).
			Error("failed to persist entity")
		return err
	}

	for _, rel := range m.Relations {
		if rel.Kind == metadata.ToOneOwning {
			continue
		}
		if err := c.persistRelation(ctx, m, e, id, rel, visited); err != nil {
			return errors.Wrapf(err, "relation %s.%s", m.Class, rel.Attribute)
		}
	}
	return nil
}

// persistRelation writes the foreign keys or join table rows of one
// relation of e.
func (c *Client) persistRelation(
	ctx context.Context,
	m *metadata.EntityMetadata,
	e interface{},
	id interface{},
	rel *metadata.RelationRecord,
	visited map[entity.Key]bool,
) error {
	v, err := accessor.Get(m, e, rel.Attribute)
	if err != nil {
		return err
	}
	targets := entities(v)
	if len(targets) == 0 {
		return nil
	}
	tm, err := c.EntityMetadata(rel.Target)
	if err != nil {
		return err
	}
	if rel.Cascades(descriptor.CascadePersist) {
		for _, t := range targets {
			if err := c.persist(ctx, t, visited); err != nil {
				return err
			}
		}
	}

	switch rel.Kind {
	case metadata.ToManyOwning:
		// the owner holds the relation, its key lives on the children
		for _, t := range targets {
			tid, err := accessor.ID(tm, t)
			if err != nil {
				return err
			}
			if err := c.conn.Persist(ctx, tm, entity.Row{
				tm.IDAttribute.Column: tid,
				rel.JoinColumn:        id,
			}); err != nil {
				return err
			}
		}
	case metadata.ManyToManyJoin:
		tids := make([]interface{}, 0, len(targets))
		for _, t := range targets {
			tid, err := accessor.ID(tm, t)
			if err != nil {
				return err
			}
			tids = append(tids, tid)
		}
		return c.conn.PersistJoinTable(ctx, rel.JoinTable, id, tids)
	}
	return nil
}

// Remove deletes the row of e. Related entities are deleted too when the
// relation cascades remove.
func (c *Client) Remove(ctx context.Context, e interface{}) (err error) {
	defer func() { c.metrics.record(c.metrics.Remove, c.metrics.RemoveFail, err) }()
	return c.remove(ctx, e, map[entity.Key]bool{})
}

func (c *Client) remove(
	ctx context.Context,
	e interface{},
	visited map[entity.Key]bool,
) error {
	m, err := c.metadataOf(e)
	if err != nil {
		return err
	}
	id, err := accessor.ID(m, e)
	if err != nil {
		return err
	}
	key, err := visitKey(m, id)
	if err != nil {
		return err
	}
	if visited[key] {
		return nil
	}
	visited[key] = true

	for _, rel := range m.Relations {
		if !rel.Cascades(descriptor.CascadeRemove) {
			continue
		}
		v, err := accessor.Get(m, e, rel.Attribute)
		if err != nil {
			return err
		}
		for _, t := range entities(v) {
			if err := c.remove(ctx, t, visited); err != nil {
				return err
			}
		}
	}
	return c.conn.Delete(ctx, m, id)
}

// Scan returns an iterator over the entities of class selected by desc,
// delivering at most fetchSize entities.
func (c *Client) Scan(
	ctx context.Context,
	class descriptor.Class,
	desc *query.ScanDescriptor,
	fetchSize int,
) (it api.ResultIterator, err error) {
	defer func() { c.metrics.record(c.metrics.Scan, c.metrics.ScanFail, err) }()

	m, err := c.EntityMetadata(class)
	if err != nil {
		return nil, err
	}
	return iterator.New(ctx, iterator.Params{
		Handle:    c.conn.NewHandle(),
		Metadata:  m,
		Scan:      desc,
		FetchSize: fetchSize,
		Delegator: c,
		Scope:     c.scope,
	})
}

// NamedQuery runs the named query registered under name.
func (c *Client) NamedQuery(
	ctx context.Context,
	name string,
	fetchSize int,
) (api.ResultIterator, error) {
	if c.queries == nil {
		return nil, yarpcerrors.NotFoundErrorf("named query %q not found", name)
	}
	entry, ok := c.queries.Get(name)
	if !ok {
		return nil, yarpcerrors.NotFoundErrorf("named query %q not found", name)
	}
	if c.translator == nil {
		return nil, errors.Wrapf(api.ErrUnsupportedOperation,
			"no translator for named query %q", name)
	}
	m, err := c.EntityMetadata(entry.Class)
	if err != nil {
		return nil, err
	}
	desc, err := c.translator.Translate(ctx, entry.Query, m)
	if err != nil {
		return nil, errors.Wrapf(err, "named query %q", name)
	}
	return c.Scan(ctx, entry.Class, desc, fetchSize)
}

// Close closes the connector.
func (c *Client) Close() error {
	return c.conn.Close()
}

// entities returns the entities held by a relation attribute value.
func entities(v interface{}) []interface{} {
	if v == nil {
		return nil
	}
	if items, ok := v.([]interface{}); ok {
		return items
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]interface{}, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			item := rv.Index(i)
			if item.Kind() == reflect.Struct && item.CanAddr() {
				item = item.Addr()
			}
			out = append(out, item.Interface())
		}
		return out
	case reflect.Ptr:
		if rv.IsNil() {
			return nil
		}
	}
	return []interface{}{v}
}

func visitKey(m *metadata.EntityMetadata, id interface{}) (entity.Key, error) {
	enc, err := keys.EncodeToString(id)
	if err != nil {
		return entity.Key{}, errors.Wrapf(err, "id of %s", m.Class)
	}
	return entity.Key{Class: string(m.Class), ID: enc}, nil
}
