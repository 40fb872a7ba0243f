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
Package persistence resolves the relations of hydrated entities.

The Reader walks the relation records compiled into EntityMetadata and
loads the related entities through an iterator.Delegator. Every entity it
loads is recorded in a seen map keyed by class and encoded id, so an entity
reachable over several paths is loaded once and reference cycles end.
*/
package persistence

import (
	"context"

	"github.com/devbyt/Kundera/pkg/storage/orm/accessor"
	"github.com/devbyt/Kundera/pkg/storage/orm/entity"
	"github.com/devbyt/Kundera/pkg/storage/orm/iterator"
	"github.com/devbyt/Kundera/pkg/storage/orm/keys"
	"github.com/devbyt/Kundera/pkg/storage/orm/metadata"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/uber-go/tally/v4"
)

// Metrics contains the counters of relation resolution.
type Metrics struct {
	Loaded   tally.Counter
	SeenHits tally.Counter
	Missing  tally.Counter
	Failed   tally.Counter
}

// NewMetrics returns a new Metrics struct rooted at scope.
func NewMetrics(scope tally.Scope) *Metrics {
	s := scope.SubScope("relations")
	return &Metrics{
		Loaded:   s.Counter("loaded"),
		SeenHits: s.Counter("seen_hits"),
		Missing:  s.Counter("missing"),
		Failed:   s.Counter("fail"),
	}
}

// Reader implements iterator.EntityReader.
type Reader struct {
	metrics *Metrics
}

// ensure that Reader satisfies the iterator.EntityReader interface
var _ iterator.EntityReader = (*Reader)(nil)

// NewReader returns a relation reader reporting to scope.
func NewReader(scope tally.Scope) *Reader {
	if scope == nil {
		scope = tally.NoopScope
	}
	return &Reader{metrics: NewMetrics(scope)}
}

// RecursivelyFindEntities sets every relation attribute of e. Entities
// loaded for a relation get their own relations resolved with lazy set,
// so only their eager relations are followed.
func (r *Reader) RecursivelyFindEntities(
	ctx context.Context,
	e interface{},
	relations map[string]interface{},
	m *metadata.EntityMetadata,
	d iterator.Delegator,
	lazy bool,
	seen map[entity.Key]interface{},
) (interface{}, error) {
	if seen == nil {
		seen = map[entity.Key]interface{}{}
	}
	e = accessor.Unwrap(e)
	id, err := accessor.ID(m, e)
	if err != nil {
		return nil, err
	}
	key, err := seenKey(m, id)
	if err != nil {
		return nil, err
	}
	seen[key] = e

	for _, rel := range m.Relations {
		if lazy && !rel.IsEager() {
			continue
		}
		if err := r.resolve(ctx, e, id, relations, m, rel, d, seen); err != nil {
			r.metrics.Failed.Inc(1)
			return nil, errors.Wrapf(err, "relation %s.%s", m.Class, rel.Attribute)
		}
	}
	return e, nil
}

// resolve loads the targets of one relation and sets them on e.
func (r *Reader) resolve(
	ctx context.Context,
	e interface{},
	id interface{},
	relations map[string]interface{},
	m *metadata.EntityMetadata,
	rel *metadata.RelationRecord,
	d iterator.Delegator,
	seen map[entity.Key]interface{},
) error {
	tm, err := d.EntityMetadata(rel.Target)
	if err != nil {
		return err
	}

	var found []interface{}
	switch rel.Kind {
	case metadata.ToOneOwning:
		fk, ok := relations[rel.JoinColumn]
		if !ok || fk == nil {
			return nil
		}
		target, err := r.find(ctx, tm, fk, d, seen)
		if err != nil {
			return err
		}
		if target != nil {
			found = append(found, target)
		}
	case metadata.ToManyOwning:
		if found, err = r.findBy(ctx, tm, rel.JoinColumn, id, d, seen); err != nil {
			return err
		}
	case metadata.ToOneInverse, metadata.ToManyInverse:
		owning, ok := tm.Relation(rel.MappedBy)
		if !ok {
			return errors.Errorf("%s has no relation %s", tm.Class, rel.MappedBy)
		}
		if found, err = r.findBy(ctx, tm, owning.JoinColumn, id, d, seen); err != nil {
			return err
		}
	case metadata.ManyToManyJoin:
		ids, err := d.FindJoinTableIDs(ctx, rel.JoinTable, id)
		if err != nil {
			return err
		}
		for _, tid := range ids {
			target, err := r.find(ctx, tm, tid, d, seen)
			if err != nil {
				return err
			}
			if target != nil {
				found = append(found, target)
			}
		}
	default:
		return errors.Errorf("unknown relation kind %v", rel.Kind)
	}

	if !rel.Kind.IsToMany() {
		if len(found) == 0 {
			if !rel.Optional {
				r.metrics.Missing.Inc(1)
				log.WithFields(log.Fields{
					"class":     m.Class,
					"attribute": rel.Attribute,
					"id":        id,
				}).Debug("required relation has no target")
			}
			return nil
		}
		return accessor.Set(m, e, rel.Attribute, found[0])
	}
	return accessor.Set(m, e, rel.Attribute, found)
}

// find returns the entity of tm with the given id, from seen when it was
// already loaded.
func (r *Reader) find(
	ctx context.Context,
	tm *metadata.EntityMetadata,
	id interface{},
	d iterator.Delegator,
	seen map[entity.Key]interface{},
) (interface{}, error) {
	key, err := seenKey(tm, id)
	if err != nil {
		return nil, err
	}
	if e, ok := seen[key]; ok {
		r.metrics.SeenHits.Inc(1)
		return e, nil
	}
	loaded, err := d.Find(ctx, tm, id)
	if err != nil || loaded == nil {
		return nil, err
	}
	return r.visit(ctx, tm, loaded, d, seen)
}

// findBy returns the entities of tm whose column equals value.
func (r *Reader) findBy(
	ctx context.Context,
	tm *metadata.EntityMetadata,
	column string,
	value interface{},
	d iterator.Delegator,
	seen map[entity.Key]interface{},
) ([]interface{}, error) {
	loaded, err := d.FindByColumn(ctx, tm, column, value)
	if err != nil {
		return nil, err
	}
	out := make([]interface{}, 0, len(loaded))
	for _, l := range loaded {
		e, err := r.visit(ctx, tm, l, d, seen)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// visit records a loaded entity in seen, or returns the instance already
// recorded under its key, and resolves its eager relations.
func (r *Reader) visit(
	ctx context.Context,
	tm *metadata.EntityMetadata,
	loaded interface{},
	d iterator.Delegator,
	seen map[entity.Key]interface{},
) (interface{}, error) {
	id, err := accessor.ID(tm, loaded)
	if err != nil {
		return nil, err
	}
	key, err := seenKey(tm, id)
	if err != nil {
		return nil, err
	}
	if e, ok := seen[key]; ok {
		r.metrics.SeenHits.Inc(1)
		return e, nil
	}
	r.metrics.Loaded.Inc(1)

	var fks map[string]interface{}
	if ee, ok := loaded.(*entity.EnhancedEntity); ok {
		fks = ee.Relations
	}
	if !tm.HasRelations() {
		e := accessor.Unwrap(loaded)
		seen[key] = e
		return e, nil
	}
	return r.RecursivelyFindEntities(ctx, loaded, fks, tm, d, true, seen)
}

func seenKey(m *metadata.EntityMetadata, id interface{}) (entity.Key, error) {
	enc, err := keys.EncodeToString(id)
	if err != nil {
		return entity.Key{}, errors.Wrapf(err, "id of %s", m.Class)
	}
	return entity.Key{Class: string(m.Class), ID: enc}, nil
}
