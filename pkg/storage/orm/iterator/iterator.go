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
Package iterator streams hydrated entities out of a scan.

A ResultIterator is a lazy, single-pass iterator bounded by a fetch size.
It moves from OPEN to EXHAUSTED when the scan runs out of rows, when the
fetch size is consumed, or on a store failure, and releases the scan
exactly once on that transition. Entities with relations are passed to
the persistence delegator's reader for recursive relation fill-in.
*/
package iterator

import (
	"context"

	"github.com/devbyt/Kundera/pkg/storage/orm/accessor"
	"github.com/devbyt/Kundera/pkg/storage/orm/api"
	"github.com/devbyt/Kundera/pkg/storage/orm/entity"
	"github.com/devbyt/Kundera/pkg/storage/orm/metadata"
	"github.com/devbyt/Kundera/pkg/storage/orm/query"
	"github.com/devbyt/Kundera/pkg/storage/orm/scan"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/uber-go/tally/v4"
)

// Params are the inputs of a result iterator.
type Params struct {
	Handle    scan.StoreHandle
	Metadata  *metadata.EntityMetadata
	Scan      *query.ScanDescriptor
	FetchSize int
	// Delegator is required for entities with relations.
	Delegator Delegator
	Scope     tally.Scope
}

// Metrics contains the counters of result iterators.
type Metrics struct {
	Rows           tally.Counter
	RelationFills  tally.Counter
	RelationFailed tally.Counter
	Exhausted      tally.Counter
}

// NewMetrics returns a new Metrics struct rooted at scope.
func NewMetrics(scope tally.Scope) *Metrics {
	s := scope.SubScope("iterator")
	return &Metrics{
		Rows:           s.Counter("rows"),
		RelationFills:  s.Counter("relation_fills"),
		RelationFailed: s.Counter("relation_fill_fail"),
		Exhausted:      s.Counter("exhausted"),
	}
}

// ResultIterator implements api.ResultIterator over a scan coordinator.
type ResultIterator struct {
	ctx       context.Context
	coord     *scan.Coordinator
	m         *metadata.EntityMetadata
	columns   []map[string]string
	delegator Delegator
	metrics   *Metrics

	fetchSize      int
	count          int
	scrollComplete bool
}

// ensure that ResultIterator satisfies the api.ResultIterator interface
var _ api.ResultIterator = (*ResultIterator)(nil)

// New opens the scan described by p.Scan and returns an iterator over it.
// Store failures are returned as *api.PersistenceError.
func New(ctx context.Context, p Params) (*ResultIterator, error) {
	if p.Handle == nil || p.Metadata == nil {
		return nil, errors.New("result iterator needs a store handle and metadata")
	}
	if p.FetchSize < 0 {
		return nil, errors.Errorf("invalid fetch size %d", p.FetchSize)
	}
	if p.Metadata.HasRelations() && p.Delegator == nil {
		return nil, errors.Errorf("entity %s has relations but no delegator", p.Metadata.Class)
	}
	scope := p.Scope
	if scope == nil {
		scope = tally.NoopScope
	}
	desc := p.Scan
	if desc == nil {
		desc = &query.ScanDescriptor{}
	}

	p.Handle.SetFetchSize(p.FetchSize)
	coord := scan.NewCoordinator(p.Handle, scope)
	if err := coord.Open(ctx, p.Metadata.QualifiedTableName(), p.Metadata, desc); err != nil {
		return nil, err
	}
	return &ResultIterator{
		ctx:       ctx,
		coord:     coord,
		m:         p.Metadata,
		columns:   desc.Columns,
		delegator: p.Delegator,
		metrics:   NewMetrics(scope),
		fetchSize: p.FetchSize,
	}, nil
}

// HasNext reports whether Next will deliver another entity.
func (it *ResultIterator) HasNext() bool {
	if it.scrollComplete {
		return false
	}
	if it.fetchSize == 0 || it.count >= it.fetchSize || !it.coord.HasNext() {
		it.exhaust()
		return false
	}
	return true
}

// exhaust moves the iterator to EXHAUSTED and releases the scan.
func (it *ResultIterator) exhaust() {
	if it.scrollComplete {
		return
	}
	it.scrollComplete = true
	it.coord.Reset()
	it.metrics.Exhausted.Inc(1)
	log.WithFields(log.Fields{
		"table":     it.m.QualifiedTableName(),
		"delivered": it.count,
	}).Debug("result iterator exhausted")
}

// Next returns the next entity. Entities of classes with relations are
// returned with their relations resolved.
func (it *ResultIterator) Next() (interface{}, error) {
	if it.scrollComplete || it.count >= it.fetchSize {
		return nil, api.ErrNoSuchElement
	}
	e, err := it.coord.Next(it.m, it.columns)
	if err != nil {
		if it.coord.Done() {
			it.exhaust()
		}
		return nil, err
	}
	if e == nil {
		it.exhaust()
		return nil, api.ErrNoSuchElement
	}
	it.count++
	it.metrics.Rows.Inc(1)

	if !it.m.HasRelations() {
		return accessor.Unwrap(e), nil
	}

	ee, ok := e.(*entity.EnhancedEntity)
	if !ok {
		id, err := accessor.ID(it.m, e)
		if err != nil {
			return nil, err
		}
		ee = entity.NewEnhancedEntity(e, id, nil)
	}
	out, err := it.delegator.Reader().RecursivelyFindEntities(
		it.ctx, ee.Entity, ee.Relations, it.m, it.delegator, false,
		map[entity.Key]interface{}{})
	if err != nil {
		it.metrics.RelationFailed.Inc(1)
		return nil, err
	}
	it.metrics.RelationFills.Inc(1)
	return out, nil
}

// Remove is not supported.
func (it *ResultIterator) Remove() error {
	return errors.Wrap(api.ErrUnsupportedOperation, "remove on result iterator")
}

// NextChunk returns up to chunkSize entities, fewer when the iterator is
// exhausted first.
func (it *ResultIterator) NextChunk(chunkSize int) ([]interface{}, error) {
	var out []interface{}
	for len(out) < chunkSize && it.HasNext() {
		e, err := it.Next()
		if err != nil {
			if errors.Is(err, api.ErrNoSuchElement) {
				break
			}
			return out, err
		}
		out = append(out, e)
	}
	return out, nil
}

// Close releases the scan. The iterator is exhausted afterwards.
func (it *ResultIterator) Close() {
	it.exhaust()
}
