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

package storage

import (
	"time"

	"github.com/uber-go/tally/v4"
	"go.uber.org/yarpc/yarpcerrors"
)

// Store operation tags for metrics
const (
	OpPersist   = "persist"
	OpFind      = "find"
	OpFindBy    = "find_by_column"
	OpDelete    = "delete"
	OpJoinWrite = "join_table_write"
	OpJoinRead  = "join_table_read"
	OpScan      = "scan"
	OpScanPage  = "scan_page"
)

// ErrorTagger maps a store error to a metrics tag. Tags must not carry
// characters rejected by the metrics backend, so error messages are never
// used directly.
type ErrorTagger func(err error) string

// DefaultErrorTag tags yarpc error codes and reports everything else as
// unknown.
func DefaultErrorTag(err error) string {
	switch {
	case yarpcerrors.IsAlreadyExists(err):
		return "already_exists"
	case yarpcerrors.IsNotFound(err):
		return "not_found"
	case yarpcerrors.IsDeadlineExceeded(err):
		return "timeout"
	}
	return "unknown"
}

// StoreMetrics records the latency and the outcome of store operations,
// tagged by table and operation.
type StoreMetrics struct {
	scope        tally.Scope
	successScope tally.Scope
	failScope    tally.Scope
	errorTag     ErrorTagger
}

// NewStoreMetrics returns store metrics for the named store rooted at
// scope. A nil tagger uses DefaultErrorTag.
func NewStoreMetrics(scope tally.Scope, store string, tagger ErrorTagger) *StoreMetrics {
	if tagger == nil {
		tagger = DefaultErrorTag
	}
	storeScope := scope.SubScope("store").Tagged(
		map[string]string{"store": store})
	return &StoreMetrics{
		scope: storeScope,
		successScope: storeScope.Tagged(
			map[string]string{"result": "success"}),
		failScope: storeScope.Tagged(
			map[string]string{"result": "fail"}),
		errorTag: tagger,
	}
}

// Record records one operation that started at start.
func (m *StoreMetrics) Record(table, operation string, start time.Time, err error) {
	m.SendLatency(table, operation, time.Since(start))
	m.SendCounters(table, operation, err)
}

// SendLatency records the latency of an operation.
func (m *StoreMetrics) SendLatency(table, operation string, d time.Duration) {
	s := m.scope.Tagged(map[string]string{
		"table":     table,
		"operation": operation,
	})
	s.Timer("execute_latency").Record(d)
}

// SendCounters records the success or failure of an operation.
func (m *StoreMetrics) SendCounters(table, operation string, err error) {
	scope := m.successScope
	errMsg := "none"
	if err != nil {
		scope = m.failScope
		errMsg = m.errorTag(err)
	}
	s := scope.Tagged(map[string]string{
		"table":     table,
		"operation": operation,
		"error":     errMsg,
	})
	s.Counter("execute").Inc(1)
}
