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
	"github.com/uber-go/tally/v4"
)

// Metrics is a placeholder for all metrics of the client.
type Metrics struct {
	Persist     tally.Counter
	PersistFail tally.Counter
	Get         tally.Counter
	GetFail     tally.Counter
	Remove      tally.Counter
	RemoveFail  tally.Counter
	Scan        tally.Counter
	ScanFail    tally.Counter
}

// NewMetrics returns a new Metrics struct, with all metrics initialized
// and rooted at the given tally.Scope
func NewMetrics(scope tally.Scope) *Metrics {
	clientScope := scope.SubScope("orm_client")
	successScope := clientScope.Tagged(map[string]string{"result": "success"})
	failScope := clientScope.Tagged(map[string]string{"result": "fail"})

	return &Metrics{
		Persist:     successScope.Counter("persist"),
		PersistFail: failScope.Counter("persist"),
		Get:         successScope.Counter("get"),
		GetFail:     failScope.Counter("get"),
		Remove:      successScope.Counter("remove"),
		RemoveFail:  failScope.Counter("remove"),
		Scan:        successScope.Counter("scan"),
		ScanFail:    failScope.Counter("scan"),
	}
}

func (m *Metrics) record(success, fail tally.Counter, err error) {
	if err != nil {
		fail.Inc(1)
		return
	}
	success.Inc(1)
}
