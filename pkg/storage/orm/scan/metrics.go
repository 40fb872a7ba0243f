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

package scan

import (
	"github.com/uber-go/tally/v4"
)

// Metrics contains the counters of the scan coordinator.
type Metrics struct {
	ScanOpen     tally.Counter
	ScanOpenFail tally.Counter
	ScanRows     tally.Counter
	ScanNextFail tally.Counter
	ScanReset    tally.Counter
}

// NewMetrics returns a new Metrics struct, with all metrics initialized
// and rooted at the given tally.Scope
func NewMetrics(scope tally.Scope) *Metrics {
	s := scope.SubScope("scan")
	return &Metrics{
		ScanOpen:     s.Counter("open"),
		ScanOpenFail: s.Counter("open_fail"),
		ScanRows:     s.Counter("rows"),
		ScanNextFail: s.Counter("next_fail"),
		ScanReset:    s.Counter("reset"),
	}
}
