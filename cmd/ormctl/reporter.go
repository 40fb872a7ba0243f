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
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/uber-go/tally/v4"
)

// logReporter writes the metrics of a command run to the debug log.
type logReporter struct{}

// ensure that logReporter satisfies the StatsReporter interface
var _ tally.StatsReporter = logReporter{}

type logCapabilities struct{}

func (logCapabilities) Reporting() bool { return true }
func (logCapabilities) Tagging() bool   { return true }

func (logReporter) Capabilities() tally.Capabilities { return logCapabilities{} }

func (logReporter) Flush() {}

func (logReporter) ReportCounter(name string, tags map[string]string, value int64) {
	log.WithFields(log.Fields{
		"metric": name,
		"tags":   tags,
		"value":  value,
	}).Debug("counter")
}

func (logReporter) ReportGauge(name string, tags map[string]string, value float64) {
	log.WithFields(log.Fields{
		"metric": name,
		"tags":   tags,
		"value":  value,
	}).Debug("gauge")
}

func (logReporter) ReportTimer(name string, tags map[string]string, interval time.Duration) {
	log.WithFields(log.Fields{
		"metric": name,
		"tags":   tags,
		"value":  interval,
	}).Debug("timer")
}

func (logReporter) ReportHistogramValueSamples(
	name string,
	tags map[string]string,
	buckets tally.Buckets,
	bucketLowerBound,
	bucketUpperBound float64,
	samples int64,
) {
}

func (logReporter) ReportHistogramDurationSamples(
	name string,
	tags map[string]string,
	buckets tally.Buckets,
	bucketLowerBound,
	bucketUpperBound time.Duration,
	samples int64,
) {
}
