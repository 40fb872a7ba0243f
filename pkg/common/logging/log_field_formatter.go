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

package logging

import (
	log "github.com/sirupsen/logrus"
)

// AppLogField is the log field naming the running application
const AppLogField = "app"

// LogFieldFormatter adds static fields to every entry before passing it to
// the wrapped formatter.
type LogFieldFormatter struct {
	Fields    log.Fields
	Formatter log.Formatter
}

// Format is called by logrus and returns the formatted string.
func (f LogFieldFormatter) Format(entry *log.Entry) ([]byte, error) {
	data := make(log.Fields, len(entry.Data)+len(f.Fields))
	for k, v := range f.Fields {
		data[k] = v
	}
	// entry fields win over static ones
	for k, v := range entry.Data {
		data[k] = v
	}
	e := *entry
	e.Data = data
	return f.Formatter.Format(&e)
}
