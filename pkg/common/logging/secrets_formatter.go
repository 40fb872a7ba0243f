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
	"strings"

	log "github.com/sirupsen/logrus"
)

// Log fields of store statements
const (
	// DBStmtLogField is the statement sent to the store
	DBStmtLogField = "db_stmt"
	// DBArgsLogField holds the bound values of the statement
	DBArgsLogField = "db_args"
	// DBTableLogField is the table the statement reads or writes
	DBTableLogField = "table"
)

const redactedStr = "REDACTED"

// _secretKeys are log field names whose values are always redacted.
var _secretKeys = []string{"password", "secret", "token"}

// SecretsFormatter scrubs sensitive information from logs and formats logs into
// parsable json.
type SecretsFormatter struct {
	*log.JSONFormatter
	// Tables are the tables holding secrets. The bound values of statements
	// on these tables are redacted.
	Tables []string
}

// isSecretTable reports whether stmt refers to one of the secret tables.
func (f *SecretsFormatter) isSecretTable(stmt string) bool {
	for _, t := range f.Tables {
		if t != "" && strings.Contains(stmt, t) {
			return true
		}
	}
	return false
}

func isSecretKey(k string) bool {
	k = strings.ToLower(k)
	for _, s := range _secretKeys {
		if strings.Contains(k, s) {
			return true
		}
	}
	return false
}

// Format is called by logrus and returns the formatted string.
// It looks for secrets data in each entry and redacts it.
func (f *SecretsFormatter) Format(entry *log.Entry) ([]byte, error) {
	data := make(log.Fields, len(entry.Data))
	for k, v := range entry.Data {
		data[k] = v
	}
	for k, v := range entry.Data {
		if isSecretKey(k) {
			data[k] = redactedStr
			continue
		}
		s, ok := v.(string)
		if !ok {
			continue
		}
		// filter DB statement so it doesn't contain the secret tables
		if (k == DBStmtLogField || k == DBTableLogField) && f.isSecretTable(s) {
			data[k] = redactedStr
			// the args of a statement on a secret table hold the secret
			// data, so we will replace the entire field with redactedStr
			if _, ok := data[DBArgsLogField]; ok {
				data[DBArgsLogField] = redactedStr
			}
		}
	}
	redacted := *entry
	redacted.Data = data
	return f.JSONFormatter.Format(&redacted)
}
