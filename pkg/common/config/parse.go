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

package config

import (
	"fmt"
	"io/ioutil"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/validator.v2"
	"gopkg.in/yaml.v2"
)

// StoreSecretsConfig holds the store credentials. They are usually kept in
// a separate config file, or given through environment variables.
type StoreSecretsConfig struct {
	CassandraUsername string `yaml:"cassandra_username"`
	CassandraPassword string `yaml:"cassandra_password"`
}

// ValidationError is returned when the merged config fails validation
type ValidationError struct {
	errorMap validator.ErrorMap
}

// ErrForField returns the validation error of the given field
func (e ValidationError) ErrForField(name string) error {
	return e.errorMap[name]
}

// Fields returns the names of the invalid fields, sorted.
func (e ValidationError) Fields() []string {
	fields := make([]string, 0, len(e.errorMap))
	for f := range e.errorMap {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// Error returns the validation failures, one field per line
func (e ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("validation failed")
	for _, f := range e.Fields() {
		fmt.Fprintf(&b, "\n   %s: %v", f, e.errorMap[f])
	}
	return b.String()
}

// Parse loads configFiles in order into config, later files overriding
// earlier ones, and validates the merged result. "${VAR}" references in
// the files are replaced by the environment variable VAR.
func Parse(config interface{}, configFiles ...string) error {
	if len(configFiles) == 0 {
		return errors.New("no files to load")
	}
	for _, fname := range configFiles {
		data, err := ioutil.ReadFile(fname)
		if err != nil {
			return errors.Wrapf(err, "failed to read %s", fname)
		}
		if err := unmarshal(data, config); err != nil {
			return errors.Wrapf(err, "failed to parse %s", fname)
		}
	}
	return validate(config)
}

func unmarshal(data []byte, config interface{}) error {
	return yaml.Unmarshal([]byte(os.Expand(string(data), lookupEnv)), config)
}

// lookupEnv keeps references to unset variables, so that "$" characters
// of plain values survive.
func lookupEnv(name string) string {
	if v, ok := os.LookupEnv(name); ok {
		return v
	}
	return "${" + name + "}"
}

func validate(config interface{}) error {
	err := validator.Validate(config)
	if err == nil {
		return nil
	}
	if errMap, ok := err.(validator.ErrorMap); ok {
		return ValidationError{errorMap: errMap}
	}
	return err
}
