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

package cassandra

import (
	"bytes"
	"strings"
	"text/template"

	"github.com/pkg/errors"
)

// Option sets one clause of a CQL statement.
type Option func(*options)

type options struct {
	Table          string
	Columns        []string
	Values         []interface{}
	Updates        []string
	Conditions     []string
	IfNotExist     bool
	AllowFiltering bool
	Limit          int
}

// Table sets the table, optionally qualified by its keyspace.
func Table(name string) Option {
	return func(o *options) { o.Table = name }
}

// Columns sets the columns read or written.
func Columns(cols []string) Option {
	return func(o *options) { o.Columns = cols }
}

// Values sets the values written. Only insert statements use them.
func Values(values []interface{}) Option {
	return func(o *options) { o.Values = values }
}

// Updates sets the columns updated by an update statement.
func Updates(cols []string) Option {
	return func(o *options) { o.Updates = cols }
}

// Conditions adds an equality condition per column.
func Conditions(cols []string) Option {
	return func(o *options) {
		for _, c := range cols {
			o.Conditions = append(o.Conditions, c+"=?")
		}
	}
}

// Range bounds column to [lower, upper) with the bounds present. Range
// conditions need filtering on non clustering columns.
func Range(col string, lower, upper bool) Option {
	return func(o *options) {
		if lower {
			o.Conditions = append(o.Conditions, col+">=?")
		}
		if upper {
			o.Conditions = append(o.Conditions, col+"<?")
		}
		if lower || upper {
			o.AllowFiltering = true
		}
	}
}

// AllowFiltering adds ALLOW FILTERING to a select statement.
func AllowFiltering(allow bool) Option {
	return func(o *options) { o.AllowFiltering = o.AllowFiltering || allow }
}

// IfNotExist makes an insert statement a CAS write.
func IfNotExist(cas bool) Option {
	return func(o *options) { o.IfNotExist = cas }
}

// Limit limits the rows returned by a select statement. 0 is no limit.
func Limit(n int) Option {
	return func(o *options) { o.Limit = n }
}

var _funcs = template.FuncMap{
	"quote":        quote,
	"quoteTable":   quoteTable,
	"quotedList":   quotedList,
	"placeholders": placeholders,
	"join":         strings.Join,
	"assignments":  assignments,
}

var (
	_insertTmpl = template.Must(template.New("insert").Funcs(_funcs).Parse(
		`INSERT INTO {{quoteTable .Table}} ({{quotedList .Columns}}) ` +
			`VALUES ({{placeholders (len .Columns)}})` +
			`{{if .IfNotExist}} IF NOT EXISTS{{end}};`))

	_selectTmpl = template.Must(template.New("select").Funcs(_funcs).Parse(
		`SELECT {{if .Columns}}{{quotedList .Columns}}{{else}}*{{end}} ` +
			`FROM {{quoteTable .Table}}` +
			`{{if .Conditions}} WHERE {{join .Conditions " AND "}}{{end}}` +
			`{{if .Limit}} LIMIT {{.Limit}}{{end}}` +
			`{{if .AllowFiltering}} ALLOW FILTERING{{end}};`))

	_deleteTmpl = template.Must(template.New("delete").Funcs(_funcs).Parse(
		`DELETE FROM {{quoteTable .Table}}` +
			`{{if .Conditions}} WHERE {{join .Conditions " AND "}}{{end}};`))

	_updateTmpl = template.Must(template.New("update").Funcs(_funcs).Parse(
		`UPDATE {{quoteTable .Table}} SET {{assignments .Updates}}` +
			`{{if .Conditions}} WHERE {{join .Conditions " AND "}}{{end}};`))
)

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// quoteTable quotes the keyspace and the table of a qualified name
// separately.
func quoteTable(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = quote(p)
	}
	return strings.Join(parts, ".")
}

func quotedList(cols []string) string {
	q := make([]string, len(cols))
	for i, c := range cols {
		q[i] = quote(c)
	}
	return strings.Join(q, ", ")
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func assignments(cols []string) string {
	a := make([]string, len(cols))
	for i, c := range cols {
		a[i] = c + "=?"
	}
	return strings.Join(a, ", ")
}

func build(tmpl *template.Template, opts []Option) (string, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.Table == "" {
		return "", errors.Errorf("%s statement without table", tmpl.Name())
	}
	if tmpl == _insertTmpl && len(o.Columns) == 0 {
		return "", errors.New("insert statement without columns")
	}
	if tmpl == _updateTmpl && len(o.Updates) == 0 {
		return "", errors.New("update statement without columns")
	}
	var b bytes.Buffer
	if err := tmpl.Execute(&b, o); err != nil {
		return "", errors.Wrapf(err, "failed to build %s statement", tmpl.Name())
	}
	return b.String(), nil
}

// InsertStmt returns an insert statement.
func InsertStmt(opts ...Option) (string, error) {
	return build(_insertTmpl, opts)
}

// SelectStmt returns a select statement. No columns selects all columns.
func SelectStmt(opts ...Option) (string, error) {
	return build(_selectTmpl, opts)
}

// DeleteStmt returns a delete statement. Columns and values are ignored.
func DeleteStmt(opts ...Option) (string, error) {
	return build(_deleteTmpl, opts)
}

// UpdateStmt returns an update statement. Values are ignored.
func UpdateStmt(opts ...Option) (string, error) {
	return build(_updateTmpl, opts)
}
