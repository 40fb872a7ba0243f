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

package metadata

// ColumnMap maps column names to attribute names in insertion order.
type ColumnMap struct {
	columns []string
	attrs   map[string]string
}

// NewColumnMap returns an empty column map.
func NewColumnMap() *ColumnMap {
	return &ColumnMap{attrs: map[string]string{}}
}

// Put maps column to attribute. Re-putting a column keeps its position.
func (c *ColumnMap) Put(column, attribute string) {
	if _, ok := c.attrs[column]; !ok {
		c.columns = append(c.columns, column)
	}
	c.attrs[column] = attribute
}

// Get returns the attribute stored under column.
func (c *ColumnMap) Get(column string) (string, bool) {
	a, ok := c.attrs[column]
	return a, ok
}

// ColumnOf returns the column of an attribute.
func (c *ColumnMap) ColumnOf(attribute string) (string, bool) {
	for _, col := range c.columns {
		if c.attrs[col] == attribute {
			return col, true
		}
	}
	return "", false
}

// Len returns the number of columns.
func (c *ColumnMap) Len() int {
	return len(c.columns)
}

// Columns returns the column names in insertion order.
func (c *ColumnMap) Columns() []string {
	return append([]string(nil), c.columns...)
}

// Map returns the mapping as a plain map.
func (c *ColumnMap) Map() map[string]string {
	out := make(map[string]string, len(c.attrs))
	for k, v := range c.attrs {
		out[k] = v
	}
	return out
}

// Clone returns a copy of c.
func (c *ColumnMap) Clone() *ColumnMap {
	out := NewColumnMap()
	for _, col := range c.columns {
		out.Put(col, c.attrs[col])
	}
	return out
}
