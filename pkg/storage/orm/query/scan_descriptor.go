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

package query

import (
	"context"
	"strings"

	"github.com/devbyt/Kundera/pkg/storage/orm/entity"
	"github.com/devbyt/Kundera/pkg/storage/orm/metadata"
)

// ScanDescriptor is a translated query: a key range or a set of point
// keys, a projection and a filter tree.
type ScanDescriptor struct {
	// StartRow is the first id value of the range, nil for unbounded.
	StartRow interface{}
	// EndRow is the exclusive end of the range, nil for unbounded.
	EndRow interface{}
	// RowKeys selects rows by id. When set, the range is ignored.
	RowKeys []interface{}
	// Columns is the projection as a list of family to qualifier maps.
	// Columns of the entity table use the table name or an empty family;
	// other families name an embedded super column. An empty projection
	// selects every column.
	Columns []map[string]string
	Filter  Filter
}

// ColumnNames flattens a projection for table into row column
// names. Embedded leaves are returned as "family.qualifier".
func ColumnNames(table string, columns []map[string]string) []string {
	var out []string
	for _, m := range columns {
		for family, qualifier := range m {
			if family == "" || family == table {
				out = append(out, qualifier)
				continue
			}
			out = append(out, family+"."+qualifier)
		}
	}
	return out
}

// Project returns the columns of the row kept by the projection. Leaves
// of embedded records are kept inside their nested row.
func Project(row entity.Row, names []string) entity.Row {
	if len(names) == 0 {
		return row
	}
	out := make(entity.Row, len(names))
	for _, n := range names {
		if v, ok := row[n]; ok {
			out[n] = v
			continue
		}
		i := strings.Index(n, ".")
		if i < 0 {
			continue
		}
		family, leaf := n[:i], n[i+1:]
		nested, ok := entity.AsRow(row[family])
		if !ok {
			continue
		}
		v, ok := nested[leaf]
		if !ok {
			continue
		}
		dst, ok := out[family].(entity.Row)
		if !ok {
			dst = entity.Row{}
			out[family] = dst
		}
		dst[leaf] = v
	}
	return out
}

// Translator turns query text into a scan descriptor for an entity.
type Translator interface {
	Translate(
		ctx context.Context,
		text string,
		m *metadata.EntityMetadata,
	) (*ScanDescriptor, error)
}
