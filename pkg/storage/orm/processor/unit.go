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

package processor

import (
	"sort"

	"github.com/devbyt/Kundera/pkg/storage/orm/descriptor"
	"github.com/devbyt/Kundera/pkg/storage/orm/metadata"
	"github.com/devbyt/Kundera/pkg/storage/orm/metamodel"
	"github.com/devbyt/Kundera/pkg/storage/orm/query"

	"github.com/hashicorp/go-multierror"
	log "github.com/sirupsen/logrus"
)

// EntitiesOfUnit returns the entity classes of reg bound to unit, sorted.
// Entities without a unit directive belong to every unit.
func EntitiesOfUnit(reg *descriptor.Registry, unit string) []descriptor.Class {
	var out []descriptor.Class
	for _, c := range reg.Classes() {
		d, err := reg.Descriptor(c)
		if err != nil || d.Role != descriptor.RoleEntity {
			continue
		}
		if d.Table != nil && d.Table.Unit != "" && d.Table.Unit != unit {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// CompileUnit compiles classes into app for the unit described by props
// and freezes the unit metamodel. Every class is attempted; the failures
// are returned together and leave the metamodel unfrozen and unpublished.
func CompileUnit(
	source descriptor.Source,
	props UnitProperties,
	classes []descriptor.Class,
	app *metadata.ApplicationMetadata,
	queries *query.Registry,
) (*metamodel.Metamodel, error) {
	builder := metamodel.NewBuilder(props.Name, source)
	tp := NewTableProcessor(source, builder, queries, props)

	var errs *multierror.Error
	compiled := make([]*metadata.EntityMetadata, 0, len(classes))
	for _, class := range classes {
		m := metadata.New(props.Name, class)
		if err := tp.Process(class, m); err != nil {
			log.WithError(err).
				WithField("class", class).
				Error("failed to compile entity metadata")
			errs = multierror.Append(errs, err)
			continue
		}
		compiled = append(compiled, m)
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}

	builder.Freeze()
	for _, m := range compiled {
		app.AddEntityMetadata(m)
	}
	app.SetMetamodel(builder.Metamodel())

	log.WithFields(log.Fields{
		"unit":     props.Name,
		"entities": len(compiled),
	}).Info("persistence unit compiled")
	return builder.Metamodel(), nil
}
