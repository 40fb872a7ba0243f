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

package metamodel

import (
	"strings"

	"github.com/devbyt/Kundera/pkg/storage/orm/api"
	"github.com/devbyt/Kundera/pkg/storage/orm/descriptor"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// AttributeKind is the persistent role of an attribute.
type AttributeKind int

// Attribute kinds
const (
	AttributeBasic AttributeKind = iota
	AttributeID
	AttributeEmbedded
	AttributeElementCollection
	AttributeRelation
)

func (k AttributeKind) String() string {
	switch k {
	case AttributeID:
		return "id"
	case AttributeEmbedded:
		return "embedded"
	case AttributeElementCollection:
		return "element_collection"
	case AttributeRelation:
		return "relation"
	default:
		return "basic"
	}
}

// Classification is the outcome of classifying one attribute.
type Classification struct {
	// Skip is set for static and transient attributes, which are not
	// persistent.
	Skip   bool
	Kind   AttributeKind
	Column string
	// Nested is set when the attribute forces the nested family type.
	Nested bool
}

// Classify decides the persistent role and the column name of an attribute
// declared on owner.
func Classify(
	owner *descriptor.EntityDescriptor,
	a *descriptor.AttributeDescriptor,
) (Classification, error) {
	d := a.Directives
	if a.Modifiers.Static || a.Modifiers.Transient || d.Transient {
		return Classification{Skip: true}, nil
	}

	var present []string
	if d.ID {
		present = append(present, "id")
	}
	if d.Embedded {
		present = append(present, "embedded")
	}
	if d.ElementCollection {
		present = append(present, "elementCollection")
	}
	if d.HasRelation() {
		present = append(present, "relation")
	}
	if len(present) > 1 {
		return Classification{}, errors.Wrapf(api.ErrInvalidEntityDefinition,
			"%s.%s has conflicting directives: %s",
			owner.Class, a.Name, strings.Join(present, ", "))
	}

	c := Classification{Kind: AttributeBasic, Column: a.Name}
	if d.Column != "" {
		c.Column = d.Column
	}

	switch {
	case d.ID:
		if a.IsCollection() {
			return Classification{}, errors.Wrapf(api.ErrInvalidEntityDefinition,
				"id attribute %s.%s must not be a collection", owner.Class, a.Name)
		}
		c.Kind = AttributeID
	case d.Embedded:
		emb := a.Type.Embeddable
		if emb != nil && emb.Role == descriptor.RoleEmbeddable {
			c.Kind = AttributeEmbedded
			c.Nested = true
		} else {
			log.WithFields(log.Fields{
				"class":     owner.Class,
				"attribute": a.Name,
			}).Warn("embedded directive on a non-embeddable type, stored as basic")
		}
	case d.ElementCollection:
		if !a.IsCollection() {
			return Classification{}, errors.Wrapf(api.ErrInvalidEntityDefinition,
				"element collection %s.%s is not a collection", owner.Class, a.Name)
		}
		c.Kind = AttributeElementCollection
		c.Nested = !a.Type.Kind.IsBasic()
	case d.HasRelation():
		c.Kind = AttributeRelation
	}
	return c, nil
}
