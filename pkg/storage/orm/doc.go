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

/*
Package orm is the entity manager layer on top of the compiled entity
metadata. There are three major components of this layer:

  * Entity - an annotated Go struct or an entity.Record whose class was
             compiled into metadata.EntityMetadata by the processor
             package. The metadata maps every attribute to a column of the
             entity table and every relation to a foreign key column or a
             join table.

  * Client - is the interface exposed to the application layer. It
             persists, loads, removes and scans entities of one persistence
             unit and resolves their relations.

  * Connector - is the interface to the wide-column store, implemented by
             the memory, boltdb and cassandra connectors. Connectors read
             and write rows keyed by the id column and serve scans through
             a scan.StoreHandle.
*/
package orm
