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
	"github.com/devbyt/Kundera/pkg/storage/connectors/boltdb"
	"github.com/devbyt/Kundera/pkg/storage/connectors/cassandra"
	"github.com/devbyt/Kundera/pkg/storage/connectors/memory"
	"github.com/devbyt/Kundera/pkg/storage/orm"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/uber-go/tally/v4"
)

// newConnector creates the connector selected by the store config.
func newConnector(cfg *Config, scope tally.Scope) (orm.Connector, error) {
	switch cfg.Store.Type {
	case storeMemory:
		return memory.NewConnector(cfg.Store.Memory, scope), nil
	case storeBoltDB:
		if cfg.Store.BoltDB == nil {
			return nil, errors.New("boltdb store config is missing")
		}
		conn, err := boltdb.NewConnector(cfg.Store.BoltDB, scope)
		if err != nil {
			return nil, err
		}
		return conn, nil
	case storeCassandra:
		cc := cfg.Store.Cassandra
		if cc == nil || cc.CassandraConn == nil {
			return nil, errors.New("cassandra store config is missing")
		}
		if cfg.Secrets.CassandraUsername != "" {
			log.Info("using cassandra credentials from secrets")
			cc.CassandraConn.Username = cfg.Secrets.CassandraUsername
			cc.CassandraConn.Password = cfg.Secrets.CassandraPassword
		}
		return cassandra.NewCassandraConnector(cc, scope)
	}
	return nil, errors.Errorf("unknown store type %q", cfg.Store.Type)
}
