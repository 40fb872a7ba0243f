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
	"context"
	"os"
	"time"

	"github.com/devbyt/Kundera/pkg/common/config"
	"github.com/devbyt/Kundera/pkg/common/logging"
	"github.com/devbyt/Kundera/pkg/storage/connectors/boltdb"
	"github.com/devbyt/Kundera/pkg/storage/connectors/cassandra"

	log "github.com/sirupsen/logrus"
	"github.com/uber-go/tally/v4"
	"gopkg.in/alecthomas/kingpin.v2"
)

var (
	version string
	app     = kingpin.New("ormctl", "Tool to inspect and query entities of a persistence unit")

	debug = app.Flag(
		"debug", "enable debug mode (print metrics and store statements)").
		Short('d').
		Default("false").
		Envar("ENABLE_DEBUG_LOGGING").
		Bool()

	configFiles = app.Flag(
		"config",
		"YAML config files (can be provided multiple times to merge configs)").
		Short('c').
		Required().
		ExistingFiles()

	unitName = app.Flag(
		"unit", "Persistence unit, the first configured unit by default").
		Short('u').
		Default("").
		Envar("ORM_UNIT").
		String()

	storeType = app.Flag(
		"store", "Store type: memory, boltdb or cassandra").
		Default("").
		Envar("ORM_STORE").
		String()

	boltPath = app.Flag(
		"bolt-path", "BoltDB file path").
		Default("").
		Envar("BOLT_PATH").
		String()

	cassandraHosts = app.Flag(
		"cassandra-hosts", "Cassandra hosts").
		Envar("CASSANDRA_HOSTS").
		Strings()

	cassandraStore = app.Flag(
		"cassandra-store", "Cassandra store name").
		Default("").
		Envar("CASSANDRA_STORE").
		String()

	cassandraPort = app.Flag(
		"cassandra-port", "Cassandra port to connect").
		Default("0").
		Envar("CASSANDRA_PORT").
		Int()

	timeout = app.Flag(
		"timeout", "Timeout of the command").
		Default("1m").
		Duration()

	describeCmd    = app.Command("describe", "Print the compiled metadata of entities")
	describeEntity = describeCmd.Arg("entity", "entity name").String()

	queriesCmd = app.Command("queries", "List the named queries")

	loadCmd    = app.Command("load", "Persist the entities of a JSON array file")
	loadEntity = loadCmd.Arg("entity", "entity name").Required().String()
	loadFile   = loadCmd.Arg("file", "JSON file").Required().ExistingFile()

	getCmd    = app.Command("get", "Print an entity and its relations")
	getEntity = getCmd.Arg("entity", "entity name").Required().String()
	getID     = getCmd.Arg("id", "entity id").Required().String()

	scanCmd       = app.Command("scan", "Print the entities of a key range or of row keys")
	scanEntity    = scanCmd.Arg("entity", "entity name").Required().String()
	scanStart     = scanCmd.Flag("start", "first id of the range").String()
	scanEnd       = scanCmd.Flag("end", "exclusive end id of the range").String()
	scanKeys      = scanCmd.Flag("key", "row key, can be repeated").Strings()
	scanWhere     = scanCmd.Flag("where", "filter as column:op:value, can be repeated").Strings()
	scanAny       = scanCmd.Flag("any", "match any filter instead of all").Bool()
	scanColumns   = scanCmd.Flag("column", "projected column, can be repeated").Strings()
	scanFetchSize = scanCmd.Flag("fetch-size", "maximum number of entities").Default("100").Int()
)

func main() {
	app.Version(version)
	app.HelpFlag.Short('h')
	cmd := kingpin.MustParse(app.Parse(os.Args[1:]))

	// entities go to stdout
	log.SetOutput(os.Stderr)

	initialLevel := log.InfoLevel
	if *debug {
		initialLevel = log.DebugLevel
	}
	log.SetLevel(initialLevel)
	log.SetFormatter(newFormatter(nil))
	log.WithField("files", *configFiles).Debug("Loading ormctl config")

	var cfg Config
	if err := config.Parse(&cfg, *configFiles...); err != nil {
		log.WithField("error", err).Fatal("Cannot parse yaml config")
	}
	log.SetFormatter(newFormatter(cfg.SecretTables))
	applyFlags(&cfg)
	log.WithFields(log.Fields{
		"store": cfg.Store.Type,
		"units": len(cfg.Units),
	}).Debug("Loaded ormctl config")

	scope, closer := tally.NewRootScope(tally.ScopeOptions{
		Prefix:   app.Name,
		Reporter: logReporter{},
	}, 0)
	defer closer.Close()

	cmds, err := newCommands(&cfg, *unitName, os.Stdout, scope)
	if err != nil {
		log.WithError(err).Fatal("Could not create orm client")
	}
	defer cmds.client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	switch cmd {
	case describeCmd.FullCommand():
		err = cmds.describe(*describeEntity)
	case queriesCmd.FullCommand():
		err = cmds.listQueries()
	case loadCmd.FullCommand():
		_, err = cmds.load(ctx, *loadEntity, *loadFile)
	case getCmd.FullCommand():
		err = cmds.get(ctx, *getEntity, *getID)
	case scanCmd.FullCommand():
		var n int
		n, err = cmds.scan(ctx, *scanEntity, scanOptions{
			Start:     *scanStart,
			End:       *scanEnd,
			Keys:      *scanKeys,
			Where:     *scanWhere,
			Any:       *scanAny,
			Columns:   *scanColumns,
			FetchSize: *scanFetchSize,
		})
		log.WithField("entities", n).Debug("scan done")
	}
	if err != nil {
		// log.Fatal would skip the deferred closes
		log.WithError(err).Error("Command failed")
		cmds.client.Close()
		closer.Close()
		os.Exit(1)
	}
}

func newFormatter(secretTables []string) log.Formatter {
	return &logging.LogFieldFormatter{
		Formatter: &logging.SecretsFormatter{
			JSONFormatter: &log.JSONFormatter{TimestampFormat: time.RFC3339Nano},
			Tables:        secretTables,
		},
		Fields: log.Fields{
			logging.AppLogField: app.Name,
		},
	}
}

// applyFlags overrides the store config with the command line flags.
func applyFlags(cfg *Config) {
	if *storeType != "" {
		cfg.Store.Type = *storeType
	}
	if *boltPath != "" {
		if cfg.Store.BoltDB == nil {
			cfg.Store.BoltDB = &boltdb.Config{}
		}
		cfg.Store.BoltDB.Path = *boltPath
	}
	if cfg.Store.Cassandra == nil {
		return
	}
	if cfg.Store.Cassandra.CassandraConn == nil {
		cfg.Store.Cassandra.CassandraConn = &cassandra.CassandraConn{}
	}
	if *cassandraHosts != nil && len(*cassandraHosts) > 0 {
		cfg.Store.Cassandra.CassandraConn.ContactPoints = *cassandraHosts
	}
	if *cassandraStore != "" {
		cfg.Store.Cassandra.StoreName = *cassandraStore
	}
	if *cassandraPort != 0 {
		cfg.Store.Cassandra.CassandraConn.Port = *cassandraPort
	}
}
