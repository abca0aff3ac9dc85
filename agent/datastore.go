// Copyright 2020 New Relic Corporation. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package agent

import "github.com/tracehouse/apm-agent-core/internal"

// DatastoreProduct identifies a datastore vendor for a DatastoreSegment's
// Product field; its canonical name becomes the vendor segment of the
// emitted Datastore/ metrics (spec §4.6.1).
type DatastoreProduct string

// Datastore names used across New Relic agents.
const (
	DatastoreCassandra     DatastoreProduct = "Cassandra"
	DatastoreCouchDB       DatastoreProduct = "CouchDB"
	DatastoreDerby         DatastoreProduct = "Derby"
	DatastoreDynamoDB      DatastoreProduct = "DynamoDB"
	DatastoreElasticsearch DatastoreProduct = "Elasticsearch"
	DatastoreFirebird      DatastoreProduct = "Firebird"
	DatastoreIBMDB2        DatastoreProduct = "IBMDB2"
	DatastoreInformix      DatastoreProduct = "Informix"
	DatastoreMemcached     DatastoreProduct = "Memcached"
	DatastoreMongoDB       DatastoreProduct = "MongoDB"
	DatastoreMySQL         DatastoreProduct = "MySQL"
	DatastoreMSSQL         DatastoreProduct = "MSSQL"
	DatastoreNeptune       DatastoreProduct = "Neptune"
	DatastoreOracle        DatastoreProduct = "Oracle"
	DatastorePostgres      DatastoreProduct = "Postgres"
	DatastoreRedis         DatastoreProduct = "Redis"
	DatastoreRiak          DatastoreProduct = "Riak"
	DatastoreSolr          DatastoreProduct = "Solr"
	DatastoreSQLite        DatastoreProduct = "SQLite"
	DatastoreTarantool     DatastoreProduct = "Tarantool"
	DatastoreVoltDB        DatastoreProduct = "VoltDB"
	DatastoreSnowflake     DatastoreProduct = "Snowflake"
	// DatastoreOther maps to the internal Other kind, whose display name
	// in the emitted metrics is the literal "Other". A Product value
	// outside this list is used verbatim as the display name (spec
	// §4.6.1 step 3).
	DatastoreOther DatastoreProduct = "Other"
)

func (p DatastoreProduct) toInternal() internal.DatastoreVendor {
	if p == DatastoreOther || p == "" {
		return internal.DatastoreOther
	}
	return internal.DatastoreVendor(p)
}
