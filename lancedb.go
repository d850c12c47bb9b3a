//
// Copyright (c) 2019, 2025 Oracle and/or its affiliates. All rights reserved.
//
// Licensed under the Universal Permissive License v 1.0 as shown at
//  https://oss.oracle.com/licenses/upl/
//

/*
This is the Go client for LanceDB Cloud.

The client lives in package remote. Connect returns a Connection whose
operations block until they complete, ConnectAsync returns an
AsyncConnection whose operations return a Future. Both send requests with
per-attempt request ids and retry failures according to a RetryConfig.

Installation

	go get github.com/lancedb/lancedb-go-sdk

Configuration

See remote.Config and remote.ClientConfig. Retry and timeout settings may
also be given as a mapping (remote.Config.ClientConfigMap) or through the
LANCE_CLIENT_* environment variables.

Full Example

See the examples directory for programs that connect to a database, list
its tables and run a vector search.
*/
package lancedb
