//
// Copyright (c) 2019, 2025 Oracle and/or its affiliates. All rights reserved.
//
// Licensed under the Universal Permissive License v 1.0 as shown at
//  https://oss.oracle.com/licenses/upl/
//

/*
Package remote provides the client for LanceDB Cloud databases.

A Connection is created for a database URI of the form db://<name>:

	conn, err := remote.Connect("db://dev", remote.Config{APIKey: "sk-..."})
	if err != nil {
		return err
	}
	defer conn.Close()

	names, err := conn.TableNames(ctx)

Every request a Connection sends carries a fresh x-request-id. Failed attempts
are classified, and transient failures (connection errors, read errors and the
retryable status codes, 429 and 5xx by default) are retried under the limits
of the RetryConfig, waiting between attempts as the BackoffPolicy says.

ConnectAsync returns an AsyncConnection whose operations return a Future
instead of blocking the caller. Both share the same retry and error handling.
*/
package remote
