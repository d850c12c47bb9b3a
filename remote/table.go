//
// Copyright (c) 2019, 2025 Oracle and/or its affiliates. All rights reserved.
//
// Licensed under the Universal Permissive License v 1.0 as shown at
//  https://oss.oracle.com/licenses/upl/
//

package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/lancedb/lancedb-go-sdk/remote/internal/sdkutil"
	"github.com/lancedb/lancedb-go-sdk/remote/remoteerr"
)

// TableDescription represents the result of a Describe() operation.
type TableDescription struct {
	// Version specifies the current version of the table.
	Version int64 `json:"version"`

	// Schema specifies the schema of the table.
	Schema TableSchema `json:"schema"`
}

// TableSchema represents the schema of a table.
type TableSchema struct {
	Fields []SchemaField `json:"fields"`
}

// SchemaField represents a column of a table.
type SchemaField struct {
	Name string `json:"name"`

	// Type is the JSON representation of the Arrow data type.
	Type json.RawMessage `json:"type"`

	Nullable bool `json:"nullable"`
}

// table is the state shared by RemoteTable and AsyncRemoteTable.
// It holds no resources, the connection is not owned.
type table struct {
	conn *conn
	name string
}

func (t *table) describe(ctx context.Context) (*TableDescription, error) {
	desc := &TableDescription{}
	err := t.conn.retrier.execute(ctx, &request{
		op:     "describe",
		method: http.MethodPost,
		path:   sdkutil.TablePath(t.name, "describe"),
	}, decodeJSON(desc))
	if err != nil {
		return nil, err
	}
	return desc, nil
}

type countRowsBody struct {
	Predicate string `json:"predicate,omitempty"`
}

func (t *table) countRows(ctx context.Context, filter string) (int64, error) {
	body, err := json.Marshal(countRowsBody{Predicate: filter})
	if err != nil {
		return 0, remoteerr.NewConfigErrorWithCause(err, "cannot encode count_rows request")
	}

	var n int64
	err = t.conn.retrier.execute(ctx, &request{
		op:     "count_rows",
		method: http.MethodPost,
		path:   sdkutil.TablePath(t.name, "count_rows"),
		body:   body,
	}, decodeJSON(&n))
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (t *table) qualifiedName() string {
	return t.conn.database + "." + t.name
}

// RemoteTable represents a table of a Connection. Its operations block until
// they complete.
type RemoteTable struct {
	t *table
}

// Name returns the name of the table.
func (tbl *RemoteTable) Name() string {
	return tbl.t.name
}

// Describe returns the version and schema of the table.
func (tbl *RemoteTable) Describe(ctx context.Context) (*TableDescription, error) {
	return runWith(tbl.t.conn.exec, func() (*TableDescription, error) {
		return tbl.t.describe(ctx)
	}).wait()
}

// CountRows returns the number of rows matching the filter, or of all rows
// if filter is empty.
func (tbl *RemoteTable) CountRows(ctx context.Context, filter string) (int64, error) {
	return runWith(tbl.t.conn.exec, func() (int64, error) {
		return tbl.t.countRows(ctx, filter)
	}).wait()
}

// Search returns a vector search Query for the specified vector.
// The query is sent when it is executed.
func (tbl *RemoteTable) Search(vector []float32) *Query {
	return &Query{q: newQuery(tbl.t, vector)}
}

// String returns "RemoteTable(<database>.<table>)".
func (tbl *RemoteTable) String() string {
	return fmt.Sprintf("RemoteTable(%s)", tbl.t.qualifiedName())
}

// AsyncRemoteTable represents a table of an AsyncConnection. Its operations
// return a Future.
type AsyncRemoteTable struct {
	t *table
}

// Name returns the name of the table.
func (tbl *AsyncRemoteTable) Name() string {
	return tbl.t.name
}

// Describe returns the version and schema of the table.
func (tbl *AsyncRemoteTable) Describe(ctx context.Context) *Future[*TableDescription] {
	return runWith(tbl.t.conn.exec, func() (*TableDescription, error) {
		return tbl.t.describe(ctx)
	})
}

// CountRows returns the number of rows matching the filter, or of all rows
// if filter is empty.
func (tbl *AsyncRemoteTable) CountRows(ctx context.Context, filter string) *Future[int64] {
	return runWith(tbl.t.conn.exec, func() (int64, error) {
		return tbl.t.countRows(ctx, filter)
	})
}

// Search returns a vector search AsyncQuery for the specified vector.
func (tbl *AsyncRemoteTable) Search(vector []float32) *AsyncQuery {
	return &AsyncQuery{q: newQuery(tbl.t, vector)}
}

// String returns "AsyncRemoteTable(<database>.<table>)".
func (tbl *AsyncRemoteTable) String() string {
	return fmt.Sprintf("AsyncRemoteTable(%s)", tbl.t.qualifiedName())
}
