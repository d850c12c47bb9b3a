//
// Copyright (c) 2019, 2025 Oracle and/or its affiliates. All rights reserved.
//
// Licensed under the Universal Permissive License v 1.0 as shown at
//  https://oss.oracle.com/licenses/upl/
//

package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/http"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/lancedb/lancedb-go-sdk/remote/httputil"
	"github.com/lancedb/lancedb-go-sdk/remote/internal/sdkutil"
	"github.com/lancedb/lancedb-go-sdk/remote/remoteerr"
)

// The default number of results of a vector search.
const defaultQueryLimit = 10

// queryBody is the JSON body of a query request.
type queryBody struct {
	Vector       []float32 `json:"vector"`
	K            int       `json:"k"`
	Columns      []string  `json:"columns,omitempty"`
	Filter       string    `json:"filter,omitempty"`
	Prefilter    bool      `json:"prefilter"`
	NProbes      int       `json:"nprobes,omitempty"`
	RefineFactor int       `json:"refine_factor,omitempty"`
	DistanceType string    `json:"distance_type,omitempty"`
	VectorColumn string    `json:"vector_column,omitempty"`
}

// query is the state shared by Query and AsyncQuery.
type query struct {
	table  *table
	params queryBody
}

func newQuery(t *table, vector []float32) *query {
	return &query{
		table: t,
		params: queryBody{
			Vector: append([]float32(nil), vector...),
			K:      defaultQueryLimit,
		},
	}
}

// checkVector returns a ConfigError if the vector has a value that cannot be
// sent, which is NaN or an infinity.
func checkVector(vector []float32) error {
	for i, v := range vector {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return remoteerr.NewConfigError("query vector has an invalid value %v at index %d", v, i)
		}
	}
	return nil
}

func (q *query) execute(ctx context.Context) (*ResultStream, error) {
	if err := checkVector(q.params.Vector); err != nil {
		return nil, err
	}
	body, err := json.Marshal(q.params)
	if err != nil {
		return nil, remoteerr.NewConfigErrorWithCause(err, "cannot encode query")
	}

	var stream *ResultStream
	err = q.table.conn.retrier.execute(ctx, &request{
		op:     "query",
		method: http.MethodPost,
		path:   sdkutil.TablePath(q.table.name, "query"),
		body:   body,
		accept: sdkutil.ArrowStreamContentType,
	}, func(resp *httputil.Response) error {
		var err error
		stream, err = readArrowStream(resp.Body)
		return err
	})
	if err != nil {
		return nil, err
	}
	return stream, nil
}

func (q *query) toList(ctx context.Context) ([]map[string]interface{}, error) {
	stream, err := q.execute(ctx)
	if err != nil {
		return nil, err
	}
	defer stream.Release()

	rows := []map[string]interface{}{}
	for stream.Next() {
		rows = appendRows(rows, stream.Record())
	}
	return rows, stream.Err()
}

// appendRows appends the rows of rec as column name to value maps.
func appendRows(rows []map[string]interface{}, rec arrow.Record) []map[string]interface{} {
	numCols := int(rec.NumCols())
	for i := 0; i < int(rec.NumRows()); i++ {
		row := make(map[string]interface{}, numCols)
		for j := 0; j < numCols; j++ {
			row[rec.ColumnName(j)] = rec.Column(j).GetOneForMarshal(i)
		}
		rows = append(rows, row)
	}
	return rows
}

// readArrowStream decodes all record batches of an Arrow IPC stream.
func readArrowStream(data []byte) (*ResultStream, error) {
	rdr, err := ipc.NewReader(bytes.NewReader(data), ipc.WithAllocator(memory.DefaultAllocator))
	if err != nil {
		return nil, err
	}
	defer rdr.Release()

	stream := &ResultStream{schema: rdr.Schema(), cur: -1}
	for rdr.Next() {
		rec := rdr.Record()
		rec.Retain()
		stream.records = append(stream.records, rec)
	}
	if err = rdr.Err(); err != nil {
		stream.Release()
		return nil, err
	}
	return stream, nil
}

// ResultStream represents the record batches returned by a query, in the
// order the server sent them.
//
// The stream must be released with Release when it is no longer needed.
type ResultStream struct {
	schema  *arrow.Schema
	records []arrow.Record
	cur     int
}

// Schema returns the schema of the results.
func (s *ResultStream) Schema() *arrow.Schema {
	return s.schema
}

// Next advances to the next record batch. It returns false when there are
// no more batches.
func (s *ResultStream) Next() bool {
	if s.cur+1 >= len(s.records) {
		s.cur = len(s.records)
		return false
	}
	s.cur++
	return true
}

// Record returns the current record batch. It is valid until Release is
// called; call Retain on it to keep it longer.
func (s *ResultStream) Record() arrow.Record {
	if s.cur < 0 || s.cur >= len(s.records) {
		return nil
	}
	return s.records[s.cur]
}

// Err returns the error that stopped the iteration. The stream is decoded
// before Execute returns, so this is always nil.
func (s *ResultStream) Err() error {
	return nil
}

// NumRows returns the total number of rows in the stream.
func (s *ResultStream) NumRows() int64 {
	var n int64
	for _, rec := range s.records {
		n += rec.NumRows()
	}
	return n
}

// Release releases the record batches of the stream.
func (s *ResultStream) Release() {
	for _, rec := range s.records {
		rec.Release()
	}
	s.records = nil
	s.cur = -1
}

// Query represents a vector search on a RemoteTable. The builder methods
// modify and return the Query. Every call to Execute or ToList sends a new
// request.
type Query struct {
	q *query
}

// Limit sets the maximum number of results. The default is 10.
func (q *Query) Limit(k int) *Query {
	q.q.params.K = k
	return q
}

// Select sets the columns to return.
func (q *Query) Select(columns ...string) *Query {
	q.q.params.Columns = append([]string(nil), columns...)
	return q
}

// Where sets an SQL filter applied to the results.
func (q *Query) Where(filter string) *Query {
	q.q.params.Filter = filter
	return q
}

// Prefilter sets whether the filter is applied before the vector search.
func (q *Query) Prefilter(prefilter bool) *Query {
	q.q.params.Prefilter = prefilter
	return q
}

// NProbes sets the number of partitions of the index to search.
func (q *Query) NProbes(n int) *Query {
	q.q.params.NProbes = n
	return q
}

// RefineFactor sets the refine factor of the search.
func (q *Query) RefineFactor(n int) *Query {
	q.q.params.RefineFactor = n
	return q
}

// DistanceType sets the distance metric, such as "l2", "cosine" or "dot".
func (q *Query) DistanceType(distanceType string) *Query {
	q.q.params.DistanceType = distanceType
	return q
}

// VectorColumn sets the vector column to search.
func (q *Query) VectorColumn(column string) *Query {
	q.q.params.VectorColumn = column
	return q
}

// Execute sends the query and returns the results.
func (q *Query) Execute(ctx context.Context) (*ResultStream, error) {
	snapshot := *q.q
	return runWith(q.q.table.conn.exec, func() (*ResultStream, error) {
		return snapshot.execute(ctx)
	}).wait()
}

// ToList sends the query and returns the results as rows mapping column
// names to values.
func (q *Query) ToList(ctx context.Context) ([]map[string]interface{}, error) {
	snapshot := *q.q
	return runWith(q.q.table.conn.exec, func() ([]map[string]interface{}, error) {
		return snapshot.toList(ctx)
	}).wait()
}

// AsyncQuery represents a vector search on an AsyncRemoteTable.
type AsyncQuery struct {
	q *query
}

// Limit sets the maximum number of results. The default is 10.
func (q *AsyncQuery) Limit(k int) *AsyncQuery {
	q.q.params.K = k
	return q
}

// Select sets the columns to return.
func (q *AsyncQuery) Select(columns ...string) *AsyncQuery {
	q.q.params.Columns = append([]string(nil), columns...)
	return q
}

// Where sets an SQL filter applied to the results.
func (q *AsyncQuery) Where(filter string) *AsyncQuery {
	q.q.params.Filter = filter
	return q
}

// Prefilter sets whether the filter is applied before the vector search.
func (q *AsyncQuery) Prefilter(prefilter bool) *AsyncQuery {
	q.q.params.Prefilter = prefilter
	return q
}

// NProbes sets the number of partitions of the index to search.
func (q *AsyncQuery) NProbes(n int) *AsyncQuery {
	q.q.params.NProbes = n
	return q
}

// RefineFactor sets the refine factor of the search.
func (q *AsyncQuery) RefineFactor(n int) *AsyncQuery {
	q.q.params.RefineFactor = n
	return q
}

// DistanceType sets the distance metric, such as "l2", "cosine" or "dot".
func (q *AsyncQuery) DistanceType(distanceType string) *AsyncQuery {
	q.q.params.DistanceType = distanceType
	return q
}

// VectorColumn sets the vector column to search.
func (q *AsyncQuery) VectorColumn(column string) *AsyncQuery {
	q.q.params.VectorColumn = column
	return q
}

// Execute sends the query and returns the Future of the results.
func (q *AsyncQuery) Execute(ctx context.Context) *Future[*ResultStream] {
	snapshot := *q.q
	return runWith(q.q.table.conn.exec, func() (*ResultStream, error) {
		return snapshot.execute(ctx)
	})
}

// ToList sends the query and returns the Future of the rows.
func (q *AsyncQuery) ToList(ctx context.Context) *Future[[]map[string]interface{}] {
	snapshot := *q.q
	return runWith(q.q.table.conn.exec, func() ([]map[string]interface{}, error) {
		return snapshot.toList(ctx)
	})
}
