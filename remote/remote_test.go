//
// Copyright (c) 2019, 2025 Oracle and/or its affiliates. All rights reserved.
//
// Licensed under the Universal Permissive License v 1.0 as shown at
//  https://oss.oracle.com/licenses/upl/
//

package remote_test

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/lancedb/lancedb-go-sdk/internal/test"
	"github.com/lancedb/lancedb-go-sdk/remote"
	"github.com/lancedb/lancedb-go-sdk/remote/internal/sdkutil"
	"github.com/lancedb/lancedb-go-sdk/remote/logger"
	"github.com/lancedb/lancedb-go-sdk/remote/remoteerr"
)

// RemoteTestSuite runs the client against a mock LanceDB Cloud server.
type RemoteTestSuite struct {
	suite.Suite
	server *test.MockServer
}

func (suite *RemoteTestSuite) SetupTest() {
	suite.server = test.NewMockServer(nil)
}

func (suite *RemoteTestSuite) TearDownTest() {
	suite.server.Close()
}

// config returns a Config for the mock server that retries without delay.
func (suite *RemoteTestSuite) config() remote.Config {
	return remote.Config{
		APIKey:       "sk-test",
		HostOverride: suite.server.URL,
		ClientConfig: &remote.ClientConfig{
			RetryConfig: remote.RetryConfig{Backoff: remote.FixedBackoff(time.Millisecond)},
		},
		LoggingConfig: remote.LoggingConfig{DisableLogging: true},
	}
}

func (suite *RemoteTestSuite) connect(cfg remote.Config) *remote.Connection {
	db, err := remote.Connect("db://dev", cfg)
	suite.Require().NoErrorf(err, "Connect() got error %v", err)
	suite.T().Cleanup(func() { db.Close() })
	return db
}

func (suite *RemoteTestSuite) openTable(db *remote.Connection, name string) *remote.RemoteTable {
	tbl, err := db.OpenTable(name)
	suite.Require().NoError(err)
	return tbl
}

func (suite *RemoteTestSuite) TestTableNamesEmpty() {
	suite.server.SetHandler(test.RespondJSON(`{"tables": []}`))
	db := suite.connect(suite.config())

	names, err := db.TableNames(context.Background())
	suite.NoError(err)
	suite.Equal([]string{}, names)
	suite.Equal(1, suite.server.NumRequests())

	req := suite.server.LastRequest()
	suite.Equal(http.MethodGet, req.Method)
	suite.Equal("/v1/table/", req.Path)
}

func (suite *RemoteTestSuite) TestTableNamesPaging() {
	suite.server.SetHandler(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page_token") {
		case "":
			test.RespondJSON(`{"tables": ["a", "b"], "page_token": "p2"}`)(w, r)
		case "p2":
			test.RespondJSON(`{"tables": ["c"], "page_token": "p3"}`)(w, r)
		default:
			test.RespondJSON(`{"tables": []}`)(w, r)
		}
	})
	db := suite.connect(suite.config())

	names, err := db.TableNames(context.Background())
	suite.NoError(err)
	suite.Equal([]string{"a", "b", "c"}, names)
	suite.Equal(3, suite.server.NumRequests())

	res, err := db.ListTables(context.Background(), &remote.ListTablesRequest{Limit: 2})
	suite.Require().NoError(err)
	suite.Equal([]string{"a", "b"}, res.Tables)
	suite.Equal("p2", res.PageToken)
	suite.Equal("2", suite.server.LastRequest().Query.Get("limit"))

	_, err = db.ListTables(context.Background(), &remote.ListTablesRequest{Limit: -1})
	suite.Truef(remoteerr.IsConfigError(err), "a negative limit should be rejected, got %v", err)
}

func (suite *RemoteTestSuite) TestNonRetryableStatus() {
	suite.server.SetHandler(test.RespondWith(507, "Internal Server Error"))
	db := suite.connect(suite.config())

	_, err := db.TableNames(context.Background())
	suite.False(remoteerr.IsRetryError(err), "status 507 should not be retried")
	httpErr, ok := remoteerr.AsHttpError(err)
	suite.Require().Truef(ok, "expect an HttpError, got %v", err)
	suite.Equal(507, httpErr.StatusCode)
	suite.Equal("Internal Server Error", httpErr.Message)
	suite.Equal(suite.server.LastRequest().Header.Get("x-request-id"), httpErr.RequestID)
	suite.Equal(1, suite.server.NumRequests())
}

func (suite *RemoteTestSuite) TestClientErrorIsNotRetried() {
	for _, code := range []int{400, 401, 403, 404} {
		suite.server.SetHandler(test.RespondWith(code, ""))
		n := suite.server.NumRequests()
		db := suite.connect(suite.config())

		_, err := db.TableNames(context.Background())
		httpErr, ok := remoteerr.AsHttpError(err)
		if suite.Truef(ok, "status %d: expect an HttpError, got %v", code, err) {
			suite.Equal(code, httpErr.StatusCode)
		}
		suite.Equalf(n+1, suite.server.NumRequests(), "status %d should be sent once", code)
	}
}

func (suite *RemoteTestSuite) TestRetryExhausted() {
	suite.server.SetHandler(test.RespondWith(429, "Try again later"))
	cfg := suite.config()
	cfg.ClientConfig.RetryConfig.Retries = remote.Int(2)
	db := suite.connect(cfg)

	_, err := db.TableNames(context.Background())
	var retryErr *remoteerr.RetryError
	suite.Require().ErrorAs(err, &retryErr)
	suite.Equal(3, suite.server.NumRequests())
	suite.Equal(3, retryErr.NumAttempts)
	suite.Equal(2, retryErr.RequestRetries)
	suite.Equal(429, retryErr.StatusCode)
	suite.Equal("Try again later", retryErr.Cause.Message)
	suite.Equal(suite.server.LastRequest().Header.Get("x-request-id"), retryErr.RequestID)

	seen := map[string]bool{}
	for _, req := range suite.server.Requests() {
		seen[req.Header.Get("x-request-id")] = true
	}
	suite.Len(seen, 3, "every attempt should have its own request id")
}

func (suite *RemoteTestSuite) TestRetryThenSucceed() {
	suite.server.SetHandler(test.Sequence(
		test.RespondWith(503, ""),
		test.RespondWith(502, ""),
		test.RespondJSON(`{"tables": ["t"]}`),
	))
	db := suite.connect(suite.config())

	names, err := db.TableNames(context.Background())
	suite.NoError(err)
	suite.Equal([]string{"t"}, names)
	suite.Equal(3, suite.server.NumRequests())
}

func (suite *RemoteTestSuite) TestHeaders() {
	suite.server.SetHandler(test.RespondJSON(`{"tables": []}`))
	db := suite.connect(suite.config())

	_, err := db.TableNames(context.Background())
	suite.Require().NoError(err)

	h := suite.server.LastRequest().Header
	id, err := uuid.Parse(h.Get("x-request-id"))
	if suite.NoErrorf(err, "x-request-id %q is not a UUID", h.Get("x-request-id")) {
		suite.Equal(uuid.Version(4), id.Version())
		suite.Equal(uuid.RFC4122, id.Variant())
	}
	suite.Equal("LanceDB-Go-Client/"+sdkutil.SDKVersion(), h.Get("User-Agent"))
	suite.Equal("sk-test", h.Get("x-api-key"))
	suite.Equal("dev", h.Get("x-lancedb-database"))
}

func (suite *RemoteTestSuite) TestCustomUserAgent() {
	suite.server.SetHandler(test.RespondJSON(`{"tables": []}`))
	cfg := suite.config()
	cfg.ClientConfig.UserAgent = "my-app/2.0"
	db := suite.connect(cfg)

	_, err := db.TableNames(context.Background())
	suite.Require().NoError(err)
	suite.Equal("my-app/2.0", suite.server.LastRequest().Header.Get("User-Agent"))
}

func (suite *RemoteTestSuite) TestAPIKeyFromEnvironment() {
	suite.T().Setenv("LANCEDB_API_KEY", "sk-env")
	suite.server.SetHandler(test.RespondJSON(`{"tables": []}`))
	cfg := suite.config()
	cfg.APIKey = ""
	db := suite.connect(cfg)

	_, err := db.TableNames(context.Background())
	suite.Require().NoError(err)
	suite.Equal("sk-env", suite.server.LastRequest().Header.Get("x-api-key"))
}

func (suite *RemoteTestSuite) TestQueryToList() {
	stream, err := test.Int64Stream("id", []int64{1, 2, 3})
	suite.Require().NoError(err)
	suite.server.SetHandler(test.RespondArrow(stream))
	db := suite.connect(suite.config())
	tbl := suite.openTable(db, "items")

	rows, err := tbl.Search([]float32{0.5, 1}).
		Limit(3).
		Select("id").
		Where("id > 0").
		Prefilter(true).
		NProbes(20).
		RefineFactor(5).
		DistanceType("cosine").
		VectorColumn("vec").
		ToList(context.Background())
	suite.Require().NoError(err)
	suite.Equal([]map[string]interface{}{
		{"id": int64(1)},
		{"id": int64(2)},
		{"id": int64(3)},
	}, rows)

	req := suite.server.LastRequest()
	suite.Equal(http.MethodPost, req.Method)
	suite.Equal("/v1/table/items/query/", req.Path)
	suite.Equal(test.ArrowStreamContentType, req.Header.Get("Accept"))
	suite.Equal("application/json", req.Header.Get("Content-Type"))

	var body map[string]interface{}
	suite.Require().NoError(json.Unmarshal(req.Body, &body))
	suite.Equal(map[string]interface{}{
		"vector":        []interface{}{0.5, 1.0},
		"k":             3.0,
		"columns":       []interface{}{"id"},
		"filter":        "id > 0",
		"prefilter":     true,
		"nprobes":       20.0,
		"refine_factor": 5.0,
		"distance_type": "cosine",
		"vector_column": "vec",
	}, body)
}

func (suite *RemoteTestSuite) TestQueryDefaults() {
	stream, err := test.Int64Stream("id")
	suite.Require().NoError(err)
	suite.server.SetHandler(test.RespondArrow(stream))
	db := suite.connect(suite.config())

	rows, err := suite.openTable(db, "items").Search([]float32{1}).ToList(context.Background())
	suite.Require().NoError(err)
	suite.Empty(rows)

	var body map[string]interface{}
	suite.Require().NoError(json.Unmarshal(suite.server.LastRequest().Body, &body))
	suite.Equal(10.0, body["k"])
	suite.NotContains(body, "filter")
}

func (suite *RemoteTestSuite) TestQueryExecute() {
	stream, err := test.Int64Stream("id", []int64{1, 2}, []int64{3})
	suite.Require().NoError(err)
	suite.server.SetHandler(test.RespondArrow(stream))
	db := suite.connect(suite.config())

	rs, err := suite.openTable(db, "items").Search([]float32{1}).Execute(context.Background())
	suite.Require().NoError(err)
	defer rs.Release()

	suite.Equal("id", rs.Schema().Field(0).Name)
	suite.Equal(int64(3), rs.NumRows())

	var batches []int64
	for rs.Next() {
		batches = append(batches, rs.Record().NumRows())
	}
	suite.NoError(rs.Err())
	suite.Equal([]int64{2, 1}, batches)
}

func (suite *RemoteTestSuite) TestQueryWithDistances() {
	stream, err := test.IDVectorStream([]int64{7, 8}, []float64{0.25, 0.5})
	suite.Require().NoError(err)
	suite.server.SetHandler(test.RespondArrow(stream))
	db := suite.connect(suite.config())

	rows, err := suite.openTable(db, "items").Search([]float32{1}).Limit(2).ToList(context.Background())
	suite.Require().NoError(err)
	suite.Equal([]map[string]interface{}{
		{"id": int64(7), "_distance": 0.25},
		{"id": int64(8), "_distance": 0.5},
	}, rows)
}

func (suite *RemoteTestSuite) TestQueryInvalidVector() {
	stream, err := test.Int64Stream("id", []int64{1})
	suite.Require().NoError(err)
	suite.server.SetHandler(test.RespondArrow(stream))
	db := suite.connect(suite.config())
	tbl := suite.openTable(db, "items")

	nan := float32(math.NaN())
	inf := float32(math.Inf(1))
	for _, vec := range [][]float32{{nan}, {1, inf}, {-inf, 0}} {
		_, err = tbl.Search(vec).ToList(context.Background())
		suite.Truef(remoteerr.IsConfigError(err), "vector %v: expect a ConfigError, got %v", vec, err)

		_, err = tbl.Search(vec).Execute(context.Background())
		suite.Truef(remoteerr.IsConfigError(err), "vector %v: expect a ConfigError, got %v", vec, err)
	}
	suite.Equal(0, suite.server.NumRequests(), "an invalid vector should not be sent")
}

func (suite *RemoteTestSuite) TestQueryBadStream() {
	suite.server.SetHandler(test.RespondWith(200, "this is not an arrow stream"))
	db := suite.connect(suite.config())

	_, err := suite.openTable(db, "items").Search([]float32{1}).ToList(context.Background())
	httpErr, ok := remoteerr.AsHttpError(err)
	suite.Require().Truef(ok, "expect an HttpError, got %v", err)
	suite.Equal(200, httpErr.StatusCode)
	suite.Equal(1, suite.server.NumRequests(), "an undecodable response should not be retried")
}

func (suite *RemoteTestSuite) TestDescribe() {
	suite.server.SetHandler(test.RespondJSON(`{
		"version": 4,
		"schema": {"fields": [
			{"name": "id", "type": {"type": "int64"}, "nullable": false},
			{"name": "vec", "type": {"type": "fixed_size_list"}, "nullable": true}
		]}
	}`))
	db := suite.connect(suite.config())

	desc, err := suite.openTable(db, "items").Describe(context.Background())
	suite.Require().NoError(err)
	suite.Equal(int64(4), desc.Version)
	suite.Require().Len(desc.Schema.Fields, 2)
	suite.Equal("id", desc.Schema.Fields[0].Name)
	suite.False(desc.Schema.Fields[0].Nullable)
	suite.JSONEq(`{"type": "int64"}`, string(desc.Schema.Fields[0].Type))
	suite.True(desc.Schema.Fields[1].Nullable)

	req := suite.server.LastRequest()
	suite.Equal(http.MethodPost, req.Method)
	suite.Equal("/v1/table/items/describe/", req.Path)
}

func (suite *RemoteTestSuite) TestCountRows() {
	suite.server.SetHandler(test.RespondJSON(`42`))
	db := suite.connect(suite.config())
	tbl := suite.openTable(db, "items")

	n, err := tbl.CountRows(context.Background(), "id > 10")
	suite.Require().NoError(err)
	suite.Equal(int64(42), n)
	suite.Equal("/v1/table/items/count_rows/", suite.server.LastRequest().Path)
	suite.JSONEq(`{"predicate": "id > 10"}`, string(suite.server.LastRequest().Body))

	_, err = tbl.CountRows(context.Background(), "")
	suite.Require().NoError(err)
	suite.JSONEq(`{}`, string(suite.server.LastRequest().Body))
}

func (suite *RemoteTestSuite) TestDropTable() {
	suite.server.SetHandler(test.RespondWith(200, ""))
	db := suite.connect(suite.config())

	suite.NoError(db.DropTable(context.Background(), "items"))
	req := suite.server.LastRequest()
	suite.Equal(http.MethodPost, req.Method)
	suite.Equal("/v1/table/items/drop/", req.Path)

	err := db.DropTable(context.Background(), "")
	suite.True(remoteerr.IsConfigError(err))
	_, err = db.OpenTable("")
	suite.True(remoteerr.IsConfigError(err))
	suite.Equal(1, suite.server.NumRequests())
}

func (suite *RemoteTestSuite) TestStringForms() {
	db := suite.connect(suite.config())
	suite.Equal("Connection(name=dev)", db.String())

	tbl := suite.openTable(db, "items")
	suite.Equal("items", tbl.Name())
	suite.Equal("RemoteTable(dev.items)", tbl.String())

	adb, err := remote.ConnectAsync(context.Background(), "db://dev", suite.config()).Await(context.Background())
	suite.Require().NoError(err)
	defer adb.Close()
	suite.Equal("AsyncConnection(name=dev)", adb.String())

	atbl, err := adb.OpenTable("items")
	suite.Require().NoError(err)
	suite.Equal("AsyncRemoteTable(dev.items)", atbl.String())
	suite.Equal(0, suite.server.NumRequests(), "opening connections and tables should not contact the server")
}

func (suite *RemoteTestSuite) TestClientConfigIsCopy() {
	db := suite.connect(suite.config())

	c := db.ClientConfig()
	suite.Equal(3, *c.RetryConfig.Retries)
	*c.RetryConfig.Retries = 100
	c.RetryConfig.Statuses[0] = 599
	suite.Equal(3, *db.ClientConfig().RetryConfig.Retries)
	suite.Equal(429, db.ClientConfig().RetryConfig.Statuses[0])
}

func (suite *RemoteTestSuite) TestCancelDuringBackoff() {
	suite.server.SetHandler(test.RespondWith(503, ""))
	cfg := suite.config()
	cfg.ClientConfig.RetryConfig.Backoff = remote.FixedBackoff(time.Hour)
	db := suite.connect(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err := db.TableNames(ctx)
	suite.ErrorIs(err, context.DeadlineExceeded)
	suite.Less(time.Since(start), 5*time.Second)
	suite.Equal(1, suite.server.NumRequests())
}

func (suite *RemoteTestSuite) TestConnectFailureIsRetried() {
	closed := httptest.NewServer(http.NotFoundHandler())
	url := closed.URL
	closed.Close()

	cfg := suite.config()
	cfg.HostOverride = url
	cfg.ClientConfig.RetryConfig.ConnectRetries = remote.Int(2)
	db := suite.connect(cfg)

	_, err := db.TableNames(context.Background())
	var retryErr *remoteerr.RetryError
	suite.Require().ErrorAs(err, &retryErr)
	suite.Equal(3, retryErr.NumAttempts)
	suite.Equal(2, retryErr.ConnectRetries)
	suite.Equal(0, retryErr.RequestRetries)
	suite.Equal(remoteerr.PhaseConnect, retryErr.Cause.Phase)
}

func (suite *RemoteTestSuite) TestReadTimeoutIsRetried() {
	suite.server.SetHandler(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	})
	cfg := suite.config()
	cfg.ClientConfig.TimeoutConfig.ReadTimeout = 50 * time.Millisecond
	cfg.ClientConfig.RetryConfig.ReadRetries = remote.Int(1)
	db := suite.connect(cfg)

	_, err := db.TableNames(context.Background())
	var retryErr *remoteerr.RetryError
	suite.Require().ErrorAs(err, &retryErr)
	suite.Equal(2, retryErr.NumAttempts)
	suite.Equal(1, retryErr.ReadRetries)
	suite.Equal(remoteerr.PhaseRead, retryErr.Cause.Phase)
}

func (suite *RemoteTestSuite) TestAsyncOperationsRunConcurrently() {
	const n = 4
	var arrived atomic.Int32
	all := make(chan struct{})
	suite.server.SetHandler(func(w http.ResponseWriter, r *http.Request) {
		if arrived.Add(1) == n {
			close(all)
		}
		select {
		case <-all:
			test.RespondJSON(`{"tables": ["t"]}`)(w, r)
		case <-time.After(5 * time.Second):
			test.RespondWith(http.StatusConflict, "requests were not concurrent")(w, r)
		}
	})

	adb, err := remote.ConnectAsync(context.Background(), "db://dev", suite.config()).Await(context.Background())
	suite.Require().NoError(err)
	defer adb.Close()

	futures := make([]*remote.Future[[]string], n)
	for i := range futures {
		futures[i] = adb.TableNames(context.Background())
	}
	for _, f := range futures {
		names, err := f.Await(context.Background())
		suite.NoError(err)
		suite.Equal([]string{"t"}, names)
	}
	suite.Equal(n, suite.server.NumRequests())
}

func (suite *RemoteTestSuite) TestAsyncTable() {
	stream, err := test.Int64Stream("id", []int64{5})
	suite.Require().NoError(err)
	suite.server.SetHandler(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/count_rows/"):
			test.RespondJSON(`9`)(w, r)
		case strings.HasSuffix(r.URL.Path, "/query/"):
			test.RespondArrow(stream)(w, r)
		default:
			test.RespondWith(200, "")(w, r)
		}
	})

	adb, err := remote.ConnectAsync(context.Background(), "db://dev", suite.config()).Await(context.Background())
	suite.Require().NoError(err)
	defer adb.Close()
	tbl, err := adb.OpenTable("items")
	suite.Require().NoError(err)

	ctx := context.Background()
	count := tbl.CountRows(ctx, "")
	rows := tbl.Search([]float32{1}).Limit(1).ToList(ctx)
	drop := adb.DropTable(ctx, "items")

	n, err := count.Await(ctx)
	suite.NoError(err)
	suite.Equal(int64(9), n)

	list, err := rows.Await(ctx)
	suite.NoError(err)
	suite.Equal([]map[string]interface{}{{"id": int64(5)}}, list)

	_, err = drop.Await(ctx)
	suite.NoError(err)
}

func (suite *RemoteTestSuite) TestConnectAsyncError() {
	_, err := remote.ConnectAsync(context.Background(), "s3://bucket", suite.config()).Await(context.Background())
	suite.True(remoteerr.IsConfigError(err))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = remote.ConnectAsync(ctx, "db://dev", suite.config()).Await(context.Background())
	suite.ErrorIs(err, context.Canceled)
}

func (suite *RemoteTestSuite) TestDeprecatedFields() {
	var buf bytes.Buffer
	var mu sync.Mutex
	var notices [][2]string

	cfg := suite.config()
	cfg.LoggingConfig = remote.LoggingConfig{Logger: logger.New(&buf, logger.Warn, false)}
	cfg.ConnectionTimeout = 42
	cfg.RequestThreadPool = 8
	cfg.DeprecationHandler = func(field, replacement string) {
		mu.Lock()
		defer mu.Unlock()
		notices = append(notices, [2]string{field, replacement})
	}
	db := suite.connect(cfg)

	suite.Equal(42*time.Second, db.ClientConfig().TimeoutConfig.ConnectTimeout)
	suite.Equal([][2]string{
		{"ConnectionTimeout", "ClientConfig.TimeoutConfig.ConnectTimeout"},
		{"RequestThreadPool", ""},
	}, notices)
	suite.Contains(buf.String(), "Config.ConnectionTimeout is deprecated, use Config.ClientConfig.TimeoutConfig.ConnectTimeout instead")
	suite.Contains(buf.String(), "Config.RequestThreadPool is deprecated and has no effect")
}

func (suite *RemoteTestSuite) TestDeprecatedFieldsOnFailedConnect() {
	suite.T().Setenv("LANCEDB_API_KEY", "")

	tests := []struct {
		desc string
		fn   func(cfg *remote.Config)
	}{
		{"missing api key", func(cfg *remote.Config) { cfg.APIKey = "" }},
		{"bad host override", func(cfg *remote.Config) { cfg.HostOverride = "localhost" }},
	}

	for _, r := range tests {
		var buf bytes.Buffer
		calls := 0
		cfg := suite.config()
		cfg.LoggingConfig = remote.LoggingConfig{Logger: logger.New(&buf, logger.Fine, false)}
		cfg.ConnectionTimeout = 42
		cfg.DeprecationHandler = func(field, replacement string) { calls++ }
		r.fn(&cfg)

		_, err := remote.Connect("db://dev", cfg)
		suite.Truef(remoteerr.IsConfigError(err), "%s: expect a ConfigError, got %v", r.desc, err)
		suite.Equalf(0, calls, "%s: no deprecation notice should be given", r.desc)
		suite.NotContainsf(buf.String(), "deprecated", "%s: no deprecation warning should be logged", r.desc)
	}
}

func (suite *RemoteTestSuite) TestConfigErrors() {
	suite.T().Setenv("LANCEDB_API_KEY", "")

	tests := []struct {
		desc string
		uri  string
		fn   func(cfg *remote.Config)
	}{
		{"bad scheme", "lancedb://dev", nil},
		{"no name", "db://", nil},
		{"path", "db://dev/tables", nil},
		{"missing api key", "db://dev", func(cfg *remote.Config) { cfg.APIKey = "" }},
		{"bad host override", "db://dev", func(cfg *remote.Config) { cfg.HostOverride = "localhost" }},
		{"both config forms", "db://dev", func(cfg *remote.Config) {
			cfg.ClientConfigMap = map[string]interface{}{"retry_config": map[string]interface{}{"retries": 1}}
		}},
		{"negative deprecated timeout", "db://dev", func(cfg *remote.Config) { cfg.ReadTimeout = -2 }},
		{"bad map", "db://dev", func(cfg *remote.Config) {
			cfg.ClientConfig = nil
			cfg.ClientConfigMap = map[string]interface{}{"retry_config": map[string]interface{}{"retries": "many"}}
		}},
	}

	for _, r := range tests {
		cfg := suite.config()
		if r.fn != nil {
			r.fn(&cfg)
		}
		_, err := remote.Connect(r.uri, cfg)
		suite.Truef(remoteerr.IsConfigError(err), "%s: expect a ConfigError, got %v", r.desc, err)
	}
}

func (suite *RemoteTestSuite) TestClientConfigMap() {
	suite.server.SetHandler(test.RespondWith(503, ""))
	cfg := suite.config()
	cfg.ClientConfig = nil
	cfg.ClientConfigMap = map[string]interface{}{
		"retry_config": map[string]interface{}{
			"retries":        1,
			"backoff_factor": 0.001,
		},
		"timeout_config": map[string]interface{}{"read_timeout": "5s"},
	}
	db := suite.connect(cfg)
	suite.Equal(5*time.Second, db.ClientConfig().TimeoutConfig.ReadTimeout)

	_, err := db.TableNames(context.Background())
	suite.True(remoteerr.IsRetryError(err))
	suite.Equal(2, suite.server.NumRequests())
}

func (suite *RemoteTestSuite) TestMetrics() {
	suite.server.SetHandler(test.RespondWith(429, "Try again later"))
	reg := prometheus.NewRegistry()
	cfg := suite.config()
	cfg.MetricsRegisterer = reg
	cfg.ClientConfig.RetryConfig.Retries = remote.Int(2)
	db := suite.connect(cfg)

	_, err := db.TableNames(context.Background())
	suite.Require().True(remoteerr.IsRetryError(err))

	expected := `
# HELP lancedb_client_attempts_total Total number of HTTP attempts by outcome
# TYPE lancedb_client_attempts_total counter
lancedb_client_attempts_total{outcome="retryable"} 3
# HELP lancedb_client_retries_total Total number of retries by kind of failure
# TYPE lancedb_client_retries_total counter
lancedb_client_retries_total{kind="status"} 2
`
	err = testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"lancedb_client_attempts_total", "lancedb_client_retries_total")
	suite.NoError(err)

	// A second connection shares the registered collectors.
	db2 := suite.connect(cfg)
	suite.server.SetHandler(test.RespondJSON(`{"tables": []}`))
	_, err = db2.TableNames(context.Background())
	suite.Require().NoError(err)
	n, err := testutil.GatherAndCount(reg, "lancedb_client_request_duration_seconds")
	suite.NoError(err)
	suite.Equal(1, n)
}

func (suite *RemoteTestSuite) TestTracing() {
	suite.server.SetHandler(test.RespondWith(503, "unavailable"))
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	defer tp.Shutdown(context.Background())

	cfg := suite.config()
	cfg.TracerProvider = tp
	cfg.ClientConfig.RetryConfig.Retries = remote.Int(2)
	db := suite.connect(cfg)

	_, err := db.TableNames(context.Background())
	suite.Require().Error(err)

	spans := rec.Ended()
	suite.Require().Len(spans, 1)
	suite.Equal("lancedb.remote/list_tables", spans[0].Name())
	suite.Equal(codes.Error, spans[0].Status().Code)

	attempts := 0
	for _, ev := range spans[0].Events() {
		if ev.Name == "attempt" {
			attempts++
		}
	}
	suite.Equal(3, attempts)
}

func TestRemote(t *testing.T) {
	suite.Run(t, new(RemoteTestSuite))
}
