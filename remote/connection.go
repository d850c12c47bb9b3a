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
	"net/url"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/lancedb/lancedb-go-sdk/remote/httputil"
	"github.com/lancedb/lancedb-go-sdk/remote/internal/sdkutil"
	"github.com/lancedb/lancedb-go-sdk/remote/logger"
	"github.com/lancedb/lancedb-go-sdk/remote/remoteerr"
)

const tracerName = "github.com/lancedb/lancedb-go-sdk/remote"

// conn is the state shared by Connection and AsyncConnection. The two differ
// only in the execStrategy their operations run with.
type conn struct {
	database     string
	clientConfig ClientConfig

	// httpClient is nil if the request executor was injected.
	httpClient *httputil.HTTPClient

	retrier *retrier
	logger  *logger.Logger
	exec    execStrategy
}

func newConn(uri string, cfg Config, exec execStrategy) (*conn, error) {
	database, err := parseDatabaseURI(uri)
	if err != nil {
		return nil, err
	}

	clientConfig, deprecated, err := newClientConfig(&cfg)
	if err != nil {
		return nil, err
	}

	lgr := cfg.LoggingConfig.clientLogger()

	auth, err := NewAPIKeyProvider(cfg.APIKey)
	if err != nil {
		return nil, err
	}

	endpoint, err := cfg.endpoint(database)
	if err != nil {
		return nil, err
	}

	c := &conn{
		database:     database,
		clientConfig: clientConfig,
		logger:       lgr,
		exec:         exec,
	}

	executor := cfg.httpClient
	if executor == nil {
		httpConfig := cfg.HTTPConfig
		httpConfig.ConnectTimeout = clientConfig.TimeoutConfig.DefaultConnectTimeout()
		httpConfig.ReadTimeout = clientConfig.TimeoutConfig.DefaultReadTimeout()
		httpConfig.IdleConnTimeout = clientConfig.TimeoutConfig.DefaultPoolIdleTimeout()
		c.httpClient, err = httputil.NewHTTPClient(httpConfig)
		if err != nil {
			return nil, remoteerr.NewConfigErrorWithCause(err, "cannot create HTTP client")
		}
		executor = c.httpClient
	}

	metrics, err := newClientMetrics(cfg.MetricsRegisterer)
	if err != nil {
		return nil, remoteerr.NewConfigErrorWithCause(err, "cannot register metrics")
	}

	tp := cfg.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	tracer := tp.Tracer(tracerName, trace.WithInstrumentationVersion(sdkutil.SDKVersion()))

	d := &dispatcher{
		executor:    executor,
		endpoint:    endpoint,
		database:    database,
		auth:        auth,
		readTimeout: clientConfig.TimeoutConfig.DefaultReadTimeout(),
		logger:      lgr,
	}
	c.retrier = newRetrier(d, clientConfig, lgr, metrics, tracer)

	// Deprecation notices are only given for a connection that was created.
	for _, dep := range deprecated {
		if dep.replacement == "" {
			lgr.Warn("Config.%s is deprecated and has no effect", dep.field)
		} else {
			lgr.Warn("Config.%s is deprecated, use Config.%s instead", dep.field, dep.replacement)
		}
		if cfg.DeprecationHandler != nil {
			cfg.DeprecationHandler(dep.field, dep.replacement)
		}
	}

	lgr.Debug("connected to database %q at %s with %s", database, endpoint, clientConfig)
	return c, nil
}

// ListTablesRequest represents the input to a ListTables() operation.
type ListTablesRequest struct {
	// Limit specifies the maximum number of table names to return.
	// If set to 0, the server decides.
	Limit int

	// PageToken specifies the token returned by a previous ListTables() call
	// to continue from.
	PageToken string
}

// ListTablesResult represents the result of a ListTables() operation.
type ListTablesResult struct {
	// Tables specifies the table names in this page.
	Tables []string `json:"tables"`

	// PageToken specifies the token for the next page, empty if this is the
	// last page.
	PageToken string `json:"page_token,omitempty"`
}

func (c *conn) listTables(ctx context.Context, req *ListTablesRequest) (*ListTablesResult, error) {
	if req == nil {
		req = &ListTablesRequest{}
	}
	if req.Limit < 0 {
		return nil, remoteerr.NewConfigError("ListTablesRequest.Limit must be non-negative, got %d", req.Limit)
	}

	query := url.Values{}
	if req.Limit > 0 {
		query.Set("limit", strconv.Itoa(req.Limit))
	}
	if req.PageToken != "" {
		query.Set("page_token", req.PageToken)
	}

	res := &ListTablesResult{}
	err := c.retrier.execute(ctx, &request{
		op:     "list_tables",
		method: http.MethodGet,
		path:   sdkutil.TableServiceURI,
		query:  query,
	}, decodeJSON(res))
	if err != nil {
		return nil, err
	}
	if res.Tables == nil {
		res.Tables = []string{}
	}
	return res, nil
}

func (c *conn) tableNames(ctx context.Context) ([]string, error) {
	names := []string{}
	req := &ListTablesRequest{}
	for {
		res, err := c.listTables(ctx, req)
		if err != nil {
			return nil, err
		}
		names = append(names, res.Tables...)
		if res.PageToken == "" || res.PageToken == req.PageToken {
			return names, nil
		}
		req = &ListTablesRequest{PageToken: res.PageToken}
	}
}

func (c *conn) dropTable(ctx context.Context, name string) error {
	if err := checkTableName(name); err != nil {
		return err
	}
	return c.retrier.execute(ctx, &request{
		op:     "drop_table",
		method: http.MethodPost,
		path:   sdkutil.TablePath(name, "drop"),
	}, nil)
}

func (c *conn) close() error {
	if c.httpClient != nil {
		c.httpClient.CloseIdleConnections()
	}
	return nil
}

// decodeJSON returns a handler that decodes a JSON response into v.
func decodeJSON(v interface{}) responseHandler {
	return func(resp *httputil.Response) error {
		return json.Unmarshal(resp.Body, v)
	}
}

func checkTableName(name string) error {
	if name == "" {
		return remoteerr.NewConfigError("table name must be non-empty")
	}
	return nil
}

// Connection represents a connection to a LanceDB Cloud database. Its
// operations block until they complete.
//
// A Connection is safe for concurrent use by multiple goroutines.
type Connection struct {
	c *conn
}

// Connect creates a Connection to the database with the specified URI of the
// form db://<name>.
//
// Connect does not contact the service. A *remoteerr.ConfigError is returned
// if the URI or the configuration is invalid.
//
// Applications should call the Close() method on the Connection when it
// terminates.
func Connect(uri string, cfg Config) (*Connection, error) {
	c, err := newConn(uri, cfg, blockingStrategy{})
	if err != nil {
		return nil, err
	}
	return &Connection{c: c}, nil
}

// TableNames returns the names of all tables in the database, fetching as
// many pages as needed.
func (db *Connection) TableNames(ctx context.Context) ([]string, error) {
	return runWith(db.c.exec, func() ([]string, error) {
		return db.c.tableNames(ctx)
	}).wait()
}

// ListTables returns a page of table names.
func (db *Connection) ListTables(ctx context.Context, req *ListTablesRequest) (*ListTablesResult, error) {
	return runWith(db.c.exec, func() (*ListTablesResult, error) {
		return db.c.listTables(ctx, req)
	}).wait()
}

// OpenTable returns a RemoteTable for the specified table.
// It does not contact the service.
func (db *Connection) OpenTable(name string) (*RemoteTable, error) {
	if err := checkTableName(name); err != nil {
		return nil, err
	}
	return &RemoteTable{t: &table{conn: db.c, name: name}}, nil
}

// DropTable drops the specified table.
func (db *Connection) DropTable(ctx context.Context, name string) error {
	_, err := runWith(db.c.exec, func() (struct{}, error) {
		return struct{}{}, db.c.dropTable(ctx, name)
	}).wait()
	return err
}

// ClientConfig returns a copy of the effective client configuration.
func (db *Connection) ClientConfig() ClientConfig {
	return db.c.clientConfig.clone()
}

// Close releases any resources used by the Connection.
func (db *Connection) Close() error {
	return db.c.close()
}

// String returns "Connection(name=<database>)".
func (db *Connection) String() string {
	return fmt.Sprintf("Connection(name=%s)", db.c.database)
}

// AsyncConnection represents a connection to a LanceDB Cloud database. Its
// operations run on their own goroutine and return a Future.
//
// Any number of operations may be in flight at the same time, each with its
// own retries.
type AsyncConnection struct {
	c *conn
}

// ConnectAsync creates an AsyncConnection to the database with the specified
// URI of the form db://<name>. The result is available from the returned
// Future.
func ConnectAsync(ctx context.Context, uri string, cfg Config) *Future[*AsyncConnection] {
	return runWith[*AsyncConnection](asyncStrategy{}, func() (*AsyncConnection, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		c, err := newConn(uri, cfg, asyncStrategy{})
		if err != nil {
			return nil, err
		}
		return &AsyncConnection{c: c}, nil
	})
}

// TableNames returns the names of all tables in the database.
func (db *AsyncConnection) TableNames(ctx context.Context) *Future[[]string] {
	return runWith(db.c.exec, func() ([]string, error) {
		return db.c.tableNames(ctx)
	})
}

// ListTables returns a page of table names.
func (db *AsyncConnection) ListTables(ctx context.Context, req *ListTablesRequest) *Future[*ListTablesResult] {
	return runWith(db.c.exec, func() (*ListTablesResult, error) {
		return db.c.listTables(ctx, req)
	})
}

// OpenTable returns an AsyncRemoteTable for the specified table.
// It does not contact the service.
func (db *AsyncConnection) OpenTable(name string) (*AsyncRemoteTable, error) {
	if err := checkTableName(name); err != nil {
		return nil, err
	}
	return &AsyncRemoteTable{t: &table{conn: db.c, name: name}}, nil
}

// DropTable drops the specified table.
func (db *AsyncConnection) DropTable(ctx context.Context, name string) *Future[struct{}] {
	return runWith(db.c.exec, func() (struct{}, error) {
		return struct{}{}, db.c.dropTable(ctx, name)
	})
}

// ClientConfig returns a copy of the effective client configuration.
func (db *AsyncConnection) ClientConfig() ClientConfig {
	return db.c.clientConfig.clone()
}

// Close releases any resources used by the AsyncConnection.
func (db *AsyncConnection) Close() error {
	return db.c.close()
}

// String returns "AsyncConnection(name=<database>)".
func (db *AsyncConnection) String() string {
	return fmt.Sprintf("AsyncConnection(name=%s)", db.c.database)
}
