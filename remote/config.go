//
// Copyright (c) 2019, 2025 Oracle and/or its affiliates. All rights reserved.
//
// Licensed under the Universal Permissive License v 1.0 as shown at
//  https://oss.oracle.com/licenses/upl/
//

package remote

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"

	"github.com/lancedb/lancedb-go-sdk/remote/httputil"
	"github.com/lancedb/lancedb-go-sdk/remote/logger"
)

const (
	// The default maximum number of retries for requests that receive a
	// retryable status code.
	defaultRetries = 3

	// The default maximum number of retries for connection failures.
	defaultConnectRetries = 3

	// The default maximum number of retries for failures while reading the response.
	defaultReadRetries = 3

	// The default backoff factor. The n-th retry waits for
	// factor * 2^(n-1) plus a random jitter.
	defaultBackoffFactor = 250 * time.Millisecond

	// The default upper bound of the random jitter added to a backoff delay.
	defaultBackoffJitter = 250 * time.Millisecond

	// The default timeout for establishing a connection.
	defaultConnectTimeout = 120 * time.Second

	// The default timeout for receiving a response.
	defaultReadTimeout = 300 * time.Second

	// The default timeout after which idle connections are closed.
	defaultPoolIdleTimeout = 300 * time.Second
)

// DefaultRetryStatuses is the default set of HTTP status codes that are
// retried.
var DefaultRetryStatuses = []int{429, 500, 502, 503}

// Config represents a group of configuration parameters for a Connection.
//
// When creating a Connection, the Config instance is copied so modifications
// on the instance have no effect on the existing Connection which is immutable.
//
// Only one of ClientConfig and ClientConfigMap may be specified.
type Config struct {
	// APIKey specifies the API key used to authenticate requests.
	// If not set, the value of the LANCEDB_API_KEY environment variable is used.
	APIKey string

	// Region specifies the region of the database.
	// If not set, "us-east-1" is used.
	Region string

	// HostOverride specifies the URL of the service, for example
	// "http://localhost:8080". If set, Region is ignored.
	HostOverride string

	// ClientConfig specifies the retry and timeout configuration.
	ClientConfig *ClientConfig

	// ClientConfigMap specifies the retry and timeout configuration as a
	// nested mapping, see ClientConfigFromMap.
	ClientConfigMap map[string]interface{}

	// ConnectionTimeout specifies the connect timeout in seconds.
	//
	// Deprecated: Use ClientConfig.TimeoutConfig.ConnectTimeout instead.
	// If set, it overrides the value of ClientConfig.
	ConnectionTimeout float64

	// ReadTimeout specifies the read timeout in seconds.
	//
	// Deprecated: Use ClientConfig.TimeoutConfig.ReadTimeout instead.
	// If set, it overrides the value of ClientConfig.
	ReadTimeout float64

	// RequestThreadPool is ignored.
	//
	// Deprecated: Requests are executed on goroutines, there is no thread pool
	// to configure.
	RequestThreadPool int

	// DeprecationHandler is called once for every deprecated field that is set.
	// The replacement is empty if the field has no replacement.
	// A deprecation notice is also logged at Warn level.
	DeprecationHandler func(field, replacement string)

	// Configurations for HTTP client such as proxy and TLS settings.
	// The timeouts of HTTPConfig are overwritten by ClientConfig.
	HTTPConfig httputil.HTTPConfig

	// Configurations for logging.
	LoggingConfig

	// MetricsRegisterer specifies the registerer the client metrics are
	// registered with. If not set, metrics are collected but not registered.
	MetricsRegisterer prometheus.Registerer

	// TracerProvider specifies the provider of the tracer used to trace
	// requests. If not set, the global provider is used.
	TracerProvider trace.TracerProvider

	// httpClient is used by tests to inject a request executor.
	httpClient httputil.RequestExecutor
}

// LoggingConfig represents logging configurations.
type LoggingConfig struct {

	// Configurations for the logger.
	// If this is not set, use logger.DefaultLogger unless DisableLogging is set.
	*logger.Logger

	// DisableLogging represents whether logging is disabled.
	DisableLogging bool
}

// clientLogger returns the logger a Connection uses, nil if logging is disabled.
func (l LoggingConfig) clientLogger() *logger.Logger {
	if l.DisableLogging {
		return nil
	}
	if l.Logger == nil {
		return logger.DefaultLogger
	}
	return l.Logger
}

// ClientConfig represents the retry and timeout configuration of a Connection.
//
// A zero value of any field means the default is used. The ClientConfig
// returned by Connection.ClientConfig() has all fields set to the effective
// values.
type ClientConfig struct {
	// UserAgent specifies the value of the User-Agent header.
	// If not set, "LanceDB-Go-Client/<version>" is used.
	UserAgent string

	// Configurations for retries.
	RetryConfig RetryConfig

	// Configurations for timeouts.
	TimeoutConfig TimeoutConfig
}

// RetryConfig represents the retry configuration.
//
// The retry budgets for the different kinds of failure are independent: a
// request may be retried Retries times for retryable status codes and, in
// addition, ConnectRetries times for connection failures.
type RetryConfig struct {
	// Retries specifies the maximum number of retries for requests that
	// receive a retryable status code. Use Int(0) to disable retries.
	// The default is 3.
	Retries *int

	// ConnectRetries specifies the maximum number of retries for connection
	// failures, including connect timeouts.
	// The default is 3.
	ConnectRetries *int

	// ReadRetries specifies the maximum number of retries for failures that
	// happen after the connection is established, including read timeouts.
	// The default is 3.
	ReadRetries *int

	// BackoffFactor specifies the base delay of the exponential backoff.
	// The default is 250ms.
	BackoffFactor time.Duration

	// BackoffJitter specifies the upper bound of the random jitter added to
	// each backoff delay.
	// The default is 250ms.
	BackoffJitter time.Duration

	// Statuses specifies the HTTP status codes that are retried.
	// The default is DefaultRetryStatuses.
	Statuses []int

	// Backoff specifies the policy that computes the delay between attempts.
	// If not set, an ExponentialBackoff built from BackoffFactor and
	// BackoffJitter is used.
	Backoff BackoffPolicy
}

// TimeoutConfig represents the timeout configuration.
type TimeoutConfig struct {
	// ConnectTimeout specifies the timeout for establishing a connection.
	// The default is 120 seconds.
	ConnectTimeout time.Duration

	// ReadTimeout specifies the timeout for receiving the complete response
	// once the connection is established.
	// The default is 300 seconds.
	ReadTimeout time.Duration

	// PoolIdleTimeout specifies how long an idle connection is kept open.
	// The default is 300 seconds.
	PoolIdleTimeout time.Duration
}

// Int returns a pointer to the specified int value.
// It is a helper for setting the retry limits of RetryConfig.
func Int(n int) *int {
	return &n
}

// DefaultRetries returns the maximum number of retries for retryable status
// codes. If there is no configured value, a default value of 3 is used.
func (r *RetryConfig) DefaultRetries() int {
	if r == nil || r.Retries == nil {
		return defaultRetries
	}
	return *r.Retries
}

// DefaultConnectRetries returns the maximum number of retries for connection
// failures. If there is no configured value, a default value of 3 is used.
func (r *RetryConfig) DefaultConnectRetries() int {
	if r == nil || r.ConnectRetries == nil {
		return defaultConnectRetries
	}
	return *r.ConnectRetries
}

// DefaultReadRetries returns the maximum number of retries for read failures.
// If there is no configured value, a default value of 3 is used.
func (r *RetryConfig) DefaultReadRetries() int {
	if r == nil || r.ReadRetries == nil {
		return defaultReadRetries
	}
	return *r.ReadRetries
}

// DefaultBackoff returns the configured backoff policy, or an
// ExponentialBackoff built from BackoffFactor and BackoffJitter.
func (r *RetryConfig) DefaultBackoff() BackoffPolicy {
	if r != nil && r.Backoff != nil {
		return r.Backoff
	}

	b := ExponentialBackoff{Factor: defaultBackoffFactor, Jitter: defaultBackoffJitter}
	if r != nil && r.BackoffFactor != 0 {
		b.Factor = r.BackoffFactor
	}
	if r != nil && r.BackoffJitter != 0 {
		b.Jitter = r.BackoffJitter
	}
	return b
}

// DefaultStatuses returns the retryable status codes. If there are no
// configured status codes, DefaultRetryStatuses is used.
func (r *RetryConfig) DefaultStatuses() []int {
	if r == nil || len(r.Statuses) == 0 {
		return append([]int(nil), DefaultRetryStatuses...)
	}
	return append([]int(nil), r.Statuses...)
}

// DefaultConnectTimeout returns the connect timeout. If there is no configured
// timeout or it is configured as 0, a default value of 120 seconds is used.
func (t *TimeoutConfig) DefaultConnectTimeout() time.Duration {
	if t == nil || t.ConnectTimeout == 0 {
		return defaultConnectTimeout
	}
	return t.ConnectTimeout
}

// DefaultReadTimeout returns the read timeout. If there is no configured
// timeout or it is configured as 0, a default value of 300 seconds is used.
func (t *TimeoutConfig) DefaultReadTimeout() time.Duration {
	if t == nil || t.ReadTimeout == 0 {
		return defaultReadTimeout
	}
	return t.ReadTimeout
}

// DefaultPoolIdleTimeout returns the idle connection timeout. If there is no
// configured timeout or it is configured as 0, a default value of 300
// seconds is used.
func (t *TimeoutConfig) DefaultPoolIdleTimeout() time.Duration {
	if t == nil || t.PoolIdleTimeout == 0 {
		return defaultPoolIdleTimeout
	}
	return t.PoolIdleTimeout
}

// clone returns a deep copy of the ClientConfig.
func (c ClientConfig) clone() ClientConfig {
	r := c.RetryConfig
	if r.Retries != nil {
		r.Retries = Int(*r.Retries)
	}
	if r.ConnectRetries != nil {
		r.ConnectRetries = Int(*r.ConnectRetries)
	}
	if r.ReadRetries != nil {
		r.ReadRetries = Int(*r.ReadRetries)
	}
	if r.Statuses != nil {
		r.Statuses = append([]int(nil), r.Statuses...)
	}
	c.RetryConfig = r
	return c
}
