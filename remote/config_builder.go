//
// Copyright (c) 2019, 2025 Oracle and/or its affiliates. All rights reserved.
//
// Licensed under the Universal Permissive License v 1.0 as shown at
//  https://oss.oracle.com/licenses/upl/
//

package remote

import (
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/lancedb/lancedb-go-sdk/remote/internal/sdkutil"
	"github.com/lancedb/lancedb-go-sdk/remote/remoteerr"
)

// Environment variables that override the defaults of ClientConfig.
// Durations are given in seconds.
const (
	envMaxRetries         = "LANCE_CLIENT_MAX_RETRIES"
	envConnectRetries     = "LANCE_CLIENT_CONNECT_RETRIES"
	envReadRetries        = "LANCE_CLIENT_READ_RETRIES"
	envRetryBackoffFactor = "LANCE_CLIENT_RETRY_BACKOFF_FACTOR"
	envRetryBackoffJitter = "LANCE_CLIENT_RETRY_BACKOFF_JITTER"
	envRetryStatuses      = "LANCE_CLIENT_RETRY_STATUSES"
	envConnectTimeout     = "LANCE_CLIENT_CONNECT_TIMEOUT"
	envReadTimeout        = "LANCE_CLIENT_READ_TIMEOUT"
	envPoolIdleTimeout    = "LANCE_CLIENT_POOL_IDLE_TIMEOUT"
	envAPIKey             = "LANCEDB_API_KEY"
)

// deprecatedField records a deprecated Config field that was set.
type deprecatedField struct {
	field       string
	replacement string
}

// clientConfigBuilder computes the effective ClientConfig. Sources are
// applied in order: defaults, environment, ClientConfig or ClientConfigMap,
// deprecated Config fields. A later source overrides the fields it sets.
type clientConfigBuilder struct {
	cfg        ClientConfig
	deprecated []deprecatedField
	lookupEnv  func(key string) (string, bool)
}

func newClientConfigBuilder() *clientConfigBuilder {
	return &clientConfigBuilder{
		cfg: ClientConfig{
			UserAgent: sdkutil.UserAgent(),
			RetryConfig: RetryConfig{
				Retries:        Int(defaultRetries),
				ConnectRetries: Int(defaultConnectRetries),
				ReadRetries:    Int(defaultReadRetries),
				BackoffFactor:  defaultBackoffFactor,
				BackoffJitter:  defaultBackoffJitter,
				Statuses:       append([]int(nil), DefaultRetryStatuses...),
			},
			TimeoutConfig: TimeoutConfig{
				ConnectTimeout:  defaultConnectTimeout,
				ReadTimeout:     defaultReadTimeout,
				PoolIdleTimeout: defaultPoolIdleTimeout,
			},
		},
		lookupEnv: os.LookupEnv,
	}
}

func (b *clientConfigBuilder) withEnv() error {
	ints := []struct {
		key string
		dst **int
	}{
		{envMaxRetries, &b.cfg.RetryConfig.Retries},
		{envConnectRetries, &b.cfg.RetryConfig.ConnectRetries},
		{envReadRetries, &b.cfg.RetryConfig.ReadRetries},
	}
	for _, e := range ints {
		s, ok := b.lookupEnv(e.key)
		if !ok || s == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil || n < 0 {
			return remoteerr.NewConfigError("invalid value %q for %s, must be a non-negative integer", s, e.key)
		}
		*e.dst = Int(n)
	}

	// Timeouts must be positive, backoff durations may be zero.
	durations := []struct {
		key      string
		dst      *time.Duration
		positive bool
	}{
		{envRetryBackoffFactor, &b.cfg.RetryConfig.BackoffFactor, false},
		{envRetryBackoffJitter, &b.cfg.RetryConfig.BackoffJitter, false},
		{envConnectTimeout, &b.cfg.TimeoutConfig.ConnectTimeout, true},
		{envReadTimeout, &b.cfg.TimeoutConfig.ReadTimeout, true},
		{envPoolIdleTimeout, &b.cfg.TimeoutConfig.PoolIdleTimeout, true},
	}
	for _, e := range durations {
		s, ok := b.lookupEnv(e.key)
		if !ok || s == "" {
			continue
		}
		secs, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		switch {
		case err != nil || secs < 0 || math.IsNaN(secs) || math.IsInf(secs, 0):
			return remoteerr.NewConfigError("invalid value %q for %s, must be a non-negative number of seconds", s, e.key)
		case e.positive && time.Duration(secs*float64(time.Second)) <= 0:
			return remoteerr.NewConfigError("invalid value %q for %s, must be a positive number of seconds", s, e.key)
		}
		*e.dst = time.Duration(secs * float64(time.Second))
	}

	if s, ok := b.lookupEnv(envRetryStatuses); ok && s != "" {
		var statuses []int
		for _, f := range strings.Split(s, ",") {
			n, err := strconv.Atoi(strings.TrimSpace(f))
			if err != nil {
				return remoteerr.NewConfigErrorWithCause(err, "invalid value %q for %s", s, envRetryStatuses)
			}
			statuses = append(statuses, n)
		}
		b.cfg.RetryConfig.Statuses = statuses
	}

	return nil
}

func (b *clientConfigBuilder) withClientConfig(c *ClientConfig) error {
	if c == nil {
		return nil
	}
	if err := c.validate(); err != nil {
		return err
	}

	c2 := c.clone()
	if c2.UserAgent != "" {
		b.cfg.UserAgent = c2.UserAgent
	}

	r := &b.cfg.RetryConfig
	if c2.RetryConfig.Retries != nil {
		r.Retries = c2.RetryConfig.Retries
	}
	if c2.RetryConfig.ConnectRetries != nil {
		r.ConnectRetries = c2.RetryConfig.ConnectRetries
	}
	if c2.RetryConfig.ReadRetries != nil {
		r.ReadRetries = c2.RetryConfig.ReadRetries
	}
	if c2.RetryConfig.BackoffFactor != 0 {
		r.BackoffFactor = c2.RetryConfig.BackoffFactor
	}
	if c2.RetryConfig.BackoffJitter != 0 {
		r.BackoffJitter = c2.RetryConfig.BackoffJitter
	}
	if len(c2.RetryConfig.Statuses) > 0 {
		r.Statuses = c2.RetryConfig.Statuses
	}
	if c2.RetryConfig.Backoff != nil {
		r.Backoff = c2.RetryConfig.Backoff
	}

	t := &b.cfg.TimeoutConfig
	if c2.TimeoutConfig.ConnectTimeout != 0 {
		t.ConnectTimeout = c2.TimeoutConfig.ConnectTimeout
	}
	if c2.TimeoutConfig.ReadTimeout != 0 {
		t.ReadTimeout = c2.TimeoutConfig.ReadTimeout
	}
	if c2.TimeoutConfig.PoolIdleTimeout != 0 {
		t.PoolIdleTimeout = c2.TimeoutConfig.PoolIdleTimeout
	}

	return nil
}

func (b *clientConfigBuilder) withClientConfigMap(m map[string]interface{}) error {
	if m == nil {
		return nil
	}
	c, err := ClientConfigFromMap(m)
	if err != nil {
		return err
	}
	return b.withClientConfig(c)
}

// withDeprecated folds the deprecated Config fields into the config and
// records them for deprecation notices.
func (b *clientConfigBuilder) withDeprecated(cfg *Config) error {
	if cfg.ConnectionTimeout != 0 {
		if cfg.ConnectionTimeout < 0 {
			return remoteerr.NewConfigError("ConnectionTimeout must be non-negative, got %v", cfg.ConnectionTimeout)
		}
		b.cfg.TimeoutConfig.ConnectTimeout = secondsToDuration(cfg.ConnectionTimeout)
		b.deprecate("ConnectionTimeout", "ClientConfig.TimeoutConfig.ConnectTimeout")
	}

	if cfg.ReadTimeout != 0 {
		if cfg.ReadTimeout < 0 {
			return remoteerr.NewConfigError("ReadTimeout must be non-negative, got %v", cfg.ReadTimeout)
		}
		b.cfg.TimeoutConfig.ReadTimeout = secondsToDuration(cfg.ReadTimeout)
		b.deprecate("ReadTimeout", "ClientConfig.TimeoutConfig.ReadTimeout")
	}

	if cfg.RequestThreadPool != 0 {
		b.deprecate("RequestThreadPool", "")
	}

	return nil
}

func (b *clientConfigBuilder) deprecate(field, replacement string) {
	b.deprecated = append(b.deprecated, deprecatedField{field: field, replacement: replacement})
}

func (b *clientConfigBuilder) build() (ClientConfig, error) {
	if err := b.cfg.validate(); err != nil {
		return ClientConfig{}, err
	}
	if b.cfg.RetryConfig.Backoff == nil {
		b.cfg.RetryConfig.Backoff = ExponentialBackoff{
			Factor: b.cfg.RetryConfig.BackoffFactor,
			Jitter: b.cfg.RetryConfig.BackoffJitter,
		}
	}
	return b.cfg.clone(), nil
}

// newClientConfig computes the effective ClientConfig for the specified
// Config. It returns the deprecated fields that were set.
func newClientConfig(cfg *Config) (ClientConfig, []deprecatedField, error) {
	if cfg.ClientConfig != nil && cfg.ClientConfigMap != nil {
		return ClientConfig{}, nil, remoteerr.NewConfigError("only one of ClientConfig and ClientConfigMap may be specified")
	}

	b := newClientConfigBuilder()
	if err := b.withEnv(); err != nil {
		return ClientConfig{}, nil, err
	}
	if err := b.withClientConfig(cfg.ClientConfig); err != nil {
		return ClientConfig{}, nil, err
	}
	if err := b.withClientConfigMap(cfg.ClientConfigMap); err != nil {
		return ClientConfig{}, nil, err
	}
	if err := b.withDeprecated(cfg); err != nil {
		return ClientConfig{}, nil, err
	}

	c, err := b.build()
	if err != nil {
		return ClientConfig{}, nil, err
	}
	return c, b.deprecated, nil
}

func secondsToDuration(secs float64) time.Duration {
	return time.Duration(secs * float64(time.Second))
}
