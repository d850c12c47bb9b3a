//
// Copyright (c) 2019, 2025 Oracle and/or its affiliates. All rights reserved.
//
// Licensed under the Universal Permissive License v 1.0 as shown at
//  https://oss.oracle.com/licenses/upl/
//

package remote

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/lancedb/lancedb-go-sdk/remote/remoteerr"
)

// clientConfigMap is the decoding target of ClientConfigFromMap.
// Pointer fields distinguish an explicit value from an absent key.
type clientConfigMap struct {
	UserAgent     string           `mapstructure:"user_agent"`
	RetryConfig   retryConfigMap   `mapstructure:"retry_config"`
	TimeoutConfig timeoutConfigMap `mapstructure:"timeout_config"`
}

type retryConfigMap struct {
	Retries        *int           `mapstructure:"retries"`
	ConnectRetries *int           `mapstructure:"connect_retries"`
	ReadRetries    *int           `mapstructure:"read_retries"`
	BackoffFactor  *time.Duration `mapstructure:"backoff_factor"`
	BackoffJitter  *time.Duration `mapstructure:"backoff_jitter"`
	Statuses       []int          `mapstructure:"statuses"`
}

type timeoutConfigMap struct {
	ConnectTimeout  *time.Duration `mapstructure:"connect_timeout"`
	ReadTimeout     *time.Duration `mapstructure:"read_timeout"`
	PoolIdleTimeout *time.Duration `mapstructure:"pool_idle_timeout"`
}

var durationType = reflect.TypeOf(time.Duration(0))

// secondsToDurationHook decodes numbers as seconds and strings with
// time.ParseDuration. Values that already are a time.Duration are kept.
func secondsToDurationHook(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
	if t != durationType || f == durationType {
		return data, nil
	}

	v := reflect.ValueOf(data)
	switch f.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return time.Duration(v.Int()) * time.Second, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return time.Duration(v.Uint()) * time.Second, nil
	case reflect.Float32, reflect.Float64:
		return time.Duration(v.Float() * float64(time.Second)), nil
	case reflect.String:
		s := v.String()
		if secs, err := strconv.ParseFloat(s, 64); err == nil {
			return time.Duration(secs * float64(time.Second)), nil
		}
		return time.ParseDuration(s)
	default:
		return data, nil
	}
}

// integralHook rejects floats with a fractional part for int fields. Mappings
// decoded from JSON carry every number as a float64.
func integralHook(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
	if t.Kind() != reflect.Int {
		return data, nil
	}
	switch f.Kind() {
	case reflect.Float32, reflect.Float64:
		v := reflect.ValueOf(data).Float()
		if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
			return nil, fmt.Errorf("%v is not an integer", v)
		}
	}
	return data, nil
}

// ClientConfigFromMap creates a ClientConfig from a nested mapping such as:
//
//	map[string]interface{}{
//		"retry_config":   map[string]interface{}{"retries": 2},
//		"timeout_config": map[string]interface{}{"connect_timeout": 1},
//	}
//
// The recognized keys are "user_agent", "retry_config" with "retries",
// "connect_retries", "read_retries", "backoff_factor", "backoff_jitter" and
// "statuses", and "timeout_config" with "connect_timeout", "read_timeout" and
// "pool_idle_timeout".
//
// Durations may be given as a number of seconds, a time.Duration, or a string
// accepted by time.ParseDuration. Timeouts given in the mapping must be
// positive. An unknown key results in a ConfigError.
//
// A mapping and a ClientConfig specifying the same values are equivalent.
func ClientConfigFromMap(m map[string]interface{}) (*ClientConfig, error) {
	var raw clientConfigMap
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:  mapstructure.ComposeDecodeHookFunc(secondsToDurationHook, integralHook),
		ErrorUnused: true,
		Result:      &raw,
	})
	if err != nil {
		return nil, err
	}

	if err := decoder.Decode(m); err != nil {
		return nil, remoteerr.NewConfigErrorWithCause(err, "invalid client config")
	}

	timeouts := []struct {
		key string
		val *time.Duration
	}{
		{"connect_timeout", raw.TimeoutConfig.ConnectTimeout},
		{"read_timeout", raw.TimeoutConfig.ReadTimeout},
		{"pool_idle_timeout", raw.TimeoutConfig.PoolIdleTimeout},
	}
	for _, t := range timeouts {
		if t.val != nil && *t.val <= 0 {
			return nil, remoteerr.NewConfigError("timeout_config.%s must be positive, got %v", t.key, *t.val)
		}
	}

	cfg := &ClientConfig{
		UserAgent: raw.UserAgent,
		RetryConfig: RetryConfig{
			Retries:        raw.RetryConfig.Retries,
			ConnectRetries: raw.RetryConfig.ConnectRetries,
			ReadRetries:    raw.RetryConfig.ReadRetries,
			BackoffFactor:  durationValue(raw.RetryConfig.BackoffFactor),
			BackoffJitter:  durationValue(raw.RetryConfig.BackoffJitter),
			Statuses:       raw.RetryConfig.Statuses,
		},
		TimeoutConfig: TimeoutConfig{
			ConnectTimeout:  durationValue(raw.TimeoutConfig.ConnectTimeout),
			ReadTimeout:     durationValue(raw.TimeoutConfig.ReadTimeout),
			PoolIdleTimeout: durationValue(raw.TimeoutConfig.PoolIdleTimeout),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func durationValue(d *time.Duration) time.Duration {
	if d == nil {
		return 0
	}
	return *d
}

// validate checks the explicitly configured values.
func (c *ClientConfig) validate() error {
	retries := []struct {
		name string
		val  *int
	}{
		{"retries", c.RetryConfig.Retries},
		{"connect_retries", c.RetryConfig.ConnectRetries},
		{"read_retries", c.RetryConfig.ReadRetries},
	}
	for _, r := range retries {
		if r.val != nil && *r.val < 0 {
			return remoteerr.NewConfigError("retry_config.%s must be non-negative, got %d", r.name, *r.val)
		}
	}

	durations := []struct {
		name string
		val  time.Duration
	}{
		{"retry_config.backoff_factor", c.RetryConfig.BackoffFactor},
		{"retry_config.backoff_jitter", c.RetryConfig.BackoffJitter},
		{"timeout_config.connect_timeout", c.TimeoutConfig.ConnectTimeout},
		{"timeout_config.read_timeout", c.TimeoutConfig.ReadTimeout},
		{"timeout_config.pool_idle_timeout", c.TimeoutConfig.PoolIdleTimeout},
	}
	for _, d := range durations {
		if d.val < 0 {
			return remoteerr.NewConfigError("%s must be non-negative, got %v", d.name, d.val)
		}
	}

	for _, s := range c.RetryConfig.Statuses {
		if s < 100 || s > 599 {
			return remoteerr.NewConfigError("retry_config.statuses contains an invalid status code %d", s)
		}
	}

	return nil
}

// String returns a short description of the config used in log messages.
func (c ClientConfig) String() string {
	return fmt.Sprintf("ClientConfig(user_agent=%q, retries=%d, connect_retries=%d, read_retries=%d, "+
		"statuses=%v, connect_timeout=%v, read_timeout=%v, pool_idle_timeout=%v)",
		c.UserAgent, c.RetryConfig.DefaultRetries(), c.RetryConfig.DefaultConnectRetries(),
		c.RetryConfig.DefaultReadRetries(), c.RetryConfig.DefaultStatuses(),
		c.TimeoutConfig.DefaultConnectTimeout(), c.TimeoutConfig.DefaultReadTimeout(),
		c.TimeoutConfig.DefaultPoolIdleTimeout())
}
