//
// Copyright (c) 2019, 2025 Oracle and/or its affiliates. All rights reserved.
//
// Licensed under the Universal Permissive License v 1.0 as shown at
//  https://oss.oracle.com/licenses/upl/
//

package httputil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lancedb/lancedb-go-sdk/remote/remoteerr"
)

func TestNewHTTPClient(t *testing.T) {
	tests := []struct {
		desc    string
		cfg     HTTPConfig
		wantErr bool
	}{
		{"default", HTTPConfig{}, false},
		{"timeouts", HTTPConfig{ConnectTimeout: time.Second, ReadTimeout: 2 * time.Second, IdleConnTimeout: time.Minute}, false},
		{"proxy", HTTPConfig{ProxyURL: "http://localhost:3128", ProxyUsername: "u", ProxyPassword: "p"}, false},
		{"bad proxy", HTTPConfig{ProxyURL: "http://[::1"}, true},
		{"missing cert", HTTPConfig{CertPath: "/nonexistent/ca.pem"}, true},
		{"insecure ignores cert", HTTPConfig{CertPath: "/nonexistent/ca.pem", InsecureSkipVerify: true}, false},
	}

	for _, r := range tests {
		hc, err := NewHTTPClient(r.cfg)
		if r.wantErr {
			assert.Errorf(t, err, "%s: NewHTTPClient() should have failed", r.desc)
			continue
		}
		if assert.NoErrorf(t, err, "%s: NewHTTPClient() got error", r.desc) {
			assert.NotNilf(t, hc, "%s: got nil client", r.desc)
		}
	}
}

func TestNewRequest(t *testing.T) {
	headers := map[string]string{"x-api-key": "secret", "Content-Type": "application/json"}
	req, err := NewRequest(context.Background(), http.MethodPost, "http://localhost/v1/table/t/query/", []byte(`{"k":10}`), headers)
	require.NoError(t, err)
	assert.Equal(t, "secret", req.Header.Get("x-api-key"))
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
	body, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	assert.Equal(t, `{"k":10}`, string(body))

	req, err = NewRequest(context.Background(), http.MethodGet, "http://localhost/v1/table/", nil, nil)
	require.NoError(t, err)
	assert.Nil(t, req.Body)
}

func TestExchange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"tables":[]}`)
		case "/unavailable":
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprint(w, "busy")
		case "/slow":
			w.WriteHeader(http.StatusOK)
			w.(http.Flusher).Flush()
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}
	}))
	defer srv.Close()

	hc, err := NewHTTPClient(HTTPConfig{ReadTimeout: time.Second})
	require.NoError(t, err)
	defer hc.CloseIdleConnections()

	req, err := NewRequest(context.Background(), http.MethodGet, srv.URL+"/ok", nil, nil)
	require.NoError(t, err)
	resp, err := Exchange(hc, req, time.Second)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, `{"tables":[]}`, string(resp.Body))
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	// Non-2xx responses are not errors at this level.
	req, err = NewRequest(context.Background(), http.MethodGet, srv.URL+"/unavailable", nil, nil)
	require.NoError(t, err)
	resp, err = Exchange(hc, req, time.Second)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
	assert.Equal(t, "busy", string(resp.Body))

	req, err = NewRequest(context.Background(), http.MethodGet, srv.URL+"/slow", nil, nil)
	require.NoError(t, err)
	_, err = Exchange(hc, req, 100*time.Millisecond)
	var pe *PhaseError
	if assert.Truef(t, errors.As(err, &pe), "expect a *PhaseError, got %v", err) {
		assert.Equal(t, remoteerr.PhaseRead, pe.Phase)
		assert.ErrorIs(t, err, errReadTimeout)
	}
}

func TestExchangeConnectError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	hc, err := NewHTTPClient(HTTPConfig{ConnectTimeout: time.Second})
	require.NoError(t, err)

	req, err := NewRequest(context.Background(), http.MethodGet, "http://"+addr+"/v1/table/", nil, nil)
	require.NoError(t, err)
	_, err = Exchange(hc, req, time.Second)
	var pe *PhaseError
	if assert.Truef(t, errors.As(err, &pe), "expect a *PhaseError, got %v", err) {
		assert.Equal(t, remoteerr.PhaseConnect, pe.Phase)
		assert.Contains(t, pe.Error(), "connect error")
	}
}

func TestExchangeCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	hc, err := NewHTTPClient(HTTPConfig{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req, err := NewRequest(ctx, http.MethodGet, srv.URL, nil, nil)
	require.NoError(t, err)
	_, err = Exchange(hc, req, 0)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	var pe *PhaseError
	assert.False(t, errors.As(err, &pe), "a canceled exchange should report the context error")
}

func TestExchangeHandshakeError(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "ok")
	}))
	defer srv.Close()

	// The client does not trust the certificate of the test server.
	hc, err := NewHTTPClient(HTTPConfig{ConnectTimeout: time.Second})
	require.NoError(t, err)

	req, err := NewRequest(context.Background(), http.MethodGet, srv.URL, nil, nil)
	require.NoError(t, err)
	_, err = Exchange(hc, req, time.Second)
	var pe *PhaseError
	if assert.Truef(t, errors.As(err, &pe), "expect a *PhaseError, got %v", err) {
		assert.Equal(t, remoteerr.PhaseConnect, pe.Phase, "a failed handshake should be a connect error")
	}
}

func TestBasicAuth(t *testing.T) {
	assert.Equal(t, "Basic dXNlcjpwYXNz", BasicAuth("user", "pass"))
}
