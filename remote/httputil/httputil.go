//
// Copyright (c) 2019, 2025 Oracle and/or its affiliates. All rights reserved.
//
// Licensed under the Universal Permissive License v 1.0 as shown at
//  https://oss.oracle.com/licenses/upl/
//

package httputil

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptrace"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lancedb/lancedb-go-sdk/remote/remoteerr"
)

// RequestExecutor represents an interface used to execute an HTTP request.
type RequestExecutor interface {
	// Do is used to send an http request to server, returns an http response
	// and an error if occurred during execution.
	Do(req *http.Request) (*http.Response, error)
}

// Response represents a response that contains the content, headers and
// status code of an http.Response returned from server.
type Response struct {
	Body   []byte      // HTTP response body.
	Code   int         // HTTP response status code.
	Header http.Header // HTTP response headers.
}

// PhaseError represents a failed exchange that produced no response.
type PhaseError struct {
	// Phase specifies where the exchange failed.
	Phase remoteerr.Phase

	// Err specifies the underlying error.
	Err error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s error: %v", e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error {
	return e.Err
}

// errReadTimeout is reported when the read timeout of Exchange elapses.
var errReadTimeout = errors.New("timed out reading response")

// NewRequest creates an http request using the specified method, url and
// data. The http request header is populated with specified headers.
func NewRequest(ctx context.Context, method string, url string, data []byte, headers map[string]string) (*http.Request, error) {
	var rd io.Reader
	if len(data) > 0 {
		rd = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return nil, err
	}

	// Set http headers.
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	return httpReq, nil
}

// Exchange executes the request using the specified executor and reads the
// entire response body.
//
// Once a connection has been obtained for the request, readTimeout bounds the
// time to send the request and receive the complete response. A zero
// readTimeout means no timeout.
//
// If the context of the request is done, the context error is returned.
// Other failures are returned as a *PhaseError: PhaseConnect if no
// connection was obtained for the request, such as a refused dial or a failed
// TLS or proxy handshake, PhaseRead otherwise.
func Exchange(executor RequestExecutor, req *http.Request, readTimeout time.Duration) (*Response, error) {
	parent := req.Context()
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	var timedOut atomic.Bool
	var connected atomic.Bool
	var mu sync.Mutex
	var timer *time.Timer
	trace := &httptrace.ClientTrace{
		GotConn: func(httptrace.GotConnInfo) {
			if connected.Swap(true) || readTimeout <= 0 {
				return
			}
			mu.Lock()
			timer = time.AfterFunc(readTimeout, func() {
				timedOut.Store(true)
				cancel()
			})
			mu.Unlock()
		},
	}
	ctx = httptrace.WithClientTrace(ctx, trace)
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	fail := func(err error) error {
		if parent.Err() != nil {
			return parent.Err()
		}
		if timedOut.Load() {
			return &PhaseError{Phase: remoteerr.PhaseRead, Err: errReadTimeout}
		}
		if !connected.Load() {
			return &PhaseError{Phase: remoteerr.PhaseConnect, Err: err}
		}
		return &PhaseError{Phase: remoteerr.PhaseRead, Err: err}
	}

	httpResp, err := executor.Do(req.WithContext(ctx))
	if err != nil {
		return nil, fail(err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fail(err)
	}

	return &Response{
		Code:   httpResp.StatusCode,
		Body:   body,
		Header: httpResp.Header,
	}, nil
}

// BasicAuth returns a basic authentication string of the format:
//
//	Basic base64(username:password)
func BasicAuth(username, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(username+":"+password))
}
