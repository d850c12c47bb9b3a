//
// Copyright (c) 2019, 2025 Oracle and/or its affiliates. All rights reserved.
//
// Licensed under the Universal Permissive License v 1.0 as shown at
//  https://oss.oracle.com/licenses/upl/
//

// Package test provides utilities for tests of the remote client: a mock
// LanceDB Cloud server and Arrow IPC stream fixtures.
package test

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
)

// RecordedRequest represents a request received by a MockServer.
type RecordedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// MockServer is an HTTP server on localhost that records every request it
// receives and responds with the configured handler.
type MockServer struct {
	*httptest.Server

	mu       sync.Mutex
	handler  http.HandlerFunc
	requests []RecordedRequest
}

// NewMockServer starts a MockServer that responds with the specified handler.
// Callers should call Close when done.
func NewMockServer(handler http.HandlerFunc) *MockServer {
	s := &MockServer{handler: handler}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serveHTTP))
	return s
}

func (s *MockServer) serveHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	s.mu.Lock()
	s.requests = append(s.requests, RecordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Header: r.Header.Clone(),
		Body:   body,
	})
	handler := s.handler
	s.mu.Unlock()

	if handler == nil {
		http.NotFound(w, r)
		return
	}
	handler(w, r)
}

// SetHandler replaces the handler of the server.
func (s *MockServer) SetHandler(handler http.HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = handler
}

// Requests returns the requests received so far, in order of arrival.
func (s *MockServer) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]RecordedRequest(nil), s.requests...)
}

// NumRequests returns the number of requests received so far.
func (s *MockServer) NumRequests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

// LastRequest returns the most recent request. It panics if there is none.
func (s *MockServer) LastRequest() RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		panic("mock server has not received any request")
	}
	return s.requests[len(s.requests)-1]
}

// RespondWith returns a handler that always responds with the specified
// status code and body.
func RespondWith(statusCode int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(statusCode)
		fmt.Fprint(w, body)
	}
}

// RespondJSON returns a handler that always responds with status 200 and
// the specified JSON body.
func RespondJSON(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	}
}

// RespondArrow returns a handler that always responds with status 200 and
// the specified Arrow IPC stream.
func RespondArrow(stream []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", ArrowStreamContentType)
		w.Write(stream)
	}
}

// Sequence returns a handler that responds with the handlers in order, one
// per request. The last handler serves all remaining requests.
func Sequence(handlers ...http.HandlerFunc) http.HandlerFunc {
	var mu sync.Mutex
	next := 0
	return func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		h := handlers[next]
		if next < len(handlers)-1 {
			next++
		}
		mu.Unlock()
		h(w, r)
	}
}
