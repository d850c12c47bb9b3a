//
// Copyright (c) 2019, 2025 Oracle and/or its affiliates. All rights reserved.
//
// Licensed under the Universal Permissive License v 1.0 as shown at
//  https://oss.oracle.com/licenses/upl/
//

package remote

import (
	"net/url"

	"github.com/google/uuid"
)

// RequestContext represents the per-attempt metadata sent with a request.
// A new RequestContext is created for every attempt.
type RequestContext struct {
	// RequestID is sent in the x-request-id header.
	RequestID uuid.UUID

	// UserAgent is sent in the User-Agent header.
	UserAgent string
}

func newRequestContext(userAgent string) RequestContext {
	return RequestContext{
		RequestID: uuid.New(),
		UserAgent: userAgent,
	}
}

// request describes a logical request. It is immutable so it can be sent
// any number of times.
type request struct {
	// op names the operation for logging and tracing.
	op string

	method string

	// path is relative to the endpoint of the connection.
	path string

	query url.Values

	// body is sent as application/json when non-nil.
	body []byte

	// accept specifies the Accept header, application/json if empty.
	accept string
}
