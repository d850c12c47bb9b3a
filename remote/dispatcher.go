//
// Copyright (c) 2019, 2025 Oracle and/or its affiliates. All rights reserved.
//
// Licensed under the Universal Permissive License v 1.0 as shown at
//  https://oss.oracle.com/licenses/upl/
//

package remote

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/lancedb/lancedb-go-sdk/remote/httputil"
	"github.com/lancedb/lancedb-go-sdk/remote/logger"
	"github.com/lancedb/lancedb-go-sdk/remote/remoteerr"
)

// responseHandler handles the content of a 2xx response.
type responseHandler func(resp *httputil.Response) error

// dispatcher performs single HTTP exchanges. It never retries.
type dispatcher struct {
	// executor specifies a request executor.
	// This is an *httputil.HTTPClient unless replaced by tests.
	executor httputil.RequestExecutor

	// endpoint is the URL the request paths are relative to.
	endpoint string

	// database is sent in the x-lancedb-database header.
	database string

	auth AuthorizationProvider

	// readTimeout bounds the time to receive a complete response.
	readTimeout time.Duration

	logger *logger.Logger
}

// dispatch sends the request once with the metadata of rc.
//
// A 2xx response is returned with a nil error. A response with any other
// status is returned with an *remoteerr.HttpError holding its status code
// and body. An attempt that failed without a response returns an
// *remoteerr.HttpError for the connect or read phase. If ctx is done the
// context error is returned.
func (d *dispatcher) dispatch(ctx context.Context, rc RequestContext, req *request) (*httputil.Response, error) {
	requestID := rc.RequestID.String()

	url := d.endpoint + req.path
	if len(req.query) > 0 {
		url += "?" + req.query.Encode()
	}

	accept := req.accept
	if accept == "" {
		accept = "application/json"
	}
	headers := map[string]string{
		"x-request-id":       requestID,
		"User-Agent":         rc.UserAgent,
		"x-lancedb-database": d.database,
		"Accept":             accept,
	}
	if req.body != nil {
		headers["Content-Type"] = "application/json"
	}

	httpReq, err := httputil.NewRequest(ctx, req.method, url, req.body, headers)
	if err != nil {
		return nil, remoteerr.NewConfigErrorWithCause(err, "cannot create request for %s", url)
	}

	if err = d.auth.SignHTTPRequest(httpReq); err != nil {
		return nil, err
	}

	d.logger.Fine("%s %s (request_id=%s)", req.method, url, requestID)
	resp, err := httputil.Exchange(d.executor, httpReq, d.readTimeout)
	if err != nil {
		var pe *httputil.PhaseError
		if errors.As(err, &pe) {
			return nil, remoteerr.NewTransportError(pe.Phase, requestID, pe.Err)
		}
		return nil, err
	}

	d.logger.Fine("%s %s (request_id=%s) got status %d, %d bytes",
		req.method, url, requestID, resp.Code, len(resp.Body))
	if resp.Code >= 200 && resp.Code < 300 {
		return resp, nil
	}

	msg := string(resp.Body)
	if msg == "" {
		msg = http.StatusText(resp.Code)
	}
	return resp, remoteerr.NewHttpError(resp.Code, msg, requestID)
}
