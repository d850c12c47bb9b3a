//
// Copyright (c) 2019, 2025 Oracle and/or its affiliates. All rights reserved.
//
// Licensed under the Universal Permissive License v 1.0 as shown at
//  https://oss.oracle.com/licenses/upl/
//

package remote

import (
	"net/http"
	"os"

	"github.com/lancedb/lancedb-go-sdk/remote/remoteerr"
)

// AuthorizationProvider is an interface that provides request authorization
// for connections.
//
// Implementations of this interface must be safe for concurrent use by
// multiple goroutines.
type AuthorizationProvider interface {
	// SignHTTPRequest adds the authorization headers to the request.
	SignHTTPRequest(httpReq *http.Request) error
}

// APIKeyProvider authorizes requests with an API key sent in the x-api-key
// header.
type APIKeyProvider struct {
	apiKey string
}

// NewAPIKeyProvider creates an APIKeyProvider with the specified API key.
// If apiKey is empty, the value of the LANCEDB_API_KEY environment variable
// is used. A ConfigError is returned if neither is set.
func NewAPIKeyProvider(apiKey string) (*APIKeyProvider, error) {
	if apiKey == "" {
		apiKey = os.Getenv(envAPIKey)
	}
	if apiKey == "" {
		return nil, remoteerr.NewConfigError("an API key is required, set Config.APIKey or the %s environment variable", envAPIKey)
	}
	return &APIKeyProvider{apiKey: apiKey}, nil
}

// SignHTTPRequest sets the x-api-key header.
func (p *APIKeyProvider) SignHTTPRequest(httpReq *http.Request) error {
	httpReq.Header.Set("x-api-key", p.apiKey)
	return nil
}
