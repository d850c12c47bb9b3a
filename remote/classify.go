//
// Copyright (c) 2019, 2025 Oracle and/or its affiliates. All rights reserved.
//
// Licensed under the Universal Permissive License v 1.0 as shown at
//  https://oss.oracle.com/licenses/upl/
//

package remote

import (
	"github.com/lancedb/lancedb-go-sdk/remote/remoteerr"
)

// StatusClassifier classifies the outcome of an attempt.
type StatusClassifier struct {
	retryable map[int]bool
}

// NewStatusClassifier creates a StatusClassifier that treats the specified
// status codes as retryable.
func NewStatusClassifier(statuses []int) StatusClassifier {
	m := make(map[int]bool, len(statuses))
	for _, s := range statuses {
		m[s] = true
	}
	return StatusClassifier{retryable: m}
}

// Classify returns the classification of the specified HTTP status code.
// A 2xx status is a Success, a status in the retryable set is Retryable and
// any other status is Terminal.
func (c StatusClassifier) Classify(statusCode int) remoteerr.Classification {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return remoteerr.Success
	case c.retryable[statusCode]:
		return remoteerr.Retryable
	default:
		return remoteerr.Terminal
	}
}

// ClassifyError returns the classification of a failed attempt.
// Connect and read failures are Retryable. Errors other than an
// *remoteerr.HttpError are Terminal.
func (c StatusClassifier) ClassifyError(err error) remoteerr.Classification {
	if err == nil {
		return remoteerr.Success
	}

	httpErr, ok := err.(*remoteerr.HttpError)
	if !ok {
		return remoteerr.Terminal
	}

	switch httpErr.Phase {
	case remoteerr.PhaseConnect, remoteerr.PhaseRead:
		return remoteerr.Retryable
	}

	// A 2xx response whose content could not be handled is not retried.
	if cl := c.Classify(httpErr.StatusCode); cl != remoteerr.Success {
		return cl
	}
	return remoteerr.Terminal
}
