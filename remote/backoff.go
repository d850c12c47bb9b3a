//
// Copyright (c) 2019, 2025 Oracle and/or its affiliates. All rights reserved.
//
// Licensed under the Universal Permissive License v 1.0 as shown at
//  https://oss.oracle.com/licenses/upl/
//

package remote

import (
	"math"
	"math/rand"
	"time"
)

// BackoffPolicy computes the delay before a retry.
//
// Implementations must be safe for concurrent use by multiple goroutines.
type BackoffPolicy interface {
	// Delay returns the time to wait before the specified retry.
	// numRetries starts with 1 for the first retry.
	Delay(numRetries int) time.Duration
}

// ExponentialBackoff represents an exponential backoff with random jitter.
// The delay before the n-th retry is:
//
//	Factor * 2^(n-1) + random(0, Jitter)
type ExponentialBackoff struct {
	// Factor specifies the delay before the first retry.
	Factor time.Duration

	// Jitter specifies the upper bound of the random delay added.
	Jitter time.Duration
}

// maxBackoffShift caps the exponent.
const maxBackoffShift = 30

// maxBackoffDelay is the delay a computation saturates at instead of
// overflowing.
const maxBackoffDelay = time.Duration(math.MaxInt64)

// Delay returns the time to wait before the specified retry.
func (b ExponentialBackoff) Delay(numRetries int) time.Duration {
	return computeBackoffDelay(numRetries, b.Factor, b.Jitter)
}

// Use an exponential backoff algorithm to compute time of delay.
//
// Assumption: numRetries starts with 1
// Delay = 2^(numRetries-1) * baseDelay + random(0, jitter)
func computeBackoffDelay(numRetries int, baseDelay, jitter time.Duration) time.Duration {
	d := baseDelay
	if numRetries > 1 {
		shift := numRetries - 1
		if shift > maxBackoffShift {
			shift = maxBackoffShift
		}
		if baseDelay > maxBackoffDelay>>shift {
			d = maxBackoffDelay
		} else {
			d = baseDelay << shift
		}
	}
	if jitter > 0 {
		j := time.Duration(rand.Int63n(int64(jitter)))
		if d > maxBackoffDelay-j {
			d = maxBackoffDelay
		} else {
			d += j
		}
	}
	return d
}

// FixedBackoff represents a constant delay between attempts.
type FixedBackoff time.Duration

// Delay returns the fixed delay regardless of the number of retries.
func (b FixedBackoff) Delay(numRetries int) time.Duration {
	return time.Duration(b)
}
