//
// Copyright (c) 2019, 2025 Oracle and/or its affiliates. All rights reserved.
//
// Licensed under the Universal Permissive License v 1.0 as shown at
//  https://oss.oracle.com/licenses/upl/
//

package remote

import (
	"context"
)

// execStrategy decides where the work of an operation runs.
type execStrategy interface {
	submit(fn func())
}

// blockingStrategy runs the work on the calling goroutine.
type blockingStrategy struct{}

func (blockingStrategy) submit(fn func()) {
	fn()
}

// asyncStrategy runs the work on a new goroutine.
type asyncStrategy struct{}

func (asyncStrategy) submit(fn func()) {
	go fn()
}

// Future represents the result of an operation of an AsyncConnection,
// AsyncRemoteTable or AsyncQuery that may not have completed yet.
//
// A Future is safe for concurrent use by multiple goroutines.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

func (f *Future[T]) complete(val T, err error) {
	f.val, f.err = val, err
	close(f.done)
}

// Done returns a channel that is closed when the operation completes.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Await waits for the operation to complete and returns its result.
//
// If ctx is done first, Await returns the context error. This only stops the
// wait, the operation is canceled by the context it was started with.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	default:
	}

	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// wait blocks until the operation completes.
func (f *Future[T]) wait() (T, error) {
	<-f.done
	return f.val, f.err
}

// runWith runs fn with the strategy and returns the Future of its result.
func runWith[T any](s execStrategy, fn func() (T, error)) *Future[T] {
	f := newFuture[T]()
	s.submit(func() {
		f.complete(fn())
	})
	return f
}
