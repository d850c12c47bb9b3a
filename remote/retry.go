//
// Copyright (c) 2019, 2025 Oracle and/or its affiliates. All rights reserved.
//
// Licensed under the Universal Permissive License v 1.0 as shown at
//  https://oss.oracle.com/licenses/upl/
//

package remote

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/lancedb/lancedb-go-sdk/remote/logger"
	"github.com/lancedb/lancedb-go-sdk/remote/remoteerr"
)

// retrier runs the attempts of a logical request.
type retrier struct {
	dispatcher *dispatcher
	classifier StatusClassifier
	backoff    BackoffPolicy
	userAgent  string

	maxRetries        int
	maxConnectRetries int
	maxReadRetries    int

	logger  *logger.Logger
	metrics *clientMetrics
	tracer  trace.Tracer
}

func newRetrier(d *dispatcher, cfg ClientConfig, lgr *logger.Logger, m *clientMetrics, tracer trace.Tracer) *retrier {
	return &retrier{
		dispatcher:        d,
		classifier:        NewStatusClassifier(cfg.RetryConfig.DefaultStatuses()),
		backoff:           cfg.RetryConfig.DefaultBackoff(),
		userAgent:         cfg.UserAgent,
		maxRetries:        cfg.RetryConfig.DefaultRetries(),
		maxConnectRetries: cfg.RetryConfig.DefaultConnectRetries(),
		maxReadRetries:    cfg.RetryConfig.DefaultReadRetries(),
		logger:            lgr,
		metrics:           m,
		tracer:            tracer,
	}
}

// retryCounts tracks the retries of a logical request per kind of failure.
type retryCounts struct {
	status  int
	connect int
	read    int
}

func (c retryCounts) total() int {
	return c.status + c.connect + c.read
}

// execute sends the request until it succeeds, fails with a terminal error,
// or the retry budget for the kind of failure is exhausted. Every attempt
// carries a new RequestContext. The handler is called with the successful
// response; an error it returns is reported as an *remoteerr.HttpError with
// the 2xx status of the response and is not retried.
//
// If ctx is done, during an attempt or while waiting to retry, execute
// returns the context error.
func (r *retrier) execute(ctx context.Context, req *request, handle responseHandler) (err error) {
	ctx, span := r.tracer.Start(ctx, "lancedb.remote/"+req.op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", req.method),
			attribute.String("lancedb.path", req.path),
		))
	start := time.Now()
	defer func() {
		r.metrics.observeDuration(req.op, time.Since(start))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}()

	var retries retryCounts
	for numAttempts := 1; ; numAttempts++ {
		rc := newRequestContext(r.userAgent)
		err = r.attempt(ctx, rc, req, handle)

		if err != nil && ctx.Err() != nil {
			r.metrics.observeAttempt(outcomeCanceled)
			return ctx.Err()
		}

		cl := r.classifier.ClassifyError(err)
		span.AddEvent("attempt", trace.WithAttributes(
			attribute.Int("lancedb.attempt", numAttempts),
			attribute.String("lancedb.request_id", rc.RequestID.String()),
			attribute.String("lancedb.outcome", cl.String()),
		))

		switch cl {
		case remoteerr.Success:
			r.metrics.observeAttempt(outcomeSuccess)
			return nil
		case remoteerr.Terminal:
			r.metrics.observeAttempt(outcomeTerminal)
			return err
		}
		r.metrics.observeAttempt(outcomeRetryable)

		httpErr := err.(*remoteerr.HttpError)
		kind, count, limit := r.budget(httpErr, &retries)
		if *count >= limit {
			r.logger.WithField("request_id", httpErr.RequestID).Info(
				"%s %s failed after %d attempt(s): %v", req.method, req.path, numAttempts, httpErr)
			return &remoteerr.RetryError{
				RequestID:      httpErr.RequestID,
				StatusCode:     httpErr.StatusCode,
				NumAttempts:    numAttempts,
				RequestRetries: retries.status,
				ConnectRetries: retries.connect,
				ReadRetries:    retries.read,
				Cause:          httpErr,
			}
		}

		*count++
		r.metrics.observeRetry(kind)
		delay := r.backoff.Delay(retries.total())
		r.logger.WithField("request_id", httpErr.RequestID).Info(
			"%s %s got error %v, retrying (%s retry %d of %d) in %v",
			req.method, req.path, httpErr, kind, *count, limit, delay)

		if err = sleep(ctx, delay); err != nil {
			return err
		}
	}
}

// attempt performs one exchange and runs the handler on success.
func (r *retrier) attempt(ctx context.Context, rc RequestContext, req *request, handle responseHandler) error {
	resp, err := r.dispatcher.dispatch(ctx, rc, req)
	if err != nil || handle == nil {
		return err
	}

	if err = handle(resp); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		httpErr := remoteerr.NewHttpError(resp.Code, "cannot process response: "+err.Error(), rc.RequestID.String())
		httpErr.Err = err
		return httpErr
	}
	return nil
}

// budget returns the kind of a retryable failure with the counter and limit
// of its retry budget.
func (r *retrier) budget(err *remoteerr.HttpError, c *retryCounts) (kind string, count *int, limit int) {
	switch err.Phase {
	case remoteerr.PhaseConnect:
		return retryKindConnect, &c.connect, r.maxConnectRetries
	case remoteerr.PhaseRead:
		return retryKindRead, &c.read, r.maxReadRetries
	default:
		return retryKindStatus, &c.status, r.maxRetries
	}
}

// sleep pauses the current goroutine for d, or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
