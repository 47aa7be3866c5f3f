// Package retry provides transient-fault retry with exponential backoff for
// remote SQL Server operations.
package retry

import (
	"context"
	"errors"
	"strings"
	"time"

	mssql "github.com/microsoft/go-mssqldb"
)

// Options controls retry behavior for a single wrapped operation.
type Options struct {
	MaxAttempts  int
	InitialDelay time.Duration
}

// DefaultOptions returns the retry settings used at the connection boundary
// when no configuration is supplied.
func DefaultOptions() Options {
	return Options{
		MaxAttempts:  3,
		InitialDelay: time.Second,
	}
}

// sleepFn is swapped out in tests to observe delays without waiting.
var sleepFn = func(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// Do invokes op, retrying on transient failures with a doubling delay.
//
// Non-transient errors and errors on the final attempt propagate immediately
// without any further delay. The returned error is the last one observed.
func Do(ctx context.Context, op func(ctx context.Context) error, opts Options) error {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 1
	}

	delay := opts.InitialDelay
	var err error

	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		err = op(ctx)
		if err == nil {
			return nil
		}

		if !IsTransient(err) || attempt == opts.MaxAttempts {
			return err
		}

		if sleepErr := sleepFn(ctx, delay); sleepErr != nil {
			return sleepErr
		}
		delay *= 2
	}

	return err
}

// DoValue is Do for operations that produce a value, used for connection
// establishment.
func DoValue[T any](ctx context.Context, op func(ctx context.Context) (T, error), opts Options) (T, error) {
	var result T
	err := Do(ctx, func(ctx context.Context) error {
		var opErr error
		result, opErr = op(ctx)
		return opErr
	}, opts)
	return result, err
}

// transientNumbers is the fixed set of SQL Server error numbers treated as
// transient: database unavailable/throttling (4060, 40197, 40501, 40613,
// 49918-49920), resource limits (10928, 10929), deadlock victim (1205), and
// transport-level failures (233, 64).
var transientNumbers = map[int32]bool{
	4060:  true,
	10928: true,
	10929: true,
	40197: true,
	40501: true,
	40613: true,
	49918: true,
	49919: true,
	49920: true,
	1205:  true,
	233:   true,
	64:    true,
}

// transientPhrases covers driver and pool errors that surface without a
// server error number.
var transientPhrases = []string{
	"timeout",
	"deadline exceeded",
	"connection reset",
	"connection refused",
	"connection pool",
	"too many connections",
	"broken pipe",
	"unable to open tcp connection",
}

// IsTransient classifies an error against the fixed transient signature set.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var sqlErr mssql.Error
	if errors.As(err, &sqlErr) {
		return transientNumbers[sqlErr.Number]
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, phrase := range transientPhrases {
		if strings.Contains(msg, phrase) {
			return true
		}
	}

	return false
}
