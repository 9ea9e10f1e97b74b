// Package batch runs a fixed number of indexed tasks concurrently and joins
// them all. A failing task never cancels its siblings.
package batch

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

type Runner struct {
	// Concurrency caps the tasks in flight. Zero or less runs all at once.
	Concurrency int
	// Timeout bounds each task individually. Zero disables it.
	Timeout time.Duration
}

type Outcome[T any] struct {
	Index   int
	Value   T
	Err     error
	Elapsed time.Duration
}

func (o Outcome[T]) OK() bool {
	return o.Err == nil
}

// Run executes task for every index in [0, n) and returns the outcomes in
// index order. It returns only after every task finished.
func Run[T any](ctx context.Context, r Runner, n int, task func(ctx context.Context, i int) (T, error)) []Outcome[T] {
	if n <= 0 {
		return nil
	}

	out := make([]Outcome[T], n)

	var g errgroup.Group
	if r.Concurrency > 0 {
		g.SetLimit(r.Concurrency)
	}

	for i := 0; i < n; i++ {
		g.Go(func() error {
			out[i] = runOne(ctx, r.Timeout, i, task)
			return nil
		})
	}
	_ = g.Wait()

	return out
}

func runOne[T any](ctx context.Context, timeout time.Duration, i int, task func(ctx context.Context, i int) (T, error)) (res Outcome[T]) {
	res.Index = i
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			res.Err = fmt.Errorf("task %d panicked: %v", i, p)
		}
		res.Elapsed = time.Since(start)
	}()

	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}

	taskCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		taskCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	res.Value, res.Err = task(taskCtx, i)
	return res
}

// Succeeded returns the values of successful outcomes, preserving order.
func Succeeded[T any](outcomes []Outcome[T]) []T {
	var vals []T
	for _, o := range outcomes {
		if o.Err == nil {
			vals = append(vals, o.Value)
		}
	}
	return vals
}
