package parallel

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Result holds the outcome of a parallel task.
type Result[T any] struct {
	Name    string
	OK      bool
	Value   T
	Err     error
	Elapsed time.Duration
}

// Task is a function that runs in parallel.
type Task[T any] struct {
	Name string
	Fn   func(ctx context.Context) (T, error)
}

// Run executes tasks in parallel with the given concurrency limit. A limit
// below 1 starts every task at once. Results come back in the order tasks
// were submitted; a failing or panicking task never cancels the others.
func Run[T any](ctx context.Context, tasks []Task[T], concurrency int, log *zap.Logger) []Result[T] {
	if log == nil {
		log = zap.NewNop()
	}
	if concurrency < 1 {
		concurrency = len(tasks)
	}

	results := make([]Result[T], len(tasks))
	if len(tasks) == 0 {
		return results
	}

	g := new(errgroup.Group)
	g.SetLimit(concurrency)

	for i, task := range tasks {
		g.Go(func() error {
			start := time.Now()
			value, err := call(ctx, task)
			elapsed := time.Since(start)

			// each goroutine writes only its own slot
			if err != nil {
				results[i] = Result[T]{Name: task.Name, Err: err, Elapsed: elapsed}
				log.Debug("task failed", zap.String("task", task.Name), zap.Error(err), zap.Duration("elapsed", elapsed))
			} else {
				results[i] = Result[T]{Name: task.Name, OK: true, Value: value, Elapsed: elapsed}
			}
			return nil // never fail the group, collect results instead
		})
	}

	_ = g.Wait()
	return results
}

func call[T any](ctx context.Context, task Task[T]) (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task %s panicked: %v", task.Name, r)
		}
	}()
	if err := ctx.Err(); err != nil {
		return value, err
	}
	return task.Fn(ctx)
}

// Failed counts results that did not succeed.
func Failed[T any](results []Result[T]) int {
	n := 0
	for _, r := range results {
		if !r.OK {
			n++
		}
	}
	return n
}
