// Package bulk runs one backend call per item with bounded concurrency and
// reports the items that failed.
package bulk

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds the calls in flight of one bulk operation.
const DefaultConcurrency = 4

// ItemError is the failure of one item.
type ItemError struct {
	ID  string
	Err error
}

func (e ItemError) Error() string { return fmt.Sprintf("%s: %v", e.ID, e.Err) }

func (e ItemError) Unwrap() error { return e.Err }

// Error reports the items a bulk operation could not process. The other
// items were processed; running the operation again handles the rest.
type Error struct {
	Op     string
	Failed []ItemError
}

func (e *Error) Error() string {
	parts := make([]string, len(e.Failed))
	for i, f := range e.Failed {
		parts[i] = f.Error()
	}
	return fmt.Sprintf("%s: %d item(s) failed: %s", e.Op, len(e.Failed), strings.Join(parts, "; "))
}

// Unwrap exposes the item errors to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	errs := make([]error, len(e.Failed))
	for i, f := range e.Failed {
		errs[i] = f
	}
	return errs
}

// IDs returns the ids of the failed items.
func (e *Error) IDs() []string {
	ids := make([]string, len(e.Failed))
	for i, f := range e.Failed {
		ids[i] = f.ID
	}
	return ids
}

// Run calls fn for every id with at most limit calls in flight. It returns
// the ids that succeeded, in input order, and an *Error for the others.
func Run(ctx context.Context, op string, ids []string, limit int, fn func(ctx context.Context, id string) error) ([]string, error) {
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	errs := make([]error, len(ids))

	var g errgroup.Group
	g.SetLimit(limit)
	for i, id := range ids {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			errs[i] = fn(ctx, id)
			return nil
		})
	}
	_ = g.Wait()

	done := make([]string, 0, len(ids))
	var failed []ItemError
	for i, id := range ids {
		if errs[i] != nil {
			failed = append(failed, ItemError{ID: id, Err: errs[i]})
			continue
		}
		done = append(done, id)
	}
	if len(failed) > 0 {
		return done, &Error{Op: op, Failed: failed}
	}
	return done, nil
}
