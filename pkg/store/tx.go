package store

import (
	"context"
	"errors"
	"fmt"
)

// InTx runs fn inside a transaction. When ctx already carries one, a nested
// transaction (savepoint) is opened on it instead. The context handed to fn
// carries the new transaction. fn's error, or a panic, rolls back.
func InTx(ctx context.Context, exec Executor, fn func(ctx context.Context, tx Executor) error) (err error) {
	if fn == nil {
		return nil
	}
	parent := Use(ctx, exec)
	if parent == nil {
		return errors.New("store: no executor")
	}
	tx, err := parent.Begin(ctx)
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if rec := recover(); rec != nil {
			_ = tx.Rollback(ctx)
			panic(rec)
		}
		if rbErr := tx.Rollback(ctx); rbErr != nil && err != nil {
			err = errors.Join(err, fmt.Errorf("store: rollback: %w", rbErr))
		}
	}()

	if err = fn(WithExecutor(ctx, tx), tx); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	committed = true
	return nil
}
