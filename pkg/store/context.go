package store

import "context"

type txContextKey struct{}

// WithExecutor returns a context carrying tx so that nested operations join
// the open transaction.
//
//	tx, _ := exec.Begin(ctx)
//	ctx = store.WithExecutor(ctx, tx)
//	// store operations given ctx now run inside tx
func WithExecutor(ctx context.Context, tx Tx) context.Context {
	return context.WithValue(ctx, txContextKey{}, tx)
}

// ExecutorFromContext returns the transaction carried by ctx, or nil.
func ExecutorFromContext(ctx context.Context) Tx {
	if ctx == nil {
		return nil
	}
	if tx, ok := ctx.Value(txContextKey{}).(Tx); ok {
		return tx
	}
	return nil
}

// Use returns the transaction carried by ctx when present, otherwise fallback.
func Use(ctx context.Context, fallback Executor) Executor {
	if tx := ExecutorFromContext(ctx); tx != nil {
		return tx
	}
	return fallback
}
