// Package db provides database utilities including transaction management.
package db

import (
	"context"
	"sync"

	"gorm.io/gorm"
)

// txKey is the context key for storing transaction state.
type txKey struct{}

type txState struct {
	tx *gorm.DB

	mu          sync.Mutex
	afterCommit []func()
}

// TransactionManager manages database transactions.
type TransactionManager struct {
	db *gorm.DB
}

// NewTransactionManager creates a new TransactionManager.
func NewTransactionManager(db *gorm.DB) *TransactionManager {
	return &TransactionManager{db: db}
}

// RunInTransaction executes fn within a database transaction. When ctx already carries a
// transaction, fn joins it and commit is left to the outermost caller.
// Callbacks registered with AfterCommit run once the outermost transaction commits.
func (tm *TransactionManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*txState); ok {
		return fn(ctx)
	}

	state := &txState{}
	err := tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		state.tx = tx
		return fn(context.WithValue(ctx, txKey{}, state))
	})
	if err != nil {
		return err
	}

	state.mu.Lock()
	callbacks := state.afterCommit
	state.afterCommit = nil
	state.mu.Unlock()

	for _, cb := range callbacks {
		cb()
	}
	return nil
}

// GetTxFromContext returns the transaction from context if available.
// This is a standalone function for use in repositories.
func GetTxFromContext(ctx context.Context, defaultDB *gorm.DB) *gorm.DB {
	if state, ok := ctx.Value(txKey{}).(*txState); ok {
		return state.tx
	}
	return defaultDB.WithContext(ctx)
}

// InTransaction reports whether ctx carries an open transaction.
func InTransaction(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(*txState)
	return ok
}

// AfterCommit defers fn until the transaction carried by ctx commits. Callbacks are dropped on
// rollback. Outside a transaction fn runs immediately.
func AfterCommit(ctx context.Context, fn func()) {
	state, ok := ctx.Value(txKey{}).(*txState)
	if !ok {
		fn()
		return
	}
	state.mu.Lock()
	state.afterCommit = append(state.afterCommit, fn)
	state.mu.Unlock()
}
