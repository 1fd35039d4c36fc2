package database

import (
	"context"
	"sync"

	"gorm.io/gorm"
)

type txKey struct{}

type hooksKey struct{}

// Hooks collects callbacks that must run only after the surrounding
// transaction committed.
type Hooks struct {
	mu  sync.Mutex
	fns []func()
}

func (h *Hooks) add(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.fns = append(h.fns, fn)
}

// Run executes the registered callbacks in registration order.
func (h *Hooks) Run() {
	h.mu.Lock()
	fns := h.fns
	h.fns = nil
	h.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// WithTx binds tx and a fresh hook list to ctx.
func WithTx(ctx context.Context, tx *gorm.DB) (context.Context, *Hooks) {
	hooks := &Hooks{}
	ctx = context.WithValue(ctx, txKey{}, tx)
	ctx = context.WithValue(ctx, hooksKey{}, hooks)
	return ctx, hooks
}

func TxFromContext(ctx context.Context) (*gorm.DB, bool) {
	if ctx == nil {
		return nil, false
	}
	tx, ok := ctx.Value(txKey{}).(*gorm.DB)
	return tx, ok && tx != nil
}

// Conn returns the transaction bound to ctx, or db when there is none.
func Conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := TxFromContext(ctx); ok {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}

// AfterCommit defers fn until the transaction bound to ctx commits. Without
// a transaction fn runs immediately.
func AfterCommit(ctx context.Context, fn func()) {
	if hooks, ok := ctx.Value(hooksKey{}).(*Hooks); ok && hooks != nil {
		hooks.add(fn)
		return
	}
	fn()
}

// Transactor runs units of work atomically.
type Transactor struct {
	db *gorm.DB
}

func NewTransactor(db *gorm.DB) *Transactor {
	return &Transactor{db: db}
}

// WithinTransaction joins the transaction already bound to ctx or opens a new
// one that commits when fn returns nil.
func (t *Transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := TxFromContext(ctx); ok {
		return fn(ctx)
	}

	var hooks *Hooks
	err := t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txCtx context.Context
		txCtx, hooks = WithTx(ctx, tx)
		return fn(txCtx)
	})
	if err != nil {
		return err
	}

	hooks.Run()
	return nil
}

// DB returns the handle the transactor opens transactions on.
func (t *Transactor) DB() *gorm.DB {
	return t.db
}
