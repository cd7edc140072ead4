package txn

import (
	"context"
	"errors"

	"github.com/yungbote/fulltheme-backend/internal/platform/dbctx"
	"gorm.io/gorm"
)

// Runner provides the transaction boundary for multi-row writes.
type Runner interface {
	InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error
}

type gormRunner struct {
	db *gorm.DB
}

// NewGormRunner returns a Runner backed by GORM transactions.
func NewGormRunner(db *gorm.DB) Runner {
	return &gormRunner{db: db}
}

func (r *gormRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	if fn == nil {
		return nil
	}
	if r == nil || r.db == nil {
		return errors.New("transaction runner has nil db")
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(dbctx.Context{Ctx: ctx, Tx: tx})
	})
}

// Savepoint runs fn in a nested transaction so a failed statement does not
// poison the enclosing Postgres transaction.
func Savepoint(ctx context.Context, tx *gorm.DB, fn func(tx *gorm.DB) error) error {
	return tx.WithContext(ctx).Transaction(fn)
}
