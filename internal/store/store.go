package store

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound is returned by Latest when the session has no rows yet.
var ErrNotFound = errors.New("record not found")

// conn picks tx when the caller runs inside a transaction.
func conn(ctx context.Context, db, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
