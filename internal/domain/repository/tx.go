package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// TxManager runs fn in one transaction, committing when it returns nil and
// rolling back otherwise. Repositories treat a nil *sql.Tx as "no
// transaction", which is what the in-memory store passes.
type TxManager interface {
	WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error
}

type pgTxManager struct {
	db *sql.DB
}

func NewPgTxManager(db *sql.DB) TxManager {
	return &pgTxManager{db: db}
}

func (m *pgTxManager) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Rollback if not committed

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
