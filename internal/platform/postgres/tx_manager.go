package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/spellbook-variants/internal/store"
)

// lockVariantsQuery blocks concurrent writers, including a second
// generation run, until the transaction ends. Readers are not blocked.
const lockVariantsQuery = `LOCK TABLE variants IN SHARE ROW EXCLUSIVE MODE`

// PostgresTxManager implements store.TxManager on a connection pool.
type PostgresTxManager struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ store.TxManager = (*PostgresTxManager)(nil)

// NewPostgresTxManager creates a transaction manager on db.
// If logger is nil, a default logger will be used.
func NewPostgresTxManager(db *sql.DB, logger *slog.Logger) *PostgresTxManager {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresTxManager{db: db, logger: logger}
}

// WithinTx implements store.TxManager.WithinTx. The variants table is
// locked for the lifetime of the transaction.
func (m *PostgresTxManager) WithinTx(
	ctx context.Context,
	fn func(ctx context.Context, variants store.VariantStore) error,
) error {
	return store.RunInTransaction(ctx, m.db, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, lockVariantsQuery); err != nil {
			return fmt.Errorf("failed to lock variants table: %w", err)
		}
		return fn(ctx, NewPostgresVariantStore(tx, m.logger))
	})
}
