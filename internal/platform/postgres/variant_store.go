package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/phrazzld/spellbook-variants/internal/domain"
	"github.com/phrazzld/spellbook-variants/internal/platform/logger"
	"github.com/phrazzld/spellbook-variants/internal/store"
)

// deleteBatchSize bounds the number of placeholders in one DELETE statement.
const deleteBatchSize = 1000

// association describes one variant link table.
type association struct {
	table  string
	column string
}

var (
	variantIncludes = association{table: "variant_includes", column: "card_id"}
	variantRequires = association{table: "variant_requires", column: "template_id"}
	variantOf       = association{table: "variant_of", column: "combo_id"}
	variantProduces = association{table: "variant_produces", column: "feature_id"}
)

func (a association) selectQuery() string {
	return fmt.Sprintf("SELECT %s FROM %s WHERE variant_id = $1 ORDER BY %s", a.column, a.table, a.column)
}

func (a association) insertQuery() string {
	return fmt.Sprintf("INSERT INTO %s (variant_id, %s) VALUES ($1, $2)", a.table, a.column)
}

func (a association) deleteQuery() string {
	return fmt.Sprintf("DELETE FROM %s WHERE variant_id = $1", a.table)
}

// PostgresVariantStore implements store.VariantStore on a database handle,
// normally the transaction opened by PostgresTxManager.
type PostgresVariantStore struct {
	db     store.DBTX
	logger *slog.Logger
	nowFn  func() time.Time
}

var _ store.VariantStore = (*PostgresVariantStore)(nil)

// NewPostgresVariantStore creates a variant store on db.
// If logger is nil, a default logger will be used.
func NewPostgresVariantStore(db store.DBTX, logger *slog.Logger) *PostgresVariantStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresVariantStore{
		db:     db,
		logger: logger.With(slog.String("component", "variant_store")),
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

// DeleteByStatus implements store.VariantStore.DeleteByStatus.
func (s *PostgresVariantStore) DeleteByStatus(ctx context.Context, status domain.VariantStatus) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM variants WHERE status = $1`, string(status))
	if err != nil {
		log.Error("failed to delete variants by status",
			slog.String("status", string(status)),
			slog.String("error", err.Error()))
		return 0, MapError(err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(n), nil
}

// ListIDs implements store.VariantStore.ListIDs.
func (s *PostgresVariantStore) ListIDs(ctx context.Context) ([]string, error) {
	ids, err := queryRows(ctx, s.db, `SELECT id FROM variants ORDER BY id`, func(rows *sql.Rows) (string, error) {
		var id string
		err := rows.Scan(&id)
		return id, err
	})
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list variant ids",
			slog.String("error", err.Error()))
		return nil, err
	}
	return ids, nil
}

// GetByID implements store.VariantStore.GetByID.
func (s *PostgresVariantStore) GetByID(ctx context.Context, id string) (*domain.Variant, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, status, identity, prerequisites, description, created_at, updated_at
		FROM variants
		WHERE id = $1
	`

	var v domain.Variant
	var status string
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&v.ID,
		&status,
		&v.Identity,
		&v.Prerequisites,
		&v.Description,
		&v.CreatedAt,
		&v.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("variant not found", slog.String("variant_id", id))
			return nil, store.ErrVariantNotFound
		}
		log.Error("failed to get variant",
			slog.String("variant_id", id),
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	v.Status = domain.VariantStatus(status)

	links := []struct {
		assoc association
		dst   *[]int
	}{
		{variantIncludes, &v.Includes},
		{variantRequires, &v.Requires},
		{variantOf, &v.Of},
		{variantProduces, &v.Produces},
	}
	for _, link := range links {
		values, err := queryInts(ctx, s.db, link.assoc.selectQuery(), id)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s of variant %s: %w", link.assoc.table, id, err)
		}
		*link.dst = values
	}

	return &v, nil
}

// Create implements store.VariantStore.Create.
func (s *PostgresVariantStore) Create(ctx context.Context, variant *domain.Variant) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := variant.Validate(); err != nil {
		log.Warn("variant validation failed during create",
			slog.String("variant_id", variant.ID),
			slog.String("error", err.Error()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	now := s.nowFn()
	if variant.CreatedAt.IsZero() {
		variant.CreatedAt = now
	}
	if variant.UpdatedAt.IsZero() {
		variant.UpdatedAt = now
	}

	query := `
		INSERT INTO variants (id, status, identity, prerequisites, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		variant.ID,
		string(variant.Status),
		variant.Identity,
		variant.Prerequisites,
		variant.Description,
		variant.CreatedAt,
		variant.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			log.Warn("variant already exists", slog.String("variant_id", variant.ID))
			return MapUniqueViolation(err, store.ErrVariantExists)
		}
		log.Error("failed to create variant",
			slog.String("variant_id", variant.ID),
			slog.String("error", err.Error()))
		return MapError(err)
	}

	for _, link := range []struct {
		assoc  association
		values []int
	}{
		{variantIncludes, variant.Includes},
		{variantRequires, variant.Requires},
		{variantOf, variant.Of},
		{variantProduces, variant.Produces},
	} {
		if err := s.insertAssociation(ctx, variant.ID, link.assoc, link.values); err != nil {
			return err
		}
	}

	log.Debug("variant created",
		slog.String("variant_id", variant.ID),
		slog.Int("cards", len(variant.Includes)),
		slog.Int("templates", len(variant.Requires)))
	return nil
}

// UpdateAssociations implements store.VariantStore.UpdateAssociations.
func (s *PostgresVariantStore) UpdateAssociations(ctx context.Context, id string, of, produces []int) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `UPDATE variants SET updated_at = $1 WHERE id = $2`, s.nowFn(), id)
	if err != nil {
		log.Error("failed to touch variant",
			slog.String("variant_id", id),
			slog.String("error", err.Error()))
		return MapError(err)
	}
	if err := CheckRowsAffected(result, store.ErrVariantNotFound); err != nil {
		return err
	}

	for _, link := range []struct {
		assoc  association
		values []int
	}{
		{variantOf, of},
		{variantProduces, produces},
	} {
		if _, err := s.db.ExecContext(ctx, link.assoc.deleteQuery(), id); err != nil {
			log.Error("failed to clear variant association",
				slog.String("variant_id", id),
				slog.String("table", link.assoc.table),
				slog.String("error", err.Error()))
			return MapError(err)
		}
		if err := s.insertAssociation(ctx, id, link.assoc, link.values); err != nil {
			return err
		}
	}

	return nil
}

// DeleteByIDs implements store.VariantStore.DeleteByIDs.
// Associations are removed by ON DELETE CASCADE.
func (s *PostgresVariantStore) DeleteByIDs(ctx context.Context, ids []string) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	deleted := 0
	for start := 0; start < len(ids); start += deleteBatchSize {
		end := min(start+deleteBatchSize, len(ids))
		batch := ids[start:end]

		placeholders := make([]string, len(batch))
		args := make([]any, len(batch))
		for i, id := range batch {
			placeholders[i] = fmt.Sprintf("$%d", i+1)
			args[i] = id
		}
		query := "DELETE FROM variants WHERE id IN (" + strings.Join(placeholders, ", ") + ")"

		result, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			log.Error("failed to delete variants",
				slog.Int("batch_size", len(batch)),
				slog.String("error", err.Error()))
			return deleted, MapError(err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return deleted, fmt.Errorf("failed to get rows affected: %w", err)
		}
		deleted += int(n)
	}

	return deleted, nil
}

func (s *PostgresVariantStore) insertAssociation(ctx context.Context, id string, assoc association, values []int) error {
	query := assoc.insertQuery()
	for _, v := range values {
		if _, err := s.db.ExecContext(ctx, query, id, v); err != nil {
			logger.FromContextOrDefault(ctx, s.logger).Error("failed to insert variant association",
				slog.String("variant_id", id),
				slog.String("table", assoc.table),
				slog.Int("value", v),
				slog.String("error", err.Error()))
			return MapError(err)
		}
	}
	return nil
}
