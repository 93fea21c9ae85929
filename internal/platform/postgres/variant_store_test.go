package postgres_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/spellbook-variants/internal/domain"
	"github.com/phrazzld/spellbook-variants/internal/platform/postgres"
	"github.com/phrazzld/spellbook-variants/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testVariantID = "4b227777d4dd1fc61c6f884f48641d02b4d121d3fd328cb08b5531fcacdabf8a"

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func TestPostgresVariantStore_Create(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	variants := postgres.NewPostgresVariantStore(db, nil)

	v := &domain.Variant{
		ID:            testVariantID,
		Status:        domain.VariantStatusNew,
		Identity:      "UB",
		Prerequisites: "all permanents on the battlefield",
		Description:   "infinite mana",
		Includes:      []int{1, 2},
		Requires:      []int{7},
		Of:            []int{10},
		Produces:      []int{20, 21},
	}

	mock.ExpectExec("INSERT INTO variants").
		WithArgs(testVariantID, "NEW", "UB", v.Prerequisites, v.Description, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO variant_includes").WithArgs(testVariantID, 1).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO variant_includes").WithArgs(testVariantID, 2).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO variant_requires").WithArgs(testVariantID, 7).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO variant_of").WithArgs(testVariantID, 10).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO variant_produces").WithArgs(testVariantID, 20).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO variant_produces").WithArgs(testVariantID, 21).WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, variants.Create(context.Background(), v))
	assert.False(t, v.CreatedAt.IsZero())
	assert.Equal(t, v.CreatedAt, v.UpdatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresVariantStore_CreateErrors(t *testing.T) {
	t.Parallel()

	t.Run("invalid_variant", func(t *testing.T) {
		t.Parallel()

		db, mock := newMockDB(t)
		variants := postgres.NewPostgresVariantStore(db, nil)

		err := variants.Create(context.Background(), &domain.Variant{ID: testVariantID, Status: domain.VariantStatusNew})
		assert.ErrorIs(t, err, store.ErrInvalidEntity)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate_id", func(t *testing.T) {
		t.Parallel()

		db, mock := newMockDB(t)
		variants := postgres.NewPostgresVariantStore(db, nil)

		mock.ExpectExec("INSERT INTO variants").WillReturnError(&pgconn.PgError{Code: "23505"})

		err := variants.Create(context.Background(), &domain.Variant{
			ID:       testVariantID,
			Status:   domain.VariantStatusNew,
			Includes: []int{1},
		})
		assert.ErrorIs(t, err, store.ErrVariantExists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown_card", func(t *testing.T) {
		t.Parallel()

		db, mock := newMockDB(t)
		variants := postgres.NewPostgresVariantStore(db, nil)

		mock.ExpectExec("INSERT INTO variants").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO variant_includes").
			WillReturnError(&pgconn.PgError{Code: "23503", ConstraintName: "variant_includes_card_id_fkey"})

		err := variants.Create(context.Background(), &domain.Variant{
			ID:       testVariantID,
			Status:   domain.VariantStatusNew,
			Includes: []int{99},
		})
		assert.ErrorIs(t, err, store.ErrInvalidEntity)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresVariantStore_UpdateAssociations(t *testing.T) {
	t.Parallel()

	t.Run("replaces_combos_and_features", func(t *testing.T) {
		t.Parallel()

		db, mock := newMockDB(t)
		variants := postgres.NewPostgresVariantStore(db, nil)

		mock.ExpectExec("UPDATE variants SET updated_at").
			WithArgs(sqlmock.AnyArg(), testVariantID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("DELETE FROM variant_of").WithArgs(testVariantID).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO variant_of").WithArgs(testVariantID, 10).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO variant_of").WithArgs(testVariantID, 11).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("DELETE FROM variant_produces").WithArgs(testVariantID).WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectExec("INSERT INTO variant_produces").WithArgs(testVariantID, 20).WillReturnResult(sqlmock.NewResult(0, 1))

		err := variants.UpdateAssociations(context.Background(), testVariantID, []int{10, 11}, []int{20})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing_variant", func(t *testing.T) {
		t.Parallel()

		db, mock := newMockDB(t)
		variants := postgres.NewPostgresVariantStore(db, nil)

		mock.ExpectExec("UPDATE variants SET updated_at").WillReturnResult(sqlmock.NewResult(0, 0))

		err := variants.UpdateAssociations(context.Background(), testVariantID, []int{10}, nil)
		assert.ErrorIs(t, err, store.ErrVariantNotFound)
		assert.ErrorIs(t, err, store.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresVariantStore_DeleteByStatus(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	variants := postgres.NewPostgresVariantStore(db, nil)

	mock.ExpectExec("DELETE FROM variants WHERE status").
		WithArgs("RESTORE").
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := variants.DeleteByStatus(context.Background(), domain.VariantStatusRestore)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresVariantStore_DeleteByIDs(t *testing.T) {
	t.Parallel()

	t.Run("single_batch", func(t *testing.T) {
		t.Parallel()

		db, mock := newMockDB(t)
		variants := postgres.NewPostgresVariantStore(db, nil)

		mock.ExpectExec(`DELETE FROM variants WHERE id IN \(\$1, \$2\)`).
			WithArgs("a", "b").
			WillReturnResult(sqlmock.NewResult(0, 2))

		n, err := variants.DeleteByIDs(context.Background(), []string{"a", "b"})
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("splits_large_input", func(t *testing.T) {
		t.Parallel()

		db, mock := newMockDB(t)
		variants := postgres.NewPostgresVariantStore(db, nil)

		ids := make([]string, 1500)
		for i := range ids {
			ids[i] = fmt.Sprintf("id-%d", i)
		}
		mock.ExpectExec("DELETE FROM variants WHERE id IN").WillReturnResult(sqlmock.NewResult(0, 1000))
		mock.ExpectExec("DELETE FROM variants WHERE id IN").WillReturnResult(sqlmock.NewResult(0, 500))

		n, err := variants.DeleteByIDs(context.Background(), ids)
		require.NoError(t, err)
		assert.Equal(t, 1500, n)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty_input", func(t *testing.T) {
		t.Parallel()

		db, mock := newMockDB(t)
		variants := postgres.NewPostgresVariantStore(db, nil)

		n, err := variants.DeleteByIDs(context.Background(), nil)
		require.NoError(t, err)
		assert.Zero(t, n)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresVariantStore_ListIDs(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	variants := postgres.NewPostgresVariantStore(db, nil)

	mock.ExpectQuery("SELECT id FROM variants").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("a").AddRow("b"))

	ids, err := variants.ListIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresVariantStore_GetByID(t *testing.T) {
	t.Parallel()

	t.Run("found", func(t *testing.T) {
		t.Parallel()

		db, mock := newMockDB(t)
		variants := postgres.NewPostgresVariantStore(db, nil)
		created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

		mock.ExpectQuery("SELECT id, status, identity, prerequisites, description, created_at, updated_at").
			WithArgs(testVariantID).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "status", "identity", "prerequisites", "description", "created_at", "updated_at",
			}).AddRow(testVariantID, "OK", "G", "", "loop", created, created))
		mock.ExpectQuery("SELECT card_id FROM variant_includes").
			WithArgs(testVariantID).
			WillReturnRows(sqlmock.NewRows([]string{"card_id"}).AddRow(1).AddRow(2))
		mock.ExpectQuery("SELECT template_id FROM variant_requires").
			WithArgs(testVariantID).
			WillReturnRows(sqlmock.NewRows([]string{"template_id"}))
		mock.ExpectQuery("SELECT combo_id FROM variant_of").
			WithArgs(testVariantID).
			WillReturnRows(sqlmock.NewRows([]string{"combo_id"}).AddRow(10))
		mock.ExpectQuery("SELECT feature_id FROM variant_produces").
			WithArgs(testVariantID).
			WillReturnRows(sqlmock.NewRows([]string{"feature_id"}).AddRow(20))

		v, err := variants.GetByID(context.Background(), testVariantID)
		require.NoError(t, err)
		assert.Equal(t, domain.VariantStatusOK, v.Status)
		assert.Equal(t, "G", v.Identity)
		assert.Equal(t, []int{1, 2}, v.Includes)
		assert.Empty(t, v.Requires)
		assert.Equal(t, []int{10}, v.Of)
		assert.Equal(t, []int{20}, v.Produces)
		assert.Equal(t, created, v.CreatedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not_found", func(t *testing.T) {
		t.Parallel()

		db, mock := newMockDB(t)
		variants := postgres.NewPostgresVariantStore(db, nil)

		mock.ExpectQuery("SELECT id, status").
			WithArgs("missing").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := variants.GetByID(context.Background(), "missing")
		assert.ErrorIs(t, err, store.ErrVariantNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestNewPostgresVariantStore_NilDB(t *testing.T) {
	assert.Panics(t, func() {
		postgres.NewPostgresVariantStore(nil, nil)
	})
}
