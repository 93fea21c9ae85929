package postgres_test

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/phrazzld/spellbook-variants/internal/platform/postgres"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pairRows(owner, member string, pairs ...[2]int) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{owner, member})
	for _, p := range pairs {
		rows.AddRow(p[0], p[1])
	}
	return rows
}

func TestPostgresGraphStore_LoadGraph(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	graphs := postgres.NewPostgresGraphStore(db, nil)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, name, identity FROM cards").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "identity"}).
			AddRow(1, "Basalt Monolith", "").
			AddRow(2, "Rings of Brighthearth", "").
			AddRow(3, "Ashnod's Altar", ""))
	mock.ExpectQuery("SELECT id, name, scryfall_query FROM templates").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "scryfall_query"}).
			AddRow(7, "Mana rock", "t:artifact o:add"))
	mock.ExpectQuery("SELECT id, name FROM features").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
			AddRow(20, "Infinite colorless mana").
			AddRow(21, "Sac outlet"))
	mock.ExpectQuery("SELECT id, description, prerequisites FROM combos").
		WillReturnRows(sqlmock.NewRows([]string{"id", "description", "prerequisites"}).
			AddRow(10, "Untap in response", "Monolith untapped").
			AddRow(11, "Sac loop", ""))
	mock.ExpectQuery("SELECT feature_id, card_id FROM feature_cards").
		WillReturnRows(pairRows("feature_id", "card_id", [2]int{21, 3}))
	mock.ExpectQuery("SELECT combo_id, card_id FROM combo_includes").
		WillReturnRows(pairRows("combo_id", "card_id", [2]int{10, 1}, [2]int{10, 2}))
	mock.ExpectQuery("SELECT combo_id, template_id FROM combo_requires").
		WillReturnRows(pairRows("combo_id", "template_id", [2]int{11, 7}))
	mock.ExpectQuery("SELECT combo_id, feature_id FROM combo_needs").
		WillReturnRows(pairRows("combo_id", "feature_id", [2]int{11, 20}, [2]int{11, 21}))
	mock.ExpectQuery("SELECT combo_id, feature_id FROM combo_produces").
		WillReturnRows(pairRows("combo_id", "feature_id", [2]int{10, 20}))
	mock.ExpectCommit()

	g, err := graphs.LoadGraph(context.Background())
	require.NoError(t, err)
	require.NoError(t, g.Validate())

	assert.Len(t, g.Cards, 3)
	assert.Equal(t, "t:artifact o:add", g.Templates[7].ScryfallQuery)
	assert.Equal(t, []int{1, 2}, g.Combos[10].Includes)
	assert.Equal(t, []int{20}, g.Combos[10].Produces)
	assert.Equal(t, []int{7}, g.Combos[11].Requires)
	assert.Equal(t, []int{20, 21}, g.Combos[11].Needs)
	assert.Equal(t, "Monolith untapped", g.Combos[10].Prerequisites)
	assert.Equal(t, []int{3}, g.Features[21].Cards)
	assert.Equal(t, []int{10}, g.Features[20].ProducedByCombos)
	assert.Empty(t, g.Features[21].ProducedByCombos)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGraphStore_LoadGraphQueryError(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	graphs := postgres.NewPostgresGraphStore(db, nil)

	queryErr := errors.New("relation \"cards\" does not exist")
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, name, identity FROM cards").WillReturnError(queryErr)
	mock.ExpectRollback()

	g, err := graphs.LoadGraph(context.Background())
	assert.Nil(t, g)
	assert.ErrorIs(t, err, queryErr)
	assert.Contains(t, err.Error(), "failed to load cards")
	assert.NoError(t, mock.ExpectationsWereMet())
}
