package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/spellbook-variants/internal/domain"
	"github.com/phrazzld/spellbook-variants/internal/platform/logger"
	"github.com/phrazzld/spellbook-variants/internal/store"
)

const (
	selectCardsQuery     = `SELECT id, name, identity FROM cards ORDER BY id`
	selectTemplatesQuery = `SELECT id, name, scryfall_query FROM templates ORDER BY id`
	selectFeaturesQuery  = `SELECT id, name FROM features ORDER BY id`
	selectCombosQuery    = `SELECT id, description, prerequisites FROM combos ORDER BY id`

	selectFeatureCardsQuery  = `SELECT feature_id, card_id FROM feature_cards ORDER BY feature_id, card_id`
	selectComboIncludesQuery = `SELECT combo_id, card_id FROM combo_includes ORDER BY combo_id, card_id`
	selectComboRequiresQuery = `SELECT combo_id, template_id FROM combo_requires ORDER BY combo_id, template_id`
	selectComboNeedsQuery    = `SELECT combo_id, feature_id FROM combo_needs ORDER BY combo_id, feature_id`
	selectComboProducesQuery = `SELECT combo_id, feature_id FROM combo_produces ORDER BY combo_id, feature_id`
)

// PostgresGraphStore implements store.GraphStore by reading the catalog
// tables inside one read-only repeatable-read transaction, so a run never
// sees a half-edited catalog.
type PostgresGraphStore struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ store.GraphStore = (*PostgresGraphStore)(nil)

// NewPostgresGraphStore creates a graph store reading from db.
// If logger is nil, a default logger will be used.
func NewPostgresGraphStore(db *sql.DB, logger *slog.Logger) *PostgresGraphStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresGraphStore{
		db:     db,
		logger: logger.With(slog.String("component", "graph_store")),
	}
}

// LoadGraph implements store.GraphStore.LoadGraph.
func (s *PostgresGraphStore) LoadGraph(ctx context.Context) (*domain.Graph, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	opts := &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}

	var g *domain.Graph
	err := store.RunInTransactionWithOptions(ctx, s.db, opts, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		g, err = loadGraph(ctx, tx)
		return err
	})
	if err != nil {
		log.Error("failed to load combo graph", slog.String("error", err.Error()))
		return nil, err
	}

	log.Debug("loaded combo graph",
		slog.Int("cards", len(g.Cards)),
		slog.Int("templates", len(g.Templates)),
		slog.Int("features", len(g.Features)),
		slog.Int("combos", len(g.Combos)))
	return g, nil
}

func loadGraph(ctx context.Context, db store.DBTX) (*domain.Graph, error) {
	cards, err := queryRows(ctx, db, selectCardsQuery, func(rows *sql.Rows) (domain.Card, error) {
		var c domain.Card
		err := rows.Scan(&c.ID, &c.Name, &c.Identity)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load cards: %w", err)
	}

	templates, err := queryRows(ctx, db, selectTemplatesQuery, func(rows *sql.Rows) (domain.Template, error) {
		var t domain.Template
		err := rows.Scan(&t.ID, &t.Name, &t.ScryfallQuery)
		return t, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	features, err := queryRows(ctx, db, selectFeaturesQuery, func(rows *sql.Rows) (domain.Feature, error) {
		var f domain.Feature
		err := rows.Scan(&f.ID, &f.Name)
		return f, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load features: %w", err)
	}

	combos, err := queryRows(ctx, db, selectCombosQuery, func(rows *sql.Rows) (domain.Combo, error) {
		var c domain.Combo
		err := rows.Scan(&c.ID, &c.Description, &c.Prerequisites)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load combos: %w", err)
	}

	featureCards, err := queryPairs(ctx, db, selectFeatureCardsQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to load feature cards: %w", err)
	}
	for i := range features {
		features[i].Cards = featureCards[features[i].ID]
	}

	includes, err := queryPairs(ctx, db, selectComboIncludesQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to load combo cards: %w", err)
	}
	requires, err := queryPairs(ctx, db, selectComboRequiresQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to load combo templates: %w", err)
	}
	needs, err := queryPairs(ctx, db, selectComboNeedsQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to load combo needs: %w", err)
	}
	produces, err := queryPairs(ctx, db, selectComboProducesQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to load combo produces: %w", err)
	}
	for i := range combos {
		id := combos[i].ID
		combos[i].Includes = includes[id]
		combos[i].Requires = requires[id]
		combos[i].Needs = needs[id]
		combos[i].Produces = produces[id]
	}

	return domain.NewGraph(cards, templates, features, combos), nil
}

// queryRows runs query and scans every row with scan.
func queryRows[T any](ctx context.Context, db store.DBTX, query string, scan func(*sql.Rows) (T, error), args ...any) ([]T, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var out []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return out, nil
}

// queryPairs runs a two-column integer query and groups the second column by the first.
func queryPairs(ctx context.Context, db store.DBTX, query string) (map[int][]int, error) {
	type pair struct{ owner, member int }

	pairs, err := queryRows(ctx, db, query, func(rows *sql.Rows) (pair, error) {
		var p pair
		err := rows.Scan(&p.owner, &p.member)
		return p, err
	})
	if err != nil {
		return nil, err
	}

	grouped := make(map[int][]int)
	for _, p := range pairs {
		grouped[p.owner] = append(grouped[p.owner], p.member)
	}
	return grouped, nil
}

// queryInts runs a single-column integer query.
func queryInts(ctx context.Context, db store.DBTX, query string, args ...any) ([]int, error) {
	return queryRows(ctx, db, query, func(rows *sql.Rows) (int, error) {
		var v int
		err := rows.Scan(&v)
		return v, err
	}, args...)
}
