package variants

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/phrazzld/spellbook-variants/internal/domain"
	"github.com/phrazzld/spellbook-variants/internal/platform/logger"
	"github.com/phrazzld/spellbook-variants/internal/store"
)

// Result summarises the changes applied to the variant table by one run.
type Result struct {
	Added   int `json:"added"`
	Updated int `json:"updated"`
	// Removed counts variants deleted because no combo yields them any more
	// plus variants deleted because they were marked RESTORE.
	Removed  int `json:"removed"`
	Restored int `json:"restored"`
}

// Message renders the human readable summary stored on a job. A run is
// reported as synced only when it added, updated and removed nothing.
func (r Result) Message() string {
	if r.Added == 0 && r.Updated == 0 && r.Removed == 0 {
		return "Variants are already synced with all combos"
	}
	return fmt.Sprintf("Generated %d new variants, updated %d variants, removed %d variants for all combos",
		r.Added, r.Updated, r.Removed)
}

// Synchronizer reconciles computed candidates with the persisted variants.
type Synchronizer struct {
	tx     store.TxManager
	logger *slog.Logger
}

// NewSynchronizer creates a Synchronizer writing through tx.
func NewSynchronizer(tx store.TxManager, logger *slog.Logger) *Synchronizer {
	if tx == nil {
		panic("tx manager cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Synchronizer{
		tx:     tx,
		logger: logger.With(slog.String("component", "variant_synchronizer")),
	}
}

// Sync applies candidates in a single transaction: variants marked RESTORE
// are deleted, known variants get their combos and features replaced, new
// variants are created and variants no longer computed are deleted. Any
// error rolls the whole run back.
func (s *Synchronizer) Sync(ctx context.Context, g *domain.Graph, candidates []*Candidate) (Result, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	var res Result

	err := s.tx.WithinTx(ctx, func(ctx context.Context, variants store.VariantStore) error {
		res = Result{}

		restored, err := variants.DeleteByStatus(ctx, domain.VariantStatusRestore)
		if err != nil {
			return fmt.Errorf("failed to delete variants marked for restore: %w", err)
		}
		log.Info("deleted variants marked for restore", slog.Int("count", restored))

		oldIDs, err := variants.ListIDs(ctx)
		if err != nil {
			return fmt.Errorf("failed to list variant ids: %w", err)
		}
		known := make(map[string]bool, len(oldIDs))
		for _, id := range oldIDs {
			known[id] = true
		}

		computed := make(map[string]bool, len(candidates))
		for _, c := range candidates {
			computed[c.ID] = true
			if known[c.ID] {
				if err := variants.UpdateAssociations(ctx, c.ID, c.Combos, c.Features); err != nil {
					return fmt.Errorf("failed to update variant %s: %w", c.ID, err)
				}
				res.Updated++
				continue
			}
			v := newVariant(g, c)
			if err := variants.Create(ctx, v); err != nil {
				return fmt.Errorf("failed to create variant %s: %w", c.ID, err)
			}
			res.Added++
		}

		var toDelete []string
		for _, id := range oldIDs {
			if !computed[id] {
				toDelete = append(toDelete, id)
			}
		}
		if len(toDelete) > 0 {
			if _, err := variants.DeleteByIDs(ctx, toDelete); err != nil {
				return fmt.Errorf("failed to delete stale variants: %w", err)
			}
		}

		res.Restored = restored
		res.Removed = len(toDelete) + restored
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	log.Info("variants synchronized",
		slog.Int("added", res.Added),
		slog.Int("updated", res.Updated),
		slog.Int("removed", res.Removed),
		slog.Int("restored", res.Restored))
	return res, nil
}

// newVariant builds the NEW variant for a candidate. Prerequisites and
// descriptions of its combos are joined in combo id order.
func newVariant(g *domain.Graph, c *Candidate) *domain.Variant {
	var prerequisites, descriptions []string
	for _, comboID := range c.Combos {
		combo, ok := g.Combos[comboID]
		if !ok {
			continue
		}
		prerequisites = append(prerequisites, combo.Prerequisites)
		descriptions = append(descriptions, combo.Description)
	}

	identities := make([]string, 0, len(c.Cards))
	for _, cardID := range c.Cards {
		if card, ok := g.Cards[cardID]; ok {
			identities = append(identities, card.Identity)
		}
	}

	return &domain.Variant{
		ID:            c.ID,
		Status:        domain.VariantStatusNew,
		Identity:      domain.MergeIdentities(identities...),
		Prerequisites: strings.Join(prerequisites, "\n"),
		Description:   strings.Join(descriptions, "\n"),
		Includes:      c.Cards,
		Requires:      c.Templates,
		Of:            c.Combos,
		Produces:      c.Features,
	}
}
