package variants

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/phrazzld/spellbook-variants/internal/domain"
)

// DefaultRecursionLimit is the deepest combo → feature → combo chain accepted
// by the depth guard.
const DefaultRecursionLimit = 20

// ErrRecursiveCombo is wrapped by RecursiveComboError.
var ErrRecursiveCombo = errors.New("combo dependency chain exceeds recursion limit")

// unbounded marks combos that can reach a dependency cycle.
const unbounded = math.MaxInt32

// RecursiveComboError reports a combo whose chain of needed features, through
// the combos producing them, is deeper than the limit.
type RecursiveComboError struct {
	ComboID int
	Limit   int
	// Path holds the combo ids along the deepest chain, starting at ComboID.
	Path []int
	// Cycle is true when the chain loops back on itself.
	Cycle bool
}

func (e *RecursiveComboError) Error() string {
	parts := make([]string, len(e.Path))
	for i, id := range e.Path {
		parts[i] = Variable{Kind: KindCombo, ID: id}.String()
	}
	kind := "chain"
	if e.Cycle {
		kind = "cycle"
	}
	return fmt.Sprintf("%v: combo %d, limit %d, %s %s",
		ErrRecursiveCombo, e.ComboID, e.Limit, kind, strings.Join(parts, " -> "))
}

func (e *RecursiveComboError) Unwrap() error {
	return ErrRecursiveCombo
}

// CheckDepth returns the error for the lowest combo id whose dependency chain
// is deeper than limit, or nil when every chain fits.
func CheckDepth(g *domain.Graph, limit int) error {
	if found := FindRecursiveCombos(g, limit); len(found) > 0 {
		return found[0]
	}
	return nil
}

// FindRecursiveCombos returns one error per combo whose dependency chain is
// deeper than limit, ordered by combo id. A non-positive limit selects
// DefaultRecursionLimit.
func FindRecursiveCombos(g *domain.Graph, limit int) []*RecursiveComboError {
	if limit <= 0 {
		limit = DefaultRecursionLimit
	}
	w := &depthWalker{
		graph:   g,
		height:  make(map[int]int, len(g.Combos)),
		next:    make(map[int]int),
		onStack: make(map[int]bool),
	}

	var out []*RecursiveComboError
	for _, id := range g.ComboIDs() {
		h := w.visit(id)
		if h <= limit {
			continue
		}
		out = append(out, &RecursiveComboError{
			ComboID: id,
			Limit:   limit,
			Path:    w.path(id, limit+2),
			Cycle:   h == unbounded,
		})
	}
	return out
}

// depthWalker computes, for every combo, the length of the longest chain of
// producing combos below it.
type depthWalker struct {
	graph   *domain.Graph
	height  map[int]int
	next    map[int]int
	onStack map[int]bool
}

func (w *depthWalker) visit(id int) int {
	if h, ok := w.height[id]; ok {
		return h
	}
	if w.onStack[id] {
		return unbounded
	}
	combo, ok := w.graph.Combos[id]
	if !ok {
		return 0
	}

	w.onStack[id] = true
	best := 0
	for _, featureID := range sortedCopy(combo.Needs) {
		feature, ok := w.graph.Features[featureID]
		if !ok {
			continue
		}
		for _, producer := range feature.ProducedByCombos {
			d := w.visit(producer)
			if d < unbounded {
				d++
			}
			if d > best {
				best = d
				w.next[id] = producer
			}
		}
	}
	delete(w.onStack, id)

	w.height[id] = best
	return best
}

// path follows the deepest chain from id for at most maxLen combos, stopping
// after the first repeated combo.
func (w *depthWalker) path(id, maxLen int) []int {
	seen := map[int]bool{}
	var out []int
	for len(out) < maxLen {
		out = append(out, id)
		if seen[id] {
			break
		}
		seen[id] = true
		next, ok := w.next[id]
		if !ok {
			break
		}
		id = next
	}
	return out
}
