package variants

import (
	"fmt"
	"slices"
)

// Kind tags the entity a model variable stands for.
type Kind uint8

// Variable kinds.
const (
	KindCard Kind = iota + 1
	KindTemplate
	KindFeature
	KindCombo
)

func (k Kind) String() string {
	switch k {
	case KindCard:
		return "card"
	case KindTemplate:
		return "template"
	case KindFeature:
		return "feature"
	case KindCombo:
		return "combo"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Variable identifies one binary decision variable by entity kind and id.
type Variable struct {
	Kind Kind
	ID   int
}

// String renders the variable for logs, e.g. C12 or B3.
func (v Variable) String() string {
	switch v.Kind {
	case KindCard:
		return fmt.Sprintf("C%d", v.ID)
	case KindTemplate:
		return fmt.Sprintf("T%d", v.ID)
	case KindFeature:
		return fmt.Sprintf("F%d", v.ID)
	case KindCombo:
		return fmt.Sprintf("B%d", v.ID)
	default:
		return fmt.Sprintf("?%d", v.ID)
	}
}

// Handle is the 1-based index of a registered variable.
type Handle int

// Op is the relation of a linear constraint.
type Op uint8

// Constraint relations.
const (
	OpGtEq Op = iota + 1
	OpLtEq
	OpEq
)

func (o Op) String() string {
	switch o {
	case OpGtEq:
		return ">="
	case OpLtEq:
		return "<="
	case OpEq:
		return "="
	default:
		return "?"
	}
}

// Term is coef·x for a registered variable x.
type Term struct {
	Coef int
	Var  Handle
}

// Constraint is the linear relation Σ Terms Op RHS over binary variables.
type Constraint struct {
	Terms []Term
	Op    Op
	RHS   int
}

// Model is a set of binary variables plus linear constraints over them.
// It carries no objective; objectives are chosen at solve time.
type Model struct {
	vars        []Variable
	index       map[Variable]Handle
	constraints []Constraint
}

// NewModel returns an empty model.
func NewModel() *Model {
	return &Model{index: make(map[Variable]Handle)}
}

// GetOrCreate returns the handle of v, registering it first if needed.
func (m *Model) GetOrCreate(v Variable) Handle {
	if h, ok := m.index[v]; ok {
		return h
	}
	m.vars = append(m.vars, v)
	h := Handle(len(m.vars))
	m.index[v] = h
	return h
}

// Lookup returns the handle of v without registering it.
func (m *Model) Lookup(v Variable) (Handle, bool) {
	h, ok := m.index[v]
	return h, ok
}

// Variable returns the variable behind h. It panics if h was not issued by m.
func (m *Model) Variable(h Handle) Variable {
	return m.vars[h-1]
}

// NumVariables returns the number of registered variables.
func (m *Model) NumVariables() int {
	return len(m.vars)
}

// HandlesOf returns the handles of all variables of the given kinds in
// registration order.
func (m *Model) HandlesOf(kinds ...Kind) []Handle {
	var out []Handle
	for i, v := range m.vars {
		if slices.Contains(kinds, v.Kind) {
			out = append(out, Handle(i+1))
		}
	}
	return out
}

// Add appends a constraint. The terms are copied.
func (m *Model) Add(c Constraint) {
	c.Terms = slices.Clone(c.Terms)
	m.constraints = append(m.constraints, c)
}

// Constraints returns the constraints in insertion order. Callers must not
// modify the result.
func (m *Model) Constraints() []Constraint {
	return m.constraints
}

// Copy returns a model with the same variables and constraints. Later
// additions to either model are not visible in the other.
func (m *Model) Copy() *Model {
	c := &Model{
		vars:        slices.Clone(m.vars),
		index:       make(map[Variable]Handle, len(m.index)),
		constraints: slices.Clip(slices.Clone(m.constraints)),
	}
	for v, h := range m.index {
		c.index[v] = h
	}
	return c
}

// Sum builds the terms Σ coef·h over hs.
func Sum(coef int, hs ...Handle) []Term {
	terms := make([]Term, len(hs))
	for i, h := range hs {
		terms[i] = Term{Coef: coef, Var: h}
	}
	return terms
}
