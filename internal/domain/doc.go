// Package domain contains the core entities of the combo catalog: cards,
// templates, features, combos, the variants derived from them, and the jobs
// that run variant generation. It is independent of any specific storage or
// delivery mechanism.
package domain
