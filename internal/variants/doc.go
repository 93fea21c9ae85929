// Package variants implements the variant generation engine.
//
// The combo catalog is encoded as a 0/1 model in which every card, template,
// feature and combo is a binary variable. A feature is true iff one of its
// producers is true and a combo is true iff all of its requirements are.
// For each combo the engine enumerates the minimal card and template sets
// that force the combo variable to 1, deduplicates them by content hash and
// reconciles the result with the persisted variants in one transaction.
package variants
