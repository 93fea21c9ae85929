// Package store defines the persistence contracts of the variant generator.
//
// The generator reads the combo catalog through GraphStore, reconciles the
// variant table through VariantStore inside a TxManager transaction and
// records job bookkeeping through JobStore. Implementations live in
// internal/platform/postgres and internal/store/memstore.
package store
