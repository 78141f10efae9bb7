// Package value models the interned symbolic values a traced program refers to.
//
// # Data model
//
// Values never hold other values directly. Every cross-reference is an Id, a
// (pool, index) pair pointing into a Pool. The value graph is therefore an
// index graph: it may be cyclic or share structure freely, and analyses can
// memoize per Id without touching the values themselves.
//
// The Value union is closed:
//
//   - BuiltinOperation: a fixed primitive operation
//   - BuiltinValue: a fixed primitive value (e.g. OriginType)
//   - From: abstraction of Variable out of Base
//   - Match: pattern match of Base against ordered (pattern, result) cases
//   - Opaque: an uninterpreted Variable or Variant with its own identity
//   - Substituting: Base with Target replaced by Value
//
// Consumers switch exhaustively on the concrete type; Refs is the reference
// implementation of such a switch.
//
// # Scope
//
// The package offers construction, lookup and shape validation only. The
// AnnotatedValue caches are filled by external analyses; this package just
// enforces that each cache is written once.
package value
