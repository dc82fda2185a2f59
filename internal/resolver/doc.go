// Package resolver maps every source identifier of a run to one canonical
// entity id.
//
// Identifiers are nodes of a disjoint-set forest keyed by entity kind and
// namespace-qualified id. Each cross-reference record unions its two
// endpoints; compounds sharing an InChIKey may be unioned as well. After all
// unions every set gets a representative, chosen by namespace priority and
// then by first appearance in the input, and the canonical id is derived from
// that representative so repeated runs over the same input agree.
//
// A set holding two or more ids of one namespace is ambiguous. It stays merged
// and is reported with an AmbiguousIdentity diagnostic naming the colliding ids.
package resolver
