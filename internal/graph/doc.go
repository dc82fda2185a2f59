// Package graph assembles canonical entities and their relationships from
// parsed records and the identity resolution of a run.
//
// One entity is built per resolved identity. Its structure comes from the
// property record of the highest-priority namespace that has one. Reactions
// get one participant edge per compound, carrying every occurrence of the
// compound as a signed term, and one compartment-membership edge per
// compartment they touch. Every alias namespace of an entity yields one
// cross-reference edge to the entity of that namespace.
//
// References to records dropped earlier in the run cascade: the referencing
// reaction or cross-reference is dropped with a warning. References to ids
// that never appeared in the input fail the build.
package graph
