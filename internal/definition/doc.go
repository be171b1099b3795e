// Package definition provides the declarative value model of a service
// container: definitions, child definitions, aliases and references.
//
// This package contains value types only. It imports nothing internal, so
// every other package (parameter resolution aside) can depend on it without
// cycles.
//
// A service is described by a Spec, which is either a plain *Definition or a
// *ChildDefinition that inherits from a parent. Child definitions are never
// instantiated; the compiler resolves them into plain definitions before any
// other pass runs.
//
// Identifiers of services, aliases and references are normalized with
// NormalizeID (NFC, then lower case) so lookups are case-insensitive.
package definition
