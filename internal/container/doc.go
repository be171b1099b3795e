// Package container implements the runtime service container and the
// builder that compiles into it.
//
// # Runtime
//
// A Container resolves services by identifier. Instances come from services
// set directly (Set), from factory closures registered per identifier
// (SetFactory), or, for a Builder, from compiled definitions. While a
// service is being constructed its identifier sits on a loading stack; a
// lookup of an identifier already on the stack fails with a
// CircularReferenceError carrying the whole stack.
//
// Scopes form a tree under the built-in "container" scope. Entering a scope
// that is already active snapshots its instances (and those of its
// descendants) so that leaving restores them.
//
// # Builder
//
// A Builder is a Container plus the mutable registry of definitions,
// aliases, extensions and compiler passes. Compile hands the builder to a
// Compiler and then freezes its parameters. Instantiation from definitions
// goes through an explicit ClassRegistry; methods and properties without a
// registry entry fall back to reflection on exported Go methods and fields.
package container
