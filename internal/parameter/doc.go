// Package parameter implements the parameter bag of a service container.
//
// A bag maps case-insensitive names to values: scalars, strings and nested
// []any / map[string]any structures. String values may reference other
// parameters with %name% placeholders:
//
//   - A placeholder that is the whole string is replaced by the referenced
//     value itself, preserving its type.
//   - A placeholder embedded in a longer string is replaced by the
//     referenced value's string form; the value must be a string or number.
//   - %% is a literal percent sign. It survives ResolveValue and is only
//     unescaped by Resolve.
//
// Resolve walks every parameter once, failing with a CircularReferenceError
// that carries the full cycle path when a parameter requires itself.
// A FrozenBag is the immutable snapshot produced when a container compiles.
package parameter
