// Package compiler turns a container.Builder into a validated, optimized
// service graph.
//
// A Compiler runs the passes of its PassConfig in a fixed order:
//
//  1. merge: extension configuration is loaded into the builder
//  2. before optimization: child definitions are resolved, parameter
//     placeholders substituted and definitions validated
//  3. optimization: references are normalized and the constructor graph is
//     checked for cycles and scope violations
//  4. before removing / removing: private services are inlined and unused
//     ones removed until nothing changes
//  5. after removing: aliases to private services are replaced by the
//     services themselves, abstract definitions dropped and remaining
//     references checked
//
// The after-removing passes are scheduled twice; see PassConfig.Passes.
//
// Passes that need the reference graph or the compile log implement
// CompilerAware. Passes inside a RepeatedPass that can request another
// iteration implement RepeatedPassAware.
package compiler
