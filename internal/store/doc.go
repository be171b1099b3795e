// Package store provides a SQLite audit log of compile runs.
//
// Each run records:
//   - Metadata: run id (UUIDv7), start time, config hash, loaded files and
//     the outcome with its error code
//   - Log: the compiler's audit messages, in order
//   - Manifest: the compiled services and aliases with class, scope and
//     visibility
//
// The log is write-only from the compiler's point of view. It is never used
// to restore a container.
//
// # Ordering
//
// Runs are listed by their insertion seq, never by timestamp, so listings
// stay stable when clocks are skewed or injected.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
