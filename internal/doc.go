// Package internal contains the core implementation packages for
// coursegrid.
//
// This package follows Go's internal package convention, making these
// packages unavailable for import by external modules while providing all
// the core functionality for the coursegrid server.
//
// # Package Organization
//
// The internal packages are organized by functional domain:
//
//   - course: content data model (locations, descriptors, modules, systems)
//   - registry: content-type plugin registry and serialized-content loading
//   - plugins: plugin contract and the builtin content types
//   - modulestore: course import, policy application and XML export
//   - runtime: per-request module system assembly
//   - statestore: per-student module state in SQLite
//   - tracker: analytics events from content modules
//   - renderer: content templates and static URL rewriting
//   - server: courseware HTTP server with WebSocket live reload
//   - watcher: file system monitoring with debouncing
//   - config: configuration management with validation
//   - logging: structured logging over slog
//   - errors: domain error types
package internal
