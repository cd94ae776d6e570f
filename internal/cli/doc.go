// Package cli implements the ucid command line.
//
//   - serve: run the engine pool behind the HTTP API (internal/httpapi)
//   - think: load one engine, run a single search and print the best move
//   - check: validate the config file and report the configured engines
//
// Flags default from UCID_CONFIG, UCID_ADDR, UCID_LOG_LEVEL and
// UCID_LOG_FORMAT. Actions are reached through the fn* variables in
// actions.go so tests can stub them.
package cli
