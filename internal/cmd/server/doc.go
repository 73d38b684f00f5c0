// Package serverrun exposes a shared Run entrypoint used by the CLI to start
// the chronicle runtime with its admin HTTP server, handling lifecycle and
// shutdown.
package serverrun
