// Package httpserver serves the chronicle admin API: liveness, pruner
// progress, on-demand compaction, and Prometheus metrics.
package httpserver
