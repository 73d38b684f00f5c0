// Package log implements leveled, field-based structured logging for
// chronicle. Loggers are constructed explicitly and passed by dependency
// injection; there is no process-wide default.
//
//	logger := log.NewLogger(log.WithLevel(log.InfoLevel), log.WithFormatter(&log.TextFormatter{}))
//	logger.Info("pruner caught up", log.Str("pruner", "event_store"), log.Uint64("version", v))
package log
