package log

import (
	stdlog "log"
	"strings"
)

type stdLogWriter struct {
	logger Logger
}

func (w stdLogWriter) Write(p []byte) (int, error) {
	msg := strings.TrimRight(string(p), "\n")
	if msg != "" {
		w.logger.Info(msg)
	}
	return len(p), nil
}

// RedirectStdLog routes standard-library log output (Pebble uses it) through
// the given logger at info level.
func RedirectStdLog(logger Logger) {
	stdlog.SetFlags(0)
	stdlog.SetOutput(stdLogWriter{logger: logger.WithComponent("stdlog")})
}
