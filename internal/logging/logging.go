package logging

import "go.uber.org/zap"

// New returns a zap logger writing to stderr. When debug is true it uses the
// development config (human-readable, debug level); otherwise the production
// config (JSON, info level). stdout stays free for the MCP stdio transport.
func New(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// Nop returns a logger that discards everything.
func Nop() *zap.Logger {
	return zap.NewNop()
}
