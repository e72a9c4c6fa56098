package primitives

import "github.com/btcsuite/btclog"

// log is the package-wide logger, disabled until the host calls UseLogger.
var log = btclog.Disabled

// UseLogger lets a calling application specify which logger to use for
// this package's log output.
func UseLogger(logger btclog.Logger) {
	log = logger
}
