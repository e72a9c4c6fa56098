package framing

import "github.com/btcsuite/btclog"

var log = btclog.Disabled

// UseLogger lets a calling application specify which logger to use for
// this package's log output.
func UseLogger(logger btclog.Logger) {
	log = logger
}
