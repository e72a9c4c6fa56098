package main

import (
	"github.com/btcsuite/btclog"
	"github.com/jrick/logrotate/rotator"

	"github.com/mobilecoinofficial/nanos-core/coreengine"
	"github.com/mobilecoinofficial/nanos-core/framing"
	"github.com/mobilecoinofficial/nanos-core/identengine"
	"github.com/mobilecoinofficial/nanos-core/keyprovider"
	"github.com/mobilecoinofficial/nanos-core/primitives"
	"github.com/mobilecoinofficial/nanos-core/ringengine"
	"github.com/mobilecoinofficial/nanos-core/summaryengine"
)

// maxLogRollBytes and maxLogRolls bound the rotated nanosim log file the
// same way the teacher's own daemons bound theirs via jrick/logrotate
// instead of hand-rolled file-size checks.
const (
	maxLogRollBytes = 10 * 1024 * 1024
	maxLogRolls     = 3
)

// backendLog is the btclog backend every core package's per-package logger
// is wired against, mirroring the teacher's subsystem-logger registration
// idiom (each package gets its own UseLogger call against one shared
// backend).
var backendLog *btclog.Backend

// initLogRotator opens (or creates) the rotated log file at path and wires
// every core package's logger against it.
func initLogRotator(path string, debug bool) (*rotator.Rotator, error) {
	r, err := rotator.New(path, maxLogRollBytes, false, maxLogRolls)
	if err != nil {
		return nil, err
	}

	backendLog = btclog.NewBackend(r)

	level := btclog.LevelInfo
	if debug {
		level = btclog.LevelDebug
	}

	wire := func(name string, use func(btclog.Logger)) {
		l := backendLog.Logger(name)
		l.SetLevel(level)
		use(l)
	}
	wire("CORE", coreengine.UseLogger)
	wire("FRAM", framing.UseLogger)
	wire("IDEN", identengine.UseLogger)
	wire("RING", ringengine.UseLogger)
	wire("SUMM", summaryengine.UseLogger)
	wire("KEYP", keyprovider.UseLogger)
	wire("PRIM", primitives.UseLogger)

	return r, nil
}
