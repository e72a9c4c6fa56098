package main

import (
	"context"
	"time"

	"github.com/coreos/go-systemd/daemon"
	"github.com/lightningnetwork/lnd/ticker"
	"golang.org/x/sync/errgroup"

	"github.com/mobilecoinofficial/nanos-core/coreengine"
)

// idleCheckInterval is how often the background watchdog polls the engine's
// idle-session deadline. It is deliberately much shorter than
// coreengine.DefaultSessionTimeout, since the auto-reset described in spec
// §5 fires up to one idleCheckInterval after its configured deadline.
const idleCheckInterval = 10 * time.Second

// runIdleWatchdog drives Engine.CheckTimeout on a lnd/ticker.Ticker the way
// the teacher drives its own periodic link housekeeping: a single
// background goroutine, coordinated through an errgroup so the interactive
// command loop and the watchdog shut down together. This is the concrete
// "periodic host-side observation" described in SPEC_FULL §4.1; the engine
// itself stays single-threaded and cooperative; CheckTimeout only ever
// fires between requests.
func runIdleWatchdog(ctx context.Context, g *errgroup.Group, e *coreengine.Engine) {
	t := ticker.New(idleCheckInterval)
	t.Resume()

	g.Go(func() error {
		defer t.Stop()
		for {
			select {
			case <-t.Ticks():
				e.CheckTimeout()
			case <-ctx.Done():
				return nil
			}
		}
	})
}

// notifyReady signals systemd that nanosim has finished constructing its
// engine and is ready to serve requests, the way a production daemon built
// from this same stack would under a systemd unit.
func notifyReady() {
	_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)
}
