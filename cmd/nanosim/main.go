// Command nanosim is an in-process simulator for the nanos-core transaction
// engine: it drives coreengine.Engine through the exact wire events the
// mobile façade would, without an actual secure element underneath, so the
// §8 end-to-end scenarios can be scripted and watched from a terminal. It
// plays the same role the teacher's own lncli plays against lnd's RPC
// surface, except here the "RPC surface" is Engine.Update called in-process.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli"
	"golang.org/x/sync/errgroup"

	"github.com/mobilecoinofficial/nanos-core/coreengine"
	"github.com/mobilecoinofficial/nanos-core/keyprovider"
)

func main() {
	if err := run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "nanosim:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, remaining, err := loadConfig(args)
	if err != nil {
		return err
	}

	rotator, err := initLogRotator(cfg.LogFile, cfg.Debug)
	if err != nil {
		return fmt.Errorf("init log rotator: %w", err)
	}
	defer rotator.Close()

	seed, err := loadSeed(cfg)
	if err != nil {
		return err
	}

	kp := keyprovider.New(seed)
	defer kp.Close()

	reg := prometheus.NewRegistry()
	metrics := coreengine.NewMetrics(reg, "nanosim")

	eng := coreengine.New(kp, coreengine.WithMetrics(metrics))
	defer eng.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	runIdleWatchdog(gctx, g, eng)

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
		g.Go(func() error {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			return srv.Close()
		})
	}

	if cfg.Notify {
		notifyReady()
	}

	a := &app{cfg: cfg, eng: eng, kp: kp}
	cliApp := buildCLIApp(a)
	runErr := cliApp.Run(append([]string{"nanosim"}, remaining...))

	cancel()
	if gerr := g.Wait(); gerr != nil && runErr == nil {
		runErr = gerr
	}
	return runErr
}
