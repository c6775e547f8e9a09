package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/meshsync/chainwatch/cli/options"
	"github.com/meshsync/chainwatch/pkg/event"
	"github.com/meshsync/chainwatch/pkg/ledger"
	"github.com/meshsync/chainwatch/pkg/services/eventsub"
	"github.com/meshsync/chainwatch/pkg/services/metrics"
	"github.com/meshsync/chainwatch/pkg/storage"
	"github.com/urfave/cli"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// pollInterval is how often the watcher checks the store for newly synced
// versions.
const pollInterval = 500 * time.Millisecond

// NewCommands returns 'watch' command.
func NewCommands() []cli.Command {
	return []cli.Command{
		{
			Name:   "watch",
			Usage:  "subscribe to committed events and print them as they arrive",
			Action: startWatch,
			Flags: []cli.Flag{
				options.Config,
				options.Debug,
				cli.StringSliceFlag{
					Name:  "key, k",
					Usage: "hex-encoded event key to subscribe to (can be given multiple times)",
				},
				cli.BoolFlag{
					Name:  "reconfig, r",
					Usage: "also receive on-chain reconfiguration events",
				},
			},
		},
	}
}

func startWatch(ctx *cli.Context) error {
	cfg, err := options.GetConfigFromContext(ctx)
	if err != nil {
		return err
	}
	log, err := options.HandleLoggingParams(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer log.Sync()

	filter := eventsub.AllEvents()
	if keys := ctx.StringSlice("key"); len(keys) != 0 {
		parsed := make([]event.Key, len(keys))
		for i := range keys {
			parsed[i], err = event.KeyDecodeString(keys[i])
			if err != nil {
				return cli.NewExitError(fmt.Errorf("invalid event key %q: %w", keys[i], err), 1)
			}
		}
		filter = eventsub.NewFilter(parsed...)
	}

	store, err := storage.NewStore(cfg.DB)
	if err != nil {
		return cli.NewExitError(fmt.Errorf("could not initialize storage: %w", err), 1)
	}
	ldgr := ledger.NewEventStore(store)
	defer ldgr.Close()

	svc, err := eventsub.New(cfg.EventSub, log, ldgr)
	if err != nil {
		return cli.NewExitError(fmt.Errorf("could not create subscription service: %w", err), 1)
	}

	id, ch, err := svc.Subscribe(filter, ctx.Bool("reconfig"))
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	log.Info("watching for events", zap.Stringer("subscriber", id))

	prometheus := metrics.NewPrometheusService(cfg.Prometheus, log)
	prometheus.Start()
	defer prometheus.ShutDown()
	pprof := metrics.NewPprofService(cfg.Pprof, log)
	pprof.Start()
	defer pprof.ShutDown()

	runCtx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var g errgroup.Group
	g.Go(func() error {
		return pollCommitted(runCtx, svc, ldgr, log)
	})
	g.Go(func() error {
		enc := json.NewEncoder(ctx.App.Writer)
		for n := range ch {
			if err := enc.Encode(n); err != nil {
				return err
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return cli.NewExitError(err, 1)
	}
	return nil
}

// pollCommitted drives dispatch the way the node's commit pipeline would,
// by watching the synced version of the store.
func pollCommitted(ctx context.Context, svc *eventsub.Service, ldgr *ledger.EventStore, log *zap.Logger) error {
	t := time.NewTicker(pollInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			svc.Shutdown()
			return ctx.Err()
		case <-t.C:
			synced, err := ldgr.LatestSyncedVersion()
			if err != nil {
				svc.Shutdown()
				return fmt.Errorf("failed to poll synced version: %w", err)
			}
			if synced <= svc.LastDispatchedVersion() {
				continue
			}
			err = svc.NotifyCommitted(ctx, synced)
			var bpErr *eventsub.BackpressureError
			if errors.As(err, &bpErr) {
				log.Warn("notifications dropped", zap.Int("count", len(bpErr.Drops)))
			} else if err != nil {
				log.Error("dispatch failed", zap.Error(err))
			}
		}
	}
}
