package util

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/meshsync/chainwatch/cli/options"
	"github.com/meshsync/chainwatch/pkg/event"
	"github.com/meshsync/chainwatch/pkg/ledger"
	"github.com/meshsync/chainwatch/pkg/storage"
	"github.com/urfave/cli"
)

// NewCommands returns 'util' command.
func NewCommands() []cli.Command {
	return []cli.Command{
		{
			Name:  "util",
			Usage: "various event store helpers",
			Subcommands: []cli.Command{
				{
					Name:   "dump",
					Usage:  "print stored events for a version range as JSON lines",
					Action: dumpEvents,
					Flags: []cli.Flag{
						options.Config,
						cli.Uint64Flag{
							Name:  "from, f",
							Usage: "first version to dump (default 1)",
						},
						cli.Uint64Flag{
							Name:  "to, t",
							Usage: "last version to dump (default the latest synced one)",
						},
					},
				},
				{
					Name:   "feed",
					Usage:  "append a batch of synthetic events at the given version",
					Action: feedEvents,
					Flags: []cli.Flag{
						options.Config,
						cli.Uint64Flag{
							Name:  "version, v",
							Usage: "ledger version to commit the batch at (default next one)",
						},
						cli.Uint64Flag{
							Name:  "count, n",
							Usage: "number of events to append",
							Value: 1,
						},
						cli.StringFlag{
							Name:  "key, k",
							Usage: "hex-encoded event key (default the reconfiguration key)",
						},
						cli.StringFlag{
							Name:  "payload, p",
							Usage: "payload string to put into every event",
						},
					},
				},
			},
		},
	}
}

func openStore(ctx *cli.Context) (*ledger.EventStore, error) {
	cfg, err := options.GetConfigFromContext(ctx)
	if err != nil {
		return nil, err
	}
	store, err := storage.NewStore(cfg.DB)
	if err != nil {
		return nil, cli.NewExitError(fmt.Errorf("could not initialize storage: %w", err), 1)
	}
	return ledger.NewEventStore(store), nil
}

func dumpEvents(ctx *cli.Context) error {
	ldgr, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer ldgr.Close()

	from := ctx.Uint64("from")
	if from == 0 {
		from = 1
	}
	to := ctx.Uint64("to")
	if to == 0 {
		if to, err = ldgr.LatestSyncedVersion(); err != nil {
			return cli.NewExitError(err, 1)
		}
	}
	if to < from {
		return cli.NewExitError(fmt.Errorf("nothing synced in versions [%d, %d]", from, to), 1)
	}

	batches, err := ldgr.EventsInRange(context.Background(), from-1, to)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	enc := json.NewEncoder(ctx.App.Writer)
	for i := range batches {
		for j := range batches[i].Events {
			if err := enc.Encode(batches[i].Events[j]); err != nil {
				return cli.NewExitError(err, 1)
			}
		}
	}
	return nil
}

func feedEvents(ctx *cli.Context) error {
	ldgr, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer ldgr.Close()

	key := event.NewEpochKey()
	if s := ctx.String("key"); s != "" {
		if key, err = event.KeyDecodeString(s); err != nil {
			return cli.NewExitError(fmt.Errorf("invalid event key %q: %w", s, err), 1)
		}
	}
	version := ctx.Uint64("version")
	if version == 0 {
		synced, err := ldgr.LatestSyncedVersion()
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		version = synced + 1
	}

	count := ctx.Uint64("count")
	events := make([]event.Event, count)
	for i := range events {
		events[i] = event.New(key, uint64(i), version, []byte(ctx.String("payload")))
	}
	if err := ldgr.Append(version, events); err != nil {
		return cli.NewExitError(err, 1)
	}
	fmt.Fprintf(ctx.App.Writer, "appended %d event(s) at version %d\n", count, version)
	return nil
}
