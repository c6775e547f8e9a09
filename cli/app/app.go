package app

import (
	"fmt"
	"os"
	"runtime"

	"github.com/meshsync/chainwatch/cli/server"
	"github.com/meshsync/chainwatch/cli/util"
	"github.com/meshsync/chainwatch/pkg/config"
	"github.com/urfave/cli"
)

func versionPrinter(c *cli.Context) {
	_, _ = fmt.Fprintf(c.App.Writer, "ChainWatch\nVersion: %s\nGoVersion: %s\n",
		config.Version,
		runtime.Version(),
	)
}

// New creates a ChainWatch instance of [cli.App] with all commands included.
func New() *cli.App {
	cli.VersionPrinter = versionPrinter
	ctl := cli.NewApp()
	ctl.Name = "chainwatch"
	ctl.Version = config.Version
	ctl.Usage = "committed on-chain event subscription tool"
	ctl.ErrWriter = os.Stdout

	ctl.Commands = append(ctl.Commands, server.NewCommands()...)
	ctl.Commands = append(ctl.Commands, util.NewCommands()...)
	return ctl
}
