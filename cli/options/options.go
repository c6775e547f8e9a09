/*
Package options contains a set of common CLI options and helper functions to use them.
*/
package options

import (
	"fmt"

	"github.com/meshsync/chainwatch/pkg/config"
	"github.com/urfave/cli"
	"go.uber.org/zap"
)

// Config is a flag for commands that use node configuration.
var Config = cli.StringFlag{
	Name:  "config-path, c",
	Usage: "path to the YAML node configuration file",
}

// Debug is a flag for commands that allow node in debug mode usage.
var Debug = cli.BoolFlag{
	Name:  "debug, d",
	Usage: "enable debug logging (LOTS of output, overrides configuration)",
}

// GetConfigFromContext reads the configuration file given in the CLI context.
// A missing config-path flag yields the default configuration.
func GetConfigFromContext(ctx *cli.Context) (config.Config, error) {
	path := ctx.String("config-path")
	if path == "" {
		return config.Unmarshal(nil)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, cli.NewExitError(err, 1)
	}
	return cfg, nil
}

// HandleLoggingParams reads logging parameters from the CLI context and
// creates a logger out of them.
func HandleLoggingParams(ctx *cli.Context) (*zap.Logger, error) {
	cc := zap.NewProductionConfig()
	cc.DisableCaller = true
	cc.DisableStacktrace = true
	cc.Encoding = "console"
	if ctx.Bool("debug") {
		cc.Level.SetLevel(zap.DebugLevel)
	}

	log, err := cc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return log, nil
}
