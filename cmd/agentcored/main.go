// Command agentcored is a small demo host process for the ReAct engine: it
// loads a config file, wires the engine's collaborators, and exposes a
// chat endpoint and the browser-result ingress endpoint over HTTP. The
// transport itself is illustrative; the engine is usable from any host
// that can supply its collaborators.
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/actionloop/agentcore/internal/config"
	"github.com/actionloop/agentcore/internal/logging"
)

// CLI defines the command-line interface.
type CLI struct {
	Serve          ServeCmd          `cmd:"" help:"Start the HTTP server."`
	ValidateConfig ValidateConfigCmd `cmd:"" name:"validate-config" help:"Load and validate a config file without starting the server."`
	ListTools      ListToolsCmd      `cmd:"" name:"list-tools" help:"Print the tools a config file would register."`

	Config   string `short:"c" help:"Path to config file." type:"path" default:"agentcore.yaml"`
	LogLevel string `help:"Log level (debug, info, warn, error)." default:"info"`
}

func main() {
	cli := CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("agentcored"),
		kong.Description("ReAct orchestration engine, demo host process"),
		kong.UsageOnError(),
	)

	logging.Init(cli.LogLevel, os.Stderr)

	err := ctx.Run(&cli)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig loads and validates the config file named by the top-level
// --config flag.
func loadConfig(cli *CLI) (*config.Config, error) {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}
