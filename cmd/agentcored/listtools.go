package main

import (
	"fmt"
	"time"

	"github.com/actionloop/agentcore/pkg/builtin"
	"github.com/actionloop/agentcore/pkg/toolkit"
)

// ListToolsCmd prints the tools a freshly built registry would carry: the
// engine's own built-ins, plus whatever tool_scan hints the config
// declares. Actual discovery against those hints is an external
// collaborator the core never implements.
type ListToolsCmd struct{}

func (c *ListToolsCmd) Run(cli *CLI) error {
	cfg, err := loadConfig(cli)
	if err != nil {
		return err
	}

	registry := toolkit.NewRegistry()
	builtin.Register(registry, time.Now())

	for _, summary := range registry.ListSummaries() {
		fmt.Printf("%s: %s\n", summary.Name, summary.Description)
	}

	if len(cfg.ToolScan.Packages) > 0 || len(cfg.ToolScan.Classes) > 0 {
		fmt.Println("\ntool_scan hints (resolved by an external discovery collaborator):")
		for _, pkg := range cfg.ToolScan.Packages {
			fmt.Printf("  package: %s\n", pkg)
		}
		for _, class := range cfg.ToolScan.Classes {
			fmt.Printf("  class: %s\n", class)
		}
	}

	return nil
}
