package main

import "fmt"

// ValidateConfigCmd loads a config file and reports whether it's valid,
// without starting anything.
type ValidateConfigCmd struct{}

func (c *ValidateConfigCmd) Run(cli *CLI) error {
	cfg, err := loadConfig(cli)
	if err != nil {
		return err
	}
	fmt.Printf("config OK: model=%s/%s max_steps=%d frontend_tool_timeout_ms=%d\n",
		cfg.Model.Adapter, cfg.Model.Model, cfg.React.MaxSteps, cfg.FrontendTool.TimeoutMs)
	return nil
}
