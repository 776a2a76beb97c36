// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config provides the engine's unified configuration: LLM provider
// settings, ReAct loop tuning, and the hints passed to the external tool
// discovery collaborator.
package config

import "fmt"

// Config is the single entry point for all engine configuration.
type Config struct {
	Model       LLMProviderConfig `yaml:"model"`
	React       ReactConfig       `yaml:"react"`
	FrontendTool FrontendToolConfig `yaml:"frontend_tool"`
	Session     SessionConfig     `yaml:"session"`
	ToolScan    ToolScanConfig    `yaml:"tool_scan"`
	Observability ObservabilityConfig `yaml:"observability"`
	LogLevel    string            `yaml:"log_level"`
}

// SetDefaults fills zero-valued fields with their documented defaults.
func (c *Config) SetDefaults() {
	c.Model.SetDefaults()
	c.React.SetDefaults()
	c.FrontendTool.SetDefaults()
	c.Session.SetDefaults()
	c.Observability.Tracing.SetDefaults()
	if c.LogLevel == "" {
		c.LogLevel = "warn"
	}
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	if err := c.Model.Validate(); err != nil {
		return fmt.Errorf("model config: %w", err)
	}
	if err := c.React.Validate(); err != nil {
		return fmt.Errorf("react config: %w", err)
	}
	if err := c.FrontendTool.Validate(); err != nil {
		return fmt.Errorf("frontend_tool config: %w", err)
	}
	return nil
}

// LLMProviderConfig selects and tunes the upstream LLM adapter.
type LLMProviderConfig struct {
	Adapter     string  `yaml:"adapter"` // "openai", "bigmodel", "minimax", "anthropic", "ollama"
	Model       string  `yaml:"model"`
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	MaxRetries  int     `yaml:"max_retries"`
	RetryDelaySeconds int `yaml:"retry_delay_seconds"`
	ConnectTimeoutSeconds int `yaml:"connect_timeout_seconds"`
	TotalTimeoutSeconds   int `yaml:"total_timeout_seconds"`
}

func (c *LLMProviderConfig) SetDefaults() {
	if c.Adapter == "" {
		c.Adapter = "openai"
	}
	if c.BaseURL == "" {
		c.BaseURL = "https://api.openai.com/v1"
	}
	if c.Temperature == 0 {
		c.Temperature = 0.7
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 4096
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.RetryDelaySeconds == 0 {
		c.RetryDelaySeconds = 1
	}
	if c.ConnectTimeoutSeconds == 0 {
		c.ConnectTimeoutSeconds = 30
	}
	if c.TotalTimeoutSeconds == 0 {
		c.TotalTimeoutSeconds = 600 // 10 minutes
	}
}

func (c *LLMProviderConfig) Validate() error {
	if c.Adapter == "" {
		return fmt.Errorf("adapter is required")
	}
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2")
	}
	if c.ConnectTimeoutSeconds > 30 {
		return fmt.Errorf("connect_timeout_seconds must be <= 30")
	}
	if c.TotalTimeoutSeconds > 600 {
		return fmt.Errorf("total_timeout_seconds must be <= 600")
	}
	return nil
}

// ReactConfig tunes the ReAct control loop (C9).
type ReactConfig struct {
	MaxSteps            int     `yaml:"max_steps"`
	Temperature          float64 `yaml:"temperature"`
	DetailedSystemPrompt bool    `yaml:"detailed_system_prompt"`
	VerboseReflection    bool    `yaml:"verbose_reflection"`
}

func (c *ReactConfig) SetDefaults() {
	if c.MaxSteps == 0 {
		c.MaxSteps = 10
	}
	if c.Temperature == 0 {
		c.Temperature = 0.7
	}
}

func (c *ReactConfig) Validate() error {
	if c.MaxSteps <= 0 {
		return fmt.Errorf("max_steps must be positive")
	}
	return nil
}

// FrontendToolConfig tunes the browser tool manager (C7).
type FrontendToolConfig struct {
	TimeoutMs int `yaml:"timeout_ms"`
}

func (c *FrontendToolConfig) SetDefaults() {
	if c.TimeoutMs == 0 {
		c.TimeoutMs = 30000
	}
}

func (c *FrontendToolConfig) Validate() error {
	if c.TimeoutMs <= 0 {
		return fmt.Errorf("timeout_ms must be positive")
	}
	return nil
}

// SessionConfig tunes session eviction (C8).
type SessionConfig struct {
	IdleTimeoutMs int `yaml:"idle_timeout_ms"`
}

func (c *SessionConfig) SetDefaults() {
	if c.IdleTimeoutMs == 0 {
		c.IdleTimeoutMs = 30 * 60 * 1000 // 30 minutes
	}
}

// ToolScanConfig carries hints for the external tool-discovery collaborator.
// The core never interprets these; it only plumbs them through.
type ToolScanConfig struct {
	Packages []string `yaml:"packages"`
	Classes  []string `yaml:"classes"`
}

// ObservabilityConfig tunes the Prometheus metrics and OpenTelemetry
// tracing the engine reports through (C9's Metrics/Tracer seams).
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
}

// MetricsConfig controls whether Prometheus metrics are collected.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// TracingConfig controls whether OpenTelemetry spans are exported, and
// where to.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Exporter     string  `yaml:"exporter"` // "otlp-grpc" or "stdout"
	Endpoint     string  `yaml:"endpoint"`
	SamplingRate float64 `yaml:"sampling_rate"`
	ServiceName  string  `yaml:"service_name"`
}

func (c *TracingConfig) SetDefaults() {
	if c.Exporter == "" {
		c.Exporter = "otlp-grpc"
	}
	if c.Endpoint == "" {
		c.Endpoint = "localhost:4317"
	}
	if c.SamplingRate == 0 {
		c.SamplingRate = 1.0
	}
	if c.ServiceName == "" {
		c.ServiceName = "agentcored"
	}
}
