package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const minimalYAML = `
providers:
  local:
    type: ollama
models:
  main:
    provider: local
    model: codellama
    default: true
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	require.Equal(t, "problem.txt", cfg.Problem.Path)
	require.Equal(t, "tests", cfg.Fixtures.Dir)
	require.Equal(t, ".in", cfg.Fixtures.InputExt)
	require.Equal(t, ".out", cfg.Fixtures.OutputExt)
	require.Equal(t, "solution.cpp", cfg.Workspace.Solution)
	require.Equal(t, "compileErrors.txt", cfg.Workspace.Diagnostics)
	require.Equal(t, "g++", cfg.Toolchain.Compiler)
	require.Equal(t, []string{"{source}", "-o", "{binary}"}, cfg.Toolchain.CompileArgs)
	require.Equal(t, 0, cfg.Loop.MaxAttempts)
	require.Equal(t, 5, cfg.Loop.OverrideEvery)
	require.Zero(t, cfg.Timeouts.Run)
	require.True(t, cfg.Console.Echo)
}

func TestLoadConfigFromFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
providers:
  openai:
    type: openai
    base_url: https://api.openai.com/v1
    api_key: dummy
    timeout: 30s
models:
  main:
    provider: openai
    model: gpt-4o
    temperature: 0.2
    max_tokens: 2048
    default: true
loop:
  max_attempts: 12
  override_every: 0
timeouts:
  run: 2s
`))
	require.NoError(t, err)
	require.Equal(t, "openai", cfg.Models["main"].Provider)
	require.Equal(t, 30*time.Second, cfg.Providers["openai"].Timeout)
	require.Equal(t, 12, cfg.Loop.MaxAttempts)
	require.Equal(t, 0, cfg.Loop.OverrideEvery)
	require.Equal(t, 2*time.Second, cfg.Timeouts.Run)
}

func TestEnvOverrides(t *testing.T) {
	path := writeConfig(t, minimalYAML)

	t.Setenv("AUTOSOLVE_LOOP_MAX_ATTEMPTS", "7")
	t.Setenv("AUTOSOLVE_TOOLCHAIN_COMPILER", "clang++")
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 7, cfg.Loop.MaxAttempts)
	require.Equal(t, "clang++", cfg.Toolchain.Compiler)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func validConfig() Config {
	return Config{
		Providers: map[string]ProviderConfig{"local": {Type: "ollama"}},
		Models:    map[string]ModelConfig{"main": {Provider: "local", Model: "codellama", Default: true}},
		Problem:   ProblemConfig{Path: "problem.txt"},
		Fixtures:  FixturesConfig{Dir: "tests", InputExt: ".in", OutputExt: ".out"},
		Workspace: WorkspaceConfig{Solution: "s.cpp", Diagnostics: "d.txt", Binary: "s", ActualOutput: "a.out"},
		Toolchain: ToolchainConfig{Compiler: "g++"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		ok     bool
	}{
		{name: "valid", mutate: func(c *Config) {}, ok: true},
		{name: "unknown provider", mutate: func(c *Config) {
			c.Models["main"] = ModelConfig{Provider: "missing", Model: "m", Default: true}
		}},
		{name: "unknown provider type", mutate: func(c *Config) {
			c.Providers["local"] = ProviderConfig{Type: "carrier-pigeon"}
		}},
		{name: "no default model", mutate: func(c *Config) {
			c.Models["main"] = ModelConfig{Provider: "local", Model: "m"}
		}},
		{name: "selected model undefined", mutate: func(c *Config) { c.Model = "other" }},
		{name: "same extensions", mutate: func(c *Config) { c.Fixtures.OutputExt = ".in" }},
		{name: "bad extension", mutate: func(c *Config) { c.Fixtures.InputExt = "in" }},
		{name: "negative attempts", mutate: func(c *Config) { c.Loop.MaxAttempts = -1 }},
		{name: "negative timeout", mutate: func(c *Config) { c.Timeouts.Compile = -time.Second }},
		{name: "missing compiler", mutate: func(c *Config) { c.Toolchain.Compiler = " " }},
		{name: "missing binary", mutate: func(c *Config) { c.Workspace.Binary = "" }},
		{name: "bad color", mutate: func(c *Config) { c.Console.Color = "rainbow" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.ok {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
			}
		})
	}
}

func TestWorkspacePaths(t *testing.T) {
	w := WorkspaceConfig{Dir: "work", Solution: "solution.cpp", Binary: "/tmp/solution"}
	require.Equal(t, filepath.Join("work", "solution.cpp"), w.SolutionPath())
	require.Equal(t, "/tmp/solution", w.BinaryPath())
}
