package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config describes the top-level application configuration loaded from YAML and ENV.
type Config struct {
	Version   string                    `mapstructure:"version"`
	Providers map[string]ProviderConfig `mapstructure:"providers"`
	Models    map[string]ModelConfig    `mapstructure:"models"`
	Model     string                    `mapstructure:"model"` // logical model used by the loop; empty = default
	Problem   ProblemConfig             `mapstructure:"problem"`
	Fixtures  FixturesConfig            `mapstructure:"fixtures"`
	Workspace WorkspaceConfig           `mapstructure:"workspace"`
	Toolchain ToolchainConfig           `mapstructure:"toolchain"`
	Loop      LoopConfig                `mapstructure:"loop"`
	Timeouts  TimeoutsConfig            `mapstructure:"timeouts"`
	Feedback  FeedbackConfig            `mapstructure:"feedback"`
	Console   ConsoleConfig             `mapstructure:"console"`
	Logging   LoggingConfig             `mapstructure:"logging"`
	Metrics   MetricsConfig             `mapstructure:"metrics"`
}

// ProviderConfig represents a generative backend such as Ollama or an OpenAI-compatible gateway.
type ProviderConfig struct {
	Type    string        `mapstructure:"type"`     // ollama, openai, openrouter, vllm, lmstudio, custom
	BaseURL string        `mapstructure:"base_url"` // API base URL
	APIKey  string        `mapstructure:"api_key"`  // optional API key
	Timeout time.Duration `mapstructure:"timeout"`  // HTTP timeout for a whole streamed reply; 0 = none
}

// ModelConfig binds a logical model name to a provider entry and model parameters.
type ModelConfig struct {
	Provider     string  `mapstructure:"provider"`
	Model        string  `mapstructure:"model"`
	Temperature  float64 `mapstructure:"temperature"`
	MaxTokens    int     `mapstructure:"max_tokens"`
	SystemPrompt string  `mapstructure:"system_prompt"`
	Default      bool    `mapstructure:"default"`
}

// ProblemConfig locates the problem statement.
type ProblemConfig struct {
	Path string `mapstructure:"path"`
}

// FixturesConfig locates the test fixtures and their naming scheme.
type FixturesConfig struct {
	Dir       string `mapstructure:"dir"`
	InputExt  string `mapstructure:"input_ext"`
	OutputExt string `mapstructure:"output_ext"`
}

// WorkspaceConfig names the per-attempt working files. Relative names are
// resolved against Dir.
type WorkspaceConfig struct {
	Dir          string `mapstructure:"dir"`
	Solution     string `mapstructure:"solution"`
	Diagnostics  string `mapstructure:"diagnostics"`
	Binary       string `mapstructure:"binary"`
	ActualOutput string `mapstructure:"actual_output"`
}

// ToolchainConfig describes the compiler invocation. CompileArgs may contain
// the {source} and {binary} placeholders.
type ToolchainConfig struct {
	Language    string   `mapstructure:"language"`
	Compiler    string   `mapstructure:"compiler"`
	CompileArgs []string `mapstructure:"compile_args"`
}

// LoopConfig controls the attempt loop.
type LoopConfig struct {
	MaxAttempts   int `mapstructure:"max_attempts"`   // 0 = run until success or interruption
	OverrideEvery int `mapstructure:"override_every"` // 0 = never ask the operator
}

// TimeoutsConfig sets per-step deadlines; zero disables a deadline.
type TimeoutsConfig struct {
	Generate time.Duration `mapstructure:"generate"`
	Compile  time.Duration `mapstructure:"compile"`
	Run      time.Duration `mapstructure:"run"`
}

// FeedbackConfig tunes the prompts built from failed attempts.
type FeedbackConfig struct {
	IncludeDiff  bool `mapstructure:"include_diff"`
	MaxDiffBytes int  `mapstructure:"max_diff_bytes"`
}

// ConsoleConfig controls what is echoed to the terminal.
type ConsoleConfig struct {
	Echo  bool   `mapstructure:"echo"`  // stream model output to stdout
	Color string `mapstructure:"color"` // auto, always, never
}

// LoggingConfig controls logger behaviour.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // console or json
	File   string `mapstructure:"file"`   // optional log file; stderr when empty
}

// MetricsConfig controls Prometheus exposition.
type MetricsConfig struct {
	Addr     string `mapstructure:"addr"`     // optional listen address for /metrics
	Textfile string `mapstructure:"textfile"` // optional path written when the run ends
}

// Load reads configuration from the provided path or defaults to configs/config.yaml.
// A .env file in the working directory is loaded first. Environment variables
// override file values (prefix: AUTOSOLVE_, dots replaced with underscores).
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("AUTOSOLVE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("configs")
	} else {
		v.SetConfigFile(path)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) && path == "" {
			v.SetConfigName("config.example")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config: %w", err)
			}
		} else {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults mirrors the file layout of a classic solve-in-place run.
func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("problem.path", "problem.txt")

	v.SetDefault("fixtures.dir", "tests")
	v.SetDefault("fixtures.input_ext", ".in")
	v.SetDefault("fixtures.output_ext", ".out")

	v.SetDefault("workspace.dir", ".")
	v.SetDefault("workspace.solution", "solution.cpp")
	v.SetDefault("workspace.diagnostics", "compileErrors.txt")
	v.SetDefault("workspace.binary", "solution")
	v.SetDefault("workspace.actual_output", "actual.out")

	v.SetDefault("toolchain.language", "c++")
	v.SetDefault("toolchain.compiler", "g++")
	v.SetDefault("toolchain.compile_args", []string{"{source}", "-o", "{binary}"})

	v.SetDefault("loop.max_attempts", 0)
	v.SetDefault("loop.override_every", 5)

	v.SetDefault("timeouts.generate", "0s")
	v.SetDefault("timeouts.compile", "0s")
	v.SetDefault("timeouts.run", "0s")

	v.SetDefault("feedback.include_diff", true)
	v.SetDefault("feedback.max_diff_bytes", 4096)

	v.SetDefault("console.echo", true)
	v.SetDefault("console.color", "auto")

	v.SetDefault("metrics.addr", "")
	v.SetDefault("metrics.textfile", "")
}

// Validate performs basic sanity checks on configuration values.
func (c *Config) Validate() error {
	if len(c.Providers) == 0 {
		return errors.New("at least one provider must be configured")
	}

	if len(c.Models) == 0 {
		return errors.New("at least one model must be defined")
	}

	for name, p := range c.Providers {
		switch strings.ToLower(strings.TrimSpace(p.Type)) {
		case "ollama", "openai", "openrouter", "vllm", "lmstudio", "custom":
		case "":
			return fmt.Errorf("provider %q must define type", name)
		default:
			return fmt.Errorf("provider %q has unknown type %q", name, p.Type)
		}
		if p.Timeout < 0 {
			return fmt.Errorf("provider %q timeout cannot be negative", name)
		}
	}

	var defaultFound bool
	for name, m := range c.Models {
		if m.Provider == "" {
			return fmt.Errorf("model %q must reference provider", name)
		}
		if _, ok := c.Providers[m.Provider]; !ok {
			return fmt.Errorf("model %q references unknown provider %q", name, m.Provider)
		}
		if strings.TrimSpace(m.Model) == "" {
			return fmt.Errorf("model %q must name the backend model", name)
		}
		if m.Temperature < 0 || m.Temperature > 2 {
			return fmt.Errorf("model %q temperature must be within [0,2]", name)
		}
		if m.MaxTokens < 0 {
			return fmt.Errorf("model %q max_tokens cannot be negative", name)
		}
		if m.Default {
			defaultFound = true
		}
	}
	if !defaultFound {
		return errors.New("at least one model should be marked as default")
	}
	if c.Model != "" {
		if _, ok := c.Models[c.Model]; !ok {
			return fmt.Errorf("model %q is not defined", c.Model)
		}
	}

	if strings.TrimSpace(c.Problem.Path) == "" {
		return errors.New("problem.path must be set")
	}

	if strings.TrimSpace(c.Fixtures.Dir) == "" {
		return errors.New("fixtures.dir must be set")
	}
	for key, ext := range map[string]string{"fixtures.input_ext": c.Fixtures.InputExt, "fixtures.output_ext": c.Fixtures.OutputExt} {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			return fmt.Errorf("%s must look like .ext, got %q", key, ext)
		}
	}
	if c.Fixtures.InputExt == c.Fixtures.OutputExt {
		return errors.New("fixtures.input_ext and fixtures.output_ext must differ")
	}

	for key, name := range map[string]string{
		"workspace.solution":      c.Workspace.Solution,
		"workspace.diagnostics":   c.Workspace.Diagnostics,
		"workspace.binary":        c.Workspace.Binary,
		"workspace.actual_output": c.Workspace.ActualOutput,
	} {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("%s must be set", key)
		}
	}

	if strings.TrimSpace(c.Toolchain.Compiler) == "" {
		return errors.New("toolchain.compiler must be set")
	}

	if c.Loop.MaxAttempts < 0 {
		return errors.New("loop.max_attempts must be >= 0")
	}
	if c.Loop.OverrideEvery < 0 {
		return errors.New("loop.override_every must be >= 0")
	}
	if c.Timeouts.Generate < 0 || c.Timeouts.Compile < 0 || c.Timeouts.Run < 0 {
		return errors.New("timeouts must be >= 0")
	}
	if c.Feedback.MaxDiffBytes < 0 {
		return errors.New("feedback.max_diff_bytes must be >= 0")
	}

	switch strings.ToLower(strings.TrimSpace(c.Console.Color)) {
	case "", "auto", "always", "never":
	default:
		return fmt.Errorf("console.color must be one of auto, always, never, got %q", c.Console.Color)
	}

	return nil
}

// Path resolves a workspace file name against the workspace directory.
func (w WorkspaceConfig) Path(name string) string {
	if filepath.IsAbs(name) || w.Dir == "" {
		return name
	}
	return filepath.Join(w.Dir, name)
}

// SolutionPath is where generated source is streamed and cleaned.
func (w WorkspaceConfig) SolutionPath() string { return w.Path(w.Solution) }

// DiagnosticsPath is where compiler diagnostics are captured.
func (w WorkspaceConfig) DiagnosticsPath() string { return w.Path(w.Diagnostics) }

// BinaryPath is where the compiled program is written.
func (w WorkspaceConfig) BinaryPath() string { return w.Path(w.Binary) }

// ActualOutputPath is where the program's output for the current fixture is captured.
func (w WorkspaceConfig) ActualOutputPath() string { return w.Path(w.ActualOutput) }
