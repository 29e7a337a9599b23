package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/animus-coder/autosolve/internal/config"
	"github.com/animus-coder/autosolve/internal/console"
	"github.com/animus-coder/autosolve/internal/feedback"
	"github.com/animus-coder/autosolve/internal/judge"
	"github.com/animus-coder/autosolve/internal/llm/configbuilder"
	"github.com/animus-coder/autosolve/internal/logging"
	"github.com/animus-coder/autosolve/internal/loop"
	"github.com/animus-coder/autosolve/internal/observability"
	"github.com/animus-coder/autosolve/internal/problem"
	"github.com/animus-coder/autosolve/internal/session"
	"github.com/animus-coder/autosolve/internal/toolchain"
)

// NewSolveCmd runs the generate, compile and test loop until the fixtures pass.
func NewSolveCmd(opts *Options) *cobra.Command {
	var (
		noOverride  bool
		maxAttempts int
		model       string
	)

	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Ask the model for a solution and iterate until every fixture passes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("max-attempts") {
				cfg.Loop.MaxAttempts = maxAttempts
			}
			if model != "" {
				cfg.Model = model
			}
			if noOverride {
				cfg.Loop.OverrideEvery = 0
			}

			logger, err := logging.NewLogger(cfg.Logging)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck // best-effort

			text, err := problem.Load(cfg.Problem.Path)
			if err != nil {
				logger.Error("load problem", zap.String("path", cfg.Problem.Path), zap.Error(err))
				fmt.Fprintln(cmd.ErrOrStderr(), "Couldn't read problem description!")
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return solve(ctx, cmd, cfg, text, logger)
		},
	}

	cmd.Flags().BoolVar(&noOverride, "no-override", false, "Never stop to ask the operator for a replacement prompt")
	cmd.Flags().IntVar(&maxAttempts, "max-attempts", 0, "Give up after this many attempts (0 = unlimited)")
	cmd.Flags().StringVar(&model, "model", "", "Logical model name from the config (default model when empty)")
	return cmd
}

func solve(ctx context.Context, cmd *cobra.Command, cfg *config.Config, text string, logger *zap.Logger) error {
	registry, err := configbuilder.BuildRegistryFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("build registry: %w", err)
	}
	provider, route, err := registry.Resolve(cfg.Model)
	if err != nil {
		return err
	}
	if dir := cfg.Workspace.Dir; dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create workspace: %w", err)
		}
	}

	metrics := observability.NewMetrics()
	if cfg.Metrics.Addr != "" {
		go func() {
			if err := observability.Serve(ctx, cfg.Metrics.Addr, metrics, logger); err != nil {
				logger.Warn("metrics listener stopped", zap.Error(err))
			}
		}()
	}
	defer func() {
		if err := metrics.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			logger.Warn("write metrics textfile", zap.String("path", cfg.Metrics.Textfile), zap.Error(err))
		}
	}()

	out := cmd.OutOrStdout()
	con := console.New(out, cfg.Console.Color)

	sinks := []session.Sink{session.NewFileSink(cfg.Workspace.SolutionPath())}
	if cfg.Console.Echo {
		sinks = append(sinks, session.NewWriterSink(out))
	}
	sess := session.New(provider, route,
		session.WithSinks(sinks...),
		session.WithTimeout(cfg.Timeouts.Generate),
		session.WithLogger(logger),
	)

	override := loop.OverrideFunc(loop.NoOverride)
	if cfg.Loop.OverrideEvery > 0 {
		override = console.LineOverride(cmd.InOrStdin(), out)
	}

	l := loop.New(loop.Deps{
		Generator:    sess,
		Compiler:     toolchain.NewBuilder(cfg.Toolchain, cfg.Workspace, cfg.Timeouts.Compile, logger),
		Tester:       judge.NewRunner(cfg.Fixtures, cfg.Workspace, cfg.Timeouts.Run, caseReporter{con: con, metrics: metrics}, logger),
		Composer:     feedback.NewComposer(cfg.Toolchain.Language, cfg.Feedback),
		SolutionPath: cfg.Workspace.SolutionPath(),
		Model:        route.Name,
	},
		loop.WithMaxAttempts(cfg.Loop.MaxAttempts),
		loop.WithOverride(cfg.Loop.OverrideEvery, override),
		loop.WithObserver(con),
		loop.WithMetrics(metrics),
		loop.WithLogger(logger.With(zap.String("model", route.Name), zap.String("provider", provider.Name()))),
	)

	res, err := l.Run(ctx, text)
	switch {
	case err == nil:
		fmt.Fprintf(out, "Solved after %d attempt(s). Solution: %s\n", res.Attempts, cfg.Workspace.SolutionPath())
		return nil
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("interrupted after %d attempt(s)", res.Attempts)
	case errors.Is(err, loop.ErrAttemptsExhausted):
		return fmt.Errorf("no passing solution after %d attempt(s): %w", res.Attempts, err)
	default:
		return fmt.Errorf("attempt %d: %w", res.Attempts, err)
	}
}

// caseReporter prints verdicts and counts them.
type caseReporter struct {
	con     *console.Console
	metrics *observability.Metrics
}

func (r caseReporter) Report(c judge.Case, v judge.Verdict) {
	r.con.Report(c, v)
	r.metrics.RecordCase(string(v))
}
