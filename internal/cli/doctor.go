package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/animus-coder/autosolve/internal/config"
	"github.com/animus-coder/autosolve/internal/judge"
	"github.com/animus-coder/autosolve/internal/llm"
	"github.com/animus-coder/autosolve/internal/llm/configbuilder"
	"github.com/animus-coder/autosolve/internal/problem"
	"github.com/animus-coder/autosolve/internal/toolchain"
)

// NewDoctorCmd returns a health-check command validating config and environment.
func NewDoctorCmd(opts *Options) *cobra.Command {
	var (
		ping   bool
		strict bool
	)

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Validate configuration and environment",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config OK. Providers: %d, models: %d\n", len(cfg.Providers), len(cfg.Models))

			failed := 0
			check := func(name string, err error, detail string) {
				if err != nil {
					failed++
					fmt.Fprintf(out, "%-10s FAIL  %v\n", name+":", err)
					return
				}
				fmt.Fprintf(out, "%-10s ok    %s\n", name+":", detail)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			checkModel(ctx, cfg, ping, check)

			builder := toolchain.NewBuilder(cfg.Toolchain, cfg.Workspace, 10*time.Second, nil)
			ver, err := builder.Version(ctx)
			check("compiler", err, fmt.Sprintf("%s (%s)", cfg.Toolchain.Compiler, ver))

			cases, err := judge.Discover(cfg.Fixtures.Dir, cfg.Fixtures.InputExt, cfg.Fixtures.OutputExt)
			check("fixtures", err, fmt.Sprintf("%d case(s) in %s", len(cases), cfg.Fixtures.Dir))

			text, err := problem.Load(cfg.Problem.Path)
			check("problem", err, fmt.Sprintf("%s (%d bytes)", cfg.Problem.Path, len(text)))

			if failed > 0 && strict {
				return fmt.Errorf("%d check(s) failed", failed)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&ping, "ping", false, "Send a one-line chat request to the selected model")
	cmd.Flags().BoolVar(&strict, "strict", false, "Exit nonzero when any check fails")
	return cmd
}

func checkModel(ctx context.Context, cfg *config.Config, ping bool, check func(string, error, string)) {
	registry, err := configbuilder.BuildRegistryFromConfig(cfg)
	if err != nil {
		check("model", err, "")
		return
	}
	provider, route, err := registry.Resolve(cfg.Model)
	if err != nil {
		check("model", err, "")
		return
	}
	check("model", nil, fmt.Sprintf("%s -> %s/%s", route.Name, route.Provider, route.Model))
	if !ping {
		return
	}

	start := time.Now()
	_, err = provider.Chat(ctx, llm.ChatRequest{
		Model:       route.Model,
		Messages:    []llm.ChatMessage{{Role: llm.RoleUser, Content: "Reply with the single word: pong"}},
		MaxTokens:   8,
		Temperature: 0,
	})
	check("ping", err, fmt.Sprintf("answered in %s", time.Since(start).Round(time.Millisecond)))
}
