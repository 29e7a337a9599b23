package llm_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/animus-coder/autosolve/internal/config"
	"github.com/animus-coder/autosolve/internal/llm"
	"github.com/animus-coder/autosolve/internal/llm/configbuilder"
	llmmock "github.com/animus-coder/autosolve/internal/llm/mock"
)

func TestRegistryResolve(t *testing.T) {
	reg := llm.NewRegistry()
	mockProvider := &llmmock.Provider{NameValue: "mock"}
	reg.RegisterProvider("mock", mockProvider)
	reg.RegisterModel("default", llm.ModelRoute{
		Provider:    "mock",
		Model:       "dummy",
		Temperature: 0.2,
	}, true)

	p, route, err := reg.Resolve("")
	require.NoError(t, err)
	require.Equal(t, mockProvider, p)
	require.Equal(t, "dummy", route.Model)
	require.Equal(t, "default", route.Name)
}

func TestRegistryResolveUnknown(t *testing.T) {
	reg := llm.NewRegistry()
	reg.RegisterModel("orphan", llm.ModelRoute{Provider: "gone", Model: "m"}, true)

	_, _, err := reg.Resolve("missing")
	require.Error(t, err)

	_, _, err = reg.Resolve("orphan")
	require.Error(t, err)
}

func TestBuildRegistryFromConfig(t *testing.T) {
	cfg := &config.Config{
		Providers: map[string]config.ProviderConfig{
			"openai": {Type: "openai", BaseURL: "http://example.com/v1"},
			"local":  {Type: "ollama"},
		},
		Models: map[string]config.ModelConfig{
			"main":  {Provider: "openai", Model: "gpt-4o"},
			"coder": {Provider: "local", Model: "codellama", Default: true, SystemPrompt: "be terse"},
		},
	}

	reg, err := configbuilder.BuildRegistryFromConfig(cfg)
	require.NoError(t, err)

	p, _, err := reg.Resolve("main")
	require.NoError(t, err)
	require.Equal(t, "openai", p.Name())

	p, route, err := reg.Resolve("")
	require.NoError(t, err)
	require.Equal(t, "local", p.Name())
	require.Equal(t, "be terse", route.SystemPrompt)
}

func TestBuildRegistryRejectsUnknownType(t *testing.T) {
	cfg := &config.Config{
		Providers: map[string]config.ProviderConfig{"x": {Type: "telegraph"}},
		Models:    map[string]config.ModelConfig{"m": {Provider: "x", Model: "m", Default: true}},
	}
	_, err := configbuilder.BuildRegistryFromConfig(cfg)
	require.Error(t, err)
}
