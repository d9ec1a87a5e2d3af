// -- cmd/root.go --
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/Ubayed-Bin-Sufian/gpt4v-browsing/api/schemas"
	"github.com/Ubayed-Bin-Sufian/gpt4v-browsing/internal/agent"
	"github.com/Ubayed-Bin-Sufian/gpt4v-browsing/internal/browser"
	"github.com/Ubayed-Bin-Sufian/gpt4v-browsing/internal/config"
	"github.com/Ubayed-Bin-Sufian/gpt4v-browsing/internal/console"
	"github.com/Ubayed-Bin-Sufian/gpt4v-browsing/internal/conversation"
	"github.com/Ubayed-Bin-Sufian/gpt4v-browsing/internal/dom"
	"github.com/Ubayed-Bin-Sufian/gpt4v-browsing/internal/llmclient"
	"github.com/Ubayed-Bin-Sufian/gpt4v-browsing/internal/observability"
	"github.com/Ubayed-Bin-Sufian/gpt4v-browsing/internal/snapshot"
)

const envPrefix = "VISIONCRAWL"

const browserShutdownTimeout = 20 * time.Second

// flagBindings maps configuration keys to the root command flags overriding them.
var flagBindings = map[string]string{
	"browser.headless":        "headless",
	"agent.llm.provider":      "provider",
	"agent.llm.model":         "model",
	"navigator.snapshot_path": "snapshot",
}

// runOptions carries the flags that are not part of the configuration.
type runOptions struct {
	cfgFile string
	prompt  string
}

// agentRunner runs the chat. Tests swap it out to inspect the resolved configuration.
type agentRunner func(ctx context.Context, cfg *config.Config, opts runOptions, in io.Reader, out io.Writer) error

// NewRootCommand builds the visioncrawl command tree with a fresh configuration scope.
func NewRootCommand() *cobra.Command {
	return newRootCommand(runAgent)
}

func newRootCommand(run agentRunner) *cobra.Command {
	v := viper.New()
	opts := &runOptions{}
	var cfg *config.Config

	rootCmd := &cobra.Command{
		Use:   "visioncrawl",
		Short: "Chat with a vision model that browses the web to answer your questions.",
		Long: `visioncrawl opens a browser, asks a vision-capable model what to do, and
shows it annotated screenshots of every page it visits until it can answer.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initializeConfig(v, opts.cfgFile); err != nil {
				return err
			}
			applyProviderDefaults(cmd, v)

			c, err := config.NewConfigFromViper(v)
			if err != nil {
				// Still give the user a working logger to report the failure with.
				observability.InitializeLogger(config.NewDefaultConfig().Logger)
				return err
			}
			cfg = c

			observability.InitializeLogger(cfg.Logger)
			observability.GetLogger().Info("Starting visioncrawl", zap.String("version", Version))
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cfg, *opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.cfgFile, "config", "c", "", "config file (default is ./config.yaml)")
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	flags := rootCmd.Flags()
	flags.StringVarP(&opts.prompt, "prompt", "p", "", "first question to ask, instead of reading it from the terminal")
	flags.Bool("headless", true, "run the browser without a window")
	flags.String("provider", string(config.ProviderOpenAI), "model provider (openai or gemini)")
	flags.String("model", "", "model name (default depends on the provider)")
	flags.String("snapshot", "screenshot.jpg", "where to write the page snapshot")

	for key, name := range flagBindings {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			panic(fmt.Sprintf("binding flag %q: %v", name, err))
		}
	}

	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

// Execute runs the root command with ctx, logging any failure.
func Execute(ctx context.Context) error {
	rootCmd := NewRootCommand()
	err := rootCmd.ExecuteContext(ctx)
	if err == nil || errors.Is(err, context.Canceled) {
		return err
	}

	if logger := observability.GetLogger(); logger != nil {
		logger.Error("Command execution failed", zap.Error(err))
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
	return err
}

// initializeConfig reads the config file and environment into v.
func initializeConfig(v *viper.Viper, cfgFile string) error {
	config.SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// No config file; defaults and environment apply.
	}
	return nil
}

// applyProviderDefaults swaps in the provider's default model when the
// configured model is another provider's default and --model was not given.
func applyProviderDefaults(cmd *cobra.Command, v *viper.Viper) {
	if modelFlag := cmd.Flags().Lookup("model"); modelFlag != nil && modelFlag.Changed {
		return
	}
	provider := config.LLMProvider(v.GetString("agent.llm.provider"))
	model := v.GetString("agent.llm.model")
	for _, other := range []config.LLMProvider{config.ProviderOpenAI, config.ProviderGemini} {
		if other != provider && model == config.DefaultModel(other) {
			v.Set("agent.llm.model", config.DefaultModel(provider))
			return
		}
	}
}

// runAgent launches the browser and runs the chat until the user leaves.
func runAgent(ctx context.Context, cfg *config.Config, opts runOptions, in io.Reader, out io.Writer) error {
	logger := observability.GetLogger()

	llm, err := llmclient.NewClient(ctx, cfg.Agent.LLM, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize model client: %w", err)
	}
	defer llm.Close()

	con := console.New(in, out)
	con.Banner()

	manager, err := browser.NewManager(ctx, logger, cfg.Browser)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), browserShutdownTimeout)
		defer cancel()
		if err := manager.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Browser shutdown incomplete", zap.Error(err))
		}
	}()

	page, err := manager.NewSession(ctx)
	if err != nil {
		return err
	}
	defer page.Close()

	var navOpts []agent.Option
	if opts.prompt != "" {
		navOpts = append(navOpts, agent.WithInitialPrompt(opts.prompt))
	}

	genOpts := schemas.GenerationOptions{
		Temperature: float64(cfg.Agent.LLM.Temperature),
		MaxTokens:   cfg.Agent.LLM.MaxTokens,
	}
	nav, err := agent.NewNavigator(cfg.Navigator, genOpts, agent.Dependencies{
		Page:      page,
		Labeler:   dom.NewLabeler(logger, cfg.Navigator.MinElementSize, cfg.Navigator.LabelWorkers),
		Snapshots: snapshot.NewProducer(afero.NewOsFs(), cfg.Navigator.SnapshotPath, cfg.Navigator.SnapshotQuality, logger),
		LLM:       llm,
		Console:   con,
		Tokens:    conversation.NewTokenCounter(cfg.Agent.LLM.Model, logger),
	}, logger, navOpts...)
	if err != nil {
		return err
	}

	return nav.Run(ctx, agent.NewSession(agent.SystemPrompt))
}
