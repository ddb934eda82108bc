package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/itsmostafa/irisdash/internal/config"
	"github.com/itsmostafa/irisdash/internal/logging"
	"github.com/itsmostafa/irisdash/internal/version"
)

var (
	v          = config.New()
	configFile string
	cfg        config.Config
	logger     *slog.Logger = logging.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "irisdash",
	Short: "AI-powered Iris dashboard",
	Long: `irisdash is a dashboard over the Iris dataset with a conversational assistant.

Questions are sent to Gemini. Prose replies are shown as-is; replies that are a
single fenced code block are run against the dataset in an embedded interpreter
and the value of the last expression is shown.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadDotEnv(); err != nil {
			return err
		}
		if err := config.ReadFile(v, configFile); err != nil {
			return err
		}

		var err error
		if cfg, err = config.Load(v); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		logger, err = logging.New(cmd.ErrOrStderr(), logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
		if err != nil {
			return err
		}
		slog.SetDefault(logger)
		return nil
	},
}

func init() {
	rootCmd.Version = version.Version
	rootCmd.SetVersionTemplate(fmt.Sprintf("irisdash %s\n", version.String()))

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "Config file (default ./irisdash.yaml)")
	flags.String("model", v.GetString(config.KeyModel), "Gemini model name")
	flags.String("engine", v.GetString(config.KeyEngine), "Execution engine for generated code (python, javascript)")
	flags.Bool("mock", false, "Answer from a built-in offline oracle instead of Gemini")
	flags.String("api-key-file", v.GetString(config.KeyAPIKeyFile), "File holding the Gemini API key")
	flags.Duration("oracle-timeout", 0, "Deadline for one Gemini call (0 = none)")
	flags.Duration("exec-timeout", v.GetDuration(config.KeyExecTimeout), "Deadline for running generated code")
	flags.Uint64("max-steps", v.GetUint64(config.KeyMaxSteps), "Interpreter step budget for generated code")
	flags.String("log-level", v.GetString(config.KeyLogLevel), "Log level (debug, info, warn, error)")
	flags.String("log-format", v.GetString(config.KeyLogFormat), "Log format (text, json)")
	flags.String("style", v.GetString(config.KeyStyle), "Markdown style for answers (auto, dark, light, notty, ascii)")

	bindFlags(rootCmd, map[string]string{
		config.KeyModel:         "model",
		config.KeyEngine:        "engine",
		config.KeyMock:          "mock",
		config.KeyAPIKeyFile:    "api-key-file",
		config.KeyOracleTimeout: "oracle-timeout",
		config.KeyExecTimeout:   "exec-timeout",
		config.KeyMaxSteps:      "max-steps",
		config.KeyLogLevel:      "log-level",
		config.KeyLogFormat:     "log-format",
		config.KeyStyle:         "style",
	})
}

// bindFlags ties viper keys to persistent or local flags of c.
func bindFlags(c *cobra.Command, keys map[string]string) {
	for key, name := range keys {
		f := c.PersistentFlags().Lookup(name)
		if f == nil {
			f = c.Flags().Lookup(name)
		}
		if err := v.BindPFlag(key, f); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", name, err))
		}
	}
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
