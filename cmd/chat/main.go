package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/petasbytes/go-toolchat/internal/config"
	"github.com/petasbytes/go-toolchat/internal/dispatch"
	"github.com/petasbytes/go-toolchat/internal/provider"
	"github.com/petasbytes/go-toolchat/internal/runner"
	"github.com/petasbytes/go-toolchat/internal/telemetry"
	"github.com/petasbytes/go-toolchat/internal/tui"
	"github.com/petasbytes/go-toolchat/tools"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	config.SetDefaults(v)
	var cfgFile string

	cmd := &cobra.Command{
		Use:           "chat",
		Short:         "Chat with a language model that can search the web and check the weather",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(v, cfgFile)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfgFile, "config", "", "path to a YAML config file")
	flags.String("provider", config.ProviderGemini, "model provider: gemini, anthropic or openai")
	flags.String("model", "", "model name (provider default when empty)")
	flags.Bool("plain", false, "line mode instead of the full-screen interface")
	flags.Bool("observe", false, "write JSONL telemetry events")
	flags.String("log-level", "info", "log level: debug, info, warn or error")
	flags.String("log-file", "", "write logs to this file")
	flags.Int("max-tool-rounds", runner.DefaultMaxToolRounds, "maximum chained tool rounds per turn")

	if err := bindFlags(v, flags, flagKeys); err != nil {
		panic(err)
	}
	return cmd
}

// flagKeys maps viper keys to the flags that set them.
var flagKeys = map[string]string{
	"provider":        "provider",
	"model":           "model",
	"plain":           "plain",
	"observe":         "observe",
	"log_level":       "log-level",
	"log_file":        "log-file",
	"max_tool_rounds": "max-tool-rounds",
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) error {
	for key, name := range keys {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			return errors.Wrapf(err, "bind flag --%s", name)
		}
	}
	return nil
}

func run(parent context.Context, cfg config.Config) error {
	logger, closeLog, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()
	log.SetDefault(logger)

	telemetry.Configure(cfg.Observe, cfg.EventsDir)

	// Set up graceful shutdown on Ctrl-C (SIGINT) / SIGTERM
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	model, err := provider.New(ctx, cfg, httpClient)
	if err != nil {
		return err
	}
	logger.Info("starting chat", "model", model.Name(), "plain", cfg.Plain)

	session := runner.New(model, tools.Registry(cfg, httpClient),
		runner.WithMaxToolRounds(cfg.MaxToolRounds),
		runner.WithLogger(logger),
	)
	d := dispatch.New(session, dispatch.WithLogger(logger), dispatch.WithContext(ctx))

	if cfg.Plain {
		return runPlain(ctx, d, os.Stdin, os.Stdout)
	}
	return tui.RunChat(d, model.Name(), tea.WithContext(ctx))
}

// newLogger logs to log_file when set. Without a file, line mode logs to
// stderr and the full-screen mode discards logs.
func newLogger(cfg config.Config) (*log.Logger, func(), error) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "log level %q", cfg.LogLevel)
	}

	var (
		w       io.Writer = io.Discard
		closeFn           = func() {}
	)
	switch {
	case cfg.LogFile != "":
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "open log file %s", cfg.LogFile)
		}
		w = f
		closeFn = func() { _ = f.Close() }
	case cfg.Plain:
		w = os.Stderr
	}

	logger := log.NewWithOptions(w, log.Options{
		Level:           level,
		Prefix:          "chat",
		ReportTimestamp: true,
	})
	return logger, closeFn, nil
}
