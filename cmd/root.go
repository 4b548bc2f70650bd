// -- cmd/root.go --
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xkilldash9x/deckscript/internal/applescript"
	"github.com/xkilldash9x/deckscript/internal/config"
	"github.com/xkilldash9x/deckscript/internal/observability"
	"github.com/xkilldash9x/deckscript/internal/plugin"
	"github.com/xkilldash9x/deckscript/internal/streamdeck"
)

type contextKey string

const configKey contextKey = "config"

// newRunner builds the script runner. Tests replace it.
var newRunner = func(cfg config.ScriptConfig, logger *zap.Logger) applescript.Runner {
	return applescript.NewOsascriptRunner(cfg, logger)
}

// hostFlags holds the launch parameters the Stream Deck application passes.
type hostFlags struct {
	port          int
	pluginUUID    string
	registerEvent string
	info          string
}

// NewRootCommand builds a fresh command tree. Each call returns independent flag state.
func NewRootCommand() *cobra.Command {
	var cfgFile string
	var host hostFlags

	rootCmd := &cobra.Command{
		Use:   "deckscript",
		Short: "deckscript runs AppleScript from Stream Deck keys.",
		Long: `deckscript is a Stream Deck plugin. The Stream Deck application launches it with
-port, -pluginUUID, -registerEvent and -info; the plugin connects back, registers,
and runs the AppleScript stored in a key's settings whenever that key is pressed.`,
		// Version is set at build time. See cmd/version.go.
		Version:      Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			config.SetDefaults(v)

			if err := initializeConfig(v, cfgFile); err != nil {
				return fmt.Errorf("failed to initialize configuration: %w", err)
			}

			cfg, err := config.NewConfigFromViper(v)
			if err != nil {
				observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "deckscript"})
				return fmt.Errorf("failed to load or validate config: %w", err)
			}

			observability.InitializeLogger(cfg.Logger())
			observability.GetLogger().Debug("Starting deckscript", zap.String("version", Version), zap.String("command", cmd.Name()))

			cmd.SetContext(context.WithValue(cmd.Context(), configKey, cfg))
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// Started by hand without host parameters: nothing to connect to.
			if host.port == 0 && host.pluginUUID == "" {
				return cmd.Help()
			}
			cfg, err := getConfigFromContext(cmd.Context())
			if err != nil {
				return err
			}
			return runPlugin(cmd.Context(), cfg, observability.GetLogger(), host)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./config.yaml)")
	rootCmd.Flags().IntVar(&host.port, streamdeck.FlagPort, 0, "WebSocket port of the Stream Deck application")
	rootCmd.Flags().StringVar(&host.pluginUUID, streamdeck.FlagPluginUUID, "", "UUID assigned to this plugin instance")
	rootCmd.Flags().StringVar(&host.registerEvent, streamdeck.FlagRegisterEvent, "", "event name used to register the plugin")
	rootCmd.Flags().StringVar(&host.info, streamdeck.FlagInfo, "", "JSON describing the host application and devices")
	rootCmd.SetVersionTemplate(`{{printf "%s version %s\n" .Name .Version}}`)

	rootCmd.AddCommand(newRunScriptCmd())
	rootCmd.AddCommand(newLogsCmd())
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

// Execute runs the command tree against the process arguments.
func Execute(ctx context.Context) error {
	rootCmd := NewRootCommand()
	rootCmd.SetArgs(streamdeck.NormalizeHostArgs(os.Args[1:]))

	err := rootCmd.ExecuteContext(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		observability.GetLogger().Error("Command execution failed", zap.Error(err))
	}
	observability.Sync()
	return err
}

// initializeConfig reads in config file and ENV variables if set.
func initializeConfig(v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		// The host starts plugins with the .sdPlugin bundle as working directory.
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/deckscript")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("DECKSCRIPT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	return nil
}

func getConfigFromContext(ctx context.Context) (*config.Config, error) {
	cfg, ok := ctx.Value(configKey).(*config.Config)
	if !ok || cfg == nil {
		return nil, errors.New("configuration not found in command context")
	}
	return cfg, nil
}

// runPlugin connects to the host and serves events until the host disconnects
// or ctx is cancelled.
func runPlugin(ctx context.Context, cfg config.Interface, logger *zap.Logger, host hostFlags) error {
	reg, err := streamdeck.ParseRegistration(host.port, host.pluginUUID, host.registerEvent, host.info)
	if err != nil {
		return err
	}
	client := streamdeck.NewClient(cfg.Connection(), reg, logger)
	dialCtx, cancel := context.WithTimeout(ctx, cfg.Connection().DialTimeout)
	err = client.Dial(dialCtx)
	cancel()
	if err != nil {
		return err
	}
	defer client.Close()

	// Warnings and errors also land in the host's own log, next to the plugin's name.
	pluginLogger := observability.AttachHostSink(client, zapcore.WarnLevel)

	p := plugin.New(cfg.Script(), client, newRunner(cfg.Script(), pluginLogger), pluginLogger)
	p.SeedDevices(reg.Info.Devices)

	err = client.Run(ctx, p)
	p.Wait()
	if errors.Is(err, context.Canceled) {
		logger.Info("Shutting down on signal.")
		return nil
	}
	return err
}
