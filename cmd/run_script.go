package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/deckscript/internal/applescript"
	"github.com/xkilldash9x/deckscript/internal/config"
	"github.com/xkilldash9x/deckscript/internal/observability"
)

// newRunScriptCmd creates the run-script command, which runs one script the
// same way a key press would, without the host.
func newRunScriptCmd() *cobra.Command {
	var (
		source   string
		file     string
		language string
		timeout  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "run-script",
		Short: "Run an AppleScript once, exactly as a key press would",
		Example: `  deckscript run-script --script 'display notification "hello"'
  deckscript run-script --file ~/Scripts/mail.scpt
  deckscript run-script --language JavaScript --script 'Application("Mail").activate()'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfigFromContext(cmd.Context())
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("language") {
				cfg.SetScriptLanguage(language)
			}
			if cmd.Flags().Changed("timeout") {
				cfg.SetScriptTimeout(timeout)
			}

			script := applescript.Script{Source: source}
			if file != "" {
				path, err := homedir.Expand(file)
				if err != nil {
					return fmt.Errorf("invalid --file: %w", err)
				}
				script.Path = path
			}
			return runScript(cmd.Context(), cfg, observability.GetLogger(), script, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVarP(&source, "script", "s", "", "script source to run")
	cmd.Flags().StringVarP(&file, "file", "f", "", "path of a script file to run")
	cmd.Flags().StringVarP(&language, "language", "l", "", "OSA language (AppleScript or JavaScript)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "override script.timeout")
	cmd.MarkFlagsMutuallyExclusive("script", "file")
	cmd.MarkFlagsOneRequired("script", "file")
	return cmd
}

// runScript contains the testable logic of the run-script command.
func runScript(ctx context.Context, cfg config.Interface, logger *zap.Logger, script applescript.Script, stdout, stderr io.Writer) error {
	runner := newRunner(cfg.Script(), logger)
	res, err := runner.Run(ctx, script)

	if out := strings.TrimRight(res.Stdout, "\n"); out != "" {
		fmt.Fprintln(stdout, out)
	}
	if err != nil {
		var scriptErr *applescript.ScriptError
		if errors.As(err, &scriptErr) && scriptErr.Stderr != "" {
			fmt.Fprint(stderr, scriptErr.Stderr)
		}
		return fmt.Errorf("script failed: %w", err)
	}
	logger.Debug("Script finished.", zap.Duration("duration", res.Duration))
	return nil
}
