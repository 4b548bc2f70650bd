package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/hpcloud/tail"
	"github.com/spf13/cobra"
)

// newLogsCmd creates the logs command, which prints the plugin's log file.
func newLogsCmd() *cobra.Command {
	var (
		follow bool
		grep   string
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Print the plugin log file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfigFromContext(cmd.Context())
			if err != nil {
				return err
			}
			return tailLog(cmd.Context(), cfg.Logger().LogFile, follow, grep, cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "F", false, "keep printing new lines as they are written")
	cmd.Flags().StringVar(&grep, "grep", "", "only print lines containing this text")
	return cmd
}

// tailLog copies path to out. With follow set it keeps going until ctx is done.
func tailLog(ctx context.Context, path string, follow bool, grep string, out io.Writer) error {
	if path == "" {
		return errors.New("logger.log_file is not configured")
	}

	t, err := tail.TailFile(path, tail.Config{
		Follow:    follow,
		ReOpen:    follow,
		MustExist: true,
		Logger:    tail.DiscardingLogger,
	})
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	defer t.Cleanup()

	for {
		select {
		case <-ctx.Done():
			_ = t.Stop()
			return nil
		case line, ok := <-t.Lines:
			if !ok {
				return t.Wait()
			}
			if line.Err != nil {
				return fmt.Errorf("error reading %s: %w", path, line.Err)
			}
			if grep != "" && !strings.Contains(line.Text, grep) {
				continue
			}
			fmt.Fprintln(out, line.Text)
		}
	}
}
