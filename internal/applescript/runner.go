// Package applescript runs user-supplied scripts through the macOS Open
// Scripting Architecture command line tool.
package applescript

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/deckscript/internal/config"
)

// ErrEmptyScript is returned when there is nothing to run.
var ErrEmptyScript = errors.New("script is empty")

// execCommandContext is swapped out in tests.
var execCommandContext = exec.CommandContext

// Script is one unit of work. Exactly one of Source or Path is used; Source wins.
type Script struct {
	Source string
	Path   string
	// Language overrides the runner's default OSA language when set.
	Language string
}

// IsEmpty reports whether the script has neither source nor path.
func (s Script) IsEmpty() bool {
	return strings.TrimSpace(s.Source) == "" && strings.TrimSpace(s.Path) == ""
}

// Result captures the outcome of a finished interpreter process.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// ScriptError reports a script that ran and failed.
type ScriptError struct {
	ExitCode int
	Stderr   string
}

func (e *ScriptError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		return fmt.Sprintf("script exited with status %d", e.ExitCode)
	}
	return fmt.Sprintf("script exited with status %d: %s", e.ExitCode, msg)
}

// Runner executes scripts.
type Runner interface {
	Run(ctx context.Context, s Script) (Result, error)
}

// OsascriptRunner runs scripts with osascript(1).
type OsascriptRunner struct {
	interpreter string
	language    string
	timeout     time.Duration
	logger      *zap.Logger
}

// NewOsascriptRunner creates a runner from the script configuration.
func NewOsascriptRunner(cfg config.ScriptConfig, logger *zap.Logger) *OsascriptRunner {
	return &OsascriptRunner{
		interpreter: cfg.Interpreter,
		language:    cfg.Language,
		timeout:     cfg.Timeout,
		logger:      logger.Named("osascript"),
	}
}

// Args returns the interpreter arguments for s. Inline source is read from stdin.
func (r *OsascriptRunner) Args(s Script) []string {
	var args []string
	lang := s.Language
	if lang == "" {
		lang = r.language
	}
	if lang != "" {
		args = append(args, "-l", lang)
	}
	if strings.TrimSpace(s.Source) != "" {
		return append(args, "-")
	}
	return append(args, s.Path)
}

// Run executes s and waits for it to finish or for the timeout to expire.
func (r *OsascriptRunner) Run(ctx context.Context, s Script) (Result, error) {
	if s.IsEmpty() {
		return Result{}, ErrEmptyScript
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	args := r.Args(s)
	cmd := execCommandContext(ctx, r.interpreter, args...)
	if strings.TrimSpace(s.Source) != "" {
		cmd.Stdin = strings.NewReader(s.Source)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	res := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
	}

	r.logger.Debug("Script finished.",
		zap.Strings("args", args),
		zap.Int("exit_code", res.ExitCode),
		zap.Duration("duration", res.Duration),
	)

	if err == nil {
		return res, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return res, fmt.Errorf("script did not finish within %s: %w", r.timeout, ctxErr)
		}
		return res, fmt.Errorf("script stopped before finishing: %w", ctxErr)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return res, &ScriptError{ExitCode: exitErr.ExitCode(), Stderr: res.Stderr}
	}
	return res, fmt.Errorf("failed to start %s: %w", r.interpreter, err)
}

var _ Runner = (*OsascriptRunner)(nil)
