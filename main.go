// ./main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"go.uber.org/zap"

	"github.com/xkilldash9x/deckscript/cmd"
	"github.com/xkilldash9x/deckscript/internal/observability"
)

// Allows mocking os.Exit in tests.
var osExit = os.Exit

// main is the entry point of the plugin. The Stream Deck application starts it
// and stops it with SIGTERM when the plugin is unloaded.
func main() {
	defer handlePanic()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cmd.Execute(ctx); err != nil {
		// cmd.Execute handles the logging, we just handle the exit code.
		if errors.Is(err, context.Canceled) {
			osExit(0)
			return
		}
		osExit(1)
	}
}

// handlePanic records a crash in the plugin log, which is the only place the
// user can find it since the host discards stderr.
func handlePanic() {
	if r := recover(); r != nil {
		observability.GetLogger().Error("Plugin crashed.",
			zap.Any("panic", r),
			zap.ByteString("stack", debug.Stack()),
		)
		observability.Sync()
		fmt.Fprintf(os.Stderr, "panic: %v\n", r)
		osExit(2)
	}
}
