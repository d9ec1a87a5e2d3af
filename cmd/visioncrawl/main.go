// File: cmd/visioncrawl/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/Ubayed-Bin-Sufian/gpt4v-browsing/cmd"
	"github.com/Ubayed-Bin-Sufian/gpt4v-browsing/internal/observability"
)

const panicLogFile = "panic.log"

// Function variables for mocking in tests.
var (
	osWriteFile = os.WriteFile
	osExit      = os.Exit
)

func main() {
	defer handlePanic()

	// Ctrl+C ends the chat gracefully: the browser is closed and logs flushed.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := cmd.Execute(ctx)
	observability.Sync()
	osExit(exitCode(err))
}

// exitCode maps the command result to a process exit status. An interrupted
// chat is a normal exit.
func exitCode(err error) int {
	if err == nil || errors.Is(err, context.Canceled) {
		return 0
	}
	return 1
}

// handlePanic records an unexpected panic in panicLogFile and exits non-zero.
func handlePanic() {
	r := recover()
	if r == nil {
		return
	}

	observability.Sync()

	panicMessage := fmt.Sprintf("panic: %v\n\n%s", r, debug.Stack())
	if err := osWriteFile(panicLogFile, []byte(panicMessage), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL: Failed to write panic log: %v\n", err)
		fmt.Fprintf(os.Stderr, "Panic details:\n%s\n", panicMessage)
		osExit(2)
		return
	}

	fmt.Fprintf(os.Stderr, "\nvisioncrawl crashed. Details logged to %s\n", panicLogFile)
	osExit(2)
}
