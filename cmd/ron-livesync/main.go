package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/strategoai/ron-livesync/cmd"
	"github.com/strategoai/ron-livesync/pkg/buildinfo"
	"github.com/strategoai/ron-livesync/pkg/flagparse"
	"github.com/strategoai/ron-livesync/pkg/plog"
)

// run dispatches the parsed command and returns an error so main can handle
// the exit code.
func run(ctx context.Context) error {
	command, flagMap, err := flagparse.Parse(os.Args[1:])
	if err != nil {
		return err
	}

	switch command {
	case flagparse.None:
		return nil // help was printed
	case flagparse.Run:
		return cmd.RunRun(ctx, flagMap)
	case flagparse.Sync:
		return cmd.RunSync(ctx, flagMap)
	case flagparse.Pause:
		return cmd.RunPause(ctx, flagMap)
	case flagparse.Resume:
		return cmd.RunResume(ctx, flagMap)
	case flagparse.Status:
		return cmd.RunStatus(ctx, flagMap)
	case flagparse.Restore:
		return cmd.RunRestore(ctx, flagMap)
	case flagparse.Init:
		return cmd.RunInit(ctx, flagMap)
	case flagparse.Version:
		return cmd.RunVersion(buildinfo.Name, buildinfo.Version)
	default:
		return fmt.Errorf("internal error: unknown command %d", command)
	}
}

func main() {
	// Cancel the context on Ctrl+C so the poll loop shuts down cleanly.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx); err != nil {
		plog.Error(buildinfo.Name+" exited with error", "error", err)
		os.Exit(1)
	}
}
