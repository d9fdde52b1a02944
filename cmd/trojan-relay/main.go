// Command trojan-relay is the process entry point: parse flags, load
// config, build and run the server, shut down cleanly on signal.
//
// Grounded on xray-core's main/run.go executeRun (flag shape, signal
// handling, the distinct non-restartable exit code on config error),
// trimmed of the multi-file/confdir/format machinery this single-file
// JSON config (spec §6) has no use for.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cty123/trojan-relay/config"
	"github.com/cty123/trojan-relay/server"
)

// configErrorExitCode mirrors xray-core's convention of a distinctive
// exit code on configuration failure, so a process supervisor can tell
// a bad config apart from a crash and avoid restart-looping it.
const configErrorExitCode = 23

func main() {
	os.Exit(run())
}

func run() int {
	path := flag.String("c", config.DefaultPath, "path to the JSON config file")
	flag.StringVar(path, "config", config.DefaultPath, "path to the JSON config file (alias of -c)")
	flag.Parse()

	cfg, err := config.Load(*path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		return configErrorExitCode
	}

	srv, err := server.New(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to start:", err)
		return configErrorExitCode
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := srv.Run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "server exited:", err)
		return 1
	}
	return 0
}
