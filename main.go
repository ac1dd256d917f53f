package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
)

const version = "0.1.0"

var (
	versionOption = flag.Bool("version", false, "gqlselect version")
	configOption  = flag.String("config", "", "config file (default: nearest gqlselect.yml)")
	verboseOption = flag.Bool("v", false, "debug logging")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: gqlselect [flags] build|introspect|generate [command flags]\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *versionOption {
		fmt.Printf("gqlselect v%s\n", version)

		return
	}

	level := slog.LevelInfo
	if *verboseOption {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, *configOption, flag.Args(), os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
