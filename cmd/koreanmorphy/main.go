package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gonuts/commander"
)

var cmd = &commander.Command{
	UsageLine: os.Args[0] + " analyze|compile|serve|diff",
	Short:     "Korean morphological analyzer",
}

func init() {
	cmd.Subcommands = []*commander.Command{
		analyzeCmd(),
		compileCmd(),
		serveCmd(),
		diffCmd(),
	}
}

func exit(err error) {
	fmt.Fprintf(os.Stderr, "**error**: %v\n", err)
	os.Exit(1)
}

func main() {
	if err := cmd.Dispatch(context.Background(), os.Args[1:]); err != nil {
		exit(err)
	}
}
