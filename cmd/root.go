package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

const usage = `polyglot translates sentences through an LLM completion backend.

Usage:
  polyglot serve [flags]
  polyglot translate --to <language> [flags] <sentence...>

Commands:
  serve      Start the HTTP server
  translate  Send a sentence to a running server and print the translation

Flags:
  -h, --help  Show this help message`

// Execute runs the CLI dispatcher with the provided arguments.
func Execute(ctx context.Context, args []string) error {
	return execute(ctx, args, os.Stdout)
}

func execute(ctx context.Context, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return printUsage(stdout)
	}

	switch args[0] {
	case "serve":
		return serve(ctx, args[1:])
	case "translate":
		return translate(ctx, args[1:], stdout)
	case "help", "-h", "--help":
		return printUsage(stdout)
	default:
		return fmt.Errorf("unknown command %q\n\n%s", args[0], usage)
	}
}

func printUsage(w io.Writer) error {
	fmt.Fprintln(w, strings.TrimSpace(usage))
	return nil
}
