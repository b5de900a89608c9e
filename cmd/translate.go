package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"polyglot/internal/client"
)

const translateUsage = `Usage:
  polyglot translate --to <language> [--server <url>] <sentence...>

Flags:
  --to     string   Target language, e.g. Spanish (required)
  --server string   Base URL of a running polyglot server (default http://127.0.0.1:3000)`

const defaultServerURL = "http://127.0.0.1:3000"

func translate(ctx context.Context, args []string, stdout io.Writer) error {
	flags := flag.NewFlagSet("translate", flag.ContinueOnError)
	flags.Usage = func() {
		fmt.Fprintln(os.Stderr, translateUsage)
	}

	var targetLanguage, serverURL string
	flags.StringVar(&targetLanguage, "to", "", "target language")
	flags.StringVar(&serverURL, "server", defaultServerURL, "server base URL")

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("parse translate flags: %w", err)
	}

	sentence := strings.Join(flags.Args(), " ")
	if sentence == "" {
		return errors.New("translate requires a sentence")
	}
	if targetLanguage == "" {
		return errors.New("translate requires --to <language>")
	}

	c, err := client.New(serverURL, nil)
	if err != nil {
		return err
	}

	text, err := c.Translate(ctx, sentence, targetLanguage)
	if err != nil {
		var cErr *client.Error
		if errors.As(err, &cErr) {
			return errors.New(cErr.Message)
		}
		return err
	}

	fmt.Fprintln(stdout, text)
	return nil
}
