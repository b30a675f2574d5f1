package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/petasbytes/go-toolchat/internal/dispatch"
	"github.com/petasbytes/go-toolchat/internal/tui"
)

// runPlain is the line-mode loop: one prompt, one reply, until EOF or ctx ends.
func runPlain(ctx context.Context, d *dispatch.Dispatcher, in io.Reader, out io.Writer) error {
	fmt.Fprintf(out, "%s %s\n", tui.AssistantLabel, tui.Greeting)

	// stdin reader goroutine -> lines into channel
	inputCh := make(chan string)
	scanner := bufio.NewScanner(in)
	go func() {
		defer close(inputCh)
		for scanner.Scan() {
			select {
			case inputCh <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		fmt.Fprint(out, "\u001b[94mYou:\u001b[0m ")
		var (
			line string
			ok   bool
		)
		select {
		case <-ctx.Done():
			fmt.Fprintln(out, "\nExiting...")
			return nil
		case line, ok = <-inputCh:
			if !ok {
				fmt.Fprintln(out)
				return errors.Wrap(scanner.Err(), "read input")
			}
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		if err := d.Submit(line); err != nil {
			fmt.Fprintf(out, "%s %v\n", tui.AssistantLabel, err)
			continue
		}
		res, err := d.Wait(ctx)
		if err != nil {
			fmt.Fprintln(out, "\nExiting...")
			return nil
		}
		fmt.Fprintf(out, "%s %s\n", tui.AssistantLabel, res.Reply)
	}
}
