package main

import (
	"bufio"
	"context"
	"io"
	"strconv"
	"strings"

	"faqchat/internal/widget"
)

// chooser resolves the number of a suggested question shown on screen.
type chooser interface {
	Choice(n int) (string, bool)
}

// toEvent turns a typed line into a widget event: the number of a shown
// suggestion selects it, anything else is free input.
func toEvent(line string, choices chooser) widget.Event {
	if n, err := strconv.Atoi(strings.TrimSpace(line)); err == nil {
		if q, ok := choices.Choice(n); ok {
			return widget.Event{Kind: widget.Select, Text: q}
		}
	}
	return widget.Event{Kind: widget.Input, Text: line}
}

// forwardLines sends one event per line of in until EOF or ctx is done.
// The scanning goroutine may outlive the call while blocked on a read.
func forwardLines(ctx context.Context, in io.Reader, choices chooser, events chan<- widget.Event) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			select {
			case events <- toEvent(line, choices):
			case <-ctx.Done():
				return nil
			}
		}
	}
}
