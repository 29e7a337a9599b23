package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

type line struct {
	text string
	err  error
}

// LineOverride returns a prompt override that shows the proposed prompt on
// out and reads one replacement line from in. An empty line or end of input
// keeps the proposed prompt.
func LineOverride(in io.Reader, out io.Writer) func(ctx context.Context, attempt int, proposed string) (string, error) {
	reader := bufio.NewReader(in)
	return func(ctx context.Context, attempt int, proposed string) (string, error) {
		fmt.Fprintf(out, "Attempt %d. Next prompt:\n%s\n", attempt, proposed)
		fmt.Fprint(out, "Type a replacement prompt, or press Enter to keep it: ")

		ch := make(chan line, 1)
		go func() {
			text, err := reader.ReadString('\n')
			ch <- line{text: text, err: err}
		}()

		select {
		case <-ctx.Done():
			return proposed, ctx.Err()
		case l := <-ch:
			if l.err != nil && !errors.Is(l.err, io.EOF) {
				return proposed, fmt.Errorf("read override: %w", l.err)
			}
			text := strings.TrimRight(l.text, "\r\n")
			if strings.TrimSpace(text) == "" {
				return proposed, nil
			}
			return text, nil
		}
	}
}
