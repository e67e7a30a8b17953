package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// PromptConfirmer asks yes/no questions on a terminal. Anything other than
// y or yes, including end of input, is a no.
//
// A question abandoned through its context leaves the line read running;
// the next Confirm takes its answer from that read instead of starting a
// second reader on the same input.
type PromptConfirmer struct {
	out    io.Writer
	reader *bufio.Reader

	mu      sync.Mutex
	pending chan string
}

// NewPromptConfirmer reads answers from in and writes questions to out.
func NewPromptConfirmer(in io.Reader, out io.Writer) *PromptConfirmer {
	return &PromptConfirmer{out: out, reader: bufio.NewReader(in)}
}

func (p *PromptConfirmer) Confirm(ctx context.Context, title, message string) bool {
	if ctx.Err() != nil {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if title != "" {
		fmt.Fprintf(p.out, "%s: ", title)
	}
	fmt.Fprintf(p.out, "%s [y/N]: ", message)

	if p.pending == nil {
		p.pending = p.readLine()
	}
	select {
	case <-ctx.Done():
		fmt.Fprintln(p.out)
		return false
	case line := <-p.pending:
		p.pending = nil
		return isYes(line)
	}
}

func (p *PromptConfirmer) readLine() chan string {
	answer := make(chan string, 1)
	go func() {
		line, err := p.reader.ReadString('\n')
		if err != nil && line == "" {
			answer <- ""
			return
		}
		answer <- line
	}()
	return answer
}

func isYes(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
