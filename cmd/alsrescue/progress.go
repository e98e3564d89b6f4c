package main

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/mattn/go-isatty"

	"alsrescue/internal/scan"
)

// progressPrinter renders a single in-place progress line on terminals and
// stays silent when output is redirected.
type progressPrinter struct {
	mu       sync.Mutex
	out      io.Writer
	terminal bool
	lastLen  int
}

func newProgressPrinter(out io.Writer) *progressPrinter {
	return &progressPrinter{
		out:      out,
		terminal: isTerminal(out),
	}
}

func (p *progressPrinter) update(state scan.ProgressState) {
	if !p.terminal {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	line := fmt.Sprintf("examined %d files, %d matches, %d copied, %d errors",
		state.FilesExamined, state.TotalMatches(), state.CopiesSucceeded, state.TotalErrors())
	padding := p.lastLen - len(line)
	if padding < 0 {
		padding = 0
	}
	fmt.Fprintf(p.out, "\r%s%*s", line, padding, "")
	p.lastLen = len(line)
}

// done clears the progress line so the summary starts on a clean row.
func (p *progressPrinter) done() {
	if !p.terminal {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.lastLen > 0 {
		fmt.Fprintf(p.out, "\r%*s\r", p.lastLen, "")
		p.lastLen = 0
	}
}

func isTerminal(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
