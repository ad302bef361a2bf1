package main

import (
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/term"

	"github.com/harshithgowdakt/granulezip/internal/config"
)

// progress prints "Done: NN%" on a single terminal line.
type progress struct {
	mu      sync.Mutex
	w       io.Writer
	enabled bool
	last    int
	printed bool
}

func newProgress(w io.Writer, mode string) *progress {
	enabled := false
	switch mode {
	case config.ProgressAlways:
		enabled = true
	case config.ProgressAuto:
		if f, ok := w.(*os.File); ok {
			enabled = term.IsTerminal(int(f.Fd()))
		}
	}
	return &progress{w: w, enabled: enabled, last: -1}
}

func (p *progress) update(done, total int) {
	if !p.enabled || total == 0 {
		return
	}
	pct := 100 * done / total
	p.mu.Lock()
	defer p.mu.Unlock()
	if pct == p.last {
		return
	}
	p.last = pct
	p.printed = true
	fmt.Fprintf(p.w, "\rDone: %d%%", pct)
}

func (p *progress) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.printed {
		fmt.Fprintln(p.w)
	}
}
