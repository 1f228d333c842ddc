package gameproc

import (
	"regexp"
	"strings"
	"sync"
)

var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*[A-Za-z]`)

func cleanAnsi(s string) string {
	return ansiRegex.ReplaceAllString(s, "")
}

// ConsoleBuffer keeps the last max lines of console output. Writers strip
// ANSI escapes before append, so subscribers replaying history always see
// plain text.
type ConsoleBuffer struct {
	lines []string
	max   int
	mu    sync.Mutex
}

func NewConsoleBuffer(max int) *ConsoleBuffer {
	if max <= 0 {
		max = 1000
	}
	return &ConsoleBuffer{max: max}
}

func (b *ConsoleBuffer) Append(line string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return
	}
	b.lines = append(b.lines, line)
	if len(b.lines) > b.max {
		b.lines = b.lines[len(b.lines)-b.max:]
	}
}

// Lines returns a copy of the buffered lines, oldest first.
func (b *ConsoleBuffer) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.lines))
	copy(out, b.lines)
	return out
}

// Tail returns up to n of the most recent lines, oldest first. A negative n
// returns everything; zero returns nothing.
func (b *ConsoleBuffer) Tail(n int) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if n < 0 || n > len(b.lines) {
		n = len(b.lines)
	}
	out := make([]string, n)
	copy(out, b.lines[len(b.lines)-n:])
	return out
}
