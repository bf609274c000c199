// Package term provides the headless virtual terminal buffer that mirrors
// the assistant's rendered screen.
package term

import (
	"strings"
	"sync"

	"github.com/hinshun/vt10x"
)

// Screen is the narrow capability the session manager needs from a terminal
// emulator. It is substitutable with a fake in tests that do not need real
// ANSI emulation fidelity. A Screen is a passive mirror: it never writes
// back to the child.
type Screen interface {
	// Feed replays raw output bytes into the emulator.
	Feed(p []byte)
	// Render returns the current screen as plain text, one line per row.
	Render() string
	// Resize updates the emulator geometry.
	Resize(cols, rows int)
	// Size returns the current geometry.
	Size() (cols, rows int)
}

// VT is a Screen backed by a vt10x terminal emulator.
type VT struct {
	mu   sync.Mutex
	term vt10x.Terminal
	cols int
	rows int
}

// NewVT creates a virtual terminal with the given geometry.
func NewVT(cols, rows int) *VT {
	if cols < 1 {
		cols = 80
	}
	if rows < 1 {
		rows = 24
	}
	return &VT{
		term: vt10x.New(vt10x.WithSize(cols, rows)),
		cols: cols,
		rows: rows,
	}
}

// Feed replays raw child output into the emulator, in arrival order.
func (v *VT) Feed(p []byte) {
	if len(p) == 0 {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	_, _ = v.term.Write(p)
}

// Render returns the rendered screen contents as plain text. Trailing blanks
// on each row are trimmed so line-anchored regexes see stable text.
func (v *VT) Render() string {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.term.Lock()
	defer v.term.Unlock()

	var b strings.Builder
	b.Grow((v.cols + 1) * v.rows)
	var line strings.Builder
	for y := 0; y < v.rows; y++ {
		line.Reset()
		for x := 0; x < v.cols; x++ {
			ch := v.term.Cell(x, y).Char
			if ch == 0 {
				ch = ' '
			}
			line.WriteRune(ch)
		}
		b.WriteString(strings.TrimRight(line.String(), " "))
		if y < v.rows-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// Resize updates the emulator geometry. It completes before returning so a
// subsequent snapshot always sees consistent column width.
func (v *VT) Resize(cols, rows int) {
	if cols < 1 || rows < 1 {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.term.Resize(cols, rows)
	v.cols = cols
	v.rows = rows
}

// Size returns the current geometry.
func (v *VT) Size() (cols, rows int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.cols, v.rows
}
