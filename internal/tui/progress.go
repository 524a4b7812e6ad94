package tui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/san-kum/episim/internal/dynamo"
)

const (
	clearLine  = "\r\033[K"
	hideCursor = "\033[?25l"
	showCursor = "\033[?25h"
)

// Progress is a simulation observer that redraws a one-line status of the
// run at most frameRate times per second.
type Progress struct {
	w            io.Writer
	compartments []string
	duration     float64
	frameRate    int
	lastFrame    time.Time
}

func NewProgress(w io.Writer, compartments []string, duration float64, frameRate int) *Progress {
	if frameRate < 1 {
		frameRate = 1
	}
	return &Progress{w: w, compartments: compartments, duration: duration, frameRate: frameRate}
}

func (p *Progress) OnStep(x dynamo.State, t float64) {
	if time.Since(p.lastFrame) < time.Second/time.Duration(p.frameRate) && t < p.duration {
		return
	}
	p.lastFrame = time.Now()
	fmt.Fprint(p.w, clearLine+p.line(x, t))
}

func (p *Progress) line(x dynamo.State, t float64) string {
	var b strings.Builder
	done := 0.0
	if p.duration > 0 {
		done = min(t/p.duration, 1)
	}
	filled := int(done * 20)
	b.WriteString("[" + strings.Repeat("#", filled) + strings.Repeat("-", 20-filled) + "]")
	fmt.Fprintf(&b, " t=%-8.2f", t)
	for i, v := range x {
		if i >= 6 || i >= len(p.compartments) {
			break
		}
		fmt.Fprintf(&b, " %s=%.1f", p.compartments[i], v)
	}
	return b.String()
}

func (p *Progress) Start() { fmt.Fprint(p.w, hideCursor) }
func (p *Progress) Stop()  { fmt.Fprint(p.w, "\n"+showCursor) }
