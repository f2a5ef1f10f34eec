package report

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
)

const progressWidth = 30

// Progress draws a single-line progress bar, redrawn in place.
type Progress struct {
	mu    sync.Mutex
	w     io.Writer
	label string
	bar   progress.Model
	drawn bool
}

// NewProgress creates a progress bar that writes to w.
func NewProgress(w io.Writer, label string) *Progress {
	return &Progress{
		w:     w,
		label: label,
		bar: progress.New(
			progress.WithGradient("#00ffff", "#00ff00"),
			progress.WithWidth(progressWidth),
			progress.WithoutPercentage(),
		),
	}
}

// Percent redraws the bar at pct (0-100).
func (p *Progress) Percent(pct int) {
	pct = min(max(pct, 0), 100)
	p.draw(float64(pct)/100, fmt.Sprintf("%3d%%", pct))
}

// Count redraws the bar at done of total.
func (p *Progress) Count(done, total int) {
	ratio := 0.0
	if total > 0 {
		ratio = float64(done) / float64(total)
	}
	p.draw(ratio, fmt.Sprintf("%d/%d", done, total))
}

func (p *Progress) draw(ratio float64, suffix string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.w, "\r%s %s %s", p.label, p.bar.ViewAs(ratio), suffix)
	p.drawn = true
}

// Done ends the line if anything was drawn.
func (p *Progress) Done() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.drawn {
		fmt.Fprintln(p.w)
		p.drawn = false
	}
}
