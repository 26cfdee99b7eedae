package dataset

import (
	"os"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"
)

// Progress reports embedding progress during an import
type Progress interface {
	Start(total int)
	Set(done int)
	Finish()
}

// BarProgress renders a progress bar on stderr
type BarProgress struct {
	bar *progressbar.ProgressBar
}

// NewProgress returns a bar when enabled, nil otherwise
func NewProgress(enabled bool) Progress {
	if !enabled {
		return nil
	}
	return &BarProgress{}
}

func (p *BarProgress) Start(total int) {
	if total <= 0 {
		return
	}
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("embedding"),
		progressbar.OptionSetWidth(32),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

func (p *BarProgress) Set(done int) {
	if p.bar == nil {
		return
	}
	_ = p.bar.Set(done)
}

func (p *BarProgress) Finish() {
	if p.bar == nil {
		return
	}
	_ = p.bar.Finish()
}

// DefaultProgressEnabled reports whether stderr is a terminal
func DefaultProgressEnabled() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}
