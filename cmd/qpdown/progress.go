package main

import (
	"io"
	"time"

	"github.com/schollz/progressbar/v3"
)

// barProgress renders segment progress as a terminal bar.
type barProgress struct {
	w   io.Writer
	bar *progressbar.ProgressBar
}

func newBarProgress(w io.Writer) *barProgress {
	return &barProgress{w: w}
}

func (p *barProgress) Start(total int) {
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(p.w),
		progressbar.OptionSetDescription("merging segments..."),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("seg"),
		progressbar.OptionShowIts(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionOnCompletion(func() {
			io.WriteString(p.w, "\n")
		}),
	)
}

func (p *barProgress) Segment(_, _ int) {
	if p.bar != nil {
		p.bar.Add(1)
	}
}

func (p *barProgress) Finish() {
	if p.bar == nil || p.bar.IsFinished() {
		return
	}
	p.bar.Exit()
}
