package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/schollz/progressbar/v3"
)

// progressReporter draws the batch analysis progress bar.
type progressReporter struct {
	quiet bool
	w     io.Writer
	bar   *progressbar.ProgressBar
}

func newProgressReporter(w io.Writer, quiet bool) *progressReporter {
	return &progressReporter{quiet: quiet, w: w}
}

func (p *progressReporter) OnAnalysisStart(totalFiles int) {
	if p.quiet || totalFiles == 0 {
		return
	}
	p.bar = progressbar.NewOptions(totalFiles,
		progressbar.OptionSetWriter(p.w),
		progressbar.OptionSetDescription("Analyzing files"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("files/s"),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(p.w)
		}),
	)
}

func (p *progressReporter) OnFileProcessed() {
	if p.bar != nil {
		_ = p.bar.Add(1)
	}
}

func (p *progressReporter) OnComplete() {
	if p.bar != nil {
		_ = p.bar.Finish()
		p.bar = nil
	}
}
