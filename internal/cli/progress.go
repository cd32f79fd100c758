package cli

import (
	"fmt"
	"os"

	"github.com/law-makers/igfetch/internal/app"
	"github.com/law-makers/igfetch/internal/instagram"
	"github.com/schollz/progressbar/v3"
)

// pageProgress renders client page events as a spinner on stderr
type pageProgress struct {
	bar *progressbar.ProgressBar
}

// newPageProgress returns nil when progress output is disabled
func newPageProgress(a *app.Application, label string) *pageProgress {
	if a.Config.Quiet || a.Config.JSONLog {
		return nil
	}
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(label),
		progressbar.OptionShowCount(),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)
	return &pageProgress{bar: bar}
}

// Hook returns the client page hook, or nil for a disabled progress
func (p *pageProgress) Hook() instagram.PageHook {
	if p == nil {
		return nil
	}
	return func(ev instagram.PageEvent) {
		desc := fmt.Sprintf("%s page %d", ev.Operation, ev.Page)
		if ev.Declared > 0 {
			desc += fmt.Sprintf(" of ~%d", ev.Declared)
		}
		p.bar.Describe(desc)
		_ = p.bar.Set(ev.Items)
	}
}

// Done clears the spinner
func (p *pageProgress) Done() {
	if p == nil {
		return
	}
	_ = p.bar.Finish()
}
