package main

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/Lukita-it/buscador-semantico/internal/service"
	"github.com/schollz/progressbar/v3"
)

var stageLabels = map[string]string{
	service.StageProviders: "Providers",
	service.StageEncode:    "Encoding",
}

// progressObserver renders one progress bar per build stage.
type progressObserver struct {
	mu      sync.Mutex
	bar     *progressbar.ProgressBar
	label   string
	total   int
	done    int
	started time.Time
}

func newProgressObserver() *service.BuildObserver {
	p := &progressObserver{}
	return &service.BuildObserver{
		StageStarted: p.start,
		Advanced:     p.advance,
	}
}

func (p *progressObserver) start(stage string, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bar != nil {
		p.bar.Finish()
	}
	p.label = stageLabels[stage]
	p.total = total
	p.done = 0
	p.started = time.Now()
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription(fmt.Sprintf("[cyan]%s[reset]", p.label)),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(os.Stderr)
		}),
	)
}

func (p *progressObserver) advance(stage string, n int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bar == nil {
		return
	}
	p.done += n
	p.bar.Add(n)

	elapsed := time.Since(p.started)
	if p.done > 0 && elapsed > 0 {
		rate := float64(p.done) / elapsed.Seconds()
		if rate > 0 {
			eta := time.Duration(float64(p.total-p.done)/rate) * time.Second
			p.bar.Describe(fmt.Sprintf("[cyan]%s[reset] ETA: %s", p.label, eta.Round(time.Second)))
		}
	}
}
