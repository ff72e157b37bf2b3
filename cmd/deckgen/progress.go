package main

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"

	"deck-server/internal/domain"
	"deck-server/internal/store"
)

// statusBar отображает статусы генерации в прогресс-баре 0-100.
type statusBar struct {
	bar *progressbar.ProgressBar
}

func newStatusBar() *statusBar {
	bar := progressbar.NewOptions(100,
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("Starting..."),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(os.Stderr, "\n")
		}),
		progressbar.OptionSetRenderBlankState(true),
	)
	return &statusBar{bar: bar}
}

// follow читает события хранилища до закрытия канала.
func (s *statusBar) follow(events <-chan store.Event, done chan<- struct{}) {
	defer close(done)
	for ev := range events {
		if ev.Kind != store.EventStatus {
			continue
		}
		s.apply(ev.Status)
	}
}

func (s *statusBar) apply(status domain.GenerationStatus) {
	if status.Message != "" {
		s.bar.Describe(status.Message)
	}
	_ = s.bar.Set(status.Progress)
}

func (s *statusBar) finish() {
	_ = s.bar.Finish()
}
