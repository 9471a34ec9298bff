package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/olivier-w/surfacetest/internal/medialib"
	"github.com/olivier-w/surfacetest/internal/player"
	"github.com/olivier-w/surfacetest/internal/resource"
)

type tickMsg time.Time

type namesLoadedMsg struct {
	names []string
	err   error
}

type acquiredMsg struct {
	name     string
	previous string
	result   resource.Result
	meta     player.Metadata
	duration time.Duration
	probeErr error
}

type releasedMsg struct {
	name string
	err  error
}

type foundMsg struct {
	displayName string
	asset       *medialib.FileAsset
	err         error
}

type renderedMsg struct {
	name   string
	out    string
	result string
	frames int64
	peak   int
	err    error
}

func tickCmd() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
