package ui

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/olivier-w/surfacetest/internal/ability"
)

var (
	// ErrUnknownPage is reported by LoadContent for pages the stage cannot build.
	ErrUnknownPage = errors.New("unknown page")
	// ErrNoContent is returned by Run when no page has been loaded.
	ErrNoContent = errors.New("no content loaded")
)

// Stage is the terminal window stage. It builds pages on LoadContent and runs
// the loaded page as a Bubbletea program.
type Stage struct {
	actx  *ability.Context
	opts  []tea.ProgramOption
	model tea.Model
	page  string
}

// NewStage returns a stage whose pages use actx. Program options are passed to
// tea.NewProgram after the alt-screen option.
func NewStage(actx *ability.Context, opts ...tea.ProgramOption) *Stage {
	return &Stage{actx: actx, opts: opts}
}

// LoadContent builds page and reports the outcome through done.
func (s *Stage) LoadContent(page string, done func(err error)) {
	var err error
	switch page {
	case ability.IndexPage:
		s.model = NewIndex(s.actx)
		s.page = page
	default:
		err = fmt.Errorf("%w: %s", ErrUnknownPage, page)
	}
	if done != nil {
		done(err)
	}
}

// Page returns the loaded page name, empty before LoadContent succeeds.
func (s *Stage) Page() string {
	return s.page
}

// Run runs the loaded page until the user quits.
func (s *Stage) Run() error {
	if s.model == nil {
		return ErrNoContent
	}
	opts := append([]tea.ProgramOption{tea.WithAltScreen()}, s.opts...)
	final, err := tea.NewProgram(s.model, opts...).Run()
	if err != nil {
		return fmt.Errorf("run %s: %w", s.page, err)
	}
	s.model = final
	return nil
}
