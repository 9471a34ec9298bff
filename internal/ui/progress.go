package ui

import "github.com/charmbracelet/harmonica"

// progressSpring eases the progress bar toward the playback position. It is
// stepped once per tick, so its frame rate follows tickCmd.
type progressSpring struct {
	spring harmonica.Spring
	pos    float64
	vel    float64
}

func newProgressSpring() progressSpring {
	return progressSpring{spring: harmonica.NewSpring(harmonica.FPS(5), 6.0, 0.9)}
}

func (s *progressSpring) step(target float64) float64 {
	s.pos, s.vel = s.spring.Update(s.pos, s.vel, target)
	if s.pos < 0 {
		s.pos = 0
	}
	if s.pos > 1 {
		s.pos = 1
	}
	return s.pos
}

func (s *progressSpring) reset() {
	s.pos, s.vel = 0, 0
}
