package ability

// Window is a WindowStage that can also run until the user closes it.
type Window interface {
	WindowStage
	Run() error
}

// Host drives an Ability through its lifecycle around a window.
type Host struct {
	ability Ability
	window  Window
}

// NewHost returns a host for a on window w.
func NewHost(a Ability, w Window) *Host {
	return &Host{ability: a, window: w}
}

// Run calls create, window-stage-create and foreground, runs the window, and
// then background, window-stage-destroy and destroy, in that order. The
// teardown hooks run even when the window fails.
func (h *Host) Run(want Want, param LaunchParam) error {
	h.ability.OnCreate(want, param)
	h.ability.OnWindowStageCreate(h.window)
	h.ability.OnForeground()

	err := h.window.Run()

	h.ability.OnBackground()
	h.ability.OnWindowStageDestroy()
	h.ability.OnDestroy()
	return err
}
