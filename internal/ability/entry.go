package ability

import (
	"sync"

	"github.com/olivier-w/surfacetest/internal/permission"
)

// IndexPage is the page the entry ability loads into its main window.
const IndexPage = "pages/Index"

// EntryAbility requests the media permissions on create and loads the index
// page once its window stage exists. Every other hook only logs.
type EntryAbility struct {
	actx *Context

	wg sync.WaitGroup
}

// NewEntryAbility returns an ability bound to actx.
func NewEntryAbility(actx *Context) *EntryAbility {
	return &EntryAbility{actx: actx}
}

func (a *EntryAbility) OnCreate(want Want, param LaunchParam) {
	a.actx.Logger.Info().
		Str("ability", want.AbilityName).
		Str("reason", param.Reason).
		Msg("Ability onCreate")

	if a.actx.Permissions == nil {
		return
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		res, err := a.actx.Permissions.RequestPermissionsFromUser(a.actx.Ctx, permission.MediaPermissions)
		if err != nil {
			a.actx.Logger.Error().Err(err).Msg("requestPermissionsFromUser failed")
			return
		}
		a.actx.Logger.Info().Bool("all_granted", res.AllGranted()).Msg("requestPermissionsFromUser called")
	}()
}

// WaitPermissions blocks until the permission request from OnCreate is done.
func (a *EntryAbility) WaitPermissions() {
	a.wg.Wait()
}

func (a *EntryAbility) OnWindowStageCreate(stage WindowStage) {
	a.actx.Logger.Info().Msg("Ability onWindowStageCreate")
	stage.LoadContent(IndexPage, func(err error) {
		if err != nil {
			a.actx.Logger.Error().Err(err).Str("page", IndexPage).Msg("Failed to load the content")
			return
		}
		a.actx.Logger.Info().Str("page", IndexPage).Msg("Succeeded in loading the content")
	})
}

func (a *EntryAbility) OnWindowStageDestroy() {
	a.actx.Logger.Info().Msg("Ability onWindowStageDestroy")
}

func (a *EntryAbility) OnForeground() {
	a.actx.Logger.Info().Msg("Ability onForeground")
}

func (a *EntryAbility) OnBackground() {
	a.actx.Logger.Info().Msg("Ability onBackground")
}

func (a *EntryAbility) OnDestroy() {
	a.actx.Logger.Info().Msg("Ability onDestroy")
	if a.actx.Resources != nil {
		a.actx.Resources.ReleaseAll(a.actx.Ctx)
	}
}
