package ability

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olivier-w/surfacetest/internal/permission"
)

type recordingAbility struct {
	calls []string
}

func (r *recordingAbility) OnCreate(Want, LaunchParam)      { r.calls = append(r.calls, "create") }
func (r *recordingAbility) OnWindowStageCreate(WindowStage) { r.calls = append(r.calls, "windowStageCreate") }
func (r *recordingAbility) OnWindowStageDestroy()           { r.calls = append(r.calls, "windowStageDestroy") }
func (r *recordingAbility) OnForeground()                   { r.calls = append(r.calls, "foreground") }
func (r *recordingAbility) OnBackground()                   { r.calls = append(r.calls, "background") }
func (r *recordingAbility) OnDestroy()                      { r.calls = append(r.calls, "destroy") }

type fakeWindow struct {
	loadErr error
	runErr  error
	loaded  []string
	ran     bool
}

func (w *fakeWindow) LoadContent(page string, done func(error)) {
	w.loaded = append(w.loaded, page)
	done(w.loadErr)
}

func (w *fakeWindow) Run() error {
	w.ran = true
	return w.runErr
}

func TestHostRunsLifecycleInOrder(t *testing.T) {
	a := &recordingAbility{}
	w := &fakeWindow{}

	require.NoError(t, NewHost(a, w).Run(Want{}, LaunchParam{}))
	assert.True(t, w.ran)
	assert.Equal(t, []string{
		"create", "windowStageCreate", "foreground",
		"background", "windowStageDestroy", "destroy",
	}, a.calls)
}

func TestHostTearsDownWhenWindowFails(t *testing.T) {
	a := &recordingAbility{}
	boom := errors.New("terminal lost")

	err := NewHost(a, &fakeWindow{runErr: boom}).Run(Want{}, LaunchParam{})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "destroy", a.calls[len(a.calls)-1])
}

func newEntry(t *testing.T, grant bool) (*EntryAbility, *Context, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	logger := zerolog.New(&logs)
	at, err := permission.NewAtManager(filepath.Join(t.TempDir(), "p.yaml"), permission.AutoPrompter(grant), logger)
	require.NoError(t, err)
	actx := &Context{Ctx: context.Background(), Permissions: at, Logger: logger}
	return NewEntryAbility(actx), actx, &logs
}

func TestEntryAbilityRequestsMediaPermissions(t *testing.T) {
	a, actx, logs := newEntry(t, true)
	assert.False(t, actx.MediaGranted())

	a.OnCreate(Want{AbilityName: "EntryAbility"}, LaunchParam{})
	a.WaitPermissions()

	assert.True(t, actx.MediaGranted())
	assert.Contains(t, logs.String(), "Ability onCreate")
	assert.Contains(t, logs.String(), "requestPermissionsFromUser called")
}

func TestEntryAbilityDeniedPermissions(t *testing.T) {
	a, actx, _ := newEntry(t, false)
	a.OnCreate(Want{}, LaunchParam{})
	a.WaitPermissions()
	assert.False(t, actx.MediaGranted())
}

func TestEntryAbilityLoadsIndexPage(t *testing.T) {
	a, _, logs := newEntry(t, true)

	w := &fakeWindow{}
	a.OnWindowStageCreate(w)
	assert.Equal(t, []string{IndexPage}, w.loaded)
	assert.Contains(t, logs.String(), "Succeeded in loading the content")

	logs.Reset()
	a.OnWindowStageCreate(&fakeWindow{loadErr: errors.New("no such page")})
	assert.Contains(t, logs.String(), "Failed to load the content")
	assert.Contains(t, logs.String(), `"level":"error"`)
}

func TestMediaGrantedWithoutRequester(t *testing.T) {
	actx := &Context{}
	assert.False(t, actx.MediaGranted())
}
