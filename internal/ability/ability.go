// Package ability models the host-driven lifecycle of a UI ability.
package ability

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/olivier-w/surfacetest/internal/medialib"
	"github.com/olivier-w/surfacetest/internal/permission"
	"github.com/olivier-w/surfacetest/internal/resource"
	"github.com/olivier-w/surfacetest/internal/surface"
)

// Want describes why the ability was started.
type Want struct {
	BundleName  string
	AbilityName string
	Parameters  map[string]string
}

// LaunchParam carries launch details from the host.
type LaunchParam struct {
	Reason string
}

// WindowStage is the main window owned by the host. LoadContent builds the
// named page and reports the outcome through done.
type WindowStage interface {
	LoadContent(page string, done func(err error))
}

// Ability receives lifecycle calls from a Host. An ability never invokes
// these hooks on itself.
type Ability interface {
	OnCreate(want Want, param LaunchParam)
	OnWindowStageCreate(stage WindowStage)
	OnWindowStageDestroy()
	OnForeground()
	OnBackground()
	OnDestroy()
}

// PermissionRequester is satisfied by *permission.AtManager.
type PermissionRequester interface {
	RequestPermissionsFromUser(ctx context.Context, perms []permission.Permission) (permission.GrantResult, error)
	Verify(perm permission.Permission) bool
}

// Context is what an ability and its pages may use. It is passed explicitly
// to whatever needs it.
type Context struct {
	Ctx         context.Context
	Resources   *resource.Accessor
	Library     medialib.Library
	Permissions PermissionRequester
	Surfaces    *surface.Registry
	Binding     *surface.Binding
	Logger      zerolog.Logger
}

// MediaGranted reports whether every media permission has been granted.
func (c *Context) MediaGranted() bool {
	if c.Permissions == nil {
		return false
	}
	for _, p := range permission.MediaPermissions {
		if !c.Permissions.Verify(p) {
			return false
		}
	}
	return true
}
