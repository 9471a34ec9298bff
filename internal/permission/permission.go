// Package permission records user decisions on access-token permissions.
package permission

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/google/renameio/v2"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Permission is an access-token permission name.
type Permission string

const (
	MediaLocation Permission = "ohos.permission.MEDIA_LOCATION"
	ReadMedia     Permission = "ohos.permission.READ_MEDIA"
	WriteMedia    Permission = "ohos.permission.WRITE_MEDIA"
)

// MediaPermissions are the grants needed before any media access.
var MediaPermissions = []Permission{MediaLocation, ReadMedia, WriteMedia}

// GrantStatus follows the platform convention: 0 granted, -1 denied.
type GrantStatus int

const (
	Granted GrantStatus = 0
	Denied  GrantStatus = -1
)

// GrantResult pairs each requested permission with its status.
type GrantResult struct {
	Permissions []Permission
	AuthResults []GrantStatus
}

// AllGranted reports whether every requested permission was granted.
func (r GrantResult) AllGranted() bool {
	for _, s := range r.AuthResults {
		if s != Granted {
			return false
		}
	}
	return len(r.AuthResults) == len(r.Permissions)
}

// Prompter asks the user about permissions that have no recorded decision.
type Prompter interface {
	Prompt(ctx context.Context, perms []Permission) (map[Permission]bool, error)
}

// PrompterFunc adapts a function to Prompter.
type PrompterFunc func(ctx context.Context, perms []Permission) (map[Permission]bool, error)

func (f PrompterFunc) Prompt(ctx context.Context, perms []Permission) (map[Permission]bool, error) {
	return f(ctx, perms)
}

// AutoPrompter answers every prompt with grant.
func AutoPrompter(grant bool) Prompter {
	return PrompterFunc(func(_ context.Context, perms []Permission) (map[Permission]bool, error) {
		out := make(map[Permission]bool, len(perms))
		for _, p := range perms {
			out[p] = grant
		}
		return out, nil
	})
}

type grantFile struct {
	Grants map[Permission]bool `yaml:"grants"`
}

// AtManager stores decisions in a YAML file and prompts for new ones.
type AtManager struct {
	path     string
	prompter Prompter
	logger   zerolog.Logger

	mu        sync.Mutex
	decisions map[Permission]bool
}

// NewAtManager loads recorded decisions from path. A missing file means no
// decisions yet.
func NewAtManager(path string, prompter Prompter, logger zerolog.Logger) (*AtManager, error) {
	m := &AtManager{
		path:      path,
		prompter:  prompter,
		logger:    logger,
		decisions: make(map[Permission]bool),
	}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return m, nil
	case err != nil:
		return nil, fmt.Errorf("read permissions %s: %w", path, err)
	}
	var gf grantFile
	if err := yaml.Unmarshal(data, &gf); err != nil {
		return nil, fmt.Errorf("parse permissions %s: %w", path, err)
	}
	for p, ok := range gf.Grants {
		m.decisions[p] = ok
	}
	return m, nil
}

// RequestPermissionsFromUser returns a status for every permission in perms,
// prompting only for those without a recorded decision.
func (m *AtManager) RequestPermissionsFromUser(ctx context.Context, perms []Permission) (GrantResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var undecided []Permission
	for _, p := range perms {
		if _, ok := m.decisions[p]; !ok {
			undecided = append(undecided, p)
		}
	}

	if len(undecided) > 0 {
		if m.prompter == nil {
			return GrantResult{}, errors.New("permission prompt unavailable")
		}
		answers, err := m.prompter.Prompt(ctx, undecided)
		if err != nil {
			return GrantResult{}, fmt.Errorf("prompt: %w", err)
		}
		for _, p := range undecided {
			m.decisions[p] = answers[p]
		}
		if err := m.save(); err != nil {
			return GrantResult{}, err
		}
	}

	res := GrantResult{Permissions: append([]Permission(nil), perms...)}
	for _, p := range perms {
		status := Denied
		if m.decisions[p] {
			status = Granted
		}
		res.AuthResults = append(res.AuthResults, status)
	}
	m.logger.Info().
		Int("requested", len(perms)).
		Int("prompted", len(undecided)).
		Bool("all_granted", res.AllGranted()).
		Msg("requestPermissionsFromUser")
	return res, nil
}

// Verify reports whether perm has been granted.
func (m *AtManager) Verify(perm Permission) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.decisions[perm]
}

// Revoke forgets the decision for perm so the next request prompts again.
func (m *AtManager) Revoke(perm Permission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.decisions, perm)
	return m.save()
}

func (m *AtManager) save() error {
	data, err := yaml.Marshal(grantFile{Grants: m.decisions})
	if err != nil {
		return fmt.Errorf("encode permissions: %w", err)
	}
	if err := renameio.WriteFile(m.path, data, 0o600); err != nil {
		return fmt.Errorf("write permissions %s: %w", m.path, err)
	}
	return nil
}
