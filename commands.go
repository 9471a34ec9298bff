package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/olivier-w/surfacetest/internal/ability"
	"github.com/olivier-w/surfacetest/internal/config"
	"github.com/olivier-w/surfacetest/internal/log"
	"github.com/olivier-w/surfacetest/internal/medialib"
	"github.com/olivier-w/surfacetest/internal/permission"
	"github.com/olivier-w/surfacetest/internal/resource"
	"github.com/olivier-w/surfacetest/internal/surface"
	"github.com/olivier-w/surfacetest/internal/ui"
	"github.com/olivier-w/surfacetest/internal/util"
)

const usage = `usage: surfacetest [command]

With no command the index page runs in the terminal.

commands:
  showtime <ms>          format milliseconds as mm:ss
  scan <dir>             index a directory into the media library
  find <display-name>    look up a media library record
  fd <name>              acquire a bundled resource, print it and release it`

var errUsage = errors.New(usage)

type resourceManager interface {
	resource.Manager
	Close() error
}

func openResources(cfg config.Resources) (resourceManager, error) {
	if cfg.UsesBundle() {
		m, err := resource.OpenBundle(cfg.Bundle)
		if err != nil {
			return nil, err
		}
		return m, nil
	}
	return resource.NewDirManager(cfg.RawfileDir), nil
}

func runCommand(ctx context.Context, cfg *config.Config, name string, args []string, out io.Writer) error {
	switch name {
	case "showtime":
		if len(args) != 1 {
			return errUsage
		}
		return runShowTime(args[0], out)
	case "scan":
		if len(args) != 1 {
			return errUsage
		}
		return runScan(ctx, cfg, args[0], out)
	case "find":
		if len(args) != 1 {
			return errUsage
		}
		return runFind(ctx, cfg, args[0], out)
	case "fd":
		if len(args) != 1 {
			return errUsage
		}
		return runFd(ctx, cfg, args[0], out)
	case "help", "-h", "--help":
		fmt.Fprintln(out, usage)
		return nil
	default:
		return fmt.Errorf("unknown command %q\n%w", name, errUsage)
	}
}

func runShowTime(arg string, out io.Writer) error {
	ms, err := strconv.ParseFloat(arg, 64)
	if err != nil {
		return fmt.Errorf("parse %q: %w", arg, err)
	}
	s, err := util.ShowTime(ms)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, s)
	return nil
}

func runScan(ctx context.Context, cfg *config.Config, dir string, out io.Writer) error {
	store, err := medialib.Open(cfg.Library.DBPath, cfg.Library.BusyTimeout)
	if err != nil {
		return err
	}
	defer store.Close()

	sc := medialib.NewScanner(store, cfg.Library.ScanWorkers, log.WithComponent("scanner"))
	res, err := sc.Scan(ctx, dir)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "indexed %d files (%d unreadable)\n", res.Files, res.Unreadable)
	return nil
}

func runFind(ctx context.Context, cfg *config.Config, displayName string, out io.Writer) error {
	store, err := medialib.Open(cfg.Library.DBPath, cfg.Library.BusyTimeout)
	if err != nil {
		return err
	}
	defer store.Close()

	asset, err := medialib.FindFile(ctx, store, "", displayName)
	if err != nil {
		return err
	}
	if asset == nil {
		fmt.Fprintf(out, "no media asset named %q\n", displayName)
		return nil
	}
	dur, err := util.ShowTimeMillis(asset.Duration)
	if err != nil {
		dur = "--:--"
	}
	fmt.Fprintf(out, "%s\t%s\t%s\t%s\t%s\n", asset.URI, asset.DisplayName, asset.RelativePath, asset.MimeType, dur)
	return nil
}

func runFd(ctx context.Context, cfg *config.Config, name string, out io.Writer) error {
	mgr, err := openResources(cfg.Resources)
	if err != nil {
		return err
	}
	defer mgr.Close()

	acc := resource.NewAccessor(mgr, log.WithComponent("resource"))
	res := acc.Acquire(ctx, name)
	if !res.OK() {
		return fmt.Errorf("acquire %s (%s): %w", name, res.Reason(), res.Err)
	}
	d := res.Descriptor
	fmt.Fprintf(out, "fd=%d offset=%d length=%d lease=%s\n", d.FD, d.Offset, d.Length, d.Lease)
	return acc.Release(ctx, name)
}

// runHost wires the ability context and runs the entry ability in the
// terminal window stage. Logs go to cfg.Log.File while the TUI is up.
func runHost(ctx context.Context, cfg *config.Config) error {
	logFile, err := log.OpenFile(cfg.Log.File)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()
	log.Configure(log.Config{Level: cfg.Log.Level, Output: logFile})

	mgr, err := openResources(cfg.Resources)
	if err != nil {
		return err
	}
	defer mgr.Close()

	store, err := medialib.Open(cfg.Library.DBPath, cfg.Library.BusyTimeout)
	if err != nil {
		return err
	}
	defer store.Close()

	atm, err := permission.NewAtManager(cfg.Permissions.File,
		permission.AutoPrompter(cfg.Permissions.AutoGrant), log.WithComponent("permission"))
	if err != nil {
		return err
	}

	surfaces := surface.NewRegistry()
	actx := &ability.Context{
		Ctx:         ctx,
		Resources:   resource.NewAccessor(mgr, log.WithComponent("resource")),
		Library:     store,
		Permissions: atm,
		Surfaces:    surfaces,
		Binding:     surface.NewBinding(surfaces, log.WithComponent("napitest")),
		Logger:      log.WithComponent("ability"),
	}

	entry := ability.NewEntryAbility(actx)
	host := ability.NewHost(entry, ui.NewStage(actx))
	err = host.Run(ability.Want{BundleName: "com.example.surfacetest", AbilityName: "EntryAbility"},
		ability.LaunchParam{Reason: "start"})
	entry.WaitPermissions()
	return err
}
