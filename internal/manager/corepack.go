package manager

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"

	"github.com/rs/zerolog"

	"github.com/hbjs97/nodeswitch/internal/cmdexec"
	"github.com/hbjs97/nodeswitch/internal/filesystem"
	"github.com/hbjs97/nodeswitch/internal/version"
)

// Corepack은 corepack으로 pnpm 버전을 활성화하는 PackageManager다.
// 네트워크를 끈 채 실행하므로 캐시에 없는 버전은 내려받지 않고 실패한다.
type Corepack struct {
	cmd   cmdexec.Commander
	fs    filesystem.FileSystem
	home  string
	probe *Probe
	log   zerolog.Logger
}

// NewCorepack은 home(COREPACK_HOME) 캐시를 사용하는 Corepack을 생성한다.
func NewCorepack(cmd cmdexec.Commander, fsys filesystem.FileSystem, home string, log zerolog.Logger) *Corepack {
	return &Corepack{cmd: cmd, fs: fsys, home: home, probe: NewProbe(cmd), log: log}
}

// Name은 "corepack"을 반환한다.
func (c *Corepack) Name() string { return "corepack" }

// Home은 COREPACK_HOME 경로를 반환한다.
func (c *Corepack) Home() string { return c.home }

// Installed는 corepack 캐시에 내려받아진 pnpm 버전을 반환한다.
// corepack 버전에 따라 $COREPACK_HOME/pnpm 또는 $COREPACK_HOME/v1/pnpm을 사용한다.
func (c *Corepack) Installed(_ context.Context) ([]string, error) {
	var found []string
	for _, dir := range []string{
		filepath.Join(c.home, "pnpm"),
		filepath.Join(c.home, "v1", "pnpm"),
	} {
		entries, err := c.fs.ReadDir(dir)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("manager.Corepack.Installed: %w", err)
		}
		for _, e := range entries {
			if e.IsDir() {
				found = append(found, e.Name())
			}
		}
	}
	return version.Sort(found), nil
}

// Use는 `corepack prepare pnpm@<version> --activate`를 실행하고 pnpm --version으로 재확인한다.
func (c *Corepack) Use(ctx context.Context, target string, env map[string]string) (Activation, error) {
	runEnv := mergeEnv(env, map[string]string{
		"COREPACK_ENABLE_NETWORK": "0",
		"COREPACK_HOME":           c.home,
	})

	c.log.Debug().Str("version", target).Msg("corepack prepare")
	if _, err := c.cmd.RunWithEnv(ctx, runEnv, "corepack", "prepare", "pnpm@"+target, "--activate"); err != nil {
		if installed, lerr := c.Installed(ctx); lerr == nil && !slices.Contains(installed, target) {
			return Activation{}, fmt.Errorf("manager.Corepack.Use: %w: pnpm %s", ErrNotInstalled, target)
		}
		return Activation{}, fmt.Errorf("manager.Corepack.Use: %w", err)
	}

	got, err := c.probe.PackageManager(ctx, runEnv)
	if err != nil {
		return Activation{}, fmt.Errorf("manager.Corepack.Use: %w", err)
	}
	if got != target {
		return Activation{}, fmt.Errorf("manager.Corepack.Use: %w: 목표 %s, 실제 %s", ErrVersionMismatch, target, got)
	}
	return Activation{Version: got}, nil
}
