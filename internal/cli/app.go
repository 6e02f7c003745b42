package cli

import (
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/hbjs97/nodeswitch/internal/cache"
	"github.com/hbjs97/nodeswitch/internal/cmdexec"
	"github.com/hbjs97/nodeswitch/internal/config"
	"github.com/hbjs97/nodeswitch/internal/filesystem"
	"github.com/hbjs97/nodeswitch/internal/hook"
	"github.com/hbjs97/nodeswitch/internal/locator"
	"github.com/hbjs97/nodeswitch/internal/logging"
	"github.com/hbjs97/nodeswitch/internal/manager"
	"github.com/hbjs97/nodeswitch/internal/resolver"
	"github.com/hbjs97/nodeswitch/internal/setup"
	"github.com/hbjs97/nodeswitch/internal/state"
	"github.com/hbjs97/nodeswitch/internal/switcher"
)

// App은 CLI 명령이 공유하는 의존성이다. 테스트에서는 필드를 직접 채운다.
type App struct {
	Commander  cmdexec.Commander
	FS         filesystem.FileSystem
	FormRunner setup.FormRunner
	CfgPath    string
	CachePath  string
	EnvPath    string
	// LookupEnv가 nil이면 os.LookupEnv를 사용한다.
	LookupEnv func(string) (string, bool)

	verbose bool
}

// NewApp은 실제 명령 실행기와 파일 시스템을 사용하는 App을 생성한다.
func NewApp() *App {
	return &App{
		Commander:  &cmdexec.RealCommander{},
		FS:         filesystem.NewOSFileSystem(),
		FormRunner: &setup.HuhFormRunner{},
		LookupEnv:  os.LookupEnv,
	}
}

func (a *App) fs() filesystem.FileSystem {
	if a.FS == nil {
		return filesystem.NewOSFileSystem()
	}
	return a.FS
}

func (a *App) lookupEnv() func(string) (string, bool) {
	if a.LookupEnv == nil {
		return os.LookupEnv
	}
	return a.LookupEnv
}

func (a *App) getenv(key string) string {
	v, _ := a.lookupEnv()(key)
	return v
}

// loadConfig는 env 파일, 설정 파일, NODESWITCH_* 환경변수 순서로 설정을 만든다.
func (a *App) loadConfig() (*config.Config, error) {
	if err := config.LoadEnvFile(a.envPath()); err != nil {
		return nil, err
	}
	cfg, err := config.Load(a.CfgPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(a.lookupEnv()); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (a *App) logger(cfg *config.Config, w io.Writer) zerolog.Logger {
	return logging.New(w, a.verbose || cfg.Debug)
}

// pipeline은 hook 한 번의 실행에 필요한 구성 요소 묶음이다.
type pipeline struct {
	nvm     *manager.Nvm
	probe   *manager.Probe
	tracker *state.Tracker
	hook    *hook.Hook
}

func (a *App) newPipeline(cfg *config.Config, log zerolog.Logger) *pipeline {
	fsys := a.fs()

	nvm := manager.NewNvm(a.Commander, fsys, cfg.ResolvedNvmDir(), log)
	c, err := cache.Load(a.cachePath())
	if err != nil {
		log.Debug().Err(err).Msg("캐시 로드 실패, 빈 캐시 사용")
		c = cache.New()
	}
	node := manager.WithCache(nvm, c, a.cachePath(), nvm.Fingerprint, log)

	var pm manager.PackageManager
	if cfg.IsManagePnpm() {
		pm = manager.NewCorepack(a.Commander, fsys, cfg.ResolvedCorepackHome(), log)
	}

	probe := manager.NewProbe(a.Commander)
	tracker := state.NewTracker(state.FromEnv(a.lookupEnv()), probe, log)

	loc := locator.New(fsys, locator.Options{
		WorkspaceFile:   cfg.WorkspaceFile,
		BoundaryMarkers: cfg.BoundaryMarkers,
	}, log)
	res := resolver.New(node, pm, resolver.Options{
		Fallback:              cfg.Fallback,
		DefaultNode:           cfg.DefaultNode,
		DefaultPackageManager: cfg.DefaultPnpm,
		ManagePackageManager:  cfg.IsManagePnpm(),
	}, log)
	exec := switcher.New(node, pm, tracker, log)

	return &pipeline{
		nvm:     nvm,
		probe:   probe,
		tracker: tracker,
		hook:    hook.New(loc, res, exec, tracker, cfg.IsManagePnpm(), log),
	}
}
